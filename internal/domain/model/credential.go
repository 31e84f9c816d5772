package model

// Credential is one GitHub token in the rotation pool together with the
// last quota snapshot observed for it. A fresh credential is assumed
// available until a probe proves otherwise.
type Credential struct {
	Token     string
	Quota     *QuotaSnapshot // nil until the first probe.
	Available bool
}

// NewCredential returns an unprobed credential assumed to be usable.
func NewCredential(token string) *Credential {
	return &Credential{Token: token, Available: true}
}

// Remaining returns the probed search-quota remainder, or -1 when the
// credential has never been probed.
func (c *Credential) Remaining() int {
	if c.Quota == nil {
		return -1
	}
	return c.Quota.Remaining
}

// MaskedToken returns a loggable form of the token. Short tokens are fully
// hidden rather than partially revealed.
func (c *Credential) MaskedToken() string {
	if len(c.Token) <= 12 {
		return "***"
	}
	return c.Token[:8] + "..." + c.Token[len(c.Token)-4:]
}
