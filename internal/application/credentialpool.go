package application

import (
	"errors"
	"strings"

	"github.com/ericfisherdev/leakwatch/internal/domain/model"
)

// availabilityThreshold is the search-quota remainder below which a
// credential is considered too depleted to rely on.
const availabilityThreshold = 10

// CredentialPool owns the ordered set of GitHub credentials and the
// round-robin cursor over them. Rotation is strictly cyclic; exhausted
// credentials stay in the rotation because their quota recovers on reset.
// The pool is not safe for concurrent use; the scanner issues one request
// at a time.
type CredentialPool struct {
	creds []*model.Credential
	index int
}

// NewCredentialPool builds a pool from raw token strings. Tokens are
// trimmed and deduplicated preserving first occurrence; an empty result is
// an error because the scanner cannot run unauthenticated.
func NewCredentialPool(tokens []string) (*CredentialPool, error) {
	seen := make(map[string]bool, len(tokens))
	var creds []*model.Credential
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true
		creds = append(creds, model.NewCredential(token))
	}
	if len(creds) == 0 {
		return nil, errors.New("credential pool requires at least one non-empty token")
	}
	return &CredentialPool{creds: creds}, nil
}

// Current returns the credential the next request should use.
func (p *CredentialPool) Current() *model.Credential {
	return p.creds[p.index]
}

// Rotate advances the cursor to the next credential and returns it. With a
// single credential this is a no-op; callers detect that by comparing the
// returned pointer with the previous Current.
func (p *CredentialPool) Rotate() *model.Credential {
	p.index = (p.index + 1) % len(p.creds)
	return p.creds[p.index]
}

// Size returns the number of credentials in the pool.
func (p *CredentialPool) Size() int {
	return len(p.creds)
}

// MarkProbed records a quota observation for the credential and recomputes
// its availability. Negative remainders are clamped to zero.
func (p *CredentialPool) MarkProbed(cred *model.Credential, snap model.QuotaSnapshot) {
	if snap.Remaining < 0 {
		snap.Remaining = 0
	}
	cred.Quota = &snap
	cred.Available = snap.Remaining > availabilityThreshold
}

// AvailableCount returns how many credentials are currently marked
// available. Unprobed credentials count as available.
func (p *CredentialPool) AvailableCount() int {
	n := 0
	for _, c := range p.creds {
		if c.Available {
			n++
		}
	}
	return n
}

// Credentials returns the pool contents in rotation order, starting from
// the first configured token rather than the cursor.
func (p *CredentialPool) Credentials() []*model.Credential {
	out := make([]*model.Credential, len(p.creds))
	copy(out, p.creds)
	return out
}
