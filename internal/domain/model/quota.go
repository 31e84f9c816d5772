package model

import "time"

// QuotaSnapshot records one observation of a GitHub rate-limit bucket.
// The zero value means "never probed"; Probed distinguishes a real
// observation from that default.
type QuotaSnapshot struct {
	Remaining int
	Limit     int
	ResetAt   time.Time
	ProbedAt  time.Time
}

// Probed reports whether this snapshot came from an actual rate_limit call.
func (q QuotaSnapshot) Probed() bool {
	return !q.ProbedAt.IsZero()
}

// ResetIn returns the time until the bucket resets, floored at zero.
func (q QuotaSnapshot) ResetIn(now time.Time) time.Duration {
	if q.ResetAt.IsZero() || !q.ResetAt.After(now) {
		return 0
	}
	return q.ResetAt.Sub(now)
}

// QuotaStatus carries both rate-limit buckets a credential cares about.
// Search drives dispatch decisions; Core covers file and commit fetches.
type QuotaStatus struct {
	Core   QuotaSnapshot
	Search QuotaSnapshot
}
