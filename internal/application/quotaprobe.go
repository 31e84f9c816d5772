package application

import (
	"context"
	"log/slog"

	"github.com/ericfisherdev/leakwatch/internal/domain/model"
)

// QuotaProbe reads per-credential rate-limit state. Probing is advisory:
// a failed probe logs a warning and falls back to the last known snapshot
// rather than failing the scan.
type QuotaProbe struct {
	pool     *CredentialPool
	provider *SearchClientProvider
	clock    Clock
}

// NewQuotaProbe creates a probe over the given pool.
func NewQuotaProbe(pool *CredentialPool, provider *SearchClientProvider, clock Clock) *QuotaProbe {
	return &QuotaProbe{pool: pool, provider: provider, clock: clock}
}

// Probe fetches the credential's search-bucket quota and records it on the
// pool. On failure it returns the last known snapshot, which is the zero
// snapshot for a never-probed credential.
func (q *QuotaProbe) Probe(ctx context.Context, cred *model.Credential) model.QuotaSnapshot {
	status, err := q.provider.For(cred).FetchQuota(ctx)
	if err != nil {
		slog.Warn("quota probe failed, using last known snapshot",
			"token", cred.MaskedToken(),
			"error", err)
		if cred.Quota != nil {
			return *cred.Quota
		}
		return model.QuotaSnapshot{}
	}

	snap := status.Search
	snap.ProbedAt = q.clock.Now()
	q.pool.MarkProbed(cred, snap)
	return snap
}

// ProbeAll probes every credential in the pool in order and logs the state
// of each. Used before a scan so that proactive rotation has data to act on.
func (q *QuotaProbe) ProbeAll(ctx context.Context) {
	for _, cred := range q.pool.Credentials() {
		snap := q.Probe(ctx, cred)
		slog.Info("credential quota",
			"token", cred.MaskedToken(),
			"search_remaining", snap.Remaining,
			"search_limit", snap.Limit,
			"available", cred.Available)
	}
}

// Status fetches both rate-limit buckets for one credential without the
// soft-fail fallback. The quota command uses it for display; errors there
// should be visible, not swallowed.
func (q *QuotaProbe) Status(ctx context.Context, cred *model.Credential) (*model.QuotaStatus, error) {
	status, err := q.provider.For(cred).FetchQuota(ctx)
	if err != nil {
		return nil, err
	}
	snap := status.Search
	snap.ProbedAt = q.clock.Now()
	q.pool.MarkProbed(cred, snap)
	return status, nil
}
