package allowlist

import (
	"context"
	"log/slog"

	"github.com/ericfisherdev/leakwatch/internal/domain/model"
	"github.com/ericfisherdev/leakwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Notifier = (*FilteringNotifier)(nil)

// FilteringNotifier decorates a Notifier so allowlisted records are dropped
// before they reach the alert channel. Summary and all-clear messages pass
// through untouched; the caller computes those from already-filtered
// records.
type FilteringNotifier struct {
	inner driven.Notifier
	list  *AllowList
}

// NewFilteringNotifier wraps inner with the given allowlist.
func NewFilteringNotifier(inner driven.Notifier, list *AllowList) *FilteringNotifier {
	return &FilteringNotifier{inner: inner, list: list}
}

// PushLeak forwards the record unless the allowlist suppresses it.
func (n *FilteringNotifier) PushLeak(ctx context.Context, record model.LeakRecord) error {
	if n.list.Contains(record) {
		slog.Debug("allowlisted record suppressed",
			"repo", record.Repo.FullName,
			"location", record.Location)
		return nil
	}
	return n.inner.PushLeak(ctx, record)
}

// PushSummary delegates to the wrapped notifier.
func (n *FilteringNotifier) PushSummary(ctx context.Context, records []model.LeakRecord, stats model.Stats) error {
	return n.inner.PushSummary(ctx, records, stats)
}

// PushAllClear delegates to the wrapped notifier.
func (n *FilteringNotifier) PushAllClear(ctx context.Context, stats model.Stats) error {
	return n.inner.PushAllClear(ctx, stats)
}
