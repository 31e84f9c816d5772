package driven

import (
	"context"

	"github.com/ericfisherdev/leakwatch/internal/domain/model"
)

// Notifier defines the driven port for pushing scan findings to an alert
// channel. Push failures are reported but must never stop a scan; callers
// log and continue, and no push is ever retried.
type Notifier interface {
	// PushLeak sends an alert for a single enriched leak record.
	PushLeak(ctx context.Context, record model.LeakRecord) error

	// PushSummary sends one aggregate message after a scan that found leaks.
	PushSummary(ctx context.Context, records []model.LeakRecord, stats model.Stats) error

	// PushAllClear sends a confirmation after a completed scan with no findings.
	PushAllClear(ctx context.Context, stats model.Stats) error
}
