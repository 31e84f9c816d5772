package driven

import "github.com/ericfisherdev/leakwatch/internal/domain/model"

// AllowList defines the driven port for suppressing known-good findings.
// Matching a rule is idempotent and side-effect free.
type AllowList interface {
	// Contains reports whether the record matches an allow rule and should
	// be excluded from alerts and statistics.
	Contains(record model.LeakRecord) bool
}
