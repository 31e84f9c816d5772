package application

import (
	"context"
	"time"
)

// Clock abstracts time for the dispatcher and orchestrator so tests can
// drive backoff waits and timestamps without real sleeping.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until the context is done, whichever comes
	// first. It returns the context error when interrupted.
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

// NewSystemClock returns a Clock backed by the runtime clock.
func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
