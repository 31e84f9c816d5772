package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/leakwatch/internal/domain/model"
	"github.com/ericfisherdev/leakwatch/internal/domain/port/driven"
)

const (
	// defaultMaxAttempts bounds charged query attempts per (secret, category).
	defaultMaxAttempts = 3

	// transientDelay is the fixed wait after a transient failure.
	transientDelay = 5 * time.Second

	// backoffFloor and backoffCap clamp the rate-limit wait. resetSlack is
	// added to the probed reset time to absorb clock skew against GitHub.
	backoffFloor = 60 * time.Second
	backoffCap   = 70 * time.Second
	resetSlack   = 5 * time.Second

	// proactiveRemainingMax is the probed search remainder at or below which
	// the dispatcher rotates before issuing a query, while other credentials
	// exist to rotate to.
	proactiveRemainingMax = 2
)

// SearchDispatcher executes one search query with credential rotation,
// quota-aware backoff, and a bounded retry budget. It owns no scan state
// beyond the run in progress; the orchestrator drives it once per
// (secret, category) pair.
type SearchDispatcher struct {
	pool        *CredentialPool
	provider    *SearchClientProvider
	probe       *QuotaProbe
	extractor   *Extractor
	clock       Clock
	maxAttempts int
}

// NewSearchDispatcher wires a dispatcher. maxAttempts values below one fall
// back to the default budget.
func NewSearchDispatcher(pool *CredentialPool, provider *SearchClientProvider, probe *QuotaProbe, extractor *Extractor, clock Clock, maxAttempts int) *SearchDispatcher {
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	return &SearchDispatcher{
		pool:        pool,
		provider:    provider,
		probe:       probe,
		extractor:   extractor,
		clock:       clock,
		maxAttempts: maxAttempts,
	}
}

// Execute runs the state machine for one secret and one category and
// returns the extracted leak records. A Failed terminal state returns an
// error describing the last failure; the caller logs it and moves on, so
// one failed query never aborts a scan.
func (d *SearchDispatcher) Execute(ctx context.Context, secret model.SecretItem, category model.Category, maxResults int) ([]model.LeakRecord, error) {
	switch category {
	case model.CategoryCode, model.CategoryCommit, model.CategoryIssue, model.CategoryPullRequest:
	default:
		return nil, fmt.Errorf("unsupported search category %q", category)
	}

	var (
		state        = DispatchIdle
		event        = EventStart
		attemptsLeft = d.maxAttempts
		freeRetries  = 0
		records      []model.LeakRecord
		lastErr      error
	)

	for {
		next, action, err := NextState(state, event)
		if err != nil {
			return nil, err
		}
		state = next

		switch action {
		case ActionQueryFresh, ActionQuery, ActionQueryFree:
			if action != ActionQueryFree {
				attemptsLeft--
				freeRetries = 0
			}
			if action == ActionQueryFresh {
				d.rotateAheadIfLow()
			}
			records, lastErr = d.runSearch(ctx, secret, category, maxResults)
			if lastErr != nil {
				event = d.classify(ctx, lastErr)
				slog.Debug("search attempt failed",
					"category", category,
					"secret_type", secret.Type,
					"event", event,
					"attempts_left", attemptsLeft,
					"error", lastErr)
			} else {
				event = EventHits
			}

		case ActionRotate:
			before := d.pool.Current()
			after := d.pool.Rotate()
			if after != before && freeRetries < d.pool.Size()-1 {
				freeRetries++
				event = EventRotated
				slog.Info("rotated credential after quota exhaustion",
					"token", after.MaskedToken(),
					"category", category,
					"secret_type", secret.Type)
			} else {
				event = EventRotationNoop
			}

		case ActionSleepBrief, ActionSleepReset:
			if attemptsLeft <= 0 {
				event = EventBudgetExhausted
				continue
			}
			wait := transientDelay
			if action == ActionSleepReset {
				wait = d.backoffWait(ctx)
			}
			slog.Info("backing off before retry",
				"category", category,
				"secret_type", secret.Type,
				"wait", wait,
				"attempts_left", attemptsLeft)
			if err := d.clock.Sleep(ctx, wait); err != nil {
				lastErr = err
				event = EventInterrupted
			} else {
				event = EventSlept
			}

		case ActionFinish:
			return records, nil

		case ActionAbort:
			return nil, fmt.Errorf("%s search for %s secret failed: %w", category, secret.Type, lastErr)
		}
	}
}

// runSearch issues the category's search on the current credential and
// hands the hits to the extractor. The query is the exact secret value in
// double quotes; GitHub then matches it verbatim instead of tokenizing it.
func (d *SearchDispatcher) runSearch(ctx context.Context, secret model.SecretItem, category model.Category, maxResults int) ([]model.LeakRecord, error) {
	client := d.provider.For(d.pool.Current())
	query := `"` + secret.Value + `"`

	var (
		records []model.LeakRecord
		err     error
	)
	switch category {
	case model.CategoryCode:
		var hits []model.CodeHit
		hits, err = client.SearchCode(ctx, query, maxResults)
		if err == nil {
			records = d.extractor.CodeLeaks(ctx, client, hits, secret.Value)
		}
	case model.CategoryCommit:
		var hits []model.CommitHit
		hits, err = client.SearchCommits(ctx, query, maxResults)
		if err == nil {
			records = d.extractor.CommitLeaks(ctx, client, hits, secret.Value)
		}
	case model.CategoryIssue, model.CategoryPullRequest:
		var hits []model.IssueHit
		hits, err = client.SearchIssues(ctx, query, maxResults)
		if err == nil {
			records = d.extractor.IssueLeaks(hits, secret.Value, category, maxResults)
		}
	default:
		return nil, fmt.Errorf("unsupported search category %q", category)
	}

	if snap := client.LastQuota(); snap != nil {
		d.pool.MarkProbed(d.pool.Current(), *snap)
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

// rotateAheadIfLow rotates before querying when the current credential is
// nearly drained and another credential exists. This consumes nothing from
// the retry budget; it just picks a better starting credential.
func (d *SearchDispatcher) rotateAheadIfLow() {
	if d.pool.Size() < 2 {
		return
	}
	cur := d.pool.Current()
	remaining := cur.Remaining()
	if remaining < 0 || remaining > proactiveRemainingMax {
		return
	}
	next := d.pool.Rotate()
	slog.Debug("rotated credential ahead of query",
		"from", cur.MaskedToken(),
		"to", next.MaskedToken(),
		"remaining", remaining)
}

// backoffWait decides how long to wait for the rate-limit window. When a
// probe confirms the bucket is empty and reports a reset time, the wait
// targets that reset plus slack, clamped into [backoffFloor, backoffCap];
// otherwise the floor applies.
func (d *SearchDispatcher) backoffWait(ctx context.Context) time.Duration {
	snap := d.probe.Probe(ctx, d.pool.Current())
	if snap.Probed() && snap.Remaining == 0 && !snap.ResetAt.IsZero() {
		wait := snap.ResetAt.Sub(d.clock.Now()) + resetSlack
		if wait < backoffFloor {
			wait = backoffFloor
		}
		if wait > backoffCap {
			wait = backoffCap
		}
		return wait
	}
	return backoffFloor
}

// classify maps a query failure onto the state machine event vocabulary.
// Context cancellation wins over any other classification so an interrupt
// is never mistaken for a retryable failure.
func (d *SearchDispatcher) classify(ctx context.Context, err error) DispatchEvent {
	switch {
	case ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return EventInterrupted
	case errors.Is(err, driven.ErrQuotaExhausted):
		return EventQuotaExhausted
	case errors.Is(err, driven.ErrForbidden):
		return EventForbidden
	default:
		return EventTransient
	}
}
