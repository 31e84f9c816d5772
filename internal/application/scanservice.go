// Package application contains use-case orchestration services: the
// credential pool, the quota probe, the search dispatcher, and the scan
// loop that drives them over every monitored secret.
package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/ericfisherdev/leakwatch/internal/domain/model"
	"github.com/ericfisherdev/leakwatch/internal/domain/port/driven"
)

// ScanService runs the full scan: every monitored secret, across every
// requested category, strictly one query at a time. Per-category failures
// are logged and skipped so a single bad query never sinks a scan, and an
// interrupt between steps returns whatever was found so far.
type ScanService struct {
	dispatcher  *SearchDispatcher
	pool        *CredentialPool
	notifier    driven.Notifier // nil disables per-record alerts.
	clock       Clock
	maxResults  int
	delay       time.Duration
	pooledDelay time.Duration
}

// NewScanService creates the scan orchestrator. delay paces consecutive
// secrets with a single credential; pooledDelay applies when the pool has
// more than one credential and quota pressure is spread across them.
func NewScanService(
	dispatcher *SearchDispatcher,
	pool *CredentialPool,
	notifier driven.Notifier,
	clock Clock,
	maxResults int,
	delay time.Duration,
	pooledDelay time.Duration,
) *ScanService {
	return &ScanService{
		dispatcher:  dispatcher,
		pool:        pool,
		notifier:    notifier,
		clock:       clock,
		maxResults:  maxResults,
		delay:       delay,
		pooledDelay: pooledDelay,
	}
}

// Run scans every secret across the requested categories and returns all
// enriched leak records. The loop stops early when ctx is done, keeping the
// records accumulated up to that point.
func (s *ScanService) Run(ctx context.Context, secrets []model.SecretItem, categories []model.Category) []model.LeakRecord {
	slog.Info("scan starting",
		"secrets", len(secrets),
		"categories", categories,
		"credentials", s.pool.Size())

	var all []model.LeakRecord
	for i, secret := range secrets {
		if ctx.Err() != nil {
			slog.Info("scan interrupted", "scanned", i, "records", len(all))
			return all
		}
		if i > 0 {
			if err := s.clock.Sleep(ctx, s.secretDelay()); err != nil {
				slog.Info("scan interrupted", "scanned", i, "records", len(all))
				return all
			}
		}

		found := 0
		for _, category := range categories {
			if ctx.Err() != nil {
				slog.Info("scan interrupted", "scanned", i, "records", len(all))
				return all
			}
			records, err := s.dispatcher.Execute(ctx, secret, category, s.maxResults)
			if err != nil {
				if ctx.Err() != nil {
					slog.Info("scan interrupted", "scanned", i, "records", len(all))
					return all
				}
				slog.Error("category search failed, skipping",
					"secret_type", secret.Type,
					"category", category,
					"error", err)
				continue
			}
			for _, rec := range records {
				enriched := s.enrich(rec, secret)
				all = append(all, enriched)
				s.notify(ctx, enriched)
			}
			found += len(records)
			slog.Debug("category searched",
				"secret_type", secret.Type,
				"category", category,
				"records", len(records))
		}
		slog.Info("secret scanned",
			"secret_type", secret.Type,
			"note", secret.Note,
			"records", found)
	}

	slog.Info("scan complete", "secrets", len(secrets), "records", len(all))
	return all
}

// Statistics aggregates a finished scan. LeakedSecrets counts distinct
// secret values that produced at least one record.
func (s *ScanService) Statistics(secrets []model.SecretItem, records []model.LeakRecord) model.Stats {
	leaked := make(map[string]bool)
	byType := make(map[model.SecretType]model.TypeCount)
	byRepo := make(map[string]model.RepoCount)

	for _, rec := range records {
		leaked[rec.SecretValue] = true

		tc := byType[rec.SecretType]
		tc.Count++
		tc.DisplayName = rec.SecretType.DisplayName()
		byType[rec.SecretType] = tc

		rc := byRepo[rec.Repo.FullName]
		rc.Count++
		if rc.URL == "" {
			rc.URL = rec.Repo.URL
		}
		byRepo[rec.Repo.FullName] = rc
	}

	stats := model.Stats{
		TotalSecrets:  len(secrets),
		LeakedSecrets: len(leaked),
		TotalRecords:  len(records),
		UniqueRepos:   len(byRepo),
		ByType:        byType,
		ByRepo:        byRepo,
	}
	if stats.TotalSecrets > 0 {
		stats.LeakageRate = float64(stats.LeakedSecrets) / float64(stats.TotalSecrets) * 100
	}
	return stats
}

// secretDelay returns the pacing between consecutive secrets. A pool with
// spare credentials can afford the shorter interval.
func (s *ScanService) secretDelay() time.Duration {
	if s.pool.Size() > 1 {
		return s.pooledDelay
	}
	return s.delay
}

func (s *ScanService) enrich(rec model.LeakRecord, secret model.SecretItem) model.LeakRecord {
	rec.SecretType = secret.Type
	rec.SecretValue = secret.Value
	rec.SecretMasked = secret.MaskedValue()
	rec.SecretNote = secret.Note
	rec.FoundAt = s.clock.Now()
	return rec
}

// notify pushes one record to the alert channel. Each record is pushed at
// most once; failures are logged and never retried.
func (s *ScanService) notify(ctx context.Context, rec model.LeakRecord) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PushLeak(ctx, rec); err != nil {
		slog.Warn("leak notification failed",
			"repo", rec.Repo.FullName,
			"location", rec.Location,
			"error", err)
	}
}
