package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/leakwatch/internal/adapter/driven/allowlist"
	"github.com/ericfisherdev/leakwatch/internal/adapter/driven/dingtalk"
	githubadapter "github.com/ericfisherdev/leakwatch/internal/adapter/driven/github"
	"github.com/ericfisherdev/leakwatch/internal/adapter/driven/htmlreport"
	"github.com/ericfisherdev/leakwatch/internal/adapter/driven/secretfile"
	"github.com/ericfisherdev/leakwatch/internal/application"
	"github.com/ericfisherdev/leakwatch/internal/config"
	"github.com/ericfisherdev/leakwatch/internal/domain/model"
	"github.com/ericfisherdev/leakwatch/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Signal-based context (SIGINT, SIGTERM): an interrupt stops the scan
	// loop between steps; accumulated findings are still reported.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "leakwatch",
		Short: "Monitor GitHub for exposure of known secret values",
		Long: `leakwatch searches GitHub code, commits, and issues/PRs for verbatim
occurrences of secrets listed in a flat file, rotating across a pool of
credentials to stay within search quota.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runScan(cmd.Context(), cfg)
		},
	}

	flags := root.PersistentFlags()
	flags.String("secrets-file", "", "path to the pipe-delimited secrets list")
	flags.String("categories", "", "comma-separated search categories (code,commits,issues,prs)")
	flags.String("output-dir", "", "directory for HTML reports")
	flags.String("webhook-url", "", "DingTalk robot webhook for alerts")
	flags.String("allowlist", "", "path to the YAML allowlist")
	flags.Int("max-results", 0, "search hits to verify per secret per category")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(&cobra.Command{
		Use:   "quota",
		Short: "Show per-credential rate-limit state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runQuota(cmd.Context(), cfg)
		},
	})

	return root
}

// loadConfig reads the environment configuration and applies any CLI flag
// overrides on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("secrets-file"); flags.Changed("secrets-file") {
		cfg.SecretsFile = v
	}
	if v, _ := flags.GetString("categories"); flags.Changed("categories") {
		cfg.Categories = splitFlagList(v)
	}
	if v, _ := flags.GetString("output-dir"); flags.Changed("output-dir") {
		cfg.OutputDir = v
	}
	if v, _ := flags.GetString("webhook-url"); flags.Changed("webhook-url") {
		cfg.WebhookURL = v
	}
	if v, _ := flags.GetString("allowlist"); flags.Changed("allowlist") {
		cfg.AllowlistFile = v
	}
	if v, _ := flags.GetInt("max-results"); flags.Changed("max-results") {
		if v < 1 {
			return nil, fmt.Errorf("--max-results must be positive, got %d", v)
		}
		cfg.MaxResults = v
	}
	if v, _ := flags.GetString("log-level"); flags.Changed("log-level") {
		cfg.LogLevel = v
	}
	return cfg, nil
}

func runScan(ctx context.Context, cfg *config.Config) error {
	// 1. Logger with a scan run ID on every line.
	scanID := uuid.NewString()
	setupLogger(cfg.LogLevel, scanID)
	slog.Info("config loaded",
		"secrets_file", cfg.SecretsFile,
		"categories", cfg.Categories,
		"output_dir", cfg.OutputDir,
		"max_results", cfg.MaxResults,
		"webhook", cfg.HasWebhook(),
	)

	// 2. Resolve requested categories up front.
	categories, err := parseCategories(cfg.Categories)
	if err != nil {
		return err
	}

	// 3. Load the secrets to monitor.
	list, err := secretfile.Load(cfg.SecretsFile)
	if err != nil {
		return err
	}
	typeAttrs := make([]any, 0, 2+2*len(list.CountByType()))
	typeAttrs = append(typeAttrs, "total", len(list.Items))
	for secretType, count := range list.CountByType() {
		typeAttrs = append(typeAttrs, string(secretType), count)
	}
	slog.Info("secrets loaded", typeAttrs...)
	if list.Skipped > 0 {
		slog.Warn("some secrets lines were rejected", "skipped", list.Skipped)
	}

	// 4. Credential pool and per-token clients.
	pool, err := application.NewCredentialPool(cfg.GitHubTokens)
	if err != nil {
		return err
	}
	provider := application.NewSearchClientProvider(func(token string) driven.SearchClient {
		return githubadapter.NewClient(token)
	})
	clock := application.NewSystemClock()

	// 5. Pre-scan quota status so proactive rotation has data.
	probe := application.NewQuotaProbe(pool, provider, clock)
	probe.ProbeAll(ctx)

	// 6. Allowlist and notification sink.
	allow, err := allowlist.Load(cfg.AllowlistFile)
	if err != nil {
		return err
	}
	if !allow.Empty() {
		repoRules, fileRules := allow.RuleCount()
		slog.Info("allowlist loaded", "repo_rules", repoRules, "file_rules", fileRules)
	}

	var notifier driven.Notifier
	if cfg.HasWebhook() {
		notifier = allowlist.NewFilteringNotifier(dingtalk.NewNotifier(cfg.WebhookURL), allow)
	}

	// 7. Dispatcher and scan loop.
	dispatcher := application.NewSearchDispatcher(pool, provider, probe, application.NewExtractor(), clock, cfg.MaxAttempts)
	scanSvc := application.NewScanService(dispatcher, pool, notifier, clock,
		cfg.MaxResults, cfg.SecretDelay, cfg.PooledSecretDelay)

	startedAt := time.Now()
	records := scanSvc.Run(ctx, list.Items, categories)
	interrupted := ctx.Err() != nil

	// 8. Filter allowlisted findings out of the final counts.
	kept, dropped := allow.Filter(records)
	if dropped > 0 {
		slog.Info("allowlisted findings excluded", "dropped", dropped)
	}
	stats := scanSvc.Statistics(list.Items, kept)

	// 9. Write the HTML report, even for a partial scan.
	reportPath, err := htmlreport.NewGenerator().Write(cfg.OutputDir, htmlreport.Data{
		ScanID:             scanID,
		StartedAt:          startedAt,
		FinishedAt:         time.Now(),
		Interrupted:        interrupted,
		Stats:              stats,
		Records:            kept,
		AllowlistedDropped: dropped,
	})
	if err != nil {
		slog.Error("report write failed", "error", err)
	} else {
		slog.Info("report written", "path", reportPath)
	}

	// 10. Closing notification for completed scans.
	if notifier != nil && !interrupted {
		if stats.HasLeaks() {
			if err := notifier.PushSummary(ctx, kept, stats); err != nil {
				slog.Warn("summary notification failed", "error", err)
			}
		} else {
			if err := notifier.PushAllClear(ctx, stats); err != nil {
				slog.Warn("all-clear notification failed", "error", err)
			}
		}
	}

	slog.Info("scan finished",
		"interrupted", interrupted,
		"secrets", stats.TotalSecrets,
		"leaked_secrets", stats.LeakedSecrets,
		"records", stats.TotalRecords,
		"unique_repos", stats.UniqueRepos,
		"leakage_rate", fmt.Sprintf("%.1f%%", stats.LeakageRate),
		"duration", time.Since(startedAt).Round(time.Second),
	)
	return nil
}

func runQuota(ctx context.Context, cfg *config.Config) error {
	setupLogger(cfg.LogLevel, "")

	pool, err := application.NewCredentialPool(cfg.GitHubTokens)
	if err != nil {
		return err
	}
	provider := application.NewSearchClientProvider(func(token string) driven.SearchClient {
		return githubadapter.NewClient(token)
	})
	probe := application.NewQuotaProbe(pool, provider, application.NewSystemClock())

	now := time.Now()
	for _, cred := range pool.Credentials() {
		status, err := probe.Status(ctx, cred)
		if err != nil {
			fmt.Printf("%s: unavailable (%v)\n", cred.MaskedToken(), err)
			continue
		}
		fmt.Printf("%s\n", cred.MaskedToken())
		fmt.Printf("  core:   %d/%d remaining, resets in %s\n",
			status.Core.Remaining, status.Core.Limit, status.Core.ResetIn(now).Round(time.Second))
		fmt.Printf("  search: %d/%d remaining, resets in %s\n",
			status.Search.Remaining, status.Search.Limit, status.Search.ResetIn(now).Round(time.Second))
	}
	fmt.Printf("\n%d credential(s), %d available\n", pool.Size(), pool.AvailableCount())
	return nil
}

// setupLogger installs the default slog logger. A non-empty scanID is
// attached to every record so interleaved runs stay distinguishable.
func setupLogger(level, scanID string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	if scanID != "" {
		logger = logger.With("scan_id", scanID)
	}
	slog.SetDefault(logger)
}

func parseCategories(names []string) ([]model.Category, error) {
	seen := make(map[model.Category]bool, len(names))
	var categories []model.Category
	for _, name := range names {
		category, err := model.ParseCategory(name)
		if err != nil {
			return nil, err
		}
		if seen[category] {
			continue
		}
		seen[category] = true
		categories = append(categories, category)
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("no search categories requested")
	}
	return categories, nil
}

func splitFlagList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
