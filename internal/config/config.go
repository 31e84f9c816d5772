// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the scanner configuration loaded from environment variables.
// It is constructed once at startup and treated as immutable; CLI flags may
// override individual fields before the components are wired.
type Config struct {
	GitHubTokens  []string
	SecretsFile   string
	Categories    []string
	OutputDir     string
	AllowlistFile string
	WebhookURL    string
	MaxResults    int
	MaxAttempts   int

	SecretDelay       time.Duration
	PooledSecretDelay time.Duration

	LogLevel string
}

// HasWebhook returns true when a notification webhook is configured.
func (c *Config) HasWebhook() bool {
	return c.WebhookURL != ""
}

// Load reads configuration from environment variables and returns a validated
// Config. LEAKWATCH_GITHUB_TOKEN holds a single token and
// LEAKWATCH_GITHUB_TOKENS a comma-separated list; both may be set and are
// merged in order. Optional variables with defaults:
// LEAKWATCH_SECRETS_FILE (secrets_to_monitor.txt), LEAKWATCH_CATEGORIES
// (code), LEAKWATCH_OUTPUT_DIR (./scan_reports), LEAKWATCH_ALLOWLIST
// (allowlist.yaml), LEAKWATCH_MAX_RESULTS (100), LEAKWATCH_MAX_ATTEMPTS (3),
// LEAKWATCH_SECRET_DELAY (2s), LEAKWATCH_POOLED_SECRET_DELAY (500ms),
// LEAKWATCH_LOG_LEVEL (info). Token validity is not checked here; an empty
// pool surfaces when the pool is constructed.
func Load() (*Config, error) {
	var tokens []string
	if v := strings.TrimSpace(os.Getenv("LEAKWATCH_GITHUB_TOKEN")); v != "" {
		tokens = append(tokens, v)
	}
	tokens = append(tokens, splitList(os.Getenv("LEAKWATCH_GITHUB_TOKENS"))...)

	secretsFile := "secrets_to_monitor.txt"
	if v, ok := os.LookupEnv("LEAKWATCH_SECRETS_FILE"); ok && v != "" {
		secretsFile = v
	}

	categories := []string{"code"}
	if v, ok := os.LookupEnv("LEAKWATCH_CATEGORIES"); ok && v != "" {
		categories = splitList(v)
		if len(categories) == 0 {
			return nil, fmt.Errorf("LEAKWATCH_CATEGORIES is set but empty: %q", v)
		}
	}

	outputDir := "./scan_reports"
	if v, ok := os.LookupEnv("LEAKWATCH_OUTPUT_DIR"); ok && v != "" {
		outputDir = v
	}

	allowlistFile := "allowlist.yaml"
	if v, ok := os.LookupEnv("LEAKWATCH_ALLOWLIST"); ok {
		allowlistFile = v
	}

	maxResults := 100
	if v, ok := os.LookupEnv("LEAKWATCH_MAX_RESULTS"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("LEAKWATCH_MAX_RESULTS has invalid value %q: expected a positive integer", v)
		}
		maxResults = parsed
	}

	maxAttempts := 3
	if v, ok := os.LookupEnv("LEAKWATCH_MAX_ATTEMPTS"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("LEAKWATCH_MAX_ATTEMPTS has invalid value %q: expected a positive integer", v)
		}
		maxAttempts = parsed
	}

	secretDelay := 2 * time.Second
	if v, ok := os.LookupEnv("LEAKWATCH_SECRET_DELAY"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("LEAKWATCH_SECRET_DELAY has invalid duration %q: %w", v, err)
		}
		secretDelay = parsed
	}

	pooledDelay := 500 * time.Millisecond
	if v, ok := os.LookupEnv("LEAKWATCH_POOLED_SECRET_DELAY"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("LEAKWATCH_POOLED_SECRET_DELAY has invalid duration %q: %w", v, err)
		}
		pooledDelay = parsed
	}

	logLevel := "info"
	if v, ok := os.LookupEnv("LEAKWATCH_LOG_LEVEL"); ok && v != "" {
		logLevel = strings.ToLower(v)
	}
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("LEAKWATCH_LOG_LEVEL has invalid value %q: expected debug, info, warn, or error", logLevel)
	}

	return &Config{
		GitHubTokens:      tokens,
		SecretsFile:       secretsFile,
		Categories:        categories,
		OutputDir:         outputDir,
		AllowlistFile:     allowlistFile,
		WebhookURL:        os.Getenv("LEAKWATCH_WEBHOOK_URL"),
		MaxResults:        maxResults,
		MaxAttempts:       maxAttempts,
		SecretDelay:       secretDelay,
		PooledSecretDelay: pooledDelay,
		LogLevel:          logLevel,
	}, nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
