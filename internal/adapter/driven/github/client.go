// Package github implements the SearchClient port using the go-github library.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/leakwatch/internal/domain/model"
	"github.com/ericfisherdev/leakwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SearchClient = (*Client)(nil)

// lowQuotaWarning is the search remainder below which every response logs
// a warning. The search bucket is only 30 requests per minute, so single
// digits mean a backoff is close.
const lowQuotaWarning = 10

// Client implements the driven.SearchClient port using the go-github
// library. One Client is bound to one token; the pool rotates between
// Clients rather than re-authenticating a shared one.
type Client struct {
	gh *gh.Client

	mu         sync.Mutex
	lastSearch *model.QuotaSnapshot
}

// NewClient creates a GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	return &Client{gh: client}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base
// URL. This constructor is intended for testing, allowing injection of an
// httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// FetchFileText retrieves and decodes a repository file. ok is false when
// the path is not a plain text file (directories, binaries, undecodable
// encodings) or when GitHub denies access to it; those hits simply cannot
// match a secret and are not errors.
func (c *Client) FetchFileText(ctx context.Context, repoFullName, path string) (string, bool, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return "", false, err
	}

	file, _, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		if isNotFetchable(err) {
			slog.Debug("file not fetchable",
				"repo", repoFullName,
				"path", path,
				"error", err)
			return "", false, nil
		}
		return "", false, classify(fmt.Sprintf("fetching contents of %s/%s", repoFullName, path), err)
	}
	logRateLimit(resp, "repos/contents", 0, 1)

	if file == nil {
		// Directory listing; nothing to scan.
		return "", false, nil
	}

	text, err := file.GetContent()
	if err != nil || !utf8.ValidString(text) {
		return "", false, nil
	}
	return text, true, nil
}

// FetchCommitPatches retrieves the per-file diffs for a commit.
func (c *Client) FetchCommitPatches(ctx context.Context, repoFullName, sha string) ([]model.CommitPatch, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	commit, resp, err := c.gh.Repositories.GetCommit(ctx, owner, repo, sha, nil)
	if err != nil {
		return nil, classify(fmt.Sprintf("fetching commit %s of %s", sha, repoFullName), err)
	}
	logRateLimit(resp, "repos/commits", 0, len(commit.Files))

	patches := make([]model.CommitPatch, 0, len(commit.Files))
	for _, f := range commit.Files {
		patches = append(patches, model.CommitPatch{
			Filename: f.GetFilename(),
			Patch:    f.GetPatch(),
		})
	}
	return patches, nil
}

// FetchQuota reads both rate-limit buckets. The rate_limit endpoint itself
// is exempt from quota accounting.
func (c *Client) FetchQuota(ctx context.Context) (*model.QuotaStatus, error) {
	limits, _, err := c.gh.RateLimit.Get(ctx)
	if err != nil {
		return nil, classify("fetching rate limits", err)
	}

	return &model.QuotaStatus{
		Core:   mapRate(limits.GetCore()),
		Search: mapRate(limits.GetSearch()),
	}, nil
}

// LastQuota returns the search-bucket snapshot from the most recent search
// response, or nil before the first search.
func (c *Client) LastQuota() *model.QuotaSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastSearch == nil {
		return nil
	}
	snap := *c.lastSearch
	return &snap
}

// noteSearchRate records the rate header state of a search response.
func (c *Client) noteSearchRate(resp *gh.Response) {
	if resp == nil {
		return
	}
	snap := model.QuotaSnapshot{
		Remaining: resp.Rate.Remaining,
		Limit:     resp.Rate.Limit,
		ResetAt:   resp.Rate.Reset.Time,
		ProbedAt:  time.Now(),
	}
	c.mu.Lock()
	c.lastSearch = &snap
	c.mu.Unlock()
}

func mapRate(rate *gh.Rate) model.QuotaSnapshot {
	if rate == nil {
		return model.QuotaSnapshot{}
	}
	return model.QuotaSnapshot{
		Remaining: rate.Remaining,
		Limit:     rate.Limit,
		ResetAt:   rate.Reset.Time,
	}
}

func mapRepoMeta(repo *gh.Repository) model.RepoMeta {
	if repo == nil {
		return model.RepoMeta{}
	}
	return model.RepoMeta{
		FullName:    repo.GetFullName(),
		Owner:       repo.GetOwner().GetLogin(),
		URL:         repo.GetHTMLURL(),
		Description: repo.GetDescription(),
		Stars:       repo.GetStargazersCount(),
		UpdatedAt:   repo.GetUpdatedAt().Time,
	}
}

func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Remaining < lowQuotaWarning {
		slog.Warn("github rate limit low",
			"endpoint", endpoint,
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}
