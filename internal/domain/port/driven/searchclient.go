package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/leakwatch/internal/domain/model"
)

// ErrQuotaExhausted wraps GitHub rate-limit failures (primary or secondary).
// Callers rotate credentials or back off; the error is never fatal by itself.
var ErrQuotaExhausted = errors.New("search quota exhausted")

// ErrForbidden wraps 403 responses that are not rate limiting, such as token
// scope or SSO restrictions. Retrying cannot succeed, so callers abort the
// current query immediately.
var ErrForbidden = errors.New("access forbidden")

// SearchClient defines the driven port for querying GitHub. One client is
// bound to one credential; rotation happens by switching clients, not by
// mutating a client's token.
type SearchClient interface {
	// SearchCode returns up to limit files whose indexed content matches the
	// query. Hits still need content verification; the search index lags
	// live repository state.
	SearchCode(ctx context.Context, query string, limit int) ([]model.CodeHit, error)

	// SearchCommits returns up to limit commits matching the query.
	SearchCommits(ctx context.Context, query string, limit int) ([]model.CommitHit, error)

	// SearchIssues returns up to limit issues and pull requests matching the
	// query. The endpoint is shared; IssueHit.IsPullRequest separates them.
	SearchIssues(ctx context.Context, query string, limit int) ([]model.IssueHit, error)

	// FetchFileText returns the decoded text of a repository file.
	// ok is false when the path is a directory, the blob is not decodable
	// text, or access is denied; none of those are errors, the file simply
	// cannot match.
	FetchFileText(ctx context.Context, repoFullName, path string) (text string, ok bool, err error)

	// FetchCommitPatches returns the per-file diffs of one commit.
	FetchCommitPatches(ctx context.Context, repoFullName, sha string) ([]model.CommitPatch, error)

	// FetchQuota reads the credential's rate-limit buckets. The call itself
	// does not consume search quota.
	FetchQuota(ctx context.Context) (*model.QuotaStatus, error)

	// LastQuota returns the search-bucket snapshot carried on this client's
	// most recent search response, or nil before the first search. Every
	// GitHub response reports the bucket state, so this keeps credential
	// bookkeeping current without extra probe calls.
	LastQuota() *model.QuotaSnapshot
}
