package model

import (
	"fmt"
	"time"
)

// LeakRecord is one verified occurrence of a monitored secret somewhere on
// GitHub. The always-present fields identify where the value was seen; the
// category-specific fields stay at their zero values for other categories,
// and the secret fields are attached by the orchestrator when it tags the
// record with the secret that produced it.
type LeakRecord struct {
	Category      Category
	Repo          RepoMeta
	Location      string // File path, "commit <sha>", or "issue #N" / "pull request #N".
	URL           string
	Evidence      string // Trimmed matching line or excerpt, capped at 200 chars.
	MatchedFields []MatchedField

	// Code records only.
	LineNumber int // 1-based; 0 when not applicable.

	// Commit records only.
	CommitSHA     string
	CommitMessage string
	CommitAuthor  string
	CommittedAt   time.Time
	AffectedFiles []string

	// Issue and pull request records only.
	IssueNumber    int
	IssueTitle     string
	IssueState     string
	IssueAuthor    string
	IssueCreatedAt time.Time

	// Attached by the orchestrator. SecretValue is kept for distinct-secret
	// accounting and report grouping; anything user-facing must render
	// SecretMasked instead.
	SecretType   SecretType
	SecretValue  string
	SecretMasked string
	SecretNote   string
	FoundAt      time.Time
}

// Matched reports whether the record's matched fields include f.
func (r LeakRecord) Matched(f MatchedField) bool {
	for _, m := range r.MatchedFields {
		if m == f {
			return true
		}
	}
	return false
}

// Title returns a one-line description used by notifications and logs.
func (r LeakRecord) Title() string {
	return fmt.Sprintf("%s leak in %s (%s)", r.SecretType.DisplayName(), r.Repo.FullName, r.Location)
}

// ShortSHA returns the abbreviated commit hash, or the full value when it
// is already short.
func (r LeakRecord) ShortSHA() string {
	if len(r.CommitSHA) > 7 {
		return r.CommitSHA[:7]
	}
	return r.CommitSHA
}
