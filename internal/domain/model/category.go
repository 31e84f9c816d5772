package model

import (
	"fmt"
	"strings"
)

// Category identifies which GitHub search surface a scan query targets.
// Issues and pull requests share one search endpoint; results are split
// by pull-request reference after the fact.
type Category string

const (
	CategoryCode        Category = "code"
	CategoryCommit      Category = "commit"
	CategoryIssue       Category = "issue"
	CategoryPullRequest Category = "pull_request"
)

// Categories lists every supported category in scan order.
func Categories() []Category {
	return []Category{CategoryCode, CategoryCommit, CategoryIssue, CategoryPullRequest}
}

// ParseCategory normalizes a user-supplied category name. Plural forms are
// accepted because that is how the GitHub search endpoints are named.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "code":
		return CategoryCode, nil
	case "commit", "commits":
		return CategoryCommit, nil
	case "issue", "issues":
		return CategoryIssue, nil
	case "pull_request", "pull_requests", "pr", "prs":
		return CategoryPullRequest, nil
	default:
		return "", fmt.Errorf("unknown search category %q", s)
	}
}

// MatchedField names the part of a search hit where the secret value was
// found verbatim.
type MatchedField string

const (
	MatchedContent MatchedField = "content" // File line, or normalized search match without a verbatim field hit.
	MatchedMessage MatchedField = "message" // Commit message.
	MatchedDiff    MatchedField = "diff"    // Commit file patch.
	MatchedTitle   MatchedField = "title"   // Issue or PR title.
	MatchedBody    MatchedField = "body"    // Issue or PR body.
)
