package model

import "time"

// RepoMeta describes the repository a search hit belongs to. Fields beyond
// FullName are best-effort; search endpoints do not always embed them.
type RepoMeta struct {
	FullName    string
	Owner       string
	URL         string
	Description string
	Stars       int
	UpdatedAt   time.Time
}

// CodeHit is one file returned by a code search, before its content has
// been fetched and verified.
type CodeHit struct {
	Path string
	URL  string
	Repo RepoMeta
}

// CommitHit is one commit returned by a commit search. Message and author
// come from the search result; file patches require a follow-up fetch.
type CommitHit struct {
	SHA        string
	URL        string
	Message    string
	Author     string
	AuthoredAt time.Time
	Repo       RepoMeta
}

// IssueHit is one result from the shared issue/PR search endpoint.
// IsPullRequest splits the two categories.
type IssueHit struct {
	Number        int
	Title         string
	Body          string
	State         string
	Author        string
	CreatedAt     time.Time
	URL           string
	IsPullRequest bool
	Repo          RepoMeta
}

// CommitPatch is one changed file within a commit, with its unified diff
// fragment. Patch is empty for binary or oversized files.
type CommitPatch struct {
	Filename string
	Patch    string
}
