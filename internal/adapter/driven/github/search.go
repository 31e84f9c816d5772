package github

import (
	"context"
	"fmt"
	"strings"

	gh "github.com/google/go-github/v82/github"

	"github.com/ericfisherdev/leakwatch/internal/domain/model"
)

// searchPageSize is the maximum page size the search API accepts.
const searchPageSize = 100

// SearchCode returns up to limit files whose indexed content matches the
// query. Pagination stops at the limit or the last page, whichever comes
// first.
func (c *Client) SearchCode(ctx context.Context, query string, limit int) ([]model.CodeHit, error) {
	opts := &gh.SearchOptions{
		ListOptions: gh.ListOptions{PerPage: pageSize(limit)},
	}

	var hits []model.CodeHit
	for {
		result, resp, err := c.gh.Search.Code(ctx, query, opts)
		c.noteSearchRate(resp)
		if err != nil {
			return nil, classify(fmt.Sprintf("searching code (page %d)", opts.Page), err)
		}
		logRateLimit(resp, "search/code", opts.Page, len(result.CodeResults))

		for _, res := range result.CodeResults {
			hits = append(hits, model.CodeHit{
				Path: res.GetPath(),
				URL:  res.GetHTMLURL(),
				Repo: mapRepoMeta(res.GetRepository()),
			})
			if len(hits) >= limit {
				return hits, nil
			}
		}

		if resp.NextPage == 0 {
			return hits, nil
		}
		opts.Page = resp.NextPage
	}
}

// SearchCommits returns up to limit commits matching the query.
func (c *Client) SearchCommits(ctx context.Context, query string, limit int) ([]model.CommitHit, error) {
	opts := &gh.SearchOptions{
		ListOptions: gh.ListOptions{PerPage: pageSize(limit)},
	}

	var hits []model.CommitHit
	for {
		result, resp, err := c.gh.Search.Commits(ctx, query, opts)
		c.noteSearchRate(resp)
		if err != nil {
			return nil, classify(fmt.Sprintf("searching commits (page %d)", opts.Page), err)
		}
		logRateLimit(resp, "search/commits", opts.Page, len(result.Commits))

		for _, res := range result.Commits {
			hits = append(hits, mapCommitHit(res))
			if len(hits) >= limit {
				return hits, nil
			}
		}

		if resp.NextPage == 0 {
			return hits, nil
		}
		opts.Page = resp.NextPage
	}
}

// SearchIssues returns up to limit issues and pull requests matching the
// query. Both kinds come back from the one shared endpoint; the caller
// filters by IsPullRequest.
func (c *Client) SearchIssues(ctx context.Context, query string, limit int) ([]model.IssueHit, error) {
	opts := &gh.SearchOptions{
		ListOptions: gh.ListOptions{PerPage: pageSize(limit)},
	}

	var hits []model.IssueHit
	for {
		result, resp, err := c.gh.Search.Issues(ctx, query, opts)
		c.noteSearchRate(resp)
		if err != nil {
			return nil, classify(fmt.Sprintf("searching issues (page %d)", opts.Page), err)
		}
		logRateLimit(resp, "search/issues", opts.Page, len(result.Issues))

		for _, res := range result.Issues {
			hits = append(hits, mapIssueHit(res))
			if len(hits) >= limit {
				return hits, nil
			}
		}

		if resp.NextPage == 0 {
			return hits, nil
		}
		opts.Page = resp.NextPage
	}
}

func pageSize(limit int) int {
	if limit > 0 && limit < searchPageSize {
		return limit
	}
	return searchPageSize
}

func mapCommitHit(res *gh.CommitResult) model.CommitHit {
	commit := res.GetCommit()
	return model.CommitHit{
		SHA:        res.GetSHA(),
		URL:        res.GetHTMLURL(),
		Message:    commit.GetMessage(),
		Author:     commit.GetAuthor().GetName(),
		AuthoredAt: commit.GetAuthor().GetDate().Time,
		Repo:       mapRepoMeta(res.GetRepository()),
	}
}

func mapIssueHit(issue *gh.Issue) model.IssueHit {
	repo := mapRepoMeta(issue.GetRepository())
	if repo.FullName == "" {
		// Issue search results usually omit the embedded repository; the
		// API URL still identifies it.
		repo.FullName = repoFromAPIURL(issue.GetRepositoryURL())
		if repo.FullName != "" {
			repo.Owner = strings.SplitN(repo.FullName, "/", 2)[0]
			repo.URL = "https://github.com/" + repo.FullName
		}
	}

	return model.IssueHit{
		Number:        issue.GetNumber(),
		Title:         issue.GetTitle(),
		Body:          issue.GetBody(),
		State:         issue.GetState(),
		Author:        issue.GetUser().GetLogin(),
		CreatedAt:     issue.GetCreatedAt().Time,
		URL:           issue.GetHTMLURL(),
		IsPullRequest: issue.IsPullRequest(),
		Repo:          repo,
	}
}

// repoFromAPIURL extracts "owner/repo" from an API URL of the form
// "https://api.github.com/repos/owner/repo".
func repoFromAPIURL(apiURL string) string {
	const marker = "/repos/"
	i := strings.Index(apiURL, marker)
	if i < 0 {
		return ""
	}
	rest := strings.Trim(apiURL[i+len(marker):], "/")
	parts := strings.Split(rest, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return parts[0] + "/" + parts[1]
}
