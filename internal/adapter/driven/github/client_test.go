package github_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ghAdapter "github.com/ericfisherdev/leakwatch/internal/adapter/driven/github"
	"github.com/ericfisherdev/leakwatch/internal/domain/port/driven"
)

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler) (*ghAdapter.Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := ghAdapter.NewClientWithHTTPClient(
		server.Client(),
		server.URL+"/",
	)
	require.NoError(t, err)

	return client, server
}

// --- JSON fixture structs for GitHub API responses ---

type repoJSON struct {
	FullName    string    `json:"full_name"`
	Owner       ownerJSON `json:"owner"`
	HTMLURL     string    `json:"html_url"`
	Description string    `json:"description,omitempty"`
	Stars       int       `json:"stargazers_count,omitempty"`
	UpdatedAt   string    `json:"updated_at,omitempty"`
}

type ownerJSON struct {
	Login string `json:"login"`
}

type codeResultJSON struct {
	Name       string   `json:"name"`
	Path       string   `json:"path"`
	HTMLURL    string   `json:"html_url"`
	Repository repoJSON `json:"repository"`
}

type codeSearchJSON struct {
	TotalCount int              `json:"total_count"`
	Items      []codeResultJSON `json:"items"`
}

type commitResultJSON struct {
	SHA        string     `json:"sha"`
	HTMLURL    string     `json:"html_url"`
	Commit     commitJSON `json:"commit"`
	Repository repoJSON   `json:"repository"`
}

type commitJSON struct {
	Message string           `json:"message"`
	Author  commitAuthorJSON `json:"author"`
}

type commitAuthorJSON struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

type commitSearchJSON struct {
	TotalCount int                `json:"total_count"`
	Items      []commitResultJSON `json:"items"`
}

type prRefJSON struct {
	URL string `json:"url"`
}

type issueJSON struct {
	Number        int        `json:"number"`
	Title         string     `json:"title"`
	Body          string     `json:"body,omitempty"`
	State         string     `json:"state"`
	User          ownerJSON  `json:"user"`
	HTMLURL       string     `json:"html_url"`
	RepositoryURL string     `json:"repository_url"`
	CreatedAt     string     `json:"created_at"`
	PullRequest   *prRefJSON `json:"pull_request,omitempty"`
}

type issueSearchJSON struct {
	TotalCount int         `json:"total_count"`
	Items      []issueJSON `json:"items"`
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func testRepo() repoJSON {
	return repoJSON{
		FullName:    "acme/widgets",
		Owner:       ownerJSON{Login: "acme"},
		HTMLURL:     "https://github.com/acme/widgets",
		Description: "Widget factory",
		Stars:       42,
		UpdatedAt:   "2026-02-01T10:00:00Z",
	}
}

func TestSearchCode_MapsHits(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search/code", r.URL.Path)
		assert.Equal(t, `"sk_live_abcd1234"`, r.URL.Query().Get("q"))
		writeJSON(t, w, codeSearchJSON{
			TotalCount: 1,
			Items: []codeResultJSON{{
				Name:       "app.env",
				Path:       "config/app.env",
				HTMLURL:    "https://github.com/acme/widgets/blob/main/config/app.env",
				Repository: testRepo(),
			}},
		})
	})

	client, _ := newTestClient(t, handler)
	hits, err := client.SearchCode(context.Background(), `"sk_live_abcd1234"`, 100)

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "config/app.env", hits[0].Path)
	assert.Equal(t, "https://github.com/acme/widgets/blob/main/config/app.env", hits[0].URL)
	assert.Equal(t, "acme/widgets", hits[0].Repo.FullName)
	assert.Equal(t, "acme", hits[0].Repo.Owner)
	assert.Equal(t, "Widget factory", hits[0].Repo.Description)
	assert.Equal(t, 42, hits[0].Repo.Stars)
}

func TestSearchCode_PaginatesToLimit(t *testing.T) {
	var server *httptest.Server
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		if page == "" || page == "1" {
			w.Header().Set("Link", fmt.Sprintf(`<%s/search/code?page=2>; rel="next"`, server.URL))
			writeJSON(t, w, codeSearchJSON{
				TotalCount: 3,
				Items: []codeResultJSON{
					{Path: "a.txt", Repository: testRepo()},
					{Path: "b.txt", Repository: testRepo()},
				},
			})
			return
		}
		writeJSON(t, w, codeSearchJSON{
			TotalCount: 3,
			Items:      []codeResultJSON{{Path: "c.txt", Repository: testRepo()}},
		})
	})

	client, srv := newTestClient(t, handler)
	server = srv

	hits, err := client.SearchCode(context.Background(), `"value"`, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "c.txt", hits[2].Path)
}

func TestSearchCode_StopsAtLimitMidPage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, codeSearchJSON{
			TotalCount: 3,
			Items: []codeResultJSON{
				{Path: "a.txt", Repository: testRepo()},
				{Path: "b.txt", Repository: testRepo()},
				{Path: "c.txt", Repository: testRepo()},
			},
		})
	})

	client, _ := newTestClient(t, handler)
	hits, err := client.SearchCode(context.Background(), `"value"`, 2)

	require.NoError(t, err)
	require.Len(t, hits, 2)
}

func TestSearchCode_RateLimitBecomesQuotaExhausted(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Ratelimit-Limit", "30")
		w.Header().Set("X-Ratelimit-Remaining", "0")
		w.Header().Set("X-Ratelimit-Reset", "1700000060")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"API rate limit exceeded"}`)
	})

	client, _ := newTestClient(t, handler)
	_, err := client.SearchCode(context.Background(), `"value"`, 10)

	require.Error(t, err)
	assert.ErrorIs(t, err, driven.ErrQuotaExhausted)
}

func TestSearchCode_PlainForbidden(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"Resource protected by organization SAML enforcement"}`)
	})

	client, _ := newTestClient(t, handler)
	_, err := client.SearchCode(context.Background(), `"value"`, 10)

	require.Error(t, err)
	assert.ErrorIs(t, err, driven.ErrForbidden)
	assert.NotErrorIs(t, err, driven.ErrQuotaExhausted)
}

func TestSearchCode_RecordsLastQuota(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Ratelimit-Limit", "30")
		w.Header().Set("X-Ratelimit-Remaining", "7")
		w.Header().Set("X-Ratelimit-Reset", "1700000060")
		writeJSON(t, w, codeSearchJSON{})
	})

	client, _ := newTestClient(t, handler)
	require.Nil(t, client.LastQuota())

	_, err := client.SearchCode(context.Background(), `"value"`, 10)
	require.NoError(t, err)

	snap := client.LastQuota()
	require.NotNil(t, snap)
	assert.Equal(t, 7, snap.Remaining)
	assert.Equal(t, 30, snap.Limit)
	assert.True(t, snap.Probed())
}

func TestSearchCommits_MapsHits(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search/commits", r.URL.Path)
		writeJSON(t, w, commitSearchJSON{
			TotalCount: 1,
			Items: []commitResultJSON{{
				SHA:     "deadbeefcafe0123456789abcdef0123456789ab",
				HTMLURL: "https://github.com/acme/widgets/commit/deadbee",
				Commit: commitJSON{
					Message: "add prod credentials",
					Author:  commitAuthorJSON{Name: "alice", Date: "2026-01-15T09:30:00Z"},
				},
				Repository: testRepo(),
			}},
		})
	})

	client, _ := newTestClient(t, handler)
	hits, err := client.SearchCommits(context.Background(), `"value"`, 30)

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "deadbeefcafe0123456789abcdef0123456789ab", hits[0].SHA)
	assert.Equal(t, "add prod credentials", hits[0].Message)
	assert.Equal(t, "alice", hits[0].Author)
	assert.Equal(t, "acme/widgets", hits[0].Repo.FullName)
}

func TestSearchIssues_ClassifiesAndDerivesRepo(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search/issues", r.URL.Path)
		writeJSON(t, w, issueSearchJSON{
			TotalCount: 2,
			Items: []issueJSON{
				{
					Number:        7,
					Title:         "Leaked key in logs",
					Body:          "see attached",
					State:         "open",
					User:          ownerJSON{Login: "bob"},
					HTMLURL:       "https://github.com/acme/widgets/issues/7",
					RepositoryURL: "https://api.github.com/repos/acme/widgets",
					CreatedAt:     "2026-01-20T00:00:00Z",
				},
				{
					Number:        8,
					Title:         "Rotate credentials",
					State:         "closed",
					User:          ownerJSON{Login: "carol"},
					HTMLURL:       "https://github.com/acme/widgets/pull/8",
					RepositoryURL: "https://api.github.com/repos/acme/widgets",
					CreatedAt:     "2026-01-21T00:00:00Z",
					PullRequest:   &prRefJSON{URL: "https://api.github.com/repos/acme/widgets/pulls/8"},
				},
			},
		})
	})

	client, _ := newTestClient(t, handler)
	hits, err := client.SearchIssues(context.Background(), `"value"`, 100)

	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.False(t, hits[0].IsPullRequest)
	assert.Equal(t, 7, hits[0].Number)
	assert.Equal(t, "bob", hits[0].Author)
	// Issue search results carry no embedded repository; identity comes
	// from the API URL.
	assert.Equal(t, "acme/widgets", hits[0].Repo.FullName)
	assert.Equal(t, "acme", hits[0].Repo.Owner)
	assert.Equal(t, "https://github.com/acme/widgets", hits[0].Repo.URL)

	assert.True(t, hits[1].IsPullRequest)
	assert.Equal(t, 8, hits[1].Number)
}

func TestFetchFileText_DecodesContent(t *testing.T) {
	content := "line one\nsk_live_abcd1234\nline three\n"
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/acme/widgets/contents/config/app.env", r.URL.Path)
		writeJSON(t, w, map[string]any{
			"type":     "file",
			"name":     "app.env",
			"path":     "config/app.env",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte(content)),
		})
	})

	client, _ := newTestClient(t, handler)
	text, ok, err := client.FetchFileText(context.Background(), "acme/widgets", "config/app.env")

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, content, text)
}

func TestFetchFileText_DirectoryIsNotFetchable(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, []map[string]any{
			{"type": "file", "name": "a.txt", "path": "dir/a.txt"},
		})
	})

	client, _ := newTestClient(t, handler)
	_, ok, err := client.FetchFileText(context.Background(), "acme/widgets", "dir")

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFetchFileText_NotFoundIsNotAnError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	})

	client, _ := newTestClient(t, handler)
	_, ok, err := client.FetchFileText(context.Background(), "acme/widgets", "gone.txt")

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFetchFileText_BadRepoName(t *testing.T) {
	client, _ := newTestClient(t, http.NotFoundHandler())

	_, _, err := client.FetchFileText(context.Background(), "not-a-full-name", "a.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner/repo")
}

func TestFetchCommitPatches(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/acme/widgets/commits/deadbee", r.URL.Path)
		writeJSON(t, w, map[string]any{
			"sha": "deadbee",
			"files": []map[string]any{
				{"filename": "config/app.env", "patch": "@@ -1 +1 @@\n+sk_live_abcd1234"},
				{"filename": "assets/logo.png"},
			},
		})
	})

	client, _ := newTestClient(t, handler)
	patches, err := client.FetchCommitPatches(context.Background(), "acme/widgets", "deadbee")

	require.NoError(t, err)
	require.Len(t, patches, 2)
	assert.Equal(t, "config/app.env", patches[0].Filename)
	assert.Contains(t, patches[0].Patch, "sk_live_abcd1234")
	// Binary files come back without a patch.
	assert.Empty(t, patches[1].Patch)
}

func TestFetchQuota(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rate_limit", r.URL.Path)
		writeJSON(t, w, map[string]any{
			"resources": map[string]any{
				"core":   map[string]any{"limit": 5000, "remaining": 4990, "reset": 1700003600},
				"search": map[string]any{"limit": 30, "remaining": 12, "reset": 1700000060},
			},
		})
	})

	client, _ := newTestClient(t, handler)
	status, err := client.FetchQuota(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4990, status.Core.Remaining)
	assert.Equal(t, 5000, status.Core.Limit)
	assert.Equal(t, 12, status.Search.Remaining)
	assert.Equal(t, 30, status.Search.Limit)
	assert.Equal(t, int64(1700000060), status.Search.ResetAt.Unix())
}
