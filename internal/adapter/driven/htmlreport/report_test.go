package htmlreport_test

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/leakwatch/internal/adapter/driven/htmlreport"
	"github.com/ericfisherdev/leakwatch/internal/domain/model"
)

func sampleData() htmlreport.Data {
	started := time.Date(2026, 2, 10, 14, 0, 0, 0, time.UTC)
	finished := started.Add(5 * time.Minute)

	records := []model.LeakRecord{
		{
			Category:      model.CategoryCode,
			Repo:          model.RepoMeta{FullName: "acme/widgets", URL: "https://github.com/acme/widgets", Stars: 42},
			Location:      "config/app.env",
			URL:           "https://github.com/acme/widgets/blob/main/config/app.env",
			Evidence:      "API_KEY=sk_live_abcd1234efgh5678",
			MatchedFields: []model.MatchedField{model.MatchedContent},
			LineNumber:    2,
			SecretType:    model.SecretTypeAPIKey,
			SecretValue:   "sk_live_abcd1234efgh5678",
			SecretMasked:  "sk_liv******h5678",
			SecretNote:    "billing service key",
			FoundAt:       finished,
		},
		{
			Category:      model.CategoryCommit,
			Repo:          model.RepoMeta{FullName: "acme/widgets", URL: "https://github.com/acme/widgets"},
			Location:      "commit deadbee",
			URL:           "https://github.com/acme/widgets/commit/deadbee",
			Evidence:      "+API_KEY=sk_live_abcd1234efgh5678",
			MatchedFields: []model.MatchedField{model.MatchedDiff},
			CommitSHA:     "deadbeefcafe",
			CommitAuthor:  "alice",
			AffectedFiles: []string{"config/app.env"},
			SecretType:    model.SecretTypeAPIKey,
			SecretValue:   "sk_live_abcd1234efgh5678",
			SecretMasked:  "sk_liv******h5678",
			FoundAt:       finished,
		},
	}

	return htmlreport.Data{
		ScanID:     "8a9e2a74-test",
		StartedAt:  started,
		FinishedAt: finished,
		Stats: model.Stats{
			TotalSecrets:  3,
			LeakedSecrets: 1,
			TotalRecords:  2,
			UniqueRepos:   1,
			LeakageRate:   33.3,
			ByType:        map[model.SecretType]model.TypeCount{model.SecretTypeAPIKey: {Count: 2, DisplayName: "API Key"}},
			ByRepo:        map[string]model.RepoCount{"acme/widgets": {Count: 2, URL: "https://github.com/acme/widgets"}},
		},
		Records: records,
	}
}

func writeReport(t *testing.T, data htmlreport.Data) string {
	t.Helper()

	path, err := htmlreport.NewGenerator().Write(t.TempDir(), data)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestWrite_LeakReport(t *testing.T) {
	data := sampleData()
	gen := htmlreport.NewGenerator()

	path, err := gen.Write(t.TempDir(), data)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "leakwatch_report_20260210_140500.html"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(content)

	assert.Contains(t, html, "8a9e2a74-test")
	assert.Contains(t, html, "Leaks found")
	assert.Contains(t, html, "sk_liv******h5678")
	assert.Contains(t, html, "acme/widgets")
	assert.Contains(t, html, "config/app.env")
	assert.Contains(t, html, "line 2")
	assert.Contains(t, html, "billing service key")
	assert.Contains(t, html, "33.3%")

	// One group for the single leaked secret, holding both records.
	assert.Equal(t, 1, strings.Count(html, `<div class="group">`))
	assert.Equal(t, 2, strings.Count(html, `<div class="card">`))

	// The raw value never appears.
	assert.NotContains(t, html, "sk_live_abcd1234efgh5678")
}

func TestWrite_AllClear(t *testing.T) {
	data := sampleData()
	data.Records = nil
	data.Stats = model.Stats{TotalSecrets: 3}

	html := writeReport(t, data)

	assert.Contains(t, html, "All clear")
	assert.NotContains(t, html, `<div class="group">`)
}

func TestWrite_Interrupted(t *testing.T) {
	data := sampleData()
	data.Interrupted = true

	html := writeReport(t, data)

	assert.Contains(t, html, "interrupted")
	// Partial results still render.
	assert.Contains(t, html, "acme/widgets")
}

func TestWrite_EscapesHostileContent(t *testing.T) {
	data := sampleData()
	data.Records[0].Evidence = `<script>alert(1)</script>API_KEY=x`
	data.Records[0].Repo.Description = `desc <img src=x onerror=alert(1)>`

	html := writeReport(t, data)

	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.NotContains(t, html, "onerror=alert(1)")
}

func TestWrite_CreatesDirectory(t *testing.T) {
	dir := t.TempDir() + "/nested/reports"

	path, err := htmlreport.NewGenerator().Write(dir, sampleData())

	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestWrite_AllowlistedFootnote(t *testing.T) {
	data := sampleData()
	data.AllowlistedDropped = 4

	html := writeReport(t, data)
	assert.Contains(t, html, "4 allowlisted finding(s) excluded")
}
