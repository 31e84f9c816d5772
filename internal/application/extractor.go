package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/ericfisherdev/leakwatch/internal/domain/model"
	"github.com/ericfisherdev/leakwatch/internal/domain/port/driven"
)

const (
	// evidenceLimit caps the stored snippet length. Evidence is for
	// eyeballing a finding, not for reproducing the file.
	evidenceLimit = 200

	// commitCandidateCap bounds commit verification regardless of the search
	// page budget; each candidate costs a detail fetch against core quota.
	commitCandidateCap = 30

	// affectedFilesCap bounds the diff-matched filenames kept per commit
	// record.
	affectedFilesCap = 5
)

// Extractor turns raw search hits into verified leak records. Search indexes
// are lossy and lag live state, so every hit is re-checked against the
// actual content before it becomes a record; hits that no longer contain
// the value are dropped silently.
type Extractor struct{}

// NewExtractor creates an extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// CodeLeaks verifies code search hits by fetching each file and scanning it
// line by line. Every line containing the value verbatim yields one record.
// Unfetchable or non-text files cannot match and are skipped.
func (e *Extractor) CodeLeaks(ctx context.Context, client driven.SearchClient, hits []model.CodeHit, secretValue string) []model.LeakRecord {
	var records []model.LeakRecord
	for _, hit := range hits {
		text, ok, err := client.FetchFileText(ctx, hit.Repo.FullName, hit.Path)
		if err != nil {
			slog.Debug("file content fetch failed",
				"repo", hit.Repo.FullName,
				"path", hit.Path,
				"error", err)
			continue
		}
		if !ok {
			continue
		}
		for i, line := range strings.Split(text, "\n") {
			if !strings.Contains(line, secretValue) {
				continue
			}
			records = append(records, model.LeakRecord{
				Category:      model.CategoryCode,
				Repo:          hit.Repo,
				Location:      hit.Path,
				URL:           hit.URL,
				Evidence:      truncateEvidence(line),
				MatchedFields: []model.MatchedField{model.MatchedContent},
				LineNumber:    i + 1,
			})
		}
	}
	return records
}

// CommitLeaks verifies commit search hits against the commit message and
// the per-file patches. Verification stops after commitCandidateCap
// candidates. A commit whose message matched keeps its record even when the
// detail fetch fails; recall beats precision for leak hunting.
func (e *Extractor) CommitLeaks(ctx context.Context, client driven.SearchClient, hits []model.CommitHit, secretValue string) []model.LeakRecord {
	if len(hits) > commitCandidateCap {
		hits = hits[:commitCandidateCap]
	}

	var records []model.LeakRecord
	for _, hit := range hits {
		var fields []model.MatchedField
		evidence := ""
		if strings.Contains(hit.Message, secretValue) {
			fields = append(fields, model.MatchedMessage)
			evidence = firstLine(hit.Message)
		}

		var affected []string
		patches, err := client.FetchCommitPatches(ctx, hit.Repo.FullName, hit.SHA)
		if err != nil {
			slog.Debug("commit detail fetch failed",
				"repo", hit.Repo.FullName,
				"sha", hit.SHA,
				"error", err)
		} else {
			for _, patch := range patches {
				if !strings.Contains(patch.Patch, secretValue) {
					continue
				}
				if len(affected) < affectedFilesCap {
					affected = append(affected, patch.Filename)
				}
				if !containsField(fields, model.MatchedDiff) {
					fields = append(fields, model.MatchedDiff)
				}
				if evidence == "" {
					evidence = firstMatchingLine(patch.Patch, secretValue)
				}
			}
		}

		if len(fields) == 0 {
			continue
		}

		rec := model.LeakRecord{
			Category:      model.CategoryCommit,
			Repo:          hit.Repo,
			Location:      "commit " + shortSHA(hit.SHA),
			URL:           hit.URL,
			Evidence:      truncateEvidence(evidence),
			MatchedFields: fields,
			CommitSHA:     hit.SHA,
			CommitMessage: truncateEvidence(hit.Message),
			CommitAuthor:  hit.Author,
			CommittedAt:   hit.AuthoredAt,
			AffectedFiles: affected,
		}
		records = append(records, rec)
	}
	return records
}

// IssueLeaks filters the shared issue/PR search down to the requested
// category and checks title and body independently. A hit that matched only
// through GitHub's normalization still yields a record, tagged as a content
// match.
func (e *Extractor) IssueLeaks(hits []model.IssueHit, secretValue string, category model.Category, maxResults int) []model.LeakRecord {
	wantPR := category == model.CategoryPullRequest

	var records []model.LeakRecord
	for _, hit := range hits {
		if hit.IsPullRequest != wantPR {
			continue
		}
		if maxResults > 0 && len(records) >= maxResults {
			break
		}

		var fields []model.MatchedField
		evidence := hit.Title
		if strings.Contains(hit.Title, secretValue) {
			fields = append(fields, model.MatchedTitle)
		}
		if strings.Contains(hit.Body, secretValue) {
			fields = append(fields, model.MatchedBody)
			if !containsField(fields, model.MatchedTitle) {
				evidence = firstMatchingLine(hit.Body, secretValue)
			}
		}
		if len(fields) == 0 {
			fields = []model.MatchedField{model.MatchedContent}
		}

		noun := "issue"
		if wantPR {
			noun = "pull request"
		}
		records = append(records, model.LeakRecord{
			Category:       category,
			Repo:           hit.Repo,
			Location:       fmt.Sprintf("%s #%d", noun, hit.Number),
			URL:            hit.URL,
			Evidence:       truncateEvidence(evidence),
			MatchedFields:  fields,
			IssueNumber:    hit.Number,
			IssueTitle:     hit.Title,
			IssueState:     hit.State,
			IssueAuthor:    hit.Author,
			IssueCreatedAt: hit.CreatedAt,
		})
	}
	return records
}

func containsField(fields []model.MatchedField, f model.MatchedField) bool {
	for _, have := range fields {
		if have == f {
			return true
		}
	}
	return false
}

func truncateEvidence(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= evidenceLimit {
		return s
	}
	cut := evidenceLimit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func firstMatchingLine(text, value string) string {
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, value) {
			return line
		}
	}
	return firstLine(text)
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
