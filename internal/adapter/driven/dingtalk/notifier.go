// Package dingtalk delivers scan findings to a DingTalk group robot
// webhook as markdown cards.
package dingtalk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/ericfisherdev/leakwatch/internal/domain/model"
	"github.com/ericfisherdev/leakwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Notifier = (*Notifier)(nil)

// summaryLeakLines caps the per-leak lines embedded in the summary card.
const summaryLeakLines = 5

// message is the JSON body the DingTalk robot webhook accepts.
type message struct {
	MsgType  string   `json:"msgtype"`
	Markdown markdown `json:"markdown"`
	At       at       `json:"at"`
}

type markdown struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type at struct {
	IsAtAll bool `json:"isAtAll"`
}

// webhookResponse is the robot's reply; errcode zero means delivered.
type webhookResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// Notifier implements the driven.Notifier port against a DingTalk robot
// webhook. Delivery is best effort; callers log failures and move on.
type Notifier struct {
	webhookURL string
	httpClient *http.Client
}

// NewNotifier creates a notifier for the given webhook URL.
// The HTTP timeout is a safety net alongside context cancellation.
func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewNotifierWithHTTPClient creates a Notifier with a custom http.Client.
// This constructor is intended for testing against an httptest server.
func NewNotifierWithHTTPClient(webhookURL string, httpClient *http.Client) *Notifier {
	return &Notifier{webhookURL: webhookURL, httpClient: httpClient}
}

// PushLeak sends one alert card for a freshly found leak record.
func (n *Notifier) PushLeak(ctx context.Context, record model.LeakRecord) error {
	note := record.SecretNote
	if note == "" {
		note = "none"
	}
	fields := make([]string, 0, len(record.MatchedFields))
	for _, f := range record.MatchedFields {
		fields = append(fields, string(f))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Secret leak detected\n\n")
	fmt.Fprintf(&b, "**Type**: %s\n\n", record.SecretType.DisplayName())
	fmt.Fprintf(&b, "**Value**: `%s`\n\n", record.SecretMasked)
	fmt.Fprintf(&b, "**Note**: %s\n\n", note)
	fmt.Fprintf(&b, "**Repository**: [%s](%s)\n\n", record.Repo.FullName, record.Repo.URL)
	fmt.Fprintf(&b, "**Location**: %s\n\n", record.Location)
	fmt.Fprintf(&b, "**Matched in**: %s\n\n", strings.Join(fields, ", "))
	fmt.Fprintf(&b, "**Found at**: %s\n\n", record.FoundAt.Format("2006-01-02 15:04:05"))
	b.WriteString("---\n\n")
	b.WriteString("### Immediate actions\n\n")
	b.WriteString("1. Rotate the secret now\n")
	b.WriteString("2. Audit its usage logs\n")
	b.WriteString("3. Ask the repository owner to remove the leak\n")
	b.WriteString("4. Assess the blast radius\n\n")
	fmt.Fprintf(&b, "[View on GitHub](%s)\n", record.URL)

	title := fmt.Sprintf("Leak alert: %s", record.SecretType.DisplayName())
	return n.post(ctx, title, b.String(), false)
}

// PushSummary sends one batch card after a scan that found leaks. The card
// mentions everyone in the group; a confirmed leak is worth the noise.
func (n *Notifier) PushSummary(ctx context.Context, records []model.LeakRecord, stats model.Stats) error {
	var b strings.Builder
	b.WriteString("## Secret leak scan report\n\n")
	b.WriteString("### Statistics\n\n")
	fmt.Fprintf(&b, "- **Secrets monitored**: %d\n", stats.TotalSecrets)
	fmt.Fprintf(&b, "- **Secrets leaked**: %d\n", stats.LeakedSecrets)
	fmt.Fprintf(&b, "- **Leak locations**: %d\n", stats.TotalRecords)
	fmt.Fprintf(&b, "- **Leakage rate**: %.1f%%\n", stats.LeakageRate)
	fmt.Fprintf(&b, "- **Repositories involved**: %d\n\n", stats.UniqueRepos)
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "### Findings (first %d)\n\n", summaryLeakLines)
	for i, rec := range records {
		if i >= summaryLeakLines {
			fmt.Fprintf(&b, "\n... and %d more\n", len(records)-summaryLeakLines)
			break
		}
		fmt.Fprintf(&b, "%d. %s - [%s](%s)\n", i+1, rec.SecretType.DisplayName(), rec.Repo.FullName, rec.URL)
	}
	if repos := topRepos(stats, 3); len(repos) > 0 {
		b.WriteString("\n### Most affected repositories\n\n")
		for _, line := range repos {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}

	title := fmt.Sprintf("Leak scan: %d secret(s) leaked", stats.LeakedSecrets)
	return n.post(ctx, title, b.String(), true)
}

// PushAllClear sends a confirmation card after a completed scan with no
// findings.
func (n *Notifier) PushAllClear(ctx context.Context, stats model.Stats) error {
	var b strings.Builder
	b.WriteString("## Secret leak scan report\n\n")
	b.WriteString("### Result\n\n")
	fmt.Fprintf(&b, "- **Secrets monitored**: %d\n", stats.TotalSecrets)
	b.WriteString("- **Secrets leaked**: 0\n")
	b.WriteString("- **Status**: all clear\n")

	return n.post(ctx, "Leak scan: all clear", b.String(), false)
}

// post delivers one markdown card and fails on transport errors, non-200
// statuses, and non-zero robot error codes alike.
func (n *Notifier) post(ctx context.Context, title, text string, atAll bool) error {
	body, err := json.Marshal(message{
		MsgType:  "markdown",
		Markdown: markdown{Title: title, Text: text},
		At:       at{IsAtAll: atAll},
	})
	if err != nil {
		return fmt.Errorf("marshaling webhook message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}

	var wr webhookResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return fmt.Errorf("decoding webhook response: %w", err)
	}
	if wr.ErrCode != 0 {
		return fmt.Errorf("webhook rejected message: errcode=%d errmsg=%s", wr.ErrCode, wr.ErrMsg)
	}
	return nil
}

// topRepos renders the busiest repositories, most records first, ties
// broken by name so output is stable.
func topRepos(stats model.Stats, limit int) []string {
	type entry struct {
		name  string
		count int
	}
	entries := make([]entry, 0, len(stats.ByRepo))
	for name, rc := range stats.ByRepo {
		entries = append(entries, entry{name: name, count: rc.Count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%s (%d)", e.name, e.count))
	}
	return lines
}
