// Package htmlreport renders a completed scan into a standalone HTML file.
package htmlreport

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/ericfisherdev/leakwatch/internal/domain/model"
)

// Data is everything a report needs. Records are expected to be already
// allowlist-filtered; AllowlistedDropped only feeds the footnote.
type Data struct {
	ScanID             string
	StartedAt          time.Time
	FinishedAt         time.Time
	Interrupted        bool
	Stats              model.Stats
	Records            []model.LeakRecord
	AllowlistedDropped int
}

// secretGroup collects the records of one secret, in insertion order.
type secretGroup struct {
	Masked   string
	TypeName string
	Note     string
	Records  []model.LeakRecord
}

// typeBar is one row of the type distribution chart.
type typeBar struct {
	Name    string
	Count   int
	Percent int
}

// reportView is the template's root context.
type reportView struct {
	Data
	Status      string
	StatusClass string
	Groups      []secretGroup
	TypeBars    []typeBar
}

// Generator renders scan reports. Safe for reuse across scans.
type Generator struct {
	tmpl *template.Template
}

// NewGenerator parses the report template once.
func NewGenerator() *Generator {
	tmpl := template.Must(template.New("report").Funcs(template.FuncMap{
		"markdown": renderMarkdown,
		"evidence": renderEvidence,
		"datetime": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Format("2006-01-02 15:04:05")
		},
	}).Parse(reportTemplate))
	return &Generator{tmpl: tmpl}
}

// Write renders the report into dir, creating it if needed, and returns the
// path of the written file.
func (g *Generator) Write(dir string, data Data) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	name := fmt.Sprintf("leakwatch_report_%s.html", data.FinishedAt.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating report file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := g.tmpl.Execute(f, buildView(data)); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return path, nil
}

func buildView(data Data) reportView {
	view := reportView{
		Data:   data,
		Groups: groupBySecret(data.Records),
	}

	switch {
	case data.Interrupted:
		view.Status = "Scan interrupted - partial results"
		view.StatusClass = "partial"
	case len(data.Records) > 0:
		view.Status = fmt.Sprintf("Leaks found: %d secret(s) exposed in %d location(s)",
			data.Stats.LeakedSecrets, data.Stats.TotalRecords)
		view.StatusClass = "leaks"
	default:
		view.Status = "All clear - no leaks found"
		view.StatusClass = "clear"
	}

	for _, rec := range data.Records {
		found := false
		for i := range view.TypeBars {
			if view.TypeBars[i].Name == rec.SecretType.DisplayName() {
				view.TypeBars[i].Count++
				found = true
				break
			}
		}
		if !found {
			view.TypeBars = append(view.TypeBars, typeBar{Name: rec.SecretType.DisplayName(), Count: 1})
		}
	}
	for i := range view.TypeBars {
		if data.Stats.TotalRecords > 0 {
			view.TypeBars[i].Percent = view.TypeBars[i].Count * 100 / data.Stats.TotalRecords
		}
	}
	return view
}

// groupBySecret buckets records per originating secret, first seen first.
func groupBySecret(records []model.LeakRecord) []secretGroup {
	var groups []secretGroup
	index := make(map[string]int)
	for _, rec := range records {
		i, ok := index[rec.SecretValue]
		if !ok {
			i = len(groups)
			index[rec.SecretValue] = i
			groups = append(groups, secretGroup{
				Masked:   rec.SecretMasked,
				TypeName: rec.SecretType.DisplayName(),
				Note:     rec.SecretNote,
			})
		}
		groups[i].Records = append(groups[i].Records, rec)
	}
	return groups
}

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>leakwatch report</title>
<style>
  body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 0; background: #f6f8fa; color: #1f2328; }
  .wrap { max-width: 980px; margin: 0 auto; padding: 24px; }
  header h1 { margin: 0 0 4px; font-size: 24px; }
  header .meta { color: #59636e; font-size: 13px; }
  .banner { margin: 16px 0; padding: 12px 16px; border-radius: 6px; font-weight: 600; }
  .banner.leaks { background: #ffebe9; border: 1px solid #ff818266; color: #a40e26; }
  .banner.clear { background: #dafbe1; border: 1px solid #4ac26b66; color: #116329; }
  .banner.partial { background: #fff8c5; border: 1px solid #d4a72c66; color: #7d4e00; }
  .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(150px, 1fr)); gap: 12px; margin: 16px 0; }
  .cell { background: #fff; border: 1px solid #d1d9e0; border-radius: 6px; padding: 12px; text-align: center; }
  .cell .num { font-size: 22px; font-weight: 600; }
  .cell .lbl { color: #59636e; font-size: 12px; }
  .bar-row { display: flex; align-items: center; gap: 8px; margin: 4px 0; font-size: 13px; }
  .bar-row .name { width: 220px; }
  .bar-track { flex: 1; background: #eff2f5; border-radius: 4px; height: 14px; }
  .bar-fill { background: #cf222e; height: 14px; border-radius: 4px; }
  .group { background: #fff; border: 1px solid #d1d9e0; border-radius: 6px; margin: 16px 0; }
  .group > h3 { margin: 0; padding: 12px 16px; border-bottom: 1px solid #d1d9e0; font-size: 15px; }
  .group .note { padding: 0 16px; color: #59636e; font-size: 13px; }
  .card { padding: 12px 16px; border-top: 1px solid #eff2f5; }
  .card .where { font-size: 14px; }
  .card .where a { color: #0969da; text-decoration: none; }
  .card .detail { color: #59636e; font-size: 12px; margin: 4px 0; }
  .card pre { background: #f6f8fa; border: 1px solid #d1d9e0; border-radius: 6px; padding: 8px; overflow-x: auto; font-size: 12px; margin: 8px 0 0; }
  .tag { display: inline-block; background: #ddf4ff; color: #0969da; border-radius: 10px; padding: 1px 8px; font-size: 11px; margin-right: 4px; }
  footer { color: #59636e; font-size: 12px; margin: 24px 0; }
</style>
</head>
<body>
<div class="wrap">
  <header>
    <h1>Secret leak scan report</h1>
    <div class="meta">
      scan {{.ScanID}} &middot; started {{datetime .StartedAt}} &middot; finished {{datetime .FinishedAt}}
    </div>
  </header>

  <div class="banner {{.StatusClass}}">{{.Status}}</div>

  <div class="grid">
    <div class="cell"><div class="num">{{.Stats.TotalSecrets}}</div><div class="lbl">secrets scanned</div></div>
    <div class="cell"><div class="num">{{.Stats.LeakedSecrets}}</div><div class="lbl">secrets leaked</div></div>
    <div class="cell"><div class="num">{{.Stats.TotalRecords}}</div><div class="lbl">leak locations</div></div>
    <div class="cell"><div class="num">{{printf "%.1f" .Stats.LeakageRate}}%</div><div class="lbl">leakage rate</div></div>
    <div class="cell"><div class="num">{{.Stats.UniqueRepos}}</div><div class="lbl">repositories</div></div>
  </div>

  {{if .TypeBars}}
  <h2>Leaks by secret type</h2>
  {{range .TypeBars}}
  <div class="bar-row">
    <span class="name">{{.Name}}</span>
    <div class="bar-track"><div class="bar-fill" style="width: {{.Percent}}%"></div></div>
    <span>{{.Count}}</span>
  </div>
  {{end}}
  {{end}}

  {{range .Groups}}
  <div class="group">
    <h3>{{.TypeName}} &mdash; <code>{{.Masked}}</code></h3>
    {{if .Note}}<div class="note">{{markdown .Note}}</div>{{end}}
    {{range .Records}}
    <div class="card">
      <div class="where">
        <a href="{{.Repo.URL}}">{{.Repo.FullName}}</a>
        {{if .Repo.Stars}}&#9733; {{.Repo.Stars}}{{end}}
        &middot; <a href="{{.URL}}">{{.Location}}</a>
        {{if .LineNumber}}(line {{.LineNumber}}){{end}}
      </div>
      <div class="detail">
        {{range .MatchedFields}}<span class="tag">{{.}}</span>{{end}}
        found {{datetime .FoundAt}}
        {{if .CommitAuthor}}&middot; author {{.CommitAuthor}}{{end}}
        {{if .IssueAuthor}}&middot; opened by {{.IssueAuthor}} ({{.IssueState}}){{end}}
      </div>
      {{if .AffectedFiles}}
      <div class="detail">files: {{range $i, $f := .AffectedFiles}}{{if $i}}, {{end}}{{$f}}{{end}}</div>
      {{end}}
      {{if .Repo.Description}}<div class="detail">{{markdown .Repo.Description}}</div>{{end}}
      {{if .Evidence}}<pre>{{evidence .Evidence}}</pre>{{end}}
    </div>
    {{end}}
  </div>
  {{end}}

  <footer>
    Generated by leakwatch at {{datetime .FinishedAt}}.
    {{if .AllowlistedDropped}}{{.AllowlistedDropped}} allowlisted finding(s) excluded.{{end}}
    Secret values are masked throughout this report.
  </footer>
</div>
</body>
</html>
`
