package htmlreport

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
	textSanitizer *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()
	textSanitizer = bluemonday.StrictPolicy()
}

// renderMarkdown converts a markdown fragment to sanitized HTML. Notes and
// repository descriptions come from operators and from GitHub respectively;
// neither is trusted.
func renderMarkdown(src string) template.HTML {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return template.HTML(htmlSanitizer.Sanitize(src))
	}

	return template.HTML(htmlSanitizer.Sanitize(buf.String()))
}

// renderEvidence strips any markup from an evidence line so it can sit
// inside a <pre> block verbatim. Evidence is remote file content and the
// most likely place for an injection attempt.
func renderEvidence(src string) template.HTML {
	return template.HTML(textSanitizer.Sanitize(src))
}
