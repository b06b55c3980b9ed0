// Package rendering serializes evaluation documents to markdown, HTML, JSON and PDF.
package rendering

import (
	"bytes"
	"html/template"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"

	"github.com/Riolite55/performance-evaluation/internal/types"
)

const pageTemplate = `<html>
<head>
    <meta charset="utf-8">
    <title>{{.Title}}</title>
    <style>
        body { font-family: Arial, sans-serif; }
        h2 { color: #333; }
        table { width: 100%; border-collapse: collapse; margin-top: 10px; }
        th, td { border: 1px solid black; padding: 8px; text-align: left; }
    </style>
</head>
<body>
{{.Body}}
</body>
</html>
`

var page = template.Must(template.New("page").Parse(pageTemplate))

// sanitizer strips scripts, event handlers and unsafe URLs from the report body
var sanitizer = bluemonday.UGCPolicy()

type pageData struct {
	Title string
	Body  template.HTML
}

// MarkdownToHTML converts markdown with tables enabled into an HTML fragment
func MarkdownToHTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(md), p, renderer)
}

// HTMLPage wraps markdown in a complete, styled HTML page. The markdown may
// come from a formatter that echoes form answers, so the converted body is
// sanitized before it is embedded.
func HTMLPage(title, md string) ([]byte, error) {
	var buf bytes.Buffer
	data := pageData{
		Title: title,
		Body:  template.HTML(sanitizer.SanitizeBytes(MarkdownToHTML(md))), //nolint:gosec
	}
	if err := page.Execute(&buf, data); err != nil {
		return nil, &TemplateError{Message: "failed to execute page template", Cause: err}
	}
	return buf.Bytes(), nil
}

// HTML renders doc as a complete HTML page
func HTML(doc *types.Document) ([]byte, error) {
	if doc == nil {
		return nil, &RenderError{Message: "document is nil"}
	}
	return HTMLPage(doc.Title, Markdown(doc))
}
