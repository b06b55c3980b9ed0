// Package rendering serializes evaluation documents to markdown, HTML, JSON and PDF.
package rendering

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Riolite55/performance-evaluation/internal/types"
)

// Format is an output encoding for an evaluation document
type Format string

// Supported formats
const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
	FormatPDF      Format = "pdf"
)

// ParseFormat accepts a format name or common alias
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", &RenderError{Message: fmt.Sprintf("unsupported format %q", s)}
	}
}

// ContentType returns the MIME type for f
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/markdown; charset=utf-8"
	}
}

// JSON renders doc as indented JSON
func JSON(doc *types.Document) ([]byte, error) {
	if doc == nil {
		return nil, &RenderError{Message: "document is nil"}
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, &RenderError{Message: "failed to marshal document", Cause: err}
	}
	return append(out, '\n'), nil
}

// Render encodes doc in the requested format
func Render(doc *types.Document, f Format) ([]byte, error) {
	switch f {
	case FormatMarkdown:
		if doc == nil {
			return nil, &RenderError{Message: "document is nil"}
		}
		return []byte(Markdown(doc)), nil
	case FormatHTML:
		return HTML(doc)
	case FormatJSON:
		return JSON(doc)
	case FormatPDF:
		return nil, &RenderError{Message: "pdf output needs a printer, use Print"}
	default:
		return nil, &RenderError{Message: fmt.Sprintf("unsupported format %q", f)}
	}
}

// ReportName returns the file name for a subject's report,
// e.g. evaluation_report_jane@example.com.html
func ReportName(subject string, f Format) string {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "unknown"
	}
	subject = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, subject)
	return fmt.Sprintf("evaluation_report_%s.%s", subject, f)
}

// Encode renders doc in f using md, an already formatted markdown report, as
// the body of the markdown and HTML outputs. PDF goes through Print.
func Encode(doc *types.Document, md string, f Format) ([]byte, error) {
	if doc == nil {
		return nil, &RenderError{Message: "document is nil"}
	}
	switch f {
	case FormatMarkdown:
		return []byte(md), nil
	case FormatHTML:
		return HTMLPage(doc.Title, md)
	default:
		return Render(doc, f)
	}
}
