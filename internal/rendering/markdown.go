// Package rendering serializes evaluation documents to markdown, HTML, JSON and PDF.
package rendering

import (
	"strings"

	"github.com/Riolite55/performance-evaluation/internal/types"
)

// Markdown renders doc as a markdown report. Line sections become two-column
// tables and text sections become paragraphs.
func Markdown(doc *types.Document) string {
	if doc == nil {
		return ""
	}

	var b strings.Builder
	for _, section := range doc.Sections {
		writeSection(&b, section, 2)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeSection(b *strings.Builder, section types.Section, level int) {
	switch section.Kind {
	case types.SectionTitle:
		b.WriteString("# " + EscapeHeading(section.Heading) + "\n\n")
		return
	case types.SectionTimestamp:
		b.WriteString("---\n\n")
		b.WriteString("*Submitted: " + EscapeHeading(section.Text) + "*\n\n")
		return
	}

	if section.Heading != "" {
		b.WriteString(strings.Repeat("#", level) + " " + EscapeHeading(section.Heading) + "\n\n")
	}
	if len(section.Lines) > 0 {
		writeTable(b, section.Lines)
	}
	if text := EscapeText(section.Text); text != "" {
		b.WriteString(text + "\n\n")
	}
	for _, sub := range section.Subsections {
		writeSection(b, sub, level+1)
	}
}

func writeTable(b *strings.Builder, lines []types.Line) {
	b.WriteString("| Field | Value |\n")
	b.WriteString("| --- | --- |\n")
	for _, line := range lines {
		b.WriteString("| " + EscapeMarkdown(line.Label) + " | " + EscapeMarkdown(line.Value) + " |\n")
	}
	b.WriteString("\n")
}
