// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/Riolite55/performance-evaluation/internal/pipeline"
	"github.com/Riolite55/performance-evaluation/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(title, inner), inner))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, inner), inner))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// PrintRecord outputs the present fields of a canonical record
func (p *Printer) PrintRecord(row int, rec types.Record) {
	var present []types.Field
	for _, f := range rec.Fields() {
		if types.Present(f.Value) {
			present = append(present, f)
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Fields: %d (%d present)\n\n", rec.Len(), len(present)))
	count := min(len(present), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("• %s: %s\n", truncate(present[i].Key, 30), *present[i].Value))
	}
	if len(present) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more", len(present)-maxItemsToShow))
	}

	p.printBox(fmt.Sprintf("CANONICAL RECORD (row %d)", row), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDocument outputs the section outline of an evaluation document
func (p *Printer) PrintDocument(doc *types.Document) {
	if doc == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title:    %s\n", doc.Title))
	if doc.Subject != "" {
		sb.WriteString(fmt.Sprintf("Subject:  %s\n", doc.Subject))
	}
	sb.WriteString("\n")

	for _, s := range doc.Sections {
		switch s.Kind {
		case types.SectionTitle:
			continue
		case types.SectionTimestamp:
			sb.WriteString(fmt.Sprintf("• Submitted %s\n", s.Text))
		case types.SectionImprovement:
			sb.WriteString(fmt.Sprintf("• %s (%d chars)\n", s.Heading, utf8.RuneCountInString(s.Text)))
		default:
			sb.WriteString(fmt.Sprintf("• %s (%d fields)\n", s.Heading, len(s.Lines)))
			for _, sub := range s.Subsections {
				sb.WriteString(fmt.Sprintf("    %s (%d)\n", sub.Heading, len(sub.Lines)))
			}
		}
	}

	p.printBox("EVALUATION DOCUMENT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintWarnings outputs document warnings, or a confirmation when there are none
func (p *Printer) PrintWarnings(warnings []string) {
	if len(warnings) == 0 {
		p.printBox("✅ NO WARNINGS", "Document assembled without ambiguities")
		return
	}

	var sb strings.Builder
	for i, w := range warnings {
		sb.WriteString(fmt.Sprintf("⚠ %s", w))
		if i < len(warnings)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox("WARNINGS", sb.String())
}

// PrintSummary outputs the totals and failures of a batch run
func (p *Printer) PrintSummary(summary *pipeline.Summary) {
	if summary == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:       %s\n", summary.RunID))
	sb.WriteString(fmt.Sprintf("Rows read: %d\n", summary.RowsRead))
	sb.WriteString(fmt.Sprintf("Skipped:   %d\n", len(summary.Skipped)))
	sb.WriteString(fmt.Sprintf("Reports:   %d\n", len(summary.Reports)))
	sb.WriteString(fmt.Sprintf("Failures:  %d\n", len(summary.Failures)))

	if len(summary.Failures) > 0 {
		sb.WriteString("\n")
		count := min(len(summary.Failures), maxItemsToShow)
		for i := 0; i < count; i++ {
			f := summary.Failures[i]
			sb.WriteString(fmt.Sprintf("✗ row %d [%s] %s\n", f.Row, f.Stage, f.Message))
		}
		if len(summary.Failures) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("... and %d more\n", len(summary.Failures)-maxItemsToShow))
		}
	}

	p.printBox("RUN SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}
