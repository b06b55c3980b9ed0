// Package rendering serializes evaluation documents to markdown, HTML, JSON and PDF.
package rendering

import "strings"

// angleReplacer turns markup brackets into entities so form answers render as text
var angleReplacer = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// EscapeMarkdown makes text safe for a single markdown table cell.
// Pipes are escaped, angle brackets become entities and line breaks become
// <br> so the row stays on one line.
func EscapeMarkdown(text string) string {
	if text == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(text) + 8)

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; r {
		case '|':
			result.WriteString(`\|`)
		case '<':
			result.WriteString("&lt;")
		case '>':
			result.WriteString("&gt;")
		case '\r':
			if i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			result.WriteString("<br>")
		case '\n':
			result.WriteString("<br>")
		default:
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// EscapeHeading collapses a value onto one line for use in a heading
func EscapeHeading(text string) string {
	return angleReplacer.Replace(strings.Join(strings.Fields(text), " "))
}

// EscapeText prepares free text for a markdown paragraph. Line breaks are
// kept; angle brackets become entities.
func EscapeText(text string) string {
	text = strings.ReplaceAll(strings.TrimSpace(text), "\r\n", "\n")
	return angleReplacer.Replace(text)
}
