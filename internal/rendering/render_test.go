package rendering

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Riolite55/performance-evaluation/internal/types"
)

func sampleDocument() *types.Document {
	return &types.Document{
		Title:   "Performance Evaluation: Jane Doe",
		Subject: "jane@example.com",
		Sections: []types.Section{
			{Kind: types.SectionTitle, Heading: "Performance Evaluation: Jane Doe"},
			{
				Kind:    types.SectionBasicInfo,
				Heading: "Basic Information",
				Lines: []types.Line{
					{Label: "Employee", Value: "Jane Doe"},
					{Label: "Business Unit", Value: "Data | AI"},
				},
			},
			{
				Kind:    types.SectionProject,
				Heading: "Project 1: Atlas",
				Index:   1,
				Lines:   []types.Line{{Label: "Client", Value: "Acme"}},
				Subsections: []types.Section{{
					Kind:    types.SectionCriteria,
					Heading: "Evaluation Criteria",
					Lines:   []types.Line{{Label: "Delivery Quality", Value: "5"}},
				}},
			},
			{
				Kind:    types.SectionImprovement,
				Heading: "Performance Improvement Recommendations",
				Text:    "Keep mentoring juniors.",
			},
			{Kind: types.SectionTimestamp, Text: "26/03/2025 16:46:08"},
		},
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleDocument())

	assert.True(t, strings.HasPrefix(md, "# Performance Evaluation: Jane Doe\n\n"))
	assert.Contains(t, md, "## Basic Information\n\n| Field | Value |\n| --- | --- |\n| Employee | Jane Doe |\n")
	assert.Contains(t, md, `| Business Unit | Data \| AI |`)
	assert.Contains(t, md, "## Project 1: Atlas\n\n| Field | Value |\n| --- | --- |\n| Client | Acme |\n")
	assert.Contains(t, md, "### Evaluation Criteria\n\n| Field | Value |\n| --- | --- |\n| Delivery Quality | 5 |\n")
	assert.Contains(t, md, "## Performance Improvement Recommendations\n\nKeep mentoring juniors.\n")
	assert.True(t, strings.HasSuffix(md, "*Submitted: 26/03/2025 16:46:08*\n"))

	// sections keep document order
	basic := strings.Index(md, "## Basic Information")
	project := strings.Index(md, "## Project 1")
	improvement := strings.Index(md, "## Performance Improvement")
	assert.Less(t, basic, project)
	assert.Less(t, project, improvement)
}

func TestMarkdown_TitleOnly(t *testing.T) {
	doc := &types.Document{
		Title:    "Performance Evaluation Report",
		Sections: []types.Section{{Kind: types.SectionTitle, Heading: "Performance Evaluation Report"}},
	}
	assert.Equal(t, "# Performance Evaluation Report\n", Markdown(doc))
	assert.Equal(t, "", Markdown(nil))
}

func TestHTML(t *testing.T) {
	out, err := HTML(sampleDocument())
	require.NoError(t, err)
	page := string(out)

	assert.Contains(t, page, "<title>Performance Evaluation: Jane Doe</title>")
	assert.Contains(t, page, "font-family: Arial, sans-serif;")
	assert.Contains(t, page, "<h1")
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<td>Acme</td>")
	assert.Contains(t, page, "<em>Submitted:")
}

func TestHTMLPage_EscapesTitle(t *testing.T) {
	out, err := HTMLPage("<script>", "body")
	require.NoError(t, err)
	assert.Contains(t, string(out), "<title>&lt;script&gt;</title>")
}

func TestHTML_FormAnswersStayText(t *testing.T) {
	doc := sampleDocument()
	doc.Sections[2].Subsections[0].Lines[0].Value = "<img src=x onerror=alert(1)>"
	doc.Sections[3].Text = "<script>alert(2)</script>"

	out, err := HTML(doc)
	require.NoError(t, err)
	page := string(out)

	assert.NotContains(t, page, "<img")
	assert.NotContains(t, page, "<script>")
	assert.Contains(t, page, "&lt;img src=x onerror=alert(1)&gt;")
	assert.Contains(t, page, "&lt;script&gt;alert(2)&lt;/script&gt;")
}

func TestHTMLPage_SanitizesRawMarkup(t *testing.T) {
	md := "# Report\n\n<script>alert(1)</script>\n\n<a href=\"javascript:alert(2)\">link</a> <b onclick=\"x()\">bold</b>\n"

	out, err := HTMLPage("Report", md)
	require.NoError(t, err)
	page := string(out)

	assert.NotContains(t, page, "<script>")
	assert.NotContains(t, page, "javascript:")
	assert.NotContains(t, page, "onclick")
	assert.Contains(t, page, "<b>bold</b>")
	assert.Contains(t, page, "<h1")
}

func TestJSON(t *testing.T) {
	out, err := JSON(sampleDocument())
	require.NoError(t, err)

	var decoded types.Document
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, sampleDocument().Kinds(), decoded.Kinds())
	assert.Equal(t, "jane@example.com", decoded.Subject)
}

func TestRender(t *testing.T) {
	doc := sampleDocument()
	for _, f := range []Format{FormatMarkdown, FormatHTML, FormatJSON} {
		out, err := Render(doc, f)
		require.NoError(t, err, f)
		assert.NotEmpty(t, out, f)
	}

	_, err := Render(doc, Format("docx"))
	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))

	_, err = Render(doc, FormatPDF)
	require.True(t, errors.As(err, &renderErr))

	_, err = Render(nil, FormatMarkdown)
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
		ok    bool
	}{
		{"", FormatMarkdown, true},
		{"markdown", FormatMarkdown, true},
		{"MD", FormatMarkdown, true},
		{"html", FormatHTML, true},
		{"json", FormatJSON, true},
		{"pdf", FormatPDF, true},
		{"docx", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, got.ContentType())
		})
	}
}

func TestReportName(t *testing.T) {
	assert.Equal(t, "evaluation_report_jane@example.com.html", ReportName("jane@example.com", FormatHTML))
	assert.Equal(t, "evaluation_report_unknown.md", ReportName("  ", FormatMarkdown))
	assert.Equal(t, "evaluation_report_a_b.json", ReportName("a/b", FormatJSON))
}

func TestEncode_UsesFormattedMarkdown(t *testing.T) {
	doc := sampleDocument()
	md := "# Rewritten\n\nBody text\n"

	out, err := Encode(doc, md, FormatMarkdown)
	require.NoError(t, err)
	assert.Equal(t, md, string(out))

	out, err = Encode(doc, md, FormatHTML)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<title>Performance Evaluation: Jane Doe</title>")
	assert.Contains(t, string(out), "Body text")
	assert.NotContains(t, string(out), "Basic Information")

	out, err = Encode(doc, md, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"basic_info"`)

	_, err = Encode(nil, md, FormatMarkdown)
	assert.Error(t, err)
}
