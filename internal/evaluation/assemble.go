// Package evaluation maps canonical form records into structured evaluation documents.
package evaluation

import (
	"fmt"
	"strings"

	"github.com/Riolite55/performance-evaluation/internal/types"
)

// Section headings
const (
	HeadingBasicInfo   = "Basic Information"
	HeadingCriteria    = "Evaluation Criteria"
	HeadingBehavioral  = "Behavioral Competencies"
	HeadingImprovement = "Performance Improvement Recommendations"
)

// Assembler turns canonical records into evaluation documents using a fixed layout
type Assembler struct {
	layout Layout
}

// NewAssembler binds a copy of layout to a new Assembler
func NewAssembler(layout Layout) *Assembler {
	return &Assembler{layout: layout.Clone()}
}

// Layout returns a copy of the bound layout
func (a *Assembler) Layout() Layout {
	return a.layout.Clone()
}

// Assemble builds the evaluation document for one record. Stages run in a
// fixed order and a stage whose data is absent is left out; missing optional
// fields never fail assembly.
func (a *Assembler) Assemble(rec types.Record) *types.Document {
	doc := &types.Document{
		Subject: lookupOr(rec, a.layout.SubjectKey),
	}

	a.addTitle(doc, rec)
	a.addBasicInfo(doc, rec)
	a.addProjects(doc, rec)
	a.addBehavioral(doc, rec)
	a.addImprovement(doc, rec)
	a.addTimestamp(doc, rec)

	return doc
}

func (a *Assembler) addTitle(doc *types.Document, rec types.Record) {
	title := a.layout.TitleFallback
	if name, ok := rec.Lookup(a.layout.TitleKey); ok {
		title = a.layout.TitlePrefix + name
	}
	doc.Title = title
	doc.Sections = append(doc.Sections, types.Section{
		Kind:    types.SectionTitle,
		Heading: title,
	})
}

func (a *Assembler) addBasicInfo(doc *types.Document, rec types.Record) {
	var lines []types.Line
	for _, field := range a.layout.BasicInfo {
		if v, ok := rec.Lookup(field.Key); ok {
			lines = append(lines, types.Line{Label: field.Label, Value: v})
		}
	}
	if len(lines) == 0 {
		return
	}
	doc.Sections = append(doc.Sections, types.Section{
		Kind:    types.SectionBasicInfo,
		Heading: HeadingBasicInfo,
		Lines:   lines,
	})
}

func (a *Assembler) addProjects(doc *types.Document, rec types.Record) {
	criteria := ExtractCriteria(rec, a.layout)

	emitted := 0
	for index := 1; index <= types.MaxProjectBlocks; index++ {
		block, ok := ResolveProject(rec, index, a.layout)
		if !ok {
			continue
		}
		block.Criteria = CriteriaForBlock(criteria, index, a.layout.CriteriaScope)
		doc.Sections = append(doc.Sections, projectSection(block))
		emitted++
	}

	if emitted > 1 && len(criteria) > 0 && a.layout.CriteriaScope != ScopeBlock {
		doc.Warnings = append(doc.Warnings,
			fmt.Sprintf("evaluation criteria are not scoped per project; the same %d criteria are listed under %d projects", len(criteria), emitted))
	}
}

func projectSection(block *types.ProjectBlock) types.Section {
	section := types.Section{
		Kind:    types.SectionProject,
		Heading: fmt.Sprintf("Project %d: %s", block.Index, block.Name),
		Index:   block.Index,
	}

	candidates := []types.Line{
		{Label: "Client", Value: block.Client},
		{Label: "Assignment Date", Value: block.AssignmentDate},
		{Label: "Start Date", Value: block.StartDate},
		{Label: "DRM Name", Value: block.DRMName},
		{Label: "BDM Name", Value: block.BDMName},
		{Label: "CRP/CRD", Value: block.CRPCRD},
	}
	for _, line := range candidates {
		if line.Value != "" {
			section.Lines = append(section.Lines, line)
		}
	}

	if len(block.Criteria) > 0 {
		criteria := types.Section{
			Kind:    types.SectionCriteria,
			Heading: HeadingCriteria,
		}
		for _, c := range block.Criteria {
			criteria.Lines = append(criteria.Lines, types.Line{Label: c.Name, Value: c.Value})
		}
		section.Subsections = append(section.Subsections, criteria)
	}
	return section
}

func (a *Assembler) addBehavioral(doc *types.Document, rec types.Record) {
	var lines []types.Line
	for _, key := range a.layout.BehavioralKeys {
		v, ok := rec.Lookup(key)
		if !ok {
			continue
		}
		lines = append(lines, types.Line{
			Label: behavioralName(key, a.layout.BehavioralDelimiter),
			Value: v,
		})
	}
	if len(lines) == 0 {
		return
	}
	doc.Sections = append(doc.Sections, types.Section{
		Kind:    types.SectionBehavioral,
		Heading: HeadingBehavioral,
		Lines:   lines,
	})
}

// behavioralName returns the text after the delimiter phrase, or the raw key
func behavioralName(key, delimiter string) string {
	if delimiter == "" {
		return key
	}
	_, after, found := strings.Cut(key, delimiter)
	if !found {
		return key
	}
	return after
}

func (a *Assembler) addImprovement(doc *types.Document, rec types.Record) {
	for _, key := range rec.Keys() {
		if !strings.HasPrefix(key, a.layout.ImprovementPrefix) {
			continue
		}
		text, ok := rec.Lookup(key)
		if !ok {
			return
		}
		doc.Sections = append(doc.Sections, types.Section{
			Kind:    types.SectionImprovement,
			Heading: HeadingImprovement,
			Text:    text,
		})
		return
	}
}

// addTimestamp only checks that the key exists; a blank or placeholder
// timestamp is still written out as-is.
func (a *Assembler) addTimestamp(doc *types.Document, rec types.Record) {
	raw, exists := rec.Raw(a.layout.TimestampKey)
	if !exists {
		return
	}
	text := ""
	if raw != nil {
		text = *raw
	}
	doc.Sections = append(doc.Sections, types.Section{
		Kind: types.SectionTimestamp,
		Text: text,
	})
}

func lookupOr(rec types.Record, key string) string {
	if key == "" {
		return ""
	}
	return rec.Get(key)
}
