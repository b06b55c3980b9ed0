// Package types provides type definitions for structured data used throughout the performance-evaluation system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// SectionKind identifies the role of a section in an evaluation document
type SectionKind string

// Section kinds in the order they appear in a document
const (
	SectionTitle       SectionKind = "title"
	SectionBasicInfo   SectionKind = "basic_info"
	SectionProject     SectionKind = "project"
	SectionCriteria    SectionKind = "criteria"
	SectionBehavioral  SectionKind = "behavioral"
	SectionImprovement SectionKind = "improvement"
	SectionTimestamp   SectionKind = "timestamp"
)

// Line is a single display-name/value pair
type Line struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Section is one block of an evaluation document
type Section struct {
	Kind        SectionKind `json:"kind"`
	Heading     string      `json:"heading,omitempty"`
	Index       int         `json:"index,omitempty"` // project index, 1..7
	Lines       []Line      `json:"lines,omitempty"`
	Text        string      `json:"text,omitempty"`
	Subsections []Section   `json:"subsections,omitempty"`
}

// Document is the structured evaluation report for one subject
type Document struct {
	Title    string    `json:"title"`
	Subject  string    `json:"subject,omitempty"` // consultant email, when known
	Sections []Section `json:"sections"`
	Warnings []string  `json:"warnings,omitempty"`
}

// Kinds returns the kind of every top-level section in order
func (d *Document) Kinds() []SectionKind {
	kinds := make([]SectionKind, len(d.Sections))
	for i, s := range d.Sections {
		kinds[i] = s.Kind
	}
	return kinds
}

// Headings returns the heading of every top-level section in order
func (d *Document) Headings() []string {
	headings := make([]string, len(d.Sections))
	for i, s := range d.Sections {
		headings[i] = s.Heading
	}
	return headings
}

// FindSection returns the first top-level section of the given kind
func (d *Document) FindSection(kind SectionKind) (*Section, bool) {
	for i := range d.Sections {
		if d.Sections[i].Kind == kind {
			return &d.Sections[i], true
		}
	}
	return nil, false
}

// Projects returns the project sections in index order
func (d *Document) Projects() []Section {
	var projects []Section
	for _, s := range d.Sections {
		if s.Kind == SectionProject {
			projects = append(projects, s)
		}
	}
	return projects
}
