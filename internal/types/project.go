// Package types provides type definitions for structured data used throughout the performance-evaluation system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// MaxProjectBlocks is the number of repeated project sections the form supports
const MaxProjectBlocks = 7

// Criterion is one free-form evaluation answer
type Criterion struct {
	Key   string `json:"key"`   // raw column header
	Name  string `json:"name"`  // display name
	Value string `json:"value"` // answer as entered
}

// ProjectBlock is one populated project section of an evaluation.
// Optional fields are empty when the form left them blank.
type ProjectBlock struct {
	Index          int         `json:"index"`
	Name           string      `json:"name"`
	Client         string      `json:"client,omitempty"`
	AssignmentDate string      `json:"assignment_date,omitempty"`
	StartDate      string      `json:"start_date,omitempty"`
	DRMName        string      `json:"drm_name,omitempty"` // block 1 only
	BDMName        string      `json:"bdm_name,omitempty"` // block 1 only
	CRPCRD         string      `json:"crp_crd,omitempty"`
	Criteria       []Criterion `json:"criteria,omitempty"`
}
