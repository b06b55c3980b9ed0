// Package evaluation maps canonical form records into structured evaluation documents.
package evaluation

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/Riolite55/performance-evaluation/internal/types"
)

// CriteriaScope controls which evaluation criteria a project section lists
type CriteriaScope string

const (
	// ScopeShared lists every remaining field under every project section
	ScopeShared CriteriaScope = "shared"
	// ScopeBlock attributes a criterion to a single block by its trailing index
	ScopeBlock CriteriaScope = "block"
)

// FieldSpec pairs a display name with the record key it is read from
type FieldSpec struct {
	Label string `json:"label" validate:"required"`
	Key   string `json:"key" validate:"required"`
}

// BlockKeys holds the record keys of one project block. Empty keys are not looked up.
type BlockKeys struct {
	Name           string `json:"name" validate:"required"`
	Client         string `json:"client"`
	AssignmentDate string `json:"assignment_date"`
	StartDate      string `json:"start_date"`
	DRMName        string `json:"drm_name"`
	BDMName        string `json:"bdm_name"`
	CRPCRD         string `json:"crp_crd"`
}

// Layout is the static description of the form: which keys feed which
// document section. It is copied when bound to an Assembler.
type Layout struct {
	TitleKey      string `json:"title_key" validate:"required"`
	TitlePrefix   string `json:"title_prefix"`
	TitleFallback string `json:"title_fallback" validate:"required"`

	BasicInfo []FieldSpec `json:"basic_info" validate:"required,dive"`

	// Blocks is indexed by project index - 1
	Blocks [types.MaxProjectBlocks]BlockKeys `json:"blocks" validate:"dive"`

	BehavioralKeys      []string `json:"behavioral_keys" validate:"dive,required"`
	BehavioralDelimiter string   `json:"behavioral_delimiter"`

	AdminPrefixes     []string      `json:"admin_prefixes" validate:"dive,required"`
	CriteriaDelimiter string        `json:"criteria_delimiter" validate:"required"`
	CriteriaScope     CriteriaScope `json:"criteria_scope" validate:"oneof=shared block"`

	ImprovementPrefix string `json:"improvement_prefix" validate:"required"`
	TimestampKey      string `json:"timestamp_key" validate:"required"`
	SubjectKey        string `json:"subject_key"`
}

// DefaultBlockKeys returns the key table of the live form. Block 1 uses bare
// names and is the only block with DRM/BDM fields; blocks 2..7 append
// " {index}". Block 3's project name carries an extra space before the index
// ("Project Name  3"), which is how the form's header is actually written.
func DefaultBlockKeys() [types.MaxProjectBlocks]BlockKeys {
	var blocks [types.MaxProjectBlocks]BlockKeys
	blocks[0] = BlockKeys{
		Name:           "Project Name",
		Client:         "Client Name",
		AssignmentDate: "Project assignment date",
		StartDate:      "Project start date",
		DRMName:        "DRM Name",
		BDMName:        "BDM Name",
		CRPCRD:         "CRP/CRD",
	}
	for index := 2; index <= types.MaxProjectBlocks; index++ {
		blocks[index-1] = BlockKeys{
			Name:           fmt.Sprintf("Project Name %d", index),
			Client:         fmt.Sprintf("Client Name %d", index),
			AssignmentDate: fmt.Sprintf("Project assignment date %d", index),
			StartDate:      fmt.Sprintf("Project start date %d", index),
			CRPCRD:         fmt.Sprintf("CRP/CRD %d", index),
		}
	}
	blocks[2].Name = "Project Name  3"
	return blocks
}

// DefaultLayout returns a fresh copy of the layout of the evaluation form
func DefaultLayout() Layout {
	return Layout{
		TitleKey:      "DME ID - Employee Name",
		TitlePrefix:   "Performance Evaluation: ",
		TitleFallback: "Performance Evaluation Report",
		BasicInfo: []FieldSpec{
			{Label: "Employee", Key: "DME ID - Employee Name"},
			{Label: "Email Address", Key: "Email Address"},
			{Label: "Consultant Email", Key: "Consultant Email"},
			{Label: "Business Unit", Key: "Business Unit"},
			{Label: "Employee Grade", Key: "Employee Grade"},
			{Label: "Profile", Key: "Profile"},
			{Label: "Technical Role", Key: "Technical Role"},
			{Label: "Evaluation Period", Key: "Evaluation Period"},
			{Label: "Manager Name", Key: "Manager Name"},
			{Label: "Manager Email", Key: "Manager Email"},
		},
		Blocks: DefaultBlockKeys(),
		BehavioralKeys: []string{
			"Rate the consultant in accordance to Communication",
			"Rate the consultant in accordance to Teamwork & Collaboration",
			"Rate the consultant in accordance to Ownership & Accountability",
			"Rate the consultant in accordance to Adaptability",
			"Rate the consultant in accordance to Client Focus",
		},
		BehavioralDelimiter: " in accordance to ",
		AdminPrefixes: []string{
			"Timestamp",
			"Email",
			"DME ID",
			"Business Unit",
			"Employee Grade",
			"Profile",
			"Technical Role",
			"Evaluation",
			"Manager",
			"Project Name",
			"Client Name",
			"Project assignment",
			"Project start",
			"DRM Name",
			"BDM Name",
			"CRP/CRD",
			"Based on the assessment",
			"Consultant Email",
		},
		CriteriaDelimiter: " - ",
		CriteriaScope:     ScopeShared,
		ImprovementPrefix: "Based on the assessment",
		TimestampKey:      "Timestamp",
		SubjectKey:        "Consultant Email",
	}
}

// Clone returns a deep copy of the layout
func (l Layout) Clone() Layout {
	out := l
	out.BasicInfo = append([]FieldSpec(nil), l.BasicInfo...)
	out.BehavioralKeys = append([]string(nil), l.BehavioralKeys...)
	out.AdminPrefixes = append([]string(nil), l.AdminPrefixes...)
	return out
}

// Validate checks that every required table entry is filled in
func (l Layout) Validate() error {
	if err := validator.New().Struct(l); err != nil {
		return &LayoutError{Message: "invalid layout", Cause: err}
	}
	return nil
}

// LoadLayout reads a JSON layout file. Keys missing from the file keep the
// values of DefaultLayout.
func LoadLayout(path string) (Layout, error) {
	layout := DefaultLayout()

	content, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, &LayoutError{
			Message: fmt.Sprintf("failed to read layout file %s", path),
			Cause:   err,
		}
	}

	if err := json.Unmarshal(content, &layout); err != nil {
		return Layout{}, &LayoutError{
			Message: "failed to unmarshal layout JSON",
			Cause:   err,
		}
	}

	if err := layout.Validate(); err != nil {
		return Layout{}, err
	}
	return layout, nil
}
