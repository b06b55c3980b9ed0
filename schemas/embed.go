// Package schemas holds the JSON Schemas for the documents this module
// reads and writes. The files are embedded so binaries need no schema path.
package schemas

import (
	"embed"
	"fmt"
)

// Schema file names
const (
	EvaluationDocument = "evaluation_document.schema.json"
	RawSheet           = "raw_sheet.schema.json"
)

//go:embed *.schema.json
var files embed.FS

// Read returns the contents of an embedded schema file
func Read(name string) ([]byte, error) {
	data, err := files.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("schema %s not found: %w", name, err)
	}
	return data, nil
}

// Names lists the embedded schema files
func Names() []string {
	return []string{EvaluationDocument, RawSheet}
}
