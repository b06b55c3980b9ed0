// Package consolidation reconciles duplicated form headers into one canonical record per row.
package consolidation

import "fmt"

// SchemaError reports input that does not fit the header row.
// Row is the 1-based data row number, or 0 when the header row itself is at fault.
type SchemaError struct {
	Row     int
	Message string
}

func (e *SchemaError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("schema error in row %d: %s", e.Row, e.Message)
	}
	return fmt.Sprintf("schema error: %s", e.Message)
}
