// Package types provides type definitions for structured data used throughout the performance-evaluation system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// RawSheet is a full read of a form export: the header row as authored
// (not necessarily unique) and every data row in sheet order.
type RawSheet struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`

	// RowNumbers holds the 1-based data row position of each entry in Rows
	// when readers drop blank rows. Nil means Rows is complete.
	RowNumbers []int `json:"-"`
}

// RowNumber returns the data row number of Rows[i] as it appears in the sheet
func (s *RawSheet) RowNumber(i int) int {
	if len(s.RowNumbers) == len(s.Rows) && i < len(s.RowNumbers) {
		return s.RowNumbers[i]
	}
	return i + 1
}
