// Package consolidation reconciles duplicated form headers into one canonical record per row.
package consolidation

import (
	"fmt"
	"strings"

	"github.com/Riolite55/performance-evaluation/internal/types"
)

// RowRecord is the canonical record of one data row
type RowRecord struct {
	Row    int          `json:"row"` // 1-based data row number in the sheet
	Record types.Record `json:"record"`
}

// Result holds the records that consolidated and the rows that were skipped
type Result struct {
	Records []RowRecord
	Skipped []*SchemaError
}

// Consolidate collapses every header group into one field and returns one
// record per row. It fails on the first row that does not fit the header row.
func Consolidate(headers []string, rows [][]string) ([]types.Record, error) {
	result, err := ConsolidateRows(headers, rows)
	if err != nil {
		return nil, err
	}
	if len(result.Skipped) > 0 {
		return nil, result.Skipped[0]
	}

	records := make([]types.Record, len(result.Records))
	for i, r := range result.Records {
		records[i] = r.Record
	}
	return records, nil
}

// ConsolidateSheet is Consolidate over a RawSheet
func ConsolidateSheet(sheet *types.RawSheet) ([]types.Record, error) {
	if sheet == nil {
		return nil, &SchemaError{Message: "sheet is nil"}
	}
	return Consolidate(sheet.Headers, sheet.Rows)
}

// ConsolidateRows is the lenient form of Consolidate: a row with fewer cells
// than headers is reported in Result.Skipped and the remaining rows continue.
// Only an empty header row fails the whole call.
func ConsolidateRows(headers []string, rows [][]string) (*Result, error) {
	return consolidateRows(headers, rows, func(i int) int { return i + 1 })
}

// ConsolidateSheetRows is ConsolidateRows over a RawSheet. Row numbers are
// the sheet's own, so they stay stable when blank rows were dropped on read.
func ConsolidateSheetRows(sheet *types.RawSheet) (*Result, error) {
	if sheet == nil {
		return nil, &SchemaError{Message: "sheet is nil"}
	}
	return consolidateRows(sheet.Headers, sheet.Rows, sheet.RowNumber)
}

func consolidateRows(headers []string, rows [][]string, number func(int) int) (*Result, error) {
	if len(headers) == 0 {
		return nil, &SchemaError{Message: "header row is empty"}
	}

	groups := GroupHeaders(headers)
	result := &Result{
		Records: make([]RowRecord, 0, len(rows)),
	}

	for i, row := range rows {
		rowNumber := number(i)
		if len(row) < len(headers) {
			result.Skipped = append(result.Skipped, &SchemaError{
				Row:     rowNumber,
				Message: fmt.Sprintf("row has %d cells, header row has %d", len(row), len(headers)),
			})
			continue
		}

		result.Records = append(result.Records, RowRecord{
			Row:    rowNumber,
			Record: consolidateRow(groups, row),
		})
	}

	return result, nil
}

// consolidateRow builds one record. Single-column groups pass their cell
// through unchanged; larger groups take the first non-empty cell scanning
// left to right, or no value when every cell is empty.
func consolidateRow(groups []HeaderGroup, row []string) types.Record {
	fields := make([]types.Field, 0, len(groups))
	for _, g := range groups {
		if len(g.Columns) == 1 {
			fields = append(fields, types.Field{Key: g.Key(), Value: types.StringPtr(row[g.Columns[0]])})
			continue
		}

		field := types.Field{Key: g.Key()}
		for _, col := range g.Columns {
			if strings.TrimSpace(row[col]) != "" {
				field.Value = types.StringPtr(row[col])
				break
			}
		}
		fields = append(fields, field)
	}
	return types.NewRecord(fields)
}
