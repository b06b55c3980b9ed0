// Package sheets reads form exports (xlsx, csv or json) into raw header/row tables.
package sheets

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Riolite55/performance-evaluation/internal/types"
)

// Source produces a full read of a form export
type Source interface {
	Read() (*types.RawSheet, error)
}

// File types understood by Reader
const (
	TypeXLSX = "xlsx"
	TypeCSV  = "csv"
	TypeJSON = "json"
)

// Reader reads a form export from disk
type Reader struct {
	path     string
	sheet    string
	fileType string
}

// NewReader creates a reader for path. The file type comes from the
// extension; sheet selects an xlsx worksheet and defaults to the first one.
func NewReader(path, sheet string) *Reader {
	fileType := TypeXLSX
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		fileType = TypeCSV
	case ".json":
		fileType = TypeJSON
	}
	return &Reader{path: path, sheet: sheet, fileType: fileType}
}

// Read loads the header row and every non-blank data row
func (r *Reader) Read() (*types.RawSheet, error) {
	if _, err := os.Stat(r.path); err != nil {
		return nil, &LoadError{
			Message: fmt.Sprintf("%s file not found: %s", strings.ToUpper(r.fileType), r.path),
			Cause:   err,
		}
	}

	switch r.fileType {
	case TypeCSV:
		return r.readCSV()
	case TypeJSON:
		return r.readJSON()
	default:
		return r.readXLSX()
	}
}

func (r *Reader) readXLSX() (*types.RawSheet, error) {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, &LoadError{Message: "failed to open workbook", Cause: err}
	}
	defer func() { _ = f.Close() }()

	sheet := r.sheet
	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, &LoadError{Message: "workbook has no sheets"}
		}
		sheet = list[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &LoadError{Message: fmt.Sprintf("failed to read sheet %q", sheet), Cause: err}
	}

	raw, err := split(rows)
	if err != nil {
		return nil, err
	}

	// excelize drops trailing empty cells; restore the header width so a
	// blank answer at the end of a row is not mistaken for a short row.
	for i, row := range raw.Rows {
		if len(row) < len(raw.Headers) {
			padded := make([]string, len(raw.Headers))
			copy(padded, row)
			raw.Rows[i] = padded
		}
	}
	return raw, nil
}

func (r *Reader) readCSV() (*types.RawSheet, error) {
	file, err := os.Open(r.path)
	if err != nil {
		return nil, &LoadError{Message: "failed to open CSV file", Cause: err}
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &LoadError{Message: "failed to read CSV file", Cause: err}
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return split(rows)
}

func (r *Reader) readJSON() (*types.RawSheet, error) {
	content, err := os.ReadFile(r.path)
	if err != nil {
		return nil, &LoadError{Message: fmt.Sprintf("failed to read file %s", r.path), Cause: err}
	}

	var sheet types.RawSheet
	if err := json.Unmarshal(content, &sheet); err != nil {
		return nil, &LoadError{Message: "failed to unmarshal JSON", Cause: err}
	}
	if len(sheet.Headers) == 0 {
		return nil, &LoadError{Message: "sheet has no header row"}
	}
	sheet.Rows, sheet.RowNumbers = dropBlank(sheet.Rows)
	return &sheet, nil
}

// split separates the header row from the data rows
func split(rows [][]string) (*types.RawSheet, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, &LoadError{Message: "sheet has no header row"}
	}
	kept, numbers := dropBlank(rows[1:])
	return &types.RawSheet{
		Headers:    rows[0],
		Rows:       kept,
		RowNumbers: numbers,
	}, nil
}

// dropBlank removes rows in which every cell is empty and returns the
// 1-based data row number of each kept row
func dropBlank(rows [][]string) ([][]string, []int) {
	kept := make([][]string, 0, len(rows))
	numbers := make([]int, 0, len(rows))
	for i, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				kept = append(kept, row)
				numbers = append(numbers, i+1)
				break
			}
		}
	}
	return kept, numbers
}

// Static is a Source over an in-memory sheet
type Static struct {
	Sheet *types.RawSheet
}

// Read returns the wrapped sheet
func (s Static) Read() (*types.RawSheet, error) {
	if s.Sheet == nil {
		return nil, &LoadError{Message: "sheet has no header row"}
	}
	return s.Sheet, nil
}
