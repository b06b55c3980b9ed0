package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawSheet_RowNumber(t *testing.T) {
	sheet := &RawSheet{Rows: [][]string{{"a"}, {"b"}}, RowNumbers: []int{3, 5}}
	assert.Equal(t, 3, sheet.RowNumber(0))
	assert.Equal(t, 5, sheet.RowNumber(1))

	// numbering that does not cover every row is ignored
	sheet.RowNumbers = []int{3}
	assert.Equal(t, 2, sheet.RowNumber(1))

	sheet.RowNumbers = nil
	assert.Equal(t, 1, sheet.RowNumber(0))
}
