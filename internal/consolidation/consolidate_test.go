package consolidation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Riolite55/performance-evaluation/internal/types"
)

func TestUniqueHeaders(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "no duplicates",
			input:    []string{"A", "B", "C"},
			expected: []string{"A", "B", "C"},
		},
		{
			name:     "repeated header",
			input:    []string{"X", "Y", "X", "X"},
			expected: []string{"X", "Y", "X_1", "X_2"},
		},
		{
			name:     "independent counters",
			input:    []string{"A", "B", "A", "B"},
			expected: []string{"A", "B", "A_1", "B_1"},
		},
		{
			name:     "generated name skips authored header",
			input:    []string{"X", "X_1", "X"},
			expected: []string{"X", "X_1", "X_2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, UniqueHeaders(tt.input))
		})
	}
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "X", BaseName("X_1"))
	assert.Equal(t, "X", BaseName("X_12"))
	assert.Equal(t, "X", BaseName("X"))
	assert.Equal(t, "Code_Quality", BaseName("Code_Quality"))
	assert.Equal(t, "Project Name 2", BaseName("Project Name 2"))
}

func TestGroupHeaders(t *testing.T) {
	groups := GroupHeaders([]string{"X", "Y", "X", "X_1"})
	require.Len(t, groups, 2)

	assert.Equal(t, "X", groups[0].Base)
	assert.Equal(t, []string{"X", "X_2", "X_1"}, groups[0].Names)
	assert.Equal(t, []int{0, 2, 3}, groups[0].Columns)
	assert.Equal(t, "X", groups[0].Key())

	assert.Equal(t, "Y", groups[1].Base)
	assert.Equal(t, []int{1}, groups[1].Columns)
}

func TestGroupHeaders_SuffixedSingleColumnKeepsName(t *testing.T) {
	groups := GroupHeaders([]string{"Rating_1", "Code_Quality"})
	require.Len(t, groups, 2)

	assert.Equal(t, "Rating", groups[0].Base)
	assert.Equal(t, "Rating_1", groups[0].Key())
	assert.Equal(t, "Code_Quality", groups[1].Key())
}

func TestConsolidate_AuthoredSuffixMerges(t *testing.T) {
	records, err := Consolidate([]string{"X", "X_1"}, [][]string{{"", "v"}})
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, []string{"X"}, records[0].Keys())
	assert.Equal(t, "v", records[0].Get("X"))
}

func TestConsolidate_FirstNonNullWins(t *testing.T) {
	records, err := Consolidate([]string{"X", "Y", "X"}, [][]string{{"", "b", "c"}})
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, []string{"X", "Y"}, rec.Keys())
	assert.Equal(t, "c", rec.Get("X"))
	assert.Equal(t, "b", rec.Get("Y"))
}

func TestConsolidate_EarliestPopulatedDuplicateWins(t *testing.T) {
	records, err := Consolidate(
		[]string{"Q", "Q", "Q"},
		[][]string{
			{"first", "second", "third"},
			{"  ", "second", "third"},
		},
	)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "first", records[0].Get("Q"))
	assert.Equal(t, "second", records[1].Get("Q"))
}

func TestConsolidate_AllDuplicatesEmptyIsAbsent(t *testing.T) {
	records, err := Consolidate([]string{"X", "X"}, [][]string{{"", " "}})
	require.NoError(t, err)

	raw, exists := records[0].Raw("X")
	assert.True(t, exists)
	assert.Nil(t, raw)
	assert.False(t, records[0].Present("X"))
}

func TestConsolidate_SingleColumnPassesThrough(t *testing.T) {
	records, err := Consolidate([]string{"A"}, [][]string{{""}})
	require.NoError(t, err)

	raw, exists := records[0].Raw("A")
	require.True(t, exists)
	require.NotNil(t, raw)
	assert.Equal(t, "", *raw)
}

func TestConsolidate_OneRecordPerRow(t *testing.T) {
	rows := [][]string{{"1", "2"}, {"3", "4"}, {"5", "6"}}
	records, err := Consolidate([]string{"A", "B"}, rows)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestConsolidate_ExtraCellsIgnored(t *testing.T) {
	records, err := Consolidate([]string{"A"}, [][]string{{"1", "extra"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, records[0].Keys())
}

func TestConsolidate_EmptyHeaderRow(t *testing.T) {
	_, err := Consolidate(nil, [][]string{{"a"}})
	require.Error(t, err)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, 0, schemaErr.Row)
	assert.Contains(t, err.Error(), "header row is empty")
}

func TestConsolidate_ShortRowFails(t *testing.T) {
	_, err := Consolidate([]string{"A", "B"}, [][]string{{"1", "2"}, {"3"}})
	require.Error(t, err)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, 2, schemaErr.Row)
}

func TestConsolidateRows_SkipsShortRowsAndContinues(t *testing.T) {
	result, err := ConsolidateRows(
		[]string{"A", "B"},
		[][]string{{"1", "2"}, {"3"}, {"5", "6"}},
	)
	require.NoError(t, err)

	require.Len(t, result.Records, 2)
	assert.Equal(t, 1, result.Records[0].Row)
	assert.Equal(t, 3, result.Records[1].Row)
	assert.Equal(t, "5", result.Records[1].Record.Get("A"))

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 2, result.Skipped[0].Row)
}

func TestConsolidateSheet_Nil(t *testing.T) {
	_, err := ConsolidateSheet(nil)
	assert.Error(t, err)

	_, err = ConsolidateSheetRows(nil)
	assert.Error(t, err)
}

func TestConsolidateSheetRows_KeepsSheetRowNumbers(t *testing.T) {
	sheet := &types.RawSheet{
		Headers:    []string{"A", "B"},
		Rows:       [][]string{{"1", "2"}, {"3"}, {"5", "6"}},
		RowNumbers: []int{2, 4, 7},
	}

	result, err := ConsolidateSheetRows(sheet)
	require.NoError(t, err)

	require.Len(t, result.Records, 2)
	assert.Equal(t, 2, result.Records[0].Row)
	assert.Equal(t, 7, result.Records[1].Row)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 4, result.Skipped[0].Row)

	sheet.RowNumbers = nil
	result, err = ConsolidateSheetRows(sheet)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Records[1].Row)
}
