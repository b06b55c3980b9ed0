package evaluation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Riolite55/performance-evaluation/internal/types"
)

func TestParseLegacyRecord_Valid(t *testing.T) {
	encoded := `{'Timestamp': '26/03/2025 16:46:08', 'Project Name': "O'Brien Ltd", 'Score': 4, 'Notes': nan, 'Extra': None}`

	rec, err := ParseLegacyRecord(encoded)
	require.NoError(t, err)

	assert.Equal(t, []string{"Timestamp", "Project Name", "Score", "Notes", "Extra"}, rec.Keys())
	assert.Equal(t, "26/03/2025 16:46:08", rec.Get("Timestamp"))
	assert.Equal(t, "O'Brien Ltd", rec.Get("Project Name"))
	assert.Equal(t, "4", rec.Get("Score"))

	raw, exists := rec.Raw("Notes")
	assert.True(t, exists)
	assert.Nil(t, raw)
}

func TestParseLegacyRecord_Escapes(t *testing.T) {
	rec, err := ParseLegacyRecord(`{'Comment': 'line one\nit\'s fine'}`)
	require.NoError(t, err)
	assert.Equal(t, "line one\nit's fine", rec.Get("Comment"))
}

func TestParseLegacyRecord_EmptyAndTrailingComma(t *testing.T) {
	rec, err := ParseLegacyRecord(`{}`)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Len())

	rec, err = ParseLegacyRecord(`{'A': '1',}`)
	require.NoError(t, err)
	assert.Equal(t, "1", rec.Get("A"))
}

func TestParseLegacyRecord_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"plain text", "not a record"},
		{"list", "['a', 'b']"},
		{"missing colon", "{'a' 'b'}"},
		{"unquoted key", "{a: 'b'}"},
		{"unterminated string", "{'a': 'b}"},
		{"nested dict", "{'a': {'b': 1}}"},
		{"trailing content", "{'a': 'b'} extra"},
		{"missing value", "{'a': }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLegacyRecord(tt.input)
			require.Error(t, err)

			var formatErr *FormatError
			assert.True(t, errors.As(err, &formatErr))
		})
	}
}

func TestAssembleLegacy(t *testing.T) {
	assembler := NewAssembler(DefaultLayout())

	doc, err := assembler.AssembleLegacy(`{'Timestamp': '01/01/2025 10:00:00', 'DME ID - Employee Name': 'Jane Doe', 'Project Name': 'Alpha'}`)
	require.NoError(t, err)
	assert.Equal(t, []types.SectionKind{
		types.SectionTitle,
		types.SectionBasicInfo,
		types.SectionProject,
		types.SectionTimestamp,
	}, doc.Kinds())

	_, err = assembler.AssembleLegacy("garbage")
	assert.Error(t, err)
}
