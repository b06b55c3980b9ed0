package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testHeaders = []string{
	"Timestamp", "DME ID - Employee Name", "Consultant Email", "Manager Email", "Business Unit",
	"Project Name", "Client Name", "Delivery Quality - rate 1 to 5", "Project Name",
}

// writeCSV writes a form export with two complete rows and one short row
func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "form.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll([][]string{
		testHeaders,
		{"01/04/2025 09:00:00", "Jane Doe", "jane@example.com", "boss@example.com", "DI", "", "Acme", "5", "Atlas"},
		{"01/01/2025 09:00:00", "Old Row", "old@example.com", "boss@example.com", "Cloud", "Legacy", "Initech", "3", ""},
		{"02/04/2025 09:00:00", "Short"},
	}))
	return path
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// testCommand returns a command whose output is captured
func testCommand(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	logger = zap.NewNop()
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	return cmd, &buf
}
