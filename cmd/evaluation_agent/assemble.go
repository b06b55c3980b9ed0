package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Riolite55/performance-evaluation/internal/evaluation"
	"github.com/Riolite55/performance-evaluation/internal/schemas"
	"github.com/Riolite55/performance-evaluation/internal/types"
)

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Assemble the evaluation document for one record",
	Long: `Builds the structured evaluation document for one canonical record and writes it
as JSON. The record comes from the output of consolidate (--records, selected
with --row) or from a row dumped as a dictionary literal (--legacy or
--legacy-file), e.g. {'Timestamp': '26/03/2025 16:46:08', 'Score': 4}.`,
	RunE: runAssemble,
}

var (
	assembleRecords    string
	assembleRow        int
	assembleLegacy     string
	assembleLegacyFile string
	assembleLayout     string
	assembleOut        string
)

func init() {
	assembleCmd.Flags().StringVarP(&assembleRecords, "records", "r", "", "Path to records JSON written by consolidate")
	assembleCmd.Flags().IntVar(&assembleRow, "row", 1, "Data row number to assemble from --records")
	assembleCmd.Flags().StringVar(&assembleLegacy, "legacy", "", "Row as a dictionary literal")
	assembleCmd.Flags().StringVar(&assembleLegacyFile, "legacy-file", "", "Path to a file holding a row as a dictionary literal")
	assembleCmd.Flags().StringVar(&assembleLayout, "layout", "", "Path to a layout override JSON file")
	assembleCmd.Flags().StringVarP(&assembleOut, "out", "o", "", "Path to output document JSON (default: stdout)")

	rootCmd.AddCommand(assembleCmd)
}

func runAssemble(cmd *cobra.Command, _ []string) error {
	sources := 0
	for _, s := range []string{assembleRecords, assembleLegacy, assembleLegacyFile} {
		if s != "" {
			sources++
		}
	}
	if sources != 1 {
		return fmt.Errorf("provide exactly one of --records, --legacy or --legacy-file")
	}

	layout, err := loadLayout(assembleLayout)
	if err != nil {
		return err
	}
	assembler := evaluation.NewAssembler(layout)

	var doc *types.Document
	switch {
	case assembleRecords != "":
		rec, err := readRecord(assembleRecords, assembleRow)
		if err != nil {
			return err
		}
		doc = assembler.Assemble(rec)
	default:
		encoded := assembleLegacy
		if assembleLegacyFile != "" {
			content, err := os.ReadFile(assembleLegacyFile)
			if err != nil {
				return fmt.Errorf("failed to read legacy file: %w", err)
			}
			encoded = string(content)
		}
		doc, err = assembler.AssembleLegacy(encoded)
		if err != nil {
			return fmt.Errorf("failed to parse legacy record: %w", err)
		}
	}

	if err := schemas.ValidateDocument(doc); err != nil {
		return fmt.Errorf("assembled document is invalid: %w", err)
	}
	for _, w := range doc.Warnings {
		logger.Warn("document warning", zap.String("subject", doc.Subject), zap.String("warning", w))
	}

	data, err := marshalIndent(doc)
	if err != nil {
		return err
	}
	return writeOutput(cmd, assembleOut, data)
}

// readRecord loads data row `row` from a consolidate output file or from a
// plain JSON array of records
func readRecord(path string, row int) (types.Record, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return types.Record{}, fmt.Errorf("failed to read records file: %w", err)
	}

	if bytes.HasPrefix(bytes.TrimSpace(content), []byte("[")) {
		var records []types.Record
		if err := json.Unmarshal(content, &records); err != nil {
			return types.Record{}, fmt.Errorf("failed to unmarshal records JSON: %w", err)
		}
		if row < 1 || row > len(records) {
			return types.Record{}, fmt.Errorf("row %d not found: file has %d records", row, len(records))
		}
		return records[row-1], nil
	}

	var out consolidateOutput
	if err := json.Unmarshal(content, &out); err != nil {
		return types.Record{}, fmt.Errorf("failed to unmarshal records JSON: %w", err)
	}
	for _, rr := range out.Records {
		if rr.Row == row {
			return rr.Record, nil
		}
	}
	return types.Record{}, fmt.Errorf("row %d not found in %s", row, path)
}
