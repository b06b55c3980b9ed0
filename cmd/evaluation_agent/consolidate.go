package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Riolite55/performance-evaluation/internal/consolidation"
	"github.com/Riolite55/performance-evaluation/internal/sheets"
)

var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Collapse repeated form headers into one record per row",
	Long: `Reads a form export (.xlsx, .csv or .json) and writes the canonical records as
JSON. Columns whose headers repeat are merged into one field holding the first
non-empty answer. Rows shorter than the header row are listed under "skipped".`,
	RunE: runConsolidate,
}

var (
	consolidateInput string
	consolidateSheet string
	consolidateOut   string
)

// skippedRow is a data row that did not fit the header row
type skippedRow struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// consolidateOutput is the file written by consolidate and read by assemble
type consolidateOutput struct {
	Source  string                    `json:"source,omitempty"`
	Records []consolidation.RowRecord `json:"records"`
	Skipped []skippedRow              `json:"skipped,omitempty"`
}

func init() {
	consolidateCmd.Flags().StringVarP(&consolidateInput, "input", "i", "", "Path to the form export (required)")
	consolidateCmd.Flags().StringVar(&consolidateSheet, "sheet", "", "Worksheet name for .xlsx input (default: first sheet)")
	consolidateCmd.Flags().StringVarP(&consolidateOut, "out", "o", "", "Path to output JSON file (default: stdout)")

	if err := consolidateCmd.MarkFlagRequired("input"); err != nil {
		panic(fmt.Sprintf("failed to mark input flag as required: %v", err))
	}

	rootCmd.AddCommand(consolidateCmd)
}

func runConsolidate(cmd *cobra.Command, _ []string) error {
	sheet, err := sheets.NewReader(consolidateInput, consolidateSheet).Read()
	if err != nil {
		return fmt.Errorf("failed to read form export: %w", err)
	}

	result, err := consolidation.ConsolidateSheetRows(sheet)
	if err != nil {
		return fmt.Errorf("failed to consolidate: %w", err)
	}

	out := consolidateOutput{Source: consolidateInput, Records: result.Records}
	for _, se := range result.Skipped {
		logger.Warn("row skipped", zap.Int("row", se.Row), zap.String("reason", se.Message))
		out.Skipped = append(out.Skipped, skippedRow{Row: se.Row, Error: se.Error()})
	}
	logger.Debug("consolidated",
		zap.Int("headers", len(sheet.Headers)),
		zap.Int("records", len(out.Records)),
		zap.Int("skipped", len(out.Skipped)))

	data, err := marshalIndent(out)
	if err != nil {
		return err
	}
	return writeOutput(cmd, consolidateOut, data)
}
