package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/Riolite55/performance-evaluation/internal/consolidation"
	"github.com/Riolite55/performance-evaluation/internal/evaluation"
	"github.com/Riolite55/performance-evaluation/internal/observability"
	"github.com/Riolite55/performance-evaluation/internal/rendering"
	"github.com/Riolite55/performance-evaluation/internal/sheets"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show one row's report in the terminal",
	Long:  "Reads a form export, assembles the report for one data row and renders its markdown for the terminal.",
	RunE:  runPreview,
}

var (
	previewInput  string
	previewSheet  string
	previewRow    int
	previewLayout string
	previewStyle  string
	previewWidth  int
)

func init() {
	previewCmd.Flags().StringVarP(&previewInput, "input", "i", "", "Path to the form export (required)")
	previewCmd.Flags().StringVar(&previewSheet, "sheet", "", "Worksheet name for .xlsx input (default: first sheet)")
	previewCmd.Flags().IntVar(&previewRow, "row", 1, "Data row number to preview")
	previewCmd.Flags().StringVar(&previewLayout, "layout", "", "Path to a layout override JSON file")
	previewCmd.Flags().StringVar(&previewStyle, "style", "auto", "Terminal style: auto, dark, light or notty")
	previewCmd.Flags().IntVar(&previewWidth, "width", 80, "Word wrap width")

	if err := previewCmd.MarkFlagRequired("input"); err != nil {
		panic(fmt.Sprintf("failed to mark input flag as required: %v", err))
	}

	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, _ []string) error {
	layout, err := loadLayout(previewLayout)
	if err != nil {
		return err
	}

	sheet, err := sheets.NewReader(previewInput, previewSheet).Read()
	if err != nil {
		return fmt.Errorf("failed to read form export: %w", err)
	}
	result, err := consolidation.ConsolidateSheetRows(sheet)
	if err != nil {
		return fmt.Errorf("failed to consolidate: %w", err)
	}

	var found *consolidation.RowRecord
	for i := range result.Records {
		if result.Records[i].Row == previewRow {
			found = &result.Records[i]
			break
		}
	}
	if found == nil {
		for _, se := range result.Skipped {
			if se.Row == previewRow {
				return fmt.Errorf("row %d was skipped: %w", previewRow, se)
			}
		}
		return fmt.Errorf("row %d not found: sheet has %d data rows", previewRow, len(sheet.Rows))
	}

	doc := evaluation.NewAssembler(layout).Assemble(found.Record)

	if verbose {
		printer := observability.NewPrinter(cmd.OutOrStdout())
		printer.PrintRecord(found.Row, found.Record)
		printer.PrintDocument(doc)
		printer.PrintWarnings(doc.Warnings)
	}

	styleOpt := glamour.WithAutoStyle()
	if previewStyle != "auto" {
		styleOpt = glamour.WithStylePath(previewStyle)
	}
	renderer, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(previewWidth))
	if err != nil {
		return fmt.Errorf("failed to create terminal renderer: %w", err)
	}
	out, err := renderer.Render(rendering.Markdown(doc))
	if err != nil {
		return fmt.Errorf("failed to render preview: %w", err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}
