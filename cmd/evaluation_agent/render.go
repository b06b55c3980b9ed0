package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Riolite55/performance-evaluation/internal/rendering"
	"github.com/Riolite55/performance-evaluation/internal/schemas"
	"github.com/Riolite55/performance-evaluation/internal/types"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render an evaluation document as markdown, HTML, JSON or PDF",
	Long: `Reads a document written by assemble and renders the report. The llm strategy
asks Gemini to restructure the markdown and falls back to the deterministic
report when the model call fails. PDF output prints the HTML page with a
headless Chrome.`,
	RunE: runRender,
}

var (
	renderDoc      string
	renderFormat   string
	renderOut      string
	renderStrategy string
	renderPeriod   string
	renderAPIKey   string
	renderChrome   string
)

func init() {
	renderCmd.Flags().StringVarP(&renderDoc, "doc", "d", "", "Path to document JSON (required)")
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "md", "Output format: md, html, json or pdf")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "Path to output file (default: stdout)")
	renderCmd.Flags().StringVar(&renderStrategy, "strategy", "deterministic", "Formatting strategy: deterministic or llm")
	renderCmd.Flags().StringVar(&renderPeriod, "period", "", "Evaluation period named in the llm prompt, e.g. \"Q1 2025\"")
	renderCmd.Flags().StringVar(&renderAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	renderCmd.Flags().StringVar(&renderChrome, "chrome-path", "", "Chrome or Chromium binary for pdf (defaults to CHROME_PATH env var, then PATH lookup)")

	if err := renderCmd.MarkFlagRequired("doc"); err != nil {
		panic(fmt.Sprintf("failed to mark doc flag as required: %v", err))
	}

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	format, err := rendering.ParseFormat(renderFormat)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(renderDoc)
	if err != nil {
		return fmt.Errorf("failed to read document file: %w", err)
	}
	var doc types.Document
	if err := json.Unmarshal(content, &doc); err != nil {
		return fmt.Errorf("failed to unmarshal document JSON: %w", err)
	}
	if err := schemas.ValidateDocument(&doc); err != nil {
		return fmt.Errorf("document is invalid: %w", err)
	}

	ctx := context.Background()
	formatter, closeFormatter, err := newFormatter(ctx, renderStrategy, renderAPIKey, renderPeriod)
	if err != nil {
		return err
	}
	defer closeFormatter()

	md, err := formatter.Format(ctx, &doc)
	if err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}
	var out []byte
	if format == rendering.FormatPDF {
		chromePath := renderChrome
		if chromePath == "" {
			chromePath = os.Getenv("CHROME_PATH")
		}
		out, err = rendering.Print(ctx, rendering.ChromePrinter{ExecPath: chromePath}, &doc, md)
	} else {
		out, err = rendering.Encode(&doc, md, format)
	}
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return writeOutput(cmd, renderOut, out)
}
