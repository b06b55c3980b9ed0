package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Riolite55/performance-evaluation/internal/evaluation"
	"github.com/Riolite55/performance-evaluation/internal/formatting"
	"github.com/Riolite55/performance-evaluation/internal/llm"
)

// loadLayout returns the layout at path, or the built-in form layout
func loadLayout(path string) (evaluation.Layout, error) {
	if path == "" {
		return evaluation.DefaultLayout(), nil
	}
	layout, err := evaluation.LoadLayout(path)
	if err != nil {
		return evaluation.Layout{}, fmt.Errorf("failed to load layout: %w", err)
	}
	return layout, nil
}

// writeOutput writes data to path, or to the command's stdout when path is empty or "-"
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func marshalIndent(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// newFormatter builds the formatter for strategy. The returned close
// function releases the LLM client, if one was created.
func newFormatter(ctx context.Context, strategy, apiKey, period string) (formatting.Formatter, func(), error) {
	noop := func() {}
	if strings.ToLower(strings.TrimSpace(strategy)) != formatting.StrategyLLM {
		f, err := formatting.New(strategy, nil, period, logger)
		return f, noop, err
	}

	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, noop, fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required for the llm strategy")
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), apiKey)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to create LLM client: %w", err)
	}
	f, err := formatting.New(formatting.StrategyLLM, client, period, logger)
	if err != nil {
		_ = client.Close()
		return nil, noop, err
	}
	return f, func() { _ = client.Close() }, nil
}
