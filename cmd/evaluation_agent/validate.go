package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Riolite55/performance-evaluation/internal/schemas"
	embedded "github.com/Riolite55/performance-evaluation/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a JSON file against a schema",
	Long: `Checks a JSON file against a schema file (--schema) or one of the built-in
schemas (--kind document for evaluation documents, --kind sheet for raw
header/row payloads). Exits with code 1 when validation fails.`,
	RunE: runValidate,
}

var (
	validateJSON   string
	validateSchema string
	validateKind   string
)

func init() {
	validateCmd.Flags().StringVar(&validateJSON, "json", "", "Path to the JSON file (required)")
	validateCmd.Flags().StringVar(&validateSchema, "schema", "", "Path to a JSON Schema file")
	validateCmd.Flags().StringVar(&validateKind, "kind", "document", "Built-in schema: document or sheet")

	if err := validateCmd.MarkFlagRequired("json"); err != nil {
		panic(fmt.Sprintf("failed to mark json flag as required: %v", err))
	}

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	var err error
	if validateSchema != "" {
		err = schemas.ValidateJSON(validateSchema, validateJSON)
	} else {
		var name string
		switch validateKind {
		case "document":
			name = embedded.EvaluationDocument
		case "sheet":
			name = embedded.RawSheet
		default:
			return fmt.Errorf("unknown schema kind %q: use document or sheet", validateKind)
		}
		content, readErr := os.ReadFile(validateJSON)
		if readErr != nil {
			return fmt.Errorf("failed to read JSON file: %w", readErr)
		}
		err = schemas.ValidateBuiltin(name, content)
	}

	out := cmd.OutOrStdout()
	if err != nil {
		var validationErr *schemas.ValidationError
		if errors.As(err, &validationErr) {
			_, _ = fmt.Fprintf(out, "✗ Validation failed: %s\n", validateJSON)
			for i, fe := range validationErr.Errors {
				_, _ = fmt.Fprintf(out, "  %d. %s: %s\n", i+1, fe.Field, fe.Message)
			}
			return fmt.Errorf("validation failed with %d error(s)", len(validationErr.Errors))
		}
		return err
	}

	_, _ = fmt.Fprintf(out, "✓ Validation passed: %s\n", validateJSON)
	return nil
}
