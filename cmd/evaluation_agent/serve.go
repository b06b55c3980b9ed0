package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Riolite55/performance-evaluation/internal/db"
	"github.com/Riolite55/performance-evaluation/internal/rendering"
	"github.com/Riolite55/performance-evaluation/internal/server"
	"github.com/Riolite55/performance-evaluation/internal/server/ratelimit"
)

var (
	serveAddr        string
	serveLayout      string
	serveStrategy    string
	servePeriod      string
	serveAPIKey      string
	serveDatabaseURL string
	serveChromePath  string
	serveNoPDF       bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that consolidates form exports and renders reports.
Run history endpoints are enabled when a database URL is available.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Address to listen on")
	serveCmd.Flags().StringVar(&serveLayout, "layout", "", "Path to a layout override JSON file")
	serveCmd.Flags().StringVar(&serveStrategy, "strategy", "deterministic", "Formatting strategy: deterministic or llm")
	serveCmd.Flags().StringVar(&servePeriod, "period", "", "Evaluation period named in llm prompts")
	serveCmd.Flags().StringVar(&serveAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	serveCmd.Flags().StringVar(&serveDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	serveCmd.Flags().StringVar(&serveChromePath, "chrome-path", "", "Chrome or Chromium binary for format=pdf (defaults to CHROME_PATH env var, then PATH lookup)")
	serveCmd.Flags().BoolVar(&serveNoPDF, "no-pdf", false, "Disable format=pdf")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	layout, err := loadLayout(serveLayout)
	if err != nil {
		return err
	}

	formatter, closeFormatter, err := newFormatter(ctx, serveStrategy, serveAPIKey, servePeriod)
	if err != nil {
		return err
	}
	defer closeFormatter()

	cfg := server.Config{
		Addr:      serveAddr,
		Layout:    &layout,
		Formatter: formatter,
		RateLimit: ratelimit.LoadConfig(os.Getenv),
		Logger:    logger,
	}

	if !serveNoPDF {
		chromePath := serveChromePath
		if chromePath == "" {
			chromePath = os.Getenv("CHROME_PATH")
		}
		cfg.Printer = rendering.ChromePrinter{ExecPath: chromePath}
	}

	databaseURL := serveDatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL != "" {
		database, err := db.Connect(ctx, databaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()
		if err := database.EnsureSchema(ctx); err != nil {
			return err
		}
		cfg.Archive = database
	} else {
		logger.Info("DATABASE_URL not set, run history endpoints disabled")
	}

	logger.Debug("server configured", zap.String("strategy", serveStrategy))
	return server.New(cfg).Start(ctx)
}
