package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Riolite55/performance-evaluation/internal/config"
	"github.com/Riolite55/performance-evaluation/internal/db"
	"github.com/Riolite55/performance-evaluation/internal/delivery"
	"github.com/Riolite55/performance-evaluation/internal/observability"
	"github.com/Riolite55/performance-evaluation/internal/pipeline"
	"github.com/Riolite55/performance-evaluation/internal/rendering"
	"github.com/Riolite55/performance-evaluation/internal/scheduling"
	"github.com/Riolite55/performance-evaluation/internal/sheets"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Produce, store and mail the reports for a form export",
	Long: `Runs the batch flow: read -> consolidate -> select -> assemble -> format -> write -> store -> deliver.

Rows submitted before --since, or without a manager email, are skipped. A row
that fails at any stage is reported in the summary and never stops the others.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runPipelineCmd,
}

var (
	runConfigPath  string
	runInput       string
	runSheet       string
	runOutDir      string
	runSince       string
	runPeriod      string
	runLayout      string
	runFormats     []string
	runStrategy    string
	runConcurrency int
	runAPIKey      string
	runDatabaseURL string
	runSend        bool
	runAttach      string
	runChromePath  string
)

func init() {
	// Config file flag (processed first)
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVarP(&runInput, "input", "i", "", "Path to the form export (defaults to SPREADSHEET_PATH env var)")
	runCommand.Flags().StringVar(&runSheet, "sheet", "", "Worksheet name for .xlsx input (default: first sheet)")
	runCommand.Flags().StringVarP(&runOutDir, "out-dir", "o", "", "Directory for report files (default: reports)")
	runCommand.Flags().StringVar(&runSince, "since", "", "Only rows submitted at or after this form timestamp, e.g. \"26/03/2025 16:46:08\"")
	runCommand.Flags().StringVar(&runPeriod, "period", "", "Evaluation period named in mail bodies and prompts")
	runCommand.Flags().StringVar(&runLayout, "layout", "", "Path to a layout override JSON file")
	runCommand.Flags().StringSliceVarP(&runFormats, "format", "f", nil, "Report formats to write: md, html, json, pdf (default: md,html)")
	runCommand.Flags().StringVar(&runStrategy, "strategy", "", "Formatting strategy: deterministic or llm")
	runCommand.Flags().IntVar(&runConcurrency, "concurrency", 0, "Rows processed in parallel (default: 4)")
	runCommand.Flags().BoolVar(&runSend, "send", false, "Mail each report (needs EMAIL_SENDER and EMAIL_PASSWORD)")
	runCommand.Flags().StringVar(&runAttach, "attach", "", "Mail attachment format: pdf or html (default: pdf when PDF output is enabled, else html)")
	runCommand.Flags().StringVar(&runChromePath, "chrome-path", "", "Chrome or Chromium binary used to print PDF (defaults to CHROME_PATH env var, then PATH lookup)")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for run persistence
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(runCommand)
}

// resolveRunConfig merges the config file, explicitly set flags, the
// environment and defaults, in that order of precedence
func resolveRunConfig(cmd *cobra.Command, getenv func(string) string) (*config.Config, error) {
	var cfg config.Config
	if runConfigPath != "" {
		loaded, err := config.LoadConfig(runConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
		logger.Debug("loaded config", zap.String("path", runConfigPath))
	}

	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Input = runInput
	}
	if flags.Changed("sheet") {
		cfg.Sheet = runSheet
	}
	if flags.Changed("out-dir") {
		cfg.OutputDir = runOutDir
	}
	if flags.Changed("since") {
		cfg.Since = runSince
	}
	if flags.Changed("period") {
		cfg.Period = runPeriod
	}
	if flags.Changed("layout") {
		cfg.Layout = runLayout
	}
	if flags.Changed("format") {
		cfg.Formats = runFormats
	}
	if flags.Changed("strategy") {
		cfg.Strategy = runStrategy
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = runConcurrency
	}
	if flags.Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}
	if flags.Changed("send") {
		cfg.Send = runSend
	}
	if flags.Changed("attach") {
		cfg.Attachment = runAttach
	}
	if flags.Changed("chrome-path") {
		cfg.ChromePath = runChromePath
	}
	if verbose {
		cfg.Verbose = true
	}

	cfg.ApplyEnv(getenv)
	cfg = cfg.MergeWithDefaults(config.Config{})

	if cfg.Input == "" {
		return nil, fmt.Errorf("--input must be provided (via flag, config or SPREADSHEET_PATH)")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// buildRunOptions turns a resolved config into pipeline options. The
// returned cleanup function releases the database and LLM client.
func buildRunOptions(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (pipeline.Options, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	layout, err := loadLayout(cfg.Layout)
	if err != nil {
		return pipeline.Options{}, cleanup, err
	}

	formats := make([]rendering.Format, 0, len(cfg.Formats))
	for _, f := range cfg.Formats {
		format, err := rendering.ParseFormat(f)
		if err != nil {
			return pipeline.Options{}, cleanup, err
		}
		formats = append(formats, format)
	}

	opts := pipeline.Options{
		Source:      sheets.NewReader(cfg.Input, cfg.Sheet),
		SourceName:  cfg.Input,
		Layout:      &layout,
		Formats:     formats,
		OutputDir:   cfg.OutputDir,
		Routing:     delivery.DefaultRouting(),
		Sender:      cfg.SMTP.Sender,
		Period:      cfg.Period,
		Concurrency: cfg.Concurrency,
		Logger:      logger,
	}
	opts.Routing.AlwaysCc = cfg.SMTP.AdvisoryCc
	opts.Routing.UnitCc = cfg.SMTP.UnitCc
	opts.Attachment = rendering.Format(cfg.Attachment)
	if needsPrinter(formats, opts.Attachment) {
		opts.Printer = rendering.ChromePrinter{ExecPath: cfg.ChromePath}
	}

	since, err := cfg.SinceTime()
	if err != nil {
		return pipeline.Options{}, cleanup, err
	}
	if !since.IsZero() {
		filter := scheduling.DefaultFilter(since)
		opts.Filter = &filter
	}

	formatter, closeFormatter, err := newFormatter(ctx, cfg.Strategy, cfg.APIKey, cfg.Period)
	if err != nil {
		return pipeline.Options{}, cleanup, err
	}
	cleanups = append(cleanups, closeFormatter)
	opts.Formatter = formatter

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("database unavailable, reports will not be stored", zap.Error(err))
		} else {
			cleanups = append(cleanups, database.Close)
			if err := database.EnsureSchema(ctx); err != nil {
				return pipeline.Options{}, cleanup, err
			}
			opts.Store = database
		}
	}

	if cfg.Send {
		mailer, err := delivery.NewSMTPMailer(delivery.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
		})
		if err != nil {
			return pipeline.Options{}, cleanup, fmt.Errorf("failed to configure mail: %w", err)
		}
		opts.Mailer = mailer
	}

	if cfg.Verbose {
		out := cmd.OutOrStdout()
		opts.OnProgress = func(e pipeline.ProgressEvent) {
			if e.Row > 0 {
				_, _ = fmt.Fprintf(out, "[%s] row %d: %s\n", e.Stage, e.Row, e.Message)
				return
			}
			_, _ = fmt.Fprintf(out, "[%s] %s\n", e.Stage, e.Message)
		}
	}
	return opts, cleanup, nil
}

// needsPrinter reports whether any output or the mail attachment is PDF
func needsPrinter(formats []rendering.Format, attachment rendering.Format) bool {
	if attachment == rendering.FormatPDF {
		return true
	}
	for _, f := range formats {
		if f == rendering.FormatPDF {
			return true
		}
	}
	return false
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := resolveRunConfig(cmd, os.Getenv)
	if err != nil {
		return err
	}

	opts, cleanup, err := buildRunOptions(ctx, cmd, cfg)
	defer cleanup()
	if err != nil {
		return err
	}

	summary, err := pipeline.Run(ctx, opts)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintSummary(summary)
	if len(summary.Reports) > 0 && cfg.OutputDir != "" {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Reports written to %s\n", cfg.OutputDir)
	}

	if len(summary.Reports) == 0 && len(summary.Failures) > 0 {
		return fmt.Errorf("no reports produced: %d rows failed", len(summary.Failures))
	}
	return nil
}
