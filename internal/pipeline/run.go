// Package pipeline runs the batch flow: read the form export, consolidate
// rows, select the due ones and produce, store and deliver one report each.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Riolite55/performance-evaluation/internal/consolidation"
	"github.com/Riolite55/performance-evaluation/internal/db"
	"github.com/Riolite55/performance-evaluation/internal/delivery"
	"github.com/Riolite55/performance-evaluation/internal/evaluation"
	"github.com/Riolite55/performance-evaluation/internal/formatting"
	"github.com/Riolite55/performance-evaluation/internal/rendering"
	"github.com/Riolite55/performance-evaluation/internal/scheduling"
	"github.com/Riolite55/performance-evaluation/internal/schemas"
	"github.com/Riolite55/performance-evaluation/internal/sheets"
	"github.com/Riolite55/performance-evaluation/internal/types"
)

// Stage names used in progress events and failures
const (
	StageRead        = "read"
	StageConsolidate = "consolidate"
	StageSelect      = "select"
	StageAssemble    = "assemble"
	StageFormat      = "format"
	StageWrite       = "write"
	StageStore       = "store"
	StageDeliver     = "deliver"
	StageComplete    = "complete"
)

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Stage   string `json:"stage"`
	Row     int    `json:"row,omitempty"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback receives progress events. Calls are serialized.
type ProgressCallback func(event ProgressEvent)

// Store persists runs and documents; *db.DB implements it
type Store interface {
	CreateRun(ctx context.Context, source string) (uuid.UUID, error)
	SaveDocument(ctx context.Context, runID uuid.UUID, rowNumber int, doc *types.Document, markdown string) (uuid.UUID, error)
	MarkDelivered(ctx context.Context, documentID uuid.UUID, recipients []string) error
	CompleteRun(ctx context.Context, runID uuid.UUID, counts db.RunCounts) error
}

// Options configures a run. Only Source is required.
type Options struct {
	Source      sheets.Source
	SourceName  string
	Layout      *evaluation.Layout   // nil uses evaluation.DefaultLayout
	Filter      *scheduling.Filter   // nil keeps every row
	Formatter   formatting.Formatter // nil uses formatting.Deterministic
	Formats     []rendering.Format   // files written per report
	Printer     rendering.Printer    // required for pdf files and attachments
	Attachment  rendering.Format     // pdf or html; empty picks pdf when a Printer is set
	OutputDir   string               // empty writes no files
	Store       Store
	Mailer      delivery.Mailer
	Routing     delivery.Routing
	Sender      string
	Period      string
	Concurrency int
	Logger      *zap.Logger
	OnProgress  ProgressCallback
}

// Skip is a row left out before assembly
type Skip struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Report is a row that produced a document
type Report struct {
	Row         int             `json:"row"`
	Subject     string          `json:"subject"`
	Title       string          `json:"title"`
	Files       []string        `json:"files,omitempty"`
	DocumentID  uuid.UUID       `json:"document_id,omitempty"`
	DeliveredTo []string        `json:"delivered_to,omitempty"`
	Warnings    []string        `json:"warnings,omitempty"`
	Document    *types.Document `json:"-"`
}

// Failure is a row whose processing stopped at Stage
type Failure struct {
	Row     int    `json:"row"`
	Subject string `json:"subject,omitempty"`
	Stage   string `json:"stage"`
	Err     error  `json:"-"`
	Message string `json:"error"`
}

// Summary is the outcome of a run
type Summary struct {
	RunID     uuid.UUID     `json:"run_id"`
	RowsRead  int           `json:"rows_read"`
	Skipped   []Skip        `json:"skipped,omitempty"`
	Reports   []Report      `json:"reports,omitempty"`
	Failures  []Failure     `json:"failures,omitempty"`
	Duration  time.Duration `json:"duration"`
	Persisted bool          `json:"persisted"`
}

// Counts returns the row totals stored with the run
func (s *Summary) Counts() db.RunCounts {
	return db.RunCounts{Read: s.RowsRead, Processed: len(s.Reports), Failed: len(s.Failures)}
}

type runner struct {
	opts       Options
	assembler  *evaluation.Assembler
	formatter  formatting.Formatter
	attachment rendering.Format
	logger     *zap.Logger
	runID      uuid.UUID
	store      Store

	progressMu sync.Mutex
	resultMu   sync.Mutex
	summary    *Summary
}

// Run executes the batch flow. Row-level problems are collected in the
// summary and never stop other rows; only a failure to read or interpret the
// sheet as a whole is returned as an error.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("pipeline: no sheet source configured")
	}
	started := time.Now()

	r, err := newRunner(opts)
	if err != nil {
		return nil, err
	}

	sheet, err := opts.Source.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	r.emit(StageRead, 0, fmt.Sprintf("Read %d rows from %s", len(sheet.Rows), opts.SourceName), nil)

	result, err := consolidation.ConsolidateSheetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("consolidation failed: %w", err)
	}
	r.summary.RowsRead = len(sheet.Rows)
	for _, skipped := range result.Skipped {
		r.addFailure(Failure{Row: skipped.Row, Stage: StageConsolidate, Err: skipped})
	}
	r.emit(StageConsolidate, 0, fmt.Sprintf("Consolidated %d records (%d rejected)", len(result.Records), len(result.Skipped)), nil)

	due := r.selectRows(result.Records)
	r.emit(StageSelect, 0, fmt.Sprintf("%d rows due, %d skipped", len(due), len(r.summary.Skipped)), nil)

	r.startRun(ctx)

	if opts.OutputDir != "" && len(opts.Formats) > 0 {
		if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency())
	for _, row := range due {
		row := row
		g.Go(func() error {
			r.processRow(gCtx, row)
			return nil
		})
	}
	_ = g.Wait()

	r.finish(ctx)
	r.summary.Duration = time.Since(started)
	r.emit(StageComplete, 0, fmt.Sprintf("Processed %d reports, %d failures", len(r.summary.Reports), len(r.summary.Failures)), r.summary)
	return r.summary, nil
}

func newRunner(opts Options) (*runner, error) {
	layout := evaluation.DefaultLayout()
	if opts.Layout != nil {
		layout = opts.Layout.Clone()
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	formatter := opts.Formatter
	if formatter == nil {
		formatter = formatting.Deterministic{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, f := range opts.Formats {
		if f == rendering.FormatPDF && opts.Printer == nil {
			return nil, fmt.Errorf("pipeline: pdf output needs a printer")
		}
	}
	attachment := opts.Attachment
	switch {
	case attachment == "" && opts.Printer != nil:
		attachment = rendering.FormatPDF
	case attachment == "":
		attachment = rendering.FormatHTML
	case attachment == rendering.FormatPDF && opts.Printer == nil:
		return nil, fmt.Errorf("pipeline: pdf attachments need a printer")
	case attachment != rendering.FormatPDF && attachment != rendering.FormatHTML:
		return nil, fmt.Errorf("pipeline: unsupported attachment format %q", attachment)
	}

	return &runner{
		opts:       opts,
		assembler:  evaluation.NewAssembler(layout),
		formatter:  formatter,
		attachment: attachment,
		logger:     logger,
		summary:    &Summary{},
	}, nil
}

func (r *runner) concurrency() int {
	if r.opts.Concurrency < 1 {
		return 1
	}
	return r.opts.Concurrency
}

// emit calls the progress callback if configured
func (r *runner) emit(stage string, row int, message string, content any) {
	if r.opts.OnProgress == nil {
		return
	}
	event := ProgressEvent{Stage: stage, Row: row, Message: message, Content: content}
	if r.runID != uuid.Nil {
		event.RunID = r.runID.String()
	}
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.opts.OnProgress(event)
}

func (r *runner) selectRows(records []consolidation.RowRecord) []consolidation.RowRecord {
	if r.opts.Filter == nil {
		return records
	}
	due := make([]consolidation.RowRecord, 0, len(records))
	for _, rr := range records {
		keep, reason := r.opts.Filter.Keep(rr.Record)
		if !keep {
			r.summary.Skipped = append(r.summary.Skipped, Skip{Row: rr.Row, Reason: reason})
			r.logger.Debug("row skipped", zap.Int("row", rr.Row), zap.String("reason", reason))
			continue
		}
		due = append(due, rr)
	}
	return due
}

func (r *runner) startRun(ctx context.Context) {
	r.runID = uuid.New()
	if r.opts.Store == nil {
		r.summary.RunID = r.runID
		return
	}
	id, err := r.opts.Store.CreateRun(ctx, r.opts.SourceName)
	if err != nil {
		r.logger.Warn("failed to create run record, continuing without persistence", zap.Error(err))
		r.summary.RunID = r.runID
		return
	}
	r.runID = id
	r.store = r.opts.Store
	r.summary.RunID = id
	r.summary.Persisted = true
}

func (r *runner) finish(ctx context.Context) {
	sort.Slice(r.summary.Reports, func(i, j int) bool { return r.summary.Reports[i].Row < r.summary.Reports[j].Row })
	sort.SliceStable(r.summary.Failures, func(i, j int) bool { return r.summary.Failures[i].Row < r.summary.Failures[j].Row })

	if r.store == nil {
		return
	}
	if err := r.store.CompleteRun(ctx, r.runID, r.summary.Counts()); err != nil {
		r.logger.Warn("failed to complete run record", zap.String("run_id", r.runID.String()), zap.Error(err))
	}
}

func (r *runner) addReport(rep Report) {
	r.resultMu.Lock()
	defer r.resultMu.Unlock()
	r.summary.Reports = append(r.summary.Reports, rep)
}

func (r *runner) addFailure(f Failure) {
	if f.Err != nil {
		f.Message = f.Err.Error()
	}
	r.resultMu.Lock()
	defer r.resultMu.Unlock()
	r.summary.Failures = append(r.summary.Failures, f)
}

func (r *runner) fail(row int, subject, stage string, err error) {
	r.logger.Error("row failed",
		zap.Int("row", row),
		zap.String("subject", subject),
		zap.String("stage", stage),
		zap.Error(err))
	r.addFailure(Failure{Row: row, Subject: subject, Stage: stage, Err: err})
}

func (r *runner) processRow(ctx context.Context, rr consolidation.RowRecord) {
	if err := ctx.Err(); err != nil {
		r.fail(rr.Row, "", StageAssemble, err)
		return
	}

	doc := r.assembler.Assemble(rr.Record)
	if err := schemas.ValidateDocument(doc); err != nil {
		r.fail(rr.Row, doc.Subject, StageAssemble, err)
		return
	}
	for _, w := range doc.Warnings {
		r.logger.Warn("document warning", zap.Int("row", rr.Row), zap.String("subject", doc.Subject), zap.String("warning", w))
	}
	r.emit(StageAssemble, rr.Row, fmt.Sprintf("Assembled %q", doc.Title), doc)

	md, err := r.formatter.Format(ctx, doc)
	if err != nil {
		r.fail(rr.Row, doc.Subject, StageFormat, err)
		return
	}

	rep := Report{Row: rr.Row, Subject: doc.Subject, Title: doc.Title, Warnings: doc.Warnings, Document: doc}

	files, err := r.writeOutputs(ctx, doc, md)
	if err != nil {
		r.fail(rr.Row, doc.Subject, StageWrite, err)
		return
	}
	rep.Files = files

	if r.store != nil {
		id, err := r.store.SaveDocument(ctx, r.runID, rr.Row, doc, md)
		if err != nil {
			r.fail(rr.Row, doc.Subject, StageStore, err)
			return
		}
		rep.DocumentID = id
	}

	if r.opts.Mailer != nil {
		delivered, err := r.deliver(ctx, rr.Record, doc, md)
		if err != nil {
			r.fail(rr.Row, doc.Subject, StageDeliver, err)
			return
		}
		rep.DeliveredTo = delivered
		if r.store != nil {
			if err := r.store.MarkDelivered(ctx, rep.DocumentID, delivered); err != nil {
				r.logger.Warn("failed to record delivery", zap.Int("row", rr.Row), zap.Error(err))
			}
		}
		r.emit(StageDeliver, rr.Row, fmt.Sprintf("Sent report to %s", doc.Subject), nil)
	}

	r.logger.Info("report produced",
		zap.Int("row", rr.Row),
		zap.String("subject", doc.Subject),
		zap.Int("files", len(rep.Files)))
	r.addReport(rep)
}

// encode renders one output; pdf is printed from the HTML page
func (r *runner) encode(ctx context.Context, doc *types.Document, md string, f rendering.Format) ([]byte, error) {
	if f == rendering.FormatPDF {
		return rendering.Print(ctx, r.opts.Printer, doc, md)
	}
	return rendering.Encode(doc, md, f)
}

func (r *runner) writeOutputs(ctx context.Context, doc *types.Document, md string) ([]string, error) {
	if r.opts.OutputDir == "" {
		return nil, nil
	}
	files := make([]string, 0, len(r.opts.Formats))
	for _, f := range r.opts.Formats {
		content, err := r.encode(ctx, doc, md, f)
		if err != nil {
			return files, err
		}
		path := filepath.Join(r.opts.OutputDir, rendering.ReportName(doc.Subject, f))
		if err := os.WriteFile(path, content, 0644); err != nil {
			return files, fmt.Errorf("failed to write %s: %w", path, err)
		}
		files = append(files, path)
	}
	return files, nil
}

func (r *runner) deliver(ctx context.Context, rec types.Record, doc *types.Document, md string) ([]string, error) {
	env, err := delivery.Recipients(rec, r.opts.Routing)
	if err != nil {
		return nil, err
	}
	report, err := r.encode(ctx, doc, md, r.attachment)
	if err != nil {
		return nil, err
	}

	layout := r.assembler.Layout()
	name := rec.Get(layout.TitleKey)
	if name == "" {
		name = doc.Subject
	}

	msg := &delivery.Message{
		From:     r.opts.Sender,
		Envelope: env,
		Subject:  delivery.DefaultSubject,
		Body:     delivery.ReportBody(name, r.opts.Period),
		Attachments: []delivery.Attachment{{
			Name:        rendering.ReportName(doc.Subject, r.attachment),
			ContentType: r.attachment.ContentType(),
			Data:        report,
		}},
	}
	if err := r.opts.Mailer.Send(ctx, msg); err != nil {
		return nil, err
	}
	return env.All(), nil
}
