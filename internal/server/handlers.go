package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Riolite55/performance-evaluation/internal/consolidation"
	"github.com/Riolite55/performance-evaluation/internal/db"
	"github.com/Riolite55/performance-evaluation/internal/rendering"
	"github.com/Riolite55/performance-evaluation/internal/schemas"
	"github.com/Riolite55/performance-evaluation/internal/types"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 100
)

// SkippedRow is a data row left out of a response
type SkippedRow struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ConsolidateResponse represents the response for /v1/consolidate
type ConsolidateResponse struct {
	Records []consolidation.RowRecord `json:"records"`
	Skipped []SkippedRow              `json:"skipped,omitempty"`
}

// RenderedDocument is one report in a /v1/documents response. Content is a
// string for md and html, and the document object for json.
type RenderedDocument struct {
	Row      int      `json:"row"`
	Subject  string   `json:"subject,omitempty"`
	Title    string   `json:"title"`
	Warnings []string `json:"warnings,omitempty"`
	Content  any      `json:"content"`
}

// DocumentsResponse represents the response for /v1/documents
type DocumentsResponse struct {
	Format    rendering.Format   `json:"format"`
	Documents []RenderedDocument `json:"documents"`
	Skipped   []SkippedRow       `json:"skipped,omitempty"`
}

// readSheet reads and validates a header/row payload
func (s *Server) readSheet(w http.ResponseWriter, r *http.Request) (*types.RawSheet, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, &ErrValidation{Field: "body", Message: err.Error()}
	}
	if !json.Valid(body) {
		return nil, &ErrValidation{Field: "body", Message: "request body is not valid JSON"}
	}
	if err := schemas.ValidateSheet(body); err != nil {
		return nil, err
	}

	var sheet types.RawSheet
	if err := json.Unmarshal(body, &sheet); err != nil {
		return nil, &ErrValidation{Field: "body", Message: err.Error()}
	}
	return &sheet, nil
}

func (s *Server) consolidate(w http.ResponseWriter, r *http.Request) (*consolidation.Result, []SkippedRow, bool) {
	sheet, err := s.readSheet(w, r)
	if err != nil {
		s.fail(w, err)
		return nil, nil, false
	}
	result, err := consolidation.ConsolidateSheetRows(sheet)
	if err != nil {
		s.fail(w, err)
		return nil, nil, false
	}

	var skipped []SkippedRow
	for _, se := range result.Skipped {
		skipped = append(skipped, SkippedRow{Row: se.Row, Error: se.Error()})
	}
	return result, skipped, true
}

// handleConsolidate turns a header/row payload into canonical records
func (s *Server) handleConsolidate(w http.ResponseWriter, r *http.Request) {
	result, skipped, ok := s.consolidate(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, ConsolidateResponse{Records: result.Records, Skipped: skipped})
}

// handleDocuments assembles and renders one report per row. With ?row=N the
// single report is returned as a file in the requested format.
func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	format, err := rendering.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.fail(w, err)
		return
	}
	only := 0
	if v := r.URL.Query().Get("row"); v != "" {
		if only, err = strconv.Atoi(v); err != nil || only < 1 {
			s.fail(w, &ErrValidation{Field: "row", Message: "must be a positive row number"})
			return
		}
	}
	if format == rendering.FormatPDF {
		if only == 0 {
			s.fail(w, &ErrValidation{Field: "format", Message: "pdf is only returned for a single ?row=N"})
			return
		}
		if err := s.requirePrinter(); err != nil {
			s.fail(w, err)
			return
		}
	}

	result, skipped, ok := s.consolidate(w, r)
	if !ok {
		return
	}

	resp := DocumentsResponse{Format: format, Documents: []RenderedDocument{}, Skipped: skipped}
	for _, rr := range result.Records {
		if only > 0 && rr.Row != only {
			continue
		}

		doc := s.assembler.Assemble(rr.Record)
		if err := schemas.ValidateDocument(doc); err != nil {
			if only > 0 {
				s.fail(w, &ErrRowInvalid{Row: rr.Row, Cause: err})
				return
			}
			resp.Skipped = append(resp.Skipped, SkippedRow{Row: rr.Row, Error: err.Error()})
			continue
		}
		md, err := s.formatter.Format(r.Context(), doc)
		if err != nil {
			s.fail(w, fmt.Errorf("row %d: %w", rr.Row, err))
			return
		}
		content, err := s.encode(r, doc, md, format)
		if err != nil {
			s.fail(w, err)
			return
		}

		if only > 0 {
			s.fileResponse(w, rendering.ReportName(doc.Subject, format), format, content)
			return
		}

		rendered := RenderedDocument{Row: rr.Row, Subject: doc.Subject, Title: doc.Title, Warnings: doc.Warnings}
		if format == rendering.FormatJSON {
			rendered.Content = json.RawMessage(content)
		} else {
			rendered.Content = string(content)
		}
		resp.Documents = append(resp.Documents, rendered)
	}

	if only > 0 {
		for _, skippedRow := range skipped {
			if skippedRow.Row == only {
				s.fail(w, &ErrRowInvalid{Row: only, Cause: errors.New(skippedRow.Error)})
				return
			}
		}
		s.fail(w, &ErrNotFound{Kind: "row", ID: strconv.Itoa(only)})
		return
	}
	s.logger.Debug("rendered documents",
		zap.Int("documents", len(resp.Documents)),
		zap.Int("skipped", len(resp.Skipped)))
	s.jsonResponse(w, http.StatusOK, resp)
}

// fileResponse writes a rendered report as a download
func (s *Server) fileResponse(w http.ResponseWriter, name string, format rendering.Format, content []byte) {
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content); err != nil {
		s.logger.Error("failed to write report", zap.Error(err))
	}
}

// encode renders one report; pdf is printed from the HTML page
func (s *Server) encode(r *http.Request, doc *types.Document, md string, format rendering.Format) ([]byte, error) {
	if format == rendering.FormatPDF {
		return rendering.Print(r.Context(), s.printer, doc, md)
	}
	return rendering.Encode(doc, md, format)
}

func (s *Server) requirePrinter() error {
	if s.printer == nil {
		return &ErrUnavailable{Feature: "pdf rendering", Reason: "no printer configured"}
	}
	return nil
}

func (s *Server) requireArchive(feature string) error {
	if s.archive == nil {
		return &ErrUnavailable{Feature: feature}
	}
	return nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: "id", Message: fmt.Sprintf("invalid id %q", raw)}
	}
	return id, nil
}

// handleListRuns returns the most recent runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if err := s.requireArchive("run history"); err != nil {
		s.fail(w, err)
		return
	}

	limit := defaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.fail(w, &ErrValidation{Field: "limit", Message: "must be a positive integer"})
			return
		}
		limit = min(n, maxRunLimit)
	}

	runs, err := s.archive.ListRuns(r.Context(), limit)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

// handleGetRun returns one run
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if err := s.requireArchive("run history"); err != nil {
		s.fail(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	run, err := s.archive.GetRun(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	if run == nil {
		s.fail(w, &ErrNotFound{Kind: "run", ID: id.String()})
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}

// handleListRunDocuments returns the documents stored for a run
func (s *Server) handleListRunDocuments(w http.ResponseWriter, r *http.Request) {
	if err := s.requireArchive("run history"); err != nil {
		s.fail(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	run, err := s.archive.GetRun(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	if run == nil {
		s.fail(w, &ErrNotFound{Kind: "run", ID: id.String()})
		return
	}

	docs, err := s.archive.ListDocuments(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	if docs == nil {
		docs = []db.StoredDocument{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"run_id": id, "documents": docs, "count": len(docs)})
}

// handleGetDocument returns a stored report as a file in the requested format
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.requireArchive("document history"); err != nil {
		s.fail(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	format, err := rendering.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if format == rendering.FormatPDF {
		if err := s.requirePrinter(); err != nil {
			s.fail(w, err)
			return
		}
	}

	stored, err := s.archive.GetDocument(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	if stored == nil {
		s.fail(w, &ErrNotFound{Kind: "document", ID: id.String()})
		return
	}

	doc, err := stored.Decode()
	if err != nil {
		s.fail(w, err)
		return
	}
	content, err := s.encode(r, doc, stored.Markdown, format)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.fileResponse(w, rendering.ReportName(stored.Subject, format), format, content)
}
