package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Riolite55/performance-evaluation/internal/db"
	"github.com/Riolite55/performance-evaluation/internal/formatting"
	"github.com/Riolite55/performance-evaluation/internal/rendering"
	"github.com/Riolite55/performance-evaluation/internal/server/ratelimit"
	"github.com/Riolite55/performance-evaluation/internal/types"
)

type fakeArchive struct {
	runs map[uuid.UUID]*db.Run
	docs map[uuid.UUID]*db.StoredDocument
	err  error
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{runs: map[uuid.UUID]*db.Run{}, docs: map[uuid.UUID]*db.StoredDocument{}}
}

func (a *fakeArchive) ListRuns(_ context.Context, limit int) ([]db.Run, error) {
	if a.err != nil {
		return nil, a.err
	}
	var runs []db.Run
	for _, r := range a.runs {
		if len(runs) == limit {
			break
		}
		runs = append(runs, *r)
	}
	return runs, nil
}

func (a *fakeArchive) GetRun(_ context.Context, id uuid.UUID) (*db.Run, error) {
	return a.runs[id], a.err
}

func (a *fakeArchive) ListDocuments(_ context.Context, runID uuid.UUID) ([]db.StoredDocument, error) {
	var docs []db.StoredDocument
	for _, d := range a.docs {
		if d.RunID == runID {
			docs = append(docs, *d)
		}
	}
	return docs, a.err
}

func (a *fakeArchive) GetDocument(_ context.Context, id uuid.UUID) (*db.StoredDocument, error) {
	return a.docs[id], a.err
}

type failingFormatter struct{}

func (failingFormatter) Format(context.Context, *types.Document) (string, error) {
	return "", &formatting.Error{Message: "model call failed", Cause: errors.New("quota exceeded")}
}

func sheetBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(types.RawSheet{
		Headers: []string{"Timestamp", "DME ID - Employee Name", "Consultant Email", "Project Name", "Client Name", "Delivery Quality - rate 1 to 5", "Project Name"},
		Rows: [][]string{
			{"01/04/2025 09:00:00", "Jane Doe", "jane@example.com", "", "Acme", "5", "Atlas"},
			{"x"},
			{"02/04/2025 09:00:00", "John Roe", "john@example.com", "Beacon", "Globex", "N/A", ""},
		},
	})
	require.NoError(t, err)
	return body
}

func do(t *testing.T, h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	s := New(Config{})

	w := do(t, s.Handler(), http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestConsolidateEndpoint(t *testing.T) {
	s := New(Config{})

	w := do(t, s.Handler(), http.MethodPost, "/v1/consolidate", sheetBody(t))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Records []struct {
			Row    int            `json:"row"`
			Record map[string]any `json:"record"`
		} `json:"records"`
		Skipped []SkippedRow `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.Len(t, resp.Records, 2)
	assert.Equal(t, 1, resp.Records[0].Row)
	assert.Equal(t, "Atlas", resp.Records[0].Record["Project Name"])
	assert.Equal(t, 3, resp.Records[1].Row)
	assert.Equal(t, "Beacon", resp.Records[1].Record["Project Name"])

	require.Len(t, resp.Skipped, 1)
	assert.Equal(t, 2, resp.Skipped[0].Row)
}

func TestConsolidateEndpoint_BadRequests(t *testing.T) {
	s := New(Config{})

	tests := []struct {
		name string
		body string
		want int
	}{
		{"not json", "{headers", http.StatusBadRequest},
		{"missing rows", `{"headers":["A"]}`, http.StatusBadRequest},
		{"empty headers", `{"headers":[],"rows":[]}`, http.StatusBadRequest},
		{"unknown field", `{"headers":["A"],"rows":[],"extra":1}`, http.StatusBadRequest},
		{"non-string cell", `{"headers":["A"],"rows":[[1]]}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s.Handler(), http.MethodPost, "/v1/consolidate", []byte(tt.body))
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestDocumentsEndpoint(t *testing.T) {
	s := New(Config{})

	w := do(t, s.Handler(), http.MethodPost, "/v1/documents", sheetBody(t))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Format    string `json:"format"`
		Documents []struct {
			Row     int    `json:"row"`
			Subject string `json:"subject"`
			Title   string `json:"title"`
			Content string `json:"content"`
		} `json:"documents"`
		Skipped []SkippedRow `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "md", resp.Format)
	require.Len(t, resp.Documents, 2)
	assert.Equal(t, "jane@example.com", resp.Documents[0].Subject)
	assert.Equal(t, "Performance Evaluation: Jane Doe", resp.Documents[0].Title)
	assert.True(t, strings.HasPrefix(resp.Documents[0].Content, "# Performance Evaluation: Jane Doe"))
	assert.Contains(t, resp.Documents[0].Content, "| Delivery Quality | 5 |")
	assert.NotContains(t, resp.Documents[1].Content, "Delivery Quality")
	assert.Len(t, resp.Skipped, 1)
}

func TestDocumentsEndpoint_JSONFormat(t *testing.T) {
	s := New(Config{})

	w := do(t, s.Handler(), http.MethodPost, "/v1/documents?format=json", sheetBody(t))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Documents []struct {
			Content types.Document `json:"content"`
		} `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Documents)
	assert.Equal(t, types.SectionTitle, resp.Documents[0].Content.Kinds()[0])
}

func TestDocumentsEndpoint_SingleRow(t *testing.T) {
	s := New(Config{})

	w := do(t, s.Handler(), http.MethodPost, "/v1/documents?format=html&row=1", sheetBody(t))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, rendering.FormatHTML.ContentType(), w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "evaluation_report_jane@example.com.html")
	assert.Contains(t, w.Body.String(), "<title>Performance Evaluation: Jane Doe</title>")

	w = do(t, s.Handler(), http.MethodPost, "/v1/documents?row=2", sheetBody(t))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "row 2")

	w = do(t, s.Handler(), http.MethodPost, "/v1/documents?row=9", sheetBody(t))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s.Handler(), http.MethodPost, "/v1/documents?row=zero", sheetBody(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentsEndpoint_PDF(t *testing.T) {
	var printed string
	printer := rendering.PrinterFunc(func(_ context.Context, page []byte) ([]byte, error) {
		printed = string(page)
		return []byte("%PDF-1.4 fake"), nil
	})
	h := New(Config{Printer: printer}).Handler()

	w := do(t, h, http.MethodPost, "/v1/documents?format=pdf&row=1", sheetBody(t))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "evaluation_report_jane@example.com.pdf")
	assert.Equal(t, "%PDF-1.4 fake", w.Body.String())
	assert.Contains(t, printed, "<title>Performance Evaluation: Jane Doe</title>")

	w = do(t, h, http.MethodPost, "/v1/documents?format=pdf", sheetBody(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "row")

	w = do(t, New(Config{}).Handler(), http.MethodPost, "/v1/documents?format=pdf&row=1", sheetBody(t))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "no printer configured")

	broken := rendering.PrinterFunc(func(context.Context, []byte) ([]byte, error) {
		return nil, &rendering.PrintError{Message: "failed to print PDF", Cause: errors.New("chrome exited")}
	})
	w = do(t, New(Config{Printer: broken}).Handler(), http.MethodPost, "/v1/documents?format=pdf&row=1", sheetBody(t))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestDocumentsEndpoint_Errors(t *testing.T) {
	w := do(t, New(Config{}).Handler(), http.MethodPost, "/v1/documents?format=docx", sheetBody(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, New(Config{Formatter: failingFormatter{}}).Handler(), http.MethodPost, "/v1/documents", sheetBody(t))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "quota exceeded")
}

func TestRunEndpoints(t *testing.T) {
	archive := newFakeArchive()
	runID := uuid.New()
	archive.runs[runID] = &db.Run{ID: runID, Source: "form.xlsx", Status: db.RunStatusCompleted, RowsRead: 2, CreatedAt: time.Now()}

	doc := &types.Document{
		Title:    "Performance Evaluation: Jane Doe",
		Subject:  "jane@example.com",
		Sections: []types.Section{{Kind: types.SectionTitle, Heading: "Performance Evaluation: Jane Doe"}},
	}
	content, err := json.Marshal(doc)
	require.NoError(t, err)
	docID := uuid.New()
	archive.docs[docID] = &db.StoredDocument{
		ID: docID, RunID: runID, RowNumber: 1, Subject: doc.Subject, Title: doc.Title,
		Content: content, Markdown: "# Performance Evaluation: Jane Doe\n",
	}

	h := New(Config{Archive: archive}).Handler()

	w := do(t, h, http.MethodGet, "/v1/runs?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = do(t, h, http.MethodGet, "/v1/runs/"+runID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"source":"form.xlsx"`)

	w = do(t, h, http.MethodGet, "/v1/runs/"+runID.String()+"/documents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), docID.String())

	w = do(t, h, http.MethodGet, "/v1/documents/"+docID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# Performance Evaluation: Jane Doe\n", w.Body.String())

	w = do(t, h, http.MethodGet, "/v1/documents/"+docID.String()+"?format=html", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h1")

	w = do(t, h, http.MethodGet, "/v1/runs/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/v1/documents/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/v1/runs/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/v1/runs?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunEndpoints_NoArchive(t *testing.T) {
	h := New(Config{}).Handler()

	for _, target := range []string{"/v1/runs", "/v1/runs/" + uuid.New().String(), "/v1/documents/" + uuid.New().String()} {
		w := do(t, h, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, target)
	}
}

func TestRunEndpoints_ArchiveError(t *testing.T) {
	archive := newFakeArchive()
	archive.err = errors.New("connection refused")

	w := do(t, New(Config{Archive: archive}).Handler(), http.MethodGet, "/v1/runs", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := &ratelimit.Config{
		Enabled: true,
		Rules:   []ratelimit.Rule{{Method: http.MethodPost, Prefix: "/v1/documents", Limit: 1, Window: time.Hour}},
	}
	s := New(Config{RateLimit: cfg})
	defer s.rateLimiter.Stop()

	assert.Equal(t, http.StatusOK, do(t, s.Handler(), http.MethodPost, "/v1/documents", sheetBody(t)).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, s.Handler(), http.MethodPost, "/v1/documents", sheetBody(t)).Code)
	assert.Equal(t, http.StatusOK, do(t, s.Handler(), http.MethodGet, "/health", nil).Code)
}

func TestCORSPreflight(t *testing.T) {
	w := do(t, New(Config{}).Handler(), http.MethodOptions, "/v1/documents", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
}
