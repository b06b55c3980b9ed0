// Package db provides PostgreSQL storage for evaluation runs and their documents.
package db

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Riolite55/performance-evaluation/internal/types"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema creates the tables when they do not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// CreateRun records the start of a run over source and returns its ID
func (db *DB) CreateRun(ctx context.Context, source string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO evaluation_runs (source, status)
		 VALUES ($1, $2)
		 RETURNING id`,
		source, RunStatusRunning,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun stores the row totals and the status they imply
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, counts RunCounts) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE evaluation_runs
		 SET status = $1, rows_read = $2, rows_processed = $3, rows_failed = $4, completed_at = NOW()
		 WHERE id = $5`,
		counts.Status(), counts.Read, counts.Processed, counts.Failed, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// FailRun marks a run that stopped before processing rows
func (db *DB) FailRun(ctx context.Context, runID uuid.UUID) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE evaluation_runs SET status = $1, completed_at = NOW() WHERE id = $2`,
		RunStatusFailed, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark run failed: %w", err)
	}
	return nil
}

// SaveDocument stores the document assembled from one row. Saving the same
// row twice replaces the earlier copy.
func (db *DB) SaveDocument(ctx context.Context, runID uuid.UUID, rowNumber int, doc *types.Document, markdown string) (uuid.UUID, error) {
	content, err := json.Marshal(doc)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	var id uuid.UUID
	err = db.pool.QueryRow(ctx,
		`INSERT INTO evaluation_documents (run_id, row_number, subject, title, content, markdown)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (run_id, row_number) DO UPDATE
		 SET subject = $3, title = $4, content = $5, markdown = $6, created_at = NOW()
		 RETURNING id`,
		runID, rowNumber, doc.Subject, doc.Title, content, markdown,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save document for row %d: %w", rowNumber, err)
	}
	return id, nil
}

// MarkDelivered records the addresses a document was mailed to
func (db *DB) MarkDelivered(ctx context.Context, documentID uuid.UUID, recipients []string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE evaluation_documents SET delivered_to = $1, delivered_at = NOW() WHERE id = $2`,
		recipients, documentID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark document delivered: %w", err)
	}
	return nil
}

const documentColumns = `id, run_id, row_number, subject, title, content, markdown, delivered_to, delivered_at, created_at`

func scanDocument(row pgx.Row) (*StoredDocument, error) {
	var d StoredDocument
	var content []byte
	if err := row.Scan(&d.ID, &d.RunID, &d.RowNumber, &d.Subject, &d.Title, &content,
		&d.Markdown, &d.DeliveredTo, &d.DeliveredAt, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.Content = content
	return &d, nil
}

// ListDocuments returns a run's documents in row order
func (db *DB) ListDocuments(ctx context.Context, runID uuid.UUID) ([]StoredDocument, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+documentColumns+` FROM evaluation_documents WHERE run_id = $1 ORDER BY row_number`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []StoredDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

// GetDocument retrieves a stored document by ID; it returns nil when none exists
func (db *DB) GetDocument(ctx context.Context, id uuid.UUID) (*StoredDocument, error) {
	d, err := scanDocument(db.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM evaluation_documents WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return d, nil
}

// Decode unmarshals the stored document content
func (d *StoredDocument) Decode() (*types.Document, error) {
	var doc types.Document
	if err := json.Unmarshal(d.Content, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document %s: %w", d.ID, err)
	}
	return &doc, nil
}

const runColumns = `id, source, status, rows_read, rows_processed, rows_failed, created_at, completed_at`

func scanRun(row pgx.Row) (*Run, error) {
	var r Run
	if err := row.Scan(&r.ID, &r.Source, &r.Status, &r.RowsRead, &r.RowsProcessed,
		&r.RowsFailed, &r.CreatedAt, &r.CompletedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRun retrieves a run by ID; it returns nil when none exists
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	r, err := scanRun(db.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM evaluation_runs WHERE id = $1`, runID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return r, nil
}

// ListRuns retrieves the most recent runs
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+runColumns+` FROM evaluation_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}
