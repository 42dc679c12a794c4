package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/threadmark"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ threadmark.ExtractionService = (*ExtractionService)(nil)

// ExtractionService implements threadmark.ExtractionService using SQLite.
type ExtractionService struct {
	db *DB
}

// NewExtractionService creates a new ExtractionService.
func NewExtractionService(db *DB) *ExtractionService {
	return &ExtractionService{db: db}
}

// hashContent computes xxHash of content and returns hex string.
func hashContent(content string) string {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, xxhash.Sum64String(content))
	return hex.EncodeToString(b)
}

const extractionColumns = "id, source_url, title, file_path, content_hash, replies, position, extracted_at"

// CreateExtraction records a written discussion. The content hash is
// computed from content.
func (s *ExtractionService) CreateExtraction(ctx context.Context, e *threadmark.Extraction, content string) error {
	if err := e.Validate(); err != nil {
		return err
	}

	if _, err := s.FindExtractionBySourceURL(ctx, e.SourceURL); err == nil {
		return threadmark.Errorf(threadmark.ECONFLICT, "discussion %s already extracted", e.SourceURL)
	} else if threadmark.ErrorCode(err) != threadmark.ENOTFOUND {
		return err
	}

	return insertExtraction(ctx, s.db, e, content)
}

// ReplaceExtractions deletes every record and inserts entries in one
// transaction. Duplicate source URLs within entries fail with ECONFLICT and
// leave the index unchanged.
func (s *ExtractionService) ReplaceExtractions(ctx context.Context, entries []threadmark.ExtractionEntry) error {
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if err := entry.Extraction.Validate(); err != nil {
			return err
		}
		if seen[entry.Extraction.SourceURL] {
			return threadmark.Errorf(threadmark.ECONFLICT, "discussion %s listed twice", entry.Extraction.SourceURL)
		}
		seen[entry.Extraction.SourceURL] = true
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM extractions"); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := insertExtraction(ctx, tx, entry.Extraction, entry.Content); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// execer is satisfied by *DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertExtraction(ctx context.Context, db execer, e *threadmark.Extraction, content string) error {
	e.ID = uuid.New().String()
	e.ContentHash = hashContent(content)
	if e.ExtractedAt.IsZero() {
		e.ExtractedAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO extractions (`+extractionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.SourceURL, e.Title, e.FilePath, e.ContentHash, e.Replies, e.Position,
		e.ExtractedAt.UTC().Format(time.RFC3339))
	return err
}

// FindExtractionBySourceURL retrieves the record of a discussion URL.
func (s *ExtractionService) FindExtractionBySourceURL(ctx context.Context, sourceURL string) (*threadmark.Extraction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+extractionColumns+`
		FROM extractions
		WHERE source_url = ?
	`, sourceURL)

	e, err := scanExtraction(row)
	if err == sql.ErrNoRows {
		return nil, threadmark.Errorf(threadmark.ENOTFOUND, "extraction not found")
	}
	return e, err
}

// FindExtractions retrieves records matching the filter, in crawl order.
func (s *ExtractionService) FindExtractions(ctx context.Context, filter threadmark.ExtractionFilter) ([]*threadmark.Extraction, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + extractionColumns + " FROM extractions WHERE 1=1")

	if filter.SourceURL != nil {
		query.WriteString(" AND source_url = ?")
		args = append(args, *filter.SourceURL)
	}

	query.WriteString(" ORDER BY position ASC, extracted_at ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var extractions []*threadmark.Extraction
	for rows.Next() {
		e, err := scanExtraction(rows)
		if err != nil {
			return nil, err
		}
		extractions = append(extractions, e)
	}

	return extractions, rows.Err()
}

// DeleteExtraction permanently removes a record.
func (s *ExtractionService) DeleteExtraction(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM extractions WHERE id = ?", id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return threadmark.Errorf(threadmark.ENOTFOUND, "extraction not found")
	}

	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanExtraction(row scanner) (*threadmark.Extraction, error) {
	var e threadmark.Extraction
	var extractedAt string

	if err := row.Scan(&e.ID, &e.SourceURL, &e.Title, &e.FilePath, &e.ContentHash,
		&e.Replies, &e.Position, &extractedAt); err != nil {
		return nil, err
	}

	t, err := time.Parse(time.RFC3339, extractedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse extracted_at: %w", err)
	}
	e.ExtractedAt = t
	return &e, nil
}

// appendPagination appends LIMIT and OFFSET clauses. SQLite only accepts
// OFFSET after a LIMIT, so an offset alone is paired with LIMIT -1.
func appendPagination(query *strings.Builder, args *[]any, limit, offset int) {
	switch {
	case limit > 0:
		query.WriteString(" LIMIT ?")
		*args = append(*args, limit)
	case offset > 0:
		query.WriteString(" LIMIT -1")
	}
	if offset > 0 {
		query.WriteString(" OFFSET ?")
		*args = append(*args, offset)
	}
}
