package threadmark

import (
	"context"
	"time"
)

// DiscussionStore persists rendered discussions with atomic semantics.
// Save writes one discussion and returns where it was written; Commit makes
// the run's output permanent; Abort discards pending output.
type DiscussionStore interface {
	Save(ctx context.Context, d *Discussion, position int) (path string, err error)
	Commit() error
	Abort() error
}

// Extraction records a discussion that has been written to storage.
type Extraction struct {
	ID          string    `json:"id"`
	SourceURL   string    `json:"sourceUrl"`
	Title       string    `json:"title"`
	FilePath    string    `json:"filePath"`
	ContentHash string    `json:"contentHash"`
	Replies     int       `json:"replies"`
	Position    int       `json:"position"`
	ExtractedAt time.Time `json:"extractedAt"`
}

// Validate returns an error if the extraction contains invalid fields.
func (e *Extraction) Validate() error {
	if e.SourceURL == "" {
		return Errorf(EINVALID, "extraction source URL required")
	}
	if e.FilePath == "" {
		return Errorf(EINVALID, "extraction file path required")
	}
	return nil
}

// ExtractionService records which discussions have been extracted.
type ExtractionService interface {
	// CreateExtraction records a written discussion.
	// Returns ECONFLICT if the source URL was already recorded.
	CreateExtraction(ctx context.Context, e *Extraction, content string) error

	// FindExtractionBySourceURL returns the record for a discussion URL.
	// Returns ENOTFOUND if the discussion has not been extracted.
	FindExtractionBySourceURL(ctx context.Context, sourceURL string) (*Extraction, error)

	// FindExtractions retrieves records matching the filter.
	FindExtractions(ctx context.Context, filter ExtractionFilter) ([]*Extraction, error)

	// ReplaceExtractions atomically replaces every record with entries.
	ReplaceExtractions(ctx context.Context, entries []ExtractionEntry) error

	// DeleteExtraction permanently removes a record.
	// Returns ENOTFOUND if the record does not exist.
	DeleteExtraction(ctx context.Context, id string) error
}

// ExtractionEntry pairs a record with the text its content hash is
// computed from.
type ExtractionEntry struct {
	Extraction *Extraction
	Content    string
}

// ExtractionFilter represents a filter for FindExtractions.
type ExtractionFilter struct {
	SourceURL *string `json:"sourceUrl"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
