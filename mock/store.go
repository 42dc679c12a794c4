package mock

import (
	"context"

	"github.com/fwojciec/threadmark"
)

// Compile-time interface verification.
var (
	_ threadmark.DiscussionStore   = (*DiscussionStore)(nil)
	_ threadmark.ExtractionService = (*ExtractionService)(nil)
)

// DiscussionStore is a mock implementation of threadmark.DiscussionStore.
type DiscussionStore struct {
	SaveFn   func(ctx context.Context, d *threadmark.Discussion, position int) (string, error)
	CommitFn func() error
	AbortFn  func() error
}

func (s *DiscussionStore) Save(ctx context.Context, d *threadmark.Discussion, position int) (string, error) {
	return s.SaveFn(ctx, d, position)
}

func (s *DiscussionStore) Commit() error {
	return s.CommitFn()
}

func (s *DiscussionStore) Abort() error {
	return s.AbortFn()
}

// ExtractionService is a mock implementation of threadmark.ExtractionService.
type ExtractionService struct {
	CreateExtractionFn          func(ctx context.Context, e *threadmark.Extraction, content string) error
	FindExtractionBySourceURLFn func(ctx context.Context, sourceURL string) (*threadmark.Extraction, error)
	FindExtractionsFn           func(ctx context.Context, filter threadmark.ExtractionFilter) ([]*threadmark.Extraction, error)
	ReplaceExtractionsFn        func(ctx context.Context, entries []threadmark.ExtractionEntry) error
	DeleteExtractionFn          func(ctx context.Context, id string) error
}

func (s *ExtractionService) CreateExtraction(ctx context.Context, e *threadmark.Extraction, content string) error {
	return s.CreateExtractionFn(ctx, e, content)
}

func (s *ExtractionService) FindExtractionBySourceURL(ctx context.Context, sourceURL string) (*threadmark.Extraction, error) {
	return s.FindExtractionBySourceURLFn(ctx, sourceURL)
}

func (s *ExtractionService) FindExtractions(ctx context.Context, filter threadmark.ExtractionFilter) ([]*threadmark.Extraction, error) {
	return s.FindExtractionsFn(ctx, filter)
}

func (s *ExtractionService) ReplaceExtractions(ctx context.Context, entries []threadmark.ExtractionEntry) error {
	return s.ReplaceExtractionsFn(ctx, entries)
}

func (s *ExtractionService) DeleteExtraction(ctx context.Context, id string) error {
	return s.DeleteExtractionFn(ctx, id)
}
