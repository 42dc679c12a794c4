package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/threadmark"
)

// Ensure LoggingStore implements threadmark.DiscussionStore.
var _ threadmark.DiscussionStore = (*LoggingStore)(nil)

// LoggingStore wraps a DiscussionStore with logging.
type LoggingStore struct {
	next   threadmark.DiscussionStore
	logger *slog.Logger
}

// NewLoggingStore creates a new LoggingStore.
func NewLoggingStore(next threadmark.DiscussionStore, logger *slog.Logger) *LoggingStore {
	return &LoggingStore{next: next, logger: logger}
}

// Save delegates to the wrapped store and logs where the discussion went.
func (s *LoggingStore) Save(ctx context.Context, d *threadmark.Discussion, position int) (path string, err error) {
	defer func(begin time.Time) {
		s.logger.Info("save",
			"url", d.URL,
			"path", path,
			"replies", d.TotalReplies(),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Save(ctx, d, position)
}

func (s *LoggingStore) Commit() (err error) {
	defer func() {
		s.logger.Debug("commit", "err", err)
	}()
	return s.next.Commit()
}

func (s *LoggingStore) Abort() (err error) {
	defer func() {
		s.logger.Debug("abort", "err", err)
	}()
	return s.next.Abort()
}
