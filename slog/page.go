package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/threadmark"
)

// Ensure LoggingPage implements threadmark.Page.
var _ threadmark.Page = (*LoggingPage)(nil)

// LoggingPage wraps a Page and logs every navigation.
// Queries are delegated without logging.
type LoggingPage struct {
	threadmark.Page
	logger *slog.Logger
}

// NewLoggingPage creates a new LoggingPage.
func NewLoggingPage(next threadmark.Page, logger *slog.Logger) *LoggingPage {
	return &LoggingPage{Page: next, logger: logger}
}

func (p *LoggingPage) Navigate(ctx context.Context, url string, wait threadmark.WaitPolicy) (err error) {
	defer func(begin time.Time) {
		p.logger.Debug("navigate",
			"url", url,
			"wait", waitName(wait),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.Page.Navigate(ctx, url, wait)
}

func waitName(w threadmark.WaitPolicy) string {
	if w == threadmark.WaitIdle {
		return "idle"
	}
	return "load"
}
