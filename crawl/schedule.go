package crawl

import (
	"context"
	"time"
)

// Schedule holds the fixed delays and limits of a crawl.
type Schedule struct {
	// NavigationTimeout bounds every page load.
	NavigationTimeout time.Duration

	// ListingSettle is waited after loading a listing page and Settle after
	// loading a discussion, for client-side rendering to finish.
	ListingSettle time.Duration
	Settle        time.Duration

	// DiscussionDelay is waited after each extracted discussion.
	DiscussionDelay time.Duration

	// MaxPages is the listing page ceiling.
	MaxPages int
}

// DefaultSchedule returns the schedule used against live sites.
func DefaultSchedule() Schedule {
	return Schedule{
		NavigationTimeout: 30 * time.Second,
		ListingSettle:     3 * time.Second,
		Settle:            3 * time.Second,
		DiscussionDelay:   2 * time.Second,
		MaxPages:          50,
	}
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep waits for d. Returns the context error if ctx is done first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
