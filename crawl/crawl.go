// Package crawl provides discussion crawling orchestration.
// It coordinates listing pagination, per-discussion extraction, and
// storage of the resulting documents.
package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fwojciec/threadmark"
	"github.com/fwojciec/threadmark/extract"
)

// Crawler extracts every discussion of a listing, one at a time, through a
// single page.
type Crawler struct {
	Page      threadmark.Page
	Extractor *extract.Extractor
	Store     threadmark.DiscussionStore

	// Index records written discussions. Optional.
	Index threadmark.ExtractionService
	// SkipExisting skips discussions already recorded in Index.
	SkipExisting bool
	// ReplaceIndex collects index records during the crawl and swaps them
	// in for the whole index on Commit, matching a replaced output directory.
	ReplaceIndex bool

	RateLimiter threadmark.DomainLimiter
	Schedule    Schedule
	Logger      *slog.Logger
	Sleep       SleepFunc
	Now         func() time.Time
}

// Result holds the outcome of a crawl.
type Result struct {
	Discovered int
	Extracted  int
	Failed     int
	Skipped    int

	// Entries are the index records pending until Commit. Only collected
	// with ReplaceIndex.
	Entries []threadmark.ExtractionEntry
}

// ProgressEvent reports progress during a crawl.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	URL       string
	Path      string
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressSkipped
	ProgressFinished
)

// ProgressFunc is a callback for reporting crawl progress.
type ProgressFunc func(event ProgressEvent)

// Crawl discovers the discussions of a listing and extracts up to limit of
// them (all when limit <= 0), in listing order. A discussion that fails is
// logged and skipped. Returns ENOTFOUND if no discussion was written or
// skipped as already indexed.
func (c *Crawler) Crawl(ctx context.Context, listingURL string, limit int, progress ProgressFunc) (*Result, error) {
	if progress == nil {
		progress = func(ProgressEvent) {}
	}

	urls, err := c.paginator().Discover(ctx, listingURL)
	if err != nil {
		return nil, err
	}
	result := &Result{Discovered: len(urls)}
	if limit > 0 && limit < len(urls) {
		urls = urls[:limit]
	}
	c.logger().Info("discussions discovered", "count", result.Discovered, "extracting", len(urls))

	total := len(urls)
	progress(ProgressEvent{Type: ProgressStarted, Total: total})

	for i, u := range urls {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		position := i + 1
		done := i + 1

		if c.existing(ctx, u) {
			result.Skipped++
			progress(ProgressEvent{Type: ProgressSkipped, Completed: done, Total: total, URL: u})
			continue
		}

		path, d, err := c.process(ctx, u, position, result)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Failed++
			c.logger().Warn("discussion skipped", "url", u, "err", err)
			progress(ProgressEvent{Type: ProgressFailed, Completed: done, Total: total, URL: u, Error: err})
			continue
		}

		result.Extracted++
		c.logger().Info("discussion saved", "url", u, "path", path, "stats", FormatStats(d))
		progress(ProgressEvent{Type: ProgressCompleted, Completed: done, Total: total, URL: u, Path: path})

		if err := c.sleep(ctx, c.Schedule.DiscussionDelay); err != nil {
			return result, err
		}
	}

	progress(ProgressEvent{Type: ProgressFinished, Completed: total, Total: total})

	if result.Extracted == 0 && result.Skipped == 0 {
		return result, threadmark.Errorf(threadmark.ENOTFOUND, "no discussions extracted")
	}
	return result, nil
}

// process extracts, saves and indexes one discussion.
func (c *Crawler) process(ctx context.Context, u string, position int, result *Result) (string, *threadmark.Discussion, error) {
	d, err := c.ExtractDiscussion(ctx, u)
	if err != nil {
		return "", nil, err
	}
	path, err := c.Store.Save(ctx, d, position)
	if err != nil {
		return "", nil, fmt.Errorf("save: %w", err)
	}
	if c.Index == nil {
		return path, d, nil
	}
	e := &threadmark.Extraction{
		SourceURL:   d.URL,
		Title:       d.Title,
		FilePath:    path,
		Replies:     d.TotalReplies(),
		Position:    position,
		ExtractedAt: d.ExtractedAt,
	}
	if c.ReplaceIndex {
		result.Entries = append(result.Entries, threadmark.ExtractionEntry{Extraction: e, Content: d.Text()})
		return path, d, nil
	}
	if err := c.Index.CreateExtraction(ctx, e, d.Text()); err != nil {
		c.logger().Warn("index record not written", "url", u, "err", err)
	}
	return path, d, nil
}

// Commit makes the crawl's output permanent. With ReplaceIndex the index
// is then replaced by the records of this crawl.
func (c *Crawler) Commit(ctx context.Context, result *Result) error {
	if err := c.Store.Commit(); err != nil {
		return err
	}
	if !c.ReplaceIndex || c.Index == nil {
		return nil
	}
	if err := c.Index.ReplaceExtractions(ctx, result.Entries); err != nil {
		return fmt.Errorf("replace index: %w", err)
	}
	return nil
}

// Abort discards the crawl's pending output. The index is left untouched.
func (c *Crawler) Abort() error {
	return c.Store.Abort()
}

// ExtractDiscussion loads one discussion and assembles its reply tree.
// Returns ENOTFOUND if the page has no comment elements.
func (c *Crawler) ExtractDiscussion(ctx context.Context, u string) (*threadmark.Discussion, error) {
	if err := navigate(ctx, c.Page, c.RateLimiter, u, threadmark.WaitIdle, c.Schedule.NavigationTimeout); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if err := c.sleep(ctx, c.Schedule.Settle); err != nil {
		return nil, err
	}

	title, err := c.Extractor.Title(c.Page)
	if err != nil {
		return nil, fmt.Errorf("title: %w", err)
	}
	main, err := c.Extractor.MainPost(c.Page)
	if err != nil {
		return nil, fmt.Errorf("main post: %w", err)
	}
	nodes, err := c.Extractor.Replies(c.Page)
	if err != nil {
		return nil, err
	}
	replies, err := threadmark.BuildReplyTree(nodes)
	if err != nil {
		return nil, err
	}
	if err := threadmark.VerifyReplyTree(replies); err != nil {
		c.logger().Warn("reply tree check failed", "url", u, "err", err)
	}

	d := &threadmark.Discussion{
		Title:       title,
		URL:         u,
		MainContent: main.Content,
		MainAuthor:  main.Author,
		MainUpvotes: main.Upvotes,
		Replies:     replies,
		ExtractedAt: c.now(),
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (c *Crawler) existing(ctx context.Context, u string) bool {
	if !c.SkipExisting || c.Index == nil {
		return false
	}
	_, err := c.Index.FindExtractionBySourceURL(ctx, u)
	if err == nil {
		return true
	}
	if threadmark.ErrorCode(err) != threadmark.ENOTFOUND {
		c.logger().Warn("index lookup failed", "url", u, "err", err)
	}
	return false
}

func (c *Crawler) paginator() *Paginator {
	return &Paginator{
		Page:        c.Page,
		Markers:     c.Extractor.Markers,
		Schedule:    c.Schedule,
		RateLimiter: c.RateLimiter,
		Logger:      c.Logger,
		Sleep:       c.Sleep,
	}
}

func (c *Crawler) sleep(ctx context.Context, d time.Duration) error {
	if c.Sleep != nil {
		return c.Sleep(ctx, d)
	}
	return Sleep(ctx, d)
}

func (c *Crawler) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now().UTC()
}

func (c *Crawler) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}
