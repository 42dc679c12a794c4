package crawl_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/threadmark"
	"github.com/fwojciec/threadmark/crawl"
	"github.com/fwojciec/threadmark/extract"
	"github.com/fwojciec/threadmark/fs"
	"github.com/fwojciec/threadmark/mock"
	"github.com/fwojciec/threadmark/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// savedDiscussions records what a crawl saved, by position.
type savedDiscussions struct {
	mu        sync.Mutex
	positions []int
	byURL     map[string]*threadmark.Discussion
}

func (s *savedDiscussions) store() *mock.DiscussionStore {
	s.byURL = make(map[string]*threadmark.Discussion)
	return &mock.DiscussionStore{
		SaveFn: func(_ context.Context, d *threadmark.Discussion, position int) (string, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.positions = append(s.positions, position)
			s.byURL[d.URL] = d
			return "out/" + d.Title + ".md", nil
		},
	}
}

func newCrawler(t *testing.T, s *site, store threadmark.DiscussionStore) *crawl.Crawler {
	t.Helper()
	return &crawl.Crawler{
		Page:      s.page(t),
		Extractor: extract.NewExtractor(threadmark.DefaultMarkers()),
		Store:     store,
		Schedule:  crawl.Schedule{MaxPages: 50},
		Sleep:     noSleep,
		Now:       func() time.Time { return fixedNow },
	}
}

func threeDiscussionSite() *site {
	return newSite(map[string]string{
		listing: listingHTML("",
			"/competitions/neurips/discussion/1",
			"/competitions/neurips/discussion/2",
			"/competitions/neurips/discussion/3",
		),
		listing + "/1": discussionHTML("First",
			comment("alice", "Alice writes the first top level comment.",
				comment("bob", "Bob answers Alice in a nested reply."),
				comment("carol", "Carol also answers Alice here."),
			),
			comment("dave", "Dave writes the second top level comment."),
			comment("erin", "Erin writes the third top level comment."),
		),
		listing + "/3": discussionHTML("Third",
			comment("frank", "Frank is the only commenter on this one."),
		),
	})
}

func TestCrawler_Crawl(t *testing.T) {
	t.Parallel()

	t.Run("extracts discussions and isolates failures", func(t *testing.T) {
		t.Parallel()

		var saved savedDiscussions
		var events []crawl.ProgressType
		c := newCrawler(t, threeDiscussionSite(), saved.store())

		result, err := c.Crawl(context.Background(), listing, 0, func(e crawl.ProgressEvent) {
			events = append(events, e.Type)
		})

		require.NoError(t, err)
		assert.Equal(t, &crawl.Result{Discovered: 3, Extracted: 2, Failed: 1}, result)
		assert.Equal(t, []int{1, 3}, saved.positions)
		assert.Equal(t, []crawl.ProgressType{
			crawl.ProgressStarted,
			crawl.ProgressCompleted,
			crawl.ProgressFailed,
			crawl.ProgressCompleted,
			crawl.ProgressFinished,
		}, events)
	})

	t.Run("assembles the discussion", func(t *testing.T) {
		t.Parallel()

		var saved savedDiscussions
		c := newCrawler(t, threeDiscussionSite(), saved.store())

		_, err := c.Crawl(context.Background(), listing, 1, nil)

		require.NoError(t, err)
		d := saved.byURL[listing+"/1"]
		require.NotNil(t, d)
		assert.Equal(t, "First", d.Title)
		assert.Equal(t, "host", d.MainAuthor.Username)
		assert.Equal(t, 7, d.MainUpvotes)
		assert.Equal(t, "Main post body for First.", d.MainContent)
		assert.Equal(t, fixedNow, d.ExtractedAt)
		assert.Equal(t, 5, d.TotalReplies())
		require.Len(t, d.Replies, 3)
		require.Len(t, d.Replies[0].Replies, 2)
		assert.Equal(t, "1.2", d.Replies[0].Replies[1].Number)
		assert.Equal(t, "Carol also answers Alice here.", d.Replies[0].Replies[1].Content)
		assert.Equal(t, "Alice writes the first top level comment.", d.Replies[0].Content)
	})

	t.Run("applies the limit", func(t *testing.T) {
		t.Parallel()

		var saved savedDiscussions
		s := threeDiscussionSite()
		c := newCrawler(t, s, saved.store())

		result, err := c.Crawl(context.Background(), listing, 1, nil)

		require.NoError(t, err)
		assert.Equal(t, 3, result.Discovered)
		assert.Equal(t, 1, result.Extracted)
		assert.NotContains(t, s.visits(), listing+"/3")
	})

	t.Run("skips discussions without comment elements", func(t *testing.T) {
		t.Parallel()

		s := newSite(map[string]string{
			listing:        listingHTML("", "/competitions/neurips/discussion/1"),
			listing + "/1": discussionHTML("Quiet"),
		})
		var failed error
		c := newCrawler(t, s, (&savedDiscussions{}).store())

		_, err := c.Crawl(context.Background(), listing, 0, func(e crawl.ProgressEvent) {
			if e.Type == crawl.ProgressFailed {
				failed = e.Error
			}
		})

		assert.Equal(t, threadmark.ENOTFOUND, threadmark.ErrorCode(err))
		assert.Equal(t, threadmark.ENOTFOUND, threadmark.ErrorCode(failed))
	})

	t.Run("returns ENOTFOUND when nothing is extracted", func(t *testing.T) {
		t.Parallel()

		s := newSite(map[string]string{
			listing: listingHTML("", "/competitions/neurips/discussion/1"),
		})
		c := newCrawler(t, s, (&savedDiscussions{}).store())

		result, err := c.Crawl(context.Background(), listing, 0, nil)

		assert.Equal(t, threadmark.ENOTFOUND, threadmark.ErrorCode(err))
		assert.Equal(t, 1, result.Failed)
	})

	t.Run("returns ENOTFOUND when no links are discovered", func(t *testing.T) {
		t.Parallel()

		s := newSite(map[string]string{listing: listingHTML("")})
		c := newCrawler(t, s, (&savedDiscussions{}).store())

		result, err := c.Crawl(context.Background(), listing, 0, nil)

		assert.Equal(t, threadmark.ENOTFOUND, threadmark.ErrorCode(err))
		assert.Equal(t, 0, result.Discovered)
	})

	t.Run("counts save failures", func(t *testing.T) {
		t.Parallel()

		store := &mock.DiscussionStore{
			SaveFn: func(context.Context, *threadmark.Discussion, int) (string, error) {
				return "", errors.New("disk full")
			},
		}
		c := newCrawler(t, threeDiscussionSite(), store)

		result, err := c.Crawl(context.Background(), listing, 0, nil)

		require.Error(t, err)
		assert.Equal(t, 3, result.Failed)
	})

	t.Run("records written discussions in the index", func(t *testing.T) {
		t.Parallel()

		var records []*threadmark.Extraction
		var contents []string
		c := newCrawler(t, threeDiscussionSite(), (&savedDiscussions{}).store())
		c.Index = &mock.ExtractionService{
			CreateExtractionFn: func(_ context.Context, e *threadmark.Extraction, content string) error {
				records = append(records, e)
				contents = append(contents, content)
				return nil
			},
		}

		_, err := c.Crawl(context.Background(), listing, 0, nil)

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, listing+"/1", records[0].SourceURL)
		assert.Equal(t, "out/First.md", records[0].FilePath)
		assert.Equal(t, 5, records[0].Replies)
		assert.Equal(t, 1, records[0].Position)
		assert.Equal(t, 3, records[1].Position)
		assert.Contains(t, contents[1], "Frank is the only commenter")
	})

	t.Run("skips discussions already in the index", func(t *testing.T) {
		t.Parallel()

		var saved savedDiscussions
		c := newCrawler(t, threeDiscussionSite(), saved.store())
		c.SkipExisting = true
		c.Index = &mock.ExtractionService{
			FindExtractionBySourceURLFn: func(_ context.Context, u string) (*threadmark.Extraction, error) {
				if u == listing+"/1" {
					return &threadmark.Extraction{SourceURL: u}, nil
				}
				return nil, threadmark.Errorf(threadmark.ENOTFOUND, "extraction not found")
			},
			CreateExtractionFn: func(context.Context, *threadmark.Extraction, string) error {
				return nil
			},
		}

		result, err := c.Crawl(context.Background(), listing, 0, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Skipped)
		assert.Equal(t, 1, result.Extracted)
		assert.Equal(t, []int{3}, saved.positions)
	})

	t.Run("succeeds when every discussion is already indexed", func(t *testing.T) {
		t.Parallel()

		var saved savedDiscussions
		c := newCrawler(t, threeDiscussionSite(), saved.store())
		c.SkipExisting = true
		c.Index = &mock.ExtractionService{
			FindExtractionBySourceURLFn: func(_ context.Context, u string) (*threadmark.Extraction, error) {
				return &threadmark.Extraction{SourceURL: u}, nil
			},
		}

		result, err := c.Crawl(context.Background(), listing, 0, nil)

		require.NoError(t, err)
		assert.Equal(t, &crawl.Result{Discovered: 3, Skipped: 3}, result)
		assert.Empty(t, saved.positions)
	})

	t.Run("waits the schedule delays", func(t *testing.T) {
		t.Parallel()

		var waits []time.Duration
		c := newCrawler(t, threeDiscussionSite(), (&savedDiscussions{}).store())
		c.Schedule = crawl.Schedule{
			ListingSettle:   time.Second,
			Settle:          2 * time.Second,
			DiscussionDelay: 3 * time.Second,
			MaxPages:        50,
		}
		c.Sleep = func(_ context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		}

		_, err := c.Crawl(context.Background(), listing, 1, nil)

		require.NoError(t, err)
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, waits)
	})

	t.Run("stops when the context is canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		c := newCrawler(t, threeDiscussionSite(), (&savedDiscussions{}).store())
		c.Sleep = func(context.Context, time.Duration) error {
			return nil
		}
		var extracted int

		_, err := c.Crawl(ctx, listing, 0, func(e crawl.ProgressEvent) {
			if e.Type == crawl.ProgressCompleted {
				extracted++
				cancel()
			}
		})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, extracted)
	})
}

// Story: Re-running a Replacing Crawl
// The index must describe the files on disk after every committed run.

func TestCrawler_CommitReplacesIndex(t *testing.T) {
	t.Parallel()

	// Given a real output directory and index
	dir := filepath.Join(t.TempDir(), "out")
	db := sqlite.NewDB(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, db.Open())
	t.Cleanup(func() { _ = db.Close() })
	index := sqlite.NewExtractionService(db)

	run := func(s *site) {
		t.Helper()
		c := newCrawler(t, s, fs.NewFileStore(dir, fs.OverwriteReplace))
		c.Index = index
		c.ReplaceIndex = true
		result, err := c.Crawl(context.Background(), listing, 0, nil)
		require.NoError(t, err)
		require.NoError(t, c.Commit(context.Background(), result))
	}

	// When the listing is crawled, then crawled again in a new order
	run(threeDiscussionSite())
	second := threeDiscussionSite()
	second.pages[listing] = listingHTML("",
		"/competitions/neurips/discussion/3",
		"/competitions/neurips/discussion/1",
	)
	run(second)

	// Then every record points at a file that exists
	records, err := index.FindExtractions(context.Background(), threadmark.ExtractionFilter{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		_, err := os.Stat(r.FilePath)
		assert.NoError(t, err, "index entry %s", r.FilePath)
	}
	assert.Equal(t, filepath.Join(dir, "01_Third.md"), records[0].FilePath)
	assert.Equal(t, filepath.Join(dir, "02_First.md"), records[1].FilePath)

	// And the files of the first run are gone
	_, err = os.Stat(filepath.Join(dir, "03_Third.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestCrawler_AbortKeepsIndex(t *testing.T) {
	t.Parallel()

	aborted := false
	c := newCrawler(t, threeDiscussionSite(), &mock.DiscussionStore{
		AbortFn: func() error { aborted = true; return nil },
	})
	c.ReplaceIndex = true
	c.Index = &mock.ExtractionService{}

	require.NoError(t, c.Abort())
	assert.True(t, aborted)
}
