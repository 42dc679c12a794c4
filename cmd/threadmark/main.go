package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/threadmark"
	"github.com/fwojciec/threadmark/crawl"
	"github.com/fwojciec/threadmark/extract"
	"github.com/fwojciec/threadmark/fs"
	"github.com/fwojciec/threadmark/goquery"
	"github.com/fwojciec/threadmark/htmltomarkdown"
	tmhttp "github.com/fwojciec/threadmark/http"
	"github.com/fwojciec/threadmark/readability"
	"github.com/fwojciec/threadmark/rod"
	tmslog "github.com/fwojciec/threadmark/slog"
	"github.com/fwojciec/threadmark/sqlite"
	"github.com/fwojciec/threadmark/trafilatura"
	"github.com/fwojciec/threadmark/yaml"
	"github.com/joho/godotenv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run(); --db overrides it.
	DBPath string

	// SQLite database backing the extraction index.
	DB *sqlite.DB

	closers []func() error
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close releases everything opened by Run, most recent first.
func (m *Main) Close() error {
	var first error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	m.closers = nil
	if m.DB != nil {
		if err := m.DB.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("threadmark"),
		kong.Description("Extract hierarchical discussion threads to markdown."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'threadmark --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	deps.Logger = newLogger(stderr, cli.Verbose)

	if cli.DB != "" {
		m.DBPath = cli.DB
	}
	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set THREADMARK_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	deps.Extractions = sqlite.NewExtractionService(m.DB)

	if strings.HasPrefix(kongCtx.Command(), "extract") {
		if err := m.wireExtract(&cli.Extract, deps); err != nil {
			return err
		}
	}

	return kongCtx.Run(deps)
}

// wireExtract builds the page capability, store and crawler for extract.
func (m *Main) wireExtract(c *ExtractCmd, deps *Dependencies) error {
	logger := deps.Logger

	markers := threadmark.DefaultMarkers()
	if c.Markers != "" {
		loaded, err := yaml.LoadMarkers(c.Markers)
		if err != nil {
			return fmt.Errorf("failed to load markers: %w", err)
		}
		markers = loaded
	}
	if c.Target == "writeups" {
		w, err := markers.Writeups()
		if err != nil {
			return err
		}
		markers = w
	}

	page, err := m.openPage(c, deps)
	if err != nil {
		return err
	}

	origin := originOf(c.URL)
	x := extract.NewExtractor(markers)
	x.Converter = htmltomarkdown.NewConverter(origin)
	switch c.Fallback {
	case "trafilatura":
		x.Fallback = trafilatura.NewExtractor(origin)
	case "readability":
		x.Fallback = readability.NewExtractor(origin, markers.Pruned())
	}
	if c.Strategy == "top-level" {
		x.Strategy = extract.ParentNearestTopLevel
	}
	x.Dropped = func(index int, reason string) {
		logger.Debug("comment dropped", "index", index, "reason", reason)
	}

	policy := fs.OverwriteReplace
	if c.Append {
		policy = fs.OverwriteAppend
	}
	formats, err := c.Formats()
	if err != nil {
		return err
	}
	store := fs.NewFileStore(c.OutDir(), policy, fs.WithFormats(formats...))
	deps.Store = tmslog.NewLoggingStore(store, logger)
	deps.OutDir = store.Dir()

	schedule := crawl.DefaultSchedule()
	schedule.NavigationTimeout = c.Timeout
	schedule.ListingSettle = c.ListingSettle
	schedule.Settle = c.Settle
	schedule.DiscussionDelay = c.Delay
	schedule.MaxPages = c.MaxPages

	deps.Crawler = &crawl.Crawler{
		Page:         tmslog.NewLoggingPage(page, logger),
		Extractor:    x,
		Store:        deps.Store,
		Index:        deps.Extractions,
		SkipExisting: c.SkipExisting,
		ReplaceIndex: !c.Append,
		RateLimiter:  crawl.NewDomainLimiter(c.Interval),
		Schedule:     schedule,
		Logger:       logger,
	}
	return nil
}

// openPage returns the page capability for the selected mode.
func (m *Main) openPage(c *ExtractCmd, deps *Dependencies) (threadmark.Page, error) {
	logger := deps.Logger
	if c.Mode == "static" {
		fetcher := tmhttp.NewFetcher(tmhttp.WithTimeout(c.Timeout))
		page := goquery.NewPage(tmslog.NewLoggingFetcher(fetcher, logger))
		m.closers = append(m.closers, page.Close)
		return page, nil
	}

	opts := []rod.BrowserOption{rod.WithHeadless(!c.Headful)}
	if c.Chrome != "" {
		opts = append(opts, rod.WithBin(c.Chrome))
	}
	browser, err := rod.NewBrowser(opts...)
	if err != nil {
		fmt.Fprintln(deps.Stderr, "Hint: Chrome or Chromium must be installed, or pass --chrome")
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	m.closers = append(m.closers, browser.Close)

	if c.Mode == "rendered" {
		return goquery.NewPage(tmslog.NewLoggingFetcher(browser, logger)), nil
	}

	page, err := browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	m.closers = append(m.closers, page.Close)
	return page, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// originOf returns scheme://host of raw, or "" if raw is not absolute.
func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func defaultDBPath() string {
	if path := os.Getenv("THREADMARK_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "threadmark.db"
	}
	dir := filepath.Join(home, ".threadmark")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "threadmark.db")
}
