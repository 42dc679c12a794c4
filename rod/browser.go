// Package rod drives a Chrome browser through go-rod. It provides both the
// live page capability and a rendered-HTML fetcher.
package rod

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fwojciec/threadmark"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Ensure Browser implements threadmark.Fetcher at compile time.
var _ threadmark.Fetcher = (*Browser)(nil)

// DefaultIdleWindow is how long the network must be quiet before a page
// counts as idle.
const DefaultIdleWindow = 500 * time.Millisecond

// Browser owns one Chrome process for the whole run.
// Close must be called when the Browser is no longer needed.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	closed   atomic.Bool

	headless   bool
	bin        string
	idleWindow time.Duration
}

// BrowserOption configures a Browser.
type BrowserOption func(*Browser)

// WithHeadless sets whether Chrome runs without a window. Defaults to true.
func WithHeadless(headless bool) BrowserOption {
	return func(b *Browser) {
		b.headless = headless
	}
}

// WithBin sets the Chrome binary. By default rod finds or downloads one.
func WithBin(path string) BrowserOption {
	return func(b *Browser) {
		b.bin = path
	}
}

// WithIdleWindow sets the quiet period used by WaitIdle navigations.
func WithIdleWindow(d time.Duration) BrowserOption {
	return func(b *Browser) {
		b.idleWindow = d
	}
}

// NewBrowser launches Chrome.
// Returns an error if Chrome cannot be found or launched.
func NewBrowser(opts ...BrowserOption) (*Browser, error) {
	b := &Browser{
		headless:   true,
		idleWindow: DefaultIdleWindow,
	}
	for _, opt := range opts {
		opt(b)
	}

	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(b.headless)
	if b.bin != "" {
		l = l.Bin(b.bin)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	b.browser = browser
	b.launcher = l
	return b, nil
}

// NewPage opens a tab for sequential navigation.
func (b *Browser) NewPage() (*Page, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	return &Page{page: page, idleWindow: b.idleWindow}, nil
}

// Fetch loads the URL in a fresh tab, waits for the network to go idle and
// returns the rendered HTML.
func (b *Browser) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	page, err := b.NewPage()
	if err != nil {
		return "", err
	}
	defer page.Close()

	if err := page.Navigate(ctx, url, threadmark.WaitIdle); err != nil {
		return "", err
	}
	return page.HTML()
}

// LauncherPID returns the PID of the Chrome process.
func (b *Browser) LauncherPID() int {
	return b.launcher.PID()
}

// Close shuts down Chrome. Close is safe to call multiple times.
func (b *Browser) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := b.browser.Close()
	b.launcher.Kill()
	b.launcher.Cleanup()
	return err
}
