package threadmark

import "context"

// Node can be queried for descendant elements by CSS selector.
type Node interface {
	// Query returns the first matching descendant, or nil if none matches.
	Query(selector string) (Element, error)

	// QueryAll returns all matching descendants in document order.
	QueryAll(selector string) ([]Element, error)
}

// Element is the capability surface over one rendered element.
// The extraction core depends only on this interface, not on any
// particular automation product.
type Element interface {
	Node

	// Attr returns the named attribute and whether it is present.
	Attr(name string) (string, bool, error)

	// Text returns the rendered text with block boundaries as newlines.
	Text() (string, error)

	// InnerHTML returns the element's inner markup.
	InnerHTML() (string, error)

	// CountAncestors returns how many ancestors match the selector.
	CountAncestors(selector string) (int, error)

	// Prune returns a detached copy of the element with every descendant
	// matching the selector removed. The page is not modified.
	Prune(selector string) (Element, error)
}

// WaitPolicy selects what Navigate waits for before returning.
type WaitPolicy int

const (
	// WaitLoad waits for the document load event.
	WaitLoad WaitPolicy = iota
	// WaitIdle additionally waits for the page to go idle.
	WaitIdle
)

// Page is a single browser tab (or page snapshot) that is navigated
// sequentially for the whole crawl.
type Page interface {
	Node

	// Navigate loads the URL. The context carries the navigation timeout.
	Navigate(ctx context.Context, url string, wait WaitPolicy) error

	// HTML returns the serialized markup of the current document.
	HTML() (string, error)

	// Close releases the page.
	Close() error
}

// Fetcher retrieves HTML from URLs.
// Implementations may use browser automation to handle JavaScript-rendered content.
type Fetcher interface {
	// Fetch navigates to the URL, waits for JavaScript to render,
	// and returns the rendered HTML.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases resources held by the fetcher.
	Close() error
}

// Converter converts HTML to Markdown.
type Converter interface {
	// Convert transforms HTML content into Markdown.
	Convert(html string) (string, error)
}

// ExtractResult holds the main content recovered from a whole page.
type ExtractResult struct {
	// Title is the page title extracted from metadata.
	Title string

	// ContentHTML is the main content as clean HTML with boilerplate removed.
	ContentHTML string
}

// Extractor recovers the main content of a page when no structural marker
// identifies it.
type Extractor interface {
	Extract(html string) (*ExtractResult, error)
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
