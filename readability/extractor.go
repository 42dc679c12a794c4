// Package readability recovers a discussion's opening post with
// go-readability. It is the alternative to the trafilatura fallback.
package readability

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/threadmark"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements threadmark.Extractor at compile time.
var _ threadmark.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability. Elements matching strip are removed
// before scoring so replies never outrank the opening post.
type Extractor struct {
	origin *url.URL
	strip  string
}

// NewExtractor creates a new Extractor. Origin resolves relative links;
// strip is a CSS selector for markup to discard first. Both may be empty.
func NewExtractor(origin, strip string) *Extractor {
	e := &Extractor{strip: strip}
	if u, err := url.Parse(origin); err == nil && u.Host != "" {
		e.origin = u
	}
	return e
}

// Extract processes raw HTML and returns the main content.
func (e *Extractor) Extract(rawHTML string) (*threadmark.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, threadmark.Errorf(threadmark.EINVALID, "empty HTML input")
	}

	if e.strip != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
		if err != nil {
			return nil, err
		}
		doc.Find(e.strip).Remove()
		if rawHTML, err = doc.Html(); err != nil {
			return nil, err
		}
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), e.origin)
	if err != nil {
		return nil, threadmark.Errorf(threadmark.ENOTFOUND, "no main content: %v", err)
	}
	if strings.TrimSpace(article.TextContent) == "" {
		return nil, threadmark.Errorf(threadmark.ENOTFOUND, "no main content")
	}

	return &threadmark.ExtractResult{
		Title:       article.Title,
		ContentHTML: article.Content,
	}, nil
}
