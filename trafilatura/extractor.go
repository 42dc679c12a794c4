// Package trafilatura recovers the main post of a discussion page when no
// structural marker identifies it.
package trafilatura

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/fwojciec/threadmark"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements threadmark.Extractor at compile time.
var _ threadmark.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract the main post from a page.
// Comment sections are excluded so replies do not leak into the post.
type Extractor struct {
	origin *url.URL
}

// NewExtractor creates a new Extractor. Origin, if non-empty, is used to
// resolve relative links in the extracted content.
func NewExtractor(origin string) *Extractor {
	e := &Extractor{}
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

	opts := trafilatura.Options{
		EnableFallback:  true,
		ExcludeComments: true,
		IncludeLinks:    true,
		OriginalURL:     e.origin,
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, threadmark.Errorf(threadmark.ENOTFOUND, "no main content: %v", err)
	}

	var contentHTML string
	if result.ContentNode != nil {
		contentHTML, err = renderNode(result.ContentNode)
		if err != nil {
			return nil, err
		}
	}

	return &threadmark.ExtractResult{
		Title:       result.Metadata.Title,
		ContentHTML: contentHTML,
	}, nil
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
