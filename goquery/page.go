// Package goquery implements the threadmark page capability over a parsed
// HTML snapshot. Any threadmark.Fetcher can supply the snapshot.
package goquery

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/threadmark"
)

// Compile-time interface verification.
var (
	_ threadmark.Page    = (*Page)(nil)
	_ threadmark.Element = (*Element)(nil)
)

// Page is a threadmark.Page whose Navigate fetches HTML and parses it.
// Queries run against the most recently fetched document.
type Page struct {
	fetcher threadmark.Fetcher
	doc     *goquery.Document
	html    string
}

// NewPage creates a Page that loads documents through the fetcher.
func NewPage(fetcher threadmark.Fetcher) *Page {
	return &Page{fetcher: fetcher}
}

// NewDocumentPage creates a Page over a fixed HTML document.
// Navigate on such a page is a no-op.
func NewDocumentPage(html string) (*Page, error) {
	p := &Page{}
	if err := p.load(html); err != nil {
		return nil, err
	}
	return p, nil
}

// Navigate fetches the URL and replaces the current document.
// The wait policy is honored by the fetcher, which returns rendered HTML.
func (p *Page) Navigate(ctx context.Context, url string, _ threadmark.WaitPolicy) error {
	if p.fetcher == nil {
		return ctx.Err()
	}
	html, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return err
	}
	return p.load(html)
}

func (p *Page) load(html string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return threadmark.Errorf(threadmark.EINVALID, "failed to parse HTML: %v", err)
	}
	p.doc = doc
	p.html = html
	return nil
}

// Query returns the first element matching the selector.
func (p *Page) Query(selector string) (threadmark.Element, error) {
	if p.doc == nil {
		return nil, threadmark.Errorf(threadmark.EINVALID, "no document loaded")
	}
	return query(p.doc.Selection, selector), nil
}

// QueryAll returns all elements matching the selector.
func (p *Page) QueryAll(selector string) ([]threadmark.Element, error) {
	if p.doc == nil {
		return nil, threadmark.Errorf(threadmark.EINVALID, "no document loaded")
	}
	return queryAll(p.doc.Selection, selector), nil
}

// HTML returns the markup of the current document.
func (p *Page) HTML() (string, error) {
	return p.html, nil
}

// Close releases the underlying fetcher, if any.
func (p *Page) Close() error {
	if p.fetcher == nil {
		return nil
	}
	return p.fetcher.Close()
}

// Element wraps a single-node goquery selection.
type Element struct {
	sel *goquery.Selection
}

// NewElement wraps the first node of a selection.
func NewElement(sel *goquery.Selection) *Element {
	return &Element{sel: sel.First()}
}

func (e *Element) Query(selector string) (threadmark.Element, error) {
	return query(e.sel, selector), nil
}

func (e *Element) QueryAll(selector string) ([]threadmark.Element, error) {
	return queryAll(e.sel, selector), nil
}

func (e *Element) Attr(name string) (string, bool, error) {
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

// Text returns the element text with block elements on separate lines,
// matching what a browser reports as innerText.
func (e *Element) Text() (string, error) {
	if len(e.sel.Nodes) == 0 {
		return "", nil
	}
	return BlockText(e.sel.Nodes[0]), nil
}

func (e *Element) InnerHTML() (string, error) {
	return e.sel.Html()
}

func (e *Element) CountAncestors(selector string) (int, error) {
	return e.sel.ParentsFiltered(selector).Length(), nil
}

func (e *Element) Prune(selector string) (threadmark.Element, error) {
	clone := e.sel.Clone()
	clone.Find(selector).Remove()
	return &Element{sel: clone}, nil
}

func query(sel *goquery.Selection, selector string) threadmark.Element {
	found := sel.Find(selector).First()
	if found.Length() == 0 {
		return nil
	}
	return &Element{sel: found}
}

func queryAll(sel *goquery.Selection, selector string) []threadmark.Element {
	found := sel.Find(selector)
	elems := make([]threadmark.Element, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		elems = append(elems, &Element{sel: s})
	})
	return elems
}
