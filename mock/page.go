package mock

import (
	"context"

	"github.com/fwojciec/threadmark"
)

// Compile-time interface verification.
var (
	_ threadmark.Page    = (*Page)(nil)
	_ threadmark.Element = (*Element)(nil)
)

// Page is a mock implementation of threadmark.Page.
type Page struct {
	NavigateFn func(ctx context.Context, url string, wait threadmark.WaitPolicy) error
	QueryFn    func(selector string) (threadmark.Element, error)
	QueryAllFn func(selector string) ([]threadmark.Element, error)
	HTMLFn     func() (string, error)
	CloseFn    func() error
}

func (p *Page) Navigate(ctx context.Context, url string, wait threadmark.WaitPolicy) error {
	return p.NavigateFn(ctx, url, wait)
}

func (p *Page) Query(selector string) (threadmark.Element, error) {
	return p.QueryFn(selector)
}

func (p *Page) QueryAll(selector string) ([]threadmark.Element, error) {
	return p.QueryAllFn(selector)
}

func (p *Page) HTML() (string, error) {
	return p.HTMLFn()
}

func (p *Page) Close() error {
	return p.CloseFn()
}

// Element is a mock implementation of threadmark.Element.
type Element struct {
	QueryFn          func(selector string) (threadmark.Element, error)
	QueryAllFn       func(selector string) ([]threadmark.Element, error)
	AttrFn           func(name string) (string, bool, error)
	TextFn           func() (string, error)
	InnerHTMLFn      func() (string, error)
	CountAncestorsFn func(selector string) (int, error)
	PruneFn          func(selector string) (threadmark.Element, error)
}

func (e *Element) Query(selector string) (threadmark.Element, error) {
	return e.QueryFn(selector)
}

func (e *Element) QueryAll(selector string) ([]threadmark.Element, error) {
	return e.QueryAllFn(selector)
}

func (e *Element) Attr(name string) (string, bool, error) {
	return e.AttrFn(name)
}

func (e *Element) Text() (string, error) {
	return e.TextFn()
}

func (e *Element) InnerHTML() (string, error) {
	return e.InnerHTMLFn()
}

func (e *Element) CountAncestors(selector string) (int, error) {
	return e.CountAncestorsFn(selector)
}

func (e *Element) Prune(selector string) (threadmark.Element, error) {
	return e.PruneFn(selector)
}
