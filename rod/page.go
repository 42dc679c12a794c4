package rod

import (
	"context"
	"time"

	"github.com/fwojciec/threadmark"
	"github.com/go-rod/rod"
)

// Compile-time interface verification.
var (
	_ threadmark.Page    = (*Page)(nil)
	_ threadmark.Element = (*Element)(nil)
)

// Page is a live browser tab. Queries run against the current DOM.
type Page struct {
	page       *rod.Page
	idleWindow time.Duration
}

// Navigate loads the URL. WaitIdle additionally waits until no network
// request has been in flight for the idle window.
func (p *Page) Navigate(ctx context.Context, url string, wait threadmark.WaitPolicy) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	page := p.page.Context(ctx)

	var idle func()
	if wait == threadmark.WaitIdle {
		idle = page.WaitRequestIdle(p.idleWindow, nil, nil, nil)
	}
	if err := page.Navigate(url); err != nil {
		return err
	}
	if err := page.WaitLoad(); err != nil {
		return err
	}
	if idle != nil {
		idle()
	}
	return ctx.Err()
}

func (p *Page) Query(selector string) (threadmark.Element, error) {
	els, err := p.page.Elements(selector)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return &Element{el: els[0], page: p.page}, nil
}

func (p *Page) QueryAll(selector string) ([]threadmark.Element, error) {
	els, err := p.page.Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrap(els, p.page), nil
}

func (p *Page) HTML() (string, error) {
	return p.page.HTML()
}

func (p *Page) Close() error {
	return p.page.Close()
}

// Element is a live DOM element, or a detached copy produced by Prune.
type Element struct {
	el   *rod.Element
	page *rod.Page
}

func (e *Element) Query(selector string) (threadmark.Element, error) {
	els, err := e.el.Elements(selector)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return &Element{el: els[0], page: e.page}, nil
}

func (e *Element) QueryAll(selector string) ([]threadmark.Element, error) {
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrap(els, e.page), nil
}

func (e *Element) Attr(name string) (string, bool, error) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

func (e *Element) Text() (string, error) {
	res, err := e.el.Eval(blockTextJS)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (e *Element) InnerHTML() (string, error) {
	res, err := e.el.Eval(innerHTMLJS)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (e *Element) CountAncestors(selector string) (int, error) {
	res, err := e.el.Eval(countAncestorsJS, selector)
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

func (e *Element) Prune(selector string) (threadmark.Element, error) {
	obj, err := e.el.Evaluate(rod.Eval(pruneJS, selector).ByObject())
	if err != nil {
		return nil, err
	}
	el, err := e.page.ElementFromObject(obj)
	if err != nil {
		return nil, err
	}
	return &Element{el: el, page: e.page}, nil
}

func wrap(els rod.Elements, page *rod.Page) []threadmark.Element {
	out := make([]threadmark.Element, len(els))
	for i, el := range els {
		out[i] = &Element{el: el, page: page}
	}
	return out
}
