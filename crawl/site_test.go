package crawl_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/fwojciec/threadmark/goquery"
	"github.com/fwojciec/threadmark/mock"
)

const listing = "https://www.kaggle.com/competitions/neurips/discussion"

const (
	nextEnabled  = `<button aria-label="Go to next page">Next</button>`
	nextDisabled = `<button aria-label="Go to next page" disabled>Next</button>`
)

// site serves canned HTML by URL and records every navigation.
type site struct {
	mu      sync.Mutex
	pages   map[string]string
	visited []string
}

func newSite(pages map[string]string) *site {
	return &site{pages: pages}
}

func (s *site) page(t *testing.T) *goquery.Page {
	t.Helper()
	return goquery.NewPage(&mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (string, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.visited = append(s.visited, url)
			html, ok := s.pages[url]
			if !ok {
				return "", errors.New("navigation timeout")
			}
			return html, nil
		},
		CloseFn: func() error { return nil },
	})
}

func (s *site) visits() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.visited...)
}

func listingHTML(next string, hrefs ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><a href="/competitions/neurips/discussion">All discussions</a><ul>`)
	for _, h := range hrefs {
		fmt.Fprintf(&b, `<li><a href=%q>Topic</a></li>`, h)
	}
	b.WriteString(`</ul>`)
	b.WriteString(next)
	b.WriteString(`</body></html>`)
	return b.String()
}

func discussionHTML(title string, comments ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<html><body><h1>%s</h1>
<div data-testid="discussions-topic-header">
	<a href="/host">Host Person</a>
	<button aria-label="7 votes">7</button>
	<div class="sc-eTCgfj"><p>Main post body for %s.</p></div>
</div>`, title, title)
	for _, c := range comments {
		b.WriteString(c)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func comment(user, text string, nested ...string) string {
	var children string
	if len(nested) > 0 {
		children = `<div class="sc-gGOevJ">` + strings.Join(nested, "") + `</div>`
	}
	return fmt.Sprintf(`<div data-testid="discussions-comment">
	<a href="/%s">%s</a>
	<div class="sc-jMpVQY"><p>%s</p></div>
	%s
</div>`, user, user, text, children)
}
