package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/threadmark"
)

// Paginator walks the pages of a discussion listing and collects the
// discussion links it finds, in first-seen order.
type Paginator struct {
	Page        threadmark.Page
	Markers     *threadmark.Markers
	Schedule    Schedule
	RateLimiter threadmark.DomainLimiter
	Logger      *slog.Logger
	Sleep       SleepFunc
}

// Discover returns every unique discussion URL reachable through the
// listing's pagination. It stops at a missing or disabled next control, a
// page that adds no new links, or the page ceiling. Only a failure to load
// the first page is an error.
func (p *Paginator) Discover(ctx context.Context, listingURL string) ([]string, error) {
	listing, err := ListingURL(listingURL, p.Markers.DiscussionPath)
	if err != nil {
		return nil, err
	}

	var links []string
	seen := make(map[string]bool)
	for n := 1; ; n++ {
		if p.Schedule.MaxPages > 0 && n > p.Schedule.MaxPages {
			p.logger().Warn("listing page ceiling reached", "pages", p.Schedule.MaxPages)
			break
		}

		pageURL := PageURL(listing, n)
		if err := navigate(ctx, p.Page, p.RateLimiter, pageURL, threadmark.WaitLoad, p.Schedule.NavigationTimeout); err != nil {
			if n == 1 {
				return nil, fmt.Errorf("load listing %s: %w", pageURL, err)
			}
			p.logger().Warn("listing page failed", "url", pageURL, "err", err)
			break
		}
		if err := p.sleep(ctx, p.Schedule.ListingSettle); err != nil {
			return nil, err
		}

		found, err := p.pageLinks(pageURL)
		if err != nil {
			p.logger().Warn("listing page unreadable", "url", pageURL, "err", err)
			break
		}
		added := 0
		for _, link := range found {
			if seen[link] {
				continue
			}
			seen[link] = true
			links = append(links, link)
			added++
		}
		p.logger().Debug("listing page", "page", n, "new", added, "total", len(links))
		if added == 0 {
			break
		}

		more, err := p.hasNext()
		if err != nil {
			p.logger().Warn("next page control unreadable", "url", pageURL, "err", err)
			break
		}
		if !more {
			break
		}
	}

	if len(links) == 0 {
		p.logger().Warn("no discussion links discovered", "url", listing)
	}
	return links, nil
}

func (p *Paginator) pageLinks(pageURL string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	anchors, err := p.Page.QueryAll(p.Markers.DiscussionLink)
	if err != nil {
		return nil, err
	}
	var links []string
	for _, a := range anchors {
		href, ok, err := a.Attr("href")
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if link, ok := NormalizeLink(base, href, p.Markers.DiscussionPath); ok {
			links = append(links, link)
		}
	}
	return links, nil
}

func (p *Paginator) hasNext() (bool, error) {
	if p.Markers.NextPage == "" {
		return false, nil
	}
	next, err := p.Page.Query(p.Markers.NextPage)
	if err != nil || next == nil {
		return false, err
	}
	disabled, err := Disabled(next)
	return !disabled, err
}

func (p *Paginator) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return Sleep(ctx, d)
}

func (p *Paginator) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Disabled reports whether a pagination control is disabled through the
// disabled attribute, aria-disabled or a "disabled" class.
func Disabled(el threadmark.Element) (bool, error) {
	if _, ok, err := el.Attr("disabled"); err != nil || ok {
		return ok, err
	}
	aria, ok, err := el.Attr("aria-disabled")
	if err != nil {
		return false, err
	}
	if ok && strings.EqualFold(aria, "true") {
		return true, nil
	}
	class, _, err := el.Attr("class")
	if err != nil {
		return false, err
	}
	return strings.Contains(class, "disabled"), nil
}

// ListingURL returns the discussion listing for a URL. A competition URL
// without the discussion path is expanded to its listing.
func ListingURL(raw, discussionPath string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", threadmark.Errorf(threadmark.EINVALID, "invalid listing URL %q", raw)
	}
	u.Fragment = ""
	path := strings.TrimSuffix(u.Path, "/")
	if discussionPath != "" && !strings.Contains(path+"/", discussionPath+"/") {
		path += discussionPath
	}
	u.Path = path
	u.RawPath = ""
	return u.String(), nil
}

// PageURL returns the URL of the n-th listing page. The first page is the
// listing itself.
func PageURL(listing string, n int) string {
	if n <= 1 {
		return listing
	}
	u, err := url.Parse(listing)
	if err != nil {
		return listing
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(n))
	u.RawQuery = q.Encode()
	return u.String()
}

// NormalizeLink resolves href against base and strips its fragment. It
// reports false unless the result points at a single discussion, that is
// contains discussionPath followed by an identifier.
func NormalizeLink(base *url.URL, href, discussionPath string) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	u := base.ResolveReference(ref)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	u.Fragment = ""
	u.RawFragment = ""

	marker := strings.TrimSuffix(discussionPath, "/") + "/"
	i := strings.Index(u.Path, marker)
	if i < 0 || strings.Trim(u.Path[i+len(marker):], "/") == "" {
		return "", false
	}
	return u.String(), true
}

func navigate(ctx context.Context, page threadmark.Page, limiter threadmark.DomainLimiter, rawURL string, wait threadmark.WaitPolicy, timeout time.Duration) error {
	if limiter != nil {
		u, err := url.Parse(rawURL)
		if err != nil {
			return threadmark.Errorf(threadmark.EINVALID, "invalid URL %q", rawURL)
		}
		if err := limiter.Wait(ctx, u.Host); err != nil {
			return err
		}
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return page.Navigate(ctx, rawURL, wait)
}
