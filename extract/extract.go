// Package extract turns the comment elements of a rendered discussion page
// into classified replies. It depends only on the threadmark element
// capability, so it runs unchanged against a live browser page or a parsed
// HTML snapshot.
package extract

import (
	"strings"

	"github.com/fwojciec/threadmark"
)

// UnknownTitle is used when no title marker matches.
const UnknownTitle = "Unknown Title"

// Extractor extracts replies and the main post from discussion pages.
type Extractor struct {
	Markers  *threadmark.Markers
	Strategy ParentStrategy

	// Converter renders the main post body to markdown. Optional; the
	// body's text is used when nil.
	Converter threadmark.Converter

	// Fallback recovers the main post body from the whole page when no
	// main post marker yields one. Used only together with Converter.
	Fallback threadmark.Extractor

	// Dropped, if set, is called for every comment element that is left
	// out of the tree, with the reason.
	Dropped func(index int, reason string)
}

// NewExtractor returns an Extractor using markers and level-based parent
// resolution.
func NewExtractor(markers *threadmark.Markers) *Extractor {
	return &Extractor{Markers: markers, Strategy: ParentByLevel}
}

// MainPost is the opening post of a discussion.
type MainPost struct {
	Author  threadmark.Author
	Upvotes int
	Content string
}

// Replies extracts every comment element on the page and resolves parents.
// Returns ENOTFOUND if the page has no comment elements at all.
func (x *Extractor) Replies(page threadmark.Node) ([]threadmark.ClassifiedReply, error) {
	elems, err := page.QueryAll(x.Markers.Comment)
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, threadmark.Errorf(threadmark.ENOTFOUND, "no comment elements")
	}

	nodes := make([]threadmark.ClassifiedReply, 0, len(elems))
	for i, el := range elems {
		node, err := x.Node(el)
		if err != nil {
			x.drop(i, err.Error())
			continue
		}
		if node.Author.IsUnknown() {
			x.drop(i, "unknown author")
			continue
		}
		if node.Content == "" {
			x.drop(i, "empty content")
			continue
		}
		nodes = append(nodes, *node)
	}
	return Classify(nodes, x.Strategy), nil
}

// Node extracts one comment element: its own metadata, its own content and
// its nesting level. Parent is left unresolved (-1).
func (x *Extractor) Node(el threadmark.Element) (*threadmark.ClassifiedReply, error) {
	level, err := el.CountAncestors(x.Markers.NestedContainer)
	if err != nil {
		return nil, err
	}
	own, err := el.Prune(x.Markers.Pruned())
	if err != nil {
		return nil, err
	}
	meta, err := x.metadata(own)
	if err != nil {
		return nil, err
	}
	content, err := x.content(own, meta.Author)
	if err != nil {
		return nil, err
	}
	return &threadmark.ClassifiedReply{
		Author:    meta.Author,
		Content:   content,
		Upvotes:   meta.Upvotes,
		Timestamp: meta.Timestamp,
		Level:     level,
		Parent:    -1,
	}, nil
}

// Title returns the first non-empty match of the title markers.
func (x *Extractor) Title(page threadmark.Node) (string, error) {
	for _, sel := range x.Markers.Titles {
		el, err := page.Query(sel)
		if err != nil {
			return "", err
		}
		if el == nil {
			continue
		}
		text, err := el.Text()
		if err != nil {
			return "", err
		}
		if text = strings.TrimSpace(text); text != "" {
			return strings.Join(strings.Fields(text), " "), nil
		}
	}
	return UnknownTitle, nil
}

// MainPost extracts the opening post from the first main post marker that
// matches. The author and upvotes come from the first matching container;
// the body from the first container that has one.
func (x *Extractor) MainPost(page threadmark.Page) (*MainPost, error) {
	var post *MainPost
	for _, sel := range x.Markers.MainPosts {
		el, err := page.Query(sel)
		if err != nil {
			return nil, err
		}
		if el == nil {
			continue
		}
		own, err := el.Prune(x.Markers.Pruned())
		if err != nil {
			return nil, err
		}
		if post == nil {
			meta, err := x.metadata(own)
			if err != nil {
				return nil, err
			}
			post = &MainPost{Author: meta.Author, Upvotes: meta.Upvotes}
		}
		body, err := x.mainBody(own)
		if err != nil {
			return nil, err
		}
		if body != "" {
			post.Content = body
			return post, nil
		}
	}
	if post == nil {
		post = &MainPost{Author: threadmark.UnknownAuthor()}
	}
	if x.Fallback == nil || x.Converter == nil {
		return post, nil
	}

	html, err := x.withoutComments(page)
	if err != nil {
		return nil, err
	}
	if html == "" {
		return post, nil
	}
	result, err := x.Fallback.Extract(html)
	if err != nil {
		return post, nil
	}
	post.Content, err = x.render(result.ContentHTML)
	if err != nil {
		return nil, err
	}
	return post, nil
}

// withoutComments returns the page body with every comment and nested
// container removed, so a whole-page extractor only sees the opening post.
func (x *Extractor) withoutComments(page threadmark.Page) (string, error) {
	body, err := page.Query("body")
	if err != nil || body == nil {
		return "", err
	}
	own, err := body.Prune(x.Markers.Pruned())
	if err != nil {
		return "", err
	}
	inner, err := own.InnerHTML()
	if err != nil {
		return "", err
	}
	return "<html><body>" + inner + "</body></html>", nil
}

func (x *Extractor) mainBody(el threadmark.Element) (string, error) {
	container, err := el.Query(x.Markers.Content)
	if err != nil || container == nil {
		return "", err
	}
	if x.Converter == nil {
		text, err := container.Text()
		return strings.TrimSpace(text), err
	}
	html, err := container.InnerHTML()
	if err != nil {
		return "", err
	}
	return x.render(html)
}

func (x *Extractor) render(html string) (string, error) {
	md, err := x.Converter.Convert(html)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(md), nil
}

func (x *Extractor) drop(index int, reason string) {
	if x.Dropped != nil {
		x.Dropped(index, reason)
	}
}
