package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fwojciec/threadmark"
)

// maxBadgeLen bounds the text of an element considered as a badge, so a
// container that merely mentions a badge word is not mistaken for one.
const maxBadgeLen = 32

var (
	profilePathRe = regexp.MustCompile(`^/([^/?#]+)$`)
	rankRe        = regexp.MustCompile(`(\d+(?:st|nd|rd|th))\s+in\s+this\s+Competition`)
	voteLabelRe   = regexp.MustCompile(`(-?\d+)\s+votes?`)
	signedIntRe   = regexp.MustCompile(`^-?\d+$`)
)

// Meta is the metadata of a single node, excluding its content.
type Meta struct {
	Author    threadmark.Author
	Upvotes   int
	Timestamp string

	// VotesFound is false when no vote control was recognized and Upvotes
	// defaulted to zero.
	VotesFound bool
}

// Metadata extracts author, upvotes and timestamp from an element.
// Descendant comments are pruned first so their metadata never leaks into
// the element's own.
func (x *Extractor) Metadata(el threadmark.Element) (*Meta, error) {
	own, err := el.Prune(x.Markers.Pruned())
	if err != nil {
		return nil, err
	}
	return x.metadata(own)
}

func (x *Extractor) metadata(el threadmark.Element) (*Meta, error) {
	author, err := x.author(el)
	if err != nil {
		return nil, err
	}
	upvotes, found, err := x.upvotes(el)
	if err != nil {
		return nil, err
	}
	timestamp, err := x.timestamp(el)
	if err != nil {
		return nil, err
	}
	return &Meta{
		Author:     author,
		Upvotes:    upvotes,
		VotesFound: found,
		Timestamp:  timestamp,
	}, nil
}

func (x *Extractor) author(el threadmark.Element) (threadmark.Author, error) {
	links, err := el.QueryAll(x.Markers.ProfileLink)
	if err != nil {
		return threadmark.Author{}, err
	}

	var link threadmark.Element
	var username string
	for _, l := range links {
		href, ok, err := l.Attr("href")
		if err != nil {
			return threadmark.Author{}, err
		}
		if !ok || x.excludedProfile(href) {
			continue
		}
		if m := profilePathRe.FindStringSubmatch(href); m != nil {
			link, username = l, m[1]
			break
		}
	}
	if link == nil {
		return threadmark.UnknownAuthor(), nil
	}

	name := username
	text, err := link.Text()
	if err != nil {
		return threadmark.Author{}, err
	}
	if text = strings.Join(strings.Fields(text), " "); text != "" {
		name = text
	}

	html, err := el.InnerHTML()
	if err != nil {
		return threadmark.Author{}, err
	}
	badges, err := x.badges(el)
	if err != nil {
		return threadmark.Author{}, err
	}

	return threadmark.Author{
		Name:       name,
		Username:   username,
		Rank:       rankRe.FindString(html),
		Badges:     badges,
		ProfileURL: x.Markers.ProfileURL(username),
	}, nil
}

func (x *Extractor) excludedProfile(href string) bool {
	for _, prefix := range x.Markers.ExcludedProfilePrefixes {
		if strings.HasPrefix(href, prefix) {
			return true
		}
	}
	return false
}

func (x *Extractor) badges(el threadmark.Element) ([]string, error) {
	if x.Markers.Badge == "" || len(x.Markers.BadgeVocabulary) == 0 {
		return nil, nil
	}
	words := make([]string, len(x.Markers.BadgeVocabulary))
	for i, w := range x.Markers.BadgeVocabulary {
		words[i] = regexp.QuoteMeta(w)
	}
	vocab, err := regexp.Compile(`\b(?:` + strings.Join(words, "|") + `)\b`)
	if err != nil {
		return nil, threadmark.Errorf(threadmark.EINVALID, "invalid badge vocabulary: %v", err)
	}

	spans, err := el.QueryAll(x.Markers.Badge)
	if err != nil {
		return nil, err
	}
	var badges []string
	seen := make(map[string]bool)
	for _, s := range spans {
		text, err := s.Text()
		if err != nil {
			return nil, err
		}
		text = strings.Join(strings.Fields(text), " ")
		if text == "" || len(text) > maxBadgeLen || seen[text] || !vocab.MatchString(text) {
			continue
		}
		seen[text] = true
		badges = append(badges, text)
	}
	return badges, nil
}

func (x *Extractor) upvotes(el threadmark.Element) (int, bool, error) {
	if x.Markers.VoteButton != "" {
		buttons, err := el.QueryAll(x.Markers.VoteButton)
		if err != nil {
			return 0, false, err
		}
		for _, b := range buttons {
			label, ok, err := b.Attr("aria-label")
			if err != nil {
				return 0, false, err
			}
			if !ok {
				continue
			}
			if m := voteLabelRe.FindStringSubmatch(label); m != nil {
				n, err := strconv.Atoi(m[1])
				if err == nil {
					return n, true, nil
				}
			}
		}
	}

	if x.Markers.Button != "" {
		buttons, err := el.QueryAll(x.Markers.Button)
		if err != nil {
			return 0, false, err
		}
		for _, b := range buttons {
			text, err := b.Text()
			if err != nil {
				return 0, false, err
			}
			text = strings.TrimSpace(text)
			if !signedIntRe.MatchString(text) {
				continue
			}
			n, err := strconv.Atoi(text)
			if err == nil {
				return n, true, nil
			}
		}
	}
	return 0, false, nil
}

func (x *Extractor) timestamp(el threadmark.Element) (string, error) {
	if x.Markers.Timestamp == "" {
		return "", nil
	}
	ts, err := el.Query(x.Markers.Timestamp)
	if err != nil || ts == nil {
		return "", err
	}
	if x.Markers.TimestampAttr != "" {
		v, ok, err := ts.Attr(x.Markers.TimestampAttr)
		if err != nil || ok {
			return strings.TrimSpace(v), err
		}
	}
	text, err := ts.Text()
	return strings.TrimSpace(text), err
}
