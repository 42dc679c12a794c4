package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/threadmark"
)

const (
	// minSegmentLen is the noise threshold for segments of a content container.
	minSegmentLen = 10
	// minFallbackLineLen is the noise threshold for lines of the full text.
	minFallbackLineLen = 20
	// maxFallbackLines caps lines taken from the full text so a following
	// child's text is not absorbed.
	maxFallbackLines = 3
)

// chromeRes match page chrome rendered around a comment body.
var chromeRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(posted|edited|last edited)\b`),
	regexp.MustCompile(`(?i)^-?\d+\s+votes?$`),
	regexp.MustCompile(`(?i)^(reply|replies|upvote|downvote|vote|share|report|edit|delete|follow|quote|more)$`),
	regexp.MustCompile(`(?i)^(a|an|\d+)\s+(second|minute|hour|day|week|month|year)s?\s+ago$`),
	regexp.MustCompile(`(?i)^\d+(st|nd|rd|th)\s+in\s+this\s+competition$`),
	regexp.MustCompile(`^[·•|\s-]*$`),
}

// Content returns the element's own body text. Nested containers and
// nested comments are pruned first, so the result never contains a
// descendant's text. An empty result means the node carries no content.
func (x *Extractor) Content(el threadmark.Element, author threadmark.Author) (string, error) {
	own, err := el.Prune(x.Markers.Pruned())
	if err != nil {
		return "", err
	}
	return x.content(own, author)
}

func (x *Extractor) content(el threadmark.Element, author threadmark.Author) (string, error) {
	container, err := el.Query(x.Markers.Content)
	if err != nil {
		return "", err
	}
	if container == nil {
		return x.fallbackContent(el, author)
	}

	segments, err := x.segments(container)
	if err != nil {
		return "", err
	}
	var kept []string
	for _, s := range segments {
		if utf8.RuneCountInString(s) <= minSegmentLen || isChrome(s, author) {
			continue
		}
		kept = append(kept, s)
	}
	return strings.Join(kept, "\n"), nil
}

func (x *Extractor) segments(container threadmark.Element) ([]string, error) {
	var segments []string
	if x.Markers.Segment != "" {
		elems, err := container.QueryAll(x.Markers.Segment)
		if err != nil {
			return nil, err
		}
		for _, e := range elems {
			text, err := e.Text()
			if err != nil {
				return nil, err
			}
			if text = strings.TrimSpace(text); text != "" {
				segments = append(segments, text)
			}
		}
	}
	if len(segments) > 0 {
		return segments, nil
	}

	text, err := container.Text()
	if err != nil {
		return nil, err
	}
	return lines(text), nil
}

// fallbackContent filters the element's full text line by line. A chrome
// line also discards the line after it, which is usually its value.
func (x *Extractor) fallbackContent(el threadmark.Element, author threadmark.Author) (string, error) {
	text, err := el.Text()
	if err != nil {
		return "", err
	}

	var kept []string
	skipNext := false
	for _, line := range lines(text) {
		if isChrome(line, author) {
			skipNext = true
			continue
		}
		if skipNext {
			skipNext = false
			continue
		}
		if utf8.RuneCountInString(line) > minFallbackLineLen {
			kept = append(kept, line)
		}
		if len(kept) == maxFallbackLines {
			break
		}
	}
	return strings.Join(kept, "\n"), nil
}

func isChrome(line string, author threadmark.Author) bool {
	for _, re := range chromeRes {
		if re.MatchString(line) {
			return true
		}
	}
	if author.Username != "" && strings.EqualFold(line, author.Username) {
		return true
	}
	return author.Name != "" && strings.EqualFold(line, author.Name)
}

func lines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
