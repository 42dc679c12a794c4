package threadmark

import (
	"strings"
	"time"
)

// Author identifies who wrote a post or reply.
// Username is the identity key; ProfileURL is derived from it.
type Author struct {
	Name       string   `json:"name"`
	Username   string   `json:"username"`
	Rank       string   `json:"rank,omitempty"`
	Badges     []string `json:"badges,omitempty"`
	ProfileURL string   `json:"profileUrl,omitempty"`
}

// UnknownUsername is the handle assigned when no profile link resolves.
const UnknownUsername = "unknown"

// UnknownAuthor returns the placeholder author for nodes without a
// resolvable profile link.
func UnknownAuthor() Author {
	return Author{Name: "Unknown", Username: UnknownUsername}
}

// IsUnknown reports whether the author could not be resolved.
func (a Author) IsUnknown() bool {
	return a.Username == "" || a.Username == UnknownUsername
}

// Reply is one comment in a discussion together with its nested replies.
type Reply struct {
	// Number is the dot-separated path of the reply ("2", "2.1", "2.1.3").
	Number    string   `json:"number"`
	Content   string   `json:"content"`
	Author    Author   `json:"author"`
	Upvotes   int      `json:"upvotes"`
	Timestamp string   `json:"timestamp,omitempty"`
	Depth     int      `json:"depth"`
	Replies   []*Reply `json:"replies,omitempty"`
}

// Discussion is one extracted thread: a main post and its reply tree.
type Discussion struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	MainContent string    `json:"mainContent"`
	MainAuthor  Author    `json:"mainAuthor"`
	MainUpvotes int       `json:"mainUpvotes"`
	Replies     []*Reply  `json:"replies"`
	ExtractedAt time.Time `json:"extractedAt"`
}

// Validate returns an error if the discussion contains invalid fields.
func (d *Discussion) Validate() error {
	if d.URL == "" {
		return Errorf(EINVALID, "discussion URL required")
	}
	return nil
}

// TotalReplies returns the number of replies in the whole tree.
func (d *Discussion) TotalReplies() int {
	return CountReplies(d.Replies)
}

// NestedReplies returns the number of replies below the top level.
func (d *Discussion) NestedReplies() int {
	return d.TotalReplies() - len(d.Replies)
}

// Text returns the main post and every reply body in tree order, one per
// paragraph. It identifies the extracted content independently of the
// extraction time.
func (d *Discussion) Text() string {
	parts := []string{d.MainContent}
	WalkReplies(d.Replies, func(r *Reply) {
		parts = append(parts, r.Content)
	})
	return strings.Join(parts, "\n\n")
}
