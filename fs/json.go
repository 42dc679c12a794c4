package fs

import (
	"encoding/json"

	"github.com/fwojciec/threadmark"
)

// jsonDocument is the serialized form of a discussion. TotalReplies is
// derived, not stored on the Discussion.
type jsonDocument struct {
	*threadmark.Discussion
	TotalReplies int `json:"totalReplies"`
}

// MarshalDiscussion renders a discussion as indented JSON with its full reply tree.
func MarshalDiscussion(d *threadmark.Discussion) ([]byte, error) {
	doc := jsonDocument{Discussion: d, TotalReplies: d.TotalReplies()}
	if doc.Replies == nil {
		doc.Discussion = withReplies(d)
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// withReplies returns a copy of d whose Replies encode as [] instead of null.
func withReplies(d *threadmark.Discussion) *threadmark.Discussion {
	c := *d
	c.Replies = []*threadmark.Reply{}
	return &c
}
