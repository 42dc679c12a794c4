package threadmark

import (
	"strconv"
	"strings"
)

// NumberSeparator joins path segments of a reply number.
const NumberSeparator = "."

// ClassifiedReply is a reply in document order whose parent has been resolved.
type ClassifiedReply struct {
	Author    Author
	Content   string
	Upvotes   int
	Timestamp string

	// Level is the nesting level observed on the page (0 = top level).
	Level int

	// Parent is the index of the parent within the same slice, or -1 for
	// top-level replies. A parent always precedes its children.
	Parent int
}

// BuildReplyTree assembles classified replies into an ordered tree of
// top-level replies and assigns path numbers.
//
// Children keep document order within their parent. Depth is derived from
// the parent chain, not from the observed Level.
func BuildReplyTree(flat []ClassifiedReply) ([]*Reply, error) {
	replies := make([]*Reply, len(flat))
	for i, c := range flat {
		if c.Parent >= i || c.Parent < -1 {
			return nil, Errorf(EINVALID, "reply %d has invalid parent %d", i, c.Parent)
		}
		replies[i] = &Reply{
			Content:   c.Content,
			Author:    c.Author,
			Upvotes:   c.Upvotes,
			Timestamp: c.Timestamp,
		}
	}

	var top []*Reply
	for i, c := range flat {
		if c.Parent < 0 {
			top = append(top, replies[i])
			continue
		}
		parent := replies[c.Parent]
		parent.Replies = append(parent.Replies, replies[i])
		replies[i].Depth = parent.Depth + 1
	}

	NumberReplies(top)
	return top, nil
}

// NumberReplies assigns path numbers to a reply tree: top-level replies are
// numbered 1..N and each child extends its parent's number.
func NumberReplies(replies []*Reply) {
	numberReplies(replies, "")
}

func numberReplies(replies []*Reply, prefix string) {
	for i, r := range replies {
		n := strconv.Itoa(i + 1)
		if prefix != "" {
			n = prefix + NumberSeparator + n
		}
		r.Number = n
		numberReplies(r.Replies, n)
	}
}

// CountReplies returns the number of replies in the tree, including all
// descendants.
func CountReplies(replies []*Reply) int {
	n := 0
	for _, r := range replies {
		n += 1 + CountReplies(r.Replies)
	}
	return n
}

// WalkReplies calls fn for every reply in depth-first document order.
func WalkReplies(replies []*Reply, fn func(*Reply)) {
	for _, r := range replies {
		fn(r)
		WalkReplies(r.Replies, fn)
	}
}

// VerifyReplyTree checks the structural invariants of a reply tree:
// depth increases by one per level, each child's number extends its
// parent's, and no reply's content contains a descendant's content.
func VerifyReplyTree(replies []*Reply) error {
	for _, r := range replies {
		if r.Depth != 0 {
			return Errorf(EINVALID, "top-level reply %s has depth %d", r.Number, r.Depth)
		}
	}
	return verifyChildren(replies)
}

func verifyChildren(replies []*Reply) error {
	for _, parent := range replies {
		for i, child := range parent.Replies {
			if child.Depth != parent.Depth+1 {
				return Errorf(EINVALID, "reply %s has depth %d under parent depth %d", child.Number, child.Depth, parent.Depth)
			}
			want := parent.Number + NumberSeparator + strconv.Itoa(i+1)
			if child.Number != want {
				return Errorf(EINVALID, "reply number %q, want %q", child.Number, want)
			}
		}
		var dup *Reply
		WalkReplies(parent.Replies, func(d *Reply) {
			if dup == nil && d.Content != "" && strings.Contains(parent.Content, d.Content) {
				dup = d
			}
		})
		if dup != nil {
			return Errorf(EINVALID, "reply %s contains content of descendant %s", parent.Number, dup.Number)
		}
		if err := verifyChildren(parent.Replies); err != nil {
			return err
		}
	}
	return nil
}
