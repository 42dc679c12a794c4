package extract

import "github.com/fwojciec/threadmark"

// ParentStrategy selects how a nested node's parent is resolved.
type ParentStrategy int

const (
	// ParentByLevel attaches a node to the nearest preceding node with a
	// smaller nesting level. In a well-formed page that node is exactly
	// one level up, so arbitrarily deep threads are preserved.
	ParentByLevel ParentStrategy = iota

	// ParentNearestTopLevel attaches every nested node to the nearest
	// preceding top-level node, flattening threads to two levels.
	ParentNearestTopLevel
)

// Classify resolves the parent of every node from its nesting level and
// document position. Nodes must be in document order. A nested node with no
// eligible predecessor is promoted to top level.
func Classify(nodes []threadmark.ClassifiedReply, strategy ParentStrategy) []threadmark.ClassifiedReply {
	out := make([]threadmark.ClassifiedReply, len(nodes))
	copy(out, nodes)
	for i := range out {
		out[i].Parent = -1
		if out[i].Level <= 0 {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if eligibleParent(out[j], out[i], strategy) {
				out[i].Parent = j
				break
			}
		}
	}
	return out
}

func eligibleParent(candidate, node threadmark.ClassifiedReply, strategy ParentStrategy) bool {
	if strategy == ParentNearestTopLevel {
		return candidate.Level <= 0
	}
	return candidate.Level < node.Level
}
