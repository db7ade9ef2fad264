package tree

import "iter"

// Walk returns a lazy pre-order traversal of the subtree rooted at n as
// (node, depth) pairs, n itself at depth 0. A node is always produced before
// any of its descendants and traversal never descends past maxDepth; a
// negative maxDepth means unbounded.
//
// The sequence is meant for a single ranging; breaking out of the range
// abandons the rest of the traversal.
func (n *Node) Walk(maxDepth int) iter.Seq2[*Node, int] {
	return func(yield func(*Node, int) bool) {
		n.walk(0, maxDepth, yield)
	}
}

func (n *Node) walk(depth, maxDepth int, yield func(*Node, int) bool) bool {
	if maxDepth >= 0 && depth > maxDepth {
		return true
	}
	if !yield(n, depth) {
		return false
	}
	if maxDepth >= 0 && depth+1 > maxDepth {
		return true
	}
	for _, child := range n.children {
		if !child.walk(depth+1, maxDepth, yield) {
			return false
		}
	}
	return true
}
