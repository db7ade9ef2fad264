package tree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/exilefoundry/patchkit/internal/protocol/patch"
)

// ErrNotFound reports that a path segment did not resolve to a child.
var ErrNotFound = errors.New("tree: path not found")

// Node is one entry of the directory tree.
//
// Children are owned top-down: a node exclusively owns its child slice, and
// the parent pointer is a non-owning back-reference, so the cycle never
// causes retention problems.
//
// A node's children are either absent-and-unknown (the folder was never
// listed) or a complete set as last reported by the server; partial
// population is never valid. Populated distinguishes a known-empty folder
// from a never-queried one.
type Node struct {
	Record Record

	// LookupHash is the 32-bit case-insensitive name hash used for fast
	// child lookup. Zero for the root.
	LookupHash uint32

	parent    *Node
	children  []*Node
	populated bool
}

// NewRoot creates the tree root for a session.
func NewRoot() *Node {
	return &Node{Record: RootRecord()}
}

// NewNode creates a detached node for record with its parent back-reference
// set. It does not attach the node to the parent's children; that happens
// through SetChildren so the complete-set invariant holds.
func NewNode(record Record, parent *Node) *Node {
	node := &Node{Record: record, parent: parent}
	if record.Kind != KindRoot {
		node.LookupHash = patch.NameHash(record.Name)
	}
	return node
}

// Parent returns the owning node, nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the current child set in server order. The slice is the
// node's own; callers must not mutate it.
func (n *Node) Children() []*Node {
	return n.children
}

// Populated reports whether this folder has been listed at least once.
// False means the children are unknown, not that the folder is empty.
func (n *Node) Populated() bool {
	return n.populated
}

// SetChildren replaces the child set with a complete, authoritative set and
// reparents every child to n. Replacement is wholesale: a re-query drops the
// previous set entirely. Only root and directory nodes may hold children.
func (n *Node) SetChildren(children []*Node) error {
	if n.Record.Kind == KindFile {
		return fmt.Errorf("tree: file node %q cannot have children", n.Record.Name)
	}
	for _, child := range children {
		child.parent = n
	}
	n.children = children
	n.populated = true
	return nil
}

// Child resolves a single name among the direct children: fast path by
// case-insensitive name hash, exact name as fallback. Returns nil if absent.
func (n *Node) Child(name string) *Node {
	want := patch.NameHash(name)
	for _, child := range n.children {
		if child.LookupHash == want && strings.EqualFold(child.Record.Name, name) {
			return child
		}
	}
	for _, child := range n.children {
		if child.Record.Name == name {
			return child
		}
	}
	return nil
}

// Lookup resolves a slash-separated path (the remote folder convention)
// from n downward. The empty path resolves to n itself.
func (n *Node) Lookup(path string) (*Node, error) {
	if path == "" {
		return n, nil
	}

	current := n
	for _, segment := range strings.Split(path, "/") {
		next := current.Child(segment)
		if next == nil {
			return nil, fmt.Errorf("%w: %q (segment %q)", ErrNotFound, path, segment)
		}
		current = next
	}
	return current, nil
}

// Path returns the slash-separated path of n from its root, empty for the
// root itself.
func (n *Node) Path() string {
	if n.parent == nil {
		return ""
	}
	var segments []string
	for cur := n; cur.parent != nil; cur = cur.parent {
		segments = append(segments, cur.Record.Name)
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, "/")
}
