package tree

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// rootName is the synthetic name the root serializes under; real entries can
// never carry it because the server's names are single path segments of a
// fixed game archive.
const rootName = "ROOT"

// TypeMismatchError reports that a deserialization input was not an ordered
// mapping node.
type TypeMismatchError struct {
	Got yaml.Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("tree: mapping node required, got yaml kind %d", e.Got)
}

// UnknownTypeError reports a type field that is neither "file" nor "folder".
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("tree: unknown entry type %q", e.Type)
}

// ToYAML serializes the node as an ordered mapping with keys name, hash
// (64 hex digits) and either type: file plus size, or type: folder. The root
// serializes as name: ROOT with no hash or type.
//
// When recurse is set, a populated folder additionally carries its children
// as a sequence (empty for a known-empty folder). An unqueried folder omits
// the key, preserving the unknown/empty distinction across a round trip.
func (n *Node) ToYAML(recurse bool) *yaml.Node {
	doc := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	if n.Record.Kind == KindRoot {
		appendScalar(doc, "name", rootName)
	} else {
		appendScalar(doc, "name", n.Record.Name)
		appendScalar(doc, "hash", n.Record.Hash.Hex())
		switch n.Record.Kind {
		case KindDirectory:
			appendScalar(doc, "type", "folder")
		case KindFile:
			appendScalar(doc, "type", "file")
			appendInt(doc, "size", uint64(n.Record.Size))
		}
	}

	if recurse && n.populated && n.Record.Kind != KindFile {
		children := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, child := range n.children {
			children.Content = append(children.Content, child.ToYAML(true))
		}
		doc.Content = append(doc.Content, scalar("children"), children)
	}

	return doc
}

// FromYAML rebuilds a node (and, recursively, its children) from an ordered
// mapping produced by ToYAML. parent becomes the back-reference of the
// returned node; pass nil for a root or detached subtree.
//
// Fails with TypeMismatchError if the input is not a mapping and with
// UnknownTypeError if the type field is neither file nor folder. Lookup
// hashes are recomputed from the names, so path lookup works identically on
// a loaded tree.
func FromYAML(doc *yaml.Node, parent *Node) (*Node, error) {
	if doc != nil && doc.Kind == yaml.DocumentNode && len(doc.Content) == 1 {
		doc = doc.Content[0]
	}
	if doc == nil || doc.Kind != yaml.MappingNode {
		var got yaml.Kind
		if doc != nil {
			got = doc.Kind
		}
		return nil, &TypeMismatchError{Got: got}
	}

	fields := mappingFields(doc)

	nameNode, ok := fields["name"]
	if !ok {
		return nil, fmt.Errorf("tree: mapping has no name field")
	}
	name := nameNode.Value

	var record Record
	if name == rootName {
		record = RootRecord()
	} else {
		typeNode, ok := fields["type"]
		if !ok {
			return nil, fmt.Errorf("tree: entry %q has no type field", name)
		}

		hashNode, ok := fields["hash"]
		if !ok {
			return nil, fmt.Errorf("tree: entry %q has no hash field", name)
		}
		hash, err := ParseSum256(hashNode.Value)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", name, err)
		}

		switch typeNode.Value {
		case "file":
			sizeNode, ok := fields["size"]
			if !ok {
				return nil, fmt.Errorf("tree: file %q has no size field", name)
			}
			size, err := strconv.ParseUint(sizeNode.Value, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("tree: file %q size: %w", name, err)
			}
			record = FileRecord(name, hash, uint32(size))
		case "folder":
			record = DirectoryRecord(name, hash)
		default:
			return nil, &UnknownTypeError{Type: typeNode.Value}
		}
	}

	node := NewNode(record, parent)

	if childrenNode, ok := fields["children"]; ok {
		if childrenNode.Kind != yaml.SequenceNode {
			return nil, &TypeMismatchError{Got: childrenNode.Kind}
		}
		children := make([]*Node, 0, len(childrenNode.Content))
		for _, childDoc := range childrenNode.Content {
			child, err := FromYAML(childDoc, node)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		if err := node.SetChildren(children); err != nil {
			return nil, err
		}
	}

	return node, nil
}

func mappingFields(doc *yaml.Node) map[string]*yaml.Node {
	fields := make(map[string]*yaml.Node, len(doc.Content)/2)
	for i := 0; i+1 < len(doc.Content); i += 2 {
		fields[doc.Content[i].Value] = doc.Content[i+1]
	}
	return fields
}

func scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func appendScalar(doc *yaml.Node, key, value string) {
	doc.Content = append(doc.Content, scalar(key), scalar(value))
}

func appendInt(doc *yaml.Node, key string, value uint64) {
	doc.Content = append(doc.Content,
		scalar(key),
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatUint(value, 10)},
	)
}
