// Package manifest persists a directory tree snapshot as a YAML document:
// the serialized tree plus the game version the snapshot was taken at.
package manifest

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/exilefoundry/patchkit/pkg/tree"
)

const versionKey = "version"

// Save writes root (recursively) and version to w as one YAML document.
// The version field rides on the top-level mapping next to the root's own
// keys.
func Save(w io.Writer, root *tree.Node, version string) error {
	doc := root.ToYAML(true)
	doc.Content = append(doc.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: versionKey},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: version},
	)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("manifest: encode: %w", err)
	}
	return enc.Close()
}

// Load reads a document written by Save and rebuilds the tree and version.
func Load(r io.Reader) (*tree.Node, string, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, "", fmt.Errorf("manifest: decode: %w", err)
	}

	mapping := &doc
	if mapping.Kind == yaml.DocumentNode && len(mapping.Content) == 1 {
		mapping = mapping.Content[0]
	}

	var version string
	if mapping.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(mapping.Content); i += 2 {
			if mapping.Content[i].Value == versionKey {
				version = mapping.Content[i+1].Value
			}
		}
	}

	root, err := tree.FromYAML(mapping, nil)
	if err != nil {
		return nil, "", err
	}
	return root, version, nil
}

// SaveFile is Save to a file path.
func SaveFile(path string, root *tree.Node, version string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("manifest: create %s: %w", path, err)
	}
	if err := Save(file, root, version); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// LoadFile is Load from a file path.
func LoadFile(path string) (*tree.Node, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("manifest: open %s: %w", path, err)
	}
	defer file.Close()
	return Load(file)
}
