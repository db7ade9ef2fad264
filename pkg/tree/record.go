// Package tree models the remote file hierarchy reported by the patch
// server: a mutable tree of nodes with parent back-references and lazily
// populated children, plus ordered-mapping (de)serialization for persisting
// a snapshot.
package tree

import (
	"encoding/hex"
	"fmt"
)

// Sum256 is a server-provided 256-bit content checksum, big-endian. It is
// treated as an opaque integer and never reinterpreted: a file's own SHA-256
// for files, the aggregate over children for directories.
type Sum256 [32]byte

// Hex returns the fixed 64-digit lowercase hex form.
func (s Sum256) Hex() string {
	return hex.EncodeToString(s[:])
}

func (s Sum256) String() string {
	return s.Hex()
}

// ParseSum256 parses the 64-digit hex form produced by Hex.
func ParseSum256(text string) (Sum256, error) {
	var sum Sum256
	if len(text) != hex.EncodedLen(len(sum)) {
		return sum, fmt.Errorf("tree: content hash must be %d hex digits, got %d", hex.EncodedLen(len(sum)), len(text))
	}
	raw, err := hex.DecodeString(text)
	if err != nil {
		return sum, fmt.Errorf("tree: parse content hash: %w", err)
	}
	copy(sum[:], raw)
	return sum, nil
}

// Kind discriminates the record variants.
type Kind int

const (
	// KindRoot is the synthetic tree root: no name, no hash.
	KindRoot Kind = iota

	// KindDirectory is a folder entry with a name and an aggregate hash.
	KindDirectory

	// KindFile is a terminal file entry with name, hash and size.
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindDirectory:
		return "folder"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// Record is the identity a node carries. Which fields are meaningful depends
// on Kind: Root has none, Directory has Name and Hash, File additionally has
// Size.
type Record struct {
	Kind Kind
	Name string
	Hash Sum256

	// Size is the file size in bytes. Zero for directories and root.
	Size uint32
}

// RootRecord returns the record for the synthetic tree root.
func RootRecord() Record {
	return Record{Kind: KindRoot}
}

// DirectoryRecord returns a folder record.
func DirectoryRecord(name string, hash Sum256) Record {
	return Record{Kind: KindDirectory, Name: name, Hash: hash}
}

// FileRecord returns a file record.
func FileRecord(name string, hash Sum256, size uint32) Record {
	return Record{Kind: KindFile, Name: name, Hash: hash, Size: size}
}
