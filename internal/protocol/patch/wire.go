package patch

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// EncodeUTF16 encodes s as UTF-16LE without a byte order mark.
func EncodeUTF16(s string) ([]byte, error) {
	return utf16le.NewEncoder().Bytes([]byte(s))
}

// DecodeUTF16 decodes UTF-16LE bytes into a string.
func DecodeUTF16(b []byte) (string, error) {
	out, err := utf16le.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode utf-16: %w", err)
	}
	return string(out), nil
}

// ReadVarchar reads a length-prefixed UTF-16LE string: one byte holding the
// UTF-16 code-unit count, then twice that many bytes of payload. A zero
// length (root) yields the empty string.
func ReadVarchar(r *FrameReader) (string, error) {
	lengthByte, err := r.Next(1)
	if err != nil {
		return "", fmt.Errorf("read string length: %w", err)
	}

	units := int(lengthByte[0])
	if units == 0 {
		return "", nil
	}

	payload, err := r.Next(units * 2)
	if err != nil {
		return "", fmt.Errorf("read string payload: %w", err)
	}

	return DecodeUTF16(payload)
}

// HandshakeReply carries the base URLs resolved by the handshake.
type HandshakeReply struct {
	// PrimaryURL is the base patch URL for the current version. It does not
	// point at a specific load-balanced server.
	PrimaryURL string

	// CDNURL is the load-balanced patching URL, including port.
	CDNURL string
}

// DecodeHandshake decodes the server's reply to the protocol hello:
// 1 reserved byte, 33 reserved bytes, varchar primary URL, 1 reserved byte,
// varchar CDN URL. Any short read or decode failure is a HandshakeError.
func DecodeHandshake(r *FrameReader) (*HandshakeReply, error) {
	reply, err := decodeHandshake(r)
	if err != nil {
		return nil, &HandshakeError{Err: err}
	}
	return reply, nil
}

func decodeHandshake(r *FrameReader) (*HandshakeReply, error) {
	if _, err := r.Next(handshakeReservedLead + handshakeReservedBlob); err != nil {
		return nil, fmt.Errorf("read reserved bytes: %w", err)
	}

	primary, err := ReadVarchar(r)
	if err != nil {
		return nil, fmt.Errorf("read primary url: %w", err)
	}

	if _, err := r.Next(handshakeReservedMid); err != nil {
		return nil, fmt.Errorf("read reserved byte: %w", err)
	}

	cdn, err := ReadVarchar(r)
	if err != nil {
		return nil, fmt.Errorf("read cdn url: %w", err)
	}

	return &HandshakeReply{PrimaryURL: primary, CDNURL: cdn}, nil
}

// EncodeListRequest builds the listing request for the given folders: one
// sub-frame per folder, 0x03 0x00 + varchar name (length 0 for root),
// concatenated so they go out in a single write.
//
// Folder validity (no duplicates, root alone, top-down order) is the
// caller's concern; this only encodes.
func EncodeListRequest(folders []string) ([]byte, error) {
	var frame bytes.Buffer

	for _, folder := range folders {
		frame.Write(ListRequestHeader)

		if folder == "" {
			frame.WriteByte(0)
			continue
		}

		payload, err := EncodeUTF16(folder)
		if err != nil {
			return nil, fmt.Errorf("encode folder name %q: %w", folder, err)
		}
		units := len(payload) / 2
		if units > 0xff {
			return nil, fmt.Errorf("folder name %q exceeds %d UTF-16 units", folder, 0xff)
		}

		frame.WriteByte(byte(units))
		frame.Write(payload)
	}

	return frame.Bytes(), nil
}

// Item is one entry of a folder listing.
type Item struct {
	// Directory is true for folder entries, false for files.
	Directory bool

	Name string

	// Size is the file size in bytes; zero for directories.
	Size uint32

	// Hash is the SHA-256 content checksum: the file's own for files, the
	// aggregate over children for directories. Big-endian as received.
	Hash [HashSize]byte
}

// FolderListing is one decoded per-folder response frame.
type FolderListing struct {
	// Name is the folder name as echoed by the server (empty for root).
	Name string

	Items []Item
}

// DecodeFolderListing decodes one per-folder response frame:
// header 0x04 0x00, varchar folder name, uint32 big-endian item count, then
// per item a 2-byte type tag, varchar name, uint32 big-endian size and a
// 32-byte big-endian content hash. A wrong header or tag is a ProtocolError.
func DecodeFolderListing(r *FrameReader) (*FolderListing, error) {
	header, err := r.Next(len(ListResponseHeader))
	if err != nil {
		return nil, fmt.Errorf("read response header: %w", err)
	}
	if !bytes.Equal(header, ListResponseHeader) {
		return nil, &ProtocolError{What: "response header", Got: header}
	}

	name, err := ReadVarchar(r)
	if err != nil {
		return nil, fmt.Errorf("read folder name: %w", err)
	}

	countBytes, err := r.Next(4)
	if err != nil {
		return nil, fmt.Errorf("read item count: %w", err)
	}
	count := binary.BigEndian.Uint32(countBytes)

	listing := &FolderListing{Name: name}

	for i := uint32(0); i < count; i++ {
		item, err := decodeItem(r)
		if err != nil {
			return nil, fmt.Errorf("item %d of folder %q: %w", i, name, err)
		}
		listing.Items = append(listing.Items, *item)
	}

	return listing, nil
}

func decodeItem(r *FrameReader) (*Item, error) {
	tagBytes, err := r.Next(2)
	if err != nil {
		return nil, fmt.Errorf("read item tag: %w", err)
	}

	item := &Item{}
	switch binary.BigEndian.Uint16(tagBytes) {
	case ItemTagFile:
		item.Directory = false
	case ItemTagDirectory:
		item.Directory = true
	default:
		return nil, &ProtocolError{What: "item type tag", Got: tagBytes}
	}

	item.Name, err = ReadVarchar(r)
	if err != nil {
		return nil, fmt.Errorf("read item name: %w", err)
	}

	sizeBytes, err := r.Next(4)
	if err != nil {
		return nil, fmt.Errorf("read item size: %w", err)
	}
	item.Size = binary.BigEndian.Uint32(sizeBytes)

	hashBytes, err := r.Next(HashSize)
	if err != nil {
		return nil, fmt.Errorf("read item hash: %w", err)
	}
	copy(item.Hash[:], hashBytes)

	return item, nil
}
