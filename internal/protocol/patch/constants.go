// Package patch implements the wire format of the patch server protocol
// (version 4): the handshake reply, the folder listing request/response
// frames, and the exact-length stream reader they are decoded with.
//
// All strings on the wire are UTF-16LE with a 1-byte code-unit count prefix.
// Integers are big-endian except where a constant below says otherwise.
package patch

// DefaultHost and DefaultPort locate the master patch server.
const (
	DefaultHost = "pathofexile.com"
	DefaultPort = 12995
)

// ProtocolHello is the client hello: 0x01 followed by the protocol version.
// Only version 4 is understood; version 5 changed datatypes and encoding.
var ProtocolHello = []byte{0x01, 0x04}

// Frame headers.
var (
	// ListRequestHeader prefixes each folder sub-frame in a listing request.
	ListRequestHeader = []byte{0x03, 0x00}

	// ListResponseHeader starts each per-folder listing response frame.
	ListResponseHeader = []byte{0x04, 0x00}
)

// Item type tags inside a listing response frame.
const (
	ItemTagFile      uint16 = 0x0000
	ItemTagDirectory uint16 = 0x0100
)

// Handshake reply layout: reserved bytes around the two varchar URLs.
const (
	handshakeReservedLead = 1
	handshakeReservedBlob = 33
	handshakeReservedMid  = 1
)

// recvChunkSize is how many bytes a FrameReader pulls from the stream per
// top-up. Kept below typical MTU so one receive maps to at most one segment.
const recvChunkSize = 2048

// maxRecvAttempts caps top-ups per exact-length read. No single protocol
// value straddles more than one extra receive; needing a third means the
// stream is desynchronized.
const maxRecvAttempts = 2

// HashSize is the size of the content checksum carried per item (SHA-256).
const HashSize = 32
