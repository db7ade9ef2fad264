package patch

import (
	"errors"
	"fmt"
)

// ErrStreamTruncated reports that the TCP stream ended, or stalled past the
// receive-attempt cap, while more protocol data was expected. The connection
// must be considered desynchronized; there is no recovery short of
// reconnecting.
var ErrStreamTruncated = errors.New("patch: stream truncated while expecting more data")

// HandshakeError wraps any failure while decoding the handshake reply.
// Fatal; the handshake is never retried on the same connection.
type HandshakeError struct {
	Err error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("patch: handshake failed: %v", e.Err)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// ProtocolError reports an unexpected header or item tag in a response,
// which indicates a protocol version mismatch or a corrupted stream.
type ProtocolError struct {
	// What names the field that failed to decode.
	What string

	// Got holds the offending bytes as received.
	Got []byte
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("patch: unexpected %s: % x", e.What, e.Got)
}

// UsageError reports a caller bug (duplicate folders, root mixed with other
// folders, querying a folder before its parent was listed). Raised before
// any bytes are written to the socket.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return "patch: " + e.Message
}
