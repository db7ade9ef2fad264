package patch

import (
	"fmt"
	"io"
)

// FrameReader serves exact-length reads against a rolling buffer, topping up
// from the underlying stream when the buffer runs short.
//
// One FrameReader belongs to one listing exchange: it owns the bytes it has
// pulled off the stream and must not be shared across concurrent operations.
// Read deadlines are the owner's responsibility (for example a wrapper that
// arms the net.Conn deadline per receive); the reader itself only sees an
// io.Reader.
type FrameReader struct {
	src io.Reader
	buf []byte
	pos int
}

// NewFrameReader returns a reader with an empty buffer; the first Next call
// pulls from src.
func NewFrameReader(src io.Reader) *FrameReader {
	return &FrameReader{src: src}
}

// Next returns exactly n bytes, or fails.
//
// The request is satisfied from the buffer when possible; otherwise one
// recvChunkSize chunk is pulled from the stream and the read is retried.
// Top-ups are capped at maxRecvAttempts: protocol values never straddle more
// than one extra receive, so needing a third means the framing position is
// lost and the call fails fast with ErrStreamTruncated instead of looping.
//
// Returned bytes are consumed: they are dropped from future reads.
func (r *FrameReader) Next(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("patch: negative read length %d", n)
	}

	for attempts := 0; ; attempts++ {
		if len(r.buf)-r.pos >= n {
			out := r.buf[r.pos : r.pos+n : r.pos+n]
			r.pos += n
			return out, nil
		}

		if attempts >= maxRecvAttempts {
			return nil, fmt.Errorf("%w: %d attempts to receive %d bytes", ErrStreamTruncated, attempts, n)
		}

		chunk := make([]byte, recvChunkSize)
		read, err := r.src.Read(chunk)
		if read > 0 {
			r.buf = append(r.buf, chunk[:read]...)
			continue
		}
		if err == nil {
			err = io.ErrNoProgress
		}
		return nil, fmt.Errorf("%w: %v", ErrStreamTruncated, err)
	}
}

// Buffered reports how many received bytes are still unconsumed.
func (r *FrameReader) Buffered() int {
	return len(r.buf) - r.pos
}
