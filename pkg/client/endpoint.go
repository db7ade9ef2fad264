// Package client talks to the patch server: the handshake that resolves the
// patching base URLs, HTTP downloads against them, and the folder listing
// exchange that fills the shared directory tree.
package client

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/exilefoundry/patchkit/internal/logger"
	"github.com/exilefoundry/patchkit/internal/protocol/patch"
)

// Endpoint holds the patching URLs resolved by the handshake and the live
// connection kept open for listing reuse.
//
// The connection is exclusively owned: it either lives here or, after a
// ListingClient is constructed, there. Whoever holds it closes it, exactly
// once.
type Endpoint struct {
	// PrimaryURL is the base patch URL for the current version; it does not
	// point at a specific load-balanced server.
	PrimaryURL string

	// CDNURL is the load-balanced patching URL including port. Preferred
	// for downloads.
	CDNURL string

	conn net.Conn
}

// Connect opens a connection to the patch server, performs the protocol 4
// handshake and retains the connection for later listing exchanges.
//
// The handshake uses the connection's default blocking behavior; any short
// read or decode failure is a HandshakeError.
func Connect(host string, port int) (*Endpoint, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial patch server %s: %w", addr, err)
	}

	if _, err := conn.Write(patch.ProtocolHello); err != nil {
		_ = conn.Close()
		return nil, &patch.HandshakeError{Err: fmt.Errorf("send hello: %w", err)}
	}

	reply, err := patch.DecodeHandshake(patch.NewFrameReader(conn))
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	logger.Debug("handshake done: primary=%s cdn=%s", reply.PrimaryURL, reply.CDNURL)

	return &Endpoint{
		PrimaryURL: reply.PrimaryURL,
		CDNURL:     reply.CDNURL,
		conn:       conn,
	}, nil
}

// Version derives the dotted game version from the trailing path segment of
// the primary URL. Pure, no I/O.
func (e *Endpoint) Version() string {
	trimmed := strings.Trim(e.PrimaryURL, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}

// detachConn moves the live connection out of the Endpoint (single-owner
// transfer to a ListingClient).
func (e *Endpoint) detachConn() (net.Conn, error) {
	if e.conn == nil {
		return nil, errors.New("client: connection already detached")
	}
	conn := e.conn
	e.conn = nil
	return conn, nil
}

// attachConn returns connection ownership to the Endpoint.
func (e *Endpoint) attachConn(conn net.Conn) {
	e.conn = conn
}

// Close shuts the held connection down in both directions and closes it.
// Shutdown failures are swallowed; the close error is surfaced. Safe to call
// when the connection has been handed to a ListingClient (no-op) and safe to
// call twice.
func (e *Endpoint) Close() error {
	if e.conn == nil {
		return nil
	}
	conn := e.conn
	e.conn = nil
	return shutdownConn(conn)
}

// shutdownConn sends FINs in both directions (best effort) then closes.
func shutdownConn(conn net.Conn) error {
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.CloseRead()
		_ = tcp.CloseWrite()
	}
	return conn.Close()
}
