package client

import (
	"bytes"
	"io"
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exilefoundry/patchkit/internal/protocol/patch"
)

// ============================================================================
// Test Helper Functions
// ============================================================================

func wireVarchar(t *testing.T, s string) []byte {
	t.Helper()
	payload, err := patch.EncodeUTF16(s)
	require.NoError(t, err)
	return append([]byte{byte(len(payload) / 2)}, payload...)
}

func handshakeReply(t *testing.T, primary, cdn string) []byte {
	t.Helper()
	var reply bytes.Buffer
	reply.WriteByte(0x01)
	reply.Write(make([]byte, 33))
	reply.Write(wireVarchar(t, primary))
	reply.WriteByte(0x00)
	reply.Write(wireVarchar(t, cdn))
	return reply.Bytes()
}

// startFakePatchServer accepts a single connection, verifies the protocol
// hello, writes the handshake reply and then hands the connection to serve
// (which may be nil).
func startFakePatchServer(t *testing.T, primary, cdn string, serve func(net.Conn)) (string, int) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		hello := make([]byte, len(patch.ProtocolHello))
		if _, err := io.ReadFull(conn, hello); err != nil {
			return
		}
		if !bytes.Equal(hello, patch.ProtocolHello) {
			return
		}
		if _, err := conn.Write(handshakeReply(t, primary, cdn)); err != nil {
			return
		}
		if serve != nil {
			serve(conn)
		}
	}()

	host, portStr, err := net.SplitHostPort(listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

// ============================================================================
// Connect Tests
// ============================================================================

func TestConnect(t *testing.T) {
	t.Run("ResolvesBothURLs", func(t *testing.T) {
		host, port := startFakePatchServer(t,
			"http://patch.example.com/3.21.1.4/",
			"http://cdn.example.com:8080/3.21.1.4/",
			nil)

		endpoint, err := Connect(host, port)
		require.NoError(t, err)
		defer endpoint.Close()

		assert.Equal(t, "http://patch.example.com/3.21.1.4/", endpoint.PrimaryURL)
		assert.Equal(t, "http://cdn.example.com:8080/3.21.1.4/", endpoint.CDNURL)
	})

	t.Run("ShortReplyIsHandshakeError", func(t *testing.T) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		t.Cleanup(func() { _ = listener.Close() })

		go func() {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			hello := make([]byte, 2)
			_, _ = io.ReadFull(conn, hello)
			_, _ = conn.Write([]byte{0x01, 0x00})
			_ = conn.Close()
		}()

		host, portStr, err := net.SplitHostPort(listener.Addr().String())
		require.NoError(t, err)
		port, err := strconv.Atoi(portStr)
		require.NoError(t, err)

		_, err = Connect(host, port)
		require.Error(t, err)

		var handshakeErr *patch.HandshakeError
		assert.ErrorAs(t, err, &handshakeErr)
	})

	t.Run("DialFailureSurfaces", func(t *testing.T) {
		// Grab a free port and close it again so nothing listens there.
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		host, portStr, err := net.SplitHostPort(listener.Addr().String())
		require.NoError(t, err)
		port, err := strconv.Atoi(portStr)
		require.NoError(t, err)
		require.NoError(t, listener.Close())

		_, err = Connect(host, port)
		require.Error(t, err)
	})
}

func TestVersion(t *testing.T) {
	t.Run("TrailingSegmentOfPrimaryURL", func(t *testing.T) {
		endpoint := &Endpoint{PrimaryURL: "http://patch.example.com/3.21.1.4/"}
		assert.Equal(t, "3.21.1.4", endpoint.Version())
	})

	t.Run("NoTrailingSlash", func(t *testing.T) {
		endpoint := &Endpoint{PrimaryURL: "http://patch.example.com/3.21.1.4"}
		assert.Equal(t, "3.21.1.4", endpoint.Version())
	})
}

func TestEndpointClose(t *testing.T) {
	t.Run("CloseTwiceIsSafe", func(t *testing.T) {
		host, port := startFakePatchServer(t, "http://p/1.0.0.0/", "http://c/1.0.0.0/", nil)

		endpoint, err := Connect(host, port)
		require.NoError(t, err)

		require.NoError(t, endpoint.Close())
		require.NoError(t, endpoint.Close())
	})

	t.Run("CloseAfterDetachIsNoOp", func(t *testing.T) {
		host, port := startFakePatchServer(t, "http://p/1.0.0.0/", "http://c/1.0.0.0/", nil)

		endpoint, err := Connect(host, port)
		require.NoError(t, err)

		listing, err := NewListingClient(endpoint, nil, 0)
		require.NoError(t, err)
		defer listing.Close()

		require.NoError(t, endpoint.Close())
	})

	t.Run("DetachTwiceFails", func(t *testing.T) {
		host, port := startFakePatchServer(t, "http://p/1.0.0.0/", "http://c/1.0.0.0/", nil)

		endpoint, err := Connect(host, port)
		require.NoError(t, err)

		listing, err := NewListingClient(endpoint, nil, 0)
		require.NoError(t, err)
		defer listing.Close()

		_, err = NewListingClient(endpoint, nil, 0)
		require.Error(t, err)
	})

	t.Run("ReleaseReturnsOwnership", func(t *testing.T) {
		host, port := startFakePatchServer(t, "http://p/1.0.0.0/", "http://c/1.0.0.0/", nil)

		endpoint, err := Connect(host, port)
		require.NoError(t, err)

		listing, err := NewListingClient(endpoint, nil, 0)
		require.NoError(t, err)
		listing.Release()

		second, err := NewListingClient(endpoint, nil, 0)
		require.NoError(t, err)
		require.NoError(t, second.Close())
	})
}
