package client

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/exilefoundry/patchkit/internal/logger"
	"github.com/exilefoundry/patchkit/internal/protocol/patch"
	"github.com/exilefoundry/patchkit/pkg/tree"
)

// DefaultListTimeout is the read timeout for listing responses.
const DefaultListTimeout = time.Second

// ListingClient drives the folder listing exchange over the connection taken
// from an Endpoint, merging server replies into the shared directory tree.
//
// The protocol allows one outstanding request/response exchange per
// connection; a mutex serializes ListFolders calls, so the client is safe to
// share across goroutines, though the tree itself carries no consistency
// guarantee for readers concurrent with an in-progress listing.
type ListingClient struct {
	mu       sync.Mutex
	endpoint *Endpoint
	conn     net.Conn
	root     *tree.Node
	timeout  time.Duration
}

// NewListingClient takes ownership of the Endpoint's live connection and
// binds it to root, the shared tree the listings populate. A non-positive
// timeout selects DefaultListTimeout.
func NewListingClient(endpoint *Endpoint, root *tree.Node, timeout time.Duration) (*ListingClient, error) {
	conn, err := endpoint.detachConn()
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultListTimeout
	}
	return &ListingClient{
		endpoint: endpoint,
		conn:     conn,
		root:     root,
		timeout:  timeout,
	}, nil
}

// Root returns the shared tree this client populates.
func (c *ListingClient) Root() *tree.Node {
	return c.root
}

// ListFolders queries the server for the children of the named folders
// (sibling queries batch into one exchange) and replaces each folder's child
// set in the tree with the server's reply. The empty string names the root.
//
// Preconditions, all rejected as UsageError before any bytes are sent:
// folders must be free of duplicates; the root may only be queried alone;
// and every non-root folder must already be a known directory in the tree,
// because the server works strictly top-down.
//
// On any read or decode failure the whole call fails and the connection's
// framing position is undefined; the connection must not be reused without
// reconnecting. Folders whose reply was not yet decoded keep their previous
// children.
func (c *ListingClient) ListFolders(folders []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return errors.New("client: listing connection released")
	}
	if len(folders) == 0 {
		return &patch.UsageError{Message: "no folders to query"}
	}

	parents, err := c.checkQuery(folders)
	if err != nil {
		return err
	}

	request, err := patch.EncodeListRequest(folders)
	if err != nil {
		return err
	}
	if _, err := c.conn.Write(request); err != nil {
		return fmt.Errorf("send listing request: %w", err)
	}

	// The timeout bounds each socket receive, not the whole exchange: a
	// large batched response may legitimately trickle in over many reads.
	defer func() {
		_ = c.conn.SetReadDeadline(time.Time{})
	}()
	reader := patch.NewFrameReader(&deadlineReader{conn: c.conn, timeout: c.timeout})

	// One response frame per requested folder, in request order.
	for i, folder := range folders {
		listing, err := patch.DecodeFolderListing(reader)
		if err != nil {
			return fmt.Errorf("listing for folder %q: %w", folder, err)
		}

		parent := parents[i]
		children := make([]*tree.Node, 0, len(listing.Items))
		for _, item := range listing.Items {
			var record tree.Record
			if item.Directory {
				record = tree.DirectoryRecord(item.Name, tree.Sum256(item.Hash))
			} else {
				record = tree.FileRecord(item.Name, tree.Sum256(item.Hash), item.Size)
			}
			children = append(children, tree.NewNode(record, parent))
		}

		if err := parent.SetChildren(children); err != nil {
			return err
		}
		logger.Debug("%d items in folder %q", len(listing.Items), folder)
	}

	return nil
}

// deadlineReader re-arms the read deadline before every receive, so the
// timeout applies per read rather than to the response as a whole.
type deadlineReader struct {
	conn    net.Conn
	timeout time.Duration
}

func (r *deadlineReader) Read(p []byte) (int, error) {
	if err := r.conn.SetReadDeadline(time.Now().Add(r.timeout)); err != nil {
		return 0, err
	}
	return r.conn.Read(p)
}

// checkQuery validates the preconditions and resolves each folder to its
// existing tree node. No I/O happens here.
func (c *ListingClient) checkQuery(folders []string) ([]*tree.Node, error) {
	seen := make(map[string]struct{}, len(folders))
	parents := make([]*tree.Node, len(folders))

	for i, folder := range folders {
		if _, dup := seen[folder]; dup {
			return nil, &patch.UsageError{Message: fmt.Sprintf("duplicate folder %q in query", folder)}
		}
		seen[folder] = struct{}{}

		if folder == "" {
			if len(folders) > 1 {
				return nil, &patch.UsageError{Message: "root must be queried alone"}
			}
			parents[i] = c.root
			continue
		}

		node, err := c.root.Lookup(folder)
		if err != nil {
			return nil, &patch.UsageError{
				Message: fmt.Sprintf("folder %q unknown: top-down traversal violated, list its parent first", folder),
			}
		}
		if node.Record.Kind != tree.KindDirectory {
			return nil, &patch.UsageError{Message: fmt.Sprintf("%q is not a folder", folder)}
		}
		parents[i] = node
	}

	return parents, nil
}

// Release hands the connection back to the Endpoint the client was built
// from, leaving the client unusable.
func (c *ListingClient) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return
	}
	c.endpoint.attachConn(c.conn)
	c.conn = nil
}

// Close shuts down and closes the owned connection. No-op after Release.
func (c *ListingClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	conn := c.conn
	c.conn = nil
	return shutdownConn(conn)
}
