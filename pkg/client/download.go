package client

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"syscall"

	"github.com/exilefoundry/patchkit/internal/logger"
	"github.com/exilefoundry/patchkit/internal/protocol/patch"
	"github.com/exilefoundry/patchkit/pkg/tree"
)

// DownloadError reports a non-success HTTP status for a download URL.
type DownloadError struct {
	URL    string
	Status int
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("client: download %s: HTTP status %d", e.URL, e.Status)
}

// ContentCache is a local byte cache keyed by content hash. Satisfied by
// *cache.Store.
type ContentCache interface {
	Get(hash tree.Sum256) ([]byte, bool, error)
	Put(hash tree.Sum256, data []byte) error
}

// FetchBytes downloads the file at relPath (relative to the content root,
// appended verbatim to the base URL) and returns the raw body.
//
// The CDN URL is tried first; the primary URL is a fallback only when the
// CDN attempt fails with a connection-refused condition. Any other failure,
// including a non-200 status, is surfaced immediately without fallback.
func (e *Endpoint) FetchBytes(relPath string) ([]byte, error) {
	hosts := []string{e.CDNURL, e.PrimaryURL}

	for i, base := range hosts {
		data, err := fetchOne(base + relPath)
		if err == nil {
			return data, nil
		}
		if i < len(hosts)-1 && errors.Is(err, syscall.ECONNREFUSED) {
			logger.Warn("connection refused by %s, falling back to %s", base, hosts[i+1])
			continue
		}
		return nil, err
	}

	// Unreachable: the last attempt always returns above.
	return nil, errors.New("client: no download host available")
}

func fetchOne(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &DownloadError{URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}
	return body, nil
}

// FetchCached is FetchBytes through a local content cache: a hit for hash is
// served without touching the network, a miss is fetched and stored under
// hash. A zero hash or nil cache degrades to a plain fetch.
func (e *Endpoint) FetchCached(relPath string, hash tree.Sum256, cache ContentCache) ([]byte, error) {
	cacheable := cache != nil && hash != (tree.Sum256{})

	if cacheable {
		data, ok, err := cache.Get(hash)
		if err != nil {
			return nil, fmt.Errorf("cache lookup for %s: %w", relPath, err)
		}
		if ok {
			logger.Debug("cache hit for %s (%s)", relPath, hash)
			return data, nil
		}
	}

	data, err := e.FetchBytes(relPath)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := cache.Put(hash, data); err != nil {
			logger.Warn("cache store for %s failed: %v", relPath, err)
		}
	}
	return data, nil
}

// DownloadOptions selects where Download writes. Exactly one of Dir and File
// must be set: with Dir the file lands under Dir at its remote path, with
// File it is written to that exact location regardless of the remote name.
type DownloadOptions struct {
	Dir  string
	File string

	// Hash enables the content cache when the caller knows the entry's
	// checksum (from the listing tree).
	Hash tree.Sum256

	// Cache is consulted before the network when Hash is set.
	Cache ContentCache
}

// Download fetches relPath and writes it to the destination described by
// opts, creating any missing intermediate directories.
func (e *Endpoint) Download(relPath string, opts DownloadOptions) error {
	var writePath string
	switch {
	case opts.Dir != "" && opts.File != "":
		return &patch.UsageError{Message: "download destination: dir and file are mutually exclusive"}
	case opts.Dir != "":
		writePath = filepath.Join(opts.Dir, filepath.FromSlash(relPath))
	case opts.File != "":
		writePath = opts.File
	default:
		return &patch.UsageError{Message: "download destination: either dir or file must be set"}
	}

	data, err := e.FetchCached(relPath, opts.Hash, opts.Cache)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(writePath), 0o755); err != nil {
		return fmt.Errorf("create directories for %s: %w", writePath, err)
	}
	if err := os.WriteFile(writePath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", writePath, err)
	}

	logger.Info("downloaded %s (%d bytes) to %s", relPath, len(data), writePath)
	return nil
}
