package docstore

import (
	"context"
	"errors"
)

// VersionToken identifies a specific revision of a stored document. It is
// opaque: backends mint it, the store compares it for equality and hands it
// back on writes, nobody interprets it.
type VersionToken string

// Sentinel errors every backend must return for the conditions the store
// branches on. Anything else a backend reports is wrapped in
// BackendUnavailableError.
var (
	// ErrNotFound indicates the namespace path has no stored document.
	ErrNotFound = errors.New("docstore: document not found")

	// ErrVersionConflict indicates a conditional write presented a stale
	// version token.
	ErrVersionConflict = errors.New("docstore: version token is stale")

	// ErrAlreadyExists indicates a conditional create raced another creator.
	ErrAlreadyExists = errors.New("docstore: document already exists")
)

// Backend is the remote blob storage contract: fetch-by-path with a version
// marker, a conditional write that fails distinguishably when the marker is
// stale, and a conditional create that fails distinguishably when the path
// already exists.
type Backend interface {
	// Get returns the current bytes for path and the token they were read at.
	Get(ctx context.Context, path string) ([]byte, VersionToken, error)

	// Put replaces the bytes at path if token still matches the backend's
	// current revision, returning the new token.
	Put(ctx context.Context, path string, data []byte, token VersionToken) (VersionToken, error)

	// Create stores the initial bytes at a path that must not yet exist.
	Create(ctx context.Context, path string, data []byte) (VersionToken, error)
}
