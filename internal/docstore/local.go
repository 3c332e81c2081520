package docstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// LocalBackend keeps documents as files under a directory, mirroring the
// hosted backends' conditional-write semantics for development without
// credentials. The version token is the SHA-256 of the stored bytes and the
// token check runs under a process-wide mutex, so only sessions inside one
// process are protected against each other.
type LocalBackend struct {
	mu  sync.Mutex
	dir string
}

// NewLocalBackend creates a backend rooted at dir, creating it if needed.
func NewLocalBackend(dir string) (*LocalBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create local store directory: %w", err)
	}
	return &LocalBackend{dir: dir}, nil
}

// Get implements Backend.
func (b *LocalBackend) Get(ctx context.Context, path string) ([]byte, VersionToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", &BackendUnavailableError{Op: "get", Err: err}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := os.ReadFile(b.filename(path))
	if os.IsNotExist(err) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", &BackendUnavailableError{Op: "get", Err: err}
	}
	return data, contentToken(data), nil
}

// Put implements Backend.
func (b *LocalBackend) Put(ctx context.Context, path string, data []byte, token VersionToken) (VersionToken, error) {
	if err := ctx.Err(); err != nil {
		return "", &BackendUnavailableError{Op: "put", Err: err}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	current, err := os.ReadFile(b.filename(path))
	if os.IsNotExist(err) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", &BackendUnavailableError{Op: "put", Err: err}
	}
	if contentToken(current) != token {
		return "", ErrVersionConflict
	}
	return b.replaceLocked(path, data, "put")
}

// Create implements Backend.
func (b *LocalBackend) Create(ctx context.Context, path string, data []byte) (VersionToken, error) {
	if err := ctx.Err(); err != nil {
		return "", &BackendUnavailableError{Op: "create", Err: err}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := os.Stat(b.filename(path)); err == nil {
		return "", ErrAlreadyExists
	} else if !os.IsNotExist(err) {
		return "", &BackendUnavailableError{Op: "create", Err: err}
	}
	return b.replaceLocked(path, data, "create")
}

// replaceLocked writes through a temp file and rename so a crash mid-write
// never leaves a half-written document behind.
func (b *LocalBackend) replaceLocked(path string, data []byte, op string) (VersionToken, error) {
	target := b.filename(path)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", &BackendUnavailableError{Op: op, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".newsroom-*")
	if err != nil {
		return "", &BackendUnavailableError{Op: op, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", &BackendUnavailableError{Op: op, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", &BackendUnavailableError{Op: op, Err: err}
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", &BackendUnavailableError{Op: op, Err: err}
	}
	return contentToken(data), nil
}

func (b *LocalBackend) filename(path string) string {
	return filepath.Join(b.dir, filepath.FromSlash(path))
}

func contentToken(data []byte) VersionToken {
	sum := sha256.Sum256(data)
	return VersionToken(hex.EncodeToString(sum[:]))
}
