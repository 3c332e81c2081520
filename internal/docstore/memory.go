package docstore

import (
	"context"
	"strconv"
	"sync"
)

// MemoryBackend is an in-process Backend with monotonic version tokens. It
// backs the test suite and the "memory" backend mode for throwaway local
// runs; nothing survives a restart.
type MemoryBackend struct {
	mu      sync.Mutex
	objects map[string]memoryObject
	seq     uint64

	// beforePut runs outside the conditional-write check, letting tests
	// interleave a competing writer between a reader's Get and its Put.
	beforePut func(path string)
}

type memoryObject struct {
	data  []byte
	token VersionToken
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{objects: make(map[string]memoryObject)}
}

// Get implements Backend.
func (b *MemoryBackend) Get(ctx context.Context, path string) ([]byte, VersionToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", &BackendUnavailableError{Op: "get", Err: err}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	obj, ok := b.objects[path]
	if !ok {
		return nil, "", ErrNotFound
	}
	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	return data, obj.token, nil
}

// Put implements Backend.
func (b *MemoryBackend) Put(ctx context.Context, path string, data []byte, token VersionToken) (VersionToken, error) {
	if err := ctx.Err(); err != nil {
		return "", &BackendUnavailableError{Op: "put", Err: err}
	}
	if hook := b.beforePut; hook != nil {
		hook(path)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	obj, ok := b.objects[path]
	if !ok {
		return "", ErrNotFound
	}
	if obj.token != token {
		return "", ErrVersionConflict
	}
	return b.storeLocked(path, data), nil
}

// Create implements Backend.
func (b *MemoryBackend) Create(ctx context.Context, path string, data []byte) (VersionToken, error) {
	if err := ctx.Err(); err != nil {
		return "", &BackendUnavailableError{Op: "create", Err: err}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.objects[path]; ok {
		return "", ErrAlreadyExists
	}
	return b.storeLocked(path, data), nil
}

func (b *MemoryBackend) storeLocked(path string, data []byte) VersionToken {
	b.seq++
	stored := make([]byte, len(data))
	copy(stored, data)
	token := VersionToken("rev-" + strconv.FormatUint(b.seq, 10))
	b.objects[path] = memoryObject{data: stored, token: token}
	return token
}
