package docstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newLocalTestBackend(t *testing.T) *LocalBackend {
	t.Helper()
	backend, err := NewLocalBackend(t.TempDir())
	require.NoError(t, err)
	return backend
}

func TestLocalBackendGetNotFound(t *testing.T) {
	backend := newLocalTestBackend(t)

	_, _, err := backend.Get(context.Background(), "data.json")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalBackendCreatePutGet(t *testing.T) {
	backend := newLocalTestBackend(t)
	ctx := context.Background()

	token, err := backend.Create(ctx, "data.json", []byte(`{"visitors":0}`))
	require.NoError(t, err)

	newToken, err := backend.Put(ctx, "data.json", []byte(`{"visitors":1}`), token)
	require.NoError(t, err)
	require.NotEqual(t, token, newToken)

	data, readToken, err := backend.Get(ctx, "data.json")
	require.NoError(t, err)
	require.Equal(t, newToken, readToken)
	require.JSONEq(t, `{"visitors":1}`, string(data))
}

func TestLocalBackendCreateExisting(t *testing.T) {
	backend := newLocalTestBackend(t)
	ctx := context.Background()

	_, err := backend.Create(ctx, "data.json", []byte(`{}`))
	require.NoError(t, err)

	_, err = backend.Create(ctx, "data.json", []byte(`{}`))
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestLocalBackendPutStaleTokenConflicts(t *testing.T) {
	backend := newLocalTestBackend(t)
	ctx := context.Background()

	stale, err := backend.Create(ctx, "data.json", []byte(`{"visitors":0}`))
	require.NoError(t, err)

	_, err = backend.Put(ctx, "data.json", []byte(`{"visitors":1}`), stale)
	require.NoError(t, err)

	_, err = backend.Put(ctx, "data.json", []byte(`{"visitors":2}`), stale)
	require.ErrorIs(t, err, ErrVersionConflict)
}

func TestLocalBackendPutMissingFile(t *testing.T) {
	backend := newLocalTestBackend(t)

	_, err := backend.Put(context.Background(), "data.json", []byte(`{}`), "whatever")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalBackendDetectsOutOfBandEdits(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewLocalBackend(dir)
	require.NoError(t, err)
	ctx := context.Background()

	token, err := backend.Create(ctx, "data.json", []byte(`{"visitors":0}`))
	require.NoError(t, err)

	// Someone edits the file directly, outside the backend.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.json"), []byte(`{"visitors":99}`), 0o644))

	_, err = backend.Put(ctx, "data.json", []byte(`{"visitors":1}`), token)
	require.ErrorIs(t, err, ErrVersionConflict)
}

func TestLocalBackendNestedNamespace(t *testing.T) {
	backend := newLocalTestBackend(t)
	ctx := context.Background()

	_, err := backend.Create(ctx, "env/prod/data.json", []byte(`{"visitors":3}`))
	require.NoError(t, err)

	data, _, err := backend.Get(ctx, "env/prod/data.json")
	require.NoError(t, err)
	require.JSONEq(t, `{"visitors":3}`, string(data))
}

func TestLocalBackendCancelledContext(t *testing.T) {
	backend := newLocalTestBackend(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := backend.Get(ctx, "data.json")
	var unavailable *BackendUnavailableError
	require.ErrorAs(t, err, &unavailable)
}
