package docstore

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

const testNamespace = "data.json"

func newTestStore(t *testing.T) (*Store, *MemoryBackend) {
	t.Helper()
	backend := NewMemoryBackend()
	store := New(backend, slog.New(slog.DiscardHandler), Config{})
	return store, backend
}

func addFeedMutator(url string) Mutator {
	return func(doc Document) (Document, error) {
		if doc.HasFeed(url) {
			return doc, nil
		}
		doc.Feeds = append(doc.Feeds, url)
		return doc, nil
	}
}

func incrementMutator() Mutator {
	return func(doc Document) (Document, error) {
		doc.Visitors++
		return doc, nil
	}
}

func TestLoadBootstrapsMissingNamespace(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()

	def := NewDocument()
	def.Feeds = append(def.Feeds, "https://example.com/rss.xml")

	doc, token, err := store.Load(ctx, testNamespace, def)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, def, doc)

	// The default must actually be stored, not just returned.
	data, storedToken, err := backend.Get(ctx, testNamespace)
	require.NoError(t, err)
	require.Equal(t, token, storedToken)

	stored, err := JSONCodec{}.Decode(data)
	require.NoError(t, err)
	require.Equal(t, def, stored)
}

func TestLoadRacingBootstrapReadsWinner(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()

	winner := NewDocument()
	winner.Visitors = 9
	data, err := JSONCodec{}.Encode(winner)
	require.NoError(t, err)
	_, err = backend.Create(ctx, testNamespace, data)
	require.NoError(t, err)

	// A loser whose Get raced ahead of the winner's Create would call
	// Create and hit ErrAlreadyExists; Load has to come back with the
	// winner's state, not the loser's default.
	doc, _, err := store.bootstrap(ctx, testNamespace, NewDocument())
	require.NoError(t, err)
	require.Equal(t, 9, doc.Visitors)
}

func TestLoadReturnsDecodeErrorForMalformedState(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()

	_, err := backend.Create(ctx, testNamespace, []byte("not json"))
	require.NoError(t, err)

	_, _, err = store.Load(ctx, testNamespace, NewDocument())
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	require.Equal(t, testNamespace, decodeErr.Namespace)
}

func TestCommitAppliesMutatorAndStoresResult(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	doc, token, err := store.Load(ctx, testNamespace, NewDocument())
	require.NoError(t, err)

	committed, newToken, err := store.Commit(ctx, testNamespace, doc, token, addFeedMutator("https://example.com/rss.xml"))
	require.NoError(t, err)
	require.NotEqual(t, token, newToken)
	require.Equal(t, []string{"https://example.com/rss.xml"}, committed.Feeds)

	reloaded, _, err := store.Load(ctx, testNamespace, NewDocument())
	require.NoError(t, err)
	require.Equal(t, committed, reloaded)
}

func TestCommitDoesNotMutateCallerDocument(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	doc, token, err := store.Load(ctx, testNamespace, NewDocument())
	require.NoError(t, err)

	_, _, err = store.Commit(ctx, testNamespace, doc, token, addFeedMutator("https://example.com/rss.xml"))
	require.NoError(t, err)
	require.Empty(t, doc.Feeds)
}

func TestCommitRetriesOnConflictWithFreshState(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()

	doc, token, err := store.Load(ctx, testNamespace, NewDocument())
	require.NoError(t, err)

	// A competing writer lands an increment between this session's Load
	// and its first Put, invalidating the token exactly once.
	interfered := false
	backend.beforePut = func(path string) {
		if interfered {
			return
		}
		interfered = true
		writeDirect(t, backend, path, func(d Document) Document {
			d.Visitors++
			return d
		})
	}

	applications := 0
	mutator := func(d Document) (Document, error) {
		applications++
		d.Feeds = append(d.Feeds, "https://example.com/rss.xml")
		return d, nil
	}

	committed, _, err := store.Commit(ctx, testNamespace, doc, token, Mutator(mutator))
	require.NoError(t, err)

	// Applied once against the stale state, once against the reloaded one.
	require.Equal(t, 2, applications)
	// Both the competing increment and this session's feed survive.
	require.Equal(t, 1, committed.Visitors)
	require.Equal(t, []string{"https://example.com/rss.xml"}, committed.Feeds)
}

func TestCommitNoLostUpdateAcrossSessions(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	// Two sessions read the same initial state.
	docA, tokenA, err := store.Load(ctx, testNamespace, NewDocument())
	require.NoError(t, err)
	docB, tokenB, err := store.Load(ctx, testNamespace, NewDocument())
	require.NoError(t, err)

	// B commits first; A's token is now stale and its commit must land on
	// top of B's increment rather than erase it.
	_, _, err = store.Commit(ctx, testNamespace, docB, tokenB, incrementMutator())
	require.NoError(t, err)

	committed, _, err := store.Commit(ctx, testNamespace, docA, tokenA, addFeedMutator("https://example.com/rss.xml"))
	require.NoError(t, err)

	require.Equal(t, 1, committed.Visitors)
	require.Contains(t, committed.Feeds, "https://example.com/rss.xml")
}

func TestCommitExhaustsRetriesUnderConstantContention(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()

	doc, token, err := store.Load(ctx, testNamespace, NewDocument())
	require.NoError(t, err)

	puts := 0
	backend.beforePut = func(path string) {
		puts++
		writeDirect(t, backend, path, func(d Document) Document {
			d.Visitors++
			return d
		})
	}

	_, _, err = store.Commit(ctx, testNamespace, doc, token, addFeedMutator("https://example.com/rss.xml"))

	var exhausted *OptimisticLockExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 3, exhausted.Attempts)
	require.Equal(t, 3, puts)

	// The namespace holds exactly what the last successful external
	// writer left: three increments, no trace of the failed feed append.
	backend.beforePut = nil
	final, _, err := store.Load(ctx, testNamespace, NewDocument())
	require.NoError(t, err)
	require.Equal(t, 3, final.Visitors)
	require.Empty(t, final.Feeds)
}

func TestCommitMutatorErrorAbortsWithoutWriting(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()

	doc, token, err := store.Load(ctx, testNamespace, NewDocument())
	require.NoError(t, err)

	puts := 0
	backend.beforePut = func(string) { puts++ }

	boom := errors.New("invalid feed URL")
	_, _, err = store.Commit(ctx, testNamespace, doc, token, func(Document) (Document, error) {
		return Document{}, boom
	})

	require.ErrorIs(t, err, boom)
	require.Zero(t, puts)
}

func TestCommitBackendUnavailableIsFatal(t *testing.T) {
	backend := &flakyBackend{inner: NewMemoryBackend()}
	store := New(backend, slog.New(slog.DiscardHandler), Config{})
	ctx := context.Background()

	doc, token, err := store.Load(ctx, testNamespace, NewDocument())
	require.NoError(t, err)

	backend.failPuts = true
	_, _, err = store.Commit(ctx, testNamespace, doc, token, incrementMutator())

	var unavailable *BackendUnavailableError
	require.ErrorAs(t, err, &unavailable)
	require.Equal(t, 1, backend.putCalls)
}

// writeDirect commits a change to the backend outside the store, playing the
// part of an independent writer in another process.
func writeDirect(t *testing.T, backend *MemoryBackend, path string, change func(Document) Document) {
	t.Helper()
	ctx := context.Background()

	hook := backend.beforePut
	backend.beforePut = nil
	defer func() { backend.beforePut = hook }()

	data, token, err := backend.Get(ctx, path)
	require.NoError(t, err)
	doc, err := JSONCodec{}.Decode(data)
	require.NoError(t, err)

	updated, err := JSONCodec{}.Encode(change(doc))
	require.NoError(t, err)
	_, err = backend.Put(ctx, path, updated, token)
	require.NoError(t, err)
}

// flakyBackend wraps a MemoryBackend and can fail writes on demand.
type flakyBackend struct {
	inner    *MemoryBackend
	failPuts bool
	putCalls int
}

func (f *flakyBackend) Get(ctx context.Context, path string) ([]byte, VersionToken, error) {
	return f.inner.Get(ctx, path)
}

func (f *flakyBackend) Put(ctx context.Context, path string, data []byte, token VersionToken) (VersionToken, error) {
	f.putCalls++
	if f.failPuts {
		return "", &BackendUnavailableError{Op: "put", Err: errors.New("connection reset")}
	}
	return f.inner.Put(ctx, path, data, token)
}

func (f *flakyBackend) Create(ctx context.Context, path string, data []byte) (VersionToken, error) {
	return f.inner.Create(ctx, path, data)
}
