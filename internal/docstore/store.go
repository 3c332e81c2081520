package docstore

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"
)

// commitAttempts is the total number of conditional writes a single Commit
// will issue before reporting OptimisticLockExhaustedError.
const commitAttempts = 3

// Mutator is a pure, total function transforming one document state into the
// next. On a version conflict the store re-applies the same mutator to the
// freshly loaded document, so a mutator must read all of its base state (the
// counter value, the current feed list) from the document it receives, never
// from a captured snapshot.
type Mutator func(doc Document) (Document, error)

// Config carries store tuning knobs.
type Config struct {
	// RetryDelay is the base pause between conflicting commit attempts,
	// jittered up to twice its value to reduce repeated collision. Zero
	// disables the pause; it is a contention strategy, not part of the
	// correctness contract.
	RetryDelay time.Duration
}

// Store orchestrates get/modify/put cycles against a single remote document
// with optimistic concurrency control. It holds no mutable state between
// calls: every Load/Commit pair is self-contained, and correctness under
// concurrent writers relies entirely on the backend's conditional writes
// plus the retry loop in Commit.
type Store struct {
	backend Backend
	codec   Codec
	logger  *slog.Logger
	delay   time.Duration
	sleep   func(time.Duration)
}

// New creates a store on top of a backend using the JSON wire codec.
func New(backend Backend, logger *slog.Logger, cfg Config) *Store {
	return &Store{
		backend: backend,
		codec:   JSONCodec{},
		logger:  logger.With("component", "docstore"),
		delay:   cfg.RetryDelay,
		sleep:   time.Sleep,
	}
}

// Load fetches the current document and the token it was read at. If the
// namespace does not exist yet it is bootstrapped with defaultDoc; when two
// sessions race the bootstrap, the loser reads back whatever the winner
// created.
func (s *Store) Load(ctx context.Context, namespace string, defaultDoc Document) (Document, VersionToken, error) {
	data, token, err := s.backend.Get(ctx, namespace)
	if errors.Is(err, ErrNotFound) {
		return s.bootstrap(ctx, namespace, defaultDoc)
	}
	if err != nil {
		return Document{}, "", err
	}

	doc, err := s.decode(namespace, data)
	if err != nil {
		return Document{}, "", err
	}
	return doc, token, nil
}

// Commit applies mutator to the document read at token and writes the result
// conditionally. On a version conflict it reloads the namespace, re-applies
// the same mutator to the fresh state and retries, up to commitAttempts
// writes in total. It returns the document exactly as committed and its new
// token.
//
// A mutator error aborts before anything is written and propagates
// unchanged. Backend unavailability is fatal immediately rather than
// consuming the conflict budget.
func (s *Store) Commit(ctx context.Context, namespace string, doc Document, token VersionToken, mutate Mutator) (Document, VersionToken, error) {
	current := doc
	for attempt := 1; ; attempt++ {
		candidate, err := mutate(current.Clone())
		if err != nil {
			return Document{}, "", err
		}

		data, err := s.codec.Encode(candidate)
		if err != nil {
			return Document{}, "", err
		}

		newToken, err := s.backend.Put(ctx, namespace, data, token)
		if err == nil {
			return candidate, newToken, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return Document{}, "", err
		}
		if attempt >= commitAttempts {
			s.logger.Warn("Commit exhausted its retry budget", "namespace", namespace, "attempts", attempt)
			return Document{}, "", &OptimisticLockExhaustedError{Namespace: namespace, Attempts: attempt}
		}

		s.logger.Info("Version conflict, reloading before retry", "namespace", namespace, "attempt", attempt)
		s.pause()

		// The document must already exist at this point, so the reload
		// takes no default: a missing namespace mid-commit is a backend
		// level problem the caller has to see.
		current, token, err = s.readExisting(ctx, namespace)
		if err != nil {
			return Document{}, "", err
		}
	}
}

// bootstrap creates the namespace with the default document. The default is
// cloned on return so the caller's copy never aliases store-held state.
func (s *Store) bootstrap(ctx context.Context, namespace string, defaultDoc Document) (Document, VersionToken, error) {
	data, err := s.codec.Encode(defaultDoc)
	if err != nil {
		return Document{}, "", err
	}

	token, err := s.backend.Create(ctx, namespace, data)
	if errors.Is(err, ErrAlreadyExists) {
		// Another session created it between our Get and Create.
		return s.readExisting(ctx, namespace)
	}
	if err != nil {
		return Document{}, "", err
	}

	s.logger.Info("Bootstrapped namespace with default document", "namespace", namespace)
	return defaultDoc.Clone(), token, nil
}

func (s *Store) readExisting(ctx context.Context, namespace string) (Document, VersionToken, error) {
	data, token, err := s.backend.Get(ctx, namespace)
	if err != nil {
		return Document{}, "", err
	}
	doc, err := s.decode(namespace, data)
	if err != nil {
		return Document{}, "", err
	}
	return doc, token, nil
}

func (s *Store) decode(namespace string, data []byte) (Document, error) {
	doc, err := s.codec.Decode(data)
	if err != nil {
		return Document{}, &DecodeError{Namespace: namespace, Err: err}
	}
	return doc, nil
}

func (s *Store) pause() {
	if s.delay <= 0 {
		return
	}
	s.sleep(s.delay + rand.N(s.delay))
}
