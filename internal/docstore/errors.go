package docstore

import (
	"fmt"
)

// BackendUnavailableError reports a transport, authentication or rate-limit
// failure while talking to the backend. It is fatal to the current operation
// and never consumes the conflict-retry budget.
type BackendUnavailableError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("docstore: backend unavailable during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *BackendUnavailableError) Unwrap() error {
	return e.Err
}

// DecodeError reports that the stored bytes for a namespace are not a
// well-formed document. The store never attempts auto-repair.
type DecodeError struct {
	Namespace string
	Err       error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("docstore: stored document at %q is malformed: %v", e.Namespace, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// OptimisticLockExhaustedError reports that every commit attempt lost the
// version race. The caller decides whether to re-attempt at a higher level;
// nothing was written by the failed commit.
type OptimisticLockExhaustedError struct {
	Namespace string
	Attempts  int
}

// Error implements the error interface.
func (e *OptimisticLockExhaustedError) Error() string {
	return fmt.Sprintf("docstore: gave up committing to %q after %d conflicting attempts", e.Namespace, e.Attempts)
}
