package cas

import "errors"

var (
	// ErrInvalidInput is returned for malformed input (e.g. an empty
	// byte buffer) before any I/O is attempted.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when the queried tier has no entry for
	// the identifier.
	ErrNotFound = errors.New("content not found")

	// ErrStorageUnavailable is returned when neither the remote store
	// nor the local fallback could serve the call.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
