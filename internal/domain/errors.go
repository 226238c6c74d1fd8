package domain

import "errors"

var (
	// ErrUnavailable marks a dependency (ANN service, auxiliary index) that
	// cannot serve requests right now. Callers recover via a fallback
	// strategy; this error never reaches the library caller.
	ErrUnavailable = errors.New("dependency unavailable")

	// ErrQueryTooLong rejects malformed input before any retrieval work.
	ErrQueryTooLong = errors.New("query exceeds maximum length")

	// ErrNotFound is returned by record lookups when no row matches.
	ErrNotFound = errors.New("record not found")
)
