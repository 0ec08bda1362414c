package storage

import "errors"

// Storage errors. Runs and their aggregates are append-only: a
// completed simulation is never rewritten, only re-run under a new ID.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when inserting a record whose key
	// already exists. Completed runs are immutable.
	ErrDuplicateKey = errors.New("duplicate key: completed runs are immutable")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
