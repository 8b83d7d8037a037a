package domain

import "errors"

// Domain errors
var (
	ErrInternalError = errors.New("internal error")
)

// Import errors
var (
	// ErrResourceUnavailable means the import source could not be opened or read.
	// No persistence write happens once it is returned.
	ErrResourceUnavailable = errors.New("import source unavailable")

	// ErrInvalidRow means a row has every required field but its type or
	// value can't be read. It aborts the import before any write.
	ErrInvalidRow = errors.New("invalid import row")

	// ErrStorageReadFailed means existing categories could not be looked up.
	ErrStorageReadFailed = errors.New("storage read failed")

	// ErrStorageWriteFailed means a category or transaction batch write failed.
	ErrStorageWriteFailed = errors.New("storage write failed")

	// ErrCleanupFailed is reported as a warning after a successful import when
	// the source could not be archived or deleted.
	ErrCleanupFailed = errors.New("import cleanup failed")
)
