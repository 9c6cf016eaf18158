package db

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds.  Callers classify errors with errors.Cause(err) == ErrX.
var (
	// ErrConfig means the store's root directory is missing.
	ErrConfig = errors.New("store not configured")
	// ErrNotFound covers missing chunks, unknown algo tags, and
	// missing tree entries.
	ErrNotFound = errors.New("not found")
	// ErrCorrupt means a stored chunk does not hash to its digest.
	ErrCorrupt = errors.New("chunk does not match digest")
	// ErrInvalidArgument means the caller passed something unusable.
	ErrInvalidArgument = errors.New("invalid argument")
)

type ExistsError struct {
	Dir string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("directory not empty: %s", e.Dir)
}

type NotStoreError struct {
	Dir string
}

func (e *NotStoreError) Error() string {
	return fmt.Sprintf("not a store: %s", e.Dir)
}
