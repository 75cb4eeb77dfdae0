package contracts

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoData is returned when the store holds no snapshots at all
	ErrNoData = errors.New("no snapshot data")

	// ErrNotFound is returned when a ticker has no snapshot on the requested date
	ErrNotFound = errors.New("snapshot not found")

	// ErrInvalidRange is returned when a range filter has min greater than max
	ErrInvalidRange = errors.New("invalid range")

	// ErrInvalidPage is returned for a negative page or a non-positive page size
	ErrInvalidPage = errors.New("invalid page request")

	// ErrStoreUnavailable wraps I/O failures of the storage boundary
	ErrStoreUnavailable = errors.New("snapshot store unavailable")
)

// StoreError wraps a driver error of operation op as ErrStoreUnavailable.
// Context cancellation is passed through unchanged so callers can tell it apart.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// IsClientError reports whether err was caused by caller input
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) || errors.Is(err, ErrInvalidPage)
}
