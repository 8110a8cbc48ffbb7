package index

import (
	"errors"
	"fmt"
)

var (
	// ErrCorrupt is returned when an index stream is truncated or malformed.
	ErrCorrupt = errors.New("index: corrupt index")
	// ErrMissingNorm is returned when a candidate document has no stored norm.
	// It indicates an inconsistent index, never a recoverable query condition.
	ErrMissingNorm = errors.New("index: missing document norm")
	// ErrInvalidBucketCount is returned for bucket counts below one.
	ErrInvalidBucketCount = errors.New("index: bucket count must be positive")
	// ErrInvalidQueryOptions is returned for negative query limits.
	ErrInvalidQueryOptions = errors.New("index: query limits must not be negative")
)

// MissingNormError reports the document whose norm was not found.
type MissingNormError struct {
	DocumentID int32
}

func (e *MissingNormError) Error() string {
	return fmt.Sprintf("%v: document %d", ErrMissingNorm, e.DocumentID)
}

func (e *MissingNormError) Unwrap() error {
	return ErrMissingNorm
}
