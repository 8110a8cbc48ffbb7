package vsearch

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vsearch/catalog"
	"github.com/hupe1980/vsearch/index"
	"github.com/hupe1980/vsearch/vectorstore"
	"github.com/hupe1980/vsearch/vocab"
)

var (
	// ErrNotBuilt is returned by searches before an index has been built or loaded.
	ErrNotBuilt = errors.New("index not built")

	// ErrInvalidTopN is returned when the requested result count is not positive.
	ErrInvalidTopN = errors.New("top n must be positive")

	// ErrNotFound is returned when a document id is unknown.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned by operations on a closed Engine.
	ErrClosed = errors.New("engine closed")

	// ErrCorrupt is returned when a persisted file cannot be decoded.
	ErrCorrupt = errors.New("corrupt data")
)

// ErrMissingNorm indicates the index references a document without a norm entry,
// which means the index file is inconsistent and must be rebuilt.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrMissingNorm struct {
	DocumentID int32
	cause      error
}

func (e *ErrMissingNorm) Error() string {
	return fmt.Sprintf("missing norm for document %d", e.DocumentID)
}

func (e *ErrMissingNorm) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var mn *index.MissingNormError
	if errors.As(err, &mn) {
		return &ErrMissingNorm{DocumentID: mn.DocumentID, cause: err}
	}
	if errors.Is(err, catalog.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, vectorstore.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	if errors.Is(err, index.ErrCorrupt) ||
		errors.Is(err, vectorstore.ErrCorrupt) ||
		errors.Is(err, vocab.ErrCorrupt) {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	return err
}
