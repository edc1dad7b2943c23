package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrChunkNotFound    = errors.New("chunk not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTemporary        = errors.New("temporary failure")

	// ErrRetrievalUnavailable marks a chunk store failure that was absorbed into an empty result.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	// ErrNoRelevantResults is a terminal state, not a failure: ranking kept no relevant source.
	ErrNoRelevantResults = errors.New("no relevant results")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
