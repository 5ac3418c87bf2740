package domain

import "errors"

var (
	// ErrCorruptIndex signals persisted index metadata that is missing or
	// inconsistent with the stored entries. Recovery is to delete the
	// persist directory and rebuild, never to patch in place.
	ErrCorruptIndex = errors.New("corrupt index")
	// ErrDimensionMismatch signals a query vector whose length disagrees
	// with the declared index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrIndexNotFound signals that no persisted index exists at the
	// configured location.
	ErrIndexNotFound = errors.New("index not found")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCompletionProviderError signals a chat completion provider failure.
	ErrCompletionProviderError = errors.New("completion provider error")
)
