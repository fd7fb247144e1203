package cardModel

import "errors"

var (
	// ErrUnsupportedFormat aborts the current file; sibling files continue.
	ErrUnsupportedFormat = errors.New("unsupported flashcard export format")

	// ErrClassificationUnavailable is never fatal. The cascade treats it as
	// "no model" and falls back to the rule table.
	ErrClassificationUnavailable = errors.New("classification capability unavailable")

	// ErrEmbeddingUnavailable is fatal for the current ingestion job. A
	// partial corpus silently degrades retrieval, so the caller must know.
	ErrEmbeddingUnavailable = errors.New("embedding capability unavailable")

	ErrVectorStore = errors.New("vector store failure")

	// ErrDimensionMismatch fails a query whose embedding does not match the
	// dimensionality of the persisted collection.
	ErrDimensionMismatch = errors.New("query vector dimension does not match store")
)
