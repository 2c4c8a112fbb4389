package domain

import "errors"

var (
	// ErrValidation signals malformed or missing input, rejected before classification.
	ErrValidation = errors.New("invalid request")
	// ErrContentPolicy signals a classifier short-circuit on blocked content.
	ErrContentPolicy = errors.New("content policy violation")
	// ErrUnsupportedLanguage signals a classifier short-circuit on a regional-language message.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrProviderTransient signals an embedding provider failure that persisted through retries.
	ErrProviderTransient = errors.New("embedding provider unavailable")
	// ErrIndexUnavailable signals that the vector index cannot serve requests. Fatal at startup.
	ErrIndexUnavailable = errors.New("vector index unavailable")
	// ErrRetrievalDegraded signals that every retrieval stage failed or returned nothing.
	ErrRetrievalDegraded = errors.New("retrieval degraded: no stage produced results")
	// ErrDocumentNotFound signals a missing corpus document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrBatchTooLarge signals an ingestion batch above the configured maximum.
	ErrBatchTooLarge = errors.New("batch too large")
)
