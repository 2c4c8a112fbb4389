package sdk

import "github.com/poshan-ai/poshan/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation        = domain.ErrValidation
	ErrContentPolicy     = domain.ErrContentPolicy
	ErrUnsupportedLang   = domain.ErrUnsupportedLanguage
	ErrProviderTransient = domain.ErrProviderTransient
	ErrIndexUnavailable  = domain.ErrIndexUnavailable
	ErrRetrievalDegraded = domain.ErrRetrievalDegraded
	ErrDocumentNotFound  = domain.ErrDocumentNotFound
	ErrVectorDimMismatch = domain.ErrVectorDimMismatch
	ErrBatchTooLarge     = domain.ErrBatchTooLarge
)
