package ingest

import (
	"context"

	"github.com/poshan-ai/poshan/internal/domain"
	"github.com/poshan-ai/poshan/internal/domain/document"
)

// Embedder vectorizes document texts in batches.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// CorpusWriter persists embedded documents.
type CorpusWriter interface {
	BulkUpsert(ctx context.Context, docs []document.Document) error
}
