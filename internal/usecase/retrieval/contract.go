package retrieval

import (
	"context"

	"github.com/poshan-ai/poshan/internal/domain"
	"github.com/poshan-ai/poshan/internal/repository/vecindex"
)

// Embedder vectorizes stage query text. Satisfied by the caching decorator.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Searcher runs an approximate nearest-neighbor search for up to k results.
type Searcher interface {
	Search(ctx context.Context, vector []float32, k int) ([]vecindex.Hit, error)
}
