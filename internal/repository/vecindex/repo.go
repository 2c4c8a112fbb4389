// Package vecindex wraps approximate-nearest-neighbor search over the corpus
// FT index with the pool-size and similarity-floor policy the retrieval
// stages rely on.
package vecindex

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/poshan-ai/poshan/internal/db"
	"github.com/poshan-ai/poshan/internal/domain/document"
	"github.com/poshan-ai/poshan/internal/repository/corpus"
)

// MinPoolMultiplier is the floor for the candidate-pool multiplier. The pool
// examined for a stage must be at least twice the requested result count to
// compensate for approximate-search recall loss. Hard constraint, not a
// tunable nicety.
const MinPoolMultiplier = 2

// Config holds search policy fixed at construction time.
type Config struct {
	IndexName      string
	PoolMultiplier int     // candidate pool = k * PoolMultiplier
	MinScore       float64 // similarity floor, candidates below are discarded
	EFRuntime      int     // HNSW query-time search-quality parameter
}

// Hit is a corpus document with its semantic similarity score.
type Hit struct {
	Doc   document.Document
	Score float64
}

// searcher is the consumer interface for KNN search (ISP).
type searcher interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo performs ANN searches with the configured pool and floor policy.
type Repo struct {
	db     searcher
	cfg    Config
	logger *zap.Logger
}

// New validates the config and creates a search repository.
func New(s searcher, cfg Config, logger *zap.Logger) (*Repo, error) {
	if cfg.IndexName == "" {
		cfg.IndexName = corpus.IndexName
	}
	if cfg.PoolMultiplier < MinPoolMultiplier {
		return nil, fmt.Errorf("pool multiplier %d below minimum %d", cfg.PoolMultiplier, MinPoolMultiplier)
	}
	if cfg.MinScore < 0 || cfg.MinScore >= 1 {
		return nil, fmt.Errorf("min score %f outside [0,1)", cfg.MinScore)
	}
	return &Repo{db: s, cfg: cfg, logger: logger}, nil
}

// PoolSize returns the candidate pool examined for a requested result count.
func (r *Repo) PoolSize(k int) int {
	return k * r.cfg.PoolMultiplier
}

// Search runs a KNN query for up to k results, examining a pool of
// PoolSize(k) candidates and discarding anything under the similarity floor.
func (r *Repo) Search(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	res, err := r.db.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.cfg.IndexName,
		Vector:       vector,
		K:            r.PoolSize(k),
		EFRuntime:    r.cfg.EFRuntime,
		ReturnFields: corpus.ReturnFields(),
	})
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}

	hits := make([]Hit, 0, k)
	for _, entry := range res.Entries {
		if entry.Score < r.cfg.MinScore {
			continue
		}
		doc, err := corpus.DocumentFromFields(corpus.IDFromKey(entry.Key), entry.Fields)
		if err != nil {
			r.logger.Warn("Skipping malformed search hit", zap.String("key", entry.Key), zap.Error(err))
			continue
		}
		hits = append(hits, Hit{Doc: doc, Score: entry.Score})
		if len(hits) == k {
			break
		}
	}

	return hits, nil
}
