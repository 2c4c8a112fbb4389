// Package retrieval fans stage queries out against the vector index and
// merges the hits into a deduplicated candidate set.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/poshan-ai/poshan/internal/domain"
	"github.com/poshan-ai/poshan/internal/domain/candidate"
	"github.com/poshan-ai/poshan/internal/domain/query"
	"github.com/poshan-ai/poshan/internal/metrics"
	"github.com/poshan-ai/poshan/internal/repository/vecindex"
)

// Service is the retrieval orchestrator. Stage queries run concurrently;
// a failed stage degrades to an empty result list and never aborts the
// others. Cancellation discards everything, partial candidate sets are
// worse than an honest error.
type Service struct {
	embed       Embedder
	index       Searcher
	topKPer     int
	concurrency int
	logger      *zap.Logger
}

// New creates a retrieval service. topKPerStage is the per-stage result
// count; concurrency bounds the number of stages in flight at once.
func New(embed Embedder, index Searcher, topKPerStage, concurrency int, logger *zap.Logger) *Service {
	if topKPerStage <= 0 {
		topKPerStage = 5
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Service{
		embed:       embed,
		index:       index,
		topKPer:     topKPerStage,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Retrieve executes all stage queries for the request and returns the merged
// candidate set, sorted by semantic score descending. Returns
// domain.ErrRetrievalDegraded when every stage came back empty.
func (s *Service) Retrieve(
	ctx context.Context, normalized string,
	prefs *query.Preferences, health *query.HealthContext,
) ([]candidate.ScoredCandidate, error) {
	stages := BuildStages(normalized, prefs, health)

	stageHits := make([][]vecindex.Hit, len(stages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, st := range stages {
		i, st := i, st
		g.Go(func() error {
			hits, err := s.runStage(gctx, st)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.Warn("Retrieval stage failed",
					zap.String("stage", st.StageLabel),
					zap.Error(err),
				)
				metrics.StageFailuresTotal.WithLabelValues(st.StageLabel, failureReason(err)).Inc()
				return nil
			}
			stageHits[i] = hits
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("retrieval cancelled: %w", err)
	}

	merged := merge(stages, stageHits)
	metrics.RetrievalCandidates.Observe(float64(len(merged)))

	if len(merged) == 0 {
		return nil, fmt.Errorf("all %d stages returned no candidates: %w",
			len(stages), domain.ErrRetrievalDegraded)
	}
	return merged, nil
}

// runStage embeds one stage query and searches the index.
func (s *Service) runStage(ctx context.Context, st query.Query) ([]vecindex.Hit, error) {
	start := time.Now()

	emb, err := s.embed.Embed(ctx, st.NormalizedText)
	if err != nil {
		metrics.StageDuration.WithLabelValues(st.StageLabel, "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("embed stage query: %w", err)
	}
	domain.UsageFromContext(ctx).AddTokens(emb.TotalTokens)

	hits, err := s.index.Search(ctx, emb.Embedding, s.topKPer)
	if err != nil {
		metrics.StageDuration.WithLabelValues(st.StageLabel, "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("index search: %w", err)
	}

	metrics.StageDuration.WithLabelValues(st.StageLabel, "success").Observe(time.Since(start).Seconds())
	return hits, nil
}

// merge deduplicates hits by document id, keeping the highest semantic score
// observed and every stage label that matched, then sorts by score descending.
func merge(stages []query.Query, stageHits [][]vecindex.Hit) []candidate.ScoredCandidate {
	byID := make(map[string]int)
	var out []candidate.ScoredCandidate

	for i, hits := range stageHits {
		label := stages[i].StageLabel
		for _, h := range hits {
			if idx, ok := byID[h.Doc.ID]; ok {
				c := &out[idx]
				c.AddStage(label)
				if h.Score > c.SemanticScore {
					c.SemanticScore = h.Score
				}
				continue
			}
			byID[h.Doc.ID] = len(out)
			out = append(out, candidate.New(h.Doc, h.Score, label))
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].SemanticScore > out[b].SemanticScore
	})
	return out
}

func failureReason(err error) string {
	if errors.Is(err, domain.ErrProviderTransient) {
		return "provider"
	}
	return "index"
}
