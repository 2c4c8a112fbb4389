package sdk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/poshan-ai/poshan/internal/classify"
	"github.com/poshan-ai/poshan/internal/db"
	dbRedis "github.com/poshan-ai/poshan/internal/db/redis"
	"github.com/poshan-ai/poshan/internal/domain"
	"github.com/poshan-ai/poshan/internal/domain/document"
	"github.com/poshan-ai/poshan/internal/domain/query"
	"github.com/poshan-ai/poshan/internal/repository/corpus"
	"github.com/poshan-ai/poshan/internal/repository/embcache"
	"github.com/poshan-ai/poshan/internal/repository/vecindex"
	openaiEmb "github.com/poshan-ai/poshan/internal/transport/openai"
	chatuc "github.com/poshan-ai/poshan/internal/usecase/chat"
	healthuc "github.com/poshan-ai/poshan/internal/usecase/health"
	ingestuc "github.com/poshan-ai/poshan/internal/usecase/ingest"
	retrievaluc "github.com/poshan-ai/poshan/internal/usecase/retrieval"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the embedded poshan pipeline entry point.
type Client struct {
	store  db.Store
	chat   *chatuc.Service
	ingest *ingestuc.Service
	health *healthuc.Service
}

// New creates a Client, connects to Redis, and ensures the corpus index
// exists. The provided context bounds the readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("poshan: redis address required (use WithRedis)")
	}
	if cfg.embedder == nil && cfg.openAI == nil {
		return nil, errors.New("poshan: embedder required (use WithEmbedder or WithOpenAIEmbedder)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("poshan: create store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("poshan: redis not ready: %w", err)
	}

	c, err := wireClient(ctx, store, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func wireClient(ctx context.Context, store db.Store, cfg *clientConfig) (*Client, error) {
	var base domain.Embedder
	if cfg.openAI != nil {
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.openAI.apiKey,
			BaseURL:    cfg.openAI.baseURL,
			Model:      cfg.openAI.model,
			Dimensions: cfg.openAI.dimensions,
			Provider:   "openai",
			Logger:     cfg.logger,
		})
	} else {
		base = &embedderAdapter{inner: cfg.embedder}
	}
	cached := embcache.New(base, cfg.cacheEntries, cfg.cacheTTL, nil, cfg.logger)

	corpusRepo := corpus.New(store, cfg.logger)
	if err := corpusRepo.EnsureIndex(ctx, corpus.IndexSettings{
		Dimensions:      cfg.dimensions,
		HNSWM:           cfg.hnswM,
		HNSWEFConstruct: cfg.hnswEFConstruct,
		HNSWEFRuntime:   cfg.hnswEFRuntime,
	}); err != nil {
		return nil, fmt.Errorf("poshan: ensure corpus index: %w", err)
	}

	searchRepo, err := vecindex.New(store, vecindex.Config{
		IndexName:      corpus.IndexName,
		PoolMultiplier: cfg.poolMultiplier,
		MinScore:       cfg.minScore,
		EFRuntime:      cfg.hnswEFRuntime,
	}, cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("poshan: %w", err)
	}

	classifier := classify.New(classify.DefaultRules(), cfg.logger)
	retrievalSvc := retrievaluc.New(cached, searchRepo, cfg.topKPerStage, cfg.stageConcurrency, cfg.logger)
	chatSvc := chatuc.New(classifier, retrievalSvc, cfg.defaultTopK, cfg.lambda, cfg.logger)
	ingestSvc := ingestuc.New(cached, corpusRepo, cfg.dimensions, cfg.logger)
	healthSvc := healthuc.New(store, store, corpus.IndexName, cached)

	return &Client{
		store:  store,
		chat:   chatSvc,
		ingest: ingestSvc,
		health: healthSvc,
	}, nil
}

// Close releases the Redis connection.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Query runs one message through the full pipeline.
func (c *Client) Query(ctx context.Context, message string, opts *QueryOptions) (QueryResult, error) {
	req := chatuc.Request{Message: message}
	if opts != nil {
		req.TopK = opts.TopK
		if opts.Preferences != nil {
			req.Preferences = &query.Preferences{
				DietType:      opts.Preferences.DietType,
				DietModifier:  opts.Preferences.DietModifier,
				Region:        opts.Preferences.Region,
				BudgetINR:     opts.Preferences.BudgetINR,
				ActivityLevel: opts.Preferences.ActivityLevel,
			}
		}
		if opts.HealthContext != nil {
			req.Health = &query.HealthContext{
				Symptoms:      opts.HealthContext.Symptoms,
				LabConcerns:   opts.HealthContext.LabConcerns,
				Substitutions: opts.HealthContext.Substitutions,
			}
		}
	}

	resp, err := c.chat.Query(ctx, req)
	if err != nil {
		return QueryResult{}, fmt.Errorf("query: %w", err)
	}

	out := QueryResult{
		RequestID: resp.RequestID,
		Verdict: Verdict{
			Category:     string(resp.Verdict.Category),
			MatchedRule:  resp.Verdict.MatchedRule,
			Severity:     string(resp.Verdict.Severity),
			ShortCircuit: resp.Verdict.ShouldShortCircuit,
		},
	}
	if resp.Redirect != nil {
		out.Redirect = &Redirect{
			Message:         resp.Redirect.Message,
			RedirectText:    resp.Redirect.RedirectText,
			SuggestedAction: resp.Redirect.SuggestedAction,
			DetectedIntent:  string(resp.Redirect.DetectedIntent),
		}
	}
	for i := range resp.Context {
		cand := &resp.Context[i]
		out.Context = append(out.Context, ContextItem{
			ID:            cand.Doc.ID,
			Text:          cand.Doc.Text,
			Category:      string(cand.Doc.Category),
			SemanticScore: cand.SemanticScore,
			CombinedScore: cand.CombinedScore,
			FeatureScores: cand.FeatureScores,
			Stages:        cand.Stages(),
			Attributes:    attributesFromDomain(cand.Doc.Attributes),
		})
	}
	return out, nil
}

// Ingest validates, embeds, and stores a batch of documents.
func (c *Client) Ingest(ctx context.Context, docs []Document) ([]IngestResult, error) {
	items := make([]ingestuc.Item, len(docs))
	for i, d := range docs {
		items[i] = ingestuc.Item{
			ID:       d.ID,
			Text:     d.Text,
			Category: document.Category(d.Category),
			Attributes: document.Attributes{
				DishName:    d.Attributes.DishName,
				Region:      d.Attributes.Region,
				DietType:    d.Attributes.DietType,
				ProteinG:    d.Attributes.ProteinG,
				CarbsG:      d.Attributes.CarbsG,
				FatG:        d.Attributes.FatG,
				GIBucket:    document.GIBucket(d.Attributes.GIBucket),
				BudgetINR:   d.Attributes.BudgetINR,
				PrepMinutes: d.Attributes.PrepMinutes,
				TopicTags:   d.Attributes.TopicTags,
			},
		}
	}

	results, err := c.ingest.Ingest(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	out := make([]IngestResult, len(results))
	for i, r := range results {
		out[i] = IngestResult{ID: r.ID, OK: r.Status == ingestuc.StatusOK, Err: r.Err}
	}
	return out, nil
}

// Health reports aggregated component readiness.
func (c *Client) Health(ctx context.Context) HealthReport {
	report := c.health.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthReport{Status: string(report.Status), Checks: checks}
}

func attributesFromDomain(a document.Attributes) Attributes {
	return Attributes{
		DishName:    a.DishName,
		Region:      a.Region,
		DietType:    a.DietType,
		ProteinG:    a.ProteinG,
		CarbsG:      a.CarbsG,
		FatG:        a.FatG,
		GIBucket:    string(a.GIBucket),
		BudgetINR:   a.BudgetINR,
		PrepMinutes: a.PrepMinutes,
		TopicTags:   a.TopicTags,
	}
}

// embedderAdapter wraps the public Embedder to satisfy internal contracts,
// delegating batch calls when the inner embedder supports them.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

func (a *embedderAdapter) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := a.inner.(BatchEmbedder); ok {
		r, err := be.BatchEmbed(ctx, texts)
		if err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}
		return domain.BatchEmbeddingResult{
			Embeddings:   r.Embeddings,
			PromptTokens: r.PromptTokens,
			TotalTokens:  r.TotalTokens,
		}, nil
	}
	return domain.BatchFallback(ctx, a, texts)
}
