package sdk

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type openAIConfig struct {
	apiKey     string
	baseURL    string
	model      string
	dimensions int
}

type clientConfig struct {
	addrs    []string
	password string

	embedder Embedder
	openAI   *openAIConfig

	dimensions      int
	hnswM           int
	hnswEFConstruct int
	hnswEFRuntime   int

	poolMultiplier int
	minScore       float64

	defaultTopK      int
	topKPerStage     int
	stageConcurrency int
	lambda           float64

	cacheEntries int
	cacheTTL     time.Duration

	logger *zap.Logger
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		dimensions:       1536,
		hnswM:            32,
		hnswEFConstruct:  400,
		hnswEFRuntime:    20,
		poolMultiplier:   2,
		minScore:         0.15,
		defaultTopK:      8,
		topKPerStage:     5,
		stageConcurrency: 4,
		lambda:           0.7,
		cacheEntries:     4096,
		cacheTTL:         10 * time.Minute,
		logger:           zap.NewNop(),
	}
}

// WithRedis configures the Redis connection.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithEmbedder sets a custom embedding provider. If it also implements
// BatchEmbedder, ingestion batches through it.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithOpenAIEmbedder configures the built-in OpenAI-compatible embedding
// provider. baseURL may be empty for the default endpoint.
func WithOpenAIEmbedder(apiKey, baseURL, model string, dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAI = &openAIConfig{
			apiKey:     apiKey,
			baseURL:    baseURL,
			model:      model,
			dimensions: dimensions,
		}
		if dimensions > 0 {
			c.dimensions = dimensions
		}
	})
}

// WithHNSW configures the corpus index build and query knobs.
// Defaults: M=32, EFConstruct=400, EFRuntime=20.
func WithHNSW(m, efConstruct, efRuntime int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
		c.hnswEFRuntime = efRuntime
	})
}

// WithSearchPolicy sets the candidate-pool multiplier (minimum 2) and the
// similarity floor for stage searches.
func WithSearchPolicy(poolMultiplier int, minScore float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.poolMultiplier = poolMultiplier
		c.minScore = minScore
	})
}

// WithPipeline sets the default result count, per-stage result count, and
// the diversity trade-off lambda in [0,1].
func WithPipeline(defaultTopK, topKPerStage int, lambda float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultTopK = defaultTopK
		c.topKPerStage = topKPerStage
		c.lambda = lambda
	})
}

// WithCache configures the embedding cache bound and TTL.
func WithCache(maxEntries int, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheEntries = maxEntries
		c.cacheTTL = ttl
	})
}

// WithLogger enables structured logging for client operations.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		if l != nil {
			c.logger = l
		}
	})
}
