package health

import "context"

// StorePinger checks Redis availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker checks that the corpus FT index exists.
type IndexChecker interface {
	IndexExists(ctx context.Context, name string) (bool, error)
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
