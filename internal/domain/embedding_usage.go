package domain

import (
	"context"
	"sync/atomic"
)

type embeddingUsageKey struct{}

// EmbeddingUsage collects token usage for a single request. The handler puts
// a collector into the context before calling the service; stages write
// concurrently after embedding; the handler reads it for response headers.
type EmbeddingUsage struct {
	totalTokens atomic.Int64
	used        atomic.Bool
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// AddTokens records consumed tokens. Safe for concurrent stage fan-out and
// for a nil receiver, so callers never need to check for a collector.
func (u *EmbeddingUsage) AddTokens(n int) {
	if u != nil {
		u.totalTokens.Add(int64(n))
		u.used.Store(true)
	}
}

// TotalTokens returns the tokens recorded so far.
func (u *EmbeddingUsage) TotalTokens() int {
	if u == nil {
		return 0
	}
	return int(u.totalTokens.Load())
}

// Used reports whether embedding was called at all, even on a cache hit
// with zero tokens.
func (u *EmbeddingUsage) Used() bool {
	return u != nil && u.used.Load()
}
