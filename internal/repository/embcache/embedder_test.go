package embcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/poshan-ai/poshan/internal/domain"
)

// --- Mocks ---

type countingEmbedder struct {
	calls      int
	batchCalls int
	err        error
}

func (m *countingEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{
		Embedding:   []float32{float32(len(text))},
		TotalTokens: 5,
	}, nil
}

func (m *countingEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchCalls++
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	embeddings := make([][]float32, len(texts))
	for i, t := range texts {
		embeddings[i] = []float32{float32(len(t))}
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings, TotalTokens: 5 * len(texts)}, nil
}

func newTestCache(inner domain.Embedder) *CachedEmbedder {
	return New(inner, 16, time.Minute, nil, zap.NewNop())
}

// --- Tests ---

func TestEmbed_CachesSecondCall(t *testing.T) {
	inner := &countingEmbedder{}
	c := newTestCache(inner)

	first, err := c.Embed(context.Background(), "breakfast ideas")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := c.Embed(context.Background(), "breakfast ideas")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1", inner.calls)
	}
	if len(second.Embedding) != len(first.Embedding) {
		t.Error("cached embedding differs from original")
	}
	// Cache hits consume no provider tokens.
	if second.TotalTokens != 0 {
		t.Errorf("hit TotalTokens = %d, want 0", second.TotalTokens)
	}
}

func TestEmbed_KeyNormalizesCaseAndWhitespace(t *testing.T) {
	inner := &countingEmbedder{}
	c := newTestCache(inner)

	if _, err := c.Embed(context.Background(), "  Breakfast Ideas  "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Embed(context.Background(), "breakfast ideas"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1: variants must share a cache entry", inner.calls)
	}
}

func TestEmbed_ErrorNotCached(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("provider down")}
	c := newTestCache(inner)

	if _, err := c.Embed(context.Background(), "query"); err == nil {
		t.Fatal("expected error")
	}
	inner.err = nil
	if _, err := c.Embed(context.Background(), "query"); err != nil {
		t.Fatalf("unexpected error after recovery: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner called %d times, want 2", inner.calls)
	}
}

func TestBatchEmbed_OnlyMissesHitProvider(t *testing.T) {
	inner := &countingEmbedder{}
	c := newTestCache(inner)

	if _, err := c.Embed(context.Background(), "cached text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := c.BatchEmbed(context.Background(), []string{"cached text", "new text"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 2 {
		t.Fatalf("got %d embeddings, want 2", len(res.Embeddings))
	}
	if res.Embeddings[0] == nil || res.Embeddings[1] == nil {
		t.Error("every position must be filled")
	}
	// One single-text provider call for the miss, batched.
	if inner.batchCalls != 1 {
		t.Errorf("batchCalls = %d, want 1", inner.batchCalls)
	}
	if res.TotalTokens != 5 {
		t.Errorf("TotalTokens = %d, want tokens for the single miss", res.TotalTokens)
	}
}

func TestBatchEmbed_AllCached(t *testing.T) {
	inner := &countingEmbedder{}
	c := newTestCache(inner)

	texts := []string{"one", "two"}
	if _, err := c.BatchEmbed(context.Background(), texts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := c.BatchEmbed(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.batchCalls != 1 {
		t.Errorf("batchCalls = %d, want 1", inner.batchCalls)
	}
	if res.TotalTokens != 0 {
		t.Errorf("TotalTokens = %d, want 0 for full cache hit", res.TotalTokens)
	}
}

func TestLen_TracksEntries(t *testing.T) {
	c := newTestCache(&countingEmbedder{})
	if _, err := c.Embed(context.Background(), "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Embed(context.Background(), "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}
