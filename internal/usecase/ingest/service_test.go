package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/poshan-ai/poshan/internal/domain"
	"github.com/poshan-ai/poshan/internal/domain/document"
)

// --- Mocks ---

type mockBatchEmbedder struct {
	dims      int
	tokens    int
	failAfter int // number of successful calls before failing; -1 = never fail
	calls     int
}

func (m *mockBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.calls++
	if m.failAfter >= 0 && m.calls > m.failAfter {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("provider down: %w", domain.ErrProviderTransient)
	}
	embeddings := make([][]float32, len(texts))
	for i := range embeddings {
		embeddings[i] = make([]float32, m.dims)
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings, TotalTokens: m.tokens}, nil
}

type mockCorpus struct {
	err    error
	stored []document.Document
}

func (m *mockCorpus) BulkUpsert(_ context.Context, docs []document.Document) error {
	if m.err != nil {
		return m.err
	}
	m.stored = append(m.stored, docs...)
	return nil
}

func validItems(n int) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{
			ID:       fmt.Sprintf("doc-%d", i),
			Text:     fmt.Sprintf("dish number %d", i),
			Category: document.MealTemplate,
		}
	}
	return items
}

func newTestService(emb Embedder, corpus CorpusWriter) *Service {
	return New(emb, corpus, 4, zap.NewNop())
}

// --- Tests ---

func TestIngest_EmptyBatch(t *testing.T) {
	svc := newTestService(&mockBatchEmbedder{dims: 4, failAfter: -1}, &mockCorpus{})
	_, err := svc.Ingest(context.Background(), nil)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestIngest_BatchTooLarge(t *testing.T) {
	svc := newTestService(&mockBatchEmbedder{dims: 4, failAfter: -1}, &mockCorpus{})
	_, err := svc.Ingest(context.Background(), validItems(MaxBatchSize+1))
	if !errors.Is(err, domain.ErrBatchTooLarge) {
		t.Fatalf("err = %v, want ErrBatchTooLarge", err)
	}
}

func TestIngest_AllValid(t *testing.T) {
	corpus := &mockCorpus{}
	svc := newTestService(&mockBatchEmbedder{dims: 4, failAfter: -1}, corpus)

	results, err := svc.Ingest(context.Background(), validItems(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range results {
		if r.Status != StatusOK {
			t.Errorf("item %s status = %q: %v", r.ID, r.Status, r.Err)
		}
	}
	if len(corpus.stored) != 3 {
		t.Errorf("stored %d docs, want 3", len(corpus.stored))
	}
	for _, d := range corpus.stored {
		if len(d.Vector) != 4 {
			t.Errorf("doc %s vector length %d, want 4", d.ID, len(d.Vector))
		}
	}
}

func TestIngest_PerItemValidation(t *testing.T) {
	corpus := &mockCorpus{}
	svc := newTestService(&mockBatchEmbedder{dims: 4, failAfter: -1}, corpus)

	items := []Item{
		{ID: "good", Text: "valid dish", Category: document.MealTemplate},
		{ID: "", Text: "no id", Category: document.MealTemplate},
		{ID: "bad-category", Text: "text", Category: document.Category("recipe")},
	}
	results, err := svc.Ingest(context.Background(), items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Status != StatusOK {
		t.Errorf("good item failed: %v", results[0].Err)
	}
	for _, i := range []int{1, 2} {
		if results[i].Status != StatusError {
			t.Errorf("item %d should fail validation", i)
		}
		if !errors.Is(results[i].Err, domain.ErrValidation) {
			t.Errorf("item %d err = %v, want ErrValidation", i, results[i].Err)
		}
	}
	if len(corpus.stored) != 1 {
		t.Errorf("stored %d docs, want only the valid one", len(corpus.stored))
	}
}

func TestIngest_ProviderFailureCascades(t *testing.T) {
	// Chunk size 2 over 5 docs: first chunk succeeds, second fails, so items
	// 0-1 persist and 2-4 carry the provider error.
	corpus := &mockCorpus{}
	emb := &mockBatchEmbedder{dims: 4, failAfter: 1}
	svc := newTestService(emb, corpus).WithEmbedChunkSize(2)

	results, err := svc.Ingest(context.Background(), validItems(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, i := range []int{0, 1} {
		if results[i].Status != StatusOK {
			t.Errorf("item %d = %q: %v", i, results[i].Status, results[i].Err)
		}
	}
	for _, i := range []int{2, 3, 4} {
		if results[i].Status != StatusError {
			t.Errorf("item %d should carry the provider error", i)
		}
		if !errors.Is(results[i].Err, domain.ErrProviderTransient) {
			t.Errorf("item %d err = %v, want ErrProviderTransient", i, results[i].Err)
		}
	}
	if len(corpus.stored) != 2 {
		t.Errorf("stored %d docs, want the 2 embedded before the failure", len(corpus.stored))
	}
}

func TestIngest_DimensionMismatch(t *testing.T) {
	corpus := &mockCorpus{}
	svc := newTestService(&mockBatchEmbedder{dims: 3, failAfter: -1}, corpus)

	results, err := svc.Ingest(context.Background(), validItems(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range results {
		if r.Status != StatusError {
			t.Errorf("item %s = %q, want error on dim mismatch", r.ID, r.Status)
		}
		if !errors.Is(r.Err, domain.ErrVectorDimMismatch) {
			t.Errorf("item %s err = %v, want ErrVectorDimMismatch", r.ID, r.Err)
		}
	}
	if len(corpus.stored) != 0 {
		t.Errorf("stored %d docs, want 0", len(corpus.stored))
	}
}

func TestIngest_UpsertFailureMarksItems(t *testing.T) {
	corpus := &mockCorpus{err: errors.New("redis write failed")}
	svc := newTestService(&mockBatchEmbedder{dims: 4, failAfter: -1}, corpus)

	results, err := svc.Ingest(context.Background(), validItems(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range results {
		if r.Status != StatusError {
			t.Errorf("item %s = %q, want error after failed upsert", r.ID, r.Status)
		}
	}
}

func TestIngest_RecordsTokenUsage(t *testing.T) {
	ctx, usage := domain.NewContextWithUsage(context.Background())

	svc := newTestService(&mockBatchEmbedder{dims: 4, tokens: 10, failAfter: -1}, &mockCorpus{}).
		WithEmbedChunkSize(2)

	if _, err := svc.Ingest(ctx, validItems(5)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Three chunks of up to 2 docs, 10 tokens each.
	if usage.TotalTokens() != 30 {
		t.Errorf("TotalTokens = %d, want 30", usage.TotalTokens())
	}
}
