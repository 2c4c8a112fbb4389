package vecindex

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/poshan-ai/poshan/internal/db"
)

// --- Mocks ---

type mockSearcher struct {
	result *db.SearchResult
	err    error
	lastQ  *db.KNNQuery
}

func (m *mockSearcher) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.lastQ = q
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func entry(id string, score float64) db.SearchEntry {
	return db.SearchEntry{
		Key:   "poshan:doc:" + id,
		Score: score,
		Fields: map[string]string{
			"text":     "some dish",
			"category": "meal-template",
		},
	}
}

func testConfig() Config {
	return Config{IndexName: "poshan-corpus", PoolMultiplier: 2, MinScore: 0.15}
}

// --- Tests ---

func TestNew_RejectsLowPoolMultiplier(t *testing.T) {
	cfg := testConfig()
	cfg.PoolMultiplier = 1
	if _, err := New(&mockSearcher{}, cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error for pool multiplier below minimum")
	}
}

func TestNew_RejectsBadMinScore(t *testing.T) {
	for _, score := range []float64{-0.1, 1.0, 2.5} {
		cfg := testConfig()
		cfg.MinScore = score
		if _, err := New(&mockSearcher{}, cfg, zap.NewNop()); err == nil {
			t.Errorf("expected error for min score %v", score)
		}
	}
}

func TestSearch_PoolSizeAtLeastTwiceK(t *testing.T) {
	for _, mult := range []int{2, 3, 5} {
		cfg := testConfig()
		cfg.PoolMultiplier = mult
		s := &mockSearcher{result: &db.SearchResult{}}
		repo, err := New(s, cfg, zap.NewNop())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := repo.Search(context.Background(), []float32{0.1}, 5); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.lastQ.K != 5*mult {
			t.Errorf("multiplier %d: pool K = %d, want %d", mult, s.lastQ.K, 5*mult)
		}
		if s.lastQ.K < 2*5 {
			t.Errorf("pool %d below 2x requested count", s.lastQ.K)
		}
	}
}

func TestSearch_FiltersBelowMinScore(t *testing.T) {
	s := &mockSearcher{result: &db.SearchResult{
		Total: 3,
		Entries: []db.SearchEntry{
			entry("a", 0.92),
			entry("b", 0.10), // below the 0.15 floor
			entry("c", 0.40),
		},
	}}
	repo, _ := New(s, testConfig(), zap.NewNop())

	hits, err := repo.Search(context.Background(), []float32{0.1}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	for _, h := range hits {
		if h.Score < 0.15 {
			t.Errorf("hit %s score %v below floor", h.Doc.ID, h.Score)
		}
	}
}

func TestSearch_TruncatesToK(t *testing.T) {
	s := &mockSearcher{result: &db.SearchResult{
		Entries: []db.SearchEntry{
			entry("a", 0.9), entry("b", 0.8), entry("c", 0.7), entry("d", 0.6),
		},
	}}
	repo, _ := New(s, testConfig(), zap.NewNop())

	hits, err := repo.Search(context.Background(), []float32{0.1}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("got %d hits, want k=2", len(hits))
	}
}

func TestSearch_StripsKeyPrefix(t *testing.T) {
	s := &mockSearcher{result: &db.SearchResult{
		Entries: []db.SearchEntry{entry("doc-42", 0.9)},
	}}
	repo, _ := New(s, testConfig(), zap.NewNop())

	hits, err := repo.Search(context.Background(), []float32{0.1}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits[0].Doc.ID != "doc-42" {
		t.Errorf("ID = %q, want prefix stripped", hits[0].Doc.ID)
	}
}

func TestSearch_SkipsMalformedHit(t *testing.T) {
	bad := entry("bad", 0.9)
	bad.Fields = map[string]string{"category": "not-a-category"}
	s := &mockSearcher{result: &db.SearchResult{
		Entries: []db.SearchEntry{bad, entry("good", 0.8)},
	}}
	repo, _ := New(s, testConfig(), zap.NewNop())

	hits, err := repo.Search(context.Background(), []float32{0.1}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].Doc.ID != "good" {
		t.Errorf("hits = %v, want only the well-formed document", hits)
	}
}

func TestSearch_RejectsNonPositiveK(t *testing.T) {
	repo, _ := New(&mockSearcher{}, testConfig(), zap.NewNop())
	if _, err := repo.Search(context.Background(), []float32{0.1}, 0); err == nil {
		t.Fatal("expected error for k=0")
	}
}

func TestSearch_PropagatesIndexError(t *testing.T) {
	s := &mockSearcher{err: errors.New("index dropped")}
	repo, _ := New(s, testConfig(), zap.NewNop())

	if _, err := repo.Search(context.Background(), []float32{0.1}, 3); err == nil {
		t.Fatal("expected error")
	}
}
