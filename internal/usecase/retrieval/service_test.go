package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/poshan-ai/poshan/internal/domain"
	"github.com/poshan-ai/poshan/internal/domain/document"
	"github.com/poshan-ai/poshan/internal/domain/query"
	"github.com/poshan-ai/poshan/internal/repository/vecindex"
)

// --- Mocks ---

type mockEmbedder struct {
	mu     sync.Mutex
	err    error
	tokens int
	calls  []string
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, err
	}
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{
		Embedding:   []float32{0.1, 0.2},
		TotalTokens: m.tokens,
	}, nil
}

type mockSearcher struct {
	mu    sync.Mutex
	hits  []vecindex.Hit
	err   error
	calls int
}

func (m *mockSearcher) Search(_ context.Context, _ []float32, _ int) ([]vecindex.Hit, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}

// searcherByCall returns a different result per invocation order. Stage
// goroutines race, so tests using it must not depend on which stage got
// which result; run with concurrency 1 when order matters.
type searcherByCall struct {
	mu    sync.Mutex
	lists [][]vecindex.Hit
	errs  []error
	calls int
}

func (m *searcherByCall) Search(_ context.Context, _ []float32, _ int) ([]vecindex.Hit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.calls
	m.calls++
	if n < len(m.errs) && m.errs[n] != nil {
		return nil, m.errs[n]
	}
	if n < len(m.lists) {
		return m.lists[n], nil
	}
	return nil, nil
}

func testDoc(id string) document.Document {
	return document.Document{ID: id, Text: "text " + id, Category: document.MealTemplate}
}

// --- BuildStages ---

func TestBuildStages_MealSlotsAndGuidance(t *testing.T) {
	stages := BuildStages("light breakfast ideas", nil, nil)

	if len(stages) != 5 {
		t.Fatalf("got %d stages, want 5", len(stages))
	}
	labels := map[string]bool{}
	for _, st := range stages {
		labels[st.StageLabel] = true
	}
	for _, want := range []string{"meal:breakfast", "meal:lunch", "meal:snacks", "meal:dinner", "guidance"} {
		if !labels[want] {
			t.Errorf("missing stage %q", want)
		}
	}
	last := stages[len(stages)-1]
	if last.StageLabel != "guidance" || last.NormalizedText != "light breakfast ideas" {
		t.Errorf("guidance stage = %+v", last)
	}
}

func TestBuildStages_PreferenceHints(t *testing.T) {
	prefs := &query.Preferences{DietType: "vegetarian", Region: "andhra"}
	stages := BuildStages("high protein", prefs, nil)

	if stages[0].NormalizedText != "vegetarian andhra breakfast high protein" {
		t.Errorf("breakfast stage text = %q", stages[0].NormalizedText)
	}
}

func TestBuildStages_HealthContext(t *testing.T) {
	health := &query.HealthContext{
		Symptoms:      []string{"constant fatigue"},
		LabConcerns:   []string{"low hemoglobin"},
		Substitutions: []string{"white rice"},
	}
	stages := BuildStages("feeling tired", nil, health)

	byLabel := map[string]string{}
	for _, st := range stages {
		byLabel[st.StageLabel] = st.NormalizedText
	}

	if got := byLabel["symptom:constant-fatigue"]; got != "dietary guidance for constant fatigue" {
		t.Errorf("symptom stage = %q", got)
	}
	if got := byLabel["lab:low-hemoglobin"]; got != "nutrition guidance for low hemoglobin" {
		t.Errorf("lab stage = %q", got)
	}
	if got := byLabel["substitute:white-rice"]; got != "healthy alternatives to white rice" {
		t.Errorf("substitution stage = %q", got)
	}
}

// --- Retrieve ---

func TestRetrieve_MergesAndSorts(t *testing.T) {
	emb := &mockEmbedder{}
	idx := &mockSearcher{hits: []vecindex.Hit{
		{Doc: testDoc("a"), Score: 0.9},
		{Doc: testDoc("b"), Score: 0.5},
	}}
	svc := New(emb, idx, 5, 2, zap.NewNop())

	cands, err := svc.Retrieve(context.Background(), "breakfast ideas", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2 after dedup", len(cands))
	}
	if cands[0].Doc.ID != "a" || cands[1].Doc.ID != "b" {
		t.Errorf("order = [%s %s], want [a b]", cands[0].Doc.ID, cands[1].Doc.ID)
	}
	// Every stage returned doc "a", so all five labels accumulate.
	if got := len(cands[0].Stages()); got != 5 {
		t.Errorf("doc a matched %d stages, want 5", got)
	}
}

func TestRetrieve_DedupKeepsMaxScore(t *testing.T) {
	emb := &mockEmbedder{}
	idx := &searcherByCall{lists: [][]vecindex.Hit{
		{{Doc: testDoc("a"), Score: 0.4}},
		{{Doc: testDoc("a"), Score: 0.8}},
		{{Doc: testDoc("a"), Score: 0.6}},
	}}
	svc := New(emb, idx, 5, 1, zap.NewNop())

	cands, err := svc.Retrieve(context.Background(), "breakfast", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}
	if cands[0].SemanticScore != 0.8 {
		t.Errorf("SemanticScore = %v, want max 0.8", cands[0].SemanticScore)
	}
	if got := len(cands[0].Stages()); got != 3 {
		t.Errorf("stage labels = %v, want union of 3", cands[0].Stages())
	}
}

func TestRetrieve_StageFailureIsolated(t *testing.T) {
	// One stage's search fails; the other four still deliver.
	emb := &mockEmbedder{}
	idx := &searcherByCall{
		errs: []error{errors.New("index blip")},
		lists: [][]vecindex.Hit{
			nil,
			{{Doc: testDoc("a"), Score: 0.9}},
			{{Doc: testDoc("b"), Score: 0.7}},
		},
	}
	svc := New(emb, idx, 5, 1, zap.NewNop())

	cands, err := svc.Retrieve(context.Background(), "breakfast", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 2 {
		t.Errorf("got %d candidates, want 2 despite one failed stage", len(cands))
	}
}

func TestRetrieve_AllEmbedsFail(t *testing.T) {
	emb := &mockEmbedder{err: fmt.Errorf("provider down: %w", domain.ErrProviderTransient)}
	idx := &mockSearcher{}
	svc := New(emb, idx, 5, 2, zap.NewNop())

	_, err := svc.Retrieve(context.Background(), "breakfast", nil, nil)
	if !errors.Is(err, domain.ErrRetrievalDegraded) {
		t.Fatalf("err = %v, want ErrRetrievalDegraded", err)
	}
	if idx.calls != 0 {
		t.Errorf("search called %d times after embed failures", idx.calls)
	}
}

func TestRetrieve_AllStagesEmpty(t *testing.T) {
	emb := &mockEmbedder{}
	idx := &mockSearcher{hits: nil}
	svc := New(emb, idx, 5, 2, zap.NewNop())

	_, err := svc.Retrieve(context.Background(), "breakfast", nil, nil)
	if !errors.Is(err, domain.ErrRetrievalDegraded) {
		t.Fatalf("err = %v, want ErrRetrievalDegraded", err)
	}
}

func TestRetrieve_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	emb := &mockEmbedder{}
	idx := &mockSearcher{hits: []vecindex.Hit{{Doc: testDoc("a"), Score: 0.9}}}
	svc := New(emb, idx, 5, 2, zap.NewNop())

	_, err := svc.Retrieve(ctx, "breakfast", nil, nil)
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRetrieve_RecordsTokenUsage(t *testing.T) {
	ctx, usage := domain.NewContextWithUsage(context.Background())

	emb := &mockEmbedder{tokens: 7}
	idx := &mockSearcher{hits: []vecindex.Hit{{Doc: testDoc("a"), Score: 0.9}}}
	svc := New(emb, idx, 5, 2, zap.NewNop())

	if _, err := svc.Retrieve(ctx, "breakfast", nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Five stages at 7 tokens each.
	if usage.TotalTokens() != 35 {
		t.Errorf("TotalTokens = %d, want 35", usage.TotalTokens())
	}
}
