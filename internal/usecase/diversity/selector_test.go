package diversity

import (
	"testing"

	"github.com/poshan-ai/poshan/internal/domain/candidate"
	"github.com/poshan-ai/poshan/internal/domain/document"
)

func mealCand(id, region, dietType string, protein, combined float64) candidate.ScoredCandidate {
	c := candidate.New(document.Document{
		ID:       id,
		Text:     "meal " + id,
		Category: document.MealTemplate,
		Attributes: document.Attributes{
			Region:   region,
			DietType: dietType,
			ProteinG: protein,
		},
	}, combined, "meal:lunch")
	c.CombinedScore = combined
	return c
}

func ids(cands []candidate.ScoredCandidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Doc.ID
	}
	return out
}

func TestSelectDiverse_EmptyAndZeroK(t *testing.T) {
	pool := []candidate.ScoredCandidate{mealCand("a", "andhra", "vegetarian", 20, 0.9)}
	if got := SelectDiverse(nil, 3, 0.7); got != nil {
		t.Errorf("empty input: got %v, want nil", got)
	}
	if got := SelectDiverse(pool, 0, 0.7); got != nil {
		t.Errorf("k=0: got %v, want nil", got)
	}
}

func TestSelectDiverse_KCappedToInput(t *testing.T) {
	pool := []candidate.ScoredCandidate{
		mealCand("a", "andhra", "vegetarian", 20, 0.9),
		mealCand("b", "punjabi", "vegan", 10, 0.8),
	}
	got := SelectDiverse(pool, 10, 0.7)
	if len(got) != 2 {
		t.Errorf("got %d results, want 2", len(got))
	}
}

func TestSelectDiverse_TopCandidateAlwaysFirst(t *testing.T) {
	pool := []candidate.ScoredCandidate{
		mealCand("top", "andhra", "vegetarian", 20, 0.95),
		mealCand("b", "punjabi", "vegan", 10, 0.9),
		mealCand("c", "bengali", "eggetarian", 30, 0.85),
	}
	for _, lambda := range []float64{0, 0.5, 1} {
		got := SelectDiverse(pool, 2, lambda)
		if got[0].Doc.ID != "top" {
			t.Errorf("lambda=%v: first = %s, want top", lambda, got[0].Doc.ID)
		}
	}
}

func TestSelectDiverse_LambdaOneIsInputOrder(t *testing.T) {
	pool := []candidate.ScoredCandidate{
		mealCand("a", "andhra", "vegetarian", 20, 0.9),
		mealCand("b", "andhra", "vegetarian", 20, 0.8),
		mealCand("c", "andhra", "vegetarian", 20, 0.8), // tie with b
		mealCand("d", "punjabi", "vegan", 40, 0.7),
	}
	got := ids(SelectDiverse(pool, 3, 1))
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("lambda=1 order = %v, want %v", got, want)
		}
	}
}

func TestSelectDiverse_PenalizesNearDuplicates(t *testing.T) {
	// b is a near-clone of a; d differs on every attribute axis. With
	// diversity in play d displaces b despite the lower relevance.
	pool := []candidate.ScoredCandidate{
		mealCand("a", "andhra", "vegetarian", 20, 0.90),
		mealCand("b", "andhra", "vegetarian", 21, 0.88),
		mealCand("d", "punjabi", "non-vegetarian", 55, 0.60),
	}
	got := ids(SelectDiverse(pool, 2, 0.3))
	if got[0] != "a" || got[1] != "d" {
		t.Errorf("selection = %v, want [a d]", got)
	}
}

func TestSelectDiverse_LambdaZeroSkipsIdenticalSignature(t *testing.T) {
	// An identical attribute signature has similarity 1, so at lambda=0 its
	// marginal score is 0 and any differing candidate wins the second slot.
	pool := []candidate.ScoredCandidate{
		mealCand("a", "andhra", "vegetarian", 20, 0.9),
		mealCand("clone", "andhra", "vegetarian", 20, 0.89),
		mealCand("other", "kerala", "vegan", 35, 0.1),
	}
	got := ids(SelectDiverse(pool, 2, 0))
	if got[1] != "other" {
		t.Errorf("second pick = %s, want other", got[1])
	}
}

func TestSimilarity_IdenticalSignature(t *testing.T) {
	a := mealCand("a", "andhra", "vegetarian", 20, 0.9).Doc
	b := mealCand("b", "andhra", "vegetarian", 20, 0.8).Doc
	if sim := similarity(a, b); sim != 1.0 {
		t.Errorf("identical signature similarity = %v, want 1.0", sim)
	}
}

func TestSimilarity_Disjoint(t *testing.T) {
	a := mealCand("a", "andhra", "vegetarian", 0, 0.9).Doc
	b := document.Document{
		ID:       "g",
		Category: document.MedicalGuidance,
		Attributes: document.Attributes{
			Region:   "kerala",
			DietType: "vegan",
			ProteinG: 50,
			CarbsG:   100,
			FatG:     50,
		},
	}
	if sim := similarity(a, b); sim != 0 {
		t.Errorf("disjoint similarity = %v, want 0", sim)
	}
}

func TestSimilarity_CaseInsensitiveAttributes(t *testing.T) {
	a := mealCand("a", "Andhra", "Vegetarian", 20, 0.9).Doc
	b := mealCand("b", "andhra", "vegetarian", 20, 0.8).Doc
	if sim := similarity(a, b); sim != 1.0 {
		t.Errorf("similarity = %v, want case-insensitive match 1.0", sim)
	}
}
