package rank

import (
	"strings"

	"github.com/poshan-ai/poshan/internal/domain/query"
)

// Weights distributes scoring mass across the semantic score and the five
// feature sub-scores. Every constructor in this package keeps the sum at
// exactly 1.0, the re-ranker depends on it.
type Weights struct {
	Semantic float64
	Protein  float64
	Carbs    float64
	GI       float64
	Budget   float64
	Time     float64
}

// Sum returns the total scoring mass.
func (w Weights) Sum() float64 {
	return w.Semantic + w.Protein + w.Carbs + w.GI + w.Budget + w.Time
}

// DefaultWeights favors semantic similarity over structured features.
func DefaultWeights() Weights {
	return Weights{
		Semantic: 0.55,
		Protein:  0.12,
		Carbs:    0.08,
		GI:       0.08,
		Budget:   0.09,
		Time:     0.08,
	}
}

var proteinTerms = []string{"protein", "muscle", "gym", "workout", "strength"}

var budgetTerms = []string{"budget", "cheap", "affordable", "inexpensive", "economical", "rupee", "₹", " rs ", " rs."}

// WeightsFor derives query-dependent weights. Shifts move mass out of the
// semantic weight so the sum stays 1.0 in every branch.
func WeightsFor(queryText string, prefs *query.Preferences) Weights {
	w := DefaultWeights()
	text := " " + strings.ToLower(queryText) + " "

	if containsAny(text, proteinTerms) {
		w.Semantic -= 0.15
		w.Protein += 0.15
	}
	if containsAny(text, budgetTerms) || (prefs != nil && prefs.BudgetINR > 0) {
		w.Semantic -= 0.15
		w.Budget += 0.15
	}
	if prefs.CarbRestricted() {
		w.Semantic -= 0.12
		w.Carbs += 0.12
	}

	return w
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}
