// Package rank rescales semantic similarity against structured meal features
// using query-dependent weights.
package rank

import (
	"sort"

	"github.com/poshan-ai/poshan/internal/domain/candidate"
	"github.com/poshan-ai/poshan/internal/domain/query"
)

// ReRank computes feature sub-scores and a weighted combined score for each
// candidate, then sorts by combined score descending. The input slice is
// annotated in place and returned.
func ReRank(
	cands []candidate.ScoredCandidate,
	queryText string,
	prefs *query.Preferences,
) []candidate.ScoredCandidate {
	w := WeightsFor(queryText, prefs)

	for i := range cands {
		c := &cands[i]
		c.FeatureScores = featureScores(c.Doc, prefs)
		c.CombinedScore = w.Semantic*c.SemanticScore +
			w.Protein*c.FeatureScores[FeatureProtein] +
			w.Carbs*c.FeatureScores[FeatureCarbs] +
			w.GI*c.FeatureScores[FeatureGI] +
			w.Budget*c.FeatureScores[FeatureBudget] +
			w.Time*c.FeatureScores[FeatureTime]
	}

	sort.SliceStable(cands, func(a, b int) bool {
		if cands[a].CombinedScore != cands[b].CombinedScore {
			return cands[a].CombinedScore > cands[b].CombinedScore
		}
		return cands[a].SemanticScore > cands[b].SemanticScore
	})

	return cands
}
