// Package diversity applies a greedy marginal-relevance pass over re-ranked
// candidates so near-duplicate catalog entries do not crowd the final
// context window.
package diversity

import (
	"github.com/poshan-ai/poshan/internal/domain/candidate"
)

// SelectDiverse picks up to k candidates from the ranked input, maximizing
// lambda*relevance + (1-lambda)*(1-maxSimilarityToSelected) at each step.
// The top-ranked candidate is always selected first. At lambda=1 the result
// is the input order truncated to k. lambda outside [0,1] is clamped.
func SelectDiverse(ranked []candidate.ScoredCandidate, k int, lambda float64) []candidate.ScoredCandidate {
	if k <= 0 || len(ranked) == 0 {
		return nil
	}
	if lambda < 0 {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}
	if k > len(ranked) {
		k = len(ranked)
	}

	selected := make([]candidate.ScoredCandidate, 0, k)
	selected = append(selected, ranked[0])

	remaining := make([]candidate.ScoredCandidate, len(ranked)-1)
	copy(remaining, ranked[1:])

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := 0
		bestScore := marginalScore(remaining[0], selected, lambda)
		for i := 1; i < len(remaining); i++ {
			// Strict inequality keeps input order on ties, which is what
			// makes lambda=1 reduce to pure relevance ordering.
			if score := marginalScore(remaining[i], selected, lambda); score > bestScore {
				bestIdx, bestScore = i, score
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

func marginalScore(c candidate.ScoredCandidate, selected []candidate.ScoredCandidate, lambda float64) float64 {
	var maxSim float64
	for _, s := range selected {
		if sim := similarity(c.Doc, s.Doc); sim > maxSim {
			maxSim = sim
		}
	}
	return lambda*c.CombinedScore + (1-lambda)*(1-maxSim)
}
