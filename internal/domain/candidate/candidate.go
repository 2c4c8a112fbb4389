package candidate

import (
	"sort"

	"github.com/poshan-ai/poshan/internal/domain/document"
)

// ScoredCandidate is a document reference flowing through the retrieval
// pipeline. Created by retrieval, enriched by the re-ranker, consumed by the
// diversity selector.
type ScoredCandidate struct {
	Doc           document.Document
	SemanticScore float64
	FeatureScores map[string]float64
	CombinedScore float64
	stagesMatched map[string]struct{}
}

// New creates a candidate retrieved by one stage.
func New(doc document.Document, semanticScore float64, stageLabel string) ScoredCandidate {
	return ScoredCandidate{
		Doc:           doc,
		SemanticScore: semanticScore,
		stagesMatched: map[string]struct{}{stageLabel: {}},
	}
}

// AddStage records that another stage also retrieved this document.
func (c *ScoredCandidate) AddStage(label string) {
	if c.stagesMatched == nil {
		c.stagesMatched = make(map[string]struct{})
	}
	c.stagesMatched[label] = struct{}{}
}

// MatchedBy reports whether the given stage retrieved this document.
func (c *ScoredCandidate) MatchedBy(label string) bool {
	_, ok := c.stagesMatched[label]
	return ok
}

// Stages returns the sorted stage labels that retrieved this document.
func (c *ScoredCandidate) Stages() []string {
	labels := make([]string, 0, len(c.stagesMatched))
	for l := range c.stagesMatched {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}
