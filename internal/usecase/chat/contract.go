package chat

import (
	"context"

	"github.com/poshan-ai/poshan/internal/domain/candidate"
	"github.com/poshan-ai/poshan/internal/domain/query"
	"github.com/poshan-ai/poshan/internal/domain/verdict"
)

// Classifier gates the pipeline with a content and intent verdict.
type Classifier interface {
	Classify(raw string) verdict.Verdict
}

// Retriever produces the merged candidate set for a normalized message.
type Retriever interface {
	Retrieve(
		ctx context.Context, normalized string,
		prefs *query.Preferences, health *query.HealthContext,
	) ([]candidate.ScoredCandidate, error)
}
