package diversity

import (
	"strings"

	"github.com/poshan-ai/poshan/internal/domain/document"
)

// Normalization references for macro distance. A macro gap at or beyond the
// reference counts as fully dissimilar on that axis.
const (
	proteinRefG = 50.0
	carbRefG    = 100.0
	fatRefG     = 50.0
)

// similarity computes catalog-level pairwise similarity in [0,1] from shared
// structured attributes. Embeddings are deliberately not consulted; two
// different dishes can be semantically close and still belong in the same
// context window.
func similarity(a, b document.Document) float64 {
	var sim float64
	if equalFold(a.Attributes.Region, b.Attributes.Region) {
		sim += 0.25
	}
	if a.Category == b.Category {
		sim += 0.25
	}
	if equalFold(a.Attributes.DietType, b.Attributes.DietType) {
		sim += 0.25
	}
	sim += 0.25 * macroCloseness(a.Attributes, b.Attributes)
	return sim
}

// macroCloseness is 1 for identical macros, falling toward 0 as the
// per-axis gaps approach the normalization references.
func macroCloseness(a, b document.Attributes) float64 {
	dist := (abs(a.ProteinG-b.ProteinG)/proteinRefG +
		abs(a.CarbsG-b.CarbsG)/carbRefG +
		abs(a.FatG-b.FatG)/fatRefG) / 3
	if dist > 1 {
		dist = 1
	}
	return 1 - dist
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
