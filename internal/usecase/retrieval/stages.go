package retrieval

import (
	"strings"

	"github.com/poshan-ai/poshan/internal/domain/query"
)

// mealSlots are the fixed topical stages every retrieval call issues.
var mealSlots = []string{"breakfast", "lunch", "snacks", "dinner"}

// BuildStages computes the stage query set for one retrieval call: one query
// per meal slot, one per symptom, lab concern, and substitution need from the
// health context, and a general-guidance query over the text as given.
func BuildStages(normalized string, prefs *query.Preferences, health *query.HealthContext) []query.Query {
	stages := make([]query.Query, 0, len(mealSlots)+4)
	hints := prefHints(prefs)

	for _, slot := range mealSlots {
		stages = append(stages, query.Query{
			NormalizedText: joinNonEmpty(hints, slot, normalized),
			StageLabel:     "meal:" + slot,
			Preferences:    prefs,
		})
	}

	if health != nil {
		for _, s := range health.Symptoms {
			stages = append(stages, query.Query{
				NormalizedText: joinNonEmpty("dietary guidance for", s),
				StageLabel:     "symptom:" + slug(s),
				Preferences:    prefs,
			})
		}
		for _, l := range health.LabConcerns {
			stages = append(stages, query.Query{
				NormalizedText: joinNonEmpty("nutrition guidance for", l),
				StageLabel:     "lab:" + slug(l),
				Preferences:    prefs,
			})
		}
		for _, sub := range health.Substitutions {
			stages = append(stages, query.Query{
				NormalizedText: joinNonEmpty("healthy alternatives to", sub),
				StageLabel:     "substitute:" + slug(sub),
				Preferences:    prefs,
			})
		}
	}

	stages = append(stages, query.Query{
		NormalizedText: normalized,
		StageLabel:     "guidance",
		Preferences:    prefs,
	})

	return stages
}

// prefHints renders diet type and region into query-text hints so meal-slot
// stages land near regionally and dietarily appropriate templates.
func prefHints(prefs *query.Preferences) string {
	if prefs == nil {
		return ""
	}
	return joinNonEmpty(prefs.DietType, prefs.DietModifier, prefs.Region)
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// slug turns free text into a stable stage-label suffix.
func slug(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}
