package rank

import (
	"github.com/poshan-ai/poshan/internal/domain/document"
	"github.com/poshan-ai/poshan/internal/domain/query"
)

// Feature sub-score names, used as FeatureScores keys.
const (
	FeatureProtein = "protein"
	FeatureCarbs   = "carbs"
	FeatureGI      = "gi"
	FeatureBudget  = "budget"
	FeatureTime    = "time"
)

// neutralScore is used where a feature does not apply, so guideline and
// medical documents are neither rewarded nor punished on meal attributes.
const neutralScore = 0.5

// Reference points for scaling macro and prep-time attributes of a single meal.
const (
	proteinTargetG = 30.0
	carbTargetG    = 60.0
	prepCapMinutes = 90.0
)

// featureScores maps a candidate's structured attributes to independent
// sub-scores in [0,1]. Only meal templates carry meal attributes; everything
// else scores neutral across the board.
func featureScores(doc document.Document, prefs *query.Preferences) map[string]float64 {
	if doc.Category != document.MealTemplate {
		return map[string]float64{
			FeatureProtein: neutralScore,
			FeatureCarbs:   neutralScore,
			FeatureGI:      neutralScore,
			FeatureBudget:  neutralScore,
			FeatureTime:    neutralScore,
		}
	}

	return map[string]float64{
		FeatureProtein: proteinScore(doc.Attributes.ProteinG),
		FeatureCarbs:   carbScore(doc.Attributes.CarbsG, prefs.CarbRestricted()),
		FeatureGI:      giScore(doc.Attributes.GIBucket),
		FeatureBudget:  budgetScore(doc.Attributes.BudgetINR, prefs),
		FeatureTime:    timeScore(doc.Attributes.PrepMinutes),
	}
}

// proteinScore rewards protein adequacy up to the per-meal target.
func proteinScore(grams float64) float64 {
	if grams <= 0 {
		return 0
	}
	return clamp01(grams / proteinTargetG)
}

// carbScore scores carbohydrate fit. For carb-restricted diets lower carbs
// score higher; otherwise carbs up to the target count as energy adequacy.
func carbScore(grams float64, restricted bool) float64 {
	fill := clamp01(grams / carbTargetG)
	if restricted {
		return 1 - fill
	}
	return fill
}

// giScore favors low-glycemic meals.
func giScore(bucket document.GIBucket) float64 {
	switch bucket {
	case document.GILow:
		return 1.0
	case document.GIMedium:
		return 0.6
	case document.GIHigh:
		return 0.2
	default:
		return neutralScore
	}
}

// budgetScore is 1.0 within the user's per-meal budget, decaying linearly as
// the meal cost exceeds it. Without a budget preference it falls back to a
// mild cheaper-is-better gradient.
func budgetScore(costINR float64, prefs *query.Preferences) float64 {
	if costINR <= 0 {
		return neutralScore
	}
	if prefs == nil || prefs.BudgetINR <= 0 {
		// No stated budget: scale against a generous ₹300 per-meal reference.
		return 1 - clamp01(costINR/300.0)*0.5
	}
	if costINR <= prefs.BudgetINR {
		return 1.0
	}
	overshoot := (costINR - prefs.BudgetINR) / prefs.BudgetINR
	return clamp01(1 - overshoot)
}

// timeScore favors quicker meals, zeroing out at the prep-time cap.
func timeScore(minutes float64) float64 {
	if minutes <= 0 {
		return neutralScore
	}
	return 1 - clamp01(minutes/prepCapMinutes)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
