package query

import "strings"

// Preferences holds the optional structured preferences attached to a request.
type Preferences struct {
	DietType      string  // vegetarian, vegan, eggetarian, non-vegetarian
	DietModifier  string  // ketogenic, low-carb, diabetic-friendly, ...
	Region        string  // Indian state or regional cuisine
	BudgetINR     float64 // per-meal budget, 0 = unconstrained
	ActivityLevel string  // sedentary, moderate, active
}

// carbRestrictedModifiers lists diet modifiers that invert the carbohydrate
// fit direction: lower carbs score higher.
var carbRestrictedModifiers = map[string]bool{
	"ketogenic":         true,
	"keto":              true,
	"low-carb":          true,
	"lchf":              true,
	"diabetic-friendly": true,
}

// CarbRestricted reports whether the preferences call for a
// carbohydrate-restricted diet.
func (p *Preferences) CarbRestricted() bool {
	if p == nil {
		return false
	}
	return carbRestrictedModifiers[strings.ToLower(strings.TrimSpace(p.DietModifier))]
}

// HealthContext carries user health signals that drive medical-guidance
// retrieval stages.
type HealthContext struct {
	Symptoms      []string // e.g. fatigue, bloating
	LabConcerns   []string // e.g. low hemoglobin, high HbA1c
	Substitutions []string // e.g. replace rice with millet
}

// Query is a transient per-stage retrieval unit. Created per pipeline
// invocation and discarded after the call completes.
type Query struct {
	RawText        string
	NormalizedText string
	StageLabel     string
	Preferences    *Preferences
}
