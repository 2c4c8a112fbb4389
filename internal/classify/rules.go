package classify

import (
	"regexp"

	"github.com/poshan-ai/poshan/internal/domain/verdict"
)

// Rule is one entry in the ordered classification decision list. Rules are
// immutable after process start; there is no runtime mutation path.
type Rule struct {
	Category      verdict.Category
	Name          string
	Pattern       *regexp.Regexp
	Severity      verdict.Severity
	ShortCircuits bool
}

// DefaultRules returns the ordered rule list. Order matters: the first
// matching short-circuiting rule (regional-language, nsfw) wins; dangerous
// and medication-abuse rules only raise severity; meal-plan-intent rules are
// collected across all text variants.
func DefaultRules() []Rule {
	return []Rule{
		// Regional-language detection via script ranges. The assistant only
		// handles English; Indic-script messages get a redirect.
		{
			Category:      verdict.UnsupportedLanguage,
			Name:          "indic-script",
			Pattern:       regexp.MustCompile(`[\x{0900}-\x{097F}\x{0980}-\x{09FF}\x{0A00}-\x{0A7F}\x{0A80}-\x{0AFF}\x{0B80}-\x{0BFF}\x{0C00}-\x{0C7F}\x{0C80}-\x{0CFF}\x{0D00}-\x{0D7F}]`),
			Severity:      verdict.SeverityNone,
			ShortCircuits: true,
		},

		// NSFW detection.
		{
			Category:      verdict.NSFW,
			Name:          "nsfw-terms",
			Pattern:       regexp.MustCompile(`\b(sex|sexual|sexy|porn|pornography|nude|naked|nsfw|erotic|xxx)\b`),
			Severity:      verdict.SeverityHigh,
			ShortCircuits: true,
		},

		// Dangerous-topic detection. No short-circuit: a downstream
		// collaborator decides whether to recommend professional help.
		{
			Category: verdict.Dangerous,
			Name:     "self-harm",
			Pattern:  regexp.MustCompile(`\b(suicide|suicidal|kill (myself|me)|self[- ]harm|hurt myself)\b`),
			Severity: verdict.SeverityCritical,
		},
		{
			Category: verdict.Dangerous,
			Name:     "disordered-eating",
			Pattern:  regexp.MustCompile(`\b(starv(e|ing) (myself|to)|purging|anorexi[ac]\w*|bulimi[ac]\w*|zero calorie diet)\b`),
			Severity: verdict.SeverityCritical,
		},
		{
			Category: verdict.Dangerous,
			Name:     "extreme-fasting",
			Pattern:  regexp.MustCompile(`\b(water fast(ing)? for \d+|dry fast(ing)?|not eat(en|ing)? for \d+ days)\b`),
			Severity: verdict.SeverityHigh,
		},

		// Medication-abuse detection. Severity only.
		{
			Category: verdict.MedicationAbuse,
			Name:     "dose-tampering",
			Pattern:  regexp.MustCompile(`\b(double|triple|extra) (dose|doses|my insulin|my medication|my meds)\b`),
			Severity: verdict.SeverityCritical,
		},
		{
			Category: verdict.MedicationAbuse,
			Name:     "overdose",
			Pattern:  regexp.MustCompile(`\boverdos(e|ing)\b`),
			Severity: verdict.SeverityCritical,
		},
		{
			Category: verdict.MedicationAbuse,
			Name:     "medication-stopping",
			Pattern:  regexp.MustCompile(`\b(skip|stop|quit) (my )?(insulin|medication|meds|thyroxine|metformin)\b`),
			Severity: verdict.SeverityHigh,
		},
		{
			Category: verdict.MedicationAbuse,
			Name:     "off-label-weight-loss",
			Pattern:  regexp.MustCompile(`\b(insulin|metformin|thyroxine|laxatives?) (for|to) (weight loss|lose weight|get thin)\b`),
			Severity: verdict.SeverityHigh,
		},

		// Meal-plan intent: explicit phrasings.
		{
			Category:      verdict.MealPlanIntent,
			Name:          "explicit-meal-plan",
			Pattern:       regexp.MustCompile(`\b(meal ?plan(ner)?|diet ?(chart|plan)|food ?chart|weekly menu|menu for the week)\b`),
			ShortCircuits: true,
		},
		// Implicit phrasings.
		{
			Category:      verdict.MealPlanIntent,
			Name:          "implicit-what-to-eat",
			Pattern:       regexp.MustCompile(`\bwhat (should|can|do|could) i (eat|cook|have)\b`),
			ShortCircuits: true,
		},
		{
			Category:      verdict.MealPlanIntent,
			Name:          "implicit-suggest-food",
			Pattern:       regexp.MustCompile(`\b(suggest|recommend|give me) .*\b(food|foods|meal|meals|dish|dishes|recipes)\b`),
			ShortCircuits: true,
		},
		// Regional cuisine requests.
		{
			Category:      verdict.MealPlanIntent,
			Name:          "regional-cuisine",
			Pattern:       regexp.MustCompile(`\b(andhra|telangana|bengali|gujarati|punjabi|kerala|tamil|maharashtrian|rajasthani|south indian|north indian) (food|foods|meal|meals|dish|dishes|cuisine|thali)\b`),
			ShortCircuits: true,
		},
		// Duration-specific requests.
		{
			Category:      verdict.MealPlanIntent,
			Name:          "duration-plan",
			Pattern:       regexp.MustCompile(`\b(\d+|seven|ten|thirty)[- ]day\b.*\b(diet|meal|meals|food|eating)\b|\b(diet|meal|meals|food|eat)\b.*\bfor (the|this|next) (week|month|whole week)\b`),
			ShortCircuits: true,
		},
		// Diagnosis-specific requests.
		{
			Category:      verdict.MealPlanIntent,
			Name:          "diagnosis-diet",
			Pattern:       regexp.MustCompile(`\b(diabet\w+|pcos|pcod|thyroid|hypertension|cholesterol|an[ae]mi[ac]|fatty liver)\b.*\b(diet|eat|food|meal|meals)\b`),
			ShortCircuits: true,
		},
	}
}

// foodWords and timeMarkers drive the contextual meal-plan heuristic: a food
// mention plus at least two distinct time-of-day markers reads as a day-plan
// request. Thresholds are tunable, not a correctness contract.
var (
	foodWords = regexp.MustCompile(`\b(food|eat|eating|meal|meals|breakfast|lunch|dinner|snack|snacks|roti|rice|dal|curry|tiffin)\b`)

	timeMarkers = []*regexp.Regexp{
		regexp.MustCompile(`\bmorning\b`),
		regexp.MustCompile(`\bafternoon\b`),
		regexp.MustCompile(`\b(night|evening)\b`),
	}
)
