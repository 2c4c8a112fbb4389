package verdict

// Category is the machine-readable classification outcome. The calling layer
// branches on it; never on prose.
type Category string

const (
	Safe                Category = "safe"
	NSFW                Category = "nsfw"
	Dangerous           Category = "dangerous"
	MedicationAbuse     Category = "medication-abuse"
	UnsupportedLanguage Category = "unsupported-language"
	MealPlanIntent      Category = "meal-plan-intent"
)

// Severity flags advisory concern levels set by non-short-circuiting rules.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Verdict is the classification result for one request. Produced once per
// request and never persisted by the core.
type Verdict struct {
	Category           Category
	MatchedRule        string
	Severity           Severity
	ShouldShortCircuit bool
}

// Redirect is the fixed-shape payload returned when the classifier halts the
// pipeline instead of continuing to retrieval.
type Redirect struct {
	Message         string   `json:"message"`
	RedirectText    string   `json:"redirect_text"`
	SuggestedAction string   `json:"suggested_action"`
	DetectedIntent  Category `json:"detected_intent"`
}

// RedirectFor maps a short-circuiting verdict to its redirect payload.
func RedirectFor(v Verdict) Redirect {
	switch v.Category {
	case UnsupportedLanguage:
		return Redirect{
			Message:         "This assistant currently supports English messages only.",
			RedirectText:    "Please rephrase your question in English.",
			SuggestedAction: "rephrase_in_english",
			DetectedIntent:  UnsupportedLanguage,
		}
	case NSFW:
		return Redirect{
			Message:         "That topic is outside what this assistant can help with.",
			RedirectText:    "Ask a nutrition or health question instead.",
			SuggestedAction: "ask_health_question",
			DetectedIntent:  NSFW,
		}
	case MealPlanIntent:
		return Redirect{
			Message:         "It looks like you want a personalised meal plan.",
			RedirectText:    "Open the meal planner to build a multi-day plan with your preferences.",
			SuggestedAction: "open_meal_planner",
			DetectedIntent:  MealPlanIntent,
		}
	default:
		return Redirect{
			Message:         "This request cannot be processed.",
			RedirectText:    "Try asking a nutrition or health question.",
			SuggestedAction: "ask_health_question",
			DetectedIntent:  v.Category,
		}
	}
}
