package sdk

// Document categories accepted by Ingest.
const (
	CategoryMealTemplate       = "meal-template"
	CategoryNutritionGuideline = "nutrition-guideline"
	CategoryMedicalGuidance    = "medical-guidance"
)

// Attributes holds the structured features of a corpus document.
type Attributes struct {
	DishName    string
	Region      string
	DietType    string
	ProteinG    float64
	CarbsG      float64
	FatG        float64
	GIBucket    string // low, medium, high
	BudgetINR   float64
	PrepMinutes float64
	TopicTags   []string
}

// Document is one corpus entry to ingest, before embedding.
type Document struct {
	ID         string
	Text       string
	Category   string
	Attributes Attributes
}

// IngestResult is the outcome of one item in a batch ingestion.
type IngestResult struct {
	ID  string
	OK  bool
	Err error
}

// Preferences holds optional structured preferences for a query.
type Preferences struct {
	DietType      string
	DietModifier  string
	Region        string
	BudgetINR     float64
	ActivityLevel string
}

// HealthContext carries user health signals that drive medical-guidance
// retrieval stages.
type HealthContext struct {
	Symptoms      []string
	LabConcerns   []string
	Substitutions []string
}

// QueryOptions tunes a single Query call.
type QueryOptions struct {
	Preferences   *Preferences
	HealthContext *HealthContext
	TopK          int // 0 = client default
}

// Verdict is the classification outcome for a message.
type Verdict struct {
	Category     string
	MatchedRule  string
	Severity     string
	ShortCircuit bool
}

// Redirect is the fixed-shape payload returned when the classifier halts
// the pipeline.
type Redirect struct {
	Message         string
	RedirectText    string
	SuggestedAction string
	DetectedIntent  string
}

// ContextItem is one ranked, diversified retrieval result.
type ContextItem struct {
	ID            string
	Text          string
	Category      string
	SemanticScore float64
	CombinedScore float64
	FeatureScores map[string]float64
	Stages        []string
	Attributes    Attributes
}

// QueryResult is the pipeline outcome for one message. Exactly one of
// Redirect and Context is set.
type QueryResult struct {
	RequestID string
	Verdict   Verdict
	Redirect  *Redirect
	Context   []ContextItem
}

// HealthReport aggregates component readiness.
type HealthReport struct {
	Status string // ok, degraded, error
	Checks map[string]string
}
