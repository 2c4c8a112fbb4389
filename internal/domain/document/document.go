package document

import (
	"fmt"
	"regexp"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxTextSize is the maximum document text size in bytes.
const MaxTextSize = 32768 // 32KB

// Category identifies which part of the corpus a document belongs to.
type Category string

const (
	// MealTemplate is a concrete dish or meal with macro and cost attributes.
	MealTemplate Category = "meal-template"
	// NutritionGuideline is general dietary guidance text.
	NutritionGuideline Category = "nutrition-guideline"
	// MedicalGuidance is a symptom, lab-marker, or substitution snippet.
	MedicalGuidance Category = "medical-guidance"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case MealTemplate, NutritionGuideline, MedicalGuidance:
		return true
	}
	return false
}

// GIBucket is a coarse glycemic-index classification.
type GIBucket string

const (
	GILow    GIBucket = "low"
	GIMedium GIBucket = "medium"
	GIHigh   GIBucket = "high"
)

// Attributes holds the structured features of a corpus document.
// Meal templates populate the dish fields; medical entries populate TopicTags.
type Attributes struct {
	DishName    string
	Region      string
	DietType    string // vegetarian, vegan, eggetarian, non-vegetarian
	ProteinG    float64
	CarbsG      float64
	FatG        float64
	GIBucket    GIBucket
	BudgetINR   float64 // approximate cost per serving
	PrepMinutes float64
	TopicTags   []string // symptom, lab marker, cuisine substitution
}

// Document is an immutable corpus entry. Documents are write-once at
// ingestion time; the retrieval pipeline only reads them.
type Document struct {
	ID         string
	Text       string
	Category   Category
	Attributes Attributes
	Vector     []float32
}

// New validates and creates a Document without a vector; the ingestion path
// attaches the embedding before persisting.
func New(id, text string, category Category, attrs Attributes) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if len(id) > 256 {
		return Document{}, fmt.Errorf("document ID too long (max 256)")
	}
	if !idRegex.MatchString(id) {
		return Document{}, fmt.Errorf("document ID must be alphanumeric with underscores and hyphens")
	}
	if text == "" {
		return Document{}, fmt.Errorf("text is required")
	}
	if len(text) > MaxTextSize {
		return Document{}, fmt.Errorf("text too large (max %d bytes)", MaxTextSize)
	}
	if !category.Valid() {
		return Document{}, fmt.Errorf("unknown category %q", category)
	}

	return Document{ID: id, Text: text, Category: category, Attributes: attrs}, nil
}

// WithVector returns a copy of the document with its embedding attached.
func (d Document) WithVector(vec []float32) Document {
	d.Vector = vec
	return d
}
