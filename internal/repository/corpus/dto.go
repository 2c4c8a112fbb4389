package corpus

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/poshan-ai/poshan/internal/db/redis"
	"github.com/poshan-ai/poshan/internal/domain/document"
)

// Hash field names. The FT index schema in repo.go must stay in sync.
const (
	fieldText        = "text"
	fieldCategory    = "category"
	fieldDishName    = "dish_name"
	fieldRegion      = "region"
	fieldDietType    = "diet_type"
	fieldProteinG    = "protein_g"
	fieldCarbsG      = "carbs_g"
	fieldFatG        = "fat_g"
	fieldGIBucket    = "gi_bucket"
	fieldBudgetINR   = "budget_inr"
	fieldPrepMinutes = "prep_minutes"
	fieldTopicTags   = "topic_tags"
	fieldVector      = "vector"
)

const tagSeparator = ","

// ReturnFields lists the hash fields retrieval needs back from FT.SEARCH.
// The vector itself stays in Redis; candidates only carry scores.
func ReturnFields() []string {
	return []string{
		fieldText, fieldCategory, fieldDishName, fieldRegion, fieldDietType,
		fieldProteinG, fieldCarbsG, fieldFatG, fieldGIBucket,
		fieldBudgetINR, fieldPrepMinutes, fieldTopicTags,
	}
}

func fieldsFromDocument(doc document.Document) map[string]string {
	a := doc.Attributes
	fields := map[string]string{
		fieldText:        doc.Text,
		fieldCategory:    string(doc.Category),
		fieldDishName:    a.DishName,
		fieldRegion:      a.Region,
		fieldDietType:    a.DietType,
		fieldProteinG:    formatFloat(a.ProteinG),
		fieldCarbsG:      formatFloat(a.CarbsG),
		fieldFatG:        formatFloat(a.FatG),
		fieldGIBucket:    string(a.GIBucket),
		fieldBudgetINR:   formatFloat(a.BudgetINR),
		fieldPrepMinutes: formatFloat(a.PrepMinutes),
		fieldTopicTags:   strings.Join(a.TopicTags, tagSeparator),
	}
	if len(doc.Vector) > 0 {
		fields[fieldVector] = redis.VectorToBytes(doc.Vector)
	}
	return fields
}

// DocumentFromFields hydrates a Document from hash fields. Shared with the
// vector index repository, which receives the same fields from FT.SEARCH.
func DocumentFromFields(id string, fields map[string]string) (document.Document, error) {
	category := document.Category(fields[fieldCategory])
	if !category.Valid() {
		return document.Document{}, fmt.Errorf("document %s: unknown category %q", id, fields[fieldCategory])
	}

	attrs := document.Attributes{
		DishName:    fields[fieldDishName],
		Region:      fields[fieldRegion],
		DietType:    fields[fieldDietType],
		ProteinG:    parseFloat(fields[fieldProteinG]),
		CarbsG:      parseFloat(fields[fieldCarbsG]),
		FatG:        parseFloat(fields[fieldFatG]),
		GIBucket:    document.GIBucket(fields[fieldGIBucket]),
		BudgetINR:   parseFloat(fields[fieldBudgetINR]),
		PrepMinutes: parseFloat(fields[fieldPrepMinutes]),
	}
	if tags := fields[fieldTopicTags]; tags != "" {
		attrs.TopicTags = strings.Split(tags, tagSeparator)
	}

	doc := document.Document{
		ID:         id,
		Text:       fields[fieldText],
		Category:   category,
		Attributes: attrs,
	}

	if raw, ok := fields[fieldVector]; ok && raw != "" {
		vec, err := redis.BytesToVector(raw)
		if err != nil {
			return document.Document{}, fmt.Errorf("document %s: %w", id, err)
		}
		doc.Vector = vec
	}

	return doc, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
