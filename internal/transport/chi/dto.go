package chi

import (
	"github.com/poshan-ai/poshan/internal/domain/candidate"
	"github.com/poshan-ai/poshan/internal/domain/document"
	"github.com/poshan-ai/poshan/internal/domain/query"
	"github.com/poshan-ai/poshan/internal/domain/verdict"
	"github.com/poshan-ai/poshan/internal/usecase/chat"
	"github.com/poshan-ai/poshan/internal/usecase/ingest"
)

// errorCode is the stable machine-readable code clients branch on.
type errorCode string

const (
	codeBadRequest          errorCode = "bad_request"
	codeValidationFailed    errorCode = "validation_failed"
	codeDocumentNotFound    errorCode = "document_not_found"
	codeVectorDimMismatch   errorCode = "vector_dim_mismatch"
	codeBatchTooLarge       errorCode = "batch_too_large"
	codeContentPolicy       errorCode = "content_policy_violation"
	codeUnsupportedLanguage errorCode = "unsupported_language"
	codeProviderError       errorCode = "provider_error"
	codeIndexUnavailable    errorCode = "index_unavailable"
	codeRetrievalDegraded   errorCode = "retrieval_degraded"
	codeInternalError       errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type preferencesDTO struct {
	DietType      string  `json:"diet_type,omitempty"`
	DietModifier  string  `json:"diet_modifier,omitempty"`
	Region        string  `json:"region,omitempty"`
	BudgetINR     float64 `json:"budget_inr,omitempty"`
	ActivityLevel string  `json:"activity_level,omitempty"`
}

type healthContextDTO struct {
	Symptoms      []string `json:"symptoms,omitempty"`
	LabConcerns   []string `json:"lab_concerns,omitempty"`
	Substitutions []string `json:"substitutions,omitempty"`
}

type chatQueryRequest struct {
	Message       string            `json:"message"`
	TopK          int               `json:"top_k,omitempty"`
	Preferences   *preferencesDTO   `json:"preferences,omitempty"`
	HealthContext *healthContextDTO `json:"health_context,omitempty"`
}

type contextItem struct {
	ID            string             `json:"id"`
	Text          string             `json:"text"`
	Category      string             `json:"category"`
	SemanticScore float64            `json:"semantic_score"`
	CombinedScore float64            `json:"combined_score"`
	FeatureScores map[string]float64 `json:"feature_scores,omitempty"`
	Stages        []string           `json:"stages"`
	Attributes    *attributesDTO     `json:"attributes,omitempty"`
}

type chatQueryResponse struct {
	RequestID string            `json:"request_id"`
	Category  string            `json:"category"`
	Severity  string            `json:"severity,omitempty"`
	Redirect  *verdict.Redirect `json:"redirect,omitempty"`
	Context   []contextItem     `json:"context,omitempty"`
}

type attributesDTO struct {
	DishName    string   `json:"dish_name,omitempty"`
	Region      string   `json:"region,omitempty"`
	DietType    string   `json:"diet_type,omitempty"`
	ProteinG    float64  `json:"protein_g,omitempty"`
	CarbsG      float64  `json:"carbs_g,omitempty"`
	FatG        float64  `json:"fat_g,omitempty"`
	GIBucket    string   `json:"gi_bucket,omitempty"`
	BudgetINR   float64  `json:"budget_inr,omitempty"`
	PrepMinutes float64  `json:"prep_minutes,omitempty"`
	TopicTags   []string `json:"topic_tags,omitempty"`
}

type ingestItemDTO struct {
	ID         string         `json:"id"`
	Text       string         `json:"text"`
	Category   string         `json:"category"`
	Attributes *attributesDTO `json:"attributes,omitempty"`
}

type batchIngestRequest struct {
	Documents []ingestItemDTO `json:"documents"`
}

type batchResultItem struct {
	ID     string         `json:"id"`
	Status string         `json:"status"`
	Error  *errorResponse `json:"error,omitempty"`
}

type batchIngestResponse struct {
	Items     []batchResultItem `json:"items"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func chatRequestFromDTO(req chatQueryRequest) chat.Request {
	out := chat.Request{Message: req.Message, TopK: req.TopK}
	if req.Preferences != nil {
		out.Preferences = &query.Preferences{
			DietType:      req.Preferences.DietType,
			DietModifier:  req.Preferences.DietModifier,
			Region:        req.Preferences.Region,
			BudgetINR:     req.Preferences.BudgetINR,
			ActivityLevel: req.Preferences.ActivityLevel,
		}
	}
	if req.HealthContext != nil {
		out.Health = &query.HealthContext{
			Symptoms:      req.HealthContext.Symptoms,
			LabConcerns:   req.HealthContext.LabConcerns,
			Substitutions: req.HealthContext.Substitutions,
		}
	}
	return out
}

func chatResponseToDTO(resp chat.Response) chatQueryResponse {
	out := chatQueryResponse{
		RequestID: resp.RequestID,
		Category:  string(resp.Verdict.Category),
		Severity:  string(resp.Verdict.Severity),
		Redirect:  resp.Redirect,
	}
	if len(resp.Context) > 0 {
		out.Context = make([]contextItem, len(resp.Context))
		for i := range resp.Context {
			out.Context[i] = contextItemToDTO(&resp.Context[i])
		}
	}
	return out
}

func contextItemToDTO(c *candidate.ScoredCandidate) contextItem {
	return contextItem{
		ID:            c.Doc.ID,
		Text:          c.Doc.Text,
		Category:      string(c.Doc.Category),
		SemanticScore: c.SemanticScore,
		CombinedScore: c.CombinedScore,
		FeatureScores: c.FeatureScores,
		Stages:        c.Stages(),
		Attributes:    attributesToDTO(c.Doc.Attributes),
	}
}

func attributesToDTO(a document.Attributes) *attributesDTO {
	empty := a.DishName == "" && a.Region == "" && a.DietType == "" &&
		a.ProteinG == 0 && a.CarbsG == 0 && a.FatG == 0 && a.GIBucket == "" &&
		a.BudgetINR == 0 && a.PrepMinutes == 0 && len(a.TopicTags) == 0
	if empty {
		return nil
	}
	return &attributesDTO{
		DishName:    a.DishName,
		Region:      a.Region,
		DietType:    a.DietType,
		ProteinG:    a.ProteinG,
		CarbsG:      a.CarbsG,
		FatG:        a.FatG,
		GIBucket:    string(a.GIBucket),
		BudgetINR:   a.BudgetINR,
		PrepMinutes: a.PrepMinutes,
		TopicTags:   a.TopicTags,
	}
}

func ingestItemFromDTO(item ingestItemDTO) ingest.Item {
	out := ingest.Item{
		ID:       item.ID,
		Text:     item.Text,
		Category: document.Category(item.Category),
	}
	if item.Attributes != nil {
		out.Attributes = document.Attributes{
			DishName:    item.Attributes.DishName,
			Region:      item.Attributes.Region,
			DietType:    item.Attributes.DietType,
			ProteinG:    item.Attributes.ProteinG,
			CarbsG:      item.Attributes.CarbsG,
			FatG:        item.Attributes.FatG,
			GIBucket:    document.GIBucket(item.Attributes.GIBucket),
			BudgetINR:   item.Attributes.BudgetINR,
			PrepMinutes: item.Attributes.PrepMinutes,
			TopicTags:   item.Attributes.TopicTags,
		}
	}
	return out
}
