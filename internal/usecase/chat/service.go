// Package chat runs the full request pipeline: normalize, classify,
// retrieve, re-rank, and diversify, or short-circuit with a redirect.
package chat

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/poshan-ai/poshan/internal/domain"
	"github.com/poshan-ai/poshan/internal/domain/candidate"
	"github.com/poshan-ai/poshan/internal/domain/query"
	"github.com/poshan-ai/poshan/internal/domain/verdict"
	"github.com/poshan-ai/poshan/internal/metrics"
	"github.com/poshan-ai/poshan/internal/normalize"
	"github.com/poshan-ai/poshan/internal/usecase/diversity"
	"github.com/poshan-ai/poshan/internal/usecase/rank"
)

// MaxMessageSize is the maximum accepted message length in bytes.
const MaxMessageSize = 4096

// maxTopK caps per-request result count overrides.
const maxTopK = 50

// Request is one user message plus optional structured context.
type Request struct {
	Message     string
	Preferences *query.Preferences
	Health      *query.HealthContext
	TopK        int // 0 = service default
}

// Response is the pipeline outcome. Exactly one of Redirect and Context is
// set: a short-circuited request carries the redirect payload, everything
// else carries the ranked retrieval context.
type Response struct {
	RequestID string
	Verdict   verdict.Verdict
	Redirect  *verdict.Redirect
	Context   []candidate.ScoredCandidate
}

// Service wires the pipeline components together per request.
type Service struct {
	classifier  Classifier
	retriever   Retriever
	defaultTopK int
	lambda      float64
	logger      *zap.Logger
}

// New creates the pipeline service. lambda is the diversity trade-off in
// [0,1], validated by config before it gets here.
func New(classifier Classifier, retriever Retriever, defaultTopK int, lambda float64, logger *zap.Logger) *Service {
	if defaultTopK <= 0 {
		defaultTopK = 8
	}
	return &Service{
		classifier:  classifier,
		retriever:   retriever,
		defaultTopK: defaultTopK,
		lambda:      lambda,
		logger:      logger,
	}
}

// Query runs one message through the pipeline.
func (s *Service) Query(ctx context.Context, req Request) (Response, error) {
	if err := validate(req); err != nil {
		return Response{}, err
	}

	resp := Response{RequestID: uuid.NewString()}

	v := s.classifier.Classify(req.Message)
	resp.Verdict = v
	metrics.ClassificationsTotal.
		WithLabelValues(string(v.Category), strconv.FormatBool(v.ShouldShortCircuit)).Inc()

	log := s.logger.With(
		zap.String("request_id", resp.RequestID),
		zap.String("category", string(v.Category)),
	)

	if v.ShouldShortCircuit {
		r := verdict.RedirectFor(v)
		resp.Redirect = &r
		log.Info("Request short-circuited", zap.String("rule", v.MatchedRule))
		return resp, nil
	}

	normalized := normalize.Normalize(req.Message)

	cands, err := s.retriever.Retrieve(ctx, normalized, req.Preferences, req.Health)
	if err != nil {
		return Response{}, fmt.Errorf("retrieve context: %w", err)
	}

	ranked := rank.ReRank(cands, normalized, req.Preferences)
	resp.Context = diversity.SelectDiverse(ranked, s.topK(req), s.lambda)

	log.Info("Pipeline completed",
		zap.Int("candidates", len(cands)),
		zap.Int("selected", len(resp.Context)),
	)
	return resp, nil
}

func (s *Service) topK(req Request) int {
	if req.TopK <= 0 {
		return s.defaultTopK
	}
	if req.TopK > maxTopK {
		return maxTopK
	}
	return req.TopK
}

func validate(req Request) error {
	if req.Message == "" {
		return fmt.Errorf("message is required: %w", domain.ErrValidation)
	}
	if len(req.Message) > MaxMessageSize {
		return fmt.Errorf("message too large (max %d bytes): %w", MaxMessageSize, domain.ErrValidation)
	}
	return nil
}
