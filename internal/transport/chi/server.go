// Package chi exposes the pipeline over HTTP with hand-written chi routes.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	chirouter "github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/poshan-ai/poshan/internal/domain"
	"github.com/poshan-ai/poshan/internal/logger"
	"github.com/poshan-ai/poshan/internal/metrics"
	chatuc "github.com/poshan-ai/poshan/internal/usecase/chat"
	healthuc "github.com/poshan-ai/poshan/internal/usecase/health"
	ingestuc "github.com/poshan-ai/poshan/internal/usecase/ingest"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API over the pipeline, ingestion, and health usecases.
type Server struct {
	chat          *chatuc.Service
	ingest        *ingestuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	chat *chatuc.Service,
	ingest *ingestuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		chat:   chat,
		ingest: ingest,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrBatchTooLarge, http.StatusBadRequest, codeBatchTooLarge),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, codeVectorDimMismatch),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, codeDocumentNotFound),
		sentinelHandler(domain.ErrContentPolicy, http.StatusUnprocessableEntity, codeContentPolicy),
		sentinelHandler(domain.ErrUnsupportedLanguage, http.StatusUnprocessableEntity, codeUnsupportedLanguage),
		sentinelHandler(domain.ErrProviderTransient, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, codeIndexUnavailable),
		sentinelHandler(domain.ErrRetrievalDegraded, http.StatusServiceUnavailable, codeRetrievalDegraded),
	}
	return s
}

// Router builds the chi router with middleware and all routes.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chirouter.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.loggerInjector())
	r.Use(metrics.Middleware())
	r.Use(BearerAuthMiddleware(apiKeys))

	r.Post("/v1/chat/query", s.handleChatQuery)
	r.Post("/v1/documents:batch", s.handleBatchIngest)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

// loggerInjector stores a request-scoped logger in the context so downstream
// handlers log with the request id attached.
func (s *Server) loggerInjector() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLog := s.logger.With(zap.String("request_id", chimiddleware.GetReqID(r.Context())))
			next.ServeHTTP(w, r.WithContext(logger.ContextWithLogger(r.Context(), reqLog)))
		})
	}
}

// handleChatQuery runs the full pipeline for one message. Short-circuited
// requests are successful responses carrying the redirect payload; clients
// branch on the category, never on prose.
func (s *Server) handleChatQuery(w http.ResponseWriter, r *http.Request) {
	var req chatQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := s.chat.Query(ctx, chatRequestFromDTO(req))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, chatResponseToDTO(resp))
}

// handleBatchIngest ingests a document batch with per-item results.
func (s *Server) handleBatchIngest(w http.ResponseWriter, r *http.Request) {
	var req batchIngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	items := make([]ingestuc.Item, len(req.Documents))
	for i, d := range req.Documents {
		items[i] = ingestItemFromDTO(d)
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.ingest.Ingest(ctx, items)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	resp := batchIngestResponse{Items: make([]batchResultItem, len(results))}
	for i, res := range results {
		item := batchResultItem{ID: res.ID, Status: string(res.Status)}
		if res.Err != nil {
			item.Error = &errorResponse{
				Code:    batchErrorCode(res.Err),
				Message: safeDomainMessage(res.Err),
			}
			resp.Failed++
		} else {
			resp.Succeeded++
		}
		resp.Items[i] = item
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleHealth reports aggregated readiness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage.Used() {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens()))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrBatchTooLarge,
		domain.ErrVectorDimMismatch,
		domain.ErrDocumentNotFound,
		domain.ErrContentPolicy,
		domain.ErrUnsupportedLanguage,
		domain.ErrProviderTransient,
		domain.ErrIndexUnavailable,
		domain.ErrRetrievalDegraded,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func batchErrorCode(err error) errorCode {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return codeValidationFailed
	case errors.Is(err, domain.ErrVectorDimMismatch):
		return codeVectorDimMismatch
	case errors.Is(err, domain.ErrProviderTransient):
		return codeProviderError
	default:
		return codeInternalError
	}
}
