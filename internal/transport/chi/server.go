// Package chi is the HTTP transport: request decoding, error mapping and
// route registration for the query API.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fixhub-ai/partsearch/internal/domain"
	"github.com/fixhub-ai/partsearch/internal/domain/conversation"
	"github.com/fixhub-ai/partsearch/internal/domain/intent"
	"github.com/fixhub-ai/partsearch/internal/domain/search/result"
	healthuc "github.com/fixhub-ai/partsearch/internal/usecase/health"
	"github.com/fixhub-ai/partsearch/internal/usecase/session"
)

// Retriever answers a classified query with a ranked result list.
type Retriever interface {
	Retrieve(
		ctx context.Context, sessionID, query string,
		in intent.Intent, entities map[string]string,
	) ([]result.Ranked, error)
}

// ConversationStore exposes per-session turn history.
type ConversationStore interface {
	Get(sessionID string) session.Context
	RecordTurn(sessionID string, turn conversation.Turn)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server handles the query API over chi.
type Server struct {
	retriever     Retriever
	sessions      ConversationStore
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(retriever Retriever, sessions ConversationStore, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		retriever: retriever,
		sessions:  sessions,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnsupportedIntent, http.StatusUnprocessableEntity, CodeUnsupportedIntent),
		sentinelHandler(domain.ErrCollectionNotFound, http.StatusNotFound, CodeCollectionNotFound),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProvider),
		sentinelHandler(domain.ErrCollectionUnavailable, http.StatusServiceUnavailable, CodeRetrievalUnavailable),
	}
	return s
}

// Register mounts the API routes onto a router.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/query", s.Query)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Post("/turns", s.RecordTurn)
		})
	})
}

// Query handles POST /api/v1/query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Query == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "query is required")
		return
	}
	in := intent.Intent(req.Intent)
	if !in.IsValid() {
		writeError(w, http.StatusUnprocessableEntity, CodeUnsupportedIntent,
			"intent "+req.Intent+" is outside the supported scope")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if turn, err := conversation.NewTurn(conversation.RoleUser, req.Query, nowUTC()); err == nil {
		s.sessions.RecordTurn(sessionID, turn)
	}

	ranked, err := s.retriever.Retrieve(r.Context(), sessionID, req.Query, in, req.Entities)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]ResultItem, len(ranked))
	for i := range ranked {
		items[i] = rankedToItem(ranked[i])
	}

	writeJSON(w, http.StatusOK, QueryResponse{
		SessionID: sessionID,
		Results:   items,
		Total:     len(items),
	})
}

// GetSession handles GET /api/v1/sessions/{sessionID}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	snap := s.sessions.Get(sessionID)

	turns := make([]TurnItem, len(snap.Turns))
	for i, t := range snap.Turns {
		turns[i] = TurnItem{Role: string(t.Role()), Text: t.Text(), At: t.At()}
	}

	resp := SessionResponse{SessionID: sessionID, Turns: turns}
	if snap.LastSearch != nil {
		resp.LastQuery = snap.LastSearch.Query
	}

	writeJSON(w, http.StatusOK, resp)
}

// RecordTurn handles POST /api/v1/sessions/{sessionID}/turns. The caller
// records assistant replies here so follow-up context stays complete.
func (s *Server) RecordTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	turn, err := conversation.NewTurn(conversation.Role(req.Role), req.Text, nowUTC())
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	s.sessions.RecordTurn(sessionID, turn)
	writeJSON(w, http.StatusCreated, TurnItem{Role: string(turn.Role()), Text: turn.Text(), At: turn.At()})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrUnsupportedIntent,
		domain.ErrCollectionNotFound,
		domain.ErrCollectionUnavailable,
		domain.ErrRateLimited,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func rankedToItem(r result.Ranked) ResultItem {
	return ResultItem{
		ID:         r.ID(),
		Score:      r.FinalScore(),
		Rank:       r.FinalRank(),
		Collection: r.Collection(),
		Text:       r.Text(),
		Tags:       r.Tags(),
		Numerics:   r.Numerics(),
	}
}

func nowUTC() time.Time { return time.Now().UTC() }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
