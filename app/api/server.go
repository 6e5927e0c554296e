package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"GoLetterAI/app/letters"
	"GoLetterAI/app/services"
	"GoLetterAI/app/storage"
	"GoLetterAI/app/teams"
	"GoLetterAI/app/workflow"
)

const (
	maxBodyBytes     = 1 << 20
	defaultAuditTail = 100
)

// LetterService is what the HTTP layer needs from services.Service.
type LetterService interface {
	Draft(ctx context.Context, req letters.Request) (*services.DraftResponse, error)
	SuggestType(ctx context.Context, userPrompt string) (*letters.TypeSuggestion, error)
	ValidateLetter(ctx context.Context, content, letterType string) (*letters.ValidationResult, error)
	GetLetter(ctx context.Context, id string) (*letters.Document, error)
	ListLetters(ctx context.Context, filter storage.Filter) ([]letters.Document, error)
	UpdateStatus(ctx context.Context, id, status string) (*letters.Document, error)
	DeleteLetter(ctx context.Context, id string) error
	Conversation(ctx context.Context, id string) ([]teams.ConversationEntry, error)
	Health(ctx context.Context) services.HealthReport
}

// AuditSource is anything that keeps its last log lines in memory.
type AuditSource interface {
	GetLastLogs(n int) []string
}

type Server struct {
	service LetterService
	audits  map[string]AuditSource
	metrics http.Handler
	logger  *log.Logger
}

type Option func(*Server)

func WithAudit(name string, src AuditSource) Option {
	return func(s *Server) { s.audits[name] = src }
}

// WithMetrics mounts h on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func NewServer(service LetterService, opts ...Option) *Server {
	s := &Server{
		service: service,
		audits:  make(map[string]AuditSource),
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/draft-letter", s.handleDraft)
	mux.HandleFunc("POST /api/suggest-letter-type", s.handleSuggestType)
	mux.HandleFunc("POST /api/validate-letter", s.handleValidate)
	mux.HandleFunc("GET /api/letters", s.handleListLetters)
	mux.HandleFunc("GET /api/letters/{id}", s.handleGetLetter)
	mux.HandleFunc("PATCH /api/letters/{id}/status", s.handleUpdateStatus)
	mux.HandleFunc("DELETE /api/letters/{id}", s.handleDeleteLetter)
	mux.HandleFunc("GET /api/letters/{id}/conversation", s.handleConversation)
	mux.HandleFunc("GET /api/audits", s.handleAudits)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
}

// Handler returns a mux with every route registered, wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.logRequests(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.service.Health(r.Context()))
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	var req letters.Request
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.service.Draft(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type suggestRequest struct {
	UserPrompt string `json:"user_prompt"`
}

func (s *Server) handleSuggestType(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if !s.decode(w, r, &req) {
		return
	}
	suggestion, err := s.service.SuggestType(r.Context(), req.UserPrompt)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, suggestion)
}

type validateRequest struct {
	LetterContent string `json:"letter_content"`
	LetterType    string `json:"letter_type"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.service.ValidateLetter(r.Context(), req.LetterContent, req.LetterType)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type listResponse struct {
	Letters []letters.Document `json:"letters"`
	Count   int                `json:"count"`
}

func (s *Server) handleListLetters(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	docs, err := s.service.ListLetters(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if docs == nil {
		docs = []letters.Document{}
	}
	s.writeJSON(w, http.StatusOK, listResponse{Letters: docs, Count: len(docs)})
}

func parseFilter(r *http.Request) (storage.Filter, error) {
	q := r.URL.Query()
	filter := storage.Filter{
		CustomerName: q.Get("customer_name"),
		PolicyNumber: q.Get("policy_number"),
	}
	if v := q.Get("letter_type"); v != "" {
		lt, err := letters.ParseLetterType(v)
		if err != nil {
			return filter, letters.NewInvalidInput(err.Error())
		}
		filter.LetterType = lt
	}
	if v := q.Get("status"); v != "" {
		st, err := letters.ParseComplianceStatus(v)
		if err != nil {
			return filter, err
		}
		filter.Status = st
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return filter, letters.NewInvalidInput("limit: must be a non-negative integer")
		}
		filter.Limit = limit
	}
	if v := q.Get("include_deleted"); v != "" {
		include, err := strconv.ParseBool(v)
		if err != nil {
			return filter, letters.NewInvalidInput("include_deleted: must be a boolean")
		}
		filter.IncludeDeleted = include
	}
	return filter, nil
}

func (s *Server) handleGetLetter(w http.ResponseWriter, r *http.Request) {
	doc, err := s.service.GetLetter(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !s.decode(w, r, &req) {
		return
	}
	doc, err := s.service.UpdateStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteLetter(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.service.DeleteLetter(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

type conversationResponse struct {
	LetterID     string                    `json:"letter_id"`
	Conversation []teams.ConversationEntry `json:"conversation"`
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	conv, err := s.service.Conversation(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if conv == nil {
		conv = []teams.ConversationEntry{}
	}
	s.writeJSON(w, http.StatusOK, conversationResponse{LetterID: id, Conversation: conv})
}

// handleAudits serves the tail of every audit logger, or of the one named by ?name=.
func (s *Server) handleAudits(w http.ResponseWriter, r *http.Request) {
	n := defaultAuditTail
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, letters.NewInvalidInput("n: must be an integer"))
			return
		}
		n = parsed
	}

	out := make(map[string][]string, len(s.audits))
	if name := r.URL.Query().Get("name"); name != "" {
		src, ok := s.audits[name]
		if !ok {
			s.writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown audit log " + strconv.Quote(name)})
			return
		}
		out[name] = tail(src, n)
	} else {
		names := make([]string, 0, len(s.audits))
		for name := range s.audits {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out[name] = tail(s.audits[name], n)
		}
	}
	s.writeJSON(w, http.StatusOK, out)
}

func tail(src AuditSource, n int) []string {
	lines := src.GetLastLogs(n)
	if lines == nil {
		return []string{}
	}
	return lines
}

type errorBody struct {
	Error        string                    `json:"error"`
	Fields       []string                  `json:"fields,omitempty"`
	Round        int                       `json:"round,omitempty"`
	Agent        string                    `json:"agent,omitempty"`
	Conversation []teams.ConversationEntry `json:"conversation,omitempty"`
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		msg := "invalid JSON body: " + err.Error()
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var failure *workflow.GenerationFailure
	var invalid *letters.InvalidInputError
	switch {
	case errors.As(err, &failure):
		s.logger.Printf("🚨 Generation failed in round %d (%s): %v", failure.Round, failure.Role, failure.Cause)
		s.writeJSON(w, http.StatusBadGateway, errorBody{
			Error:        failure.Error(),
			Round:        failure.Round,
			Agent:        failure.Role.String(),
			Conversation: failure.Conversation,
		})
	case errors.As(err, &invalid):
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Fields: invalid.Fields})
	case errors.Is(err, letters.ErrInvalidInput):
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	default:
		s.logger.Printf("❌ Request failed: %v", err)
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("⚠️ Failed to encode response: %v", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if strings.HasPrefix(r.URL.Path, "/metrics") {
			return
		}
		s.logger.Printf("🌐 %s %s -> %d (%s)", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
