package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/custodia-labs/animerec/internal/core/domain"
	"github.com/custodia-labs/animerec/internal/logger"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 10

// RecommendRequest is the body of POST /api/v1/recommend.
type RecommendRequest struct {
	Query string `json:"query" validate:"required,max=500"`
}

// RecommendResponse is the body returned by POST /api/v1/recommend.
type RecommendResponse struct {
	Answer    string          `json:"answer"`
	Sources   []domain.Source `json:"sources"`
	Retrieved int             `json:"retrieved"`
	Degraded  bool            `json:"degraded"`
}

// SearchHit is one entry returned by GET /api/v1/search.
type SearchHit struct {
	Title   string   `json:"title"`
	Genres  []string `json:"genres,omitempty"`
	Score   float64  `json:"score"`
	Content string   `json:"content"`
}

// SearchResponse is the body returned by GET /api/v1/search.
type SearchResponse struct {
	Query string      `json:"query"`
	Hits  []SearchHit `json:"hits"`
}

// ErrorResponse is returned for every failure.
type ErrorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	info := s.svc.Info()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"entries": info.Entries,
		"model":   info.Model,
	})
}

func (s *Server) recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
			Hint:  `send JSON like {"query": "mecha action series"}`,
		})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: validationMessage(err),
			Hint:  "query must be between 1 and 500 characters",
		})
		return
	}
	if n := len([]rune(strings.TrimSpace(req.Query))); n < s.svc.MinQueryLength() {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "query is too short",
			Hint:  "please enter at least " + strconv.Itoa(s.svc.MinQueryLength()) + " characters",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	rec, err := s.svc.Recommend(ctx, req.Query)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	sources := rec.Sources
	if sources == nil {
		sources = []domain.Source{}
	}
	writeJSON(w, http.StatusOK, RecommendResponse{
		Answer:    rec.Answer,
		Sources:   sources,
		Retrieved: rec.Retrieved,
		Degraded:  rec.Degraded,
	})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	k := 0
	if raw := r.URL.Query().Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error: "invalid k",
				Hint:  "k must be an integer between 1 and 100",
			})
			return
		}
		k = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	hits, err := s.svc.Search(ctx, query, k)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := SearchResponse{Query: strings.TrimSpace(query), Hits: make([]SearchHit, 0, len(hits))}
	for _, h := range hits {
		resp.Hits = append(resp.Hits, SearchHit{
			Title:   h.Chunk.Title,
			Genres:  h.Chunk.Genres,
			Score:   h.Score,
			Content: h.Chunk.Content,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) index(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Info())
}

// fail logs the cause and writes a generic message with a hint.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	logger.Error(err, "%s %s failed", r.Method, r.URL.Path)
	msg, hint := domain.Explain(err)
	writeJSON(w, statusFor(err), ErrorResponse{Error: msg, Hint: hint})
}

// statusFor maps err to an HTTP status. A deadline anywhere in the chain
// wins over the component kind that wrapped it.
func statusFor(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch domain.KindOf(err) {
	case domain.ErrValidation:
		return http.StatusBadRequest
	case domain.ErrGeneration:
		if errors.Is(err, domain.ErrRateLimited) || errors.Is(err, domain.ErrLLMUnavailable) {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	case domain.ErrRetrieval:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return "query is required"
	case "max":
		return "query is too long"
	default:
		return "query is invalid"
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Debug("encode response: %v", err)
	}
}
