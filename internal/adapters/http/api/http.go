// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/netip"

	"github.com/okian/arcadepoints/internal/adapters/repository"
	service "github.com/okian/arcadepoints/internal/app"
	"github.com/okian/arcadepoints/internal/domain/policy"
	"github.com/okian/arcadepoints/internal/domain/types"
	"github.com/okian/arcadepoints/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ScoreDependencies
	ClassifyDependencies
	PolicyDependencies
	LeaderboardDependencies
	RankDependencies
	StatsProvider
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	scoreHandler       *ScoreHandler
	classifyHandler    *ClassifyHandler
	policyHandler      *PolicyHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler

	maxLeaderboardLimit int
	maxBodyBytes        int64
	rateRPS             float64
	rateBurst           int
	trustedProxies      []netip.Prefix
	limiter             *RateLimiter
	logger              logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		maxLeaderboardLimit: defaultMaxLeaderboardLimit,
		maxBodyBytes:        defaultMaxBodyBytes,
		logger:              logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.scoreHandler = NewScoreHandler(deps, s.maxBodyBytes, s.logger)
	s.classifyHandler = NewClassifyHandler(deps, s.maxBodyBytes)
	s.policyHandler = NewPolicyHandler(deps)
	s.leaderboardHandler = NewLeaderboardHandler(deps, s.maxLeaderboardLimit)
	s.rankHandler = NewRankHandler(deps)
	if s.rateRPS > 0 {
		s.limiter = NewRateLimiter(s.rateRPS, s.rateBurst, s.trustedProxies...)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", MetricsHandler())
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /v1/policy", MetricsMiddleware(s.policyHandler.HandleGetPolicy, "policy"))
	mux.HandleFunc("GET /leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /rank/{participant_id}", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))

	// Compute endpoints are rate limited per client.
	mux.HandleFunc("POST /v1/score", MetricsMiddleware(s.limit(s.scoreHandler.HandleScore), "score"))
	mux.HandleFunc("POST /v1/score/batch", MetricsMiddleware(s.limit(s.scoreHandler.HandleScoreBatch), "score_batch"))
	mux.HandleFunc("POST /v1/classify", MetricsMiddleware(s.limit(s.classifyHandler.HandleClassify), "classify"))

	if s.limiter != nil {
		go s.limiter.Cleanup(ctx)
	}
}

func (s *Server) limit(next http.HandlerFunc) http.HandlerFunc {
	if s.limiter == nil {
		return next
	}
	return s.limiter.Middleware(next)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps service and store errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, repository.ErrInvalidParticipant), errors.Is(err, policy.ErrInvalidPolicy):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
	case errors.Is(err, service.ErrBatchTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "batch_too_large", Wrap(op, err))
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", Wrap(op, err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "cancelled", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// decodeJSON reads a single JSON document of at most limit bytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, op string, limit int64, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", WrapKind(op, ErrPayloadTooLarge, err))
			return false
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("trailing data after JSON body")))
		return false
	}
	return true
}
