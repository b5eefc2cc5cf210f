package api

import (
	"context"
	"net/http"

	"github.com/okian/arcadepoints/internal/domain/types"
	"github.com/okian/arcadepoints/pkg/logger"
)

// ScoreDependencies computes results for badge snapshots.
type ScoreDependencies interface {
	Score(ctx context.Context, req types.ScoreRequest) (types.ScoreResponse, error)
	ScoreBatch(ctx context.Context, reqs []types.ScoreRequest) ([]types.ScoreResponse, error)
}

// BatchRequest is the body of POST /v1/score/batch.
type BatchRequest struct {
	Requests []types.ScoreRequest `json:"requests"`
}

// BatchResponse is the reply of POST /v1/score/batch, in request order.
type BatchResponse struct {
	Results []types.ScoreResponse `json:"results"`
}

// ScoreHandler handles score requests.
type ScoreHandler struct {
	deps     ScoreDependencies
	maxBytes int64
	logger   logger.Logger
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps ScoreDependencies, maxBytes int64, log logger.Logger) *ScoreHandler {
	return &ScoreHandler{deps: deps, maxBytes: maxBytes, logger: log}
}

// HandleScore handles POST /v1/score requests.
func (h *ScoreHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.score"
	var req types.ScoreRequest
	if !decodeJSON(w, r, op, h.maxBytes, &req) {
		return
	}
	res, err := h.deps.Score(r.Context(), req)
	if err != nil {
		h.logger.Warn(r.Context(), "score rejected", logger.Error(err))
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleScoreBatch handles POST /v1/score/batch requests.
func (h *ScoreHandler) HandleScoreBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.score_batch"
	var req BatchRequest
	if !decodeJSON(w, r, op, h.maxBytes, &req) {
		return
	}
	res, err := h.deps.ScoreBatch(r.Context(), req.Requests)
	if err != nil {
		h.logger.Warn(r.Context(), "batch rejected",
			logger.Int("size", len(req.Requests)),
			logger.Error(err),
		)
		writeServiceError(w, op, err)
		return
	}
	if res == nil {
		res = []types.ScoreResponse{}
	}
	writeJSON(w, http.StatusOK, BatchResponse{Results: res})
}
