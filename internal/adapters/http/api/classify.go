package api

import (
	"context"
	"net/http"

	"github.com/okian/arcadepoints/internal/domain/types"
)

// ClassifyDependencies classifies raw badge names.
type ClassifyDependencies interface {
	Classify(ctx context.Context, names []string) ([]types.ClassifiedName, error)
}

// ClassifyRequest is the body of POST /v1/classify.
type ClassifyRequest struct {
	Names []string `json:"names"`
}

// ClassifyHandler handles classification requests.
type ClassifyHandler struct {
	deps     ClassifyDependencies
	maxBytes int64
}

// NewClassifyHandler creates a new classify handler.
func NewClassifyHandler(deps ClassifyDependencies, maxBytes int64) *ClassifyHandler {
	return &ClassifyHandler{deps: deps, maxBytes: maxBytes}
}

// HandleClassify handles POST /v1/classify requests.
func (h *ClassifyHandler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	const op = "api.classify"
	var req ClassifyRequest
	if !decodeJSON(w, r, op, h.maxBytes, &req) {
		return
	}
	out, err := h.deps.Classify(r.Context(), req.Names)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
