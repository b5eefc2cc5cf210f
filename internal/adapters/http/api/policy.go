package api

import (
	"context"
	"net/http"

	"github.com/okian/arcadepoints/internal/domain/policy"
)

// PolicyDependencies exposes the active scoring policy.
type PolicyDependencies interface {
	Policy(ctx context.Context) (policy.Policy, error)
}

// PolicyHandler handles policy requests.
type PolicyHandler struct {
	deps PolicyDependencies
}

// NewPolicyHandler creates a new policy handler.
func NewPolicyHandler(deps PolicyDependencies) *PolicyHandler {
	return &PolicyHandler{deps: deps}
}

// HandleGetPolicy handles GET /v1/policy requests.
func (h *PolicyHandler) HandleGetPolicy(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.Policy(r.Context())
	if err != nil {
		writeServiceError(w, "api.get_policy", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
