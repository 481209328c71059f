package handlers

import (
	"net/http"

	"github.com/zatekoja/healia/backend/internal/application/services"
)

// WorkspaceHandler opens and closes consultation workspaces
type WorkspaceHandler struct {
	registry *services.WorkspaceRegistry
}

// NewWorkspaceHandler creates a new workspace handler
func NewWorkspaceHandler(registry *services.WorkspaceRegistry) *WorkspaceHandler {
	return &WorkspaceHandler{registry: registry}
}

type createWorkspaceRequest struct {
	TeardownOnDisconnect bool `json:"teardown_on_disconnect"`
}

// CreateWorkspace handles POST /api/workspaces. The body is optional.
func (h *WorkspaceHandler) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var req createWorkspaceRequest
	if r.ContentLength != 0 {
		if err := decodeRequest(r, &req); err != nil {
			respondWithAppError(w, err)
			return
		}
	}

	ws := h.registry.Create(r.Context(), services.WorkspaceOptions{TeardownOnDisconnect: req.TeardownOnDisconnect})
	respondWithJSON(w, http.StatusCreated, ws.Snapshot())
}

// GetWorkspace handles GET /api/workspaces/{id}
func (h *WorkspaceHandler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := h.registry.Get(r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, ws.Snapshot())
}

// DeleteWorkspace handles DELETE /api/workspaces/{id}. Deleting an unknown
// or already closed workspace succeeds.
func (h *WorkspaceHandler) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	h.registry.Close(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func workspaceFor(registry *services.WorkspaceRegistry, w http.ResponseWriter, r *http.Request) (*services.Workspace, bool) {
	ws, err := registry.Get(r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, err)
		return nil, false
	}
	return ws, true
}
