package handlers

import (
	"net/http"

	"github.com/zatekoja/healia/backend/internal/application/services"
	"github.com/zatekoja/healia/backend/internal/domain/entities"
)

// CallHandler drives a workspace's video consultation
type CallHandler struct {
	registry *services.WorkspaceRegistry
}

// NewCallHandler creates a new call handler
func NewCallHandler(registry *services.WorkspaceRegistry) *CallHandler {
	return &CallHandler{registry: registry}
}

type startCallRequest struct {
	ProviderID string `json:"provider_id" validate:"required"`
}

// StartCall handles POST /api/workspaces/{id}/call
func (h *CallHandler) StartCall(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceFor(h.registry, w, r)
	if !ok {
		return
	}

	var req startCallRequest
	if err := decodeRequest(r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}

	snap, err := ws.StartCall(r.Context(), req.ProviderID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusAccepted, snap)
}

// EndCall handles POST /api/workspaces/{id}/call/end
func (h *CallHandler) EndCall(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceFor(h.registry, w, r)
	if !ok {
		return
	}

	snap, err := ws.EndCall(r.Context())
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, snap)
}

// ToggleMute handles POST /api/workspaces/{id}/call/mute
func (h *CallHandler) ToggleMute(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, (*services.Workspace).ToggleMute)
}

// ToggleVideo handles POST /api/workspaces/{id}/call/video
func (h *CallHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, (*services.Workspace).ToggleVideo)
}

func (h *CallHandler) toggle(w http.ResponseWriter, r *http.Request, op func(*services.Workspace) (entities.CallSnapshot, bool, error)) {
	ws, ok := workspaceFor(h.registry, w, r)
	if !ok {
		return
	}

	snap, accepted, err := op(ws)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondAccepted(w, accepted, snap)
}

// GetCall handles GET /api/workspaces/{id}/call
func (h *CallHandler) GetCall(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceFor(h.registry, w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, ws.Call())
}
