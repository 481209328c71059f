package handlers

import (
	"net/http"

	"github.com/zatekoja/healia/backend/internal/application/services"
	"github.com/zatekoja/healia/backend/internal/domain/entities"
)

// ChatHandler relays the health assistant chat
type ChatHandler struct {
	registry *services.WorkspaceRegistry
}

// NewChatHandler creates a new chat handler
func NewChatHandler(registry *services.WorkspaceRegistry) *ChatHandler {
	return &ChatHandler{registry: registry}
}

// SendMessage handles POST /api/workspaces/{id}/chat. Blank messages are
// refused without a backend request.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceFor(h.registry, w, r)
	if !ok {
		return
	}

	var req entities.ChatRequest
	if err := decodeRequest(r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}

	added, err := ws.SendChat(r.Context(), req.Message)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondAccepted(w, len(added) > 0, added)
}

// GetTranscript handles GET /api/workspaces/{id}/chat
func (h *ChatHandler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceFor(h.registry, w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"messages": ws.Transcript(),
	})
}
