package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/healia/backend/internal/application/services"
	"github.com/zatekoja/healia/backend/internal/domain/providers"
)

const defaultHeartbeat = 30 * time.Second

// SSEHandler streams a workspace's notifications to the browser
type SSEHandler struct {
	registry  *services.WorkspaceRegistry
	bus       providers.NotificationBus
	heartbeat time.Duration
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(registry *services.WorkspaceRegistry, bus providers.NotificationBus) *SSEHandler {
	return &SSEHandler{registry: registry, bus: bus, heartbeat: defaultHeartbeat}
}

// WithHeartbeat sets the keep-alive interval
func (h *SSEHandler) WithHeartbeat(d time.Duration) *SSEHandler {
	h.heartbeat = d
	return h
}

// StreamWorkspace handles GET /api/workspaces/{id}/stream. When the workspace
// was opened with teardown on disconnect, the client going away closes it.
func (h *SSEHandler) StreamWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceFor(h.registry, w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ctx := r.Context()
	events, err := h.bus.Subscribe(ctx, providers.WorkspaceChannel(ws.ID))
	if err != nil {
		log.Error().Err(err).Str("workspace_id", ws.ID).Msg("Failed to subscribe to notifications")
		respondWithError(w, http.StatusServiceUnavailable, "notifications unavailable")
		return
	}

	if ws.TeardownOnDisconnect {
		defer h.registry.Close(ws.ID)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	h.sendEvent(w, "connected", map[string]interface{}{
		"workspace_id": ws.ID,
		"timestamp":    time.Now(),
	})
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("workspace_id", ws.ID).Msg("Client disconnected from workspace stream")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case n, open := <-events:
			if !open {
				return
			}
			if n == nil {
				continue
			}
			h.sendEvent(w, string(n.Kind), n)
			flusher.Flush()
		}
	}
}

// sendEvent sends an SSE event to the client
func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to marshal event data")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}
