package handlers

import (
	"net/http"
	"time"

	"github.com/zatekoja/healia/backend/internal/application/services"
	"github.com/zatekoja/healia/backend/internal/domain/entities"
)

// ScheduleHandler drives a workspace's appointment request
type ScheduleHandler struct {
	registry *services.WorkspaceRegistry
	location *time.Location
}

// NewScheduleHandler creates a new schedule handler. Dates in requests are
// read as calendar days in location.
func NewScheduleHandler(registry *services.WorkspaceRegistry, location *time.Location) *ScheduleHandler {
	if location == nil {
		location = time.Local
	}
	return &ScheduleHandler{registry: registry, location: location}
}

type openScheduleRequest struct {
	ProviderID string `json:"provider_id" validate:"required"`
}

type selectDateRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type selectSlotRequest struct {
	Slot string `json:"slot" validate:"required"`
}

// OpenSchedule handles POST /api/workspaces/{id}/schedule
func (h *ScheduleHandler) OpenSchedule(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceFor(h.registry, w, r)
	if !ok {
		return
	}

	var req openScheduleRequest
	if err := decodeRequest(r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}

	pending, err := ws.OpenSchedule(r.Context(), req.ProviderID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, pending)
}

// SelectDate handles PUT /api/workspaces/{id}/schedule/date
func (h *ScheduleHandler) SelectDate(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceFor(h.registry, w, r)
	if !ok {
		return
	}

	var req selectDateRequest
	if err := decodeRequest(r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}
	date, err := time.ParseInLocation(time.DateOnly, req.Date, h.location)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	h.respondSchedule(w, func() (entities.AppointmentRequest, bool, error) { return ws.SelectDate(date) })
}

// SelectSlot handles PUT /api/workspaces/{id}/schedule/slot
func (h *ScheduleHandler) SelectSlot(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceFor(h.registry, w, r)
	if !ok {
		return
	}

	var req selectSlotRequest
	if err := decodeRequest(r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}

	h.respondSchedule(w, func() (entities.AppointmentRequest, bool, error) { return ws.SelectTimeSlot(req.Slot) })
}

func (h *ScheduleHandler) respondSchedule(w http.ResponseWriter, op func() (entities.AppointmentRequest, bool, error)) {
	pending, accepted, err := op()
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	var state interface{}
	if pending.ID != "" {
		state = pending
	}
	respondAccepted(w, accepted, state)
}

// Confirm handles POST /api/workspaces/{id}/schedule/confirm
func (h *ScheduleHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceFor(h.registry, w, r)
	if !ok {
		return
	}

	appt, accepted, err := ws.ConfirmSchedule(r.Context())
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if !accepted {
		respondAccepted(w, false, nil)
		return
	}
	respondAccepted(w, true, appt)
}

// Cancel handles DELETE /api/workspaces/{id}/schedule
func (h *ScheduleHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceFor(h.registry, w, r)
	if !ok {
		return
	}
	if err := ws.CancelSchedule(); err != nil {
		respondWithAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSchedule handles GET /api/workspaces/{id}/schedule
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceFor(h.registry, w, r)
	if !ok {
		return
	}

	pending, ok := ws.Schedule()
	if !ok {
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"pending": false})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"pending":    true,
		"request":    pending,
		"time_slots": entities.TimeSlots,
	})
}
