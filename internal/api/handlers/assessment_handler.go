package handlers

import (
	"net/http"

	"github.com/zatekoja/healia/backend/internal/application/services"
	"github.com/zatekoja/healia/backend/internal/domain/entities"
)

// AssessmentHandler submits symptom assessments
type AssessmentHandler struct {
	registry *services.WorkspaceRegistry
}

// NewAssessmentHandler creates a new assessment handler
func NewAssessmentHandler(registry *services.WorkspaceRegistry) *AssessmentHandler {
	return &AssessmentHandler{registry: registry}
}

type assessmentRequest struct {
	Symptoms       string   `json:"symptoms" validate:"required"`
	Urgency        string   `json:"urgency" validate:"required,oneof=mild moderate urgent emergency"`
	Duration       string   `json:"duration" validate:"required,oneof=hours 1-2days 3-7days 1-2weeks longer"`
	MedicalHistory []string `json:"medicalHistory" validate:"dive,required"`
}

// Submit handles POST /api/workspaces/{id}/assessment. The response carries
// the settled assessment; a backend failure is a failed status, not an HTTP
// error.
func (h *AssessmentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceFor(h.registry, w, r)
	if !ok {
		return
	}

	var req assessmentRequest
	if err := decodeRequest(r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}

	state, err := ws.SubmitAssessment(r.Context(), entities.SymptomAssessmentRequest{
		Symptoms:       req.Symptoms,
		Urgency:        entities.Urgency(req.Urgency),
		Duration:       entities.SymptomDuration(req.Duration),
		MedicalHistory: req.MedicalHistory,
	})
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, state)
}

// GetAssessment handles GET /api/workspaces/{id}/assessment
func (h *AssessmentHandler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceFor(h.registry, w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, ws.Assessment())
}
