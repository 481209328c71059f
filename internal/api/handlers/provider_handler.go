package handlers

import (
	"net/http"

	"github.com/zatekoja/healia/backend/internal/application/services"
	"github.com/zatekoja/healia/backend/internal/domain/entities"
)

// ProviderHandler serves the provider directory
type ProviderHandler struct {
	directory *services.DirectoryService
}

// NewProviderHandler creates a new provider handler
func NewProviderHandler(directory *services.DirectoryService) *ProviderHandler {
	return &ProviderHandler{directory: directory}
}

// ListProviders handles GET /api/providers?q=&specialty=
func (h *ProviderHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := entities.ProviderFilter{
		Query:     query.Get("q"),
		Specialty: query.Get("specialty"),
	}

	list, err := h.directory.Search(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"providers": list,
		"count":     len(list),
	})
}

// GetProvider handles GET /api/providers/{id}
func (h *ProviderHandler) GetProvider(w http.ResponseWriter, r *http.Request) {
	p, err := h.directory.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}

// ListSpecialties handles GET /api/specialties
func (h *ProviderHandler) ListSpecialties(w http.ResponseWriter, r *http.Request) {
	specialties, err := h.directory.Specialties(r.Context())
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"specialties": specialties,
	})
}
