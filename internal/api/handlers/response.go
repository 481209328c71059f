package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	apperrors "github.com/zatekoja/healia/backend/pkg/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// actionResponse reports whether a requested state change was applied. A
// refused change is not an error.
type actionResponse struct {
	Accepted bool        `json:"accepted"`
	State    interface{} `json:"state,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

func respondAccepted(w http.ResponseWriter, accepted bool, state interface{}) {
	respondWithJSON(w, http.StatusOK, actionResponse{Accepted: accepted, State: state})
}

// respondWithAppError maps err to a status code by its apperrors type
func respondWithAppError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		log.Error().Err(err).Msg("Unhandled error")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Type {
	case apperrors.ErrorTypeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrorTypeValidation:
		status = http.StatusBadRequest
	case apperrors.ErrorTypeConflict:
		status = http.StatusConflict
	case apperrors.ErrorTypeUnauthorized:
		status = http.StatusUnauthorized
	case apperrors.ErrorTypeBusy:
		status = http.StatusTooManyRequests
	case apperrors.ErrorTypeExternal:
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
	}
	respondWithError(w, status, appErr.Message)
}

// maxRequestBody caps JSON request bodies
const maxRequestBody = 1 << 20

// decodeRequest reads a single JSON object into dst, rejecting unknown
// fields and trailing data, and validates its struct tags
func decodeRequest(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.NewValidationError("invalid request body")
	}
	if dec.More() {
		return apperrors.NewValidationError("invalid request body: trailing data")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, strings.ToLower(fe.Field()))
			}
			return apperrors.NewValidationError("invalid fields: " + strings.Join(fields, ", "))
		}
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}
