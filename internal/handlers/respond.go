package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prudhvinik1/customer-service/internal/services"
)

type errorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrAuthorize):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status code. Errors outside the known kinds are
// reported and their details kept out of the response.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if !services.IsDomainError(err) {
		h.reporter.Report(r.Context(), err, "method", r.Method, "path", r.URL.Path)
		message = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Message: message})
}
