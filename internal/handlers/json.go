package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/upikart/upikart/internal/models"
)

const maxJSONBodyBytes = 1 << 20 // 1 MB

// envelope is the uniform response shape. Success responses carry data;
// failures carry a message.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func respondData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: status < 400, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// respondError maps the error taxonomy onto HTTP statuses. Unclassified
// errors are logged by the caller's request logger and reported generically.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		respondMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		respondMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrInvalidStateTransition):
		respondMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrUpstream):
		respondMessage(w, http.StatusBadGateway, err.Error())
	default:
		respondMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return models.Validationf("invalid request body: %v", err)
	}
	return nil
}

// fail logs unexpected errors and writes the mapped response. Expected
// domain errors pass through without an error-level log line.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, action string, err error) {
	expected := errors.Is(err, models.ErrValidation) ||
		errors.Is(err, models.ErrNotFound) ||
		errors.Is(err, models.ErrInvalidStateTransition)
	if !expected {
		h.loggerFromContext(r.Context()).Error(fmt.Sprintf("failed to %s", action), "error", err)
	}
	respondError(w, err)
}
