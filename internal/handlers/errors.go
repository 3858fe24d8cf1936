package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"hanghub/internal/service"
	"hanghub/internal/validation"
)

func isValidationError(err error) bool {
	var ve validation.ValidationError
	return errors.As(err, &ve)
}

// respondJSON writes a JSON body with the given status
func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// respondWithError writes a JSON error body and logs the underlying cause
func respondWithError(w http.ResponseWriter, status int, userMsg string, err error) {
	if err != nil {
		log.Printf("%s: %v", userMsg, err)
	}
	respondJSON(w, status, map[string]string{"error": userMsg})
}

// respondServiceError maps service sentinel errors onto HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidState), errors.Is(err, service.ErrNotFriends),
		errors.Is(err, service.ErrReversePending):
		status = http.StatusConflict
	case isValidationError(err):
		status = http.StatusBadRequest
	default:
		respondWithError(w, http.StatusInternalServerError, "Something went wrong", err)
		return
	}
	respondJSON(w, status, map[string]string{"error": err.Error()})
}
