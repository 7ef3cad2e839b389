package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/clubmarket/negotiation-platform/internal/negotiation"
)

// validate checks request struct tags; shared across handlers.
var validate = validator.New()

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeNegotiationError maps the engine's error taxonomy onto HTTP
// status codes, preserving the specific message so callers can render
// it to the user. Errors outside the taxonomy are internal.
func writeNegotiationError(w http.ResponseWriter, err error) bool {
	var status int
	switch negotiation.KindOf(err) {
	case negotiation.KindNotFound:
		status = http.StatusNotFound
	case negotiation.KindUnauthorized:
		status = http.StatusForbidden
	case negotiation.KindInvalidState:
		status = http.StatusConflict
	case negotiation.KindValidation:
		status = http.StatusBadRequest
	default:
		return false
	}

	writeError(w, status, err.Error())
	return true
}
