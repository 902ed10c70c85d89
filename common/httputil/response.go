// Package httputil contains small JSON helpers shared by the HTTP surfaces.
package httputil

import (
	"encoding/json"
	"log"
	"net/http"
)

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// WriteError writes a JSON error response with a single message.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// WriteValidationErrors writes a 422 carrying the validation error list
// verbatim, the shape event producers are told to expect.
func WriteValidationErrors(w http.ResponseWriter, errs []string) {
	WriteJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"error":             "schema validation failed",
		"validation_errors": errs,
	})
}
