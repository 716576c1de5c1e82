package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shivaapratim/mini-crm/internal/types"
)

// writeJSON encodes a response body. Encoding failures after the header is
// written can only be logged by the caller, so they are ignored here.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain sentinel errors to HTTP status codes and emits the
// standard failure envelope. Unknown errors map to 500 with a generic
// message so internals never leak to clients.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, types.ErrInvalidInput), errors.Is(err, types.ErrValidation):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, types.ErrCustomerNotFound), errors.Is(err, types.ErrSegmentNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, types.ErrUnauthorizedTrigger):
		status = http.StatusUnauthorized
		message = err.Error()
	}

	writeJSON(w, status, map[string]any{
		"success": false,
		"message": message,
	})
}
