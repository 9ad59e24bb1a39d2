package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// MessageResponse is the body of acknowledgement-only responses.
type MessageResponse struct {
	Message string `json:"message"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		// headers are gone; all that is left is to log
		slog.Error("failed to encode JSON response", "error", err, "status", status)
	}
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	WriteJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
		Details: details,
	})
}

// WriteMessage writes {"message": message}.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, MessageResponse{Message: message})
}
