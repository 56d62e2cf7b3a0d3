package respond

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/padharoindia/backend/internal/apperr"
)

// Envelope is the standard API response wrapper used across handlers.
type Envelope struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// JSON writes a success or informational response using the common envelope.
func JSON(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, Envelope{Code: status, Message: message, Data: data})
}

// Error writes an error response with the shared envelope structure.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope{Code: status, Message: message})
}

// ValidationErrors writes a 400 carrying field-level problems.
func ValidationErrors(w http.ResponseWriter, problems []string) {
	write(w, http.StatusBadRequest, Envelope{
		Code:    http.StatusBadRequest,
		Message: "invalid request",
		Errors:  problems,
	})
}

// FromError renders a service-layer error. Internal causes are never leaked;
// callers log them before or after this renders the sanitized message.
func FromError(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	Error(w, status, message)
}

func write(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("respond: encode payload failed: %v", err)
	}
}
