// Package handlers provides JSON response helpers shared by domain HTTP handlers.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the JSON body written for failed requests.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// RespondJSON writes data as a JSON body with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError writes err as a JSON error body. Server errors are logged at
// error level, client errors at warn.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	logError(logger, status, err)
	RespondJSON(w, status, ErrorResponse{Error: err.Error()})
}

// RespondErrorMessage writes a JSON error body with a short error label and a
// detailed message. The underlying cause is logged but never written.
func RespondErrorMessage(w http.ResponseWriter, logger *slog.Logger, status int, label, message string, cause error) {
	logError(logger, status, cause)
	RespondJSON(w, status, ErrorResponse{Error: label, Message: message})
}

func logError(logger *slog.Logger, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
		return
	}
	logger.Warn("request rejected", "status", status, "error", err)
}
