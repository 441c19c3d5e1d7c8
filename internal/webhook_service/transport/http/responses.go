package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// apiResponse is the JSON envelope every webhook route answers with.
type apiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, resp apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Warn("Failed to encode JSON response", "error", err)
	}
}
