// Package handlers holds the JSON response helpers every module writes
// through.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

type errorBody struct {
	Error string `json:"error"`
}

// RespondJSON encodes data with the given status. A nil data writes the
// status with no body.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	if data == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent, so an encode failure cannot change the
	// response.
	_ = json.NewEncoder(w).Encode(data)
}

// RespondError writes err as {"error": ...}. 5xx is logged at error level,
// anything lower at warn.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.Log(context.Background(), level, "request failed", "status", status, "error", err)
	RespondJSON(w, status, errorBody{Error: err.Error()})
}
