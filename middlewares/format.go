package middlewares

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

func RespondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// HttpError logs err and writes {"detail": message} with the given status.
func HttpError(w http.ResponseWriter, log *slog.Logger, message string, status int, err error) {
	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	log.Log(context.Background(), level, "request failed", "status", status, "detail", message, "error", err)
	RespondJSON(w, map[string]interface{}{"detail": message}, status)
}

// NotFound writes the standard 404 body.
func NotFound(w http.ResponseWriter) {
	RespondJSON(w, map[string]string{"detail": "Not Found"}, http.StatusNotFound)
}
