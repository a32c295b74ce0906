package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/osamaaslam86004/E-Commrace/internal/session"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

type ctxKey string

const sessionCtxKey ctxKey = "session"

func sessionFromContext(ctx context.Context) *session.Session {
	if sess, ok := ctx.Value(sessionCtxKey).(*session.Session); ok {
		return sess
	}
	return nil
}
