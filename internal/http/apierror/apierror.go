// Package apierror writes the JSON error envelope shared by every
// endpoint: {"message": "..."}. Internal details are logged, never sent.
package apierror

import (
	"encoding/json"
	"log/slog"
	"net/http"

	logctx "news_ticker/internal/pkg/log"
)

const (
	MessageInternal = "internal error"
	MessageNotFound = "not found"
)

type Response struct {
	Message string `json:"message"`
}

func Write(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Message: message})
}

func BadRequest(w http.ResponseWriter, message string) {
	Write(w, http.StatusBadRequest, message)
}

// Internal logs err with the request-scoped logger and answers 500.
func Internal(w http.ResponseWriter, r *http.Request, err error) {
	logctx.From(r.Context()).LogAttrs(r.Context(), slog.LevelError, "request failed",
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
	Write(w, http.StatusInternalServerError, MessageInternal)
}

func NotFound(w http.ResponseWriter, _ *http.Request) {
	Write(w, http.StatusNotFound, MessageNotFound)
}

func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	Write(w, http.StatusMethodNotAllowed, "method not allowed")
}
