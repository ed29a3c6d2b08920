package handlers

import (
	"context"
	"net/http"
	"time"

	"news_ticker/internal/http/apierror"
	logctx "news_ticker/internal/pkg/log"
)

const readinessTimeout = 2 * time.Second

type statusResponse struct {
	Status string `json:"status"`
}

func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// Readyz reports 503 while the database is unreachable.
func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		logctx.From(r.Context()).Warn("readiness check failed", "error", err)
		apierror.Write(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ready"})
}
