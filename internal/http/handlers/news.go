package handlers

import (
	"context"
	"errors"
	"net/http"

	"news_ticker/internal/domain"
	"news_ticker/internal/http/apierror"
	logctx "news_ticker/internal/pkg/log"
)

type SyncResponse struct {
	Count int `json:"count"`
}

// ListNews serves GET /api/news?sources=a,b. A missing or empty sources
// parameter means all sources.
func (h *Handlers) ListNews(w http.ResponseWriter, r *http.Request) {
	sources, err := domain.ParseSourcesFilter(r.URL.Query().Get("sources"))
	if err != nil {
		apierror.BadRequest(w, err.Error())
		return
	}

	items, err := h.news.GetNews(r.Context(), sources)
	if err != nil {
		apierror.Internal(w, r, err)
		return
	}
	if items == nil {
		items = []domain.NewsItem{}
	}

	writeJSON(w, http.StatusOK, items)
}

// SyncNews serves POST /api/news/sync. It blocks until the cycle, or the
// cycle already running, finishes.
func (h *Handlers) SyncNews(w http.ResponseWriter, r *http.Request) {
	stats, err := h.syncer.Sync(r.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
			logctx.From(r.Context()).Info("client went away during sync")
			return
		}
		apierror.Internal(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SyncResponse{Count: stats.Synced()})
}
