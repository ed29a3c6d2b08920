package handlers

import (
	"net/http"
	"time"

	"github.com/samber/lo"

	"news_ticker/internal/domain"
	"news_ticker/internal/http/apierror"
	"news_ticker/internal/preferences"
)

type SourceResponse struct {
	Tag           string     `json:"tag"`
	Label         string     `json:"label"`
	LastSyncedAt  *time.Time `json:"lastSyncedAt"`
	LastItemCount int        `json:"lastItemCount"`
	TotalSynced   int64      `json:"totalSynced"`
	LastError     *string    `json:"lastError"`
}

// ListSources serves GET /api/sources: the configured feeds with their
// last sync outcome.
func (h *Handlers) ListSources(w http.ResponseWriter, r *http.Request) {
	states, err := h.states.List(r.Context())
	if err != nil {
		apierror.Internal(w, r, err)
		return
	}

	bySource := lo.KeyBy(states, func(s domain.SyncState) string { return s.Source })

	resp := lo.Map(h.sources, func(src domain.FeedSource, _ int) SourceResponse {
		out := SourceResponse{Tag: src.Tag, Label: src.Label}
		if st, ok := bySource[src.Tag]; ok {
			out.LastSyncedAt = lo.ToPtr(st.LastSyncedAt)
			out.LastItemCount = st.LastItemCount
			out.TotalSynced = st.TotalSynced
			out.LastError = st.LastError
		}
		return out
	})

	writeJSON(w, http.StatusOK, resp)
}

// DefaultSettings serves GET /api/settings/defaults, restricted to the
// configured source tags.
func (h *Handlers) DefaultSettings(w http.ResponseWriter, _ *http.Request) {
	settings := preferences.DefaultSettings()
	settings.Sources = h.knownTags()

	writeJSON(w, http.StatusOK, settings)
}

func (h *Handlers) knownTags() []string {
	return lo.Map(h.sources, func(src domain.FeedSource, _ int) string { return src.Tag })
}
