package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"news_ticker/internal/domain"
)

// Handlers holds the dependencies of the JSON API.
type Handlers struct {
	news    NewsReader
	syncer  Syncer
	states  SyncStateLister
	db      Pinger
	sources []domain.FeedSource
	now     func() time.Time
}

func New(news NewsReader, syncer Syncer, states SyncStateLister, db Pinger, sources []domain.FeedSource) *Handlers {
	return &Handlers{
		news:    news,
		syncer:  syncer,
		states:  states,
		db:      db,
		sources: sources,
		now:     time.Now,
	}
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
