//go:build integration

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/samber/lo"

	"news_ticker/internal/domain"
	apihttp "news_ticker/internal/http"
	"news_ticker/internal/http/handlers"
	"news_ticker/internal/service"
)

// scriptedFeeds answers FetchAll with the candidates and per-source errors
// set by the test.
type scriptedFeeds struct {
	mu         sync.Mutex
	candidates []domain.NewsCandidate
	failures   map[string]error
}

func (f *scriptedFeeds) set(failures map[string]error, c ...domain.NewsCandidate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.candidates = c
	f.failures = failures
}

func (f *scriptedFeeds) FetchAll(context.Context) ([]domain.NewsCandidate, []domain.SourceReport) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reports := lo.Map(domain.DefaultSources(), func(src domain.FeedSource, _ int) domain.SourceReport {
		return domain.SourceReport{
			Source: src,
			Items:  lo.CountBy(f.candidates, func(c domain.NewsCandidate) bool { return c.Source == src.Tag }),
			Err:    f.failures[src.Tag],
		}
	})
	return f.candidates, reports
}

func (s *PostgresIntegrationSuite) newAPI(feeds service.FeedAdapter) *httptest.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	news := NewNewsStore(s.db)
	states := NewSyncStateStore(s.db)

	syncer := service.NewSyncService(feeds, news, states, NewTransactionManager(s.db), nil, nil, logger, time.Minute)
	s.T().Cleanup(syncer.Close)

	h := handlers.New(news, syncer, states, news, domain.DefaultSources())
	srv := httptest.NewServer(apihttp.NewRouter(h, apihttp.Options{Logger: logger}))
	s.T().Cleanup(srv.Close)
	return srv
}

func (s *PostgresIntegrationSuite) call(srv *httptest.Server, method, path string, out any) int {
	req, err := http.NewRequestWithContext(s.ctx, method, srv.URL+path, nil)
	s.Require().NoError(err)

	resp, err := srv.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	if out != nil {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *PostgresIntegrationSuite) TestAPI_SyncThenReadAgainstPostgres() {
	feeds := &scriptedFeeds{}
	srv := s.newAPI(feeds)
	published := time.Now().UTC().Truncate(time.Second)

	feeds.set(
		map[string]error{"jiji": errors.New("unexpected status 503")},
		candidate("T1", "https://x/1", "nhk", &published),
		candidate("L1", "https://x/2", "livedoor", &published),
	)

	var synced handlers.SyncResponse
	s.Require().Equal(http.StatusOK, s.call(srv, http.MethodPost, "/api/news/sync", &synced))
	s.Equal(2, synced.Count)

	var items []domain.NewsItem
	s.Require().Equal(http.StatusOK, s.call(srv, http.MethodGet, "/api/news", &items))
	s.Require().Len(items, 2)
	s.ElementsMatch([]string{"T1", "L1"}, lo.Map(items, func(i domain.NewsItem, _ int) string { return i.Title }))

	var sources []handlers.SourceResponse
	s.Require().Equal(http.StatusOK, s.call(srv, http.MethodGet, "/api/sources", &sources))
	s.Require().Len(sources, 3)
	bySource := lo.KeyBy(sources, func(r handlers.SourceResponse) string { return r.Tag })

	s.Equal(int64(1), bySource["nhk"].TotalSynced)
	s.Equal(1, bySource["nhk"].LastItemCount)
	s.Nil(bySource["nhk"].LastError)
	s.Require().NotNil(bySource["jiji"].LastError)
	s.Equal("unexpected status 503", *bySource["jiji"].LastError)
	s.Zero(bySource["jiji"].TotalSynced)
	s.Equal(int64(1), bySource["livedoor"].TotalSynced)

	// second cycle: nhk item updated in place, jiji recovers
	nhkID := lo.FindOrElse(items, domain.NewsItem{}, func(i domain.NewsItem) bool { return i.Source == "nhk" }).ID
	feeds.set(nil, candidate("T1-updated", "https://x/1", "nhk", &published))

	s.Require().Equal(http.StatusOK, s.call(srv, http.MethodPost, "/api/news/sync", &synced))
	s.Equal(1, synced.Count)

	items = nil
	s.Require().Equal(http.StatusOK, s.call(srv, http.MethodGet, "/api/news?sources=nhk", &items))
	s.Require().Len(items, 1)
	s.Equal("T1-updated", items[0].Title)
	s.Equal(nhkID, items[0].ID)
	s.Equal(2, s.count())

	sources = nil
	s.Require().Equal(http.StatusOK, s.call(srv, http.MethodGet, "/api/sources", &sources))
	bySource = lo.KeyBy(sources, func(r handlers.SourceResponse) string { return r.Tag })
	s.Equal(int64(2), bySource["nhk"].TotalSynced)
	s.Nil(bySource["jiji"].LastError)
	s.Equal(int64(1), bySource["livedoor"].TotalSynced)
	s.Zero(bySource["livedoor"].LastItemCount)
}
