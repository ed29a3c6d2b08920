package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"news_ticker/internal/domain"
	"news_ticker/internal/http/apierror"
	"news_ticker/internal/http/handlers/mocks"
	"news_ticker/internal/preferences"
)

type HandlersTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	news   *mocks.MockNewsReader
	syncer *mocks.MockSyncer
	states *mocks.MockSyncStateLister
	db     *mocks.MockPinger

	handlers *Handlers
}

func (s *HandlersTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.news = mocks.NewMockNewsReader(s.ctrl)
	s.syncer = mocks.NewMockSyncer(s.ctrl)
	s.states = mocks.NewMockSyncStateLister(s.ctrl)
	s.db = mocks.NewMockPinger(s.ctrl)

	s.handlers = New(s.news, s.syncer, s.states, s.db, domain.DefaultSources())
}

func (s *HandlersTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func (s *HandlersTestSuite) serve(h http.HandlerFunc, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func (s *HandlersTestSuite) message(rec *httptest.ResponseRecorder) string {
	var resp apierror.Response
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Message
}

func (s *HandlersTestSuite) TestListNews_NoFilter() {
	published := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	items := []domain.NewsItem{{
		ID:          1,
		Title:       "T1",
		Link:        "https://x/1",
		Description: lo.ToPtr(""),
		Source:      "nhk",
		PublishedAt: &published,
		FetchedAt:   published,
	}}

	for _, target := range []string{"/api/news", "/api/news?sources="} {
		s.news.EXPECT().GetNews(gomock.Any(), gomock.Nil()).Return(items, nil)

		rec := s.serve(s.handlers.ListNews, http.MethodGet, target)

		s.Equal(http.StatusOK, rec.Code, target)
		s.Equal("application/json", rec.Header().Get("Content-Type"))

		var got []map[string]any
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&got))
		s.Require().Len(got, 1)
		s.Equal("T1", got[0]["title"])
		s.Equal("2026-05-01T09:00:00Z", got[0]["publishedAt"])
		s.Contains(got[0], "thumbnail")
		s.Nil(got[0]["thumbnail"])
	}
}

func (s *HandlersTestSuite) TestListNews_FilterIsTrimmed() {
	s.news.EXPECT().GetNews(gomock.Any(), []string{"nhk", "livedoor"}).Return([]domain.NewsItem{}, nil)

	rec := s.serve(s.handlers.ListNews, http.MethodGet, "/api/news?sources=nhk,%20livedoor")

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[]`, rec.Body.String())
}

func (s *HandlersTestSuite) TestListNews_NilResultEncodesEmptyArray() {
	s.news.EXPECT().GetNews(gomock.Any(), gomock.Any()).Return(nil, nil)

	rec := s.serve(s.handlers.ListNews, http.MethodGet, "/api/news")

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[]`, rec.Body.String())
}

func (s *HandlersTestSuite) TestListNews_InvalidSources() {
	for _, target := range []string{
		"/api/news?sources=NHK",
		"/api/news?sources=nhk,,jiji",
		"/api/news?sources=nhk,a%2Fb",
	} {
		rec := s.serve(s.handlers.ListNews, http.MethodGet, target)

		s.Equal(http.StatusBadRequest, rec.Code, target)
		s.Equal(domain.ErrInvalidSources.Error(), s.message(rec))
	}
}

func (s *HandlersTestSuite) TestListNews_StoreError() {
	s.news.EXPECT().GetNews(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

	rec := s.serve(s.handlers.ListNews, http.MethodGet, "/api/news")

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal(apierror.MessageInternal, s.message(rec))
}

func (s *HandlersTestSuite) TestSyncNews_ReturnsTrueCount() {
	s.syncer.EXPECT().Sync(gomock.Any()).Return(&domain.SyncStats{New: 4, Updated: 3}, nil)

	rec := s.serve(s.handlers.SyncNews, http.MethodPost, "/api/news/sync")

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"count":7}`, rec.Body.String())
}

func (s *HandlersTestSuite) TestSyncNews_Error() {
	s.syncer.EXPECT().Sync(gomock.Any()).Return(&domain.SyncStats{New: 1}, errors.New("sync news items: boom"))

	rec := s.serve(s.handlers.SyncNews, http.MethodPost, "/api/news/sync")

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal(apierror.MessageInternal, s.message(rec))
}

func (s *HandlersTestSuite) TestSyncNews_ClientGone() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.syncer.EXPECT().Sync(gomock.Any()).Return(nil, context.Canceled)

	rec := httptest.NewRecorder()
	s.handlers.SyncNews(rec, httptest.NewRequest(http.MethodPost, "/api/news/sync", nil).WithContext(ctx))

	s.Empty(rec.Body.String())
}

func (s *HandlersTestSuite) TestListSources() {
	synced := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	s.states.EXPECT().List(gomock.Any()).Return([]domain.SyncState{
		{Source: "nhk", LastSyncedAt: synced, LastItemCount: 20, TotalSynced: 120},
		{Source: "jiji", LastSyncedAt: synced, LastError: lo.ToPtr("unexpected status: 503")},
	}, nil)

	rec := s.serve(s.handlers.ListSources, http.MethodGet, "/api/sources")
	s.Equal(http.StatusOK, rec.Code)

	var got []SourceResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&got))
	s.Require().Len(got, 3)

	s.Equal("nhk", got[0].Tag)
	s.Equal("NHK News", got[0].Label)
	s.Equal(int64(120), got[0].TotalSynced)
	s.Require().NotNil(got[1].LastError)
	s.Equal("livedoor", got[2].Tag)
	s.Nil(got[2].LastSyncedAt)
}

func (s *HandlersTestSuite) TestListSources_Error() {
	s.states.EXPECT().List(gomock.Any()).Return(nil, errors.New("boom"))

	rec := s.serve(s.handlers.ListSources, http.MethodGet, "/api/sources")

	s.Equal(http.StatusInternalServerError, rec.Code)
}

func (s *HandlersTestSuite) TestDefaultSettings() {
	h := New(s.news, s.syncer, s.states, s.db, []domain.FeedSource{{Tag: "nhk", URL: "https://x"}})

	rec := s.serve(h.DefaultSettings, http.MethodGet, "/api/settings/defaults")
	s.Equal(http.StatusOK, rec.Code)

	var got preferences.NewsSettings
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&got))
	s.Equal([]string{"nhk"}, got.Sources)
	s.Equal(preferences.ScrollHorizontal, got.ScrollDirection)
	s.Equal(preferences.DefaultRefreshInterval, got.RefreshInterval)
	s.NoError(got.Validate())
}

func (s *HandlersTestSuite) TestHealthz() {
	rec := s.serve(s.handlers.Healthz, http.MethodGet, "/healthz")

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"ok"}`, rec.Body.String())
}

func (s *HandlersTestSuite) TestReadyz() {
	s.db.EXPECT().Ping(gomock.Any()).Return(nil)
	rec := s.serve(s.handlers.Readyz, http.MethodGet, "/readyz")
	s.Equal(http.StatusOK, rec.Code)

	s.db.EXPECT().Ping(gomock.Any()).Return(errors.New("dial tcp: refused"))
	rec = s.serve(s.handlers.Readyz, http.MethodGet, "/readyz")
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.Equal("database unavailable", s.message(rec))
}
