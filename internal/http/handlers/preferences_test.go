package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"news_ticker/internal/domain"
	"news_ticker/internal/preferences"
)

func (s *HandlersTestSuite) post(h http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, target, strings.NewReader(body)))
	return rec
}

func (s *HandlersTestSuite) savedList(rec *httptest.ResponseRecorder) []preferences.SavedArticle {
	var list []preferences.SavedArticle
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&list))
	return list
}

func (s *HandlersTestSuite) TestNormalizeSettings() {
	h := New(s.news, s.syncer, s.states, s.db, []domain.FeedSource{
		{Tag: "nhk", URL: "https://x/nhk"},
		{Tag: "jiji", URL: "https://x/jiji"},
	})

	tests := []struct {
		name string
		body string
		want preferences.NewsSettings
	}{
		{
			name: "unknown tags dropped",
			body: `{"sources":["bbc","jiji","nhk"],"scrollDirection":"vertical","scrollSpeed":"fast","refreshInterval":120}`,
			want: preferences.NewsSettings{
				Sources:         []string{"jiji", "nhk"},
				ScrollDirection: preferences.ScrollVertical,
				ScrollSpeed:     preferences.ScrollFast,
				RefreshInterval: 120,
			},
		},
		{
			name: "malformed falls back to defaults",
			body: `{broken`,
			want: preferences.NewsSettings{
				Sources:         []string{"nhk", "jiji"},
				ScrollDirection: preferences.ScrollHorizontal,
				ScrollSpeed:     preferences.ScrollMedium,
				RefreshInterval: preferences.DefaultRefreshInterval,
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.post(h.NormalizeSettings, "/api/settings/validate", tt.body)
			s.Equal(http.StatusOK, rec.Code)

			var got preferences.NewsSettings
			s.Require().NoError(json.NewDecoder(rec.Body).Decode(&got))
			s.Equal(tt.want, got)
		})
	}
}

func (s *HandlersTestSuite) TestNormalizeSettings_BodyTooLarge() {
	body := `{"sources":["` + strings.Repeat("a", maxPreferencesBody) + `"]}`

	rec := s.post(s.handlers.NormalizeSettings, "/api/settings/validate", body)

	s.Equal(http.StatusRequestEntityTooLarge, rec.Code)
	s.Equal("request body too large", s.message(rec))
}

func (s *HandlersTestSuite) TestNormalizeSaved() {
	rec := s.post(s.handlers.NormalizeSaved, "/api/read-later/normalize", `[
		{"id":1,"title":"first","link":"https://x/1","source":"nhk","savedAt":"2026-01-01T00:00:00Z"},
		{"id":1,"title":"dup","link":"https://x/1","source":"nhk","savedAt":"2026-01-02T00:00:00Z"}
	]`)
	s.Equal(http.StatusOK, rec.Code)

	list := s.savedList(rec)
	s.Require().Len(list, 1)
	s.Equal("first", list[0].Title)

	rec = s.post(s.handlers.NormalizeSaved, "/api/read-later/normalize", `not json`)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[]`, rec.Body.String())
}

func (s *HandlersTestSuite) TestSaveArticle() {
	now := time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC)
	s.handlers.now = func() time.Time { return now }

	rec := s.post(s.handlers.SaveArticle, "/api/read-later/save",
		`{"saved":[{"id":1,"title":"a","link":"https://x/1","source":"nhk","savedAt":"2026-01-01T00:00:00Z"}],
		  "article":{"id":2,"title":"b","link":"https://x/2","source":"jiji"}}`)
	s.Equal(http.StatusOK, rec.Code)

	list := s.savedList(rec)
	s.Require().Len(list, 2)
	s.Equal(int64(2), list[1].ID)
	s.Equal(now, list[1].SavedAt)

	rec = s.post(s.handlers.SaveArticle, "/api/read-later/save",
		`{"saved":[{"id":1,"title":"a","link":"https://x/1","source":"nhk","savedAt":"2026-01-01T00:00:00Z"}],
		  "article":{"id":1,"title":"again","link":"https://x/1","source":"nhk"}}`)
	list = s.savedList(rec)
	s.Require().Len(list, 1)
	s.Equal("a", list[0].Title)
}

func (s *HandlersTestSuite) TestSaveArticle_Invalid() {
	rec := s.post(s.handlers.SaveArticle, "/api/read-later/save", `{"saved":[],"article":{"title":"no id"}}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("invalid article", s.message(rec))

	rec = s.post(s.handlers.SaveArticle, "/api/read-later/save", `[`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("invalid request body", s.message(rec))
}

func (s *HandlersTestSuite) TestRemoveArticle() {
	rec := s.post(s.handlers.RemoveArticle, "/api/read-later/remove",
		`{"saved":[
			{"id":1,"title":"a","link":"https://x/1","source":"nhk","savedAt":"2026-01-01T00:00:00Z"},
			{"id":2,"title":"b","link":"https://x/2","source":"jiji","savedAt":"2026-01-02T00:00:00Z"}
		],"id":1}`)
	s.Equal(http.StatusOK, rec.Code)

	list := s.savedList(rec)
	s.Require().Len(list, 1)
	s.Equal(int64(2), list[0].ID)

	rec = s.post(s.handlers.RemoveArticle, "/api/read-later/remove", `{"id":5}`)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[]`, rec.Body.String())
}
