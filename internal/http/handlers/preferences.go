package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"news_ticker/internal/http/apierror"
	"news_ticker/internal/preferences"
)

const maxPreferencesBody = 64 << 10

type SaveArticleRequest struct {
	Saved   json.RawMessage          `json:"saved"`
	Article preferences.SavedArticle `json:"article"`
}

type RemoveArticleRequest struct {
	Saved json.RawMessage `json:"saved"`
	ID    int64           `json:"id"`
}

// NormalizeSettings serves POST /api/settings/validate. The body is the
// client's stored settings; the answer is what it should keep: defaults
// when the body is unusable, and only configured source tags.
func (h *Handlers) NormalizeSettings(w http.ResponseWriter, r *http.Request) {
	raw, ok := readBody(w, r)
	if !ok {
		return
	}

	settings := preferences.LoadSettings(raw).WithKnownSources(h.knownTags())
	writeJSON(w, http.StatusOK, settings)
}

// NormalizeSaved serves POST /api/read-later/normalize.
func (h *Handlers) NormalizeSaved(w http.ResponseWriter, r *http.Request) {
	raw, ok := readBody(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, preferences.LoadSavedArticles(raw))
}

// SaveArticle serves POST /api/read-later/save and returns the updated list.
func (h *Handlers) SaveArticle(w http.ResponseWriter, r *http.Request) {
	var req SaveArticleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Article.ID <= 0 || req.Article.Link == "" {
		apierror.BadRequest(w, "invalid article")
		return
	}

	list := preferences.LoadSavedArticles(req.Saved)
	writeJSON(w, http.StatusOK, preferences.SaveArticle(list, req.Article, h.now()))
}

// RemoveArticle serves POST /api/read-later/remove and returns the updated list.
func (h *Handlers) RemoveArticle(w http.ResponseWriter, r *http.Request) {
	var req RemoveArticleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	list := preferences.LoadSavedArticles(req.Saved)
	writeJSON(w, http.StatusOK, preferences.RemoveArticle(list, req.ID))
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPreferencesBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierror.Write(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		apierror.BadRequest(w, "invalid request body")
		return nil, false
	}
	return raw, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	raw, ok := readBody(w, r)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		apierror.BadRequest(w, "invalid request body")
		return false
	}
	return true
}
