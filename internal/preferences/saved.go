package preferences

import (
	"encoding/json"
	"time"

	"github.com/samber/lo"
)

// SavedArticle is a read-later entry, keyed by the news item id.
type SavedArticle struct {
	ID      int64     `json:"id"`
	Title   string    `json:"title"`
	Link    string    `json:"link"`
	Source  string    `json:"source"`
	SavedAt time.Time `json:"savedAt"`
}

// LoadSavedArticles returns the stored list, or an empty one when raw is
// malformed. Later duplicates of an id are dropped.
func LoadSavedArticles(raw []byte) []SavedArticle {
	var list []SavedArticle
	if len(raw) == 0 || json.Unmarshal(raw, &list) != nil {
		return []SavedArticle{}
	}
	return lo.UniqBy(list, func(a SavedArticle) int64 { return a.ID })
}

// SaveArticle appends a, stamped with now. The list is returned unchanged
// when an entry with the same id exists.
func SaveArticle(list []SavedArticle, a SavedArticle, now time.Time) []SavedArticle {
	if IsSaved(list, a.ID) {
		return list
	}
	a.SavedAt = now.UTC()
	return append(list, a)
}

func RemoveArticle(list []SavedArticle, id int64) []SavedArticle {
	return lo.Reject(list, func(a SavedArticle, _ int) bool { return a.ID == id })
}

func IsSaved(list []SavedArticle, id int64) bool {
	return lo.ContainsBy(list, func(a SavedArticle) bool { return a.ID == id })
}
