package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyTitle = errors.New("news item title is empty")
	ErrEmptyLink  = errors.New("news item link is empty")
)

// NewsItem is a stored feed entry. Link is the natural key.
type NewsItem struct {
	ID          int64      `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Link        string     `json:"link" db:"link"`
	Description *string    `json:"description" db:"description"`
	Thumbnail   *string    `json:"thumbnail" db:"thumbnail"`
	Source      string     `json:"source" db:"source"`
	PublishedAt *time.Time `json:"publishedAt" db:"published_at"`
	FetchedAt   time.Time  `json:"fetchedAt" db:"fetched_at"`
}

// NewsCandidate is a normalized feed entry that has not been stored yet.
type NewsCandidate struct {
	Title       string
	Link        string
	Description *string
	Thumbnail   *string
	Source      string
	PublishedAt *time.Time
}

func (c NewsCandidate) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return ErrEmptyTitle
	}
	if strings.TrimSpace(c.Link) == "" {
		return ErrEmptyLink
	}
	return nil
}
