package domain

import (
	"errors"
	"regexp"
	"strings"
)

var ErrInvalidSources = errors.New("invalid sources filter")

// FeedSource is one RSS document identified by a short tag.
type FeedSource struct {
	Tag   string `json:"tag" yaml:"tag"`
	Label string `json:"label" yaml:"label"`
	URL   string `json:"url" yaml:"url"`
}

func DefaultSources() []FeedSource {
	return []FeedSource{
		{Tag: "nhk", Label: "NHK News", URL: "https://www.nhk.or.jp/rss/news/cat0.xml"},
		{Tag: "jiji", Label: "Google News", URL: "https://news.google.com/rss?hl=ja&gl=JP&ceid=JP:ja"},
		{Tag: "livedoor", Label: "Livedoor News", URL: "https://news.livedoor.com/topics/rss/top.xml"},
	}
}

var sourceTagRe = regexp.MustCompile(`^[a-z0-9_-]{1,32}$`)

func ValidSourceTag(tag string) bool {
	return sourceTagRe.MatchString(tag)
}

// ParseSourcesFilter splits a comma-separated tag list. An empty string
// means no filter and yields nil.
func ParseSourcesFilter(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		tag := strings.TrimSpace(p)
		if !ValidSourceTag(tag) {
			return nil, ErrInvalidSources
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
