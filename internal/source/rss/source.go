package rss

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/SlyMarbo/rss"
	"github.com/cenkalti/backoff/v4"
	"github.com/samber/lo"

	"news_ticker/internal/domain"
)

const maxFeedSize = 10 << 20

// Config holds feed fetching configuration.
type Config struct {
	Timeout        time.Duration
	UserAgent      string
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Adapter fetches a fixed list of RSS feeds and maps their entries to
// news candidates.
type Adapter struct {
	httpClient     *http.Client
	sources        []domain.FeedSource
	userAgent      string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	now            func() time.Time
	logger         *slog.Logger
}

// New creates a new RSS adapter for sources.
func New(cfg Config, sources []domain.FeedSource, logger *slog.Logger) *Adapter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &Adapter{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		sources:        sources,
		userAgent:      cfg.UserAgent,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		now:            time.Now,
		logger:         logger.With("component", "rss"),
	}
}

// FetchAll fetches every source concurrently. A failing source is logged
// and reported but never aborts the others. Candidates are returned in
// source order.
func (a *Adapter) FetchAll(ctx context.Context) ([]domain.NewsCandidate, []domain.SourceReport) {
	results := make([][]domain.NewsCandidate, len(a.sources))
	reports := make([]domain.SourceReport, len(a.sources))

	var wg sync.WaitGroup
	for i, src := range a.sources {
		wg.Add(1)
		go func(i int, src domain.FeedSource) {
			defer wg.Done()

			items, err := a.FetchSource(ctx, src)
			reports[i] = domain.SourceReport{Source: src, Items: len(items), Err: err}
			if err != nil {
				a.logger.Warn("failed to fetch feed",
					"source", src.Tag,
					"url", src.URL,
					"error", err,
				)
				return
			}
			results[i] = items

			a.logger.Debug("fetched feed", "source", src.Tag, "items", len(items))
		}(i, src)
	}
	wg.Wait()

	return lo.Flatten(results), reports
}

// FetchSource fetches and parses a single feed.
func (a *Adapter) FetchSource(ctx context.Context, src domain.FeedSource) ([]domain.NewsCandidate, error) {
	fetchedAt := a.now().UTC()

	var body []byte
	operation := func() error {
		var err error
		body, err = a.doRequest(ctx, src.URL)
		return err
	}

	notify := func(err error, wait time.Duration) {
		a.logger.Warn("request failed, retrying",
			"source", src.Tag,
			"backoff", wait,
			"error", err,
		)
	}

	if err := backoff.RetryNotify(operation, a.newBackOff(ctx), notify); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src.Tag, err)
	}

	feed, err := rss.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", src.Tag, err)
	}

	return a.transform(src, feed.Items, fetchedAt), nil
}

func (a *Adapter) newBackOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.initialBackoff
	b.MaxInterval = a.maxBackoff
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(a.maxAttempts-1)), ctx)
}

var errStatus = errors.New("unexpected status")

func (a *Adapter) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		err := fmt.Errorf("%w: %d", errStatus, resp.StatusCode)
		// 4xx other than 429 will not get better on retry
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func (a *Adapter) transform(src domain.FeedSource, items []*rss.Item, fetchedAt time.Time) []domain.NewsCandidate {
	return lo.FilterMap(items, func(item *rss.Item, _ int) (domain.NewsCandidate, bool) {
		if item == nil {
			return domain.NewsCandidate{}, false
		}

		candidate := domain.NewsCandidate{
			Title:       strings.TrimSpace(item.Title),
			Link:        strings.TrimSpace(item.Link),
			Description: lo.ToPtr(describe(item)),
			Source:      src.Tag,
		}
		if candidate.Validate() != nil {
			return domain.NewsCandidate{}, false
		}

		publishedAt := fetchedAt
		if item.DateValid && !item.Date.IsZero() {
			publishedAt = item.Date.UTC()
		}
		candidate.PublishedAt = &publishedAt

		return candidate, true
	})
}

func describe(item *rss.Item) string {
	if s := snippet(item.Summary); s != "" {
		return s
	}
	return snippet(item.Content)
}
