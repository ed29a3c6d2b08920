package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"news_ticker/internal/domain"
)

type FeedAdapter interface {
	FetchAll(ctx context.Context) ([]domain.NewsCandidate, []domain.SourceReport)
}

type NewsStore interface {
	SyncNewsItems(ctx context.Context, candidates []domain.NewsCandidate) (domain.UpsertResult, error)
}

type SyncStateStore interface {
	Get(ctx context.Context, source string) (*domain.SyncState, error)
	Update(ctx context.Context, state *domain.SyncState) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, item *domain.NewsItem, isNew bool) error
	Close() error
}

// Metrics receives the outcome of every cycle.
type Metrics interface {
	ObserveSync(stats *domain.SyncStats, err error)
	FeedFailed(source string)
}
