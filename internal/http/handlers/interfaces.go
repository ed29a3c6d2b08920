package handlers

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"news_ticker/internal/domain"
)

type NewsReader interface {
	GetNews(ctx context.Context, sources []string) ([]domain.NewsItem, error)
}

type Syncer interface {
	Sync(ctx context.Context) (*domain.SyncStats, error)
}

type SyncStateLister interface {
	List(ctx context.Context) ([]domain.SyncState, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}
