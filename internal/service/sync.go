package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"

	"news_ticker/internal/domain"
)

const syncKey = "sync"

type SyncService struct {
	feeds     FeedAdapter
	news      NewsStore
	syncState SyncStateStore
	txManager TransactionManager
	publisher Publisher
	metrics   Metrics
	logger    *slog.Logger

	cycleTimeout time.Duration
	group        singleflight.Group
	lifetime     context.Context
	shutdown     context.CancelFunc
	now          func() time.Time
}

// NewSyncService wires a sync cycle. publisher may be nil.
func NewSyncService(
	feeds FeedAdapter,
	news NewsStore,
	syncState SyncStateStore,
	txManager TransactionManager,
	publisher Publisher,
	metrics Metrics,
	logger *slog.Logger,
	cycleTimeout time.Duration,
) *SyncService {
	lifetime, shutdown := context.WithCancel(context.Background())
	return &SyncService{
		feeds:        feeds,
		news:         news,
		syncState:    syncState,
		txManager:    txManager,
		publisher:    publisher,
		metrics:      metrics,
		logger:       logger.With("component", "sync"),
		cycleTimeout: cycleTimeout,
		lifetime:     lifetime,
		shutdown:     shutdown,
		now:          time.Now,
	}
}

// Sync runs one cycle, or joins the cycle already in flight and returns
// its stats. Cancelling ctx stops the wait, not the cycle; the cycle is
// bounded by the cycle timeout and by Close.
func (s *SyncService) Sync(ctx context.Context) (*domain.SyncStats, error) {
	ch := s.group.DoChan(syncKey, func() (any, error) {
		return s.run(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		stats, _ := res.Val.(*domain.SyncStats)
		if res.Shared {
			s.logger.Debug("joined in-flight sync")
		}
		return stats, res.Err
	}
}

// Close aborts any cycle still running.
func (s *SyncService) Close() {
	s.shutdown()
}

func (s *SyncService) run(ctx context.Context) (*domain.SyncStats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.lifetime, cancel)
	defer stop()

	if s.cycleTimeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, s.cycleTimeout)
		defer cancelTimeout()
	}

	startTime := s.now()
	s.logger.Info("starting sync")

	candidates, reports := s.feeds.FetchAll(ctx)

	stats := &domain.SyncStats{Fetched: len(candidates)}
	for _, r := range reports {
		if r.Err == nil {
			continue
		}
		stats.FailedSources = append(stats.FailedSources, r.Source.Tag)
		if s.metrics != nil {
			s.metrics.FeedFailed(r.Source.Tag)
		}
	}

	if len(candidates) == 0 {
		s.logger.Info("no news items found")
	}

	result, syncErr := s.news.SyncNewsItems(ctx, candidates)
	stats.New = result.New
	stats.Updated = result.Updated
	if syncErr != nil {
		stats.Errors++
		syncErr = fmt.Errorf("sync news items: %w", syncErr)
	}

	s.publish(ctx, result.Items, stats)

	if err := s.updateSyncState(ctx, reports, result.Items, startTime); err != nil {
		stats.Errors++
		s.logger.Error("update sync state", "error", err)
	}

	stats.Duration = time.Since(startTime)

	if s.metrics != nil {
		s.metrics.ObserveSync(stats, syncErr)
	}

	if syncErr != nil {
		s.logger.Error("sync failed",
			"new", stats.New,
			"updated", stats.Updated,
			"error", syncErr,
		)
		return stats, syncErr
	}

	s.logger.Info("sync completed",
		"fetched", stats.Fetched,
		"new", stats.New,
		"updated", stats.Updated,
		"errors", stats.Errors,
		"published", stats.Published,
		"failed_sources", stats.FailedSources,
		"duration", stats.Duration,
	)

	return stats, nil
}

func (s *SyncService) publish(ctx context.Context, items []domain.UpsertedItem, stats *domain.SyncStats) {
	if s.publisher == nil {
		return
	}

	for i := range items {
		if err := s.publisher.Publish(ctx, &items[i].Item, items[i].Inserted); err != nil {
			stats.Errors++
			s.logger.Warn("publish news item",
				"link", items[i].Item.Link,
				"error", err,
			)
			continue
		}
		stats.Published++
	}
}

func (s *SyncService) updateSyncState(
	ctx context.Context,
	reports []domain.SourceReport,
	items []domain.UpsertedItem,
	syncedAt time.Time,
) error {
	synced := lo.CountValuesBy(items, func(item domain.UpsertedItem) string {
		return item.Item.Source
	})

	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, r := range reports {
			state, err := s.syncState.Get(txCtx, r.Source.Tag)
			if err != nil {
				return fmt.Errorf("get sync state %s: %w", r.Source.Tag, err)
			}

			state.Source = r.Source.Tag
			state.LastSyncedAt = syncedAt
			if r.Err != nil {
				state.LastItemCount = 0
				state.LastError = lo.ToPtr(r.Err.Error())
			} else {
				state.LastItemCount = r.Items
				state.LastError = nil
			}
			state.TotalSynced += int64(synced[r.Source.Tag])

			if err := s.syncState.Update(txCtx, state); err != nil {
				return fmt.Errorf("update sync state %s: %w", r.Source.Tag, err)
			}
		}
		return nil
	})
}
