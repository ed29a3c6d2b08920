package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"news_ticker/internal/domain"
)

var ErrAlreadyStarted = errors.New("scheduler already started")

// Syncer defines the interface for sync operations.
type Syncer interface {
	Sync(ctx context.Context) (*domain.SyncStats, error)
}

type Scheduler struct {
	syncer       Syncer
	interval     time.Duration
	cycleTimeout time.Duration
	logger       *slog.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	started  bool
	stopped  bool
	finished chan struct{}
}

func NewScheduler(syncer Syncer, interval, cycleTimeout time.Duration, logger *slog.Logger) *Scheduler {
	if cycleTimeout <= 0 {
		cycleTimeout = interval
	}
	return &Scheduler{
		syncer:       syncer,
		interval:     interval,
		cycleTimeout: cycleTimeout,
		logger:       logger.With("component", "scheduler"),
		finished:     make(chan struct{}),
	}
}

// Start runs one sync immediately and then one per interval. It blocks
// until ctx is cancelled or Stop is called. A scheduler runs at most once.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return context.Canceled
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()
	defer close(s.finished)

	s.logger.Info("scheduler started", "interval", s.interval)

	s.runSync(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runSync(ctx)
		}
	}
}

// Stop cancels the schedule and waits for Start to return. It is safe
// to call more than once, and before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancel := s.cancel
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-s.finished
}

func (s *Scheduler) runSync(ctx context.Context) {
	syncCtx, cancel := context.WithTimeout(ctx, s.cycleTimeout)
	defer cancel()

	stats, err := s.syncer.Sync(syncCtx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("sync failed", "error", err)
		}
		return
	}
	s.logger.Debug("scheduled sync finished", "synced", stats.Synced())
}
