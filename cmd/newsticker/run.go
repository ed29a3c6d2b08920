package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"

	"news_ticker/internal/config"
	apihttp "news_ticker/internal/http"
	"news_ticker/internal/http/handlers"
	"news_ticker/internal/metrics"
	logctx "news_ticker/internal/pkg/log"
	"news_ticker/internal/publisher"
	"news_ticker/internal/scheduler"
	"news_ticker/internal/service"
	"news_ticker/internal/source/rss"
	"news_ticker/internal/storage/postgres"
)

type components struct {
	db        *sqlx.DB
	news      *postgres.NewsStore
	states    *postgres.SyncStateStore
	publisher *publisher.RabbitMQ
	metrics   *metrics.Metrics
	sync      *service.SyncService
}

func (c *components) Close() {
	if c.sync != nil {
		c.sync.Close()
	}
	if c.publisher != nil {
		_ = c.publisher.Close()
	}
	if c.db != nil {
		_ = c.db.Close()
	}
}

func setup(c *cli.Context) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger := logctx.New(cfg.LogLevel, cfg.Production(), os.Stdout)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*components, error) {
	if err := postgres.Migrate(cfg.Database.URL); err != nil {
		return nil, err
	}

	db, err := postgres.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to database")

	comps := &components{
		db:      db,
		news:    postgres.NewNewsStore(db),
		states:  postgres.NewSyncStateStore(db),
		metrics: metrics.New(),
	}

	// a nil *RabbitMQ must not reach the service as a non-nil interface
	var pub service.Publisher
	if cfg.RabbitMQ.Enabled() {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			comps.Close()
			return nil, err
		}
		comps.publisher = rabbitMQ
		pub = rabbitMQ
	}

	feeds := rss.New(rss.Config{
		Timeout:        cfg.Fetch.Timeout,
		UserAgent:      cfg.Fetch.UserAgent,
		MaxAttempts:    cfg.Fetch.Retry.MaxAttempts,
		InitialBackoff: cfg.Fetch.Retry.InitialBackoff,
		MaxBackoff:     cfg.Fetch.Retry.MaxBackoff,
	}, cfg.Sources, logger)

	comps.sync = service.NewSyncService(
		feeds,
		comps.news,
		comps.states,
		postgres.NewTransactionManager(db),
		pub,
		comps.metrics,
		logger,
		cfg.Sync.CycleTimeout,
	)

	return comps, nil
}

func serve(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	comps, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer comps.Close()

	var staticDir string
	if cfg.Production() {
		staticDir = cfg.HTTP.StaticDir
	}

	h := handlers.New(comps.news, comps.sync, comps.states, comps.news, cfg.Sources)
	srv := &http.Server{
		Addr: cfg.HTTP.Addr(),
		Handler: apihttp.NewRouter(h, apihttp.Options{
			Logger:    logger,
			Metrics:   comps.metrics,
			StaticDir: staticDir,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	sched := scheduler.NewScheduler(comps.sync, cfg.Sync.Interval, cfg.Sync.CycleTimeout, logger)

	errCh := make(chan error, 2)
	go func() {
		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("scheduler: %w", err)
		}
	}()
	go func() {
		logger.Info("http server listening", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case runErr = <-errCh:
	}

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}

	logger.Info("stopped")
	return runErr
}

func syncOnce(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}

	comps, err := build(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	defer comps.Close()

	stats, err := comps.sync.Sync(c.Context)
	if stats != nil {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		_ = enc.Encode(stats)
	}
	return err
}

func migrateOnly(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}

	if err := postgres.Migrate(cfg.Database.URL); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}
