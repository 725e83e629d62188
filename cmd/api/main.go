package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/josh-kwaku/khata/api"
	"github.com/josh-kwaku/khata/internal/analytics"
	"github.com/josh-kwaku/khata/internal/changefeed"
	"github.com/josh-kwaku/khata/internal/clock"
	"github.com/josh-kwaku/khata/internal/config"
	"github.com/josh-kwaku/khata/internal/handler"
	"github.com/josh-kwaku/khata/internal/ledger"
	"github.com/josh-kwaku/khata/internal/logging"
	"github.com/josh-kwaku/khata/internal/repository"
	"github.com/josh-kwaku/khata/internal/server"
)

const idempotencyPurgeInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("khata-api", cfg.LogLevel, cfg.AppEnv)

	loc, err := cfg.Location()
	if err != nil {
		slog.Error("invalid time zone", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The ledger, the pipeline and request contexts outlive the signal so
	// in-flight requests can finish during Shutdown. appCtx is cancelled once
	// Shutdown returns.
	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	db, err := connectDB(ctx, cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	feed, err := openFeed(ctx, cfg, db, logger)
	if err != nil {
		slog.Error("failed to open change feed", "error", err, "kind", cfg.ChangeFeed)
		os.Exit(1)
	}
	defer feed.Close()

	friends := repository.NewFriendRepository(db)
	txns := repository.NewTransactionRepository(db)
	summaries := repository.NewSummaryRepository(db)
	idempotency := repository.NewIdempotencyRepository(db)

	store := ledger.NewStore(friends, txns, feed, logger.With("component", "ledger_store"))
	if err := store.Start(appCtx); err != nil {
		slog.Error("failed to load ledger", "error", err)
		os.Exit(1)
	}

	ticker := analytics.NewDayTicker(clock.Real{}, loc)
	ticker.Start(appCtx)

	pipeline := analytics.NewPipeline(appCtx, store.State(), ticker, analytics.Settings{
		DistributionLimit: cfg.DistributionLimit,
		TrendWindow:       cfg.TrendWindow,
		Palette:           analytics.DefaultPalette,
		Location:          loc,
	})

	svc := ledger.NewService(friends, txns, summaries, feed, clock.Real{})

	analyticsHandler := handler.NewAnalyticsHandler(pipeline)
	router := server.NewRouter(server.Handlers{
		Health:       handler.NewHealthHandler(db, store),
		Friends:      handler.NewFriendHandler(svc),
		Transactions: handler.NewTransactionHandler(svc),
		Analytics:    analyticsHandler,
		Docs:         handler.NewDocsHandler(api.Spec),
	}, server.Options{
		Logger:         logger,
		Idempotency:    idempotency,
		IdempotencyTTL: cfg.IdempotencyTTL,
	})

	go purgeIdempotency(appCtx, idempotency)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return appCtx },
	}
	srv.RegisterOnShutdown(analyticsHandler.Shutdown)

	go func() {
		slog.Info("server started", "addr", addr, "change_feed", cfg.ChangeFeed, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	select {
	case <-ctx.Done():
	case <-store.Done():
		slog.Error("ledger store stopped unexpectedly")
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	stopApp()
	slog.Info("server stopped")
}

func connectDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	return repository.Connect(ctx, cfg.DatabaseURL, repository.ConnectOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetimeS) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.DBConnMaxIdleTimeS) * time.Second,
		Attempts:        30,
		RetryDelay:      time.Second,
	})
}

func openFeed(ctx context.Context, cfg *config.Config, db *sql.DB, logger *slog.Logger) (changefeed.Feed, error) {
	feedLogger := logger.With("component", "change_feed")
	switch cfg.ChangeFeed {
	case "memory":
		return changefeed.NewMemoryFeed(), nil
	case "redis":
		feed, err := changefeed.NewRedisFeed(ctx, cfg.RedisURL, cfg.ChangeFeedChannel, feedLogger)
		if err != nil {
			return nil, fmt.Errorf("openFeed: %w", err)
		}
		return feed, nil
	default:
		return changefeed.NewPostgresFeed(db, cfg.DatabaseURL, cfg.ChangeFeedChannel, feedLogger), nil
	}
}

func purgeIdempotency(ctx context.Context, repo *repository.IdempotencyRepository) {
	t := time.NewTicker(idempotencyPurgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := repo.DeleteExpired(ctx)
			if err != nil {
				slog.Warn("idempotency purge failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("purged expired idempotency entries", "count", n)
			}
		}
	}
}
