// Command seed records a demo khata through the ledger service, so running
// API instances pick the changes up from the change feed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/khata/internal/changefeed"
	"github.com/josh-kwaku/khata/internal/clock"
	"github.com/josh-kwaku/khata/internal/config"
	"github.com/josh-kwaku/khata/internal/domain"
	"github.com/josh-kwaku/khata/internal/ledger"
	"github.com/josh-kwaku/khata/internal/logging"
	"github.com/josh-kwaku/khata/internal/repository"
)

type demoEntry struct {
	daysAgo   int
	amount    string
	direction domain.Direction
	note      string
	settled   bool
}

var demo = []struct {
	name    string
	entries []demoEntry
}{
	{"Asha", []demoEntry{
		{12, "1500.00", domain.DirectionCredit, "rent share", false},
		{5, "250.00", domain.DirectionDebit, "groceries", false},
		{1, "80.00", domain.DirectionDebit, "cab", false},
	}},
	{"Bilal", []demoEntry{
		{9, "600.00", domain.DirectionDebit, "concert tickets", false},
		{3, "600.00", domain.DirectionCredit, "paid back", true},
	}},
	{"Chen", []demoEntry{
		{6, "320.50", domain.DirectionCredit, "dinner", false},
	}},
	{"Dina", []demoEntry{
		{4, "75.00", domain.DirectionDebit, "coffee beans", false},
		{2, "40.00", domain.DirectionDebit, "snacks", false},
	}},
	{"Eli", []demoEntry{
		{8, "1200.00", domain.DirectionDebit, "flight", false},
	}},
	{"Fay", []demoEntry{
		{0, "55.25", domain.DirectionCredit, "movie", false},
	}},
}

func main() {
	reset := flag.Bool("reset", false, "delete every existing friend before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Init("khata-seed", cfg.LogLevel, cfg.AppEnv)

	ctx := context.Background()
	if err := run(ctx, cfg, logger, *reset); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, reset bool) error {
	db, err := repository.Connect(ctx, cfg.DatabaseURL, repository.ConnectOptions{MaxOpenConns: 2, MaxIdleConns: 1, Attempts: 5, RetryDelay: time.Second, Logger: logger})
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	defer db.Close()

	var feed changefeed.Feed
	switch cfg.ChangeFeed {
	case "redis":
		rf, err := changefeed.NewRedisFeed(ctx, cfg.RedisURL, cfg.ChangeFeedChannel, logger)
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		feed = rf
	case "postgres":
		feed = changefeed.NewPostgresFeed(db, cfg.DatabaseURL, cfg.ChangeFeedChannel, logger)
	default:
		feed = changefeed.NewMemoryFeed()
	}
	defer feed.Close()

	svc := ledger.NewService(
		repository.NewFriendRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewSummaryRepository(db),
		feed,
		clock.Real{},
	)
	ctx = logging.WithLogger(ctx, logger)

	if reset {
		existing, err := svc.ListFriends(ctx)
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		for _, f := range existing {
			if err := svc.DeleteFriend(ctx, f.ID); err != nil {
				return fmt.Errorf("run: reset: %w", err)
			}
		}
		logger.Info("cleared existing friends", "count", len(existing))
	}

	today := clock.StartOfDay(time.Now()).Add(12 * time.Hour)
	var recorded int
	for _, d := range demo {
		friend, err := svc.AddFriend(ctx, ledger.NewFriend{Name: d.name})
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		for _, e := range d.entries {
			at := today.AddDate(0, 0, -e.daysAgo)
			txn, err := svc.AddTransaction(ctx, friend.ID, ledger.TransactionInput{
				Amount:      decimal.RequireFromString(e.amount),
				Direction:   e.direction,
				Description: e.note,
				OccurredAt:  &at,
			})
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}
			if e.settled {
				if _, err := svc.SettleTransaction(ctx, txn.ID, true); err != nil {
					return fmt.Errorf("run: %w", err)
				}
			}
			recorded++
		}
	}

	logger.Info("demo khata seeded", "friends", len(demo), "transactions", recorded)
	return nil
}
