package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

const pingTimeout = 5 * time.Second

// ConnectOptions sizes the pool and bounds how long Connect waits for the
// database to come up.
type ConnectOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Attempts is how many pings are tried before giving up. Zero means one.
	Attempts   int
	RetryDelay time.Duration
	Logger     *slog.Logger
}

// Connect opens the ledger database and pings it until it answers, the
// attempts run out or ctx ends.
func Connect(ctx context.Context, databaseURL string, opts ConnectOptions) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("Connect: open: %w", err)
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attempts := max(opts.Attempts, 1)
	for i := 1; ; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return db, nil
		}
		if i == attempts {
			break
		}

		logger.Info("waiting for database", "attempt", i, "error", err)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, fmt.Errorf("Connect: %w", ctx.Err())
		case <-time.After(opts.RetryDelay):
		}
	}

	db.Close()
	return nil, fmt.Errorf("Connect: no answer after %d attempts: %w", attempts, err)
}
