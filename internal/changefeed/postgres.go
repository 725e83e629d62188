package changefeed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

const (
	minReconnectInterval = 100 * time.Millisecond
	maxReconnectInterval = 10 * time.Second
	listenerPingInterval = 90 * time.Second
)

// PostgresFeed publishes with pg_notify and listens with LISTEN on a
// dedicated lib/pq connection per listener.
type PostgresFeed struct {
	db      *sql.DB
	dsn     string
	channel string
	logger  *slog.Logger
}

func NewPostgresFeed(db *sql.DB, dsn, channel string, logger *slog.Logger) *PostgresFeed {
	return &PostgresFeed{db: db, dsn: dsn, channel: channel, logger: logger}
}

func (f *PostgresFeed) Publish(ctx context.Context, ev Event) error {
	payload, err := ev.Encode()
	if err != nil {
		return fmt.Errorf("Publish: %w", err)
	}
	if _, err := f.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, f.channel, payload); err != nil {
		return fmt.Errorf("Publish: %w", err)
	}
	return nil
}

func (f *PostgresFeed) Listen(ctx context.Context) (<-chan Event, error) {
	listener := pq.NewListener(f.dsn, minReconnectInterval, maxReconnectInterval,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				f.logger.Warn("change feed listener event", "event", ev, "error", err)
			}
		})
	if err := listener.Listen(f.channel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("Listen: %w", err)
	}

	out := make(chan Event, listenerBuffer)
	go func() {
		defer close(out)
		defer listener.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-listener.Notify:
				// lib/pq sends nil after re-establishing the connection;
				// anything published meanwhile was lost.
				if n == nil {
					deliver(out, Resync)
					continue
				}
				ev, err := Decode(n.Extra)
				if err != nil {
					f.logger.Warn("malformed change notification", "channel", n.Channel, "error", err)
					deliver(out, Resync)
					continue
				}
				deliver(out, ev)
			case <-time.After(listenerPingInterval):
				go func() {
					if err := listener.Ping(); err != nil {
						f.logger.Warn("change feed listener ping failed", "error", err)
					}
				}()
			}
		}
	}()
	return out, nil
}

// Close is a no-op: listeners are released with their contexts and the
// *sql.DB is owned by the caller.
func (f *PostgresFeed) Close() error {
	return nil
}
