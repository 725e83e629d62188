package changefeed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisFeed uses Redis PUBLISH/SUBSCRIBE on a single channel.
type RedisFeed struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

func NewRedisFeed(ctx context.Context, redisURL, channel string, logger *slog.Logger) (*RedisFeed, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("NewRedisFeed: parse url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("NewRedisFeed: ping: %w", err)
	}
	return &RedisFeed{client: client, channel: channel, logger: logger}, nil
}

func (f *RedisFeed) Publish(ctx context.Context, ev Event) error {
	payload, err := ev.Encode()
	if err != nil {
		return fmt.Errorf("Publish: %w", err)
	}
	if err := f.client.Publish(ctx, f.channel, payload).Err(); err != nil {
		return fmt.Errorf("Publish: %w", err)
	}
	return nil
}

func (f *RedisFeed) Listen(ctx context.Context) (<-chan Event, error) {
	sub := f.client.Subscribe(ctx, f.channel)
	// Wait for the subscription confirmation so that nothing published after
	// Listen returns is missed.
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("Listen: %w", err)
	}

	msgs := sub.Channel()
	out := make(chan Event, listenerBuffer)
	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				ev, err := Decode(msg.Payload)
				if err != nil {
					f.logger.Warn("malformed change notification", "channel", msg.Channel, "error", err)
					deliver(out, Resync)
					continue
				}
				deliver(out, ev)
			}
		}
	}()
	return out, nil
}

func (f *RedisFeed) Close() error {
	if err := f.client.Close(); err != nil {
		return fmt.Errorf("Close: %w", err)
	}
	return nil
}
