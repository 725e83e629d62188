// Package changefeed carries "something changed" notifications from writers of
// the ledger tables to every process holding a live view of them.
package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
)

type Entity string

const (
	EntityFriend      Entity = "friend"
	EntityTransaction Entity = "transaction"
	EntityAll         Entity = "all"
)

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	// OpResync asks listeners to reload everything, e.g. after a reconnect or
	// when notifications may have been dropped.
	OpResync Op = "resync"
)

type Event struct {
	Entity Entity `json:"entity"`
	Op     Op     `json:"op"`
	ID     int64  `json:"id,omitempty"`
}

var Resync = Event{Entity: EntityAll, Op: OpResync}

func (e Event) Encode() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("Encode: %w", err)
	}
	return string(b), nil
}

func Decode(payload string) (Event, error) {
	var e Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return Event{}, fmt.Errorf("Decode: %w", err)
	}
	switch e.Entity {
	case EntityFriend, EntityTransaction, EntityAll:
	default:
		return Event{}, fmt.Errorf("Decode: unknown entity %q", e.Entity)
	}
	return e, nil
}

type Feed interface {
	Publish(ctx context.Context, ev Event) error
	// Listen returns events published after the call. The channel is closed
	// when ctx ends or the feed is closed.
	Listen(ctx context.Context) (<-chan Event, error)
	Close() error
}

const listenerBuffer = 64

// deliver never blocks. If the listener has fallen behind, its backlog is
// replaced by a single resync event. out must have a single sender.
func deliver(out chan Event, ev Event) {
	select {
	case out <- ev:
		return
	default:
	}
drain:
	for {
		select {
		case <-out:
		default:
			break drain
		}
	}
	out <- Resync
}
