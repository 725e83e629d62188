package changefeed

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("change feed closed")

// MemoryFeed fans events out to listeners in the same process.
type MemoryFeed struct {
	mu        sync.Mutex
	closed    bool
	nextID    int
	listeners map[int]chan Event
	done      chan struct{}
}

func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{listeners: make(map[int]chan Event), done: make(chan struct{})}
}

func (f *MemoryFeed) Publish(_ context.Context, ev Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	for _, ch := range f.listeners {
		deliver(ch, ev)
	}
	return nil
}

func (f *MemoryFeed) Listen(ctx context.Context) (<-chan Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}

	id := f.nextID
	f.nextID++
	ch := make(chan Event, listenerBuffer)
	f.listeners[id] = ch

	go func() {
		select {
		case <-ctx.Done():
		case <-f.done:
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		if c, ok := f.listeners[id]; ok {
			delete(f.listeners, id)
			close(c)
		}
	}()
	return ch, nil
}

func (f *MemoryFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	close(f.done)
	for id, ch := range f.listeners {
		delete(f.listeners, id)
		close(ch)
	}
	return nil
}
