// Package stream provides latest-value reactive plumbing: a Subject holds the
// most recent value and pushes it to subscribers, and Map/Combine derive new
// subjects from existing sources.
//
// Delivery is latest-value-wins. Each subscriber has a one-slot buffer; a
// value that has not been read yet is replaced by a newer one, so a slow
// reader never sees stale results and never blocks a publisher.
package stream

import (
	"context"
	"sync"
)

// Source is anything that can be subscribed to for a sequence of values.
type Source[T any] interface {
	Subscribe(ctx context.Context) <-chan T
}

type Subject[T any] struct {
	mu     sync.Mutex
	value  T
	has    bool
	closed bool
	nextID int
	subs   map[int]chan T
	done   chan struct{}
}

func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{subs: make(map[int]chan T), done: make(chan struct{})}
}

// Publish stores v as the latest value and hands it to every subscriber.
func (s *Subject[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.value = v
	s.has = true
	for _, ch := range s.subs {
		offer(ch, v)
	}
}

// offer replaces any undelivered value in ch with v. Callers hold the lock,
// so they are the only sender and the final send cannot block.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- v
}

// Latest returns the most recently published value, if any.
func (s *Subject[T]) Latest() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.has
}

// Subscribe returns a channel that first yields the current value (if one has
// been published) and then every later one. The channel is closed when ctx
// ends or the subject is closed.
func (s *Subject[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	if s.has {
		ch <- s.value
	}
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			s.unsubscribe(id)
		case <-s.done:
		}
	}()
	return ch
}

func (s *Subject[T]) unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

// Subscribers reports how many live subscriptions the subject has.
func (s *Subject[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close ends every subscription. Later publishes are ignored.
func (s *Subject[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
