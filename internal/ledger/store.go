package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/josh-kwaku/khata/internal/changefeed"
	"github.com/josh-kwaku/khata/internal/clock"
	"github.com/josh-kwaku/khata/internal/domain"
	"github.com/josh-kwaku/khata/internal/stream"
)

const DefaultRetryInterval = 5 * time.Second

type Store struct {
	friends       friendLister
	txns          transactionLister
	feed          changefeed.Feed
	clock         clock.Clock
	logger        *slog.Logger
	retryInterval time.Duration

	friendSubj *stream.Subject[FriendsSnapshot]
	txnSubj    *stream.Subject[TransactionsSnapshot]
	stateSubj  *stream.Subject[State]
	done       chan struct{}
}

type StoreOption func(*Store)

func WithClock(c clock.Clock) StoreOption {
	return func(s *Store) { s.clock = c }
}

// WithRetryInterval sets how long the store waits before retrying a reload
// that failed.
func WithRetryInterval(d time.Duration) StoreOption {
	return func(s *Store) { s.retryInterval = d }
}

func NewStore(friends friendLister, txns transactionLister, feed changefeed.Feed, logger *slog.Logger, opts ...StoreOption) *Store {
	s := &Store{
		friends:       friends,
		txns:          txns,
		feed:          feed,
		clock:         clock.Real{},
		logger:        logger,
		retryInterval: DefaultRetryInterval,
		friendSubj:    stream.NewSubject[FriendsSnapshot](),
		txnSubj:       stream.NewSubject[TransactionsSnapshot](),
		stateSubj:     stream.NewSubject[State](),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start subscribes to the change feed, publishes the initial snapshots and
// then follows the feed in the background until ctx ends. The feed is joined
// before the first load so no change between the two is missed.
func (s *Store) Start(ctx context.Context) error {
	events, err := s.feed.Listen(ctx)
	if err != nil {
		s.shutdown()
		return fmt.Errorf("Start: listen: %w", err)
	}

	if err := s.loadFriends(ctx); err != nil {
		s.shutdown()
		return fmt.Errorf("Start: %w", err)
	}
	if err := s.loadTransactions(ctx); err != nil {
		s.shutdown()
		return fmt.Errorf("Start: %w", err)
	}
	s.publishState()

	s.logger.Info("ledger store loaded",
		"friends", len(s.latestFriends()),
		"transactions", len(s.latestTransactions()),
	)

	go s.follow(ctx, events)
	return nil
}

// Done is closed once the store has stopped following the feed and closed
// its streams.
func (s *Store) Done() <-chan struct{} {
	return s.done
}

// State streams both tables together. It publishes once per reload, after
// every table that reload touched is current.
func (s *Store) State() stream.Source[State] {
	return s.stateSubj
}

func (s *Store) StreamAllTransactions(ctx context.Context) <-chan TransactionsSnapshot {
	return s.txnSubj.Subscribe(ctx)
}

func (s *Store) StreamAllFriends(ctx context.Context) <-chan FriendsSnapshot {
	return s.friendSubj.Subscribe(ctx)
}

func (s *Store) StreamTransactionsForFriend(ctx context.Context, friendID int64) <-chan TransactionsSnapshot {
	return stream.Map(ctx, s.txnSubj, func(snap TransactionsSnapshot) TransactionsSnapshot {
		filtered := make([]domain.Transaction, 0)
		for _, t := range snap.Data {
			if t.FriendID == friendID {
				filtered = append(filtered, t)
			}
		}
		return TransactionsSnapshot{Data: filtered, Stale: snap.Stale, LoadedAt: snap.LoadedAt}
	}).Subscribe(ctx)
}

// StreamFriendSummary streams unsettled totals for one friend, or for every
// friend when friendID is nil.
func (s *Store) StreamFriendSummary(ctx context.Context, friendID *int64) <-chan SummariesSnapshot {
	return stream.Map(ctx, s.stateSubj, func(st State) SummariesSnapshot {
		stale, loadedAt := st.Freshness()
		return SummariesSnapshot{
			Data:     Summarize(st.Friends.Data, st.Transactions.Data, friendID),
			Stale:    stale,
			LoadedAt: loadedAt,
		}
	}).Subscribe(ctx)
}

type reloadSet struct {
	friends      bool
	transactions bool
}

func (r reloadSet) add(ev changefeed.Event) reloadSet {
	switch ev.Entity {
	case changefeed.EntityTransaction:
		r.transactions = true
	default:
		// Deleting a friend cascades to its transactions, and resync touches both.
		r.friends = true
		r.transactions = true
	}
	return r
}

func (r reloadSet) empty() bool {
	return !r.friends && !r.transactions
}

func (s *Store) follow(ctx context.Context, events <-chan changefeed.Event) {
	defer s.shutdown()

	var (
		pending reloadSet
		retry   <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				s.logger.Warn("change feed closed, ledger store stopped following")
				return
			}
			pending = drainEvents(events, pending.add(ev))
		case <-retry:
		}

		pending = s.refresh(ctx, pending)
		retry = nil
		if !pending.empty() {
			retry = time.After(s.retryInterval)
		}
	}
}

// drainEvents folds every event already queued into one reload.
func drainEvents(events <-chan changefeed.Event, pending reloadSet) reloadSet {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return pending
			}
			pending = pending.add(ev)
		default:
			return pending
		}
	}
}

// refresh reloads what p asks for and returns the part that failed.
func (s *Store) refresh(ctx context.Context, p reloadSet) reloadSet {
	var failed reloadSet
	if p.transactions {
		if err := s.loadTransactions(ctx); err != nil {
			s.logger.Error("reload transactions failed, serving stale snapshot", "error", err)
			failed.transactions = true
		}
	}
	if p.friends {
		if err := s.loadFriends(ctx); err != nil {
			s.logger.Error("reload friends failed, serving stale snapshot", "error", err)
			failed.friends = true
		}
	}
	s.publishState()
	return failed
}

// publishState pairs the latest snapshot of each table. Only Start and the
// follow loop call it, so the two reads cannot interleave with a load.
func (s *Store) publishState() {
	friends, _ := s.friendSubj.Latest()
	txns, _ := s.txnSubj.Latest()
	s.stateSubj.Publish(State{Friends: friends, Transactions: txns})
}

func (s *Store) loadFriends(ctx context.Context) error {
	if err := load(ctx, s.friendSubj, s.friends.List, s.clock.Now()); err != nil {
		return fmt.Errorf("loadFriends: %w", err)
	}
	return nil
}

func (s *Store) loadTransactions(ctx context.Context) error {
	if err := load(ctx, s.txnSubj, s.txns.List, s.clock.Now()); err != nil {
		return fmt.Errorf("loadTransactions: %w", err)
	}
	return nil
}

// load publishes a fresh snapshot, or re-publishes the previous one marked
// stale when the list call fails.
func load[T any](ctx context.Context, subj *stream.Subject[Snapshot[T]], list func(context.Context) (T, error), now time.Time) error {
	data, err := list(ctx)
	if err != nil {
		if prev, ok := subj.Latest(); ok && !prev.Stale {
			prev.Stale = true
			subj.Publish(prev)
		}
		return err
	}
	subj.Publish(Snapshot[T]{Data: data, LoadedAt: now})
	return nil
}

func (s *Store) latestFriends() []domain.Friend {
	snap, _ := s.friendSubj.Latest()
	return snap.Data
}

func (s *Store) latestTransactions() []domain.Transaction {
	snap, _ := s.txnSubj.Latest()
	return snap.Data
}

func (s *Store) shutdown() {
	select {
	case <-s.done:
		return
	default:
	}
	s.friendSubj.Close()
	s.txnSubj.Close()
	s.stateSubj.Close()
	close(s.done)
}
