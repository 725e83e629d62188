// Package ledger owns the live, in-memory view of the khata: it loads friends
// and transactions from storage, keeps them current by following the change
// feed, and exposes them as latest-value streams. Service is the write side.
package ledger

import (
	"time"

	"github.com/josh-kwaku/khata/internal/domain"
)

// Snapshot is one complete load of a table. Stale is set when the most recent
// reload failed and Data is the last copy that loaded successfully.
type Snapshot[T any] struct {
	Data     T
	Stale    bool
	LoadedAt time.Time
}

type (
	FriendsSnapshot      = Snapshot[[]domain.Friend]
	TransactionsSnapshot = Snapshot[[]domain.Transaction]
	SummariesSnapshot    = Snapshot[[]domain.FriendSummary]
)

// Merge reports the staleness and load time of a value derived from both
// snapshots: stale if either is, as fresh as the newer of the two.
func Merge[A, B any](a Snapshot[A], b Snapshot[B]) (stale bool, loadedAt time.Time) {
	loadedAt = a.LoadedAt
	if b.LoadedAt.After(loadedAt) {
		loadedAt = b.LoadedAt
	}
	return a.Stale || b.Stale, loadedAt
}

// State pairs the friends and transactions snapshots as they stood after the
// same reload. Anything computed from both tables reads State so it never
// mixes a fresh copy of one table with an outdated copy of the other.
type State struct {
	Friends      FriendsSnapshot
	Transactions TransactionsSnapshot
}

func (s State) Freshness() (stale bool, loadedAt time.Time) {
	return Merge(s.Transactions, s.Friends)
}
