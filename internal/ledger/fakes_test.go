package ledger

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/josh-kwaku/khata/internal/domain"
)

var errStorageDown = errors.New("storage down")

// memRepo is an in-memory stand-in for the friend, transaction and summary
// repositories.
type memRepo struct {
	mu      sync.Mutex
	nextID  int64
	friends map[int64]domain.Friend
	txns    map[int64]domain.Transaction
	failing bool
	lists   int
}

func newMemRepo() *memRepo {
	return &memRepo{friends: map[int64]domain.Friend{}, txns: map[int64]domain.Transaction{}}
}

func (r *memRepo) setFailing(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failing = v
}

func (r *memRepo) listCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lists
}

func (r *memRepo) id() int64 {
	r.nextID++
	return r.nextID
}

type memFriends struct{ *memRepo }

func (r memFriends) Create(_ context.Context, f *domain.Friend) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f.ID = r.id()
	f.CreatedAt = time.Now()
	r.friends[f.ID] = *f
	return nil
}

func (r memFriends) GetByID(_ context.Context, id int64) (*domain.Friend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.friends[id]
	if !ok {
		return nil, domain.ErrFriendNotFound
	}
	return &f, nil
}

func (r memFriends) List(_ context.Context) ([]domain.Friend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
	if r.failing {
		return nil, errStorageDown
	}
	out := make([]domain.Friend, 0, len(r.friends))
	for _, f := range r.friends {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memFriends) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.friends[id]; !ok {
		return domain.ErrFriendNotFound
	}
	delete(r.friends, id)
	for tid, t := range r.txns {
		if t.FriendID == id {
			delete(r.txns, tid)
		}
	}
	return nil
}

type memTxns struct{ *memRepo }

func (r memTxns) Create(_ context.Context, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.friends[t.FriendID]; !ok {
		return domain.ErrFriendNotFound
	}
	t.ID = r.id()
	t.CreatedAt = time.Now()
	r.txns[t.ID] = *t
	return nil
}

func (r memTxns) GetByID(_ context.Context, id int64) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.txns[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return &t, nil
}

func (r memTxns) List(_ context.Context) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
	if r.failing {
		return nil, errStorageDown
	}
	return r.sorted(func(domain.Transaction) bool { return true }), nil
}

func (r memTxns) ListByFriend(_ context.Context, friendID int64) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(t domain.Transaction) bool { return t.FriendID == friendID }), nil
}

func (r memTxns) sorted(keep func(domain.Transaction) bool) []domain.Transaction {
	out := []domain.Transaction{}
	for _, t := range r.txns {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memTxns) Update(_ context.Context, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.txns[t.ID]; !ok {
		return domain.ErrTransactionNotFound
	}
	r.txns[t.ID] = *t
	return nil
}

func (r memTxns) SetSettled(_ context.Context, id int64, settled bool) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.txns[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	t.IsSettled = settled
	r.txns[id] = t
	return &t, nil
}

func (r memTxns) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.txns[id]; !ok {
		return domain.ErrTransactionNotFound
	}
	delete(r.txns, id)
	return nil
}

type memSummaries struct{ *memRepo }

func (r memSummaries) List(ctx context.Context, friendID *int64) ([]domain.FriendSummary, error) {
	friends, _ := memFriends(r).List(ctx)
	txns, _ := memTxns(r).List(ctx)
	out := Summarize(friends, txns, friendID)
	if friendID != nil && len(out) == 0 {
		return nil, domain.ErrFriendNotFound
	}
	return out, nil
}

// waitFor reads from ch until match accepts a value. Latest-value delivery may
// skip intermediate values, so tests wait for a state rather than a count.
func waitFor[T any](t *testing.T, ch <-chan T, match func(T) bool) T {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				t.Fatal("stream closed before the expected value arrived")
			}
			if match(v) {
				return v
			}
		case <-deadline:
			t.Fatal("timed out waiting for stream value")
		}
	}
}
