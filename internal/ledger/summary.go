package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/khata/internal/domain"
)

// Summarize builds per-friend totals over unsettled transactions, ordered by
// friend ID. A non-nil friendID restricts the result to that friend; an
// unknown ID yields an empty result.
func Summarize(friends []domain.Friend, txns []domain.Transaction, friendID *int64) []domain.FriendSummary {
	byID := make(map[int64]*domain.FriendSummary, len(friends))
	for _, f := range friends {
		if friendID != nil && f.ID != *friendID {
			continue
		}
		byID[f.ID] = &domain.FriendSummary{
			FriendID:    f.ID,
			Name:        f.Name,
			TotalCredit: decimal.Zero,
			TotalDebit:  decimal.Zero,
		}
	}

	for _, t := range txns {
		if t.IsSettled {
			continue
		}
		s, ok := byID[t.FriendID]
		if !ok {
			continue
		}
		switch t.Direction {
		case domain.DirectionCredit:
			s.TotalCredit = s.TotalCredit.Add(t.Amount)
		case domain.DirectionDebit:
			s.TotalDebit = s.TotalDebit.Add(t.Amount)
		}
	}

	out := make([]domain.FriendSummary, 0, len(byID))
	for _, s := range byID {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FriendID < out[j].FriendID })
	return out
}
