package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/khata/internal/domain"
)

// ComputeOverview folds every transaction, settled or not, into global totals.
func ComputeOverview(txns []domain.Transaction) BalanceOverview {
	acc := BalanceOverview{
		TotalReceivable: decimal.Zero,
		TotalPayable:    decimal.Zero,
		NetBalance:      decimal.Zero,
	}
	for _, t := range txns {
		switch t.Direction {
		case domain.DirectionCredit:
			acc.TotalReceivable = acc.TotalReceivable.Add(t.Amount)
			acc.NetBalance = acc.NetBalance.Add(t.Amount)
		case domain.DirectionDebit:
			acc.TotalPayable = acc.TotalPayable.Add(t.Amount)
			acc.NetBalance = acc.NetBalance.Sub(t.Amount)
		}
	}
	return acc
}

// NetByFriend returns each friend's net balance (CREDIT minus DEBIT) and the
// friend IDs in order of first appearance.
func NetByFriend(txns []domain.Transaction) (map[int64]decimal.Decimal, []int64) {
	nets := make(map[int64]decimal.Decimal)
	var order []int64
	for _, t := range txns {
		cur, seen := nets[t.FriendID]
		if !seen {
			order = append(order, t.FriendID)
			cur = decimal.Zero
		}
		nets[t.FriendID] = cur.Add(t.Signed())
	}
	return nets, order
}
