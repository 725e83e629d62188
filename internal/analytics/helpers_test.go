package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/khata/internal/domain"
)

var baseTime = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func credit(friendID int64, amount string, at time.Time) domain.Transaction {
	return domain.Transaction{FriendID: friendID, Amount: dec(amount), Direction: domain.DirectionCredit, OccurredAt: at}
}

func debit(friendID int64, amount string, at time.Time) domain.Transaction {
	return domain.Transaction{FriendID: friendID, Amount: dec(amount), Direction: domain.DirectionDebit, OccurredAt: at}
}

func decimalsToStrings(ds []decimal.Decimal) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}
