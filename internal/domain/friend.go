package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Friend struct {
	ID        int64
	Name      string
	AvatarURL *string
	CreatedAt time.Time
}

// FriendSummary is the per-friend khata over unsettled transactions only.
type FriendSummary struct {
	FriendID    int64
	Name        string
	TotalCredit decimal.Decimal
	TotalDebit  decimal.Decimal
}

// Net is positive when the friend owes the user.
func (s FriendSummary) Net() decimal.Decimal {
	return s.TotalCredit.Sub(s.TotalDebit)
}
