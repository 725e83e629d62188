package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	// DirectionCredit means the friend now owes the user more.
	DirectionCredit Direction = "CREDIT"
	// DirectionDebit means the user now owes the friend more.
	DirectionDebit Direction = "DEBIT"
)

func (d Direction) IsValid() bool {
	return d == DirectionCredit || d == DirectionDebit
}

type Transaction struct {
	ID          int64
	FriendID    int64
	Amount      decimal.Decimal
	Direction   Direction
	Description string
	IsSettled   bool
	DueDate     *time.Time
	OccurredAt  time.Time
	CreatedAt   time.Time
}

// Signed returns the amount with the ledger sign convention applied:
// CREDIT is positive, DEBIT is negative.
func (t Transaction) Signed() decimal.Decimal {
	if t.Direction == DirectionDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// MaxAmount is the largest value the NUMERIC(14,2) amount column holds.
var MaxAmount = decimal.RequireFromString("999999999999.99")

// ValidateAmount enforces 0 < amount <= MaxAmount with at most two
// fractional digits.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || amount.GreaterThan(MaxAmount) {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(2)) {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateDueDate rejects a due date earlier than the transaction itself.
func ValidateDueDate(occurredAt time.Time, due *time.Time) error {
	if due != nil && due.Before(occurredAt) {
		return ErrDueBeforeTransaction
	}
	return nil
}
