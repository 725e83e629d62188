package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/khata/internal/domain"
)

func SeedFriend(t *testing.T, db *sql.DB, name string) *domain.Friend {
	t.Helper()

	f := &domain.Friend{Name: name}
	err := db.QueryRow(
		`INSERT INTO friends (name) VALUES ($1) RETURNING id, created_at`,
		name,
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		t.Fatalf("seed friend %s: %v", name, err)
	}
	return f
}

func SeedTransaction(t *testing.T, db *sql.DB, friendID int64, dir domain.Direction, amount string, occurredAt time.Time) *domain.Transaction {
	t.Helper()

	tx := &domain.Transaction{
		FriendID:   friendID,
		Amount:     decimal.RequireFromString(amount),
		Direction:  dir,
		OccurredAt: occurredAt.UTC(),
	}
	err := db.QueryRow(
		`INSERT INTO transactions (friend_id, amount, direction, occurred_at)
		 VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		tx.FriendID, tx.Amount, tx.Direction, tx.OccurredAt,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		t.Fatalf("seed transaction for friend %d: %v", friendID, err)
	}
	return tx
}

func SettleTransaction(t *testing.T, db *sql.DB, id int64) {
	t.Helper()

	if _, err := db.Exec(`UPDATE transactions SET is_settled = TRUE WHERE id = $1`, id); err != nil {
		t.Fatalf("settle transaction %d: %v", id, err)
	}
}

func CountTransactions(t *testing.T, db *sql.DB, friendID int64) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE friend_id = $1`, friendID).Scan(&count)
	if err != nil {
		t.Fatalf("count transactions for friend %d: %v", friendID, err)
	}
	return count
}
