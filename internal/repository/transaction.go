package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/josh-kwaku/khata/internal/domain"
)

const transactionColumns = `id, friend_id, amount, direction, description,
	is_settled, due_date, occurred_at, created_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO transactions (
			friend_id, amount, direction, description, is_settled, due_date, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		t.FriendID, t.Amount, t.Direction, t.Description, t.IsSettled, t.DueDate, t.OccurredAt,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("Create: %w", domain.ErrFriendNotFound)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrTransactionNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return t, nil
}

// List returns every transaction in creation order.
func (r *TransactionRepository) List(ctx context.Context) ([]domain.Transaction, error) {
	return r.query(ctx, "List",
		`SELECT `+transactionColumns+` FROM transactions ORDER BY id`,
	)
}

// ListByFriend returns one friend's transactions, newest first.
func (r *TransactionRepository) ListByFriend(ctx context.Context, friendID int64) ([]domain.Transaction, error) {
	return r.query(ctx, "ListByFriend",
		`SELECT `+transactionColumns+` FROM transactions
		WHERE friend_id = $1 ORDER BY occurred_at DESC, id DESC`, friendID,
	)
}

func (r *TransactionRepository) Update(ctx context.Context, t *domain.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		SET amount = $1, direction = $2, description = $3, due_date = $4, occurred_at = $5
		WHERE id = $6`,
		t.Amount, t.Direction, t.Description, t.DueDate, t.OccurredAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	return expectOneRow("Update", res)
}

func (r *TransactionRepository) SetSettled(ctx context.Context, id int64, settled bool) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE transactions SET is_settled = $1 WHERE id = $2
		RETURNING `+transactionColumns,
		settled, id,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("SetSettled: %w", domain.ErrTransactionNotFound)
		}
		return nil, fmt.Errorf("SetSettled: %w", err)
	}
	return t, nil
}

func (r *TransactionRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return expectOneRow("Delete", res)
}

func (r *TransactionRepository) query(ctx context.Context, op, q string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	txns := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return txns, nil
}

func expectOneRow(op string, res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrTransactionNotFound)
	}
	return nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.Scan(
		&t.ID, &t.FriendID, &t.Amount, &t.Direction, &t.Description,
		&t.IsSettled, &t.DueDate, &t.OccurredAt, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
