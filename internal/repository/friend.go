package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/josh-kwaku/khata/internal/domain"
)

const friendColumns = `id, name, avatar_url, created_at`

type FriendRepository struct {
	db *sql.DB
}

func NewFriendRepository(db *sql.DB) *FriendRepository {
	return &FriendRepository{db: db}
}

func (r *FriendRepository) Create(ctx context.Context, f *domain.Friend) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO friends (name, avatar_url) VALUES ($1, $2) RETURNING id, created_at`,
		f.Name, f.AvatarURL,
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *FriendRepository) GetByID(ctx context.Context, id int64) (*domain.Friend, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+friendColumns+` FROM friends WHERE id = $1`, id,
	)
	f, err := scanFriend(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrFriendNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return f, nil
}

func (r *FriendRepository) List(ctx context.Context) ([]domain.Friend, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+friendColumns+` FROM friends ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	friends := []domain.Friend{}
	for rows.Next() {
		f, err := scanFriend(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		friends = append(friends, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return friends, nil
}

// Delete removes the friend and, through the foreign key, all of its transactions.
func (r *FriendRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM friends WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Delete: %w", domain.ErrFriendNotFound)
	}
	return nil
}

func scanFriend(s scanner) (*domain.Friend, error) {
	var f domain.Friend
	if err := s.Scan(&f.ID, &f.Name, &f.AvatarURL, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}
