package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// IdempotencyCacheEntry is a stored response. StatusCode is zero while the
// request holding the key is still running.
type IdempotencyCacheEntry struct {
	Key          string
	RequestHash  string
	StatusCode   int
	ResponseBody []byte
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

type IdempotencyRepository struct {
	db *sql.DB
}

func NewIdempotencyRepository(db *sql.DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

func (r *IdempotencyRepository) Get(ctx context.Context, key string) (*IdempotencyCacheEntry, error) {
	var e IdempotencyCacheEntry
	err := r.db.QueryRowContext(ctx,
		`SELECT idempotency_key, request_hash, status_code, response_body, created_at, expires_at
		FROM idempotency_cache
		WHERE idempotency_key = $1 AND expires_at > now()`,
		key,
	).Scan(&e.Key, &e.RequestHash, &e.StatusCode, &e.ResponseBody, &e.CreatedAt, &e.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &e, nil
}

// Reserve claims key for a request that is about to run. It returns nil when
// the caller now holds the key: it was free or only held by an expired entry.
// Otherwise it returns the live entry holding the key, which is still pending
// while its StatusCode is zero.
func (r *IdempotencyRepository) Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) (*IdempotencyCacheEntry, error) {
	// The holder can expire or be released between the insert and the read.
	for range 3 {
		var claimed string
		err := r.db.QueryRowContext(ctx,
			`INSERT INTO idempotency_cache (idempotency_key, request_hash, status_code, response_body, created_at, expires_at)
			VALUES ($1, $2, 0, ''::BYTEA, now(), $3)
			ON CONFLICT (idempotency_key) DO UPDATE SET
				request_hash = EXCLUDED.request_hash,
				status_code = 0,
				response_body = EXCLUDED.response_body,
				created_at = EXCLUDED.created_at,
				expires_at = EXCLUDED.expires_at
			WHERE idempotency_cache.expires_at <= now()
			RETURNING idempotency_key`,
			key, requestHash, expiresAt,
		).Scan(&claimed)
		if err == nil {
			return nil, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Reserve: %w", err)
		}

		held, err := r.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("Reserve: %w", err)
		}
		if held != nil {
			return held, nil
		}
	}
	return nil, fmt.Errorf("Reserve: key %q kept changing hands", key)
}

// Complete stores the response for a reservation made with the same request
// hash and extends it to entry.ExpiresAt.
func (r *IdempotencyRepository) Complete(ctx context.Context, entry *IdempotencyCacheEntry) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE idempotency_cache
		SET status_code = $3, response_body = $4, expires_at = $5
		WHERE idempotency_key = $1 AND request_hash = $2 AND status_code = 0`,
		entry.Key, entry.RequestHash, entry.StatusCode, entry.ResponseBody, entry.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("Complete: %w", err)
	}
	return nil
}

// Release drops a pending reservation so the key can be retried.
func (r *IdempotencyRepository) Release(ctx context.Context, key, requestHash string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM idempotency_cache
		WHERE idempotency_key = $1 AND request_hash = $2 AND status_code = 0`,
		key, requestHash,
	)
	if err != nil {
		return fmt.Errorf("Release: %w", err)
	}
	return nil
}

func (r *IdempotencyRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM idempotency_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("DeleteExpired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteExpired: rows affected: %w", err)
	}
	return n, nil
}
