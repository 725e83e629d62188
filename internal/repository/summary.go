package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josh-kwaku/khata/internal/domain"
)

type SummaryRepository struct {
	db *sql.DB
}

func NewSummaryRepository(db *sql.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// List aggregates unsettled transactions per friend. A nil friendID returns
// every friend, including those without open transactions.
func (r *SummaryRepository) List(ctx context.Context, friendID *int64) ([]domain.FriendSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT f.id, f.name,
			COALESCE(SUM(t.amount) FILTER (WHERE t.direction = 'CREDIT'), 0),
			COALESCE(SUM(t.amount) FILTER (WHERE t.direction = 'DEBIT'), 0)
		FROM friends f
		LEFT JOIN transactions t ON t.friend_id = f.id AND NOT t.is_settled
		WHERE $1::BIGINT IS NULL OR f.id = $1
		GROUP BY f.id, f.name
		ORDER BY f.id`,
		friendID,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	summaries := []domain.FriendSummary{}
	for rows.Next() {
		var s domain.FriendSummary
		if err := rows.Scan(&s.FriendID, &s.Name, &s.TotalCredit, &s.TotalDebit); err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}

	if friendID != nil && len(summaries) == 0 {
		return nil, fmt.Errorf("List: %w", domain.ErrFriendNotFound)
	}
	return summaries, nil
}
