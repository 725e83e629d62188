package ledger

import (
	"context"

	"github.com/josh-kwaku/khata/internal/domain"
)

type friendLister interface {
	List(ctx context.Context) ([]domain.Friend, error)
}

type transactionLister interface {
	List(ctx context.Context) ([]domain.Transaction, error)
}

type friendRepository interface {
	friendLister
	Create(ctx context.Context, f *domain.Friend) error
	GetByID(ctx context.Context, id int64) (*domain.Friend, error)
	Delete(ctx context.Context, id int64) error
}

type transactionRepository interface {
	transactionLister
	Create(ctx context.Context, t *domain.Transaction) error
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
	ListByFriend(ctx context.Context, friendID int64) ([]domain.Transaction, error)
	Update(ctx context.Context, t *domain.Transaction) error
	SetSettled(ctx context.Context, id int64, settled bool) (*domain.Transaction, error)
	Delete(ctx context.Context, id int64) error
}

type summaryRepository interface {
	List(ctx context.Context, friendID *int64) ([]domain.FriendSummary, error)
}
