package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/khata/internal/changefeed"
	"github.com/josh-kwaku/khata/internal/clock"
	"github.com/josh-kwaku/khata/internal/domain"
	"github.com/josh-kwaku/khata/internal/logging"
)

type Service struct {
	friends   friendRepository
	txns      transactionRepository
	summaries summaryRepository
	feed      changefeed.Feed
	clock     clock.Clock
}

func NewService(friends friendRepository, txns transactionRepository, summaries summaryRepository, feed changefeed.Feed, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Service{friends: friends, txns: txns, summaries: summaries, feed: feed, clock: clk}
}

type NewFriend struct {
	Name      string
	AvatarURL *string
}

// TransactionInput carries the editable fields of a transaction. A nil
// OccurredAt means "now" on create and "unchanged" on update.
type TransactionInput struct {
	Amount      decimal.Decimal
	Direction   domain.Direction
	Description string
	DueDate     *time.Time
	OccurredAt  *time.Time
}

func (s *Service) AddFriend(ctx context.Context, req NewFriend) (*domain.Friend, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("AddFriend: %w", domain.ErrInvalidName)
	}

	f := &domain.Friend{Name: name, AvatarURL: req.AvatarURL}
	if err := s.friends.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("AddFriend: %w", err)
	}

	logging.FromContext(ctx).Info("friend added", "friend_id", f.ID)
	s.notify(ctx, changefeed.Event{Entity: changefeed.EntityFriend, Op: changefeed.OpCreate, ID: f.ID})
	return f, nil
}

func (s *Service) ListFriends(ctx context.Context) ([]domain.Friend, error) {
	friends, err := s.friends.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListFriends: %w", err)
	}
	return friends, nil
}

// DeleteFriend removes the friend together with all of their transactions.
func (s *Service) DeleteFriend(ctx context.Context, id int64) error {
	if err := s.friends.Delete(ctx, id); err != nil {
		return fmt.Errorf("DeleteFriend: %w", err)
	}

	logging.FromContext(ctx).Info("friend deleted", "friend_id", id)
	s.notify(ctx, changefeed.Event{Entity: changefeed.EntityFriend, Op: changefeed.OpDelete, ID: id})
	return nil
}

func (s *Service) AddTransaction(ctx context.Context, friendID int64, in TransactionInput) (*domain.Transaction, error) {
	occurredAt := s.clock.Now().UTC()
	if in.OccurredAt != nil {
		occurredAt = *in.OccurredAt
	}

	t := &domain.Transaction{
		FriendID:    friendID,
		Amount:      in.Amount,
		Direction:   in.Direction,
		Description: strings.TrimSpace(in.Description),
		DueDate:     in.DueDate,
		OccurredAt:  occurredAt,
	}
	if err := validateTransaction(t); err != nil {
		return nil, fmt.Errorf("AddTransaction: %w", err)
	}

	if err := s.txns.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("AddTransaction: %w", err)
	}

	logging.FromContext(ctx).Info("transaction recorded",
		"transaction_id", t.ID,
		"friend_id", friendID,
		"direction", t.Direction,
		"amount", t.Amount.StringFixed(2),
	)
	s.notify(ctx, changefeed.Event{Entity: changefeed.EntityTransaction, Op: changefeed.OpCreate, ID: t.ID})
	return t, nil
}

func (s *Service) ListTransactions(ctx context.Context, friendID int64) ([]domain.Transaction, error) {
	if _, err := s.friends.GetByID(ctx, friendID); err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	txns, err := s.txns.ListByFriend(ctx, friendID)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	return txns, nil
}

func (s *Service) UpdateTransaction(ctx context.Context, id int64, in TransactionInput) (*domain.Transaction, error) {
	t, err := s.txns.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}

	t.Amount = in.Amount
	t.Direction = in.Direction
	t.Description = strings.TrimSpace(in.Description)
	t.DueDate = in.DueDate
	if in.OccurredAt != nil {
		t.OccurredAt = *in.OccurredAt
	}
	if err := validateTransaction(t); err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}

	if err := s.txns.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}

	logging.FromContext(ctx).Info("transaction updated", "transaction_id", id)
	s.notify(ctx, changefeed.Event{Entity: changefeed.EntityTransaction, Op: changefeed.OpUpdate, ID: id})
	return t, nil
}

// SettleTransaction sets the settled flag to the given value. Repeating a
// call is harmless.
func (s *Service) SettleTransaction(ctx context.Context, id int64, settled bool) (*domain.Transaction, error) {
	t, err := s.txns.SetSettled(ctx, id, settled)
	if err != nil {
		return nil, fmt.Errorf("SettleTransaction: %w", err)
	}

	logging.FromContext(ctx).Info("transaction settlement changed", "transaction_id", id, "settled", settled)
	s.notify(ctx, changefeed.Event{Entity: changefeed.EntityTransaction, Op: changefeed.OpUpdate, ID: id})
	return t, nil
}

func (s *Service) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.txns.Delete(ctx, id); err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}

	logging.FromContext(ctx).Info("transaction deleted", "transaction_id", id)
	s.notify(ctx, changefeed.Event{Entity: changefeed.EntityTransaction, Op: changefeed.OpDelete, ID: id})
	return nil
}

// Summaries returns unsettled totals straight from storage. A nil friendID
// covers every friend.
func (s *Service) Summaries(ctx context.Context, friendID *int64) ([]domain.FriendSummary, error) {
	summaries, err := s.summaries.List(ctx, friendID)
	if err != nil {
		return nil, fmt.Errorf("Summaries: %w", err)
	}
	return summaries, nil
}

func validateTransaction(t *domain.Transaction) error {
	if err := domain.ValidateAmount(t.Amount); err != nil {
		return err
	}
	if !t.Direction.IsValid() {
		return domain.ErrInvalidDirection
	}
	return domain.ValidateDueDate(t.OccurredAt, t.DueDate)
}

// notify publishes a change event. The write has already committed, so a
// failure is logged and listeners pick it up with the next change.
func (s *Service) notify(ctx context.Context, ev changefeed.Event) {
	if err := s.feed.Publish(ctx, ev); err != nil {
		logging.FromContext(ctx).Warn("publish change event failed",
			"entity", ev.Entity,
			"op", ev.Op,
			"id", ev.ID,
			"error", err,
		)
	}
}
