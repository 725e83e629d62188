package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/khata/internal/domain"
	"github.com/josh-kwaku/khata/internal/ledger"
	"github.com/josh-kwaku/khata/internal/logging"
)

const maxDescriptionLen = 500

type transactionService interface {
	AddTransaction(ctx context.Context, friendID int64, in ledger.TransactionInput) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, friendID int64) ([]domain.Transaction, error)
	UpdateTransaction(ctx context.Context, id int64, in ledger.TransactionInput) (*domain.Transaction, error)
	SettleTransaction(ctx context.Context, id int64, settled bool) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
}

type TransactionHandler struct {
	txns transactionService
}

func NewTransactionHandler(txns transactionService) *TransactionHandler {
	return &TransactionHandler{txns: txns}
}

type transactionRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Direction   string           `json:"direction"`
	Description string           `json:"description"`
	DueDate     *time.Time       `json:"due_date"`
	OccurredAt  *time.Time       `json:"occurred_at"`
}

func (r transactionRequest) Validate() []FieldError {
	var errs []FieldError

	if r.Amount == nil {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	} else if err := domain.ValidateAmount(*r.Amount); err != nil {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0 and at most 999999999999.99 with at most two decimal places"})
	}

	if r.Direction == "" {
		errs = append(errs, FieldError{Field: "direction", Message: "required"})
	} else if !domain.Direction(r.Direction).IsValid() {
		errs = append(errs, FieldError{Field: "direction", Message: "must be CREDIT or DEBIT"})
	}

	if len([]rune(r.Description)) > maxDescriptionLen {
		errs = append(errs, FieldError{Field: "description", Message: "must be at most 500 characters"})
	}

	if r.OccurredAt != nil && r.DueDate != nil && r.DueDate.Before(*r.OccurredAt) {
		errs = append(errs, FieldError{Field: "due_date", Message: "must not precede occurred_at"})
	}

	return errs
}

func (r transactionRequest) input() ledger.TransactionInput {
	return ledger.TransactionInput{
		Amount:      *r.Amount,
		Direction:   domain.Direction(r.Direction),
		Description: r.Description,
		DueDate:     r.DueDate,
		OccurredAt:  r.OccurredAt,
	}
}

type settlementRequest struct {
	Settled *bool `json:"settled"`
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	friendID, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	req, ok := decodeTransactionRequest(w, r)
	if !ok {
		return
	}

	txn, err := h.txns.AddTransaction(r.Context(), friendID, req.input())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to add transaction", "error", err, "friend_id", friendID)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toTransactionDTO(txn))
}

func (h *TransactionHandler) ListForFriend(w http.ResponseWriter, r *http.Request) {
	friendID, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	txns, err := h.txns.ListTransactions(r.Context(), friendID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list transactions", "error", err, "friend_id", friendID)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]transactionDTO, len(txns))
	for i := range txns {
		dtos[i] = toTransactionDTO(&txns[i])
	}

	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	req, ok := decodeTransactionRequest(w, r)
	if !ok {
		return
	}

	txn, err := h.txns.UpdateTransaction(r.Context(), id, req.input())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to update transaction", "error", err, "transaction_id", id)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionDTO(txn))
}

func (h *TransactionHandler) Settle(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req settlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if req.Settled == nil {
		RespondValidationError(w, []FieldError{{Field: "settled", Message: "required"}})
		return
	}

	txn, err := h.txns.SettleTransaction(r.Context(), id, *req.Settled)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to change settlement", "error", err, "transaction_id", id)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionDTO(txn))
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.txns.DeleteTransaction(r.Context(), id); err != nil {
		logging.FromContext(r.Context()).Error("failed to delete transaction", "error", err, "transaction_id", id)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]int64{"deleted_id": id})
}

func decodeTransactionRequest(w http.ResponseWriter, r *http.Request) (transactionRequest, bool) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return req, false
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return req, false
	}
	return req, true
}
