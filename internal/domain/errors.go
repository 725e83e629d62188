package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrFriendNotFound       = errors.New("friend not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrInvalidAmount        = errors.New("amount must be greater than zero, at most 999999999999.99, with at most two decimal places")
	ErrInvalidDirection     = errors.New("direction must be CREDIT or DEBIT")
	ErrInvalidName          = errors.New("name must not be empty")
	ErrDueBeforeTransaction = errors.New("due date must not precede the transaction date")
	ErrInvalidRequest       = errors.New("invalid request")
)
