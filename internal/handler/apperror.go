package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}
	ErrNotReady         = &AppError{http.StatusServiceUnavailable, "NOT_READY", "Ledger is still loading, please retry"}

	ErrFriendNotFound      = &AppError{http.StatusNotFound, "FRIEND_NOT_FOUND", "Friend not found"}
	ErrTransactionNotFound = &AppError{http.StatusNotFound, "TRANSACTION_NOT_FOUND", "Transaction not found"}
	ErrInvalidAmount       = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero, at most 999999999999.99, with at most two decimal places"}
	ErrInvalidDirection    = &AppError{http.StatusBadRequest, "INVALID_DIRECTION", "Direction must be CREDIT or DEBIT"}
	ErrInvalidName         = &AppError{http.StatusBadRequest, "INVALID_NAME", "Name must not be empty"}
	ErrDueBeforeOccurred   = &AppError{http.StatusUnprocessableEntity, "DUE_BEFORE_TRANSACTION", "Due date must not precede the transaction date"}

	ErrInvalidIdempotencyKey = &AppError{http.StatusBadRequest, "INVALID_IDEMPOTENCY_KEY", "Idempotency-Key header is too long"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
	ErrIdempotencyInProgress = &AppError{http.StatusConflict, "IDEMPOTENCY_IN_PROGRESS", "A request with this Idempotency-Key is still being processed"}
)
