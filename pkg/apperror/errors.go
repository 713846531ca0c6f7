package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Wallet Business Logic (WAL) ----

func ErrInvalidAmount() *AppError {
	return New("WAL_001", "Amount must be strictly positive", http.StatusBadRequest)
}

func ErrInsufficientBalance() *AppError {
	return New("WAL_002", "Wallet balance insufficient to cover this charge", http.StatusPaymentRequired)
}

func ErrWalletInactive() *AppError {
	return New("WAL_003", "Wallet is not active", http.StatusConflict)
}

func ErrInvalidEntry(detail string) *AppError {
	return New("WAL_004", fmt.Sprintf("Invalid ledger entry: %s", detail), http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New("WAL_005", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrDuplicateRefund() *AppError {
	return New("WAL_006", "Refund reference already credited to this wallet", http.StatusConflict)
}

// ---- Security & Authentication (SEC) ----

func ErrInvalidServiceKey() *AppError {
	return New("SEC_001", "Invalid service key", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("SEC_002", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// ErrPersistenceFailure wraps a storage-layer error. The surrounding database
// transaction guarantees a failed operation left no partial state behind.
func ErrPersistenceFailure(err error) *AppError {
	return Wrap("SYS_001", "Storage layer could not commit the operation", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_002 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_002", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a WAL_004-style validation error for malformed input.
func Validation(message string) *AppError {
	return New("WAL_004", message, http.StatusBadRequest)
}
