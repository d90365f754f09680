package apperr

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Kind string

const (
	KindNotFound            Kind = "NOT_FOUND"
	KindValidation          Kind = "VALIDATION"
	KindInsufficientStock   Kind = "INSUFFICIENT_STOCK"
	KindInsufficientPayment Kind = "INSUFFICIENT_PAYMENT"
	KindOverpayment         Kind = "OVERPAYMENT"
	KindTenantIsolation     Kind = "TENANT_ISOLATION"
	KindRegisterAlreadyOpen Kind = "REGISTER_ALREADY_OPEN"
	KindNoOpenRegister      Kind = "NO_OPEN_REGISTER"
	KindStateConflict       Kind = "STATE_CONFLICT"
	KindUnauthorized        Kind = "UNAUTHORIZED"
	KindInternal            Kind = "INTERNAL"
)

// KindOf classifies err. Anything not produced by this package is internal.
func KindOf(err error) Kind {
	var (
		stockErr   *InsufficientStockError
		paymentErr *InsufficientPaymentError
		overErr    *OverpaymentError
	)
	switch {
	case errors.As(err, &stockErr):
		return KindInsufficientStock
	case errors.As(err, &paymentErr):
		return KindInsufficientPayment
	case errors.As(err, &overErr):
		return KindOverpayment
	case errors.Is(err, ErrTenantIsolation):
		return KindTenantIsolation
	case errors.Is(err, ErrRegisterAlreadyOpen):
		return KindRegisterAlreadyOpen
	case errors.Is(err, ErrNoOpenRegister):
		return KindNoOpenRegister
	case errors.Is(err, ErrStateConflict):
		return KindStateConflict
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrInternal):
		return KindInternal
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return KindNotFound
	}
	return KindInternal
}

var messages = map[Kind]string{
	KindNotFound:            "The requested record does not exist.",
	KindValidation:          "The request is invalid.",
	KindInsufficientStock:   "Not enough stock to complete the operation.",
	KindInsufficientPayment: "The payments do not cover the sale total.",
	KindOverpayment:         "The payment exceeds the outstanding balance.",
	KindTenantIsolation:     "The referenced record is not accessible.",
	KindRegisterAlreadyOpen: "A cash register is already open.",
	KindNoOpenRegister:      "No cash register is open.",
	KindStateConflict:       "The operation is not allowed in the current state.",
	KindUnauthorized:        "Authentication required.",
	KindInternal:            "An internal error occurred.",
}

// Message returns the user-facing message for err. It depends only on the
// error kind so equal kinds always read the same.
func Message(err error) string {
	return messages[KindOf(err)]
}

// Retryable reports whether err is a transient transaction conflict.
// Business-rule failures are never retryable.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// IsUniqueViolation reports whether err comes from a unique constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
