// Package apperr defines the error kinds returned by the inventory and
// financial engine. Every kind is fatal to the enclosing transaction: when a
// caller receives one of them nothing was committed.
package apperr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrValidation          = errors.New("validation failed")
	ErrTenantIsolation     = errors.New("referenced entity belongs to another tenant")
	ErrRegisterAlreadyOpen = errors.New("a cash register is already open")
	ErrNoOpenRegister      = errors.New("no cash register is open")
	ErrStateConflict       = errors.New("operation not allowed in current state")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInternal            = errors.New("internal error")
)

// StockShortage describes one part that could not be fully reserved.
type StockShortage struct {
	PartID    uuid.UUID `json:"part_id"`
	PartName  string    `json:"part_name,omitempty"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// InsufficientStockError lists every part that failed to reserve, not just
// the first one.
type InsufficientStockError struct {
	Items []StockShortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, len(e.Items))
	for i, it := range e.Items {
		name := it.PartName
		if name == "" {
			name = it.PartID.String()
		}
		parts[i] = fmt.Sprintf("%s (requested %d, available %d)", name, it.Requested, it.Available)
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

// InsufficientStock builds the error for a single part.
func InsufficientStock(partID uuid.UUID, name string, requested, available int) *InsufficientStockError {
	return &InsufficientStockError{Items: []StockShortage{{
		PartID:    partID,
		PartName:  name,
		Requested: requested,
		Available: available,
	}}}
}

type InsufficientPaymentError struct {
	Total decimal.Decimal
	Paid  decimal.Decimal
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("insufficient payment: total %s, paid %s", e.Total.StringFixed(2), e.Paid.StringFixed(2))
}

type OverpaymentError struct {
	Remaining decimal.Decimal
	Attempted decimal.Decimal
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment of %s exceeds remaining balance %s", e.Attempted.StringFixed(2), e.Remaining.StringFixed(2))
}

// Internal wraps an unexpected datastore failure. The original error stays
// reachable through errors.Unwrap chains for logging.
func Internal(op string, err error) error {
	if err == nil {
		return nil
	}
	return &internalError{op: op, err: err}
}

type internalError struct {
	op  string
	err error
}

func (e *internalError) Error() string { return e.op + ": " + e.err.Error() }

func (e *internalError) Unwrap() []error { return []error{ErrInternal, e.err} }

// Validation wraps a validation message.
func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// StateConflict wraps a state conflict message.
func StateConflict(msg string) error {
	return fmt.Errorf("%w: %s", ErrStateConflict, msg)
}

// NotFound wraps a not-found error for the named entity.
func NotFound(entity string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, entity)
}
