// Package notify fans committed domain events out to best-effort sinks.
// Nothing here runs inside a database transaction and no failure is ever
// reported back to the operation that produced the event.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	TicketCreated            = "ticket.created"
	PartLowStock             = "part.low_stock"
	SaleCompleted            = "pos.sale_completed"
	SaleVoided               = "pos.sale_voided"
	RegisterOpened           = "cash.register_opened"
	RegisterClosed           = "cash.register_closed"
	InvoicePaymentRegistered = "invoice.payment_registered"
)

type Event struct {
	Type       string      `json:"type"`
	TenantID   uuid.UUID   `json:"tenant_id"`
	Actor      string      `json:"actor,omitempty"`
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"occurred_at"`
}

func NewEvent(typ string, tenantID uuid.UUID, actor string, payload interface{}) Event {
	return Event{
		Type:       typ,
		TenantID:   tenantID,
		Actor:      actor,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

// Notifier delivers one event to one sink.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, e Event) error
}

// Dispatcher delivers events to every notifier asynchronously.
type Dispatcher struct {
	notifiers []Notifier
	muted     map[string]bool
	timeout   time.Duration
	logger    *zap.Logger
	wg        sync.WaitGroup
}

func NewDispatcher(logger *zap.Logger, notifiers ...Notifier) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		notifiers: notifiers,
		muted:     map[string]bool{},
		timeout:   5 * time.Second,
		logger:    logger,
	}
}

// Mute drops events of the given types. Call it before dispatching.
func (d *Dispatcher) Mute(types ...string) {
	for _, t := range types {
		d.muted[t] = true
	}
}

// Dispatch must only be called after the producing transaction committed.
func (d *Dispatcher) Dispatch(events ...Event) {
	if d == nil {
		return
	}
	for _, e := range events {
		if d.muted[e.Type] {
			continue
		}
		for _, n := range d.notifiers {
			d.wg.Add(1)
			go func(n Notifier, e Event) {
				defer d.wg.Done()
				ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
				defer cancel()
				if err := n.Notify(ctx, e); err != nil {
					d.logger.Warn("notification failed",
						zap.String("notifier", n.Name()),
						zap.String("event", e.Type),
						zap.String("tenant_id", e.TenantID.String()),
						zap.Error(err),
					)
				}
			}(n, e)
		}
	}
}

// Wait blocks until every dispatched event was handed to its notifiers.
func (d *Dispatcher) Wait() {
	if d != nil {
		d.wg.Wait()
	}
}
