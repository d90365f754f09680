package repository

import (
	"go-repairshop/internal/apperr"
	"go-repairshop/internal/model"
	"go-repairshop/internal/tenancy"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockRef ties a quantity change to the document that caused it.
type StockRef struct {
	Type model.ReferenceType
	ID   *uuid.UUID
	Note string
}

// StockLedger is the only code path that changes Part.Quantity. Both
// primitives are single conditional UPDATE statements; there is no
// read-then-write window for a concurrent caller to slip into.
type StockLedger interface {
	// Consume decrements quantity by qty only if at least qty is available.
	Consume(tx *tenancy.Tx, partID uuid.UUID, qty int, ref StockRef) (*model.Part, error)
	// Restore increments quantity by qty. Callers guarantee it mirrors an
	// earlier successful Consume of the same quantity.
	Restore(tx *tenancy.Tx, partID uuid.UUID, qty int, ref StockRef) (*model.Part, error)
	// Receive increments quantity for goods coming in from a supplier.
	Receive(tx *tenancy.Tx, partID uuid.UUID, qty int, ref StockRef) (*model.Part, error)
}

type stockLedger struct{}

func NewStockLedger() StockLedger {
	return &stockLedger{}
}

func (l *stockLedger) Consume(tx *tenancy.Tx, partID uuid.UUID, qty int, ref StockRef) (*model.Part, error) {
	if qty <= 0 {
		return nil, apperr.Validation("quantity must be positive")
	}

	res := tx.Model(&model.Part{}).
		Where("id = ? AND quantity >= ?", partID, qty).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity - ?", qty),
			"updated_by": tx.Actor(),
		})
	if res.Error != nil {
		return nil, apperr.Internal("consume stock", res.Error)
	}

	var part model.Part
	if err := tx.First(&part, partID); err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, apperr.InsufficientStock(part.ID, part.Name, qty, part.Quantity)
	}

	if err := l.record(tx, &part, model.MovementConsume, qty, ref); err != nil {
		return nil, err
	}
	return &part, nil
}

func (l *stockLedger) Restore(tx *tenancy.Tx, partID uuid.UUID, qty int, ref StockRef) (*model.Part, error) {
	return l.increment(tx, partID, qty, model.MovementRestore, ref)
}

func (l *stockLedger) Receive(tx *tenancy.Tx, partID uuid.UUID, qty int, ref StockRef) (*model.Part, error) {
	return l.increment(tx, partID, qty, model.MovementReceive, ref)
}

func (l *stockLedger) increment(tx *tenancy.Tx, partID uuid.UUID, qty int, typ model.MovementType, ref StockRef) (*model.Part, error) {
	if qty <= 0 {
		return nil, apperr.Validation("quantity must be positive")
	}

	res := tx.Model(&model.Part{}).
		Where("id = ?", partID).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", qty),
			"updated_by": tx.Actor(),
		})
	if res.Error != nil {
		return nil, apperr.Internal("restore stock", res.Error)
	}

	var part model.Part
	if err := tx.First(&part, partID); err != nil {
		return nil, err
	}

	if err := l.record(tx, &part, typ, qty, ref); err != nil {
		return nil, err
	}
	return &part, nil
}

func (l *stockLedger) record(tx *tenancy.Tx, part *model.Part, typ model.MovementType, qty int, ref StockRef) error {
	return tx.Create(&model.StockMovement{
		PartID:        part.ID,
		Type:          typ,
		Quantity:      qty,
		QuantityAfter: part.Quantity,
		ReferenceType: ref.Type,
		ReferenceID:   ref.ID,
		Note:          ref.Note,
		CreatedBy:     tx.Actor(),
	})
}
