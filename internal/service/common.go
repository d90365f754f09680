package service

import (
	"go-repairshop/internal/apperr"
	"go-repairshop/internal/model"
	"go-repairshop/internal/notify"
	"go-repairshop/pkg/validator"

	"github.com/google/uuid"
)

func validate(req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return apperr.Validation(validator.Describe(errs))
	}
	return nil
}

type lowStockPayload struct {
	PartID   uuid.UUID `json:"part_id"`
	SKU      string    `json:"sku"`
	Name     string    `json:"name"`
	Quantity int       `json:"quantity"`
	MinStock int       `json:"min_stock"`
}

// lowStockEvents returns one event per distinct part at or below its threshold.
func lowStockEvents(tenantID uuid.UUID, actor string, parts ...*model.Part) []notify.Event {
	seen := map[uuid.UUID]bool{}
	var events []notify.Event
	for _, p := range parts {
		if p == nil || seen[p.ID] || !p.IsLowStock() {
			continue
		}
		seen[p.ID] = true
		events = append(events, notify.NewEvent(notify.PartLowStock, tenantID, actor, lowStockPayload{
			PartID:   p.ID,
			SKU:      p.SKU,
			Name:     p.Name,
			Quantity: p.Quantity,
			MinStock: p.MinStock,
		}))
	}
	return events
}

// mergeQuantities sums quantities per part, keeping first-seen order.
func mergeQuantities(ids []uuid.UUID, qtys []int) ([]uuid.UUID, map[uuid.UUID]int) {
	order := make([]uuid.UUID, 0, len(ids))
	merged := make(map[uuid.UUID]int, len(ids))
	for i, id := range ids {
		if _, ok := merged[id]; !ok {
			order = append(order, id)
		}
		merged[id] += qtys[i]
	}
	return order, merged
}
