package validator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type payment struct {
	InvoiceID uuid.UUID       `json:"invoice_id" validate:"uuid_required"`
	Amount    decimal.Decimal `json:"amount" validate:"dec_gt=0"`
	Opening   decimal.Decimal `json:"opening" validate:"dec_gte=0"`
}

func TestDecimalRules(t *testing.T) {
	ok := payment{InvoiceID: uuid.New(), Amount: decimal.RequireFromString("0.01"), Opening: decimal.Zero}
	assert.Empty(t, ValidateStruct(ok))

	bad := payment{Amount: decimal.Zero, Opening: decimal.NewFromInt(-1)}
	errs := ValidateStruct(bad)
	if assert.Len(t, errs, 3) {
		assert.Equal(t, "payment.invoice_id", errs[0].FailedField)
		assert.Equal(t, "dec_gt", errs[1].Tag)
		assert.Equal(t, "dec_gte", errs[2].Tag)
	}
	assert.Equal(t, "field 'payment.invoice_id' failed on 'uuid_required'", Describe(errs))
}
