package database

import (
	"testing"

	"go-repairshop/config"
	"go-repairshop/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestOpenMemoryMigratesSchema(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)

	for _, table := range []string{"parts", "cash_registers", "cash_transactions", "pos_sales", "invoices", "payments", "stock_movements"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestPartQuantityCheckConstraint(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)

	part := model.Part{SKU: "X", Name: "X", Quantity: 1}
	part.TenantID = uuid.New()
	require.NoError(t, db.Create(&part).Error)

	err = db.Model(&model.Part{}).Where("id = ?", part.ID).Update("quantity", -1).Error
	assert.Error(t, err)
}

func TestConnectDBRejectsUnknownDriver(t *testing.T) {
	_, err := ConnectDB(config.DatabaseConfig{Driver: "oracle"}, zaptest.NewLogger(t))
	assert.Error(t, err)
}
