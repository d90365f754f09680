package tenancy_test

import (
	"context"
	"errors"
	"testing"

	"go-repairshop/internal/apperr"
	"go-repairshop/internal/model"
	"go-repairshop/internal/tenancy"
	"go-repairshop/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gorm.DB, tenancy.Session, tenancy.Session) {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	a := tenancy.Session{UserID: uuid.New(), TenantID: uuid.New(), Role: model.RoleOwner}
	b := tenancy.Session{UserID: uuid.New(), TenantID: uuid.New(), Role: model.RoleOwner}
	return db, a, b
}

func TestFromContextRequiresTenant(t *testing.T) {
	_, err := tenancy.FromContext(context.Background())
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	ctx := tenancy.WithSession(context.Background(), tenancy.Session{UserID: uuid.New()})
	_, err = tenancy.FromContext(ctx)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestCreateStampsTenant(t *testing.T) {
	db, a, _ := setup(t)
	tx := tenancy.NewTx(db, a)

	customer := &model.Customer{Name: "Ada"}
	customer.TenantID = uuid.New() // ignored
	require.NoError(t, tx.Create(customer))
	assert.Equal(t, a.TenantID, customer.TenantID)
}

func TestFirstDistinguishesMissingFromForeign(t *testing.T) {
	db, a, b := setup(t)
	txA, txB := tenancy.NewTx(db, a), tenancy.NewTx(db, b)

	customer := &model.Customer{Name: "Ada"}
	require.NoError(t, txA.Create(customer))

	var got model.Customer
	require.NoError(t, txA.First(&got, customer.ID))
	assert.Equal(t, "Ada", got.Name)

	err := txB.First(&model.Customer{}, customer.ID)
	assert.ErrorIs(t, err, apperr.ErrTenantIsolation)

	err = txA.First(&model.Customer{}, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestQueryIsScoped(t *testing.T) {
	db, a, b := setup(t)
	require.NoError(t, tenancy.NewTx(db, a).Create(&model.Customer{Name: "A1"}))
	require.NoError(t, tenancy.NewTx(db, a).Create(&model.Customer{Name: "A2"}))
	require.NoError(t, tenancy.NewTx(db, b).Create(&model.Customer{Name: "B1"}))

	var customers []model.Customer
	require.NoError(t, tenancy.NewTx(db, b).Query().Find(&customers).Error)
	require.Len(t, customers, 1)
	assert.Equal(t, "B1", customers[0].Name)

	var n int64
	require.NoError(t, tenancy.NewTx(db, a).Model(&model.Customer{}).Count(&n).Error)
	assert.EqualValues(t, 2, n)
}

func TestScopedUpdateCannotTouchOtherTenant(t *testing.T) {
	db, a, b := setup(t)
	customer := &model.Customer{Name: "Ada"}
	require.NoError(t, tenancy.NewTx(db, a).Create(customer))

	res := tenancy.NewTx(db, b).Model(&model.Customer{}).Where("id = ?", customer.ID).Update("name", "Mallory")
	require.NoError(t, res.Error)
	assert.EqualValues(t, 0, res.RowsAffected)
}

func TestRunnerRetriesOnlyTransientErrors(t *testing.T) {
	db, a, _ := setup(t)
	runner := tenancy.NewRunner(db, 2, zaptest.NewLogger(t))
	ctx := tenancy.WithSession(context.Background(), a)

	calls := 0
	err := runner.Run(ctx, func(tx *tenancy.Tx) error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = runner.Run(ctx, func(tx *tenancy.Tx) error {
		calls++
		return apperr.ErrNoOpenRegister
	})
	assert.ErrorIs(t, err, apperr.ErrNoOpenRegister)
	assert.Equal(t, 1, calls)

	calls = 0
	err = runner.Run(ctx, func(tx *tenancy.Tx) error {
		calls++
		return &pgconn.PgError{Code: "40P01"}
	})
	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
	assert.Equal(t, 3, calls)
}

func TestRunnerRollsBackOnError(t *testing.T) {
	db, a, _ := setup(t)
	runner := tenancy.NewRunner(db, 0, nil)
	ctx := tenancy.WithSession(context.Background(), a)

	err := runner.Run(ctx, func(tx *tenancy.Tx) error {
		require.NoError(t, tx.Create(&model.Customer{Name: "ghost"}))
		return apperr.StateConflict("abort")
	})
	require.Error(t, err)

	var n int64
	require.NoError(t, db.Model(&model.Customer{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestRunnerRequiresSession(t *testing.T) {
	db, _, _ := setup(t)
	err := tenancy.NewRunner(db, 0, nil).Run(context.Background(), func(*tenancy.Tx) error { return nil })
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}
