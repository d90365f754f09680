package tenancy

import (
	"context"
	"time"

	"go-repairshop/internal/apperr"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Runner executes engine operations, each inside exactly one database
// transaction. Serialization failures and deadlocks are retried a bounded
// number of times; business-rule errors are returned immediately.
type Runner struct {
	db      *gorm.DB
	retries int
	logger  *zap.Logger
}

func NewRunner(db *gorm.DB, retries int, logger *zap.Logger) *Runner {
	if retries < 0 {
		retries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{db: db, retries: retries, logger: logger}
}

// Run opens a transaction for the session in ctx and passes a scoped handle to fn.
// fn must not start goroutines that outlive it or issue statements outside tx.
func (r *Runner) Run(ctx context.Context, fn func(tx *Tx) error) error {
	session, err := FromContext(ctx)
	if err != nil {
		return err
	}

	for attempt := 0; ; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
			return fn(NewTx(gtx, session))
		})
		if err == nil || !apperr.Retryable(err) || attempt >= r.retries {
			return err
		}

		r.logger.Warn("retrying transaction after conflict",
			zap.Int("attempt", attempt+1),
			zap.String("tenant_id", session.TenantID.String()),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 20 * time.Millisecond):
		}
	}
}

// DB exposes the pool for system jobs that are not bound to a tenant.
func (r *Runner) DB() *gorm.DB {
	return r.db
}
