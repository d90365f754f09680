// Package tenancy is the single place where tenant scoping is enforced.
// Repositories never filter by tenant themselves; they receive a *Tx that
// already carries the acting session and apply its scope.
package tenancy

import (
	"context"

	"go-repairshop/internal/apperr"
	"go-repairshop/internal/model"

	"github.com/google/uuid"
)

// Session is the authenticated caller as supplied by the auth layer.
type Session struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Role     model.Role
	Name     string
}

// Actor is the value written to audit columns.
func (s Session) Actor() string {
	return s.UserID.String()
}

type sessionKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session or ErrUnauthorized when none is attached.
func FromContext(ctx context.Context) (Session, error) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	if !ok || s.TenantID == uuid.Nil {
		return Session{}, apperr.ErrUnauthorized
	}
	return s, nil
}
