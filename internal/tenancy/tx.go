package tenancy

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"go-repairshop/internal/apperr"
	"go-repairshop/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QueryOption adjusts a lookup, e.g. preloading a relation or locking the row.
type QueryOption func(*gorm.DB) *gorm.DB

func Preload(name string, args ...interface{}) QueryOption {
	return func(db *gorm.DB) *gorm.DB { return db.Preload(name, args...) }
}

// ForUpdate takes a row lock where the dialect supports it.
func ForUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Tx is a transaction handle bound to one session. Every read and write
// issued through Model, Query, First, Create and Verify is limited to the
// session's tenant.
type Tx struct {
	db      *gorm.DB
	session Session
}

// NewTx binds db to s. Services obtain a Tx from Runner.Run; tests may build one directly.
func NewTx(db *gorm.DB, s Session) *Tx {
	return &Tx{db: db, session: s}
}

func (t *Tx) Session() Session { return t.session }

func (t *Tx) TenantID() uuid.UUID { return t.session.TenantID }

func (t *Tx) Actor() string { return t.session.Actor() }

func (t *Tx) scope(db *gorm.DB) *gorm.DB {
	return db.Where(clause.Eq{
		Column: clause.Column{Table: clause.CurrentTable, Name: "tenant_id"},
		Value:  t.session.TenantID,
	})
}

// Query starts a tenant-scoped statement.
func (t *Tx) Query() *gorm.DB {
	return t.db.Scopes(t.scope)
}

// Model starts a tenant-scoped statement on the table of v.
func (t *Tx) Model(v interface{}) *gorm.DB {
	return t.db.Model(v).Scopes(t.scope)
}

// Detail gives unscoped access for rows without a tenant column (sale items,
// invoice items). Callers reach those rows only through a parent already
// loaded via First.
func (t *Tx) Detail() *gorm.DB {
	return t.db
}

// First loads the row with the given id into dest. A row owned by another
// tenant yields ErrTenantIsolation instead of a silent miss.
func (t *Tx) First(dest interface{}, id uuid.UUID, opts ...QueryOption) error {
	q := t.Query()
	for _, opt := range opts {
		q = opt(q)
	}
	err := q.Where(idEq(id)).First(dest).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Internal("load "+entityName(dest), err)
	}
	if vErr := t.Verify(dest, id); vErr != nil {
		return vErr
	}
	return apperr.NotFound(entityName(dest))
}

// Verify checks that the row of v's table with the given id exists and
// belongs to the session's tenant, without loading it.
func (t *Tx) Verify(v interface{}, id uuid.UUID) error {
	var owners []uuid.UUID
	err := t.db.Model(v).Where(idEq(id)).Limit(1).Pluck("tenant_id", &owners).Error
	if err != nil {
		return apperr.Internal("verify "+entityName(v), err)
	}
	if len(owners) == 0 {
		return apperr.NotFound(entityName(v))
	}
	if owners[0] != t.session.TenantID {
		return fmt.Errorf("%w: %s %s", apperr.ErrTenantIsolation, entityName(v), id)
	}
	return nil
}

// Create stamps the session's tenant on v and inserts it. Associations are
// never written implicitly.
func (t *Tx) Create(v model.TenantScoped) error {
	v.AssignTenant(t.session.TenantID)
	if err := t.db.Omit(clause.Associations).Create(v).Error; err != nil {
		return apperr.Internal("create "+entityName(v), err)
	}
	return nil
}

// CreateDetail inserts rows that hang off an already verified parent.
func (t *Tx) CreateDetail(v interface{}) error {
	if err := t.db.Omit(clause.Associations).Create(v).Error; err != nil {
		return apperr.Internal("create "+entityName(v), err)
	}
	return nil
}

func idEq(id uuid.UUID) clause.Expression {
	return clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: "id"}, Value: id}
}

func entityName(v interface{}) string {
	typ := reflect.TypeOf(v)
	for typ != nil && (typ.Kind() == reflect.Ptr || typ.Kind() == reflect.Slice) {
		typ = typ.Elem()
	}
	if typ == nil {
		return "record"
	}
	return strings.ToLower(typ.Name())
}
