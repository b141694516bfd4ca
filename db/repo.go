package db

import (
	"context"
	"errors"
	"time"

	"Gin_postgres_redis_inventory/apperr"
	"Gin_postgres_redis_inventory/logs"
	"Gin_postgres_redis_inventory/models"
	"Gin_postgres_redis_inventory/term"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repo is the storage handle every store and the state machine hang off.
type Repo struct {
	DB    *gorm.DB
	Terms term.Renderer

	now func() time.Time
	loc *time.Location
}

type Option func(*Repo)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(r *Repo) { r.now = now } }

// WithLocation sets the zone user supplied dates (dd/mm/aaaa) are read in.
func WithLocation(loc *time.Location) Option { return func(r *Repo) { r.loc = loc } }

func WithTermRenderer(t term.Renderer) Option { return func(r *Repo) { r.Terms = t } }

func NewRepo(db *gorm.DB, opts ...Option) *Repo {
	r := &Repo{DB: db, now: time.Now, loc: time.Local}
	for _, o := range opts {
		o(r)
	}
	return r
}

// timestamps are stored in UTC so range filters compare the same way on
// every driver
func (r *Repo) utcNow() time.Time { return r.now().UTC() }

func (r *Repo) today() time.Time { return models.Day(r.now(), r.loc) }

// transaction runs fn in one transaction and maps whatever comes out of it
// onto the error taxonomy.
func (r *Repo) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return storageErr(r.DB.WithContext(ctx).Transaction(fn))
}

// forUpdate adds a row lock where the driver has one. SQLite serializes
// writers already.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// storageErr keeps taxonomy errors and translates everything else. Raw
// driver text is logged, never returned.
func storageErr(err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound("Registro não encontrado.")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Duplicate("Registro duplicado.")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperr.IO(err, "Operação cancelada.")
	}
	logs.Logger.WithError(err).Error("storage failure")
	return apperr.Internal(err)
}

func requireOperator(op string) error {
	if op == "" {
		return apperr.Validation("Operador não informado.")
	}
	return nil
}

// lockItem loads an active item for update.
func lockItem(tx *gorm.DB, id uint) (*models.Item, error) {
	var it models.Item
	err := forUpdate(tx).Where("id = ? AND is_active = ?", id, true).First(&it).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Item não encontrado.")
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// moveItem applies a status change guarded by the status the caller saw,
// so a concurrent writer that got there first turns into a StateError.
func moveItem(tx *gorm.DB, id uint, from, to models.ItemStatus, extra map[string]any) error {
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := tx.Model(&models.Item{}).
		Where("id = ? AND status = ? AND is_active = ?", id, from, true).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return apperr.State("O item foi alterado por outra operação. Atualize e tente novamente.")
	}
	return nil
}

func assignment(usuario, cpf string, issued *time.Time) map[string]any {
	return map[string]any{"assigned_to": usuario, "cpf": cpf, "date_issued": issued}
}

func clearAssignment() map[string]any {
	return map[string]any{"assigned_to": nil, "cpf": nil, "date_issued": nil}
}
