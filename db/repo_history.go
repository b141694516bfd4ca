package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"Gin_postgres_redis_inventory/apperr"
	"Gin_postgres_redis_inventory/models"

	"gorm.io/gorm"
)

// appendHistory is the only write path into the ledger.
func (r *Repo) appendHistory(tx *gorm.DB, e *models.HistoryEntry) error {
	if e.DataOperacao.IsZero() {
		e.DataOperacao = r.utcNow()
	}
	if e.DataEvento.IsZero() {
		e.DataEvento = e.DataOperacao
	}
	e.DataEvento = e.DataEvento.UTC()
	e.ID = 0
	e.IsReversed = false
	return tx.Omit("Item", "Peripheral").Create(e).Error
}

// lastEntry finds the newest non reversed entry of the item with one of ops,
// optionally strictly before entry id before (0 = no bound).
func lastEntry(tx *gorm.DB, itemID uint, before uint, ops ...models.Operation) (*models.HistoryEntry, error) {
	q := tx.Where("item_id = ? AND is_reversed = ? AND operation IN ?", itemID, false, ops)
	if before > 0 {
		q = q.Where("id < ?", before)
	}
	var e models.HistoryEntry
	err := q.Order("id DESC").First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

type HistoryFilter struct {
	ItemID          *uint
	PeripheralID    *uint
	Operation       models.Operation
	Operador        string
	Q               string // usuario / cpf / identificador / nota fiscal
	From            *time.Time
	To              *time.Time // exclusive
	IncludeReversed bool
	Page            int
	Size            int
}

type HistoryPage struct {
	Total   int64                 `json:"total"`
	Entries []models.HistoryEntry `json:"entries"`
}

// ListHistory returns entries newest first. Reversed entries only show up
// with IncludeReversed (audit view).
func (r *Repo) ListHistory(ctx context.Context, f HistoryFilter) (*HistoryPage, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Size <= 0 || f.Size > 200 {
		f.Size = 50
	}

	q := r.DB.WithContext(ctx).Model(&models.HistoryEntry{})
	if !f.IncludeReversed {
		q = q.Where("is_reversed = ?", false)
	}
	if f.ItemID != nil {
		q = q.Where("item_id = ?", *f.ItemID)
	}
	if f.PeripheralID != nil {
		q = q.Where("peripheral_id = ?", *f.PeripheralID)
	}
	if f.Operation != "" {
		if !f.Operation.Valid() {
			return nil, apperr.Validation("Operação inválida: %s.", f.Operation)
		}
		q = q.Where("operation = ?", f.Operation)
	}
	if op := strings.TrimSpace(f.Operador); op != "" {
		q = q.Where("operador = ?", op)
	}
	if s := strings.TrimSpace(f.Q); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(usuario) LIKE ? OR cpf LIKE ? OR LOWER(item_identificador) LIKE ? OR item_nota_fiscal LIKE ?",
			like, like, like, like)
	}
	if f.From != nil {
		q = q.Where("data_operacao >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("data_operacao < ?", f.To.UTC())
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, storageErr(err)
	}
	var entries []models.HistoryEntry
	if err := q.Order("id DESC").
		Offset((f.Page - 1) * f.Size).
		Limit(f.Size).
		Find(&entries).Error; err != nil {
		return nil, storageErr(err)
	}
	return &HistoryPage{Total: total, Entries: entries}, nil
}

func (r *Repo) GetHistory(ctx context.Context, id uint) (*models.HistoryEntry, error) {
	var e models.HistoryEntry
	err := r.DB.WithContext(ctx).First(&e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Registro de histórico não encontrado.")
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return &e, nil
}
