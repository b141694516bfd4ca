package db

import (
	"context"
	"errors"
	"strings"

	"Gin_postgres_redis_inventory/apperr"
	"Gin_postgres_redis_inventory/logs"
	"Gin_postgres_redis_inventory/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type RegisterItemInput struct {
	Tipo     models.ItemType
	Fields   models.ItemFields
	Operator string
}

// RegisterItem validates the fields for the item type, inserts the item as
// Disponível and logs Cadastro.
func (r *Repo) RegisterItem(ctx context.Context, in RegisterItemInput) (*models.Item, error) {
	if err := requireOperator(in.Operator); err != nil {
		return nil, err
	}
	spec, err := models.SpecFor(in.Tipo, in.Fields)
	if err != nil {
		return nil, err
	}

	it := &models.Item{
		Tipo:           spec.Type(),
		ItemFields:     spec.Fields(),
		Status:         models.StatusDisponivel,
		DateRegistered: r.utcNow(),
		IsActive:       true,
	}
	err = r.transaction(ctx, func(tx *gorm.DB) error {
		if err := checkItemDuplicates(tx, it.ItemFields, 0); err != nil {
			return err
		}
		if err := tx.Create(it).Error; err != nil {
			return err
		}
		return r.appendHistory(tx, &models.HistoryEntry{
			ItemID:       &it.ID,
			Operador:     in.Operator,
			Operation:    models.OpCadastro,
			ItemSnapshot: it.Snapshot(),
			Borrower:     models.Borrower{Revenda: it.Revenda},
		})
	})
	if err != nil {
		return nil, err
	}
	logs.Logger.WithFields(logrus.Fields{"item": it.ID, "operator": in.Operator}).Info("item registered")
	return it, nil
}

func checkItemDuplicates(tx *gorm.DB, f models.ItemFields, self uint) error {
	check := func(col, val, msg string) error {
		if val == "" {
			return nil
		}
		var n int64
		q := tx.Model(&models.Item{}).Where(col+" = ? AND is_active = ?", val, true)
		if self > 0 {
			q = q.Where("id <> ?", self)
		}
		if err := q.Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.Duplicate(msg, val)
		}
		return nil
	}
	if err := check("nota_fiscal", f.NotaFiscal, "Já existe um item ativo com a nota fiscal %s."); err != nil {
		return err
	}
	return check("identificador", f.Identificador, "Já existe um item ativo com o identificador %s.")
}

type EditItemInput struct {
	Fields   models.ItemFields
	Operator string
}

// EditItem overwrites the descriptive fields. Status and assignment are
// never touched here.
func (r *Repo) EditItem(ctx context.Context, id uint, in EditItemInput) (*models.Item, error) {
	if err := requireOperator(in.Operator); err != nil {
		return nil, err
	}
	var it *models.Item
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		var err error
		if it, err = lockItem(tx, id); err != nil {
			return err
		}
		spec, err := models.SpecFor(it.Tipo, in.Fields)
		if err != nil {
			return err
		}
		next := spec.Fields()
		if err := checkItemDuplicates(tx, next, it.ID); err != nil {
			return err
		}

		diff := it.ItemFields.Diff(next)
		updates := make(map[string]any, len(diff))
		for col, v := range next.Columns() {
			updates[col] = v
		}
		if err := tx.Model(&models.Item{}).Where("id = ?", it.ID).Updates(updates).Error; err != nil {
			return err
		}
		it.ItemFields = next

		changes := make(map[string]any, len(diff))
		for col, v := range diff {
			changes[col] = []string{v[0], v[1]}
		}
		return r.appendHistory(tx, &models.HistoryEntry{
			ItemID:       &it.ID,
			Operador:     in.Operator,
			Operation:    models.OpEdicao,
			ItemSnapshot: it.Snapshot(),
			Borrower:     models.Borrower{Revenda: it.Revenda},
			Changes:      map[string]any{models.ChangeFields: changes},
		})
	})
	if err != nil {
		return nil, err
	}
	return it, nil
}

// SoftDeleteItem retires a Disponível item. attachment is the stored
// removal justification.
func (r *Repo) SoftDeleteItem(ctx context.Context, id uint, operator, attachment string) error {
	if err := requireOperator(operator); err != nil {
		return err
	}
	if strings.TrimSpace(attachment) == "" {
		return apperr.Validation("Anexe o documento de justificativa da remoção.")
	}
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		it, err := lockItem(tx, id)
		if err != nil {
			return err
		}
		if it.Status != models.StatusDisponivel {
			return apperr.State("Não é possível remover produto emprestado.")
		}
		unlinked, err := unlinkAll(tx, it.ID)
		if err != nil {
			return err
		}
		res := tx.Model(&models.Item{}).
			Where("id = ? AND status = ? AND is_active = ?", it.ID, models.StatusDisponivel, true).
			Update("is_active", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return apperr.State("O item foi alterado por outra operação. Atualize e tente novamente.")
		}
		e := &models.HistoryEntry{
			ItemID:       &it.ID,
			Operador:     operator,
			Operation:    models.OpExclusao,
			ItemSnapshot: it.Snapshot(),
			Borrower:     models.Borrower{Revenda: it.Revenda},
			AnexoPath:    attachment,
		}
		if len(unlinked) > 0 {
			e.Changes = map[string]any{models.ChangeUnlinkedPeripherals: unlinked}
		}
		return r.appendHistory(tx, e)
	})
	if err != nil {
		return err
	}
	logs.Logger.WithFields(logrus.Fields{"item": id, "operator": operator}).Info("item removed")
	return nil
}

// FindItem returns an active item.
func (r *Repo) FindItem(ctx context.Context, id uint) (*models.Item, error) {
	var it models.Item
	err := r.DB.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&it).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Item não encontrado.")
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return &it, nil
}

type ItemFilter struct {
	Q       string // brand / model / identificador / nota fiscal / assigned_to
	Tipo    models.ItemType
	Status  models.ItemStatus
	Revenda string
}

type ItemRow struct {
	models.Item
	PeripheralCount int64 `json:"peripheral_count"`
}

// ListItems returns the active items with their linked peripheral count.
func (r *Repo) ListItems(ctx context.Context, f ItemFilter) ([]ItemRow, error) {
	q := r.DB.WithContext(ctx).Model(&models.Item{}).Where("is_active = ?", true)
	if s := strings.TrimSpace(f.Q); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where(`LOWER(brand) LIKE ? OR LOWER(model) LIKE ? OR LOWER(identificador) LIKE ?
			OR nota_fiscal LIKE ? OR LOWER(assigned_to) LIKE ?`, like, like, like, like, like)
	}
	if f.Tipo != "" {
		q = q.Where("tipo = ?", f.Tipo)
	}
	if f.Status != "" {
		if !f.Status.Valid() {
			return nil, apperr.Validation("Status inválido: %s.", f.Status)
		}
		q = q.Where("status = ?", f.Status)
	}
	if f.Revenda != "" {
		q = q.Where("revenda = ?", f.Revenda)
	}

	var items []models.Item
	if err := q.Order("id ASC").Find(&items).Error; err != nil {
		return nil, storageErr(err)
	}

	counts, err := r.peripheralCounts(ctx, items)
	if err != nil {
		return nil, err
	}
	rows := make([]ItemRow, len(items))
	for i, it := range items {
		rows[i] = ItemRow{Item: it, PeripheralCount: counts[it.ID]}
	}
	return rows, nil
}

func (r *Repo) peripheralCounts(ctx context.Context, items []models.Item) (map[uint]int64, error) {
	out := map[uint]int64{}
	if len(items) == 0 {
		return out, nil
	}
	ids := make([]uint, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	var rows []struct {
		EquipmentID uint
		N           int64
	}
	if err := r.DB.WithContext(ctx).Model(&models.EquipmentPeripheral{}).
		Select("equipment_id, COUNT(*) AS n").
		Where("equipment_id IN ?", ids).
		Group("equipment_id").
		Scan(&rows).Error; err != nil {
		return nil, storageErr(err)
	}
	for _, row := range rows {
		out[row.EquipmentID] = row.N
	}
	return out, nil
}
