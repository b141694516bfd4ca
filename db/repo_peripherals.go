package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"Gin_postgres_redis_inventory/apperr"
	"Gin_postgres_redis_inventory/logs"
	"Gin_postgres_redis_inventory/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func describePeripheral(p *models.Peripheral) string {
	s := strings.TrimSpace(strings.Join([]string{p.Tipo, p.Brand, p.Model}, " "))
	return fmt.Sprintf("%s (%s)", s, p.Identificador)
}

func trimPeripheral(f models.PeripheralFields) models.PeripheralFields {
	return models.PeripheralFields{
		Tipo:          strings.TrimSpace(f.Tipo),
		Brand:         strings.TrimSpace(f.Brand),
		Model:         strings.TrimSpace(f.Model),
		Identificador: strings.TrimSpace(f.Identificador),
	}
}

func checkPeripheralDuplicate(tx *gorm.DB, identificador string, self uint) error {
	var n int64
	q := tx.Model(&models.Peripheral{}).Where("identificador = ? AND is_active = ?", identificador, true)
	if self > 0 {
		q = q.Where("id <> ?", self)
	}
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apperr.Duplicate("Já existe um periférico ativo com o identificador %s.", identificador)
	}
	return nil
}

func lockPeripheral(tx *gorm.DB, id uint) (*models.Peripheral, error) {
	var p models.Peripheral
	err := forUpdate(tx).Where("id = ? AND is_active = ?", id, true).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Periférico não encontrado.")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// movePeripheral is the peripheral counterpart of moveItem.
func movePeripheral(tx *gorm.DB, id uint, from, to models.PeripheralStatus, extra map[string]any) error {
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := tx.Model(&models.Peripheral{}).
		Where("id = ? AND status = ? AND is_active = ?", id, from, true).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return apperr.State("Periférico %d não está %s.", id, strings.ToLower(string(from)))
	}
	return nil
}

type RegisterPeripheralInput struct {
	models.PeripheralFields
	Operator string
}

func (r *Repo) RegisterPeripheral(ctx context.Context, in RegisterPeripheralInput) (*models.Peripheral, error) {
	if err := requireOperator(in.Operator); err != nil {
		return nil, err
	}
	f := trimPeripheral(in.PeripheralFields)
	if err := apperr.Struct(f); err != nil {
		return nil, err
	}
	p := &models.Peripheral{
		Tipo:           f.Tipo,
		Brand:          f.Brand,
		Model:          f.Model,
		Identificador:  f.Identificador,
		Status:         models.PeripheralDisponivel,
		DateRegistered: r.utcNow(),
		IsActive:       true,
	}
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		if err := checkPeripheralDuplicate(tx, p.Identificador, 0); err != nil {
			return err
		}
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return r.appendHistory(tx, &models.HistoryEntry{
			PeripheralID: &p.ID,
			Operador:     in.Operator,
			Operation:    models.OpCadastroPeriferico,
			Details:      describePeripheral(p),
		})
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repo) EditPeripheral(ctx context.Context, id uint, in RegisterPeripheralInput) (*models.Peripheral, error) {
	if err := requireOperator(in.Operator); err != nil {
		return nil, err
	}
	f := trimPeripheral(in.PeripheralFields)
	if err := apperr.Struct(f); err != nil {
		return nil, err
	}
	var p *models.Peripheral
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		var err error
		if p, err = lockPeripheral(tx, id); err != nil {
			return err
		}
		if err := checkPeripheralDuplicate(tx, f.Identificador, p.ID); err != nil {
			return err
		}
		changes := map[string]any{}
		for col, pair := range map[string][2]string{
			"tipo":          {p.Tipo, f.Tipo},
			"brand":         {p.Brand, f.Brand},
			"model":         {p.Model, f.Model},
			"identificador": {p.Identificador, f.Identificador},
		} {
			if pair[0] != pair[1] {
				changes[col] = []string{pair[0], pair[1]}
			}
		}
		if err := tx.Model(&models.Peripheral{}).Where("id = ?", p.ID).Updates(map[string]any{
			"tipo": f.Tipo, "brand": f.Brand, "model": f.Model, "identificador": f.Identificador,
		}).Error; err != nil {
			return err
		}
		p.Tipo, p.Brand, p.Model, p.Identificador = f.Tipo, f.Brand, f.Model, f.Identificador
		return r.appendHistory(tx, &models.HistoryEntry{
			PeripheralID: &p.ID,
			Operador:     in.Operator,
			Operation:    models.OpEdicao,
			Details:      describePeripheral(p),
			Changes:      map[string]any{models.ChangeFields: changes},
		})
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SoftDeletePeripheral retires a peripheral that is not linked.
func (r *Repo) SoftDeletePeripheral(ctx context.Context, id uint, operator string) error {
	if err := requireOperator(operator); err != nil {
		return err
	}
	return r.transaction(ctx, func(tx *gorm.DB) error {
		p, err := lockPeripheral(tx, id)
		if err != nil {
			return err
		}
		if p.Status == models.PeripheralEmUso {
			return apperr.State("Não é possível remover um periférico vinculado a um equipamento.")
		}
		if err := tx.Model(&models.Peripheral{}).Where("id = ?", p.ID).Update("is_active", false).Error; err != nil {
			return err
		}
		return r.appendHistory(tx, &models.HistoryEntry{
			PeripheralID: &p.ID,
			Operador:     operator,
			Operation:    models.OpExclusao,
			Details:      describePeripheral(p),
		})
	})
}

func (r *Repo) FindPeripheral(ctx context.Context, id uint) (*models.Peripheral, error) {
	var p models.Peripheral
	err := r.DB.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Periférico não encontrado.")
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return &p, nil
}

type PeripheralFilter struct {
	Q      string
	Tipo   string
	Status models.PeripheralStatus
}

type PeripheralRow struct {
	models.Peripheral
	EquipmentID *uint `json:"equipment_id"`
	LinkID      *uint `json:"link_id"`
}

func (r *Repo) ListPeripherals(ctx context.Context, f PeripheralFilter) ([]PeripheralRow, error) {
	q := r.DB.WithContext(ctx).
		Table(models.PeripheralTable+" p").
		Select("p.*, l.equipment_id AS equipment_id, l.id AS link_id").
		Joins("LEFT JOIN "+models.LinkTable+" l ON l.peripheral_id = p.id").
		Where("p.is_active = ?", true)
	if s := strings.TrimSpace(f.Q); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(p.brand) LIKE ? OR LOWER(p.model) LIKE ? OR LOWER(p.identificador) LIKE ?", like, like, like)
	}
	if f.Tipo != "" {
		q = q.Where("p.tipo = ?", f.Tipo)
	}
	if f.Status != "" {
		q = q.Where("p.status = ?", f.Status)
	}
	var rows []PeripheralRow
	if err := q.Order("p.id ASC").Scan(&rows).Error; err != nil {
		return nil, storageErr(err)
	}
	return rows, nil
}

// ListLinkedPeripherals returns the peripherals linked to an item.
func (r *Repo) ListLinkedPeripherals(ctx context.Context, equipmentID uint) ([]models.Peripheral, error) {
	ps, err := linkedPeripherals(r.DB.WithContext(ctx), equipmentID)
	return ps, storageErr(err)
}

func linkedPeripherals(tx *gorm.DB, equipmentID uint) ([]models.Peripheral, error) {
	var ps []models.Peripheral
	err := tx.Model(&models.Peripheral{}).
		Joins("JOIN "+models.LinkTable+" l ON l.peripheral_id = "+models.PeripheralTable+".id").
		Where("l.equipment_id = ?", equipmentID).
		Order(models.PeripheralTable + ".id ASC").
		Find(&ps).Error
	return ps, err
}

// LinkPeripheral attaches an available peripheral to an item. The
// peripheral turns Em Uso right away, whatever the item's loan status.
func (r *Repo) LinkPeripheral(ctx context.Context, equipmentID, peripheralID uint, operator string) (*models.EquipmentPeripheral, error) {
	if err := requireOperator(operator); err != nil {
		return nil, err
	}
	var link *models.EquipmentPeripheral
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		it, err := lockItem(tx, equipmentID)
		if err != nil {
			return err
		}
		p, err := lockPeripheral(tx, peripheralID)
		if err != nil {
			return err
		}
		if p.Status != models.PeripheralDisponivel {
			return apperr.State("Periférico não está disponível (status: %s).", p.Status)
		}
		link = &models.EquipmentPeripheral{EquipmentID: it.ID, PeripheralID: p.ID}
		if err := tx.Create(link).Error; err != nil {
			return err
		}
		if err := movePeripheral(tx, p.ID, models.PeripheralDisponivel, models.PeripheralEmUso, nil); err != nil {
			return err
		}
		return r.appendHistory(tx, &models.HistoryEntry{
			ItemID:       &it.ID,
			PeripheralID: &p.ID,
			Operador:     operator,
			Operation:    models.OpVinculoPeriferico,
			ItemSnapshot: it.Snapshot(),
			Details:      describePeripheral(p),
		})
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (r *Repo) UnlinkPeripheral(ctx context.Context, linkID uint, operator string) error {
	if err := requireOperator(operator); err != nil {
		return err
	}
	return r.transaction(ctx, func(tx *gorm.DB) error {
		var link models.EquipmentPeripheral
		err := forUpdate(tx).First(&link, linkID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Vínculo não encontrado.")
		}
		if err != nil {
			return err
		}
		it, err := lockItem(tx, link.EquipmentID)
		if err != nil {
			return err
		}
		p, err := lockPeripheral(tx, link.PeripheralID)
		if err != nil {
			return err
		}
		if err := tx.Delete(&models.EquipmentPeripheral{}, link.ID).Error; err != nil {
			return err
		}
		if err := movePeripheral(tx, p.ID, models.PeripheralEmUso, models.PeripheralDisponivel, nil); err != nil {
			return err
		}
		return r.appendHistory(tx, &models.HistoryEntry{
			ItemID:       &it.ID,
			PeripheralID: &p.ID,
			Operador:     operator,
			Operation:    models.OpDesvinculoPeriferico,
			ItemSnapshot: it.Snapshot(),
			Details:      describePeripheral(p),
		})
	})
}

type ReplacePeripheralInput struct {
	EquipmentID uint
	OldID       uint
	NewID       uint
	Reason      string
	Operator    string
}

// ReplacePeripheral swaps a defective peripheral for a new one. The old
// one is retired as Com Defeito. Everything rolls back on any failure.
func (r *Repo) ReplacePeripheral(ctx context.Context, in ReplacePeripheralInput) error {
	if err := requireOperator(in.Operator); err != nil {
		return err
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return apperr.Validation("Informe o motivo da substituição.")
	}
	if in.OldID == in.NewID {
		return apperr.Validation("O novo periférico deve ser diferente do atual.")
	}

	err := r.transaction(ctx, func(tx *gorm.DB) error {
		it, err := lockItem(tx, in.EquipmentID)
		if err != nil {
			return err
		}
		var link models.EquipmentPeripheral
		err = forUpdate(tx).Where("equipment_id = ? AND peripheral_id = ?", it.ID, in.OldID).First(&link).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("O periférico %d não está vinculado a este equipamento.", in.OldID)
		}
		if err != nil {
			return err
		}
		old, err := lockPeripheral(tx, in.OldID)
		if err != nil {
			return err
		}
		repl, err := lockPeripheral(tx, in.NewID)
		if err != nil {
			return err
		}

		if err := tx.Delete(&models.EquipmentPeripheral{}, link.ID).Error; err != nil {
			return err
		}
		if err := movePeripheral(tx, old.ID, models.PeripheralEmUso, models.PeripheralComDefeito,
			map[string]any{"is_active": false}); err != nil {
			return err
		}
		if err := tx.Create(&models.EquipmentPeripheral{EquipmentID: it.ID, PeripheralID: repl.ID}).Error; err != nil {
			return err
		}
		if err := movePeripheral(tx, repl.ID, models.PeripheralDisponivel, models.PeripheralEmUso, nil); err != nil {
			return err
		}
		return r.appendHistory(tx, &models.HistoryEntry{
			ItemID:       &it.ID,
			PeripheralID: &repl.ID,
			Operador:     in.Operator,
			Operation:    models.OpSubstituicaoPeriferico,
			ItemSnapshot: it.Snapshot(),
			Details:      reason,
			Changes: map[string]any{
				models.ChangeOldPeripheral: old.ID,
				models.ChangeNewPeripheral: repl.ID,
			},
		})
	})
	if err != nil {
		return err
	}
	logs.Logger.WithFields(logrus.Fields{
		"item": in.EquipmentID, "old": in.OldID, "new": in.NewID, "operator": in.Operator,
	}).Info("peripheral replaced")
	return nil
}

// unlinkAll drops every link of the item and frees the peripherals. It
// returns the freed ids.
func unlinkAll(tx *gorm.DB, equipmentID uint) ([]uint, error) {
	var links []models.EquipmentPeripheral
	if err := tx.Where("equipment_id = ?", equipmentID).Order("id ASC").Find(&links).Error; err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(links))
	for _, l := range links {
		if err := tx.Delete(&models.EquipmentPeripheral{}, l.ID).Error; err != nil {
			return nil, err
		}
		if err := tx.Model(&models.Peripheral{}).
			Where("id = ? AND status = ?", l.PeripheralID, models.PeripheralEmUso).
			Update("status", models.PeripheralDisponivel).Error; err != nil {
			return nil, err
		}
		ids = append(ids, l.PeripheralID)
	}
	return ids, nil
}

// relink restores links dropped by unlinkAll. Each peripheral must still
// be active and Disponível.
func relink(tx *gorm.DB, equipmentID uint, ids []uint) error {
	for _, pid := range ids {
		res := tx.Model(&models.Peripheral{}).
			Where("id = ? AND status = ? AND is_active = ?", pid, models.PeripheralDisponivel, true).
			Update("status", models.PeripheralEmUso)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return apperr.Inconsistent("Periférico %d não está mais disponível para ser vinculado novamente.", pid)
		}
		if err := tx.Create(&models.EquipmentPeripheral{EquipmentID: equipmentID, PeripheralID: pid}).Error; err != nil {
			return err
		}
	}
	return nil
}
