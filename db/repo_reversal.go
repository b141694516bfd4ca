package db

import (
	"context"
	"errors"

	"Gin_postgres_redis_inventory/apperr"
	"Gin_postgres_redis_inventory/logs"
	"Gin_postgres_redis_inventory/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Reverse undoes a ledger entry (Estorno). The item goes back to the status
// it had before the entry, provided nothing happened to it since.
func (r *Repo) Reverse(ctx context.Context, historyID uint, operator string) (*models.HistoryEntry, error) {
	if err := requireOperator(operator); err != nil {
		return nil, err
	}
	var estorno *models.HistoryEntry
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		var e models.HistoryEntry
		err := forUpdate(tx).First(&e, historyID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Registro de histórico não encontrado.")
		}
		if err != nil {
			return err
		}
		if e.IsReversed {
			return apperr.AlreadyReversed("Este registro já foi estornado.")
		}
		target, ok := models.ReversalFor(e.Operation)
		if !ok {
			return apperr.NotReversible("Operação %s não pode ser estornada.", e.Operation)
		}
		if e.ItemID == nil {
			return apperr.Inconsistent("O item deste registro não existe mais.")
		}
		it, err := lockItem(tx, *e.ItemID)
		if err != nil {
			return err
		}

		borrower := e.Borrower
		if err := r.undo(tx, &e, it, target, &borrower); err != nil {
			return err
		}

		res := tx.Model(&models.HistoryEntry{}).
			Where("id = ? AND is_reversed = ?", e.ID, false).
			Update("is_reversed", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return apperr.AlreadyReversed("Este registro já foi estornado.")
		}

		estorno = &models.HistoryEntry{
			ItemID:       &it.ID,
			PeripheralID: e.PeripheralID,
			Operador:     operator,
			Operation:    models.OpEstorno,
			ReversesID:   &e.ID,
			Borrower:     borrower,
			ItemSnapshot: e.ItemSnapshot,
			Details:      "Estorno de " + string(e.Operation),
		}
		return r.appendHistory(tx, estorno)
	})
	if err != nil {
		return nil, err
	}
	logs.Logger.WithFields(logrus.Fields{"entry": historyID, "operator": operator}).Info("entry reversed")
	return estorno, nil
}

func stateMismatch(it *models.Item, target models.ReversalTarget) error {
	return apperr.State("Não é possível estornar: o item está %s (esperado: %s). Estorne primeiro as operações posteriores.",
		it.Status, target.Produced)
}

// undo moves the item back for entry e. borrower is the snapshot the Estorno
// entry will carry.
func (r *Repo) undo(tx *gorm.DB, e *models.HistoryEntry, it *models.Item, target models.ReversalTarget, borrower *models.Borrower) error {
	switch e.Operation {
	case models.OpEmprestimo:
		if it.Status != target.Produced {
			return stateMismatch(it, target)
		}
		return moveItem(tx, it.ID, target.Produced, target.Restored, clearAssignment())

	case models.OpConfirmacaoEmprestimo:
		if it.Status != target.Produced {
			return stateMismatch(it, target)
		}
		return moveItem(tx, it.ID, target.Produced, target.Restored, nil)

	case models.OpDevolucao:
		loan, err := lastEntry(tx, it.ID, e.ID, models.OpEmprestimo, models.OpConfirmacaoEmprestimo)
		if err != nil {
			return err
		}
		if loan == nil {
			return apperr.Inconsistent("Nenhum empréstimo ativo encontrado antes desta devolução.")
		}
		if it.Status != target.Produced {
			return stateMismatch(it, target)
		}
		if borrower.Empty() {
			*borrower = loan.Borrower
		}
		return moveItem(tx, it.ID, target.Produced, target.Restored, nil)

	case models.OpConfirmacaoDevolucao:
		if it.Status != target.Produced {
			return stateMismatch(it, target)
		}
		if e.Borrower.Empty() {
			return apperr.Inconsistent("O registro não guarda o usuário do empréstimo.")
		}
		issued := e.DataEmprestimo
		if issued == nil {
			loan, err := lastEntry(tx, it.ID, e.ID, models.OpEmprestimo)
			if err != nil {
				return err
			}
			if loan == nil || loan.DataEmprestimo == nil {
				return apperr.Inconsistent("Nenhum empréstimo encontrado antes desta devolução.")
			}
			issued = loan.DataEmprestimo
		}
		if err := moveItem(tx, it.ID, target.Produced, target.Restored,
			assignment(e.Usuario, e.CPF, issued)); err != nil {
			return err
		}
		return relink(tx, it.ID, changeIDs(e.Changes, models.ChangeUnlinkedPeripherals))

	case models.OpCadastro:
		if it.Status != target.Produced {
			return stateMismatch(it, target)
		}
		if _, err := unlinkAll(tx, it.ID); err != nil {
			return err
		}
		res := tx.Model(&models.Item{}).
			Where("id = ? AND status = ? AND is_active = ?", it.ID, target.Produced, true).
			Update("is_active", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return apperr.State("O item foi alterado por outra operação. Atualize e tente novamente.")
		}
		return nil
	}
	return apperr.NotReversible("Operação %s não pode ser estornada.", e.Operation)
}

// changeIDs reads a list of ids back from a JSON change set, where numbers
// come back as float64.
func changeIDs(changes map[string]any, key string) []uint {
	raw, ok := changes[key]
	if !ok {
		return nil
	}
	var ids []uint
	switch v := raw.(type) {
	case []uint:
		return v
	case []any:
		for _, x := range v {
			switch n := x.(type) {
			case float64:
				ids = append(ids, uint(n))
			case int:
				ids = append(ids, uint(n))
			case uint:
				ids = append(ids, n)
			}
		}
	}
	return ids
}
