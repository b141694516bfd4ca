package db

import (
	"context"
	"sort"
	"time"

	"Gin_postgres_redis_inventory/apperr"
	"Gin_postgres_redis_inventory/models"
)

// Loan classification in the monthly report.
const (
	LoanPendente   = "Pendente"
	LoanConfirmado = "Confirmado"
	LoanDevolvido  = "Devolvido"
	// Cadastro rows
	ItemCadastrado = "Cadastrado"
)

type ReportRow struct {
	EntryID   uint             `json:"entry_id"`
	ItemID    *uint            `json:"item_id"`
	Data      time.Time        `json:"data"`
	Operation models.Operation `json:"operation"`
	Situacao  string           `json:"situacao"`
	Operador  string           `json:"operador"`

	models.Borrower
	Item models.ItemSnapshot `json:"item"`

	ConfirmadoEm *time.Time `json:"confirmado_em,omitempty"`
	DevolvidoEm  *time.Time `json:"devolvido_em,omitempty"`
}

// monthBounds returns [first day, first day of next month) in the business
// location. Query with the UTC values: timestamps are stored in UTC.
func (r *Repo) monthBounds(year, month int) (time.Time, time.Time, error) {
	if month < 1 || month > 12 || year < 1900 || year > 9999 {
		return time.Time{}, time.Time{}, apperr.Validation("Período inválido: %02d/%d.", month, year)
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, r.loc)
	return from, from.AddDate(0, 1, 0), nil
}

// MonthlyReport lists the loans dated in the month, classified by what
// followed them, together with the registrations of the month.
func (r *Repo) MonthlyReport(ctx context.Context, year, month int) ([]ReportRow, error) {
	from, to, err := r.monthBounds(year, month)
	if err != nil {
		return nil, err
	}
	tx := r.DB.WithContext(ctx)

	var entries []models.HistoryEntry
	if err := tx.Where("is_reversed = ? AND operation IN ? AND data_evento >= ? AND data_evento < ?",
		false, []models.Operation{models.OpEmprestimo, models.OpCadastro}, from.UTC(), to.UTC()).
		Order("id ASC").
		Find(&entries).Error; err != nil {
		return nil, storageErr(err)
	}

	itemIDs := map[uint]struct{}{}
	for _, e := range entries {
		if e.Operation == models.OpEmprestimo && e.ItemID != nil {
			itemIDs[*e.ItemID] = struct{}{}
		}
	}
	followUps := map[uint][]models.HistoryEntry{}
	if len(itemIDs) > 0 {
		ids := make([]uint, 0, len(itemIDs))
		for id := range itemIDs {
			ids = append(ids, id)
		}
		var rest []models.HistoryEntry
		if err := tx.Where("is_reversed = ? AND item_id IN ? AND operation IN ?", false, ids,
			[]models.Operation{models.OpEmprestimo, models.OpConfirmacaoEmprestimo, models.OpDevolucao}).
			Order("id ASC").
			Find(&rest).Error; err != nil {
			return nil, storageErr(err)
		}
		for _, e := range rest {
			followUps[*e.ItemID] = append(followUps[*e.ItemID], e)
		}
	}

	rows := make([]ReportRow, 0, len(entries))
	for _, e := range entries {
		row := ReportRow{
			EntryID:   e.ID,
			ItemID:    e.ItemID,
			Data:      e.DataEvento,
			Operation: e.Operation,
			Operador:  e.Operador,
			Borrower:  e.Borrower,
			Item:      e.ItemSnapshot,
		}
		if e.Operation == models.OpCadastro {
			row.Situacao = ItemCadastrado
		} else {
			confirm, ret := loanFollowUps(e, followUps[derefID(e.ItemID)])
			switch {
			case ret != nil:
				row.Situacao = LoanDevolvido
				row.DevolvidoEm = &ret.DataEvento
			case confirm != nil:
				row.Situacao = LoanConfirmado
			default:
				row.Situacao = LoanPendente
			}
			if confirm != nil {
				row.ConfirmadoEm = &confirm.DataOperacao
			}
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.Data.Equal(b.Data) {
			return a.Data.Before(b.Data)
		}
		if ai, bi := derefID(a.ItemID), derefID(b.ItemID); ai != bi {
			return ai < bi
		}
		return a.EntryID < b.EntryID
	})
	return rows, nil
}

// loanFollowUps finds the first confirmation and the first return after
// loan, stopping at the item's next loan.
func loanFollowUps(loan models.HistoryEntry, later []models.HistoryEntry) (confirm, ret *models.HistoryEntry) {
	for i := range later {
		e := &later[i]
		if e.ID <= loan.ID {
			continue
		}
		switch e.Operation {
		case models.OpEmprestimo:
			return confirm, ret
		case models.OpConfirmacaoEmprestimo:
			if confirm == nil {
				confirm = e
			}
		case models.OpDevolucao:
			if ret == nil {
				ret = e
			}
		}
	}
	return confirm, ret
}

func derefID(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}

// DailyCounts counts the non reversed entries of op per day of the month.
// Every day of the month is present.
func (r *Repo) DailyCounts(ctx context.Context, year, month int, op models.Operation) (map[int]int, error) {
	from, to, err := r.monthBounds(year, month)
	if err != nil {
		return nil, err
	}
	if !op.Valid() {
		return nil, apperr.Validation("Operação inválida: %s.", op)
	}
	var dates []time.Time
	if err := r.DB.WithContext(ctx).Model(&models.HistoryEntry{}).
		Where("is_reversed = ? AND operation = ? AND data_evento >= ? AND data_evento < ?", false, op, from.UTC(), to.UTC()).
		Pluck("data_evento", &dates).Error; err != nil {
		return nil, storageErr(err)
	}
	out := make(map[int]int, 31)
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		out[d.Day()] = 0
	}
	for _, d := range dates {
		out[d.In(r.loc).Day()]++
	}
	return out, nil
}
