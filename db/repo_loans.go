package db

import (
	"context"
	"strings"
	"time"

	"Gin_postgres_redis_inventory/apperr"
	"Gin_postgres_redis_inventory/logs"
	"Gin_postgres_redis_inventory/models"
	"Gin_postgres_redis_inventory/term"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// IssueInput is the loan form.
type IssueInput struct {
	ItemID       uint   `json:"-"`
	Usuario      string `json:"usuario" validate:"required"`
	CPF          string `json:"cpf" validate:"required,cpf"`
	CenterCost   string `json:"center_cost" validate:"required"`
	Cargo        string `json:"cargo" validate:"required"`
	SetorUsuario string `json:"setor_usuario"`
	Revenda      string `json:"revenda"` // defaults to the item's
	Date         string `json:"date"`    // dd/mm/aaaa, defaults to today
	Operator     string `json:"-"`
}

type LoanResult struct {
	Item    *models.Item         `json:"item"`
	Entry   *models.HistoryEntry `json:"entry"`
	Pending bool                 `json:"pending"`
	Message string               `json:"message"`
}

// checkDate parses raw (today when empty) and enforces
// anchor <= date <= today. msgs are the parse, future and anchor messages;
// the anchor message gets the formatted anchor.
func (r *Repo) checkDate(raw string, anchor *time.Time, msgs [3]string) (time.Time, error) {
	today := r.today()
	d := today
	if strings.TrimSpace(raw) != "" {
		var ok bool
		if d, ok = models.ParseDate(raw, r.loc); !ok {
			return time.Time{}, apperr.Validation("%s", msgs[0])
		}
	}
	if d.After(today) {
		return time.Time{}, apperr.Validation("%s", msgs[1])
	}
	if anchor != nil {
		a := models.Day(*anchor, r.loc)
		if d.Before(a) {
			return time.Time{}, apperr.Validation(msgs[2], models.FormatDate(a))
		}
	}
	return d, nil
}

// Issue lends an available item. The loan stays Pendente until the signed
// term comes back (ConfirmLoan).
func (r *Repo) Issue(ctx context.Context, in IssueInput) (*LoanResult, error) {
	if err := requireOperator(in.Operator); err != nil {
		return nil, err
	}
	in.Usuario = strings.TrimSpace(in.Usuario)
	in.CenterCost = strings.TrimSpace(in.CenterCost)
	in.Cargo = strings.TrimSpace(in.Cargo)
	in.SetorUsuario = strings.TrimSpace(in.SetorUsuario)
	in.Revenda = strings.TrimSpace(in.Revenda)
	if err := apperr.Struct(in); err != nil {
		return nil, err
	}
	cpf := models.OnlyDigits(in.CPF)

	var res *LoanResult
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		it, err := lockItem(tx, in.ItemID)
		if err != nil {
			return err
		}
		if _, ok := models.NextStatus(models.ActionIssue, it.Status); !ok {
			if it.AssignedTo != nil {
				return apperr.State("Este item já está emprestado para %s.", *it.AssignedTo)
			}
			return apperr.State("Item não está disponível (status: %s).", it.Status)
		}

		day, err := r.checkDate(in.Date, &it.DateRegistered, [3]string{
			"Data de empréstimo inválida (use dd/mm/aaaa).",
			"A data de empréstimo não pode ser no futuro.",
			"Data de empréstimo não pode ser anterior ao cadastro (%s).",
		})
		if err != nil {
			return err
		}
		// the date the item came back, not when the signed return arrived
		last, err := lastEntry(tx, it.ID, 0, models.OpDevolucao)
		if err != nil {
			return err
		}
		if last != nil {
			if d := models.Day(last.DataEvento, r.loc); day.Before(d) {
				return apperr.Validation("Data de empréstimo não pode ser anterior à última devolução (%s).", models.FormatDate(d))
			}
		}

		issued := day.UTC()
		revenda := in.Revenda
		if revenda == "" {
			revenda = it.Revenda
		}
		if err := moveItem(tx, it.ID, models.StatusDisponivel, models.StatusPendente,
			assignment(in.Usuario, cpf, &issued)); err != nil {
			return err
		}
		it.Status = models.StatusPendente
		it.AssignedTo, it.CPF, it.DateIssued = &in.Usuario, &cpf, &issued

		e := &models.HistoryEntry{
			ItemID:     &it.ID,
			Operador:   in.Operator,
			Operation:  models.OpEmprestimo,
			DataEvento: issued,
			Borrower: models.Borrower{
				Usuario:        in.Usuario,
				CPF:            cpf,
				Cargo:          in.Cargo,
				CenterCost:     in.CenterCost,
				SetorUsuario:   in.SetorUsuario,
				Revenda:        revenda,
				DataEmprestimo: &issued,
			},
			ItemSnapshot: it.Snapshot(),
		}
		if err := r.appendHistory(tx, e); err != nil {
			return err
		}
		res = &LoanResult{
			Item:    it,
			Entry:   e,
			Pending: true,
			Message: "Empréstimo registrado. Gere o termo de responsabilidade e anexe-o assinado para confirmar.",
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logs.Logger.WithFields(logrus.Fields{"item": in.ItemID, "operator": in.Operator, "usuario": in.Usuario}).
		Info("loan issued")
	return res, nil
}

// GenerateLoanTerm renders the responsibility term of a lent item. It does
// not change anything.
func (r *Repo) GenerateLoanTerm(ctx context.Context, itemID uint) (string, error) {
	if r.Terms == nil {
		return "", apperr.TemplateNotFound("Nenhum modelo de termo configurado.")
	}
	tx := r.DB.WithContext(ctx)
	it, err := lockItem(tx, itemID)
	if err != nil {
		return "", storageErr(err)
	}
	if it.Status != models.StatusPendente && it.Status != models.StatusIndisponivel {
		return "", apperr.State("O termo só pode ser gerado para itens emprestados (status: %s).", it.Status)
	}
	loan, err := lastEntry(tx, it.ID, 0, models.OpEmprestimo)
	if err != nil {
		return "", storageErr(err)
	}
	ps, err := linkedPeripherals(tx, it.ID)
	if err != nil {
		return "", storageErr(err)
	}
	return r.Terms.Render(ctx, term.KindLoan, r.termData(it, loan, ps, time.Time{}))
}

func (r *Repo) termData(it *models.Item, loan *models.HistoryEntry, ps []models.Peripheral, returned time.Time) term.Data {
	d := term.Data{Item: *it, Peripherals: ps, Now: r.now().In(r.loc), DataDevolucao: returned}
	if it.AssignedTo != nil {
		d.Borrower = *it.AssignedTo
	}
	if it.CPF != nil {
		d.CPF = *it.CPF
	}
	if it.DateIssued != nil {
		d.DataEmprestimo = it.DateIssued.In(r.loc)
	}
	if loan != nil {
		if d.Borrower == "" {
			d.Borrower = loan.Usuario
		}
		if loan.Revenda != "" {
			d.Item.Revenda = loan.Revenda
		}
	}
	return d
}

// ConfirmLoan records the signed responsibility term.
func (r *Repo) ConfirmLoan(ctx context.Context, itemID uint, operator, signedTerm string) (*models.Item, error) {
	if err := requireOperator(operator); err != nil {
		return nil, err
	}
	if strings.TrimSpace(signedTerm) == "" {
		return nil, apperr.Validation("Anexe o termo assinado.")
	}
	return r.step(ctx, models.ActionConfirmLoan, itemID, operator, func(tx *gorm.DB, it *models.Item, e *models.HistoryEntry) (map[string]any, error) {
		loan, err := lastEntry(tx, it.ID, 0, models.OpEmprestimo)
		if err != nil {
			return nil, err
		}
		if loan != nil {
			e.Borrower = loan.Borrower
		}
		e.AnexoPath = signedTerm
		return nil, nil
	})
}

type ReturnInput struct {
	ItemID   uint
	Operator string
	Date     string // dd/mm/aaaa, defaults to today
}

// InitiateReturn renders the return term and moves the item to Pendente
// Devolução. Nothing changes when rendering fails.
func (r *Repo) InitiateReturn(ctx context.Context, in ReturnInput) (*models.HistoryEntry, error) {
	if err := requireOperator(in.Operator); err != nil {
		return nil, err
	}
	if r.Terms == nil {
		return nil, apperr.TemplateNotFound("Nenhum modelo de termo configurado.")
	}
	var (
		rendered string
		entry    *models.HistoryEntry
	)
	_, err := r.step(ctx, models.ActionInitiateReturn, in.ItemID, in.Operator, func(tx *gorm.DB, it *models.Item, e *models.HistoryEntry) (map[string]any, error) {
		day, err := r.checkDate(in.Date, it.DateIssued, [3]string{
			"Data de devolução inválida (use dd/mm/aaaa).",
			"A data de devolução não pode ser no futuro.",
			"Data de devolução não pode ser anterior ao empréstimo (%s).",
		})
		if err != nil {
			return nil, err
		}
		loan, err := lastEntry(tx, it.ID, 0, models.OpEmprestimo)
		if err != nil {
			return nil, err
		}
		ps, err := linkedPeripherals(tx, it.ID)
		if err != nil {
			return nil, err
		}
		if rendered, err = r.Terms.Render(ctx, term.KindReturn, r.termData(it, loan, ps, day)); err != nil {
			return nil, err
		}
		if loan != nil {
			e.Borrower = loan.Borrower
		}
		e.DataEvento = day.UTC()
		e.TermoPath = rendered
		entry = e
		return nil, nil
	})
	if err != nil {
		if rendered != "" {
			if rerr := r.Terms.Remove(rendered); rerr != nil {
				logs.Logger.WithError(rerr).WithField("path", rendered).Warn("could not remove return term")
			}
		}
		return nil, err
	}
	return entry, nil
}

// ConfirmReturn records the signed return term, frees the item and its
// peripherals.
func (r *Repo) ConfirmReturn(ctx context.Context, itemID uint, operator, signedReturn string) (*models.Item, error) {
	if err := requireOperator(operator); err != nil {
		return nil, err
	}
	if strings.TrimSpace(signedReturn) == "" {
		return nil, apperr.Validation("Anexe o termo de devolução assinado.")
	}
	return r.step(ctx, models.ActionConfirmReturn, itemID, operator, func(tx *gorm.DB, it *models.Item, e *models.HistoryEntry) (map[string]any, error) {
		loan, err := lastEntry(tx, it.ID, 0, models.OpEmprestimo)
		if err != nil {
			return nil, err
		}
		if loan != nil {
			e.Borrower = loan.Borrower
		}
		unlinked, err := unlinkAll(tx, it.ID)
		if err != nil {
			return nil, err
		}
		if len(unlinked) > 0 {
			e.Changes = map[string]any{models.ChangeUnlinkedPeripherals: unlinked}
		}
		e.AnexoPath = signedReturn
		return clearAssignment(), nil
	})
}

// stepFunc fills the ledger entry of a lifecycle step and returns extra
// columns to set along with the status.
type stepFunc func(tx *gorm.DB, it *models.Item, e *models.HistoryEntry) (map[string]any, error)

// step runs one table driven transition: lock, check, fill, move, append.
func (r *Repo) step(ctx context.Context, action models.Action, itemID uint, operator string, fill stepFunc) (*models.Item, error) {
	var it *models.Item
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		var err error
		if it, err = lockItem(tx, itemID); err != nil {
			return err
		}
		to, ok := models.NextStatus(action, it.Status)
		if !ok {
			return apperr.State("Operação não permitida: o item está %s (esperado: %s).",
				it.Status, models.RequiredStatus(action))
		}
		e := &models.HistoryEntry{
			ItemID:       &it.ID,
			Operador:     operator,
			Operation:    models.OperationFor(action),
			ItemSnapshot: it.Snapshot(),
		}
		extra, err := fill(tx, it, e)
		if err != nil {
			return err
		}
		if err := moveItem(tx, it.ID, it.Status, to, extra); err != nil {
			return err
		}
		if err := r.appendHistory(tx, e); err != nil {
			return err
		}
		it.Status = to
		if to == models.StatusDisponivel {
			it.AssignedTo, it.CPF, it.DateIssued = nil, nil, nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logs.Logger.WithFields(logrus.Fields{
		"item": itemID, "operator": operator, "action": action, "status": it.Status,
	}).Info("loan step")
	return it, nil
}
