package controllers

import (
	"net/http"
	"path/filepath"

	"Gin_postgres_redis_inventory/app"
	"Gin_postgres_redis_inventory/db"
	"Gin_postgres_redis_inventory/models"
)

type LoanController struct{ *Srv }

func NewLoanController(s *Srv) *LoanController { return &LoanController{Srv: s} }

// POST /api/items/:id/issue
func (lc *LoanController) Issue(c *app.Ctx) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in db.IssueInput
	if !bindJSON(c, &in) {
		return
	}
	in.ItemID = id
	in.Operator = app.Operator(c)
	res, err := lc.Repo.Issue(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GET /api/items/:id/term
func (lc *LoanController) Term(c *app.Ctx) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	path, err := lc.Repo.GenerateLoanTerm(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

// POST /api/items/:id/confirm-loan (multipart, "file" = signed term)
func (lc *LoanController) ConfirmLoan(c *app.Ctx) {
	id, ok := paramID(c, "id")
	if !ok || !lc.readyFor(c, id, models.ActionConfirmLoan) {
		return
	}
	ref, err := lc.upload(c, models.AttachmentTermoAssinado)
	if err != nil {
		fail(c, err)
		return
	}
	it, err := lc.Repo.ConfirmLoan(c.Request.Context(), id, app.Operator(c), ref)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

type returnReq struct {
	Date string `json:"date"`
}

// POST /api/items/:id/return
func (lc *LoanController) InitiateReturn(c *app.Ctx) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in returnReq
	if c.Request.ContentLength != 0 && !bindJSON(c, &in) {
		return
	}
	e, err := lc.Repo.InitiateReturn(c.Request.Context(), db.ReturnInput{
		ItemID:   id,
		Operator: app.Operator(c),
		Date:     in.Date,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"entry": e, "term": filepath.Base(e.TermoPath)})
}

// POST /api/items/:id/confirm-return (multipart, "file" = signed return term)
func (lc *LoanController) ConfirmReturn(c *app.Ctx) {
	id, ok := paramID(c, "id")
	if !ok || !lc.readyFor(c, id, models.ActionConfirmReturn) {
		return
	}
	ref, err := lc.upload(c, models.AttachmentDevolucaoAssinada)
	if err != nil {
		fail(c, err)
		return
	}
	it, err := lc.Repo.ConfirmReturn(c.Request.Context(), id, app.Operator(c), ref)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}
