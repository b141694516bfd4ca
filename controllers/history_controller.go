package controllers

import (
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"Gin_postgres_redis_inventory/app"
	"Gin_postgres_redis_inventory/db"
	"Gin_postgres_redis_inventory/models"
)

type HistoryController struct{ *Srv }

func NewHistoryController(s *Srv) *HistoryController { return &HistoryController{Srv: s} }

func (hc *HistoryController) queryDate(c *app.Ctx, name string) (*time.Time, bool) {
	v := c.Query(name)
	if v == "" {
		return nil, true
	}
	t, ok := models.ParseDate(v, hc.Loc)
	if !ok {
		badRequest(c, "Data inválida (use dd/mm/aaaa).")
		return nil, false
	}
	return &t, true
}

func queryUint(c *app.Ctx, name string) *uint {
	n, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil || n == 0 {
		return nil
	}
	v := uint(n)
	return &v
}

// GET /api/history?item_id=&peripheral_id=&operation=&operador=&q=&from=&to=&all=&page=&size=
// "to" is inclusive (the whole day).
func (hc *HistoryController) List(c *app.Ctx) {
	from, ok := hc.queryDate(c, "from")
	if !ok {
		return
	}
	to, ok := hc.queryDate(c, "to")
	if !ok {
		return
	}
	if to != nil {
		next := to.AddDate(0, 0, 1)
		to = &next
	}
	page, err := hc.Repo.ListHistory(c.Request.Context(), db.HistoryFilter{
		ItemID:          queryUint(c, "item_id"),
		PeripheralID:    queryUint(c, "peripheral_id"),
		Operation:       models.Operation(c.Query("operation")),
		Operador:        c.Query("operador"),
		Q:               c.Query("q"),
		From:            from,
		To:              to,
		IncludeReversed: c.Query("all") == "1" || c.Query("all") == "true",
		Page:            queryInt(c, "page", 1),
		Size:            queryInt(c, "size", 50),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /api/history/:id
func (hc *HistoryController) Get(c *app.Ctx) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	e, err := hc.Repo.GetHistory(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// GET /api/history/:id/term downloads the document generated for the entry.
func (hc *HistoryController) Term(c *app.Ctx) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	e, err := hc.Repo.GetHistory(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if e.TermoPath == "" {
		c.JSON(http.StatusNotFound, app.H{"error": "Este registro não possui termo gerado."})
		return
	}
	c.FileAttachment(e.TermoPath, filepath.Base(e.TermoPath))
}

// POST /api/history/:id/reverse
func (hc *HistoryController) Reverse(c *app.Ctx) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	e, err := hc.Repo.Reverse(c.Request.Context(), id, app.Operator(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}
