package controllers

import (
	"net/http"

	"Gin_postgres_redis_inventory/app"
	"Gin_postgres_redis_inventory/db"
	"Gin_postgres_redis_inventory/models"
)

type ItemController struct{ *Srv }

func NewItemController(s *Srv) *ItemController { return &ItemController{Srv: s} }

type itemReq struct {
	Tipo models.ItemType `json:"tipo"`
	models.ItemFields
}

// POST /api/items
func (ic *ItemController) CreateItem(c *app.Ctx) {
	var in itemReq
	if !bindJSON(c, &in) {
		return
	}
	it, err := ic.Repo.RegisterItem(c.Request.Context(), db.RegisterItemInput{
		Tipo:     in.Tipo,
		Fields:   in.ItemFields,
		Operator: app.Operator(c),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, it)
}

// GET /api/items?q=&tipo=&status=&revenda=
func (ic *ItemController) ListItems(c *app.Ctx) {
	rows, err := ic.Repo.ListItems(c.Request.Context(), db.ItemFilter{
		Q:       c.Query("q"),
		Tipo:    models.ItemType(c.Query("tipo")),
		Status:  models.ItemStatus(c.Query("status")),
		Revenda: c.Query("revenda"),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": rows, "total": len(rows)})
}

// GET /api/items/:id
func (ic *ItemController) GetItem(c *app.Ctx) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	it, err := ic.Repo.FindItem(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ps, err := ic.Repo.ListLinkedPeripherals(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"item": it, "peripherals": ps})
}

// PUT /api/items/:id
func (ic *ItemController) UpdateItem(c *app.Ctx) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in models.ItemFields
	if !bindJSON(c, &in) {
		return
	}
	it, err := ic.Repo.EditItem(c.Request.Context(), id, db.EditItemInput{Fields: in, Operator: app.Operator(c)})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

// DELETE /api/items/:id (multipart, "file" = removal justification)
func (ic *ItemController) DeleteItem(c *app.Ctx) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	// check before storing the attachment, so a lent item leaves no orphan file
	it, err := ic.Repo.FindItem(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if it.Status != models.StatusDisponivel {
		c.JSON(http.StatusConflict, app.H{"error": "Não é possível remover produto emprestado."})
		return
	}
	ref, err := ic.upload(c, models.AttachmentRemocao)
	if err != nil {
		fail(c, err)
		return
	}
	if err := ic.Repo.SoftDeleteItem(c.Request.Context(), id, app.Operator(c), ref); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}
