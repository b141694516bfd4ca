package controllers

import (
	"net/http"

	"Gin_postgres_redis_inventory/app"
	"Gin_postgres_redis_inventory/db"
	"Gin_postgres_redis_inventory/models"
)

type PeripheralController struct{ *Srv }

func NewPeripheralController(s *Srv) *PeripheralController { return &PeripheralController{Srv: s} }

// POST /api/peripherals
func (pc *PeripheralController) Create(c *app.Ctx) {
	var in models.PeripheralFields
	if !bindJSON(c, &in) {
		return
	}
	p, err := pc.Repo.RegisterPeripheral(c.Request.Context(), db.RegisterPeripheralInput{
		PeripheralFields: in,
		Operator:         app.Operator(c),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// GET /api/peripherals?q=&tipo=&status=
func (pc *PeripheralController) List(c *app.Ctx) {
	rows, err := pc.Repo.ListPeripherals(c.Request.Context(), db.PeripheralFilter{
		Q:      c.Query("q"),
		Tipo:   c.Query("tipo"),
		Status: models.PeripheralStatus(c.Query("status")),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"peripherals": rows, "total": len(rows)})
}

// GET /api/peripherals/:id
func (pc *PeripheralController) Get(c *app.Ctx) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := pc.Repo.FindPeripheral(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// PUT /api/peripherals/:id
func (pc *PeripheralController) Update(c *app.Ctx) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in models.PeripheralFields
	if !bindJSON(c, &in) {
		return
	}
	p, err := pc.Repo.EditPeripheral(c.Request.Context(), id, db.RegisterPeripheralInput{
		PeripheralFields: in,
		Operator:         app.Operator(c),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DELETE /api/peripherals/:id
func (pc *PeripheralController) Delete(c *app.Ctx) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := pc.Repo.SoftDeletePeripheral(c.Request.Context(), id, app.Operator(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /api/items/:id/peripherals
func (pc *PeripheralController) ListLinked(c *app.Ctx) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ps, err := pc.Repo.ListLinkedPeripherals(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"peripherals": ps})
}

type linkReq struct {
	PeripheralID uint `json:"peripheral_id"`
}

// POST /api/items/:id/peripherals
func (pc *PeripheralController) Link(c *app.Ctx) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in linkReq
	if !bindJSON(c, &in) {
		return
	}
	if in.PeripheralID == 0 {
		badRequest(c, "Selecione o periférico.")
		return
	}
	link, err := pc.Repo.LinkPeripheral(c.Request.Context(), id, in.PeripheralID, app.Operator(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, link)
}

// DELETE /api/links/:id
func (pc *PeripheralController) Unlink(c *app.Ctx) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := pc.Repo.UnlinkPeripheral(c.Request.Context(), id, app.Operator(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

type replaceReq struct {
	OldID  uint   `json:"old_peripheral_id"`
	NewID  uint   `json:"new_peripheral_id"`
	Reason string `json:"reason"`
}

// POST /api/items/:id/peripherals/replace
func (pc *PeripheralController) Replace(c *app.Ctx) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in replaceReq
	if !bindJSON(c, &in) {
		return
	}
	err := pc.Repo.ReplacePeripheral(c.Request.Context(), db.ReplacePeripheralInput{
		EquipmentID: id,
		OldID:       in.OldID,
		NewID:       in.NewID,
		Reason:      in.Reason,
		Operator:    app.Operator(c),
	})
	if err != nil {
		fail(c, err)
		return
	}
	ps, err := pc.Repo.ListLinkedPeripherals(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"peripherals": ps})
}
