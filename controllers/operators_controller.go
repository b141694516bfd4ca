package controllers

import (
	"net/http"

	"Gin_postgres_redis_inventory/app"
	"Gin_postgres_redis_inventory/db"
	"Gin_postgres_redis_inventory/logs"
)

type OperatorController struct{ *Srv }

func NewOperatorController(s *Srv) *OperatorController { return &OperatorController{Srv: s} }

// GET /api/operators?q=&page=&size=
func (oc *OperatorController) List(c *app.Ctx) {
	res, err := oc.Repo.ListOperators(c.Request.Context(), c.Query("q"), queryInt(c, "page", 1), queryInt(c, "size", 20))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{
		"total":     res.Total,
		"operators": res.Operators,
	})
}

// POST /api/operators
func (oc *OperatorController) Create(c *app.Ctx) {
	var in db.CreateOperatorInput
	if !bindJSON(c, &in) {
		return
	}
	op, err := oc.Repo.CreateOperator(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	logs.Logger.WithField("by", app.Operator(c)).WithField("operator", op.Username).Info("operator created")
	c.JSON(http.StatusCreated, op)
}

type passwordReq struct {
	Password string `json:"password"`
}

// PUT /api/operators/:id/password
func (oc *OperatorController) SetPassword(c *app.Ctx) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in passwordReq
	if !bindJSON(c, &in) {
		return
	}
	if err := oc.Repo.SetOperatorPassword(c.Request.Context(), id, in.Password); err != nil {
		fail(c, err)
		return
	}
	_ = oc.AppSess.RevokeAllForOperator(c.Request.Context(), id)
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// DELETE /api/operators/:id
func (oc *OperatorController) Delete(c *app.Ctx) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := oc.Repo.DeleteOperator(c.Request.Context(), id, app.OperatorID(c)); err != nil {
		fail(c, err)
		return
	}
	// the operator's open sessions die with it
	_ = oc.AppSess.RevokeAllForOperator(c.Request.Context(), id)
	c.JSON(http.StatusOK, app.H{"ok": true})
}
