package controllers

import (
	"net/http"
	"strconv"

	"Gin_postgres_redis_inventory/app"
	"Gin_postgres_redis_inventory/logs"
	"Gin_postgres_redis_inventory/models"
	"Gin_postgres_redis_inventory/report"
)

type ReportController struct{ *Srv }

func NewReportController(s *Srv) *ReportController { return &ReportController{Srv: s} }

func period(c *app.Ctx) (int, int, bool) {
	year, yerr := strconv.Atoi(c.Query("year"))
	month, merr := strconv.Atoi(c.Query("month"))
	if yerr != nil || merr != nil {
		badRequest(c, "Informe o ano e o mês.")
		return 0, 0, false
	}
	return year, month, true
}

// GET /api/reports/monthly?year=&month=
func (rc *ReportController) Monthly(c *app.Ctx) {
	year, month, ok := period(c)
	if !ok {
		return
	}
	rows, err := rc.Repo.MonthlyReport(c.Request.Context(), year, month)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"rows": rows, "total": len(rows)})
}

// GET /api/reports/monthly/export?year=&month=
func (rc *ReportController) Export(c *app.Ctx) {
	year, month, ok := period(c)
	if !ok {
		return
	}
	rows, err := rc.Repo.MonthlyReport(c.Request.Context(), year, month)
	if err != nil {
		fail(c, err)
		return
	}
	f, err := report.MonthlyWorkbook(rows, rc.Loc)
	if err != nil {
		fail(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+report.FileName(year, month)+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		logs.Logger.WithError(err).Error("write report")
	}
}

// GET /api/reports/daily?year=&month=&operation=
func (rc *ReportController) Daily(c *app.Ctx) {
	year, month, ok := period(c)
	if !ok {
		return
	}
	op := models.Operation(c.DefaultQuery("operation", string(models.OpEmprestimo)))
	counts, err := rc.Repo.DailyCounts(c.Request.Context(), year, month, op)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"operation": op, "counts": counts})
}
