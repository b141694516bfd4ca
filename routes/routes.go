package routes

import (
	"net/http"

	"Gin_postgres_redis_inventory/app"
	"Gin_postgres_redis_inventory/controllers"
	"Gin_postgres_redis_inventory/models"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	s := controllers.GetSrv(a)
	itemCtl := controllers.NewItemController(s)
	loanCtl := controllers.NewLoanController(s)
	perCtl := controllers.NewPeripheralController(s)
	histCtl := controllers.NewHistoryController(s)
	repCtl := controllers.NewReportController(s)
	opCtl := controllers.NewOperatorController(s)

	authMW := app.AuthRequired(s.AppSess, s.Repo)
	seenMW := app.TouchLastSeen(s.Repo, a.RDB, a.Config.Session.SeenThrottle)
	canDelete := app.RequireRole(models.Role.CanDelete)
	canHistory := app.RequireRole(models.Role.CanReadHistory)
	canReverse := app.RequireRole(models.Role.CanReverse)
	canManage := app.RequireRole(models.Role.CanManageUsers)

	r.GET("/healthz", func(c *app.Ctx) { c.JSON(http.StatusOK, app.H{"ok": true}) })

	// ------------------------------
	// login
	// ------------------------------
	r.POST("/api/login", s.Login)
	r.POST("/api/logout", s.Logout)

	api := r.Group("/api", authMW, seenMW)
	api.GET("/whoami", s.WhoAmI)

	// ------------------------------
	// items and the loan cycle
	// ------------------------------
	items := api.Group("/items")
	{
		items.GET("", itemCtl.ListItems) // ?q=&tipo=&status=&revenda=
		items.POST("", itemCtl.CreateItem)
		items.GET("/:id", itemCtl.GetItem)
		items.PUT("/:id", itemCtl.UpdateItem)
		items.DELETE("/:id", canDelete, itemCtl.DeleteItem)

		items.POST("/:id/issue", loanCtl.Issue)
		items.GET("/:id/term", loanCtl.Term)
		items.POST("/:id/confirm-loan", loanCtl.ConfirmLoan)
		items.POST("/:id/return", loanCtl.InitiateReturn)
		items.POST("/:id/confirm-return", loanCtl.ConfirmReturn)

		items.GET("/:id/peripherals", perCtl.ListLinked)
		items.POST("/:id/peripherals", perCtl.Link)
		items.POST("/:id/peripherals/replace", perCtl.Replace)
	}
	api.DELETE("/links/:id", perCtl.Unlink)

	// ------------------------------
	// peripherals
	// ------------------------------
	peripherals := api.Group("/peripherals")
	{
		peripherals.GET("", perCtl.List)
		peripherals.POST("", perCtl.Create)
		peripherals.GET("/:id", perCtl.Get)
		peripherals.PUT("/:id", perCtl.Update)
		peripherals.DELETE("/:id", canDelete, perCtl.Delete)
	}

	// ------------------------------
	// history (Jovem Aprendiz has no access)
	// ------------------------------
	history := api.Group("/history", canHistory)
	{
		history.GET("", histCtl.List)
		history.GET("/:id", histCtl.Get)
		history.GET("/:id/term", histCtl.Term)
		history.POST("/:id/reverse", canReverse, histCtl.Reverse)
	}

	reports := api.Group("/reports")
	{
		reports.GET("/monthly", repCtl.Monthly)
		reports.GET("/monthly/export", repCtl.Export)
		reports.GET("/daily", repCtl.Daily)
	}

	// ------------------------------
	// operators (Gestor only)
	// ------------------------------
	operators := api.Group("/operators", canManage)
	{
		operators.GET("", opCtl.List)
		operators.POST("", opCtl.Create)
		operators.PUT("/:id/password", opCtl.SetPassword)
		operators.DELETE("/:id", opCtl.Delete)
	}
}
