package app

import (
	"net/http"

	"Gin_postgres_redis_inventory/db"
	"Gin_postgres_redis_inventory/models"
	"Gin_postgres_redis_inventory/session"

	"github.com/gin-gonic/gin"
)

const AppSessionCookie = "inv_session"

// context keys set by AuthRequired
const (
	CtxOperatorID = "operatorID"
	CtxUsername   = "username"
	CtxRole       = "role"
)

func AuthRequired(appSess *session.AppSessionStore, repo *db.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		ck, err := c.Request.Cookie(AppSessionCookie)
		if err != nil || ck.Value == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "Sessão expirada. Faça login novamente."})
			return
		}
		as, err := appSess.Get(c.Request.Context(), ck.Value)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "Sessão expirada. Faça login novamente."})
			return
		}

		// the operator may have been removed since login; the role is read
		// fresh on every request
		op, err := repo.FindOperatorByID(c.Request.Context(), as.OperatorID)
		if err != nil {
			_ = appSess.Delete(c.Request.Context(), ck.Value)
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "Sessão expirada. Faça login novamente."})
			return
		}
		c.Set(CtxOperatorID, op.ID)
		c.Set(CtxUsername, op.Username)
		c.Set(CtxRole, op.Role)

		c.Next()
	}
}

// RoleOf returns the role AuthRequired stored.
func RoleOf(c *gin.Context) models.Role {
	v, _ := c.Get(CtxRole)
	r, _ := v.(models.Role)
	return r
}

// Operator returns the username AuthRequired stored.
func Operator(c *gin.Context) string {
	return c.GetString(CtxUsername)
}

func OperatorID(c *gin.Context) uint {
	return c.GetUint(CtxOperatorID)
}

// RequireRole lets the request through when allowed(role) holds.
func RequireRole(allowed func(models.Role) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !allowed(RoleOf(c)) {
			c.AbortWithStatusJSON(http.StatusForbidden, H{"error": "Seu perfil não tem permissão para esta operação."})
			return
		}
		c.Next()
	}
}
