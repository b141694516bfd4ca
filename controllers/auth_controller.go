package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"Gin_postgres_redis_inventory/app"
	"Gin_postgres_redis_inventory/db"
	"Gin_postgres_redis_inventory/logs"
)

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// POST /api/login
func (s *Srv) Login(c *app.Ctx) {
	var in loginReq
	if !bindJSON(c, &in) {
		return
	}
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		badRequest(c, "Informe usuário e senha.")
		return
	}
	ctx := c.Request.Context()

	blocked, err := s.Limiter.Blocked(ctx, in.Username)
	if err != nil {
		logs.Logger.WithError(err).Warn("login limiter unavailable")
	}
	if blocked {
		c.JSON(http.StatusTooManyRequests, app.H{"error": "Muitas tentativas. Aguarde alguns minutos."})
		return
	}

	op, err := s.Repo.Authenticate(ctx, in.Username, in.Password)
	if errors.Is(err, db.ErrInvalidCredentials) {
		if ferr := s.Limiter.Fail(ctx, in.Username); ferr != nil {
			logs.Logger.WithError(ferr).Warn("login limiter unavailable")
		}
		c.JSON(http.StatusUnauthorized, app.H{"error": "Usuário ou senha inválidos."})
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	_ = s.Limiter.Reset(ctx, in.Username)

	if err := s.issueSession(ctx, c.Writer, op, c.ClientIP()); err != nil {
		logs.Logger.WithError(err).Error("create session")
		c.JSON(http.StatusInternalServerError, app.H{"error": "Não foi possível iniciar a sessão."})
		return
	}
	logs.Logger.WithField("operator", op.Username).Info("login")
	c.JSON(http.StatusOK, app.H{"operator": op})
}

// POST /api/logout
func (s *Srv) Logout(c *app.Ctx) {
	if ck, err := c.Request.Cookie(app.AppSessionCookie); err == nil && ck.Value != "" {
		_ = s.AppSess.Delete(c.Request.Context(), ck.Value)
	}
	s.setAppCookie(c.Writer, "", -time.Second)
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /api/whoami
func (s *Srv) WhoAmI(c *app.Ctx) {
	role := app.RoleOf(c)
	c.JSON(http.StatusOK, app.H{
		"id":       app.OperatorID(c),
		"username": app.Operator(c),
		"role":     role,
		"permissions": app.H{
			"delete":       role.CanDelete(),
			"history":      role.CanReadHistory(),
			"reverse":      role.CanReverse(),
			"manage_users": role.CanManageUsers(),
		},
	})
}
