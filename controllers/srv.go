package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"Gin_postgres_redis_inventory/app"
	"Gin_postgres_redis_inventory/apperr"
	"Gin_postgres_redis_inventory/db"
	"Gin_postgres_redis_inventory/logs"
	"Gin_postgres_redis_inventory/models"
	"Gin_postgres_redis_inventory/session"
	"Gin_postgres_redis_inventory/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Srv struct {
	Repo      *db.Repo
	Store     storage.Store
	AppSess   *session.AppSessionStore
	Limiter   *session.LoginLimiter
	WebOrigin string
	Loc       *time.Location
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Repo:      a.Repo,
		Store:     a.Store,
		AppSess:   a.AppSessions(),
		Limiter:   a.LoginLimiter(),
		WebOrigin: a.Config.Server.WebOrigin,
		Loc:       a.Config.Location(),
	}
}

// --- helpers ---

// fail writes err as {"error": msg} with the status of its kind.
func fail(c *gin.Context, err error) {
	e := apperr.As(err)
	if e.Kind == apperr.KindInternal || e.Kind == apperr.KindIO {
		logs.Logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.JSON(e.Code(), app.H{"error": e.Msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, app.H{"error": msg})
}

// bindJSON decodes the body; a malformed body is a 400 with a readable
// message.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "Requisição inválida.")
		return false
	}
	return true
}

func paramID(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		badRequest(c, "Identificador inválido.")
		return 0, false
	}
	return uint(n), true
}

func queryInt(c *gin.Context, name string, def int) int {
	n, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return n
}

// upload stores the multipart "file" field under category and returns the
// stored reference, "" when no file was sent.
func (s *Srv) upload(c *gin.Context, category models.AttachmentCategory) (string, error) {
	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil
	}
	if err != nil {
		return "", apperr.Validation("Arquivo inválido.")
	}
	f, err := fh.Open()
	if err != nil {
		return "", apperr.IO(err, "Não foi possível ler o arquivo enviado.")
	}
	defer f.Close()
	ref, err := s.Store.Save(c.Request.Context(), f, fh.Filename, category)
	if err != nil {
		return "", apperr.IO(err, "Não foi possível salvar o anexo.")
	}
	return ref, nil
}

// readyFor checks that the item can take action before an upload is
// stored, so a refused step leaves no orphan attachment.
func (s *Srv) readyFor(c *gin.Context, id uint, action models.Action) bool {
	it, err := s.Repo.FindItem(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return false
	}
	if _, ok := models.NextStatus(action, it.Status); !ok {
		fail(c, apperr.State("Operação não permitida: o item está %s (esperado: %s).",
			it.Status, models.RequiredStatus(action)))
		return false
	}
	return true
}

// setAppCookie sets the login cookie.
func (s *Srv) setAppCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	secure := strings.HasPrefix(s.WebOrigin, "https://")
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		MaxAge:   int(maxAge / time.Second),
	})
}

// issueSession creates the session and records the login.
func (s *Srv) issueSession(ctx context.Context, w http.ResponseWriter, op *models.Operator, ip string) error {
	if err := s.Repo.TouchOperatorLogin(ctx, op.ID, ip); err != nil {
		logs.Logger.WithError(err).WithField("operator", op.Username).Warn("touch login")
	}
	id := uuid.NewString()
	if err := s.AppSess.Create(ctx, id, op.ID, op.Username); err != nil {
		return err
	}
	s.setAppCookie(w, id, s.AppSess.TTL())
	return nil
}
