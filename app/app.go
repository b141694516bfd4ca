package app

import (
	"context"
	"fmt"
	"time"

	"Gin_postgres_redis_inventory/config"
	"Gin_postgres_redis_inventory/db"
	"Gin_postgres_redis_inventory/logs"
	"Gin_postgres_redis_inventory/session"
	"Gin_postgres_redis_inventory/storage"
	"Gin_postgres_redis_inventory/term"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// short aliases for handlers
type Ctx = gin.Context
type H = gin.H

// App holds the dependencies shared by the handlers.
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	Repo   *db.Repo
	Store  storage.Store
	Config *config.Config

	appSess *session.AppSessionStore
	limiter *session.LoginLimiter
}

func (a *App) AppSessions() *session.AppSessionStore { return a.appSess }
func (a *App) LoginLimiter() *session.LoginLimiter   { return a.limiter }

// MustNew loads the configuration and connects everything; any failure is
// fatal.
func MustNew() *App {
	cfg := config.MustLoad()
	logs.Init(logs.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, File: cfg.Logging.File})
	if cfg.Logging.Level != "debug" && cfg.Logging.Level != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}

	dbConn, err := db.ConnectDB(cfg)
	if err != nil {
		logs.Logger.Fatalf("db: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logs.Logger.Fatalf("redis: %v", err)
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		logs.Logger.Fatalf("storage: %v", err)
	}

	a, err := New(cfg, dbConn, rdb, store)
	if err != nil {
		logs.Logger.Fatalf("app: %v", err)
	}
	return a
}

// New wires an App from already opened connections.
func New(cfg *config.Config, dbConn *gorm.DB, rdb *redis.Client, store storage.Store) (*App, error) {
	if cfg == nil || dbConn == nil || rdb == nil || store == nil {
		return nil, fmt.Errorf("app: missing dependency")
	}
	renderer := term.NewDocxRenderer(cfg.Terms.OutputDir, cfg.Terms.Templates, cfg.Terms.ReturnTemplates)
	repo := db.NewRepo(dbConn,
		db.WithLocation(cfg.Location()),
		db.WithTermRenderer(renderer),
	)

	r := gin.New()
	r.Use(RequestID(), RequestLogger(), gin.Recovery())
	useCORS(r, cfg.Server.WebOrigin, cfg.Server.CORSOrigins)

	return &App{
		Router:  r,
		DB:      dbConn,
		RDB:     rdb,
		Repo:    repo,
		Store:   store,
		Config:  cfg,
		appSess: session.NewAppSessionStore(rdb, cfg.Session.TTL),
		limiter: session.NewLoginLimiter(rdb, cfg.Session.LoginAttempts, cfg.Session.LoginWindow),
	}, nil
}

func (a *App) Close() {
	_ = a.RDB.Close()
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Addr is the listen address from server.address and server.http_port.
func (a *App) Addr() string {
	return a.Config.Server.Address + ":" + a.Config.Server.HTTPPort
}
