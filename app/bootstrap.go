package app

import (
	"context"

	"Gin_postgres_redis_inventory/logs"
)

// BootstrapFirstGestor makes sure somebody can log in on a fresh database.
func BootstrapFirstGestor(ctx context.Context, a *App) {
	b := a.Config.Bootstrap
	if b.Username == "" {
		return
	}
	op, err := a.Repo.EnsureDefaultOperator(ctx, b.Username, b.Password)
	if err != nil {
		logs.Logger.WithError(err).Error("bootstrap gestor failed")
		return
	}
	if op != nil {
		logs.Logger.WithField("username", op.Username).Info("bootstrap gestor created; change its password")
	}
}
