package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Gin_postgres_redis_inventory/app"
	"Gin_postgres_redis_inventory/logs"
	"Gin_postgres_redis_inventory/routes"
)

func main() {
	application := app.MustNew()
	defer application.Close()

	app.BootstrapFirstGestor(context.Background(), application)
	routes.RegisterRoutes(application.Router, application)

	srv := &http.Server{
		Addr:              application.Addr(),
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logs.Logger.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logs.Logger.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logs.Logger.WithError(err).Error("shutdown")
	}
	logs.Logger.Info("server stopped")
}
