package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	intconfig "estatehub/internal/config"
	"estatehub/internal/db"
	router "estatehub/internal/http"
	"estatehub/internal/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	env := intconfig.LoadEnv()
	log := utils.SetupLogger(os.Stdout, env.LogLevel)
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}
	if err := env.Validate(); err != nil {
		log.Error("refusing to start", "err", err, "gin_mode", env.GinMode)
		os.Exit(1)
	}

	if _, err := intconfig.ConnectDB(env.DBDSN); err != nil {
		log.Error("database connection failed", "err", err)
		os.Exit(1)
	}
	defer intconfig.CloseDB()

	if env.DBAutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := db.EnsureSchema(ctx, intconfig.DB)
		cancel()
		if err != nil {
			log.Error("schema migration failed", "err", err)
			intconfig.CloseDB()
			os.Exit(1)
		}
		log.Info("schema ready", "tables", db.Tables())
	}

	r := router.NewRouter(env)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		log.Error("server failed", "err", err)
		intconfig.CloseDB()
		os.Exit(1)
	}

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown failed", "err", err)
		return
	}

	log.Info("server stopped")
}
