package app

import (
	"context"
	"log/slog"
	"net/http"

	"gorm.io/gorm"

	"creator-marketplace-service/internal/config"
	"creator-marketplace-service/internal/database"
	"creator-marketplace-service/internal/service"
)

type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Server  *http.Server
	DB      *gorm.DB
	Sweeper *service.SessionSweeper
}

func New(cfg *config.Config, logger *slog.Logger, server *http.Server, db *gorm.DB, sweeper *service.SessionSweeper) *App {
	return &App{Config: cfg, Logger: logger, Server: server, DB: db, Sweeper: sweeper}
}

// Start migrates the schema, launches the background session sweeper and
// serves HTTP. It returns when the listener stops.
func (a *App) Start(ctx context.Context) error {
	if err := database.Migrate(a.DB); err != nil {
		return err
	}
	go a.Sweeper.Run(ctx)

	a.Logger.Info("server starting", "addr", a.Server.Addr, "env", a.Config.Env)
	if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	return a.Server.Shutdown(ctx)
}
