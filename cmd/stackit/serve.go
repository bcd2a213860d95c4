package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emilythestrangee/stackit/backend/internal/config"
	"github.com/emilythestrangee/stackit/backend/internal/database"
	"github.com/emilythestrangee/stackit/backend/internal/logging"
	"github.com/emilythestrangee/stackit/backend/internal/server"
	"github.com/emilythestrangee/stackit/backend/internal/store"
	"github.com/emilythestrangee/stackit/backend/internal/store/memstore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		st     store.Store
		health server.HealthFunc
	)
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("Using in-memory store; data is lost on exit")
		st = memstore.New()
	default:
		if cfg.Database.AutoMigrate {
			if err := database.RunMigrations(cfg.Database.DSN(), logger); err != nil {
				return err
			}
		}
		db, err := database.Open(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		st = db.Store()
		health = db.Health
	}

	srv := server.New(cfg, logger, st, health).HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server exited")
	return nil
}
