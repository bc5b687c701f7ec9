// Package main is the entry point for the locker grid server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/MRamiBalles/LockerGrid/server/internal/events"
	"github.com/MRamiBalles/LockerGrid/server/internal/grid"
	"github.com/MRamiBalles/LockerGrid/server/internal/infra/storage"
	"github.com/MRamiBalles/LockerGrid/server/internal/network"
	"github.com/MRamiBalles/LockerGrid/server/internal/platform/config"
	"github.com/MRamiBalles/LockerGrid/server/internal/platform/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.NewLogger().Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(logger.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	if err := run(cfg, appLogger); err != nil {
		appLogger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, appLogger *logger.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	appLogger.Info("Opening store", "driver", cfg.Store.Driver, "path", cfg.Store.Path)
	opened, err := storage.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer opened.Store.Close()

	var persister events.EventPersister
	var recap *storage.Reconstructor
	if opened.Events != nil {
		persister = storage.NewEventWriter(opened.Events)
		recap = storage.NewReconstructor(opened.Events)
	}

	appLogger.Info("Bootstrapping EventLog...")
	eventLog := events.NewEventLogWithRetention(persister, cfg.Tuning.EventRetention)

	manager := grid.NewManager(opened.Store, cfg.Store.Key, eventLog, appLogger)
	if err := restoreOrRebuild(ctx, manager, recap, appLogger); err != nil {
		return err
	}

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(manager, appLogger, cfg.Tuning)
	go hub.Run(ctx)
	hub.StartEventPoller(ctx, eventLog)

	api := &network.API{
		Manager:  manager,
		Hub:      hub,
		EventLog: eventLog,
		Recap:    recap,
		Logger:   appLogger,
	}
	srv := &http.Server{Addr: cfg.Addr, Handler: api.Handler()}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info("HTTP API & WS Server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Tuning.ShutdownTimeout)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}

// restoreOrRebuild adopts the saved snapshot. When the snapshot is gone but
// history survived, the grid is replayed from history and saved back.
func restoreOrRebuild(ctx context.Context, manager *grid.Manager, recap *storage.Reconstructor, appLogger *logger.Logger) error {
	found, err := manager.Restore(ctx)
	if err != nil {
		return err
	}
	if found || recap == nil {
		return nil
	}

	g, err := recap.Rebuild(ctx)
	if err != nil {
		appLogger.Warn("Failed to rebuild grid from history", "error", err)
		return nil
	}
	if g == nil {
		return nil
	}
	if err := manager.Save(ctx, g); err != nil {
		appLogger.Error("Failed to save rebuilt grid, starting without one", "error", err)
		return nil
	}

	restored, err := manager.Restore(ctx)
	if err != nil {
		return fmt.Errorf("reload rebuilt grid: %w", err)
	}
	if !restored {
		appLogger.Warn("Rebuilt grid was saved but could not be reloaded")
		return nil
	}
	appLogger.Info("Rebuilt grid from history", "rows", g.Rows, "columns", g.Columns)
	return nil
}
