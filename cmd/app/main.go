package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/osse101/BrickManager_Go/internal/bootstrap"
	"github.com/osse101/BrickManager_Go/internal/catalogsync"
	"github.com/osse101/BrickManager_Go/internal/config"
	"github.com/osse101/BrickManager_Go/internal/event"
	"github.com/osse101/BrickManager_Go/internal/imagecache"
	"github.com/osse101/BrickManager_Go/internal/inventory"
	"github.com/osse101/BrickManager_Go/internal/listpush"
	"github.com/osse101/BrickManager_Go/internal/rebrickable"
	"github.com/osse101/BrickManager_Go/internal/reconcile"
	"github.com/osse101/BrickManager_Go/internal/server"
	"github.com/osse101/BrickManager_Go/internal/storage"
	"github.com/osse101/BrickManager_Go/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	initLogger(cfg)

	slog.Info("Starting BrickManager",
		"environment", cfg.Environment,
		"version", cfg.Version,
		"backend", cfg.StorageBackend,
		"port", cfg.Port)
	for _, w := range cfg.Warnings() {
		slog.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := bootstrap.InitializeStores(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize stores", "error", err)
		os.Exit(1)
	}

	bus := event.NewMemoryBus()
	bootstrap.RegisterEventHandlers(bus)

	fetcher := rebrickable.NewClient(rebrickable.Config{
		BaseURL:   cfg.RebrickableBaseURL,
		APIKey:    cfg.RebrickableAPIKey,
		UsersURL:  cfg.RebrickableUsersURL,
		UserToken: cfg.RebrickableUserToken,
		PageSize:  cfg.RebrickablePageSize,
		RPS:       cfg.RebrickableRPS,
	})
	engine := catalogsync.NewEngine(stores.Catalog, stores.SyncState, fetcher, bus, catalogsync.Config{
		PageTimeout: cfg.SyncPageTimeout,
	})
	runner := catalogsync.NewRunner(engine, stores.Catalog, cfg.SyncWorkers)

	images := imagecache.New(imagecache.Config{
		Dir:      cfg.ImageCacheDir,
		Fallback: cfg.ImageFallback,
	})

	inv := inventory.NewService(stores.Catalog, stores.SyncState, stores.Inventory, runner, bus)
	missing := reconcile.NewService(stores.Inventory, stores.Storage, images)

	srv := server.NewServer(server.Options{
		Port:    cfg.Port,
		APIKey:  cfg.APIKey,
		Version: cfg.Version,
	}, server.Dependencies{
		DB:        stores.HealthPool(),
		Syncer:    engine,
		SyncState: stores.SyncState,
		Inventory: inv,
		Reconcile: missing,
		Storage:   storage.NewService(stores.Storage, stores.Catalog, bus, images),
		Push:      listpush.NewService(fetcher, missing, inv, bus),
		ImageDir:  images.Dir(),
	})

	var startupSync *worker.StartupSyncWorker
	if cfg.SyncOnStart {
		startupSync = worker.NewStartupSyncWorker(runner)
		startupSync.Start(ctx)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			slog.Error("Server failed", "error", err)
			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	bootstrap.GracefulShutdown(shutdownCtx, bootstrap.ShutdownComponents{
		Server:      srv,
		StartupSync: startupSync,
		Stores:      stores,
	})

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
