package bootstrap

import (
	"context"
	"log/slog"

	"github.com/osse101/BrickManager_Go/internal/server"
	"github.com/osse101/BrickManager_Go/internal/worker"
)

// ShutdownComponents holds all components that need graceful shutdown
type ShutdownComponents struct {
	Server      *server.Server
	StartupSync *worker.StartupSyncWorker
	Stores      *Stores
}

// GracefulShutdown stops the HTTP server first so no new work arrives, then
// cancels a still running startup sync (its committed pages stay committed)
// and finally closes the stores.
//
// Errors during shutdown are logged but do not stop the shutdown sequence.
func GracefulShutdown(ctx context.Context, components ShutdownComponents) {
	slog.Info(LogMsgShuttingDownServer)

	if components.Server != nil {
		if err := components.Server.Stop(ctx); err != nil {
			slog.Error(LogMsgServerForcedShutdown, "error", err)
		}
	}

	if components.StartupSync != nil {
		if err := components.StartupSync.Shutdown(ctx); err != nil {
			slog.Error(LogMsgStartupSyncStopFailed, "error", err)
		}
	}

	if components.Stores != nil {
		components.Stores.Close()
	}

	slog.Info(LogMsgServerStopped)
}
