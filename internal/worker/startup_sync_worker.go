package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/osse101/BrickManager_Go/internal/domain"
	"github.com/osse101/BrickManager_Go/internal/logger"
)

// CatalogRunner runs the dependency-ordered catalog sync
type CatalogRunner interface {
	RunAll(ctx context.Context) ([]domain.SyncResult, error)
}

// StartupSyncWorker runs one catalog sync when the service boots
type StartupSyncWorker struct {
	BaseWorker
	runner CatalogRunner

	resultMu sync.Mutex
	results  []domain.SyncResult
	err      error
}

// NewStartupSyncWorker creates a worker around runner
func NewStartupSyncWorker(runner CatalogRunner) *StartupSyncWorker {
	return &StartupSyncWorker{runner: runner}
}

// Start launches the sync in the background and returns immediately
func (w *StartupSyncWorker) Start(ctx context.Context) {
	w.run(ctx, w.execute)
}

func (w *StartupSyncWorker) execute(ctx context.Context) {
	log := logger.FromContext(ctx)
	log.Info(LogMsgStartupSyncStarting)

	results, err := w.runner.RunAll(ctx)

	w.resultMu.Lock()
	w.results, w.err = results, err
	w.resultMu.Unlock()

	switch {
	case errors.Is(err, context.Canceled):
		log.Warn(LogMsgStartupSyncStopped, "kinds_done", len(results))
	case err != nil:
		log.Error(LogMsgStartupSyncFailed, "error", err, "kinds_done", len(results))
	default:
		log.Info(LogMsgStartupSyncCompleted, "kinds", len(results))
	}
}

// Result returns the report of the finished run, if any
func (w *StartupSyncWorker) Result() ([]domain.SyncResult, error) {
	w.resultMu.Lock()
	defer w.resultMu.Unlock()
	return w.results, w.err
}

// Shutdown cancels a running sync and waits for it to stop
func (w *StartupSyncWorker) Shutdown(ctx context.Context) error {
	return w.shutdownInternal(ctx, "startup sync worker")
}
