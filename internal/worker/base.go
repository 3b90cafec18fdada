package worker

import (
	"context"
	"sync"

	"github.com/osse101/BrickManager_Go/internal/logger"
)

// BaseWorker provides shutdown bookkeeping for background workers
type BaseWorker struct {
	mu       sync.Mutex
	cancel   context.CancelFunc
	shutdown chan struct{}
	wg       sync.WaitGroup
}

func (w *BaseWorker) init() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.shutdown == nil {
		w.shutdown = make(chan struct{})
	}
}

// run executes fn on its own goroutine with a context cancelled at shutdown
func (w *BaseWorker) run(ctx context.Context, fn func(ctx context.Context)) {
	w.init()
	runCtx, cancel := context.WithCancel(ctx)

	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer cancel()
		fn(runCtx)
	}()
}

func (w *BaseWorker) shutdownInternal(ctx context.Context, workerName string) error {
	w.init()
	log := logger.FromContext(ctx)
	log.Info("Shutting down " + workerName)

	w.mu.Lock()
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Unlock()

	// Wait for in-flight executions
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info(workerName + " shutdown complete")
		return nil
	case <-ctx.Done():
		log.Warn(workerName + " shutdown timeout")
		return ctx.Err()
	}
}
