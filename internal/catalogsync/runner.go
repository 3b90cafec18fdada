package catalogsync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/osse101/BrickManager_Go/internal/domain"
	"github.com/osse101/BrickManager_Go/internal/logger"
	"github.com/osse101/BrickManager_Go/internal/repository"
	"github.com/osse101/BrickManager_Go/internal/worker"
)

// Stage is a group of sync requests with no dependencies between them
type Stage []domain.SyncRequest

// ErrStageIncomplete means a stage ended with a failed or partial run, so
// the stages depending on it were not started
var ErrStageIncomplete = errors.New("sync stage incomplete")

// DefaultPlan returns the unscoped kinds in dependency order. Compositions
// are scoped per parent and are synced on demand.
func DefaultPlan() []Stage {
	return []Stage{
		{{Kind: domain.KindColors}, {Kind: domain.KindPartCategories}, {Kind: domain.KindThemes}},
		{{Kind: domain.KindSets}, {Kind: domain.KindParts}},
		{{Kind: domain.KindMinifigs}},
	}
}

// Syncer is the engine contract the runner drives
type Syncer interface {
	Sync(ctx context.Context, req domain.SyncRequest) (domain.SyncResult, error)
}

// Runner executes staged sync plans on a worker pool
type Runner struct {
	engine  Syncer
	catalog repository.Catalog
	workers int
}

// NewRunner creates a runner running up to workers syncs at once
func NewRunner(engine Syncer, catalog repository.Catalog, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{engine: engine, catalog: catalog, workers: workers}
}

// RunAll syncs every unscoped kind
func (r *Runner) RunAll(ctx context.Context) ([]domain.SyncResult, error) {
	return r.RunStages(ctx, DefaultPlan())
}

// RunStages runs each stage's requests concurrently and starts a stage only
// after the previous one completed. Results are in plan order.
func (r *Runner) RunStages(ctx context.Context, stages []Stage) ([]domain.SyncResult, error) {
	log := logger.FromContext(ctx)
	pool := worker.NewPool(r.workers, r.workers)
	pool.Start(ctx)
	defer pool.Stop()

	var all []domain.SyncResult
	for i, stage := range stages {
		log.Info(LogMsgStageStarted, "stage", i+1, "kinds", len(stage))

		results, err := r.runStage(ctx, pool, stage)
		all = append(all, results...)
		if err != nil {
			log.Warn(LogMsgStageIncomplete, "stage", i+1, "error", err)
			return all, fmt.Errorf("%w: "+ErrMsgStageIncomplete+": %w", ErrStageIncomplete, i+1, err)
		}
	}
	return all, nil
}

func (r *Runner) runStage(ctx context.Context, pool *worker.Pool, stage Stage) ([]domain.SyncResult, error) {
	results := make([]domain.SyncResult, len(stage))
	errs := make([]error, len(stage))

	var wg sync.WaitGroup
	for i, req := range stage {
		wg.Add(1)
		job := worker.JobFunc(func(jobCtx context.Context) error {
			defer wg.Done()
			results[i], errs[i] = r.engine.Sync(jobCtx, req)
			return errs[i]
		})
		if err := pool.Enqueue(ctx, job); err != nil {
			wg.Done()
			errs[i] = err
			results[i] = domain.SyncResult{Kind: req.Kind, Scope: req.Scope, FailedIDs: []string{}}
		}
	}
	wg.Wait()

	for i, res := range results {
		if errs[i] != nil {
			return results, errs[i]
		}
		if res.TransportError != "" {
			return results, fmt.Errorf("%w: %s", domain.ErrTransport, res.TransportError)
		}
		if !res.Completed {
			return results, fmt.Errorf("%s did not complete", res.Kind)
		}
	}
	return results, nil
}

// SyncSetTemplate fetches everything needed to register a set: its part and
// minifigure lists, then each minifigure's composition
func (r *Runner) SyncSetTemplate(ctx context.Context, setNum string) ([]domain.SyncResult, error) {
	results, err := r.RunStages(ctx, []Stage{{
		{Kind: domain.KindSetParts, Scope: setNum},
		{Kind: domain.KindSetMinifigs, Scope: setNum},
	}})
	if err != nil {
		return results, err
	}

	figs, err := r.catalog.ListSetMinifigs(ctx, setNum)
	if err != nil {
		return results, err
	}
	if len(figs) > 0 {
		stage := make(Stage, 0, len(figs))
		for _, fig := range figs {
			stage = append(stage, domain.SyncRequest{Kind: domain.KindMinifigParts, Scope: fig.FigNum})
		}
		more, err := r.RunStages(ctx, []Stage{stage})
		results = append(results, more...)
		if err != nil {
			return results, err
		}
	}

	logger.FromContext(ctx).Info(LogMsgTemplateSynced, logger.AttrKeySetNum, setNum, "minifigs", len(figs))
	return results, nil
}
