package catalogsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/osse101/BrickManager_Go/internal/concurrency"
	"github.com/osse101/BrickManager_Go/internal/domain"
	"github.com/osse101/BrickManager_Go/internal/event"
	"github.com/osse101/BrickManager_Go/internal/logger"
	"github.com/osse101/BrickManager_Go/internal/metrics"
	"github.com/osse101/BrickManager_Go/internal/repository"
)

// PageFetcher yields pages of raw records for one kind. An empty cursor asks
// for the first page; a page with an empty NextCursor is the last one.
type PageFetcher interface {
	FetchPage(ctx context.Context, kind domain.EntityKind, scope, cursor string) (domain.Page, error)
}

// Engine pulls catalog pages and upserts them, one committed page at a time
type Engine struct {
	catalog     repository.Catalog
	state       repository.SyncState
	fetcher     PageFetcher
	bus         event.Bus
	locks       *concurrency.LockManager
	mapper      *Mapper
	pageTimeout time.Duration
	now         func() time.Time
}

// Config holds engine tuning
type Config struct {
	// PageTimeout bounds each page fetch; zero uses DefaultPageTimeout
	PageTimeout time.Duration
}

// NewEngine creates a sync engine. bus may be nil.
func NewEngine(catalog repository.Catalog, state repository.SyncState, fetcher PageFetcher, bus event.Bus, cfg Config) *Engine {
	timeout := cfg.PageTimeout
	if timeout <= 0 {
		timeout = DefaultPageTimeout
	}
	return &Engine{
		catalog:     catalog,
		state:       state,
		fetcher:     fetcher,
		bus:         bus,
		locks:       concurrency.NewLockManager(),
		mapper:      NewMapper(),
		pageTimeout: timeout,
		now:         time.Now,
	}
}

// Sync runs one sync call with the engine's default fetcher
func (e *Engine) Sync(ctx context.Context, req domain.SyncRequest) (domain.SyncResult, error) {
	return e.SyncWith(ctx, req, e.fetcher)
}

// SyncWith pulls pages from fetcher until it is exhausted or fails.
//
// Malformed records and rejected upserts land in FailedIDs. A fetch failure
// stops the call with TransportError and ResumableCursor set; pages already
// committed stay committed. The returned error is reserved for invalid
// requests, store failures and cancellation of ctx.
func (e *Engine) SyncWith(ctx context.Context, req domain.SyncRequest, fetcher PageFetcher) (domain.SyncResult, error) {
	result := domain.SyncResult{Kind: req.Kind, Scope: req.Scope, FailedIDs: []string{}}
	if err := validateRequest(req); err != nil {
		return result, err
	}

	// Writes to one kind/scope are serialized; independent kinds run in parallel
	unlock := e.locks.Lock(concurrency.SyncKey(string(req.Kind), req.Scope))
	defer unlock()

	log := logger.FromContext(ctx).With(logger.AttrKeyKind, req.Kind, logger.AttrKeyScope, req.Scope)
	start := e.now()

	cursor, err := e.startCursor(ctx, req)
	if err != nil {
		return result, err
	}
	if cursor != "" {
		log.Info(LogMsgSyncResumed, logger.AttrKeyCursor, cursor)
	} else {
		log.Info(LogMsgSyncStarted)
	}

	var runErr error
	for {
		page, err := e.fetch(ctx, fetcher, req.Kind, req.Scope, cursor)
		if err != nil {
			result.TransportError = err.Error()
			result.ResumableCursor = cursor
			log.Warn(LogMsgTransportFailure, logger.AttrKeyCursor, cursor, "error", err)
			if ctxErr := ctx.Err(); ctxErr != nil {
				runErr = ctxErr
			}
			break
		}

		if err := e.commitPage(ctx, &result, page, cursor); err != nil {
			result.ResumableCursor = cursor
			runErr = err
			break
		}
		result.Pages++
		log.Debug(LogMsgPageCommitted, "page", result.Pages, "records", len(page.Records), "next_cursor", page.NextCursor)

		if page.Done() {
			result.Completed = true
			break
		}
		cursor = page.NextCursor
	}

	e.finish(ctx, result, start)
	log.Info(LogMsgSyncFinished,
		"pages", result.Pages,
		"inserted", result.Inserted,
		"updated", result.Updated,
		"unchanged", result.Unchanged,
		"failed", result.Failed(),
		"completed", result.Completed)
	return result, runErr
}

func validateRequest(req domain.SyncRequest) error {
	if !req.Kind.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidKind, req.Kind)
	}
	if req.Kind.Scoped() && req.Scope == "" {
		return domain.ErrMissingScope
	}
	if !req.Kind.Scoped() && req.Scope != "" {
		return fmt.Errorf("%w: %s", domain.ErrValidation, ErrMsgUnscopedKindWithScope)
	}
	return nil
}

// startCursor picks where the run begins: an explicit cursor, else the
// checkpoint of an unfinished run, else the first page
func (e *Engine) startCursor(ctx context.Context, req domain.SyncRequest) (string, error) {
	if req.Restart {
		if err := e.state.ClearCheckpoint(ctx, req.Kind, req.Scope); err != nil {
			return "", err
		}
		return req.Cursor, nil
	}
	if req.Cursor != "" {
		return req.Cursor, nil
	}
	st, err := e.state.GetSyncState(ctx, req.Kind, req.Scope)
	if err != nil {
		return "", err
	}
	if st == nil || st.Completed {
		return "", nil
	}
	return st.Cursor, nil
}

type fetchResult struct {
	page domain.Page
	err  error
}

// fetch bounds one page request by the page timeout, even for fetchers that
// ignore their context
func (e *Engine) fetch(ctx context.Context, fetcher PageFetcher, kind domain.EntityKind, scope, cursor string) (domain.Page, error) {
	pageCtx, cancel := context.WithTimeout(ctx, e.pageTimeout)
	defer cancel()

	done := make(chan fetchResult, 1)
	go func() {
		page, err := fetcher.FetchPage(pageCtx, kind, scope, cursor)
		done <- fetchResult{page: page, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return domain.Page{}, fmt.Errorf(ErrMsgFetchFailed, kind, cursor, wrapTransport(res.err))
		}
		return res.page, nil
	case <-pageCtx.Done():
		err := pageCtx.Err()
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%w: "+ErrMsgFetchTimedOut, domain.ErrTransport, e.pageTimeout)
		}
		return domain.Page{}, fmt.Errorf(ErrMsgFetchFailed, kind, cursor, err)
	}
}

func wrapTransport(err error) error {
	if errors.Is(err, domain.ErrTransport) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrTransport, err)
}

// commitPage maps the page and applies it with its continuation cursor in
// one store batch. Colors and parts embedded in composition rows go first so
// the rows that reference them resolve; they are not counted in the result.
func (e *Engine) commitPage(ctx context.Context, result *domain.SyncResult, page domain.Page, cursor string) error {
	log := logger.FromContext(ctx)
	entities := make([]domain.CatalogEntity, 0, len(page.Records))
	var colors, parts []domain.CatalogEntity
	seen := make(map[string]struct{})
	addDeps := func(dst *[]domain.CatalogEntity, deps []domain.CatalogEntity) {
		for _, dep := range deps {
			key := string(dep.Kind()) + ":" + dep.ExternalID()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			*dst = append(*dst, dep)
		}
	}

	for i, raw := range page.Records {
		entity, err := e.mapper.Map(result.Kind, result.Scope, raw)
		if err != nil {
			id := RecordID(result.Kind, result.Scope, raw, result.Pages+1, i)
			log.Warn(LogMsgRecordRejected, logger.AttrKeyKind, result.Kind, "id", id, "error", err)
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}
		embeddedColors, embeddedParts := e.mapper.Embedded(result.Kind, raw)
		addDeps(&colors, embeddedColors)
		addDeps(&parts, embeddedParts)
		entities = append(entities, entity)
	}

	deps := len(colors) + len(parts)
	batch := make([]domain.CatalogEntity, 0, deps+len(entities))
	batch = append(batch, colors...)
	batch = append(batch, parts...)
	batch = append(batch, entities...)

	outcomes, err := e.catalog.ApplyBatch(ctx, domain.SyncBatch{
		Kind:       result.Kind,
		Scope:      result.Scope,
		Entities:   batch,
		NextCursor: page.NextCursor,
	})
	if err != nil {
		return fmt.Errorf(ErrMsgApplyBatchFailed, result.Kind, err)
	}

	for i, o := range outcomes {
		if i < deps {
			if o.Outcome == domain.OutcomeFailed {
				log.Warn(LogMsgEmbeddedRejected, logger.AttrKeyKind, result.Kind, "id", o.ExternalID, "error", o.Err)
			}
			continue
		}
		switch o.Outcome {
		case domain.OutcomeInserted:
			result.Inserted++
		case domain.OutcomeUpdated:
			result.Updated++
		case domain.OutcomeUnchanged:
			result.Unchanged++
		default:
			log.Warn(LogMsgRecordRejected, logger.AttrKeyKind, result.Kind, "id", o.ExternalID, "error", o.Err)
			result.FailedIDs = append(result.FailedIDs, o.ExternalID)
		}
	}
	return nil
}

// finish records the run counters, metrics and the completion event
func (e *Engine) finish(ctx context.Context, result domain.SyncResult, start time.Time) {
	log := logger.FromContext(ctx)

	// Counters survive a cancelled caller
	recordCtx := context.WithoutCancel(ctx)
	err := e.state.RecordSyncRun(recordCtx, domain.SyncState{
		Kind:         result.Kind,
		Scope:        result.Scope,
		Inserted:     result.Inserted,
		Updated:      result.Updated,
		Failed:       result.Failed(),
		Completed:    result.Completed,
		LastSyncTime: e.now(),
	})
	if err != nil {
		log.Error(LogMsgFailedToRecordRun, logger.AttrKeyKind, result.Kind, "error", err)
	}

	metrics.SyncDuration.WithLabelValues(string(result.Kind)).Observe(e.now().Sub(start).Seconds())

	if e.bus != nil {
		if err := e.bus.Publish(recordCtx, event.NewSyncFinishedEvent(result)); err != nil {
			log.Warn(LogMsgFailedToPublishEvent, "error", err)
		}
	}
}
