package repository

import (
	"context"

	"github.com/osse101/BrickManager_Go/internal/domain"
)

// Catalog defines persistence for reference entities mirrored from the
// external catalog. Writes only happen through ApplyBatch.
type Catalog interface {
	// ApplyBatch upserts every entity of a page and stores the page's next
	// cursor as the checkpoint for (Kind, Scope), atomically. Entities that
	// violate a reference (e.g. unknown color) are reported as OutcomeFailed
	// without aborting the rest of the batch.
	ApplyBatch(ctx context.Context, batch domain.SyncBatch) ([]domain.UpsertResult, error)

	// Point lookups
	GetColor(ctx context.Context, id int) (*domain.CatalogColor, error)
	GetCategory(ctx context.Context, id int) (*domain.PartCategory, error)
	GetTheme(ctx context.Context, id int) (*domain.Theme, error)
	GetPart(ctx context.Context, partNum string) (*domain.CatalogPart, error)
	GetSet(ctx context.Context, setNum string) (*domain.CatalogSet, error)
	GetMinifig(ctx context.Context, figNum string) (*domain.CatalogMinifig, error)

	// Compositions
	ListSetParts(ctx context.Context, setNum string) ([]domain.SetPart, error)
	ListSetMinifigs(ctx context.Context, setNum string) ([]domain.SetMinifig, error)
	ListMinifigParts(ctx context.Context, figNum string) ([]domain.MinifigPart, error)

	// Bulk iteration
	ListColors(ctx context.Context) ([]domain.CatalogColor, error)
	ListCategories(ctx context.Context) ([]domain.PartCategory, error)
	ListThemes(ctx context.Context) ([]domain.Theme, error)
	ListSets(ctx context.Context) ([]domain.CatalogSet, error)
}

// SyncState defines persistence for sync checkpoints
type SyncState interface {
	GetSyncState(ctx context.Context, kind domain.EntityKind, scope string) (*domain.SyncState, error)
	// RecordSyncRun stores the counters of a finished (or stopped) run.
	// The checkpoint cursor itself is written by Catalog.ApplyBatch.
	RecordSyncRun(ctx context.Context, state domain.SyncState) error
	ListSyncStates(ctx context.Context) ([]domain.SyncState, error)
	ClearCheckpoint(ctx context.Context, kind domain.EntityKind, scope string) error
}
