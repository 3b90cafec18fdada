package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/BrickManager_Go/internal/domain"
	"github.com/osse101/BrickManager_Go/internal/repository"
)

// SyncStateRepository implements repository.SyncState for PostgreSQL
type SyncStateRepository struct {
	db *pgxpool.Pool
}

var _ repository.SyncState = (*SyncStateRepository)(nil)

// NewSyncStateRepository creates a new SyncStateRepository
func NewSyncStateRepository(db *pgxpool.Pool) *SyncStateRepository {
	return &SyncStateRepository{db: db}
}

const selectSyncStateColumns = `kind, scope, cursor, inserted, updated, failed, completed, last_sync_time`

func scanSyncState(row pgx.Row) (*domain.SyncState, error) {
	var s domain.SyncState
	var kind string
	if err := row.Scan(&kind, &s.Scope, &s.Cursor, &s.Inserted, &s.Updated, &s.Failed, &s.Completed, &s.LastSyncTime); err != nil {
		return nil, err
	}
	s.Kind = domain.EntityKind(kind)
	return &s, nil
}

// GetSyncState returns the checkpoint for a kind and scope, or nil if none exists
func (r *SyncStateRepository) GetSyncState(ctx context.Context, kind domain.EntityKind, scope string) (*domain.SyncState, error) {
	state, err := scanSyncState(r.db.QueryRow(ctx,
		`SELECT `+selectSyncStateColumns+` FROM sync_state WHERE kind = $1 AND scope = $2`,
		string(kind), scope))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetSyncState, err)
	}
	return state, nil
}

// RecordSyncRun stores run counters without touching the cursor
func (r *SyncStateRepository) RecordSyncRun(ctx context.Context, state domain.SyncState) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO sync_state (kind, scope, inserted, updated, failed, completed, last_sync_time)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (kind, scope) DO UPDATE
		SET inserted = EXCLUDED.inserted, updated = EXCLUDED.updated, failed = EXCLUDED.failed,
			completed = EXCLUDED.completed, last_sync_time = NOW()`,
		string(state.Kind), state.Scope, state.Inserted, state.Updated, state.Failed, state.Completed)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToRecordSyncRun, err)
	}
	return nil
}

// ListSyncStates returns every checkpoint ordered by kind and scope
func (r *SyncStateRepository) ListSyncStates(ctx context.Context) ([]domain.SyncState, error) {
	rows, err := r.db.Query(ctx, `SELECT `+selectSyncStateColumns+` FROM sync_state ORDER BY kind, scope`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListSyncStates, err)
	}
	defer rows.Close()

	var states []domain.SyncState
	for rows.Next() {
		s, err := scanSyncState(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListSyncStates, err)
		}
		states = append(states, *s)
	}
	return states, rows.Err()
}

// ClearCheckpoint resets the cursor so the next run starts from the first page
func (r *SyncStateRepository) ClearCheckpoint(ctx context.Context, kind domain.EntityKind, scope string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE sync_state SET cursor = '', completed = FALSE WHERE kind = $1 AND scope = $2`,
		string(kind), scope)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToClearCheckpoint, err)
	}
	return nil
}
