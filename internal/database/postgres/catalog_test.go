package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/BrickManager_Go/internal/domain"
)

func TestCatalogRepository_ApplyBatch(t *testing.T) {
	pool := requirePool(t)
	ctx := context.Background()
	repo := NewCatalogRepository(pool)
	states := NewSyncStateRepository(pool)

	batch := domain.SyncBatch{
		Kind: domain.KindColors,
		Entities: []domain.CatalogEntity{
			domain.CatalogColor{ID: 0, Name: "Black", RGB: "05131D"},
			domain.CatalogColor{ID: 5, Name: "Red", RGB: "C91A09"},
		},
		NextCursor: "2",
	}

	t.Run("first run inserts", func(t *testing.T) {
		results, err := repo.ApplyBatch(ctx, batch)
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, r := range results {
			assert.Equal(t, domain.OutcomeInserted, r.Outcome)
		}
	})

	t.Run("identical run is unchanged", func(t *testing.T) {
		results, err := repo.ApplyBatch(ctx, batch)
		require.NoError(t, err)
		for _, r := range results {
			assert.Equal(t, domain.OutcomeUnchanged, r.Outcome)
		}
	})

	t.Run("changed attribute is updated", func(t *testing.T) {
		changed := batch
		changed.Entities = []domain.CatalogEntity{
			domain.CatalogColor{ID: 5, Name: "Bright Red", RGB: "C91A09"},
		}
		results, err := repo.ApplyBatch(ctx, changed)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, domain.OutcomeUpdated, results[0].Outcome)

		color, err := repo.GetColor(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, "Bright Red", color.Name)
	})

	t.Run("checkpoint stored with page", func(t *testing.T) {
		state, err := states.GetSyncState(ctx, domain.KindColors, "")
		require.NoError(t, err)
		require.NotNil(t, state)
		assert.Equal(t, "2", state.Cursor)
		assert.False(t, state.Completed)
	})
}

func TestCatalogRepository_ApplyBatch_ReferenceViolation(t *testing.T) {
	pool := requirePool(t)
	ctx := context.Background()
	repo := NewCatalogRepository(pool)
	seedCatalog(t, repo)

	results, err := repo.ApplyBatch(ctx, domain.SyncBatch{
		Kind:  domain.KindSetParts,
		Scope: "7140-1",
		Entities: []domain.CatalogEntity{
			domain.SetPart{SetNum: "7140-1", PartNum: "no-such-part", ColorID: 5, Quantity: 1},
			domain.SetPart{SetNum: "7140-1", PartNum: "3001", ColorID: 15, Quantity: 2},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, domain.OutcomeFailed, results[0].Outcome)
	assert.True(t, errors.Is(results[0].Err, domain.ErrNotFound))
	assert.Equal(t, domain.OutcomeInserted, results[1].Outcome, "a rejected record must not abort the batch")

	parts, err := repo.ListSetParts(ctx, "7140-1")
	require.NoError(t, err)
	assert.Len(t, parts, 2)
}

func TestCatalogRepository_Lookups(t *testing.T) {
	pool := requirePool(t)
	ctx := context.Background()
	repo := NewCatalogRepository(pool)
	seedCatalog(t, repo)

	part, err := repo.GetPart(ctx, "3001")
	require.NoError(t, err)
	require.NotNil(t, part.CategoryID)
	assert.Equal(t, 11, *part.CategoryID)

	head, err := repo.GetPart(ctx, "3626c")
	require.NoError(t, err)
	assert.Nil(t, head.CategoryID)

	_, err = repo.GetSet(ctx, "9999-1")
	assert.ErrorIs(t, err, domain.ErrSetNotFound)

	figs, err := repo.ListSetMinifigs(ctx, "7140-1")
	require.NoError(t, err)
	require.Len(t, figs, 1)
	assert.Equal(t, 2, figs[0].Quantity)

	figParts, err := repo.ListMinifigParts(ctx, "fig-000001")
	require.NoError(t, err)
	assert.Len(t, figParts, 1)

	sets, err := repo.ListSets(ctx)
	require.NoError(t, err)
	assert.Len(t, sets, 1)
}

func TestCatalogRepository_Themes(t *testing.T) {
	pool := requirePool(t)
	ctx := context.Background()
	repo := NewCatalogRepository(pool)
	seedCatalog(t, repo)

	set, err := repo.GetSet(ctx, "7140-1")
	require.NoError(t, err)
	require.NotNil(t, set.ThemeID)
	assert.Equal(t, 158, *set.ThemeID)

	theme, err := repo.GetTheme(ctx, 158)
	require.NoError(t, err)
	require.NotNil(t, theme.ParentID)
	assert.Equal(t, 130, *theme.ParentID)
	assert.Equal(t, "Star Wars", theme.Name)

	_, err = repo.GetTheme(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrThemeNotFound)

	themes, err := repo.ListThemes(ctx)
	require.NoError(t, err)
	require.Len(t, themes, 2)
	assert.Nil(t, themes[0].ParentID)

	results, err := repo.ApplyBatch(ctx, domain.SyncBatch{Kind: domain.KindSets, Entities: []domain.CatalogEntity{
		domain.CatalogSet{SetNum: "7140-1", Name: "X-wing Fighter", Year: 1999, ThemeID: intPtr(158), NumParts: 263},
		domain.CatalogSet{SetNum: "6929-1", Name: "Star Fleet Voyager", ThemeID: intPtr(999)},
		domain.CatalogSet{SetNum: "7140-2", Name: "X-wing Fighter", ThemeID: intPtr(130)},
	}})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, domain.OutcomeUnchanged, results[0].Outcome)
	assert.Equal(t, domain.OutcomeFailed, results[1].Outcome)
	assert.ErrorIs(t, results[1].Err, domain.ErrNotFound)
	assert.Equal(t, domain.OutcomeInserted, results[2].Outcome)
}

func TestSyncStateRepository(t *testing.T) {
	pool := requirePool(t)
	ctx := context.Background()
	states := NewSyncStateRepository(pool)

	state, err := states.GetSyncState(ctx, domain.KindParts, "")
	require.NoError(t, err)
	assert.Nil(t, state)

	_, err = NewCatalogRepository(pool).ApplyBatch(ctx, domain.SyncBatch{Kind: domain.KindParts, NextCursor: "3"})
	require.NoError(t, err)

	require.NoError(t, states.RecordSyncRun(ctx, domain.SyncState{Kind: domain.KindParts, Inserted: 7, Failed: 1}))

	state, err = states.GetSyncState(ctx, domain.KindParts, "")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "3", state.Cursor, "recording a run keeps the checkpoint")
	assert.Equal(t, 7, state.Inserted)
	assert.Equal(t, 1, state.Failed)

	require.NoError(t, states.ClearCheckpoint(ctx, domain.KindParts, ""))
	state, err = states.GetSyncState(ctx, domain.KindParts, "")
	require.NoError(t, err)
	assert.Empty(t, state.Cursor)

	all, err := states.ListSyncStates(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
