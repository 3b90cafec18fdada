package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/BrickManager_Go/internal/domain"
)

func intPtr(i int) *int { return &i }

func seeded(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	ctx := context.Background()
	for _, b := range []domain.SyncBatch{
		{Kind: domain.KindColors, Entities: []domain.CatalogEntity{
			domain.CatalogColor{ID: 5, Name: "Red"},
			domain.CatalogColor{ID: 15, Name: "White"},
		}},
		{Kind: domain.KindParts, Entities: []domain.CatalogEntity{
			domain.CatalogPart{PartNum: "3001", Name: "Brick 2 x 4"},
			domain.CatalogPart{PartNum: "3626c", Name: "Minifig Head"},
		}},
		{Kind: domain.KindSets, Entities: []domain.CatalogEntity{
			domain.CatalogSet{SetNum: "7140-1", Name: "X-wing Fighter"},
		}},
		{Kind: domain.KindMinifigs, Entities: []domain.CatalogEntity{
			domain.CatalogMinifig{FigNum: "fig-000001", Name: "Pilot"},
		}},
	} {
		_, err := s.ApplyBatch(ctx, b)
		require.NoError(t, err)
	}
	return s
}

func TestStore_ApplyBatch_Outcomes(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	batch := domain.SyncBatch{
		Kind:       domain.KindSets,
		Entities:   []domain.CatalogEntity{domain.CatalogSet{SetNum: "7140-1", Name: "X-wing", Year: 1999}},
		NextCursor: "2",
	}

	results, err := s.ApplyBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeInserted, results[0].Outcome)

	results, err = s.ApplyBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUnchanged, results[0].Outcome)

	batch.Entities = []domain.CatalogEntity{domain.CatalogSet{SetNum: "7140-1", Name: "X-wing Fighter", Year: 1999}}
	results, err = s.ApplyBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUpdated, results[0].Outcome)

	state, err := s.GetSyncState(ctx, domain.KindSets, "")
	require.NoError(t, err)
	assert.Equal(t, "2", state.Cursor)
}

func TestStore_ApplyBatch_ReferenceFailure(t *testing.T) {
	s := seeded(t)
	results, err := s.ApplyBatch(context.Background(), domain.SyncBatch{
		Kind:  domain.KindSetParts,
		Scope: "7140-1",
		Entities: []domain.CatalogEntity{
			domain.SetPart{SetNum: "7140-1", PartNum: "3001", ColorID: 99, Quantity: 1},
			domain.SetPart{SetNum: "7140-1", PartNum: "3001", ColorID: 5, Quantity: -1},
			domain.SetPart{SetNum: "7140-1", PartNum: "3001", ColorID: 5, Quantity: 4},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.ErrorIs(t, results[0].Err, domain.ErrNotFound)
	assert.ErrorIs(t, results[1].Err, domain.ErrValidation)
	assert.Equal(t, domain.OutcomeInserted, results[2].Outcome)
}

func TestStore_Themes(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	results, err := s.ApplyBatch(ctx, domain.SyncBatch{Kind: domain.KindThemes, Entities: []domain.CatalogEntity{
		domain.Theme{ID: 158, ParentID: intPtr(130), Name: "Star Wars"},
		domain.Theme{ID: 130, Name: "Space"},
	}})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeInserted, results[0].Outcome, "parent may arrive after its child")

	results, err = s.ApplyBatch(ctx, domain.SyncBatch{Kind: domain.KindSets, Entities: []domain.CatalogEntity{
		domain.CatalogSet{SetNum: "7140-1", Name: "X-wing Fighter", ThemeID: intPtr(158)},
		domain.CatalogSet{SetNum: "6929-1", Name: "Star Fleet Voyager", ThemeID: intPtr(999)},
	}})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeInserted, results[0].Outcome)
	assert.Equal(t, domain.OutcomeFailed, results[1].Outcome)
	assert.ErrorIs(t, results[1].Err, domain.ErrNotFound)

	set, err := s.GetSet(ctx, "7140-1")
	require.NoError(t, err)
	require.NotNil(t, set.ThemeID)
	assert.Equal(t, 158, *set.ThemeID)

	// Moving a set to another theme is an update
	results, err = s.ApplyBatch(ctx, domain.SyncBatch{Kind: domain.KindSets, Entities: []domain.CatalogEntity{
		domain.CatalogSet{SetNum: "7140-1", Name: "X-wing Fighter", ThemeID: intPtr(130)},
	}})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUpdated, results[0].Outcome)

	theme, err := s.GetTheme(ctx, 158)
	require.NoError(t, err)
	assert.Equal(t, 130, *theme.ParentID)

	_, err = s.GetTheme(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrThemeNotFound)

	themes, err := s.ListThemes(ctx)
	require.NoError(t, err)
	require.Len(t, themes, 2)
	assert.Equal(t, 130, themes[0].ID)
}

func TestStore_CreateOwnedSet_Atomic(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	_, err := s.CreateOwnedSet(ctx, domain.NewOwnedSet{
		SetNum: "7140-1",
		Parts: []domain.OwnedPart{
			{PartNum: "3001", ColorID: 5, RequiredQuantity: 4},
			{PartNum: "nope", ColorID: 5, RequiredQuantity: 1},
		},
	})
	require.ErrorIs(t, err, domain.ErrNotFound)

	sets, err := s.ListOwnedSets(ctx)
	require.NoError(t, err)
	assert.Empty(t, sets)

	_, err = s.CreateOwnedSet(ctx, domain.NewOwnedSet{SetNum: "0000-1"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_DeleteOwnedSetCascades(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	detail, err := s.CreateOwnedSet(ctx, domain.NewOwnedSet{
		SetNum:   "7140-1",
		Status:   domain.StatusBuilding,
		Parts:    []domain.OwnedPart{{PartNum: "3001", ColorID: 5, RequiredQuantity: 4}},
		Minifigs: []domain.OwnedMinifig{{FigNum: "fig-000001", Quantity: 1}},
		MinifigParts: []domain.NewOwnedMinifigPart{
			{MinifigIndex: 0, OwnedMinifigPart: domain.OwnedMinifigPart{PartNum: "3626c", ColorID: 15, RequiredQuantity: 1}},
		},
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteOwnedSet(ctx, detail.ID))
	lines, err := s.ScanOwnedParts(ctx, domain.OwnedPartFilter{})
	require.NoError(t, err)
	assert.Empty(t, lines)

	_, err = s.SetPartHave(ctx, detail.Parts[0].ID, 1)
	assert.ErrorIs(t, err, domain.ErrOwnedPartNotFound)
}

func TestStore_AdjustPartHave(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	detail, err := s.CreateOwnedSet(ctx, domain.NewOwnedSet{
		SetNum: "7140-1",
		Parts:  []domain.OwnedPart{{PartNum: "3001", ColorID: 5, RequiredQuantity: 2}},
	})
	require.NoError(t, err)
	id := detail.Parts[0].ID

	part, err := s.AdjustPartHave(ctx, id, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, part.HaveQuantity)

	_, err = s.AdjustPartHave(ctx, id, -6)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	part, err = s.AdjustPartHave(ctx, id, -5)
	require.NoError(t, err)
	assert.Zero(t, part.HaveQuantity)
}

func TestStore_RejectsValuesBeyondInt4(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	wrapped := 1<<32 + 5

	_, _, err := s.UpsertSlot(ctx, domain.StorageSlot{PartNum: "3001", ColorID: &wrapped, Site: "A", Level: "2", Box: "7"})
	assert.ErrorIs(t, err, domain.ErrOutOfRange)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.FindSlots(ctx, "3001", &wrapped)
	assert.ErrorIs(t, err, domain.ErrOutOfRange)

	detail, err := s.CreateOwnedSet(ctx, domain.NewOwnedSet{
		SetNum: "7140-1",
		Parts:  []domain.OwnedPart{{PartNum: "3001", ColorID: 5, RequiredQuantity: 2}},
	})
	require.NoError(t, err)
	id := detail.Parts[0].ID

	_, err = s.SetPartHave(ctx, id, domain.MaxStoredInt+1)
	assert.ErrorIs(t, err, domain.ErrOutOfRange)

	_, err = s.SetPartHave(ctx, id, domain.MaxStoredInt)
	require.NoError(t, err)
	_, err = s.AdjustPartHave(ctx, id, 1)
	assert.ErrorIs(t, err, domain.ErrOutOfRange, "sum must still fit")

	part, err := s.AdjustPartHave(ctx, id, -1)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxStoredInt-1, part.HaveQuantity)
}

func TestStore_UpsertSlot(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	slot := domain.StorageSlot{PartNum: "3001", ColorID: intPtr(5), Site: "A", Level: "2", Box: "7", Notes: "old"}
	first, inserted, err := s.UpsertSlot(ctx, slot)
	require.NoError(t, err)
	assert.True(t, inserted)

	slot.Notes = "new"
	second, inserted, err := s.UpsertSlot(ctx, slot)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "new", second.Notes)

	nullColor := domain.StorageSlot{PartNum: "3001", Site: "A", Level: "2", Box: "7"}
	_, inserted, err = s.UpsertSlot(ctx, nullColor)
	require.NoError(t, err)
	assert.True(t, inserted, "a nil color does not match a colored slot")

	_, _, err = s.UpsertSlot(ctx, domain.StorageSlot{PartNum: "3001", Site: "A"})
	assert.ErrorIs(t, err, domain.ErrEmptyLocation)

	_, _, err = s.UpsertSlot(ctx, domain.StorageSlot{PartNum: "9999", Site: "A", Level: "1", Box: "1"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	slots, err := s.FindSlots(ctx, "3001", nil)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Nil(t, slots[0].ColorID, "nil color sorts first within a box")
}

func TestStore_UpsertSlot_Concurrent(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.UpsertSlot(ctx, domain.StorageSlot{PartNum: "3001", ColorID: intPtr(5), Site: "A", Level: "1", Box: "1"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	slots, err := s.FindSlots(ctx, "3001", intPtr(5))
	require.NoError(t, err)
	assert.Len(t, slots, 1)
}

func TestStore_DistinctValuesAndBox(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	for _, slot := range []domain.StorageSlot{
		{PartNum: "3001", ColorID: intPtr(5), Site: "B", Level: "1", Box: "1"},
		{PartNum: "3626c", ColorID: intPtr(15), Site: "A", Level: "2", Box: "7"},
		{PartNum: "3001", ColorID: intPtr(5), Site: "A", Level: "2", Box: "7"},
		{PartNum: "3001", ColorID: intPtr(15), Site: "A", Level: "1", Box: "3"},
	} {
		_, _, err := s.UpsertSlot(ctx, slot)
		require.NoError(t, err)
	}

	sites, err := s.DistinctValues(ctx, domain.SlotFieldSite, domain.SlotFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, sites)

	boxes, err := s.DistinctValues(ctx, domain.SlotFieldBox, domain.SlotFilter{Site: "A"})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "7"}, boxes)

	_, err = s.DistinctValues(ctx, "color", domain.SlotFilter{})
	assert.ErrorIs(t, err, domain.ErrInvalidField)

	items, err := s.BoxContents(ctx, domain.SlotFilter{Site: "A", Level: "2", Box: "7"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "3001", items[0].PartNum)
	assert.Equal(t, "Red", items[0].ColorName)
	assert.Equal(t, "3626c", items[1].PartNum)

	require.NoError(t, s.DeleteSlot(ctx, items[0].ID))
	_, inserted, err := s.UpsertSlot(ctx, domain.StorageSlot{PartNum: "3001", ColorID: intPtr(5), Site: "A", Level: "2", Box: "7"})
	require.NoError(t, err)
	assert.True(t, inserted, "deleting a slot frees its tuple")
}
