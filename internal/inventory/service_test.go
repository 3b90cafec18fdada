package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/osse101/BrickManager_Go/internal/database/memory"
	"github.com/osse101/BrickManager_Go/internal/domain"
	"github.com/osse101/BrickManager_Go/internal/event"
	"github.com/osse101/BrickManager_Go/internal/testing/fixture"
)

type MockTemplateSyncer struct {
	mock.Mock
}

func (m *MockTemplateSyncer) SyncSetTemplate(ctx context.Context, setNum string) ([]domain.SyncResult, error) {
	args := m.Called(ctx, setNum)
	res, _ := args.Get(0).([]domain.SyncResult)
	return res, args.Error(1)
}

func newSeeded(t *testing.T) (*memory.Store, Service) {
	t.Helper()
	store := memory.NewStore()
	fixture.SeedCatalog(t, store)
	return store, NewService(store, store, store, nil, nil)
}

func TestNormalizeSetNum(t *testing.T) {
	assert.Equal(t, "7140-1", NormalizeSetNum("7140"))
	assert.Equal(t, "7140-1", NormalizeSetNum(" 7140-1 "))
	assert.Equal(t, "10179-2", NormalizeSetNum("10179-2"))
	assert.Equal(t, "", NormalizeSetNum("  "))
}

func TestAddSet_CreatesLinesFromTemplate(t *testing.T) {
	_, svc := newSeeded(t)

	detail, err := svc.AddSet(context.Background(), "7140", "")
	require.NoError(t, err)

	assert.Equal(t, fixture.SetNum, detail.SetNum)
	assert.Equal(t, domain.StatusUnknown, detail.Status)

	require.Len(t, detail.Parts, 2)
	byPart := map[string]domain.OwnedPart{}
	for _, p := range detail.Parts {
		byPart[p.PartNum] = p
		assert.Zero(t, p.HaveQuantity)
	}
	assert.Equal(t, 4, byPart[fixture.BrickPart].RequiredQuantity)
	assert.True(t, byPart[fixture.PlatePart].IsSpare)

	require.Len(t, detail.Minifigs, 1)
	assert.Equal(t, 2, detail.Minifigs[0].Quantity)

	require.Len(t, detail.MinifigParts, 1)
	assert.Equal(t, 2, detail.MinifigParts[0].RequiredQuantity, "component qty times figure qty")
	assert.Equal(t, detail.Minifigs[0].ID, detail.MinifigParts[0].OwnedMinifigID)
}

func TestAddSet_Errors(t *testing.T) {
	_, svc := newSeeded(t)
	ctx := context.Background()

	_, err := svc.AddSet(ctx, "", domain.StatusBuilt)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.AddSet(ctx, "7140-1", "shelved")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = svc.AddSet(ctx, "9999-1", domain.StatusBuilt)
	assert.ErrorIs(t, err, domain.ErrSetNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddSet_RequiresSyncedTemplate(t *testing.T) {
	store := memory.NewStore()
	// Everything except the set's compositions
	fixture.SeedBatches(t, store, fixture.UnscopedBatches())
	svc := NewService(store, store, store, nil, nil)

	_, err := svc.AddSet(context.Background(), fixture.SetNum, domain.StatusBuilding)
	assert.ErrorIs(t, err, domain.ErrTemplateNotSynced)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddSet_SyncsMissingTemplate(t *testing.T) {
	store := memory.NewStore()
	fixture.SeedBatches(t, store, fixture.UnscopedBatches())

	syncer := new(MockTemplateSyncer)
	syncer.On("SyncSetTemplate", mock.Anything, fixture.SetNum).
		Run(func(mock.Arguments) { fixture.SeedBatches(t, store, fixture.ScopedBatches()) }).
		Return([]domain.SyncResult{}, nil).Once()

	svc := NewService(store, store, store, syncer, nil)
	detail, err := svc.AddSet(context.Background(), fixture.SetNum, domain.StatusBuilding)
	require.NoError(t, err)
	assert.Len(t, detail.Parts, 2)
	syncer.AssertExpectations(t)
}

func TestAddSet_TemplateSyncFailure(t *testing.T) {
	store := memory.NewStore()
	fixture.SeedBatches(t, store, fixture.UnscopedBatches())

	syncer := new(MockTemplateSyncer)
	syncer.On("SyncSetTemplate", mock.Anything, fixture.SetNum).
		Return(nil, domain.ErrTransport).Once()

	svc := NewService(store, store, store, syncer, nil)
	_, err := svc.AddSet(context.Background(), fixture.SetNum, domain.StatusBuilding)
	assert.ErrorIs(t, err, domain.ErrTransport)

	sets, err := store.ListOwnedSets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sets, "nothing registered on failure")
}

func TestAddSet_RejectedTemplateRowsFail(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	// Reference catalog only; part 99999 is unknown
	fixture.SeedBatches(t, store, fixture.UnscopedBatches())

	syncer := new(MockTemplateSyncer)
	syncer.On("SyncSetTemplate", mock.Anything, fixture.SetNum).
		Run(func(mock.Arguments) {
			results, err := store.ApplyBatch(ctx, domain.SyncBatch{
				Kind: domain.KindSetParts, Scope: fixture.SetNum,
				Entities: []domain.CatalogEntity{
					domain.SetPart{SetNum: fixture.SetNum, PartNum: "99999", ColorID: fixture.Red, Quantity: 4},
				},
			})
			require.NoError(t, err)
			require.Equal(t, domain.OutcomeFailed, results[0].Outcome)
			require.NoError(t, store.RecordSyncRun(ctx, domain.SyncState{
				Kind: domain.KindSetParts, Scope: fixture.SetNum, Failed: 1, Completed: true,
			}))
			_, err = store.ApplyBatch(ctx, domain.SyncBatch{Kind: domain.KindSetMinifigs, Scope: fixture.SetNum})
			require.NoError(t, err)
		}).
		Return([]domain.SyncResult{
			{Kind: domain.KindSetParts, Scope: fixture.SetNum, FailedIDs: []string{"7140-1/99999/5"}, Completed: true},
			{Kind: domain.KindSetMinifigs, Scope: fixture.SetNum, FailedIDs: []string{}, Completed: true},
		}, nil).Once()

	svc := NewService(store, store, store, syncer, nil)
	_, err := svc.AddSet(ctx, fixture.SetNum, domain.StatusBuilding)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTemplateNotSynced)
	assert.Contains(t, err.Error(), "7140-1/99999/5")

	sets, err := store.ListOwnedSets(ctx)
	require.NoError(t, err)
	assert.Empty(t, sets, "no owned set from an incomplete template")
	syncer.AssertExpectations(t)
}

func TestAddSet_RetriesTemplateWithRejectedRows(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	fixture.SeedCatalog(t, store)
	// An earlier run completed but rejected a row
	require.NoError(t, store.RecordSyncRun(ctx, domain.SyncState{
		Kind: domain.KindSetParts, Scope: fixture.SetNum, Failed: 1, Completed: true,
	}))

	syncer := new(MockTemplateSyncer)
	syncer.On("SyncSetTemplate", mock.Anything, fixture.SetNum).
		Run(func(mock.Arguments) {
			require.NoError(t, store.RecordSyncRun(ctx, domain.SyncState{
				Kind: domain.KindSetParts, Scope: fixture.SetNum, Inserted: 2, Completed: true,
			}))
		}).
		Return([]domain.SyncResult{}, nil).Once()

	svc := NewService(store, store, store, syncer, nil)
	detail, err := svc.AddSet(ctx, fixture.SetNum, domain.StatusBuilding)
	require.NoError(t, err)
	assert.Len(t, detail.Parts, 2)
	syncer.AssertExpectations(t)
}

func TestAddSet_PublishesEvent(t *testing.T) {
	store := memory.NewStore()
	fixture.SeedCatalog(t, store)
	bus := event.NewMemoryBus()

	var got []event.OwnedSetPayloadV1
	bus.Subscribe(event.OwnedSetAdded, func(_ context.Context, e event.Event) error {
		got = append(got, e.Payload.(event.OwnedSetPayloadV1))
		return nil
	})
	bus.Subscribe(event.OwnedSetRemoved, func(_ context.Context, e event.Event) error {
		return errors.New("handler failure is logged, not returned")
	})

	svc := NewService(store, store, store, nil, bus)
	detail, err := svc.AddSet(context.Background(), fixture.SetNum, domain.StatusBuilt)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, detail.ID, got[0].OwnedSetID)
	assert.Equal(t, 2, got[0].PartLines)

	assert.NoError(t, svc.RemoveSet(context.Background(), detail.ID))
}

func TestStatusAndRemove(t *testing.T) {
	store, svc := newSeeded(t)
	ctx := context.Background()

	detail, err := svc.AddSet(ctx, fixture.SetNum, domain.StatusBuilding)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(ctx, detail.ID, domain.StatusBuilt))
	got, err := svc.GetOwnedSet(ctx, detail.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusBuilt, got.Status)

	assert.ErrorIs(t, svc.UpdateStatus(ctx, detail.ID, "lost"), domain.ErrInvalidStatus)
	assert.ErrorIs(t, svc.UpdateStatus(ctx, 999, domain.StatusBuilt), domain.ErrOwnedSetNotFound)

	require.NoError(t, svc.RemoveSet(ctx, detail.ID))
	_, err = svc.GetOwnedSet(ctx, detail.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	lines, err := store.ScanOwnedParts(ctx, domain.OwnedPartFilter{})
	require.NoError(t, err)
	assert.Empty(t, lines, "children removed with the set")

	assert.ErrorIs(t, svc.RemoveSet(ctx, detail.ID), domain.ErrOwnedSetNotFound)
}

func TestHaveQuantities(t *testing.T) {
	_, svc := newSeeded(t)
	ctx := context.Background()

	detail, err := svc.AddSet(ctx, fixture.SetNum, domain.StatusBuilding)
	require.NoError(t, err)
	var brick domain.OwnedPart
	for _, p := range detail.Parts {
		if p.PartNum == fixture.BrickPart {
			brick = p
		}
	}

	p, err := svc.SetPartHave(ctx, brick.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, p.HaveQuantity)

	// Over-completion is legal
	p, err = svc.AdjustPartHave(ctx, brick.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 8, p.HaveQuantity)

	_, err = svc.AdjustPartHave(ctx, brick.ID, -9)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	after, err := svc.GetOwnedSet(ctx, detail.ID)
	require.NoError(t, err)
	for _, p := range after.Parts {
		if p.ID == brick.ID {
			assert.Equal(t, 8, p.HaveQuantity, "rejected adjust leaves quantity untouched")
		}
	}

	_, err = svc.SetPartHave(ctx, brick.ID, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = svc.SetPartHave(ctx, 999, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	mp, err := svc.SetMinifigPartHave(ctx, detail.MinifigParts[0].ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, mp.HaveQuantity)
	_, err = svc.SetMinifigPartHave(ctx, detail.MinifigParts[0].ID, -2)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	fig, err := svc.SetMinifigHave(ctx, detail.Minifigs[0].ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, fig.HaveQuantity)
}

func TestListOwnedSets(t *testing.T) {
	_, svc := newSeeded(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.AddSet(ctx, fixture.SetNum, domain.StatusStored)
		require.NoError(t, err)
	}
	sets, err := svc.ListOwnedSets(ctx)
	require.NoError(t, err)
	assert.Len(t, sets, 2)
	assert.Less(t, sets[0].ID, sets[1].ID)
}
