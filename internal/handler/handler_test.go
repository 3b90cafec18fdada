package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/osse101/BrickManager_Go/internal/database/memory"
	"github.com/osse101/BrickManager_Go/internal/domain"
	"github.com/osse101/BrickManager_Go/internal/inventory"
	"github.com/osse101/BrickManager_Go/internal/reconcile"
	"github.com/osse101/BrickManager_Go/internal/storage"
	"github.com/osse101/BrickManager_Go/internal/testing/fixture"
)

// MockSyncer mocks the Syncer interface
type MockSyncer struct {
	mock.Mock
}

func (m *MockSyncer) Sync(ctx context.Context, req domain.SyncRequest) (domain.SyncResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.SyncResult), args.Error(1)
}

type testAPI struct {
	router http.Handler
	syncer *MockSyncer
	store  *memory.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := memory.NewStore()
	fixture.SeedCatalog(t, store)

	syncer := &MockSyncer{}
	sets := NewSetsHandler(inventory.NewService(store, store, store, nil, nil))
	slots := NewStorageHandler(storage.NewService(store, store, nil, nil))
	rec := reconcile.NewService(store, store, nil)

	r := chi.NewRouter()
	r.Post("/sync/{kind}", HandleRunSync(syncer))
	r.Get("/sync/state", HandleListSyncState(store))
	r.Post("/sets", sets.HandleAddSet)
	r.Get("/sets", sets.HandleListSets)
	r.Get("/sets/{id}", sets.HandleGetSet)
	r.Patch("/sets/{id}/status", sets.HandleUpdateStatus)
	r.Delete("/sets/{id}", sets.HandleRemoveSet)
	r.Get("/sets/{id}/missing", HandleMissingForSet(rec))
	r.Put("/parts/{id}/have", sets.HandlePartHave)
	r.Put("/minifig-parts/{id}/have", sets.HandleMinifigPartHave)
	r.Put("/minifigs/{id}/have", sets.HandleMinifigHave)
	r.Get("/missing", HandleMissingAll(rec))
	r.Get("/summary", HandleSummary(rec))
	r.Put("/storage", slots.HandleAssign)
	r.Get("/storage/box", slots.HandleBoxContents)
	r.Get("/storage/distinct/{field}", slots.HandleDistinct)
	r.Get("/storage/{part}", slots.HandleFind)
	r.Delete("/storage/slots/{id}", slots.HandleRemove)

	return &testAPI{router: r, syncer: syncer, store: store}
}

func (a *testAPI) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", domain.ErrOwnedSetNotFound, http.StatusNotFound},
		{"template not synced", domain.ErrTemplateNotSynced, http.StatusNotFound},
		{"validation", domain.ErrInvalidQuantity, http.StatusBadRequest},
		{"transport", domain.ErrTransport, http.StatusBadGateway},
		{"unexpected", assert.AnError, http.StatusInternalServerError},
		{"nil", nil, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := mapServiceError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.NotEmpty(t, msg)
		})
	}

	_, msg := mapServiceError(assert.AnError)
	assert.Equal(t, ErrMsgGenericServerError, msg, "internal details stay out of responses")
}

func TestRunSync(t *testing.T) {
	t.Run("completed run", func(t *testing.T) {
		api := newTestAPI(t)
		api.syncer.On("Sync", mock.Anything, domain.SyncRequest{Kind: domain.KindColors}).
			Return(domain.SyncResult{Kind: domain.KindColors, Pages: 1, Inserted: 2, FailedIDs: []string{}, Completed: true}, nil)

		w := api.do(t, http.MethodPost, "/sync/colors", nil)
		require.Equal(t, http.StatusOK, w.Code)
		res := decode[domain.SyncResult](t, w)
		assert.Equal(t, 2, res.Inserted)
		assert.True(t, res.Completed)
		api.syncer.AssertExpectations(t)
	})

	t.Run("body carries scope and restart", func(t *testing.T) {
		api := newTestAPI(t)
		want := domain.SyncRequest{Kind: domain.KindSetParts, Scope: "7140-1", Restart: true}
		api.syncer.On("Sync", mock.Anything, want).Return(domain.SyncResult{Kind: domain.KindSetParts, Completed: true}, nil)

		w := api.do(t, http.MethodPost, "/sync/set_parts", map[string]interface{}{"scope": "7140-1", "restart": true})
		assert.Equal(t, http.StatusOK, w.Code)
		api.syncer.AssertExpectations(t)
	})

	t.Run("transport failure returns partial report", func(t *testing.T) {
		api := newTestAPI(t)
		api.syncer.On("Sync", mock.Anything, mock.Anything).Return(domain.SyncResult{
			Kind:            domain.KindParts,
			Pages:           1,
			Inserted:        1000,
			ResumableCursor: "2",
			TransportError:  "catalog source unavailable: connection reset",
		}, nil)

		w := api.do(t, http.MethodPost, "/sync/parts", nil)
		require.Equal(t, http.StatusBadGateway, w.Code)
		res := decode[domain.SyncResult](t, w)
		assert.Equal(t, "2", res.ResumableCursor)
		assert.Equal(t, 1000, res.Inserted)
	})

	t.Run("invalid kind", func(t *testing.T) {
		api := newTestAPI(t)
		api.syncer.On("Sync", mock.Anything, mock.Anything).Return(domain.SyncResult{}, domain.ErrInvalidKind)

		w := api.do(t, http.MethodPost, "/sync/bricks", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		api := newTestAPI(t)
		w := api.do(t, http.MethodPost, "/sync/colors", `{"scope":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		api.syncer.AssertNotCalled(t, "Sync", mock.Anything, mock.Anything)
	})
}

func TestListSyncState(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodGet, "/sync/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	states := decode[[]domain.SyncState](t, w)
	assert.NotEmpty(t, states)
}

func TestSetLifecycle(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/sets", AddSetRequest{SetNum: "7140", Status: "building"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	detail := decode[domain.OwnedSetDetail](t, w)
	assert.Equal(t, fixture.SetNum, detail.SetNum)
	require.Len(t, detail.Parts, 2)

	var brick domain.OwnedPart
	for _, p := range detail.Parts {
		if p.PartNum == fixture.BrickPart {
			brick = p
		}
	}
	require.NotZero(t, brick.ID)

	w = api.do(t, http.MethodPut, "/parts/"+itoa(brick.ID)+"/have", map[string]int{"have": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 3, decode[domain.OwnedPart](t, w).HaveQuantity)

	w = api.do(t, http.MethodPut, "/parts/"+itoa(brick.ID)+"/have", map[string]int{"delta": -5})
	assert.Equal(t, http.StatusBadRequest, w.Code, "would go below zero")

	w = api.do(t, http.MethodGet, "/sets/"+itoa(detail.ID)+"/missing", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decode[[]domain.MissingItem](t, w)
	found := false
	for _, it := range items {
		if it.PartNum == fixture.BrickPart {
			found = true
			assert.Equal(t, 1, it.MissingQuantity)
		}
	}
	assert.True(t, found)

	w = api.do(t, http.MethodPatch, "/sets/"+itoa(detail.ID)+"/status", UpdateStatusRequest{Status: "built"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodGet, "/missing?exclude_status=built", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]domain.MissingItem](t, w))

	w = api.do(t, http.MethodGet, "/sets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.OwnedSet](t, w), 1)

	w = api.do(t, http.MethodDelete, "/sets/"+itoa(detail.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodGet, "/sets/"+itoa(detail.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = api.do(t, http.MethodGet, "/sets/"+itoa(detail.ID)+"/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "unknown set is an error, not an empty report")
}

func TestAddSet_Validation(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/sets", AddSetRequest{Status: "building"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[ValidationErrorResponse](t, w).Fields, "setnum")

	w = api.do(t, http.MethodPost, "/sets", AddSetRequest{SetNum: "7140-1", Status: "lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/sets", AddSetRequest{SetNum: "9999-1"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodGet, "/sets/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPartHave_RequiresExactlyOne(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodPut, "/parts/1/have", map[string]int{"have": 1, "delta": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = api.do(t, http.MethodPut, "/parts/1/have", map[string]int{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = api.do(t, http.MethodPut, "/parts/1/have", map[string]int{"have": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = api.do(t, http.MethodPut, "/minifig-parts/1/have", map[string]int{"delta": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHaveAndStorage_RejectOutOfRangeIntegers(t *testing.T) {
	api := newTestAPI(t)

	// 4294967301 wraps to color 5 in a 32-bit column
	w := api.do(t, http.MethodPut, "/storage",
		`{"part_num":"3001","color_id":4294967301,"site":"A","level":"2","box":"7"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = api.do(t, http.MethodGet, "/storage/"+fixture.BrickPart, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]domain.StorageSlot](t, w), "nothing stored under a wrapped color")

	w = api.do(t, http.MethodPut, "/parts/1/have", `{"have":2147483648}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = api.do(t, http.MethodPut, "/parts/1/have", `{"delta":-2147483649}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSummary(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodPost, "/sets", AddSetRequest{SetNum: fixture.SetNum, Status: "building"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = api.do(t, http.MethodGet, "/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sum := decode[domain.InventorySummary](t, w)
	assert.Equal(t, 5, sum.MissingParts)
	assert.Equal(t, 2, sum.MissingMinifigParts)
}

func TestMissingAll_BadQuery(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodGet, "/missing?include_spares=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = api.do(t, http.MethodGet, "/missing?status=lost", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStorageEndpoints(t *testing.T) {
	api := newTestAPI(t)

	red := fixture.Red
	w := api.do(t, http.MethodPut, "/storage", AssignSlotRequest{PartNum: fixture.BrickPart, ColorID: &red, Site: "A", Level: "2", Box: "7", Notes: "front"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	slot := decode[domain.StorageSlot](t, w)

	w = api.do(t, http.MethodPut, "/storage", AssignSlotRequest{PartNum: fixture.BrickPart, ColorID: &red, Site: "A", Level: "2", Box: "7", Notes: "back"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, slot.ID, decode[domain.StorageSlot](t, w).ID)

	w = api.do(t, http.MethodGet, "/storage/"+fixture.BrickPart, nil)
	require.Equal(t, http.StatusOK, w.Code)
	slots := decode[[]domain.StorageSlot](t, w)
	require.Len(t, slots, 1)
	assert.Equal(t, "back", slots[0].Notes)

	w = api.do(t, http.MethodGet, "/storage/"+fixture.BrickPart+"?color_id=15", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]domain.StorageSlot](t, w))

	w = api.do(t, http.MethodGet, "/storage/"+fixture.BrickPart+"?color_id=red", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/storage/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodGet, "/storage/distinct/level?site=A", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"2"}, decode[[]string](t, w))

	w = api.do(t, http.MethodGet, "/storage/distinct/shelf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/storage/box?site=A&level=2&box=7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decode[[]domain.BoxItem](t, w)
	require.Len(t, items, 1)
	assert.Equal(t, "Brick 2 x 4", items[0].PartName)

	w = api.do(t, http.MethodGet, "/storage/box?site=A&level=2", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPut, "/storage", AssignSlotRequest{PartNum: fixture.BrickPart, Site: "A", Level: "2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodDelete, "/storage/slots/"+itoa(slot.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = api.do(t, http.MethodDelete, "/storage/slots/"+itoa(slot.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	HandleHealthz().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"status":"ok"}`+"\n", w.Body.String())

	w = httptest.NewRecorder()
	HandleReadyz(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

// MockDBPool mocks the database.Pool interface
type MockDBPool struct {
	mock.Mock
}

func (m *MockDBPool) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDBPool) Close() {
	m.Called()
}

func TestReadyz_DatabaseDown(t *testing.T) {
	db := &MockDBPool{}
	db.On("Ping", mock.Anything).Return(assert.AnError)

	w := httptest.NewRecorder()
	HandleReadyz(db).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"unavailable"`)
	db.AssertExpectations(t)
}

func TestFormatValidationError(t *testing.T) {
	err := GetValidator().ValidateStruct(UpdateStatusRequest{Status: "lost"})
	require.Error(t, err)
	assert.Equal(t, map[string]string{"status": "Invalid set status"}, FormatValidationError(err))

	assert.Nil(t, FormatValidationError(nil))
	assert.Equal(t, map[string]string{"error": "Invalid request format"}, FormatValidationError(assert.AnError))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
