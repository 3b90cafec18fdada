package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/BrickManager_Go/internal/catalogsync"
	"github.com/osse101/BrickManager_Go/internal/database/memory"
	"github.com/osse101/BrickManager_Go/internal/domain"
	"github.com/osse101/BrickManager_Go/internal/inventory"
	"github.com/osse101/BrickManager_Go/internal/listpush"
	"github.com/osse101/BrickManager_Go/internal/rebrickable"
	"github.com/osse101/BrickManager_Go/internal/reconcile"
	"github.com/osse101/BrickManager_Go/internal/storage"
	"github.com/osse101/BrickManager_Go/internal/testing/fixture"
)

const testAPIKey = "test-key"

func newTestRouter(t *testing.T, imageDir string) http.Handler {
	t.Helper()
	return newTestRouterWithAccount(t, imageDir, rebrickable.NewClient(rebrickable.Config{}))
}

func newTestRouterWithAccount(t *testing.T, imageDir string, account *rebrickable.Client) http.Handler {
	t.Helper()
	store := memory.NewStore()
	fixture.SeedCatalog(t, store)

	// No fetcher is needed for routes that never reach the catalog source
	engine := catalogsync.NewEngine(store, store, nil, nil, catalogsync.Config{})
	inv := inventory.NewService(store, store, store, nil, nil)
	rec := reconcile.NewService(store, store, nil)

	return NewRouter(Options{APIKey: testAPIKey, Version: "1.2.3"}, Dependencies{
		Syncer:    engine,
		SyncState: store,
		Inventory: inv,
		Reconcile: rec,
		Storage:   storage.NewService(store, store, nil, nil),
		Push:      listpush.NewService(account, rec, inv, nil),
		ImageDir:  imageDir,
	})
}

func call(t *testing.T, h http.Handler, method, target string, body interface{}, key string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if key != "" {
		req.Header.Set(HeaderAPIKey, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_EndToEnd(t *testing.T) {
	h := newTestRouter(t, "")

	rec := call(t, h, http.MethodGet, "/api/v1/sets", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/v1/sets", map[string]string{"set_num": "7140-1", "status": "building"}, testAPIKey)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var detail domain.OwnedSetDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))

	var brickID int64
	for _, p := range detail.Parts {
		if p.PartNum == fixture.BrickPart {
			brickID = p.ID
		}
	}
	require.NotZero(t, brickID)

	rec = call(t, h, http.MethodPut, "/api/v1/parts/"+jsonID(brickID)+"/have", map[string]int{"have": 3}, testAPIKey)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodPut, "/api/v1/storage", map[string]interface{}{
		"part_num": fixture.BrickPart, "color_id": fixture.Red, "site": "A", "level": "2", "box": "7",
	}, testAPIKey)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodGet, "/api/v1/sets/"+jsonID(detail.ID)+"/missing", nil, testAPIKey)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []domain.MissingItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))

	var brick *domain.MissingItem
	for i := range items {
		if items[i].PartNum == fixture.BrickPart {
			brick = &items[i]
		}
	}
	require.NotNil(t, brick)
	assert.Equal(t, 1, brick.MissingQuantity)
	require.Len(t, brick.Locations, 1)
	assert.Equal(t, "7", brick.Locations[0].Box)

	rec = call(t, h, http.MethodGet, "/api/v1/storage/box?site=A&level=2&box=7", nil, testAPIKey)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h, http.MethodGet, "/api/v1/sync/state", nil, testAPIKey)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/v1/sync/bricks", nil, testAPIKey)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/v1/push/owned-sets", nil, testAPIKey)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "push needs a user token")
}

func TestRouter_PushOwnedSets(t *testing.T) {
	var pushed []byte
	account := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/tok/setlists/":
			fmt.Fprint(w, `{"count":0,"next":null,"results":[]}`)
		case r.Method == http.MethodPost && r.URL.Path == "/tok/setlists/":
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id":11,"name":"Brick_Manager"}`)
		case r.Method == http.MethodGet && r.URL.Path == "/tok/setlists/11/sets/":
			fmt.Fprint(w, `{"count":0,"next":null,"results":[]}`)
		case r.Method == http.MethodPost && r.URL.Path == "/tok/setlists/11/sets/":
			pushed, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer account.Close()

	h := newTestRouterWithAccount(t, "", rebrickable.NewClient(rebrickable.Config{
		UsersURL:  account.URL,
		UserToken: "tok",
		RPS:       1000,
	}))

	rec := call(t, h, http.MethodPost, "/api/v1/sets", map[string]string{"set_num": "7140-1"}, testAPIKey)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodPost, "/api/v1/push/owned-sets", nil, testAPIKey)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res domain.PushResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.ListCreated)
	assert.Equal(t, int64(11), res.ListID)
	assert.Equal(t, 1, res.Added)
	assert.JSONEq(t, `[{"set_num":"7140-1","quantity":1}]`, string(pushed))
}

func TestRouter_PublicEndpoints(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "3001.png"), []byte("png"), 0o644))
	h := newTestRouter(t, dir)

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/version"} {
		rec := call(t, h, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := call(t, h, http.MethodGet, "/version", nil, "")
	assert.Contains(t, rec.Body.String(), `"version":"1.2.3"`)

	rec = call(t, h, http.MethodGet, "/images/3001.png", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png", rec.Body.String())
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
