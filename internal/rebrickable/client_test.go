package rebrickable

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/BrickManager_Go/internal/domain"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:    baseURL,
		APIKey:     "secret",
		PageSize:   2,
		RPS:        1000,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	})
}

func TestFetchPage_Pagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/colors/", r.URL.Path)
		assert.Equal(t, "key secret", r.Header.Get(HeaderAuthorization))
		assert.Equal(t, "2", r.URL.Query().Get("page_size"))

		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{"count":3,"next":"http://x/colors/?page=2","results":[{"id":0},{"id":5}]}`)
		case "2":
			fmt.Fprint(w, `{"count":3,"next":null,"results":[{"id":15}]}`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	defer srv.Close()
	c := newTestClient(srv.URL)
	ctx := context.Background()

	first, err := c.FetchPage(ctx, domain.KindColors, "", "")
	require.NoError(t, err)
	assert.Len(t, first.Records, 2)
	assert.Equal(t, "2", first.NextCursor)

	second, err := c.FetchPage(ctx, domain.KindColors, "", first.NextCursor)
	require.NoError(t, err)
	assert.Len(t, second.Records, 1)
	assert.True(t, second.Done())
}

func TestFetchPage_InvalidPageIsExhaustion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"detail":"Invalid page."}`)
	}))
	defer srv.Close()

	page, err := newTestClient(srv.URL).FetchPage(context.Background(), domain.KindSets, "", "9")
	require.NoError(t, err)
	assert.Empty(t, page.Records)
	assert.True(t, page.Done())
}

func TestFetchPage_NotFoundIsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"detail":"Not found."}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchPage(context.Background(), domain.KindSetParts, "0000-1", "")
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestFetchPage_RetriesRateLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set(HeaderRetryAfter, "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"count":1,"next":null,"results":[{"id":11,"name":"Bricks"}]}`)
	}))
	defer srv.Close()

	page, err := newTestClient(srv.URL).FetchPage(context.Background(), domain.KindPartCategories, "", "")
	require.NoError(t, err)
	assert.Len(t, page.Records, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetchPage_GivesUpOnServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchPage(context.Background(), domain.KindParts, "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchPage_InvalidCursor(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1")
	_, err := c.FetchPage(context.Background(), domain.KindColors, "", "abc")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = c.FetchPage(context.Background(), domain.KindColors, "", "0")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFetchPage_HonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestClient(srv.URL).FetchPage(ctx, domain.KindColors, "", "")
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		kind  domain.EntityKind
		scope string
		want  string
	}{
		{domain.KindColors, "", "colors/"},
		{domain.KindPartCategories, "", "part_categories/"},
		{domain.KindThemes, "", "themes/"},
		{domain.KindSets, "", "sets/"},
		{domain.KindParts, "", "parts/"},
		{domain.KindMinifigs, "", "minifigs/"},
		{domain.KindSetParts, "7140-1", "sets/7140-1/parts/"},
		{domain.KindSetMinifigs, "7140-1", "sets/7140-1/minifigs/"},
		{domain.KindMinifigParts, "fig-000001", "minifigs/fig-000001/parts/"},
		{domain.KindSetParts, "a/b", "sets/a%2Fb/parts/"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got, err := Endpoint(tt.kind, tt.scope)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Endpoint("bogus", "")
	assert.ErrorIs(t, err, domain.ErrInvalidKind)
}
