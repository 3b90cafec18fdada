package catalogsync

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/osse101/BrickManager_Go/internal/domain"
)

var errUpstream = errors.New("upstream unavailable")

// scriptedFetcher serves fixed pages per kind/scope. Page i is requested with
// cursor "" for i == 0 and strconv.Itoa(i+1) otherwise.
type scriptedFetcher struct {
	mu    sync.Mutex
	pages map[string][][]string
	fail  map[string]int
	calls map[string]int
}

func newScriptedFetcher() *scriptedFetcher {
	return &scriptedFetcher{
		pages: make(map[string][][]string),
		fail:  make(map[string]int),
		calls: make(map[string]int),
	}
}

func fetchKey(kind domain.EntityKind, scope, cursor string) string {
	return string(kind) + "|" + scope + "|" + cursor
}

func (f *scriptedFetcher) add(kind domain.EntityKind, scope string, pages ...[]string) {
	f.pages[string(kind)+"|"+scope] = pages
}

// failNext makes the next n fetches of that cursor fail
func (f *scriptedFetcher) failNext(kind domain.EntityKind, scope, cursor string, n int) {
	f.fail[fetchKey(kind, scope, cursor)] = n
}

func (f *scriptedFetcher) callsFor(kind domain.EntityKind, scope, cursor string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[fetchKey(kind, scope, cursor)]
}

func (f *scriptedFetcher) FetchPage(_ context.Context, kind domain.EntityKind, scope, cursor string) (domain.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := fetchKey(kind, scope, cursor)
	f.calls[key]++
	if f.fail[key] > 0 {
		f.fail[key]--
		return domain.Page{}, errUpstream
	}

	pages := f.pages[string(kind)+"|"+scope]
	idx := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return domain.Page{}, err
		}
		idx = n - 1
	}
	if idx >= len(pages) {
		return domain.Page{}, nil
	}

	page := domain.Page{}
	for _, rec := range pages[idx] {
		page.Records = append(page.Records, json.RawMessage(rec))
	}
	if idx+1 < len(pages) {
		page.NextCursor = strconv.Itoa(idx + 2)
	}
	return page, nil
}

// MockFetcher is a testify mock for PageFetcher
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchPage(ctx context.Context, kind domain.EntityKind, scope, cursor string) (domain.Page, error) {
	args := m.Called(ctx, kind, scope, cursor)
	return args.Get(0).(domain.Page), args.Error(1)
}

// stallingFetcher ignores its context and never answers in time
type stallingFetcher struct {
	release chan struct{}
}

func (f *stallingFetcher) FetchPage(_ context.Context, _ domain.EntityKind, _, _ string) (domain.Page, error) {
	<-f.release
	return domain.Page{}, nil
}
