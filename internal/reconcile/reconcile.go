// Package reconcile compares template quantities against owned quantities
// and reports what is still missing and where to look for it.
package reconcile

import (
	"context"
	"sort"
	"time"

	"github.com/osse101/BrickManager_Go/internal/domain"
	"github.com/osse101/BrickManager_Go/internal/logger"
	"github.com/osse101/BrickManager_Go/internal/metrics"
	"github.com/osse101/BrickManager_Go/internal/repository"
)

// ImageResolver maps a remote image URL to the reference clients should use
type ImageResolver interface {
	Resolve(ctx context.Context, url string) string
}

// Filter narrows MissingAll
type Filter struct {
	Statuses        []domain.SetStatus
	ExcludeStatuses []domain.SetStatus
	// IncludeSpares defaults to true when nil
	IncludeSpares *bool
}

func (f Filter) includeSpares() bool {
	return f.IncludeSpares == nil || *f.IncludeSpares
}

// Statuses whose parts are not expected to be gathered; the summary leaves
// them out of the open counts
var settledStatuses = map[domain.SetStatus]bool{
	domain.StatusBuilt:    true,
	domain.StatusBulk:     true,
	domain.StatusDisposed: true,
}

// Service defines the missing-parts computations
type Service interface {
	MissingForSet(ctx context.Context, ownedSetID int64) ([]domain.MissingItem, error)
	MissingAll(ctx context.Context, filter Filter) ([]domain.MissingItem, error)
	Summary(ctx context.Context) (*domain.InventorySummary, error)
}

type service struct {
	inventory repository.Inventory
	storage   repository.Storage
	images    ImageResolver
}

// NewService creates the reconciliation service. images may be nil, in which
// case catalog image URLs are returned untouched.
func NewService(inventory repository.Inventory, storage repository.Storage, images ImageResolver) Service {
	return &service{inventory: inventory, storage: storage, images: images}
}

// MissingForSet reports the missing lines of one owned set. An unknown set is
// an error, never an empty report.
func (s *service) MissingForSet(ctx context.Context, ownedSetID int64) ([]domain.MissingItem, error) {
	start := time.Now()
	defer func() {
		metrics.ReconcileDuration.WithLabelValues(metrics.ScopeSet).Observe(time.Since(start).Seconds())
	}()

	if _, err := s.inventory.GetOwnedSet(ctx, ownedSetID); err != nil {
		return nil, err
	}
	lines, err := s.inventory.ScanOwnedParts(ctx, domain.OwnedPartFilter{OwnedSetID: &ownedSetID})
	if err != nil {
		return nil, err
	}
	items, err := s.build(ctx, lines, true)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Debug(LogMsgMissingComputed, logger.AttrKeyOwnedSetID, ownedSetID, "lines", len(lines), "missing", len(items))
	return items, nil
}

// MissingAll reports missing lines across every owned set matching filter,
// ordered by set number then part number
func (s *service) MissingAll(ctx context.Context, filter Filter) ([]domain.MissingItem, error) {
	start := time.Now()
	defer func() {
		metrics.ReconcileDuration.WithLabelValues(metrics.ScopeAll).Observe(time.Since(start).Seconds())
	}()

	for _, st := range append(append([]domain.SetStatus{}, filter.Statuses...), filter.ExcludeStatuses...) {
		if !st.IsValid() {
			return nil, domain.ErrInvalidStatus
		}
	}

	lines, err := s.inventory.ScanOwnedParts(ctx, domain.OwnedPartFilter{
		Statuses:        filter.Statuses,
		ExcludeStatuses: filter.ExcludeStatuses,
	})
	if err != nil {
		return nil, err
	}
	items, err := s.build(ctx, lines, filter.includeSpares())
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Debug(LogMsgMissingComputed, "lines", len(lines), "missing", len(items))
	return items, nil
}

// build keeps lines with something missing, attaches every storage slot of
// the part using one lookup for the whole scan and sorts the result
func (s *service) build(ctx context.Context, lines []domain.OwnedPartLine, includeSpares bool) ([]domain.MissingItem, error) {
	items := make([]domain.MissingItem, 0)
	partSet := make(map[string]struct{})
	for _, l := range lines {
		missing := domain.MissingQuantity(l.RequiredQuantity, l.HaveQuantity)
		if missing == 0 || (l.IsSpare && !includeSpares) {
			continue
		}
		partSet[l.PartNum] = struct{}{}
		items = append(items, domain.MissingItem{
			Kind:            l.Kind,
			SetNum:          l.SetNum,
			OwnedSetID:      l.OwnedSetID,
			LineID:          l.LineID,
			PartNum:         l.PartNum,
			Name:            l.PartName,
			ColorID:         l.ColorID,
			ColorName:       l.ColorName,
			IsSpare:         l.IsSpare,
			MissingQuantity: missing,
			ImageURL:        l.ImageURL,
		})
	}
	if len(items) == 0 {
		return items, nil
	}

	partNums := make([]string, 0, len(partSet))
	for p := range partSet {
		partNums = append(partNums, p)
	}
	sort.Strings(partNums)

	slots, err := s.storage.FindSlotsForParts(ctx, partNums)
	if err != nil {
		return nil, err
	}

	for i := range items {
		items[i].Locations = slots[items[i].PartNum]
		if items[i].Locations == nil {
			items[i].Locations = []domain.StorageSlot{}
		}
		if s.images != nil {
			items[i].ImageURL = s.images.Resolve(ctx, items[i].ImageURL)
		}
	}

	sortItems(items)
	return items, nil
}

func sortItems(items []domain.MissingItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.SetNum != b.SetNum {
			return a.SetNum < b.SetNum
		}
		if a.PartNum != b.PartNum {
			return a.PartNum < b.PartNum
		}
		if a.OwnedSetID != b.OwnedSetID {
			return a.OwnedSetID < b.OwnedSetID
		}
		if a.Kind != b.Kind {
			return a.Kind == domain.MissingKindPart
		}
		if a.ColorID != b.ColorID {
			return a.ColorID < b.ColorID
		}
		return a.LineID < b.LineID
	})
}

// Summary computes the dashboard totals in a single scan. Sets that are
// built, disposed or bulk are left out of the open counts; bulk sets are
// reported on their own.
func (s *service) Summary(ctx context.Context) (*domain.InventorySummary, error) {
	start := time.Now()
	defer func() {
		metrics.ReconcileDuration.WithLabelValues(metrics.ScopeSummary).Observe(time.Since(start).Seconds())
	}()

	lines, err := s.inventory.ScanOwnedParts(ctx, domain.OwnedPartFilter{})
	if err != nil {
		return nil, err
	}

	sum := &domain.InventorySummary{}
	for _, l := range lines {
		missing := domain.MissingQuantity(l.RequiredQuantity, l.HaveQuantity)

		if l.SetStatus == domain.StatusBulk {
			if l.Kind == domain.MissingKindMinifigPart {
				sum.MissingBulkMinifigParts += missing
			} else {
				sum.MissingBulkParts += missing
			}
			continue
		}
		if settledStatuses[l.SetStatus] {
			continue
		}

		if l.Kind == domain.MissingKindMinifigPart {
			sum.MissingMinifigParts += missing
			continue
		}
		sum.TotalParts += l.HaveQuantity
		sum.MissingParts += missing
		if l.IsSpare {
			sum.MissingSpareParts += missing
		}
	}

	logger.FromContext(ctx).Debug(LogMsgSummaryComputed, "lines", len(lines))
	return sum, nil
}
