package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/osse101/BrickManager_Go/internal/domain"
	"github.com/osse101/BrickManager_Go/internal/event"
	"github.com/osse101/BrickManager_Go/internal/logger"
	"github.com/osse101/BrickManager_Go/internal/repository"
)

// Location is the physical (site, level, box) triple
type Location struct {
	Site  string `json:"site"`
	Level string `json:"level"`
	Box   string `json:"box"`
}

func (l Location) normalized() Location {
	return Location{
		Site:  strings.TrimSpace(l.Site),
		Level: strings.TrimSpace(l.Level),
		Box:   strings.TrimSpace(l.Box),
	}
}

func (l Location) complete() bool {
	return l.Site != "" && l.Level != "" && l.Box != ""
}

// ImageResolver maps a remote image URL to the reference clients should use
type ImageResolver interface {
	Resolve(ctx context.Context, url string) string
}

// Service defines the storage location manager
type Service interface {
	// Assign upserts the slot for (part, color, location); an existing slot
	// only has its notes replaced
	Assign(ctx context.Context, partNum string, colorID *int, loc Location, notes string) (*domain.StorageSlot, error)
	// Find lists a part's slots ordered by site, level and box; nil colorID
	// means every color
	Find(ctx context.Context, partNum string, colorID *int) ([]domain.StorageSlot, error)
	ListDistinct(ctx context.Context, field domain.SlotField, filter domain.SlotFilter) ([]string, error)
	BoxContents(ctx context.Context, loc Location) ([]domain.BoxItem, error)
	Remove(ctx context.Context, slotID int64) error
}

type service struct {
	repo    repository.Storage
	catalog repository.Catalog
	bus     event.Bus
	images  ImageResolver
}

// NewService creates the storage service. bus and images may be nil.
func NewService(repo repository.Storage, catalog repository.Catalog, bus event.Bus, images ImageResolver) Service {
	return &service{repo: repo, catalog: catalog, bus: bus, images: images}
}

func (s *service) Assign(ctx context.Context, partNum string, colorID *int, loc Location, notes string) (*domain.StorageSlot, error) {
	partNum = strings.TrimSpace(partNum)
	if partNum == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, ErrMsgPartNumRequired)
	}
	loc = loc.normalized()
	if !loc.complete() {
		return nil, domain.ErrEmptyLocation
	}
	if err := domain.CheckStoredIntPtr("color_id", colorID); err != nil {
		return nil, err
	}

	slot, inserted, err := s.repo.UpsertSlot(ctx, domain.StorageSlot{
		PartNum: partNum,
		ColorID: colorID,
		Site:    loc.Site,
		Level:   loc.Level,
		Box:     loc.Box,
		Notes:   strings.TrimSpace(notes),
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info(LogMsgSlotAssigned,
		logger.AttrKeySlotID, slot.ID,
		logger.AttrKeyPartNum, partNum,
		"site", loc.Site,
		"level", loc.Level,
		"box", loc.Box,
		"inserted", inserted)
	s.publish(ctx, event.NewStorageSlotAssignedEvent(slot, inserted))
	return slot, nil
}

// Find reports an unknown part as not found rather than as an empty list
func (s *service) Find(ctx context.Context, partNum string, colorID *int) ([]domain.StorageSlot, error) {
	partNum = strings.TrimSpace(partNum)
	if partNum == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, ErrMsgPartNumRequired)
	}
	if err := domain.CheckStoredIntPtr("color_id", colorID); err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetPart(ctx, partNum); err != nil {
		return nil, err
	}
	if colorID != nil {
		if _, err := s.catalog.GetColor(ctx, *colorID); err != nil {
			return nil, err
		}
	}
	return s.repo.FindSlots(ctx, partNum, colorID)
}

// ListDistinct drives cascading pickers: sites, then levels of a site, then
// boxes of a level
func (s *service) ListDistinct(ctx context.Context, field domain.SlotField, filter domain.SlotFilter) ([]string, error) {
	if !field.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidField, field)
	}
	filter = domain.SlotFilter{
		Site:  strings.TrimSpace(filter.Site),
		Level: strings.TrimSpace(filter.Level),
		Box:   strings.TrimSpace(filter.Box),
	}
	return s.repo.DistinctValues(ctx, field, filter)
}

func (s *service) BoxContents(ctx context.Context, loc Location) ([]domain.BoxItem, error) {
	loc = loc.normalized()
	if !loc.complete() {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyLocation, ErrMsgBoxRequired)
	}
	items, err := s.repo.BoxContents(ctx, domain.SlotFilter{Site: loc.Site, Level: loc.Level, Box: loc.Box})
	if err != nil {
		return nil, err
	}
	if s.images != nil {
		for i := range items {
			items[i].ImageURL = s.images.Resolve(ctx, items[i].ImageURL)
		}
	}
	return items, nil
}

func (s *service) Remove(ctx context.Context, slotID int64) error {
	if err := s.repo.DeleteSlot(ctx, slotID); err != nil {
		return err
	}
	logger.FromContext(ctx).Info(LogMsgSlotRemoved, logger.AttrKeySlotID, slotID)
	s.publish(ctx, event.NewStorageSlotRemovedEvent(slotID))
	return nil
}

func (s *service) publish(ctx context.Context, evt event.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, evt); err != nil {
		logger.FromContext(ctx).Warn(LogMsgFailedToPublishEvent, "type", evt.Type, "error", err)
	}
}
