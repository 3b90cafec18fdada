package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/osse101/BrickManager_Go/internal/domain"
)

// slotKey is the uniqueness key of a slot; a nil color is its own value
func slotKey(partNum string, colorID *int, site, level, box string) string {
	color := "null"
	if colorID != nil {
		color = strconv.Itoa(*colorID)
	}
	return fmt.Sprintf("%s\x00%s\x00%s\x00%s\x00%s", partNum, color, site, level, box)
}

func slotLess(a, b domain.StorageSlot) bool {
	if a.Site != b.Site {
		return a.Site < b.Site
	}
	if a.Level != b.Level {
		return a.Level < b.Level
	}
	if a.Box != b.Box {
		return a.Box < b.Box
	}
	if (a.ColorID == nil) != (b.ColorID == nil) {
		return a.ColorID == nil
	}
	if a.ColorID != nil && *a.ColorID != *b.ColorID {
		return *a.ColorID < *b.ColorID
	}
	return a.ID < b.ID
}

func matchesSlotFilter(s domain.StorageSlot, f domain.SlotFilter) bool {
	return (f.Site == "" || s.Site == f.Site) &&
		(f.Level == "" || s.Level == f.Level) &&
		(f.Box == "" || s.Box == f.Box)
}

// UpsertSlot inserts a slot or replaces the notes of the matching tuple
func (s *Store) UpsertSlot(_ context.Context, slot domain.StorageSlot) (*domain.StorageSlot, bool, error) {
	if slot.Site == "" || slot.Level == "" || slot.Box == "" {
		return nil, false, domain.ErrEmptyLocation
	}
	if err := domain.CheckStoredIntPtr("color_id", slot.ColorID); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requirePart(slot.PartNum); err != nil {
		return nil, false, err
	}
	if slot.ColorID != nil {
		if err := s.requireColor(*slot.ColorID); err != nil {
			return nil, false, err
		}
	}

	now := s.now()
	key := slotKey(slot.PartNum, slot.ColorID, slot.Site, slot.Level, slot.Box)
	if id, ok := s.slotIndex[key]; ok {
		existing := s.slots[id]
		existing.Notes = slot.Notes
		existing.UpdatedAt = now
		s.slots[id] = existing
		return &existing, false, nil
	}

	slot.ID = s.id()
	slot.CreatedAt, slot.UpdatedAt = now, now
	s.slots[slot.ID] = slot
	s.slotIndex[key] = slot.ID
	return &slot, true, nil
}

// FindSlots returns a part's slots ordered by site, level and box
func (s *Store) FindSlots(_ context.Context, partNum string, colorID *int) ([]domain.StorageSlot, error) {
	if err := domain.CheckStoredIntPtr("color_id", colorID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.StorageSlot{}
	for _, slot := range s.slots {
		if slot.PartNum != partNum {
			continue
		}
		if colorID != nil && (slot.ColorID == nil || *slot.ColorID != *colorID) {
			continue
		}
		out = append(out, slot)
	}
	sort.Slice(out, func(i, j int) bool { return slotLess(out[i], out[j]) })
	return out, nil
}

// FindSlotsForParts returns slots for many parts keyed by part number
func (s *Store) FindSlotsForParts(_ context.Context, partNums []string) (map[string][]domain.StorageSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]struct{}, len(partNums))
	for _, p := range partNums {
		wanted[p] = struct{}{}
	}

	out := make(map[string][]domain.StorageSlot)
	for _, slot := range s.slots {
		if _, ok := wanted[slot.PartNum]; ok {
			out[slot.PartNum] = append(out[slot.PartNum], slot)
		}
	}
	for _, slots := range out {
		sort.Slice(slots, func(i, j int) bool { return slotLess(slots[i], slots[j]) })
	}
	return out, nil
}

// DistinctValues lists the sorted unique values of one location field
func (s *Store) DistinctValues(_ context.Context, field domain.SlotField, filter domain.SlotFilter) ([]string, error) {
	if !field.IsValid() {
		return nil, domain.ErrInvalidField
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, slot := range s.slots {
		if !matchesSlotFilter(slot, filter) {
			continue
		}
		switch field {
		case domain.SlotFieldSite:
			seen[slot.Site] = struct{}{}
		case domain.SlotFieldLevel:
			seen[slot.Level] = struct{}{}
		case domain.SlotFieldBox:
			seen[slot.Box] = struct{}{}
		}
	}

	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values, nil
}

// BoxContents lists the parts at the filtered location with catalog names
func (s *Store) BoxContents(_ context.Context, filter domain.SlotFilter) ([]domain.BoxItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := []domain.BoxItem{}
	for _, slot := range s.slots {
		if !matchesSlotFilter(slot, filter) {
			continue
		}
		part := s.parts[slot.PartNum]
		item := domain.BoxItem{StorageSlot: slot, PartName: part.Name, ImageURL: part.ImageURL}
		if slot.ColorID != nil {
			item.ColorName = s.colors[*slot.ColorID].Name
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i].StorageSlot, items[j].StorageSlot
		if a.Site == b.Site && a.Level == b.Level && a.Box == b.Box && a.PartNum != b.PartNum {
			return a.PartNum < b.PartNum
		}
		return slotLess(a, b)
	})
	return items, nil
}

// DeleteSlot removes a slot by ID
func (s *Store) DeleteSlot(_ context.Context, slotID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[slotID]
	if !ok {
		return domain.ErrSlotNotFound
	}
	delete(s.slots, slotID)
	delete(s.slotIndex, slotKey(slot.PartNum, slot.ColorID, slot.Site, slot.Level, slot.Box))
	return nil
}
