package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/osse101/BrickManager_Go/internal/domain"
)

var errOwnedMinifigNotFound = fmt.Errorf("owned minifigure %w", domain.ErrNotFound)

// CreateOwnedSet validates every reference before inserting anything, so a
// failure leaves the store untouched
func (s *Store) CreateOwnedSet(_ context.Context, set domain.NewOwnedSet) (*domain.OwnedSetDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireSet(set.SetNum); err != nil {
		return nil, err
	}
	for _, p := range set.Parts {
		if err := firstErr(s.requirePart(p.PartNum), s.requireColor(p.ColorID),
			requireQuantity(p.RequiredQuantity), requireQuantity(p.HaveQuantity)); err != nil {
			return nil, err
		}
	}
	for _, m := range set.Minifigs {
		if err := firstErr(s.requireMinifig(m.FigNum), requireQuantity(m.Quantity), requireQuantity(m.HaveQuantity)); err != nil {
			return nil, err
		}
	}
	for _, mp := range set.MinifigParts {
		if mp.MinifigIndex < 0 || mp.MinifigIndex >= len(set.Minifigs) {
			return nil, fmt.Errorf("%w: minifigure index %d out of range", domain.ErrValidation, mp.MinifigIndex)
		}
		if err := firstErr(s.requirePart(mp.PartNum), s.requireColor(mp.ColorID),
			requireQuantity(mp.RequiredQuantity), requireQuantity(mp.HaveQuantity)); err != nil {
			return nil, err
		}
	}

	now := s.now()
	owned := domain.OwnedSet{ID: s.id(), SetNum: set.SetNum, Status: set.Status, CreatedAt: now, UpdatedAt: now}
	s.ownedSets[owned.ID] = owned

	detail := domain.OwnedSetDetail{
		OwnedSet:     owned,
		Parts:        make([]domain.OwnedPart, 0, len(set.Parts)),
		Minifigs:     make([]domain.OwnedMinifig, 0, len(set.Minifigs)),
		MinifigParts: make([]domain.OwnedMinifigPart, 0, len(set.MinifigParts)),
	}
	for _, p := range set.Parts {
		p.ID, p.OwnedSetID = s.id(), owned.ID
		s.ownedParts[p.ID] = p
		detail.Parts = append(detail.Parts, p)
	}
	for _, m := range set.Minifigs {
		m.ID, m.OwnedSetID = s.id(), owned.ID
		s.ownedMinifigs[m.ID] = m
		detail.Minifigs = append(detail.Minifigs, m)
	}
	for _, mp := range set.MinifigParts {
		p := mp.OwnedMinifigPart
		p.ID, p.OwnedSetID, p.OwnedMinifigID = s.id(), owned.ID, detail.Minifigs[mp.MinifigIndex].ID
		s.ownedMinifigParts[p.ID] = p
		detail.MinifigParts = append(detail.MinifigParts, p)
	}
	return &detail, nil
}

// GetOwnedSet retrieves an owned set without its children
func (s *Store) GetOwnedSet(_ context.Context, id int64) (*domain.OwnedSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.ownedSets[id]
	if !ok {
		return nil, domain.ErrOwnedSetNotFound
	}
	return &set, nil
}

// GetOwnedSetDetail retrieves an owned set with its children ordered by ID
func (s *Store) GetOwnedSetDetail(_ context.Context, id int64) (*domain.OwnedSetDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.ownedSets[id]
	if !ok {
		return nil, domain.ErrOwnedSetNotFound
	}
	detail := domain.OwnedSetDetail{
		OwnedSet:     set,
		Parts:        []domain.OwnedPart{},
		Minifigs:     []domain.OwnedMinifig{},
		MinifigParts: []domain.OwnedMinifigPart{},
	}
	for _, pid := range sortedKeys(s.ownedParts) {
		if p := s.ownedParts[pid]; p.OwnedSetID == id {
			detail.Parts = append(detail.Parts, p)
		}
	}
	for _, mid := range sortedKeys(s.ownedMinifigs) {
		if m := s.ownedMinifigs[mid]; m.OwnedSetID == id {
			detail.Minifigs = append(detail.Minifigs, m)
		}
	}
	for _, pid := range sortedKeys(s.ownedMinifigParts) {
		if p := s.ownedMinifigParts[pid]; p.OwnedSetID == id {
			detail.MinifigParts = append(detail.MinifigParts, p)
		}
	}
	return &detail, nil
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ListOwnedSets returns every owned set ordered by ID
func (s *Store) ListOwnedSets(_ context.Context) ([]domain.OwnedSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.OwnedSet, 0, len(s.ownedSets))
	for _, id := range sortedKeys(s.ownedSets) {
		out = append(out, s.ownedSets[id])
	}
	return out, nil
}

// UpdateOwnedSetStatus changes the status of an owned set
func (s *Store) UpdateOwnedSetStatus(_ context.Context, id int64, status domain.SetStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.ownedSets[id]
	if !ok {
		return domain.ErrOwnedSetNotFound
	}
	set.Status = status
	set.UpdatedAt = s.now()
	s.ownedSets[id] = set
	return nil
}

// DeleteOwnedSet removes an owned set and all of its children
func (s *Store) DeleteOwnedSet(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ownedSets[id]; !ok {
		return domain.ErrOwnedSetNotFound
	}
	delete(s.ownedSets, id)
	for pid, p := range s.ownedParts {
		if p.OwnedSetID == id {
			delete(s.ownedParts, pid)
		}
	}
	for mid, m := range s.ownedMinifigs {
		if m.OwnedSetID == id {
			delete(s.ownedMinifigs, mid)
		}
	}
	for pid, p := range s.ownedMinifigParts {
		if p.OwnedSetID == id {
			delete(s.ownedMinifigParts, pid)
		}
	}
	return nil
}

// SetPartHave sets the absolute have quantity of an owned part
func (s *Store) SetPartHave(_ context.Context, ownedPartID int64, have int) (*domain.OwnedPart, error) {
	if have < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if err := domain.CheckStoredInt("have", have); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.ownedParts[ownedPartID]
	if !ok {
		return nil, domain.ErrOwnedPartNotFound
	}
	p.HaveQuantity = have
	s.ownedParts[ownedPartID] = p
	return &p, nil
}

// AdjustPartHave adds delta to the have quantity, refusing to go negative
func (s *Store) AdjustPartHave(_ context.Context, ownedPartID int64, delta int) (*domain.OwnedPart, error) {
	if err := domain.CheckStoredInt("delta", delta); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.ownedParts[ownedPartID]
	if !ok {
		return nil, domain.ErrOwnedPartNotFound
	}
	if p.HaveQuantity+delta < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if err := domain.CheckStoredInt("have", p.HaveQuantity+delta); err != nil {
		return nil, err
	}
	p.HaveQuantity += delta
	s.ownedParts[ownedPartID] = p
	return &p, nil
}

// SetMinifigPartHave sets the absolute have quantity of an owned minifigure part
func (s *Store) SetMinifigPartHave(_ context.Context, id int64, have int) (*domain.OwnedMinifigPart, error) {
	if have < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if err := domain.CheckStoredInt("have", have); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.ownedMinifigParts[id]
	if !ok {
		return nil, domain.ErrOwnedPartNotFound
	}
	p.HaveQuantity = have
	s.ownedMinifigParts[id] = p
	return &p, nil
}

// SetMinifigHave sets how many of a minifigure are complete
func (s *Store) SetMinifigHave(_ context.Context, id int64, have int) (*domain.OwnedMinifig, error) {
	if have < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if err := domain.CheckStoredInt("have", have); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.ownedMinifigs[id]
	if !ok {
		return nil, errOwnedMinifigNotFound
	}
	m.HaveQuantity = have
	s.ownedMinifigs[id] = m
	return &m, nil
}

// ScanOwnedParts returns every owned part line matching the filter, joined
// with catalog names and ordered by set number then part number
func (s *Store) ScanOwnedParts(_ context.Context, filter domain.OwnedPartFilter) ([]domain.OwnedPartLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := []domain.OwnedPartLine{}
	line := func(kind domain.MissingKind, id, setID int64, partNum string, colorID, required, have int, spare bool) {
		set := s.ownedSets[setID]
		if !matchesFilter(set, filter) {
			return
		}
		lines = append(lines, domain.OwnedPartLine{
			Kind:             kind,
			LineID:           id,
			OwnedSetID:       setID,
			SetNum:           set.SetNum,
			SetStatus:        set.Status,
			PartNum:          partNum,
			PartName:         s.parts[partNum].Name,
			ColorID:          colorID,
			ColorName:        s.colors[colorID].Name,
			ImageURL:         s.parts[partNum].ImageURL,
			RequiredQuantity: required,
			HaveQuantity:     have,
			IsSpare:          spare,
		})
	}

	for _, id := range sortedKeys(s.ownedParts) {
		p := s.ownedParts[id]
		line(domain.MissingKindPart, p.ID, p.OwnedSetID, p.PartNum, p.ColorID, p.RequiredQuantity, p.HaveQuantity, p.IsSpare)
	}
	for _, id := range sortedKeys(s.ownedMinifigParts) {
		p := s.ownedMinifigParts[id]
		line(domain.MissingKindMinifigPart, p.ID, p.OwnedSetID, p.PartNum, p.ColorID, p.RequiredQuantity, p.HaveQuantity, p.IsSpare)
	}

	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].SetNum != lines[j].SetNum {
			return lines[i].SetNum < lines[j].SetNum
		}
		return lines[i].PartNum < lines[j].PartNum
	})
	return lines, nil
}

func matchesFilter(set domain.OwnedSet, filter domain.OwnedPartFilter) bool {
	if filter.OwnedSetID != nil && set.ID != *filter.OwnedSetID {
		return false
	}
	if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, set.Status) {
		return false
	}
	return !slices.Contains(filter.ExcludeStatuses, set.Status)
}
