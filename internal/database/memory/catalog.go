package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/osse101/BrickManager_Go/internal/domain"
)

// ApplyBatch upserts every entity and advances the checkpoint under one lock
func (s *Store) ApplyBatch(ctx context.Context, batch domain.SyncBatch) ([]domain.UpsertResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]domain.UpsertResult, 0, len(batch.Entities))
	for _, entity := range batch.Entities {
		res := domain.UpsertResult{ExternalID: entity.ExternalID()}
		outcome, err := s.upsert(entity)
		if err != nil {
			res.Outcome = domain.OutcomeFailed
			res.Err = err
		} else {
			res.Outcome = outcome
		}
		results = append(results, res)
	}

	key := syncKey{batch.Kind, batch.Scope}
	state := s.syncStates[key]
	state.Kind, state.Scope = batch.Kind, batch.Scope
	state.Cursor = batch.NextCursor
	state.Completed = batch.NextCursor == ""
	state.LastSyncTime = s.now()
	s.syncStates[key] = state

	return results, nil
}

// upsert stores one entity; caller holds the write lock
func (s *Store) upsert(entity domain.CatalogEntity) (domain.UpsertOutcome, error) {
	now := s.now()
	switch e := entity.(type) {
	case domain.CatalogColor:
		old, ok := s.colors[e.ID]
		if ok && old.Name == e.Name && old.RGB == e.RGB && old.IsTrans == e.IsTrans {
			return domain.OutcomeUnchanged, nil
		}
		e.UpdatedAt = now
		s.colors[e.ID] = e
		return outcome(ok), nil

	case domain.PartCategory:
		old, ok := s.categories[e.ID]
		if ok && old.Name == e.Name {
			return domain.OutcomeUnchanged, nil
		}
		e.UpdatedAt = now
		s.categories[e.ID] = e
		return outcome(ok), nil

	case domain.Theme:
		old, ok := s.themes[e.ID]
		if ok && old.Name == e.Name && equalIntPtr(old.ParentID, e.ParentID) {
			return domain.OutcomeUnchanged, nil
		}
		e.UpdatedAt = now
		s.themes[e.ID] = e
		return outcome(ok), nil

	case domain.CatalogPart:
		if e.CategoryID != nil {
			if _, found := s.categories[*e.CategoryID]; !found {
				return domain.OutcomeFailed, missingRef("part category", *e.CategoryID)
			}
		}
		old, ok := s.parts[e.PartNum]
		if ok && old.Name == e.Name && old.ImageURL == e.ImageURL && equalIntPtr(old.CategoryID, e.CategoryID) {
			return domain.OutcomeUnchanged, nil
		}
		e.UpdatedAt = now
		s.parts[e.PartNum] = e
		return outcome(ok), nil

	case domain.CatalogSet:
		if e.ThemeID != nil {
			if _, found := s.themes[*e.ThemeID]; !found {
				return domain.OutcomeFailed, missingRef("theme", *e.ThemeID)
			}
		}
		old, ok := s.sets[e.SetNum]
		if ok && old.Name == e.Name && old.Year == e.Year && old.NumParts == e.NumParts && old.ImageURL == e.ImageURL &&
			equalIntPtr(old.ThemeID, e.ThemeID) {
			return domain.OutcomeUnchanged, nil
		}
		e.UpdatedAt = now
		s.sets[e.SetNum] = e
		return outcome(ok), nil

	case domain.CatalogMinifig:
		old, ok := s.minifigs[e.FigNum]
		if ok && old.Name == e.Name && old.NumParts == e.NumParts && old.ImageURL == e.ImageURL {
			return domain.OutcomeUnchanged, nil
		}
		e.UpdatedAt = now
		s.minifigs[e.FigNum] = e
		return outcome(ok), nil

	case domain.SetPart:
		if err := firstErr(s.requireSet(e.SetNum), s.requirePart(e.PartNum), s.requireColor(e.ColorID), requireQuantity(e.Quantity)); err != nil {
			return domain.OutcomeFailed, err
		}
		key := e.ExternalID()
		old, ok := s.setParts[key]
		if ok && old.Quantity == e.Quantity {
			return domain.OutcomeUnchanged, nil
		}
		s.setParts[key] = e
		return outcome(ok), nil

	case domain.SetMinifig:
		if err := firstErr(s.requireSet(e.SetNum), s.requireMinifig(e.FigNum), requireQuantity(e.Quantity)); err != nil {
			return domain.OutcomeFailed, err
		}
		key := e.ExternalID()
		old, ok := s.setMinifigs[key]
		if ok && old.Quantity == e.Quantity {
			return domain.OutcomeUnchanged, nil
		}
		s.setMinifigs[key] = e
		return outcome(ok), nil

	case domain.MinifigPart:
		if err := firstErr(s.requireMinifig(e.FigNum), s.requirePart(e.PartNum), s.requireColor(e.ColorID), requireQuantity(e.Quantity)); err != nil {
			return domain.OutcomeFailed, err
		}
		key := e.ExternalID()
		old, ok := s.minifigParts[key]
		if ok && old.Quantity == e.Quantity {
			return domain.OutcomeUnchanged, nil
		}
		s.minifigParts[key] = e
		return outcome(ok), nil
	}
	return domain.OutcomeFailed, fmt.Errorf("%w: unsupported catalog entity %T", domain.ErrValidation, entity)
}

func outcome(existed bool) domain.UpsertOutcome {
	if existed {
		return domain.OutcomeUpdated
	}
	return domain.OutcomeInserted
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// GetColor retrieves a color by ID
func (s *Store) GetColor(_ context.Context, id int) (*domain.CatalogColor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.colors[id]
	if !ok {
		return nil, domain.ErrColorNotFound
	}
	return &c, nil
}

// GetCategory retrieves a part category by ID
func (s *Store) GetCategory(_ context.Context, id int) (*domain.PartCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, fmt.Errorf("part category %w", domain.ErrNotFound)
	}
	return &c, nil
}

// GetTheme retrieves a theme by ID
func (s *Store) GetTheme(_ context.Context, id int) (*domain.Theme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.themes[id]
	if !ok {
		return nil, domain.ErrThemeNotFound
	}
	return &t, nil
}

// GetPart retrieves a part by number
func (s *Store) GetPart(_ context.Context, partNum string) (*domain.CatalogPart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.parts[partNum]
	if !ok {
		return nil, domain.ErrPartNotFound
	}
	return &p, nil
}

// GetSet retrieves a set template by number
func (s *Store) GetSet(_ context.Context, setNum string) (*domain.CatalogSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.sets[setNum]
	if !ok {
		return nil, domain.ErrSetNotFound
	}
	return &set, nil
}

// GetMinifig retrieves a minifigure template by number
func (s *Store) GetMinifig(_ context.Context, figNum string) (*domain.CatalogMinifig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.minifigs[figNum]
	if !ok {
		return nil, domain.ErrMinifigNotFound
	}
	return &m, nil
}

// ListSetParts returns a set's part list ordered by part, color and spare flag
func (s *Store) ListSetParts(_ context.Context, setNum string) ([]domain.SetPart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.SetPart
	for _, p := range s.setParts {
		if p.SetNum == setNum {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return partLess(out[i].PartNum, out[i].ColorID, out[i].IsSpare, out[j].PartNum, out[j].ColorID, out[j].IsSpare)
	})
	return out, nil
}

// ListSetMinifigs returns a set's minifigure list ordered by figure number
func (s *Store) ListSetMinifigs(_ context.Context, setNum string) ([]domain.SetMinifig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.SetMinifig
	for _, m := range s.setMinifigs {
		if m.SetNum == setNum {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FigNum < out[j].FigNum })
	return out, nil
}

// ListMinifigParts returns a minifigure's composition
func (s *Store) ListMinifigParts(_ context.Context, figNum string) ([]domain.MinifigPart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.MinifigPart
	for _, p := range s.minifigParts {
		if p.FigNum == figNum {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return partLess(out[i].PartNum, out[i].ColorID, out[i].IsSpare, out[j].PartNum, out[j].ColorID, out[j].IsSpare)
	})
	return out, nil
}

func partLess(aPart string, aColor int, aSpare bool, bPart string, bColor int, bSpare bool) bool {
	if aPart != bPart {
		return aPart < bPart
	}
	if aColor != bColor {
		return aColor < bColor
	}
	return !aSpare && bSpare
}

// ListColors returns every color ordered by ID
func (s *Store) ListColors(_ context.Context) ([]domain.CatalogColor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CatalogColor, 0, len(s.colors))
	for _, c := range s.colors {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListCategories returns every part category ordered by ID
func (s *Store) ListCategories(_ context.Context) ([]domain.PartCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.PartCategory, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListThemes returns every theme ordered by ID
func (s *Store) ListThemes(_ context.Context) ([]domain.Theme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Theme, 0, len(s.themes))
	for _, t := range s.themes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListSets returns every set template ordered by number
func (s *Store) ListSets(_ context.Context) ([]domain.CatalogSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CatalogSet, 0, len(s.sets))
	for _, set := range s.sets {
		out = append(out, set)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SetNum < out[j].SetNum })
	return out, nil
}

// GetSyncState returns the checkpoint for a kind and scope, or nil
func (s *Store) GetSyncState(_ context.Context, kind domain.EntityKind, scope string) (*domain.SyncState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.syncStates[syncKey{kind, scope}]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

// RecordSyncRun stores run counters, keeping the checkpoint cursor
func (s *Store) RecordSyncRun(_ context.Context, state domain.SyncState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := syncKey{state.Kind, state.Scope}
	cur := s.syncStates[key]
	cur.Kind, cur.Scope = state.Kind, state.Scope
	cur.Inserted, cur.Updated, cur.Failed = state.Inserted, state.Updated, state.Failed
	cur.Completed = state.Completed
	cur.LastSyncTime = s.now()
	s.syncStates[key] = cur
	return nil
}

// ListSyncStates returns every checkpoint ordered by kind and scope
func (s *Store) ListSyncStates(_ context.Context) ([]domain.SyncState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.SyncState, 0, len(s.syncStates))
	for _, st := range s.syncStates {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Scope < out[j].Scope
	})
	return out, nil
}

// ClearCheckpoint resets the cursor of a kind and scope
func (s *Store) ClearCheckpoint(_ context.Context, kind domain.EntityKind, scope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := syncKey{kind, scope}
	if st, ok := s.syncStates[key]; ok {
		st.Cursor = ""
		st.Completed = false
		s.syncStates[key] = st
	}
	return nil
}
