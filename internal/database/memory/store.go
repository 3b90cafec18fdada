// Package memory provides in-process implementations of every repository
// interface. It enforces the same uniqueness and reference rules as the
// Postgres schema and is safe for concurrent use.
package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/osse101/BrickManager_Go/internal/domain"
	"github.com/osse101/BrickManager_Go/internal/repository"
)

type syncKey struct {
	kind  domain.EntityKind
	scope string
}

// Store holds catalog, inventory, storage and sync state behind one lock so
// cross-entity reference checks see a consistent snapshot
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	colors       map[int]domain.CatalogColor
	categories   map[int]domain.PartCategory
	themes       map[int]domain.Theme
	parts        map[string]domain.CatalogPart
	sets         map[string]domain.CatalogSet
	minifigs     map[string]domain.CatalogMinifig
	setParts     map[string]domain.SetPart
	setMinifigs  map[string]domain.SetMinifig
	minifigParts map[string]domain.MinifigPart
	syncStates   map[syncKey]domain.SyncState

	nextID            int64
	ownedSets         map[int64]domain.OwnedSet
	ownedParts        map[int64]domain.OwnedPart
	ownedMinifigs     map[int64]domain.OwnedMinifig
	ownedMinifigParts map[int64]domain.OwnedMinifigPart

	slots     map[int64]domain.StorageSlot
	slotIndex map[string]int64
}

var (
	_ repository.Catalog   = (*Store)(nil)
	_ repository.SyncState = (*Store)(nil)
	_ repository.Inventory = (*Store)(nil)
	_ repository.Storage   = (*Store)(nil)
)

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		now:               time.Now,
		colors:            make(map[int]domain.CatalogColor),
		categories:        make(map[int]domain.PartCategory),
		themes:            make(map[int]domain.Theme),
		parts:             make(map[string]domain.CatalogPart),
		sets:              make(map[string]domain.CatalogSet),
		minifigs:          make(map[string]domain.CatalogMinifig),
		setParts:          make(map[string]domain.SetPart),
		setMinifigs:       make(map[string]domain.SetMinifig),
		minifigParts:      make(map[string]domain.MinifigPart),
		syncStates:        make(map[syncKey]domain.SyncState),
		ownedSets:         make(map[int64]domain.OwnedSet),
		ownedParts:        make(map[int64]domain.OwnedPart),
		ownedMinifigs:     make(map[int64]domain.OwnedMinifig),
		ownedMinifigParts: make(map[int64]domain.OwnedMinifigPart),
		slots:             make(map[int64]domain.StorageSlot),
		slotIndex:         make(map[string]int64),
	}
}

// id returns the next identifier; caller holds the write lock
func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func missingRef(what string, id any) error {
	return fmt.Errorf("%w: %s %v is not present", domain.ErrNotFound, what, id)
}

func (s *Store) requirePart(partNum string) error {
	if _, ok := s.parts[partNum]; !ok {
		return missingRef("part", partNum)
	}
	return nil
}

func (s *Store) requireColor(id int) error {
	if _, ok := s.colors[id]; !ok {
		return missingRef("color", id)
	}
	return nil
}

func (s *Store) requireSet(setNum string) error {
	if _, ok := s.sets[setNum]; !ok {
		return missingRef("set", setNum)
	}
	return nil
}

func (s *Store) requireMinifig(figNum string) error {
	if _, ok := s.minifigs[figNum]; !ok {
		return missingRef("minifigure", figNum)
	}
	return nil
}

func requireQuantity(q int) error {
	if q < 0 {
		return domain.ErrInvalidQuantity
	}
	return nil
}
