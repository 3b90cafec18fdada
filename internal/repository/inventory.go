package repository

import (
	"context"

	"github.com/osse101/BrickManager_Go/internal/domain"
)

// Inventory defines persistence for owned sets and their children
type Inventory interface {
	// CreateOwnedSet inserts the set and all children in one transaction
	CreateOwnedSet(ctx context.Context, set domain.NewOwnedSet) (*domain.OwnedSetDetail, error)
	GetOwnedSet(ctx context.Context, id int64) (*domain.OwnedSet, error)
	GetOwnedSetDetail(ctx context.Context, id int64) (*domain.OwnedSetDetail, error)
	ListOwnedSets(ctx context.Context) ([]domain.OwnedSet, error)
	UpdateOwnedSetStatus(ctx context.Context, id int64, status domain.SetStatus) error
	// DeleteOwnedSet removes the set and cascades to its children
	DeleteOwnedSet(ctx context.Context, id int64) error

	// Have-quantity mutations. Adjust applies a delta atomically and fails with
	// domain.ErrInvalidQuantity instead of going below zero.
	SetPartHave(ctx context.Context, ownedPartID int64, have int) (*domain.OwnedPart, error)
	AdjustPartHave(ctx context.Context, ownedPartID int64, delta int) (*domain.OwnedPart, error)
	SetMinifigPartHave(ctx context.Context, id int64, have int) (*domain.OwnedMinifigPart, error)
	SetMinifigHave(ctx context.Context, id int64, have int) (*domain.OwnedMinifig, error)

	// ScanOwnedParts returns regular and minifigure part lines joined with
	// set and catalog attributes in a single pass.
	ScanOwnedParts(ctx context.Context, filter domain.OwnedPartFilter) ([]domain.OwnedPartLine, error)
}

// Storage defines persistence for storage slots
type Storage interface {
	// UpsertSlot inserts the slot or, when the (part, color, site, level, box)
	// tuple exists, replaces its notes. The returned bool is true on insert.
	UpsertSlot(ctx context.Context, slot domain.StorageSlot) (*domain.StorageSlot, bool, error)
	// FindSlots returns slots for a part; nil colorID means every color
	FindSlots(ctx context.Context, partNum string, colorID *int) ([]domain.StorageSlot, error)
	// FindSlotsForParts returns slots for many parts keyed by part number
	FindSlotsForParts(ctx context.Context, partNums []string) (map[string][]domain.StorageSlot, error)
	DistinctValues(ctx context.Context, field domain.SlotField, filter domain.SlotFilter) ([]string, error)
	BoxContents(ctx context.Context, filter domain.SlotFilter) ([]domain.BoxItem, error)
	DeleteSlot(ctx context.Context, slotID int64) error
}
