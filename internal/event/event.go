package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/osse101/BrickManager_Go/internal/domain"
	"github.com/osse101/BrickManager_Go/internal/logger"
)

// Type represents the type of an event
type Type string

// Metadata defines the type for event metadata
type Metadata interface{}

// Event represents a generic event in the system
type Event struct {
	Version  string      `json:"version"` // Event schema version (e.g., "1.0")
	Type     Type        `json:"type"`
	Payload  interface{} `json:"payload"`
	Metadata Metadata    `json:"metadata"`
}

// GetMetadataValue extracts a value from the event metadata safely
func (e Event) GetMetadataValue(key string) interface{} {
	if m, ok := e.Metadata.(map[string]interface{}); ok {
		return m[key]
	}
	return nil
}

// Common event types
const (
	SyncFinished        Type = "sync.finished"
	OwnedSetAdded       Type = "inventory.set_added"
	OwnedSetRemoved     Type = "inventory.set_removed"
	StorageSlotAssigned Type = "storage.slot_assigned"
	StorageSlotRemoved  Type = "storage.slot_removed"
	ListPushed          Type = "push.list_pushed"
)

// Typed event payloads for type safety

// SyncFinishedPayloadV1 reports one sync call, complete or stopped early
type SyncFinishedPayloadV1 struct {
	Kind      domain.EntityKind `json:"kind"`
	Scope     string            `json:"scope,omitempty"`
	Pages     int               `json:"pages"`
	Inserted  int               `json:"inserted"`
	Updated   int               `json:"updated"`
	Unchanged int               `json:"unchanged"`
	Failed    int               `json:"failed"`
	Completed bool              `json:"completed"`
	Transport bool              `json:"transport_failure"`
}

// OwnedSetPayloadV1 describes an owned set that was added or removed
type OwnedSetPayloadV1 struct {
	OwnedSetID   int64  `json:"owned_set_id"`
	SetNum       string `json:"set_num"`
	PartLines    int    `json:"part_lines"`
	MinifigLines int    `json:"minifig_lines"`
}

// StorageSlotPayloadV1 describes a storage assignment
type StorageSlotPayloadV1 struct {
	SlotID   int64  `json:"slot_id"`
	PartNum  string `json:"part_num"`
	Location string `json:"location"`
	Inserted bool   `json:"inserted"`
}

// ListPushedPayloadV1 counts the line writes of one list push
type ListPushedPayloadV1 struct {
	Target  domain.PushTarget `json:"target"`
	ListID  int64             `json:"list_id"`
	Added   int               `json:"added"`
	Updated int               `json:"updated"`
	Removed int               `json:"removed"`
	Failed  int               `json:"failed"`
}

// NewSyncFinishedEvent creates a sync finished event from a result
func NewSyncFinishedEvent(res domain.SyncResult) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    SyncFinished,
		Payload: SyncFinishedPayloadV1{
			Kind:      res.Kind,
			Scope:     res.Scope,
			Pages:     res.Pages,
			Inserted:  res.Inserted,
			Updated:   res.Updated,
			Unchanged: res.Unchanged,
			Failed:    res.Failed(),
			Completed: res.Completed,
			Transport: res.TransportError != "",
		},
	}
}

// NewOwnedSetAddedEvent creates a set added event
func NewOwnedSetAddedEvent(detail *domain.OwnedSetDetail) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    OwnedSetAdded,
		Payload: OwnedSetPayloadV1{
			OwnedSetID:   detail.ID,
			SetNum:       detail.SetNum,
			PartLines:    len(detail.Parts),
			MinifigLines: len(detail.MinifigParts),
		},
	}
}

// NewOwnedSetRemovedEvent creates a set removed event
func NewOwnedSetRemovedEvent(set *domain.OwnedSet) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    OwnedSetRemoved,
		Payload: OwnedSetPayloadV1{
			OwnedSetID: set.ID,
			SetNum:     set.SetNum,
		},
	}
}

// NewStorageSlotAssignedEvent creates a slot assigned event
func NewStorageSlotAssignedEvent(slot *domain.StorageSlot, inserted bool) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    StorageSlotAssigned,
		Payload: StorageSlotPayloadV1{
			SlotID:   slot.ID,
			PartNum:  slot.PartNum,
			Location: slot.Site + "/" + slot.Level + "/" + slot.Box,
			Inserted: inserted,
		},
	}
}

// NewStorageSlotRemovedEvent creates a slot removed event
func NewStorageSlotRemovedEvent(slotID int64) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    StorageSlotRemoved,
		Payload: StorageSlotPayloadV1{SlotID: slotID},
	}
}

// NewListPushedEvent creates a list pushed event from a result
func NewListPushedEvent(res *domain.PushResult) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    ListPushed,
		Payload: ListPushedPayloadV1{
			Target:  res.Target,
			ListID:  res.ListID,
			Added:   res.Added,
			Updated: res.Updated,
			Removed: res.Removed,
			Failed:  len(res.Failed),
		},
	}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish publishes an event to all subscribers.
// Handlers run synchronously in subscription order. An event without
// metadata gets the request ID of ctx, so subscribers can correlate it with
// the API call that caused it.
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers, ok := b.handlers[event.Type]
	b.mu.RUnlock()

	if !ok {
		return nil
	}

	if event.Metadata == nil {
		if id, found := logger.RequestIDFromContext(ctx); found {
			event.Metadata = map[string]interface{}{MetadataKeyRequestID: id}
		}
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf(ErrMsgHandlersFailed, len(errs), len(handlers), event.Type, errs)
	}

	return nil
}

// Subscribe subscribes a handler to an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
