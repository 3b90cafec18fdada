package domain

import (
	"encoding/json"
	"time"
)

// EntityKind names a catalog collection that can be synced
type EntityKind string

// Catalog entity kinds, listed in dependency order
const (
	KindColors         EntityKind = "colors"
	KindPartCategories EntityKind = "part_categories"
	KindThemes         EntityKind = "themes"
	KindSets           EntityKind = "sets"
	KindParts          EntityKind = "parts"
	KindMinifigs       EntityKind = "minifigs"
	KindSetParts       EntityKind = "set_parts"
	KindSetMinifigs    EntityKind = "set_minifigs"
	KindMinifigParts   EntityKind = "minifig_parts"
)

// AllEntityKinds returns every kind in dependency order
func AllEntityKinds() []EntityKind {
	return []EntityKind{
		KindColors, KindPartCategories, KindThemes, KindSets, KindParts, KindMinifigs,
		KindSetParts, KindSetMinifigs, KindMinifigParts,
	}
}

// IsValid reports whether k is a known kind
func (k EntityKind) IsValid() bool {
	for _, kind := range AllEntityKinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// Scoped reports whether the kind is a composition that must be fetched per
// parent (set or minifigure number).
func (k EntityKind) Scoped() bool {
	return k == KindSetParts || k == KindSetMinifigs || k == KindMinifigParts
}

// UpsertOutcome is what a single upsert did to the stored row
type UpsertOutcome string

const (
	OutcomeInserted  UpsertOutcome = "inserted"
	OutcomeUpdated   UpsertOutcome = "updated"
	OutcomeUnchanged UpsertOutcome = "unchanged"
	OutcomeFailed    UpsertOutcome = "failed"
)

// UpsertResult reports the outcome for one entity of a batch
type UpsertResult struct {
	ExternalID string
	Outcome    UpsertOutcome
	Err        error
}

// Page is one page of raw records from the external catalog.
// An empty NextCursor means the source is exhausted.
type Page struct {
	Records    []json.RawMessage
	NextCursor string
}

// Done reports whether no further pages exist
func (p Page) Done() bool {
	return p.NextCursor == ""
}

// SyncRequest identifies a single sync run
type SyncRequest struct {
	Kind  EntityKind `json:"kind"`
	Scope string     `json:"scope,omitempty"`
	// Cursor overrides the persisted checkpoint when set
	Cursor string `json:"cursor,omitempty"`
	// Restart ignores any persisted checkpoint
	Restart bool `json:"restart,omitempty"`
}

// SyncResult is the report of one sync call
type SyncResult struct {
	Kind      EntityKind `json:"kind"`
	Scope     string     `json:"scope,omitempty"`
	Pages     int        `json:"pages"`
	Inserted  int        `json:"inserted"`
	Updated   int        `json:"updated"`
	Unchanged int        `json:"unchanged"`
	FailedIDs []string   `json:"failed_ids"`
	// ResumableCursor is set when the run stopped before exhaustion. Passing it
	// back resumes after the last committed page.
	ResumableCursor string `json:"resumable_cursor,omitempty"`
	// TransportError describes why the run stopped early
	TransportError string `json:"transport_error,omitempty"`
	Completed      bool   `json:"completed"`
}

// Failed returns the number of records that could not be stored
func (r *SyncResult) Failed() int {
	return len(r.FailedIDs)
}

// SyncBatch is one committed page: the mapped entities plus the cursor that
// follows them. Stores apply a batch atomically.
type SyncBatch struct {
	Kind       EntityKind
	Scope      string
	Entities   []CatalogEntity
	NextCursor string
}

// SyncState is the persisted checkpoint and last-run report for one kind/scope
type SyncState struct {
	Kind         EntityKind `json:"kind" db:"kind"`
	Scope        string     `json:"scope" db:"scope"`
	Cursor       string     `json:"cursor" db:"cursor"`
	Inserted     int        `json:"inserted" db:"inserted"`
	Updated      int        `json:"updated" db:"updated"`
	Failed       int        `json:"failed" db:"failed"`
	Completed    bool       `json:"completed" db:"completed"`
	LastSyncTime time.Time  `json:"last_sync_time" db:"last_sync_time"`
}
