package domain

import "time"

// SetStatus is the lifecycle state of an owned set
type SetStatus string

const (
	StatusUnknown  SetStatus = "unknown"
	StatusBuilding SetStatus = "building"
	StatusBuilt    SetStatus = "built"
	StatusStored   SetStatus = "stored"
	StatusDisposed SetStatus = "disposed"
	// StatusBulk marks a loose lot of parts bought as a set
	StatusBulk SetStatus = "bulk"
)

// IsValid reports whether s is a known status
func (s SetStatus) IsValid() bool {
	switch s {
	case StatusUnknown, StatusBuilding, StatusBuilt, StatusStored, StatusDisposed, StatusBulk:
		return true
	}
	return false
}

// OwnedSet is a physical copy of a catalog set
type OwnedSet struct {
	ID        int64     `json:"id" db:"owned_set_id"`
	SetNum    string    `json:"set_num" db:"set_num"`
	Status    SetStatus `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// OwnedPart tracks how many of one template line the owner has found.
// HaveQuantity may exceed RequiredQuantity.
type OwnedPart struct {
	ID               int64  `json:"id" db:"owned_part_id"`
	OwnedSetID       int64  `json:"owned_set_id" db:"owned_set_id"`
	PartNum          string `json:"part_num" db:"part_num"`
	ColorID          int    `json:"color_id" db:"color_id"`
	RequiredQuantity int    `json:"required_quantity" db:"required_quantity"`
	HaveQuantity     int    `json:"have_quantity" db:"have_quantity"`
	IsSpare          bool   `json:"is_spare" db:"is_spare"`
}

// OwnedMinifig is a minifigure instance inside an owned set
type OwnedMinifig struct {
	ID           int64  `json:"id" db:"owned_minifig_id"`
	OwnedSetID   int64  `json:"owned_set_id" db:"owned_set_id"`
	FigNum       string `json:"fig_num" db:"fig_num"`
	Quantity     int    `json:"quantity" db:"quantity"`
	HaveQuantity int    `json:"have_quantity" db:"have_quantity"`
}

// OwnedMinifigPart is analogous to OwnedPart, scoped to a minifigure
type OwnedMinifigPart struct {
	ID               int64  `json:"id" db:"owned_minifig_part_id"`
	OwnedMinifigID   int64  `json:"owned_minifig_id" db:"owned_minifig_id"`
	OwnedSetID       int64  `json:"owned_set_id" db:"owned_set_id"`
	PartNum          string `json:"part_num" db:"part_num"`
	ColorID          int    `json:"color_id" db:"color_id"`
	RequiredQuantity int    `json:"required_quantity" db:"required_quantity"`
	HaveQuantity     int    `json:"have_quantity" db:"have_quantity"`
	IsSpare          bool   `json:"is_spare" db:"is_spare"`
}

// OwnedSetDetail is an owned set with all of its children
type OwnedSetDetail struct {
	OwnedSet
	Parts        []OwnedPart        `json:"parts"`
	Minifigs     []OwnedMinifig     `json:"minifigs"`
	MinifigParts []OwnedMinifigPart `json:"minifig_parts"`
}

// NewOwnedSet is everything needed to register a set in one transaction.
// Minifig parts reference their minifig by index into Minifigs.
type NewOwnedSet struct {
	SetNum       string
	Status       SetStatus
	Parts        []OwnedPart
	Minifigs     []OwnedMinifig
	MinifigParts []NewOwnedMinifigPart
}

// NewOwnedMinifigPart is a minifig part pending insertion
type NewOwnedMinifigPart struct {
	MinifigIndex int
	OwnedMinifigPart
}

// OwnedPartLine is a denormalized row used by reconciliation scans: an owned
// regular or minifigure part joined with its set and catalog attributes.
type OwnedPartLine struct {
	Kind             MissingKind
	LineID           int64
	OwnedSetID       int64
	SetNum           string
	SetStatus        SetStatus
	PartNum          string
	PartName         string
	ColorID          int
	ColorName        string
	ImageURL         string
	RequiredQuantity int
	HaveQuantity     int
	IsSpare          bool
}

// OwnedPartFilter narrows a reconciliation scan
type OwnedPartFilter struct {
	OwnedSetID      *int64
	Statuses        []SetStatus
	ExcludeStatuses []SetStatus
}
