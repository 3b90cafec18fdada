package domain

import "time"

// StorageSlot is a physical place where a part (optionally in one color) is kept.
// (PartNum, ColorID, Site, Level, Box) is unique; a nil ColorID only matches
// other nil-color slots.
type StorageSlot struct {
	ID        int64     `json:"id" db:"slot_id"`
	PartNum   string    `json:"part_num" db:"part_num"`
	ColorID   *int      `json:"color_id,omitempty" db:"color_id"`
	Site      string    `json:"site" db:"site"`
	Level     string    `json:"level" db:"level"`
	Box       string    `json:"box" db:"box"`
	Notes     string    `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SlotField is a location column that can be listed distinctly
type SlotField string

const (
	SlotFieldSite  SlotField = "site"
	SlotFieldLevel SlotField = "level"
	SlotFieldBox   SlotField = "box"
)

// IsValid reports whether f is a listable field
func (f SlotField) IsValid() bool {
	return f == SlotFieldSite || f == SlotFieldLevel || f == SlotFieldBox
}

// SlotFilter narrows distinct-value and box queries. Empty fields match anything.
type SlotFilter struct {
	Site  string `json:"site,omitempty"`
	Level string `json:"level,omitempty"`
	Box   string `json:"box,omitempty"`
}

// BoxItem is one part stored in a box
type BoxItem struct {
	StorageSlot
	PartName  string `json:"part_name"`
	ColorName string `json:"color_name,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
}
