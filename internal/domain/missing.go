package domain

// MissingKind distinguishes regular set parts from minifigure parts
type MissingKind string

const (
	MissingKindPart        MissingKind = "regular-part"
	MissingKindMinifigPart MissingKind = "minifigure-part"
)

// MissingItem is one line of a missing-parts report
type MissingItem struct {
	Kind            MissingKind   `json:"kind"`
	SetNum          string        `json:"set_num"`
	OwnedSetID      int64         `json:"owned_set_id"`
	LineID          int64         `json:"line_id"`
	PartNum         string        `json:"part_num"`
	Name            string        `json:"name"`
	ColorID         int           `json:"color_id"`
	ColorName       string        `json:"color_name"`
	IsSpare         bool          `json:"is_spare"`
	MissingQuantity int           `json:"missing_quantity"`
	ImageURL        string        `json:"image_url"`
	Locations       []StorageSlot `json:"locations"`
}

// MissingQuantity is max(required - have, 0)
func MissingQuantity(required, have int) int {
	if have >= required {
		return 0
	}
	return required - have
}

// InventorySummary is the dashboard overview across owned sets
type InventorySummary struct {
	TotalParts              int `json:"total_parts"`
	MissingParts            int `json:"missing_parts"`
	MissingSpareParts       int `json:"missing_spare_parts"`
	MissingMinifigParts     int `json:"missing_minifig_parts"`
	MissingBulkParts        int `json:"missing_bulk_parts"`
	MissingBulkMinifigParts int `json:"missing_bulk_minifig_parts"`
}
