package domain

import (
	"strconv"
	"time"
)

// CatalogColor is a color as published by the external catalog
type CatalogColor struct {
	ID        int       `json:"id" db:"color_id"`
	Name      string    `json:"name" db:"name"`
	RGB       string    `json:"rgb" db:"rgb"`
	IsTrans   bool      `json:"is_trans" db:"is_trans"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PartCategory groups catalog parts (bricks, plates, tiles, ...)
type PartCategory struct {
	ID        int       `json:"id" db:"category_id"`
	Name      string    `json:"name" db:"name"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Theme is a product line. Sub-themes point at their parent; the parent is
// not required to be stored first.
type Theme struct {
	ID        int       `json:"id" db:"theme_id"`
	ParentID  *int      `json:"parent_id,omitempty" db:"parent_id"`
	Name      string    `json:"name" db:"name"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CatalogPart is a single part mold. CategoryID is optional because the
// catalog occasionally publishes parts before their category.
type CatalogPart struct {
	PartNum    string    `json:"part_num" db:"part_num"`
	Name       string    `json:"name" db:"name"`
	CategoryID *int      `json:"category_id,omitempty" db:"category_id"`
	ImageURL   string    `json:"image_url,omitempty" db:"image_url"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// CatalogSet is a set template. Its part list lives in SetPart rows.
type CatalogSet struct {
	SetNum    string    `json:"set_num" db:"set_num"`
	Name      string    `json:"name" db:"name"`
	Year      int       `json:"year" db:"year"`
	NumParts  int       `json:"num_parts" db:"num_parts"`
	ThemeID   *int      `json:"theme_id,omitempty" db:"theme_id"`
	ImageURL  string    `json:"image_url,omitempty" db:"image_url"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CatalogMinifig is a minifigure template. Its composition lives in
// MinifigPart rows.
type CatalogMinifig struct {
	FigNum    string    `json:"fig_num" db:"fig_num"`
	Name      string    `json:"name" db:"name"`
	NumParts  int       `json:"num_parts" db:"num_parts"`
	ImageURL  string    `json:"image_url,omitempty" db:"image_url"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SetPart is one line of a set's part list
type SetPart struct {
	SetNum   string `json:"set_num" db:"set_num"`
	PartNum  string `json:"part_num" db:"part_num"`
	ColorID  int    `json:"color_id" db:"color_id"`
	Quantity int    `json:"quantity" db:"quantity"`
	IsSpare  bool   `json:"is_spare" db:"is_spare"`
}

// SetMinifig is one line of a set's minifigure list
type SetMinifig struct {
	SetNum   string `json:"set_num" db:"set_num"`
	FigNum   string `json:"fig_num" db:"fig_num"`
	Quantity int    `json:"quantity" db:"quantity"`
}

// MinifigPart is one line of a minifigure's composition
type MinifigPart struct {
	FigNum   string `json:"fig_num" db:"fig_num"`
	PartNum  string `json:"part_num" db:"part_num"`
	ColorID  int    `json:"color_id" db:"color_id"`
	Quantity int    `json:"quantity" db:"quantity"`
	IsSpare  bool   `json:"is_spare" db:"is_spare"`
}

// CatalogEntity is any record the sync engine can upsert.
// ExternalID identifies the record inside its kind and is what ends up in
// SyncResult.FailedIDs.
type CatalogEntity interface {
	Kind() EntityKind
	ExternalID() string
}

func (CatalogColor) Kind() EntityKind   { return KindColors }
func (PartCategory) Kind() EntityKind   { return KindPartCategories }
func (Theme) Kind() EntityKind          { return KindThemes }
func (CatalogPart) Kind() EntityKind    { return KindParts }
func (CatalogSet) Kind() EntityKind     { return KindSets }
func (CatalogMinifig) Kind() EntityKind { return KindMinifigs }
func (SetPart) Kind() EntityKind        { return KindSetParts }
func (SetMinifig) Kind() EntityKind     { return KindSetMinifigs }
func (MinifigPart) Kind() EntityKind    { return KindMinifigParts }

func (c CatalogColor) ExternalID() string   { return strconv.Itoa(c.ID) }
func (c PartCategory) ExternalID() string   { return strconv.Itoa(c.ID) }
func (t Theme) ExternalID() string          { return strconv.Itoa(t.ID) }
func (p CatalogPart) ExternalID() string    { return p.PartNum }
func (s CatalogSet) ExternalID() string     { return s.SetNum }
func (m CatalogMinifig) ExternalID() string { return m.FigNum }

func (p SetPart) ExternalID() string {
	return compositionKey(p.SetNum, p.PartNum, p.ColorID, p.IsSpare)
}

func (m SetMinifig) ExternalID() string { return m.SetNum + "/" + m.FigNum }

func (p MinifigPart) ExternalID() string {
	return compositionKey(p.FigNum, p.PartNum, p.ColorID, p.IsSpare)
}

func compositionKey(parent, partNum string, colorID int, spare bool) string {
	key := parent + "/" + partNum + "/" + strconv.Itoa(colorID)
	if spare {
		key += "/spare"
	}
	return key
}
