package catalogsync

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"

	"github.com/osse101/BrickManager_Go/internal/domain"
)

// Wire shapes of the catalog source. Pointer fields distinguish a missing
// value from a legitimate zero (color 0 is black).

type colorRecord struct {
	ID      *int   `json:"id" validate:"required,min=-2147483648,max=2147483647"`
	Name    string `json:"name" validate:"required"`
	RGB     string `json:"rgb" validate:"omitempty,hexadecimal,len=6"`
	IsTrans bool   `json:"is_trans"`
}

type categoryRecord struct {
	ID   *int   `json:"id" validate:"required,min=-2147483648,max=2147483647"`
	Name string `json:"name" validate:"required"`
}

type themeRecord struct {
	ID       *int   `json:"id" validate:"required,min=-2147483648,max=2147483647"`
	ParentID *int   `json:"parent_id" validate:"omitempty,min=-2147483648,max=2147483647"`
	Name     string `json:"name" validate:"required"`
}

type setRecord struct {
	SetNum   string `json:"set_num" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Year     int    `json:"year" validate:"gte=0,max=2147483647"`
	ThemeID  *int   `json:"theme_id" validate:"omitempty,min=-2147483648,max=2147483647"`
	NumParts int    `json:"num_parts" validate:"gte=0,max=2147483647"`
	ImageURL string `json:"set_img_url" validate:"omitempty,url"`
}

type partRecord struct {
	PartNum    string `json:"part_num" validate:"required"`
	Name       string `json:"name" validate:"required"`
	CategoryID *int   `json:"part_cat_id" validate:"omitempty,min=-2147483648,max=2147483647"`
	ImageURL   string `json:"part_img_url" validate:"omitempty,url"`
}

// Minifigures are published with set-shaped field names
type minifigRecord struct {
	FigNum   string `json:"set_num" validate:"required"`
	Name     string `json:"name" validate:"required"`
	NumParts int    `json:"num_parts" validate:"gte=0,max=2147483647"`
	ImageURL string `json:"set_img_url" validate:"omitempty,url"`
}

type partRef struct {
	PartNum string `json:"part_num" validate:"required"`
}

type colorRef struct {
	ID *int `json:"id" validate:"required,min=-2147483648,max=2147483647"`
}

type compositionRecord struct {
	Part     *partRef  `json:"part" validate:"required"`
	Color    *colorRef `json:"color" validate:"required"`
	Quantity *int      `json:"quantity" validate:"required,gte=0,max=2147483647"`
	IsSpare  bool      `json:"is_spare"`
}

type setMinifigRecord struct {
	FigNum   string `json:"set_num" validate:"required"`
	Quantity *int   `json:"quantity" validate:"required,gte=0,max=2147483647"`
}

// Mapper turns raw catalog records into entities
type Mapper struct {
	validate *validator.Validate
}

// NewMapper creates a mapper with struct validation enabled
func NewMapper() *Mapper {
	return &Mapper{validate: validator.New()}
}

// Map decodes and validates one record. Any failure wraps
// domain.ErrMalformedRecord.
func (m *Mapper) Map(kind domain.EntityKind, scope string, raw json.RawMessage) (domain.CatalogEntity, error) {
	switch kind {
	case domain.KindColors:
		var r colorRecord
		if err := m.decode(raw, &r); err != nil {
			return nil, err
		}
		return domain.CatalogColor{
			ID:      *r.ID,
			Name:    normalizeText(r.Name),
			RGB:     strings.ToUpper(strings.TrimSpace(r.RGB)),
			IsTrans: r.IsTrans,
		}, nil

	case domain.KindPartCategories:
		var r categoryRecord
		if err := m.decode(raw, &r); err != nil {
			return nil, err
		}
		return domain.PartCategory{ID: *r.ID, Name: normalizeText(r.Name)}, nil

	case domain.KindThemes:
		var r themeRecord
		if err := m.decode(raw, &r); err != nil {
			return nil, err
		}
		return domain.Theme{ID: *r.ID, ParentID: r.ParentID, Name: normalizeText(r.Name)}, nil

	case domain.KindSets:
		var r setRecord
		if err := m.decode(raw, &r); err != nil {
			return nil, err
		}
		return domain.CatalogSet{
			SetNum:   normalizeID(r.SetNum),
			Name:     normalizeText(r.Name),
			Year:     r.Year,
			ThemeID:  r.ThemeID,
			NumParts: r.NumParts,
			ImageURL: strings.TrimSpace(r.ImageURL),
		}, nil

	case domain.KindParts:
		var r partRecord
		if err := m.decode(raw, &r); err != nil {
			return nil, err
		}
		return domain.CatalogPart{
			PartNum:    normalizeID(r.PartNum),
			Name:       normalizeText(r.Name),
			CategoryID: r.CategoryID,
			ImageURL:   strings.TrimSpace(r.ImageURL),
		}, nil

	case domain.KindMinifigs:
		var r minifigRecord
		if err := m.decode(raw, &r); err != nil {
			return nil, err
		}
		return domain.CatalogMinifig{
			FigNum:   normalizeID(r.FigNum),
			Name:     normalizeText(r.Name),
			NumParts: r.NumParts,
			ImageURL: strings.TrimSpace(r.ImageURL),
		}, nil

	case domain.KindSetParts:
		var r compositionRecord
		if err := m.decode(raw, &r); err != nil {
			return nil, err
		}
		return domain.SetPart{
			SetNum:   scope,
			PartNum:  normalizeID(r.Part.PartNum),
			ColorID:  *r.Color.ID,
			Quantity: *r.Quantity,
			IsSpare:  r.IsSpare,
		}, nil

	case domain.KindSetMinifigs:
		var r setMinifigRecord
		if err := m.decode(raw, &r); err != nil {
			return nil, err
		}
		return domain.SetMinifig{
			SetNum:   scope,
			FigNum:   normalizeID(r.FigNum),
			Quantity: *r.Quantity,
		}, nil

	case domain.KindMinifigParts:
		var r compositionRecord
		if err := m.decode(raw, &r); err != nil {
			return nil, err
		}
		return domain.MinifigPart{
			FigNum:   scope,
			PartNum:  normalizeID(r.Part.PartNum),
			ColorID:  *r.Color.ID,
			Quantity: *r.Quantity,
			IsSpare:  r.IsSpare,
		}, nil
	}
	return nil, fmt.Errorf(ErrMsgNoMapper, kind)
}

// embeddedRefs holds the nested part and color objects of a composition row
type embeddedRefs struct {
	Part  json.RawMessage `json:"part"`
	Color json.RawMessage `json:"color"`
}

// Embedded returns the color and part objects carried inside a composition
// record, so their foreign keys resolve even when the parts collection was
// never synced. Nested objects lacking a name are skipped; they cannot be
// stored attribute-complete.
func (m *Mapper) Embedded(kind domain.EntityKind, raw json.RawMessage) (colors, parts []domain.CatalogEntity) {
	if kind != domain.KindSetParts && kind != domain.KindMinifigParts {
		return nil, nil
	}
	var refs embeddedRefs
	if err := json.Unmarshal(raw, &refs); err != nil {
		return nil, nil
	}
	if len(refs.Color) > 0 {
		if c, err := m.Map(domain.KindColors, "", refs.Color); err == nil {
			colors = append(colors, c)
		}
	}
	if len(refs.Part) > 0 {
		if p, err := m.Map(domain.KindParts, "", refs.Part); err == nil {
			parts = append(parts, p)
		}
	}
	return colors, parts
}

func (m *Mapper) decode(raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedRecord, err)
	}
	if err := m.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedRecord, err)
	}
	return nil
}

// normalizeText makes names byte-stable across re-syncs so unchanged
// records compare equal
func normalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func normalizeID(s string) string {
	return strings.TrimSpace(s)
}

// RecordID extracts a best-effort identifier for a record that failed to map,
// falling back to its position on the page.
func RecordID(kind domain.EntityKind, scope string, raw json.RawMessage, page, index int) string {
	var ids struct {
		ID      json.RawMessage `json:"id"`
		PartNum string          `json:"part_num"`
		SetNum  string          `json:"set_num"`
		Part    *partRef        `json:"part"`
	}
	fallback := "page" + strconv.Itoa(page) + "#" + strconv.Itoa(index)
	if err := json.Unmarshal(raw, &ids); err != nil {
		return prefixScope(scope, fallback)
	}

	var id string
	switch {
	case kind == domain.KindSetParts || kind == domain.KindMinifigParts:
		if ids.Part != nil {
			id = ids.Part.PartNum
		}
	case ids.PartNum != "":
		id = ids.PartNum
	case ids.SetNum != "":
		id = ids.SetNum
	case len(ids.ID) > 0 && string(ids.ID) != "null":
		id = strings.Trim(string(ids.ID), `"`)
	}
	if strings.TrimSpace(id) == "" {
		id = fallback
	}
	return prefixScope(scope, strings.TrimSpace(id))
}

func prefixScope(scope, id string) string {
	if scope == "" {
		return id
	}
	return scope + "/" + id
}
