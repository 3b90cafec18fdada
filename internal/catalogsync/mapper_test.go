package catalogsync

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/BrickManager_Go/internal/domain"
)

func TestMapper_Map(t *testing.T) {
	m := NewMapper()
	five := 5
	eleven := 11
	space := 130
	starWars := 158

	tests := []struct {
		name  string
		kind  domain.EntityKind
		scope string
		raw   string
		want  domain.CatalogEntity
	}{
		{
			name: "color",
			kind: domain.KindColors,
			raw:  `{"id":5,"name":" Red ","rgb":"c91a09","is_trans":false}`,
			want: domain.CatalogColor{ID: 5, Name: "Red", RGB: "C91A09"},
		},
		{
			name: "black is color zero",
			kind: domain.KindColors,
			raw:  `{"id":0,"name":"Black","rgb":"05131D","is_trans":false}`,
			want: domain.CatalogColor{ID: 0, Name: "Black", RGB: "05131D"},
		},
		{
			name: "category",
			kind: domain.KindPartCategories,
			raw:  `{"id":11,"name":"Bricks","part_count":1234}`,
			want: domain.PartCategory{ID: 11, Name: "Bricks"},
		},
		{
			name: "top level theme",
			kind: domain.KindThemes,
			raw:  `{"id":130,"parent_id":null,"name":"Space"}`,
			want: domain.Theme{ID: 130, Name: "Space"},
		},
		{
			name: "sub theme",
			kind: domain.KindThemes,
			raw:  `{"id":158,"parent_id":130,"name":"Star Wars"}`,
			want: domain.Theme{ID: 158, ParentID: &space, Name: "Star Wars"},
		},
		{
			name: "set",
			kind: domain.KindSets,
			raw:  `{"set_num":"7140-1","name":"X-wing Fighter","year":1999,"theme_id":158,"num_parts":263,"set_img_url":"https://cdn.rebrickable.com/media/sets/7140-1.jpg"}`,
			want: domain.CatalogSet{SetNum: "7140-1", Name: "X-wing Fighter", Year: 1999, ThemeID: &starWars, NumParts: 263, ImageURL: "https://cdn.rebrickable.com/media/sets/7140-1.jpg"},
		},
		{
			name: "part without category",
			kind: domain.KindParts,
			raw:  `{"part_num":"3001","name":"Brick 2 x 4","part_cat_id":null,"part_img_url":null}`,
			want: domain.CatalogPart{PartNum: "3001", Name: "Brick 2 x 4"},
		},
		{
			name: "part",
			kind: domain.KindParts,
			raw:  `{"part_num":"3001","name":"Brick 2 x 4","part_cat_id":11}`,
			want: domain.CatalogPart{PartNum: "3001", Name: "Brick 2 x 4", CategoryID: &eleven},
		},
		{
			name: "minifig",
			kind: domain.KindMinifigs,
			raw:  `{"set_num":"fig-000001","name":"Luke Skywalker","num_parts":4}`,
			want: domain.CatalogMinifig{FigNum: "fig-000001", Name: "Luke Skywalker", NumParts: 4},
		},
		{
			name:  "set part takes parent from scope",
			kind:  domain.KindSetParts,
			scope: "7140-1",
			raw:   `{"id":1,"part":{"part_num":"3001","name":"Brick 2 x 4"},"color":{"id":5,"name":"Red"},"set_num":"7140-1","quantity":4,"is_spare":false}`,
			want:  domain.SetPart{SetNum: "7140-1", PartNum: "3001", ColorID: five, Quantity: 4},
		},
		{
			name:  "set minifig",
			kind:  domain.KindSetMinifigs,
			scope: "7140-1",
			raw:   `{"id":9,"set_num":"fig-000001","set_name":"Luke","quantity":2}`,
			want:  domain.SetMinifig{SetNum: "7140-1", FigNum: "fig-000001", Quantity: 2},
		},
		{
			name:  "minifig part spare",
			kind:  domain.KindMinifigParts,
			scope: "fig-000001",
			raw:   `{"part":{"part_num":"3626c"},"color":{"id":15},"quantity":1,"is_spare":true}`,
			want:  domain.MinifigPart{FigNum: "fig-000001", PartNum: "3626c", ColorID: 15, Quantity: 1, IsSpare: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Map(tt.kind, tt.scope, json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMapper_Map_Malformed(t *testing.T) {
	m := NewMapper()

	tests := []struct {
		name string
		kind domain.EntityKind
		raw  string
	}{
		{"invalid json", domain.KindColors, `{"id":`},
		{"color missing id", domain.KindColors, `{"name":"Red"}`},
		{"color bad rgb", domain.KindColors, `{"id":5,"name":"Red","rgb":"not-hex"}`},
		{"category missing name", domain.KindPartCategories, `{"id":11}`},
		{"theme missing id", domain.KindThemes, `{"name":"Space"}`},
		{"theme id beyond int4", domain.KindThemes, `{"id":2147483648,"name":"Space"}`},
		{"set missing number", domain.KindSets, `{"name":"X"}`},
		{"set bad image url", domain.KindSets, `{"set_num":"1-1","name":"X","set_img_url":"not a url"}`},
		{"part wrong type", domain.KindParts, `{"part_num":3001,"name":"Brick"}`},
		{"composition missing color", domain.KindSetParts, `{"part":{"part_num":"3001"},"quantity":1}`},
		{"composition negative quantity", domain.KindSetParts, `{"part":{"part_num":"3001"},"color":{"id":5},"quantity":-1}`},
		{"composition missing quantity", domain.KindMinifigParts, `{"part":{"part_num":"3001"},"color":{"id":5}}`},
		{"set minifig missing fig", domain.KindSetMinifigs, `{"quantity":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Map(tt.kind, "scope", json.RawMessage(tt.raw))
			assert.ErrorIs(t, err, domain.ErrMalformedRecord)
		})
	}
}

func TestMapper_NormalizesUnicode(t *testing.T) {
	m := NewMapper()

	// "e" followed by a combining acute accent composes to a single rune
	got, err := m.Map(domain.KindPartCategories, "", json.RawMessage(`{"id":1,"name":"Cafe\u0301 "}`))
	require.NoError(t, err)
	assert.Equal(t, "Caf\u00e9", got.(domain.PartCategory).Name)
}

func TestRecordID(t *testing.T) {
	tests := []struct {
		name  string
		kind  domain.EntityKind
		scope string
		raw   string
		want  string
	}{
		{"numeric id", domain.KindColors, "", `{"id":7}`, "7"},
		{"part number", domain.KindParts, "", `{"part_num":"3001"}`, "3001"},
		{"set number", domain.KindSets, "", `{"set_num":"7140-1"}`, "7140-1"},
		{"composition uses nested part", domain.KindSetParts, "7140-1", `{"id":99,"part":{"part_num":"3001"}}`, "7140-1/3001"},
		{"unparseable falls back to position", domain.KindColors, "", `{"id":`, "page2#4"},
		{"no identifying field", domain.KindColors, "", `{"name":"x"}`, "page2#4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RecordID(tt.kind, tt.scope, json.RawMessage(tt.raw), 2, 4))
		})
	}
}

func TestMapper_Embedded(t *testing.T) {
	m := NewMapper()
	cat := 11

	colors, parts := m.Embedded(domain.KindSetParts, json.RawMessage(
		`{"part":{"part_num":"3001","name":"Brick 2 x 4","part_cat_id":11},"color":{"id":0,"name":"Black","rgb":"05131D"},"quantity":2}`))
	require.Len(t, colors, 1)
	require.Len(t, parts, 1)
	assert.Equal(t, domain.CatalogColor{ID: 0, Name: "Black", RGB: "05131D"}, colors[0])
	assert.Equal(t, domain.CatalogPart{PartNum: "3001", Name: "Brick 2 x 4", CategoryID: &cat}, parts[0])

	// References without a name are not attribute-complete
	colors, parts = m.Embedded(domain.KindMinifigParts, json.RawMessage(
		`{"part":{"part_num":"3626c"},"color":{"id":15},"quantity":1}`))
	assert.Empty(t, colors)
	assert.Empty(t, parts)

	colors, parts = m.Embedded(domain.KindSetMinifigs, json.RawMessage(`{"set_num":"fig-000001","quantity":1}`))
	assert.Empty(t, colors)
	assert.Empty(t, parts)
}
