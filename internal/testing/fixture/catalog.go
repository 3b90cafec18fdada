// Package fixture seeds stores with a small, fully synced catalog for tests.
package fixture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/osse101/BrickManager_Go/internal/domain"
	"github.com/osse101/BrickManager_Go/internal/repository"
)

// Identifiers used by the seeded catalog
const (
	SetNum     = "7140-1"
	FigNum     = "fig-000001"
	BrickPart  = "3001"
	HeadPart   = "3626c"
	PlatePart  = "3020"
	Red        = 5
	White      = 15
	BrickCatID = 11
	SpaceTheme = 130
	StarWars   = 158
)

// CategoryID returns a pointer to the bricks category id
func CategoryID() *int {
	id := BrickCatID
	return &id
}

// ThemeID returns a pointer to the Star Wars theme id
func ThemeID() *int {
	id := StarWars
	return &id
}

// Batches returns the seed catalog in dependency order. Set 7140-1 needs
// four red 3001 bricks, one spare white 3020 plate and two fig-000001
// minifigures, each made of one white 3626c head.
func Batches() []domain.SyncBatch {
	return []domain.SyncBatch{
		{Kind: domain.KindColors, Entities: []domain.CatalogEntity{
			domain.CatalogColor{ID: Red, Name: "Red", RGB: "C91A09"},
			domain.CatalogColor{ID: White, Name: "White", RGB: "FFFFFF"},
		}},
		{Kind: domain.KindPartCategories, Entities: []domain.CatalogEntity{
			domain.PartCategory{ID: BrickCatID, Name: "Bricks"},
		}},
		{Kind: domain.KindThemes, Entities: []domain.CatalogEntity{
			domain.Theme{ID: SpaceTheme, Name: "Space"},
			domain.Theme{ID: StarWars, Name: "Star Wars", ParentID: intPtr(SpaceTheme)},
		}},
		{Kind: domain.KindSets, Entities: []domain.CatalogEntity{
			domain.CatalogSet{SetNum: SetNum, Name: "X-wing Fighter", Year: 1999, NumParts: 263, ThemeID: ThemeID(), ImageURL: "https://cdn.rebrickable.com/media/sets/7140-1.jpg"},
		}},
		{Kind: domain.KindParts, Entities: []domain.CatalogEntity{
			domain.CatalogPart{PartNum: BrickPart, Name: "Brick 2 x 4", CategoryID: CategoryID(), ImageURL: "https://cdn.rebrickable.com/media/parts/3001.png"},
			domain.CatalogPart{PartNum: HeadPart, Name: "Minifig Head"},
			domain.CatalogPart{PartNum: PlatePart, Name: "Plate 2 x 4"},
		}},
		{Kind: domain.KindMinifigs, Entities: []domain.CatalogEntity{
			domain.CatalogMinifig{FigNum: FigNum, Name: "Rebel Pilot", NumParts: 1},
		}},
		{Kind: domain.KindSetParts, Scope: SetNum, Entities: []domain.CatalogEntity{
			domain.SetPart{SetNum: SetNum, PartNum: BrickPart, ColorID: Red, Quantity: 4},
			domain.SetPart{SetNum: SetNum, PartNum: PlatePart, ColorID: White, Quantity: 1, IsSpare: true},
		}},
		{Kind: domain.KindSetMinifigs, Scope: SetNum, Entities: []domain.CatalogEntity{
			domain.SetMinifig{SetNum: SetNum, FigNum: FigNum, Quantity: 2},
		}},
		{Kind: domain.KindMinifigParts, Scope: FigNum, Entities: []domain.CatalogEntity{
			domain.MinifigPart{FigNum: FigNum, PartNum: HeadPart, ColorID: White, Quantity: 1},
		}},
	}
}

// UnscopedBatches is the reference catalog without any composition
func UnscopedBatches() []domain.SyncBatch {
	var out []domain.SyncBatch
	for _, b := range Batches() {
		if !b.Kind.Scoped() {
			out = append(out, b)
		}
	}
	return out
}

// ScopedBatches holds only the compositions
func ScopedBatches() []domain.SyncBatch {
	var out []domain.SyncBatch
	for _, b := range Batches() {
		if b.Kind.Scoped() {
			out = append(out, b)
		}
	}
	return out
}

func intPtr(i int) *int { return &i }

// SeedCatalog applies every batch and fails the test on any rejected entity
func SeedCatalog(t testing.TB, catalog repository.Catalog) {
	t.Helper()
	SeedBatches(t, catalog, Batches())
}

// SeedBatches applies the given batches in order
func SeedBatches(t testing.TB, catalog repository.Catalog, batches []domain.SyncBatch) {
	t.Helper()
	ctx := context.Background()
	for _, b := range batches {
		results, err := catalog.ApplyBatch(ctx, b)
		require.NoError(t, err)
		for _, r := range results {
			require.NotEqual(t, domain.OutcomeFailed, r.Outcome, "seed %s %s: %v", b.Kind, r.ExternalID, r.Err)
		}
	}
}
