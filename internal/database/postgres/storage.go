package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/BrickManager_Go/internal/domain"
	"github.com/osse101/BrickManager_Go/internal/repository"
)

// StorageRepository implements repository.Storage for PostgreSQL
type StorageRepository struct {
	db *pgxpool.Pool
}

var _ repository.Storage = (*StorageRepository)(nil)

// NewStorageRepository creates a new StorageRepository
func NewStorageRepository(db *pgxpool.Pool) *StorageRepository {
	return &StorageRepository{db: db}
}

const slotColumns = `slot_id, part_num, color_id, site, level, box, notes, created_at, updated_at`

// slotOrder sorts byte-wise so results match the in-memory store regardless of locale
const slotOrder = `site COLLATE "C", level COLLATE "C", box COLLATE "C", color_id NULLS FIRST, slot_id`

// distinctColumns whitelists the columns DistinctValues may interpolate
var distinctColumns = map[domain.SlotField]string{
	domain.SlotFieldSite:  "site",
	domain.SlotFieldLevel: "level",
	domain.SlotFieldBox:   "box",
}

func scanSlot(row pgx.Row) (*domain.StorageSlot, error) {
	var s domain.StorageSlot
	var color pgtype.Int4
	if err := row.Scan(&s.ID, &s.PartNum, &color, &s.Site, &s.Level, &s.Box, &s.Notes, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.ColorID = int4ToPtr(color)
	return &s, nil
}

// UpsertSlot inserts a slot or replaces the notes of the slot with the same
// (part, color, site, level, box) in one atomic statement
func (r *StorageRepository) UpsertSlot(ctx context.Context, slot domain.StorageSlot) (*domain.StorageSlot, bool, error) {
	colorID, err := ptrToInt4("color_id", slot.ColorID)
	if err != nil {
		return nil, false, err
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO storage_slots (part_num, color_id, site, level, box, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT ON CONSTRAINT uq_storage_slot DO UPDATE
		SET notes = EXCLUDED.notes, updated_at = NOW()
		RETURNING `+slotColumns+`, (xmax = 0) AS inserted`,
		slot.PartNum, colorID, slot.Site, slot.Level, slot.Box, slot.Notes)

	var s domain.StorageSlot
	var color pgtype.Int4
	var inserted bool
	if err := row.Scan(&s.ID, &s.PartNum, &color, &s.Site, &s.Level, &s.Box, &s.Notes, &s.CreatedAt, &s.UpdatedAt, &inserted); err != nil {
		return nil, false, wrapWriteError(ErrMsgFailedToUpsertSlot, err)
	}
	s.ColorID = int4ToPtr(color)
	return &s, inserted, nil
}

// FindSlots returns the slots of a part ordered by location. A nil colorID
// returns every color; otherwise only slots with exactly that color.
func (r *StorageRepository) FindSlots(ctx context.Context, partNum string, colorID *int) ([]domain.StorageSlot, error) {
	color, err := ptrToInt4("color_id", colorID)
	if err != nil {
		return nil, err
	}
	slots, err := collect(ctx, r.db, scanSlot, `
		SELECT `+slotColumns+` FROM storage_slots
		WHERE part_num = $1 AND ($2::int IS NULL OR color_id = $2)
		ORDER BY `+slotOrder, partNum, color)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToFindSlots, err)
	}
	return slots, nil
}

// FindSlotsForParts loads slots for many parts in one query
func (r *StorageRepository) FindSlotsForParts(ctx context.Context, partNums []string) (map[string][]domain.StorageSlot, error) {
	out := make(map[string][]domain.StorageSlot)
	if len(partNums) == 0 {
		return out, nil
	}

	slots, err := collect(ctx, r.db, scanSlot, `
		SELECT `+slotColumns+` FROM storage_slots
		WHERE part_num = ANY($1::text[])
		ORDER BY `+slotOrder, partNums)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToFindSlots, err)
	}
	for _, s := range slots {
		out[s.PartNum] = append(out[s.PartNum], s)
	}
	return out, nil
}

// DistinctValues lists the sorted unique values of one location field,
// narrowed by the non-empty fields of filter
func (r *StorageRepository) DistinctValues(ctx context.Context, field domain.SlotField, filter domain.SlotFilter) ([]string, error) {
	column, ok := distinctColumns[field]
	if !ok {
		return nil, domain.ErrInvalidField
	}

	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT `+column+` COLLATE "C" FROM storage_slots
		WHERE ($1 = '' OR site = $1) AND ($2 = '' OR level = $2) AND ($3 = '' OR box = $3)
		ORDER BY 1`,
		filter.Site, filter.Level, filter.Box)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgFailedToListDistinct+": %w", column, err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf(ErrMsgFailedToListDistinct+": %w", column, err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// BoxContents lists the parts stored at the filtered location with catalog names
func (r *StorageRepository) BoxContents(ctx context.Context, filter domain.SlotFilter) ([]domain.BoxItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT s.slot_id, s.part_num, s.color_id, s.site, s.level, s.box, s.notes, s.created_at, s.updated_at,
			cp.name, COALESCE(cc.name, ''), cp.image_url
		FROM storage_slots s
		JOIN catalog_parts cp ON cp.part_num = s.part_num
		LEFT JOIN catalog_colors cc ON cc.color_id = s.color_id
		WHERE ($1 = '' OR s.site = $1) AND ($2 = '' OR s.level = $2) AND ($3 = '' OR s.box = $3)
		ORDER BY s.site COLLATE "C", s.level COLLATE "C", s.box COLLATE "C", s.part_num COLLATE "C", s.color_id NULLS FIRST`,
		filter.Site, filter.Level, filter.Box)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListBox, err)
	}
	defer rows.Close()

	items := []domain.BoxItem{}
	for rows.Next() {
		var it domain.BoxItem
		var color pgtype.Int4
		if err := rows.Scan(&it.ID, &it.PartNum, &color, &it.Site, &it.Level, &it.Box, &it.Notes,
			&it.CreatedAt, &it.UpdatedAt, &it.PartName, &it.ColorName, &it.ImageURL); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListBox, err)
		}
		it.ColorID = int4ToPtr(color)
		items = append(items, it)
	}
	return items, rows.Err()
}

// DeleteSlot removes a storage slot by ID
func (r *StorageRepository) DeleteSlot(ctx context.Context, slotID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM storage_slots WHERE slot_id = $1`, slotID)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToDeleteSlot, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSlotNotFound
	}
	return nil
}
