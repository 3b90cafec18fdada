package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/BrickManager_Go/internal/domain"
	"github.com/osse101/BrickManager_Go/internal/repository"
)

// InventoryRepository implements repository.Inventory for PostgreSQL
type InventoryRepository struct {
	db *pgxpool.Pool
}

var _ repository.Inventory = (*InventoryRepository)(nil)

// NewInventoryRepository creates a new InventoryRepository
func NewInventoryRepository(db *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{db: db}
}

var errOwnedMinifigNotFound = fmt.Errorf("owned minifigure %w", domain.ErrNotFound)

const (
	ownedSetColumns         = `owned_set_id, set_num, status, created_at, updated_at`
	ownedPartColumns        = `owned_part_id, owned_set_id, part_num, color_id, required_quantity, have_quantity, is_spare`
	ownedMinifigColumns     = `owned_minifig_id, owned_set_id, fig_num, quantity, have_quantity`
	ownedMinifigPartColumns = `owned_minifig_part_id, owned_minifig_id, owned_set_id, part_num, color_id, required_quantity, have_quantity, is_spare`
)

func scanOwnedSet(row pgx.Row) (*domain.OwnedSet, error) {
	var s domain.OwnedSet
	var status string
	if err := row.Scan(&s.ID, &s.SetNum, &status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Status = domain.SetStatus(status)
	return &s, nil
}

func scanOwnedPart(row pgx.Row) (*domain.OwnedPart, error) {
	var p domain.OwnedPart
	if err := row.Scan(&p.ID, &p.OwnedSetID, &p.PartNum, &p.ColorID, &p.RequiredQuantity, &p.HaveQuantity, &p.IsSpare); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanOwnedMinifig(row pgx.Row) (*domain.OwnedMinifig, error) {
	var m domain.OwnedMinifig
	if err := row.Scan(&m.ID, &m.OwnedSetID, &m.FigNum, &m.Quantity, &m.HaveQuantity); err != nil {
		return nil, err
	}
	return &m, nil
}

func scanOwnedMinifigPart(row pgx.Row) (*domain.OwnedMinifigPart, error) {
	var p domain.OwnedMinifigPart
	if err := row.Scan(&p.ID, &p.OwnedMinifigID, &p.OwnedSetID, &p.PartNum, &p.ColorID, &p.RequiredQuantity, &p.HaveQuantity, &p.IsSpare); err != nil {
		return nil, err
	}
	return &p, nil
}

// wrapWriteError prefers a domain error for integrity violations
func wrapWriteError(msg string, err error) error {
	if cerr := constraintError(err); cerr != nil {
		return fmt.Errorf("%s: %w", msg, cerr)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// CreateOwnedSet inserts an owned set with its parts, minifigures and
// minifigure parts in a single transaction
func (r *InventoryRepository) CreateOwnedSet(ctx context.Context, set domain.NewOwnedSet) (*domain.OwnedSetDetail, error) {
	var detail domain.OwnedSetDetail

	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		owned, err := scanOwnedSet(tx.QueryRow(ctx, `
			INSERT INTO owned_sets (set_num, status) VALUES ($1, $2)
			RETURNING `+ownedSetColumns, set.SetNum, string(set.Status)))
		if err != nil {
			return wrapWriteError(ErrMsgFailedToInsertOwnedSet, err)
		}
		detail.OwnedSet = *owned

		detail.Parts = make([]domain.OwnedPart, 0, len(set.Parts))
		for _, p := range set.Parts {
			part, err := scanOwnedPart(tx.QueryRow(ctx, `
				INSERT INTO owned_parts (owned_set_id, part_num, color_id, required_quantity, have_quantity, is_spare)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING `+ownedPartColumns,
				owned.ID, p.PartNum, p.ColorID, p.RequiredQuantity, p.HaveQuantity, p.IsSpare))
			if err != nil {
				return wrapWriteError(fmt.Sprintf(ErrMsgFailedToInsertOwnedPart, p.PartNum), err)
			}
			detail.Parts = append(detail.Parts, *part)
		}

		detail.Minifigs = make([]domain.OwnedMinifig, 0, len(set.Minifigs))
		for _, m := range set.Minifigs {
			fig, err := scanOwnedMinifig(tx.QueryRow(ctx, `
				INSERT INTO owned_minifigs (owned_set_id, fig_num, quantity, have_quantity)
				VALUES ($1, $2, $3, $4)
				RETURNING `+ownedMinifigColumns,
				owned.ID, m.FigNum, m.Quantity, m.HaveQuantity))
			if err != nil {
				return wrapWriteError(fmt.Sprintf(ErrMsgFailedToInsertOwnedMinifig, m.FigNum), err)
			}
			detail.Minifigs = append(detail.Minifigs, *fig)
		}

		detail.MinifigParts = make([]domain.OwnedMinifigPart, 0, len(set.MinifigParts))
		for _, mp := range set.MinifigParts {
			if mp.MinifigIndex < 0 || mp.MinifigIndex >= len(detail.Minifigs) {
				return fmt.Errorf("%w: minifigure index %d out of range", domain.ErrValidation, mp.MinifigIndex)
			}
			figID := detail.Minifigs[mp.MinifigIndex].ID
			part, err := scanOwnedMinifigPart(tx.QueryRow(ctx, `
				INSERT INTO owned_minifig_parts (owned_minifig_id, owned_set_id, part_num, color_id, required_quantity, have_quantity, is_spare)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING `+ownedMinifigPartColumns,
				figID, owned.ID, mp.PartNum, mp.ColorID, mp.RequiredQuantity, mp.HaveQuantity, mp.IsSpare))
			if err != nil {
				return wrapWriteError(fmt.Sprintf(ErrMsgFailedToInsertOwnedPart, mp.PartNum), err)
			}
			detail.MinifigParts = append(detail.MinifigParts, *part)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// GetOwnedSet retrieves an owned set without its children
func (r *InventoryRepository) GetOwnedSet(ctx context.Context, id int64) (*domain.OwnedSet, error) {
	set, err := scanOwnedSet(r.db.QueryRow(ctx,
		`SELECT `+ownedSetColumns+` FROM owned_sets WHERE owned_set_id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOwnedSetNotFound
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetOwnedSet, err)
	}
	return set, nil
}

// GetOwnedSetDetail retrieves an owned set with all of its children
func (r *InventoryRepository) GetOwnedSetDetail(ctx context.Context, id int64) (*domain.OwnedSetDetail, error) {
	set, err := r.GetOwnedSet(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := domain.OwnedSetDetail{OwnedSet: *set}

	if detail.Parts, err = collect(ctx, r.db, scanOwnedPart,
		`SELECT `+ownedPartColumns+` FROM owned_parts WHERE owned_set_id = $1 ORDER BY owned_part_id`, id); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetOwnedSet, err)
	}
	if detail.Minifigs, err = collect(ctx, r.db, scanOwnedMinifig,
		`SELECT `+ownedMinifigColumns+` FROM owned_minifigs WHERE owned_set_id = $1 ORDER BY owned_minifig_id`, id); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetOwnedSet, err)
	}
	if detail.MinifigParts, err = collect(ctx, r.db, scanOwnedMinifigPart,
		`SELECT `+ownedMinifigPartColumns+` FROM owned_minifig_parts WHERE owned_set_id = $1 ORDER BY owned_minifig_part_id`, id); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetOwnedSet, err)
	}
	return &detail, nil
}

// collect runs a query and scans every row with scan
func collect[T any](ctx context.Context, q querier, scan func(pgx.Row) (*T, error), sql string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// ListOwnedSets returns every owned set ordered by ID
func (r *InventoryRepository) ListOwnedSets(ctx context.Context) ([]domain.OwnedSet, error) {
	sets, err := collect(ctx, r.db, scanOwnedSet, `SELECT `+ownedSetColumns+` FROM owned_sets ORDER BY owned_set_id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListOwnedSets, err)
	}
	return sets, nil
}

// UpdateOwnedSetStatus changes the lifecycle status of an owned set
func (r *InventoryRepository) UpdateOwnedSetStatus(ctx context.Context, id int64, status domain.SetStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE owned_sets SET status = $2, updated_at = NOW() WHERE owned_set_id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpdateOwnedSet, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOwnedSetNotFound
	}
	return nil
}

// DeleteOwnedSet removes an owned set; children go with it via ON DELETE CASCADE
func (r *InventoryRepository) DeleteOwnedSet(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM owned_sets WHERE owned_set_id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToDeleteOwnedSet, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOwnedSetNotFound
	}
	return nil
}

// SetPartHave sets the absolute have quantity of an owned part
func (r *InventoryRepository) SetPartHave(ctx context.Context, ownedPartID int64, have int) (*domain.OwnedPart, error) {
	if have < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if err := domain.CheckStoredInt("have", have); err != nil {
		return nil, err
	}
	part, err := scanOwnedPart(r.db.QueryRow(ctx, `
		UPDATE owned_parts SET have_quantity = $2 WHERE owned_part_id = $1
		RETURNING `+ownedPartColumns, ownedPartID, have))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOwnedPartNotFound
		}
		return nil, wrapWriteError(ErrMsgFailedToUpdateHave, err)
	}
	return part, nil
}

// AdjustPartHave adds delta to the have quantity in a single statement so
// concurrent adjustments never lose updates
func (r *InventoryRepository) AdjustPartHave(ctx context.Context, ownedPartID int64, delta int) (*domain.OwnedPart, error) {
	if err := domain.CheckStoredInt("delta", delta); err != nil {
		return nil, err
	}
	part, err := scanOwnedPart(r.db.QueryRow(ctx, `
		UPDATE owned_parts SET have_quantity = have_quantity + $2
		WHERE owned_part_id = $1 AND have_quantity + $2 >= 0
		RETURNING `+ownedPartColumns, ownedPartID, delta))
	if err == nil {
		return part, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, wrapWriteError(ErrMsgFailedToUpdateHave, err)
	}

	// No row: either the part is absent or the delta would go negative
	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM owned_parts WHERE owned_part_id = $1)`, ownedPartID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToUpdateHave, err)
	}
	if !exists {
		return nil, domain.ErrOwnedPartNotFound
	}
	return nil, domain.ErrInvalidQuantity
}

// SetMinifigPartHave sets the absolute have quantity of an owned minifigure part
func (r *InventoryRepository) SetMinifigPartHave(ctx context.Context, id int64, have int) (*domain.OwnedMinifigPart, error) {
	if have < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if err := domain.CheckStoredInt("have", have); err != nil {
		return nil, err
	}
	part, err := scanOwnedMinifigPart(r.db.QueryRow(ctx, `
		UPDATE owned_minifig_parts SET have_quantity = $2 WHERE owned_minifig_part_id = $1
		RETURNING `+ownedMinifigPartColumns, id, have))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOwnedPartNotFound
		}
		return nil, wrapWriteError(ErrMsgFailedToUpdateHave, err)
	}
	return part, nil
}

// SetMinifigHave sets how many of a minifigure are complete
func (r *InventoryRepository) SetMinifigHave(ctx context.Context, id int64, have int) (*domain.OwnedMinifig, error) {
	if have < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if err := domain.CheckStoredInt("have", have); err != nil {
		return nil, err
	}
	fig, err := scanOwnedMinifig(r.db.QueryRow(ctx, `
		UPDATE owned_minifigs SET have_quantity = $2 WHERE owned_minifig_id = $1
		RETURNING `+ownedMinifigColumns, id, have))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errOwnedMinifigNotFound
		}
		return nil, wrapWriteError(ErrMsgFailedToUpdateHave, err)
	}
	return fig, nil
}

const scanOwnedPartsSQL = `
	SELECT 'regular-part' AS kind, op.owned_part_id, os.owned_set_id, os.set_num, os.status,
		op.part_num, cp.name, op.color_id, cc.name, cp.image_url,
		op.required_quantity, op.have_quantity, op.is_spare
	FROM owned_parts op
	JOIN owned_sets os ON os.owned_set_id = op.owned_set_id
	JOIN catalog_parts cp ON cp.part_num = op.part_num
	JOIN catalog_colors cc ON cc.color_id = op.color_id
	WHERE ($1::bigint IS NULL OR os.owned_set_id = $1)
		AND (cardinality($2::text[]) = 0 OR os.status = ANY($2))
		AND NOT (os.status = ANY($3::text[]))
	UNION ALL
	SELECT 'minifigure-part' AS kind, omp.owned_minifig_part_id, os.owned_set_id, os.set_num, os.status,
		omp.part_num, cp.name, omp.color_id, cc.name, cp.image_url,
		omp.required_quantity, omp.have_quantity, omp.is_spare
	FROM owned_minifig_parts omp
	JOIN owned_sets os ON os.owned_set_id = omp.owned_set_id
	JOIN catalog_parts cp ON cp.part_num = omp.part_num
	JOIN catalog_colors cc ON cc.color_id = omp.color_id
	WHERE ($1::bigint IS NULL OR os.owned_set_id = $1)
		AND (cardinality($2::text[]) = 0 OR os.status = ANY($2))
		AND NOT (os.status = ANY($3::text[]))
	ORDER BY set_num, part_num`

// ScanOwnedParts returns every owned regular and minifigure part matching the
// filter, joined with catalog names, in one round trip
func (r *InventoryRepository) ScanOwnedParts(ctx context.Context, filter domain.OwnedPartFilter) ([]domain.OwnedPartLine, error) {
	rows, err := r.db.Query(ctx, scanOwnedPartsSQL,
		filter.OwnedSetID, statusStrings(filter.Statuses), statusStrings(filter.ExcludeStatuses))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToScanOwnedParts, err)
	}
	defer rows.Close()

	lines := []domain.OwnedPartLine{}
	for rows.Next() {
		var l domain.OwnedPartLine
		var kind, status string
		if err := rows.Scan(&kind, &l.LineID, &l.OwnedSetID, &l.SetNum, &status,
			&l.PartNum, &l.PartName, &l.ColorID, &l.ColorName, &l.ImageURL,
			&l.RequiredQuantity, &l.HaveQuantity, &l.IsSpare); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToScanOwnedParts, err)
		}
		l.Kind = domain.MissingKind(kind)
		l.SetStatus = domain.SetStatus(status)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
