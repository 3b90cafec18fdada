package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/BrickManager_Go/internal/domain"
	"github.com/osse101/BrickManager_Go/internal/logger"
	"github.com/osse101/BrickManager_Go/internal/repository"
)

// CatalogRepository implements repository.Catalog for PostgreSQL
type CatalogRepository struct {
	db *pgxpool.Pool
}

var _ repository.Catalog = (*CatalogRepository)(nil)

// NewCatalogRepository creates a new CatalogRepository
func NewCatalogRepository(db *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const (
	lockSyncKindSQL = `SELECT pg_advisory_xact_lock(hashtext($1))`

	saveCheckpointSQL = `
		INSERT INTO sync_state (kind, scope, cursor, completed, last_sync_time)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (kind, scope) DO UPDATE
		SET cursor = EXCLUDED.cursor, completed = EXCLUDED.completed, last_sync_time = NOW()`

	upsertColorSQL = `
		INSERT INTO catalog_colors (color_id, name, rgb, is_trans, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (color_id) DO UPDATE
		SET name = EXCLUDED.name, rgb = EXCLUDED.rgb, is_trans = EXCLUDED.is_trans, updated_at = NOW()
		WHERE (catalog_colors.name, catalog_colors.rgb, catalog_colors.is_trans)
			IS DISTINCT FROM (EXCLUDED.name, EXCLUDED.rgb, EXCLUDED.is_trans)
		RETURNING (xmax = 0) AS inserted`

	upsertCategorySQL = `
		INSERT INTO catalog_part_categories (category_id, name, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (category_id) DO UPDATE
		SET name = EXCLUDED.name, updated_at = NOW()
		WHERE catalog_part_categories.name IS DISTINCT FROM EXCLUDED.name
		RETURNING (xmax = 0) AS inserted`

	upsertPartSQL = `
		INSERT INTO catalog_parts (part_num, name, category_id, image_url, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (part_num) DO UPDATE
		SET name = EXCLUDED.name, category_id = EXCLUDED.category_id, image_url = EXCLUDED.image_url, updated_at = NOW()
		WHERE (catalog_parts.name, catalog_parts.category_id, catalog_parts.image_url)
			IS DISTINCT FROM (EXCLUDED.name, EXCLUDED.category_id, EXCLUDED.image_url)
		RETURNING (xmax = 0) AS inserted`

	upsertThemeSQL = `
		INSERT INTO catalog_themes (theme_id, parent_id, name, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (theme_id) DO UPDATE
		SET parent_id = EXCLUDED.parent_id, name = EXCLUDED.name, updated_at = NOW()
		WHERE (catalog_themes.parent_id, catalog_themes.name)
			IS DISTINCT FROM (EXCLUDED.parent_id, EXCLUDED.name)
		RETURNING (xmax = 0) AS inserted`

	upsertSetSQL = `
		INSERT INTO catalog_sets (set_num, name, year, theme_id, num_parts, image_url, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (set_num) DO UPDATE
		SET name = EXCLUDED.name, year = EXCLUDED.year, theme_id = EXCLUDED.theme_id,
			num_parts = EXCLUDED.num_parts, image_url = EXCLUDED.image_url, updated_at = NOW()
		WHERE (catalog_sets.name, catalog_sets.year, catalog_sets.theme_id, catalog_sets.num_parts, catalog_sets.image_url)
			IS DISTINCT FROM (EXCLUDED.name, EXCLUDED.year, EXCLUDED.theme_id, EXCLUDED.num_parts, EXCLUDED.image_url)
		RETURNING (xmax = 0) AS inserted`

	upsertMinifigSQL = `
		INSERT INTO catalog_minifigs (fig_num, name, num_parts, image_url, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (fig_num) DO UPDATE
		SET name = EXCLUDED.name, num_parts = EXCLUDED.num_parts, image_url = EXCLUDED.image_url, updated_at = NOW()
		WHERE (catalog_minifigs.name, catalog_minifigs.num_parts, catalog_minifigs.image_url)
			IS DISTINCT FROM (EXCLUDED.name, EXCLUDED.num_parts, EXCLUDED.image_url)
		RETURNING (xmax = 0) AS inserted`

	upsertSetPartSQL = `
		INSERT INTO catalog_set_parts (set_num, part_num, color_id, quantity, is_spare)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (set_num, part_num, color_id, is_spare) DO UPDATE
		SET quantity = EXCLUDED.quantity
		WHERE catalog_set_parts.quantity IS DISTINCT FROM EXCLUDED.quantity
		RETURNING (xmax = 0) AS inserted`

	upsertSetMinifigSQL = `
		INSERT INTO catalog_set_minifigs (set_num, fig_num, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (set_num, fig_num) DO UPDATE
		SET quantity = EXCLUDED.quantity
		WHERE catalog_set_minifigs.quantity IS DISTINCT FROM EXCLUDED.quantity
		RETURNING (xmax = 0) AS inserted`

	upsertMinifigPartSQL = `
		INSERT INTO catalog_minifig_parts (fig_num, part_num, color_id, quantity, is_spare)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (fig_num, part_num, color_id, is_spare) DO UPDATE
		SET quantity = EXCLUDED.quantity
		WHERE catalog_minifig_parts.quantity IS DISTINCT FROM EXCLUDED.quantity
		RETURNING (xmax = 0) AS inserted`
)

// ApplyBatch upserts a page of entities and advances the checkpoint in one
// transaction. Each entity runs in its own savepoint so that a reference
// violation only fails that record.
func (r *CatalogRepository) ApplyBatch(ctx context.Context, batch domain.SyncBatch) ([]domain.UpsertResult, error) {
	results := make([]domain.UpsertResult, 0, len(batch.Entities))

	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		// Serializes writers of the same kind and scope across processes
		if _, err := tx.Exec(ctx, lockSyncKindSQL, string(batch.Kind)+"/"+batch.Scope); err != nil {
			return fmt.Errorf("%s: %w", ErrMsgFailedToLockSyncKind, err)
		}

		for _, entity := range batch.Entities {
			res, err := applyEntity(ctx, tx, entity)
			if err != nil {
				return err
			}
			results = append(results, res)
		}

		if _, err := tx.Exec(ctx, saveCheckpointSQL,
			string(batch.Kind), batch.Scope, batch.NextCursor, batch.NextCursor == ""); err != nil {
			return fmt.Errorf("%s: %w", ErrMsgFailedToSaveCheckpoint, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// applyEntity upserts one entity inside a savepoint. Integrity violations are
// reported in the result; any other error aborts the batch.
func applyEntity(ctx context.Context, tx pgx.Tx, entity domain.CatalogEntity) (domain.UpsertResult, error) {
	res := domain.UpsertResult{ExternalID: entity.ExternalID()}

	sp, err := tx.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("%s: %w", ErrMsgFailedToBeginTransaction, err)
	}

	outcome, err := upsertEntity(ctx, sp, entity)
	if err != nil {
		SafeRollback(ctx, sp)
		if cerr := constraintError(err); cerr != nil {
			logger.FromContext(ctx).Warn("Catalog record rejected",
				logger.AttrKeyKind, entity.Kind(), "id", res.ExternalID, "error", cerr)
			res.Outcome = domain.OutcomeFailed
			res.Err = cerr
			return res, nil
		}
		return res, fmt.Errorf(ErrMsgFailedToUpsertEntity+": %w", entity.Kind(), res.ExternalID, err)
	}

	if err := sp.Commit(ctx); err != nil {
		return res, fmt.Errorf("%s: %w", ErrMsgFailedToCommitTransaction, err)
	}
	res.Outcome = outcome
	return res, nil
}

func upsertEntity(ctx context.Context, q querier, entity domain.CatalogEntity) (domain.UpsertOutcome, error) {
	var row pgx.Row
	switch e := entity.(type) {
	case domain.CatalogColor:
		row = q.QueryRow(ctx, upsertColorSQL, e.ID, e.Name, e.RGB, e.IsTrans)
	case domain.PartCategory:
		row = q.QueryRow(ctx, upsertCategorySQL, e.ID, e.Name)
	case domain.Theme:
		parent, err := ptrToInt4("parent_id", e.ParentID)
		if err != nil {
			return domain.OutcomeFailed, err
		}
		row = q.QueryRow(ctx, upsertThemeSQL, e.ID, parent, e.Name)
	case domain.CatalogPart:
		category, err := ptrToInt4("part_cat_id", e.CategoryID)
		if err != nil {
			return domain.OutcomeFailed, err
		}
		row = q.QueryRow(ctx, upsertPartSQL, e.PartNum, e.Name, category, e.ImageURL)
	case domain.CatalogSet:
		theme, err := ptrToInt4("theme_id", e.ThemeID)
		if err != nil {
			return domain.OutcomeFailed, err
		}
		row = q.QueryRow(ctx, upsertSetSQL, e.SetNum, e.Name, e.Year, theme, e.NumParts, e.ImageURL)
	case domain.CatalogMinifig:
		row = q.QueryRow(ctx, upsertMinifigSQL, e.FigNum, e.Name, e.NumParts, e.ImageURL)
	case domain.SetPart:
		row = q.QueryRow(ctx, upsertSetPartSQL, e.SetNum, e.PartNum, e.ColorID, e.Quantity, e.IsSpare)
	case domain.SetMinifig:
		row = q.QueryRow(ctx, upsertSetMinifigSQL, e.SetNum, e.FigNum, e.Quantity)
	case domain.MinifigPart:
		row = q.QueryRow(ctx, upsertMinifigPartSQL, e.FigNum, e.PartNum, e.ColorID, e.Quantity, e.IsSpare)
	default:
		return domain.OutcomeFailed, fmt.Errorf(ErrMsgUnsupportedEntity, entity)
	}

	var inserted bool
	if err := row.Scan(&inserted); err != nil {
		// The WHERE clause suppressed the update: stored row already matches
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.OutcomeUnchanged, nil
		}
		return domain.OutcomeFailed, err
	}
	if inserted {
		return domain.OutcomeInserted, nil
	}
	return domain.OutcomeUpdated, nil
}

// GetColor retrieves a color by ID
func (r *CatalogRepository) GetColor(ctx context.Context, id int) (*domain.CatalogColor, error) {
	var c domain.CatalogColor
	err := r.db.QueryRow(ctx, `
		SELECT color_id, name, rgb, is_trans, updated_at
		FROM catalog_colors WHERE color_id = $1`, id).
		Scan(&c.ID, &c.Name, &c.RGB, &c.IsTrans, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrColorNotFound
		}
		return nil, fmt.Errorf(ErrMsgFailedToGetCatalogEntity+": %w", "color", err)
	}
	return &c, nil
}

// GetCategory retrieves a part category by ID
func (r *CatalogRepository) GetCategory(ctx context.Context, id int) (*domain.PartCategory, error) {
	var c domain.PartCategory
	err := r.db.QueryRow(ctx, `
		SELECT category_id, name, updated_at
		FROM catalog_part_categories WHERE category_id = $1`, id).
		Scan(&c.ID, &c.Name, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("part category %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf(ErrMsgFailedToGetCatalogEntity+": %w", "part category", err)
	}
	return &c, nil
}

// GetTheme retrieves a theme by ID
func (r *CatalogRepository) GetTheme(ctx context.Context, id int) (*domain.Theme, error) {
	var t domain.Theme
	var parent pgtype.Int4
	err := r.db.QueryRow(ctx, `
		SELECT theme_id, parent_id, name, updated_at
		FROM catalog_themes WHERE theme_id = $1`, id).
		Scan(&t.ID, &parent, &t.Name, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrThemeNotFound
		}
		return nil, fmt.Errorf(ErrMsgFailedToGetCatalogEntity+": %w", "theme", err)
	}
	t.ParentID = int4ToPtr(parent)
	return &t, nil
}

// GetPart retrieves a part by its catalog number
func (r *CatalogRepository) GetPart(ctx context.Context, partNum string) (*domain.CatalogPart, error) {
	var p domain.CatalogPart
	var category pgtype.Int4
	err := r.db.QueryRow(ctx, `
		SELECT part_num, name, category_id, image_url, updated_at
		FROM catalog_parts WHERE part_num = $1`, partNum).
		Scan(&p.PartNum, &p.Name, &category, &p.ImageURL, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPartNotFound
		}
		return nil, fmt.Errorf(ErrMsgFailedToGetCatalogEntity+": %w", "part", err)
	}
	p.CategoryID = int4ToPtr(category)
	return &p, nil
}

// GetSet retrieves a set template by its set number
func (r *CatalogRepository) GetSet(ctx context.Context, setNum string) (*domain.CatalogSet, error) {
	var s domain.CatalogSet
	var theme pgtype.Int4
	err := r.db.QueryRow(ctx, `
		SELECT set_num, name, year, theme_id, num_parts, image_url, updated_at
		FROM catalog_sets WHERE set_num = $1`, setNum).
		Scan(&s.SetNum, &s.Name, &s.Year, &theme, &s.NumParts, &s.ImageURL, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSetNotFound
		}
		return nil, fmt.Errorf(ErrMsgFailedToGetCatalogEntity+": %w", "set", err)
	}
	s.ThemeID = int4ToPtr(theme)
	return &s, nil
}

// GetMinifig retrieves a minifigure template by its figure number
func (r *CatalogRepository) GetMinifig(ctx context.Context, figNum string) (*domain.CatalogMinifig, error) {
	var m domain.CatalogMinifig
	err := r.db.QueryRow(ctx, `
		SELECT fig_num, name, num_parts, image_url, updated_at
		FROM catalog_minifigs WHERE fig_num = $1`, figNum).
		Scan(&m.FigNum, &m.Name, &m.NumParts, &m.ImageURL, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMinifigNotFound
		}
		return nil, fmt.Errorf(ErrMsgFailedToGetCatalogEntity+": %w", "minifigure", err)
	}
	return &m, nil
}

// ListSetParts returns the part list of a set template
func (r *CatalogRepository) ListSetParts(ctx context.Context, setNum string) ([]domain.SetPart, error) {
	rows, err := r.db.Query(ctx, `
		SELECT set_num, part_num, color_id, quantity, is_spare
		FROM catalog_set_parts WHERE set_num = $1
		ORDER BY part_num, color_id, is_spare`, setNum)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgFailedToListCatalog+": %w", "set parts", err)
	}
	defer rows.Close()

	var parts []domain.SetPart
	for rows.Next() {
		var p domain.SetPart
		if err := rows.Scan(&p.SetNum, &p.PartNum, &p.ColorID, &p.Quantity, &p.IsSpare); err != nil {
			return nil, fmt.Errorf(ErrMsgFailedToListCatalog+": %w", "set parts", err)
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

// ListSetMinifigs returns the minifigure list of a set template
func (r *CatalogRepository) ListSetMinifigs(ctx context.Context, setNum string) ([]domain.SetMinifig, error) {
	rows, err := r.db.Query(ctx, `
		SELECT set_num, fig_num, quantity
		FROM catalog_set_minifigs WHERE set_num = $1
		ORDER BY fig_num`, setNum)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgFailedToListCatalog+": %w", "set minifigures", err)
	}
	defer rows.Close()

	var figs []domain.SetMinifig
	for rows.Next() {
		var m domain.SetMinifig
		if err := rows.Scan(&m.SetNum, &m.FigNum, &m.Quantity); err != nil {
			return nil, fmt.Errorf(ErrMsgFailedToListCatalog+": %w", "set minifigures", err)
		}
		figs = append(figs, m)
	}
	return figs, rows.Err()
}

// ListMinifigParts returns the composition of a minifigure template
func (r *CatalogRepository) ListMinifigParts(ctx context.Context, figNum string) ([]domain.MinifigPart, error) {
	rows, err := r.db.Query(ctx, `
		SELECT fig_num, part_num, color_id, quantity, is_spare
		FROM catalog_minifig_parts WHERE fig_num = $1
		ORDER BY part_num, color_id, is_spare`, figNum)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgFailedToListCatalog+": %w", "minifigure parts", err)
	}
	defer rows.Close()

	var parts []domain.MinifigPart
	for rows.Next() {
		var p domain.MinifigPart
		if err := rows.Scan(&p.FigNum, &p.PartNum, &p.ColorID, &p.Quantity, &p.IsSpare); err != nil {
			return nil, fmt.Errorf(ErrMsgFailedToListCatalog+": %w", "minifigure parts", err)
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

// ListColors returns every color ordered by ID
func (r *CatalogRepository) ListColors(ctx context.Context) ([]domain.CatalogColor, error) {
	rows, err := r.db.Query(ctx, `
		SELECT color_id, name, rgb, is_trans, updated_at
		FROM catalog_colors ORDER BY color_id`)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgFailedToListCatalog+": %w", "colors", err)
	}
	defer rows.Close()

	var colors []domain.CatalogColor
	for rows.Next() {
		var c domain.CatalogColor
		if err := rows.Scan(&c.ID, &c.Name, &c.RGB, &c.IsTrans, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf(ErrMsgFailedToListCatalog+": %w", "colors", err)
		}
		colors = append(colors, c)
	}
	return colors, rows.Err()
}

// ListCategories returns every part category ordered by ID
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]domain.PartCategory, error) {
	rows, err := r.db.Query(ctx, `
		SELECT category_id, name, updated_at
		FROM catalog_part_categories ORDER BY category_id`)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgFailedToListCatalog+": %w", "part categories", err)
	}
	defer rows.Close()

	var cats []domain.PartCategory
	for rows.Next() {
		var c domain.PartCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf(ErrMsgFailedToListCatalog+": %w", "part categories", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// ListThemes returns every theme ordered by ID
func (r *CatalogRepository) ListThemes(ctx context.Context) ([]domain.Theme, error) {
	rows, err := r.db.Query(ctx, `
		SELECT theme_id, parent_id, name, updated_at
		FROM catalog_themes ORDER BY theme_id`)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgFailedToListCatalog+": %w", "themes", err)
	}
	defer rows.Close()

	var themes []domain.Theme
	for rows.Next() {
		var t domain.Theme
		var parent pgtype.Int4
		if err := rows.Scan(&t.ID, &parent, &t.Name, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf(ErrMsgFailedToListCatalog+": %w", "themes", err)
		}
		t.ParentID = int4ToPtr(parent)
		themes = append(themes, t)
	}
	return themes, rows.Err()
}

// ListSets returns every set template ordered by set number
func (r *CatalogRepository) ListSets(ctx context.Context) ([]domain.CatalogSet, error) {
	rows, err := r.db.Query(ctx, `
		SELECT set_num, name, year, theme_id, num_parts, image_url, updated_at
		FROM catalog_sets ORDER BY set_num`)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgFailedToListCatalog+": %w", "sets", err)
	}
	defer rows.Close()

	var sets []domain.CatalogSet
	for rows.Next() {
		var s domain.CatalogSet
		var theme pgtype.Int4
		if err := rows.Scan(&s.SetNum, &s.Name, &s.Year, &theme, &s.NumParts, &s.ImageURL, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf(ErrMsgFailedToListCatalog+": %w", "sets", err)
		}
		s.ThemeID = int4ToPtr(theme)
		sets = append(sets, s)
	}
	return sets, rows.Err()
}
