package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/osse101/BrickManager_Go/internal/domain"
	"github.com/osse101/BrickManager_Go/internal/logger"
)

// SafeRollback rolls back a transaction and logs any error that isn't ErrTxClosed
func SafeRollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		logger.FromContext(ctx).Error("Failed to rollback transaction", "error", err)
	}
}

// querier is satisfied by *pgxpool.Pool, pgx.Tx and pgx.Conn
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txBeginner is satisfied by *pgxpool.Pool
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// withTx runs fn inside a transaction, committing when fn returns nil
func withTx(ctx context.Context, db txBeginner, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToBeginTransaction, err)
	}
	defer SafeRollback(ctx, tx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToCommitTransaction, err)
	}
	return nil
}

// constraintError maps integrity violations onto domain errors.
// It returns nil when err is not an integrity violation.
func constraintError(err error) error {
	if errors.Is(err, domain.ErrOutOfRange) {
		return err
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}

	switch pgErr.Code {
	case PgErrorCodeForeignKeyViolation:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, pgErr.Detail)
	case PgErrorCodeCheckViolation, PgErrorCodeNotNullViolation:
		return fmt.Errorf("%w: %s", domain.ErrValidation, pgErr.Message)
	case PgErrorCodeUniqueViolation:
		return fmt.Errorf("%w: %s", domain.ErrDuplicate, pgErr.Detail)
	case PgErrorCodeNumericOutOfRange:
		return fmt.Errorf("%w: %s", domain.ErrOutOfRange, pgErr.Message)
	}
	return nil
}

// ptrToInt4 converts an optional int to pgtype.Int4, refusing values that
// would not fit
func ptrToInt4(field string, i *int) (pgtype.Int4, error) {
	if i == nil {
		return pgtype.Int4{}, nil
	}
	if err := domain.CheckStoredInt(field, *i); err != nil {
		return pgtype.Int4{}, err
	}
	return pgtype.Int4{Int32: int32(*i), Valid: true}, nil
}

// int4ToPtr converts a nullable pgtype.Int4 to *int
func int4ToPtr(i pgtype.Int4) *int {
	if !i.Valid {
		return nil
	}
	v := int(i.Int32)
	return &v
}

// statusStrings converts statuses for ANY($n::text[]) parameters
func statusStrings(statuses []domain.SetStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
