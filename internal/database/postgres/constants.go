package postgres

// PostgreSQL Error Codes
const (
	// PgErrorCodeUniqueViolation is the PostgreSQL error code for unique constraint violations
	PgErrorCodeUniqueViolation = "23505"
	// PgErrorCodeForeignKeyViolation is raised when a referenced catalog row is absent
	PgErrorCodeForeignKeyViolation = "23503"
	// PgErrorCodeCheckViolation is raised by the non-negative quantity checks
	PgErrorCodeCheckViolation = "23514"
	// PgErrorCodeNotNullViolation is raised when a required column is empty
	PgErrorCodeNotNullViolation = "23502"
	// PgErrorCodeNumericOutOfRange is raised when arithmetic overflows an integer column
	PgErrorCodeNumericOutOfRange = "22003"
)

// Error Messages - Transaction Operations
const (
	ErrMsgFailedToBeginTransaction  = "failed to begin transaction"
	ErrMsgFailedToCommitTransaction = "failed to commit transaction"
	ErrMsgFailedToLockSyncKind      = "failed to lock sync kind"
	ErrMsgFailedToSaveCheckpoint    = "failed to save sync checkpoint"
)

// Error Messages - Catalog Operations
const (
	ErrMsgFailedToUpsertEntity     = "failed to upsert %s %s"
	ErrMsgUnsupportedEntity        = "unsupported catalog entity %T"
	ErrMsgFailedToGetCatalogEntity = "failed to get %s"
	ErrMsgFailedToListCatalog      = "failed to list %s"
)

// Error Messages - Inventory Operations
const (
	ErrMsgFailedToInsertOwnedSet     = "failed to insert owned set"
	ErrMsgFailedToInsertOwnedPart    = "failed to insert owned part %s"
	ErrMsgFailedToInsertOwnedMinifig = "failed to insert owned minifig %s"
	ErrMsgFailedToGetOwnedSet        = "failed to get owned set"
	ErrMsgFailedToListOwnedSets      = "failed to list owned sets"
	ErrMsgFailedToUpdateOwnedSet     = "failed to update owned set"
	ErrMsgFailedToDeleteOwnedSet     = "failed to delete owned set"
	ErrMsgFailedToUpdateHave         = "failed to update have quantity"
	ErrMsgFailedToScanOwnedParts     = "failed to scan owned parts"
)

// Error Messages - Storage Operations
const (
	ErrMsgFailedToUpsertSlot   = "failed to upsert storage slot"
	ErrMsgFailedToFindSlots    = "failed to find storage slots"
	ErrMsgFailedToListDistinct = "failed to list distinct %s"
	ErrMsgFailedToListBox      = "failed to list box contents"
	ErrMsgFailedToDeleteSlot   = "failed to delete storage slot"
)

// Error Messages - Sync State Operations
const (
	ErrMsgFailedToGetSyncState    = "failed to get sync state"
	ErrMsgFailedToRecordSyncRun   = "failed to record sync run"
	ErrMsgFailedToListSyncStates  = "failed to list sync states"
	ErrMsgFailedToClearCheckpoint = "failed to clear sync checkpoint"
)
