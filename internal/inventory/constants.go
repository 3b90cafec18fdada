package inventory

// DefaultSetVariant is appended to bare set numbers
const DefaultSetVariant = "-1"

// Log messages
const (
	LogMsgSyncingTemplate      = "Set template not synced, fetching it"
	LogMsgSetAdded             = "Owned set added"
	LogMsgSetRemoved           = "Owned set removed"
	LogMsgStatusUpdated        = "Owned set status updated"
	LogMsgFailedToPublishEvent = "Failed to publish inventory event"
)

// Error messages
const (
	ErrMsgEmptySetNum       = "set number is required"
	ErrMsgTemplateSyncFail  = "sync template for %s: %w"
	ErrMsgMinifigNotSynced  = "minifigure %s composition not synced"
	ErrMsgSetPartsNotSynced = "part or minifigure list of %s not synced"

	ErrMsgTemplateRowsRejected = "%s has rows referencing unknown catalog entries: %s"
)
