package storage

// Log messages
const (
	LogMsgSlotAssigned         = "Storage slot assigned"
	LogMsgSlotRemoved          = "Storage slot removed"
	LogMsgFailedToPublishEvent = "Failed to publish storage event"
)

// Error messages
const (
	ErrMsgPartNumRequired = "part number is required"
	ErrMsgBoxRequired     = "site, level and box are all required to open a box"
)
