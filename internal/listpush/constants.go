package listpush

// Default remote list names
const (
	DefaultPartListName = "Brick_Manager-Missing_Parts"
	DefaultSetListName  = "Brick_Manager"
)

// BatchSize caps the lines sent in one add request
const BatchSize = 100

// Log messages
const (
	LogMsgPushFinished         = "List push finished"
	LogMsgBatchRejected        = "List add batch rejected, retrying line by line"
	LogMsgLineFailed           = "List line write failed"
	LogMsgFailedToPublishEvent = "Failed to publish list push event"
)

// Error messages
const (
	ErrMsgUnknownKind = "unknown missing part kind %q"
)
