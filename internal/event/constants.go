package event

// EventSchemaVersion is stamped on every event built by the New*Event helpers
const EventSchemaVersion = "1.0"

// Metadata keys the bus fills from the publishing context
const (
	MetadataKeyRequestID = "request_id"
)

// ErrMsgHandlersFailed joins the errors of every failing subscriber
const ErrMsgHandlersFailed = "%d of %d handlers failed for event %s: %v"
