package handler

// Client-facing messages. Internal error details are only logged.
const (
	ErrMsgGenericServerError = "Something went wrong"
	ErrMsgUnknownError       = "Unknown error"
	ErrMsgCatalogUnavailable = "Catalog source unavailable. Please try again later."

	ErrMsgInvalidRequest        = "Invalid request body"
	ErrMsgInvalidRequestSummary = "Invalid request"
	ErrMsgInvalidID             = "Invalid %s"
	ErrMsgInvalidQueryParam     = "Invalid %s query parameter"
	ErrMsgMissingQueryParam     = "Missing %s query parameter"
	ErrMsgHaveOrDelta           = "Exactly one of have or delta is required"
)

// Success messages
const (
	MsgStatusUpdated = "Status updated"
	MsgSetRemoved    = "Set removed"
	MsgSlotRemoved   = "Storage slot removed"
)

// Log messages
const (
	LogMsgEncodeFailed   = "Failed to encode JSON response"
	LogMsgWriteFailed    = "Failed to write response buffer"
	LogMsgDecodeFailed   = "Failed to decode request"
	LogMsgReadinessFail  = "Readiness check failed"
	LogMsgSyncRequested  = "Sync requested"
	LogMsgSyncIncomplete = "Sync stopped before completion"
	LogMsgPushRequested  = "List push requested"
	LogMsgPushIncomplete = "List push left lines unwritten"
)

// Route parameter and query names
const (
	ParamID    = "id"
	ParamKind  = "kind"
	ParamPart  = "part"
	ParamField = "field"

	QueryColorID       = "color_id"
	QueryStatus        = "status"
	QueryExcludeStatus = "exclude_status"
	QueryIncludeSpares = "include_spares"
	QuerySite          = "site"
	QueryLevel         = "level"
	QueryBox           = "box"
)
