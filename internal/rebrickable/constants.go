package rebrickable

import "time"

// Client defaults
const (
	DefaultPageSize    = 1000
	DefaultRPS         = 1.0
	DefaultBurst       = 1
	DefaultHTTPTimeout = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 2 * time.Second
	// MaxPageSize is the largest page the API serves
	MaxPageSize = 1000
	// DefaultUsersURL is the root of the account endpoints
	DefaultUsersURL = "https://rebrickable.com/api/v3/users"
	// ListPageSize is the page size used when reading account lists
	ListPageSize = 100
	// WriteBatchSize caps the entries sent in one bulk add
	WriteBatchSize = 100
)

// invalidPageDetail is the 404 body detail the API returns past the last page
const invalidPageDetail = "Invalid page."

// Header names
const (
	HeaderAuthorization = "Authorization"
	HeaderAccept        = "Accept"
	HeaderRetryAfter    = "Retry-After"
	HeaderContentType   = "Content-Type"
	authScheme          = "key "
	contentTypeJSON     = "application/json"
	contentTypeForm     = "application/x-www-form-urlencoded"
)

// Log messages
const (
	LogMsgFetchingPage   = "Fetching catalog page"
	LogMsgRateLimited    = "Catalog API rate limit hit, backing off"
	LogMsgServerError    = "Catalog API server error, retrying"
	LogMsgPastLastPage   = "Catalog API reports no more pages"
	LogMsgRequestFailure = "Catalog API request failed"
	LogMsgListCreated    = "Created account list"
	LogMsgListEntriesAdd = "Adding account list entries"
)

// Error messages
const (
	ErrMsgUnsupportedKind = "unsupported kind %q"
	ErrMsgInvalidCursor   = "invalid cursor %q"
	ErrMsgUnexpectedCode  = "unexpected status %d from %s"
	ErrMsgRetriesExceeded = "giving up on %s after %d attempts: %w"
	ErrMsgDecodeResponse  = "decode response: %w"
	ErrMsgRequest         = "request %s: %w"
	ErrMsgEncodeRequest   = "encode request: %w"
)
