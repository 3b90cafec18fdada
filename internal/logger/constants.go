package logger

// Log Level String Values
const (
	LogLevelDebug   = "debug"
	LogLevelInfo    = "info"
	LogLevelWarn    = "warn"
	LogLevelWarning = "warning"
	LogLevelError   = "error"
)

// Log Format String Values
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Service Configuration Values
const (
	DefaultServiceName = "brick-manager"
	DefaultVersion     = "dev"
	ProductionVersion  = "1.0.0"
)

// Environment String Values
const (
	EnvironmentDev        = "dev"
	EnvironmentStaging    = "staging"
	EnvironmentProduction = "prod"
	EnvironmentTest       = "test"
)

// Log Attribute Keys
const (
	AttrKeyService     = "service"
	AttrKeyVersion     = "version"
	AttrKeyEnvironment = "environment"
	AttrKeyRequestID   = "request_id"
)

// Domain attribute keys shared by the services so a record can be followed
// across packages in the logs
const (
	AttrKeyKind       = "kind"
	AttrKeyScope      = "scope"
	AttrKeyCursor     = "cursor"
	AttrKeySetNum     = "set_num"
	AttrKeyOwnedSetID = "owned_set_id"
	AttrKeyPartNum    = "part_num"
	AttrKeyColorID    = "color_id"
	AttrKeySlotID     = "slot_id"
	AttrKeyTarget     = "target"
	AttrKeyListID     = "list_id"
)
