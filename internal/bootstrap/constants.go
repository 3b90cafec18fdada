package bootstrap

import "time"

// Connection pool tuning
const (
	DBMaxConnIdleTime   = 5 * time.Minute
	DBMaxConnLifetime   = 30 * time.Minute
	DBConnectAttempts   = 10
	DBConnectRetryDelay = 2 * time.Second
)

// Log messages for store initialization
const (
	LogMsgUsingPostgres      = "Using PostgreSQL stores"
	LogMsgUsingMemory        = "Using in-memory stores; data is lost on restart"
	LogMsgMigrationsApplied  = "Database migrations applied"
	ErrMsgFailedConnectDB    = "failed to connect to database"
	ErrMsgFailedMigrate      = "failed to apply migrations"
	ErrMsgUnsupportedBackend = "unsupported storage backend %q"
)

// Log messages for event handler registration
const (
	LogMsgMetricsCollectorRegistered = "Metrics collector registered"
	LogMsgEventLoggerRegistered      = "Event logger registered"
	LogMsgEventReceived              = "Event received"
)

// Shutdown messages
const (
	LogMsgShuttingDownServer     = "Shutting down server..."
	LogMsgServerStopped          = "Server stopped"
	LogMsgServerForcedShutdown   = "Server forced to shutdown"
	LogMsgStartupSyncStopFailed  = "Startup sync worker shutdown failed"
	LogMsgClosingDatabase        = "Closing database pool"
)
