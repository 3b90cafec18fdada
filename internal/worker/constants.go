package worker

// ============================================================================
// Log Messages - Worker Pool
// ============================================================================

// LogMsgWorkerJobFailed is logged when a worker fails to process a job
const LogMsgWorkerJobFailed = "Worker job failed"

// ============================================================================
// Log Messages - Startup Sync Worker
// ============================================================================

// Log messages for the startup sync worker
const (
	LogMsgStartupSyncStarting  = "Startup catalog sync starting"
	LogMsgStartupSyncCompleted = "Startup catalog sync completed"
	LogMsgStartupSyncFailed    = "Startup catalog sync failed"
	LogMsgStartupSyncStopped   = "Startup catalog sync stopped before completion"
)

// ============================================================================
// Test Configuration
// ============================================================================

// Test pool configuration values used in pool_test.go
const (
	TestWorkerCount           = 2
	TestQueueSize             = 10
	TestExpectedJobCount      = 2
	TestWorkerProcessWaitTime = 100 // milliseconds
)
