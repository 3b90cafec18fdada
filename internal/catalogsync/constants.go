package catalogsync

import "time"

// DefaultPageTimeout bounds a single page fetch when none is configured
const DefaultPageTimeout = 30 * time.Second

// Log messages
const (
	LogMsgSyncStarted          = "Catalog sync started"
	LogMsgSyncResumed          = "Resuming catalog sync from checkpoint"
	LogMsgPageCommitted        = "Catalog page committed"
	LogMsgRecordRejected       = "Catalog record rejected"
	LogMsgEmbeddedRejected     = "Embedded catalog reference rejected"
	LogMsgTransportFailure     = "Catalog source failed, sync stopped"
	LogMsgSyncFinished         = "Catalog sync finished"
	LogMsgFailedToRecordRun    = "Failed to record sync run"
	LogMsgFailedToPublishEvent = "Failed to publish sync event"
	LogMsgStageStarted         = "Sync stage started"
	LogMsgStageIncomplete      = "Sync stage incomplete, later stages skipped"
	LogMsgTemplateSynced       = "Set template synced"
)

// Error messages
const (
	ErrMsgUnscopedKindWithScope = "scope is only valid for composition kinds"
	ErrMsgFetchTimedOut         = "page fetch timed out after %s"
	ErrMsgFetchFailed           = "fetch %s page %q: %w"
	ErrMsgApplyBatchFailed      = "apply %s batch: %w"
	ErrMsgStageIncomplete       = "stage %d incomplete"
	ErrMsgNoMapper              = "no mapper for kind %s"
)
