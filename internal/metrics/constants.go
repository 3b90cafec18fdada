package metrics

// ============================================================================
// Metric Names
// ============================================================================

// Namespace prefixes every metric exported by the service
const Namespace = "brickmanager"

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Event metric names
const (
	MetricNameEventsPublished    = "events_published_total"
	MetricNameEventHandlerErrors = "event_handler_errors_total"
)

// Business metric names
const (
	MetricNameSyncRecords           = "sync_records_total"
	MetricNameSyncPages             = "sync_pages_total"
	MetricNameSyncTransportFailures = "sync_transport_failures_total"
	MetricNameSyncDuration          = "sync_duration_seconds"
	MetricNameStorageAssignments    = "storage_assignments_total"
	MetricNameOwnedSetsAdded        = "owned_sets_added_total"
	MetricNameOwnedSetsRemoved      = "owned_sets_removed_total"
	MetricNameReconcileDuration     = "reconcile_duration_seconds"
	MetricNameImageCacheLookups     = "image_cache_lookups_total"
	MetricNameListPushLines         = "list_push_lines_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Event metric help text
const (
	HelpTextEventsPublished    = "Total number of events published"
	HelpTextEventHandlerErrors = "Total number of event handler errors"
)

// Business metric help text
const (
	HelpTextSyncRecords           = "Catalog records processed by sync, by outcome"
	HelpTextSyncPages             = "Catalog pages committed by sync"
	HelpTextSyncTransportFailures = "Sync calls stopped by a transport failure"
	HelpTextSyncDuration          = "Duration of a sync call in seconds"
	HelpTextStorageAssignments    = "Storage slot assignments, by result"
	HelpTextOwnedSetsAdded        = "Owned sets registered"
	HelpTextOwnedSetsRemoved      = "Owned sets removed"
	HelpTextReconcileDuration     = "Duration of a missing-parts computation in seconds"
	HelpTextImageCacheLookups     = "Image cache lookups, by result"
	HelpTextListPushLines         = "Remote list lines written by a push, by target and result"
)

// ============================================================================
// Metric Label Names
// ============================================================================

// Common label names used across metrics
const (
	LabelMethod  = "method"
	LabelPath    = "path"
	LabelStatus  = "status"
	LabelType    = "type"
	LabelKind    = "kind"
	LabelOutcome = "outcome"
	LabelResult  = "result"
	LabelScope   = "scope"
	LabelTarget  = "target"
)

// Label values
const (
	ResultInserted = "inserted"
	ResultUpdated  = "updated"
	ResultHit      = "hit"
	ResultMiss     = "miss"
	ResultFallback = "fallback"
	ResultAdded    = "added"
	ResultRemoved  = "removed"
	ResultFailed   = "failed"
	ScopeSet       = "set"
	ScopeAll       = "all"
	ScopeSummary   = "summary"
)

// HTTPLatencyBuckets are histogram buckets for request latency
var HTTPLatencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// SyncDurationBuckets cover runs from a handful of pages to a full catalog
var SyncDurationBuckets = []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600}

// Log messages
const (
	LogMsgUnexpectedPayload = "Unexpected event payload type"
	LogMsgMetricsRecorded   = "Metrics recorded for event"
)
