package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      MetricNameHTTPRequestsTotal,
			Help:      HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      MetricNameHTTPRequestDuration,
			Help:      HelpTextHTTPRequestDuration,
			Buckets:   HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      MetricNameHTTPRequestsInFlight,
			Help:      HelpTextHTTPRequestsInFlight,
		},
	)
)

// Event Metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      MetricNameEventsPublished,
			Help:      HelpTextEventsPublished,
		},
		[]string{LabelType},
	)

	EventHandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      MetricNameEventHandlerErrors,
			Help:      HelpTextEventHandlerErrors,
		},
		[]string{LabelType},
	)
)

// Business Metrics
var (
	SyncRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      MetricNameSyncRecords,
			Help:      HelpTextSyncRecords,
		},
		[]string{LabelKind, LabelOutcome},
	)

	SyncPages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      MetricNameSyncPages,
			Help:      HelpTextSyncPages,
		},
		[]string{LabelKind},
	)

	SyncTransportFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      MetricNameSyncTransportFailures,
			Help:      HelpTextSyncTransportFailures,
		},
		[]string{LabelKind},
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      MetricNameSyncDuration,
			Help:      HelpTextSyncDuration,
			Buckets:   SyncDurationBuckets,
		},
		[]string{LabelKind},
	)

	StorageAssignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      MetricNameStorageAssignments,
			Help:      HelpTextStorageAssignments,
		},
		[]string{LabelResult},
	)

	OwnedSetsAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      MetricNameOwnedSetsAdded,
			Help:      HelpTextOwnedSetsAdded,
		},
	)

	OwnedSetsRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      MetricNameOwnedSetsRemoved,
			Help:      HelpTextOwnedSetsRemoved,
		},
	)

	ReconcileDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      MetricNameReconcileDuration,
			Help:      HelpTextReconcileDuration,
			Buckets:   HTTPLatencyBuckets,
		},
		[]string{LabelScope},
	)

	ImageCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      MetricNameImageCacheLookups,
			Help:      HelpTextImageCacheLookups,
		},
		[]string{LabelResult},
	)

	ListPushLines = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      MetricNameListPushLines,
			Help:      HelpTextListPushLines,
		},
		[]string{LabelTarget, LabelResult},
	)
)
