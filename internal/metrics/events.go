package metrics

import (
	"context"

	"github.com/osse101/BrickManager_Go/internal/domain"
	"github.com/osse101/BrickManager_Go/internal/event"
	"github.com/osse101/BrickManager_Go/internal/logger"
)

// EventMetricsCollector subscribes to events and records metrics
type EventMetricsCollector struct{}

// NewEventMetricsCollector creates a new event metrics collector
func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{}
}

// Register subscribes to all events
func (e *EventMetricsCollector) Register(bus event.Bus) {
	for _, eventType := range []event.Type{
		event.SyncFinished,
		event.OwnedSetAdded,
		event.OwnedSetRemoved,
		event.StorageSlotAssigned,
		event.StorageSlotRemoved,
		event.ListPushed,
	} {
		bus.Subscribe(eventType, e.HandleEvent)
	}
}

// HandleEvent processes events and updates metrics
func (e *EventMetricsCollector) HandleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	// Always increment event counter
	EventsPublished.WithLabelValues(string(evt.Type)).Inc()

	switch payload := evt.Payload.(type) {
	case event.SyncFinishedPayloadV1:
		kind := string(payload.Kind)
		SyncPages.WithLabelValues(kind).Add(float64(payload.Pages))
		SyncRecords.WithLabelValues(kind, string(domain.OutcomeInserted)).Add(float64(payload.Inserted))
		SyncRecords.WithLabelValues(kind, string(domain.OutcomeUpdated)).Add(float64(payload.Updated))
		SyncRecords.WithLabelValues(kind, string(domain.OutcomeUnchanged)).Add(float64(payload.Unchanged))
		SyncRecords.WithLabelValues(kind, string(domain.OutcomeFailed)).Add(float64(payload.Failed))
		if payload.Transport {
			SyncTransportFailures.WithLabelValues(kind).Inc()
		}

	case event.OwnedSetPayloadV1:
		if evt.Type == event.OwnedSetAdded {
			OwnedSetsAdded.Inc()
		} else {
			OwnedSetsRemoved.Inc()
		}

	case event.StorageSlotPayloadV1:
		if evt.Type == event.StorageSlotAssigned {
			result := ResultUpdated
			if payload.Inserted {
				result = ResultInserted
			}
			StorageAssignments.WithLabelValues(result).Inc()
		}

	case event.ListPushedPayloadV1:
		target := string(payload.Target)
		ListPushLines.WithLabelValues(target, ResultAdded).Add(float64(payload.Added))
		ListPushLines.WithLabelValues(target, ResultUpdated).Add(float64(payload.Updated))
		ListPushLines.WithLabelValues(target, ResultRemoved).Add(float64(payload.Removed))
		ListPushLines.WithLabelValues(target, ResultFailed).Add(float64(payload.Failed))

	default:
		log.Debug(LogMsgUnexpectedPayload, "type", evt.Type)
		return nil
	}

	log.Debug(LogMsgMetricsRecorded, "type", evt.Type)
	return nil
}
