package bootstrap

import (
	"context"
	"log/slog"

	"github.com/osse101/BrickManager_Go/internal/event"
	"github.com/osse101/BrickManager_Go/internal/logger"
	"github.com/osse101/BrickManager_Go/internal/metrics"
)

// loggedEventTypes are mirrored to the debug log as an audit trail
var loggedEventTypes = []event.Type{
	event.SyncFinished,
	event.OwnedSetAdded,
	event.OwnedSetRemoved,
	event.StorageSlotAssigned,
	event.StorageSlotRemoved,
	event.ListPushed,
}

// RegisterEventHandlers subscribes the metrics collector and the event logger
func RegisterEventHandlers(bus event.Bus) {
	metrics.NewEventMetricsCollector().Register(bus)
	slog.Info(LogMsgMetricsCollectorRegistered)

	for _, t := range loggedEventTypes {
		bus.Subscribe(t, logEvent)
	}
	slog.Info(LogMsgEventLoggerRegistered, "types", len(loggedEventTypes))
}

func logEvent(ctx context.Context, evt event.Event) error {
	logger.FromContext(ctx).Debug(LogMsgEventReceived, "type", evt.Type, "version", evt.Version)
	return nil
}
