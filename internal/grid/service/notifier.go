package service

import (
	"context"

	"warehouse_ops_backend/internal/events"
	"warehouse_ops_backend/internal/notification/sse"
	"warehouse_ops_backend/internal/reconcile"

	"github.com/google/uuid"
)

// gridNotifier forwards engine events to the grid's SSE channel and reports
// rejections on the domain event bus. It never calls back into the engine.
type gridNotifier struct {
	gridID      uuid.UUID
	kind        string
	warehouseID int64
	streams     *sse.Service
	bus         events.Bus
}

func (n *gridNotifier) Notify(event reconcile.Event) {
	if n.streams != nil {
		n.streams.Publish(channelFor(n.gridID), sse.Event{Type: string(event.Type), Data: event})
	}
	if n.bus != nil && event.Type == reconcile.EventNotification && event.Reason != reconcile.ReasonInsertFailed {
		n.bus.Publish(context.Background(), events.IdentifierRejected{
			BaseEvent:        events.NewBaseEvent(),
			GridID:           n.gridID,
			Kind:             n.kind,
			WSN:              event.WSN,
			WarehouseID:      n.warehouseID,
			Reason:           string(event.Reason),
			OwnerWarehouseID: event.OwnerID,
		})
	}
}

func channelFor(gridID uuid.UUID) string {
	return "grid:" + gridID.String()
}
