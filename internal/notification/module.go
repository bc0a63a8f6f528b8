// Package notification turns domain events into live updates for the
// warehouse pages. List and batch views subscribe to a per-warehouse SSE
// channel and refresh when entries or batches change.
package notification

import (
	"context"
	"strconv"

	"warehouse_ops_backend/internal/events"
	apphttp "warehouse_ops_backend/internal/http"
	"warehouse_ops_backend/internal/notification/sse"
	"warehouse_ops_backend/platform/httpkit"
	"warehouse_ops_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// Activity event types pushed on the warehouse channel.
const (
	ActivityEntryCreated   = "entry_created"
	ActivityBatchSubmitted = "batch_submitted"
	ActivityBatchDeleted   = "batch_deleted"
)

// Publisher fans events out to SSE channels.
type Publisher interface {
	Publish(channel string, event sse.Event)
}

// Module subscribes to entry and grid events.
type Module struct {
	streams *sse.Service
	pub     Publisher
	log     *logger.Logger
}

// New creates the notification module.
func New(streams *sse.Service, log *logger.Logger) *Module {
	m := &Module{streams: streams, log: log}
	if streams != nil {
		m.pub = streams
	}
	return m
}

// Name returns the module identifier.
func (m *Module) Name() string { return "notification" }

// RegisterRoutes registers the warehouse activity stream.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	if m.streams == nil {
		return
	}
	ctx.Warehouse.GET("/activity/stream", func(c *gin.Context) {
		ws := httpkit.MustGetWorkspace(c)
		if ws == nil {
			return
		}
		m.streams.Stream(c, WarehouseChannel(ws.WarehouseID()))
	})
}

// WarehouseChannel is the SSE channel for one warehouse's activity.
func WarehouseChannel(warehouseID int64) string {
	return "warehouse:" + strconv.FormatInt(warehouseID, 10)
}

// RegisterHandlers subscribes the module to the domain events it forwards.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.EntryCreated{}.EventName(), m)
	bus.Subscribe(events.BatchSubmitted{}.EventName(), m)
	bus.Subscribe(events.BatchDeleted{}.EventName(), m)
	bus.Subscribe(events.IdentifierRejected{}.EventName(), m)
	bus.Subscribe(events.GridExpired{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(_ context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.EntryCreated:
		m.publish(e.WarehouseID, ActivityEntryCreated, e)
	case events.BatchSubmitted:
		m.publish(e.WarehouseID, ActivityBatchSubmitted, e)
	case events.BatchDeleted:
		m.publish(e.WarehouseID, ActivityBatchDeleted, e)
	case events.IdentifierRejected:
		m.log.Info("identifier_rejected",
			"gridId", e.GridID,
			"kind", e.Kind,
			"wsn", e.WSN,
			"warehouseId", e.WarehouseID,
			"reason", e.Reason,
			"ownerWarehouseId", e.OwnerWarehouseID,
		)
	case events.GridExpired:
		m.log.Info("grid_expired", "gridId", e.GridID, "kind", e.Kind, "warehouseId", e.WarehouseID)
	default:
		m.log.Debug("unhandled event", "event", event.EventName())
	}
	return nil
}

func (m *Module) publish(warehouseID int64, eventType string, payload interface{}) {
	if m.pub == nil {
		return
	}
	m.pub.Publish(WarehouseChannel(warehouseID), sse.Event{Type: eventType, Data: payload})
}

var _ apphttp.Module = (*Module)(nil)
