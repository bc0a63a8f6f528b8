// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"warehouse_ops_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Entries Domain Events
// =============================================================================

// EntryCreated is published when a single-record form entry is stored.
type EntryCreated struct {
	BaseEvent
	EntryID     uuid.UUID `json:"entryId"`
	Kind        string    `json:"kind"`
	WSN         string    `json:"wsn"`
	WarehouseID int64     `json:"warehouseId"`
	CreatedBy   string    `json:"createdBy"`
}

func (e EntryCreated) EventName() string { return "entries.entry.created" }

// BatchSubmitted is published after a grid or upload batch is persisted.
type BatchSubmitted struct {
	BaseEvent
	BatchID      uuid.UUID `json:"batchId"`
	Kind         string    `json:"kind"`
	WarehouseID  int64     `json:"warehouseId"`
	Source       string    `json:"source"`
	SuccessCount int       `json:"successCount"`
	SkippedCount int       `json:"skippedCount"`
	CreatedBy    string    `json:"createdBy"`
}

func (e BatchSubmitted) EventName() string { return "entries.batch.submitted" }

// BatchDeleted is published when a batch and its entries are removed.
type BatchDeleted struct {
	BaseEvent
	BatchID        uuid.UUID `json:"batchId"`
	Kind           string    `json:"kind"`
	WarehouseID    int64     `json:"warehouseId"`
	DeletedEntries int       `json:"deletedEntries"`
}

func (e BatchDeleted) EventName() string { return "entries.batch.deleted" }

// =============================================================================
// Grid Domain Events
// =============================================================================

// IdentifierRejected is published whenever a grid clears an identifier cell.
type IdentifierRejected struct {
	BaseEvent
	GridID           uuid.UUID `json:"gridId"`
	Kind             string    `json:"kind"`
	WSN              string    `json:"wsn"`
	WarehouseID      int64     `json:"warehouseId"`
	Reason           string    `json:"reason"`
	OwnerWarehouseID int64     `json:"ownerWarehouseId,omitempty"`
}

func (e IdentifierRejected) EventName() string { return "grid.identifier.rejected" }

// GridExpired is published when an idle grid session is closed.
type GridExpired struct {
	BaseEvent
	GridID      uuid.UUID `json:"gridId"`
	Kind        string    `json:"kind"`
	WarehouseID int64     `json:"warehouseId"`
}

func (e GridExpired) EventName() string { return "grid.session.expired" }
