package reconcile

import "github.com/google/uuid"

// EventType names a grid event pushed to the page shell.
type EventType string

const (
	EventRowUpdated   EventType = "row_updated"
	EventRowRemoved   EventType = "row_removed"
	EventRowsAppended EventType = "rows_appended"
	EventNotification EventType = "notification"
	EventRefocus      EventType = "refocus"
	EventSetsChanged  EventType = "sets_changed"
	EventGridReset    EventType = "grid_reset"
)

// Severity is the level of a transient notification.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Reason explains why an identifier was rejected or not stored.
type Reason string

const (
	ReasonGridDuplicate  Reason = "grid-duplicate"
	ReasonSameWarehouse  Reason = "same-warehouse"
	ReasonCrossWarehouse Reason = "cross-warehouse"
	ReasonLookupFailed   Reason = "lookup-failed"
	ReasonInsertFailed   Reason = "insert-failed"
)

// Severity maps a rejection reason to its notification level.
func (r Reason) Severity() Severity {
	if r == ReasonCrossWarehouse || r == ReasonInsertFailed {
		return SeverityError
	}
	return SeverityWarning
}

// Event is one entry on a grid's event stream.
type Event struct {
	Type     EventType `json:"type"`
	RowID    uuid.UUID `json:"rowId,omitempty"`
	Field    string    `json:"field,omitempty"`
	WSN      string    `json:"wsn,omitempty"`
	Severity Severity  `json:"severity,omitempty"`
	Reason   Reason    `json:"reason,omitempty"`
	Message  string    `json:"message,omitempty"`
	OwnerID  int64     `json:"ownerWarehouseId,omitempty"`
	Row      *RowView  `json:"row,omitempty"`
	Rows     []RowView `json:"rows,omitempty"`
	Sets     *SetsView `json:"sets,omitempty"`
}
