package reconcile

import (
	"maps"
	"time"

	"warehouse_ops_backend/internal/profile"
	"warehouse_ops_backend/internal/wsn"

	"github.com/google/uuid"
)

// RowStatus tracks where a row's identifier is in the reconciliation flow.
type RowStatus string

const (
	RowEmpty    RowStatus = "empty"
	RowChecking RowStatus = "checking"
	RowAccepted RowStatus = "accepted"
)

// Row is one spreadsheet line. Fields are operator-entered values; ReadOnly
// is either nil or the complete set filled from one master-data lookup.
type Row struct {
	ID         uuid.UUID
	Identifier string
	Fields     map[string]string
	ReadOnly   map[string]string
	Status     RowStatus

	conflictKey string
	gen         uint64
	debounce    *time.Timer
}

func newRow() *Row {
	return &Row{ID: uuid.New(), Fields: map[string]string{}, Status: RowEmpty}
}

// RawIdentifier implements wsn.Entry.
func (r *Row) RawIdentifier() string { return r.Identifier }

// ConflictKey implements wsn.Entry.
func (r *Row) ConflictKey() string { return r.conflictKey }

// Key is the normalized identifier.
func (r *Row) Key() string { return wsn.Normalize(r.Identifier) }

// RowView is the rendering snapshot of a row.
type RowView struct {
	ID             uuid.UUID         `json:"id"`
	Identifier     string            `json:"identifier"`
	Fields         map[string]string `json:"fields"`
	ReadOnly       map[string]string `json:"readOnly"`
	Status         RowStatus         `json:"status"`
	Decoration     Decoration        `json:"decoration"`
	EditableFields []string          `json:"editableFields"`
}

func (r *Row) view(p profile.Profile, sets wsn.Sets) RowView {
	d := Decorate(r.Key(), r.conflictKey, sets)
	readOnly := make(map[string]string, len(p.ReadOnlyFields))
	for _, field := range p.ReadOnlyFields {
		readOnly[field] = r.ReadOnly[field]
	}
	return RowView{
		ID:             r.ID,
		Identifier:     r.Identifier,
		Fields:         maps.Clone(r.Fields),
		ReadOnly:       readOnly,
		Status:         r.Status,
		Decoration:     d,
		EditableFields: EditableFields(p, d),
	}
}

// SetsView is the JSON form of the derived sets.
type SetsView struct {
	GridDuplicates []string `json:"gridDuplicates"`
	CrossWarehouse []string `json:"crossWarehouse"`
	Blockers       []string `json:"blockers"`
	CanSubmit      bool     `json:"canSubmit"`
}

func viewSets(sets wsn.Sets) SetsView {
	return SetsView{
		GridDuplicates: sets.GridDuplicates.Keys(),
		CrossWarehouse: sets.CrossWarehouse.Keys(),
		Blockers:       sets.Blockers.Keys(),
		CanSubmit:      wsn.CanSubmit(sets.Blockers),
	}
}

// View is everything the page shell renders for a grid.
type View struct {
	Kind        profile.Kind `json:"kind"`
	WarehouseID int64        `json:"warehouseId"`
	Rows        []RowView    `json:"rows"`
	Sets        SetsView     `json:"sets"`
	CanSubmit   bool         `json:"canSubmit"`
}
