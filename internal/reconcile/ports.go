package reconcile

import (
	"context"

	"warehouse_ops_backend/internal/profile"

	"github.com/google/uuid"
)

// Owner is what persisted storage knows about an identifier.
type Owner struct {
	Found       bool
	WarehouseID int64
}

// OwnerLookup answers lookupOwnerByIdentifier for one entry kind.
type OwnerLookup interface {
	LookupOwner(ctx context.Context, kind profile.Kind, wsn string) (Owner, error)
}

// MasterRecord holds read-only row values keyed by profile field name.
type MasterRecord map[string]string

// MasterDataFetcher answers fetchMasterDataByIdentifier. A missing product is
// reported as an apperr NotFound.
type MasterDataFetcher interface {
	FetchMasterData(ctx context.Context, wsn string) (MasterRecord, error)
}

// SubmitRow is one populated grid row handed to the batch submitter.
type SubmitRow struct {
	RowID    uuid.UUID         `json:"rowId"`
	WSN      string            `json:"wsn"`
	Fields   map[string]string `json:"fields"`
	ReadOnly map[string]string `json:"readOnly,omitempty"`
}

// BatchRequest is the submitBatch command.
type BatchRequest struct {
	Kind         profile.Kind
	WarehouseID  int64
	Operator     string
	Rows         []SubmitRow
	CommonFields map[string]string
}

// RowResult reports the persistence outcome of one submitted row.
type RowResult struct {
	WSN   string `json:"wsn"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// BatchResult is the submitBatch reply.
type BatchResult struct {
	SuccessCount int         `json:"successCount"`
	BatchID      uuid.UUID   `json:"batchId"`
	Results      []RowResult `json:"results"`
}

// BatchSubmitter persists a batch of rows.
type BatchSubmitter interface {
	SubmitBatch(ctx context.Context, req BatchRequest) (BatchResult, error)
}

// LabelPayload is what gets printed for an accepted identifier.
type LabelPayload struct {
	Kind        profile.Kind `json:"kind"`
	WSN         string       `json:"wsn"`
	WarehouseID int64        `json:"warehouseId"`
	Operator    string       `json:"operator,omitempty"`
	Title       string       `json:"title,omitempty"`
}

// LabelPrinter is the optional, best-effort print side channel.
type LabelPrinter interface {
	PrintLabel(ctx context.Context, payload LabelPayload) error
}

// GradeChecker validates QC grade codes against the configured list.
type GradeChecker interface {
	ValidGrade(code string) bool
}

// Notifier receives engine events after the state change they describe has
// been committed. Implementations must not call back into the Engine.
type Notifier interface {
	Notify(event Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(Event) {}
