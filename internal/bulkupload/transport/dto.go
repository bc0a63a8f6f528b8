package transport

import (
	entrytransport "warehouse_ops_backend/internal/entries/transport"
)

// Row statuses reported in an upload preview.
const (
	StatusClean          = "clean"
	StatusEmpty          = "empty"
	StatusGridDuplicate  = "grid-duplicate"
	StatusSameWarehouse  = "same-warehouse"
	StatusCrossWarehouse = "cross-warehouse"
	StatusLookupFailed   = "lookup-failed"
	StatusInvalid        = "invalid"
)

type UploadQuery struct {
	Commit bool `form:"commit"`
}

// RowPreview is the classification of one spreadsheet row.
type RowPreview struct {
	Line             int               `json:"line"`
	WSN              string            `json:"wsn"`
	Status           string            `json:"status"`
	OwnerWarehouseID *int64            `json:"ownerWarehouseId,omitempty"`
	Message          string            `json:"message,omitempty"`
	Fields           map[string]string `json:"fields,omitempty"`
}

type UploadSummary struct {
	Total          int `json:"total"`
	Clean          int `json:"clean"`
	Empty          int `json:"empty"`
	GridDuplicate  int `json:"gridDuplicate"`
	SameWarehouse  int `json:"sameWarehouse"`
	CrossWarehouse int `json:"crossWarehouse"`
	LookupFailed   int `json:"lookupFailed"`
	Invalid        int `json:"invalid"`
}

type UploadResponse struct {
	Kind           string                              `json:"kind"`
	Sheet          string                              `json:"sheet"`
	IgnoredColumns []string                            `json:"ignoredColumns,omitempty"`
	Rows           []RowPreview                        `json:"rows"`
	Summary        UploadSummary                       `json:"summary"`
	Committed      bool                                `json:"committed"`
	UploadKey      *string                             `json:"uploadKey,omitempty"`
	Batch          *entrytransport.SubmitBatchResponse `json:"batch,omitempty"`
}
