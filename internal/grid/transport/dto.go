package transport

import (
	"warehouse_ops_backend/internal/reconcile"

	"github.com/google/uuid"
)

type OpenGridRequest struct {
	Kind string `json:"kind" validate:"required,oneof=inbound outbound qc"`
}

type CommitIdentifierRequest struct {
	Value string `json:"value" validate:"max=500"`
}

type EditFieldsRequest struct {
	Fields map[string]string `json:"fields" validate:"required,min=1,max=50"`
}

type AppendRowsRequest struct {
	Count int `json:"count" validate:"required,min=1,max=500"`
}

type SubmitGridRequest struct {
	CommonFields map[string]string `json:"commonFields"`
}

// GridResponse is the full state of a grid session.
type GridResponse struct {
	ID uuid.UUID `json:"id"`
	reconcile.View
}

type RowResponse struct {
	Row reconcile.RowView `json:"row"`
}

type RowsResponse struct {
	Rows []reconcile.RowView `json:"rows"`
}
