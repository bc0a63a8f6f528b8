package adapters

import (
	"context"

	entryservice "warehouse_ops_backend/internal/entries/service"
	"warehouse_ops_backend/internal/entries/transport"
	"warehouse_ops_backend/internal/profile"
	"warehouse_ops_backend/internal/reconcile"
)

// EntryBatchWriter is the part of the entries service that persists batches.
type EntryBatchWriter interface {
	SubmitBatch(ctx context.Context, p profile.Profile, in entryservice.BatchInput) (transport.SubmitBatchResponse, error)
}

// GridBatchSubmitter adapts the entries service to reconcile.BatchSubmitter.
type GridBatchSubmitter struct {
	entries EntryBatchWriter
}

// NewGridBatchSubmitter creates a new batch submitter adapter.
func NewGridBatchSubmitter(entries EntryBatchWriter) *GridBatchSubmitter {
	return &GridBatchSubmitter{entries: entries}
}

// SubmitBatch persists the grid rows as one grid-sourced batch.
func (a *GridBatchSubmitter) SubmitBatch(ctx context.Context, req reconcile.BatchRequest) (reconcile.BatchResult, error) {
	p, err := profile.Get(string(req.Kind))
	if err != nil {
		return reconcile.BatchResult{}, err
	}

	rows := make([]entryservice.BatchRow, 0, len(req.Rows))
	for _, row := range req.Rows {
		rows = append(rows, entryservice.BatchRow{WSN: row.WSN, Fields: row.Fields, Product: row.ReadOnly})
	}

	resp, err := a.entries.SubmitBatch(ctx, p, entryservice.BatchInput{
		Kind:         req.Kind,
		WarehouseID:  req.WarehouseID,
		Operator:     req.Operator,
		Source:       entryservice.SourceGrid,
		Rows:         rows,
		CommonFields: req.CommonFields,
	})
	if err != nil {
		return reconcile.BatchResult{}, err
	}

	results := make([]reconcile.RowResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, reconcile.RowResult{WSN: r.WSN, OK: r.OK, Error: r.Error})
	}
	return reconcile.BatchResult{SuccessCount: resp.SuccessCount, BatchID: resp.BatchID, Results: results}, nil
}

var _ reconcile.BatchSubmitter = (*GridBatchSubmitter)(nil)
