package labels

import (
	"context"

	"warehouse_ops_backend/internal/reconcile"
	"warehouse_ops_backend/internal/scheduler"
)

// Printer is the grid's best-effort print port. It only queues the job.
type Printer struct {
	queue scheduler.LabelEnqueuer
}

// NewPrinter creates a printer backed by the job queue.
func NewPrinter(queue scheduler.LabelEnqueuer) *Printer {
	return &Printer{queue: queue}
}

// PrintLabel queues a label for payload.
func (p *Printer) PrintLabel(ctx context.Context, payload reconcile.LabelPayload) error {
	return p.queue.EnqueueLabelPrint(ctx, scheduler.LabelPrintPayload{
		Kind:        string(payload.Kind),
		WSN:         payload.WSN,
		WarehouseID: payload.WarehouseID,
		Operator:    payload.Operator,
		Title:       payload.Title,
	})
}

var _ reconcile.LabelPrinter = (*Printer)(nil)
