package labels

import (
	"context"

	"warehouse_ops_backend/internal/scheduler"
	"warehouse_ops_backend/platform/logger"

	"github.com/google/uuid"
)

// JobRecorder persists print jobs.
type JobRecorder interface {
	RecordJob(ctx context.Context, job Job) error
}

// Sink receives rendered labels, typically the print agent's spool.
type Sink interface {
	Send(ctx context.Context, p scheduler.LabelPrintPayload, png []byte) error
}

// Processor handles label tasks on the worker side.
type Processor struct {
	jobs JobRecorder
	sink Sink
	log  *logger.Logger
}

// NewProcessor creates a label processor. sink may be nil.
func NewProcessor(jobs JobRecorder, sink Sink, log *logger.Logger) *Processor {
	return &Processor{jobs: jobs, sink: sink, log: log}
}

// HandleLabelPrint renders the label and records the outcome. Render and
// sink failures are recorded as failed jobs and not retried.
func (p *Processor) HandleLabelPrint(ctx context.Context, payload scheduler.LabelPrintPayload) error {
	job := Job{
		ID:          uuid.New(),
		Kind:        payload.Kind,
		WSN:         payload.WSN,
		WarehouseID: payload.WarehouseID,
		Status:      StatusRendered,
	}

	png, err := Render(payload)
	if err == nil && p.sink != nil {
		err = p.sink.Send(ctx, payload, png)
	}
	if err != nil {
		msg := err.Error()
		job.Status = StatusFailed
		job.Error = &msg
		p.log.PrintFailed(payload.WSN, err)
	} else {
		job.PNGBytes = len(png)
	}

	return p.jobs.RecordJob(ctx, job)
}

var _ scheduler.LabelPrintHandler = (*Processor)(nil)
