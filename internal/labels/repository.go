package labels

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	StatusRendered = "rendered"
	StatusFailed   = "failed"
)

// Job is one label print attempt.
type Job struct {
	ID          uuid.UUID
	Kind        string
	WSN         string
	WarehouseID int64
	Status      string
	PNGBytes    int
	Error       *string
}

// Repository stores label print jobs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a label job repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const insertJobQuery = `
	INSERT INTO label_print_jobs (id, kind, wsn, warehouse_id, status, png_bytes, error)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

const deleteFinishedJobsQuery = `
	DELETE FROM label_print_jobs
	WHERE (status = 'rendered' AND created_at < $1)
	   OR (status = 'failed' AND created_at < $2)
`

// RecordJob stores one job.
func (r *Repository) RecordJob(ctx context.Context, job Job) error {
	_, err := r.pool.Exec(ctx, insertJobQuery, job.ID, job.Kind, job.WSN, job.WarehouseID, job.Status, job.PNGBytes, job.Error)
	if err != nil {
		return fmt.Errorf("record label job: %w", err)
	}
	return nil
}

// DeleteFinishedBefore prunes old jobs and returns how many were removed.
func (r *Repository) DeleteFinishedBefore(ctx context.Context, renderedBefore, failedBefore time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, deleteFinishedJobsQuery, renderedBefore, failedBefore)
	if err != nil {
		return 0, fmt.Errorf("delete finished label jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}
