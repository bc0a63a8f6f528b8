package scheduler

import (
	"context"
	"time"

	"warehouse_ops_backend/platform/logger"
)

const (
	defaultLabelJobCleanupInterval = time.Hour
	defaultRenderedJobRetention    = 7 * 24 * time.Hour
	defaultFailedJobRetention      = 30 * 24 * time.Hour
)

// LabelJobPruner deletes finished label jobs older than the given cutoffs.
type LabelJobPruner interface {
	DeleteFinishedBefore(ctx context.Context, renderedBefore, failedBefore time.Time) (int64, error)
}

// LabelJobCleanup periodically removes old label print job records.
type LabelJobCleanup struct {
	repo              LabelJobPruner
	log               *logger.Logger
	interval          time.Duration
	renderedRetention time.Duration
	failedRetention   time.Duration
	now               func() time.Time
}

func NewLabelJobCleanup(repo LabelJobPruner, log *logger.Logger, interval, renderedRetention, failedRetention time.Duration) *LabelJobCleanup {
	if interval <= 0 {
		interval = defaultLabelJobCleanupInterval
	}
	if renderedRetention <= 0 {
		renderedRetention = defaultRenderedJobRetention
	}
	if failedRetention <= 0 {
		failedRetention = defaultFailedJobRetention
	}

	return &LabelJobCleanup{
		repo:              repo,
		log:               log,
		interval:          interval,
		renderedRetention: renderedRetention,
		failedRetention:   failedRetention,
		now:               time.Now,
	}
}

func (c *LabelJobCleanup) Run(ctx context.Context) {
	if c == nil || c.repo == nil {
		return
	}

	c.cleanup(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *LabelJobCleanup) cleanup(ctx context.Context) {
	now := c.now()
	renderedBefore := now.Add(-c.renderedRetention)
	failedBefore := now.Add(-c.failedRetention)

	deleted, err := c.repo.DeleteFinishedBefore(ctx, renderedBefore, failedBefore)
	if err != nil {
		c.log.Warn("label job cleanup failed", "error", err)
		return
	}

	if deleted > 0 {
		c.log.Info("label job cleanup deleted finished jobs", "deleted", deleted)
	}
}
