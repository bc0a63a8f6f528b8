package scheduler

import (
	"context"
	"fmt"

	"warehouse_ops_backend/platform/config"
	"warehouse_ops_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// LabelPrintHandler renders and records one label.
type LabelPrintHandler interface {
	HandleLabelPrint(ctx context.Context, payload LabelPrintPayload) error
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, labels LabelPrintHandler, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	w := &Worker{
		server: server,
		mux:    NewServeMux(labels),
		log:    log,
	}
	return w, nil
}

// NewServeMux routes task types to their handlers.
func NewServeMux(labels LabelPrintHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskPrintLabel, func(ctx context.Context, task *asynq.Task) error {
		return handleLabelPrint(ctx, labels, task)
	})
	return mux
}

func handleLabelPrint(ctx context.Context, labels LabelPrintHandler, task *asynq.Task) error {
	payload, err := ParseLabelPrintPayload(task)
	if err != nil {
		return fmt.Errorf("parse label payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.WSN == "" {
		return fmt.Errorf("label payload has no wsn: %w", asynq.SkipRetry)
	}
	return labels.HandleLabelPrint(ctx, payload)
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
