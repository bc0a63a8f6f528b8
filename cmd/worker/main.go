package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"warehouse_ops_backend/internal/adapters/storage"
	"warehouse_ops_backend/internal/labels"
	"warehouse_ops_backend/internal/scheduler"
	"warehouse_ops_backend/platform/config"
	"warehouse_ops_backend/platform/db"
	"warehouse_ops_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting label worker", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	jobs := labels.NewRepository(pool)

	// Rendered labels are pushed to MinIO for the print agent when storage is configured.
	var sink labels.Sink
	if cfg.IsMinIOEnabled() {
		store, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure entry-labels bucket", 5, 2*time.Second, func() error {
			return store.EnsureBucketExists(ctx, cfg.GetMinioBucketLabels())
		}); err != nil {
			log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinioBucketLabels())
			panic("failed to ensure storage bucket exists: " + err.Error())
		}
		sink = labels.NewStorageSink(store, cfg.GetMinioBucketLabels())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; rendered labels are only recorded")
	}

	cleanupInterval := getDurationEnv("LABEL_JOB_CLEANUP_INTERVAL", time.Hour)
	renderedRetention := time.Duration(getPositiveIntEnv("LABEL_JOB_RENDERED_RETENTION_DAYS", 7)) * 24 * time.Hour
	failedRetention := time.Duration(getPositiveIntEnv("LABEL_JOB_FAILED_RETENTION_DAYS", 30)) * 24 * time.Hour
	labelJobCleanup := scheduler.NewLabelJobCleanup(jobs, log, cleanupInterval, renderedRetention, failedRetention)
	go labelJobCleanup.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, labels.NewProcessor(jobs, sink, log), log)
	if err != nil {
		log.Error("failed to initialize label worker", "error", err)
		panic("failed to initialize label worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}

func getPositiveIntEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}
