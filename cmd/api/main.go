package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"warehouse_ops_backend/internal/adapters"
	"warehouse_ops_backend/internal/adapters/storage"
	"warehouse_ops_backend/internal/bulkupload"
	uploadservice "warehouse_ops_backend/internal/bulkupload/service"
	"warehouse_ops_backend/internal/entries"
	"warehouse_ops_backend/internal/events"
	"warehouse_ops_backend/internal/grid"
	gridservice "warehouse_ops_backend/internal/grid/service"
	apphttp "warehouse_ops_backend/internal/http"
	"warehouse_ops_backend/internal/http/router"
	"warehouse_ops_backend/internal/labels"
	"warehouse_ops_backend/internal/masterdata"
	"warehouse_ops_backend/internal/notification"
	"warehouse_ops_backend/internal/notification/sse"
	"warehouse_ops_backend/internal/qcgrades"
	"warehouse_ops_backend/internal/reconcile"
	"warehouse_ops_backend/internal/scheduler"
	"warehouse_ops_backend/platform/config"
	"warehouse_ops_backend/platform/db"
	"warehouse_ops_backend/platform/logger"
	"warehouse_ops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const storageBucketEnsureErrPrefix = "failed to ensure storage bucket exists: "
const storageBucketEnsureErrMsg = "failed to ensure storage bucket exists"

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, storageSvc storage.StorageService, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error(storageBucketEnsureErrMsg, "error", err, "bucket", bucket)
		panic(storageBucketEnsureErrPrefix + err.Error())
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	rdb := initRedis(ctx, cfg, log)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Storage service for archived uploads (MinIO, optional)
	var storageSvc storage.StorageService
	if cfg.IsMinIOEnabled() {
		minioSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		ensureBucket(ctx, log, minioSvc, "entry-uploads", cfg.GetMinioBucketUploads())
		storageSvc = minioSvc
		log.Info("storage service initialized", "uploadsBucket", cfg.GetMinioBucketUploads())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; uploaded spreadsheets will not be archived")
	}

	printer, closeScheduler := initLabelPrinter(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	// SSE fan-out shared by grids and the warehouse activity stream
	streams := sse.New(log)
	defer streams.Close()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	notificationModule := notification.New(streams, log)
	notificationModule.RegisterHandlers(eventBus)

	qcGradesModule, err := qcgrades.NewModule(ctx, pool, val)
	if err != nil {
		log.Error("failed to initialize qc grades module", "error", err)
		panic("failed to initialize qc grades module: " + err.Error())
	}
	entriesModule := entries.NewModule(pool, eventBus, qcGradesModule.Service(), val)
	masterDataModule := masterdata.NewModule(pool, rdb, cfg, val, log)

	// Anti-Corruption Layer: the grid engine only sees its own ports
	gridModule := grid.NewModule(gridservice.Config{
		InitialRows:   cfg.GetGridInitialRows(),
		Debounce:      cfg.GetReconcileDebounce(),
		LookupTimeout: cfg.GetReconcileLookupTimeout(),
		FailOpen:      cfg.GetReconcileFailOpen(),
		PrintEnabled:  printer != nil,
		SessionTTL:    cfg.GetGridSessionTTL(),
	}, gridservice.Deps{
		Owners:     adapters.NewEntriesOwnerLookup(entriesModule.Service()),
		MasterData: adapters.NewMasterDataFetcher(masterDataModule.Service()),
		Submitter:  adapters.NewGridBatchSubmitter(entriesModule.Service()),
		Printer:    printer,
		Grades:     qcGradesModule.Service(),
		Streams:    streams,
		EventBus:   eventBus,
		Logger:     log,
	}, val)
	gridModule.Start(ctx)
	defer gridModule.Shutdown()

	uploadModule := bulkupload.NewModule(uploadservice.Config{
		MaxRows:           cfg.GetUploadMaxRows(),
		LookupConcurrency: cfg.GetUploadLookupConcurrency(),
		FailOpen:          cfg.GetReconcileFailOpen(),
		Bucket:            cfg.GetMinioBucketUploads(),
	}, cfg.GetMinIOMaxFileSize(), entriesModule.Service(), entriesModule.Service(), storageSvc, qcGradesModule.Service(), log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			entriesModule,
			masterDataModule,
			qcGradesModule,
			gridModule,
			uploadModule,
			notificationModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		// Open SSE streams end when their grids close, so grids go first.
		gridModule.Shutdown()
		streams.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; master data cache disabled")
		return nil
	}

	client, err := db.NewRedisClient(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to redis; master data cache disabled", "error", err)
		return nil
	}
	return client
}

func initLabelPrinter(cfg *config.Config, log *logger.Logger) (reconcile.LabelPrinter, func()) {
	if !cfg.GetLabelPrintEnabled() {
		log.Info("label printing disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize label queue client; label printing disabled", "error", err)
		return nil, nil
	}

	return labels.NewPrinter(client), func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
