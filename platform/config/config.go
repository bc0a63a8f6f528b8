// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// RedisConfig provides settings for the Redis-backed master-data cache.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetMasterDataCacheTTL() time.Duration
}

// SchedulerConfig provides settings for the asynq job queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// ReconcileConfig provides tuning for the identifier reconciliation engine.
type ReconcileConfig interface {
	GetReconcileDebounce() time.Duration
	GetReconcileLookupTimeout() time.Duration
	GetReconcileFailOpen() bool
	GetGridInitialRows() int
	GetGridSessionTTL() time.Duration
}

// StorageConfig provides settings for MinIO S3-compatible storage.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketUploads() string
	GetMinioBucketLabels() string
	IsMinIOEnabled() bool
}

// UploadConfig provides limits for spreadsheet bulk uploads.
type UploadConfig interface {
	GetUploadMaxRows() int
	GetUploadLookupConcurrency() int
}

// LabelConfig provides settings for automatic label printing.
type LabelConfig interface {
	GetLabelPrintEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                     string
	HTTPAddr                string
	DatabaseURL             string
	CORSAllowAll            bool
	CORSOrigins             []string
	CORSAllowCreds          bool
	RedisURL                string
	RedisTLSInsecure        bool
	AsynqQueueName          string
	AsynqConcurrency        int
	MasterDataCacheTTL      time.Duration
	ReconcileDebounce       time.Duration
	ReconcileLookupTimeout  time.Duration
	ReconcileFailOpen       bool
	GridInitialRows         int
	GridSessionTTL          time.Duration
	MinIOEndpoint           string
	MinIOAccessKey          string
	MinIOSecretKey          string
	MinIOUseSSL             bool
	MinIOMaxFileSize        int64
	MinioBucketUploads      string
	MinioBucketLabels       string
	UploadMaxRows           int
	UploadLookupConcurrency int
	LabelPrintEnabled       bool
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// RedisConfig / SchedulerConfig implementation
func (c *Config) GetRedisURL() string                  { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool            { return c.RedisTLSInsecure }
func (c *Config) GetMasterDataCacheTTL() time.Duration { return c.MasterDataCacheTTL }
func (c *Config) GetAsynqQueueName() string            { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int             { return c.AsynqConcurrency }

// ReconcileConfig implementation
func (c *Config) GetReconcileDebounce() time.Duration      { return c.ReconcileDebounce }
func (c *Config) GetReconcileLookupTimeout() time.Duration { return c.ReconcileLookupTimeout }
func (c *Config) GetReconcileFailOpen() bool               { return c.ReconcileFailOpen }
func (c *Config) GetGridInitialRows() int                  { return c.GridInitialRows }
func (c *Config) GetGridSessionTTL() time.Duration         { return c.GridSessionTTL }

// StorageConfig implementation
func (c *Config) GetMinIOEndpoint() string      { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string     { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string     { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool          { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64    { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketUploads() string { return c.MinioBucketUploads }
func (c *Config) GetMinioBucketLabels() string  { return c.MinioBucketLabels }
func (c *Config) IsMinIOEnabled() bool          { return c.MinIOEndpoint != "" }

// UploadConfig implementation
func (c *Config) GetUploadMaxRows() int           { return c.UploadMaxRows }
func (c *Config) GetUploadLookupConcurrency() int { return c.UploadLookupConcurrency }

// LabelConfig implementation
func (c *Config) GetLabelPrintEnabled() bool { return c.LabelPrintEnabled && c.RedisURL != "" }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                     getEnv("APP_ENV", "development"),
		HTTPAddr:                getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		CORSAllowAll:            corsAllowAll,
		CORSOrigins:             corsOrigins,
		CORSAllowCreds:          strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:                getEnv("REDIS_URL", ""),
		RedisTLSInsecure:        strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:          getEnv("ASYNQ_QUEUE", "labels"),
		AsynqConcurrency:        mustInt(getEnv("ASYNQ_CONCURRENCY", "5")),
		MasterDataCacheTTL:      mustDuration(getEnv("MASTER_DATA_CACHE_TTL", "10m")),
		ReconcileDebounce:       mustDuration(getEnv("RECONCILE_DEBOUNCE", "300ms")),
		ReconcileLookupTimeout:  mustDuration(getEnv("RECONCILE_LOOKUP_TIMEOUT", "5s")),
		ReconcileFailOpen:       !strings.EqualFold(getEnv("RECONCILE_FAIL_OPEN", "true"), "false"),
		GridInitialRows:         mustInt(getEnv("GRID_INITIAL_ROWS", "10")),
		GridSessionTTL:          mustDuration(getEnv("GRID_SESSION_TTL", "8h")),
		MinIOEndpoint:           getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:          getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:          getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:             strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:        mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "20971520")),
		MinioBucketUploads:      getEnv("MINIO_BUCKET_UPLOADS", "entry-uploads"),
		MinioBucketLabels:       getEnv("MINIO_BUCKET_LABELS", "entry-labels"),
		UploadMaxRows:           mustInt(getEnv("UPLOAD_MAX_ROWS", "5000")),
		UploadLookupConcurrency: mustInt(getEnv("UPLOAD_LOOKUP_CONCURRENCY", "8")),
		LabelPrintEnabled:       strings.EqualFold(getEnv("LABEL_PRINT_ENABLED", "false"), "true"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if c.ReconcileDebounce <= 0 {
		return fmt.Errorf("RECONCILE_DEBOUNCE must be a positive duration")
	}
	if c.ReconcileLookupTimeout <= 0 {
		return fmt.Errorf("RECONCILE_LOOKUP_TIMEOUT must be a positive duration")
	}
	if c.GridInitialRows < 1 {
		return fmt.Errorf("GRID_INITIAL_ROWS must be at least 1")
	}
	if c.GridSessionTTL <= 0 {
		return fmt.Errorf("GRID_SESSION_TTL must be a positive duration")
	}
	if c.UploadMaxRows < 1 {
		return fmt.Errorf("UPLOAD_MAX_ROWS must be at least 1")
	}
	if c.UploadLookupConcurrency < 1 {
		c.UploadLookupConcurrency = 1
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
