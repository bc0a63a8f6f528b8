// Package bulkupload accepts .xlsx spreadsheets of entries, previews how each
// row would be classified and optionally commits the clean rows.
package bulkupload

import (
	"warehouse_ops_backend/internal/adapters/storage"
	"warehouse_ops_backend/internal/bulkupload/handler"
	"warehouse_ops_backend/internal/bulkupload/service"
	apphttp "warehouse_ops_backend/internal/http"
	"warehouse_ops_backend/internal/reconcile"
	"warehouse_ops_backend/platform/logger"
)

// Module is the bulk upload module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule wires the upload flow. store and grades may be nil.
func NewModule(cfg service.Config, maxFileSize int64, owners service.OwnerLookup, batches service.BatchWriter, store storage.StorageService, grades reconcile.GradeChecker, log *logger.Logger) *Module {
	svc := service.New(cfg, owners, batches, store, grades, log)
	return &Module{handler: handler.New(svc, maxFileSize)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "bulkupload"
}

// RegisterRoutes mounts the upload route behind the upload rate limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Warehouse.Group("/uploads")
	if ctx.UploadRateLimiter != nil {
		m.handler.RegisterRoutes(group, ctx.UploadRateLimiter.RateLimit())
		return
	}
	m.handler.RegisterRoutes(group)
}

var _ apphttp.Module = (*Module)(nil)
