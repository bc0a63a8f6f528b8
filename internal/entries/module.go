// Package entries provides the recorded-entries bounded context: the list
// view, the single-record form, ownership lookups and batch management.
package entries

import (
	"warehouse_ops_backend/internal/entries/handler"
	"warehouse_ops_backend/internal/entries/repository"
	"warehouse_ops_backend/internal/entries/service"
	"warehouse_ops_backend/internal/events"
	apphttp "warehouse_ops_backend/internal/http"
	"warehouse_ops_backend/internal/reconcile"
	"warehouse_ops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the entries bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the entries module with all its dependencies.
// grades is the QC grade list shared with the grid and uploads.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, grades reconcile.GradeChecker, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, grades)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "entries"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts entry and batch routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Warehouse.Group("/entries"))
	m.handler.RegisterBatchRoutes(ctx.Warehouse.Group("/batches"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
