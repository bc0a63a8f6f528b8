// Package grid exposes server-side entry grids over REST with an SSE event
// stream for row updates, notifications and re-focus requests.
package grid

import (
	"context"

	"warehouse_ops_backend/internal/grid/handler"
	"warehouse_ops_backend/internal/grid/service"
	apphttp "warehouse_ops_backend/internal/http"
	"warehouse_ops_backend/platform/validator"
)

// Module is the grid module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the grid module.
func NewModule(cfg service.Config, deps service.Deps, val *validator.Validator) *Module {
	svc := service.New(cfg, deps)
	return &Module{handler: handler.New(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "grid"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Start runs the idle-grid sweeper until ctx is done.
func (m *Module) Start(ctx context.Context) {
	go m.service.Run(ctx)
}

// Shutdown ends every open grid.
func (m *Module) Shutdown() {
	m.service.Shutdown()
}

// RegisterRoutes mounts grid routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Warehouse.Group("/grids"))
}

var _ apphttp.Module = (*Module)(nil)
