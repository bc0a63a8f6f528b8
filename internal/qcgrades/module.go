// Package qcgrades owns the configurable QC grade list.
package qcgrades

import (
	"context"

	apphttp "warehouse_ops_backend/internal/http"
	"warehouse_ops_backend/internal/qcgrades/handler"
	"warehouse_ops_backend/internal/qcgrades/repository"
	"warehouse_ops_backend/internal/qcgrades/service"
	"warehouse_ops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the QC grades module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the module and loads the initial grade snapshot.
func NewModule(ctx context.Context, pool *pgxpool.Pool, val *validator.Validator) (*Module, error) {
	svc := service.New(repository.New(pool))
	if err := svc.Load(ctx); err != nil {
		return nil, err
	}
	return &Module{handler: handler.New(svc, val), service: svc}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "qcgrades"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts QC grade routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/qc/grades"))
}

var _ apphttp.Module = (*Module)(nil)
