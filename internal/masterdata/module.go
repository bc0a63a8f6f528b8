// Package masterdata serves product master data for grid read-only fields.
package masterdata

import (
	apphttp "warehouse_ops_backend/internal/http"
	"warehouse_ops_backend/internal/masterdata/cache"
	"warehouse_ops_backend/internal/masterdata/handler"
	"warehouse_ops_backend/internal/masterdata/repository"
	"warehouse_ops_backend/internal/masterdata/service"
	"warehouse_ops_backend/platform/config"
	"warehouse_ops_backend/platform/logger"
	"warehouse_ops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module is the master-data bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the master-data module. rdb may be nil, in which case
// every lookup reads the database.
func NewModule(pool *pgxpool.Pool, rdb *redis.Client, cfg config.RedisConfig, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)

	var c service.Cache
	if rdb != nil {
		c = cache.New(rdb, cfg.GetMasterDataCacheTTL())
	}
	svc := service.New(repo, c, log)

	return &Module{handler: handler.New(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "masterdata"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts master-data routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/master-data"))
}

var _ apphttp.Module = (*Module)(nil)
