package service

import (
	"context"
	"fmt"

	"warehouse_ops_backend/internal/masterdata/repository"
	"warehouse_ops_backend/internal/masterdata/transport"
	"warehouse_ops_backend/internal/wsn"
	"warehouse_ops_backend/platform/apperr"
	"warehouse_ops_backend/platform/logger"
	"warehouse_ops_backend/platform/sanitize"

	"golang.org/x/sync/singleflight"
)

const msgWSNRequired = "wsn is required"

// Read-only field names the grid profiles use.
const (
	FieldTitle    = "product_title"
	FieldBrand    = "brand"
	FieldCategory = "category"
	FieldVertical = "cms_vertical"
	FieldMRP      = "mrp"
	FieldFSP      = "fsp"
)

// Repository is the persistence contract for master data.
type Repository interface {
	GetByWSN(ctx context.Context, wsn string) (repository.Product, error)
	Upsert(ctx context.Context, p repository.Product) (repository.Product, error)
}

// Cache is an optional read-through cache in front of the repository.
type Cache interface {
	Get(ctx context.Context, wsn string) (repository.Product, bool, error)
	Set(ctx context.Context, p repository.Product) error
	Delete(ctx context.Context, wsn string) error
}

// Service serves master-data lookups with cache-aside reads.
type Service struct {
	repo  Repository
	cache Cache
	log   *logger.Logger
	group singleflight.Group
}

// New creates a master-data service. cache may be nil.
func New(repo Repository, cache Cache, log *logger.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

// Get returns the record for raw, normalized first.
func (s *Service) Get(ctx context.Context, raw string) (transport.ProductResponse, error) {
	p, err := s.product(ctx, raw)
	if err != nil {
		return transport.ProductResponse{}, err
	}
	return transport.ProductResponse{WSN: p.WSN, Fields: Fields(p), UpdatedAt: p.UpdatedAt}, nil
}

// Record returns the read-only row values for raw.
func (s *Service) Record(ctx context.Context, raw string) (map[string]string, error) {
	p, err := s.product(ctx, raw)
	if err != nil {
		return nil, err
	}
	return Fields(p), nil
}

// Upsert stores a product and evicts any cached copy.
func (s *Service) Upsert(ctx context.Context, raw string, req transport.UpsertProductRequest) (transport.ProductResponse, error) {
	key := wsn.Normalize(raw)
	if key == "" {
		return transport.ProductResponse{}, apperr.Validation(msgWSNRequired)
	}

	p, err := s.repo.Upsert(ctx, repository.Product{
		WSN:      key,
		Title:    sanitize.Text(req.Title),
		Brand:    sanitize.Text(req.Brand),
		Category: sanitize.Text(req.Category),
		Vertical: sanitize.Text(req.Vertical),
		MRPCents: req.MRPCents,
		FSPCents: req.FSPCents,
	})
	if err != nil {
		return transport.ProductResponse{}, err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.log.Warn("master-data cache evict failed", "wsn", key, "error", err)
		}
	}
	return transport.ProductResponse{WSN: p.WSN, Fields: Fields(p), UpdatedAt: p.UpdatedAt}, nil
}

func (s *Service) product(ctx context.Context, raw string) (repository.Product, error) {
	key := wsn.Normalize(raw)
	if key == "" {
		return repository.Product{}, apperr.Validation(msgWSNRequired)
	}

	if s.cache != nil {
		p, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.Warn("master-data cache read failed", "wsn", key, "error", err)
		} else if ok {
			return p, nil
		}
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		p, err := s.repo.GetByWSN(ctx, key)
		if err != nil {
			return repository.Product{}, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, p); err != nil {
				s.log.Warn("master-data cache write failed", "wsn", key, "error", err)
			}
		}
		return p, nil
	})
	if err != nil {
		return repository.Product{}, err
	}
	return v.(repository.Product), nil
}

// Fields maps a product onto profile read-only field names.
func Fields(p repository.Product) map[string]string {
	return map[string]string{
		FieldTitle:    p.Title,
		FieldBrand:    p.Brand,
		FieldCategory: p.Category,
		FieldVertical: p.Vertical,
		FieldMRP:      formatCents(p.MRPCents),
		FieldFSP:      formatCents(p.FSPCents),
	}
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
