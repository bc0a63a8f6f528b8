package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"warehouse_ops_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productNotFoundMsg = "product not found"

// Repository reads and writes the products master-data table.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new master-data repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Product is one master-data record. Prices are stored in cents.
type Product struct {
	WSN       string    `json:"wsn"`
	Title     string    `json:"title"`
	Brand     string    `json:"brand"`
	Category  string    `json:"category"`
	Vertical  string    `json:"vertical"`
	MRPCents  int64     `json:"mrpCents"`
	FSPCents  int64     `json:"fspCents"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const productByWSNQuery = `
	SELECT wsn, title, brand, category, vertical, mrp_cents, fsp_cents, updated_at
	FROM products
	WHERE wsn = $1
`

const upsertProductQuery = `
	INSERT INTO products (wsn, title, brand, category, vertical, mrp_cents, fsp_cents, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	ON CONFLICT (wsn) DO UPDATE SET
		title = EXCLUDED.title,
		brand = EXCLUDED.brand,
		category = EXCLUDED.category,
		vertical = EXCLUDED.vertical,
		mrp_cents = EXCLUDED.mrp_cents,
		fsp_cents = EXCLUDED.fsp_cents,
		updated_at = now()
	RETURNING updated_at
`

// GetByWSN loads a product by its normalized WSN.
func (r *Repository) GetByWSN(ctx context.Context, wsn string) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, productByWSNQuery, wsn).Scan(
		&p.WSN, &p.Title, &p.Brand, &p.Category, &p.Vertical, &p.MRPCents, &p.FSPCents, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, apperr.NotFound(productNotFoundMsg)
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product by wsn: %w", err)
	}
	return p, nil
}

// Upsert creates or replaces a product.
func (r *Repository) Upsert(ctx context.Context, p Product) (Product, error) {
	err := r.pool.QueryRow(ctx, upsertProductQuery,
		p.WSN, p.Title, p.Brand, p.Category, p.Vertical, p.MRPCents, p.FSPCents,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return Product{}, fmt.Errorf("upsert product: %w", err)
	}
	return p, nil
}
