package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository stores the configured QC grade list.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new QC grade repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Grade struct {
	Code      string
	Label     string
	Position  int
	UpdatedAt time.Time
}

const listGradesQuery = `
	SELECT code, label, position, updated_at
	FROM qc_grades
	ORDER BY position ASC, code ASC
`

const deleteGradesQuery = `DELETE FROM qc_grades`

const insertGradeQuery = `
	INSERT INTO qc_grades (code, label, position, updated_at)
	VALUES ($1, $2, $3, now())
`

// List returns all grades in display order.
func (r *Repository) List(ctx context.Context) ([]Grade, error) {
	rows, err := r.pool.Query(ctx, listGradesQuery)
	if err != nil {
		return nil, fmt.Errorf("list qc grades: %w", err)
	}
	defer rows.Close()

	grades := make([]Grade, 0)
	for rows.Next() {
		var g Grade
		if err := rows.Scan(&g.Code, &g.Label, &g.Position, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan qc grade: %w", err)
		}
		grades = append(grades, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate qc grades: %w", err)
	}
	return grades, nil
}

// Replace swaps the whole grade list in one transaction.
func (r *Repository) Replace(ctx context.Context, grades []Grade) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace qc grades: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, deleteGradesQuery); err != nil {
		return fmt.Errorf("clear qc grades: %w", err)
	}
	for _, g := range grades {
		if _, err = tx.Exec(ctx, insertGradeQuery, g.Code, g.Label, g.Position); err != nil {
			return fmt.Errorf("insert qc grade %s: %w", g.Code, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace qc grades: %w", err)
	}
	return nil
}
