package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"warehouse_ops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	entryNotFoundMsg = "entry not found"
	batchNotFoundMsg = "batch not found"

	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Repository provides database operations for entries and batches.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new entries repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Entry struct {
	ID           uuid.UUID
	Kind         string
	WSN          string
	WarehouseID  int64
	BatchID      *uuid.UUID
	Fields       map[string]string
	Product      map[string]string
	CommonFields map[string]string
	CreatedBy    string
	CreatedAt    time.Time
}

type Batch struct {
	ID          uuid.UUID
	Kind        string
	WarehouseID int64
	Source      string
	RowCount    int
	UploadKey   *string
	CreatedBy   string
	CreatedAt   time.Time
}

// Owner is the warehouse that recorded a WSN, if any.
type Owner struct {
	Found       bool
	WarehouseID int64
}

type ListParams struct {
	Kind        string
	WarehouseID int64
	Search      string
	BatchID     *uuid.UUID
	From        *time.Time
	To          *time.Time
	SortBy      string
	SortOrder   string
	Page        int
	PageSize    int
}

type ListResult struct {
	Items      []Entry
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

type BatchListParams struct {
	Kind        string
	WarehouseID int64
	Page        int
	PageSize    int
}

type BatchListResult struct {
	Items      []Batch
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// InsertOutcome reports whether a batch row was stored. A row is skipped
// when its WSN was recorded concurrently by another batch.
type InsertOutcome struct {
	WSN      string
	EntryID  uuid.UUID
	Inserted bool
}

const ownerByWSNQuery = `
	SELECT warehouse_id
	FROM entries
	WHERE kind = $1 AND wsn = $2
`

const ownersByWSNsQuery = `
	SELECT wsn, warehouse_id
	FROM entries
	WHERE kind = $1 AND wsn = ANY($2)
`

const insertEntryQuery = `
	INSERT INTO entries (
		id, kind, wsn, warehouse_id, batch_id,
		fields, product, common_fields, created_by, created_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9, $10
	)
	ON CONFLICT (kind, wsn) DO NOTHING
	RETURNING id
`

const insertBatchQuery = `
	INSERT INTO entry_batches (id, kind, warehouse_id, source, row_count, upload_key, created_by, created_at)
	VALUES ($1, $2, $3, $4, 0, $5, $6, $7)
`

const updateBatchCountQuery = `
	UPDATE entry_batches SET row_count = $2 WHERE id = $1
`

const deleteBatchQuery = `
	DELETE FROM entry_batches
	WHERE id = $1 AND kind = $2 AND warehouse_id = $3
	RETURNING row_count
`

const entryColumns = `
	id, kind, wsn, warehouse_id, batch_id,
	fields, product, common_fields, created_by, created_at
`

// LookupOwner returns the warehouse that already recorded wsn for kind.
func (r *Repository) LookupOwner(ctx context.Context, kind, wsn string) (Owner, error) {
	var warehouseID int64
	err := r.pool.QueryRow(ctx, ownerByWSNQuery, kind, wsn).Scan(&warehouseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Owner{}, nil
		}
		return Owner{}, fmt.Errorf("lookup owner: %w", err)
	}
	return Owner{Found: true, WarehouseID: warehouseID}, nil
}

// LookupOwners resolves many WSNs in one round trip. Missing WSNs are absent
// from the result.
func (r *Repository) LookupOwners(ctx context.Context, kind string, wsns []string) (map[string]int64, error) {
	out := make(map[string]int64, len(wsns))
	if len(wsns) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, ownersByWSNsQuery, kind, wsns)
	if err != nil {
		return nil, fmt.Errorf("lookup owners: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var wsn string
		var warehouseID int64
		if err := rows.Scan(&wsn, &warehouseID); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		out[wsn] = warehouseID
	}
	return out, rows.Err()
}

// Create stores a single entry outside any batch.
func (r *Repository) Create(ctx context.Context, entry Entry) (Entry, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, insertEntryQuery,
		entry.ID,
		entry.Kind,
		entry.WSN,
		entry.WarehouseID,
		entry.BatchID,
		nonNil(entry.Fields),
		nonNil(entry.Product),
		nonNil(entry.CommonFields),
		entry.CreatedBy,
		entry.CreatedAt,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, apperr.Conflict("WSN is already recorded")
		}
		return Entry{}, mapWriteError("create entry", err)
	}
	return entry, nil
}

// InsertBatch stores a batch and its entries in one transaction. Rows whose
// WSN is already recorded are reported as not inserted. If nothing was
// inserted the transaction is rolled back and a conflict is returned.
func (r *Repository) InsertBatch(ctx context.Context, batch Batch, entries []Entry) (outcomes []InsertOutcome, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, insertBatchQuery,
		batch.ID, batch.Kind, batch.WarehouseID, batch.Source, batch.UploadKey, batch.CreatedBy, batch.CreatedAt,
	); err != nil {
		return nil, mapWriteError("insert batch", err)
	}

	inserted := 0
	outcomes = make([]InsertOutcome, 0, len(entries))
	for _, entry := range entries {
		var id uuid.UUID
		scanErr := tx.QueryRow(ctx, insertEntryQuery,
			entry.ID,
			batch.Kind,
			entry.WSN,
			batch.WarehouseID,
			batch.ID,
			nonNil(entry.Fields),
			nonNil(entry.Product),
			nonNil(entry.CommonFields),
			batch.CreatedBy,
			batch.CreatedAt,
		).Scan(&id)
		switch {
		case scanErr == nil:
			inserted++
			outcomes = append(outcomes, InsertOutcome{WSN: entry.WSN, EntryID: id, Inserted: true})
		case errors.Is(scanErr, pgx.ErrNoRows):
			outcomes = append(outcomes, InsertOutcome{WSN: entry.WSN})
		default:
			err = mapWriteError("insert entry", scanErr)
			return nil, err
		}
	}

	if inserted == 0 {
		err = apperr.Conflict("every WSN in the batch is already recorded")
		return nil, err
	}
	if _, err = tx.Exec(ctx, updateBatchCountQuery, batch.ID, inserted); err != nil {
		return nil, fmt.Errorf("update batch count: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit batch: %w", err)
	}
	return outcomes, nil
}

// GetByID returns one entry scoped to kind and warehouse.
func (r *Repository) GetByID(ctx context.Context, kind string, warehouseID int64, id uuid.UUID) (Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = $1 AND kind = $2 AND warehouse_id = $3`
	entry, err := scanEntry(r.pool.QueryRow(ctx, query, id, kind, warehouseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, apperr.NotFound(entryNotFoundMsg)
		}
		return Entry{}, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

// List returns a filtered, sorted page of entries for one warehouse.
func (r *Repository) List(ctx context.Context, params ListParams) (ListResult, error) {
	sortBy, err := resolveSortBy(params.SortBy)
	if err != nil {
		return ListResult{}, err
	}
	orderBy, err := resolveSortOrder(params.SortOrder)
	if err != nil {
		return ListResult{}, err
	}

	baseQuery := `
		FROM entries
		WHERE kind = $1 AND warehouse_id = $2
			AND ($3::text IS NULL OR wsn ILIKE $3 OR fields::text ILIKE $3 OR product->>'product_title' ILIKE $3)
			AND ($4::uuid IS NULL OR batch_id = $4)
			AND ($5::timestamptz IS NULL OR created_at >= $5)
			AND ($6::timestamptz IS NULL OR created_at < $6)
	`
	args := []interface{}{params.Kind, params.WarehouseID, optionalSearch(params.Search), params.BatchID, params.From, params.To}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return ListResult{}, fmt.Errorf("count entries: %w", err)
	}

	page, pageSize, offset := paginate(params.Page, params.PageSize)

	selectQuery := `SELECT ` + entryColumns + baseQuery + `
		ORDER BY
			CASE WHEN $7 = 'wsn' AND $8 = 'asc' THEN wsn END ASC,
			CASE WHEN $7 = 'wsn' AND $8 = 'desc' THEN wsn END DESC,
			CASE WHEN $7 = 'createdAt' AND $8 = 'asc' THEN created_at END ASC,
			CASE WHEN $7 = 'createdAt' AND $8 = 'desc' THEN created_at END DESC,
			created_at DESC
		LIMIT $9 OFFSET $10
	`
	args = append(args, sortBy, orderBy, pageSize, offset)

	rows, err := r.pool.Query(ctx, selectQuery, args...)
	if err != nil {
		return ListResult{}, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	items := make([]Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return ListResult{}, fmt.Errorf("scan entry: %w", err)
		}
		items = append(items, entry)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, fmt.Errorf("iterate entries: %w", err)
	}

	return ListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// ListBatches returns a page of batches for one warehouse, newest first.
func (r *Repository) ListBatches(ctx context.Context, params BatchListParams) (BatchListResult, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM entry_batches WHERE kind = $1 AND warehouse_id = $2
	`, params.Kind, params.WarehouseID).Scan(&total); err != nil {
		return BatchListResult{}, fmt.Errorf("count batches: %w", err)
	}

	page, pageSize, offset := paginate(params.Page, params.PageSize)
	rows, err := r.pool.Query(ctx, `
		SELECT id, kind, warehouse_id, source, row_count, upload_key, created_by, created_at
		FROM entry_batches
		WHERE kind = $1 AND warehouse_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, params.Kind, params.WarehouseID, pageSize, offset)
	if err != nil {
		return BatchListResult{}, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	items := make([]Batch, 0)
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.Kind, &b.WarehouseID, &b.Source, &b.RowCount, &b.UploadKey, &b.CreatedBy, &b.CreatedAt); err != nil {
			return BatchListResult{}, fmt.Errorf("scan batch: %w", err)
		}
		items = append(items, b)
	}
	if err := rows.Err(); err != nil {
		return BatchListResult{}, fmt.Errorf("iterate batches: %w", err)
	}

	return BatchListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// DeleteBatch removes a batch and, through the cascade, its entries.
// It returns the number of entries the batch held.
func (r *Repository) DeleteBatch(ctx context.Context, kind string, warehouseID int64, id uuid.UUID) (int, error) {
	var rowCount int
	err := r.pool.QueryRow(ctx, deleteBatchQuery, id, kind, warehouseID).Scan(&rowCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperr.NotFound(batchNotFoundMsg)
		}
		return 0, fmt.Errorf("delete batch: %w", err)
	}
	return rowCount, nil
}

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(
		&e.ID,
		&e.Kind,
		&e.WSN,
		&e.WarehouseID,
		&e.BatchID,
		&e.Fields,
		&e.Product,
		&e.CommonFields,
		&e.CreatedBy,
		&e.CreatedAt,
	)
	return e, err
}

func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return apperr.Validation("unknown warehouse").WithOp(op)
		case pgUniqueViolation:
			return apperr.Conflict("WSN is already recorded").WithOp(op)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func paginate(page, pageSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize, (page - 1) * pageSize
}

func totalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

func resolveSortBy(value string) (string, error) {
	if value == "" {
		return "createdAt", nil
	}
	switch value {
	case "wsn", "createdAt":
		return value, nil
	default:
		return "", apperr.BadRequest("invalid sort field")
	}
}

func resolveSortOrder(value string) (string, error) {
	if value == "" {
		return "desc", nil
	}
	switch value {
	case "asc", "desc":
		return value, nil
	default:
		return "", apperr.BadRequest("invalid sort order")
	}
}

func optionalSearch(value string) interface{} {
	if value == "" {
		return nil
	}
	return "%" + value + "%"
}
