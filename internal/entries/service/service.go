package service

import (
	"context"
	"time"

	"warehouse_ops_backend/internal/entries/repository"
	"warehouse_ops_backend/internal/entries/transport"
	"warehouse_ops_backend/internal/events"
	"warehouse_ops_backend/internal/profile"
	"warehouse_ops_backend/internal/reconcile"
	"warehouse_ops_backend/internal/wsn"
	"warehouse_ops_backend/platform/apperr"
	"warehouse_ops_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	SourceGrid   = "grid"
	SourceUpload = "upload"
	SourceForm   = "form"

	dateLayout = "2006-01-02"
)

// Repository is the persistence the service needs.
type Repository interface {
	LookupOwner(ctx context.Context, kind, wsn string) (repository.Owner, error)
	LookupOwners(ctx context.Context, kind string, wsns []string) (map[string]int64, error)
	Create(ctx context.Context, entry repository.Entry) (repository.Entry, error)
	InsertBatch(ctx context.Context, batch repository.Batch, entries []repository.Entry) ([]repository.InsertOutcome, error)
	List(ctx context.Context, params repository.ListParams) (repository.ListResult, error)
	ListBatches(ctx context.Context, params repository.BatchListParams) (repository.BatchListResult, error)
	DeleteBatch(ctx context.Context, kind string, warehouseID int64, id uuid.UUID) (int, error)
}

// Service provides business logic for recorded entries and batches.
type Service struct {
	repo     Repository
	eventBus events.Bus
	grades   reconcile.GradeChecker
	now      func() time.Time
}

// New creates a new entries service. grades may be nil, in which case grade
// values are not checked.
func New(repo Repository, eventBus events.Bus, grades reconcile.GradeChecker) *Service {
	return &Service{repo: repo, eventBus: eventBus, grades: grades, now: time.Now}
}

// BatchRow is one row of a batch before persistence.
type BatchRow struct {
	WSN     string
	Fields  map[string]string
	Product map[string]string
}

// BatchInput is a batch submitted from a grid, an upload or the API.
type BatchInput struct {
	Kind         profile.Kind
	WarehouseID  int64
	Operator     string
	Source       string
	UploadKey    *string
	Rows         []BatchRow
	CommonFields map[string]string
}

// Owner answers the ownership lookup for one normalized WSN.
func (s *Service) Owner(ctx context.Context, kind profile.Kind, key string) (repository.Owner, error) {
	return s.repo.LookupOwner(ctx, string(kind), key)
}

// Owners answers the ownership lookup for many normalized WSNs at once.
func (s *Service) Owners(ctx context.Context, kind profile.Kind, keys []string) (map[string]int64, error) {
	return s.repo.LookupOwners(ctx, string(kind), keys)
}

// LookupOwner classifies a raw WSN against the active warehouse.
func (s *Service) LookupOwner(ctx context.Context, kind profile.Kind, warehouseID int64, raw string) (transport.OwnerResponse, error) {
	key := wsn.Normalize(raw)
	if key == "" {
		return transport.OwnerResponse{}, apperr.Validation("wsn is required")
	}
	owner, err := s.repo.LookupOwner(ctx, string(kind), key)
	if err != nil {
		return transport.OwnerResponse{}, apperr.Unavailable("ownership lookup failed", err)
	}

	ownership := reconcile.Classify(reconcile.Owner{Found: owner.Found, WarehouseID: owner.WarehouseID}, warehouseID)
	resp := transport.OwnerResponse{WSN: key, Found: owner.Found, Status: string(ownership.Status)}
	if owner.Found {
		id := owner.WarehouseID
		resp.OwnerWarehouseID = &id
	}
	return resp, nil
}

// Create stores one entry from the single-record form. The ownership check
// is strict here: lookup failures are returned instead of failing open.
func (s *Service) Create(ctx context.Context, p profile.Profile, warehouseID int64, operator string, req transport.CreateEntryRequest) (transport.EntryResponse, error) {
	key := wsn.Normalize(req.WSN)
	if key == "" {
		return transport.EntryResponse{}, apperr.Validation("wsn is required")
	}

	common := commonFields(p, req.CommonFields, operator)
	if missing := p.MissingCommon(common); len(missing) > 0 {
		return transport.EntryResponse{}, apperr.Validation("required common fields are missing").
			WithDetails(map[string][]string{"missing": missing})
	}
	fields, err := s.editableFields(p, req.Fields)
	if err != nil {
		return transport.EntryResponse{}, err
	}

	owner, err := s.repo.LookupOwner(ctx, string(p.Kind), key)
	if err != nil {
		return transport.EntryResponse{}, apperr.Unavailable("ownership lookup failed", err)
	}
	if err := conflictFor(p, key, owner, warehouseID); err != nil {
		return transport.EntryResponse{}, err
	}

	entry, err := s.repo.Create(ctx, repository.Entry{
		ID:           uuid.New(),
		Kind:         string(p.Kind),
		WSN:          key,
		WarehouseID:  warehouseID,
		Fields:       fields,
		Product:      productFields(p, req.Product),
		CommonFields: common,
		CreatedBy:    operator,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return transport.EntryResponse{}, err
	}

	s.eventBus.Publish(ctx, events.EntryCreated{
		BaseEvent:   events.NewBaseEvent(),
		EntryID:     entry.ID,
		Kind:        entry.Kind,
		WSN:         entry.WSN,
		WarehouseID: entry.WarehouseID,
		CreatedBy:   entry.CreatedBy,
	})
	return mapEntry(entry), nil
}

// SubmitBatch persists rows under a new batch id. Rows that are blank,
// duplicated within the batch or already recorded are reported as failed
// results; the rest are stored in one transaction.
func (s *Service) SubmitBatch(ctx context.Context, p profile.Profile, in BatchInput) (transport.SubmitBatchResponse, error) {
	if len(in.Rows) == 0 {
		return transport.SubmitBatchResponse{}, apperr.Validation("batch has no rows")
	}
	common := commonFields(p, in.CommonFields, in.Operator)
	if missing := p.MissingCommon(common); len(missing) > 0 {
		return transport.SubmitBatchResponse{}, apperr.Validation("required common fields are missing").
			WithDetails(map[string][]string{"missing": missing})
	}

	batchID := uuid.New()
	results := make([]transport.RowResult, len(in.Rows))
	entries := make([]repository.Entry, 0, len(in.Rows))
	positions := make(map[string]int, len(in.Rows))
	seen := make(map[string]bool, len(in.Rows))

	for i, row := range in.Rows {
		key := wsn.Normalize(row.WSN)
		results[i] = transport.RowResult{WSN: key}
		switch {
		case key == "":
			results[i].Error = "wsn is required"
			continue
		case seen[key]:
			results[i].Error = "duplicate wsn in batch"
			continue
		}
		fields, err := s.editableFields(p, row.Fields)
		if err != nil {
			results[i].Error = err.Error()
			continue
		}
		seen[key] = true
		positions[key] = i
		entries = append(entries, repository.Entry{
			ID:           uuid.New(),
			WSN:          key,
			Fields:       fields,
			Product:      productFields(p, row.Product),
			CommonFields: common,
		})
	}
	if len(entries) == 0 {
		return transport.SubmitBatchResponse{}, apperr.Validation("batch has no valid rows").
			WithDetails(results)
	}

	source := in.Source
	if source == "" {
		source = SourceGrid
	}
	outcomes, err := s.repo.InsertBatch(ctx, repository.Batch{
		ID:          batchID,
		Kind:        string(p.Kind),
		WarehouseID: in.WarehouseID,
		Source:      source,
		UploadKey:   in.UploadKey,
		CreatedBy:   in.Operator,
		CreatedAt:   s.now(),
	}, entries)
	if err != nil {
		return transport.SubmitBatchResponse{}, err
	}

	success := 0
	for _, outcome := range outcomes {
		i := positions[outcome.WSN]
		if outcome.Inserted {
			results[i].OK = true
			success++
			continue
		}
		results[i].Error = "wsn is already recorded"
	}

	s.eventBus.Publish(ctx, events.BatchSubmitted{
		BaseEvent:    events.NewBaseEvent(),
		BatchID:      batchID,
		Kind:         string(p.Kind),
		WarehouseID:  in.WarehouseID,
		Source:       source,
		SuccessCount: success,
		SkippedCount: len(in.Rows) - success,
		CreatedBy:    in.Operator,
	})

	return transport.SubmitBatchResponse{SuccessCount: success, BatchID: batchID, Results: results}, nil
}

// List returns a page of entries for the active warehouse.
func (s *Service) List(ctx context.Context, kind profile.Kind, warehouseID int64, req transport.ListEntriesRequest) (transport.EntryListResponse, error) {
	params := repository.ListParams{
		Kind:        string(kind),
		WarehouseID: warehouseID,
		Search:      sanitize.Text(req.Search),
		SortBy:      req.SortBy,
		SortOrder:   req.SortOrder,
		Page:        req.Page,
		PageSize:    req.PageSize,
	}
	if req.BatchID != "" {
		id, err := uuid.Parse(req.BatchID)
		if err != nil {
			return transport.EntryListResponse{}, apperr.BadRequest("invalid batchId")
		}
		params.BatchID = &id
	}
	if req.From != "" {
		from, err := time.Parse(dateLayout, req.From)
		if err != nil {
			return transport.EntryListResponse{}, apperr.BadRequest("invalid from date")
		}
		params.From = &from
	}
	if req.To != "" {
		to, err := time.Parse(dateLayout, req.To)
		if err != nil {
			return transport.EntryListResponse{}, apperr.BadRequest("invalid to date")
		}
		// The to date is inclusive.
		to = to.AddDate(0, 0, 1)
		params.To = &to
	}
	if params.From != nil && params.To != nil && !params.From.Before(*params.To) {
		return transport.EntryListResponse{}, apperr.BadRequest("from must not be after to")
	}

	result, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.EntryListResponse{}, err
	}

	items := make([]transport.EntryResponse, len(result.Items))
	for i, e := range result.Items {
		items[i] = mapEntry(e)
	}
	return transport.EntryListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

// ListBatches returns a page of batches for the active warehouse.
func (s *Service) ListBatches(ctx context.Context, kind profile.Kind, warehouseID int64, req transport.ListBatchesRequest) (transport.BatchListResponse, error) {
	result, err := s.repo.ListBatches(ctx, repository.BatchListParams{
		Kind:        string(kind),
		WarehouseID: warehouseID,
		Page:        req.Page,
		PageSize:    req.PageSize,
	})
	if err != nil {
		return transport.BatchListResponse{}, err
	}

	items := make([]transport.BatchResponse, len(result.Items))
	for i, b := range result.Items {
		items[i] = transport.BatchResponse{
			ID:          b.ID,
			Kind:        b.Kind,
			WarehouseID: b.WarehouseID,
			Source:      b.Source,
			RowCount:    b.RowCount,
			UploadKey:   b.UploadKey,
			CreatedBy:   b.CreatedBy,
			CreatedAt:   b.CreatedAt,
		}
	}
	return transport.BatchListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

// DeleteBatch removes a batch with all its entries.
func (s *Service) DeleteBatch(ctx context.Context, kind profile.Kind, warehouseID int64, id uuid.UUID) (transport.DeleteBatchResponse, error) {
	deleted, err := s.repo.DeleteBatch(ctx, string(kind), warehouseID, id)
	if err != nil {
		return transport.DeleteBatchResponse{}, err
	}

	s.eventBus.Publish(ctx, events.BatchDeleted{
		BaseEvent:      events.NewBaseEvent(),
		BatchID:        id,
		Kind:           string(kind),
		WarehouseID:    warehouseID,
		DeletedEntries: deleted,
	})
	return transport.DeleteBatchResponse{BatchID: id, DeletedEntries: deleted}, nil
}

func conflictFor(p profile.Profile, key string, owner repository.Owner, warehouseID int64) error {
	ownership := reconcile.Classify(reconcile.Owner{Found: owner.Found, WarehouseID: owner.WarehouseID}, warehouseID)
	switch ownership.Status {
	case reconcile.StatusSameWarehouse:
		return apperr.Conflict(profile.Format(p.Messages.SameWarehouse, key, 0)).
			WithDetails(map[string]string{"reason": string(reconcile.ReasonSameWarehouse)})
	case reconcile.StatusCrossWarehouse:
		return apperr.Conflict(profile.Format(p.Messages.CrossWarehouse, key, ownership.OwnerWarehouseID)).
			WithDetails(map[string]interface{}{
				"reason":           string(reconcile.ReasonCrossWarehouse),
				"ownerWarehouseId": ownership.OwnerWarehouseID,
			})
	}
	return nil
}

func commonFields(p profile.Profile, in map[string]string, operator string) map[string]string {
	out := make(map[string]string, len(p.CommonFields))
	for _, field := range p.CommonFields {
		if v := sanitize.Text(in[field]); v != "" {
			out[field] = v
		}
	}
	if _, ok := out["operator_name"]; !ok && operator != "" && p.IsCommon("operator_name") {
		out["operator_name"] = operator
	}
	return out
}

func (s *Service) editableFields(p profile.Profile, in map[string]string) (map[string]string, error) {
	clean := sanitize.Fields(in)
	for field := range clean {
		if !p.IsEditable(field) {
			return nil, apperr.Validation("unknown field " + field)
		}
	}
	if grade := clean[p.GradeField]; p.GradeField != "" && grade != "" && s.grades != nil && !s.grades.ValidGrade(grade) {
		return nil, apperr.Validation("unknown grade " + grade)
	}
	return clean, nil
}

func productFields(p profile.Profile, in map[string]string) map[string]string {
	out := make(map[string]string, len(p.ReadOnlyFields))
	for _, field := range p.ReadOnlyFields {
		if v := sanitize.Text(in[field]); v != "" {
			out[field] = v
		}
	}
	return out
}

func mapEntry(e repository.Entry) transport.EntryResponse {
	return transport.EntryResponse{
		ID:           e.ID,
		Kind:         e.Kind,
		WSN:          e.WSN,
		WarehouseID:  e.WarehouseID,
		BatchID:      e.BatchID,
		Fields:       e.Fields,
		Product:      e.Product,
		CommonFields: e.CommonFields,
		CreatedBy:    e.CreatedBy,
		CreatedAt:    e.CreatedAt,
	}
}
