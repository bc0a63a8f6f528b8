// Package service classifies spreadsheet rows with the grid's rules and
// commits the clean ones as a single batch.
package service

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"warehouse_ops_backend/internal/adapters/storage"
	"warehouse_ops_backend/internal/bulkupload/sheet"
	"warehouse_ops_backend/internal/bulkupload/transport"
	entryservice "warehouse_ops_backend/internal/entries/service"
	entrytransport "warehouse_ops_backend/internal/entries/transport"
	"warehouse_ops_backend/internal/profile"
	"warehouse_ops_backend/internal/reconcile"
	"warehouse_ops_backend/internal/wsn"
	"warehouse_ops_backend/platform/apperr"
	"warehouse_ops_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

const defaultChunkSize = 200

// OwnerLookup resolves the owning warehouse of many identifiers at once.
// Identifiers that are not recorded are absent from the result.
type OwnerLookup interface {
	Owners(ctx context.Context, kind profile.Kind, keys []string) (map[string]int64, error)
}

// BatchWriter persists a batch of rows.
type BatchWriter interface {
	SubmitBatch(ctx context.Context, p profile.Profile, in entryservice.BatchInput) (entrytransport.SubmitBatchResponse, error)
}

// Config tunes classification and archiving.
type Config struct {
	MaxRows           int
	LookupConcurrency int
	ChunkSize         int
	FailOpen          bool
	Bucket            string
}

// Upload is one received spreadsheet.
type Upload struct {
	WarehouseID  int64
	Operator     string
	FileName     string
	ContentType  string
	Body         []byte
	CommonFields map[string]string
	Commit       bool
}

// Service handles spreadsheet uploads.
type Service struct {
	cfg     Config
	owners  OwnerLookup
	batches BatchWriter
	store   storage.StorageService
	grades  reconcile.GradeChecker
	log     *logger.Logger
}

// New creates an upload service. store and grades may be nil.
func New(cfg Config, owners OwnerLookup, batches BatchWriter, store storage.StorageService, grades reconcile.GradeChecker, log *logger.Logger) *Service {
	if cfg.LookupConcurrency <= 0 {
		cfg.LookupConcurrency = 1
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Service{cfg: cfg, owners: owners, batches: batches, store: store, grades: grades, log: log}
}

// Process parses and classifies an upload. With Commit set the clean rows
// are archived and submitted as one batch.
func (s *Service) Process(ctx context.Context, p profile.Profile, in Upload) (transport.UploadResponse, error) {
	parsed, err := sheet.Parse(bytes.NewReader(in.Body), p, s.cfg.MaxRows)
	if err != nil {
		return transport.UploadResponse{}, err
	}

	rows, err := s.classify(ctx, p, in.WarehouseID, parsed.Rows)
	if err != nil {
		return transport.UploadResponse{}, err
	}

	resp := transport.UploadResponse{
		Kind:           string(p.Kind),
		Sheet:          parsed.Name,
		IgnoredColumns: parsed.Ignored,
		Rows:           rows,
		Summary:        summarize(rows),
	}
	if !in.Commit {
		return resp, nil
	}

	batch := make([]entryservice.BatchRow, 0, resp.Summary.Clean)
	for i, row := range rows {
		if row.Status != transport.StatusClean {
			continue
		}
		batch = append(batch, entryservice.BatchRow{
			WSN:     row.WSN,
			Fields:  parsed.Rows[i].Fields,
			Product: parsed.Rows[i].Product,
		})
	}
	if len(batch) == 0 {
		return transport.UploadResponse{}, apperr.Validation("upload has no clean rows").WithDetails(resp.Summary)
	}

	var uploadKey *string
	if s.store != nil && s.cfg.Bucket != "" {
		key, err := s.archive(ctx, p, in)
		if err != nil {
			return transport.UploadResponse{}, err
		}
		uploadKey = &key
	}

	result, err := s.batches.SubmitBatch(ctx, p, entryservice.BatchInput{
		Kind:         p.Kind,
		WarehouseID:  in.WarehouseID,
		Operator:     in.Operator,
		Source:       entryservice.SourceUpload,
		UploadKey:    uploadKey,
		Rows:         batch,
		CommonFields: in.CommonFields,
	})
	if err != nil {
		return transport.UploadResponse{}, err
	}

	resp.Committed = true
	resp.UploadKey = uploadKey
	resp.Batch = &result
	return resp, nil
}

func (s *Service) archive(ctx context.Context, p profile.Profile, in Upload) (string, error) {
	folder := fmt.Sprintf("%s/%d", p.Kind, in.WarehouseID)
	key, err := s.store.UploadFile(ctx, s.cfg.Bucket, folder, in.FileName, in.ContentType, bytes.NewReader(in.Body), int64(len(in.Body)))
	if err != nil {
		return "", apperr.Unavailable("archive upload failed", err)
	}
	return key, nil
}

// classify applies the grid's rules to every row: blank identifiers are
// empty, repeated identifiers are duplicates on every occurrence and the rest
// are checked against persisted entries.
func (s *Service) classify(ctx context.Context, p profile.Profile, warehouseID int64, rows []sheet.Row) ([]transport.RowPreview, error) {
	out := make([]transport.RowPreview, len(rows))
	counts := make(map[string]int, len(rows))
	for i, row := range rows {
		key := wsn.Normalize(row.WSN)
		out[i] = transport.RowPreview{Line: row.Line, WSN: key, Fields: row.Fields}
		if key != "" {
			counts[key]++
		}
	}

	var lookup []string
	for i := range out {
		key := out[i].WSN
		switch {
		case key == "":
			out[i].Status = transport.StatusEmpty
		case counts[key] > 1:
			out[i].Status = transport.StatusGridDuplicate
			out[i].Message = profile.Format(p.Messages.GridDuplicate, key, 0)
		case !s.validGrade(p, out[i].Fields):
			out[i].Status = transport.StatusInvalid
			out[i].Message = fmt.Sprintf("unknown grade %q", out[i].Fields[p.GradeField])
		default:
			lookup = append(lookup, key)
		}
	}

	owners, failed, err := s.lookupOwners(ctx, p.Kind, lookup)
	if err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Status != "" {
			continue
		}
		key := out[i].WSN
		if failed[key] && !s.cfg.FailOpen {
			out[i].Status = transport.StatusLookupFailed
			out[i].Message = profile.Format(p.Messages.LookupFailed, key, 0)
			continue
		}
		ownerID, found := owners[key]
		ownership := reconcile.Classify(reconcile.Owner{Found: found, WarehouseID: ownerID}, warehouseID)
		out[i].Status = string(ownership.Status)
		switch ownership.Status {
		case reconcile.StatusSameWarehouse:
			out[i].Message = profile.Format(p.Messages.SameWarehouse, key, ownerID)
		case reconcile.StatusCrossWarehouse:
			id := ownerID
			out[i].OwnerWarehouseID = &id
			out[i].Message = profile.Format(p.Messages.CrossWarehouse, key, ownerID)
		}
	}
	return out, nil
}

// lookupOwners resolves keys in chunks with bounded concurrency. Chunks
// whose lookup fails are reported in failed instead of aborting the upload.
func (s *Service) lookupOwners(ctx context.Context, kind profile.Kind, keys []string) (map[string]int64, map[string]bool, error) {
	owners := make(map[string]int64)
	failed := make(map[string]bool)
	if len(keys) == 0 {
		return owners, failed, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.LookupConcurrency)

	for start := 0; start < len(keys); start += s.cfg.ChunkSize {
		chunk := keys[start:min(start+s.cfg.ChunkSize, len(keys))]
		g.Go(func() error {
			found, err := s.owners.Owners(gctx, kind, chunk)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.log.LookupFailed("ownership-batch", chunk[0], err)
				for _, key := range chunk {
					failed[key] = true
				}
				return nil
			}
			for key, id := range found {
				owners[key] = id
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return owners, failed, nil
}

func (s *Service) validGrade(p profile.Profile, fields map[string]string) bool {
	if s.grades == nil || p.GradeField == "" {
		return true
	}
	grade, ok := fields[p.GradeField]
	if !ok {
		return true
	}
	return s.grades.ValidGrade(grade)
}

func summarize(rows []transport.RowPreview) transport.UploadSummary {
	sum := transport.UploadSummary{Total: len(rows)}
	for _, row := range rows {
		switch row.Status {
		case transport.StatusClean:
			sum.Clean++
		case transport.StatusEmpty:
			sum.Empty++
		case transport.StatusGridDuplicate:
			sum.GridDuplicate++
		case transport.StatusSameWarehouse:
			sum.SameWarehouse++
		case transport.StatusCrossWarehouse:
			sum.CrossWarehouse++
		case transport.StatusLookupFailed:
			sum.LookupFailed++
		case transport.StatusInvalid:
			sum.Invalid++
		}
	}
	return sum
}
