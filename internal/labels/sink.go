package labels

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"warehouse_ops_backend/internal/adapters/storage"
	"warehouse_ops_backend/internal/scheduler"
)

const pngContentType = "image/png"

// StorageSink spools rendered labels into an object storage bucket, one
// folder per kind and warehouse, for the print agent to pick up.
type StorageSink struct {
	store  storage.StorageService
	bucket string
}

// NewStorageSink creates a sink writing to bucket.
func NewStorageSink(store storage.StorageService, bucket string) *StorageSink {
	return &StorageSink{store: store, bucket: bucket}
}

// Send uploads the label PNG.
func (s *StorageSink) Send(ctx context.Context, p scheduler.LabelPrintPayload, png []byte) error {
	folder := p.Kind + "/" + strconv.FormatInt(p.WarehouseID, 10)
	if _, err := s.store.UploadFile(ctx, s.bucket, folder, p.WSN+".png", pngContentType, bytes.NewReader(png), int64(len(png))); err != nil {
		return fmt.Errorf("spool label %s: %w", p.WSN, err)
	}
	return nil
}

var _ Sink = (*StorageSink)(nil)
