package adapters

import (
	"context"

	"warehouse_ops_backend/internal/reconcile"
)

// MasterDataRecords is the part of the master-data service the grid reads.
type MasterDataRecords interface {
	Record(ctx context.Context, raw string) (map[string]string, error)
}

// MasterDataFetcher adapts the master-data service to reconcile.MasterDataFetcher.
type MasterDataFetcher struct {
	records MasterDataRecords
}

// NewMasterDataFetcher creates a new master-data adapter.
func NewMasterDataFetcher(records MasterDataRecords) *MasterDataFetcher {
	return &MasterDataFetcher{records: records}
}

// FetchMasterData returns the read-only row values for wsn.
func (a *MasterDataFetcher) FetchMasterData(ctx context.Context, wsn string) (reconcile.MasterRecord, error) {
	record, err := a.records.Record(ctx, wsn)
	if err != nil {
		return nil, err
	}
	return reconcile.MasterRecord(record), nil
}

var _ reconcile.MasterDataFetcher = (*MasterDataFetcher)(nil)
