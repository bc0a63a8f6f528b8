package adapters

import (
	"context"

	entryrepo "warehouse_ops_backend/internal/entries/repository"
	"warehouse_ops_backend/internal/profile"
	"warehouse_ops_backend/internal/reconcile"
)

// EntryOwnerReader is the part of the entries service the grid needs for
// ownership checks.
type EntryOwnerReader interface {
	Owner(ctx context.Context, kind profile.Kind, key string) (entryrepo.Owner, error)
}

// EntriesOwnerLookup adapts the entries service to reconcile.OwnerLookup.
type EntriesOwnerLookup struct {
	entries EntryOwnerReader
}

// NewEntriesOwnerLookup creates a new ownership lookup adapter.
func NewEntriesOwnerLookup(entries EntryOwnerReader) *EntriesOwnerLookup {
	return &EntriesOwnerLookup{entries: entries}
}

// LookupOwner reports which warehouse, if any, has recorded wsn for kind.
func (a *EntriesOwnerLookup) LookupOwner(ctx context.Context, kind profile.Kind, wsn string) (reconcile.Owner, error) {
	owner, err := a.entries.Owner(ctx, kind, wsn)
	if err != nil {
		return reconcile.Owner{}, err
	}
	return reconcile.Owner{Found: owner.Found, WarehouseID: owner.WarehouseID}, nil
}

var _ reconcile.OwnerLookup = (*EntriesOwnerLookup)(nil)
