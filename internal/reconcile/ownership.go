package reconcile

import (
	"context"
	"time"

	"warehouse_ops_backend/internal/profile"
	"warehouse_ops_backend/platform/logger"
)

// Status classifies an identifier against persisted storage.
type Status string

const (
	StatusClean          Status = "clean"
	StatusSameWarehouse  Status = "same-warehouse"
	StatusCrossWarehouse Status = "cross-warehouse"
)

// Ownership is the resolved status plus the owning warehouse, when known.
type Ownership struct {
	Status           Status `json:"status"`
	OwnerWarehouseID int64  `json:"ownerWarehouseId,omitempty"`
}

// OwnershipResolver classifies a normalized identifier with one lookup.
type OwnershipResolver struct {
	lookup   OwnerLookup
	kind     profile.Kind
	timeout  time.Duration
	failOpen bool
	log      *logger.Logger
}

// NewOwnershipResolver creates a resolver for one entry kind. With failOpen
// set, lookup errors are logged and reported as clean.
func NewOwnershipResolver(lookup OwnerLookup, kind profile.Kind, timeout time.Duration, failOpen bool, log *logger.Logger) *OwnershipResolver {
	if log == nil {
		log = logger.Discard()
	}
	return &OwnershipResolver{lookup: lookup, kind: kind, timeout: timeout, failOpen: failOpen, log: log}
}

// Resolve looks key up and compares its owner with the active warehouse.
// An error is only returned when the resolver is not fail-open.
func (r *OwnershipResolver) Resolve(ctx context.Context, activeWarehouseID int64, key string) (Ownership, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	owner, err := r.lookup.LookupOwner(ctx, r.kind, key)
	if err != nil {
		r.log.LookupFailed("ownership", key, err)
		if r.failOpen {
			return Ownership{Status: StatusClean}, nil
		}
		return Ownership{}, err
	}
	return Classify(owner, activeWarehouseID), nil
}

// Classify turns a lookup reply into an Ownership.
func Classify(owner Owner, activeWarehouseID int64) Ownership {
	switch {
	case !owner.Found:
		return Ownership{Status: StatusClean}
	case owner.WarehouseID == activeWarehouseID:
		return Ownership{Status: StatusSameWarehouse, OwnerWarehouseID: owner.WarehouseID}
	default:
		return Ownership{Status: StatusCrossWarehouse, OwnerWarehouseID: owner.WarehouseID}
	}
}
