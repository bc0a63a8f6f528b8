package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"warehouse_ops_backend/internal/profile"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		owner Owner
		want  Status
	}{
		{"not found", Owner{}, StatusClean},
		{"same warehouse", Owner{Found: true, WarehouseID: 5}, StatusSameWarehouse},
		{"other warehouse", Owner{Found: true, WarehouseID: 7}, StatusCrossWarehouse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.owner, 5)
			if got.Status != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got.Status)
			}
			if tc.owner.Found && got.OwnerWarehouseID != tc.owner.WarehouseID {
				t.Fatalf("expected owner %d, got %d", tc.owner.WarehouseID, got.OwnerWarehouseID)
			}
		})
	}
}

type blockingLookup struct{}

func (blockingLookup) LookupOwner(ctx context.Context, _ profile.Kind, _ string) (Owner, error) {
	<-ctx.Done()
	return Owner{}, ctx.Err()
}

func TestResolveTimeoutFailsOpen(t *testing.T) {
	r := NewOwnershipResolver(blockingLookup{}, profile.KindInbound, 10*time.Millisecond, true, nil)

	got, err := r.Resolve(context.Background(), 5, "SLOW1")
	if err != nil {
		t.Fatalf("fail-open resolver returned error: %v", err)
	}
	if got.Status != StatusClean {
		t.Fatalf("expected clean, got %s", got.Status)
	}
}

func TestResolveFailClosedReturnsError(t *testing.T) {
	owners := newFakeOwners()
	owners.errs["X1"] = errors.New("boom")
	r := NewOwnershipResolver(owners, profile.KindInbound, time.Second, false, nil)

	if _, err := r.Resolve(context.Background(), 5, "X1"); err == nil {
		t.Fatal("expected error when fail-open is disabled")
	}
}
