package reconcile

import (
	"slices"
	"testing"

	"warehouse_ops_backend/internal/profile"
	"warehouse_ops_backend/internal/wsn"
)

func TestDecorate(t *testing.T) {
	sets := wsn.Sets{
		GridDuplicates: wsn.NewSet("DUP1"),
		CrossWarehouse: wsn.NewSet("CROSS1"),
	}

	cases := []struct {
		name        string
		key         string
		conflictKey string
		want        Decoration
	}{
		{"clean", "OK1", "", Decoration{}},
		{"empty", "", "", Decoration{}},
		{"grid duplicate", "DUP1", "", Decoration{Flag: FlagDuplicate, Locked: true}},
		{"sticky cross warehouse", "", "CROSS1", Decoration{Flag: FlagCrossWarehouse, Locked: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decorate(tc.key, tc.conflictKey, sets); got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestEditabilityPolicy(t *testing.T) {
	p, _ := profile.Get("outbound")
	locked := Decoration{Flag: FlagDuplicate, Locked: true}

	if !CanEdit(p, locked, p.IdentifierField) {
		t.Fatal("identifier cell must stay editable for correction")
	}
	if CanEdit(p, locked, "customer_name") {
		t.Fatal("locked row must refuse non-identifier edits")
	}
	if !CanEdit(p, Decoration{}, "customer_name") {
		t.Fatal("clean row accepts editable fields")
	}
	if CanEdit(p, Decoration{}, "brand") {
		t.Fatal("read-only fields are never editable")
	}

	if got := EditableFields(p, locked); !slices.Equal(got, []string{"wsn"}) {
		t.Fatalf("unexpected editable fields %v", got)
	}
	if got := EditableFields(p, Decoration{}); len(got) != 1+len(p.EditableFields) {
		t.Fatalf("unexpected editable fields %v", got)
	}
}
