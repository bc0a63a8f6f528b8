package wsn

import "testing"

type row struct {
	id       string
	conflict string
}

func (r row) RawIdentifier() string { return r.id }
func (r row) ConflictKey() string   { return r.conflict }

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":           "",
		"   ":        "",
		"\tabc123 ":  "ABC123",
		"ABC123":     "ABC123",
		" mixed-Ca ": "MIXED-CA",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{"", " a ", "abc123 ", "ß-straße", " x ", "ǅ", "wsn\n"}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestScanDuplicatesMixedCaseAndBlanks(t *testing.T) {
	rows := []row{{id: "ABC123"}, {id: ""}, {id: "abc123 "}}

	dups := ScanDuplicates(rows)

	if dups.Len() != 1 || !dups.Has("ABC123") {
		t.Fatalf("expected {ABC123}, got %v", dups.Keys())
	}
	if dups.Has("") {
		t.Fatal("blank identifiers must never be duplicates")
	}
}

func TestScanDuplicatesIgnoresManyBlanks(t *testing.T) {
	rows := []row{{id: ""}, {id: "  "}, {id: "\t"}}
	if dups := ScanDuplicates(rows); dups.Len() != 0 {
		t.Fatalf("expected no duplicates, got %v", dups.Keys())
	}
}

func TestDuplicateSymmetry(t *testing.T) {
	rows := []row{{id: "x1"}, {id: "Y2"}, {id: " X1"}, {id: "z3"}, {id: "y2"}}
	dups := ScanDuplicates(rows)

	for i := range rows {
		for j := range rows {
			if i == j {
				continue
			}
			a, b := Normalize(rows[i].id), Normalize(rows[j].id)
			if a != "" && a == b && !dups.Has(a) {
				t.Fatalf("rows %d and %d share %q but it is not in the duplicate set", i, j, a)
			}
		}
	}
	if dups.Has("Z3") {
		t.Fatal("Z3 appears once and must not be a duplicate")
	}
}

func TestRecomputeAndCanSubmit(t *testing.T) {
	rows := []row{{id: "A1"}, {id: "a1"}, {id: "", conflict: "XYZ999"}}

	sets := Recompute(rows)
	if !sets.GridDuplicates.Has("A1") {
		t.Fatal("expected A1 grid duplicate")
	}
	if !sets.CrossWarehouse.Has("XYZ999") {
		t.Fatal("expected XYZ999 cross-warehouse conflict")
	}
	if sets.Blockers.Len() != 2 {
		t.Fatalf("expected 2 blockers, got %v", sets.Blockers.Keys())
	}
	if CanSubmit(sets.Blockers) {
		t.Fatal("expected submit to be blocked")
	}

	// Clearing one of the duplicates and the conflict unblocks submit.
	rows[1].id = ""
	rows[2].conflict = ""
	sets = Recompute(rows)
	if sets.GridDuplicates.Len() != 0 || !CanSubmit(sets.Blockers) {
		t.Fatalf("expected clean sets, got dups=%v blockers=%v", sets.GridDuplicates.Keys(), sets.Blockers.Keys())
	}
}

func TestCanSubmitMatchesBlockerUnion(t *testing.T) {
	grids := [][]row{
		{},
		{{id: "a"}},
		{{id: "a"}, {id: "A"}},
		{{id: "b", conflict: "C"}},
		{{id: ""}, {id: ""}},
	}
	for i, rows := range grids {
		sets := Recompute(rows)
		union := sets.GridDuplicates.Union(sets.CrossWarehouse)
		if CanSubmit(sets.Blockers) != (union.Len() == 0) {
			t.Fatalf("grid %d: CanSubmit disagrees with duplicate/cross union", i)
		}
	}
}
