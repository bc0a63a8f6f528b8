package wsn

// Entry is the minimal view of a grid row the derived sets need.
type Entry interface {
	// RawIdentifier returns the identifier cell as typed.
	RawIdentifier() string
	// ConflictKey returns the normalized identifier that the ownership check
	// found under another warehouse, or "". It stays set after the rejection
	// clears the cell, until the row's identifier is committed again.
	ConflictKey() string
}

// ScanDuplicates returns the normalized identifiers that occur on more than
// one row. Rows with blank identifiers never count.
func ScanDuplicates[E Entry](rows []E) Set {
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		key := Normalize(row.RawIdentifier())
		if key == "" {
			continue
		}
		counts[key]++
	}

	dups := make(Set)
	for key, n := range counts {
		if n > 1 {
			dups[key] = struct{}{}
		}
	}
	return dups
}

// Sets are the derived views the grid decorates rows with.
type Sets struct {
	GridDuplicates Set
	CrossWarehouse Set
	Blockers       Set
}

// Recompute derives all three sets from the authoritative row slice.
// It never patches a previous result.
func Recompute[E Entry](rows []E) Sets {
	dups := ScanDuplicates(rows)

	cross := make(Set)
	for _, row := range rows {
		if key := row.ConflictKey(); key != "" {
			cross[key] = struct{}{}
		}
	}

	return Sets{
		GridDuplicates: dups,
		CrossWarehouse: cross,
		Blockers:       dups.Union(cross),
	}
}

// CanSubmit is true iff there are no blockers.
func CanSubmit(blockers Set) bool {
	return blockers.Len() == 0
}
