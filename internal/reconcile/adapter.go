package reconcile

import (
	"warehouse_ops_backend/internal/profile"
	"warehouse_ops_backend/internal/wsn"
)

// Flag is the visual state of a row.
type Flag string

const (
	FlagNone           Flag = ""
	FlagDuplicate      Flag = "duplicate"
	FlagCrossWarehouse Flag = "cross-warehouse"
)

// Decoration is the per-row styling and editability the grid applies.
type Decoration struct {
	Flag Flag `json:"flag,omitempty"`
	// Locked rows keep only the identifier cell editable.
	Locked bool `json:"locked"`
}

// Decorate derives a row's decoration from its normalized identifier, its
// sticky cross-warehouse key and the current derived sets.
func Decorate(key, conflictKey string, sets wsn.Sets) Decoration {
	switch {
	case conflictKey != "" && sets.CrossWarehouse.Has(conflictKey):
		return Decoration{Flag: FlagCrossWarehouse, Locked: true}
	case key != "" && sets.CrossWarehouse.Has(key):
		return Decoration{Flag: FlagCrossWarehouse, Locked: true}
	case key != "" && sets.GridDuplicates.Has(key):
		return Decoration{Flag: FlagDuplicate, Locked: true}
	default:
		return Decoration{}
	}
}

// CanEdit applies the editability policy to one cell.
func CanEdit(p profile.Profile, d Decoration, field string) bool {
	if field == p.IdentifierField {
		return true
	}
	if d.Locked || !p.IsEditable(field) {
		return false
	}
	return true
}

// EditableFields lists the cells of a row the operator may currently type into.
func EditableFields(p profile.Profile, d Decoration) []string {
	out := []string{p.IdentifierField}
	if d.Locked {
		return out
	}
	return append(out, p.EditableFields...)
}
