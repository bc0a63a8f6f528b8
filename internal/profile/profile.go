// Package profile holds the per-page variations of the entry grid: which
// field carries the identifier, which fields the operator edits, which are
// filled from master data and the copy shown on rejections.
package profile

import (
	_ "embed"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"warehouse_ops_backend/platform/apperr"

	"gopkg.in/yaml.v3"
)

// Kind names an entry page.
type Kind string

const (
	KindInbound  Kind = "inbound"
	KindOutbound Kind = "outbound"
	KindQC       Kind = "qc"
)

//go:embed profiles.yaml
var rawProfiles []byte

// Messages is the notification copy for each rejection reason. The
// placeholders {wsn} and {warehouse} are substituted by Format.
type Messages struct {
	GridDuplicate  string `yaml:"gridDuplicate"`
	SameWarehouse  string `yaml:"sameWarehouse"`
	CrossWarehouse string `yaml:"crossWarehouse"`
	LookupFailed   string `yaml:"lookupFailed"`
}

// Profile parameterizes one entry page.
type Profile struct {
	Kind            Kind     `yaml:"kind"`
	Title           string   `yaml:"title"`
	IdentifierField string   `yaml:"identifierField"`
	EditableFields  []string `yaml:"editableFields"`
	ReadOnlyFields  []string `yaml:"readOnlyFields"`
	CommonFields    []string `yaml:"commonFields"`
	RequiredCommon  []string `yaml:"requiredCommon"`
	GradeField      string   `yaml:"gradeField"`
	Messages        Messages `yaml:"messages"`
}

// IsEditable reports whether field is one the operator types into.
func (p Profile) IsEditable(field string) bool {
	return slices.Contains(p.EditableFields, field)
}

// IsReadOnly reports whether field is populated from master data.
func (p Profile) IsReadOnly(field string) bool {
	return slices.Contains(p.ReadOnlyFields, field)
}

// IsCommon reports whether field is a page-level field attached on submit.
func (p Profile) IsCommon(field string) bool {
	return slices.Contains(p.CommonFields, field)
}

// MissingCommon returns the required common fields that are blank in values.
func (p Profile) MissingCommon(values map[string]string) []string {
	var missing []string
	for _, field := range p.RequiredCommon {
		if strings.TrimSpace(values[field]) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// Format fills the {wsn} and {warehouse} placeholders of a message template.
func Format(template, wsn string, warehouseID int64) string {
	out := strings.ReplaceAll(template, "{wsn}", wsn)
	if warehouseID > 0 {
		out = strings.ReplaceAll(out, "{warehouse}", strconv.FormatInt(warehouseID, 10))
	}
	return out
}

type document struct {
	Profiles []Profile `yaml:"profiles"`
}

var registry = mustLoad(rawProfiles)

func mustLoad(raw []byte) map[Kind]Profile {
	profiles, err := parse(raw)
	if err != nil {
		panic(err)
	}
	return profiles
}

func parse(raw []byte) (map[Kind]Profile, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}

	out := make(map[Kind]Profile, len(doc.Profiles))
	for _, p := range doc.Profiles {
		if p.Kind == "" || p.IdentifierField == "" {
			return nil, fmt.Errorf("profile %q: kind and identifierField are required", p.Kind)
		}
		if _, dup := out[p.Kind]; dup {
			return nil, fmt.Errorf("profile %q declared twice", p.Kind)
		}
		for _, field := range p.EditableFields {
			if p.IsReadOnly(field) || field == p.IdentifierField {
				return nil, fmt.Errorf("profile %q: field %q is both editable and read-only", p.Kind, field)
			}
		}
		out[p.Kind] = p
	}
	return out, nil
}

// Get returns the profile for kind.
func Get(kind string) (Profile, error) {
	p, ok := registry[Kind(strings.ToLower(strings.TrimSpace(kind)))]
	if !ok {
		return Profile{}, apperr.NotFound("unknown entry kind")
	}
	return p, nil
}

// All returns every profile ordered by kind.
func All() []Profile {
	out := make([]Profile, 0, len(registry))
	for _, p := range registry {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Profile) int { return strings.Compare(string(a.Kind), string(b.Kind)) })
	return out
}
