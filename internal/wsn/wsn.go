// Package wsn holds the pure identifier rules shared by every entry page:
// normalization of warehouse serial numbers, grid duplicate scanning and the
// derived sets that gate bulk submission.
//
// Everything here is synchronous and allocation-light so it can run on every
// cell commit.
package wsn

import (
	"slices"
	"strings"
)

// Normalize trims surrounding whitespace and uppercases a raw cell value.
// Blank input yields "". Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.ToUpper(trimmed)
}

// Set is a set of normalized identifiers.
type Set map[string]struct{}

// NewSet builds a set from keys. Blank keys are skipped.
func NewSet(keys ...string) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		if k != "" {
			s[k] = struct{}{}
		}
	}
	return s
}

// Has reports membership.
func (s Set) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Len returns the number of members.
func (s Set) Len() int { return len(s) }

// Keys returns the members in sorted order.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Union returns a new set holding the members of both sets.
func (s Set) Union(other Set) Set {
	out := make(Set, len(s)+len(other))
	for k := range s {
		out[k] = struct{}{}
	}
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}
