package filter

import (
	"slices"
	"strings"
)

// Set is a sorted, de-duplicated list of facet values. Elements never
// contain commas since sets travel comma-joined in the query string.
type Set []string

// NewSet normalizes values into a Set: trims them, drops empties, splits on
// commas, sorts and de-duplicates. The result is never nil.
func NewSet(values ...string) Set {
	out := Set{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Has reports whether v is in the set.
func (s Set) Has(v string) bool {
	_, found := slices.BinarySearch(s, v)
	return found
}

// Toggle returns a new set with v added, or removed if it was present.
func (s Set) Toggle(v string) Set {
	if s.Has(v) {
		out := Set{}
		for _, e := range s {
			if e != v {
				out = append(out, e)
			}
		}
		return out
	}
	return NewSet(append(slices.Clone(s), v)...)
}

// Equal compares sets by content; nil and empty are equal.
func (s Set) Equal(o Set) bool {
	return slices.Equal(s, o)
}

func (s Set) String() string {
	return strings.Join(s, ",")
}
