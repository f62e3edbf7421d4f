// Package strset provides a string set with deterministic, byte-wise ordered iteration.
package strset

import (
	"encoding/json"
	"maps"
	"slices"
)

// Set is an unordered collection of unique strings.
// The zero value is not usable; create sets with New.
type Set map[string]struct{}

// New returns a set holding the given items.
func New(items ...string) Set {
	set := make(Set, len(items))
	set.AddAll(items...)

	return set
}

// Add inserts item into the set.
func (s Set) Add(item string) {
	s[item] = struct{}{}
}

// AddAll inserts every item into the set.
func (s Set) AddAll(items ...string) {
	for _, item := range items {
		s[item] = struct{}{}
	}
}

// Union inserts every member of other into the set.
func (s Set) Union(other Set) {
	for item := range other {
		s[item] = struct{}{}
	}
}

// Has reports whether item is a member of the set.
func (s Set) Has(item string) bool {
	_, ok := s[item]

	return ok
}

// Len returns the number of members.
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the members in ascending byte-wise order, never nil.
// The order does not depend on locale or map iteration.
func (s Set) Sorted() []string {
	items := make([]string, 0, len(s))
	items = slices.AppendSeq(items, maps.Keys(s))
	slices.Sort(items)

	return items
}

// Equal reports whether both sets hold exactly the same members.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}

	for item := range s {
		if !other.Has(item) {
			return false
		}
	}

	return true
}

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	clone := make(Set, len(s))
	maps.Copy(clone, s)

	return clone
}

// MarshalJSON encodes the set as a sorted JSON array.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// MarshalYAML encodes the set as a sorted YAML sequence.
func (s Set) MarshalYAML() (any, error) {
	return s.Sorted(), nil
}
