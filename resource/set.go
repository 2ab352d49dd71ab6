package resource

import (
	"maps"
	"slices"
)

// Set maps canonical locator strings to resources.
type Set map[string]*Resource

// Add stores r under its key, replacing any earlier resource.
func (s Set) Add(r *Resource) {
	s[r.Key()] = r
}

// Keys returns the keys in sorted order.
func (s Set) Keys() []string {
	return slices.Sorted(maps.Keys(s))
}

// Sorted returns the resources ordered by key.
func (s Set) Sorted() []*Resource {
	rs := make([]*Resource, 0, len(s))
	for _, k := range s.Keys() {
		rs = append(rs, s[k])
	}
	return rs
}

// Filter returns the resources for which keep returns true.
func (s Set) Filter(keep func(*Resource) bool) Set {
	out := make(Set, len(s))
	for k, r := range s {
		if keep(r) {
			out[k] = r
		}
	}
	return out
}

// Merge copies src into dst and returns dst, allocating it when nil.
// On a key collision the resource from src replaces the one in dst.
//
// Review: last-writer-wins depends on the order readers are merged in.
func Merge(dst, src Set) Set {
	if dst == nil {
		dst = make(Set, len(src))
	}
	maps.Copy(dst, src)
	return dst
}
