// Package locator parses and formats resource locators.
//
// A locator addresses one or more schema objects:
//
//	<type>/<segment1>.<segment2>.../<suffix>?<key>=<value>&...
//
// The type is required. Path segments are positional identity values;
// missing segments mean "match everything" to the readers. The suffix is
// either the recursive marker "+" or a generator command name. Query
// parameters are filters, except the reserved "type" key which overrides
// dispatch.
package locator

import (
	"maps"
	"slices"
	"strings"

	"github.com/syssam/dbscope"
)

const (
	// TypeKey is the reserved parameter used to override dispatch.
	TypeKey = "type"

	// MetadataPrefix marks metadata columns and metadata filters.
	MetadataPrefix = "@"

	// Recursive is the suffix marker for an open, recursive match.
	Recursive = "+"

	// Wildcard is the SQL wildcard bound to missing or starred segments.
	Wildcard = "%"
)

// Locator is an immutable, parsed resource locator.
type Locator struct {
	typ    string
	path   []string
	suffix string
	params map[string]string
}

// New returns the canonical locator of a single resource identity.
func New(typ string, path ...string) Locator {
	return Locator{typ: typ, path: slices.Clone(path)}
}

// Parse parses a raw locator string.
func Parse(raw string) (Locator, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Locator{}, dbscope.NewMalformedLocatorError(raw, "empty locator")
	}
	var query string
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s, query = s[:i], s[i+1:]
	}
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return Locator{}, dbscope.NewMalformedLocatorError(raw, "too many path parts")
	}
	loc := Locator{typ: strings.TrimSpace(parts[0])}
	if loc.typ == "" {
		return Locator{}, dbscope.NewMalformedLocatorError(raw, "missing object type")
	}
	if len(parts) > 1 {
		for seg := range strings.SplitSeq(parts[1], ".") {
			if seg != "" {
				loc.path = append(loc.path, seg)
			}
		}
	}
	if len(parts) > 2 {
		loc.suffix = parts[2]
	}
	if query != "" {
		loc.params = make(map[string]string)
		for pair := range strings.SplitSeq(query, "&") {
			if pair == "" {
				continue
			}
			k, v, _ := strings.Cut(pair, "=")
			if k == "" {
				return Locator{}, dbscope.NewMalformedLocatorError(raw, "empty parameter name")
			}
			loc.params[k] = v
		}
	}
	return loc, nil
}

// MustParse is like Parse but panics on error.
func MustParse(raw string) Locator {
	loc, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return loc
}

// Type returns the object type.
func (l Locator) Type() string { return l.typ }

// Path returns a copy of the positional path segments.
func (l Locator) Path() []string { return slices.Clone(l.path) }

// Len returns the number of path segments.
func (l Locator) Len() int { return len(l.path) }

// Segment returns the i-th path segment with "*" rewritten to the SQL
// wildcard. It reports false when i is out of range.
func (l Locator) Segment(i int) (string, bool) {
	if i < 0 || i >= len(l.path) {
		return "", false
	}
	return strings.ReplaceAll(l.path[i], "*", Wildcard), true
}

// Suffix returns the trailing part of the locator, if any.
func (l Locator) Suffix() string { return l.suffix }

// Recursive reports whether the locator ends with the recursive marker.
func (l Locator) Recursive() bool { return l.suffix == Recursive }

// Command returns the generator command named by the suffix, or "" when
// the suffix is empty or the recursive marker.
func (l Locator) Command() string {
	if l.Recursive() {
		return ""
	}
	return l.suffix
}

// Params returns the filter parameters, excluding the reserved type key.
func (l Locator) Params() map[string]string {
	params := make(map[string]string, len(l.params))
	for k, v := range l.params {
		if k != TypeKey {
			params[k] = v
		}
	}
	return params
}

// Param returns a single parameter value, including reserved keys.
func (l Locator) Param(key string) (string, bool) {
	v, ok := l.params[key]
	return v, ok
}

// TypeOverride returns the value of the reserved type parameter.
func (l Locator) TypeOverride() (string, bool) {
	v, ok := l.params[TypeKey]
	return v, ok && v != ""
}

// WithType returns a copy of the locator addressing another object type.
func (l Locator) WithType(typ string) Locator {
	c := l.clone()
	c.typ = typ
	return c
}

// Filters returns the typed filters carried by the parameters, sorted by key.
func (l Locator) Filters() []Filter {
	var filters []Filter
	for _, k := range slices.Sorted(maps.Keys(l.params)) {
		if k == TypeKey {
			continue
		}
		f := Filter{Key: k, Value: l.params[k], Kind: IdentityFilter}
		if name, ok := strings.CutPrefix(k, MetadataPrefix); ok {
			f.Key, f.Kind = name, MetadataFilter
		}
		filters = append(filters, f)
	}
	return filters
}

// String returns the canonical form of the locator. Parameters are
// written in key order.
func (l Locator) String() string {
	var b strings.Builder
	b.WriteString(l.typ)
	if len(l.path) > 0 || l.suffix != "" {
		b.WriteByte('/')
		b.WriteString(strings.Join(l.path, "."))
	}
	if l.suffix != "" {
		b.WriteByte('/')
		b.WriteString(l.suffix)
	}
	if len(l.params) > 0 {
		b.WriteByte('?')
		for i, k := range slices.Sorted(maps.Keys(l.params)) {
			if i > 0 {
				b.WriteByte('&')
			}
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(l.params[k])
		}
	}
	return b.String()
}

// Equal reports whether two locators have the same canonical form.
func (l Locator) Equal(o Locator) bool {
	return l.String() == o.String()
}

func (l Locator) clone() Locator {
	return Locator{
		typ:    l.typ,
		path:   slices.Clone(l.path),
		suffix: l.suffix,
		params: maps.Clone(l.params),
	}
}

// FilterKind discriminates identity filters from metadata filters.
type FilterKind uint8

const (
	// IdentityFilter matches an identity property; it is assumed to be
	// satisfied by query binding.
	IdentityFilter FilterKind = iota
	// MetadataFilter matches a metadata property by substring.
	MetadataFilter
)

// String implements fmt.Stringer.
func (k FilterKind) String() string {
	if k == MetadataFilter {
		return "metadata"
	}
	return "identity"
}

// Filter is a single locator filter parameter.
type Filter struct {
	Key   string // Property name, without the metadata prefix
	Value string
	Kind  FilterKind
}
