// Package resource defines the normalized in-memory model of schema
// objects read from data sources.
package resource

import (
	"encoding/json"
	"slices"

	"github.com/syssam/dbscope/locator"
)

// PropertyKind discriminates identity properties from metadata properties.
type PropertyKind uint8

const (
	// Identity properties form the resource path and name.
	Identity PropertyKind = iota + 1
	// Metadata properties are descriptive and filterable.
	Metadata
)

// String implements fmt.Stringer.
func (k PropertyKind) String() string {
	switch k {
	case Identity:
		return "identity"
	case Metadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// Property is a single named resource property.
type Property struct {
	Name  string
	Value string
	Kind  PropertyKind
}

// Resource is one schema object instance. It is immutable once built.
type Resource struct {
	loc     locator.Locator
	key     string
	name    string
	props   []Property
	index   map[string]int
	payload string
}

// Locator returns the identity locator of the resource.
func (r *Resource) Locator() locator.Locator { return r.loc }

// Key returns the canonical locator string.
func (r *Resource) Key() string { return r.key }

// Name returns the resource name: the last identity value.
func (r *Resource) Name() string { return r.name }

// Type returns the object type.
func (r *Resource) Type() string { return r.loc.Type() }

// Path returns the identity values in column order.
func (r *Resource) Path() []string { return r.loc.Path() }

// Property returns the value of the named property.
func (r *Resource) Property(name string) (string, bool) {
	if i, ok := r.index[name]; ok {
		return r.props[i].Value, true
	}
	return "", false
}

// Prop returns the value of the named property, or "".
func (r *Resource) Prop(name string) string {
	v, _ := r.Property(name)
	return v
}

// Properties returns all properties in insertion order.
func (r *Resource) Properties() []Property { return slices.Clone(r.props) }

// Identity returns the identity properties.
func (r *Resource) Identity() []Property { return r.kind(Identity) }

// Metadata returns the metadata properties.
func (r *Resource) Metadata() []Property { return r.kind(Metadata) }

func (r *Resource) kind(k PropertyKind) []Property {
	var props []Property
	for _, p := range r.props {
		if p.Kind == k {
			props = append(props, p)
		}
	}
	return props
}

// Payload returns the generated text attached to the resource.
func (r *Resource) Payload() string { return r.payload }

// WithPayload returns a copy of the resource carrying the given payload.
func (r *Resource) WithPayload(text string) *Resource {
	c := *r
	c.payload = text
	return &c
}

// Vars returns the variables passed to generators: every property plus
// resource, name, type, path and key.
func (r *Resource) Vars() map[string]any {
	vars := make(map[string]any, len(r.props)+5)
	for _, p := range r.props {
		vars[p.Name] = p.Value
	}
	vars["resource"] = r
	vars["name"] = r.name
	vars["type"] = r.Type()
	vars["path"] = r.Path()
	vars["key"] = r.key
	return vars
}

// MarshalJSON implements json.Marshaler.
func (r *Resource) MarshalJSON() ([]byte, error) {
	props := make(map[string]string, len(r.props))
	for _, p := range r.props {
		props[p.Name] = p.Value
	}
	path := r.Path()
	if path == nil {
		path = []string{}
	}
	return json.Marshal(struct {
		Key        string            `json:"key"`
		Type       string            `json:"type"`
		Name       string            `json:"name"`
		Path       []string          `json:"path"`
		Properties map[string]string `json:"properties"`
		Payload    string            `json:"payload,omitempty"`
	}{
		Key:        r.key,
		Type:       r.Type(),
		Name:       r.name,
		Path:       path,
		Properties: props,
		Payload:    r.payload,
	})
}

// Builder accumulates the properties of one resource. A builder is owned
// by a single goroutine and cannot be reused after Build.
type Builder struct {
	typ   string
	name  string
	path  []string
	props []Property
	index map[string]int
	built bool
}

// NewBuilder returns a builder for a resource of the given type.
func NewBuilder(typ string) *Builder {
	return &Builder{typ: typ, index: make(map[string]int)}
}

// Identity appends an identity value to the path. The resource name is
// the value of the last identity call.
//
// Review: naming by the last identity column depends on column order.
func (b *Builder) Identity(name, value string) *Builder {
	b.check()
	b.path = append(b.path, value)
	b.name = value
	b.set(Property{Name: name, Value: value, Kind: Identity})
	return b
}

// Metadata sets a metadata property.
func (b *Builder) Metadata(name, value string) *Builder {
	b.check()
	b.set(Property{Name: name, Value: value, Kind: Metadata})
	return b
}

// set overwrites a duplicate name in place.
func (b *Builder) set(p Property) {
	if i, ok := b.index[p.Name]; ok {
		b.props[i] = p
		return
	}
	b.index[p.Name] = len(b.props)
	b.props = append(b.props, p)
}

func (b *Builder) check() {
	if b.built {
		panic("resource: builder used after Build")
	}
}

// Build freezes the accumulated properties into a Resource.
func (b *Builder) Build() *Resource {
	b.check()
	b.built = true
	loc := locator.New(b.typ, b.path...)
	return &Resource{
		loc:   loc,
		key:   loc.String(),
		name:  b.name,
		props: b.props,
		index: b.index,
	}
}
