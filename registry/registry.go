// Package registry routes locators to the readers of their object type.
//
// Several readers may serve one object type, typically one per data
// source. Dispatch runs them in registration order and merges their
// results with resource.Merge: when two readers produce the same
// canonical locator, the later reader's resource is kept.
package registry

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/syssam/dbscope"
	"github.com/syssam/dbscope/locator"
	"github.com/syssam/dbscope/reader"
	"github.com/syssam/dbscope/resource"
)

// Registry maps object types to readers. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	readers map[string][]entry
	aliases map[string]string
	logger  *slog.Logger
}

type entry struct {
	source string
	reader reader.Reader
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// New returns an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		readers: make(map[string][]entry),
		aliases: make(map[string]string),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a reader for the object type on the labeled source.
func (r *Registry) Register(typ, source string, rd reader.Reader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readers[typ] = append(r.readers[typ], entry{source: source, reader: rd})
}

// Alias makes alias resolve to the object type typ.
func (r *Registry) Alias(alias, typ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[alias] = typ
}

// Types returns the registered object types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.readers))
}

// Sources returns the source labels registered for typ in registration
// order.
func (r *Registry) Sources(typ string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sources []string
	for _, e := range r.readers[r.resolve(typ)] {
		sources = append(sources, e.source)
	}
	return sources
}

// Resolve returns the object type a locator dispatches to: the type
// parameter when present, else the locator type, with aliases applied.
func (r *Registry) Resolve(loc locator.Locator) (string, error) {
	typ := loc.Type()
	if t, ok := loc.TypeOverride(); ok {
		typ = t
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	typ = r.resolve(typ)
	if _, ok := r.readers[typ]; !ok {
		return "", dbscope.NewUnknownResourceTypeError(typ)
	}
	return typ, nil
}

func (r *Registry) resolve(typ string) string {
	if t, ok := r.aliases[typ]; ok {
		return t
	}
	return typ
}

// Dispatch parses raw and dispatches the resulting locator.
func (r *Registry) Dispatch(ctx context.Context, raw string) (resource.Set, error) {
	loc, err := locator.Parse(raw)
	if err != nil {
		return nil, err
	}
	return r.DispatchLocator(ctx, loc)
}

// DispatchLocator reads the locator with every reader of its object type
// and merges the results. The first reader failure is returned.
func (r *Registry) DispatchLocator(ctx context.Context, loc locator.Locator) (resource.Set, error) {
	typ, err := r.Resolve(loc)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	entries := slices.Clone(r.readers[typ])
	r.mu.RUnlock()

	set := make(resource.Set)
	for _, e := range entries {
		rs, err := e.reader.Read(ctx, loc, typ)
		if err != nil {
			return nil, err
		}
		r.logger.DebugContext(ctx, "dispatched", "type", typ, "source", e.source, "resources", len(rs))
		set = resource.Merge(set, rs)
	}
	return set, nil
}
