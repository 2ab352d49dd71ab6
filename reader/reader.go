// Package reader turns query results into resources.
//
// A Reader handles one object type on one data source. The SQL reader
// binds the locator path into its query template, executes the query and
// normalizes every row into a Resource:
//
//   - columns without the "@" prefix are identity columns; their values
//     form the resource path and the last one names the resource,
//   - "@"-prefixed columns are metadata, stored without the prefix,
//     NULL stored as "".
//
// Resources are keyed by their canonical locator; a later row with the
// same key replaces an earlier one. Metadata filters carried by the
// locator ("@owner=alice") then narrow the result by substring match.
package reader

import (
	"context"
	"log/slog"
	"strings"

	"github.com/syssam/dbscope"
	"github.com/syssam/dbscope/dialect/sql"
	"github.com/syssam/dbscope/locator"
	"github.com/syssam/dbscope/querytemplate"
	"github.com/syssam/dbscope/resource"
)

// Reader reads the resources of one object type addressed by a locator.
type Reader interface {
	Read(ctx context.Context, loc locator.Locator, objectType string) (resource.Set, error)
}

// Func is an adapter to allow ordinary functions as readers.
type Func func(ctx context.Context, loc locator.Locator, objectType string) (resource.Set, error)

// Read calls f(ctx, loc, objectType).
func (f Func) Read(ctx context.Context, loc locator.Locator, objectType string) (resource.Set, error) {
	return f(ctx, loc, objectType)
}

// SourceProperty is the metadata property set by WithSource.
const SourceProperty = "source"

// SQL reads resources with a single templated query.
type SQL struct {
	db      sql.Selector
	tmpl    *querytemplate.Template
	err     error
	source  string
	dialect string
	strict  bool
	logger  *slog.Logger
}

// Option configures the SQL reader.
type Option func(*SQL)

// WithSource labels every resource with the data source it was read from.
func WithSource(label string) Option {
	return func(r *SQL) {
		r.source = label
	}
}

// WithDialect sets the dialect used to escape bound values. By default
// it is taken from the selector when it reports one.
func WithDialect(name string) Option {
	return func(r *SQL) {
		r.dialect = name
	}
}

// WithStrict fails reads whose locator leaves placeholders unbound.
func WithStrict() Option {
	return func(r *SQL) {
		r.strict = true
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *SQL) {
		r.logger = l
	}
}

// NewSQL returns a reader executing query on db. A template that does
// not compile is reported by every Read.
func NewSQL(query string, db sql.Selector, opts ...Option) *SQL {
	r := &SQL{db: db, logger: slog.Default()}
	if d, ok := db.(interface{ Dialect() string }); ok {
		r.dialect = d.Dialect()
	}
	for _, opt := range opts {
		opt(r)
	}
	topts := []querytemplate.Option{querytemplate.WithEscape(sql.Escaper(r.dialect))}
	if r.strict {
		topts = append(topts, querytemplate.WithStrict())
	}
	r.tmpl, r.err = querytemplate.Compile(query, topts...)
	return r
}

// Placeholders returns the placeholder names of the query, or nil when
// the query does not compile.
func (r *SQL) Placeholders() []string {
	if r.err != nil {
		return nil
	}
	return r.tmpl.Placeholders()
}

// Read implements Reader.
func (r *SQL) Read(ctx context.Context, loc locator.Locator, objectType string) (resource.Set, error) {
	if r.err != nil {
		return nil, dbscope.NewReadError(objectType, loc.String(), r.err)
	}
	path := make([]string, loc.Len())
	for i := range path {
		path[i], _ = loc.Segment(i)
	}
	query, err := r.tmpl.BindPath(path)
	if err != nil {
		return nil, dbscope.NewReadError(objectType, loc.String(), err)
	}
	rows, err := r.db.Select(ctx, query)
	if err != nil {
		return nil, dbscope.NewReadError(objectType, loc.String(), err)
	}
	set := make(resource.Set, len(rows))
	for _, row := range rows {
		set.Add(r.build(objectType, row))
	}
	set = Narrow(set, loc.Filters())
	r.logger.DebugContext(ctx, "read resources",
		"type", objectType,
		"locator", loc.String(),
		"source", r.source,
		"rows", len(rows),
		"resources", len(set),
	)
	return set, nil
}

func (r *SQL) build(objectType string, row sql.Row) *resource.Resource {
	b := resource.NewBuilder(objectType)
	if r.source != "" {
		b.Metadata(SourceProperty, r.source)
	}
	for i := range row.Len() {
		name, v := row.At(i)
		if meta, ok := strings.CutPrefix(name, locator.MetadataPrefix); ok {
			b.Metadata(meta, v.String)
		} else {
			b.Identity(name, v.String)
		}
	}
	return b.Build()
}

// Narrow keeps the resources whose metadata property contains the value
// of every metadata filter. The match is case-sensitive. Identity
// filters are left to query binding.
func Narrow(set resource.Set, filters []locator.Filter) resource.Set {
	var meta []locator.Filter
	for _, f := range filters {
		if f.Kind == locator.MetadataFilter {
			meta = append(meta, f)
		}
	}
	if len(meta) == 0 {
		return set
	}
	return set.Filter(func(r *resource.Resource) bool {
		for _, f := range meta {
			if !strings.Contains(r.Prop(f.Key), f.Value) {
				return false
			}
		}
		return true
	})
}

var _ Reader = (*SQL)(nil)
