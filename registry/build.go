package registry

import (
	"fmt"

	"github.com/syssam/dbscope"
	"github.com/syssam/dbscope/config"
	"github.com/syssam/dbscope/reader"
	"github.com/syssam/dbscope/source"
)

// Build returns a registry with one SQL reader per configured object
// type and data source. Readers are registered in the order the type
// lists its sources, with "*" expanding to every source.
func Build(cfg *config.Config, sources *source.Set, opts ...Option) (*Registry, error) {
	r := New(opts...)
	for i, t := range cfg.Types {
		for _, name := range cfg.SourceNames(t) {
			src, ok := sources.Get(name)
			if !ok {
				return nil, dbscope.NewConfigError(fmt.Sprintf("types[%d].sources", i), name, "unknown source")
			}
			ropts := []reader.Option{
				reader.WithSource(src.Name),
				reader.WithDialect(src.Dialect),
				reader.WithLogger(r.logger),
			}
			if t.Strict {
				ropts = append(ropts, reader.WithStrict())
			}
			var rd reader.Reader = reader.NewSQL(t.Query, src.Selector, ropts...)
			if t.PathFilter {
				rd = reader.PathFilter(rd)
			}
			r.Register(t.Name, src.Name, rd)
		}
		for _, a := range t.Aliases {
			r.Alias(a, t.Name)
		}
	}
	return r, nil
}
