// Package pipeline runs a locator through dispatch, generation and
// aggregation.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/dbscope/aggregate"
	"github.com/syssam/dbscope/generator"
	"github.com/syssam/dbscope/locator"
	"github.com/syssam/dbscope/privacy"
	"github.com/syssam/dbscope/resource"
)

// Dispatcher reads the resources addressed by a locator.
type Dispatcher interface {
	DispatchLocator(ctx context.Context, loc locator.Locator) (resource.Set, error)
}

// Generators looks up a generator by command name.
type Generators interface {
	Get(name string) (generator.Generator, error)
}

// Pipeline wires a dispatcher to generators and an aggregator.
type Pipeline struct {
	dispatcher Dispatcher
	generators Generators
	aggregator aggregate.Aggregator
	policy     privacy.Policy
	workers    int
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers sets how many resources are rendered concurrently.
// Values below 1 render synchronously.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		p.workers = max(n, 1)
	}
}

// WithPolicy sets the policy every render is checked against.
func WithPolicy(policy privacy.Policy) Option {
	return func(p *Pipeline) {
		p.policy = policy
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// New returns a pipeline. A nil aggregator defaults to aggregate.Zip.
func New(d Dispatcher, gens Generators, agg aggregate.Aggregator, opts ...Option) *Pipeline {
	if agg == nil {
		agg = aggregate.Zip{}
	}
	p := &Pipeline{
		dispatcher: d,
		generators: gens,
		aggregator: agg,
		workers:    1,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Read parses raw and returns the addressed resources ordered by key.
func (p *Pipeline) Read(ctx context.Context, raw string) ([]*resource.Resource, error) {
	loc, err := locator.Parse(raw)
	if err != nil {
		return nil, err
	}
	_, rs, err := p.read(ctx, loc)
	return rs, err
}

func (p *Pipeline) read(ctx context.Context, loc locator.Locator) (*slog.Logger, []*resource.Resource, error) {
	logger := p.logger.With("run", uuid.NewString(), "locator", loc.String())
	set, err := p.dispatcher.DispatchLocator(ctx, loc)
	if err != nil {
		logger.ErrorContext(ctx, "read failed", "error", err)
		return logger, nil, err
	}
	logger.DebugContext(ctx, "read", "resources", len(set))
	return logger, set.Sorted(), nil
}

// Render reads the resources addressed by raw and attaches the output of
// the generator named by the locator suffix, generator.Create when the
// suffix names none. Resources keep their key order.
func (p *Pipeline) Render(ctx context.Context, raw string) ([]*resource.Resource, error) {
	loc, err := locator.Parse(raw)
	if err != nil {
		return nil, err
	}
	cmd := loc.Command()
	if cmd == "" {
		cmd = generator.Create.Name
	}
	gen, err := p.generators.Get(cmd)
	if err != nil {
		return nil, err
	}
	if err := p.policy.Eval(ctx, privacy.Request{Locator: loc, Type: p.objectType(loc), Command: cmd}); err != nil {
		return nil, err
	}
	logger, rs, err := p.read(ctx, loc)
	if err != nil {
		return nil, err
	}
	out := make([]*resource.Resource, len(rs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, r := range rs {
		g.Go(func() error {
			text, err := gen.Generate(gctx, r.Vars())
			if err != nil {
				return fmt.Errorf("pipeline: %s %s: %w", cmd, r.Key(), err)
			}
			out[i] = r.WithPayload(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.ErrorContext(ctx, "render failed", "command", cmd, "error", err)
		return nil, err
	}
	logger.InfoContext(ctx, "rendered", "command", cmd, "resources", len(out))
	return out, nil
}

// objectType returns the object type of loc, resolved through the
// dispatcher when it resolves aliases.
func (p *Pipeline) objectType(loc locator.Locator) string {
	if r, ok := p.dispatcher.(interface {
		Resolve(locator.Locator) (string, error)
	}); ok {
		if typ, err := r.Resolve(loc); err == nil {
			return typ
		}
	}
	return loc.Type()
}

// Export renders raw and bundles the payloads with the aggregator.
func (p *Pipeline) Export(ctx context.Context, raw string) ([]byte, error) {
	rs, err := p.Render(ctx, raw)
	if err != nil {
		return nil, err
	}
	return p.aggregator.Aggregate(rs)
}
