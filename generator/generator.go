// Package generator derives text from resources.
//
// A Generator renders one resource, passed as a variable map, into text
// such as DDL, Go source or a GraphQL schema. Generators are selected by
// the command named in the locator suffix and can be wrapped with
// decorators that add cross-cutting behavior without changing the
// generated text:
//
//	g := generator.Chain(generator.NewDDL(generator.Create, inspectors),
//	    generator.WithLogging(logger),
//	    generator.WithTiming(observe),
//	)
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"
)

// Command describes the database object command a generator targets.
type Command struct {
	Name        string
	Description string
}

// String implements fmt.Stringer.
func (c Command) String() string { return c.Name }

// Well known commands.
var (
	Create = Command{Name: "create", Description: "statement creating the object"}
	Drop   = Command{Name: "drop", Description: "statement dropping the object"}
)

// Generator renders the variables of one resource.
type Generator interface {
	Generate(ctx context.Context, vars map[string]any) (string, error)
	Command() Command
}

// Func adapts a function to a Generator for the given command.
func Func(cmd Command, fn func(ctx context.Context, vars map[string]any) (string, error)) Generator {
	return &funcGenerator{cmd: cmd, fn: fn}
}

type funcGenerator struct {
	cmd Command
	fn  func(ctx context.Context, vars map[string]any) (string, error)
}

func (g *funcGenerator) Generate(ctx context.Context, vars map[string]any) (string, error) {
	return g.fn(ctx, vars)
}

func (g *funcGenerator) Command() Command { return g.cmd }

// Decorator wraps a Generator. Decorators must preserve the command and
// the generated text of the wrapped generator.
type Decorator func(Generator) Generator

// Chain applies decorators to g. The first decorator is the outermost.
func Chain(g Generator, ds ...Decorator) Generator {
	for i := len(ds) - 1; i >= 0; i-- {
		g = ds[i](g)
	}
	return g
}

// WithLogging logs the variables before generation and the elapsed time
// after it.
func WithLogging(logger *slog.Logger) Decorator {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Generator) Generator {
		return &loggingGenerator{Generator: next, logger: logger}
	}
}

type loggingGenerator struct {
	Generator
	logger *slog.Logger
}

func (g *loggingGenerator) Generate(ctx context.Context, vars map[string]any) (string, error) {
	cmd := g.Command().Name
	g.logger.DebugContext(ctx, "generate start", "command", cmd, "vars", varNames(vars))
	start := time.Now()
	out, err := g.Generator.Generate(ctx, vars)
	if err != nil {
		g.logger.ErrorContext(ctx, "generate failed", "command", cmd, "elapsed", time.Since(start), "error", err)
		return out, err
	}
	g.logger.DebugContext(ctx, "generate done", "command", cmd, "elapsed", time.Since(start), "bytes", len(out))
	return out, nil
}

func varNames(vars map[string]any) []string {
	return slices.Sorted(maps.Keys(vars))
}

// WithTiming reports the duration of every generation to observe.
func WithTiming(observe func(Command, time.Duration)) Decorator {
	return func(next Generator) Generator {
		return &timingGenerator{Generator: next, observe: observe}
	}
}

type timingGenerator struct {
	Generator
	observe func(Command, time.Duration)
}

func (g *timingGenerator) Generate(ctx context.Context, vars map[string]any) (string, error) {
	start := time.Now()
	defer func() { g.observe(g.Command(), time.Since(start)) }()
	return g.Generator.Generate(ctx, vars)
}

// Set holds generators by command name. It is safe for concurrent use.
type Set struct {
	mu   sync.RWMutex
	gens map[string]Generator
}

// NewSet returns a set holding the given generators.
func NewSet(gens ...Generator) *Set {
	s := &Set{gens: make(map[string]Generator, len(gens))}
	for _, g := range gens {
		s.Add(g)
	}
	return s
}

// Add stores g under its command name, replacing any earlier generator.
func (s *Set) Add(g Generator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[g.Command().Name] = g
}

// Get returns the generator for the command name.
func (s *Set) Get(name string) (Generator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.gens[name]
	if !ok {
		return nil, fmt.Errorf("generator: no generator for command %q", name)
	}
	return g, nil
}

// Commands returns the registered commands sorted by name.
func (s *Set) Commands() []Command {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cmds := make([]Command, 0, len(s.gens))
	for _, name := range slices.Sorted(maps.Keys(s.gens)) {
		cmds = append(cmds, s.gens[name].Command())
	}
	return cmds
}

// Decorate wraps every generator in the set with ds.
func (s *Set) Decorate(ds ...Decorator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, g := range s.gens {
		s.gens[name] = Chain(g, ds...)
	}
}
