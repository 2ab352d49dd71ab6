package cli

import (
	stdsql "database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/syssam/dbscope/aggregate"
	"github.com/syssam/dbscope/config"
	"github.com/syssam/dbscope/generator"
	"github.com/syssam/dbscope/pipeline"
	"github.com/syssam/dbscope/privacy"
	"github.com/syssam/dbscope/registry"
	"github.com/syssam/dbscope/source"
)

// app is the wired object graph of one command run.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	sources    *source.Set
	registry   *registry.Registry
	generators *generator.Set
	pipeline   *pipeline.Pipeline
	verbose    bool
	genTime    atomic.Int64
}

// loadApp reads the configuration file and opens everything it names.
func loadApp(opts *RootOptions, logw io.Writer, agg aggregate.Aggregator) (*app, error) {
	cfg, err := config.Load(opts.Config, configOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return newApp(cfg, opts, logw, agg)
}

func configOptions(opts *RootOptions) []config.Option {
	var copts []config.Option
	if opts.LogLevel != "" {
		copts = append(copts, config.WithLogLevel(opts.LogLevel))
	}
	if opts.Workers > 0 {
		copts = append(copts, config.WithWorkers(opts.Workers))
	}
	if opts.Queries {
		copts = append(copts, config.WithQueryLog())
	}
	return copts
}

func newApp(cfg *config.Config, opts *RootOptions, logw io.Writer, agg aggregate.Aggregator) (*app, error) {
	a := &app{cfg: cfg, logger: newLogger(cfg.Log, logw), verbose: opts.Verbose}
	sources, err := source.Open(cfg.Sources,
		source.WithLogger(a.logger),
		source.WithQueryLog(cfg.Log.Queries),
	)
	if err != nil {
		return nil, err
	}
	a.sources = sources
	a.registry, err = registry.Build(cfg, sources, registry.WithLogger(a.logger))
	if err != nil {
		return nil, errors.Join(err, sources.Close())
	}
	inspectors := generator.NewInspectors(func(name string) (*stdsql.DB, string, error) {
		src, err := sources.Lookup(name)
		if err != nil {
			return nil, "", err
		}
		return src.DB, src.Dialect, nil
	})
	a.generators, err = generator.Build(cfg.Generators, inspectors)
	if err != nil {
		return nil, errors.Join(err, sources.Close())
	}
	a.generators.Decorate(
		generator.WithLogging(a.logger),
		generator.WithTiming(func(_ generator.Command, d time.Duration) {
			a.genTime.Add(int64(d))
		}),
	)
	a.pipeline = pipeline.New(a.registry, a.generators, agg,
		pipeline.WithWorkers(cfg.Workers),
		pipeline.WithPolicy(policy(cfg)),
		pipeline.WithLogger(a.logger),
	)
	return a, nil
}

// Close logs the query statistics when verbose and closes the sources.
func (a *app) Close() error {
	if a.verbose {
		for _, name := range a.sources.Names() {
			src, _ := a.sources.Get(name)
			a.logger.Info("source stats", "source", name, "stats", src.Stats.QueryStats().Stats().String())
		}
		a.logger.Info("generator stats", "elapsed", time.Duration(a.genTime.Load()))
	}
	return a.sources.Close()
}

// policy denies the commands each object type lists under deny.
func policy(cfg *config.Config) privacy.Policy {
	var p privacy.Policy
	for _, t := range cfg.Types {
		if len(t.Deny) > 0 {
			p = append(p, privacy.OnType(privacy.DenyCommandRule(t.Deny...), t.Name))
		}
	}
	return p
}

// newLogger builds the process logger from the log configuration.
func newLogger(c config.Log, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	hopts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}
