// Package source opens the data sources named in the configuration.
//
// Supported drivers:
//
//   - postgres, postgresql: github.com/lib/pq
//   - pgx: github.com/jackc/pgx/v5/stdlib
//   - mysql, mariadb: github.com/go-sql-driver/mysql
//   - sqlite, sqlite3: modernc.org/sqlite
package source

import (
	stdsql "database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/syssam/dbscope"
	"github.com/syssam/dbscope/config"
	"github.com/syssam/dbscope/dialect"
	"github.com/syssam/dbscope/dialect/sql"
)

// Source is an open data source.
type Source struct {
	Name    string
	Dialect string
	// DB is the connection pool shared by all readers of the source.
	DB *stdsql.DB
	// Selector executes read queries on DB, decorated with statistics and
	// optional query logging.
	Selector sql.Selector
	// Stats collects the query statistics of the source.
	Stats *sql.StatsDriver
}

// Set is a collection of open data sources in configuration order.
type Set struct {
	sources map[string]*Source
	names   []string
}

// Option configures Open.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	queryLog  bool
	connector func(driver, dsn string) (*stdsql.DB, error)
}

// WithLogger sets the logger used for slow-query and query logs.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithQueryLog logs every executed query at debug level.
func WithQueryLog(enabled bool) Option {
	return func(o *options) {
		o.queryLog = enabled
	}
}

// WithConnector replaces the function opening a connection pool from a
// driver name and DSN. It is used by tests to inject mock pools.
func WithConnector(fn func(driver, dsn string) (*stdsql.DB, error)) Option {
	return func(o *options) {
		o.connector = fn
	}
}

// Open validates and opens every configured source. Opening is lazy: no
// connection is established until the first query. On error, sources
// opened so far are closed.
func Open(cfgs []config.Source, opts ...Option) (*Set, error) {
	o := &options{logger: slog.Default(), connector: Connect}
	for _, opt := range opts {
		opt(o)
	}
	s := &Set{sources: make(map[string]*Source, len(cfgs))}
	for i, c := range cfgs {
		if _, ok := s.sources[c.Name]; ok {
			return nil, errors.Join(dbscope.NewConfigError(fmt.Sprintf("sources[%d].name", i), c.Name, "duplicate source"), s.Close())
		}
		name, ok := dialect.Normalize(c.Driver)
		if !ok {
			return nil, errors.Join(dbscope.NewConfigError(fmt.Sprintf("sources[%d].driver", i), c.Driver, "unsupported driver"), s.Close())
		}
		db, err := o.connector(c.Driver, c.DSN)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("source %q: %w", c.Name, err), s.Close())
		}
		configurePool(db, c)
		var sel sql.Selector = sql.OpenDB(name, db, sql.WithSource(c.Name), sql.WithSessionVars(c.SessionVars))
		if o.queryLog {
			sel = sql.NewDebugDriver(sel, o.logger.With("source", c.Name))
		}
		sopts := []sql.StatsOption{sql.WithSlowQueryLog(o.logger.With("source", c.Name))}
		if c.SlowQuery > 0 {
			sopts = append(sopts, sql.WithSlowThreshold(c.SlowQuery))
		}
		stats := sql.NewStatsDriver(sel, sopts...)
		s.sources[c.Name] = &Source{Name: c.Name, Dialect: name, DB: db, Selector: stats, Stats: stats}
		s.names = append(s.names, c.Name)
	}
	return s, nil
}

func configurePool(db *stdsql.DB, c config.Source) {
	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(c.ConnMaxLifetime)
	}
}

// Connect opens a connection pool with the driver for the given name.
// The DSN is parsed by the driver first, so malformed DSNs fail here
// rather than on first use.
func Connect(driver, dsn string) (*stdsql.DB, error) {
	name, ok := dialect.Normalize(driver)
	if !ok {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	switch {
	case name == dialect.Postgres && strings.EqualFold(strings.TrimSpace(driver), "pgx"):
		cfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse dsn: %w", err)
		}
		return stdlib.OpenDB(*cfg), nil
	case name == dialect.Postgres:
		c, err := pq.NewConnector(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse dsn: %w", err)
		}
		return stdsql.OpenDB(c), nil
	case name == dialect.MySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse dsn: %w", err)
		}
		c, err := mysql.NewConnector(cfg)
		if err != nil {
			return nil, err
		}
		return stdsql.OpenDB(c), nil
	default:
		if dsn == "" {
			return nil, errors.New("parse dsn: empty sqlite dsn")
		}
		return stdsql.Open("sqlite", dsn)
	}
}

// Get returns the named source.
func (s *Set) Get(name string) (*Source, bool) {
	src, ok := s.sources[name]
	return src, ok
}

// Lookup returns the named source. An empty name selects the only
// source when exactly one is configured.
func (s *Set) Lookup(name string) (*Source, error) {
	if name == "" && len(s.names) == 1 {
		name = s.names[0]
	}
	if src, ok := s.sources[name]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("source: unknown data source %q", name)
}

// Names returns the source names in configuration order.
func (s *Set) Names() []string { return slices.Clone(s.names) }

// Match returns the sources whose name matches the regular expression
// pattern, in configuration order.
func (s *Set) Match(pattern string) ([]*Source, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("source: invalid pattern %q: %w", pattern, err)
	}
	var matched []*Source
	for _, n := range s.names {
		if re.MatchString(n) {
			matched = append(matched, s.sources[n])
		}
	}
	return matched, nil
}

// Close closes every connection pool.
func (s *Set) Close() error {
	var errs []error
	for _, n := range s.names {
		if err := s.sources[n].DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("source %q: %w", n, err))
		}
	}
	return errors.Join(errs...)
}
