// Package config loads dbscope configuration files.
//
// A configuration names the data sources, the object types with their
// read queries, and the generators available to the pipeline. Files are
// YAML (.yaml, .yml) or TOML (.toml):
//
//	sources:
//	  - name: dev
//	    driver: postgres
//	    dsn: postgres://localhost/app?sslmode=disable
//	types:
//	  - name: table
//	    aliases: [tables]
//	    sources: ["*"]
//	    query: |
//	      SELECT table_schema, table_name FROM information_schema.tables
//	      WHERE table_schema LIKE '$schema' AND table_name LIKE '$name'
//	    deny: [drop]
//	generators:
//	  - command: create
//	    kind: ddl
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/syssam/dbscope"
)

// AllSources selects every configured data source in Type.Sources.
const AllSources = "*"

// Generator kinds.
const (
	KindTemplate = "template"
	KindDDL      = "ddl"
	KindGoStruct = "gostruct"
	KindGraphQL  = "graphql"
)

// Config is the root configuration.
type Config struct {
	Log        Log         `yaml:"log" toml:"log"`
	Workers    int         `yaml:"workers" toml:"workers" validate:"gte=0"`
	Sources    []Source    `yaml:"sources" toml:"sources" validate:"required,min=1,dive"`
	Types      []Type      `yaml:"types" toml:"types" validate:"required,min=1,dive"`
	Generators []Generator `yaml:"generators" toml:"generators" validate:"dive"`
}

// Log configures the process logger.
type Log struct {
	Level   string `yaml:"level" toml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format  string `yaml:"format" toml:"format" validate:"omitempty,oneof=text json"`
	Queries bool   `yaml:"queries" toml:"queries"` // log every executed query at debug level
}

// Source is a named data source.
type Source struct {
	Name            string            `yaml:"name" toml:"name" validate:"required"`
	Driver          string            `yaml:"driver" toml:"driver" validate:"required,oneof=postgres postgresql pgx mysql mariadb sqlite sqlite3"`
	DSN             string            `yaml:"dsn" toml:"dsn" validate:"required"`
	MaxOpenConns    int               `yaml:"max_open_conns" toml:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int               `yaml:"max_idle_conns" toml:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration     `yaml:"conn_max_lifetime" toml:"conn_max_lifetime" validate:"gte=0"`
	SessionVars     map[string]string `yaml:"session_vars" toml:"session_vars"`
	SlowQuery       time.Duration     `yaml:"slow_query" toml:"slow_query" validate:"gte=0"`
}

// Type maps an object type to its read query and data sources.
type Type struct {
	Name    string   `yaml:"name" toml:"name" validate:"required"`
	Aliases []string `yaml:"aliases" toml:"aliases" validate:"dive,required"`
	Query   string   `yaml:"query" toml:"query" validate:"required"`
	// Sources lists data source labels; "*" selects all of them.
	Sources    []string `yaml:"sources" toml:"sources" validate:"required,min=1,dive,required"`
	PathFilter bool     `yaml:"path_filter" toml:"path_filter"`
	Strict     bool     `yaml:"strict" toml:"strict"`
	// Deny lists generator commands that may not run on this type.
	Deny []string `yaml:"deny" toml:"deny" validate:"dive,required"`
}

// Generator declares a generator bound to a locator command.
type Generator struct {
	Command     string `yaml:"command" toml:"command" validate:"required"`
	Description string `yaml:"description" toml:"description"`
	Kind        string `yaml:"kind" toml:"kind" validate:"required,oneof=template ddl gostruct graphql"`
	Template    string `yaml:"template" toml:"template" validate:"required_if=Kind template"`
	Package     string `yaml:"package" toml:"package"`
}

// Option modifies a decoded configuration before validation.
type Option func(*Config) error

// WithWorkers overrides the number of render workers.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return dbscope.NewConfigError("workers", n, "must not be negative")
		}
		c.Workers = n
		return nil
	}
}

// WithLogLevel overrides the log level.
func WithLogLevel(level string) Option {
	return func(c *Config) error {
		c.Log.Level = level
		return nil
	}
}

// WithQueryLog enables logging of every executed query.
func WithQueryLog() Option {
	return func(c *Config) error {
		c.Log.Queries = true
		return nil
	}
}

// Load reads, decodes and validates the configuration file at path.
func Load(path string, opts ...Option) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data, Format(path), opts...)
}

// Format returns the format of a configuration file from its extension.
func Format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return "toml"
	default:
		return "yaml"
	}
}

// Parse decodes data in the given format ("yaml" or "toml"), applies
// the options and validates the result.
func Parse(data []byte, format string, opts ...Option) (*Config, error) {
	c := &Config{}
	switch format {
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil {
			return nil, fmt.Errorf("config: decode yaml: %w", err)
		}
	case "toml":
		md, err := toml.Decode(string(data), c)
		if err != nil {
			return nil, fmt.Errorf("config: decode toml: %w", err)
		}
		if keys := md.Undecoded(); len(keys) > 0 {
			return nil, dbscope.NewConfigError(keys[0].String(), nil, "unknown field")
		}
	default:
		return nil, dbscope.NewConfigError("format", format, "unsupported format; use yaml or toml")
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.defaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) defaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
}

// validate is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks field constraints and cross references: unique source,
// type, alias and command names, and type sources naming configured
// sources.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return dbscope.NewConfigError(strings.TrimPrefix(e.Namespace(), "Config."), e.Value(), "failed on "+e.Tag())
		}
		return fmt.Errorf("config: %w", err)
	}
	sources := make(map[string]struct{}, len(c.Sources))
	for i, s := range c.Sources {
		if s.Name == AllSources {
			return dbscope.NewConfigError(fmt.Sprintf("sources[%d].name", i), s.Name, "reserved name")
		}
		if _, ok := sources[s.Name]; ok {
			return dbscope.NewConfigError(fmt.Sprintf("sources[%d].name", i), s.Name, "duplicate source")
		}
		sources[s.Name] = struct{}{}
	}
	names := make(map[string]struct{})
	for i, t := range c.Types {
		for _, n := range append([]string{t.Name}, t.Aliases...) {
			if _, ok := names[n]; ok {
				return dbscope.NewConfigError(fmt.Sprintf("types[%d]", i), n, "duplicate type or alias")
			}
			names[n] = struct{}{}
		}
		for j, s := range t.Sources {
			if _, ok := sources[s]; !ok && s != AllSources {
				return dbscope.NewConfigError(fmt.Sprintf("types[%d].sources[%d]", i, j), s, "unknown source")
			}
		}
	}
	commands := make(map[string]struct{}, len(c.Generators))
	for i, g := range c.Generators {
		if _, ok := commands[g.Command]; ok {
			return dbscope.NewConfigError(fmt.Sprintf("generators[%d].command", i), g.Command, "duplicate command")
		}
		commands[g.Command] = struct{}{}
	}
	return nil
}

// SourceNames returns the data source labels of t in declaration order,
// expanding "*" and dropping repeats.
func (c *Config) SourceNames(t Type) []string {
	var (
		names []string
		seen  = make(map[string]struct{})
	)
	add := func(name string) {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	for _, s := range t.Sources {
		if s != AllSources {
			add(s)
			continue
		}
		for _, src := range c.Sources {
			add(src.Name)
		}
	}
	return names
}
