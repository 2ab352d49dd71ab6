package generator

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"ariga.io/atlas/sql/migrate"
	atmysql "ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/syssam/dbscope/dialect"
)

// Inspector reads table definitions from a live database and plans DDL
// for them.
type Inspector struct {
	drv     migrate.Driver
	dialect string
}

// NewInspector opens an atlas driver for the dialect over db. PostgreSQL
// and MySQL drivers query the server version, so db must be reachable.
func NewInspector(db *stdsql.DB, name string) (*Inspector, error) {
	d, ok := dialect.Normalize(name)
	if !ok {
		return nil, fmt.Errorf("generator: unsupported dialect %q", name)
	}
	var (
		drv migrate.Driver
		err error
	)
	switch d {
	case dialect.Postgres:
		drv, err = postgres.Open(db)
	case dialect.MySQL:
		drv, err = atmysql.Open(db)
	default:
		drv, err = sqlite.Open(db)
	}
	if err != nil {
		return nil, fmt.Errorf("generator: open %s inspector: %w", d, err)
	}
	return &Inspector{drv: drv, dialect: d}, nil
}

// Dialect returns the dialect of the inspected database.
func (i *Inspector) Dialect() string { return i.dialect }

// Table inspects a single table. An empty schema name selects the
// schema of the connection.
func (i *Inspector) Table(ctx context.Context, schemaName, table string) (*schema.Table, error) {
	s, err := i.drv.InspectSchema(ctx, schemaName, &schema.InspectOptions{
		Tables: []string{table},
		Mode:   schema.InspectTables,
	})
	if err != nil {
		return nil, fmt.Errorf("generator: inspect %s: %w", table, err)
	}
	t, ok := s.Table(table)
	if !ok {
		return nil, fmt.Errorf("generator: table %q not found", table)
	}
	return t, nil
}

// Plan returns the statements applying the changes, terminated by ";".
func (i *Inspector) Plan(ctx context.Context, name string, changes ...schema.Change) (string, error) {
	plan, err := i.drv.PlanChanges(ctx, name, changes)
	if err != nil {
		return "", fmt.Errorf("generator: plan %s: %w", name, err)
	}
	var b strings.Builder
	for _, c := range plan.Changes {
		b.WriteString(c.Cmd)
		b.WriteString(";\n")
	}
	return b.String(), nil
}

// Inspectors opens one Inspector per data source on first use.
type Inspectors struct {
	open   func(source string) (*stdsql.DB, string, error)
	mu     sync.Mutex
	byName map[string]*Inspector
}

// NewInspectors returns inspectors over the pools returned by open, which
// resolves a data source label to its pool and dialect.
func NewInspectors(open func(source string) (*stdsql.DB, string, error)) *Inspectors {
	return &Inspectors{open: open, byName: make(map[string]*Inspector)}
}

// Get returns the inspector of the data source.
func (s *Inspectors) Get(source string) (*Inspector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.byName[source]; ok {
		return i, nil
	}
	db, name, err := s.open(source)
	if err != nil {
		return nil, err
	}
	i, err := NewInspector(db, name)
	if err != nil {
		return nil, err
	}
	s.byName[source] = i
	return i, nil
}

// target is the table addressed by resource variables.
type target struct {
	source string
	schema string
	table  string
}

// schemaKeys are the variables holding the schema of a table, in lookup
// order.
var schemaKeys = []string{"schema", "table_schema"}

func targetOf(vars map[string]any) (target, error) {
	var t target
	t.source, _ = vars["source"].(string)
	t.table, _ = vars["name"].(string)
	if t.table == "" {
		return t, errors.New("generator: resource has no name")
	}
	for _, k := range schemaKeys {
		if s, ok := vars[k].(string); ok && s != "" {
			t.schema = s
			break
		}
	}
	return t, nil
}

// inspect resolves and inspects the table addressed by vars.
func (s *Inspectors) inspect(ctx context.Context, vars map[string]any) (*Inspector, *schema.Table, error) {
	t, err := targetOf(vars)
	if err != nil {
		return nil, nil, err
	}
	i, err := s.Get(t.source)
	if err != nil {
		return nil, nil, err
	}
	tbl, err := i.Table(ctx, t.schema, t.table)
	if err != nil {
		return nil, nil, err
	}
	return i, tbl, nil
}
