package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/syssam/dbscope"
	"github.com/syssam/dbscope/dialect"
)

// validIdentifierRe validates SQL identifiers (alphanumeric, underscores, dots for schema.name)
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

// isValidIdentifier checks if the string is a valid SQL identifier.
func isValidIdentifier(s string) bool {
	return s != "" && len(s) <= 128 && validIdentifierRe.MatchString(s)
}

// EscapeString escapes a string value for safe use inside a single-quoted
// literal. It escapes both single quotes (by doubling) and backslashes
// (for MySQL compatibility).
func EscapeString(s string) string {
	// Fast path: if no escaping needed, return as-is
	if !strings.ContainsAny(s, `'\`) {
		return s
	}
	// Escape backslashes first, then single quotes
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", "''")
	return s
}

// Escaper returns the literal escaper for the given dialect. Only MySQL
// treats backslashes as escape characters by default.
func Escaper(name string) func(string) string {
	if d, _ := dialect.Normalize(name); d == dialect.MySQL {
		return EscapeString
	}
	return func(s string) string {
		return strings.ReplaceAll(s, "'", "''")
	}
}

// Selector executes a fully substituted read query and returns its rows.
type Selector interface {
	Select(ctx context.Context, query string) ([]Row, error)
}

// Driver is a Selector over a database/sql connection pool.
type Driver struct {
	db      *sql.DB
	dialect string
	source  string
	vars    map[string]string
}

// Option configures a Driver.
type Option func(*Driver)

// WithSource sets the data source label reported in errors and logs.
func WithSource(label string) Option {
	return func(d *Driver) {
		d.source = label
	}
}

// WithSessionVars sets session variables applied on the connection before
// every query, for example search_path on PostgreSQL.
func WithSessionVars(vars map[string]string) Option {
	return func(d *Driver) {
		d.vars = maps.Clone(vars)
	}
}

// Open wraps the database/sql.Open method and returns a Driver. The
// dialect is derived from the driver name.
func Open(driverName, dsn string, opts ...Option) (*Driver, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	return OpenDB(driverName, db, opts...), nil
}

// OpenDB wraps the given database/sql.DB with a Driver.
func OpenDB(name string, db *sql.DB, opts ...Option) *Driver {
	d := &Driver{db: db, dialect: name}
	if n, ok := dialect.Normalize(name); ok {
		d.dialect = n
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DB returns the underlying *sql.DB instance.
func (d *Driver) DB() *sql.DB { return d.db }

// Dialect returns the dialect name of the driver.
func (d *Driver) Dialect() string { return d.dialect }

// Source returns the data source label.
func (d *Driver) Source() string { return d.source }

// Close closes the underlying connection pool.
func (d *Driver) Close() error { return d.db.Close() }

// Select acquires one connection from the pool, runs the query on it and
// reads the full result set before releasing the connection. The
// connection is returned to the pool on every exit path. Errors are
// wrapped in a *dbscope.ExecutionError; nothing is retried.
func (d *Driver) Select(ctx context.Context, query string) ([]Row, error) {
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return nil, dbscope.NewExecutionError(d.source, query, fmt.Errorf("acquire connection: %w", err))
	}
	reset, err := d.setVars(ctx, conn)
	if err != nil {
		err = errors.Join(err, conn.Close())
		return nil, dbscope.NewExecutionError(d.source, query, fmt.Errorf("set session vars: %w", err))
	}
	rows, err := scan(ctx, conn, query)
	if rerr := release(conn, reset); rerr != nil && err == nil {
		err = rerr
	}
	if err != nil {
		return nil, dbscope.NewExecutionError(d.source, query, err)
	}
	return rows, nil
}

// scan runs the query and reads every row, preserving column order.
func scan(ctx context.Context, conn *sql.Conn, query string) ([]Row, error) {
	rs, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rs.Close()
	columns, err := rs.Columns()
	if err != nil {
		return nil, err
	}
	var rows []Row
	for rs.Next() {
		values := make([]NullString, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rs.Scan(dest...); err != nil {
			return nil, err
		}
		rows = append(rows, Row{columns: columns, values: values})
	}
	return rows, rs.Err()
}

// release resets session variables, then returns the connection to the
// pool. Cleanup uses a background context with timeout so it completes
// even if the query context was canceled.
func release(conn *sql.Conn, reset []string) error {
	if len(reset) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, q := range reset {
			if _, err := conn.ExecContext(ctx, q); err != nil {
				return errors.Join(err, conn.Close())
			}
		}
	}
	return conn.Close()
}

// ctxVarsKey is the key used for attaching and reading the context variables.
type ctxVarsKey struct{}

// sessionVars holds session variables to set before every statement.
type sessionVars struct {
	vars []struct{ k, v string }
}

// WithVar returns a new context that holds the session variable to be
// set before the next query executed with it.
func WithVar(ctx context.Context, name, value string) context.Context {
	sv, _ := ctx.Value(ctxVarsKey{}).(sessionVars)
	sv.vars = append(slices.Clone(sv.vars), struct {
		k, v string
	}{
		k: name,
		v: value,
	})
	return context.WithValue(ctx, ctxVarsKey{}, sv)
}

// VarFromContext returns the session variable value from the context.
func VarFromContext(ctx context.Context, name string) (string, bool) {
	sv, _ := ctx.Value(ctxVarsKey{}).(sessionVars)
	for i := len(sv.vars) - 1; i >= 0; i-- {
		if sv.vars[i].k == name {
			return sv.vars[i].v, true
		}
	}
	return "", false
}

// setVars applies driver and context session variables on conn and
// returns the statements that reset them. Driver variables are applied
// first in name order, context variables after in the order they were set.
func (d *Driver) setVars(ctx context.Context, conn *sql.Conn) ([]string, error) {
	sv, _ := ctx.Value(ctxVarsKey{}).(sessionVars)
	if len(d.vars) == 0 && len(sv.vars) == 0 {
		return nil, nil
	}
	vars := make([]struct{ k, v string }, 0, len(d.vars)+len(sv.vars))
	for _, k := range slices.Sorted(maps.Keys(d.vars)) {
		vars = append(vars, struct{ k, v string }{k, d.vars[k]})
	}
	vars = append(vars, sv.vars...)
	var (
		reset []string
		seen  = make(map[string]struct{}, len(vars))
	)
	for _, s := range vars {
		// Validate the variable name to prevent SQL injection
		if !isValidIdentifier(s.k) {
			return nil, fmt.Errorf("invalid session variable name: %q", s.k)
		}
		if _, ok := seen[s.k]; !ok {
			switch d.dialect {
			case dialect.Postgres:
				reset = append(reset, fmt.Sprintf("RESET %s", s.k))
			case dialect.MySQL:
				reset = append(reset, fmt.Sprintf("SET %s = NULL", s.k))
			}
			seen[s.k] = struct{}{}
		}
		if _, err := conn.ExecContext(ctx, fmt.Sprintf("SET %s = '%s'", s.k, EscapeString(s.v))); err != nil {
			return nil, err
		}
	}
	return reset, nil
}

var _ Selector = (*Driver)(nil)
