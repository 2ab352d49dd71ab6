// Package sql executes pre-authored read queries against database/sql
// connection pools.
//
// # Selecting Rows
//
// A Driver acquires one connection per Select call, uses it exclusively
// while the full result set is read, and releases it before returning:
//
//	drv, err := sql.Open("postgres", dsn, sql.WithSource("prod"))
//	rows, err := drv.Select(ctx, "SELECT table_schema, table_name FROM information_schema.tables")
//	for _, row := range rows {
//	    for i := range row.Len() {
//	        name, v := row.At(i) // v.Valid is false for NULL
//	    }
//	}
//
// Values are scanned into nullable strings in declared column order.
// Failures are returned as *dbscope.ExecutionError and never retried.
//
// # Session Variables
//
// Variables set with WithSessionVars or WithVar are applied on the
// acquired connection before the query and reset before it goes back to
// the pool:
//
//	ctx = sql.WithVar(ctx, "search_path", "hr")
//
// # Decorators
//
// StatsDriver and DebugDriver wrap any Selector to collect statistics,
// detect slow queries and log statements.
package sql
