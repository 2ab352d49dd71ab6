// Package dialect names the database dialects data sources can speak.
//
// # Supported Dialects
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// Driver names registered with database/sql do not always match the
// dialect; Normalize maps the known aliases (for example "pgx" and
// "sqlite3") back to their dialect.
package dialect
