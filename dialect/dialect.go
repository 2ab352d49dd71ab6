package dialect

import "strings"

// Dialect names.
const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite"
)

// aliases maps database/sql driver names to their dialect.
var aliases = map[string]string{
	"postgres":   Postgres,
	"postgresql": Postgres,
	"pgx":        Postgres,
	"mysql":      MySQL,
	"mariadb":    MySQL,
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
}

// Normalize returns the dialect for a dialect or driver name, and false
// when the name is unknown.
func Normalize(name string) (string, bool) {
	d, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// Supported returns the supported dialect names.
func Supported() []string {
	return []string{Postgres, MySQL, SQLite}
}
