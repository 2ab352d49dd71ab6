package sql

import (
	"database/sql"
	"slices"
)

// NullString is an alias to sql.NullString.
type NullString = sql.NullString

// Row is one result row: an ordered mapping of column name to nullable
// string, in the column order declared by the query.
type Row struct {
	columns []string
	values  []NullString
}

// NewRow returns a row from parallel column and value slices. It panics
// if the lengths differ.
func NewRow(columns []string, values []NullString) Row {
	if len(columns) != len(values) {
		panic("dialect/sql: row columns and values differ in length")
	}
	return Row{columns: slices.Clone(columns), values: slices.Clone(values)}
}

// Len returns the number of columns.
func (r Row) Len() int { return len(r.columns) }

// Columns returns the column names in declared order.
func (r Row) Columns() []string { return slices.Clone(r.columns) }

// At returns the name and value of the i-th column.
func (r Row) At(i int) (string, NullString) {
	return r.columns[i], r.values[i]
}

// Get returns the value of the first column with the given name.
func (r Row) Get(name string) (NullString, bool) {
	if i := slices.Index(r.columns, name); i >= 0 {
		return r.values[i], true
	}
	return NullString{}, false
}

// Map returns the row as a map. NULL values map to the empty string and
// later duplicate columns overwrite earlier ones.
func (r Row) Map() map[string]string {
	m := make(map[string]string, len(r.columns))
	for i, c := range r.columns {
		m[c] = r.values[i].String
	}
	return m
}
