package reader_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbscope"
	"github.com/syssam/dbscope/dialect"
	"github.com/syssam/dbscope/dialect/sql"
	"github.com/syssam/dbscope/locator"
	"github.com/syssam/dbscope/reader"
	"github.com/syssam/dbscope/resource"
)

const tablesQuery = `SELECT table_schema, table_name, owner AS "@owner" FROM tables WHERE table_schema LIKE '$schema' AND table_name LIKE '${name}'`

func newMock(t *testing.T) (*sql.Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sql.OpenDB(dialect.Postgres, db, sql.WithSource("dev")), mock
}

func TestSQLRead(t *testing.T) {
	tests := []struct {
		name    string
		locator string
		query   string
		rows    func() *sqlmock.Rows
		keys    []string
	}{
		{
			name:    "full path",
			locator: "table/hr.emp",
			query:   `SELECT table_schema, table_name, owner AS "@owner" FROM tables WHERE table_schema LIKE 'hr' AND table_name LIKE 'emp'`,
			rows: func() *sqlmock.Rows {
				return sqlmock.NewRows([]string{"table_schema", "table_name", "@owner"}).AddRow("hr", "emp", "alice")
			},
			keys: []string{"table/hr.emp"},
		},
		{
			name:    "wildcard",
			locator: "table/hr",
			query:   `SELECT table_schema, table_name, owner AS "@owner" FROM tables WHERE table_schema LIKE 'hr' AND table_name LIKE '%'`,
			rows: func() *sqlmock.Rows {
				return sqlmock.NewRows([]string{"table_schema", "table_name", "@owner"}).
					AddRow("hr", "emp", "alice").
					AddRow("hr", "dept", "bob")
			},
			keys: []string{"table/hr.dept", "table/hr.emp"},
		},
		{
			name:    "recursive",
			locator: "table//+",
			query:   `SELECT table_schema, table_name, owner AS "@owner" FROM tables WHERE table_schema LIKE '%' AND table_name LIKE '%'`,
			rows: func() *sqlmock.Rows {
				return sqlmock.NewRows([]string{"table_schema", "table_name", "@owner"}).AddRow("hr", "emp", "alice")
			},
			keys: []string{"table/hr.emp"},
		},
		{
			name:    "star segment",
			locator: "table/*.emp*",
			query:   `SELECT table_schema, table_name, owner AS "@owner" FROM tables WHERE table_schema LIKE '%' AND table_name LIKE 'emp%'`,
			rows: func() *sqlmock.Rows {
				return sqlmock.NewRows([]string{"table_schema", "table_name", "@owner"}).AddRow("hr", "employees", "alice")
			},
			keys: []string{"table/hr.employees"},
		},
		{
			name:    "escaped value",
			locator: "table/o'hr",
			query:   `SELECT table_schema, table_name, owner AS "@owner" FROM tables WHERE table_schema LIKE 'o''hr' AND table_name LIKE '%'`,
			rows: func() *sqlmock.Rows {
				return sqlmock.NewRows([]string{"table_schema", "table_name", "@owner"})
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv, mock := newMock(t)
			mock.ExpectQuery(tt.query).WillReturnRows(tt.rows())
			set, err := reader.NewSQL(tablesQuery, drv).Read(context.Background(), locator.MustParse(tt.locator), "table")
			require.NoError(t, err)
			assert.Equal(t, len(tt.keys), len(set))
			for _, k := range tt.keys {
				assert.Contains(t, set, k)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLReadResource(t *testing.T) {
	drv, mock := newMock(t)
	mock.ExpectQuery(`SELECT 1`).WillReturnRows(
		sqlmock.NewRows([]string{"table_schema", "@owner", "table_name", "@desc"}).AddRow("hr", "alice", "emp", nil),
	)
	set, err := reader.NewSQL(`SELECT 1`, drv, reader.WithSource("dev")).Read(context.Background(), locator.MustParse("table"), "table")
	require.NoError(t, err)
	r := set["table/hr.emp"]
	require.NotNil(t, r)
	assert.Equal(t, "emp", r.Name())
	assert.Equal(t, []string{"hr", "emp"}, r.Path())
	assert.Equal(t, "alice", r.Prop("owner"))
	assert.Equal(t, "dev", r.Prop(reader.SourceProperty))

	desc, ok := r.Property("desc")
	assert.True(t, ok, "null metadata must be stored")
	assert.Empty(t, desc)

	_, ok = r.Property("@owner")
	assert.False(t, ok, "metadata prefix is stripped")
	assert.Len(t, r.Metadata(), 3)
	assert.Len(t, r.Identity(), 2)
}

func TestSQLReadLastIdentityWins(t *testing.T) {
	drv, mock := newMock(t)
	mock.ExpectQuery(`SELECT 1`).WillReturnRows(sqlmock.NewRows([]string{"A", "B"}).AddRow("x", "y"))
	set, err := reader.NewSQL(`SELECT 1`, drv).Read(context.Background(), locator.MustParse("table"), "table")
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, "y", set["table/x.y"].Name())
}

func TestSQLReadLastRowWins(t *testing.T) {
	drv, mock := newMock(t)
	mock.ExpectQuery(`SELECT 1`).WillReturnRows(
		sqlmock.NewRows([]string{"name", "@owner"}).AddRow("foo", "alice").AddRow("foo", "bob"),
	)
	set, err := reader.NewSQL(`SELECT 1`, drv).Read(context.Background(), locator.MustParse("table"), "table")
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, "bob", set["table/foo"].Prop("owner"))
}

func TestSQLReadFilter(t *testing.T) {
	drv, mock := newMock(t)
	mock.ExpectQuery(`SELECT name, owner AS "@owner" FROM t WHERE name LIKE '%'`).WillReturnRows(
		sqlmock.NewRows([]string{"name", "@owner"}).AddRow("r1", "alice_team").AddRow("r2", "bob"),
	)
	r := reader.NewSQL(`SELECT name, owner AS "@owner" FROM t WHERE name LIKE '$name'`, drv)
	set, err := r.Read(context.Background(), locator.MustParse("table?@owner=alice&name=x"), "table")
	require.NoError(t, err)
	assert.Equal(t, []string{"table/r1"}, set.Keys())
}

func TestSQLReadErrors(t *testing.T) {
	t.Run("execution", func(t *testing.T) {
		drv, mock := newMock(t)
		mock.ExpectQuery(`SELECT 1`).WillReturnError(errors.New("connection refused"))
		_, err := reader.NewSQL(`SELECT 1`, drv).Read(context.Background(), locator.MustParse("table/hr"), "table")
		require.Error(t, err)
		assert.True(t, dbscope.IsReadError(err))
		assert.True(t, dbscope.IsExecutionError(err))
		assert.ErrorContains(t, err, "connection refused")

		var e *dbscope.ReadError
		require.ErrorAs(t, err, &e)
		assert.Equal(t, "table", e.Type)
		assert.Equal(t, "table/hr", e.Locator)
	})
	t.Run("template", func(t *testing.T) {
		drv, mock := newMock(t)
		r := reader.NewSQL(`SELECT '${name'`, drv)
		assert.Nil(t, r.Placeholders())
		_, err := r.Read(context.Background(), locator.MustParse("table"), "table")
		require.Error(t, err)
		assert.True(t, dbscope.IsReadError(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("strict", func(t *testing.T) {
		drv, mock := newMock(t)
		r := reader.NewSQL(tablesQuery, drv, reader.WithStrict())
		assert.Equal(t, []string{"schema", "name"}, r.Placeholders())
		_, err := r.Read(context.Background(), locator.MustParse("table/hr"), "table")
		require.Error(t, err)
		assert.True(t, dbscope.IsReadError(err))
		assert.True(t, dbscope.IsUnboundPlaceholder(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSQLReadMySQLEscape(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(`SELECT name FROM t WHERE name LIKE 'a\\''b'`).WillReturnRows(sqlmock.NewRows([]string{"name"}))
	r := reader.NewSQL(`SELECT name FROM t WHERE name LIKE '$name'`, sql.OpenDB(dialect.MySQL, db))
	_, err = r.Read(context.Background(), locator.MustParse(`table/a\'b`), "table")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNarrow(t *testing.T) {
	set := resource.Set{}
	set.Add(resource.NewBuilder("table").Identity("name", "r1").Metadata("owner", "alice_team").Build())
	set.Add(resource.NewBuilder("table").Identity("name", "r2").Metadata("owner", "bob").Build())

	got := reader.Narrow(set, locator.MustParse("table?@owner=alice").Filters())
	assert.Equal(t, []string{"table/r1"}, got.Keys())

	got = reader.Narrow(set, locator.MustParse("table?@owner=Alice").Filters())
	assert.Empty(t, got, "match is case-sensitive")

	got = reader.Narrow(set, locator.MustParse("table?owner=nobody").Filters())
	assert.Len(t, got, 2, "identity filters are not re-checked")
}
