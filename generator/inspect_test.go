package generator_test

import (
	"context"
	stdsql "database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/dbscope/dialect"
	"github.com/syssam/dbscope/generator"
)

const usersTable = `CREATE TABLE users (
	id integer NOT NULL PRIMARY KEY,
	name text NOT NULL,
	email text,
	active boolean NOT NULL,
	created_at datetime
)`

func openInspectors(t *testing.T) *generator.Inspectors {
	t.Helper()
	db, err := stdsql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(usersTable)
	require.NoError(t, err)
	return generator.NewInspectors(func(source string) (*stdsql.DB, string, error) {
		if source != "dev" {
			return nil, "", errors.New("unknown source " + source)
		}
		return db, dialect.SQLite, nil
	})
}

var usersVars = map[string]any{"source": "dev", "name": "users", "type": "table"}

func TestInspectorTable(t *testing.T) {
	in := openInspectors(t)
	i, err := in.Get("dev")
	require.NoError(t, err)
	assert.Equal(t, dialect.SQLite, i.Dialect())

	again, err := in.Get("dev")
	require.NoError(t, err)
	assert.Same(t, i, again)

	tbl, err := i.Table(context.Background(), "", "users")
	require.NoError(t, err)
	require.Len(t, tbl.Columns, 5)
	assert.Equal(t, "email", tbl.Columns[2].Name)
	assert.True(t, tbl.Columns[2].Type.Null)
	assert.False(t, tbl.Columns[1].Type.Null)

	_, err = i.Table(context.Background(), "", "orders")
	require.Error(t, err)

	_, err = in.Get("prod")
	require.Error(t, err)
}

func TestDDL(t *testing.T) {
	in := openInspectors(t)
	ctx := context.Background()

	out, err := generator.NewDDL(generator.Create, in).Generate(ctx, usersVars)
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE `users`")
	assert.Contains(t, out, "`email` text NULL")
	assert.Contains(t, out, "`name` text NOT NULL")

	out, err = generator.NewDDL(generator.Drop, in).Generate(ctx, usersVars)
	require.NoError(t, err)
	assert.Contains(t, out, "DROP TABLE `users`")
	assert.NotContains(t, out, "CREATE TABLE")

	_, err = generator.NewDDL(generator.Create, in).Generate(ctx, map[string]any{"source": "dev"})
	require.Error(t, err)
}

func TestGoStruct(t *testing.T) {
	in := openInspectors(t)
	g := generator.NewGoStruct(generator.Command{Name: "model"}, "", in)
	out, err := g.Generate(context.Background(), usersVars)
	require.NoError(t, err)
	assert.Contains(t, out, "// Code generated by dbscope. DO NOT EDIT.")
	assert.Contains(t, out, "package model")
	assert.Contains(t, out, `import "time"`)
	assert.Contains(t, out, "type User struct")
	assert.Regexp(t, `Id\s+int64\s+`+"`"+`db:"id" json:"id"`+"`", out)
	assert.Regexp(t, `Email\s+\*string`, out)
	assert.Regexp(t, `Active\s+bool\s`, out)
	assert.Regexp(t, `CreatedAt\s+\*time\.Time`, out)
}

func TestGraphQL(t *testing.T) {
	in := openInspectors(t)
	g := generator.NewGraphQL(generator.Command{Name: "gql"}, in)
	out, err := g.Generate(context.Background(), usersVars)
	require.NoError(t, err)
	assert.Contains(t, out, "scalar Time")
	assert.Contains(t, out, "type User {")
	assert.Regexp(t, `id: Int!`, out)
	assert.Regexp(t, `email: String\n`, out)
	assert.Regexp(t, `active: Boolean!`, out)
	assert.Regexp(t, `createdAt: Time\n`, out)
}
