package querytemplate_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbscope"
	"github.com/syssam/dbscope/querytemplate"
)

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		text  string
		names []string
	}{
		{"select 1", nil},
		{"select * from t where s like '$schema' and n like '${table}'", []string{"schema", "table"}},
		{"where a = '$b' or c = '$a' or d = '${b}'", []string{"b", "a"}},
		{"select $1, $$body$$ from t where x = '\\$y'", nil},
		{"select '${ name }'", []string{"name"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			tmpl, err := querytemplate.Compile(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.names, tmpl.Placeholders())
		})
	}
}

func TestCompileErrors(t *testing.T) {
	for _, text := range []string{"select '${schema'", "select ${1x}", "select ${}"} {
		_, err := querytemplate.Compile(text)
		assert.Error(t, err, text)
	}
}

func TestBind(t *testing.T) {
	tmpl := querytemplate.MustCompile("select * from t where s = '$schema' and n = '${table}' and o = '$schema'")
	q, err := tmpl.Bind(map[string]string{"schema": "hr", "table": "emp"})
	require.NoError(t, err)
	assert.Equal(t, "select * from t where s = 'hr' and n = 'emp' and o = 'hr'", q)
}

func TestBindLiteralDollars(t *testing.T) {
	tmpl := querytemplate.MustCompile("select $1, $$x$$, '\\$y' where a = '$a'")
	q, err := tmpl.Bind(map[string]string{"a": "v"})
	require.NoError(t, err)
	assert.Equal(t, "select $1, $$x$$, '$y' where a = 'v'", q)
}

func TestBindPathWildcard(t *testing.T) {
	for n := 1; n <= 5; n++ {
		var names []string
		for i := range n {
			names = append(names, fmt.Sprintf("'$p%d'", i))
		}
		tmpl := querytemplate.MustCompile(strings.Join(names, ","))
		for segments := 0; segments <= n; segments++ {
			path := make([]string, segments)
			for i := range path {
				path[i] = fmt.Sprintf("s%d", i)
			}
			q, err := tmpl.BindPath(path)
			require.NoError(t, err)
			parts := strings.Split(q, ",")
			require.Len(t, parts, n)
			for i, p := range parts {
				if i < segments {
					assert.Equal(t, fmt.Sprintf("'s%d'", i), p)
				} else {
					assert.Equal(t, "'%'", p)
				}
			}
		}
	}
}

func TestBindPathOrder(t *testing.T) {
	tmpl := querytemplate.MustCompile("n = '$name' and s = '$schema' and n2 = '$name'")
	q, err := tmpl.BindPath([]string{"emp", "hr"})
	require.NoError(t, err)
	assert.Equal(t, "n = 'emp' and s = 'hr' and n2 = 'emp'", q)
	assert.Equal(t, map[string]string{"name": "emp"}, tmpl.Values([]string{"emp"}))
}

func TestStrict(t *testing.T) {
	tmpl := querytemplate.MustCompile("s = '$schema' and n = '$name'", querytemplate.WithStrict())
	_, err := tmpl.BindPath([]string{"hr"})
	require.Error(t, err)
	assert.True(t, dbscope.IsUnboundPlaceholder(err))

	q, err := tmpl.BindPath([]string{"hr", "emp"})
	require.NoError(t, err)
	assert.Equal(t, "s = 'hr' and n = 'emp'", q)
}

func TestEscape(t *testing.T) {
	quote := func(s string) string { return strings.ReplaceAll(s, "'", "''") }
	tmpl := querytemplate.MustCompile("n = '$name' and s = '$schema'", querytemplate.WithEscape(quote))
	q, err := tmpl.Bind(map[string]string{"name": "o'brien", "schema": querytemplate.Wildcard})
	require.NoError(t, err)
	assert.Equal(t, "n = 'o''brien' and s = '%'", q)

	q, err = tmpl.BindPath(nil)
	require.NoError(t, err)
	assert.Equal(t, "n = '%' and s = '%'", q)
}

func TestText(t *testing.T) {
	text := "select '$a'"
	assert.Equal(t, text, querytemplate.MustCompile(text).Text())
}
