package locator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbscope"
	"github.com/syssam/dbscope/locator"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		typ    string
		path   []string
		suffix string
		params map[string]string
	}{
		{name: "TypeOnly", raw: "table", typ: "table", params: map[string]string{}},
		{name: "Path", raw: "table/hr.employees", typ: "table", path: []string{"hr", "employees"}, params: map[string]string{}},
		{name: "Recursive", raw: "table/system.available_ranges/+", typ: "table", path: []string{"system", "available_ranges"}, suffix: "+", params: map[string]string{}},
		{name: "Command", raw: "index/public/drop", typ: "index", path: []string{"public"}, suffix: "drop", params: map[string]string{}},
		{
			name:   "Params",
			raw:    "table/hr?@owner=alice&name=emp&type=view",
			typ:    "table",
			path:   []string{"hr"},
			params: map[string]string{"@owner": "alice", "name": "emp"},
		},
		{name: "RedundantSeparators", raw: "table/hr..emp.", typ: "table", path: []string{"hr", "emp"}, params: map[string]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := locator.Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, loc.Type())
			assert.Equal(t, tt.path, loc.Path())
			assert.Equal(t, tt.suffix, loc.Suffix())
			assert.Equal(t, tt.params, loc.Params())
		})
	}
}

func TestParseMalformed(t *testing.T) {
	for _, raw := range []string{"", "   ", "/hr.emp", "?a=b", "table/a/b/c", "table?=x"} {
		t.Run(raw, func(t *testing.T) {
			_, err := locator.Parse(raw)
			require.Error(t, err)
			assert.True(t, dbscope.IsMalformedLocator(err))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, s := range []string{
		"table",
		"table/hr",
		"table/hr.employees",
		"table/hr.employees/+",
		"table//+",
		"column/hr.employees.id/create",
		"table/hr?@owner=alice",
		"table/hr/drop?@owner=alice&name=emp&type=view",
	} {
		t.Run(s, func(t *testing.T) {
			assert.Equal(t, s, locator.MustParse(s).String())
		})
	}
}

func TestCanonicalParamOrder(t *testing.T) {
	loc := locator.MustParse("table/hr?z=1&@a=2&m=3")
	assert.Equal(t, "table/hr?@a=2&m=3&z=1", loc.String())
}

func TestSegment(t *testing.T) {
	loc := locator.MustParse("table/hr.emp*")

	s, ok := loc.Segment(0)
	assert.True(t, ok)
	assert.Equal(t, "hr", s)

	s, ok = loc.Segment(1)
	assert.True(t, ok)
	assert.Equal(t, "emp%", s)

	_, ok = loc.Segment(2)
	assert.False(t, ok)
	_, ok = loc.Segment(-1)
	assert.False(t, ok)
}

func TestSuffix(t *testing.T) {
	assert.True(t, locator.MustParse("table/hr/+").Recursive())
	assert.Empty(t, locator.MustParse("table/hr/+").Command())
	assert.Equal(t, "drop", locator.MustParse("table/hr/drop").Command())
	assert.False(t, locator.MustParse("table/hr").Recursive())
}

func TestFilters(t *testing.T) {
	loc := locator.MustParse("table?@owner=alice&name=emp&type=view")
	assert.Equal(t, []locator.Filter{
		{Key: "owner", Value: "alice", Kind: locator.MetadataFilter},
		{Key: "name", Value: "emp", Kind: locator.IdentityFilter},
	}, loc.Filters())

	typ, ok := loc.TypeOverride()
	assert.True(t, ok)
	assert.Equal(t, "view", typ)

	_, ok = locator.MustParse("table").TypeOverride()
	assert.False(t, ok)
}

func TestNew(t *testing.T) {
	path := []string{"hr", "emp"}
	loc := locator.New("table", path...)
	path[0] = "mutated"
	assert.Equal(t, "table/hr.emp", loc.String())
	assert.True(t, loc.Equal(locator.MustParse("table/hr.emp")))
	assert.Equal(t, "view/hr.emp", loc.WithType("view").String())
	assert.Equal(t, "table", locator.New("table").String())
}

func TestPathIsCopied(t *testing.T) {
	loc := locator.MustParse("table/hr.emp")
	p := loc.Path()
	p[0] = "x"
	assert.Equal(t, []string{"hr", "emp"}, loc.Path())
}
