package resource_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbscope/resource"
)

func TestBuilder(t *testing.T) {
	r := resource.NewBuilder("table").
		Identity("schema", "hr").
		Identity("name", "emp").
		Metadata("owner", "alice").
		Build()

	assert.Equal(t, "table/hr.emp", r.Key())
	assert.Equal(t, "emp", r.Name())
	assert.Equal(t, "table", r.Type())
	assert.Equal(t, []string{"hr", "emp"}, r.Path())
	assert.Equal(t, "alice", r.Prop("owner"))
	assert.Equal(t, []resource.Property{
		{Name: "schema", Value: "hr", Kind: resource.Identity},
		{Name: "name", Value: "emp", Kind: resource.Identity},
	}, r.Identity())
	assert.Equal(t, []resource.Property{{Name: "owner", Value: "alice", Kind: resource.Metadata}}, r.Metadata())

	_, ok := r.Property("missing")
	assert.False(t, ok)
	assert.Empty(t, r.Prop("missing"))
}

func TestBuilderLastIdentityWins(t *testing.T) {
	r := resource.NewBuilder("table").Identity("A", "x").Identity("B", "y").Build()
	assert.Equal(t, "y", r.Name())
	assert.Equal(t, "table/x.y", r.Key())
}

func TestBuilderDuplicateOverwrites(t *testing.T) {
	r := resource.NewBuilder("view").
		Metadata("owner", "alice").
		Metadata("comment", "c").
		Metadata("owner", "bob").
		Build()
	props := r.Properties()
	require.Len(t, props, 2)
	assert.Equal(t, "owner", props[0].Name)
	assert.Equal(t, "bob", props[0].Value)
}

func TestBuilderReuse(t *testing.T) {
	b := resource.NewBuilder("table")
	b.Build()
	assert.Panics(t, func() { b.Identity("name", "x") })
	assert.Panics(t, func() { b.Build() })
}

func TestBuilderNoIdentity(t *testing.T) {
	r := resource.NewBuilder("database").Metadata("version", "16").Build()
	assert.Equal(t, "database", r.Key())
	assert.Empty(t, r.Name())
	assert.Empty(t, r.Path())
}

func TestWithPayload(t *testing.T) {
	r := resource.NewBuilder("table").Identity("name", "t").Build()
	p := r.WithPayload("CREATE TABLE t ()")
	assert.Empty(t, r.Payload())
	assert.Equal(t, "CREATE TABLE t ()", p.Payload())
	assert.Equal(t, r.Key(), p.Key())
}

func TestVars(t *testing.T) {
	r := resource.NewBuilder("table").Identity("schema", "hr").Identity("table", "emp").Metadata("file_name", "emp.sql").Build()
	vars := r.Vars()
	assert.Equal(t, "emp", vars["name"])
	assert.Equal(t, "table", vars["type"])
	assert.Equal(t, "table/hr.emp", vars["key"])
	assert.Equal(t, []string{"hr", "emp"}, vars["path"])
	assert.Equal(t, "emp.sql", vars["file_name"])
	assert.Same(t, r, vars["resource"])
}

func TestMarshalJSON(t *testing.T) {
	r := resource.NewBuilder("table").Identity("name", "t").Metadata("owner", "").Build()
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"table/t","type":"table","name":"t","path":["t"],"properties":{"name":"t","owner":""}}`, string(b))

	b, err = json.Marshal(resource.NewBuilder("db").Build().WithPayload("x"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"db","type":"db","name":"","path":[],"properties":{},"payload":"x"}`, string(b))
}

func TestPropertyKindString(t *testing.T) {
	assert.Equal(t, "identity", resource.Identity.String())
	assert.Equal(t, "metadata", resource.Metadata.String())
	assert.Equal(t, "unknown", resource.PropertyKind(0).String())
}
