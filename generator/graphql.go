package generator

import (
	"context"
	"slices"
	"strings"

	"ariga.io/atlas/sql/schema"
	"github.com/go-openapi/inflect"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
)

// GraphQL renders a GraphQL object type mirroring an inspected table.
type GraphQL struct {
	cmd        Command
	inspectors *Inspectors
}

// NewGraphQL returns a GraphQL schema generator.
func NewGraphQL(cmd Command, inspectors *Inspectors) *GraphQL {
	return &GraphQL{cmd: cmd, inspectors: inspectors}
}

// Generate implements Generator.
func (g *GraphQL) Generate(ctx context.Context, vars map[string]any) (string, error) {
	_, t, err := g.inspectors.inspect(ctx, vars)
	if err != nil {
		return "", err
	}
	obj := &ast.Definition{
		Kind: ast.Object,
		Name: inflect.Camelize(inflect.Singularize(t.Name)),
	}
	var scalars []string
	for _, c := range t.Columns {
		name, custom := gqlType(c)
		if custom && !slices.Contains(scalars, name) {
			scalars = append(scalars, name)
		}
		typ := ast.NamedType(name, nil)
		if !c.Type.Null {
			typ = ast.NonNullNamedType(name, nil)
		}
		obj.Fields = append(obj.Fields, &ast.FieldDefinition{
			Name: inflect.CamelizeDownFirst(c.Name),
			Type: typ,
		})
	}
	doc := &ast.SchemaDocument{}
	for _, s := range scalars {
		doc.Definitions = append(doc.Definitions, &ast.Definition{Kind: ast.Scalar, Name: s})
	}
	doc.Definitions = append(doc.Definitions, obj)
	var b strings.Builder
	formatter.NewFormatter(&b).FormatSchemaDocument(doc)
	return b.String(), nil
}

// Command implements Generator.
func (g *GraphQL) Command() Command { return g.cmd }

// gqlType returns the GraphQL type name of a column and whether it is a
// custom scalar needing a declaration.
func gqlType(c *schema.Column) (string, bool) {
	switch c.Type.Type.(type) {
	case *schema.IntegerType:
		return "Int", false
	case *schema.FloatType, *schema.DecimalType:
		return "Float", false
	case *schema.BoolType:
		return "Boolean", false
	case *schema.StringType, *schema.EnumType:
		return "String", false
	case *schema.UUIDType:
		return "ID", false
	case *schema.TimeType:
		return "Time", true
	case *schema.JSONType:
		return "JSON", true
	default:
		return "String", false
	}
}
