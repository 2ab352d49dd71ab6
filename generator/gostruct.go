package generator

import (
	"bytes"
	"context"
	"fmt"

	"ariga.io/atlas/sql/schema"
	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"
	"golang.org/x/tools/imports"
)

// GoStruct renders a Go struct mirroring an inspected table.
type GoStruct struct {
	cmd        Command
	pkg        string
	inspectors *Inspectors
}

// NewGoStruct returns a GoStruct generator writing into package pkg,
// "model" when empty.
func NewGoStruct(cmd Command, pkg string, inspectors *Inspectors) *GoStruct {
	if pkg == "" {
		pkg = "model"
	}
	return &GoStruct{cmd: cmd, pkg: pkg, inspectors: inspectors}
}

// Generate implements Generator.
func (g *GoStruct) Generate(ctx context.Context, vars map[string]any) (string, error) {
	_, t, err := g.inspectors.inspect(ctx, vars)
	if err != nil {
		return "", err
	}
	name := inflect.Camelize(inflect.Singularize(t.Name))
	f := jen.NewFile(g.pkg)
	f.HeaderComment("Code generated by dbscope. DO NOT EDIT.")
	f.Commentf("%s is a row of the %s table.", name, t.Name)
	f.Type().Id(name).StructFunc(func(grp *jen.Group) {
		for _, c := range t.Columns {
			grp.Id(inflect.Camelize(c.Name)).Add(goType(c)).Tag(map[string]string{
				"json": c.Name,
				"db":   c.Name,
			})
		}
	})
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return "", fmt.Errorf("generator: render struct %s: %w", name, err)
	}
	// Format using goimports like generated code elsewhere.
	out, err := imports.Process(inflect.Underscore(name)+".go", buf.Bytes(), nil)
	if err != nil {
		return "", fmt.Errorf("generator: format struct %s: %w", name, err)
	}
	return string(out), nil
}

// Command implements Generator.
func (g *GoStruct) Command() Command { return g.cmd }

// goType returns the Go type of a column. Nullable columns map to
// pointers.
func goType(c *schema.Column) jen.Code {
	var (
		ident string
		qual  *jen.Statement
	)
	switch t := c.Type.Type.(type) {
	case *schema.IntegerType:
		ident = "int64"
		if t.Unsigned {
			ident = "uint64"
		}
	case *schema.FloatType, *schema.DecimalType:
		ident = "float64"
	case *schema.BoolType:
		ident = "bool"
	case *schema.StringType, *schema.EnumType:
		ident = "string"
	case *schema.BinaryType:
		ident = "[]byte"
	case *schema.TimeType:
		qual = jen.Qual("time", "Time")
	case *schema.JSONType:
		qual = jen.Qual("encoding/json", "RawMessage")
	case *schema.UUIDType:
		qual = jen.Qual("github.com/google/uuid", "UUID")
	default:
		ident = "any"
	}
	null := c.Type.Null && ident != "[]byte" && ident != "any"
	switch {
	case qual != nil && null:
		return jen.Op("*").Add(qual)
	case qual != nil:
		return qual
	case null:
		return jen.Id("*" + ident)
	default:
		return jen.Id(ident)
	}
}
