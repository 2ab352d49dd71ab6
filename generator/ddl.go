package generator

import (
	"context"

	"ariga.io/atlas/sql/schema"
)

// DDL renders the CREATE or DROP statement of an inspected table. The
// drop command plans a DROP TABLE; every other command plans a CREATE
// TABLE.
type DDL struct {
	cmd        Command
	inspectors *Inspectors
}

// NewDDL returns a DDL generator for the command.
func NewDDL(cmd Command, inspectors *Inspectors) *DDL {
	return &DDL{cmd: cmd, inspectors: inspectors}
}

// Generate implements Generator.
func (g *DDL) Generate(ctx context.Context, vars map[string]any) (string, error) {
	i, t, err := g.inspectors.inspect(ctx, vars)
	if err != nil {
		return "", err
	}
	var change schema.Change = &schema.AddTable{T: t}
	if g.cmd.Name == Drop.Name {
		change = &schema.DropTable{T: t}
	}
	return i.Plan(ctx, g.cmd.Name+"_"+t.Name, change)
}

// Command implements Generator.
func (g *DDL) Command() Command { return g.cmd }
