package generator

import (
	"fmt"

	"github.com/syssam/dbscope/config"
)

// Build creates the generators declared in cfgs. When cfgs is empty the
// set holds the DDL create and drop generators.
func Build(cfgs []config.Generator, inspectors *Inspectors) (*Set, error) {
	if len(cfgs) == 0 {
		return NewSet(NewDDL(Create, inspectors), NewDDL(Drop, inspectors)), nil
	}
	set := NewSet()
	for _, c := range cfgs {
		cmd := Command{Name: c.Command, Description: c.Description}
		var g Generator
		switch c.Kind {
		case config.KindTemplate:
			t, err := NewTemplate(cmd, c.Template)
			if err != nil {
				return nil, err
			}
			g = t
		case config.KindDDL:
			g = NewDDL(cmd, inspectors)
		case config.KindGoStruct:
			g = NewGoStruct(cmd, c.Package, inspectors)
		case config.KindGraphQL:
			g = NewGraphQL(cmd, inspectors)
		default:
			return nil, fmt.Errorf("generator: unknown kind %q for command %q", c.Kind, c.Command)
		}
		set.Add(g)
	}
	return set, nil
}
