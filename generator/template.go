package generator

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Funcs are the functions available to template generators.
var Funcs = template.FuncMap{
	"lower":    strings.ToLower,
	"upper":    strings.ToUpper,
	"title":    title,
	"camel":    inflect.Camelize,
	"plural":   inflect.Pluralize,
	"singular": inflect.Singularize,
	"join":     strings.Join,
	"quote":    quote,
}

// title creates a Caser per call; a Caser must not be shared between
// goroutines.
func title(s string) string {
	return cases.Title(language.English).String(s)
}

// quote returns s as a single-quoted SQL literal.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Template renders a text/template with the resource variables.
type Template struct {
	cmd  Command
	tmpl *template.Template
}

// NewTemplate parses text for the given command. Templates fail on
// missing variables.
func NewTemplate(cmd Command, text string) (*Template, error) {
	tmpl, err := template.New(cmd.Name).
		Funcs(Funcs).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("generator: parse template %q: %w", cmd.Name, err)
	}
	return &Template{cmd: cmd, tmpl: tmpl}, nil
}

// MustTemplate is like NewTemplate but panics on error.
func MustTemplate(cmd Command, text string) *Template {
	t, err := NewTemplate(cmd, text)
	if err != nil {
		panic(err)
	}
	return t
}

// Generate implements Generator.
func (t *Template) Generate(_ context.Context, vars map[string]any) (string, error) {
	var b strings.Builder
	if err := t.tmpl.Execute(&b, vars); err != nil {
		return "", fmt.Errorf("generator: execute template %q: %w", t.cmd.Name, err)
	}
	return b.String(), nil
}

// Command implements Generator.
func (t *Template) Command() Command { return t.cmd }
