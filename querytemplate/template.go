// Package querytemplate binds named placeholders in read-query templates.
//
// Placeholders are written as ${name} or $name, where name is an
// identifier. Positional parameters ($1), dollar quoting ($$) and escaped
// dollars (\$) are left untouched, so templates may contain native SQL.
//
// Binding is lenient by default: a placeholder without a value is
// replaced by the SQL wildcard "%", so a template written for a fully
// qualified object also answers "everything under this prefix" queries.
package querytemplate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/syssam/dbscope"
)

// Wildcard is substituted for unbound placeholders.
const Wildcard = "%"

// Option configures a Template.
type Option func(*Template)

// WithStrict makes Bind fail on unbound placeholders instead of
// substituting the wildcard.
func WithStrict() Option {
	return func(t *Template) {
		t.strict = true
	}
}

// WithEscape sets the function applied to every bound value before
// substitution. The wildcard is never escaped.
func WithEscape(fn func(string) string) Option {
	return func(t *Template) {
		t.escape = fn
	}
}

// Template is a compiled query template. It is immutable after Compile
// and safe for concurrent use.
type Template struct {
	text   string
	chunks []chunk
	names  []string
	strict bool
	escape func(string) string
}

// chunk is either literal text or a placeholder reference.
type chunk struct {
	text string
	name string // non-empty for placeholders
}

// Compile scans text for placeholders.
func Compile(text string, opts ...Option) (*Template, error) {
	t := &Template{text: text}
	for _, opt := range opts {
		opt(t)
	}
	var (
		lit  strings.Builder
		seen = make(map[string]struct{})
	)
	flush := func() {
		if lit.Len() > 0 {
			t.chunks = append(t.chunks, chunk{text: lit.String()})
			lit.Reset()
		}
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '\\' && i+1 < len(text) && text[i+1] == '$':
			lit.WriteByte('$')
			i++
		case c == '$' && i+1 < len(text) && text[i+1] == '$':
			lit.WriteString("$$")
			i++
		case c == '$' && i+1 < len(text) && text[i+1] == '{':
			end := strings.IndexByte(text[i+2:], '}')
			if end < 0 {
				return nil, fmt.Errorf("querytemplate: unterminated placeholder at offset %d", i)
			}
			name := strings.TrimSpace(text[i+2 : i+2+end])
			if !isIdent(name) {
				return nil, fmt.Errorf("querytemplate: invalid placeholder name %q at offset %d", name, i)
			}
			flush()
			t.add(name, seen)
			i += end + 2
		case c == '$' && i+1 < len(text) && isIdentStart(text[i+1]):
			j := i + 1
			for j < len(text) && isIdentPart(text[j]) {
				j++
			}
			flush()
			t.add(text[i+1:j], seen)
			i = j - 1
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return t, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(text string, opts ...Option) *Template {
	t, err := Compile(text, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Template) add(name string, seen map[string]struct{}) {
	t.chunks = append(t.chunks, chunk{name: name})
	if _, ok := seen[name]; !ok {
		seen[name] = struct{}{}
		t.names = append(t.names, name)
	}
}

// Text returns the source text of the template.
func (t *Template) Text() string { return t.text }

// Placeholders returns the distinct placeholder names in order of first
// occurrence.
func (t *Template) Placeholders() []string { return slices.Clone(t.names) }

// Bind substitutes every placeholder with its value.
func (t *Template) Bind(values map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(t.text))
	for _, c := range t.chunks {
		if c.name == "" {
			b.WriteString(c.text)
			continue
		}
		v, ok := values[c.name]
		switch {
		case ok:
			if t.escape != nil && v != Wildcard {
				v = t.escape(v)
			}
			b.WriteString(v)
		case t.strict:
			return "", dbscope.NewUnboundPlaceholderError(c.name)
		default:
			b.WriteString(Wildcard)
		}
	}
	return b.String(), nil
}

// Values maps path segments positionally onto the placeholders: segment i
// binds to the i-th distinct placeholder. Placeholders beyond the path
// are left out, which Bind turns into the wildcard.
func (t *Template) Values(path []string) map[string]string {
	values := make(map[string]string, len(t.names))
	for i, name := range t.names {
		if i < len(path) {
			values[name] = path[i]
		}
	}
	return values
}

// BindPath binds path segments positionally. See Values.
func (t *Template) BindPath(path []string) (string, error) {
	return t.Bind(t.Values(path))
}

func isIdent(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentPart(s[i]) {
			return false
		}
	}
	return true
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}
