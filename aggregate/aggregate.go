// Package aggregate bundles the payloads of generated resources into a
// single deliverable.
package aggregate

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/dbscope/resource"
)

// FileNameProperty names the property holding the bundle entry name.
const FileNameProperty = "file_name"

// Aggregator combines resource payloads into one blob.
type Aggregator interface {
	Aggregate(resources []*resource.Resource) ([]byte, error)
}

// Func adapts a function to an Aggregator.
type Func func([]*resource.Resource) ([]byte, error)

// Aggregate implements Aggregator.
func (f Func) Aggregate(resources []*resource.Resource) ([]byte, error) { return f(resources) }

// Files maps the lower-cased file name of every resource to its payload.
// Resources without a file name are skipped. Later resources win on
// colliding names.
func Files(resources []*resource.Resource) map[string][]byte {
	files := make(map[string][]byte, len(resources))
	for _, r := range resources {
		name := strings.ToLower(r.Prop(FileNameProperty))
		if name == "" {
			continue
		}
		files[name] = []byte(r.Payload())
	}
	return files
}

// Zip writes one deflated zip entry per file, sorted by name.
type Zip struct{}

// Aggregate implements Aggregator.
func (Zip) Aggregate(resources []*resource.Resource) ([]byte, error) {
	files := Files(resources)
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range slices.Sorted(maps.Keys(files)) {
		f, err := w.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("aggregate: zip entry %q: %w", name, err)
		}
		if _, err := f.Write(files[name]); err != nil {
			return nil, fmt.Errorf("aggregate: zip entry %q: %w", name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("aggregate: close zip: %w", err)
	}
	return buf.Bytes(), nil
}

// Msgpack encodes the files as a msgpack map of name to content.
type Msgpack struct{}

// Aggregate implements Aggregator.
func (Msgpack) Aggregate(resources []*resource.Resource) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(Files(resources)); err != nil {
		return nil, fmt.Errorf("aggregate: encode msgpack: %w", err)
	}
	return buf.Bytes(), nil
}

// Formats maps the bundle format names to their aggregators.
var Formats = map[string]Aggregator{
	"zip":     Zip{},
	"msgpack": Msgpack{},
}

// ForFormat returns the aggregator of a bundle format.
func ForFormat(name string) (Aggregator, error) {
	a, ok := Formats[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("aggregate: unknown format %q", name)
	}
	return a, nil
}
