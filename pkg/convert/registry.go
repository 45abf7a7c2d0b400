package convert

import (
	"fmt"
	"io"
	"sort"

	"github.com/ucg-lang/ucg/pkg/eval"
)

// Converter serializes a reduced value tree to a writer.
type Converter interface {
	// Convert writes the value in the converter's format.
	Convert(v eval.Value, w io.Writer) error

	// FileExt is the artifact file extension, without the dot.
	FileExt() string

	// Description is a one-line human-readable summary.
	Description() string
}

// Registry maps converter names to implementations.
type Registry struct {
	converters map[string]Converter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{converters: map[string]Converter{}}
}

// Default returns a registry with every builtin converter registered.
func Default() *Registry {
	r := NewRegistry()
	r.Register("json", &JSONConverter{})
	r.Register("yaml", &YAMLConverter{})
	r.Register("toml", &TOMLConverter{})
	r.Register("xml", &XMLConverter{})
	r.Register("env", &EnvConverter{})
	r.Register("flags", &FlagsConverter{})
	r.Register("exec", &ExecConverter{})
	return r
}

// Register adds or replaces a converter under a name.
func (r *Registry) Register(name string, c Converter) {
	r.converters[name] = c
}

// Lookup returns the converter registered under name.
func (r *Registry) Lookup(name string) (Converter, bool) {
	c, ok := r.converters[name]
	return c, ok
}

// Has reports whether a converter name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.converters[name]
	return ok
}

// Names returns the registered converter names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.converters))
	for n := range r.converters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// errNotSerializable is the shared rejection for values with no concrete
// form in an output format.
func errNotSerializable(format string, v eval.Value) error {
	return fmt.Errorf("%s conversion: %s values are not serializable", format, v.Kind)
}
