// Package convert serializes fully reduced UCG values into concrete
// configuration formats.
//
// # Overview
//
// A Converter receives a finished value tree and a writer; it never sees
// unreduced expressions. Converters are looked up by name through a
// Registry, and the build driver validates converter names at `out`
// statements before evaluation results are emitted.
//
// # Converters
//
//   - json:  JSON with tuple field order preserved
//   - yaml:  YAML via yaml.v3 document nodes, order preserved
//   - toml:  TOML via go-toml; NULL is not representable and is rejected
//   - xml:   XML from the element-tuple convention (name/attrs/children)
//   - env:   KEY=value lines for shell sourcing
//   - flags: command-line flag rendering
//   - exec:  a runnable sh script wrapping command, args and environment
//
// Functions and modules have no serialized form; every converter rejects
// one it has to render. The exec and xml converters read only their named
// fields, so a function or module in any other field is ignored.
package convert
