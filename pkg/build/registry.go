package build

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ucg-lang/ucg/pkg/ast"
	"github.com/ucg-lang/ucg/pkg/eval"
	"github.com/ucg-lang/ucg/pkg/parser"
	"github.com/ucg-lang/ucg/pkg/telemetry"
)

// AssertResult is one recorded assert: the file it ran in, its description,
// and whether it passed.
type AssertResult struct {
	Path string
	Desc string
	OK   bool
}

// Artifact is a buffered out statement: the converter name and the fully
// reduced value to hand it.
type Artifact struct {
	Converter string
	Pos       ast.Position
	Value     eval.Value
}

// Result is the outcome of building one root file.
type Result struct {
	Path     string
	Bindings eval.Value
	Out      *Artifact
	Asserts  []AssertResult
}

// Registry is the source registry: it memoizes source bytes and evaluation
// results keyed by canonical path, and guarantees each file is read and
// evaluated at most once even under concurrent root builds. Waiters block
// on the in-flight work instead of repeating it.
type Registry struct {
	runID     string
	roots     []string
	loader    func(string) ([]byte, error)
	strictEnv bool
	maxDepth  int
	envLookup func(string) (string, bool)
	knownConv func(string) bool
	log       *telemetry.Logger

	mu      sync.Mutex
	sources map[string]*source
	entries map[string]*entry
	asserts []AssertResult
}

// source is a single-flight slot for one file's bytes.
type source struct {
	done chan struct{}
	data []byte
	err  error
}

// entry is a single-flight slot for one file's evaluation result.
type entry struct {
	done    chan struct{}
	value   eval.Value
	out     *Artifact
	asserts []AssertResult
	err     error
}

// Option configures a Registry.
type Option func(*Registry)

// WithImportRoots adds directories searched for imports after the
// importing file's own directory.
func WithImportRoots(roots []string) Option {
	return func(r *Registry) { r.roots = append(r.roots, roots...) }
}

// WithLoader replaces the source loader, mainly for tests. The default
// reads from the filesystem.
func WithLoader(fn func(string) ([]byte, error)) Option {
	return func(r *Registry) { r.loader = fn }
}

// WithStrictEnv makes missing environment variables an error.
func WithStrictEnv(strict bool) Option {
	return func(r *Registry) { r.strictEnv = strict }
}

// WithMaxDepth overrides the evaluator recursion bound.
func WithMaxDepth(n int) Option {
	return func(r *Registry) { r.maxDepth = n }
}

// WithEnvLookup replaces the process environment view.
func WithEnvLookup(fn func(string) (string, bool)) Option {
	return func(r *Registry) { r.envLookup = fn }
}

// WithConverterCheck installs the predicate that validates converter names
// at out statements before any emission happens.
func WithConverterCheck(fn func(string) bool) Option {
	return func(r *Registry) { r.knownConv = fn }
}

// WithLogger attaches a structured logger.
func WithLogger(l *telemetry.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// NewRegistry returns an empty source registry with a fresh run ID.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		runID:   uuid.New().String(),
		loader:  os.ReadFile,
		sources: map[string]*source{},
		entries: map[string]*entry{},
		log:     telemetry.Nop(),
	}
	for _, o := range opts {
		o(r)
	}
	r.log = r.log.NewComponentLogger("build").WithRunID(r.runID)
	return r
}

// RunID identifies this registry's build run in logs.
func (r *Registry) RunID() string { return r.runID }

// Build evaluates path as a root file.
func (r *Registry) Build(path string) (*Result, error) {
	canon, err := canonical(path)
	if err != nil {
		return nil, eval.NewError(eval.ErrImport, ast.Position{Line: 1, Column: 1}, "cannot resolve %q: %v", path, err)
	}
	r.log.WithField("path", canon).Debug("building root file")
	e := r.evaluate(canon, []string{canon})
	if e.err != nil {
		return nil, e.err
	}
	return &Result{Path: canon, Bindings: e.value, Out: e.out, Asserts: e.asserts}, nil
}

// Asserts returns every assert recorded by this registry, across all roots
// and their transitive imports, in evaluation order.
func (r *Registry) Asserts() []AssertResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AssertResult, len(r.asserts))
	copy(out, r.asserts)
	return out
}

// loadSource returns the memoized bytes for a canonical path, reading them
// at most once per registry lifetime. Concurrent callers wait on the
// in-flight read.
func (r *Registry) loadSource(path string) ([]byte, error) {
	r.mu.Lock()
	if s, ok := r.sources[path]; ok {
		r.mu.Unlock()
		<-s.done
		return s.data, s.err
	}
	s := &source{done: make(chan struct{})}
	r.sources[path] = s
	r.mu.Unlock()

	s.data, s.err = r.loader(path)
	close(s.done)
	return s.data, s.err
}

// evaluate returns the memoized result for a canonical path, evaluating the
// file if this is the first request. chain is the stack of canonical paths
// currently being evaluated, ending with path itself.
func (r *Registry) evaluate(path string, chain []string) *entry {
	r.mu.Lock()
	if e, ok := r.entries[path]; ok {
		r.mu.Unlock()
		r.log.WithField("path", path).Debug("source registry hit")
		<-e.done
		return e
	}
	e := &entry{done: make(chan struct{})}
	r.entries[path] = e
	r.mu.Unlock()
	defer close(e.done)

	src, err := r.loadSource(path)
	if err != nil {
		e.err = eval.NewError(eval.ErrImport, ast.Position{Line: 1, Column: 1}, "cannot read %q: %v", path, err)
		return e
	}
	file, err := parser.ParseFile(path, string(src))
	if err != nil {
		e.err = err
		return e
	}
	b := r.newFileBuilder(path, chain)
	e.value, e.err = b.run(file)
	e.out = b.out
	e.asserts = b.asserts

	r.mu.Lock()
	r.asserts = append(r.asserts, b.asserts...)
	r.mu.Unlock()
	return e
}

// importer resolves imports for one file evaluation, carrying the chain of
// in-progress files for cycle detection.
type importer struct {
	reg   *Registry
	chain []string
}

// Import implements eval.Importer.
func (im *importer) Import(fromFile, rel string, pos ast.Position) (eval.Value, error) {
	target, err := im.reg.resolve(fromFile, rel)
	if err != nil {
		return eval.Null, eval.NewError(eval.ErrImport, pos, "%v", err)
	}
	for _, p := range im.chain {
		if p == target {
			return eval.Null, eval.NewError(eval.ErrImport, pos, "import cycle: %s", cycleString(im.chain, target))
		}
	}
	e := im.reg.evaluate(target, append(append([]string{}, im.chain...), target))
	if e.err != nil {
		return eval.Null, eval.WrapImport(pos, rel, e.err)
	}
	if e.out != nil {
		return eval.Null, eval.NewError(eval.ErrImport, pos,
			"imported file %q declares an out statement; out is allowed in root files only", rel)
	}
	return e.value, nil
}

func cycleString(chain []string, target string) string {
	start := 0
	for i, p := range chain {
		if p == target {
			start = i
			break
		}
	}
	names := make([]string, 0, len(chain)-start+1)
	for _, p := range chain[start:] {
		names = append(names, filepath.Base(p))
	}
	names = append(names, filepath.Base(target))
	return strings.Join(names, " -> ")
}

// resolve turns an import path into a canonical path: relative to the
// importing file's directory first, then each import root in order. A
// candidate resolves when its source bytes are loadable.
func (r *Registry) resolve(fromFile, rel string) (string, error) {
	var candidates []string
	if filepath.IsAbs(rel) {
		candidates = []string{rel}
	} else {
		candidates = []string{filepath.Join(filepath.Dir(fromFile), rel)}
		for _, root := range r.roots {
			candidates = append(candidates, filepath.Join(root, rel))
		}
	}
	for _, c := range candidates {
		canon, err := canonical(c)
		if err != nil {
			continue
		}
		if _, err := r.loadSource(canon); err == nil {
			return canon, nil
		}
	}
	return "", fmt.Errorf("import %q not found relative to %q or any import root", rel, filepath.Dir(fromFile))
}

func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}
