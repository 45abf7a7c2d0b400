package eval

import "github.com/ucg-lang/ucg/pkg/ast"

// Env is one frame of the lexical environment: an immutable set of
// bindings plus a link to the parent frame. Lookup walks the chain.
type Env struct {
	parent *Env
	vars   map[string]Value
}

// NewEnv returns a fresh frame whose parent is parent (nil for the root).
func NewEnv(parent *Env) *Env {
	return &Env{parent: parent, vars: map[string]Value{}}
}

// Define adds a binding to this frame. A name collision within the same
// frame is a NameError; shadowing a parent frame is allowed.
func (e *Env) Define(name string, v Value, pos ast.Position) error {
	if _, ok := e.vars[name]; ok {
		return NewError(ErrName, pos, "duplicate binding %q", name)
	}
	e.vars[name] = v
	return nil
}

// Lookup resolves a name, walking parent frames.
func (e *Env) Lookup(name string) (Value, bool) {
	for f := e; f != nil; f = f.parent {
		if v, ok := f.vars[name]; ok {
			return v, true
		}
	}
	return Null, false
}

// Base returns the builtins frame shared by every file: the higher-order
// primitives and the conversion functions.
func Base() *Env {
	e := NewEnv(nil)
	for name, fn := range builtins {
		e.vars[name] = FuncVal(&Func{Name: name, Builtin: fn})
	}
	return e
}
