package eval

import (
	"math"

	"github.com/ucg-lang/ucg/pkg/ast"
)

// Kind tags a Value variant. Type equality in UCG is tag equality.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindStr
	KindBool
	KindList
	KindTuple
	KindFunc
	KindModule
	KindEnv
)

var kindNames = map[Kind]string{
	KindNull:   "null",
	KindInt:    "int",
	KindFloat:  "float",
	KindStr:    "str",
	KindBool:   "bool",
	KindList:   "list",
	KindTuple:  "tuple",
	KindFunc:   "func",
	KindModule: "module",
	KindEnv:    "tuple",
}

// String returns the UCG type name of the kind, as used by the `is` test.
func (k Kind) String() string { return kindNames[k] }

// Value is a reduced UCG value. Data holds the variant payload:
// int64, float64, string, bool, []Value, *Tuple, *Func or *Module.
// The zero Value is NULL. Values are immutable after creation.
type Value struct {
	Kind Kind
	Data interface{}
}

// Null is the NULL value.
var Null = Value{Kind: KindNull}

// Int wraps an int64.
func Int(v int64) Value { return Value{Kind: KindInt, Data: v} }

// Float wraps a float64.
func Float(v float64) Value { return Value{Kind: KindFloat, Data: v} }

// Str wraps a string.
func Str(v string) Value { return Value{Kind: KindStr, Data: v} }

// Bool wraps a bool.
func Bool(v bool) Value { return Value{Kind: KindBool, Data: v} }

// List wraps a slice of values. The slice is owned by the value afterwards.
func List(elems []Value) Value { return Value{Kind: KindList, Data: elems} }

// TupleVal wraps a tuple.
func TupleVal(t *Tuple) Value { return Value{Kind: KindTuple, Data: t} }

// FuncVal wraps a function.
func FuncVal(f *Func) Value { return Value{Kind: KindFunc, Data: f} }

// ModuleVal wraps a module.
func ModuleVal(m *Module) Value { return Value{Kind: KindModule, Data: m} }

// EnvVal is the lazy process-environment view produced by the `env` keyword.
var EnvVal = Value{Kind: KindEnv}

// AsInt returns the int64 payload. It panics on other kinds.
func (v Value) AsInt() int64 { return v.Data.(int64) }

// AsFloat returns the float64 payload. It panics on other kinds.
func (v Value) AsFloat() float64 { return v.Data.(float64) }

// AsStr returns the string payload. It panics on other kinds.
func (v Value) AsStr() string { return v.Data.(string) }

// AsBool returns the bool payload. It panics on other kinds.
func (v Value) AsBool() bool { return v.Data.(bool) }

// AsList returns the list payload. It panics on other kinds.
func (v Value) AsList() []Value { return v.Data.([]Value) }

// AsTuple returns the tuple payload. It panics on other kinds.
func (v Value) AsTuple() *Tuple { return v.Data.(*Tuple) }

// AsFunc returns the function payload. It panics on other kinds.
func (v Value) AsFunc() *Func { return v.Data.(*Func) }

// AsModule returns the module payload. It panics on other kinds.
func (v Value) AsModule() *Module { return v.Data.(*Module) }

// Equal reports structural equality. Values of different kinds are never
// equal; NaN follows IEEE-754 and is unequal to itself. Functions and
// modules compare by identity.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull, KindEnv:
		return true
	case KindInt:
		return v.AsInt() == o.AsInt()
	case KindFloat:
		return v.AsFloat() == o.AsFloat()
	case KindStr:
		return v.AsStr() == o.AsStr()
	case KindBool:
		return v.AsBool() == o.AsBool()
	case KindList:
		a, b := v.AsList(), o.AsList()
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
		return true
	case KindTuple:
		a, b := v.AsTuple(), o.AsTuple()
		if a.Len() != b.Len() {
			return false
		}
		for _, f := range a.Fields() {
			bv, ok := b.Get(f.Name)
			if !ok || !f.Val.Equal(bv) {
				return false
			}
		}
		return true
	case KindFunc:
		return v.AsFunc() == o.AsFunc()
	case KindModule:
		return v.AsModule() == o.AsModule()
	}
	return false
}

// IsNaN reports whether the value is a float NaN.
func (v Value) IsNaN() bool {
	return v.Kind == KindFloat && math.IsNaN(v.AsFloat())
}

// TupleField is a single name/value pair of a tuple.
type TupleField struct {
	Name string
	Val  Value
}

// Tuple is an insertion-ordered mapping from field names to values. Field
// order carries no semantic weight but is deterministic per instance.
// Duplicate names are illegal.
type Tuple struct {
	fields []TupleField
	index  map[string]int
}

// NewTuple returns an empty tuple.
func NewTuple() *Tuple {
	return &Tuple{index: map[string]int{}}
}

// Len returns the number of fields.
func (t *Tuple) Len() int { return len(t.fields) }

// Fields returns the fields in insertion order. The slice must not be
// modified by the caller.
func (t *Tuple) Fields() []TupleField { return t.fields }

// Get returns the value of a field by name.
func (t *Tuple) Get(name string) (Value, bool) {
	i, ok := t.index[name]
	if !ok {
		return Null, false
	}
	return t.fields[i].Val, true
}

// Has reports whether a field is present.
func (t *Tuple) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Append adds a new field. It reports false when the name is already
// present; the tuple is unchanged in that case.
func (t *Tuple) Append(name string, v Value) bool {
	if t.Has(name) {
		return false
	}
	t.index[name] = len(t.fields)
	t.fields = append(t.fields, TupleField{Name: name, Val: v})
	return true
}

// clone returns a fresh tuple with the same fields.
func (t *Tuple) clone() *Tuple {
	n := NewTuple()
	for _, f := range t.fields {
		n.Append(f.Name, f.Val)
	}
	return n
}

// setForCopy overrides or appends a field on a copy under construction.
func (t *Tuple) setForCopy(name string, v Value) {
	if i, ok := t.index[name]; ok {
		t.fields[i].Val = v
		return
	}
	t.Append(name, v)
}

// BuiltinFunc is the Go implementation of a builtin UCG function.
type BuiltinFunc func(ev *Evaluator, pos ast.Position, args []Value) (Value, error)

// Func is a pure closure: parameter names, a single expression body, and
// the captured defining environment. Builtins carry a Go implementation
// instead of a body.
type Func struct {
	Name    string
	Params  []string
	Body    ast.Expr
	Env     *Env
	Builtin BuiltinFunc
}

// Module is a parameterizable template. Instantiating it with an override
// tuple evaluates Body in a child of the captured environment and yields
// either the out expression's value or a tuple of the body's bindings.
type Module struct {
	Defaults *Tuple
	Out      ast.Expr
	Body     []ast.Stmt
	Env      *Env
	// Path is the file the module literal appeared in. Imports inside the
	// body resolve against it, and mod.pkg() re-enters it.
	Path string
}
