package eval

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ucg-lang/ucg/pkg/ast"
)

// Importer resolves an import path relative to the importing file and
// returns the imported file's binding tuple. The build layer implements it
// with memoization and cycle detection.
type Importer interface {
	Import(fromFile, rel string, pos ast.Position) (Value, error)
}

// DefaultMaxDepth bounds call and module-instantiation nesting.
const DefaultMaxDepth = 500

// Evaluator reduces expressions to values. One Evaluator serves one file;
// the build layer creates a fresh one per file with the right importer.
type Evaluator struct {
	file      string
	importer  Importer
	lookupEnv func(string) (string, bool)
	strictEnv bool
	maxDepth  int
	depth     int
	onAssert  func(desc string, ok bool)
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithImporter installs the import resolver.
func WithImporter(imp Importer) Option {
	return func(ev *Evaluator) { ev.importer = imp }
}

// WithStrictEnv makes a missing environment variable an error instead of
// NULL.
func WithStrictEnv(strict bool) Option {
	return func(ev *Evaluator) { ev.strictEnv = strict }
}

// WithMaxDepth overrides the recursion-depth bound.
func WithMaxDepth(n int) Option {
	return func(ev *Evaluator) {
		if n > 0 {
			ev.maxDepth = n
		}
	}
}

// WithEnvLookup replaces the process-environment view, mainly for tests.
func WithEnvLookup(fn func(string) (string, bool)) Option {
	return func(ev *Evaluator) { ev.lookupEnv = fn }
}

// WithAssertHook receives assert results found inside module bodies.
func WithAssertHook(fn func(desc string, ok bool)) Option {
	return func(ev *Evaluator) { ev.onAssert = fn }
}

// New returns an Evaluator for the named file.
func New(file string, opts ...Option) *Evaluator {
	ev := &Evaluator{
		file:      file,
		lookupEnv: os.LookupEnv,
		maxDepth:  DefaultMaxDepth,
	}
	for _, o := range opts {
		o(ev)
	}
	return ev
}

// File returns the path of the file this evaluator serves.
func (ev *Evaluator) File() string { return ev.file }

// Eval reduces an expression to a value in the given environment.
func (ev *Evaluator) Eval(env *Env, e ast.Expr) (Value, error) {
	switch n := e.(type) {
	case *ast.IntLit:
		return Int(n.Value), nil
	case *ast.FloatLit:
		return Float(n.Value), nil
	case *ast.StrLit:
		return Str(n.Value), nil
	case *ast.BoolLit:
		return Bool(n.Value), nil
	case *ast.NullLit:
		return Null, nil
	case *ast.EnvExpr:
		return EnvVal, nil
	case *ast.Ident:
		v, ok := env.Lookup(n.Name)
		if !ok {
			return Null, NewError(ErrName, n.NamePos, "undefined name %q", n.Name)
		}
		return v, nil
	case *ast.ListExpr:
		elems := make([]Value, 0, len(n.Elems))
		for _, el := range n.Elems {
			v, err := ev.Eval(env, el)
			if err != nil {
				return Null, err
			}
			elems = append(elems, v)
		}
		return List(elems), nil
	case *ast.TupleExpr:
		t := NewTuple()
		for _, f := range n.Fields {
			v, err := ev.Eval(env, f.Value)
			if err != nil {
				return Null, err
			}
			if !t.Append(f.Name, v) {
				return Null, NewError(ErrName, f.NamePos, "duplicate field %q in tuple", f.Name)
			}
		}
		return TupleVal(t), nil
	case *ast.FuncExpr:
		return FuncVal(&Func{Params: n.Params, Body: n.Body, Env: env}), nil
	case *ast.ModuleExpr:
		return ev.evalModuleLit(env, n)
	case *ast.SelectExpr:
		return ev.evalSelect(env, n)
	case *ast.ImportExpr:
		return ev.evalImport(n)
	case *ast.FailExpr:
		return ev.evalFail(env, n)
	case *ast.UnaryExpr:
		return ev.evalUnary(env, n)
	case *ast.BinaryExpr:
		return ev.evalBinary(env, n)
	case *ast.SelectorExpr:
		return ev.evalSelector(env, n)
	case *ast.IndexExpr:
		return ev.evalIndex(env, n)
	case *ast.CallExpr:
		return ev.evalCall(env, n)
	case *ast.CopyExpr:
		return ev.evalCopy(env, n)
	case *ast.FormatExpr:
		return ev.evalFormat(env, n)
	case *ast.RangeExpr:
		return ev.evalRange(env, n)
	case *ast.InExpr:
		return ev.evalIn(env, n)
	case *ast.IsExpr:
		return ev.evalIs(env, n)
	}
	return Null, NewError(ErrTypeFail, e.Pos(), "unhandled expression")
}

func (ev *Evaluator) evalModuleLit(env *Env, n *ast.ModuleExpr) (Value, error) {
	defaults := NewTuple()
	for _, f := range n.Defaults {
		v, err := ev.Eval(env, f.Value)
		if err != nil {
			return Null, err
		}
		if !defaults.Append(f.Name, v) {
			return Null, NewError(ErrName, f.NamePos, "duplicate default %q in module", f.Name)
		}
	}
	return ModuleVal(&Module{
		Defaults: defaults,
		Out:      n.Out,
		Body:     n.Body,
		Env:      env,
		Path:     ev.file,
	}), nil
}

func (ev *Evaluator) evalSelect(env *Env, n *ast.SelectExpr) (Value, error) {
	key, err := ev.Eval(env, n.Key)
	if err != nil {
		return Null, err
	}
	if key.Kind != KindStr {
		return Null, NewError(ErrTypeFail, n.Key.Pos(), "select key must be str, got %s", key.Kind)
	}
	for _, b := range n.Branches {
		if b.Name == key.AsStr() {
			return ev.Eval(env, b.Value)
		}
	}
	if n.Default != nil {
		return ev.Eval(env, n.Default)
	}
	return Null, NewError(ErrIndex, n.Keyword, "no select branch matches %q and no default given", key.AsStr())
}

func (ev *Evaluator) evalImport(n *ast.ImportExpr) (Value, error) {
	if ev.importer == nil {
		return Null, NewError(ErrImport, n.Keyword, "imports are not available here")
	}
	return ev.importer.Import(ev.file, n.Path, n.Keyword)
}

func (ev *Evaluator) evalFail(env *Env, n *ast.FailExpr) (Value, error) {
	msg, err := ev.Eval(env, n.Msg)
	if err != nil {
		return Null, err
	}
	if msg.Kind != KindStr {
		return Null, NewError(ErrTypeFail, n.Msg.Pos(), "fail message must be str, got %s", msg.Kind)
	}
	return Null, NewError(ErrUserFail, n.Keyword, "%s", msg.AsStr())
}

func (ev *Evaluator) evalUnary(env *Env, n *ast.UnaryExpr) (Value, error) {
	x, err := ev.Eval(env, n.X)
	if err != nil {
		return Null, err
	}
	switch n.Op {
	case ast.OpNot:
		if x.Kind != KindBool {
			return Null, NewError(ErrTypeFail, n.X.Pos(), "operand of 'not' must be bool, got %s", x.Kind)
		}
		return Bool(!x.AsBool()), nil
	case ast.OpNeg:
		switch x.Kind {
		case KindInt:
			return Int(-x.AsInt()), nil
		case KindFloat:
			return Float(-x.AsFloat()), nil
		}
		return Null, NewError(ErrTypeFail, n.X.Pos(), "operand of unary '-' must be int or float, got %s", x.Kind)
	}
	return Null, NewError(ErrTypeFail, n.OpPos, "unhandled unary operator")
}

func (ev *Evaluator) evalBinary(env *Env, n *ast.BinaryExpr) (Value, error) {
	// Logical operators short-circuit: the right side is untouched when the
	// left side decides, so a diverging `fail` on the right stays inert.
	if n.Op == ast.OpOr || n.Op == ast.OpAnd {
		l, err := ev.Eval(env, n.Left)
		if err != nil {
			return Null, err
		}
		if l.Kind != KindBool {
			return Null, NewError(ErrTypeFail, n.Left.Pos(), "operand of %q must be bool, got %s", n.Op.String(), l.Kind)
		}
		if n.Op == ast.OpOr && l.AsBool() {
			return Bool(true), nil
		}
		if n.Op == ast.OpAnd && !l.AsBool() {
			return Bool(false), nil
		}
		r, err := ev.Eval(env, n.Right)
		if err != nil {
			return Null, err
		}
		if r.Kind != KindBool {
			return Null, NewError(ErrTypeFail, n.Right.Pos(), "operand of %q must be bool, got %s", n.Op.String(), r.Kind)
		}
		return r, nil
	}

	l, err := ev.Eval(env, n.Left)
	if err != nil {
		return Null, err
	}
	r, err := ev.Eval(env, n.Right)
	if err != nil {
		return Null, err
	}

	switch n.Op {
	case ast.OpEq:
		return Bool(l.Equal(r)), nil
	case ast.OpNotEq:
		return Bool(!l.Equal(r)), nil
	case ast.OpLt, ast.OpLtEq, ast.OpGt, ast.OpGtEq:
		return ev.compare(n, l, r)
	case ast.OpAdd:
		return ev.add(n, l, r)
	case ast.OpSub, ast.OpMul, ast.OpDiv:
		return ev.arith(n, l, r)
	}
	return Null, NewError(ErrTypeFail, n.OpPos, "unhandled binary operator")
}

func (ev *Evaluator) compare(n *ast.BinaryExpr, l, r Value) (Value, error) {
	if l.Kind != r.Kind {
		return Null, NewError(ErrTypeFail, n.OpPos, "cannot order %s against %s", l.Kind, r.Kind)
	}
	var cmp int
	switch l.Kind {
	case KindInt:
		a, b := l.AsInt(), r.AsInt()
		cmp = compareOrdered(a, b)
	case KindFloat:
		a, b := l.AsFloat(), r.AsFloat()
		cmp = compareOrdered(a, b)
	case KindStr:
		cmp = strings.Compare(l.AsStr(), r.AsStr())
	default:
		return Null, NewError(ErrTypeFail, n.OpPos, "ordering is defined for int, float and str only, got %s", l.Kind)
	}
	switch n.Op {
	case ast.OpLt:
		return Bool(cmp < 0), nil
	case ast.OpLtEq:
		return Bool(cmp <= 0), nil
	case ast.OpGt:
		return Bool(cmp > 0), nil
	default:
		return Bool(cmp >= 0), nil
	}
}

func compareOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (ev *Evaluator) add(n *ast.BinaryExpr, l, r Value) (Value, error) {
	if l.Kind != r.Kind {
		return Null, NewError(ErrTypeFail, n.OpPos, "cannot add %s to %s", r.Kind, l.Kind)
	}
	switch l.Kind {
	case KindInt:
		return Int(l.AsInt() + r.AsInt()), nil
	case KindFloat:
		return Float(l.AsFloat() + r.AsFloat()), nil
	case KindStr:
		return Str(l.AsStr() + r.AsStr()), nil
	case KindList:
		a, b := l.AsList(), r.AsList()
		out := make([]Value, 0, len(a)+len(b))
		out = append(out, a...)
		out = append(out, b...)
		return List(out), nil
	}
	return Null, NewError(ErrTypeFail, n.OpPos, "'+' is defined for int, float, str and list, got %s", l.Kind)
}

func (ev *Evaluator) arith(n *ast.BinaryExpr, l, r Value) (Value, error) {
	if l.Kind != r.Kind {
		return Null, NewError(ErrTypeFail, n.OpPos, "cannot apply %q to %s and %s", n.Op.String(), l.Kind, r.Kind)
	}
	switch l.Kind {
	case KindInt:
		a, b := l.AsInt(), r.AsInt()
		switch n.Op {
		case ast.OpSub:
			return Int(a - b), nil
		case ast.OpMul:
			return Int(a * b), nil
		default:
			if b == 0 {
				return Null, NewError(ErrTypeFail, n.OpPos, "division by zero")
			}
			// Go's integer division already truncates toward zero.
			return Int(a / b), nil
		}
	case KindFloat:
		a, b := l.AsFloat(), r.AsFloat()
		switch n.Op {
		case ast.OpSub:
			return Float(a - b), nil
		case ast.OpMul:
			return Float(a * b), nil
		default:
			return Float(a / b), nil
		}
	}
	return Null, NewError(ErrTypeFail, n.OpPos, "%q is defined for int and float only, got %s", n.Op.String(), l.Kind)
}

func (ev *Evaluator) evalSelector(env *Env, n *ast.SelectorExpr) (Value, error) {
	x, err := ev.Eval(env, n.X)
	if err != nil {
		return Null, err
	}
	return ev.selectField(x, n.Field, n.FieldPos)
}

func (ev *Evaluator) selectField(x Value, field string, pos ast.Position) (Value, error) {
	switch x.Kind {
	case KindTuple:
		v, ok := x.AsTuple().Get(field)
		if !ok {
			return Null, NewError(ErrIndex, pos, "tuple has no field %q", field)
		}
		return v, nil
	case KindList:
		idx, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return Null, NewError(ErrTypeFail, pos, "list selector must be an index, got %q", field)
		}
		return ev.listIndex(x.AsList(), idx, pos)
	case KindEnv:
		return ev.envVar(field, pos)
	case KindModule:
		// A module used as a namespace: instantiate with no overrides and
		// select from the resulting binding tuple.
		inst, err := ev.instantiate(x.AsModule(), NewTuple(), pos)
		if err != nil {
			return Null, err
		}
		return ev.selectField(inst, field, pos)
	}
	return Null, NewError(ErrTypeFail, pos, "cannot select %q from %s", field, x.Kind)
}

func (ev *Evaluator) listIndex(elems []Value, idx int64, pos ast.Position) (Value, error) {
	if idx < 0 || idx >= int64(len(elems)) {
		return Null, NewError(ErrIndex, pos, "list index %d out of range (len %d)", idx, len(elems))
	}
	return elems[idx], nil
}

func (ev *Evaluator) envVar(name string, pos ast.Position) (Value, error) {
	if v, ok := ev.lookupEnv(name); ok {
		return Str(v), nil
	}
	if ev.strictEnv {
		return Null, NewError(ErrIndex, pos, "environment variable %q is not set", name)
	}
	return Null, nil
}

func (ev *Evaluator) evalIndex(env *Env, n *ast.IndexExpr) (Value, error) {
	x, err := ev.Eval(env, n.X)
	if err != nil {
		return Null, err
	}
	idx, err := ev.Eval(env, n.Index)
	if err != nil {
		return Null, err
	}
	switch idx.Kind {
	case KindInt:
		if x.Kind != KindList {
			return Null, NewError(ErrTypeFail, n.Index.Pos(), "numeric subscript needs a list, got %s", x.Kind)
		}
		return ev.listIndex(x.AsList(), idx.AsInt(), n.Index.Pos())
	case KindStr:
		return ev.selectField(x, idx.AsStr(), n.Index.Pos())
	}
	return Null, NewError(ErrTypeFail, n.Index.Pos(), "subscript must be int or str, got %s", idx.Kind)
}

func (ev *Evaluator) evalCall(env *Env, n *ast.CallExpr) (Value, error) {
	fnVal, err := ev.Eval(env, n.Fn)
	if err != nil {
		return Null, err
	}
	if fnVal.Kind != KindFunc {
		return Null, NewError(ErrTypeFail, n.Fn.Pos(), "cannot call %s", fnVal.Kind)
	}
	args := make([]Value, 0, len(n.Args))
	for _, a := range n.Args {
		v, err := ev.Eval(env, a)
		if err != nil {
			return Null, err
		}
		args = append(args, v)
	}
	return ev.apply(fnVal.AsFunc(), args, n.Lpar)
}

func (ev *Evaluator) apply(fn *Func, args []Value, pos ast.Position) (Value, error) {
	if err := ev.enter(pos); err != nil {
		return Null, err
	}
	defer ev.leave()
	if fn.Builtin != nil {
		return fn.Builtin(ev, pos, args)
	}
	if len(args) != len(fn.Params) {
		return Null, NewError(ErrArity, pos, "call expects %d argument(s), got %d", len(fn.Params), len(args))
	}
	frame := NewEnv(fn.Env)
	for i, p := range fn.Params {
		if err := frame.Define(p, args[i], pos); err != nil {
			return Null, err
		}
	}
	return ev.Eval(frame, fn.Body)
}

func (ev *Evaluator) enter(pos ast.Position) error {
	ev.depth++
	if ev.depth > ev.maxDepth {
		ev.depth--
		return NewError(ErrUserFail, pos, "recursion depth exceeded (%d)", ev.maxDepth)
	}
	return nil
}

func (ev *Evaluator) leave() { ev.depth-- }

func (ev *Evaluator) evalCopy(env *Env, n *ast.CopyExpr) (Value, error) {
	base, err := ev.Eval(env, n.Base)
	if err != nil {
		return Null, err
	}
	switch base.Kind {
	case KindTuple:
		return ev.copyTuple(env, base.AsTuple(), n.Fields)
	case KindModule:
		overrides := NewTuple()
		for _, f := range n.Fields {
			v, err := ev.Eval(env, f.Value)
			if err != nil {
				return Null, err
			}
			if !overrides.Append(f.Name, v) {
				return Null, NewError(ErrName, f.NamePos, "duplicate override %q", f.Name)
			}
		}
		return ev.instantiate(base.AsModule(), overrides, n.Lbrace)
	}
	return Null, NewError(ErrTypeFail, n.Base.Pos(), "copy applies to tuples and modules, got %s", base.Kind)
}

// copyTuple implements copy-on-modify: a fresh tuple where every override
// of an existing field must preserve the field's type, and unknown fields
// are appended.
func (ev *Evaluator) copyTuple(env *Env, base *Tuple, fields []ast.Field) (Value, error) {
	out := base.clone()
	seen := map[string]bool{}
	for _, f := range fields {
		if seen[f.Name] {
			return Null, NewError(ErrName, f.NamePos, "duplicate override %q", f.Name)
		}
		seen[f.Name] = true
		v, err := ev.Eval(env, f.Value)
		if err != nil {
			return Null, err
		}
		if old, ok := base.Get(f.Name); ok && old.Kind != v.Kind {
			return Null, NewError(ErrTypeFail, f.NamePos,
				"override of field %q changes type from %s to %s", f.Name, old.Kind, v.Kind)
		}
		out.setForCopy(f.Name, v)
	}
	return TupleVal(out), nil
}

// instantiate runs a module body against defaults merged with overrides.
func (ev *Evaluator) instantiate(m *Module, overrides *Tuple, pos ast.Position) (Value, error) {
	if err := ev.enter(pos); err != nil {
		return Null, err
	}
	defer ev.leave()

	mod := m.Defaults.clone()
	for _, f := range overrides.Fields() {
		if old, ok := m.Defaults.Get(f.Name); ok && old.Kind != f.Val.Kind {
			return Null, NewError(ErrTypeFail, pos,
				"override of module parameter %q changes type from %s to %s", f.Name, old.Kind, f.Val.Kind)
		}
		mod.setForCopy(f.Name, f.Val)
	}
	mod.setForCopy("this", ModuleVal(m))
	mod.setForCopy("pkg", FuncVal(&Func{Name: "pkg", Builtin: pkgBuiltin(m)}))

	frame := NewEnv(m.Env)
	if err := frame.Define("mod", TupleVal(mod), pos); err != nil {
		return Null, err
	}

	// Imports inside the body resolve against the module's defining file,
	// not the instantiation site.
	savedFile := ev.file
	ev.file = m.Path
	defer func() { ev.file = savedFile }()

	bindings := NewTuple()
	for _, stmt := range m.Body {
		switch s := stmt.(type) {
		case *ast.LetStmt:
			v, err := ev.Eval(frame, s.Value)
			if err != nil {
				return Null, err
			}
			if err := frame.Define(s.Name, v, s.NamePos); err != nil {
				return Null, err
			}
			bindings.Append(s.Name, v)
		case *ast.AssertStmt:
			v, err := ev.Eval(frame, s.Expr)
			if err != nil {
				return Null, err
			}
			desc, ok, err := CheckAssert(v, s.Keyword)
			if err != nil {
				return Null, err
			}
			if ev.onAssert != nil {
				ev.onAssert(desc, ok)
			}
		case *ast.ExprStmt:
			if _, err := ev.Eval(frame, s.Expr); err != nil {
				return Null, err
			}
		case *ast.OutStmt:
			return Null, NewError(ErrTypeFail, s.Keyword, "out statement is not allowed inside a module body")
		}
	}
	if m.Out != nil {
		return ev.Eval(frame, m.Out)
	}
	return TupleVal(bindings), nil
}

// pkgBuiltin builds the mod.pkg function: a zero-argument handle that
// re-enters the module's defining file and returns its binding tuple.
func pkgBuiltin(m *Module) BuiltinFunc {
	return func(ev *Evaluator, pos ast.Position, args []Value) (Value, error) {
		if len(args) != 0 {
			return Null, NewError(ErrArity, pos, "mod.pkg takes no arguments")
		}
		if ev.importer == nil {
			return Null, NewError(ErrImport, pos, "imports are not available here")
		}
		// The base name resolves back to the file itself against its own
		// directory.
		return ev.importer.Import(m.Path, filepath.Base(m.Path), pos)
	}
}

func (ev *Evaluator) evalFormat(env *Env, n *ast.FormatExpr) (Value, error) {
	fmtVal, err := ev.Eval(env, n.Fmt)
	if err != nil {
		return Null, err
	}
	if fmtVal.Kind != KindStr {
		return Null, NewError(ErrTypeFail, n.Fmt.Pos(), "format template must be str, got %s", fmtVal.Kind)
	}
	var args []Value
	if len(n.Args) == 1 {
		v, err := ev.Eval(env, n.Args[0])
		if err != nil {
			return Null, err
		}
		if v.Kind == KindTuple {
			// A single tuple spreads its field values in order.
			for _, f := range v.AsTuple().Fields() {
				args = append(args, f.Val)
			}
		} else {
			args = []Value{v}
		}
	} else {
		for _, a := range n.Args {
			v, err := ev.Eval(env, a)
			if err != nil {
				return Null, err
			}
			args = append(args, v)
		}
	}
	return formatStr(fmtVal.AsStr(), args, n.OpPos)
}

// formatStr replaces each literal @ with the stringification of the next
// argument. The two-byte sequence \@ renders a literal @.
func formatStr(tpl string, args []Value, pos ast.Position) (Value, error) {
	var b strings.Builder
	next := 0
	for i := 0; i < len(tpl); i++ {
		if tpl[i] == '\\' && i+1 < len(tpl) && tpl[i+1] == '@' {
			b.WriteByte('@')
			i++
			continue
		}
		if tpl[i] == '@' {
			if next >= len(args) {
				return Null, NewError(ErrArity, pos, "format expects more than %d argument(s)", len(args))
			}
			b.WriteString(args[next].String())
			next++
			continue
		}
		b.WriteByte(tpl[i])
	}
	if next != len(args) {
		return Null, NewError(ErrArity, pos, "format consumed %d of %d argument(s)", next, len(args))
	}
	return Str(b.String()), nil
}

func (ev *Evaluator) evalRange(env *Env, n *ast.RangeExpr) (Value, error) {
	intOperand := func(e ast.Expr, what string) (int64, error) {
		v, err := ev.Eval(env, e)
		if err != nil {
			return 0, err
		}
		if v.Kind != KindInt {
			return 0, NewError(ErrTypeFail, e.Pos(), "range %s must be int, got %s", what, v.Kind)
		}
		return v.AsInt(), nil
	}
	start, err := intOperand(n.Start, "start")
	if err != nil {
		return Null, err
	}
	step := int64(1)
	if n.Step != nil {
		step, err = intOperand(n.Step, "step")
		if err != nil {
			return Null, err
		}
		if step <= 0 {
			return Null, NewError(ErrTypeFail, n.Step.Pos(), "range step must be positive, got %d", step)
		}
	}
	end, err := intOperand(n.End, "end")
	if err != nil {
		return Null, err
	}
	var elems []Value
	for i := start; i <= end; i += step {
		elems = append(elems, Int(i))
	}
	return List(elems), nil
}

func (ev *Evaluator) evalIn(env *Env, n *ast.InExpr) (Value, error) {
	var key string
	if id, ok := n.Key.(*ast.Ident); ok {
		key = id.Name
	} else {
		k, err := ev.Eval(env, n.Key)
		if err != nil {
			return Null, err
		}
		if k.Kind != KindStr {
			return Null, NewError(ErrTypeFail, n.Key.Pos(), "left side of 'in' must name a field, got %s", k.Kind)
		}
		key = k.AsStr()
	}
	x, err := ev.Eval(env, n.X)
	if err != nil {
		return Null, err
	}
	switch x.Kind {
	case KindTuple:
		return Bool(x.AsTuple().Has(key)), nil
	case KindEnv:
		_, ok := ev.lookupEnv(key)
		return Bool(ok), nil
	}
	return Null, NewError(ErrTypeFail, n.X.Pos(), "right side of 'in' must be a tuple, got %s", x.Kind)
}

var typeNames = map[string]Kind{
	"int":    KindInt,
	"float":  KindFloat,
	"str":    KindStr,
	"bool":   KindBool,
	"list":   KindList,
	"tuple":  KindTuple,
	"func":   KindFunc,
	"module": KindModule,
	"null":   KindNull,
}

func (ev *Evaluator) evalIs(env *Env, n *ast.IsExpr) (Value, error) {
	want, ok := typeNames[n.Type]
	if !ok {
		return Null, NewError(ErrTypeFail, n.TypePos, "unknown type %q in 'is' test", n.Type)
	}
	x, err := ev.Eval(env, n.X)
	if err != nil {
		return Null, err
	}
	if x.Kind == KindEnv {
		return Bool(want == KindTuple), nil
	}
	return Bool(x.Kind == want), nil
}

// CheckAssert validates the shape of an assert expression's value: a tuple
// with a bool field "ok" and a str field "desc".
func CheckAssert(v Value, pos ast.Position) (desc string, ok bool, err error) {
	if v.Kind != KindTuple {
		return "", false, NewError(ErrTypeFail, pos, "assert expects a tuple, got %s", v.Kind)
	}
	t := v.AsTuple()
	okVal, present := t.Get("ok")
	if !present || okVal.Kind != KindBool {
		return "", false, NewError(ErrTypeFail, pos, "assert tuple needs a bool field %q", "ok")
	}
	descVal, present := t.Get("desc")
	if !present || descVal.Kind != KindStr {
		return "", false, NewError(ErrTypeFail, pos, "assert tuple needs a str field %q", "desc")
	}
	return descVal.AsStr(), okVal.AsBool(), nil
}
