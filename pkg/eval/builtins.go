package eval

import (
	"strconv"
	"strings"

	"github.com/ucg-lang/ucg/pkg/ast"
)

// builtins are the functions bound in the base frame of every file.
var builtins = map[string]BuiltinFunc{
	"map":    builtinMap,
	"filter": builtinFilter,
	"reduce": builtinReduce,
	"int":    builtinInt,
	"float":  builtinFloat,
	"str":    builtinStr,
	"bool":   builtinBool,
}

func wantFunc(name string, v Value, pos ast.Position) (*Func, error) {
	if v.Kind != KindFunc {
		return nil, NewError(ErrTypeFail, pos, "%s expects a func, got %s", name, v.Kind)
	}
	return v.AsFunc(), nil
}

// builtinMap applies fn to every element of a list, every character of a
// string, or every field of a tuple. The tuple callback takes (name, value)
// and must return a [name, value] pair list.
func builtinMap(ev *Evaluator, pos ast.Position, args []Value) (Value, error) {
	if len(args) != 2 {
		return Null, NewError(ErrArity, pos, "map expects 2 arguments, got %d", len(args))
	}
	fn, err := wantFunc("map", args[0], pos)
	if err != nil {
		return Null, err
	}
	coll := args[1]
	switch coll.Kind {
	case KindList:
		elems := coll.AsList()
		out := make([]Value, 0, len(elems))
		for _, el := range elems {
			v, err := ev.apply(fn, []Value{el}, pos)
			if err != nil {
				return Null, err
			}
			out = append(out, v)
		}
		return List(out), nil
	case KindStr:
		var b strings.Builder
		for _, r := range coll.AsStr() {
			v, err := ev.apply(fn, []Value{Str(string(r))}, pos)
			if err != nil {
				return Null, err
			}
			if v.Kind != KindStr {
				return Null, NewError(ErrTypeFail, pos, "map over str must produce str, got %s", v.Kind)
			}
			b.WriteString(v.AsStr())
		}
		return Str(b.String()), nil
	case KindTuple:
		out := NewTuple()
		for _, f := range coll.AsTuple().Fields() {
			v, err := ev.apply(fn, []Value{Str(f.Name), f.Val}, pos)
			if err != nil {
				return Null, err
			}
			name, val, err := fieldPair(v, pos)
			if err != nil {
				return Null, err
			}
			if !out.Append(name, val) {
				return Null, NewError(ErrName, pos, "map produced duplicate field %q", name)
			}
		}
		return TupleVal(out), nil
	}
	return Null, NewError(ErrTypeFail, pos, "map works on list, str and tuple, got %s", coll.Kind)
}

// fieldPair unpacks the [name, value] list a tuple-map callback returns.
func fieldPair(v Value, pos ast.Position) (string, Value, error) {
	if v.Kind != KindList || len(v.AsList()) != 2 {
		return "", Null, NewError(ErrTypeFail, pos, "tuple map callback must return a [name, value] pair")
	}
	pair := v.AsList()
	if pair[0].Kind != KindStr {
		return "", Null, NewError(ErrTypeFail, pos, "tuple map field name must be str, got %s", pair[0].Kind)
	}
	return pair[0].AsStr(), pair[1], nil
}

// builtinFilter keeps the elements, characters or fields the predicate
// returns true for.
func builtinFilter(ev *Evaluator, pos ast.Position, args []Value) (Value, error) {
	if len(args) != 2 {
		return Null, NewError(ErrArity, pos, "filter expects 2 arguments, got %d", len(args))
	}
	fn, err := wantFunc("filter", args[0], pos)
	if err != nil {
		return Null, err
	}
	keep := func(in []Value) (bool, error) {
		v, err := ev.apply(fn, in, pos)
		if err != nil {
			return false, err
		}
		if v.Kind != KindBool {
			return false, NewError(ErrTypeFail, pos, "filter predicate must return bool, got %s", v.Kind)
		}
		return v.AsBool(), nil
	}
	coll := args[1]
	switch coll.Kind {
	case KindList:
		var out []Value
		for _, el := range coll.AsList() {
			ok, err := keep([]Value{el})
			if err != nil {
				return Null, err
			}
			if ok {
				out = append(out, el)
			}
		}
		return List(out), nil
	case KindStr:
		var b strings.Builder
		for _, r := range coll.AsStr() {
			ok, err := keep([]Value{Str(string(r))})
			if err != nil {
				return Null, err
			}
			if ok {
				b.WriteRune(r)
			}
		}
		return Str(b.String()), nil
	case KindTuple:
		out := NewTuple()
		for _, f := range coll.AsTuple().Fields() {
			ok, err := keep([]Value{Str(f.Name), f.Val})
			if err != nil {
				return Null, err
			}
			if ok {
				out.Append(f.Name, f.Val)
			}
		}
		return TupleVal(out), nil
	}
	return Null, NewError(ErrTypeFail, pos, "filter works on list, str and tuple, got %s", coll.Kind)
}

// builtinReduce folds a collection into an accumulator. The callback takes
// (acc, element) for lists and strings and (acc, name, value) for tuples.
func builtinReduce(ev *Evaluator, pos ast.Position, args []Value) (Value, error) {
	if len(args) != 3 {
		return Null, NewError(ErrArity, pos, "reduce expects 3 arguments, got %d", len(args))
	}
	fn, err := wantFunc("reduce", args[0], pos)
	if err != nil {
		return Null, err
	}
	acc := args[1]
	coll := args[2]
	switch coll.Kind {
	case KindList:
		for _, el := range coll.AsList() {
			acc, err = ev.apply(fn, []Value{acc, el}, pos)
			if err != nil {
				return Null, err
			}
		}
		return acc, nil
	case KindStr:
		for _, r := range coll.AsStr() {
			acc, err = ev.apply(fn, []Value{acc, Str(string(r))}, pos)
			if err != nil {
				return Null, err
			}
		}
		return acc, nil
	case KindTuple:
		for _, f := range coll.AsTuple().Fields() {
			acc, err = ev.apply(fn, []Value{acc, Str(f.Name), f.Val}, pos)
			if err != nil {
				return Null, err
			}
		}
		return acc, nil
	}
	return Null, NewError(ErrTypeFail, pos, "reduce works on list, str and tuple, got %s", coll.Kind)
}

func oneArg(name string, args []Value, pos ast.Position) (Value, error) {
	if len(args) != 1 {
		return Null, NewError(ErrArity, pos, "%s expects 1 argument, got %d", name, len(args))
	}
	return args[0], nil
}

// builtinInt converts int, float (truncating toward zero) and str.
func builtinInt(_ *Evaluator, pos ast.Position, args []Value) (Value, error) {
	v, err := oneArg("int", args, pos)
	if err != nil {
		return Null, err
	}
	switch v.Kind {
	case KindInt:
		return v, nil
	case KindFloat:
		return Int(int64(v.AsFloat())), nil
	case KindStr:
		n, err := strconv.ParseInt(strings.TrimSpace(v.AsStr()), 10, 64)
		if err != nil {
			return Null, NewError(ErrTypeFail, pos, "cannot convert %q to int", v.AsStr())
		}
		return Int(n), nil
	}
	return Null, NewError(ErrTypeFail, pos, "cannot convert %s to int", v.Kind)
}

// builtinFloat converts float, int and str.
func builtinFloat(_ *Evaluator, pos ast.Position, args []Value) (Value, error) {
	v, err := oneArg("float", args, pos)
	if err != nil {
		return Null, err
	}
	switch v.Kind {
	case KindFloat:
		return v, nil
	case KindInt:
		return Float(float64(v.AsInt())), nil
	case KindStr:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.AsStr()), 64)
		if err != nil {
			return Null, NewError(ErrTypeFail, pos, "cannot convert %q to float", v.AsStr())
		}
		return Float(f), nil
	}
	return Null, NewError(ErrTypeFail, pos, "cannot convert %s to float", v.Kind)
}

// builtinStr stringifies any value canonically.
func builtinStr(_ *Evaluator, pos ast.Position, args []Value) (Value, error) {
	v, err := oneArg("str", args, pos)
	if err != nil {
		return Null, err
	}
	return Str(v.String()), nil
}

// builtinBool converts bool and the strings "true"/"false".
func builtinBool(_ *Evaluator, pos ast.Position, args []Value) (Value, error) {
	v, err := oneArg("bool", args, pos)
	if err != nil {
		return Null, err
	}
	switch v.Kind {
	case KindBool:
		return v, nil
	case KindStr:
		switch v.AsStr() {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		}
		return Null, NewError(ErrTypeFail, pos, "cannot convert %q to bool", v.AsStr())
	}
	return Null, NewError(ErrTypeFail, pos, "cannot convert %s to bool", v.Kind)
}
