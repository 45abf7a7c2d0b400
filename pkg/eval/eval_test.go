package eval

import (
	"strings"
	"testing"

	"github.com/ucg-lang/ucg/pkg/ast"
	"github.com/ucg-lang/ucg/pkg/parser"
)

// runFile evaluates a sequence of statements the way the driver would and
// returns the environment, so tests can exercise let bindings without
// depending on the build package.
func runFile(t *testing.T, src string, opts ...Option) (*Evaluator, *Env) {
	t.Helper()
	file, err := parser.ParseFile("test.ucg", src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	ev := New("test.ucg", opts...)
	env := NewEnv(Base())
	for _, stmt := range file.Stmts {
		let, ok := stmt.(*ast.LetStmt)
		if !ok {
			t.Fatalf("runFile only handles let statements, got %T", stmt)
		}
		v, err := ev.Eval(env, let.Value)
		if err != nil {
			t.Fatalf("eval %q: %v", let.Name, err)
		}
		if err := env.Define(let.Name, v, let.NamePos); err != nil {
			t.Fatalf("define %q: %v", let.Name, err)
		}
	}
	return ev, env
}

// evalIn reduces a single expression against an environment built from the
// given let statements.
func evalIn(t *testing.T, lets, expr string, opts ...Option) (Value, error) {
	t.Helper()
	ev, env := runFile(t, lets, opts...)
	e, err := parser.ParseExpr(expr)
	if err != nil {
		t.Fatalf("parse expr %q: %v", expr, err)
	}
	return ev.Eval(env, e)
}

func mustEval(t *testing.T, lets, expr string, opts ...Option) Value {
	t.Helper()
	v, err := evalIn(t, lets, expr, opts...)
	if err != nil {
		t.Fatalf("eval %q: %v", expr, err)
	}
	return v
}

func TestArithmeticAndConcat(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want Value
	}{
		{"int add", "1 + 1", Int(2)},
		{"int sub", "5 - 8", Int(-3)},
		{"int mul", "6 * 7", Int(42)},
		{"int div truncates", "7 / 2", Int(3)},
		{"int div negative truncates toward zero", "-7 / 2", Int(-3)},
		{"float add", "1.5 + 2.25", Float(3.75)},
		{"str concat", `"foo" + "bar"`, Str("foobar")},
		{"list concat", `["a"] + ["b"]`, List([]Value{Str("a"), Str("b")})},
		{"mixed list elements", `[1] + ["b"]`, List([]Value{Int(1), Str("b")})},
		{"unary minus", "-(2 + 3)", Int(-5)},
		{"precedence", "2 + 3 * 4", Int(14)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustEval(t, "", tt.expr)
			if !got.Equal(tt.want) {
				t.Errorf("%s = %s, want %s", tt.expr, got.Literal(), tt.want.Literal())
			}
		})
	}
}

func TestTypeFailures(t *testing.T) {
	tests := []struct {
		name string
		lets string
		expr string
	}{
		{"int plus float", "", "1 + 1.0"},
		{"int plus str", "", `1 + "1"`},
		{"list plus str", "", `["a"] + "b"`},
		{"sub on str", "", `"a" - "b"`},
		{"ordering across types", "", `1 < "2"`},
		{"not on int", "", "not 1"},
		{"and on int", "", "1 && true"},
		{"division by zero", "", "1 / 0"},
		{"call non-func", "let x = 1;", "x(1)"},
		{"override changes type", "let t = {a=1};", `t{a="x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := evalIn(t, tt.lets, tt.expr)
			if err == nil {
				t.Fatalf("%s: expected TypeFail, got none", tt.expr)
			}
			if !IsTypeFail(err) {
				t.Errorf("%s: expected TypeFail, got %v", tt.expr, err)
			}
		})
	}
}

func TestEquality(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"ints", "1 + 1 == 2", true},
		{"kind mismatch is unequal", "1 == 1.0", false},
		{"strings", `"a" == "a"`, true},
		{"lists", "[1, 2] == [1, 2]", true},
		{"tuples ignore order", "{a=1, b=2} == {b=2, a=1}", true},
		{"nested", `{l=[1, {x="y"}]} == {l=[1, {x="y"}]}`, true},
		{"not equal", "1 != 2", true},
		{"null equals null", "NULL == NULL", true},
		{"nan is not itself", "(0.0 / 0.0) == (0.0 / 0.0)", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustEval(t, "", tt.expr)
			if got.Kind != KindBool || got.AsBool() != tt.want {
				t.Errorf("%s = %s, want %v", tt.expr, got.Literal(), tt.want)
			}
		})
	}
}

func TestTupleCopyOnModify(t *testing.T) {
	lets := `
let t = {a = 1, b = "x"};
let u = t{a = 2, c = true};
`
	v := mustEval(t, lets, `u.a == 2 && u.b == "x" && u.c == true && t.a == 1`)
	if !v.AsBool() {
		t.Fatal("copy-on-modify semantics violated")
	}
	// The base must not grow the added field.
	if mustEval(t, lets, "c in t").AsBool() {
		t.Error("copy mutated the base tuple")
	}
}

func TestSelectors(t *testing.T) {
	lets := `
let t = {a = {b = [10, 20, 30]}};
let key = "a";
let grid = [[1, 2], [3, 4]];
`
	tests := []struct {
		name string
		expr string
		want Value
	}{
		{"chained", "t.a.b.1", Int(20)},
		{"dynamic str", `t.(key).b.0`, Int(10)},
		{"dynamic int", "t.a.b.(1 + 1)", Int(30)},
		{"adjacent numeric subscripts", "grid.1.0", Int(3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustEval(t, lets, tt.expr)
			if !got.Equal(tt.want) {
				t.Errorf("%s = %s, want %s", tt.expr, got.Literal(), tt.want.Literal())
			}
		})
	}

	t.Run("missing field", func(t *testing.T) {
		_, err := evalIn(t, lets, "t.nope")
		if !IsIndexError(err) {
			t.Errorf("expected IndexError, got %v", err)
		}
	})
	t.Run("index out of range", func(t *testing.T) {
		_, err := evalIn(t, lets, "t.a.b.3")
		if !IsIndexError(err) {
			t.Errorf("expected IndexError, got %v", err)
		}
	})
	t.Run("undefined name", func(t *testing.T) {
		_, err := evalIn(t, "", "nosuch")
		if !IsNameError(err) {
			t.Errorf("expected NameError, got %v", err)
		}
	})
}

func TestFunctions(t *testing.T) {
	lets := `
let f = func (x, y) => x + y;
let adder = func (n) => func (x) => x + n;
`
	if got := mustEval(t, lets, "f(2, 3)"); !got.Equal(Int(5)) {
		t.Errorf("f(2, 3) = %s, want 5", got.Literal())
	}
	if got := mustEval(t, lets, "adder(10)(32)"); !got.Equal(Int(42)) {
		t.Errorf("closure capture broken: got %s", got.Literal())
	}
	if _, err := evalIn(t, lets, `f(2, "3")`); !IsTypeFail(err) {
		t.Errorf("expected TypeFail, got %v", err)
	}
	if _, err := evalIn(t, lets, "f(1)"); !IsArityError(err) {
		t.Errorf("expected ArityError, got %v", err)
	}
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want Value
	}{
		{"match", `select "qa", 0 { qa = 80, prod = 443 }`, Int(80)},
		{"default", `select "dev", 22 { qa = 80 }`, Int(22)},
		{"lazy branches", `select "a", fail "boom" { a = 1, b = fail "boom" }`, Int(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustEval(t, "", tt.expr)
			if !got.Equal(tt.want) {
				t.Errorf("%s = %s, want %s", tt.expr, got.Literal(), tt.want.Literal())
			}
		})
	}

	t.Run("no match without default", func(t *testing.T) {
		_, err := evalIn(t, "", `select "x" { a = 1 }`)
		if !IsIndexError(err) {
			t.Errorf("expected IndexError, got %v", err)
		}
	})
	t.Run("non-str key", func(t *testing.T) {
		_, err := evalIn(t, "", "select 1, 2 { a = 3 }")
		if !IsTypeFail(err) {
			t.Errorf("expected TypeFail, got %v", err)
		}
	})
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		lets string
		expr string
		want string
	}{
		{"basic", "", `"foo @ @ \@" % (1, "bar")`, "foo 1 bar @"},
		{"single arg", "", `"port=@" % (8080)`, "port=8080"},
		{"tuple spread", `let args = {a = 1, b = "two"};`, `"@-@" % args`, "1-two"},
		{"composite arg", "", `"@" % ([1, "x"])`, `[1, "x"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustEval(t, tt.lets, tt.expr)
			if got.Kind != KindStr || got.AsStr() != tt.want {
				t.Errorf("%s = %s, want %q", tt.expr, got.Literal(), tt.want)
			}
		})
	}

	t.Run("too few args", func(t *testing.T) {
		_, err := evalIn(t, "", `"@ @" % (1)`)
		if !IsArityError(err) {
			t.Errorf("expected ArityError, got %v", err)
		}
	})
	t.Run("too many args", func(t *testing.T) {
		_, err := evalIn(t, "", `"@" % (1, 2)`)
		if !IsArityError(err) {
			t.Errorf("expected ArityError, got %v", err)
		}
	})
}

func TestRanges(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"simple", "1:5 == [1, 2, 3, 4, 5]"},
		{"stepped", "0:2:6 == [0, 2, 4, 6]"},
		{"stepped uneven", "0:2:5 == [0, 2, 4]"},
		{"empty", "5:1 == []"},
		{"single", "3:3 == [3]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustEval(t, "", tt.expr)
			if !got.AsBool() {
				t.Errorf("%s was false", tt.expr)
			}
		})
	}

	t.Run("length property", func(t *testing.T) {
		for a := int64(0); a <= 3; a++ {
			for b := a; b <= 6; b++ {
				lets := ""
				v := mustEval(t, lets, Int(a).String()+":"+Int(b).String())
				if int64(len(v.AsList())) != b-a+1 {
					t.Errorf("length(%d:%d) = %d, want %d", a, b, len(v.AsList()), b-a+1)
				}
			}
		}
	})
	t.Run("bad step", func(t *testing.T) {
		_, err := evalIn(t, "", "1:0:5")
		if !IsTypeFail(err) {
			t.Errorf("expected TypeFail, got %v", err)
		}
	})
}

func TestInAndIs(t *testing.T) {
	lets := `let t = {a = 1};`
	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"present", "a in t", true},
		{"absent", "b in t", false},
		{"str key", `"a" in t`, true},
		{"is int", "1 is int", true},
		{"is not str", "1 is str", false},
		{"is tuple", "t is tuple", true},
		{"is list", "[1] is list", true},
		{"is null", "NULL is null", true},
		{"func is func", "(func (x) => x) is func", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustEval(t, lets, tt.expr)
			if got.AsBool() != tt.want {
				t.Errorf("%s = %v, want %v", tt.expr, got.AsBool(), tt.want)
			}
		})
	}
}

func TestLogicShortCircuit(t *testing.T) {
	// `fail` on the right of || must stay unevaluated when the left side
	// already decides.
	v := mustEval(t, "", `true || fail "unreachable"`)
	if !v.AsBool() {
		t.Fatal("|| short-circuit broken")
	}
	v = mustEval(t, "", `false && fail "unreachable"`)
	if v.AsBool() {
		t.Fatal("&& short-circuit broken")
	}
	_, err := evalIn(t, "", `false || fail "boom"`)
	if !IsUserFail(err) {
		t.Fatalf("expected UserFail, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "boom") {
		t.Errorf("fail message lost: %v", err)
	}
}

func TestEnvView(t *testing.T) {
	lookup := func(name string) (string, bool) {
		if name == "DEPLOY_ENV" {
			return "qa", true
		}
		return "", false
	}
	v := mustEval(t, "", "env.DEPLOY_ENV", WithEnvLookup(lookup))
	if !v.Equal(Str("qa")) {
		t.Errorf("env.DEPLOY_ENV = %s, want qa", v.Literal())
	}
	v = mustEval(t, "", "env.MISSING", WithEnvLookup(lookup))
	if v.Kind != KindNull {
		t.Errorf("missing variable should be NULL, got %s", v.Literal())
	}
	v = mustEval(t, "", "DEPLOY_ENV in env", WithEnvLookup(lookup))
	if !v.AsBool() {
		t.Error("presence test against env failed")
	}
	_, err := evalIn(t, "", "env.MISSING", WithEnvLookup(lookup), WithStrictEnv(true))
	if !IsIndexError(err) {
		t.Errorf("strict mode should error on missing variable, got %v", err)
	}
}

func TestModules(t *testing.T) {
	t.Run("binding tuple result", func(t *testing.T) {
		lets := `
let srv = module { host = "localhost", port = 80 } => {
	let addr = "@:@" % (mod.host, mod.port);
	let cfg = { host = mod.host, port = mod.port };
};
let qa = srv{port = 8080};
`
		v := mustEval(t, lets, `qa.addr == "localhost:8080" && qa.cfg.port == 8080`)
		if !v.AsBool() {
			t.Fatal("module instantiation with overrides broken")
		}
	})

	t.Run("out expression result", func(t *testing.T) {
		lets := `
let addr = module { host = "h", port = 1 } => ("@:@" % (mod.host, mod.port)) {
	let unused = true;
};
`
		v := mustEval(t, lets, `addr{host = "db", port = 5432}`)
		if !v.Equal(Str("db:5432")) {
			t.Errorf("out expression result = %s", v.Literal())
		}
	})

	t.Run("override type check", func(t *testing.T) {
		lets := `let m = module { port = 80 } => { let p = mod.port; };`
		_, err := evalIn(t, lets, `m{port = "80"}`)
		if !IsTypeFail(err) {
			t.Errorf("expected TypeFail, got %v", err)
		}
	})

	t.Run("defaults survive", func(t *testing.T) {
		lets := `
let m = module { a = 1, b = 2 } => { let sum = mod.a + mod.b; };
let r = m{b = 40};
`
		if got := mustEval(t, lets, "r.sum"); !got.Equal(Int(41)) {
			t.Errorf("r.sum = %s, want 41", got.Literal())
		}
	})

	t.Run("runaway recursion reports", func(t *testing.T) {
		lets := `let boom = module { } => { let again = mod.this{}; };`
		_, err := evalIn(t, lets, "boom{}", WithMaxDepth(40))
		if !IsUserFail(err) {
			t.Fatalf("expected UserFail for runaway recursion, got %v", err)
		}
		if !strings.Contains(err.Error(), "recursion depth") {
			t.Errorf("unhelpful recursion error: %v", err)
		}
	})

	t.Run("out statement rejected in body", func(t *testing.T) {
		lets := `let m = module { } => { out json { a = 1 }; };`
		_, err := evalIn(t, lets, "m{}")
		if !IsTypeFail(err) {
			t.Errorf("expected TypeFail, got %v", err)
		}
	})
}

func TestBuiltins(t *testing.T) {
	lets := `
let double = func (x) => x * 2;
let evens = func (x) => x / 2 * 2 == x;
let add = func (a, b) => a + b;
let upperpair = func (k, v) => [k + k, v];
let keep = func (k, v) => v is int;
let sum3 = func (acc, k, v) => acc + v;
`
	tests := []struct {
		name string
		expr string
		want Value
	}{
		{"map list", "map(double, [1, 2, 3])", List([]Value{Int(2), Int(4), Int(6)})},
		{"filter list", "filter(evens, 1:6)", List([]Value{Int(2), Int(4), Int(6)})},
		{"reduce list", "reduce(add, 0, 1:4)", Int(10)},
		{"reduce list into str", `reduce(add, "", ["a", "b"])`, Str("ab")},
		{"int from str", `int("42")`, Int(42)},
		{"int truncates", "int(1.9)", Int(1)},
		{"float from int", "float(2)", Float(2)},
		{"str of list", "str([1, 2])", Str("[1, 2]")},
		{"bool from str", `bool("true")`, Bool(true)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustEval(t, lets, tt.expr)
			if !got.Equal(tt.want) {
				t.Errorf("%s = %s, want %s", tt.expr, got.Literal(), tt.want.Literal())
			}
		})
	}

	t.Run("map tuple", func(t *testing.T) {
		got := mustEval(t, lets, "map(upperpair, {a = 1})")
		want, ok := got.AsTuple().Get("aa")
		if !ok || !want.Equal(Int(1)) {
			t.Errorf("map over tuple = %s", got.Literal())
		}
	})
	t.Run("filter tuple", func(t *testing.T) {
		got := mustEval(t, lets, `filter(keep, {a = 1, b = "x"})`)
		if got.AsTuple().Len() != 1 || !got.AsTuple().Has("a") {
			t.Errorf("filter over tuple = %s", got.Literal())
		}
	})
	t.Run("reduce tuple", func(t *testing.T) {
		got := mustEval(t, lets, "reduce(sum3, 0, {a = 1, b = 2})")
		if !got.Equal(Int(3)) {
			t.Errorf("reduce over tuple = %s", got.Literal())
		}
	})
	t.Run("map str", func(t *testing.T) {
		lets := lets + `let dup = func (c) => c + c;`
		got := mustEval(t, lets, `map(dup, "ab")`)
		if !got.Equal(Str("aabb")) {
			t.Errorf("map over str = %s", got.Literal())
		}
	})
	t.Run("bad conversion", func(t *testing.T) {
		_, err := evalIn(t, "", `int("nope")`)
		if !IsTypeFail(err) {
			t.Errorf("expected TypeFail, got %v", err)
		}
	})
}

func TestDeterminism(t *testing.T) {
	// The same source must reduce to structurally equal values every time.
	src := `let v = {a = map(func (x) => x * x, 1:4), b = select "k", "d" { k = "v" }};`
	_, env1 := runFile(t, src)
	_, env2 := runFile(t, src)
	v1, _ := env1.Lookup("v")
	v2, _ := env2.Lookup("v")
	if !v1.Equal(v2) {
		t.Fatalf("evaluation is not deterministic: %s vs %s", v1.Literal(), v2.Literal())
	}
}

func TestPrinter(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string
	}{
		{"nested literal", `{a = [1, "x"], b = NULL}`, `{a = [1, "x"], b = NULL}`},
		{"float keeps dot", "2.0", "2.0"},
		{"bool", "true", "true"},
		{"quoted escapes", `{s = "a\"b"}`, `{s = "a\"b"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustEval(t, "", tt.expr)
			if got.Literal() != tt.want {
				t.Errorf("Literal() = %s, want %s", got.Literal(), tt.want)
			}
		})
	}
}
