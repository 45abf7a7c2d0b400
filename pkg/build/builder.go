package build

import (
	"github.com/ucg-lang/ucg/pkg/ast"
	"github.com/ucg-lang/ucg/pkg/eval"
)

// fileBuilder folds one file's statements into an environment, recording
// asserts and the single out artifact.
type fileBuilder struct {
	reg     *Registry
	path    string
	ev      *eval.Evaluator
	asserts []AssertResult
	out     *Artifact
}

func (r *Registry) newFileBuilder(path string, chain []string) *fileBuilder {
	b := &fileBuilder{reg: r, path: path}
	opts := []eval.Option{
		eval.WithImporter(&importer{reg: r, chain: chain}),
		eval.WithStrictEnv(r.strictEnv),
		eval.WithAssertHook(func(desc string, ok bool) {
			b.asserts = append(b.asserts, AssertResult{Path: path, Desc: desc, OK: ok})
		}),
	}
	if r.maxDepth > 0 {
		opts = append(opts, eval.WithMaxDepth(r.maxDepth))
	}
	if r.envLookup != nil {
		opts = append(opts, eval.WithEnvLookup(r.envLookup))
	}
	b.ev = eval.New(path, opts...)
	return b
}

// run evaluates the statements in order and returns the tuple of top-level
// let bindings, which is also the file's import value.
func (b *fileBuilder) run(file *ast.File) (eval.Value, error) {
	env := eval.NewEnv(eval.Base())
	bindings := eval.NewTuple()
	for _, stmt := range file.Stmts {
		switch s := stmt.(type) {
		case *ast.LetStmt:
			v, err := b.ev.Eval(env, s.Value)
			if err != nil {
				return eval.Null, err
			}
			if err := env.Define(s.Name, v, s.NamePos); err != nil {
				return eval.Null, err
			}
			bindings.Append(s.Name, v)
		case *ast.AssertStmt:
			v, err := b.ev.Eval(env, s.Expr)
			if err != nil {
				return eval.Null, err
			}
			desc, ok, err := eval.CheckAssert(v, s.Keyword)
			if err != nil {
				return eval.Null, err
			}
			b.asserts = append(b.asserts, AssertResult{Path: b.path, Desc: desc, OK: ok})
		case *ast.OutStmt:
			if b.out != nil {
				return eval.Null, eval.NewError(eval.ErrTypeFail, s.Keyword, "a file may declare at most one out statement")
			}
			if b.reg.knownConv != nil && !b.reg.knownConv(s.Converter) {
				return eval.Null, eval.NewError(eval.ErrTypeFail, s.ConverterPos, "unknown converter %q", s.Converter)
			}
			v, err := b.ev.Eval(env, s.Expr)
			if err != nil {
				return eval.Null, err
			}
			b.out = &Artifact{Converter: s.Converter, Pos: s.Keyword, Value: v}
		case *ast.ExprStmt:
			// Expressions are pure, so a bare expression statement is a
			// legal noop once it reduces cleanly.
			if _, err := b.ev.Eval(env, s.Expr); err != nil {
				return eval.Null, err
			}
		}
	}
	return eval.TupleVal(bindings), nil
}
