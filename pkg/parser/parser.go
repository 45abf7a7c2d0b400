package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ucg-lang/ucg/pkg/ast"
	"github.com/ucg-lang/ucg/pkg/lexer"
)

// Error is a positional syntax error.
type Error struct {
	Pos ast.Position
	Msg string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: parse error: %s", e.Pos, e.Msg)
}

// ErrorList aggregates every syntax error found in one file.
type ErrorList []*Error

// Error implements the error interface by joining all messages.
func (l ErrorList) Error() string {
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// ParseFile lexes and parses a whole UCG source file. On syntax errors the
// returned error is an ErrorList; the partial file contains every statement
// that parsed cleanly.
func ParseFile(path, src string) (*ast.File, error) {
	toks, err := lexer.Lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	file := &ast.File{Path: path}
	for !p.at(lexer.EOF) {
		if p.at(lexer.SEMI) {
			p.errorf(p.cur().Pos, "unexpected ';'")
			p.recover()
			continue
		}
		stmt := p.parseStmt()
		if stmt != nil {
			file.Stmts = append(file.Stmts, stmt)
		} else {
			p.recover()
		}
	}
	if len(p.errs) > 0 {
		return file, p.errs
	}
	return file, nil
}

// ParseExpr parses a single expression, for REPL-style inspection.
func ParseExpr(src string) (ast.Expr, error) {
	toks, err := lexer.Lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e := p.parseExpr()
	if e == nil {
		return nil, p.errs
	}
	if !p.at(lexer.EOF) {
		p.errorf(p.cur().Pos, "unexpected %s after expression", p.cur().Type)
		return nil, p.errs
	}
	return e, nil
}

type parser struct {
	toks []lexer.Token
	pos  int
	errs ErrorList

	// noBrace suppresses the `{` postfix while parsing the key and default
	// of a select expression, where a brace always begins the branch set.
	noBrace bool
}

func (p *parser) cur() lexer.Token { return p.toks[p.pos] }

func (p *parser) at(t lexer.TokenType) bool { return p.cur().Type == t }

func (p *parser) next() lexer.Token {
	tok := p.toks[p.pos]
	if tok.Type != lexer.EOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(t lexer.TokenType) (lexer.Token, bool) {
	if p.at(t) {
		return p.next(), true
	}
	p.errorf(p.cur().Pos, "expected %s, found %s", t, describe(p.cur()))
	return p.cur(), false
}

func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.EOF:
		return "end of file"
	case lexer.IDENT, lexer.INT, lexer.FLOAT:
		return fmt.Sprintf("%s %q", tok.Type, tok.Lexeme)
	case lexer.STRING:
		return "string literal"
	default:
		return fmt.Sprintf("%q", tok.Lexeme)
	}
}

func (p *parser) errorf(pos ast.Position, format string, args ...interface{}) {
	p.errs = append(p.errs, &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

// recover skips forward to just past the next semicolon so that statement
// parsing can resume after an error.
func (p *parser) recover() {
	for !p.at(lexer.EOF) {
		if p.next().Type == lexer.SEMI {
			return
		}
	}
}

// parseStmt parses one statement including its terminating semicolon.
// It returns nil if the statement could not be parsed.
func (p *parser) parseStmt() ast.Stmt {
	mark := len(p.errs)
	var stmt ast.Stmt
	switch p.cur().Type {
	case lexer.LET:
		stmt = p.parseLet()
		if stmt == nil {
			return nil
		}
	case lexer.ASSERT:
		kw := p.next()
		e := p.parseExpr()
		if e == nil {
			return nil
		}
		stmt = &ast.AssertStmt{Keyword: kw.Pos, Expr: e}
	case lexer.OUT:
		kw := p.next()
		name, ok := p.expect(lexer.IDENT)
		if !ok {
			return nil
		}
		e := p.parseExpr()
		if e == nil {
			return nil
		}
		stmt = &ast.OutStmt{Keyword: kw.Pos, Converter: name.Lexeme, ConverterPos: name.Pos, Expr: e}
	default:
		e := p.parseExpr()
		if e == nil {
			return nil
		}
		stmt = &ast.ExprStmt{Expr: e}
	}
	if _, ok := p.expect(lexer.SEMI); !ok {
		return nil
	}
	if len(p.errs) > mark {
		return nil
	}
	return stmt
}

func (p *parser) parseLet() ast.Stmt {
	p.next() // let
	name, ok := p.expect(lexer.IDENT)
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.ASSIGN); !ok {
		return nil
	}
	val := p.parseExpr()
	if val == nil {
		return nil
	}
	return &ast.LetStmt{NamePos: name.Pos, Name: name.Lexeme, Value: val}
}

// parseExpr parses a full expression: the precedence ladder topped by the
// format operator, which binds loosest of all.
func (p *parser) parseExpr() ast.Expr {
	e := p.parseOr()
	if e == nil {
		return nil
	}
	if p.at(lexer.PERCENT) {
		op := p.next()
		args := p.parseFormatArgs()
		if args == nil {
			return nil
		}
		return &ast.FormatExpr{Fmt: e, OpPos: op.Pos, Args: args}
	}
	return e
}

// parseFormatArgs parses the right side of `%`: either a parenthesized
// argument list or a single postfix expression.
func (p *parser) parseFormatArgs() []ast.Expr {
	if p.at(lexer.LPAREN) {
		p.next()
		args := []ast.Expr{}
		saved := p.noBrace
		p.noBrace = false
		for !p.at(lexer.RPAREN) {
			a := p.parseExpr()
			if a == nil {
				p.noBrace = saved
				return nil
			}
			args = append(args, a)
			if !p.at(lexer.COMMA) {
				break
			}
			p.next()
		}
		p.noBrace = saved
		if _, ok := p.expect(lexer.RPAREN); !ok {
			return nil
		}
		return args
	}
	a := p.parsePostfix()
	if a == nil {
		return nil
	}
	return []ast.Expr{a}
}

func (p *parser) parseOr() ast.Expr {
	e := p.parseAnd()
	if e == nil {
		return nil
	}
	for p.at(lexer.OROR) {
		op := p.next()
		r := p.parseAnd()
		if r == nil {
			return nil
		}
		e = &ast.BinaryExpr{Op: ast.OpOr, OpPos: op.Pos, Left: e, Right: r}
	}
	return e
}

func (p *parser) parseAnd() ast.Expr {
	e := p.parseCmp()
	if e == nil {
		return nil
	}
	for p.at(lexer.ANDAND) {
		op := p.next()
		r := p.parseCmp()
		if r == nil {
			return nil
		}
		e = &ast.BinaryExpr{Op: ast.OpAnd, OpPos: op.Pos, Left: e, Right: r}
	}
	return e
}

var cmpOps = map[lexer.TokenType]ast.BinOp{
	lexer.EQEQ:  ast.OpEq,
	lexer.NOTEQ: ast.OpNotEq,
	lexer.LT:    ast.OpLt,
	lexer.LTEQ:  ast.OpLtEq,
	lexer.GT:    ast.OpGt,
	lexer.GTEQ:  ast.OpGtEq,
}

// parseCmp parses a single, non-associative comparison. The `in` and `is`
// tests live at this level as well.
func (p *parser) parseCmp() ast.Expr {
	e := p.parseRange()
	if e == nil {
		return nil
	}
	if op, ok := cmpOps[p.cur().Type]; ok {
		tok := p.next()
		r := p.parseRange()
		if r == nil {
			return nil
		}
		return &ast.BinaryExpr{Op: op, OpPos: tok.Pos, Left: e, Right: r}
	}
	switch p.cur().Type {
	case lexer.IN:
		tok := p.next()
		r := p.parseRange()
		if r == nil {
			return nil
		}
		return &ast.InExpr{Key: e, OpPos: tok.Pos, X: r}
	case lexer.IS:
		tok := p.next()
		// func and module are keywords but also name types.
		name := p.cur()
		switch name.Type {
		case lexer.IDENT, lexer.FUNC, lexer.MODULE:
			p.next()
		default:
			p.errorf(name.Pos, "expected type name, found %s", describe(name))
			return nil
		}
		return &ast.IsExpr{X: e, OpPos: tok.Pos, Type: name.Lexeme, TypePos: name.Pos}
	}
	return e
}

// parseRange parses `a:b` and `a:s:b` between the comparison and additive
// levels, so `1:5 == [1,2,3,4,5]` reads as a comparison of a range.
func (p *parser) parseRange() ast.Expr {
	e := p.parseAdd()
	if e == nil {
		return nil
	}
	if !p.at(lexer.COLON) {
		return e
	}
	p.next()
	second := p.parseAdd()
	if second == nil {
		return nil
	}
	if p.at(lexer.COLON) {
		p.next()
		end := p.parseAdd()
		if end == nil {
			return nil
		}
		return &ast.RangeExpr{Start: e, Step: second, End: end}
	}
	return &ast.RangeExpr{Start: e, End: second}
}

func (p *parser) parseAdd() ast.Expr {
	e := p.parseMul()
	if e == nil {
		return nil
	}
	for p.at(lexer.PLUS) || p.at(lexer.MINUS) {
		tok := p.next()
		op := ast.OpAdd
		if tok.Type == lexer.MINUS {
			op = ast.OpSub
		}
		r := p.parseMul()
		if r == nil {
			return nil
		}
		e = &ast.BinaryExpr{Op: op, OpPos: tok.Pos, Left: e, Right: r}
	}
	return e
}

func (p *parser) parseMul() ast.Expr {
	e := p.parseUnary()
	if e == nil {
		return nil
	}
	for p.at(lexer.STAR) || p.at(lexer.SLASH) {
		tok := p.next()
		op := ast.OpMul
		if tok.Type == lexer.SLASH {
			op = ast.OpDiv
		}
		r := p.parseUnary()
		if r == nil {
			return nil
		}
		e = &ast.BinaryExpr{Op: op, OpPos: tok.Pos, Left: e, Right: r}
	}
	return e
}

func (p *parser) parseUnary() ast.Expr {
	switch p.cur().Type {
	case lexer.NOT:
		tok := p.next()
		x := p.parseUnary()
		if x == nil {
			return nil
		}
		return &ast.UnaryExpr{Op: ast.OpNot, OpPos: tok.Pos, X: x}
	case lexer.MINUS:
		tok := p.next()
		x := p.parseUnary()
		if x == nil {
			return nil
		}
		return &ast.UnaryExpr{Op: ast.OpNeg, OpPos: tok.Pos, X: x}
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary expression followed by any chain of
// selectors, dynamic subscripts, calls, and copy blocks.
func (p *parser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	if e == nil {
		return nil
	}
	for {
		switch p.cur().Type {
		case lexer.DOT:
			p.next()
			switch p.cur().Type {
			case lexer.IDENT, lexer.MOD, lexer.ENV:
				tok := p.next()
				e = &ast.SelectorExpr{X: e, FieldPos: tok.Pos, Field: tok.Lexeme}
			case lexer.INT:
				tok := p.next()
				e = &ast.SelectorExpr{X: e, FieldPos: tok.Pos, Field: tok.Lexeme}
			case lexer.FLOAT:
				// `xs.0.1` lexes the subscript pair as a float; split it
				// back into two numeric selectors.
				tok := p.next()
				parts := strings.SplitN(tok.Lexeme, ".", 2)
				e = &ast.SelectorExpr{X: e, FieldPos: tok.Pos, Field: parts[0]}
				e = &ast.SelectorExpr{X: e, FieldPos: tok.Pos, Field: parts[1]}
			case lexer.LPAREN:
				lp := p.next()
				saved := p.noBrace
				p.noBrace = false
				idx := p.parseExpr()
				p.noBrace = saved
				if idx == nil {
					return nil
				}
				if _, ok := p.expect(lexer.RPAREN); !ok {
					return nil
				}
				e = &ast.IndexExpr{X: e, Lpar: lp.Pos, Index: idx}
			default:
				p.errorf(p.cur().Pos, "expected field name after '.', found %s", describe(p.cur()))
				return nil
			}
		case lexer.LPAREN:
			lp := p.next()
			var args []ast.Expr
			saved := p.noBrace
			p.noBrace = false
			for !p.at(lexer.RPAREN) {
				a := p.parseExpr()
				if a == nil {
					p.noBrace = saved
					return nil
				}
				args = append(args, a)
				if !p.at(lexer.COMMA) {
					break
				}
				p.next()
			}
			p.noBrace = saved
			if _, ok := p.expect(lexer.RPAREN); !ok {
				return nil
			}
			e = &ast.CallExpr{Fn: e, Lpar: lp.Pos, Args: args}
		case lexer.LBRACE:
			if p.noBrace || !copyable(e) {
				return e
			}
			lb := p.next()
			fields, ok := p.parseFieldList(lexer.RBRACE)
			if !ok {
				return nil
			}
			e = &ast.CopyExpr{Base: e, Lbrace: lb.Pos, Fields: fields}
		default:
			return e
		}
	}
}

// copyable reports whether a copy block may follow the expression. Copy
// applies to name-shaped expressions (identifiers, selector chains, calls,
// earlier copies), never to literals, so that `select k, 0 { ... }` parses
// the brace as the branch set rather than a copy of the default.
func copyable(e ast.Expr) bool {
	switch e.(type) {
	case *ast.Ident, *ast.SelectorExpr, *ast.IndexExpr, *ast.CallExpr, *ast.CopyExpr, *ast.ImportExpr:
		return true
	}
	return false
}

// parseFieldList parses `ID = expr, ...` up to the closing token, allowing
// a trailing comma. The opening delimiter must already be consumed.
func (p *parser) parseFieldList(closing lexer.TokenType) ([]ast.Field, bool) {
	saved := p.noBrace
	p.noBrace = false
	defer func() { p.noBrace = saved }()
	var fields []ast.Field
	for !p.at(closing) {
		name, ok := p.expect(lexer.IDENT)
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(lexer.ASSIGN); !ok {
			return nil, false
		}
		val := p.parseExpr()
		if val == nil {
			return nil, false
		}
		fields = append(fields, ast.Field{NamePos: name.Pos, Name: name.Lexeme, Value: val})
		if !p.at(lexer.COMMA) {
			break
		}
		p.next()
	}
	if _, ok := p.expect(closing); !ok {
		return nil, false
	}
	return fields, true
}

func (p *parser) parsePrimary() ast.Expr {
	tok := p.cur()
	switch tok.Type {
	case lexer.INT:
		p.next()
		v, _ := strconv.ParseInt(tok.Lexeme, 10, 64)
		return &ast.IntLit{ValuePos: tok.Pos, Value: v}
	case lexer.FLOAT:
		p.next()
		v, _ := strconv.ParseFloat(tok.Lexeme, 64)
		return &ast.FloatLit{ValuePos: tok.Pos, Value: v}
	case lexer.STRING:
		p.next()
		return &ast.StrLit{ValuePos: tok.Pos, Value: tok.Lexeme}
	case lexer.TRUE, lexer.FALSE:
		p.next()
		return &ast.BoolLit{ValuePos: tok.Pos, Value: tok.Type == lexer.TRUE}
	case lexer.NULL:
		p.next()
		return &ast.NullLit{ValuePos: tok.Pos}
	case lexer.ENV:
		p.next()
		return &ast.EnvExpr{Keyword: tok.Pos}
	case lexer.MOD:
		p.next()
		return &ast.Ident{NamePos: tok.Pos, Name: "mod"}
	case lexer.IDENT:
		p.next()
		return &ast.Ident{NamePos: tok.Pos, Name: tok.Lexeme}
	case lexer.LBRACK:
		return p.parseList()
	case lexer.LBRACE:
		p.next()
		fields, ok := p.parseFieldList(lexer.RBRACE)
		if !ok {
			return nil
		}
		return &ast.TupleExpr{Lbrace: tok.Pos, Fields: fields}
	case lexer.LPAREN:
		p.next()
		saved := p.noBrace
		p.noBrace = false
		e := p.parseExpr()
		p.noBrace = saved
		if e == nil {
			return nil
		}
		if _, ok := p.expect(lexer.RPAREN); !ok {
			return nil
		}
		return e
	case lexer.FUNC:
		return p.parseFunc()
	case lexer.MODULE:
		return p.parseModule()
	case lexer.SELECT:
		return p.parseSelect()
	case lexer.IMPORT:
		p.next()
		path, ok := p.expect(lexer.STRING)
		if !ok {
			return nil
		}
		return &ast.ImportExpr{Keyword: tok.Pos, Path: path.Lexeme}
	case lexer.FAIL:
		p.next()
		msg := p.parseUnary()
		if msg == nil {
			return nil
		}
		return &ast.FailExpr{Keyword: tok.Pos, Msg: msg}
	}
	p.errorf(tok.Pos, "unexpected %s", describe(tok))
	return nil
}

func (p *parser) parseList() ast.Expr {
	lb := p.next() // [
	saved := p.noBrace
	p.noBrace = false
	defer func() { p.noBrace = saved }()
	var elems []ast.Expr
	for !p.at(lexer.RBRACK) {
		e := p.parseExpr()
		if e == nil {
			return nil
		}
		elems = append(elems, e)
		if !p.at(lexer.COMMA) {
			break
		}
		p.next()
	}
	if _, ok := p.expect(lexer.RBRACK); !ok {
		return nil
	}
	return &ast.ListExpr{Lbrack: lb.Pos, Elems: elems}
}

func (p *parser) parseFunc() ast.Expr {
	kw := p.next() // func
	if _, ok := p.expect(lexer.LPAREN); !ok {
		return nil
	}
	var params []string
	seen := map[string]bool{}
	for !p.at(lexer.RPAREN) {
		name, ok := p.expect(lexer.IDENT)
		if !ok {
			return nil
		}
		if seen[name.Lexeme] {
			p.errorf(name.Pos, "duplicate parameter %q", name.Lexeme)
			return nil
		}
		seen[name.Lexeme] = true
		params = append(params, name.Lexeme)
		if !p.at(lexer.COMMA) {
			break
		}
		p.next()
	}
	if _, ok := p.expect(lexer.RPAREN); !ok {
		return nil
	}
	if _, ok := p.expect(lexer.FATARROW); !ok {
		return nil
	}
	body := p.parseExpr()
	if body == nil {
		return nil
	}
	return &ast.FuncExpr{Keyword: kw.Pos, Params: params, Body: body}
}

func (p *parser) parseModule() ast.Expr {
	kw := p.next() // module
	if _, ok := p.expect(lexer.LBRACE); !ok {
		return nil
	}
	defaults, ok := p.parseFieldList(lexer.RBRACE)
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.FATARROW); !ok {
		return nil
	}
	var out ast.Expr
	if p.at(lexer.LPAREN) {
		p.next()
		out = p.parseExpr()
		if out == nil {
			return nil
		}
		if _, ok := p.expect(lexer.RPAREN); !ok {
			return nil
		}
	}
	if _, ok := p.expect(lexer.LBRACE); !ok {
		return nil
	}
	var body []ast.Stmt
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		stmt := p.parseStmt()
		if stmt == nil {
			return nil
		}
		body = append(body, stmt)
	}
	if _, ok := p.expect(lexer.RBRACE); !ok {
		return nil
	}
	return &ast.ModuleExpr{Keyword: kw.Pos, Defaults: defaults, Out: out, Body: body}
}

// parseSelect parses `select key { branches }` and the defaulted form
// `select key, default { branches }`. Braces do not bind as copy blocks
// inside the key and default.
func (p *parser) parseSelect() ast.Expr {
	kw := p.next() // select
	saved := p.noBrace
	p.noBrace = true
	key := p.parseExpr()
	if key == nil {
		p.noBrace = saved
		return nil
	}
	var def ast.Expr
	if p.at(lexer.COMMA) {
		p.next()
		def = p.parseExpr()
		if def == nil {
			p.noBrace = saved
			return nil
		}
	}
	p.noBrace = saved
	if _, ok := p.expect(lexer.LBRACE); !ok {
		return nil
	}
	branches, ok := p.parseFieldList(lexer.RBRACE)
	if !ok {
		return nil
	}
	return &ast.SelectExpr{Keyword: kw.Pos, Key: key, Default: def, Branches: branches}
}
