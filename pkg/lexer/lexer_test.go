package lexer

import (
	"testing"
)

func kinds(toks []Token) []TokenType {
	out := make([]TokenType, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func TestLexKinds(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []TokenType
	}{
		{
			name: "let statement",
			src:  `let x = 1;`,
			want: []TokenType{LET, IDENT, ASSIGN, INT, SEMI, EOF},
		},
		{
			name: "float and int",
			src:  `1.5 10`,
			want: []TokenType{FLOAT, INT, EOF},
		},
		{
			name: "selector keeps ints",
			src:  `list.0`,
			want: []TokenType{IDENT, DOT, INT, EOF},
		},
		{
			name: "operators",
			src:  `== != <= >= < > && || => = + - * / %`,
			want: []TokenType{EQEQ, NOTEQ, LTEQ, GTEQ, LT, GT, ANDAND, OROR, FATARROW, ASSIGN, PLUS, MINUS, STAR, SLASH, PERCENT, EOF},
		},
		{
			name: "keywords",
			src:  `let assert out import as select func module fail mod env NULL true false not in is`,
			want: []TokenType{LET, ASSERT, OUT, IMPORT, AS, SELECT, FUNC, MODULE, FAIL, MOD, ENV, NULL, TRUE, FALSE, NOT, IN, IS, EOF},
		},
		{
			name: "punctuation",
			src:  `{ } ( ) [ ] , ; : . @`,
			want: []TokenType{LBRACE, RBRACE, LPAREN, RPAREN, LBRACK, RBRACK, COMMA, SEMI, COLON, DOT, AT, EOF},
		},
		{
			name: "comment discarded",
			src:  "1 // trailing comment\n2",
			want: []TokenType{INT, INT, EOF},
		},
		{
			name: "range colons",
			src:  `0:2:6`,
			want: []TokenType{INT, COLON, INT, COLON, INT, EOF},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Lex(tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := kinds(toks)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d: got %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLexStrings(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"plain", `"hello"`, "hello"},
		{"escapes", `"a\"b\\c\nd\te"`, "a\"b\\c\nd\te"},
		{"escaped at preserved", `"x \@ y"`, `x \@ y`},
		{"at kept literal", `"a @ b"`, "a @ b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Lex(tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if toks[0].Type != STRING || toks[0].Lexeme != tt.want {
				t.Errorf("got %q, want %q", toks[0].Lexeme, tt.want)
			}
		})
	}
}

func TestLexPositions(t *testing.T) {
	src := "let x = 1;\n// comment\nlet y = 2;"
	toks, err := Lex(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The second `let` follows a comment line; comments must preserve the
	// line count.
	var second *Token
	count := 0
	for i := range toks {
		if toks[i].Type == LET {
			count++
			if count == 2 {
				second = &toks[i]
			}
		}
	}
	if second == nil {
		t.Fatal("second let not found")
	}
	if second.Pos.Line != 3 || second.Pos.Column != 1 {
		t.Errorf("second let at %s, want 3:1", second.Pos)
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unterminated string", `"abc`},
		{"string broken by newline", "\"abc\n\""},
		{"illegal byte", "let x = \x01;"},
		{"lone ampersand", "a & b"},
		{"unknown escape", `"\q"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lex(tt.src)
			if err == nil {
				t.Fatal("expected a lex error")
			}
			le, ok := err.(*Error)
			if !ok {
				t.Fatalf("expected *Error, got %T", err)
			}
			if le.Pos.Line < 1 || le.Pos.Column < 1 {
				t.Errorf("error position missing: %+v", le.Pos)
			}
		})
	}
}
