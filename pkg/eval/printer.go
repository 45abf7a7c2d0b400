package eval

import (
	"strconv"
	"strings"
)

// String renders the canonical stringification used by format expressions
// and str(): strings appear without quotes, composites in UCG literal form.
func (v Value) String() string {
	if v.Kind == KindStr {
		return v.AsStr()
	}
	return v.Literal()
}

// Literal renders the value in UCG literal form; strings are quoted with
// escapes so the output parses back to an equal value.
func (v Value) Literal() string {
	var b strings.Builder
	v.writeLiteral(&b)
	return b.String()
}

func (v Value) writeLiteral(b *strings.Builder) {
	switch v.Kind {
	case KindNull:
		b.WriteString("NULL")
	case KindInt:
		b.WriteString(strconv.FormatInt(v.AsInt(), 10))
	case KindFloat:
		s := strconv.FormatFloat(v.AsFloat(), 'g', -1, 64)
		// A float literal always carries a dot.
		if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "Inf") && s != "NaN" {
			s += ".0"
		}
		b.WriteString(s)
	case KindStr:
		b.WriteString(quote(v.AsStr()))
	case KindBool:
		b.WriteString(strconv.FormatBool(v.AsBool()))
	case KindList:
		b.WriteByte('[')
		for i, el := range v.AsList() {
			if i > 0 {
				b.WriteString(", ")
			}
			el.writeLiteral(b)
		}
		b.WriteByte(']')
	case KindTuple:
		b.WriteByte('{')
		for i, f := range v.AsTuple().Fields() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(" = ")
			f.Val.writeLiteral(b)
		}
		b.WriteByte('}')
	case KindFunc:
		f := v.AsFunc()
		if f.Name != "" {
			b.WriteString("<func ")
			b.WriteString(f.Name)
			b.WriteByte('>')
			return
		}
		b.WriteString("<func(")
		b.WriteString(strings.Join(f.Params, ", "))
		b.WriteString(")>")
	case KindModule:
		b.WriteString("<module>")
	case KindEnv:
		b.WriteString("env")
	}
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			// The preserved \@ escape round-trips as written.
			if i+1 < len(s) && s[i+1] == '@' {
				b.WriteString(`\@`)
				i++
			} else {
				b.WriteString(`\\`)
			}
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
