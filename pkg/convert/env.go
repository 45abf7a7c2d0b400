package convert

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ucg-lang/ucg/pkg/eval"
)

// EnvConverter renders a tuple of scalars as KEY=value lines suitable for
// shell sourcing. Nested lists and tuples have no env representation.
type EnvConverter struct{}

// Convert implements Converter.
func (c *EnvConverter) Convert(v eval.Value, w io.Writer) error {
	if v.Kind != eval.KindTuple {
		return fmt.Errorf("env conversion: top-level value must be a tuple, got %s", v.Kind)
	}
	var buf bytes.Buffer
	for _, f := range v.AsTuple().Fields() {
		switch f.Val.Kind {
		case eval.KindNull:
			// An unset variable renders as an empty assignment.
			fmt.Fprintf(&buf, "%s=\n", f.Name)
		case eval.KindStr, eval.KindInt, eval.KindFloat, eval.KindBool:
			fmt.Fprintf(&buf, "%s=%s\n", f.Name, shellQuote(f.Val.String()))
		default:
			return fmt.Errorf("env conversion: field %q must be scalar, got %s", f.Name, f.Val.Kind)
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// FileExt implements Converter.
func (c *EnvConverter) FileExt() string { return "env" }

// Description implements Converter.
func (c *EnvConverter) Description() string { return "Convert ucg values into environment variable lines." }

// shellQuote wraps a value in double quotes when it contains characters
// the shell would split or expand.
func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n\"'\\$`*?[](){}<>|&;#~") {
		return s
	}
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\', '$', '`':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
