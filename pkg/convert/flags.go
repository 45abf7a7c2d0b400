package convert

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ucg-lang/ucg/pkg/eval"
)

// FlagsConverter renders a tuple as command-line flags: `--key value` per
// field, repeated for list fields. A true bool renders the bare flag, a
// false bool and NULL render nothing.
type FlagsConverter struct{}

// Convert implements Converter.
func (c *FlagsConverter) Convert(v eval.Value, w io.Writer) error {
	if v.Kind != eval.KindTuple {
		return fmt.Errorf("flags conversion: top-level value must be a tuple, got %s", v.Kind)
	}
	var buf bytes.Buffer
	for _, f := range v.AsTuple().Fields() {
		if err := writeFlag(&buf, f.Name, f.Val); err != nil {
			return err
		}
	}
	buf.WriteByte('\n')
	_, err := w.Write(bytes.TrimLeft(buf.Bytes(), " "))
	return err
}

// FileExt implements Converter.
func (c *FlagsConverter) FileExt() string { return "txt" }

// Description implements Converter.
func (c *FlagsConverter) Description() string { return "Convert ucg values into command line flags." }

func writeFlag(buf *bytes.Buffer, name string, v eval.Value) error {
	switch v.Kind {
	case eval.KindNull:
		return nil
	case eval.KindBool:
		if v.AsBool() {
			fmt.Fprintf(buf, " --%s", name)
		}
		return nil
	case eval.KindStr, eval.KindInt, eval.KindFloat:
		fmt.Fprintf(buf, " --%s %s", name, shellQuote(v.String()))
		return nil
	case eval.KindList:
		for _, el := range v.AsList() {
			if err := writeFlag(buf, name, el); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("flags conversion: field %q must be scalar or list, got %s", name, v.Kind)
}
