package convert

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ucg-lang/ucg/pkg/eval"
)

// ExecConverter renders a runnable POSIX sh script from a tuple with a
// required str field "command", an optional tuple field "env" of scalar
// exports, and an optional list field "args" of scalar arguments.
type ExecConverter struct{}

// Convert implements Converter.
func (c *ExecConverter) Convert(v eval.Value, w io.Writer) error {
	if v.Kind != eval.KindTuple {
		return fmt.Errorf("exec conversion: top-level value must be a tuple, got %s", v.Kind)
	}
	t := v.AsTuple()
	cmdVal, ok := t.Get("command")
	if !ok || cmdVal.Kind != eval.KindStr {
		return fmt.Errorf("exec conversion: tuple needs a str field %q", "command")
	}

	var buf bytes.Buffer
	buf.WriteString("#!/usr/bin/env sh\n")
	buf.WriteString("# Generated by ucg. Do not edit.\n")

	if envVal, ok := t.Get("env"); ok {
		if envVal.Kind != eval.KindTuple {
			return fmt.Errorf("exec conversion: env must be a tuple, got %s", envVal.Kind)
		}
		for _, f := range envVal.AsTuple().Fields() {
			switch f.Val.Kind {
			case eval.KindStr, eval.KindInt, eval.KindFloat, eval.KindBool:
				fmt.Fprintf(&buf, "export %s=%s\n", f.Name, shellQuote(f.Val.String()))
			default:
				return fmt.Errorf("exec conversion: env field %q must be scalar, got %s", f.Name, f.Val.Kind)
			}
		}
	}

	buf.WriteString("exec ")
	buf.WriteString(shellQuote(cmdVal.AsStr()))
	if argsVal, ok := t.Get("args"); ok {
		if argsVal.Kind != eval.KindList {
			return fmt.Errorf("exec conversion: args must be a list, got %s", argsVal.Kind)
		}
		for i, a := range argsVal.AsList() {
			switch a.Kind {
			case eval.KindStr, eval.KindInt, eval.KindFloat, eval.KindBool:
				buf.WriteByte(' ')
				buf.WriteString(shellQuote(a.String()))
			default:
				return fmt.Errorf("exec conversion: arg %d must be scalar, got %s", i, a.Kind)
			}
		}
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

// FileExt implements Converter.
func (c *ExecConverter) FileExt() string { return "sh" }

// Description implements Converter.
func (c *ExecConverter) Description() string { return "Convert ucg values into an executable shell script." }
