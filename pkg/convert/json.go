package convert

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"

	"github.com/ucg-lang/ucg/pkg/eval"
)

// JSONConverter renders a value tree as JSON. Tuple fields keep their
// insertion order, which encoding/json's map marshalling would not.
type JSONConverter struct{}

// Convert implements Converter.
func (c *JSONConverter) Convert(v eval.Value, w io.Writer) error {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

// FileExt implements Converter.
func (c *JSONConverter) FileExt() string { return "json" }

// Description implements Converter.
func (c *JSONConverter) Description() string { return "Convert ucg values into JSON." }

func writeJSON(buf *bytes.Buffer, v eval.Value) error {
	switch v.Kind {
	case eval.KindNull:
		buf.WriteString("null")
	case eval.KindBool:
		buf.WriteString(strconv.FormatBool(v.AsBool()))
	case eval.KindInt:
		buf.WriteString(strconv.FormatInt(v.AsInt(), 10))
	case eval.KindFloat:
		b, err := json.Marshal(v.AsFloat())
		if err != nil {
			return err
		}
		buf.Write(b)
	case eval.KindStr:
		b, err := json.Marshal(v.AsStr())
		if err != nil {
			return err
		}
		buf.Write(b)
	case eval.KindList:
		buf.WriteByte('[')
		for i, el := range v.AsList() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, el); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case eval.KindTuple:
		buf.WriteByte('{')
		for i, f := range v.AsTuple().Fields() {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(f.Name)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeJSON(buf, f.Val); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return errNotSerializable("json", v)
	}
	return nil
}
