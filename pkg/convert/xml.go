package convert

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/ucg-lang/ucg/pkg/eval"
)

// XMLConverter renders a value tree as XML. The tree follows the element
// convention: every element is a tuple with a str field "name", an
// optional tuple field "attrs" of scalar attributes, and an optional list
// field "children" whose entries are nested elements or plain strings
// (text nodes). A bare string converts to a text node.
type XMLConverter struct{}

// Convert implements Converter.
func (c *XMLConverter) Convert(v eval.Value, w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := writeXML(&buf, v); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

// FileExt implements Converter.
func (c *XMLConverter) FileExt() string { return "xml" }

// Description implements Converter.
func (c *XMLConverter) Description() string { return "Convert ucg values into XML." }

func writeXML(buf *bytes.Buffer, v eval.Value) error {
	switch v.Kind {
	case eval.KindStr:
		return xml.EscapeText(buf, []byte(v.AsStr()))
	case eval.KindInt, eval.KindFloat, eval.KindBool:
		return xml.EscapeText(buf, []byte(v.String()))
	case eval.KindTuple:
		return writeXMLElement(buf, v.AsTuple())
	}
	return errNotSerializable("xml", v)
}

func writeXMLElement(buf *bytes.Buffer, t *eval.Tuple) error {
	nameVal, ok := t.Get("name")
	if !ok || nameVal.Kind != eval.KindStr {
		return fmt.Errorf("xml conversion: element tuple needs a str field %q", "name")
	}
	name := nameVal.AsStr()
	buf.WriteByte('<')
	buf.WriteString(name)
	if attrsVal, ok := t.Get("attrs"); ok {
		if attrsVal.Kind != eval.KindTuple {
			return fmt.Errorf("xml conversion: attrs must be a tuple, got %s", attrsVal.Kind)
		}
		for _, a := range attrsVal.AsTuple().Fields() {
			switch a.Val.Kind {
			case eval.KindStr, eval.KindInt, eval.KindFloat, eval.KindBool:
				buf.WriteByte(' ')
				buf.WriteString(a.Name)
				buf.WriteString(`="`)
				if err := xml.EscapeText(buf, []byte(a.Val.String())); err != nil {
					return err
				}
				buf.WriteByte('"')
			default:
				return fmt.Errorf("xml conversion: attribute %q must be scalar, got %s", a.Name, a.Val.Kind)
			}
		}
	}
	childrenVal, hasChildren := t.Get("children")
	if !hasChildren {
		buf.WriteString("/>")
		return nil
	}
	if childrenVal.Kind != eval.KindList {
		return fmt.Errorf("xml conversion: children must be a list, got %s", childrenVal.Kind)
	}
	buf.WriteByte('>')
	for _, child := range childrenVal.AsList() {
		if err := writeXML(buf, child); err != nil {
			return err
		}
	}
	buf.WriteString("</")
	buf.WriteString(name)
	buf.WriteByte('>')
	return nil
}
