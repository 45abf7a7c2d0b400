package convert

import (
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"

	"github.com/ucg-lang/ucg/pkg/eval"
)

// TOMLConverter renders a value tree as TOML. TOML has no null, so NULL
// anywhere in the tree is a conversion error, and the top-level value must
// be a tuple.
type TOMLConverter struct{}

// Convert implements Converter.
func (c *TOMLConverter) Convert(v eval.Value, w io.Writer) error {
	if v.Kind != eval.KindTuple {
		return fmt.Errorf("toml conversion: top-level value must be a tuple, got %s", v.Kind)
	}
	native, err := tomlNative(v)
	if err != nil {
		return err
	}
	enc := toml.NewEncoder(w)
	return enc.Encode(native)
}

// FileExt implements Converter.
func (c *TOMLConverter) FileExt() string { return "toml" }

// Description implements Converter.
func (c *TOMLConverter) Description() string { return "Convert ucg values into TOML." }

func tomlNative(v eval.Value) (interface{}, error) {
	switch v.Kind {
	case eval.KindNull:
		return nil, fmt.Errorf("toml conversion: NULL is not representable in TOML")
	case eval.KindBool:
		return v.AsBool(), nil
	case eval.KindInt:
		return v.AsInt(), nil
	case eval.KindFloat:
		return v.AsFloat(), nil
	case eval.KindStr:
		return v.AsStr(), nil
	case eval.KindList:
		elems := v.AsList()
		out := make([]interface{}, 0, len(elems))
		for _, el := range elems {
			n, err := tomlNative(el)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	case eval.KindTuple:
		out := make(map[string]interface{}, v.AsTuple().Len())
		for _, f := range v.AsTuple().Fields() {
			n, err := tomlNative(f.Val)
			if err != nil {
				return nil, err
			}
			out[f.Name] = n
		}
		return out, nil
	}
	return nil, errNotSerializable("toml", v)
}
