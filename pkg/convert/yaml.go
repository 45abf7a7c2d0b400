package convert

import (
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ucg-lang/ucg/pkg/eval"
)

// YAMLConverter renders a value tree as YAML. It builds a yaml.Node
// document so tuple field order survives encoding.
type YAMLConverter struct{}

// Convert implements Converter.
func (c *YAMLConverter) Convert(v eval.Value, w io.Writer) error {
	node, err := yamlNode(v)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return err
	}
	return enc.Close()
}

// FileExt implements Converter.
func (c *YAMLConverter) FileExt() string { return "yaml" }

// Description implements Converter.
func (c *YAMLConverter) Description() string { return "Convert ucg values into YAML." }

func yamlNode(v eval.Value) (*yaml.Node, error) {
	switch v.Kind {
	case eval.KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case eval.KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.AsBool())}, nil
	case eval.KindInt:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v.AsInt(), 10)}, nil
	case eval.KindFloat:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(v.AsFloat(), 'g', -1, 64)}, nil
	case eval.KindStr:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.AsStr()}, nil
	case eval.KindList:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, el := range v.AsList() {
			child, err := yamlNode(el)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	case eval.KindTuple:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, f := range v.AsTuple().Fields() {
			key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Name}
			val, err := yamlNode(f.Val)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, key, val)
		}
		return node, nil
	}
	return nil, errNotSerializable("yaml", v)
}
