package salad

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// DuplicateKeyError reports a duplicate key found in a YAML mapping with both
// the first occurrence position and the duplicate occurrence position.
type DuplicateKeyError struct {
	Key       string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate YAML key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
}

// parseYAML decodes a single YAML document into a Value. Timestamps stay
// strings, mapping key order is kept and duplicate keys are rejected. The
// positions of every mapping and key are returned, attributed to file.
func parseYAML(text, file string, opt ParseOpt) (Value, sourceMap, error) {
	dec := yaml.NewDecoder(strings.NewReader(text))
	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return Null{}, nil, nil
		}
		return nil, nil, err
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); err == nil {
		return nil, nil, errors.New("expected a single YAML document but found more")
	} else if !errors.Is(err, io.EOF) {
		return nil, nil, err
	}
	c := &yamlConverter{file: file, maxDepth: opt.MaxDepth, expanding: map[*yaml.Node]bool{}, pos: sourceMap{}}
	v, err := c.convert(&root, 0)
	if err != nil {
		return nil, nil, err
	}
	return v, c.pos, nil
}

type yamlConverter struct {
	file      string
	maxDepth  int
	expanding map[*yaml.Node]bool
	pos       sourceMap
}

func (c *yamlConverter) at(n *yaml.Node) Position {
	return Position{File: c.file, Line: n.Line, Col: n.Column}
}

func (c *yamlConverter) convert(n *yaml.Node, depth int) (Value, error) {
	if c.maxDepth > 0 && depth > c.maxDepth {
		return nil, fmt.Errorf("max depth exceeded at %d:%d", n.Line, n.Column)
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null{}, nil
		}
		return c.convert(n.Content[0], depth)
	case yaml.AliasNode:
		if c.expanding[n.Alias] {
			return nil, fmt.Errorf("recursive alias %q at %d:%d", n.Value, n.Line, n.Column)
		}
		c.expanding[n.Alias] = true
		defer delete(c.expanding, n.Alias)
		return c.convert(n.Alias, depth)
	case yaml.MappingNode:
		return c.mapping(n, depth)
	case yaml.SequenceNode:
		seq := make(Sequence, 0, len(n.Content))
		for _, e := range n.Content {
			v, err := c.convert(e, depth+1)
			if err != nil {
				return nil, err
			}
			seq = append(seq, v)
		}
		return seq, nil
	case yaml.ScalarNode:
		return scalar(n)
	}
	return Null{}, nil
}

func (c *yamlConverter) mapping(n *yaml.Node, depth int) (Value, error) {
	m := NewMapping()
	mp := &mappingPositions{start: c.at(n), keys: make(map[string]Position, len(n.Content)/2)}
	c.pos[m] = mp
	var merges []*yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind == yaml.ScalarNode && k.Tag == "!!merge" {
			merges = append(merges, v)
			continue
		}
		if k.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("unsupported non-scalar mapping key at %d:%d", k.Line, k.Column)
		}
		if first, dup := mp.keys[k.Value]; dup {
			return nil, &DuplicateKeyError{Key: k.Value, FirstLine: first.Line, FirstCol: first.Col, Line: k.Line, Col: k.Column}
		}
		mp.keys[k.Value] = c.at(k)
		val, err := c.convert(v, depth+1)
		if err != nil {
			return nil, err
		}
		m.Set(k.Value, val)
	}
	// explicit keys win over merged ones
	for _, src := range merges {
		mv, err := c.convert(src, depth+1)
		if err != nil {
			return nil, err
		}
		var sources []Value
		switch t := mv.(type) {
		case *Mapping:
			sources = []Value{t}
		case Sequence:
			sources = t
		default:
			return nil, fmt.Errorf("merge key expects a mapping at %d:%d", src.Line, src.Column)
		}
		for _, s := range sources {
			sm, ok := s.(*Mapping)
			if !ok {
				return nil, fmt.Errorf("merge key expects a mapping at %d:%d", src.Line, src.Column)
			}
			for k, v := range sm.All() {
				if m.Has(k) {
					continue
				}
				m.Set(k, v)
				if sp, ok := c.pos[sm]; ok {
					mp.keys[k] = sp.keys[k]
				}
			}
		}
	}
	return m, nil
}

func scalar(n *yaml.Node) (Value, error) {
	switch n.Tag {
	case "!!null":
		return Null{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return String(n.Value), nil
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return Int(i), nil
		}
		var f float64
		if err := n.Decode(&f); err == nil {
			return Float(f), nil
		}
		return String(n.Value), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return String(n.Value), nil
		}
		return Float(f), nil
	}
	// !!str, !!timestamp, !!binary and custom tags keep their literal text
	return String(n.Value), nil
}
