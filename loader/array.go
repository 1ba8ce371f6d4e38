package loader

import (
	"context"
	"strconv"

	"github.com/reoring/salad"
)

type arrayLoader struct {
	items salad.Loader
}

// Array loads a sequence element by element through items. A nested sequence
// is tried as an array first and its elements are flattened into the result,
// unless the active container is "@list". Every failing element is reported,
// in input order.
func Array(items salad.Loader) salad.Loader {
	return &arrayLoader{items: items}
}

func (a *arrayLoader) Load(ctx context.Context, doc salad.Value, baseURI string, opts *salad.LoadingOptions, _ string) (any, error) {
	seq, ok := doc.(salad.Sequence)
	if !ok {
		return nil, salad.Coded(salad.CodeExpectedList, nil)
	}
	flatten := opts.Container() != "@list"
	out := make([]any, 0, len(seq))
	var errs []*salad.ValidationError
	seen := map[string]bool{}
	for i, elem := range seq {
		var pos salad.Position
		if m, isMap := elem.(*salad.Mapping); isMap {
			pos = opts.Index().Position(m)
		}
		res, err := salad.LoadField(ctx, elem, a.elementLoader(elem), baseURI, opts)
		if err != nil {
			ve, ok := salad.AsValidationError(err)
			if !ok {
				return nil, err
			}
			errs = append(errs, salad.Coded(salad.CodeArrayItem, map[string]string{"index": strconv.Itoa(i)}, ve).At(pos))
			continue
		}
		if nested, isList := res.([]any); isList && flatten {
			out = append(out, nested...)
		} else {
			out = append(out, res)
		}
		if m, isMap := elem.(*salad.Mapping); isMap {
			if id, hasID := m.Get("id"); hasID {
				if s, isStr := id.(salad.String); isStr {
					if seen[string(s)] {
						errs = append(errs, salad.Coded(salad.CodeDuplicateID, map[string]string{"id": string(s)}).
							At(opts.Index().KeyPosition(m, "id")))
					}
					seen[string(s)] = true
				}
			}
		}
	}
	if len(errs) > 0 {
		return nil, salad.NewValidationError("", errs...)
	}
	return out, nil
}

// elementLoader picks the loader for one element: nested sequences and
// imports may produce lists, everything else can only be an item.
func (a *arrayLoader) elementLoader(elem salad.Value) salad.Loader {
	switch t := elem.(type) {
	case salad.Sequence:
		return Union(a, a.items)
	case *salad.Mapping:
		if t.Has(salad.DirectiveImport) {
			return Union(a, a.items)
		}
	}
	return a.items
}

func (a *arrayLoader) String() string { return "array<" + a.items.String() + ">" }

type mapLoader struct {
	name      string
	values    salad.Loader
	container string
}

// Map loads a mapping whose values go through values. A value that is itself
// a mapping is tried as a nested map first, then through values. The result
// is a *salad.Object in input key order. name labels the loader in union
// errors; a non-empty container scopes identifiers below the map.
func Map(name string, values salad.Loader, container string) salad.Loader {
	return &mapLoader{name: name, values: values, container: container}
}

func (m *mapLoader) Load(ctx context.Context, doc salad.Value, baseURI string, opts *salad.LoadingOptions, _ string) (any, error) {
	mp, ok := doc.(*salad.Mapping)
	if !ok {
		return nil, salad.Coded(salad.CodeExpectedMap, map[string]string{"actual": salad.KindOf(doc).String()})
	}
	if m.container != "" {
		opts = opts.Derive(salad.WithContainer(m.container))
	}
	out := salad.NewObject()
	var errs []*salad.ValidationError
	for k, v := range mp.All() {
		valueLoader := m.values
		if _, isMap := v.(*salad.Mapping); isMap {
			valueLoader = Union(m, m.values)
		}
		res, err := salad.LoadField(ctx, v, valueLoader, baseURI, opts)
		if err != nil {
			ve, ok := salad.AsValidationError(err)
			if !ok {
				return nil, err
			}
			errs = append(errs, salad.Coded(salad.CodeMapEntry, map[string]string{"key": k}, ve).
				At(opts.Index().KeyPosition(mp, k)))
			continue
		}
		out.Set(k, res)
	}
	if len(errs) > 0 {
		return nil, salad.NewValidationError("", errs...)
	}
	return out, nil
}

func (m *mapLoader) String() string {
	if m.name != "" {
		return m.name
	}
	return "map<" + m.values.String() + ">"
}
