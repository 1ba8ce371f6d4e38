package loader

import (
	"context"
	"strings"

	"github.com/reoring/salad"
)

type typeDSLLoader struct {
	inner    salad.Loader
	refScope *int
}

// TypeDSL expands the type shorthand before passing the result to inner:
// "T?" becomes ["null", T] and "T[]" becomes {type: array, items: T}, nesting
// for "T[][]". Type names are expanded as vocabulary terms resolved refScope
// fragment segments above the base. In a sequence, duplicate entries produced
// by the expansion are dropped.
func TypeDSL(inner salad.Loader, refScope int) salad.Loader {
	return &typeDSLLoader{inner: inner, refScope: salad.Ref(refScope)}
}

func (t *typeDSLLoader) Load(ctx context.Context, doc salad.Value, baseURI string, opts *salad.LoadingOptions, docRoot string) (any, error) {
	switch d := doc.(type) {
	case salad.String:
		r, err := t.resolve(string(d), baseURI, opts)
		if err != nil {
			return nil, err
		}
		doc = r
	case salad.Sequence:
		var out salad.Sequence
		add := func(v salad.Value) {
			for _, have := range out {
				if salad.Equal(have, v) {
					return
				}
			}
			out = append(out, v)
		}
		for _, e := range d {
			s, ok := e.(salad.String)
			if !ok {
				out = append(out, e)
				continue
			}
			r, err := t.resolve(string(s), baseURI, opts)
			if err != nil {
				return nil, err
			}
			if seq, isSeq := r.(salad.Sequence); isSeq {
				for _, v := range seq {
					add(v)
				}
			} else {
				add(r)
			}
		}
		doc = out
	}
	return t.inner.Load(ctx, doc, baseURI, opts, docRoot)
}

func (t *typeDSLLoader) resolve(s, baseURI string, opts *salad.LoadingOptions) (salad.Value, error) {
	name, optional := strings.CutSuffix(s, "?")
	var expanded salad.Value
	if items, isArray := strings.CutSuffix(name, "[]"); isArray {
		it, err := t.resolve(items, baseURI, opts)
		if err != nil {
			return nil, err
		}
		m := salad.NewMapping()
		m.Set("type", salad.String("array"))
		m.Set("items", it)
		expanded = m
	} else {
		u, err := opts.ExpandURL(name, baseURI, false, true, t.refScope)
		if err != nil {
			return nil, err
		}
		expanded = salad.String(u)
	}
	if optional {
		return salad.Sequence{salad.String("null"), expanded}, nil
	}
	return expanded, nil
}

func (t *typeDSLLoader) String() string { return t.inner.String() }
