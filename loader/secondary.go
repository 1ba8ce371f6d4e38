package loader

import (
	"context"
	"strings"

	"github.com/reoring/salad"
)

type secondaryDSLLoader struct {
	inner salad.Loader
}

// SecondaryDSL normalizes the secondaryFiles shorthand before passing it to
// inner. A string "p" becomes {pattern: p} and "p?" becomes
// {pattern: p, required: false}; a mapping keeps its pattern and required
// keys; a sequence may mix both. The result is always a sequence.
func SecondaryDSL(inner salad.Loader) salad.Loader {
	return &secondaryDSLLoader{inner: inner}
}

func (s *secondaryDSLLoader) Load(ctx context.Context, doc salad.Value, baseURI string, opts *salad.LoadingOptions, docRoot string) (any, error) {
	var out salad.Sequence
	switch t := doc.(type) {
	case salad.String, *salad.Mapping:
		e, err := secondaryEntry(t)
		if err != nil {
			return nil, err
		}
		out = salad.Sequence{e}
	case salad.Sequence:
		out = make(salad.Sequence, 0, len(t))
		for _, d := range t {
			e, err := secondaryEntry(d)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
	default:
		return nil, salad.Coded(salad.CodeSecondaryFiles, nil)
	}
	return s.inner.Load(ctx, out, baseURI, opts, docRoot)
}

func secondaryEntry(d salad.Value) (*salad.Mapping, error) {
	switch t := d.(type) {
	case salad.String:
		e := salad.NewMapping()
		if p, optional := strings.CutSuffix(string(t), "?"); optional {
			e.Set("pattern", salad.String(p))
			e.Set("required", salad.Bool(false))
		} else {
			e.Set("pattern", t)
		}
		return e, nil
	case *salad.Mapping:
		pattern, ok := t.Get("pattern")
		if !ok {
			return nil, salad.Coded(salad.CodeSecondaryMiss, nil)
		}
		e := salad.NewMapping()
		e.Set("pattern", pattern)
		if req, ok := t.Get("required"); ok {
			e.Set("required", req)
		}
		var extra []string
		for k := range t.All() {
			if k != "pattern" && k != "required" {
				extra = append(extra, "`"+k+"`")
			}
		}
		if len(extra) > 0 {
			return nil, salad.Coded(salad.CodeSecondaryExtra, nil, salad.Errorf("unexpected keys: %s", strings.Join(extra, ", ")))
		}
		return e, nil
	}
	return nil, salad.Coded(salad.CodeSecondaryFiles, nil)
}

func (s *secondaryDSLLoader) String() string { return s.inner.String() }
