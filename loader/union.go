package loader

import (
	"context"
	"strings"

	"github.com/reoring/salad"
)

type unionLoader struct {
	alternates []salad.Loader
}

// Union tries each alternate in order and returns the first success. When all
// fail, the error has one "tried `X` but" child per alternate and an empty
// message of its own, so it merges into any enclosing error. Fatal errors
// stop the search.
func Union(alternates ...salad.Loader) salad.Loader {
	return &unionLoader{alternates: alternates}
}

func (u *unionLoader) Load(ctx context.Context, doc salad.Value, baseURI string, opts *salad.LoadingOptions, docRoot string) (any, error) {
	var pos salad.Position
	if m, ok := doc.(*salad.Mapping); ok {
		pos = opts.Index().Position(m)
	}
	children := make([]*salad.ValidationError, 0, len(u.alternates))
	for _, alt := range u.alternates {
		res, err := alt.Load(ctx, doc, baseURI, opts, docRoot)
		if err == nil {
			return res, nil
		}
		ve, ok := salad.AsValidationError(err)
		if !ok {
			return nil, err
		}
		opts.Logger().Trace().Str("alternate", alt.String()).Msg("union alternate rejected")
		children = append(children, salad.Coded(salad.CodeUnionMismatch, map[string]string{"name": alt.String()}, ve).WithBullet("- ").At(pos))
	}
	return nil, salad.NewValidationError("", children...).WithBullet("- ")
}

func (u *unionLoader) String() string {
	names := make([]string, len(u.alternates))
	for i, alt := range u.alternates {
		names[i] = alt.String()
	}
	return strings.Join(names, " | ")
}
