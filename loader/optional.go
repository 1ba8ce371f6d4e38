package loader

import (
	"context"

	"github.com/reoring/salad"
)

type optionalLoader struct {
	inner salad.Loader
}

// Optional loads null (or a missing value) as nil and delegates everything
// else to inner.
func Optional(inner salad.Loader) salad.Loader {
	return &optionalLoader{inner: inner}
}

func (o *optionalLoader) Load(ctx context.Context, doc salad.Value, baseURI string, opts *salad.LoadingOptions, docRoot string) (any, error) {
	if salad.IsNull(doc) {
		return nil, nil
	}
	return o.inner.Load(ctx, doc, baseURI, opts, docRoot)
}

func (o *optionalLoader) String() string { return o.inner.String() + "?" }
