package loader

import (
	"context"

	"github.com/reoring/salad"
)

type recordLoader struct {
	name      string
	fromDoc   salad.FromDocFunc
	registry  *salad.Registry
	container string
}

// Record checks that the document is a mapping and hands it to fromDoc. A
// non-empty container becomes the scope for identifiers inside the record.
func Record(name string, fromDoc salad.FromDocFunc, container string) salad.Loader {
	return &recordLoader{name: name, fromDoc: fromDoc, container: container}
}

// RecordOf is Record with the constructor looked up in reg at load time, so
// recursive record types can refer to each other before they are registered.
func RecordOf(reg *salad.Registry, name, container string) salad.Loader {
	return &recordLoader{name: name, registry: reg, container: container}
}

func (r *recordLoader) Load(ctx context.Context, doc salad.Value, baseURI string, opts *salad.LoadingOptions, docRoot string) (any, error) {
	m, ok := doc.(*salad.Mapping)
	if !ok {
		return nil, salad.Coded(salad.CodeExpectedMap, map[string]string{"actual": salad.KindOf(doc).String()})
	}
	fn := r.fromDoc
	if fn == nil {
		var err error
		if fn, err = r.registry.Lookup(r.name); err != nil {
			return nil, err
		}
	}
	if r.container != "" {
		opts = opts.Derive(salad.WithContainer(r.container))
	}
	return fn(ctx, m, baseURI, opts, docRoot)
}

func (r *recordLoader) String() string { return r.name }
