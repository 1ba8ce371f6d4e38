package loader

import (
	"context"

	"github.com/reoring/salad"
)

type idMapLoader struct {
	inner     salad.Loader
	subject   string
	predicate string
}

// IdMap accepts the short form of a list of records: a mapping from each
// record's key to either the record itself or its single predicate value.
//
//	inputs: {a: File, b: {type: int}}
//
// becomes
//
//	[{type: File, id: a}, {type: int, id: b}]
//
// with subject "id" and predicate "type". Entries built from non-mapping
// values come first, then entries built from mappings, each group in input
// order. The rewritten list goes to inner; values that are not mappings go to
// inner unchanged.
func IdMap(inner salad.Loader, subject, predicate string) salad.Loader {
	return &idMapLoader{inner: inner, subject: subject, predicate: predicate}
}

func (l *idMapLoader) Load(ctx context.Context, doc salad.Value, baseURI string, opts *salad.LoadingOptions, docRoot string) (any, error) {
	m, ok := doc.(*salad.Mapping)
	if !ok || m.Has(salad.DirectiveImport) || m.Has(salad.DirectiveInclude) {
		return l.inner.Load(ctx, doc, baseURI, opts, docRoot)
	}
	var fromScalars, fromMappings salad.Sequence
	for k, v := range m.All() {
		if vm, isMap := v.(*salad.Mapping); isMap {
			if vm.Has(l.subject) {
				return nil, salad.Coded(salad.CodeKeyCollision, map[string]string{"key": k, "field": l.subject}).
					At(opts.Index().KeyPosition(m, k))
			}
			entry := vm.Clone()
			opts.Index().CopyPositions(entry, vm)
			entry.Set(l.subject, salad.String(k))
			fromMappings = append(fromMappings, entry)
			continue
		}
		if l.predicate == "" {
			return nil, salad.Coded(salad.CodeNoMapPredicate, nil)
		}
		entry := salad.NewMapping()
		entry.Set(l.predicate, v)
		entry.Set(l.subject, salad.String(k))
		opts.Index().SetPosition(entry, opts.Index().KeyPosition(m, k))
		fromScalars = append(fromScalars, entry)
	}
	return l.inner.Load(ctx, append(fromScalars, fromMappings...), baseURI, opts, docRoot)
}

func (l *idMapLoader) String() string { return l.inner.String() }
