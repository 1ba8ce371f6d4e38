package salad

import "context"

// Loader validates a raw document value and turns it into its loaded form.
//
// docRoot is the URI of the enclosing document when doc is that document's
// top-level mapping, and empty otherwise; records use it as a fallback
// identifier.
//
// A Loader returns a *ValidationError for data-shape problems. Any other error
// is fatal and must be returned unchanged by combinators.
type Loader interface {
	Load(ctx context.Context, doc Value, baseURI string, opts *LoadingOptions, docRoot string) (any, error)
	// String names the loaded type; unions use it to label alternatives.
	String() string
}
