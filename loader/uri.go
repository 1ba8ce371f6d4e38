package loader

import (
	"context"

	"github.com/reoring/salad"
)

type uriLoader struct {
	inner       salad.Loader
	scopedID    bool
	vocabTerm   bool
	scopedRef   *int
	noLinkCheck bool
}

// URIOption configures a URI loader.
type URIOption func(*uriLoader)

// ScopedID marks the field as declaring an identifier that lives under the
// enclosing record's scope. Declarations are never link checked.
func ScopedID() URIOption { return func(u *uriLoader) { u.scopedID = true } }

// VocabTerm lets vocabulary terms stand for their absolute URIs.
func VocabTerm() URIOption { return func(u *uriLoader) { u.vocabTerm = true } }

// ScopedRef resolves references n fragment segments above the base.
func ScopedRef(n int) URIOption { return func(u *uriLoader) { u.scopedRef = salad.Ref(n) } }

// NoLinkCheck disables the existence check for this field.
func NoLinkCheck() URIOption { return func(u *uriLoader) { u.noLinkCheck = true } }

// URI expands a string, or every string of a sequence, with ExpandURL before
// passing the result to inner. With link checking enabled in the options, an
// expanded string that names a missing resource fails validation.
func URI(inner salad.Loader, opts ...URIOption) salad.Loader {
	u := &uriLoader{inner: inner}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *uriLoader) Load(ctx context.Context, doc salad.Value, baseURI string, opts *salad.LoadingOptions, docRoot string) (any, error) {
	switch t := doc.(type) {
	case salad.String:
		exp, err := opts.ExpandURL(string(t), baseURI, u.scopedID, u.vocabTerm, u.scopedRef)
		if err != nil {
			return nil, err
		}
		if err := u.checkLink(ctx, exp, opts); err != nil {
			return nil, err
		}
		doc = salad.String(exp)
	case salad.Sequence:
		out := make(salad.Sequence, len(t))
		for i, e := range t {
			s, ok := e.(salad.String)
			if !ok {
				out[i] = e
				continue
			}
			exp, err := opts.ExpandURL(string(s), baseURI, u.scopedID, u.vocabTerm, u.scopedRef)
			if err != nil {
				return nil, err
			}
			out[i] = salad.String(exp)
		}
		doc = out
	}
	return u.inner.Load(ctx, doc, baseURI, opts, docRoot)
}

func (u *uriLoader) checkLink(ctx context.Context, uri string, opts *salad.LoadingOptions) error {
	if !opts.LinkCheck() || u.noLinkCheck || u.scopedID {
		return nil
	}
	ok, err := opts.CheckLink(ctx, uri)
	if err != nil {
		opts.Logger().Debug().Err(err).Str("uri", uri).Msg("link check failed")
		return nil
	}
	if !ok {
		return salad.Coded(salad.CodeUndefinedRef, map[string]string{"uri": uri})
	}
	return nil
}

func (u *uriLoader) String() string { return u.inner.String() }
