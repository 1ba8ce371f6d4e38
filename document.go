package salad

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Document-level directive keys. They are reserved at the top level of a
// document mapping and stripped before the root loader sees it.
const (
	DirectiveBase       = "$base"
	DirectiveGraph      = "$graph"
	DirectiveNamespaces = "$namespaces"
	DirectiveSchemas    = "$schemas"
	DirectiveImport     = "$import"
	DirectiveInclude    = "$include"
)

// LoadDocument loads doc through root. doc may be a mapping, a sequence, or a
// string naming a document to fetch relative to baseURI. A nil opts starts a
// fresh session.
func LoadDocument(ctx context.Context, root Loader, doc Value, baseURI string, opts *LoadingOptions) (any, error) {
	res, _, err := LoadDocumentWithMetadata(ctx, root, doc, baseURI, opts)
	return res, err
}

// LoadDocumentWithMetadata is LoadDocument that also returns the options
// derived from the document's directives, for use with SaveWithMetadata.
func LoadDocumentWithMetadata(ctx context.Context, root Loader, doc Value, baseURI string, opts *LoadingOptions) (any, *LoadingOptions, error) {
	if opts == nil {
		opts = NewLoadingOptions()
	}
	start := time.Now()
	e, err := documentLoad(ctx, root, doc, baseURI, opts)
	observe(opts, start, err)
	if err != nil {
		return nil, nil, err
	}
	return e.Result, e.Options, nil
}

// LoadDocumentByString parses text and loads it as the document at uri.
func LoadDocumentByString(ctx context.Context, root Loader, text, uri string, opts *LoadingOptions) (any, error) {
	if opts == nil {
		opts = NewLoadingOptions()
	}
	start := time.Now()
	doc, pos, err := parseDocument(text, uri, opts.parse, func(is ParseIssue) {
		opts.logger.Warn().Str("url", uri).Str("path", is.Path).Str("code", is.Code).Msg(is.Message)
	})
	if err != nil {
		observe(opts, start, err)
		return nil, err
	}
	opts.idx.addPositions(pos)
	opts.idx.PutDocument(uri, doc)
	e, err := documentLoad(ctx, root, doc, uri, opts.Derive(WithFileURI(uri)))
	observe(opts, start, err)
	if err != nil {
		return nil, err
	}
	return e.Result, nil
}

// LoadDocumentByURL fetches, parses and loads the document at url.
func LoadDocumentByURL(ctx context.Context, root Loader, url string, opts *LoadingOptions) (any, error) {
	if opts == nil {
		opts = NewLoadingOptions()
	}
	start := time.Now()
	e, err := loadByURL(ctx, root, url, opts)
	observe(opts, start, err)
	if err != nil {
		return nil, err
	}
	return e.Result, nil
}

func observe(opts *LoadingOptions, start time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case IsFatal(err):
		outcome = "error"
	default:
		outcome = "invalid"
	}
	opts.metrics.ObserveLoad(outcome, time.Since(start))
}

func documentLoad(ctx context.Context, root Loader, doc Value, baseURI string, opts *LoadingOptions) (Entry, error) {
	switch d := doc.(type) {
	case String:
		url, err := opts.urlJoin(baseURI, string(d))
		if err != nil {
			return Entry{}, err
		}
		return loadByURL(ctx, root, url, opts)
	case *Mapping:
		return loadMapping(ctx, root, d, baseURI, opts)
	case Sequence:
		res, err := root.Load(ctx, d, baseURI, opts, "")
		if err != nil {
			return Entry{}, err
		}
		e := Entry{Result: res, Options: opts, loader: root.String()}
		opts.idx.putResult(baseURI, e)
		return e, nil
	}
	return Entry{}, Coded(CodeDocumentShape, map[string]string{"actual": KindOf(doc).String()})
}

func loadMapping(ctx context.Context, root Loader, doc *Mapping, baseURI string, opts *LoadingOptions) (Entry, error) {
	var derived []Option
	if len(opts.metadataFields) > 0 {
		addl := NewMapping()
		for _, f := range opts.metadataFields {
			if v, ok := doc.Get(f); ok {
				addl.Set(f, v)
			}
		}
		derived = append(derived, withAddlMetadata(addl))
	}

	docURI := baseURI
	if v, ok := doc.Get(DirectiveBase); ok {
		s, isStr := v.(String)
		if !isStr {
			return Entry{}, directiveError(DirectiveBase, "a string", v)
		}
		baseURI = string(s)
		derived = append(derived, WithBaseURI(baseURI))
	}
	if v, ok := doc.Get(DirectiveNamespaces); ok {
		ns, err := stringMap(DirectiveNamespaces, v)
		if err != nil {
			return Entry{}, err
		}
		derived = append(derived, WithNamespaces(ns))
	}
	if v, ok := doc.Get(DirectiveSchemas); ok {
		schemas, err := stringList(DirectiveSchemas, v)
		if err != nil {
			return Entry{}, err
		}
		derived = append(derived, WithSchemas(schemas))
	}
	if len(derived) > 0 {
		opts = opts.Derive(derived...)
		opts.logger.Debug().Str("base", baseURI).Strs("schemas", opts.schemas).Msg("applied document directives")
	}

	body := doc
	if doc.Has(DirectiveBase) || doc.Has(DirectiveNamespaces) || doc.Has(DirectiveSchemas) {
		body = doc.Clone()
		opts.idx.CopyPositions(body, doc)
		body.Delete(DirectiveBase)
		body.Delete(DirectiveNamespaces)
		body.Delete(DirectiveSchemas)
	}

	var (
		res any
		err error
	)
	if graph, ok := body.Get(DirectiveGraph); ok {
		res, err = root.Load(ctx, graph, baseURI, opts, "")
	} else {
		res, err = root.Load(ctx, body, baseURI, opts, baseURI)
	}
	if err != nil {
		return Entry{}, err
	}
	e := Entry{Result: res, Options: opts, loader: root.String()}
	opts.idx.putResult(baseURI, e)
	if docURI != baseURI {
		opts.idx.putResult(docURI, e)
	}
	return e, nil
}

func directiveError(directive, expected string, got Value) *ValidationError {
	return Coded(CodeDirective, map[string]string{"directive": directive, "expected": expected},
		Coded(CodeInvalidType, map[string]string{"expected": expected, "actual": KindOf(got).String()}))
}

func stringMap(directive string, v Value) (map[string]string, error) {
	m, ok := v.(*Mapping)
	if !ok {
		return nil, directiveError(directive, "a mapping of strings", v)
	}
	out := make(map[string]string, m.Len())
	for k, e := range m.All() {
		s, ok := e.(String)
		if !ok {
			return nil, directiveError(directive, "a mapping of strings", e)
		}
		out[k] = string(s)
	}
	return out, nil
}

func stringList(directive string, v Value) ([]string, error) {
	seq, ok := v.(Sequence)
	if !ok {
		if s, isStr := v.(String); isStr {
			return []string{string(s)}, nil
		}
		return nil, directiveError(directive, "a list of strings", v)
	}
	out := make([]string, 0, len(seq))
	for _, e := range seq {
		s, ok := e.(String)
		if !ok {
			return nil, directiveError(directive, "a list of strings", e)
		}
		out = append(out, string(s))
	}
	return out, nil
}

type importChainKey struct{}

func importChain(ctx context.Context) []string {
	chain, _ := ctx.Value(importChainKey{}).([]string)
	return chain
}

// loadByURL loads the document at url, reusing the session's cached result
// or parsed document when there is one. A fragment in url is ignored; the
// whole document is returned.
func loadByURL(ctx context.Context, root Loader, url string, opts *LoadingOptions) (Entry, error) {
	if e, ok := opts.idx.Result(url); ok && e.loader == root.String() {
		opts.metrics.RecordCacheHit("result")
		return e, nil
	}
	docURL, _, _ := strings.Cut(url, "#")
	if e, ok := opts.idx.Result(docURL); ok && e.loader == root.String() {
		opts.metrics.RecordCacheHit("result")
		return e, nil
	}

	chain := importChain(ctx)
	if slices.Contains(chain, docURL) {
		return Entry{}, Coded(CodeImportCycle, map[string]string{"uri": docURL})
	}
	ctx = context.WithValue(ctx, importChainKey{}, append(slices.Clip(chain), docURL))

	doc, err := opts.idx.fetch(ctx, docURL, opts)
	if err != nil {
		return Entry{}, err
	}
	return documentLoad(ctx, root, doc, docURL, opts.Derive(WithFileURI(docURL)))
}

// LoadField loads val through l, first resolving the field-level directives
// {$import: url}, which loads another document through l, and
// {$include: url}, which replaces val with the text of url. Both are resolved
// against the options' file URI.
func LoadField(ctx context.Context, val Value, l Loader, baseURI string, opts *LoadingOptions) (any, error) {
	if m, ok := val.(*Mapping); ok {
		if ref, ok := m.Get(DirectiveImport); ok {
			url, err := directiveURL(DirectiveImport, ref, opts)
			if err != nil {
				return nil, err
			}
			e, err := loadByURL(ctx, l, url, opts)
			if err != nil {
				return nil, err
			}
			opts.recordImport(url, false)
			opts.logger.Debug().Str("url", url).Msg("resolved $import")
			return e.Result, nil
		}
		if ref, ok := m.Get(DirectiveInclude); ok {
			url, err := directiveURL(DirectiveInclude, ref, opts)
			if err != nil {
				return nil, err
			}
			text, err := opts.fetcher.FetchText(ctx, url)
			if err != nil {
				return nil, err
			}
			opts.recordImport(url, true)
			opts.logger.Debug().Str("url", url).Msg("resolved $include")
			val = String(text)
		}
	}
	return l.Load(ctx, val, baseURI, opts, "")
}

func directiveURL(directive string, ref Value, opts *LoadingOptions) (string, error) {
	s, ok := ref.(String)
	if !ok {
		return "", directiveError(directive, "a string", ref)
	}
	if opts.fileURI == "" {
		return "", Coded(CodeImport, map[string]string{"directive": directive})
	}
	url, err := opts.urlJoin(opts.fileURI, string(s))
	if err != nil {
		return "", fmt.Errorf("%s %q: %w", directive, string(s), err)
	}
	return url, nil
}
