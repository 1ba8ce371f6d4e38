package salad

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/reoring/salad/metrics"
)

// LoadingOptions is the per-session context threaded through every loader. A
// LoadingOptions is never modified after construction: Derive returns a copy
// with some fields replaced, so sibling subtrees can be loaded with
// independent options without locking.
type LoadingOptions struct {
	fileURI    string
	baseURI    string
	namespaces map[string]string
	schemas    []string
	baseVocab  map[string]string
	vocab      map[string]string
	rvocab     map[string]string
	container  string

	idx     *Index
	fetcher Fetcher
	logger  zerolog.Logger
	metrics *metrics.Metrics
	parse   ParseOpt

	linkCheck      bool
	metadataFields []string
	addlMetadata   *Mapping
	trail          *trail
}

// trail records the URLs pulled in by $import and $include during one session.
type trail struct {
	mu       sync.Mutex
	imports  []string
	includes []string
}

// Option configures a LoadingOptions.
type Option func(*LoadingOptions)

// NewLoadingOptions returns options for a fresh load session: an empty
// document index, the default fetcher and a disabled logger.
func NewLoadingOptions(opts ...Option) *LoadingOptions {
	o := &LoadingOptions{
		idx:     NewIndex(),
		fetcher: NewDefaultFetcher(),
		logger:  zerolog.Nop(),
		parse:   DefaultParseOpt(),
		trail:   &trail{},
	}
	for _, opt := range opts {
		opt(o)
	}
	o.rebuildVocab()
	return o
}

// Derive returns a copy of o with opts applied. Maps and slices are replaced,
// never mutated, so o is unaffected.
func (o *LoadingOptions) Derive(opts ...Option) *LoadingOptions {
	c := *o
	for _, opt := range opts {
		opt(&c)
	}
	c.rebuildVocab()
	return &c
}

// rebuildVocab merges the namespaces over the schema vocabulary.
func (o *LoadingOptions) rebuildVocab() {
	if len(o.namespaces) == 0 {
		o.vocab = o.baseVocab
	} else {
		o.vocab = maps.Clone(o.baseVocab)
		if o.vocab == nil {
			o.vocab = make(map[string]string, len(o.namespaces))
		}
		maps.Copy(o.vocab, o.namespaces)
	}
	o.rvocab = make(map[string]string, len(o.vocab))
	for k, v := range o.vocab {
		if prev, dup := o.rvocab[v]; !dup || k < prev {
			o.rvocab[v] = k
		}
	}
}

// WithFetcher sets the Fetcher used for documents, $import and $include.
func WithFetcher(f Fetcher) Option { return func(o *LoadingOptions) { o.fetcher = f } }

// WithFileURI sets the URI of the document being loaded.
func WithFileURI(uri string) Option { return func(o *LoadingOptions) { o.fileURI = uri } }

// WithBaseURI overrides the base URI, as the $base directive does.
func WithBaseURI(uri string) Option { return func(o *LoadingOptions) { o.baseURI = uri } }

// WithNamespaces replaces the namespace prefix map.
func WithNamespaces(ns map[string]string) Option {
	return func(o *LoadingOptions) { o.namespaces = maps.Clone(ns) }
}

// WithSchemas replaces the list of schema URIs.
func WithSchemas(schemas []string) Option {
	return func(o *LoadingOptions) { o.schemas = slices.Clone(schemas) }
}

// WithVocab sets the schema vocabulary (term to absolute URI). Generated
// schemas pass their full term table here.
func WithVocab(vocab map[string]string) Option {
	return func(o *LoadingOptions) { o.baseVocab = maps.Clone(vocab) }
}

// WithContainer sets the field scope used for scoped identifiers when the
// base URI carries no fragment.
func WithContainer(name string) Option { return func(o *LoadingOptions) { o.container = name } }

// WithIndex shares a document index between option sets.
func WithIndex(idx *Index) Option { return func(o *LoadingOptions) { o.idx = idx } }

// WithLogger sets the logger used for fetch, cache and directive events.
func WithLogger(l zerolog.Logger) Option { return func(o *LoadingOptions) { o.logger = l } }

// WithMetrics sets the Prometheus collectors updated during loads.
func WithMetrics(m *metrics.Metrics) Option { return func(o *LoadingOptions) { o.metrics = m } }

// WithParseOpt sets limits and duplicate key handling for parsed documents.
func WithParseOpt(p ParseOpt) Option { return func(o *LoadingOptions) { o.parse = p } }

// WithLinkCheck makes URI fields verify that expanded references exist.
func WithLinkCheck(enabled bool) Option { return func(o *LoadingOptions) { o.linkCheck = enabled } }

// WithMetadataFields names extra top-level document keys captured as
// metadata and re-emitted by SaveWithMetadata.
func WithMetadataFields(fields ...string) Option {
	return func(o *LoadingOptions) { o.metadataFields = slices.Clone(fields) }
}

func withAddlMetadata(m *Mapping) Option { return func(o *LoadingOptions) { o.addlMetadata = m } }

func (o *LoadingOptions) FileURI() string   { return o.fileURI }
func (o *LoadingOptions) BaseURI() string   { return o.baseURI }
func (o *LoadingOptions) Container() string { return o.container }
func (o *LoadingOptions) Index() *Index     { return o.idx }
func (o *LoadingOptions) Fetcher() Fetcher  { return o.fetcher }
func (o *LoadingOptions) LinkCheck() bool   { return o.linkCheck }

// Logger returns the session logger.
func (o *LoadingOptions) Logger() *zerolog.Logger { return &o.logger }

// Metrics returns the session collectors, possibly nil.
func (o *LoadingOptions) Metrics() *metrics.Metrics { return o.metrics }

// Namespaces returns a copy of the namespace prefix map.
func (o *LoadingOptions) Namespaces() map[string]string { return maps.Clone(o.namespaces) }

// Schemas returns a copy of the schema URI list.
func (o *LoadingOptions) Schemas() []string { return slices.Clone(o.schemas) }

// Vocab returns a copy of the effective vocabulary (schema terms plus namespaces).
func (o *LoadingOptions) Vocab() map[string]string { return maps.Clone(o.vocab) }

// AddlMetadata returns the captured metadata fields, possibly nil.
func (o *LoadingOptions) AddlMetadata() *Mapping { return o.addlMetadata }

// Imports lists the URLs loaded through $import so far in this session.
func (o *LoadingOptions) Imports() []string {
	o.trail.mu.Lock()
	defer o.trail.mu.Unlock()
	return slices.Clone(o.trail.imports)
}

// Includes lists the URLs inlined through $include so far in this session.
func (o *LoadingOptions) Includes() []string {
	o.trail.mu.Lock()
	defer o.trail.mu.Unlock()
	return slices.Clone(o.trail.includes)
}

func (o *LoadingOptions) recordImport(url string, include bool) {
	o.trail.mu.Lock()
	if include {
		o.trail.includes = append(o.trail.includes, url)
	} else {
		o.trail.imports = append(o.trail.imports, url)
	}
	o.trail.mu.Unlock()
	o.metrics.RecordImport()
}

func (o *LoadingOptions) supportsScheme(scheme string) bool {
	return supportsScheme(o.fetcher, scheme)
}

func (o *LoadingOptions) urlJoin(base, ref string) (string, error) {
	if o.fetcher == nil {
		return URLJoin(base, ref)
	}
	return o.fetcher.URLJoin(base, ref)
}

// CheckLink reports whether the resource uri points at exists. Documents
// already in the session index exist; URIs whose scheme the fetcher does not
// serve, such as blank nodes and vocabulary terms, are assumed to exist.
func (o *LoadingOptions) CheckLink(ctx context.Context, uri string) (bool, error) {
	docURL, _, _ := strings.Cut(uri, "#")
	if o.idx != nil {
		if _, ok := o.idx.Document(docURL); ok {
			return true, nil
		}
	}
	p, err := splitURI(docURL)
	if err != nil {
		return false, err
	}
	if o.fetcher == nil || p.scheme == "" || !o.supportsScheme(p.scheme) {
		return true, nil
	}
	return o.fetcher.CheckExists(ctx, docURL)
}
