package salad

import (
	"context"
	"maps"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Entry is a loaded document kept in the Index together with the options its
// directives produced.
type Entry struct {
	Result  any
	Options *LoadingOptions
	// loader that produced Result; a URL loaded through another loader is
	// loaded again from the cached document.
	loader string
}

// Index is the per-session document cache. Parsed documents are inserted once
// per URL and never replaced; fetch and parse of one URL happen at most once
// even when several loads ask for it concurrently. The Index also keeps the
// source positions of mappings parsed from YAML.
type Index struct {
	mu        sync.RWMutex
	docs      map[string]Value
	results   map[string]Entry
	positions sourceMap
	group     singleflight.Group
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{docs: map[string]Value{}, results: map[string]Entry{}, positions: sourceMap{}}
}

// Document returns the parsed document cached under url.
func (x *Index) Document(url string) (Value, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	v, ok := x.docs[url]
	return v, ok
}

// PutDocument caches doc under url unless a document is already cached there.
// It reports whether doc was stored.
func (x *Index) PutDocument(url string, doc Value) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.docs[url]; ok {
		return false
	}
	x.docs[url] = doc
	return true
}

// Result returns the loaded result cached under url.
func (x *Index) Result(url string) (Entry, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	e, ok := x.results[url]
	return e, ok
}

func (x *Index) putResult(url string, e Entry) {
	x.mu.Lock()
	x.results[url] = e
	x.mu.Unlock()
}

// URLs lists the URLs with a cached document, sorted.
func (x *Index) URLs() []string {
	x.mu.RLock()
	out := make([]string, 0, len(x.docs))
	for u := range x.docs {
		out = append(out, u)
	}
	x.mu.RUnlock()
	slices.Sort(out)
	return out
}

// Position returns where m starts in its source document. It is zero unless
// m was parsed from YAML in this session.
func (x *Index) Position(m *Mapping) Position {
	if x == nil {
		return Position{}
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	if p, ok := x.positions[m]; ok {
		return p.start
	}
	return Position{}
}

// KeyPosition returns where key sits in m, or where m starts when the key
// position is unknown.
func (x *Index) KeyPosition(m *Mapping, key string) Position {
	if x == nil {
		return Position{}
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	p, ok := x.positions[m]
	if !ok {
		return Position{}
	}
	if kp := p.keys[key]; !kp.IsZero() {
		return kp
	}
	return p.start
}

// SetPosition records pos as the start of m, for mappings a loader builds
// from parsed input.
func (x *Index) SetPosition(m *Mapping, pos Position) {
	if x == nil || pos.IsZero() {
		return
	}
	x.mu.Lock()
	x.positions[m] = &mappingPositions{start: pos, keys: map[string]Position{}}
	x.mu.Unlock()
}

// CopyPositions gives dst the positions recorded for src, e.g. after src was
// cloned.
func (x *Index) CopyPositions(dst, src *Mapping) {
	if x == nil || dst == src {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if p, ok := x.positions[src]; ok {
		x.positions[dst] = p
	}
}

func (x *Index) addPositions(sm sourceMap) {
	if len(sm) == 0 {
		return
	}
	x.mu.Lock()
	maps.Copy(x.positions, sm)
	x.mu.Unlock()
}

// fetch returns the parsed document for url, fetching and parsing it on first
// use. Concurrent callers for the same url share one fetch. The shared fetch
// is not cancelled with the caller that started it; each caller stops
// waiting when its own ctx is done.
func (x *Index) fetch(ctx context.Context, url string, opts *LoadingOptions) (Value, error) {
	if doc, ok := x.Document(url); ok {
		opts.metrics.RecordCacheHit("index")
		opts.logger.Debug().Str("url", url).Msg("document cache hit")
		return doc, nil
	}
	fetchCtx := context.WithoutCancel(ctx)
	ch := x.group.DoChan(url, func() (any, error) {
		if doc, ok := x.Document(url); ok {
			return doc, nil
		}
		scheme := ""
		if p, err := splitURI(url); err == nil {
			scheme = p.scheme
		}
		opts.logger.Debug().Str("url", url).Msg("fetching document")
		text, err := opts.fetcher.FetchText(fetchCtx, url)
		opts.metrics.RecordFetch(scheme, err)
		if err != nil {
			return nil, err
		}
		doc, pos, err := parseDocument(text, url, opts.parse, func(is ParseIssue) {
			opts.logger.Warn().Str("url", url).Str("path", is.Path).Str("code", is.Code).Msg(is.Message)
		})
		if err != nil {
			return nil, err
		}
		x.addPositions(pos)
		x.PutDocument(url, doc)
		return doc, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		if r.Shared {
			opts.logger.Debug().Str("url", url).Msg("shared in-flight fetch")
		}
		return r.Val.(Value), nil
	}
}
