package salad

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/reoring/salad/metrics"
)

// Fetcher turns URLs into document text. It is the only I/O boundary of a
// load. FetchText failures abort the load.
type Fetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
	// CheckExists reports whether url names an existing resource.
	CheckExists(ctx context.Context, url string) (bool, error)
	URLJoin(base, ref string) (string, error)
	SupportedSchemes() []string
}

// DefaultSchemes lists the URI schemes treated as absolute identifiers.
var DefaultSchemes = []string{"file", "http", "https", "mailto"}

// ErrUnsupportedScheme is returned by fetchers for URLs they cannot serve.
var ErrUnsupportedScheme = errors.New("unsupported URI scheme")

// ---- DefaultFetcher ----

// DefaultFetcher reads file: URLs from the local filesystem and http(s): URLs
// with an HTTP client.
type DefaultFetcher struct {
	Client *http.Client
}

// NewDefaultFetcher returns a DefaultFetcher using http.DefaultClient.
func NewDefaultFetcher() *DefaultFetcher {
	return &DefaultFetcher{Client: http.DefaultClient}
}

func (f *DefaultFetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func (f *DefaultFetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	p, err := splitURI(rawURL)
	if err != nil {
		return "", err
	}
	switch p.scheme {
	case "file":
		name, err := url.PathUnescape(p.path)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrFetch, rawURL, err)
		}
		b, err := os.ReadFile(name)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrFetch, rawURL, err)
		}
		return string(b), nil
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrFetch, rawURL, err)
		}
		req.Header.Set("Accept", "application/json, application/yaml, text/yaml, */*;q=0.8")
		resp, err := f.client().Do(req)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrFetch, rawURL, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return "", fmt.Errorf("%w: %s: HTTP status %s", ErrFetch, rawURL, resp.Status)
		}
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrFetch, rawURL, err)
		}
		return string(b), nil
	}
	return "", fmt.Errorf("%w: %s: %w", ErrFetch, rawURL, ErrUnsupportedScheme)
}

func (f *DefaultFetcher) CheckExists(ctx context.Context, rawURL string) (bool, error) {
	p, err := splitURI(rawURL)
	if err != nil {
		return false, err
	}
	switch p.scheme {
	case "file":
		name, err := url.PathUnescape(p.path)
		if err != nil {
			return false, err
		}
		_, err = os.Stat(name)
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return err == nil, err
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
		if err != nil {
			return false, err
		}
		resp, err := f.client().Do(req)
		if err != nil {
			return false, nil
		}
		resp.Body.Close()
		return resp.StatusCode >= 200 && resp.StatusCode <= 299, nil
	case "mailto":
		return true, nil
	}
	return false, fmt.Errorf("%s: %w", rawURL, ErrUnsupportedScheme)
}

func (f *DefaultFetcher) URLJoin(base, ref string) (string, error) { return URLJoin(base, ref) }
func (f *DefaultFetcher) SupportedSchemes() []string               { return DefaultSchemes }

// ---- MemoryFetcher ----

// MemoryFetcher serves documents from an in-memory map keyed by URL.
type MemoryFetcher struct {
	mu    sync.RWMutex
	docs  map[string]string
	calls map[string]int
}

// NewMemoryFetcher returns a MemoryFetcher preloaded with docs.
func NewMemoryFetcher(docs map[string]string) *MemoryFetcher {
	m := &MemoryFetcher{docs: make(map[string]string, len(docs)), calls: map[string]int{}}
	for k, v := range docs {
		m.docs[k] = v
	}
	return m
}

// Add stores text under url.
func (m *MemoryFetcher) Add(url, text string) {
	m.mu.Lock()
	m.docs[url] = text
	m.mu.Unlock()
}

// Calls reports how many times FetchText was asked for url.
func (m *MemoryFetcher) Calls(url string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[url]
}

func (m *MemoryFetcher) FetchText(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrFetch, url, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[url]++
	text, ok := m.docs[url]
	if !ok {
		return "", fmt.Errorf("%w: %s: %w", ErrFetch, url, fs.ErrNotExist)
	}
	return text, nil
}

func (m *MemoryFetcher) CheckExists(_ context.Context, url string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.docs[url]
	return ok, nil
}

func (m *MemoryFetcher) URLJoin(base, ref string) (string, error) { return URLJoin(base, ref) }
func (m *MemoryFetcher) SupportedSchemes() []string               { return DefaultSchemes }

// ---- CachingFetcher ----

// CachingFetcher keeps recently fetched texts in a bounded LRU cache in front
// of another Fetcher. Unlike the per-session document index it can be shared
// by many loads.
type CachingFetcher struct {
	inner   Fetcher
	texts   *lru.Cache[string, string]
	exists  *lru.Cache[string, bool]
	metrics *metrics.Metrics
}

// NewCachingFetcher wraps inner with caches holding up to size entries each.
// m may be nil.
func NewCachingFetcher(inner Fetcher, size int, m *metrics.Metrics) (*CachingFetcher, error) {
	texts, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	exists, err := lru.New[string, bool](size)
	if err != nil {
		return nil, err
	}
	return &CachingFetcher{inner: inner, texts: texts, exists: exists, metrics: m}, nil
}

func (c *CachingFetcher) FetchText(ctx context.Context, url string) (string, error) {
	if text, ok := c.texts.Get(url); ok {
		c.metrics.RecordCacheHit("fetcher")
		return text, nil
	}
	text, err := c.inner.FetchText(ctx, url)
	if err != nil {
		return "", err
	}
	c.texts.Add(url, text)
	return text, nil
}

// CheckExists caches positive answers only, so a resource created later is
// still found.
func (c *CachingFetcher) CheckExists(ctx context.Context, url string) (bool, error) {
	if c.texts.Contains(url) {
		return true, nil
	}
	if ok, hit := c.exists.Get(url); hit {
		return ok, nil
	}
	ok, err := c.inner.CheckExists(ctx, url)
	if err == nil && ok {
		c.exists.Add(url, true)
	}
	return ok, err
}

// Purge drops every cached entry.
func (c *CachingFetcher) Purge() {
	c.texts.Purge()
	c.exists.Purge()
}

func (c *CachingFetcher) URLJoin(base, ref string) (string, error) { return c.inner.URLJoin(base, ref) }
func (c *CachingFetcher) SupportedSchemes() []string               { return c.inner.SupportedSchemes() }

func supportsScheme(f Fetcher, scheme string) bool {
	if f == nil {
		return slices.Contains(DefaultSchemes, scheme)
	}
	return slices.Contains(f.SupportedSchemes(), scheme)
}
