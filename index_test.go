package salad_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reoring/salad"
	"github.com/reoring/salad/loader"
)

func TestIndex_PutDocumentInsertsOnce(t *testing.T) {
	idx := salad.NewIndex()
	first := salad.MappingOf("a", salad.Int(1))
	require.True(t, idx.PutDocument("file:///w/b.yml", first))
	require.False(t, idx.PutDocument("file:///w/b.yml", salad.MappingOf("a", salad.Int(2))))
	require.True(t, idx.PutDocument("file:///w/a.yml", salad.Sequence{}))

	got, ok := idx.Document("file:///w/b.yml")
	require.True(t, ok)
	require.Same(t, first, got)
	require.Equal(t, []string{"file:///w/a.yml", "file:///w/b.yml"}, idx.URLs())

	_, ok = idx.Result("file:///w/b.yml")
	require.False(t, ok)
}

func TestIndex_SharedBetweenSessions(t *testing.T) {
	idx := salad.NewIndex()
	idx.PutDocument("file:///w/doc.yml", salad.MappingOf("a", salad.Int(1)))
	f := salad.NewMemoryFetcher(nil)
	opts := salad.NewLoadingOptions(salad.WithIndex(idx), salad.WithFetcher(f))

	res, err := salad.LoadDocumentByURL(t.Context(), treeLoader{}, "file:///w/doc.yml", opts)
	require.NoError(t, err)
	a, _ := res.(*salad.Object).Get("a")
	require.Equal(t, salad.Int(1), a)
	require.Zero(t, f.Calls("file:///w/doc.yml"))
}

func TestIndex_PositionsOfFetchedDocument(t *testing.T) {
	f := salad.NewMemoryFetcher(map[string]string{"file:///w/doc.yml": "a: 1\nb:\n  c: 2\n"})
	opts := salad.NewLoadingOptions(salad.WithFetcher(f))
	_, err := salad.LoadDocumentByURL(t.Context(), loader.Any(), "file:///w/doc.yml", opts)
	require.NoError(t, err)

	idx := opts.Index()
	doc, ok := idx.Document("file:///w/doc.yml")
	require.True(t, ok)
	root := doc.(*salad.Mapping)
	require.Equal(t, salad.Position{File: "file:///w/doc.yml", Line: 1, Col: 1}, idx.Position(root))
	require.Equal(t, salad.Position{File: "file:///w/doc.yml", Line: 2, Col: 1}, idx.KeyPosition(root, "b"))
	require.Equal(t, idx.Position(root), idx.KeyPosition(root, "missing"))

	b, _ := root.Get("b")
	require.Equal(t, salad.Position{File: "file:///w/doc.yml", Line: 3, Col: 3}, idx.KeyPosition(b.(*salad.Mapping), "c"))

	clone := root.Clone()
	require.True(t, idx.Position(clone).IsZero())
	idx.CopyPositions(clone, root)
	require.Equal(t, idx.Position(root), idx.Position(clone))
	require.Equal(t, "file:///w/doc.yml:1:1", idx.Position(clone).String())
}

func TestIndex_JSONHasNoPositions(t *testing.T) {
	f := salad.NewMemoryFetcher(map[string]string{"file:///w/doc.json": `{"a": 1}`})
	opts := salad.NewLoadingOptions(salad.WithFetcher(f))
	res, err := salad.LoadDocumentByURL(t.Context(), loader.Any(), "file:///w/doc.json", opts)
	require.NoError(t, err)
	require.True(t, opts.Index().Position(res.(*salad.Mapping)).IsZero())
}

// gatedFetcher blocks its first fetch until release is closed.
type gatedFetcher struct {
	*salad.MemoryFetcher
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedFetcher) FetchText(ctx context.Context, url string) (string, error) {
	first := false
	g.once.Do(func() {
		first = true
		close(g.started)
	})
	if first {
		select {
		case <-g.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.MemoryFetcher.FetchText(ctx, url)
}

func TestIndex_SharedFetchOutlivesCancelledCaller(t *testing.T) {
	f := &gatedFetcher{
		MemoryFetcher: salad.NewMemoryFetcher(map[string]string{"file:///w/doc.yml": "a: 1\n"}),
		started:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	opts := salad.NewLoadingOptions(salad.WithFetcher(f))

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := salad.LoadDocumentByURL(ctx, loader.Any(), "file:///w/doc.yml", opts)
		first <- err
	}()
	<-f.started
	cancel()
	require.ErrorIs(t, <-first, context.Canceled)

	second := make(chan error, 1)
	go func() {
		_, err := salad.LoadDocumentByURL(context.Background(), loader.Any(), "file:///w/doc.yml", opts)
		second <- err
	}()
	close(f.release)
	require.NoError(t, <-second)
	require.Equal(t, 1, f.Calls("file:///w/doc.yml"))
}
