package salad_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reoring/salad"
)

type label struct {
	ID   string
	Text string
}

func (l *label) Save(top bool, baseURL string, relativeURIs bool) (salad.Value, error) {
	id, err := salad.SaveRelativeURI(l.ID, true, relativeURIs, 0, baseURL)
	if err != nil {
		return nil, err
	}
	m := salad.MappingOf("id", id, "text", salad.String(l.Text))
	if top {
		m.Set("top", salad.Bool(true))
	}
	return m, nil
}

func TestSave_Values(t *testing.T) {
	obj := salad.NewObject()
	obj.Set("n", nil)
	obj.Set("l", &label{ID: "file:///w/doc.yml#a", Text: "A"})

	got, err := salad.Save([]any{salad.Int(1), "x", 2.5, obj}, true, "file:///w/doc.yml", true)
	require.NoError(t, err)
	require.Equal(t, salad.Sequence{
		salad.Int(1),
		salad.String("x"),
		salad.Float(2.5),
		salad.MappingOf(
			"n", salad.Null{},
			"l", salad.MappingOf("id", salad.String("a"), "text", salad.String("A")),
		),
	}, got)
}

func TestSave_TopOnlyAtRoot(t *testing.T) {
	got, err := salad.Save(&label{ID: "_:x", Text: "t"}, true, "", false)
	require.NoError(t, err)
	require.True(t, got.(*salad.Mapping).Has("top"))

	got, err = salad.Save([]*label{{ID: "_:x"}, nil}, true, "", false)
	require.NoError(t, err)
	seq := got.(salad.Sequence)
	require.Len(t, seq, 2)
	require.False(t, seq[0].(*salad.Mapping).Has("top"))
	require.Equal(t, salad.Null{}, seq[1])
}

func TestSave_NotSavable(t *testing.T) {
	_, err := salad.Save(struct{}{}, true, "", false)
	require.ErrorIs(t, err, salad.ErrNotSavable)
	require.True(t, salad.IsFatal(err))
}

func TestSaveRelativeURI(t *testing.T) {
	base := "file:///w/wf.yml#main"

	got, err := salad.SaveRelativeURI("file:///w/wf.yml#main/step1", true, true, 0, base)
	require.NoError(t, err)
	require.Equal(t, salad.String("step1"), got)

	got, err = salad.SaveRelativeURI([]any{"file:///w/tools/a.yml", salad.String("http://other/x")}, false, true, 0, base)
	require.NoError(t, err)
	require.Equal(t, salad.Sequence{salad.String("tools/a.yml"), salad.String("http://other/x")}, got)

	got, err = salad.SaveRelativeURI(nil, false, true, 0, base)
	require.NoError(t, err)
	require.Equal(t, salad.Null{}, got)

	got, err = salad.SaveRelativeURI("file:///w/wf.yml#main/step1", true, false, 0, base)
	require.NoError(t, err)
	require.Equal(t, salad.String("file:///w/wf.yml#main/step1"), got)

	_, err = salad.SaveRelativeURI(salad.Int(3), false, true, 0, base)
	ve, ok := salad.AsValidationError(err)
	require.True(t, ok)
	require.Equal(t, "Expected a URI string or list of URI strings but got int", ve.Message)
}

func TestSaveWithMetadata(t *testing.T) {
	opts := salad.NewLoadingOptions(
		salad.WithNamespaces(map[string]string{"edam": "http://edamontology.org/"}),
		salad.WithSchemas([]string{"http://example.org/s.owl"}),
		salad.WithBaseURI("http://example.org/"),
	)

	got, err := salad.SaveWithMetadata([]any{salad.Int(1)}, opts, true, "", false)
	require.NoError(t, err)
	m := got.(*salad.Mapping)
	require.Equal(t, []string{"$graph", "$namespaces", "$schemas", "$base"}, m.Keys())
	ns, _ := m.Get("$namespaces")
	require.Equal(t, salad.MappingOf("edam", salad.String("http://edamontology.org/")), ns)

	got, err = salad.SaveWithMetadata(salad.MappingOf("$base", salad.String("keep")), opts, true, "", false)
	require.NoError(t, err)
	b, _ := got.(*salad.Mapping).Get("$base")
	require.Equal(t, salad.String("keep"), b)

	got, err = salad.SaveWithMetadata("scalar", opts, true, "", false)
	require.NoError(t, err)
	require.Equal(t, salad.String("scalar"), got)
}
