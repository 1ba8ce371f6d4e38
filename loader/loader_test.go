package loader_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reoring/salad"
	"github.com/reoring/salad/loader"
)

const testBase = "file:///work/doc.yml"

func load(t *testing.T, l salad.Loader, doc salad.Value, opts ...salad.Option) (any, error) {
	t.Helper()
	return l.Load(context.Background(), doc, testBase, salad.NewLoadingOptions(opts...), "")
}

func yamlDoc(t *testing.T, text string) salad.Value {
	t.Helper()
	v, err := salad.ParseDocument(text, salad.DefaultParseOpt())
	require.NoError(t, err)
	return v
}

func requireValidation(t *testing.T, err error) *salad.ValidationError {
	t.Helper()
	require.Error(t, err)
	ve, ok := salad.AsValidationError(err)
	require.True(t, ok, "expected a validation error, got %v", err)
	return ve
}

func TestPrimitive_IdentityAndRejection(t *testing.T) {
	samples := []salad.Value{salad.Bool(true), salad.Int(3), salad.Float(1.5), salad.String("x"), salad.Null{}, salad.Sequence{}, salad.NewMapping()}
	loaders := map[salad.Kind]salad.Loader{
		salad.KindBool:   loader.Bool(),
		salad.KindInt:    loader.Int(),
		salad.KindFloat:  loader.Float(),
		salad.KindString: loader.String(),
	}
	for kind, l := range loaders {
		for _, v := range samples {
			got, err := load(t, l, v)
			if v.Kind() == kind {
				require.NoError(t, err, "%s on %s", l, v.Kind())
				require.Equal(t, v, got)
				continue
			}
			ve := requireValidation(t, err)
			require.Equal(t, salad.CodeInvalidType, ve.Code)
			require.Equal(t, "Expected a "+l.String()+" but got "+v.Kind().String(), ve.Message)
		}
	}
}

func TestPrimitive_NoNumericCoercion(t *testing.T) {
	_, err := load(t, loader.Float(), salad.Int(1))
	requireValidation(t, err)
	_, err = load(t, loader.Int(), salad.Float(1))
	requireValidation(t, err)
	_, err = load(t, loader.String(), salad.Bool(true))
	requireValidation(t, err)
}

func TestAnyAndNull(t *testing.T) {
	got, err := load(t, loader.Any(), salad.Int(1))
	require.NoError(t, err)
	require.Equal(t, salad.Int(1), got)

	_, err = load(t, loader.Any(), salad.Null{})
	require.Equal(t, "Expected non-null", requireValidation(t, err).Message)

	got, err = load(t, loader.Null(), salad.Null{})
	require.NoError(t, err)
	require.Nil(t, got)

	_, err = load(t, loader.Null(), salad.String("x"))
	require.Equal(t, "Expected null", requireValidation(t, err).Message)
}

func TestEnum(t *testing.T) {
	e := loader.Enum("Color", "red", "green")
	got, err := load(t, e, salad.String("green"))
	require.NoError(t, err)
	require.Equal(t, salad.String("green"), got)

	_, err = load(t, e, salad.String("blue"))
	require.Equal(t, "Expected one of (red, green)", requireValidation(t, err).Message)
	require.Equal(t, "Color", e.String())
}

func TestEnum_VocabTerm(t *testing.T) {
	vocab := salad.WithVocab(map[string]string{"red": "https://example.org/colors#red"})
	e := loader.URI(loader.Enum("Color", "red"), loader.VocabTerm())
	got, err := load(t, e, salad.String("https://example.org/colors#red"), vocab)
	require.NoError(t, err)
	require.Equal(t, salad.String("red"), got)
}

func TestExpression(t *testing.T) {
	got, err := load(t, loader.Expression(), salad.String("$(inputs.x)"))
	require.NoError(t, err)
	require.Equal(t, salad.String("$(inputs.x)"), got)

	_, err = load(t, loader.Expression(), salad.Int(1))
	requireValidation(t, err)
}

func TestOptional(t *testing.T) {
	o := loader.Optional(loader.Int())
	got, err := load(t, o, salad.Null{})
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = load(t, o, salad.Int(2))
	require.NoError(t, err)
	require.Equal(t, salad.Int(2), got)

	_, err = load(t, o, salad.String("2"))
	requireValidation(t, err)
	require.Equal(t, "int?", o.String())
}

func TestUnion_FirstSuccessWins(t *testing.T) {
	u := loader.Union(loader.Int(), loader.Any())
	got, err := load(t, u, salad.Int(1))
	require.NoError(t, err)
	require.Equal(t, salad.Int(1), got)

	got, err = load(t, u, salad.String("s"))
	require.NoError(t, err)
	require.Equal(t, salad.String("s"), got)
}

func TestUnion_AggregatesEveryAlternate(t *testing.T) {
	u := loader.Union(loader.Int(), loader.String(), loader.Null())
	_, err := load(t, u, salad.Bool(true))
	ve := requireValidation(t, err)

	require.Empty(t, ve.Message)
	require.Len(t, ve.Children, 3)
	require.Equal(t, "tried `int` but", ve.Children[0].Message)
	require.Equal(t, "tried `string` but", ve.Children[1].Message)
	require.Equal(t, "tried `null` but", ve.Children[2].Message)
	for _, c := range ve.Children {
		require.Len(t, c.Children, 1)
		require.Equal(t, "- ", c.Bullet)
	}
	require.Equal(t, ""+
		"- tried `int` but\n"+
		"  Expected a int but got boolean\n"+
		"- tried `string` but\n"+
		"  Expected a string but got boolean\n"+
		"- tried `null` but\n"+
		"  Expected null", ve.Error())
}

type failingLoader struct{ err error }

func (f failingLoader) Load(context.Context, salad.Value, string, *salad.LoadingOptions, string) (any, error) {
	return nil, f.err
}
func (f failingLoader) String() string { return "failing" }

func TestUnion_FatalErrorStops(t *testing.T) {
	u := loader.Union(failingLoader{err: salad.ErrFetch}, loader.Any())
	_, err := load(t, u, salad.Int(1))
	require.ErrorIs(t, err, salad.ErrFetch)
}

func TestArray_ExpectedList(t *testing.T) {
	_, err := load(t, loader.Array(loader.String()), salad.String("a"))
	require.Equal(t, "Expected a list", requireValidation(t, err).Message)
}

func TestArray_OrderAndFlattening(t *testing.T) {
	got, err := load(t, loader.Array(loader.String()), yamlDoc(t, `[a, [b, c], d, [[e]]]`))
	require.NoError(t, err)
	require.Equal(t, []any{salad.String("a"), salad.String("b"), salad.String("c"), salad.String("d"), salad.String("e")}, got)
}

func TestArray_ElementThatIsNotAListIsNotFlattened(t *testing.T) {
	got, err := load(t, loader.Array(loader.Any()), yamlDoc(t, `[{a: 1}, x]`))
	require.NoError(t, err)
	list := got.([]any)
	require.Len(t, list, 2)
	require.IsType(t, &salad.Mapping{}, list[0])
}

func TestArray_CollectsErrorsInOrder(t *testing.T) {
	_, err := load(t, loader.Array(loader.String()), yamlDoc(t, `[a, 1, b, true]`))
	ve := requireValidation(t, err)
	require.Empty(t, ve.Message)
	require.Len(t, ve.Children, 2)
	require.Equal(t, "array item 1 is invalid because:", ve.Children[0].Message)
	require.Equal(t, "array item 3 is invalid because:", ve.Children[1].Message)
	require.Equal(t, "Expected a string but got int", ve.Children[0].Children[0].Message)
}

func TestArray_DuplicateID(t *testing.T) {
	_, err := load(t, loader.Array(loader.Any()), yamlDoc(t, `[{id: a}, {id: b}, {id: a}]`))
	ve := requireValidation(t, err)
	require.Len(t, ve.Children, 1)
	require.Equal(t, "Duplicate id `a`", ve.Children[0].Message)
}

func TestMap(t *testing.T) {
	m := loader.Map("", loader.Int(), "")
	got, err := load(t, m, yamlDoc(t, `{b: 2, a: 1}`))
	require.NoError(t, err)
	obj := got.(*salad.Object)
	require.Equal(t, []string{"b", "a"}, obj.Keys())

	_, err = load(t, m, yamlDoc(t, `{a: 1, b: x, c: y}`))
	ve := requireValidation(t, err)
	require.Len(t, ve.Children, 2)
	require.Equal(t, "the `b` entry is not valid because:", ve.Children[0].Message)

	_, err = load(t, m, salad.Sequence{})
	require.Equal(t, "Expected a mapping but got sequence", requireValidation(t, err).Message)
	require.Equal(t, "map<int>", m.String())
}

func TestMap_NestedMappings(t *testing.T) {
	m := loader.Map("", loader.Int(), "")
	got, err := load(t, m, yamlDoc(t, `{a: 1, b: {c: 2, d: {e: 3}}}`))
	require.NoError(t, err)

	b, _ := got.(*salad.Object).Get("b")
	c, _ := b.(*salad.Object).Get("c")
	require.Equal(t, salad.Int(2), c)
	d, _ := b.(*salad.Object).Get("d")
	e, _ := d.(*salad.Object).Get("e")
	require.Equal(t, salad.Int(3), e)

	_, err = load(t, m, yamlDoc(t, `{b: {c: x}}`))
	ve := requireValidation(t, err)
	require.Equal(t, "the `b` entry is not valid because:", ve.Children[0].Message)
	require.Equal(t, []string{"tried `map<int>` but", "tried `int` but"},
		[]string{ve.Children[0].Children[0].Message, ve.Children[0].Children[1].Message})
}

func TestIdMap_NoPredicate(t *testing.T) {
	_, err := load(t, loader.IdMap(loader.Any(), "key", ""), yamlDoc(t, `{fred: daphne}`))
	require.Equal(t, "No mapPredicate was specified.", requireValidation(t, err).Message)
}

func TestIdMap_WithPredicate(t *testing.T) {
	got, err := load(t, loader.IdMap(loader.Any(), "key", "value"), yamlDoc(t, `{fred: daphne}`))
	require.NoError(t, err)
	seq := got.(salad.Sequence)
	require.Len(t, seq, 1)
	entry := seq[0].(*salad.Mapping)
	require.Equal(t, []string{"value", "key"}, entry.Keys())
	require.True(t, salad.Equal(salad.MappingOf("value", "daphne", "key", "fred"), entry))
}

// Entries derived from scalar values come before entries derived from
// mappings. Loaders built on IdMap rely on this order, so the test pins it.
func TestIdMap_OrderScalarsBeforeMappings(t *testing.T) {
	doc := yamlDoc(t, "a: {type: int}\nb: File\nc: {type: string}\nd: Directory\n")
	got, err := load(t, loader.IdMap(loader.Any(), "id", "type"), doc)
	require.NoError(t, err)
	var ids []string
	for _, e := range got.(salad.Sequence) {
		id, _ := e.(*salad.Mapping).Get("id")
		ids = append(ids, string(id.(salad.String)))
	}
	require.Equal(t, []string{"b", "d", "a", "c"}, ids)
}

func TestIdMap_KeyCollision(t *testing.T) {
	_, err := load(t, loader.IdMap(loader.Any(), "id", "type"), yamlDoc(t, `{a: {id: b}}`))
	require.Equal(t, "the `a` entry already has a `id` field", requireValidation(t, err).Message)
}

func TestIdMap_PassesListsThrough(t *testing.T) {
	doc := yamlDoc(t, `[{id: a}]`)
	got, err := load(t, loader.IdMap(loader.Any(), "id", "type"), doc)
	require.NoError(t, err)
	require.Equal(t, doc, got)
}

func TestSecondaryDSL(t *testing.T) {
	l := loader.SecondaryDSL(loader.Any())

	got, err := load(t, l, salad.String("foo.txt?"))
	require.NoError(t, err)
	require.True(t, salad.Equal(yamlDoc(t, `[{pattern: foo.txt, required: false}]`), got.(salad.Value)))

	got, err = load(t, l, yamlDoc(t, `{pattern: x}`))
	require.NoError(t, err)
	require.True(t, salad.Equal(yamlDoc(t, `[{pattern: x}]`), got.(salad.Value)))

	got, err = load(t, l, yamlDoc(t, `[a, b?, {pattern: c, required: true}]`))
	require.NoError(t, err)
	require.True(t, salad.Equal(yamlDoc(t, `[{pattern: a}, {pattern: b, required: false}, {pattern: c, required: true}]`), got.(salad.Value)))

	_, err = load(t, l, salad.Int(42))
	require.Equal(t, "Expected a string or sequence of (strings or mappings).", requireValidation(t, err).Message)

	_, err = load(t, l, yamlDoc(t, `{required: true}`))
	require.Equal(t, "Missing 'pattern' in secondaryFiles specification entry.", requireValidation(t, err).Message)

	_, err = load(t, l, yamlDoc(t, `{pattern: a, extra: 1}`))
	require.Equal(t, "Unallowed values in secondaryFiles specification entry.", requireValidation(t, err).Message)
}

var typeVocab = salad.WithVocab(map[string]string{
	"null":   "https://w3id.org/cwl/salad#null",
	"int":    "http://www.w3.org/2001/XMLSchema#int",
	"string": "http://www.w3.org/2001/XMLSchema#string",
	"File":   "https://example.org/types#File",
})

func TestTypeDSL(t *testing.T) {
	l := loader.TypeDSL(loader.Any(), 2)

	got, err := load(t, l, salad.String("string?"), typeVocab)
	require.NoError(t, err)
	require.True(t, salad.Equal(yamlDoc(t, `["null", string]`), got.(salad.Value)))

	got, err = load(t, l, salad.String("File[]"), typeVocab)
	require.NoError(t, err)
	require.True(t, salad.Equal(yamlDoc(t, `{type: array, items: File}`), got.(salad.Value)))

	got, err = load(t, l, salad.String("int[][]?"), typeVocab)
	require.NoError(t, err)
	require.True(t, salad.Equal(yamlDoc(t, `["null", {type: array, items: {type: array, items: int}}]`), got.(salad.Value)))

	got, err = load(t, l, yamlDoc(t, `["null", "string?", int]`), typeVocab)
	require.NoError(t, err)
	require.True(t, salad.Equal(yamlDoc(t, `["null", string, int]`), got.(salad.Value)))
}

func TestTypeDSL_ScopedReference(t *testing.T) {
	l := loader.TypeDSL(loader.Any(), 1)
	opts := salad.NewLoadingOptions(typeVocab)
	got, err := l.Load(context.Background(), salad.String("MyRecord"), testBase+"#schema/field", opts, "")
	require.NoError(t, err)
	require.Equal(t, salad.String(testBase+"#schema/MyRecord"), got)
}

func TestURI_Expansion(t *testing.T) {
	got, err := load(t, loader.URI(loader.String(), loader.ScopedID()), salad.String("x"))
	require.NoError(t, err)
	require.Equal(t, salad.String(testBase+"#x"), got)

	got, err = load(t, loader.URI(loader.String()), salad.String("other.yml"))
	require.NoError(t, err)
	require.Equal(t, salad.String("file:///work/other.yml"), got)

	got, err = load(t, loader.URI(loader.Array(loader.String())), yamlDoc(t, `[a.yml, b.yml]`))
	require.NoError(t, err)
	require.Equal(t, []any{salad.String("file:///work/a.yml"), salad.String("file:///work/b.yml")}, got)
}

func TestURI_Namespaces(t *testing.T) {
	got, err := load(t, loader.URI(loader.String()), salad.String("edam:format_1930"),
		salad.WithNamespaces(map[string]string{"edam": "http://edamontology.org/"}))
	require.NoError(t, err)
	require.Equal(t, salad.String("http://edamontology.org/format_1930"), got)
}

func TestURI_LinkCheck(t *testing.T) {
	f := salad.NewMemoryFetcher(map[string]string{"file:///work/other.yml": "{}"})
	l := loader.URI(loader.String())

	got, err := load(t, l, salad.String("other.yml#frag"), salad.WithFetcher(f), salad.WithLinkCheck(true))
	require.NoError(t, err)
	require.Equal(t, salad.String("file:///work/other.yml#frag"), got)

	_, err = load(t, l, salad.String("missing.yml"), salad.WithFetcher(f), salad.WithLinkCheck(true))
	require.Equal(t, "contains undefined reference to `file:///work/missing.yml`", requireValidation(t, err).Message)

	_, err = load(t, l, salad.String("missing.yml"), salad.WithFetcher(f))
	require.NoError(t, err)

	_, err = load(t, loader.URI(loader.String(), loader.NoLinkCheck()), salad.String("missing.yml"), salad.WithFetcher(f), salad.WithLinkCheck(true))
	require.NoError(t, err)
}

type point struct{ X, Y salad.Value }

func (p *point) Save(bool, string, bool) (salad.Value, error) {
	return salad.MappingOf("x", p.X, "y", p.Y), nil
}

func pointFromDoc(ctx context.Context, doc *salad.Mapping, baseURI string, opts *salad.LoadingOptions, docRoot string) (salad.Savable, error) {
	rd := salad.NewRecordDoc(ctx, "Point", doc, baseURI, opts, docRoot, "x", "y")
	p := &point{}
	p.X, _ = rd.Required("x", loader.Int()).(salad.Value)
	p.Y, _ = rd.Required("y", loader.Int()).(salad.Value)
	rd.Extensions()
	if err := rd.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

func TestRecord(t *testing.T) {
	r := loader.Record("Point", pointFromDoc, "")
	got, err := load(t, r, yamlDoc(t, `{x: 1, y: 2}`))
	require.NoError(t, err)
	require.Equal(t, &point{X: salad.Int(1), Y: salad.Int(2)}, got)

	_, err = load(t, r, salad.Int(1))
	require.Equal(t, "Expected a mapping but got int", requireValidation(t, err).Message)

	_, err = load(t, r, yamlDoc(t, `{x: a, z: 3}`))
	require.Equal(t, ""+
		"Trying `Point`\n"+
		"  the `x` field is not valid because:\n"+
		"    Expected a int but got string\n"+
		"  missing required field `y`\n"+
		"  invalid field `z`, expected one of: `x`, `y`", requireValidation(t, err).Error())
}

func TestRecordOf_LazyRegistry(t *testing.T) {
	reg := salad.NewRegistry()
	r := loader.RecordOf(reg, "Point", "")

	_, err := load(t, r, yamlDoc(t, `{x: 1, y: 2}`))
	require.ErrorIs(t, err, salad.ErrNoLoader)

	reg.Register("Point", pointFromDoc)
	_, err = load(t, r, yamlDoc(t, `{x: 1, y: 2}`))
	require.NoError(t, err)
}

func TestRecord_ContainerScopesIDs(t *testing.T) {
	var seen string
	fn := func(ctx context.Context, doc *salad.Mapping, baseURI string, opts *salad.LoadingOptions, docRoot string) (salad.Savable, error) {
		id, err := opts.ExpandURL("child", baseURI, true, false, nil)
		seen = id
		return &point{}, err
	}
	_, err := load(t, loader.Record("Scoped", fn, "fields"), salad.NewMapping())
	require.NoError(t, err)
	require.Equal(t, testBase+"#fields/child", seen)
}
