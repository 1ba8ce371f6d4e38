package salad_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reoring/salad"
)

func parse(t *testing.T, text string) salad.Value {
	t.Helper()
	v, err := salad.ParseDocument(text, salad.DefaultParseOpt())
	require.NoError(t, err)
	return v
}

func TestParseDocument_YAMLScalars(t *testing.T) {
	v := parse(t, "s: text\ni: 3\nf: 2.5\nb: true\nn: null\nts: 2001-12-14\nq: '3'\n")
	m := v.(*salad.Mapping)
	require.Equal(t, []string{"s", "i", "f", "b", "n", "ts", "q"}, m.Keys())

	get := func(k string) salad.Value { x, _ := m.Get(k); return x }
	require.Equal(t, salad.String("text"), get("s"))
	require.Equal(t, salad.Int(3), get("i"))
	require.Equal(t, salad.Float(2.5), get("f"))
	require.Equal(t, salad.Bool(true), get("b"))
	require.Equal(t, salad.Null{}, get("n"))
	require.Equal(t, salad.String("2001-12-14"), get("ts"))
	require.Equal(t, salad.String("3"), get("q"))
}

func TestParseDocument_JSON(t *testing.T) {
	v := parse(t, `{"z": [1, 2.0, "x", null, false], "a": {"b": {}}}`)
	m := v.(*salad.Mapping)
	require.Equal(t, []string{"z", "a"}, m.Keys())
	z, _ := m.Get("z")
	require.Equal(t, salad.Sequence{salad.Int(1), salad.Float(2), salad.String("x"), salad.Null{}, salad.Bool(false)}, z)
}

func TestParseDocument_FlowYAMLFallsBackFromJSON(t *testing.T) {
	v := parse(t, `{a: 1, b: [x, y]}`)
	require.True(t, salad.Equal(salad.MappingOf("a", 1, "b", []any{"x", "y"}), v))
}

func TestParseDocument_Empty(t *testing.T) {
	require.Equal(t, salad.Null{}, parse(t, ""))
}

func TestParseDocument_YAMLDuplicateKey(t *testing.T) {
	_, err := salad.ParseDocument("a: 1\nb: 2\na: 3\n", salad.DefaultParseOpt())
	require.ErrorIs(t, err, salad.ErrParse)
	var dup *salad.DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "a", dup.Key)
	require.Equal(t, 1, dup.FirstLine)
	require.Equal(t, 3, dup.Line)
}

func TestParseDocument_JSONDuplicateKeyPolicy(t *testing.T) {
	text := `{"a": 1, "a": 2}`
	_, err := salad.ParseDocument(text, salad.DefaultParseOpt())
	require.ErrorIs(t, err, salad.ErrParse)

	v, err := salad.ParseDocument(text, salad.ParseOpt{OnDuplicateKey: salad.Ignore})
	require.NoError(t, err)
	a, _ := v.(*salad.Mapping).Get("a")
	require.Equal(t, salad.Int(2), a)
}

func TestParseDocument_Limits(t *testing.T) {
	_, err := salad.ParseDocument(strings.Repeat("x", 100), salad.ParseOpt{MaxBytes: 10})
	require.ErrorIs(t, err, salad.ErrParse)

	_, err = salad.ParseDocument(`{"a": {"b": {"c": 1}}}`, salad.ParseOpt{MaxDepth: 2})
	require.ErrorIs(t, err, salad.ErrParse)

	_, err = salad.ParseDocument("a:\n  b:\n    c: 1\n", salad.ParseOpt{MaxDepth: 2})
	require.ErrorIs(t, err, salad.ErrParse)
}

func TestParseDocument_MergeKeys(t *testing.T) {
	v := parse(t, "base: &b {x: 1, y: 2}\nderived:\n  <<: *b\n  y: 3\n")
	d, _ := v.(*salad.Mapping).Get("derived")
	require.True(t, salad.Equal(salad.MappingOf("x", 1, "y", 3), d))
}

func TestParseDocument_MultipleDocumentsRejected(t *testing.T) {
	_, err := salad.ParseDocument("a: 1\n---\nb: 2\n", salad.DefaultParseOpt())
	require.ErrorIs(t, err, salad.ErrParse)
}

func TestParseDocument_Syntax(t *testing.T) {
	_, err := salad.ParseDocument("a: [1, 2\n", salad.DefaultParseOpt())
	require.ErrorIs(t, err, salad.ErrParse)
	require.True(t, salad.IsFatal(err))
}
