package loader

import (
	"context"
	"strings"

	"github.com/reoring/salad"
)

// Scalar is the set of document values a Primitive loader can accept.
type Scalar interface {
	salad.Bool | salad.Int | salad.Float | salad.String
	salad.Value
}

type primitive[T Scalar] struct{}

// Primitive accepts values of exactly kind T and returns them unchanged. There
// is no coercion between numbers, booleans and strings.
func Primitive[T Scalar]() salad.Loader { return primitive[T]{} }

// String accepts strings.
func String() salad.Loader { return primitive[salad.String]{} }

// Int accepts integers.
func Int() salad.Loader { return primitive[salad.Int]{} }

// Float accepts floats. Integers are rejected.
func Float() salad.Loader { return primitive[salad.Float]{} }

// Bool accepts booleans.
func Bool() salad.Loader { return primitive[salad.Bool]{} }

func (p primitive[T]) Load(_ context.Context, doc salad.Value, _ string, _ *salad.LoadingOptions, _ string) (any, error) {
	if v, ok := doc.(T); ok {
		return v, nil
	}
	return nil, salad.Coded(salad.CodeInvalidType, map[string]string{"expected": p.String(), "actual": salad.KindOf(doc).String()})
}

func (primitive[T]) String() string {
	var zero T
	return salad.KindOf(zero).String()
}

type anyLoader struct{}

// Any accepts every value except null.
func Any() salad.Loader { return anyLoader{} }

func (anyLoader) Load(_ context.Context, doc salad.Value, _ string, _ *salad.LoadingOptions, _ string) (any, error) {
	if salad.IsNull(doc) {
		return nil, salad.Coded(salad.CodeExpectedValue, nil)
	}
	return doc, nil
}

func (anyLoader) String() string { return "any" }

type nullLoader struct{}

// Null accepts only null, which loads as nil.
func Null() salad.Loader { return nullLoader{} }

func (nullLoader) Load(_ context.Context, doc salad.Value, _ string, _ *salad.LoadingOptions, _ string) (any, error) {
	if salad.IsNull(doc) {
		return nil, nil
	}
	return nil, salad.Coded(salad.CodeExpectedNull, nil)
}

func (nullLoader) String() string { return "null" }

type enumLoader struct {
	name    string
	symbols []string
}

// Enum accepts the given symbols. Wrapped in URI(..., VocabTerm()), absolute
// URIs known to the vocabulary are contracted to their terms first, so
// symbols are listed as terms.
func Enum(name string, symbols ...string) salad.Loader {
	return enumLoader{name: name, symbols: symbols}
}

func (e enumLoader) Load(_ context.Context, doc salad.Value, _ string, _ *salad.LoadingOptions, _ string) (any, error) {
	if s, ok := doc.(salad.String); ok {
		for _, sym := range e.symbols {
			if string(s) == sym {
				return s, nil
			}
		}
	}
	return nil, salad.Coded(salad.CodeInvalidEnum, map[string]string{"symbols": "(" + strings.Join(e.symbols, ", ") + ")"})
}

func (e enumLoader) String() string { return e.name }

type expressionLoader struct{}

// Expression accepts strings, which are kept verbatim. Parameter references
// such as $(inputs.x) and ${...} are not evaluated.
func Expression() salad.Loader { return expressionLoader{} }

func (expressionLoader) Load(_ context.Context, doc salad.Value, _ string, _ *salad.LoadingOptions, _ string) (any, error) {
	if s, ok := doc.(salad.String); ok {
		return s, nil
	}
	return nil, salad.Coded(salad.CodeInvalidType, map[string]string{"expected": "string", "actual": salad.KindOf(doc).String()})
}

func (expressionLoader) String() string { return "expression" }
