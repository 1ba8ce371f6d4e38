package engine

import (
	"errors"
	"io"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// Builder assembles decoded tokens into a caller-defined tree type.
type Builder[V any] interface {
	Null() V
	Bool(b bool) V
	Number(lit string) (V, error)
	String(s string) V
	Sequence(items []V) V
	// Mapping receives keys in input order; keys[i] belongs to values[i].
	Mapping(keys []string, values []V) V
}

// ErrTrailingData reports input left over after the first complete value.
var ErrTrailingData = errors.New("unexpected data after top-level value")

// Decode reads exactly one value from src and builds it with b.
func Decode[V any](src TokenSource, b Builder[V]) (V, error) {
	var zero V
	tok, err := src.NextToken()
	if err != nil {
		return zero, err
	}
	v, err := decodeValue(src, tok, b)
	if err != nil {
		return zero, err
	}
	if _, err := src.NextToken(); err == nil {
		return zero, ErrTrailingData
	} else if !errors.Is(err, io.EOF) {
		return zero, err
	}
	return v, nil
}

func decodeValue[V any](src TokenSource, tok Token, b Builder[V]) (V, error) {
	var zero V
	switch tok.Kind {
	case KindBeginObject:
		return decodeObject(src, b)
	case KindBeginArray:
		return decodeArray(src, b)
	case KindString:
		return b.String(tok.String), nil
	case KindNumber:
		return b.Number(tok.Number)
	case KindBool:
		return b.Bool(tok.Bool), nil
	case KindNull:
		return b.Null(), nil
	default:
		return zero, io.ErrUnexpectedEOF
	}
}

func decodeObject[V any](src TokenSource, b Builder[V]) (V, error) {
	var zero V
	var keys []string
	var vals []V
	for {
		tok, err := src.NextToken()
		if err != nil {
			return zero, unexpectedEOF(err)
		}
		if tok.Kind == KindEndObject {
			return b.Mapping(keys, vals), nil
		}
		if tok.Kind != KindKey {
			return zero, io.ErrUnexpectedEOF
		}
		vt, err := src.NextToken()
		if err != nil {
			return zero, unexpectedEOF(err)
		}
		v, err := decodeValue(src, vt, b)
		if err != nil {
			return zero, err
		}
		keys = append(keys, tok.String)
		vals = append(vals, v)
	}
}

func decodeArray[V any](src TokenSource, b Builder[V]) (V, error) {
	var zero V
	var items []V
	for {
		tok, err := src.NextToken()
		if err != nil {
			return zero, unexpectedEOF(err)
		}
		if tok.Kind == KindEndArray {
			return b.Sequence(items), nil
		}
		v, err := decodeValue(src, tok, b)
		if err != nil {
			return zero, err
		}
		items = append(items, v)
	}
}

func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
