package salad

import (
	"fmt"
	"reflect"
)

// Savable is implemented by loaded records. Save converts the record back into
// a plain document value; identifier fields are contracted against baseURL
// when relativeURIs is set.
type Savable interface {
	Save(top bool, baseURL string, relativeURIs bool) (Value, error)
}

// Save converts a loaded value into a document value. Records delegate to
// their own Save; lists, objects and mappings are converted element by element
// with top unset; scalars are returned unchanged.
func Save(val any, top bool, baseURL string, relativeURIs bool) (Value, error) {
	switch t := val.(type) {
	case nil:
		return Null{}, nil
	case Savable:
		if rv := reflect.ValueOf(t); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return Null{}, nil
		}
		return t.Save(top, baseURL, relativeURIs)
	case Value:
		return t, nil
	case []any:
		out := make(Sequence, 0, len(t))
		for _, e := range t {
			v, err := Save(e, false, baseURL, relativeURIs)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case *Object:
		m := NewMapping()
		for k, e := range t.All() {
			v, err := Save(e, false, baseURL, relativeURIs)
			if err != nil {
				return nil, err
			}
			m.Set(k, v)
		}
		return m, nil
	case bool, int, int32, int64, float32, float64, string:
		return FromNative(t), nil
	}

	// typed slices held by records, e.g. []*Step
	if rv := reflect.ValueOf(val); rv.Kind() == reflect.Slice {
		out := make(Sequence, 0, rv.Len())
		for i := range rv.Len() {
			v, err := Save(rv.Index(i).Interface(), false, baseURL, relativeURIs)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrNotSavable, val)
}

// SaveRelativeURI contracts an identifier, or each identifier of a list,
// against baseURL. Absent values are returned as null.
func SaveRelativeURI(uri any, scopedID, relativeURIs bool, refScope int, baseURL string) (Value, error) {
	switch t := uri.(type) {
	case nil, Null:
		return Null{}, nil
	case String:
		return contractValue(string(t), scopedID, relativeURIs, refScope, baseURL)
	case string:
		return contractValue(t, scopedID, relativeURIs, refScope, baseURL)
	case Sequence:
		out := make(Sequence, 0, len(t))
		for _, e := range t {
			v, err := SaveRelativeURI(e, scopedID, relativeURIs, refScope, baseURL)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case []any:
		out := make(Sequence, 0, len(t))
		for _, e := range t {
			v, err := SaveRelativeURI(e, scopedID, relativeURIs, refScope, baseURL)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case []string:
		out := make(Sequence, 0, len(t))
		for _, e := range t {
			v, err := contractValue(e, scopedID, relativeURIs, refScope, baseURL)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	actual := fmt.Sprintf("%T", uri)
	if v, ok := uri.(Value); ok {
		actual = KindOf(v).String()
	}
	return nil, Coded(CodeSaveURI, map[string]string{"actual": actual})
}

func contractValue(uri string, scopedID, relativeURIs bool, refScope int, baseURL string) (Value, error) {
	s, err := ContractURI(uri, baseURL, scopedID, relativeURIs, refScope)
	if err != nil {
		return nil, err
	}
	return String(s), nil
}

// SaveWithMetadata saves val and adds the document directives recorded in
// opts: a list is wrapped under $graph, and $namespaces, $schemas, $base and
// the captured metadata fields are emitted at the top level unless the saved
// mapping already has them.
func SaveWithMetadata(val any, opts *LoadingOptions, top bool, baseURL string, relativeURIs bool) (Value, error) {
	saved, err := Save(val, top, baseURL, relativeURIs)
	if err != nil {
		return nil, err
	}
	var out *Mapping
	switch t := saved.(type) {
	case Sequence:
		out = MappingOf(DirectiveGraph, t)
	case *Mapping:
		// a loaded value may be the parsed document cached in the Index
		out = t.Clone()
	default:
		return saved, nil
	}
	if opts == nil {
		return out, nil
	}
	if len(opts.namespaces) > 0 && !out.Has(DirectiveNamespaces) {
		out.Set(DirectiveNamespaces, FromNative(opts.namespaces))
	}
	if len(opts.schemas) > 0 && !out.Has(DirectiveSchemas) {
		out.Set(DirectiveSchemas, FromNative(opts.schemas))
	}
	if opts.baseURI != "" && !out.Has(DirectiveBase) {
		out.Set(DirectiveBase, String(opts.baseURI))
	}
	for k, v := range opts.addlMetadata.All() {
		if !out.Has(k) {
			out.Set(k, v)
		}
	}
	return out, nil
}
