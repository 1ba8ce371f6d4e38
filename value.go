package salad

import (
	"iter"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind tags the variant of a document Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	}
	return "unknown(" + strconv.Itoa(int(k)) + ")"
}

// Value is a parsed YAML/JSON document node. The set of implementations is
// closed: Null, Bool, Int, Float, String, Sequence and *Mapping.
type Value interface {
	Kind() Kind
	isValue()
}

type (
	Null     struct{}
	Bool     bool
	Int      int64
	Float    float64
	String   string
	Sequence []Value
)

func (Null) Kind() Kind     { return KindNull }
func (Bool) Kind() Kind     { return KindBool }
func (Int) Kind() Kind      { return KindInt }
func (Float) Kind() Kind    { return KindFloat }
func (String) Kind() Kind   { return KindString }
func (Sequence) Kind() Kind { return KindSequence }

func (Null) isValue()     {}
func (Bool) isValue()     {}
func (Int) isValue()      {}
func (Float) isValue()    {}
func (String) isValue()   {}
func (Sequence) isValue() {}

// KindOf reports the kind of v, treating a nil Value as null.
func KindOf(v Value) Kind {
	if v == nil {
		return KindNull
	}
	return v.Kind()
}

// IsNull reports whether v is absent or an explicit null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	if m, ok := v.(*Mapping); ok && m == nil {
		return true
	}
	return v.Kind() == KindNull
}

// ---- Mapping ----

// Mapping is a string-keyed mapping that keeps keys in insertion order.
type Mapping struct {
	om *orderedmap.OrderedMap[string, Value]
}

// NewMapping returns an empty Mapping.
func NewMapping() *Mapping {
	return &Mapping{om: orderedmap.New[string, Value]()}
}

// MappingOf builds a Mapping from alternating key/value arguments.
func MappingOf(kv ...any) *Mapping {
	m := NewMapping()
	for i := 0; i+1 < len(kv); i += 2 {
		m.Set(kv[i].(string), FromNative(kv[i+1]))
	}
	return m
}

func (m *Mapping) Kind() Kind { return KindMapping }
func (*Mapping) isValue()     {}

func (m *Mapping) init() {
	if m.om == nil {
		m.om = orderedmap.New[string, Value]()
	}
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	if m == nil || m.om == nil {
		return 0
	}
	return m.om.Len()
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Value, bool) {
	if m == nil || m.om == nil {
		return nil, false
	}
	return m.om.Get(key)
}

// Has reports whether key is present.
func (m *Mapping) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores v under key. New keys are appended, existing keys keep their position.
func (m *Mapping) Set(key string, v Value) {
	m.init()
	m.om.Set(key, v)
}

// Delete removes key and reports whether it was present.
func (m *Mapping) Delete(key string) bool {
	if m == nil || m.om == nil {
		return false
	}
	_, ok := m.om.Delete(key)
	return ok
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	out := make([]string, 0, m.Len())
	for k := range m.All() {
		out = append(out, k)
	}
	return out
}

// All iterates over entries in insertion order.
func (m *Mapping) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if m == nil || m.om == nil {
			return
		}
		for p := m.om.Oldest(); p != nil; p = p.Next() {
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}

// Clone returns a shallow copy. Nested sequences and mappings are shared.
func (m *Mapping) Clone() *Mapping {
	c := NewMapping()
	for k, v := range m.All() {
		c.Set(k, v)
	}
	return c
}

// ---- Object ----

// Object is the loaded form of a document mapping: an insertion-ordered map
// whose values are loader outputs rather than raw document nodes.
type Object struct {
	om *orderedmap.OrderedMap[string, any]
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{om: orderedmap.New[string, any]()}
}

func (o *Object) Len() int {
	if o == nil || o.om == nil {
		return 0
	}
	return o.om.Len()
}

func (o *Object) Get(key string) (any, bool) {
	if o == nil || o.om == nil {
		return nil, false
	}
	return o.om.Get(key)
}

func (o *Object) Set(key string, v any) {
	if o.om == nil {
		o.om = orderedmap.New[string, any]()
	}
	o.om.Set(key, v)
}

func (o *Object) Keys() []string {
	out := make([]string, 0, o.Len())
	for k := range o.All() {
		out = append(out, k)
	}
	return out
}

func (o *Object) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if o == nil || o.om == nil {
			return
		}
		for p := o.om.Oldest(); p != nil; p = p.Next() {
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}

// ---- conversions ----

// FromNative converts plain Go values (as produced by encoding/json or literal
// test fixtures) into a Value. Values that already implement Value are
// returned unchanged; unsupported types become their fmt representation.
func FromNative(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null{}
	case Value:
		return t
	case bool:
		return Bool(t)
	case int:
		return Int(t)
	case int32:
		return Int(t)
	case int64:
		return Int(t)
	case uint:
		return Int(t)
	case uint32:
		return Int(t)
	case float32:
		return Float(t)
	case float64:
		return Float(t)
	case string:
		return String(t)
	case []any:
		out := make(Sequence, len(t))
		for i, e := range t {
			out[i] = FromNative(e)
		}
		return out
	case []string:
		out := make(Sequence, len(t))
		for i, e := range t {
			out[i] = String(e)
		}
		return out
	case map[string]any:
		m := NewMapping()
		for _, k := range sortedKeys(t) {
			m.Set(k, FromNative(t[k]))
		}
		return m
	case map[string]string:
		m := NewMapping()
		for _, k := range sortedKeys(t) {
			m.Set(k, String(t[k]))
		}
		return m
	}
	return String(fmtAny(v))
}

// ToNative converts a Value into plain Go values: nil, bool, int64, float64,
// string, []any and map[string]any. Key order is lost.
func ToNative(v Value) any {
	switch t := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(t)
	case Int:
		return int64(t)
	case Float:
		return float64(t)
	case String:
		return string(t)
	case Sequence:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = ToNative(e)
		}
		return out
	case *Mapping:
		if t == nil {
			return nil
		}
		out := make(map[string]any, t.Len())
		for k, e := range t.All() {
			out[k] = ToNative(e)
		}
		return out
	}
	return nil
}

// Equal reports deep equality of two values. Mapping key order is ignored.
func Equal(a, b Value) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	switch x := a.(type) {
	case Sequence:
		y, ok := b.(Sequence)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Mapping:
		y, ok := b.(*Mapping)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for k, xv := range x.All() {
			yv, ok := y.Get(k)
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	}
	return a == b
}
