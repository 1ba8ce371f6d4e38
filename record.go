package salad

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// FromDocFunc constructs a record from a document mapping. It is what the
// schema compiler generates for every record type.
type FromDocFunc func(ctx context.Context, doc *Mapping, baseURI string, opts *LoadingOptions, docRoot string) (Savable, error)

// Registry maps record type names to their constructors.
type Registry struct {
	mu    sync.RWMutex
	types map[string]FromDocFunc
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{types: map[string]FromDocFunc{}}
}

// Register binds name to fn, replacing any previous binding.
func (r *Registry) Register(name string, fn FromDocFunc) {
	r.mu.Lock()
	r.types[name] = fn
	r.mu.Unlock()
}

// Lookup returns the constructor bound to name. The error wraps ErrNoLoader.
func (r *Registry) Lookup(name string) (FromDocFunc, error) {
	r.mu.RLock()
	fn, ok := r.types[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: record type %q", ErrNoLoader, name)
	}
	return fn, nil
}

// Names lists the registered type names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.types))
	for k := range r.types {
		out = append(out, k)
	}
	r.mu.RUnlock()
	slices.Sort(out)
	return out
}

// RecordDoc walks the fields of one record document on behalf of a FromDocFunc.
// Field failures are collected; Err reports them all at once.
//
//	rd := salad.NewRecordDoc(ctx, "Step", doc, baseURI, opts, docRoot, "id", "run", "in")
//	id := rd.ID("id", idLoader, false)
//	run := rd.Required("run", runLoader)
//	in := rd.Optional("in", inLoader)
//	ext := rd.Extensions()
//	if err := rd.Err(); err != nil { return nil, err }
type RecordDoc struct {
	ctx     context.Context
	name    string
	doc     *Mapping
	baseURI string
	opts    *LoadingOptions
	docRoot string
	fields  []string
	errs    []*ValidationError
	fatal   error
}

// NewRecordDoc starts reading doc as a record named name with the given
// field names.
func NewRecordDoc(ctx context.Context, name string, doc *Mapping, baseURI string, opts *LoadingOptions, docRoot string, fields ...string) *RecordDoc {
	return &RecordDoc{ctx: ctx, name: name, doc: doc, baseURI: baseURI, opts: opts, docRoot: docRoot, fields: fields}
}

// BaseURI is the base for the remaining fields. ID replaces it with the
// record's own identifier.
func (r *RecordDoc) BaseURI() string { return r.baseURI }

// Options returns the options the record is loaded with.
func (r *RecordDoc) Options() *LoadingOptions { return r.opts }

func (r *RecordDoc) keyPos(key string) Position { return r.opts.Index().KeyPosition(r.doc, key) }

func (r *RecordDoc) fail(field string, err error) {
	if ve, ok := AsValidationError(err); ok {
		r.errs = append(r.errs, Coded(CodeInvalidField, map[string]string{"field": field}, ve).At(r.keyPos(field)))
		return
	}
	if r.fatal == nil {
		r.fatal = err
	}
}

// ID loads the identifier field. When it is absent the document root is used,
// and failing that a blank node id ("_:" plus a random UUID) is generated for
// optional ids while required ids are reported missing. An id present in the
// document becomes the base URI for the remaining fields.
func (r *RecordDoc) ID(field string, l Loader, optional bool) string {
	var id string
	v, ok := r.doc.Get(field)
	switch {
	case ok && !IsNull(v):
		res, err := LoadField(r.ctx, v, l, r.baseURI, r.opts)
		if err != nil {
			r.fail(field, err)
			return ""
		}
		switch t := res.(type) {
		case String:
			id = string(t)
		case string:
			id = t
		default:
			r.errs = append(r.errs, Coded(CodeInvalidField, map[string]string{"field": field},
				Coded(CodeInvalidType, map[string]string{"expected": "string", "actual": fmt.Sprintf("%T", res)})).At(r.keyPos(field)))
			return ""
		}
		r.baseURI = id
	case r.docRoot != "":
		id = r.docRoot
	case optional:
		id = "_:" + uuid.NewString()
	default:
		r.errs = append(r.errs, Coded(CodeRequired, map[string]string{"field": field}).At(r.opts.Index().Position(r.doc)))
		return ""
	}
	return id
}

// Required loads a field that must be present.
func (r *RecordDoc) Required(field string, l Loader) any {
	v, ok := r.doc.Get(field)
	if !ok {
		r.errs = append(r.errs, Coded(CodeRequired, map[string]string{"field": field}).At(r.opts.Index().Position(r.doc)))
		return nil
	}
	res, err := LoadField(r.ctx, v, l, r.baseURI, r.opts)
	if err != nil {
		r.fail(field, err)
		return nil
	}
	return res
}

// Optional loads a field that may be absent; absent fields load as nil.
func (r *RecordDoc) Optional(field string, l Loader) any {
	v, ok := r.doc.Get(field)
	if !ok {
		return nil
	}
	res, err := LoadField(r.ctx, v, l, r.baseURI, r.opts)
	if err != nil {
		r.fail(field, err)
		return nil
	}
	return res
}

// Class checks the "class" field, if present, against want. The value is
// compared after vocabulary expansion so "Step" and its absolute URI match.
func (r *RecordDoc) Class(want string) {
	v, ok := r.doc.Get("class")
	if !ok {
		return
	}
	s, isStr := v.(String)
	if !isStr {
		r.errs = append(r.errs, Coded(CodeInvalidField, map[string]string{"field": "class"},
			Coded(CodeInvalidType, map[string]string{"expected": "string", "actual": KindOf(v).String()})).At(r.keyPos("class")))
		return
	}
	got := string(s)
	if got == want {
		return
	}
	if exp, err := r.opts.ExpandURL(got, "", false, true, nil); err == nil && exp == want {
		return
	}
	r.errs = append(r.errs, Coded(CodeClassMismatch, map[string]string{"expected": want, "actual": got}).At(r.keyPos("class")))
}

// Extensions returns the fields of doc that are not record fields. Keys of the
// form "prefix:name" are expanded against the namespaces and kept; any other
// unknown key is reported.
func (r *RecordDoc) Extensions() *Mapping {
	ext := NewMapping()
	for k, v := range r.doc.All() {
		if slices.Contains(r.fields, k) || k == "class" {
			continue
		}
		if strings.Contains(k, ":") {
			ek, err := r.opts.ExpandURL(k, "", false, false, nil)
			if err != nil {
				r.fail(k, err)
				continue
			}
			ext.Set(ek, v)
			continue
		}
		quoted := make([]string, len(r.fields))
		for i, f := range r.fields {
			quoted[i] = "`" + f + "`"
		}
		r.errs = append(r.errs, Coded(CodeUnknownField, map[string]string{"field": k, "fields": strings.Join(quoted, ", ")}).At(r.keyPos(k)))
	}
	return ext
}

// Err returns the collected failures wrapped as "Trying `Name`", or the first
// fatal error, or nil.
func (r *RecordDoc) Err() error {
	if r.fatal != nil {
		return r.fatal
	}
	if len(r.errs) == 0 {
		return nil
	}
	return Coded(CodeRecord, map[string]string{"name": r.name}, r.errs...).At(r.opts.Index().Position(r.doc))
}
