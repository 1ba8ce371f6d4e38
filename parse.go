package salad

import (
	"errors"
	"fmt"
	"strconv"

	eng "github.com/reoring/salad/internal/engine"
	"github.com/reoring/salad/source/gojson"
)

// ParseIssue is a non-fatal finding reported while parsing, such as a
// duplicate JSON key under Warn.
type ParseIssue struct {
	Code    string
	Path    string
	Message string
}

// ParseDocument parses YAML or JSON text into a Value. Failures wrap ErrParse.
func ParseDocument(text string, opt ParseOpt) (Value, error) {
	v, _, err := parseDocument(text, "", opt, nil)
	return v, err
}

// parseDocument also returns the source positions of YAML mappings,
// attributed to file. JSON input carries no positions.
func parseDocument(text, file string, opt ParseOpt, sink func(ParseIssue)) (Value, sourceMap, error) {
	if opt.MaxBytes > 0 && int64(len(text)) > opt.MaxBytes {
		return nil, nil, fmt.Errorf("%w: max bytes exceeded (%d > %d)", ErrParse, len(text), opt.MaxBytes)
	}
	if gojson.LooksLikeJSON([]byte(text)) {
		v, err := parseJSON(text, opt, sink)
		if err == nil {
			return v, nil, nil
		}
		// enforcement failures are final; syntax errors get a second chance as
		// YAML flow style ({a: 1} is valid YAML but not JSON)
		var ie eng.IssueError
		if errors.As(err, &ie) {
			return nil, nil, fmt.Errorf("%w: %w", ErrParse, err)
		}
	}
	v, pos, err := parseYAML(text, file, opt)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return v, pos, nil
}

func parseJSON(text string, opt ParseOpt, sink func(ParseIssue)) (Value, error) {
	var forward func(eng.SimpleIssue)
	if sink != nil {
		forward = func(si eng.SimpleIssue) {
			sink(ParseIssue{Code: si.Code, Path: si.Path, Message: si.Message})
		}
	}
	src := eng.WrapWithEnforcement(gojson.NewBytes([]byte(text)), eng.EnforceOptions{
		OnDuplicate: toEngineDup(opt.OnDuplicateKey),
		MaxDepth:    opt.MaxDepth,
		MaxBytes:    opt.MaxBytes,
		IssueSink:   forward,
	})
	return eng.Decode[Value](src, valueBuilder{})
}

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case Warn:
		return eng.DupWarn
	case Error:
		return eng.DupError
	}
	return eng.DupIgnore
}

// valueBuilder assembles engine tokens into document values.
type valueBuilder struct{}

func (valueBuilder) Null() Value           { return Null{} }
func (valueBuilder) Bool(b bool) Value     { return Bool(b) }
func (valueBuilder) String(s string) Value { return String(s) }
func (valueBuilder) Sequence(items []Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Sequence(items)
}

func (valueBuilder) Number(lit string) (Value, error) {
	if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
		return Int(i), nil
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", lit, err)
	}
	return Float(f), nil
}

func (valueBuilder) Mapping(keys []string, values []Value) Value {
	m := NewMapping()
	for i, k := range keys {
		m.Set(k, values[i])
	}
	return m
}
