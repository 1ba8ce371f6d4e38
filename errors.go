package salad

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/salad/i18n"
)

// Validation error codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType    = "invalid_type"
	CodeInvalidEnum    = "invalid_enum"
	CodeExpectedNull   = "expected_null"
	CodeExpectedValue  = "expected_non_null"
	CodeExpectedList   = "expected_list"
	CodeExpectedMap    = "expected_mapping"
	CodeUnionMismatch  = "union_mismatch"
	CodeArrayItem      = "array_item"
	CodeMapEntry       = "map_entry"
	CodeNoMapPredicate = "no_map_predicate"
	CodeKeyCollision   = "key_collision"
	CodeSecondaryFiles = "secondary_files"
	CodeSecondaryMiss  = "secondary_files_pattern"
	CodeSecondaryExtra = "secondary_files_extra"
	CodeUnknownTerm    = "unknown_term"
	CodeUndefinedRef   = "undefined_reference"
	CodeRequired       = "required"
	CodeInvalidField   = "invalid_field"
	CodeUnknownField   = "unknown_field"
	CodeRecord         = "record"
	CodeClassMismatch  = "class_mismatch"
	CodeDirective      = "directive"
	CodeDocumentShape  = "document_shape"
	CodeRelativeURI    = "relative_uri"
	CodeSaveURI        = "save_uri"
	CodeImport         = "import"
	CodeImportCycle    = "import_cycle"
	CodeDuplicateID    = "duplicate_id"
)

// Fatal error classes. Errors wrapping one of these abort a load; they are
// never aggregated into a ValidationError tree.
var (
	ErrFetch        = errors.New("salad: fetch failed")
	ErrParse        = errors.New("salad: parse failed")
	ErrMalformedURI = errors.New("salad: malformed URI")
	ErrNotSavable   = errors.New("salad: value is not savable")
	ErrNoLoader     = errors.New("salad: no loader registered")
)

// IsFatal reports whether err aborts a load, i.e. it is not a ValidationError.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	_, isValidation := AsValidationError(err)
	return !isValidation
}

// IndentPerLevel is the number of spaces each nesting level adds when a
// ValidationError is pretty printed.
const IndentPerLevel = 2

// ValidationError is a recoverable data-shape failure. Errors nest: combinators
// that try several alternatives aggregate every failure as a child.
type ValidationError struct {
	Message  string
	Children []*ValidationError
	Bullet   string
	// Code is optional and identifies the message template, if any.
	Code string
	// Pos is the source position of the offending node, if known. Children
	// without a position of their own are reported at their parent's.
	Pos Position
}

// NewValidationError builds an error node. Children with an empty message are
// replaced by their own children so wrapper nodes never show up in the tree.
func NewValidationError(message string, children ...*ValidationError) *ValidationError {
	return &ValidationError{Message: message, Children: flatten(children)}
}

// Errorf builds a leaf error with a formatted message.
func Errorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Coded builds a leaf error whose message comes from the i18n catalogue.
func Coded(code string, data map[string]string, children ...*ValidationError) *ValidationError {
	e := NewValidationError(i18n.T(code, data), children...)
	e.Code = code
	return e
}

// WithBullet sets the bullet prefix and returns e.
func (e *ValidationError) WithBullet(bullet string) *ValidationError {
	e.Bullet = bullet
	return e
}

// At sets the source position and returns e.
func (e *ValidationError) At(pos Position) *ValidationError {
	e.Pos = pos
	return e
}

func flatten(children []*ValidationError) []*ValidationError {
	out := make([]*ValidationError, 0, len(children))
	for _, c := range children {
		if c == nil {
			continue
		}
		out = append(out, c.simplify()...)
	}
	return out
}

func (e *ValidationError) simplify() []*ValidationError {
	if e.Message != "" {
		return []*ValidationError{e}
	}
	return e.Children
}

// Summary renders this node alone at the given nesting level, prefixed with
// its position when known.
func (e *ValidationError) Summary(level int) string {
	return lead(e.Pos) + strings.Repeat(" ", level*IndentPerLevel) + e.Bullet + e.Message
}

func lead(p Position) string {
	if p.IsZero() {
		return ""
	}
	return p.String() + ": "
}

type prettyLine struct {
	lead string
	text string
}

// PrettyString renders the whole tree starting at level. A node with an empty
// message adds no line; its children stay at the parent's level. Lines are
// prefixed with "file:line:col: "; a prefix equal to the one above it is
// blanked out.
func (e *ValidationError) PrettyString(level int) string {
	var lines []prettyLine
	e.render(level, Position{}, &lines)
	var b strings.Builder
	prev := ""
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch {
		case l.lead == "":
		case l.lead == prev:
			b.WriteString(strings.Repeat(" ", len(l.lead)))
		default:
			b.WriteString(l.lead)
			prev = l.lead
		}
		b.WriteString(l.text)
	}
	return b.String()
}

func (e *ValidationError) render(level int, inherited Position, out *[]prettyLine) {
	pos := e.Pos
	if pos.IsZero() {
		pos = inherited
	}
	next := level
	if e.Message != "" {
		*out = append(*out, prettyLine{lead: lead(pos), text: strings.Repeat(" ", level*IndentPerLevel) + e.Bullet + e.Message})
		next++
	}
	for _, c := range e.Children {
		c.render(next, pos, out)
	}
}

func (e *ValidationError) Error() string { return e.PrettyString(0) }

// Leaves returns the nodes without children, depth first.
func (e *ValidationError) Leaves() []*ValidationError {
	if len(e.Children) == 0 {
		return []*ValidationError{e}
	}
	var out []*ValidationError
	for _, c := range e.Children {
		out = append(out, c.Leaves()...)
	}
	return out
}

// AsValidationError extracts a *ValidationError from err using errors.As internally.
func AsValidationError(err error) (*ValidationError, bool) {
	if err == nil {
		return nil, false
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
