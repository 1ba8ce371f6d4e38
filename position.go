package salad

import "fmt"

// Position locates a node in the document it was parsed from. Lines and
// columns start at 1; the zero Position means the location is unknown.
type Position struct {
	File string
	Line int
	Col  int
}

// IsZero reports whether p is unknown.
func (p Position) IsZero() bool { return p.Line == 0 }

// String renders p as "file:line:col", or "" when p is unknown.
func (p Position) String() string {
	if p.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// mappingPositions records where a parsed mapping starts and where each of
// its keys sits.
type mappingPositions struct {
	start Position
	keys  map[string]Position
}

// sourceMap holds positions of parsed mappings by identity. Mappings built in
// code have no entry.
type sourceMap map[*Mapping]*mappingPositions
