package salad

// Severity expresses the severity level for parse-time findings.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

func (s Severity) String() string {
	switch s {
	case Warn:
		return "warn"
	case Error:
		return "error"
	}
	return "ignore"
}

// ParseOpt bundles document parsing options.
type ParseOpt struct {
	// OnDuplicateKey applies to JSON input. YAML input always rejects
	// duplicate keys.
	OnDuplicateKey Severity
	MaxDepth       int
	MaxBytes       int64
}

// DefaultParseOpt rejects duplicate keys and leaves depth and size unbounded.
func DefaultParseOpt() ParseOpt {
	return ParseOpt{OnDuplicateKey: Error}
}
