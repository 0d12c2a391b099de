package pascalfix

import (
	"github.com/jward/pascalfix/internal/rewrite"
)

// Public aliases for internal rewrite types used in the Fixer API.

type Marker = rewrite.Marker
type Rename = rewrite.Rename

var (
	Newtonsoft     = rewrite.Newtonsoft
	SystemTextJson = rewrite.SystemTextJson
)

// MarkerByName returns the marker for a serializer name such as
// "newtonsoft" or "system-text-json".
func MarkerByName(name string) (Marker, error) {
	return rewrite.MarkerByName(name)
}

// DiagnosticID identifies the property-casing diagnostic this fix handles.
// It is the only contract shared with the analyzer that reports it.
const DiagnosticID = "ToPascalCaseWithJsonProperty"

// Span is a half-open byte range [Start, End) in a source file.
type Span struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Diagnostic is the part of an analyzer diagnostic the fix consumes.
type Diagnostic struct {
	ID   string
	Span Span
}

// NewDiagnostic returns a property-casing diagnostic at span.
func NewDiagnostic(span Span) Diagnostic {
	return Diagnostic{ID: DiagnosticID, Span: span}
}

// Result is the outcome of one fix invocation on one source file.
type Result struct {
	// Path is set by FixFiles.
	Path        string
	Original    []byte
	Source      []byte
	Renames     []Rename
	ImportAdded bool
}

// Changed reports whether the fix altered the source.
func (r *Result) Changed() bool {
	return len(r.Renames) > 0 || r.ImportAdded
}
