package diag

import (
	"loom/internal/source"
)

// Note attaches a secondary location and message to a diagnostic.
type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is an immutable report produced by any analysis pass. Ownership
// transfers to the file's Bag on Add; after that it is only read or filtered.
type Diagnostic struct {
	Severity Severity
	Code     Code
	// Rule holds the lint rule name for lint diagnostics, "" otherwise.
	// Ignore comments may reference either the Code ID or the rule name.
	Rule    string
	Message string
	Primary source.Span
	Notes   []Note
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

// IgnoreKey returns the identifier ignore comments use for this diagnostic:
// the lint rule name when present, the code ID otherwise.
func (d Diagnostic) IgnoreKey() string {
	if d.Rule != "" {
		return d.Rule
	}
	return d.Code.ID()
}
