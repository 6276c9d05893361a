// Package ast defines the syntax tree for Loom source files. Nodes are
// plain structs carrying a source.Span; the semantic analyzer annotates
// identifier and expression nodes in place.
package ast

import (
	"loom/internal/source"
)

// Node is implemented by every syntax tree node.
type Node interface {
	Span() source.Span
}

type base struct {
	Loc source.Span
}

func (b base) Span() source.Span { return b.Loc }

// Comment is a line comment preserved for suppression annotations, language
// version overrides, and TODO extraction.
type Comment struct {
	base
	Text string // without the leading "//"
}

// LanguageVersion is a `// @loom=MAJOR.MINOR` override found in the leading
// comments of a file.
type LanguageVersion struct {
	base
	Major int
	Minor int
}

// File is one parsed compilation unit.
type File struct {
	base
	// LibraryName is the dotted name from `library NAME;`, "" when the file
	// is unnamed or a part file.
	LibraryName string
	LibrarySpan source.Span
	// PartOf is non-nil when the file declares itself a part of a library.
	PartOf     *PartOf
	Directives []*Directive
	Decls      []Decl
	Comments   []*Comment
	// Version is the language version override, nil when absent.
	Version *LanguageVersion
}

// PartOf records either `part of NAME;` or `part of "uri";`.
type PartOf struct {
	base
	Name  string
	URI   string
	IsURI bool
}

// DirectiveKind distinguishes import, export, and part directives.
type DirectiveKind uint8

const (
	DirImport DirectiveKind = iota
	DirExport
	DirPart
)

func (k DirectiveKind) String() string {
	switch k {
	case DirImport:
		return "import"
	case DirExport:
		return "export"
	case DirPart:
		return "part"
	default:
		return "directive"
	}
}

// StringLit is a string literal; Interpolated is set when the raw literal
// contains `${`.
type StringLit struct {
	base
	Value        string
	Interpolated bool
}

// Configuration is one `if (declared.NAME == "value") "uri"` alternative on
// an import or export. Order is significant: selection scans in source order.
type Configuration struct {
	base
	Name  string // the declared-variable name
	Value string // "" for the bare truthy form
	URI   StringLit
}

// DirectiveStatus classifies the outcome of resolving one directive.
// After resolution every directive holds exactly one non-pending status.
type DirectiveStatus uint8

const (
	DirectivePending DirectiveStatus = iota
	DirectiveResolved
	DirectiveUriWithInterpolation
	DirectiveInvalidUri
	DirectiveUriDoesNotExist
	DirectiveUriNotGenerated
	DirectiveWrongKind
)

func (s DirectiveStatus) String() string {
	switch s {
	case DirectivePending:
		return "pending"
	case DirectiveResolved:
		return "resolved"
	case DirectiveUriWithInterpolation:
		return "uri-with-interpolation"
	case DirectiveInvalidUri:
		return "invalid-uri"
	case DirectiveUriDoesNotExist:
		return "uri-does-not-exist"
	case DirectiveUriNotGenerated:
		return "uri-not-generated"
	case DirectiveWrongKind:
		return "wrong-kind"
	default:
		return "unknown"
	}
}

// Directive is an import, export, or part entry. The resolver fills the
// Selected/Target/Status fields once; they are not mutated afterwards.
type Directive struct {
	base
	Kind           DirectiveKind
	URI            StringLit
	Configurations []*Configuration
	Prefix         string   // import "..." as prefix
	Show           []string // import "..." show a, b

	// SelectedURI is the URI chosen by configuration selection. Always set
	// after resolution, even on error, so consumers never see an unset link.
	SelectedURI string
	// TargetPath is the workspace path the selected URI resolved to, when
	// any ("" only for syntactically unusable URIs).
	TargetPath string
	Status     DirectiveStatus
}

// IsResolved reports whether resolution linked the directive to a file.
func (d *Directive) IsResolved() bool { return d.Status == DirectiveResolved }
