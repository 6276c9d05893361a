// Package elements holds the signature-level semantic model for one library:
// every declaration reduced to name, kind, and shape. The analysis core binds
// references to these entities; it never synthesizes them.
package elements

import (
	"loom/internal/ast"
	"loom/internal/source"
)

// ElementKind classifies declaration elements.
type ElementKind uint8

const (
	ElemClass ElementKind = iota
	ElemFunction
	ElemVariable
	ElemConstant
	ElemParameter
)

func (k ElementKind) String() string {
	switch k {
	case ElemClass:
		return "class"
	case ElemFunction:
		return "function"
	case ElemVariable:
		return "variable"
	case ElemConstant:
		return "constant"
	case ElemParameter:
		return "parameter"
	default:
		return "element"
	}
}

// Element is one declaration. Parent is the enclosing class for members,
// nil at top level.
type Element struct {
	Kind    ElementKind
	Name    string
	Loc     source.Span
	File    source.FileID
	Library *LibraryElement
	Parent  *Element
	Decl    ast.Decl

	// Class shape
	Abstract  bool
	SuperName string
	Super     *Element
	Members   []*Element

	// Function shape
	Params []*Element

	// Variable shape
	Mutable bool

	// Annotation-derived metadata
	Deprecated bool
	Since      string // minimum SDK version from @since("X.Y"), "" when absent
}

// ElementName implements ast.Referent.
func (e *Element) ElementName() string { return e.Name }

// Member finds a direct member by name, nil when absent.
func (e *Element) Member(name string) *Element {
	for _, m := range e.Members {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// LookupMember searches the class and its superclasses.
func (e *Element) LookupMember(name string) *Element {
	for cls := e; cls != nil; cls = cls.Super {
		if m := cls.Member(name); m != nil {
			return m
		}
	}
	return nil
}

// LibraryElement is the shared public namespace of one library: the defining
// file plus all parts contribute to it. It is created once per analysis and
// passed by reference into every per-file resolution; never a singleton.
type LibraryElement struct {
	Name         string
	DefiningFile source.FileID
	Files        []source.FileID
	// Declarations holds every top-level element of the unit by name.
	Declarations map[string]*Element
	// ordered for deterministic traversal
	Order []*Element
}

// Lookup returns the top-level element with the given name.
func (lib *LibraryElement) Lookup(name string) (*Element, bool) {
	e, ok := lib.Declarations[name]
	return e, ok
}
