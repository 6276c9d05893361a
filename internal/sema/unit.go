// Package sema is the semantic analysis core: directive resolution, name and
// type resolution with flow promotion, constant evaluation, the ordered
// diagnostic pass pipeline, and the terminal ignore filter. It consumes
// already-parsed trees; parsing and file discovery belong to the driver.
package sema

import (
	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/elements"
	"loom/internal/source"
)

// Unit is one parsed file participating in a library. The Bag accumulates
// every diagnostic for the file, parser output included.
type Unit struct {
	File *source.File
	Tree *ast.File
	Bag  *diag.Bag
}

// Reporter returns the unit's diagnostic sink.
func (u *Unit) Reporter() diag.Reporter { return diag.BagReporter{Bag: u.Bag} }

// PartEntry pairs a part directive of the defining file with the unit it
// links to. Unit is nil when the target could not be loaded; the directive
// resolver classifies why.
type PartEntry struct {
	Directive *ast.Directive
	Unit      *Unit
}

// Library is the unit of analysis: the defining file plus its ordered parts.
// The structure is built by the driver; the analyzer validates and annotates
// it but never reshapes it.
type Library struct {
	// Name is the dotted name from the defining file's library declaration,
	// "" for unnamed libraries.
	Name     string
	Defining *Unit
	Parts    []*PartEntry
	// Element is the merged public namespace of all files of the library.
	Element *elements.LibraryElement
}

// Units returns the defining unit followed by every linked part, in part
// order.
func (lib *Library) Units() []*Unit {
	units := []*Unit{lib.Defining}
	for _, p := range lib.Parts {
		if p.Unit != nil {
			units = append(units, p.Unit)
		}
	}
	return units
}

// UnitFor returns the unit holding the given file, nil when the file does
// not belong to this library.
func (lib *Library) UnitFor(id source.FileID) *Unit {
	for _, u := range lib.Units() {
		if u.File.ID == id {
			return u
		}
	}
	return nil
}

// TargetState classifies the existence of a directive target.
type TargetState uint8

const (
	// TargetExists means the path resolves to a readable file.
	TargetExists TargetState = iota
	// TargetMissing means nothing exists at the path.
	TargetMissing
	// TargetNotGenerated means the path is a known generator output that has
	// not been produced yet. Reported distinctly so the fix is obvious.
	TargetNotGenerated
)

// TargetInfo is what the directive resolver needs to know about a target
// file without pulling its full tree into this library's analysis.
type TargetInfo struct {
	Path string
	// PartOf is the target's part-of header, nil for library files.
	PartOf *ast.PartOf
	// LibraryName is the target's library declaration, "" when unnamed.
	LibraryName string
	// Names lists the target's public top-level declarations, used to build
	// import namespaces.
	Names []string
	// Version is the target's language version override, nil when absent.
	Version *ast.LanguageVersion
}

// IsLibrary reports whether the target can stand as an import or export
// target.
func (ti *TargetInfo) IsLibrary() bool { return ti.PartOf == nil }

// Workspace resolves directive URIs against the file layout. The driver
// backs it with the file set and disk; tests use an in-memory fake.
type Workspace interface {
	// ResolveURI turns a directive URI into a workspace path, relative to
	// the file containing the directive. ok is false for syntactically
	// unusable URIs.
	ResolveURI(fromPath, uri string) (path string, ok bool)
	// Target describes the file at path.
	Target(path string) (*TargetInfo, TargetState)
}
