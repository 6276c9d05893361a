package sema

import (
	"fmt"
	"strings"

	"loom/internal/ast"
	"loom/internal/diag"
)

// SelectURI picks the effective URI of a directive under the declared
// variables: the first configuration whose variable matches wins, otherwise
// the default URI. Pure; resolution state is not consulted.
func SelectURI(d *ast.Directive, declared map[string]string) ast.StringLit {
	for _, cfg := range d.Configurations {
		got, ok := declared[cfg.Name]
		if !ok {
			continue
		}
		want := cfg.Value
		if want == "" {
			// Bare `if (declared.NAME)` matches the string "true".
			want = "true"
		}
		if got == want {
			return cfg.URI
		}
	}
	return d.URI
}

// validURI rejects URIs that cannot name a file: empty, whitespace, or
// backslash separators. Scheme-qualified URIs are left to the workspace.
func validURI(uri string) bool {
	if uri == "" {
		return false
	}
	return !strings.ContainsAny(uri, " \t\\")
}

// DirectiveResolver links every directive of a library to its target file
// and validates the target's kind. After Resolve each directive carries
// exactly one non-pending status; diagnostics land in the defining file's
// bag.
type DirectiveResolver struct {
	Workspace Workspace
	Declared  map[string]string
	// Quiet annotates directives without reporting; the completion path
	// resolves this way to keep diagnostic bags untouched.
	Quiet bool
}

// Resolve processes the defining unit's directives in source order. Errors
// on one directive never stop the remainder.
func (r *DirectiveResolver) Resolve(lib *Library) {
	var reporter diag.Reporter = lib.Defining.Reporter()
	if r.Quiet {
		reporter = diag.NopReporter{}
	}
	seenParts := map[string]*ast.Directive{}
	for _, d := range lib.Defining.Tree.Directives {
		r.resolveOne(lib, d, reporter, seenParts)
	}
	r.checkPartLinks(lib, reporter)
}

func (r *DirectiveResolver) resolveOne(lib *Library, d *ast.Directive, reporter diag.Reporter, seenParts map[string]*ast.Directive) {
	selected := SelectURI(d, r.Declared)
	d.SelectedURI = selected.Value

	if selected.Interpolated {
		d.Status = ast.DirectiveUriWithInterpolation
		diag.ReportError(reporter, diag.DirUriWithInterpolation, selected.Span(),
			"directive URIs must be literal strings; interpolation cannot be resolved").
			Emit()
		return
	}
	if !validURI(selected.Value) {
		d.Status = ast.DirectiveInvalidUri
		diag.ReportError(reporter, diag.DirInvalidUri, selected.Span(),
			fmt.Sprintf("%q is not a valid file URI", selected.Value)).
			Emit()
		return
	}
	path, ok := r.Workspace.ResolveURI(lib.Defining.File.Path, selected.Value)
	if !ok {
		d.Status = ast.DirectiveInvalidUri
		diag.ReportError(reporter, diag.DirInvalidUri, selected.Span(),
			fmt.Sprintf("%q cannot be resolved against %q", selected.Value, lib.Defining.File.Path)).
			Emit()
		return
	}
	d.TargetPath = path

	info, state := r.Workspace.Target(path)
	switch state {
	case TargetMissing:
		d.Status = ast.DirectiveUriDoesNotExist
		diag.ReportError(reporter, diag.DirUriDoesNotExist, selected.Span(),
			fmt.Sprintf("target of %s does not exist: %q", d.Kind, selected.Value)).
			Emit()
		return
	case TargetNotGenerated:
		d.Status = ast.DirectiveUriNotGenerated
		diag.ReportError(reporter, diag.DirUriHasNotBeenGenerated, selected.Span(),
			fmt.Sprintf("target of %s has not been generated yet: %q", d.Kind, selected.Value)).
			Emit()
		return
	}

	switch d.Kind {
	case ast.DirImport, ast.DirExport:
		r.checkLibraryTarget(d, selected, info, reporter)
	case ast.DirPart:
		if prev, dup := seenParts[path]; dup {
			d.Status = ast.DirectiveResolved
			diag.ReportWarning(reporter, diag.DirDuplicatePart, selected.Span(),
				fmt.Sprintf("%q is already included as a part", selected.Value)).
				WithNote(prev.URI.Span(), "first inclusion is here").
				Emit()
			return
		}
		seenParts[path] = d
		r.checkPartTarget(lib, d, selected, info, reporter)
	}
}

func (r *DirectiveResolver) checkLibraryTarget(d *ast.Directive, selected ast.StringLit, info *TargetInfo, reporter diag.Reporter) {
	if info.IsLibrary() {
		d.Status = ast.DirectiveResolved
		return
	}
	d.Status = ast.DirectiveWrongKind
	code := diag.DirImportOfNonLibrary
	if d.Kind == ast.DirExport {
		code = diag.DirExportOfNonLibrary
	}
	diag.ReportError(reporter, code, selected.Span(),
		fmt.Sprintf("%q is a part file and cannot be a %s target", selected.Value, d.Kind)).
		WithNote(info.PartOf.Span(), "declared a part here").
		Emit()
}

func (r *DirectiveResolver) checkPartTarget(lib *Library, d *ast.Directive, selected ast.StringLit, info *TargetInfo, reporter diag.Reporter) {
	partOf := info.PartOf
	if partOf == nil {
		d.Status = ast.DirectiveWrongKind
		diag.ReportError(reporter, diag.DirPartOfNonPart, selected.Span(),
			fmt.Sprintf("%q has no 'part of' declaration", selected.Value)).
			Emit()
		return
	}
	if partOf.IsURI {
		// The part names its library by URI; it must resolve back to the
		// defining file.
		back, ok := r.Workspace.ResolveURI(info.Path, partOf.URI)
		if !ok || back != lib.Defining.File.Path {
			d.Status = ast.DirectiveWrongKind
			diag.ReportError(reporter, diag.DirPartOfDifferentLibrary, selected.Span(),
				fmt.Sprintf("%q declares 'part of \"%s\"', which is not this library", selected.Value, partOf.URI)).
				Emit()
			return
		}
		d.Status = ast.DirectiveResolved
		return
	}
	if lib.Name == "" {
		d.Status = ast.DirectiveWrongKind
		diag.ReportError(reporter, diag.DirPartOfUnnamedLibrary, selected.Span(),
			fmt.Sprintf("%q declares 'part of %s' but the including library has no name", selected.Value, partOf.Name)).
			Emit()
		return
	}
	if partOf.Name != lib.Name {
		d.Status = ast.DirectiveWrongKind
		diag.ReportError(reporter, diag.DirPartOfDifferentLibrary, selected.Span(),
			fmt.Sprintf("%q declares 'part of %s' but this library is %q", selected.Value, partOf.Name, lib.Name)).
			Emit()
		return
	}
	d.Status = ast.DirectiveResolved
}

// checkPartLinks reports part entries the driver failed to link even though
// their directives resolved, e.g. a file deleted between discovery and
// loading.
func (r *DirectiveResolver) checkPartLinks(lib *Library, reporter diag.Reporter) {
	linked := map[string]bool{}
	for _, entry := range lib.Parts {
		if entry.Unit != nil {
			linked[entry.Directive.TargetPath] = true
		}
	}
	for _, entry := range lib.Parts {
		if entry.Unit != nil || !entry.Directive.IsResolved() || linked[entry.Directive.TargetPath] {
			continue
		}
		diag.ReportError(reporter, diag.DirPartOfMissing, entry.Directive.URI.Span(),
			fmt.Sprintf("part %q could not be loaded", entry.Directive.SelectedURI)).
			Emit()
	}
}
