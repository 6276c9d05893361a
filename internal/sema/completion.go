package sema

import (
	"loom/internal/ast"
	"loom/internal/source"
)

// CompletionResult is the narrow resolution a completion request needs: the
// unit's tree with references bound, and the declaration that was resolved.
type CompletionResult struct {
	Unit *Unit
	// Decl is the smallest top-level declaration enclosing the offset. nil
	// means no declaration contains the offset and the whole file was
	// resolved instead.
	Decl ast.Decl
}

// AnalyzeForCompletion resolves just enough of one file to answer a
// completion request at the byte offset: the enclosing top-level declaration
// when there is one, the whole file otherwise. No diagnostics are produced;
// an editor asking for completions inside broken code does not want a second
// wave of errors.
func (a *Analyzer) AnalyzeForCompletion(lib *Library, file source.FileID, offset uint32) *CompletionResult {
	u := lib.UnitFor(file)
	if u == nil {
		return nil
	}
	if directivesPending(lib) {
		resolver := &DirectiveResolver{Workspace: a.ws, Declared: a.opts.Declared, Quiet: true}
		resolver.Resolve(lib)
	}
	sdkMajor, sdkMinor := a.opts.SDKVersion()
	rs := newResolution(lib, a.ws, sdkMajor, sdkMinor)
	rs.bindQuiet()

	decl := enclosingDecl(u.Tree, offset)
	if decl != nil {
		rs.resolveDeclOnly(u, decl)
		return &CompletionResult{Unit: u, Decl: decl}
	}
	for _, d := range u.Tree.Decls {
		rs.resolveDeclOnly(u, d)
	}
	return &CompletionResult{Unit: u, Decl: nil}
}

func directivesPending(lib *Library) bool {
	for _, d := range lib.Defining.Tree.Directives {
		if d.Status == ast.DirectivePending {
			return true
		}
	}
	return false
}

// enclosingDecl picks the smallest top-level declaration whose span contains
// the offset.
func enclosingDecl(tree *ast.File, offset uint32) ast.Decl {
	var best ast.Decl
	for _, decl := range tree.Decls {
		span := decl.Span()
		if !span.Contains(offset) {
			continue
		}
		if best == nil || span.Len() < best.Span().Len() {
			best = decl
		}
	}
	return best
}
