package sema

import (
	"fmt"
	"strings"

	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/elements"
	"loom/internal/options"
)

// hintPass emits the advisory diagnostics. The used-element sweep runs once
// per library before any per-file hints so usage in one part suppresses the
// hint in another.
type hintPass struct {
	rs       *resolution
	sdkMajor int
	sdkMinor int
	used     map[*elements.Element]bool
}

func newHintPass(rs *resolution, sdkMajor, sdkMinor int) *hintPass {
	h := &hintPass{
		rs:       rs,
		sdkMajor: sdkMajor,
		sdkMinor: sdkMinor,
		used:     map[*elements.Element]bool{},
	}
	for _, ref := range rs.refs {
		h.used[ref.elem] = true
	}
	// A subclass keeps its superclass alive, and a used class keeps its
	// members alive for dynamic dispatch.
	for _, elem := range rs.lib.Element.Order {
		if elem.Super != nil {
			h.used[elem.Super] = true
		}
	}
	for _, ref := range rs.refs {
		if ref.elem.Kind == elements.ElemClass {
			for _, m := range ref.elem.Members {
				h.used[m] = true
			}
		}
	}
	return h
}

func (h *hintPass) run(u *Unit) {
	reporter := u.Reporter()
	if u == h.rs.lib.Defining {
		h.unusedImports(reporter)
	}
	h.unusedElements(u, reporter)
	h.unusedLocals(u, reporter)
	h.deadCode(u, reporter)
	h.todos(u, reporter)
	h.overrides(u, reporter)
	h.apiHints(u, reporter)
}

func (h *hintPass) unusedImports(reporter diag.Reporter) {
	for _, ns := range h.rs.namespaces {
		if ns.used {
			continue
		}
		diag.ReportHint(reporter, diag.HintUnusedImport, ns.directive.Span(),
			fmt.Sprintf("import of %q is never used", ns.directive.SelectedURI)).
			Emit()
	}
}

// unusedElements flags private declarations nothing references. Public
// declarations are part of the library's API and stay silent.
func (h *hintPass) unusedElements(u *Unit, reporter diag.Reporter) {
	for _, decl := range u.Tree.Decls {
		elem, ok := h.rs.declOf[decl]
		if !ok {
			continue
		}
		h.checkUnused(elem, reporter)
		for _, m := range elem.Members {
			h.checkUnused(m, reporter)
		}
	}
}

func (h *hintPass) checkUnused(elem *elements.Element, reporter diag.Reporter) {
	if !strings.HasPrefix(elem.Name, "_") || h.used[elem] {
		return
	}
	diag.ReportHint(reporter, diag.HintUnusedElement, elem.Loc,
		fmt.Sprintf("%s %q is never used", elem.Kind, elem.Name)).
		Emit()
}

func (h *hintPass) unusedLocals(u *Unit, reporter diag.Reporter) {
	for _, lv := range h.rs.localsOf[u] {
		if lv.used || lv.name == "_" {
			continue
		}
		diag.ReportHint(reporter, diag.HintUnusedLocal, lv.loc,
			fmt.Sprintf("local %q is never used", lv.name)).
			Emit()
	}
}

// deadCode flags statements following a return inside the same block.
func (h *hintPass) deadCode(u *Unit, reporter diag.Reporter) {
	ast.Walk(u.Tree, func(n ast.Node) bool {
		blk, ok := n.(*ast.Block)
		if !ok {
			return true
		}
		for i, stmt := range blk.Stmts {
			if _, isReturn := stmt.(*ast.ReturnStmt); !isReturn || i+1 >= len(blk.Stmts) {
				continue
			}
			span := blk.Stmts[i+1].Span().Cover(blk.Stmts[len(blk.Stmts)-1].Span())
			diag.ReportHint(reporter, diag.HintDeadCode, span,
				"statements after 'return' are never executed").
				Emit()
			break
		}
		return true
	})
}

func (h *hintPass) todos(u *Unit, reporter diag.Reporter) {
	for _, c := range u.Tree.Comments {
		text := strings.TrimSpace(c.Text)
		if !strings.HasPrefix(text, "TODO") {
			continue
		}
		reporter.Report(diag.New(diag.SevInfo, diag.HintTodo, c.Span(), text))
	}
}

// overrides checks member shape against the superclass chain: a method
// override with a different parameter count gets a hint, and a field that
// merely restates an inherited field is redundant.
func (h *hintPass) overrides(u *Unit, reporter diag.Reporter) {
	for _, decl := range u.Tree.Decls {
		elem, ok := h.rs.declOf[decl]
		if !ok || elem.Kind != elements.ElemClass || elem.Super == nil {
			continue
		}
		for _, m := range elem.Members {
			inherited := elem.Super.LookupMember(m.Name)
			if inherited == nil {
				continue
			}
			switch {
			case m.Kind == elements.ElemFunction && inherited.Kind == elements.ElemFunction:
				if len(m.Params) != len(inherited.Params) {
					diag.ReportHint(reporter, diag.HintOverrideMismatch, m.Loc,
						fmt.Sprintf("%q takes %d parameters but the inherited member takes %d",
							m.Name, len(m.Params), len(inherited.Params))).
						WithNote(inherited.Loc, "inherited member is here").
						Emit()
				}
			case m.Kind == elements.ElemVariable && inherited.Kind == elements.ElemVariable:
				diag.ReportHint(reporter, diag.HintRedundantOverride, m.Loc,
					fmt.Sprintf("field %q is already declared by the superclass", m.Name)).
					WithNote(inherited.Loc, "inherited field is here").
					Emit()
			}
		}
	}
}

// apiHints covers per-reference metadata: deprecation and @since gating
// against the effective language version of the referencing file.
func (h *hintPass) apiHints(u *Unit, reporter diag.Reporter) {
	major, minor := h.rs.effectiveVersion(u)
	for _, ref := range h.rs.refs {
		if ref.unit != u {
			continue
		}
		if ref.elem.Deprecated {
			diag.ReportHint(reporter, diag.HintDeprecatedUse, ref.span,
				fmt.Sprintf("%q is deprecated", ref.elem.Name)).
				Emit()
		}
		if ref.elem.Since == "" {
			continue
		}
		needMajor, needMinor := options.ParseVersion(ref.elem.Since, 0, 0)
		if needMajor > major || (needMajor == major && needMinor > minor) {
			diag.ReportHint(reporter, diag.HintSdkVersionTooLow, ref.span,
				fmt.Sprintf("%q requires language version %s; this file uses %d.%d",
					ref.elem.Name, ref.elem.Since, major, minor)).
				Emit()
		}
	}
}
