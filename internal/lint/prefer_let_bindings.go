package lint

import (
	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/source"
)

func init() {
	Register(preferLetBindings{})
}

// preferLetBindings flags `var` locals that are never reassigned in their
// function; `let` states the intent and enables flow promotion to stick.
type preferLetBindings struct{}

func (preferLetBindings) Name() string    { return "prefer_let_bindings" }
func (preferLetBindings) Code() diag.Code { return diag.LintPreferLetBindings }

func (r preferLetBindings) Check(tree *ast.File, _ *source.File, reporter diag.Reporter) {
	for _, decl := range tree.Decls {
		switch d := decl.(type) {
		case *ast.FnDecl:
			r.checkFn(d, reporter)
		case *ast.ClassDecl:
			for _, m := range d.Members {
				if fn, ok := m.(*ast.FnDecl); ok {
					r.checkFn(fn, reporter)
				}
			}
		}
	}
}

func (r preferLetBindings) checkFn(fn *ast.FnDecl, reporter diag.Reporter) {
	if fn.Body == nil {
		return
	}
	var mutable []*ast.BindStmt
	assigned := map[string]bool{}
	ast.Walk(fn.Body, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.BindStmt:
			if node.Mutable {
				mutable = append(mutable, node)
			}
		case *ast.Assign:
			if target, ok := node.Target.(*ast.Ident); ok {
				assigned[target.Name] = true
			}
		}
		return true
	})
	for _, bind := range mutable {
		if !assigned[bind.Name] {
			report(r, reporter, bind.NameLoc,
				"'"+bind.Name+"' is never reassigned; declare it with 'let'")
		}
	}
}
