package lint

import (
	"strings"
	"unicode"

	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/source"
)

func init() {
	Register(upperCaseConstants{})
}

// upperCaseConstants flags const declarations whose names are not
// UPPER_SNAKE_CASE. Leading underscores mark privacy and are skipped when
// judging the first letter.
type upperCaseConstants struct{}

func (upperCaseConstants) Name() string    { return "upper_case_constants" }
func (upperCaseConstants) Code() diag.Code { return diag.LintUpperCaseConsts }

func (r upperCaseConstants) Check(tree *ast.File, _ *source.File, reporter diag.Reporter) {
	for _, decl := range tree.Decls {
		switch d := decl.(type) {
		case *ast.ConstDecl:
			r.checkName(d, reporter)
		case *ast.ClassDecl:
			for _, m := range d.Members {
				if c, ok := m.(*ast.ConstDecl); ok {
					r.checkName(c, reporter)
				}
			}
		}
	}
}

func (r upperCaseConstants) checkName(c *ast.ConstDecl, reporter diag.Reporter) {
	name := strings.TrimLeft(c.Name, "_")
	if name == "" || isUpperSnake(name) {
		return
	}
	report(r, reporter, c.NameSpan(),
		"constant '"+c.Name+"' should use an UPPER_SNAKE_CASE name")
}

func isUpperSnake(name string) bool {
	for _, r := range name {
		if unicode.IsLower(r) {
			return false
		}
	}
	return true
}
