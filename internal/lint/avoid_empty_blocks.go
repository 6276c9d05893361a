package lint

import (
	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/source"
)

func init() {
	Register(avoidEmptyBlocks{})
}

// avoidEmptyBlocks flags `{}` bodies of if and while statements. Empty
// function bodies are allowed; stubs are a legitimate idiom.
type avoidEmptyBlocks struct{}

func (avoidEmptyBlocks) Name() string    { return "avoid_empty_blocks" }
func (avoidEmptyBlocks) Code() diag.Code { return diag.LintAvoidEmptyBlocks }

func (r avoidEmptyBlocks) Check(tree *ast.File, _ *source.File, reporter diag.Reporter) {
	ast.Walk(tree, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.IfStmt:
			r.checkBlock(node.Then, reporter)
			if blk, ok := node.Else.(*ast.Block); ok {
				r.checkBlock(blk, reporter)
			}
		case *ast.WhileStmt:
			r.checkBlock(node.Body, reporter)
		}
		return true
	})
}

func (r avoidEmptyBlocks) checkBlock(blk *ast.Block, reporter diag.Reporter) {
	if blk != nil && len(blk.Stmts) == 0 {
		report(r, reporter, blk.Span(), "empty block; add a statement or remove the branch")
	}
}
