package ast

import "loom/internal/source"

// Stmt is any statement node.
type Stmt interface {
	Node
	stmt()
}

type stmtBase struct {
	base
}

func (stmtBase) stmt() {}

type Block struct {
	stmtBase
	Stmts []Stmt
}

type ExprStmt struct {
	stmtBase
	X Expr
}

// BindStmt is a local `let NAME = expr;` (immutable) or `var NAME = expr;`
// (mutable) binding.
type BindStmt struct {
	stmtBase
	Name    string
	NameLoc source.Span
	Value   Expr
	Mutable bool
}

type ReturnStmt struct {
	stmtBase
	Value Expr // nil for bare return
}

type IfStmt struct {
	stmtBase
	Cond Expr
	Then *Block
	Else Stmt // nil, *Block, or *IfStmt
}

type WhileStmt struct {
	stmtBase
	Cond Expr
	Body *Block
}
