package ast

import "loom/internal/source"

// Decl is a top-level or member declaration.
type Decl interface {
	Node
	DeclName() string
	NameSpan() source.Span
	decl()
}

// Annotation is `@name` or `@name(args)` attached to a declaration.
// Annotation arguments are constant targets.
type Annotation struct {
	base
	Name string
	Args []Expr
}

type declCommon struct {
	base
	Name        string
	NameLoc     source.Span
	Annotations []*Annotation
	// Ref is the element this declaration binds to, set by the declaration
	// pass of the resolver.
	Ref Referent
}

func (d *declCommon) DeclName() string          { return d.Name }
func (d *declCommon) NameSpan() source.Span     { return d.NameLoc }
func (d *declCommon) decl()                     {}

// ClassDecl is `[abstract] class NAME [extends SUPER] { members }`.
type ClassDecl struct {
	declCommon
	Abstract  bool
	SuperName string
	SuperLoc  source.Span
	Members   []Decl
}

// FnDecl is a top-level function or a class method.
type FnDecl struct {
	declCommon
	Params []*Param
	Body   *Block // nil for abstract methods
}

// Param is one function parameter; Default, when present, is a constant
// target.
type Param struct {
	base
	Name    string
	Default Expr
}

// ConstDecl is `const NAME = expr;` at top level or inside a class.
type ConstDecl struct {
	declCommon
	Value Expr
}

// VarDecl is `var NAME = expr;` or a class field.
type VarDecl struct {
	declCommon
	Value Expr
}
