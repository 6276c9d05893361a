package ast

import "loom/internal/source"

// Referent is the resolved declaration an identifier binds to. The concrete
// type lives in the elements package; ast only needs identity and a name.
type Referent interface {
	ElementName() string
}

// TypeInfo is the static type the resolver computes for an expression.
// Invalid marks the best-effort "unknown" type used after resolution errors;
// NullSafe reports whether the type was computed under null-safety semantics.
type TypeInfo interface {
	TypeString() string
	Invalid() bool
	NullSafe() bool
}

// Expr is any expression node.
type Expr interface {
	Node
	StaticType() TypeInfo
	SetStaticType(TypeInfo)
	expr()
}

type exprBase struct {
	base
	typ TypeInfo
}

func (e *exprBase) StaticType() TypeInfo     { return e.typ }
func (e *exprBase) SetStaticType(t TypeInfo) { e.typ = t }
func (e *exprBase) expr()                    {}

// Ident is a simple name reference. Ref is set by the resolver.
type Ident struct {
	exprBase
	Name string
	Ref  Referent
}

// PrefixedIdent is `prefix.name`, where prefix is an import prefix or a
// class name. Ref binds the full reference.
type PrefixedIdent struct {
	exprBase
	Prefix    string
	PrefixLoc source.Span
	Name      string
	NameLoc   source.Span
	Ref       Referent
}

// LitKind enumerates literal forms.
type LitKind uint8

const (
	LitInt LitKind = iota
	LitString
	LitBool
	LitNull
)

// Literal is an int, string, bool, or null literal.
type Literal struct {
	exprBase
	Kind         LitKind
	Value        string
	Interpolated bool // string literals containing ${...}
}

// UnaryOp enumerates prefix operators.
type UnaryOp uint8

const (
	UnaryNeg UnaryOp = iota // -
	UnaryNot                // !
)

type Unary struct {
	exprBase
	Op      UnaryOp
	Operand Expr
}

// BinOp enumerates binary operators.
type BinOp uint8

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinEq
	BinNotEq
	BinLess
	BinLessEq
	BinGreater
	BinGreaterEq
	BinAnd
	BinOr
)

func (op BinOp) String() string {
	switch op {
	case BinAdd:
		return "+"
	case BinSub:
		return "-"
	case BinMul:
		return "*"
	case BinDiv:
		return "/"
	case BinMod:
		return "%"
	case BinEq:
		return "=="
	case BinNotEq:
		return "!="
	case BinLess:
		return "<"
	case BinLessEq:
		return "<="
	case BinGreater:
		return ">"
	case BinGreaterEq:
		return ">="
	case BinAnd:
		return "&&"
	case BinOr:
		return "||"
	default:
		return "?"
	}
}

type Binary struct {
	exprBase
	Op    BinOp
	Left  Expr
	Right Expr
}

// Call is `callee(args)`. Const marks `const Name(args)` constructor
// invocations, which are constant targets.
type Call struct {
	exprBase
	Callee Expr
	Args   []Expr
	Const  bool
}

// IsTest is `x is Type`; the flow pass promotes x along the true branch.
type IsTest struct {
	exprBase
	Operand  Expr
	TypeName string
	TypeLoc  source.Span
}

// Assign is `target = value`. Assignment invalidates flow promotion of the
// target.
type Assign struct {
	exprBase
	Target Expr
	Value  Expr
}

// Paren is a parenthesized expression.
type Paren struct {
	exprBase
	Inner Expr
}
