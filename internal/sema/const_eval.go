package sema

import (
	"fmt"
	"strconv"

	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/elements"
	"loom/internal/source"
)

// ValueKind classifies evaluated constant values.
type ValueKind uint8

const (
	// ValInvalid marks a failed evaluation. Dependents of an invalid
	// constant stay silent; the root cause already has a diagnostic.
	ValInvalid ValueKind = iota
	ValInt
	ValBool
	ValString
	ValNull
	// ValObject is a const constructor invocation.
	ValObject
	// ValUnknown is a constant whose value lives in another library. It is
	// constant for checking purposes but opaque to arithmetic.
	ValUnknown
)

// Value is the result of evaluating one constant expression.
type Value struct {
	Kind  ValueKind
	Int   int64
	Bool  bool
	Str   string
	Class string // class name for ValObject
}

func invalidValue() Value { return Value{Kind: ValInvalid} }
func unknownValue() Value { return Value{Kind: ValUnknown} }

// IsConstant reports whether the value stands for a successfully checked
// constant.
func (v Value) IsConstant() bool { return v.Kind != ValInvalid }

const (
	evalVisiting = 1
	evalDone     = 2
)

// constEvaluator evaluates every constant target of a library in dependency
// order with memoization. A cycle poisons exactly its participants; targets
// merely depending on a cycle stay silent, and independent targets evaluate
// normally.
type constEvaluator struct {
	rs *resolution

	state  map[*elements.Element]uint8
	values map[*elements.Element]Value
	stack  []*elements.Element
	// inCycle marks elements found on a dependency cycle; each reports once
	// while its own frame unwinds.
	inCycle  map[*elements.Element]bool
	reported map[*elements.Element]bool
	// covered tracks expressions already evaluated inside a named constant,
	// so the discovery walk does not evaluate them a second time.
	covered map[ast.Expr]bool
}

func newConstEvaluator(rs *resolution) *constEvaluator {
	return &constEvaluator{
		rs:       rs,
		state:    map[*elements.Element]uint8{},
		values:   map[*elements.Element]Value{},
		inCycle:  map[*elements.Element]bool{},
		reported: map[*elements.Element]bool{},
		covered:  map[ast.Expr]bool{},
	}
}

// run discovers and evaluates every constant target: const declarations,
// const constructor calls, parameter defaults, and annotation arguments.
func (ce *constEvaluator) run() {
	for _, u := range ce.rs.lib.Units() {
		ast.Walk(u.Tree, func(n ast.Node) bool {
			switch node := n.(type) {
			case *ast.ConstDecl:
				if elem, ok := ce.rs.declOf[node]; ok {
					ce.evalConst(elem)
				}
			case *ast.Param:
				if node.Default != nil {
					ce.evalTarget(node.Default)
				}
			case *ast.Annotation:
				for _, arg := range node.Args {
					ce.evalTarget(arg)
				}
			case *ast.Call:
				if node.Const {
					ce.evalTarget(node)
				}
			}
			return true
		})
	}
}

func (ce *constEvaluator) evalTarget(expr ast.Expr) Value {
	if ce.covered[expr] {
		return invalidValue()
	}
	ce.covered[expr] = true
	reported := false
	return ce.eval(expr, &reported)
}

// evalConst evaluates a named constant with memoization and cycle tracking.
func (ce *constEvaluator) evalConst(elem *elements.Element) Value {
	switch ce.state[elem] {
	case evalDone:
		return ce.values[elem]
	case evalVisiting:
		ce.markCycleFrom(elem)
		return invalidValue()
	}
	ce.state[elem] = evalVisiting
	ce.stack = append(ce.stack, elem)

	value := invalidValue()
	if decl, ok := elem.Decl.(*ast.ConstDecl); ok && decl.Value != nil {
		ce.covered[decl.Value] = true
		reported := false
		value = ce.eval(decl.Value, &reported)
	}

	ce.stack = ce.stack[:len(ce.stack)-1]
	if ce.inCycle[elem] {
		value = invalidValue()
		if !ce.reported[elem] {
			ce.reported[elem] = true
			diag.ReportError(ce.reporterFor(elem.Loc.File), diag.SemaConstCycle, elem.Loc,
				fmt.Sprintf("constant %q depends on itself through a cycle", elem.Name)).
				Emit()
		}
	}
	ce.state[elem] = evalDone
	ce.values[elem] = value
	return value
}

// markCycleFrom flags every element on the active stack from the re-entered
// element onward as a cycle participant.
func (ce *constEvaluator) markCycleFrom(elem *elements.Element) {
	start := 0
	for i, e := range ce.stack {
		if e == elem {
			start = i
			break
		}
	}
	for _, e := range ce.stack[start:] {
		ce.inCycle[e] = true
	}
}

func (ce *constEvaluator) reporterFor(id source.FileID) diag.Reporter {
	if u := ce.rs.lib.UnitFor(id); u != nil {
		return u.Reporter()
	}
	return diag.NopReporter{}
}

// fail reports the first defect of a target and returns the invalid value.
// Later defects of the same target stay silent.
func (ce *constEvaluator) fail(code diag.Code, span source.Span, msg string, reported *bool) Value {
	if !*reported {
		*reported = true
		diag.ReportError(ce.reporterFor(span.File), code, span, msg).Emit()
	}
	return invalidValue()
}

func (ce *constEvaluator) eval(expr ast.Expr, reported *bool) Value {
	switch x := expr.(type) {
	case *ast.Literal:
		return ce.evalLiteral(x, reported)
	case *ast.Paren:
		return ce.eval(x.Inner, reported)
	case *ast.Unary:
		return ce.evalUnary(x, reported)
	case *ast.Binary:
		return ce.evalBinary(x, reported)
	case *ast.Ident:
		return ce.evalRef(x.Ref, x.Name, x.Span(), reported)
	case *ast.PrefixedIdent:
		return ce.evalRef(x.Ref, x.Prefix+"."+x.Name, x.Span(), reported)
	case *ast.Call:
		return ce.evalCall(x, reported)
	}
	return ce.fail(diag.SemaConstNotConstant, expr.Span(),
		"expression is not a compile-time constant", reported)
}

func (ce *constEvaluator) evalLiteral(x *ast.Literal, reported *bool) Value {
	switch x.Kind {
	case ast.LitInt:
		n, err := strconv.ParseInt(x.Value, 10, 64)
		if err != nil {
			return ce.fail(diag.SemaConstInvalidOperation, x.Span(),
				fmt.Sprintf("integer literal %q is out of range", x.Value), reported)
		}
		return Value{Kind: ValInt, Int: n}
	case ast.LitString:
		if x.Interpolated {
			return ce.fail(diag.SemaConstNotConstant, x.Span(),
				"interpolated strings are not compile-time constants", reported)
		}
		return Value{Kind: ValString, Str: x.Value}
	case ast.LitBool:
		return Value{Kind: ValBool, Bool: x.Value == "true"}
	case ast.LitNull:
		return Value{Kind: ValNull}
	}
	return invalidValue()
}

func (ce *constEvaluator) evalRef(ref ast.Referent, name string, span source.Span, reported *bool) Value {
	switch r := ref.(type) {
	case *elements.Element:
		switch r.Kind {
		case elements.ElemConstant:
			v := ce.evalConst(r)
			if v.Kind == ValInvalid {
				// The constant's own diagnostic explains the failure; mark
				// this target as handled without a second report.
				*reported = true
			}
			return v
		default:
			return ce.fail(diag.SemaConstNotConstant, span,
				fmt.Sprintf("%s %q is not a compile-time constant", r.Kind, name), reported)
		}
	case *importedRef:
		// Cross-library constants are checked by their own library's
		// analysis; here the value is opaque.
		return unknownValue()
	case *localVar:
		return ce.fail(diag.SemaConstNotConstant, span,
			fmt.Sprintf("local %q cannot appear in a constant expression", name), reported)
	}
	// Unresolved reference; resolution already reported it.
	*reported = true
	return invalidValue()
}

func (ce *constEvaluator) evalCall(x *ast.Call, reported *bool) Value {
	if !x.Const {
		return ce.fail(diag.SemaConstNotConstant, x.Span(),
			"function calls are not compile-time constants", reported)
	}
	ce.covered[x] = true
	ok := true
	for _, arg := range x.Args {
		argReported := false
		v := ce.eval(arg, &argReported)
		if argReported {
			*reported = true
		}
		if v.Kind == ValInvalid {
			ok = false
		}
	}
	elem := calleeElement(x.Callee)
	if elem == nil {
		if _, imported := calleeImportedRef(x.Callee); imported {
			return unknownValue()
		}
		*reported = true
		return invalidValue()
	}
	if elem.Kind != elements.ElemClass {
		return ce.fail(diag.SemaConstNotConstant, x.Callee.Span(),
			fmt.Sprintf("const invocation target %q is not a class", elem.Name), reported)
	}
	if !ok {
		return invalidValue()
	}
	return Value{Kind: ValObject, Class: elem.Name}
}

func calleeImportedRef(callee ast.Expr) (*importedRef, bool) {
	var ref ast.Referent
	switch c := callee.(type) {
	case *ast.Ident:
		ref = c.Ref
	case *ast.PrefixedIdent:
		ref = c.Ref
	}
	r, ok := ref.(*importedRef)
	return r, ok
}

func (ce *constEvaluator) evalUnary(x *ast.Unary, reported *bool) Value {
	operand := ce.eval(x.Operand, reported)
	switch operand.Kind {
	case ValInvalid:
		return operand
	case ValUnknown:
		return operand
	}
	switch x.Op {
	case ast.UnaryNeg:
		if operand.Kind != ValInt {
			return ce.fail(diag.SemaConstInvalidOperation, x.Span(),
				"operand of '-' must be an int constant", reported)
		}
		return Value{Kind: ValInt, Int: -operand.Int}
	case ast.UnaryNot:
		if operand.Kind != ValBool {
			return ce.fail(diag.SemaConstInvalidOperation, x.Span(),
				"operand of '!' must be a bool constant", reported)
		}
		return Value{Kind: ValBool, Bool: !operand.Bool}
	}
	return invalidValue()
}

func (ce *constEvaluator) evalBinary(x *ast.Binary, reported *bool) Value {
	left := ce.eval(x.Left, reported)
	right := ce.eval(x.Right, reported)
	if left.Kind == ValInvalid || right.Kind == ValInvalid {
		return invalidValue()
	}
	if left.Kind == ValUnknown || right.Kind == ValUnknown {
		return unknownValue()
	}
	switch x.Op {
	case ast.BinEq:
		return Value{Kind: ValBool, Bool: equalValues(left, right)}
	case ast.BinNotEq:
		return Value{Kind: ValBool, Bool: !equalValues(left, right)}
	case ast.BinAnd, ast.BinOr:
		if left.Kind != ValBool || right.Kind != ValBool {
			return ce.fail(diag.SemaConstInvalidOperation, x.Span(),
				fmt.Sprintf("operands of %q must be bool constants", x.Op), reported)
		}
		if x.Op == ast.BinAnd {
			return Value{Kind: ValBool, Bool: left.Bool && right.Bool}
		}
		return Value{Kind: ValBool, Bool: left.Bool || right.Bool}
	case ast.BinAdd:
		if left.Kind == ValString && right.Kind == ValString {
			return Value{Kind: ValString, Str: left.Str + right.Str}
		}
	}
	if left.Kind != ValInt || right.Kind != ValInt {
		return ce.fail(diag.SemaConstInvalidOperation, x.Span(),
			fmt.Sprintf("operands of %q must be int constants", x.Op), reported)
	}
	switch x.Op {
	case ast.BinAdd:
		return Value{Kind: ValInt, Int: left.Int + right.Int}
	case ast.BinSub:
		return Value{Kind: ValInt, Int: left.Int - right.Int}
	case ast.BinMul:
		return Value{Kind: ValInt, Int: left.Int * right.Int}
	case ast.BinDiv, ast.BinMod:
		if right.Int == 0 {
			return ce.fail(diag.SemaConstDivisionByZero, x.Right.Span(),
				"division by zero", reported)
		}
		if x.Op == ast.BinDiv {
			return Value{Kind: ValInt, Int: left.Int / right.Int}
		}
		return Value{Kind: ValInt, Int: left.Int % right.Int}
	case ast.BinLess:
		return Value{Kind: ValBool, Bool: left.Int < right.Int}
	case ast.BinLessEq:
		return Value{Kind: ValBool, Bool: left.Int <= right.Int}
	case ast.BinGreater:
		return Value{Kind: ValBool, Bool: left.Int > right.Int}
	case ast.BinGreaterEq:
		return Value{Kind: ValBool, Bool: left.Int >= right.Int}
	}
	return invalidValue()
}

func equalValues(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ValInt:
		return a.Int == b.Int
	case ValBool:
		return a.Bool == b.Bool
	case ValString:
		return a.Str == b.Str
	case ValNull:
		return true
	case ValObject:
		return a.Class == b.Class
	}
	return false
}
