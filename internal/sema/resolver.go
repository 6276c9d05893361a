package sema

import (
	"fmt"

	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/elements"
	"loom/internal/source"
)

// elementRef records one resolved reference to an element, kept for the
// used-element sweep and the deprecation and SDK hints.
type elementRef struct {
	elem *elements.Element
	span source.Span
	unit *Unit
}

// resolution is the per-library state shared by both resolver passes and by
// the later diagnostic stages.
type resolution struct {
	lib        *Library
	namespaces []*importNamespace
	prefixes   map[string]*importNamespace
	declOf     map[ast.Decl]*elements.Element
	refs       []elementRef
	localsOf   map[*Unit][]*localVar
	sdkMajor   int
	sdkMinor   int
}

func newResolution(lib *Library, ws Workspace, sdkMajor, sdkMinor int) *resolution {
	rs := &resolution{
		lib:      lib,
		declOf:   map[ast.Decl]*elements.Element{},
		localsOf: map[*Unit][]*localVar{},
		prefixes: map[string]*importNamespace{},
		sdkMajor: sdkMajor,
		sdkMinor: sdkMinor,
	}
	rs.namespaces = buildNamespaces(lib, ws)
	for _, ns := range rs.namespaces {
		if ns.prefix != "" {
			rs.prefixes[ns.prefix] = ns
		}
	}
	for _, elem := range lib.Element.Order {
		rs.indexElement(elem)
	}
	return rs
}

func (rs *resolution) indexElement(elem *elements.Element) {
	if elem.Decl != nil {
		rs.declOf[elem.Decl] = elem
	}
	for _, m := range elem.Members {
		rs.indexElement(m)
	}
}

// effectiveVersion is the unit's override when present, the configured SDK
// version otherwise.
func (rs *resolution) effectiveVersion(u *Unit) (major, minor int) {
	if v := u.Tree.Version; v != nil {
		return v.Major, v.Minor
	}
	return rs.sdkMajor, rs.sdkMinor
}

// bindDeclarations is the first resolver pass: attach elements to their
// declarations and report duplicate top-level names. The first declaration
// owns the name; every later one is flagged.
func (rs *resolution) bindDeclarations() {
	for _, u := range rs.lib.Units() {
		reporter := u.Reporter()
		for _, decl := range u.Tree.Decls {
			elem, ok := rs.declOf[decl]
			if !ok {
				continue
			}
			setDeclRef(decl, elem)
			owner, exists := rs.lib.Element.Lookup(elem.Name)
			if exists && owner != elem {
				diag.ReportError(reporter, diag.SemaDuplicateDeclaration, decl.NameSpan(),
					fmt.Sprintf("%q is already declared in this library", elem.Name)).
					WithNote(owner.Loc, "first declaration is here").
					Emit()
			}
			rs.bindMembers(decl, reporter)
		}
	}
}

func (rs *resolution) bindMembers(decl ast.Decl, reporter diag.Reporter) {
	cls, ok := decl.(*ast.ClassDecl)
	if !ok {
		return
	}
	seen := map[string]ast.Decl{}
	for _, m := range cls.Members {
		if elem, bound := rs.declOf[m]; bound {
			setDeclRef(m, elem)
		}
		if prev, dup := seen[m.DeclName()]; dup {
			diag.ReportError(reporter, diag.SemaDuplicateDeclaration, m.NameSpan(),
				fmt.Sprintf("%q is already declared in this class", m.DeclName())).
				WithNote(prev.NameSpan(), "first declaration is here").
				Emit()
			continue
		}
		seen[m.DeclName()] = m
	}
}

// bindQuiet attaches elements to declarations without reporting; the
// completion path binds this way to keep diagnostic bags untouched.
func (rs *resolution) bindQuiet() {
	for decl, elem := range rs.declOf {
		setDeclRef(decl, elem)
	}
}

func setDeclRef(decl ast.Decl, ref ast.Referent) {
	switch d := decl.(type) {
	case *ast.ClassDecl:
		d.Ref = ref
	case *ast.FnDecl:
		d.Ref = ref
	case *ast.ConstDecl:
		d.Ref = ref
	case *ast.VarDecl:
		d.Ref = ref
	}
}

// resolveUnit is the second pass for one file: bind every reference, compute
// static types, and apply flow promotion inside bodies.
func (rs *resolution) resolveUnit(u *Unit) {
	fr := &fileResolver{
		rs:       rs,
		unit:     u,
		reporter: u.Reporter(),
	}
	major, _ := rs.effectiveVersion(u)
	fr.nullSafe = major >= 2
	fr.flow = newFlowState()
	for _, decl := range u.Tree.Decls {
		fr.resolveDecl(decl, nil)
	}
	rs.localsOf[u] = fr.locals
}

// resolveDeclOnly resolves a single declaration of a unit, used by the
// completion path to avoid touching the rest of the file.
func (rs *resolution) resolveDeclOnly(u *Unit, decl ast.Decl) {
	fr := &fileResolver{
		rs:       rs,
		unit:     u,
		reporter: diag.NopReporter{},
	}
	major, _ := rs.effectiveVersion(u)
	fr.nullSafe = major >= 2
	fr.flow = newFlowState()
	fr.resolveDecl(decl, nil)
}

type fileResolver struct {
	rs       *resolution
	unit     *Unit
	reporter diag.Reporter
	scope    *scope
	flow     *flowState
	curClass *elements.Element
	nullSafe bool
	locals   []*localVar

	tInt     *elements.Type
	tBool    *elements.Type
	tString  *elements.Type
	tNull    *elements.Type
	tDynamic *elements.Type
}

func (fr *fileResolver) intType() *elements.Type {
	if fr.tInt == nil {
		fr.tInt = elements.BuiltinType("int", fr.nullSafe)
	}
	return fr.tInt
}

func (fr *fileResolver) boolType() *elements.Type {
	if fr.tBool == nil {
		fr.tBool = elements.BuiltinType("bool", fr.nullSafe)
	}
	return fr.tBool
}

func (fr *fileResolver) stringType() *elements.Type {
	if fr.tString == nil {
		fr.tString = elements.BuiltinType("string", fr.nullSafe)
	}
	return fr.tString
}

func (fr *fileResolver) nullType() *elements.Type {
	if fr.tNull == nil {
		fr.tNull = elements.BuiltinType("null", fr.nullSafe).WithNullable(true)
	}
	return fr.tNull
}

func (fr *fileResolver) dynamicType() *elements.Type {
	if fr.tDynamic == nil {
		fr.tDynamic = elements.BuiltinType("dynamic", fr.nullSafe)
	}
	return fr.tDynamic
}

func (fr *fileResolver) invalid() *elements.Type {
	return elements.InvalidType(fr.nullSafe)
}

func (fr *fileResolver) resolveDecl(decl ast.Decl, parent *elements.Element) {
	switch d := decl.(type) {
	case *ast.ClassDecl:
		elem := fr.rs.declOf[decl]
		fr.checkSuperclass(d)
		fr.checkOverrideKinds(elem)
		saved := fr.curClass
		fr.curClass = elem
		for _, m := range d.Members {
			fr.resolveDecl(m, elem)
		}
		fr.curClass = saved
		fr.resolveAnnotations(d.Annotations)
	case *ast.FnDecl:
		fr.resolveFn(d)
	case *ast.ConstDecl:
		fr.resolveAnnotations(d.Annotations)
		if d.Value != nil {
			fr.resolveExpr(d.Value)
		}
	case *ast.VarDecl:
		fr.resolveAnnotations(d.Annotations)
		if d.Value != nil {
			fr.resolveExpr(d.Value)
		}
	}
}

func (fr *fileResolver) checkSuperclass(d *ast.ClassDecl) {
	if d.SuperName == "" {
		return
	}
	super, ok := fr.rs.lib.Element.Lookup(d.SuperName)
	if !ok {
		diag.ReportError(fr.reporter, diag.SemaUnresolvedName, d.SuperLoc,
			fmt.Sprintf("superclass %q is not defined", d.SuperName)).
			Emit()
		return
	}
	if super.Kind != elements.ElemClass {
		diag.ReportError(fr.reporter, diag.SemaExtendsNonClass, d.SuperLoc,
			fmt.Sprintf("%q is a %s, not a class", d.SuperName, super.Kind)).
			WithNote(super.Loc, "declared here").
			Emit()
	}
}

// checkOverrideKinds rejects overrides that change the kind of an inherited
// member, a method shadowed by a field or the other way around. Same-kind
// shape differences stay advisory and are handled by the hint pass.
func (fr *fileResolver) checkOverrideKinds(elem *elements.Element) {
	if elem == nil || elem.Super == nil {
		return
	}
	for _, m := range elem.Members {
		inherited := elem.Super.LookupMember(m.Name)
		if inherited == nil || m.Kind == inherited.Kind {
			continue
		}
		diag.ReportError(fr.reporter, diag.SemaInvalidOverride, m.Loc,
			fmt.Sprintf("%s %q overrides an inherited %s", m.Kind, m.Name, inherited.Kind)).
			WithNote(inherited.Loc, "inherited member is here").
			Emit()
	}
}

func (fr *fileResolver) resolveAnnotations(anns []*ast.Annotation) {
	for _, ann := range anns {
		for _, arg := range ann.Args {
			fr.resolveExpr(arg)
		}
	}
}

func (fr *fileResolver) resolveFn(d *ast.FnDecl) {
	fr.resolveAnnotations(d.Annotations)
	saved := fr.scope
	fr.scope = newScope(nil)
	savedFlow := fr.flow
	fr.flow = newFlowState()
	for _, p := range d.Params {
		if p.Default != nil {
			fr.resolveExpr(p.Default)
		}
		lv := &localVar{
			name:    p.Name,
			loc:     p.Span(),
			typ:     fr.dynamicType(),
			mutable: true,
			used:    true, // parameters are exempt from the unused-local hint
		}
		if prev := fr.scope.declare(lv); prev != nil {
			diag.ReportError(fr.reporter, diag.SemaDuplicateDeclaration, p.Span(),
				fmt.Sprintf("duplicate parameter %q", p.Name)).
				Emit()
		}
	}
	if d.Body != nil {
		fr.resolveBlock(d.Body)
	}
	fr.scope = saved
	fr.flow = savedFlow
}

func (fr *fileResolver) resolveBlock(blk *ast.Block) {
	saved := fr.scope
	fr.scope = newScope(saved)
	for _, stmt := range blk.Stmts {
		fr.resolveStmt(stmt)
	}
	fr.scope = saved
}

func (fr *fileResolver) resolveStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.Block:
		fr.resolveBlock(s)
	case *ast.ExprStmt:
		fr.resolveExpr(s.X)
	case *ast.BindStmt:
		fr.resolveBind(s)
	case *ast.ReturnStmt:
		if s.Value != nil {
			fr.resolveExpr(s.Value)
		}
	case *ast.IfStmt:
		fr.resolveIf(s)
	case *ast.WhileStmt:
		fr.resolveWhile(s)
	}
}

func (fr *fileResolver) resolveBind(s *ast.BindStmt) {
	typ := fr.dynamicType()
	if s.Value != nil {
		typ = fr.resolveExpr(s.Value)
	}
	lv := &localVar{
		name:    s.Name,
		loc:     s.NameLoc,
		typ:     typ,
		mutable: s.Mutable,
	}
	if prev := fr.scope.declare(lv); prev != nil {
		diag.ReportError(fr.reporter, diag.SemaDuplicateDeclaration, s.NameLoc,
			fmt.Sprintf("%q is already declared in this scope", s.Name)).
			WithNote(prev.loc, "first declaration is here").
			Emit()
		return
	}
	fr.locals = append(fr.locals, lv)
}

func (fr *fileResolver) resolveIf(s *ast.IfStmt) {
	fr.checkCondition(s.Cond)

	entry := fr.flow
	thenFlow := entry.fork()
	fr.applyCondFacts(s.Cond, true, thenFlow)
	fr.flow = thenFlow
	fr.resolveBlock(s.Then)
	thenExit := fr.flow

	elseFlow := entry.fork()
	fr.applyCondFacts(s.Cond, false, elseFlow)
	fr.flow = elseFlow
	if s.Else != nil {
		fr.resolveStmt(s.Else)
	}
	elseExit := fr.flow

	fr.flow = merge(thenExit, elseExit)
}

func (fr *fileResolver) resolveWhile(s *ast.WhileStmt) {
	fr.checkCondition(s.Cond)

	entry := fr.flow
	bodyFlow := entry.fork()
	fr.applyCondFacts(s.Cond, true, bodyFlow)
	fr.flow = bodyFlow
	fr.resolveBlock(s.Body)
	// Promotions from the condition do not survive the loop; assignments in
	// the body already dropped theirs from the body state.
	fr.flow = merge(entry, fr.flow)
}

func (fr *fileResolver) checkCondition(cond ast.Expr) {
	typ := fr.resolveExpr(cond)
	if typ.Invalid() {
		return
	}
	if typ.Name() != "bool" && typ.Name() != "dynamic" {
		diag.ReportError(fr.reporter, diag.SemaInvalidCondition, cond.Span(),
			fmt.Sprintf("condition has type %s", typ.TypeString())).
			Emit()
	}
}

// applyCondFacts narrows locals along one branch of a condition. positive
// selects the branch where the condition holds.
func (fr *fileResolver) applyCondFacts(cond ast.Expr, positive bool, fl *flowState) {
	switch c := cond.(type) {
	case *ast.Paren:
		fr.applyCondFacts(c.Inner, positive, fl)
	case *ast.Unary:
		if c.Op == ast.UnaryNot {
			fr.applyCondFacts(c.Operand, !positive, fl)
		}
	case *ast.Binary:
		switch {
		case c.Op == ast.BinAnd && positive:
			fr.applyCondFacts(c.Left, true, fl)
			fr.applyCondFacts(c.Right, true, fl)
		case c.Op == ast.BinOr && !positive:
			fr.applyCondFacts(c.Left, false, fl)
			fr.applyCondFacts(c.Right, false, fl)
		case c.Op == ast.BinNotEq && positive:
			fr.promoteNonNull(c, fl)
		case c.Op == ast.BinEq && !positive:
			fr.promoteNonNull(c, fl)
		}
	case *ast.IsTest:
		if !positive {
			return
		}
		if lv := fr.localOperand(c.Operand); lv != nil {
			if t := fr.lookupTypeName(c.TypeName); t != nil {
				fl.promote(lv, t)
			}
		}
	}
}

// promoteNonNull handles `x != null` (and the negated `x == null`) by
// stripping nullability from the local's type. Legacy units have no
// nullability to strip.
func (fr *fileResolver) promoteNonNull(c *ast.Binary, fl *flowState) {
	if !fr.nullSafe {
		return
	}
	operand := c.Left
	other := c.Right
	if isNullLiteral(operand) {
		operand, other = other, operand
	}
	if !isNullLiteral(other) {
		return
	}
	if lv := fr.localOperand(operand); lv != nil {
		fl.promote(lv, fl.typeOf(lv).WithNullable(false))
	}
}

func isNullLiteral(e ast.Expr) bool {
	lit, ok := e.(*ast.Literal)
	return ok && lit.Kind == ast.LitNull
}

func (fr *fileResolver) localOperand(e ast.Expr) *localVar {
	for {
		paren, ok := e.(*ast.Paren)
		if !ok {
			break
		}
		e = paren.Inner
	}
	ident, ok := e.(*ast.Ident)
	if !ok {
		return nil
	}
	return fr.scope.lookup(ident.Name)
}

// lookupTypeName resolves a type name to a type without reporting; IsTest
// resolution reports separately.
func (fr *fileResolver) lookupTypeName(name string) *elements.Type {
	switch name {
	case "int", "bool", "string":
		return elements.BuiltinType(name, fr.nullSafe)
	case "dynamic":
		return fr.dynamicType()
	}
	if elem, ok := fr.rs.lib.Element.Lookup(name); ok && elem.Kind == elements.ElemClass {
		return elements.ClassType(elem, false, fr.nullSafe)
	}
	return nil
}

// resolveExpr binds references and computes the static type of e, recording
// both on the node. Every expression receives a type; the invalid marker
// suppresses cascading errors downstream.
func (fr *fileResolver) resolveExpr(e ast.Expr) *elements.Type {
	typ := fr.computeExpr(e)
	if typ == nil {
		typ = fr.invalid()
	}
	e.SetStaticType(typ)
	return typ
}

func (fr *fileResolver) computeExpr(e ast.Expr) *elements.Type {
	switch x := e.(type) {
	case *ast.Literal:
		return fr.literalType(x)
	case *ast.Ident:
		return fr.resolveIdent(x)
	case *ast.PrefixedIdent:
		return fr.resolvePrefixed(x)
	case *ast.Paren:
		return fr.resolveExpr(x.Inner)
	case *ast.Unary:
		return fr.resolveUnary(x)
	case *ast.Binary:
		return fr.resolveBinary(x)
	case *ast.Call:
		return fr.resolveCall(x)
	case *ast.IsTest:
		return fr.resolveIsTest(x)
	case *ast.Assign:
		return fr.resolveAssign(x)
	}
	return fr.invalid()
}

func (fr *fileResolver) literalType(x *ast.Literal) *elements.Type {
	switch x.Kind {
	case ast.LitInt:
		return fr.intType()
	case ast.LitString:
		return fr.stringType()
	case ast.LitBool:
		return fr.boolType()
	case ast.LitNull:
		return fr.nullType()
	}
	return fr.invalid()
}

func (fr *fileResolver) resolveIdent(x *ast.Ident) *elements.Type {
	// Locals shadow everything; the flow state supplies the promoted type.
	if fr.scope != nil {
		if lv := fr.scope.lookup(x.Name); lv != nil {
			lv.used = true
			x.Ref = lv
			return fr.flow.typeOf(lv)
		}
	}
	if fr.curClass != nil {
		if member := fr.curClass.LookupMember(x.Name); member != nil {
			fr.bindElement(x, member, x.Span())
			return fr.elementType(member)
		}
	}
	if elem, ok := fr.rs.lib.Element.Lookup(x.Name); ok {
		fr.bindElement(x, elem, x.Span())
		return fr.elementType(elem)
	}
	return fr.resolveImported(x)
}

func (fr *fileResolver) resolveImported(x *ast.Ident) *elements.Type {
	var providers []*importNamespace
	for _, ns := range fr.rs.namespaces {
		if ns.prefix == "" && ns.has(x.Name) {
			providers = append(providers, ns)
		}
	}
	switch len(providers) {
	case 0:
		if builtinNames[x.Name] {
			x.Ref = &importedRef{Name: x.Name, From: "loom:core"}
			return fr.dynamicType()
		}
		diag.ReportError(fr.reporter, diag.SemaUnresolvedName, x.Span(),
			fmt.Sprintf("%q is not defined", x.Name)).
			Emit()
		return fr.invalid()
	case 1:
		ns := providers[0]
		ns.used = true
		x.Ref = &importedRef{Name: x.Name, From: ns.directive.TargetPath}
		return fr.dynamicType()
	default:
		b := diag.ReportError(fr.reporter, diag.SemaAmbiguousImport, x.Span(),
			fmt.Sprintf("%q is imported from multiple libraries", x.Name))
		for _, ns := range providers {
			b.WithNote(ns.directive.URI.Span(), "imported here")
		}
		b.Emit()
		// All providers count as used; removing any one would change the
		// ambiguity, so none is reported unused.
		for _, ns := range providers {
			ns.used = true
		}
		return fr.invalid()
	}
}

// builtinNames are always in scope, provided by the implicit core library.
var builtinNames = map[string]bool{
	"print":  true,
	"assert": true,
}

func (fr *fileResolver) resolvePrefixed(x *ast.PrefixedIdent) *elements.Type {
	if ns, ok := fr.rs.prefixes[x.Prefix]; ok {
		ns.used = true
		if !ns.has(x.Name) {
			diag.ReportError(fr.reporter, diag.SemaUnresolvedName, x.NameLoc,
				fmt.Sprintf("%q is not defined in %q", x.Name, x.Prefix)).
				Emit()
			return fr.invalid()
		}
		x.Ref = &importedRef{Name: x.Name, From: ns.directive.TargetPath}
		return fr.dynamicType()
	}
	elem, ok := fr.rs.lib.Element.Lookup(x.Prefix)
	if !ok || elem.Kind != elements.ElemClass {
		diag.ReportError(fr.reporter, diag.SemaUnresolvedName, x.PrefixLoc,
			fmt.Sprintf("%q is not an import prefix or class", x.Prefix)).
			Emit()
		return fr.invalid()
	}
	member := elem.LookupMember(x.Name)
	if member == nil {
		diag.ReportError(fr.reporter, diag.SemaUnresolvedName, x.NameLoc,
			fmt.Sprintf("class %q has no member %q", x.Prefix, x.Name)).
			Emit()
		return fr.invalid()
	}
	fr.bindElement(x, member, x.NameLoc)
	return fr.elementType(member)
}

func (fr *fileResolver) bindElement(e ast.Expr, elem *elements.Element, span source.Span) {
	switch x := e.(type) {
	case *ast.Ident:
		x.Ref = elem
	case *ast.PrefixedIdent:
		x.Ref = elem
	}
	fr.rs.refs = append(fr.rs.refs, elementRef{elem: elem, span: span, unit: fr.unit})
}

// elementType is the type of a bare reference to an element. Initializer
// types are inferred shallowly from literal initializers; anything deeper
// is dynamic.
func (fr *fileResolver) elementType(elem *elements.Element) *elements.Type {
	switch elem.Kind {
	case elements.ElemConstant, elements.ElemVariable:
		if t := fr.initializerType(elem); t != nil {
			return t
		}
		return fr.dynamicType()
	default:
		return fr.dynamicType()
	}
}

func (fr *fileResolver) initializerType(elem *elements.Element) *elements.Type {
	var value ast.Expr
	switch d := elem.Decl.(type) {
	case *ast.ConstDecl:
		value = d.Value
	case *ast.VarDecl:
		value = d.Value
	}
	if lit, ok := value.(*ast.Literal); ok {
		return fr.literalType(lit)
	}
	return nil
}

func (fr *fileResolver) resolveUnary(x *ast.Unary) *elements.Type {
	operand := fr.resolveExpr(x.Operand)
	if operand.Invalid() {
		return operand
	}
	switch x.Op {
	case ast.UnaryNeg:
		if operand.Name() != "int" && operand.Name() != "dynamic" {
			fr.reportMismatch(x.Operand.Span(), "operand of '-' must be int", operand)
			return fr.invalid()
		}
		return fr.intType()
	case ast.UnaryNot:
		if operand.Name() != "bool" && operand.Name() != "dynamic" {
			fr.reportMismatch(x.Operand.Span(), "operand of '!' must be bool", operand)
			return fr.invalid()
		}
		return fr.boolType()
	}
	return fr.invalid()
}

func (fr *fileResolver) resolveBinary(x *ast.Binary) *elements.Type {
	left := fr.resolveExpr(x.Left)
	right := fr.resolveExpr(x.Right)
	if left.Invalid() || right.Invalid() {
		return fr.invalid()
	}
	switch x.Op {
	case ast.BinEq, ast.BinNotEq:
		return fr.boolType()
	case ast.BinAnd, ast.BinOr:
		fr.requireName(x.Left, left, "bool", x.Op.String())
		fr.requireName(x.Right, right, "bool", x.Op.String())
		return fr.boolType()
	case ast.BinLess, ast.BinLessEq, ast.BinGreater, ast.BinGreaterEq:
		fr.requireName(x.Left, left, "int", x.Op.String())
		fr.requireName(x.Right, right, "int", x.Op.String())
		return fr.boolType()
	case ast.BinAdd:
		if left.Name() == "string" || right.Name() == "string" {
			fr.requireName(x.Left, left, "string", x.Op.String())
			fr.requireName(x.Right, right, "string", x.Op.String())
			return fr.stringType()
		}
		fallthrough
	case ast.BinSub, ast.BinMul, ast.BinDiv, ast.BinMod:
		fr.requireName(x.Left, left, "int", x.Op.String())
		fr.requireName(x.Right, right, "int", x.Op.String())
		return fr.intType()
	}
	return fr.invalid()
}

func (fr *fileResolver) requireName(e ast.Expr, typ *elements.Type, want, op string) {
	if typ.Name() == want || typ.Name() == "dynamic" {
		return
	}
	fr.reportMismatch(e.Span(), fmt.Sprintf("operand of %q must be %s", op, want), typ)
}

func (fr *fileResolver) reportMismatch(span source.Span, msg string, got *elements.Type) {
	diag.ReportError(fr.reporter, diag.SemaTypeMismatch, span,
		fmt.Sprintf("%s, got %s", msg, got.TypeString())).
		Emit()
}

func (fr *fileResolver) resolveCall(x *ast.Call) *elements.Type {
	callee := fr.resolveExpr(x.Callee)
	for _, arg := range x.Args {
		fr.resolveExpr(arg)
	}
	elem := calleeElement(x.Callee)
	if elem == nil {
		if callee.Invalid() {
			return fr.invalid()
		}
		return fr.dynamicType()
	}
	switch elem.Kind {
	case elements.ElemClass:
		if elem.Abstract {
			diag.ReportError(fr.reporter, diag.SemaAbstractInstantiation, x.Callee.Span(),
				fmt.Sprintf("class %q is abstract", elem.Name)).
				WithNote(elem.Loc, "declared abstract here").
				Emit()
		}
		return elements.ClassType(elem, false, fr.nullSafe)
	case elements.ElemFunction:
		fr.checkArgumentCount(x, elem)
		return fr.dynamicType()
	default:
		diag.ReportError(fr.reporter, diag.SemaTypeMismatch, x.Callee.Span(),
			fmt.Sprintf("%s %q is not callable", elem.Kind, elem.Name)).
			Emit()
		return fr.invalid()
	}
}

func calleeElement(callee ast.Expr) *elements.Element {
	var ref ast.Referent
	switch c := callee.(type) {
	case *ast.Ident:
		ref = c.Ref
	case *ast.PrefixedIdent:
		ref = c.Ref
	default:
		return nil
	}
	elem, _ := ref.(*elements.Element)
	return elem
}

func (fr *fileResolver) checkArgumentCount(x *ast.Call, fn *elements.Element) {
	decl, ok := fn.Decl.(*ast.FnDecl)
	if !ok {
		return
	}
	required := 0
	for _, p := range decl.Params {
		if p.Default == nil {
			required++
		}
	}
	got := len(x.Args)
	if got >= required && got <= len(decl.Params) {
		return
	}
	diag.ReportError(fr.reporter, diag.SemaArgumentCount, x.Span(),
		fmt.Sprintf("%q expects %d to %d arguments, got %d", fn.Name, required, len(decl.Params), got)).
		WithNote(fn.Loc, "declared here").
		Emit()
}

func (fr *fileResolver) resolveIsTest(x *ast.IsTest) *elements.Type {
	fr.resolveExpr(x.Operand)
	if fr.lookupTypeName(x.TypeName) == nil {
		diag.ReportError(fr.reporter, diag.SemaUnresolvedName, x.TypeLoc,
			fmt.Sprintf("type %q is not defined", x.TypeName)).
			Emit()
	}
	return fr.boolType()
}

func (fr *fileResolver) resolveAssign(x *ast.Assign) *elements.Type {
	value := fr.resolveExpr(x.Value)
	target, ok := x.Target.(*ast.Ident)
	if !ok {
		diag.ReportError(fr.reporter, diag.SemaTypeMismatch, x.Target.Span(),
			"assignment target must be a name").
			Emit()
		fr.resolveExpr(x.Target)
		return fr.invalid()
	}
	if fr.scope != nil {
		if lv := fr.scope.lookup(target.Name); lv != nil {
			target.Ref = lv
			target.SetStaticType(lv.typ)
			if !lv.mutable {
				diag.ReportError(fr.reporter, diag.SemaTypeMismatch, target.Span(),
					fmt.Sprintf("%q is a 'let' binding and cannot be reassigned", target.Name)).
					WithNote(lv.loc, "declared here").
					Emit()
			}
			lv.assigned = true
			// Any promotion is unsound after the write.
			fr.flow.invalidate(lv)
			return value
		}
	}
	typ := fr.resolveIdent(target)
	target.SetStaticType(typ)
	if elem, isElem := target.Ref.(*elements.Element); isElem {
		if elem.Kind != elements.ElemVariable {
			diag.ReportError(fr.reporter, diag.SemaTypeMismatch, target.Span(),
				fmt.Sprintf("cannot assign to %s %q", elem.Kind, elem.Name)).
				Emit()
			return fr.invalid()
		}
	}
	return value
}
