package parser

import (
	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/lexer"
)

func (p *parser) parseExpr() ast.Expr {
	return p.parseAssign()
}

func (p *parser) parseAssign() ast.Expr {
	left := p.parseOr()
	if left == nil {
		return nil
	}
	if p.at(lexer.Assign) {
		p.advance()
		value := p.parseAssign()
		assign := &ast.Assign{Target: left, Value: value}
		assign.Loc = left.Span()
		if value != nil {
			assign.Loc = assign.Loc.Cover(value.Span())
		}
		return assign
	}
	return left
}

func (p *parser) parseOr() ast.Expr {
	left := p.parseAnd()
	for left != nil && p.at(lexer.OrOr) {
		p.advance()
		left = p.newBinary(ast.BinOr, left, p.parseAnd())
	}
	return left
}

func (p *parser) parseAnd() ast.Expr {
	left := p.parseEquality()
	for left != nil && p.at(lexer.AndAnd) {
		p.advance()
		left = p.newBinary(ast.BinAnd, left, p.parseEquality())
	}
	return left
}

func (p *parser) parseEquality() ast.Expr {
	left := p.parseRelational()
	for left != nil && (p.at(lexer.Eq) || p.at(lexer.NotEq)) {
		op := ast.BinEq
		if p.at(lexer.NotEq) {
			op = ast.BinNotEq
		}
		p.advance()
		left = p.newBinary(op, left, p.parseRelational())
	}
	return left
}

func (p *parser) parseRelational() ast.Expr {
	left := p.parseAdditive()
	if left == nil {
		return nil
	}
	if p.at(lexer.KwIs) {
		p.advance()
		typeTok, ok := p.expect(lexer.Ident, diag.SynExpectIdentifier, "type name after 'is'")
		test := &ast.IsTest{Operand: left, TypeName: typeTok.Text, TypeLoc: typeTok.Span}
		test.Loc = left.Span()
		if ok {
			test.Loc = test.Loc.Cover(typeTok.Span)
		}
		return test
	}
	for p.at(lexer.Less) || p.at(lexer.LessEq) || p.at(lexer.Greater) || p.at(lexer.GreaterEq) {
		var op ast.BinOp
		switch p.cur.Kind {
		case lexer.Less:
			op = ast.BinLess
		case lexer.LessEq:
			op = ast.BinLessEq
		case lexer.Greater:
			op = ast.BinGreater
		default:
			op = ast.BinGreaterEq
		}
		p.advance()
		left = p.newBinary(op, left, p.parseAdditive())
	}
	return left
}

func (p *parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for left != nil && (p.at(lexer.Plus) || p.at(lexer.Minus)) {
		op := ast.BinAdd
		if p.at(lexer.Minus) {
			op = ast.BinSub
		}
		p.advance()
		left = p.newBinary(op, left, p.parseMultiplicative())
	}
	return left
}

func (p *parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for left != nil && (p.at(lexer.Star) || p.at(lexer.Slash) || p.at(lexer.Percent)) {
		var op ast.BinOp
		switch p.cur.Kind {
		case lexer.Star:
			op = ast.BinMul
		case lexer.Slash:
			op = ast.BinDiv
		default:
			op = ast.BinMod
		}
		p.advance()
		left = p.newBinary(op, left, p.parseUnary())
	}
	return left
}

func (p *parser) newBinary(op ast.BinOp, left, right ast.Expr) ast.Expr {
	bin := &ast.Binary{Op: op, Left: left, Right: right}
	bin.Loc = left.Span()
	if right != nil {
		bin.Loc = bin.Loc.Cover(right.Span())
	}
	return bin
}

func (p *parser) parseUnary() ast.Expr {
	if p.at(lexer.Minus) || p.at(lexer.Not) {
		op := ast.UnaryNeg
		if p.at(lexer.Not) {
			op = ast.UnaryNot
		}
		start := p.cur.Span
		p.advance()
		operand := p.parseUnary()
		unary := &ast.Unary{Op: op, Operand: operand}
		unary.Loc = start
		if operand != nil {
			unary.Loc = unary.Loc.Cover(operand.Span())
		}
		return unary
	}
	return p.parseCall()
}

func (p *parser) parseCall() ast.Expr {
	expr := p.parsePrimary()
	for expr != nil && p.at(lexer.LParen) {
		expr = p.finishCall(expr, false)
	}
	return expr
}

func (p *parser) finishCall(callee ast.Expr, isConst bool) ast.Expr {
	p.advance() // (
	call := &ast.Call{Callee: callee, Const: isConst}
	call.Loc = callee.Span()
	for !p.at(lexer.RParen) && !p.cur.IsEOF() {
		arg := p.parseExpr()
		if arg == nil {
			break
		}
		call.Args = append(call.Args, arg)
		if _, ok := p.eat(lexer.Comma); !ok {
			break
		}
	}
	end, _ := p.expect(lexer.RParen, diag.SynExpectRParen, "')' after arguments")
	call.Loc = call.Loc.Cover(end.Span)
	return call
}

func (p *parser) parsePrimary() ast.Expr {
	switch p.cur.Kind {
	case lexer.Int:
		tok := p.cur
		p.advance()
		lit := &ast.Literal{Kind: ast.LitInt, Value: tok.Text}
		lit.Loc = tok.Span
		return lit
	case lexer.String:
		tok := p.cur
		p.advance()
		lit := &ast.Literal{Kind: ast.LitString, Value: tok.Value, Interpolated: tok.Interpolated}
		lit.Loc = tok.Span
		return lit
	case lexer.KwTrue, lexer.KwFalse:
		tok := p.cur
		p.advance()
		lit := &ast.Literal{Kind: ast.LitBool, Value: tok.Text}
		lit.Loc = tok.Span
		return lit
	case lexer.KwNull:
		tok := p.cur
		p.advance()
		lit := &ast.Literal{Kind: ast.LitNull, Value: "null"}
		lit.Loc = tok.Span
		return lit
	case lexer.KwConst:
		// const Name(args): constant constructor invocation
		start := p.cur.Span
		p.advance()
		callee := p.parsePrimary()
		if callee == nil {
			return nil
		}
		if !p.at(lexer.LParen) {
			p.report(diag.SynUnexpectedToken, p.cur.Span, "expected '(' after const constructor name")
			return callee
		}
		call := p.finishCall(callee, true)
		if c, ok := call.(*ast.Call); ok {
			c.Loc = start.Cover(c.Loc)
		}
		return call
	case lexer.Ident:
		tok := p.cur
		p.advance()
		if p.at(lexer.Dot) && p.next.Kind == lexer.Ident {
			p.advance()
			nameTok, _ := p.eat(lexer.Ident)
			pref := &ast.PrefixedIdent{
				Prefix:    tok.Text,
				PrefixLoc: tok.Span,
				Name:      nameTok.Text,
				NameLoc:   nameTok.Span,
			}
			pref.Loc = tok.Span.Cover(nameTok.Span)
			return pref
		}
		ident := &ast.Ident{Name: tok.Text}
		ident.Loc = tok.Span
		return ident
	case lexer.LParen:
		start := p.cur.Span
		p.advance()
		inner := p.parseExpr()
		end, _ := p.expect(lexer.RParen, diag.SynExpectRParen, "')'")
		paren := &ast.Paren{Inner: inner}
		paren.Loc = start.Cover(end.Span)
		return paren
	default:
		p.report(diag.SynExpectExpression, p.cur.Span, "expected expression, found %q", p.cur.Text)
		p.advance()
		return nil
	}
}
