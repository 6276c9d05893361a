package parser

import (
	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/lexer"
)

func (p *parser) parseAnnotations() []*ast.Annotation {
	var anns []*ast.Annotation
	for p.at(lexer.At) {
		start := p.cur.Span
		p.advance()
		tok, ok := p.expect(lexer.Ident, diag.SynExpectIdentifier, "annotation name")
		if !ok {
			p.syncTo(lexer.Semicolon, lexer.RBrace)
			break
		}
		ann := &ast.Annotation{Name: tok.Text}
		ann.Loc = start.Cover(tok.Span)
		if _, ok := p.eat(lexer.LParen); ok {
			for !p.at(lexer.RParen) && !p.cur.IsEOF() {
				ann.Args = append(ann.Args, p.parseExpr())
				if _, ok := p.eat(lexer.Comma); !ok {
					break
				}
			}
			end, _ := p.expect(lexer.RParen, diag.SynExpectRParen, "')' after annotation arguments")
			ann.Loc = ann.Loc.Cover(end.Span)
		}
		anns = append(anns, ann)
	}
	return anns
}

func (p *parser) parseDecl() ast.Decl {
	anns := p.parseAnnotations()
	switch p.cur.Kind {
	case lexer.KwAbstract, lexer.KwClass:
		return p.parseClass(anns)
	case lexer.KwFn:
		return p.parseFn(anns)
	case lexer.KwConst:
		return p.parseConst(anns)
	case lexer.KwVar:
		return p.parseVar(anns)
	default:
		p.report(diag.SynUnexpectedToken, p.cur.Span, "expected declaration, found %q", p.cur.Text)
		p.syncTo(lexer.Semicolon, lexer.RBrace)
		p.eat(lexer.RBrace)
		return nil
	}
}

func (p *parser) parseClass(anns []*ast.Annotation) ast.Decl {
	start := p.cur.Span
	abstract := false
	if _, ok := p.eat(lexer.KwAbstract); ok {
		abstract = true
	}
	if _, ok := p.expect(lexer.KwClass, diag.SynUnexpectedToken, "'class'"); !ok {
		p.syncTo(lexer.RBrace)
		return nil
	}
	nameTok, ok := p.expect(lexer.Ident, diag.SynExpectIdentifier, "class name")
	if !ok {
		p.syncTo(lexer.RBrace)
		return nil
	}

	cls := &ast.ClassDecl{Abstract: abstract}
	cls.Name = nameTok.Text
	cls.NameLoc = nameTok.Span
	cls.Annotations = anns

	if _, ok := p.eat(lexer.KwExtends); ok {
		if superTok, ok := p.expect(lexer.Ident, diag.SynExpectIdentifier, "superclass name"); ok {
			cls.SuperName = superTok.Text
			cls.SuperLoc = superTok.Span
		}
	}
	p.expect(lexer.LBrace, diag.SynExpectLBrace, "'{' before class body")
	for !p.at(lexer.RBrace) && !p.cur.IsEOF() {
		member := p.parseMember()
		if member != nil {
			cls.Members = append(cls.Members, member)
		}
	}
	end, _ := p.expect(lexer.RBrace, diag.SynExpectRBrace, "'}' after class body")
	cls.Loc = start.Cover(end.Span)
	return cls
}

func (p *parser) parseMember() ast.Decl {
	anns := p.parseAnnotations()
	switch p.cur.Kind {
	case lexer.KwFn:
		return p.parseFn(anns)
	case lexer.KwConst:
		return p.parseConst(anns)
	case lexer.KwVar:
		return p.parseVar(anns)
	default:
		p.report(diag.SynUnexpectedToken, p.cur.Span, "expected class member, found %q", p.cur.Text)
		p.syncTo(lexer.Semicolon, lexer.RBrace)
		return nil
	}
}

func (p *parser) parseFn(anns []*ast.Annotation) ast.Decl {
	start := p.cur.Span
	p.advance() // fn
	nameTok, ok := p.expect(lexer.Ident, diag.SynExpectIdentifier, "function name")
	if !ok {
		p.syncTo(lexer.Semicolon, lexer.RBrace)
		return nil
	}
	fn := &ast.FnDecl{}
	fn.Name = nameTok.Text
	fn.NameLoc = nameTok.Span
	fn.Annotations = anns

	p.expect(lexer.LParen, diag.SynUnexpectedToken, "'(' after function name")
	for !p.at(lexer.RParen) && !p.cur.IsEOF() {
		paramTok, ok := p.expect(lexer.Ident, diag.SynExpectIdentifier, "parameter name")
		if !ok {
			break
		}
		param := &ast.Param{Name: paramTok.Text}
		param.Loc = paramTok.Span
		if _, ok := p.eat(lexer.Assign); ok {
			param.Default = p.parseExpr()
		}
		fn.Params = append(fn.Params, param)
		if _, ok := p.eat(lexer.Comma); !ok {
			break
		}
	}
	p.expect(lexer.RParen, diag.SynExpectRParen, "')' after parameters")

	if p.at(lexer.LBrace) {
		fn.Body = p.parseBlock()
		fn.Loc = start.Cover(fn.Body.Span())
	} else {
		end, _ := p.expect(lexer.Semicolon, diag.SynExpectSemicolon, "function body or ';'")
		fn.Loc = start.Cover(end.Span)
	}
	return fn
}

func (p *parser) parseConst(anns []*ast.Annotation) ast.Decl {
	start := p.cur.Span
	p.advance() // const
	nameTok, ok := p.expect(lexer.Ident, diag.SynExpectIdentifier, "constant name")
	if !ok {
		p.syncTo(lexer.Semicolon)
		return nil
	}
	decl := &ast.ConstDecl{}
	decl.Name = nameTok.Text
	decl.NameLoc = nameTok.Span
	decl.Annotations = anns
	if _, ok := p.expect(lexer.Assign, diag.SynUnexpectedToken, "'=' after constant name"); ok {
		decl.Value = p.parseExpr()
	}
	end, _ := p.expect(lexer.Semicolon, diag.SynExpectSemicolon, "';' after constant")
	decl.Loc = start.Cover(end.Span)
	return decl
}

func (p *parser) parseVar(anns []*ast.Annotation) ast.Decl {
	start := p.cur.Span
	p.advance() // var
	nameTok, ok := p.expect(lexer.Ident, diag.SynExpectIdentifier, "variable name")
	if !ok {
		p.syncTo(lexer.Semicolon)
		return nil
	}
	decl := &ast.VarDecl{}
	decl.Name = nameTok.Text
	decl.NameLoc = nameTok.Span
	decl.Annotations = anns
	if _, ok := p.eat(lexer.Assign); ok {
		decl.Value = p.parseExpr()
	}
	end, _ := p.expect(lexer.Semicolon, diag.SynExpectSemicolon, "';' after variable")
	decl.Loc = start.Cover(end.Span)
	return decl
}
