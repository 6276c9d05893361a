package parser

import (
	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/lexer"
)

func (p *parser) parseBlock() *ast.Block {
	start := p.cur.Span
	block := &ast.Block{}
	p.expect(lexer.LBrace, diag.SynExpectLBrace, "'{'")
	for !p.at(lexer.RBrace) && !p.cur.IsEOF() {
		stmt := p.parseStmt()
		if stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
	}
	end, _ := p.expect(lexer.RBrace, diag.SynExpectRBrace, "'}'")
	block.Loc = start.Cover(end.Span)
	return block
}

func (p *parser) parseStmt() ast.Stmt {
	switch p.cur.Kind {
	case lexer.KwLet, lexer.KwVar:
		return p.parseBind()
	case lexer.KwReturn:
		return p.parseReturn()
	case lexer.KwIf:
		return p.parseIf()
	case lexer.KwWhile:
		return p.parseWhile()
	case lexer.LBrace:
		return p.parseBlock()
	case lexer.Semicolon:
		p.advance()
		return nil
	default:
		start := p.cur.Span
		expr := p.parseExpr()
		if expr == nil {
			p.syncTo(lexer.Semicolon, lexer.RBrace)
			return nil
		}
		end, _ := p.expect(lexer.Semicolon, diag.SynExpectSemicolon, "';' after expression")
		stmt := &ast.ExprStmt{X: expr}
		stmt.Loc = start.Cover(end.Span)
		return stmt
	}
}

func (p *parser) parseBind() ast.Stmt {
	start := p.cur.Span
	mutable := p.cur.Kind == lexer.KwVar
	p.advance()
	nameTok, ok := p.expect(lexer.Ident, diag.SynExpectIdentifier, "binding name")
	if !ok {
		p.syncTo(lexer.Semicolon)
		return nil
	}
	stmt := &ast.BindStmt{Name: nameTok.Text, NameLoc: nameTok.Span, Mutable: mutable}
	if _, ok := p.expect(lexer.Assign, diag.SynUnexpectedToken, "'=' in binding"); ok {
		stmt.Value = p.parseExpr()
	}
	end, _ := p.expect(lexer.Semicolon, diag.SynExpectSemicolon, "';' after binding")
	stmt.Loc = start.Cover(end.Span)
	return stmt
}

func (p *parser) parseReturn() ast.Stmt {
	start := p.cur.Span
	p.advance()
	stmt := &ast.ReturnStmt{}
	if !p.at(lexer.Semicolon) {
		stmt.Value = p.parseExpr()
	}
	end, _ := p.expect(lexer.Semicolon, diag.SynExpectSemicolon, "';' after return")
	stmt.Loc = start.Cover(end.Span)
	return stmt
}

func (p *parser) parseIf() ast.Stmt {
	start := p.cur.Span
	p.advance()
	stmt := &ast.IfStmt{}
	p.expect(lexer.LParen, diag.SynUnexpectedToken, "'(' after 'if'")
	stmt.Cond = p.parseExpr()
	p.expect(lexer.RParen, diag.SynExpectRParen, "')' after condition")
	stmt.Then = p.parseBlock()
	stmt.Loc = start.Cover(stmt.Then.Span())
	if _, ok := p.eat(lexer.KwElse); ok {
		if p.at(lexer.KwIf) {
			stmt.Else = p.parseIf()
		} else {
			stmt.Else = p.parseBlock()
		}
		stmt.Loc = stmt.Loc.Cover(stmt.Else.Span())
	}
	return stmt
}

func (p *parser) parseWhile() ast.Stmt {
	start := p.cur.Span
	p.advance()
	stmt := &ast.WhileStmt{}
	p.expect(lexer.LParen, diag.SynUnexpectedToken, "'(' after 'while'")
	stmt.Cond = p.parseExpr()
	p.expect(lexer.RParen, diag.SynExpectRParen, "')' after condition")
	stmt.Body = p.parseBlock()
	stmt.Loc = start.Cover(stmt.Body.Span())
	return stmt
}
