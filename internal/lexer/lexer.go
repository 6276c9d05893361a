// Package lexer tokenizes Loom source files. Comments are not tokens; they
// are collected separately because suppression annotations, language version
// overrides, and TODO extraction all live in comments.
package lexer

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/source"
)

// Options configures a Lexer.
type Options struct {
	Reporter diag.Reporter
}

// Lexer produces tokens for one file.
type Lexer struct {
	file     *source.File
	reporter diag.Reporter
	pos      int
	comments []*ast.Comment
}

func New(file *source.File, opts Options) *Lexer {
	reporter := opts.Reporter
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	return &Lexer{file: file, reporter: reporter}
}

// Comments returns the comments seen so far, in source order.
func (l *Lexer) Comments() []*ast.Comment { return l.comments }

func (l *Lexer) offset(i int) uint32 {
	off, err := safecast.Conv[uint32](i)
	if err != nil {
		panic(fmt.Errorf("offset overflow: %w", err))
	}
	return off
}

func (l *Lexer) span(start, end int) source.Span {
	return source.Span{File: l.file.ID, Start: l.offset(start), End: l.offset(end)}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.file.Content) {
		return 0
	}
	return l.file.Content[l.pos]
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.file.Content) {
		return 0
	}
	return l.file.Content[l.pos+n]
}

// Next returns the next token, skipping whitespace and collecting comments.
func (l *Lexer) Next() Token {
	l.skipTrivia()
	start := l.pos
	if l.pos >= len(l.file.Content) {
		return Token{Kind: EOF, Span: l.span(start, start)}
	}

	c := l.peek()
	switch {
	case isIdentStart(c):
		return l.lexIdent(start)
	case c >= '0' && c <= '9':
		return l.lexNumber(start)
	case c == '"':
		return l.lexString(start)
	}

	l.pos++
	mk := func(kind Kind) Token {
		return Token{Kind: kind, Span: l.span(start, l.pos)}
	}
	two := func(next byte, both, single Kind) Token {
		if l.peek() == next {
			l.pos++
			return mk(both)
		}
		return mk(single)
	}

	switch c {
	case '{':
		return mk(LBrace)
	case '}':
		return mk(RBrace)
	case '(':
		return mk(LParen)
	case ')':
		return mk(RParen)
	case ';':
		return mk(Semicolon)
	case ',':
		return mk(Comma)
	case '.':
		return mk(Dot)
	case '@':
		return mk(At)
	case '+':
		return mk(Plus)
	case '-':
		return mk(Minus)
	case '*':
		return mk(Star)
	case '/':
		return mk(Slash)
	case '%':
		return mk(Percent)
	case '=':
		return two('=', Eq, Assign)
	case '!':
		return two('=', NotEq, Not)
	case '<':
		return two('=', LessEq, Less)
	case '>':
		return two('=', GreaterEq, Greater)
	case '&':
		if l.peek() == '&' {
			l.pos++
			return mk(AndAnd)
		}
	case '|':
		if l.peek() == '|' {
			l.pos++
			return mk(OrOr)
		}
	}

	diag.ReportError(l.reporter, diag.LexUnknownChar, l.span(start, l.pos),
		fmt.Sprintf("unknown character %q", c)).Emit()
	return l.Next()
}

func (l *Lexer) skipTrivia() {
	for l.pos < len(l.file.Content) {
		c := l.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		case c == '/' && l.peekAt(1) == '/':
			start := l.pos
			for l.pos < len(l.file.Content) && l.peek() != '\n' {
				l.pos++
			}
			text := string(l.file.Content[start+2 : l.pos])
			comment := &ast.Comment{Text: text}
			comment.Loc = l.span(start, l.pos)
			l.comments = append(l.comments, comment)
		default:
			return
		}
	}
}

func (l *Lexer) lexIdent(start int) Token {
	for l.pos < len(l.file.Content) && isIdentPart(l.peek()) {
		l.pos++
	}
	text := string(l.file.Content[start:l.pos])
	kind := Ident
	if kw, ok := keywords[text]; ok {
		kind = kw
	}
	return Token{Kind: kind, Span: l.span(start, l.pos), Text: text}
}

func (l *Lexer) lexNumber(start int) Token {
	for l.pos < len(l.file.Content) && l.peek() >= '0' && l.peek() <= '9' {
		l.pos++
	}
	if isIdentStart(l.peek()) {
		for l.pos < len(l.file.Content) && isIdentPart(l.peek()) {
			l.pos++
		}
		span := l.span(start, l.pos)
		diag.ReportError(l.reporter, diag.LexBadNumber, span,
			fmt.Sprintf("malformed number %q", l.file.Content[start:l.pos])).Emit()
		return Token{Kind: Int, Span: span, Text: "0"}
	}
	return Token{Kind: Int, Span: l.span(start, l.pos), Text: string(l.file.Content[start:l.pos])}
}

func (l *Lexer) lexString(start int) Token {
	l.pos++ // opening quote
	var sb strings.Builder
	interpolated := false
	for {
		if l.pos >= len(l.file.Content) || l.peek() == '\n' {
			span := l.span(start, l.pos)
			diag.ReportError(l.reporter, diag.LexUnterminatedString, span, "unterminated string").Emit()
			return Token{Kind: String, Span: span, Value: sb.String(), Interpolated: interpolated}
		}
		c := l.peek()
		if c == '"' {
			l.pos++
			break
		}
		if c == '$' && l.peekAt(1) == '{' {
			interpolated = true
		}
		if c == '\\' && l.pos+1 < len(l.file.Content) {
			l.pos++
			switch l.peek() {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(l.peek())
			}
			l.pos++
			continue
		}
		sb.WriteByte(c)
		l.pos++
	}
	return Token{Kind: String, Span: l.span(start, l.pos), Value: sb.String(), Interpolated: interpolated}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
