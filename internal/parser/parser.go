// Package parser builds the ast for one Loom file. It is a collaborator of
// the analysis core: the analyzer only requires "raw text in, tree plus
// diagnostics out".
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/lexer"
	"loom/internal/source"
)

// Options configures parsing.
type Options struct {
	Reporter  diag.Reporter
	MaxErrors uint
}

type parser struct {
	lx       *lexer.Lexer
	file     *source.File
	reporter diag.Reporter
	maxErrs  uint
	errs     uint

	cur  lexer.Token
	next lexer.Token
}

// ParseFile parses the file into an ast.File. The returned tree is always
// non-nil; syntax problems surface through the reporter.
func ParseFile(file *source.File, opts Options) *ast.File {
	reporter := opts.Reporter
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	lx := lexer.New(file, lexer.Options{Reporter: reporter})
	p := &parser{
		lx:       lx,
		file:     file,
		reporter: reporter,
		maxErrs:  opts.MaxErrors,
	}
	p.cur = lx.Next()
	p.next = lx.Next()

	out := p.parseFile()
	out.Comments = lx.Comments()
	out.Version = extractLanguageVersion(out.Comments)
	return out
}

var versionOverride = regexp.MustCompile(`^\s*@loom\s*=\s*(\d+)\.(\d+)\s*$`)

// extractLanguageVersion finds the first `// @loom=M.N` comment before any
// other content lines. Later occurrences are plain comments.
func extractLanguageVersion(comments []*ast.Comment) *ast.LanguageVersion {
	for _, c := range comments {
		m := versionOverride.FindStringSubmatch(c.Text)
		if m == nil {
			continue
		}
		major, err1 := strconv.Atoi(m[1])
		minor, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil {
			return nil
		}
		v := &ast.LanguageVersion{Major: major, Minor: minor}
		v.Loc = c.Span()
		return v
	}
	return nil
}

func (p *parser) advance() {
	p.cur = p.next
	p.next = p.lx.Next()
}

func (p *parser) at(kind lexer.Kind) bool { return p.cur.Kind == kind }

func (p *parser) eat(kind lexer.Kind) (lexer.Token, bool) {
	if p.cur.Kind == kind {
		tok := p.cur
		p.advance()
		return tok, true
	}
	return p.cur, false
}

func (p *parser) expect(kind lexer.Kind, code diag.Code, what string) (lexer.Token, bool) {
	if tok, ok := p.eat(kind); ok {
		return tok, true
	}
	p.report(code, p.cur.Span, "expected %s", what)
	return p.cur, false
}

func (p *parser) report(code diag.Code, span source.Span, format string, args ...any) {
	if p.maxErrs != 0 && p.errs >= p.maxErrs {
		return
	}
	p.errs++
	diag.ReportError(p.reporter, code, span, fmt.Sprintf(format, args...)).Emit()
}

// syncTo skips tokens until one of the kinds (or EOF), consuming the match
// when it is a semicolon.
func (p *parser) syncTo(kinds ...lexer.Kind) {
	for !p.cur.IsEOF() {
		for _, k := range kinds {
			if p.cur.Kind == k {
				if k == lexer.Semicolon {
					p.advance()
				}
				return
			}
		}
		p.advance()
	}
}

func (p *parser) parseFile() *ast.File {
	f := &ast.File{}
	f.Loc = source.Span{File: p.file.ID, Start: 0, End: uint32(len(p.file.Content))}

	// Header: `library NAME;` or `part of ...;`
	if p.at(lexer.KwLibrary) {
		start := p.cur.Span
		p.advance()
		name, span := p.parseDottedName()
		f.LibraryName = name
		f.LibrarySpan = start.Cover(span)
		p.expect(lexer.Semicolon, diag.SynExpectSemicolon, "';' after library name")
	} else if p.at(lexer.KwPart) && p.next.Kind == lexer.KwOf {
		f.PartOf = p.parsePartOf()
	}

	seenDecl := false
	for !p.cur.IsEOF() {
		switch p.cur.Kind {
		case lexer.KwImport, lexer.KwExport:
			if seenDecl {
				p.report(diag.SynDirectiveAfterDecl, p.cur.Span, "%s directive must appear before declarations", p.cur.Text)
			}
			f.Directives = append(f.Directives, p.parseImportExport())
		case lexer.KwPart:
			if p.next.Kind == lexer.KwOf {
				p.report(diag.SynPartOfNotFirst, p.cur.Span, "'part of' must be the first directive in a file")
				p.parsePartOf()
				continue
			}
			if seenDecl {
				p.report(diag.SynDirectiveAfterDecl, p.cur.Span, "part directive must appear before declarations")
			}
			f.Directives = append(f.Directives, p.parsePart())
		default:
			decl := p.parseDecl()
			if decl == nil {
				continue
			}
			seenDecl = true
			f.Decls = append(f.Decls, decl)
		}
	}
	return f
}

func (p *parser) parseDottedName() (string, source.Span) {
	first, ok := p.expect(lexer.Ident, diag.SynExpectIdentifier, "identifier")
	if !ok {
		p.syncTo(lexer.Semicolon)
		return "", first.Span
	}
	name := first.Text
	span := first.Span
	for p.at(lexer.Dot) && p.next.Kind == lexer.Ident {
		p.advance()
		seg, _ := p.eat(lexer.Ident)
		name += "." + seg.Text
		span = span.Cover(seg.Span)
	}
	return name, span
}

func (p *parser) parsePartOf() *ast.PartOf {
	start := p.cur.Span
	p.advance() // part
	p.advance() // of
	po := &ast.PartOf{}
	if p.at(lexer.String) {
		tok, _ := p.eat(lexer.String)
		po.URI = tok.Value
		po.IsURI = true
		po.Loc = start.Cover(tok.Span)
	} else {
		name, span := p.parseDottedName()
		po.Name = name
		po.Loc = start.Cover(span)
	}
	p.expect(lexer.Semicolon, diag.SynExpectSemicolon, "';' after part-of directive")
	return po
}

func (p *parser) parseStringLit() (ast.StringLit, bool) {
	tok, ok := p.expect(lexer.String, diag.SynExpectString, "URI string")
	lit := ast.StringLit{Value: tok.Value, Interpolated: tok.Interpolated}
	lit.Loc = tok.Span
	return lit, ok
}

func (p *parser) parseImportExport() *ast.Directive {
	start := p.cur.Span
	kind := ast.DirImport
	if p.cur.Kind == lexer.KwExport {
		kind = ast.DirExport
	}
	p.advance()

	d := &ast.Directive{Kind: kind}
	uri, ok := p.parseStringLit()
	if !ok {
		p.syncTo(lexer.Semicolon)
		d.Loc = start
		return d
	}
	d.URI = uri

	for p.at(lexer.KwIf) {
		d.Configurations = append(d.Configurations, p.parseConfiguration())
	}
	if kind == ast.DirExport && (p.at(lexer.KwAs) || p.at(lexer.KwShow)) {
		p.report(diag.DirNotSupported, p.cur.Span, "%q cannot be used on an export directive", p.cur.Text)
		p.syncTo(lexer.Semicolon)
		d.Loc = start.Cover(uri.Span())
		return d
	}
	if kind == ast.DirImport {
		if _, ok := p.eat(lexer.KwAs); ok {
			if tok, ok := p.expect(lexer.Ident, diag.SynExpectIdentifier, "import prefix"); ok {
				d.Prefix = tok.Text
			}
		}
		if _, ok := p.eat(lexer.KwShow); ok {
			for {
				tok, ok := p.expect(lexer.Ident, diag.SynExpectIdentifier, "shown name")
				if !ok {
					break
				}
				d.Show = append(d.Show, tok.Text)
				if _, ok := p.eat(lexer.Comma); !ok {
					break
				}
			}
		}
	}
	end, _ := p.expect(lexer.Semicolon, diag.SynExpectSemicolon, "';' after directive")
	d.Loc = start.Cover(end.Span)
	return d
}

// parseConfiguration parses `if (declared.NAME [== "value"]) "uri"`.
func (p *parser) parseConfiguration() *ast.Configuration {
	start := p.cur.Span
	p.advance() // if
	cfg := &ast.Configuration{}
	p.expect(lexer.LParen, diag.SynUnexpectedToken, "'(' after 'if'")
	name, _ := p.parseDottedName()
	cfg.Name = strings.TrimPrefix(name, "declared.")
	if _, ok := p.eat(lexer.Eq); ok {
		if tok, ok := p.expect(lexer.String, diag.SynExpectString, "condition value"); ok {
			cfg.Value = tok.Value
		}
	}
	p.expect(lexer.RParen, diag.SynExpectRParen, "')' after condition")
	uri, _ := p.parseStringLit()
	cfg.URI = uri
	cfg.Loc = start.Cover(uri.Span())
	return cfg
}

func (p *parser) parsePart() *ast.Directive {
	start := p.cur.Span
	p.advance() // part
	d := &ast.Directive{Kind: ast.DirPart}
	uri, ok := p.parseStringLit()
	if !ok {
		p.syncTo(lexer.Semicolon)
		d.Loc = start
		return d
	}
	d.URI = uri
	end, _ := p.expect(lexer.Semicolon, diag.SynExpectSemicolon, "';' after part directive")
	d.Loc = start.Cover(end.Span)
	return d
}
