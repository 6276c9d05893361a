package lexer

import "loom/internal/source"

// Kind enumerates token kinds.
type Kind uint8

const (
	EOF Kind = iota
	Ident
	Int
	String

	LBrace
	RBrace
	LParen
	RParen
	Semicolon
	Comma
	Dot
	At
	Assign
	Eq
	NotEq
	Less
	LessEq
	Greater
	GreaterEq
	Plus
	Minus
	Star
	Slash
	Percent
	Not
	AndAnd
	OrOr

	// Keywords
	KwLibrary
	KwImport
	KwExport
	KwPart
	KwOf
	KwIf
	KwAs
	KwShow
	KwClass
	KwExtends
	KwAbstract
	KwFn
	KwConst
	KwVar
	KwLet
	KwReturn
	KwWhile
	KwElse
	KwIs
	KwTrue
	KwFalse
	KwNull
)

var keywords = map[string]Kind{
	"library":  KwLibrary,
	"import":   KwImport,
	"export":   KwExport,
	"part":     KwPart,
	"of":       KwOf,
	"if":       KwIf,
	"as":       KwAs,
	"show":     KwShow,
	"class":    KwClass,
	"extends":  KwExtends,
	"abstract": KwAbstract,
	"fn":       KwFn,
	"const":    KwConst,
	"var":      KwVar,
	"let":      KwLet,
	"return":   KwReturn,
	"while":    KwWhile,
	"else":     KwElse,
	"is":       KwIs,
	"true":     KwTrue,
	"false":    KwFalse,
	"null":     KwNull,
}

// Token is one lexed token. Text holds the raw identifier or number;
// Value holds the decoded string for String tokens.
type Token struct {
	Kind         Kind
	Span         source.Span
	Text         string
	Value        string
	Interpolated bool
}

func (t Token) IsEOF() bool { return t.Kind == EOF }

// IsKeyword reports whether the token is any keyword.
func (t Token) IsKeyword() bool { return t.Kind >= KwLibrary }
