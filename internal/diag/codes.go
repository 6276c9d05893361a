package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Lexical
	LexUnknownChar        Code = 1001
	LexUnterminatedString Code = 1002
	LexBadNumber          Code = 1003

	// Syntax
	SynUnexpectedToken    Code = 2001
	SynExpectSemicolon    Code = 2002
	SynExpectIdentifier   Code = 2003
	SynExpectString       Code = 2004
	SynExpectLBrace       Code = 2005
	SynExpectRBrace       Code = 2006
	SynExpectRParen       Code = 2007
	SynDirectiveAfterDecl Code = 2008
	SynPartOfNotFirst     Code = 2009
	SynExpectExpression   Code = 2010

	// Semantic: name resolution, types, constants, inheritance
	SemaUnresolvedName        Code = 3001
	SemaAmbiguousImport       Code = 3002
	SemaDuplicateDeclaration  Code = 3003
	SemaTypeMismatch          Code = 3004
	SemaInvalidCondition      Code = 3005
	SemaArgumentCount         Code = 3006
	SemaConstCycle            Code = 3010
	SemaConstNotConstant      Code = 3011
	SemaConstInvalidOperation Code = 3012
	SemaConstDivisionByZero   Code = 3013
	SemaExtendsNonClass       Code = 3020
	SemaInvalidOverride       Code = 3021
	SemaAbstractInstantiation Code = 3022

	// Directive and library-structure resolution
	DirUriWithInterpolation   Code = 4001
	DirInvalidUri             Code = 4002
	DirUriDoesNotExist        Code = 4003
	DirUriHasNotBeenGenerated Code = 4004
	DirImportOfNonLibrary     Code = 4005
	DirExportOfNonLibrary     Code = 4006
	DirPartOfNonPart          Code = 4007
	DirPartOfDifferentLibrary Code = 4008
	DirPartOfUnnamedLibrary   Code = 4009
	DirDuplicatePart          Code = 4010
	DirPartOfMissing          Code = 4011
	DirNotSupported           Code = 4012
	DirLanguageVersionMismatch Code = 4020

	// Hints
	HintUnusedImport       Code = 5001
	HintUnusedElement      Code = 5002
	HintUnusedLocal        Code = 5003
	HintDeadCode           Code = 5004
	HintTodo               Code = 5005
	HintOverrideMismatch   Code = 5006
	HintRedundantOverride  Code = 5007
	HintSdkVersionTooLow   Code = 5008
	HintDeprecatedUse      Code = 5009

	// Lints (one code per bundled rule; Diagnostic.Rule carries the name)
	LintAvoidEmptyBlocks  Code = 6001
	LintPreferLetBindings Code = 6002
	LintUpperCaseConsts   Code = 6003

	// Ignore-comment validation
	IgnUnnecessaryIgnore Code = 7001
	IgnUnignorableCode   Code = 7002

	// I/O
	IOLoadFileError Code = 8001
)

var codeDescription = map[Code]string{
	UnknownCode:           "Unknown error",
	LexUnknownChar:        "Unknown character",
	LexUnterminatedString: "Unterminated string",
	LexBadNumber:          "Bad number literal",

	SynUnexpectedToken:    "Unexpected token",
	SynExpectSemicolon:    "Expect semicolon",
	SynExpectIdentifier:   "Expect identifier",
	SynExpectString:       "Expect string literal",
	SynExpectLBrace:       "Expect '{'",
	SynExpectRBrace:       "Expect '}'",
	SynExpectRParen:       "Expect ')'",
	SynDirectiveAfterDecl: "Directive must appear before declarations",
	SynPartOfNotFirst:     "'part of' must be the first directive",
	SynExpectExpression:   "Expect expression",

	SemaUnresolvedName:        "Unresolved name",
	SemaAmbiguousImport:       "Name imported from multiple libraries",
	SemaDuplicateDeclaration:  "Duplicate declaration",
	SemaTypeMismatch:          "Type mismatch",
	SemaInvalidCondition:      "Condition must be a boolean expression",
	SemaArgumentCount:         "Wrong number of arguments",
	SemaConstCycle:            "Constant depends on itself through a cycle",
	SemaConstNotConstant:      "Value is not a compile-time constant",
	SemaConstInvalidOperation: "Invalid operation in constant expression",
	SemaConstDivisionByZero:   "Division by zero in constant expression",
	SemaExtendsNonClass:       "Superclass is not a class",
	SemaInvalidOverride:       "Invalid member override",
	SemaAbstractInstantiation: "Cannot instantiate abstract class",

	DirUriWithInterpolation:    "Directive URI must not use interpolation",
	DirInvalidUri:              "Invalid directive URI",
	DirUriDoesNotExist:         "Directive target does not exist",
	DirUriHasNotBeenGenerated:  "Directive target has not been generated yet",
	DirImportOfNonLibrary:      "Import target is not a library",
	DirExportOfNonLibrary:      "Export target is not a library",
	DirPartOfNonPart:           "Included file has no 'part of' directive",
	DirPartOfDifferentLibrary:  "Part declares a different library",
	DirPartOfUnnamedLibrary:    "Part names a library but the including library is unnamed",
	DirDuplicatePart:           "File included as a part more than once",
	DirPartOfMissing:           "Part file could not be resolved",
	DirNotSupported:            "Directive form is not supported yet",
	DirLanguageVersionMismatch: "Part language version differs from the library",

	HintUnusedImport:      "Unused import",
	HintUnusedElement:     "Unused declaration",
	HintUnusedLocal:       "Unused local binding",
	HintDeadCode:          "Dead code",
	HintTodo:              "TODO comment",
	HintOverrideMismatch:  "Override signature differs from superclass",
	HintRedundantOverride: "Override is identical to the inherited member",
	HintSdkVersionTooLow:  "API requires a newer SDK version",
	HintDeprecatedUse:     "Use of a deprecated declaration",

	LintAvoidEmptyBlocks:  "Avoid empty blocks",
	LintPreferLetBindings: "Prefer 'let' for bindings that are never reassigned",
	LintUpperCaseConsts:   "Constant names should be upper case",

	IgnUnnecessaryIgnore: "Ignore comment does not match any diagnostic",
	IgnUnignorableCode:   "This diagnostic cannot be ignored",

	IOLoadFileError: "Cannot load file",
}

// ID renders the stable textual identifier used in output and in ignore
// comments, e.g. "SEM3001".
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("DIR%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("HNT%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("LNT%04d", ic)
	case ic >= 7000 && ic < 8000:
		return fmt.Sprintf("IGN%04d", ic)
	case ic >= 8000 && ic < 9000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
