package syntax

import (
	"strings"

	"fortc/ast"
	"fortc/report"
)

// Token represents a single lexical token.
type Token struct {
	// The kind of the token.  This must be one of the enumerated token kinds.
	Kind int

	// The spelling of the token as a vector of segments: fixed-form
	// continuation lines can split one logical token across source lines, one
	// segment per line.
	Spelling []string

	// The text span over which the token exists.
	Span *report.TextSpan

	// The interned identifier for identifier-class tokens (including tokens
	// promoted to keyword or builtin kinds), nil otherwise.
	ID *ast.IdentifierInfo

	// Whether the token is the first token of a statement.
	StartOfStatement bool
}

// Value returns the joined spelling of the token.
func (t *Token) Value() string {
	if len(t.Spelling) == 1 {
		return t.Spelling[0]
	}
	return strings.Join(t.Spelling, "")
}

// Is returns true if the token has the given kind.
func (t *Token) Is(kind int) bool { return t.Kind == kind }

// IsNot returns true if the token does not have the given kind.
func (t *Token) IsNot(kind int) bool { return t.Kind != kind }

// Enumeration of token kinds.
const (
	TokUnknown = iota
	TokEOF
	TokComment

	TokIdentifier
	TokBuiltin
	TokStatementLabel

	TokIntConst
	TokRealConst
	TokDblPrecConst
	TokCharConst

	TokLParen
	TokRParen
	TokComma
	TokEqual
	TokPlus
	TokMinus
	TokStar
	TokStarStar
	TokSlash
	TokSlashSlash
	TokColon
	TokColonColon
	TokEqualGreater
	TokSemi
	TokPercent
	TokLArrayCon // (/
	TokRArrayCon // /)

	// Relational and logical dot-operators plus their symbolic forms.
	TokEQ
	TokNE
	TokLT
	TokLE
	TokGT
	TokGE
	TokAND
	TokOR
	TokNOT
	TokEQV
	TokNEQV
	TokTRUE
	TokFALSE

	// Keywords.  A token of one of these kinds retains its identifier payload
	// so the parser can demote it back when a keyword spelling appears in
	// identifier position.
	KWProgram
	KWEndProgram
	KWEnd
	KWFunction
	KWEndFunction
	KWSubroutine
	KWEndSubroutine
	KWModule
	KWEndModule
	KWBlock
	KWData
	KWBlockData
	KWEndBlockData
	KWEndBlock

	KWInteger
	KWReal
	KWComplex
	KWCharacter
	KWLogical
	KWDouble
	KWPrecision
	KWDoublePrecision
	KWType
	KWEndType
	KWClass
	KWKind
	KWLen

	KWImplicit
	KWNone
	KWParameter
	KWDimension
	KWExternal
	KWIntrinsic
	KWNonIntrinsic
	KWAsynchronous
	KWAllocatable
	KWVolatile
	KWOptional
	KWPointer
	KWSave
	KWTarget
	KWValue
	KWContiguous
	KWIntent
	KWIn
	KWOut
	KWInOut

	KWUse
	KWImport
	KWOnly

	KWIf
	KWThen
	KWElse
	KWElseIf
	KWEndIf
	KWDo
	KWEndDo
	KWContinue
	KWStop
	KWPrint
	KWGo
	KWTo
	KWGoto
	KWAssign
	KWReturn

	KWWhere
	KWElseWhere
	KWEndWhere
	KWForAll
	KWEndForAll

	KWSelect
	KWCase
	KWSelectCase
	KWSelectType
	KWEndSelect
	KWEnum
	KWEndEnum
	KWAssociate
	KWEndAssociate
	KWFile
	KWEndFile
	KWInterface
	KWEndInterface
	KWCall
)

// IsKeyword reports whether the kind is one of the keyword kinds.
func IsKeyword(kind int) bool {
	return kind >= KWProgram
}
