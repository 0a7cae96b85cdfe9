package syntax

import (
	"fortc/ast"
	"fortc/report"
	"fortc/sema"
)

// Parser is the statement-label-aware recursive descent parser for one
// Fortran source buffer.  The parser performs token classification and
// compound keyword merging over a one-token (occasionally two-token)
// lookahead and drives semantic analysis through the Sema action interface:
// it never constructs AST nodes itself.  All parsing functions assume they
// begin positioned on the first token of their production and consume every
// token of it.
type Parser struct {
	path    string
	opts    LangOptions
	lexer   *Lexer
	idents  *IdentifierTable
	actions *sema.Sema

	// The current token and the lookahead token.
	tok, nextTok *Token

	// The numeric label of the statement being parsed, or nil.
	stmtLabel ast.Expr
}

// NewParser creates a parser over a source buffer with its semantic actions.
func NewParser(path, src string, opts LangOptions, actions *sema.Sema) *Parser {
	return &Parser{
		path:    path,
		opts:    opts,
		lexer:   NewLexer(path, src, opts),
		idents:  NewIdentifierTable(opts),
		actions: actions,
	}
}

// Idents exposes the identifier table (tests use it).
func (p *Parser) Idents() *IdentifierTable { return p.idents }

func (p *Parser) lexAndClassify() *Token {
	tok := p.lexer.NextToken()
	for tok.Is(TokComment) && !p.opts.ReturnComments {
		tok = p.lexer.NextToken()
	}
	// Retained comments are transparent to the grammar.
	for tok.Is(TokComment) {
		tok = p.lexer.NextToken()
	}
	p.ClassifyToken(tok)
	return tok
}

// ClassifyToken classifies a raw identifier token: a keyword spelling is
// promoted to its keyword kind and a builtin spelling to the builtin kind,
// but the token retains its identifier payload so the parser can demote it
// back when a keyword appears in identifier position.  Classifying an
// already-classified token is a no-op.
func (p *Parser) ClassifyToken(t *Token) {
	if t.IsNot(TokIdentifier) {
		return
	}

	name := t.Value()
	if kind, ok := p.idents.LookupKeyword(name); ok {
		t.ID = p.idents.Get(name)
		t.Kind = kind
	} else if kind, ok := p.idents.LookupBuiltin(name); ok {
		t.ID = p.idents.Get(name)
		t.Kind = kind
	} else {
		t.ID = p.idents.Get(name)
	}
}

// merge folds the lookahead token into the current one when it has the
// expected kind, producing the merged compound keyword.  Merging never
// crosses a statement boundary.
func (p *Parser) merge(nextKind, mergedKind int) bool {
	if p.nextTok.IsNot(nextKind) || p.nextTok.StartOfStatement {
		return false
	}
	p.tok.Kind = mergedKind
	p.tok.Spelling = append(p.tok.Spelling, p.nextTok.Spelling...)
	p.tok.Span = report.NewSpanOver(p.tok.Span, p.nextTok.Span)
	p.tok.ID = nil
	p.nextTok = p.lexAndClassify()
	return true
}

var endMerges = [...]struct{ next, merged int }{
	{KWIf, KWEndIf},
	{KWDo, KWEndDo},
	{KWFunction, KWEndFunction},
	{KWForAll, KWEndForAll},
	{KWWhere, KWEndWhere},
	{KWEnum, KWEndEnum},
	{KWSelect, KWEndSelect},
	{KWType, KWEndType},
	{KWModule, KWEndModule},
	{KWProgram, KWEndProgram},
	{KWAssociate, KWEndAssociate},
	{KWFile, KWEndFile},
	{KWInterface, KWEndInterface},
	{KWBlockData, KWEndBlockData},
	{KWSubroutine, KWEndSubroutine},
}

// Lex advances to the next token, maintaining the one-token lookahead and
// applying compound keyword merging.
func (p *Parser) Lex() {
	if p.nextTok != nil {
		p.tok = p.nextTok
		p.nextTok = nil
	} else {
		p.tok = p.lexAndClassify()
	}

	if p.tok.Is(TokEOF) {
		p.nextTok = p.tok
		return
	}

	p.nextTok = p.lexAndClassify()

	switch p.tok.Kind {
	case KWBlock:
		p.merge(KWData, KWBlockData)

	case KWElse:
		if !p.merge(KWIf, KWElseIf) {
			p.merge(KWWhere, KWElseWhere)
		}

	case KWEnd:
		for _, m := range endMerges {
			if p.merge(m.next, m.merged) {
				return
			}
		}
		// END BLOCK DATA needs a second token of lookahead.
		if p.nextTok.Is(KWBlock) && !p.nextTok.StartOfStatement {
			p.nextTok = p.lexAndClassify()
			if p.nextTok.IsNot(KWData) {
				p.errorOn(p.nextTok, "expected 'DATA' after 'BLOCK' keyword")
				return
			}
			p.tok.Kind = KWEndBlockData
			p.tok.ID = nil
			p.nextTok = p.lexAndClassify()
		}

	case KWEndBlock:
		p.merge(KWData, KWEndBlockData)

	case KWGo:
		p.merge(KWTo, KWGoto)

	case KWSelect:
		if !p.merge(KWCase, KWSelectCase) {
			p.merge(KWType, KWSelectType)
		}

	case KWIn:
		p.merge(KWOut, KWInOut)

	case KWDouble:
		p.merge(KWPrecision, KWDoublePrecision)
	}
}

// -----------------------------------------------------------------------------

// EatIfPresent eats the token if it's present.  Returns true if it was.
func (p *Parser) EatIfPresent(kind int) bool {
	if p.tok.Is(kind) {
		p.Lex()
		return true
	}
	return false
}

// Expect eats a token of the given kind or reports an error.
func (p *Parser) Expect(kind int, what string) bool {
	if p.EatIfPresent(kind) {
		return true
	}
	p.errorOn(p.tok, "expected %s", what)
	return false
}

// LexToEndOfStatement lexes to the end of the current statement.  Done in an
// unrecoverable error situation.
func (p *Parser) LexToEndOfStatement() {
	for p.tok.IsNot(TokEOF) && !p.tok.StartOfStatement {
		p.Lex()
	}
}

// atStmtStart reports whether the parser sits on the first token of a new
// statement.
func (p *Parser) atStmtStart() bool {
	return p.tok.StartOfStatement || p.tok.Is(TokEOF)
}

func (p *Parser) errorOn(tok *Token, msg string, args ...interface{}) {
	report.ReportError(p.path, tok.Span, msg, args...)
}

// isIdentLike reports whether the token can be used as an identifier: a plain
// identifier, a builtin, or a keyword-classified token that still carries its
// identifier payload (keyword demotion).
func (p *Parser) isIdentLike(t *Token) bool {
	return t.Is(TokIdentifier) || t.Is(TokBuiltin) || (IsKeyword(t.Kind) && t.ID != nil)
}

// takeIdentifier demotes the current token to an identifier and returns its
// interned entry, advancing past it.
func (p *Parser) takeIdentifier() *ast.IdentifierInfo {
	id := p.tok.ID
	p.Lex()
	return id
}

// ParseStatementLabel parses the statement label token, if present, into the
// pending statement label.
func (p *Parser) ParseStatementLabel() {
	p.stmtLabel = nil
	if p.tok.Is(TokStatementLabel) {
		p.stmtLabel = p.actions.ActOnStatementLabel(p.tok.Span, p.tok.Value())
		p.Lex()
	}
}

// takeStmtLabel consumes the pending statement label.
func (p *Parser) takeStmtLabel() ast.Expr {
	label := p.stmtLabel
	p.stmtLabel = nil
	return label
}

// -----------------------------------------------------------------------------

// ParseProgramUnits is the main entry point to the parser: it parses every
// program unit of the buffer.  It returns true if errors were reported.
func (p *Parser) ParseProgramUnits() bool {
	defer report.CatchErrors(p.path)

	p.actions.ActOnTranslationUnit()

	// Prime the token stream.
	p.Lex()
	p.tok.StartOfStatement = true

	for p.tok.IsNot(TokEOF) {
		p.ParseProgramUnit()
	}

	p.actions.ActOnEndTranslationUnit()
	return report.AnyErrors()
}

// ParseProgramUnit parses one program unit:
//
//	program-unit :=
//	    main-program
//	 or external-subprogram
//	 or module
//	 or block-data
func (p *Parser) ParseProgramUnit() {
	p.ParseStatementLabel()

	switch p.tok.Kind {
	case KWFunction:
		p.ParseFunctionSubprogram(nil)

	case KWSubroutine:
		p.ParseSubroutineSubprogram()

	case KWInteger, KWReal, KWComplex, KWCharacter, KWLogical, KWDoublePrecision:
		// A typed FUNCTION statement; anything else opens a main program.
		if p.nextTok.Is(KWFunction) {
			p.ParseTypedFunctionSubprogram()
			return
		}
		p.ParseMainProgram()

	case KWModule:
		p.ParseModule()

	case KWBlockData:
		p.ParseBlockData()

	default:
		p.ParseMainProgram()
	}
}
