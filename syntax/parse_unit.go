package syntax

import (
	"fortc/ast"
	"fortc/report"
	"fortc/sema"
	"fortc/types"
)

// ParseMainProgram parses a main program:
//
//	main-program :=
//	    [program-stmt]
//	      [specification-part]
//	      [execution-part]
//	      end-program-stmt
func (p *Parser) ParseMainProgram() {
	var progID *ast.IdentifierInfo
	span := p.tok.Span

	if p.tok.Is(KWProgram) {
		progSpan := p.tok.Span
		p.Lex()
		if !p.isIdentLike(p.tok) {
			p.errorOn(p.tok, "'PROGRAM' keyword expects an identifier")
			p.LexToEndOfStatement()
		} else {
			progID = p.takeIdentifier()
		}
		p.actions.ActOnPROGRAM(progSpan, progID, p.takeStmtLabel())
		p.ParseStatementLabel()
	}

	p.actions.ActOnMainProgram(span, progID)

	p.ParseUnitBody()

	endLoc, endID, endIDLoc := p.ParseENDStmt(KWEndProgram, "END PROGRAM")
	p.actions.ActOnENDPROGRAM(endLoc, endID, p.takeStmtLabel())
	p.actions.ActOnEndMainProgram(endLoc, endID, endIDLoc)
}

// ParseENDStmt parses `END` or the merged `END<unit>` statement with its
// optional trailing name.  It returns the statement location and the name.
func (p *Parser) ParseENDStmt(mergedKind int, what string) (*report.TextSpan, *ast.IdentifierInfo, *report.TextSpan) {
	loc := p.tok.Span

	if p.tok.IsNot(KWEnd) && p.tok.IsNot(mergedKind) {
		p.errorOn(p.tok, "expected %s", what)
		// Recover by scanning for the end of the unit.
		for p.tok.IsNot(TokEOF) && p.tok.IsNot(KWEnd) && p.tok.IsNot(mergedKind) {
			p.Lex()
		}
		if p.tok.Is(TokEOF) {
			return loc, nil, nil
		}
	}
	p.Lex()

	var endID *ast.IdentifierInfo
	var endIDLoc *report.TextSpan
	if !p.atStmtStart() && p.isIdentLike(p.tok) {
		endIDLoc = p.tok.Span
		endID = p.takeIdentifier()
	}

	return loc, endID, endIDLoc
}

// ParseUnitBody parses the specification part followed by the execution part
// of a program unit, stopping at the unit's END statement.
func (p *Parser) ParseUnitBody() {
	inSpecPart := true

	for {
		if p.stmtLabel == nil {
			p.ParseStatementLabel()
		}

		switch p.tok.Kind {
		case TokEOF, KWEnd, KWEndProgram, KWEndFunction, KWEndSubroutine:
			return
		}

		if inSpecPart {
			switch handled := p.ParseSpecificationStmt(); handled {
			case specParsed:
				continue
			case specError:
				p.LexToEndOfStatement()
				continue
			case specNotSpec:
				inSpecPart = false
			}
		}

		if !p.ParseExecutableConstruct() {
			p.LexToEndOfStatement()
		}
	}
}

// ParseTypedFunctionSubprogram parses `type FUNCTION name(args)...`.
func (p *Parser) ParseTypedFunctionSubprogram() {
	ds := &sema.DeclSpec{}
	if !p.parseTypeSpec(ds, true) {
		p.LexToEndOfStatement()
		return
	}
	ret := p.actions.ActOnTypeName(ds)
	p.ParseFunctionSubprogram(&ret)
}

// ParseFunctionSubprogram parses a function subprogram.  ret is the parsed
// type prefix, or nil.
func (p *Parser) ParseFunctionSubprogram(ret *types.QualType) {
	span := p.tok.Span
	p.Lex() // eat FUNCTION

	if !p.isIdentLike(p.tok) {
		p.errorOn(p.tok, "'FUNCTION' keyword expects an identifier")
		p.LexToEndOfStatement()
		return
	}
	id := p.takeIdentifier()
	argIDs := p.parseDummyArgList()

	var retType types.QualType
	if ret != nil {
		retType = *ret
	}
	p.actions.ActOnFunction(span, id, retType, argIDs)

	p.ParseUnitBody()

	endLoc, _, _ := p.ParseENDStmt(KWEndFunction, "END FUNCTION")
	p.takeStmtLabel()
	p.actions.ActOnEndFunction(endLoc)
}

// ParseSubroutineSubprogram parses a subroutine subprogram.
func (p *Parser) ParseSubroutineSubprogram() {
	span := p.tok.Span
	p.Lex() // eat SUBROUTINE

	if !p.isIdentLike(p.tok) {
		p.errorOn(p.tok, "'SUBROUTINE' keyword expects an identifier")
		p.LexToEndOfStatement()
		return
	}
	id := p.takeIdentifier()
	argIDs := p.parseDummyArgList()

	p.actions.ActOnSubroutine(span, id, argIDs)

	p.ParseUnitBody()

	endLoc, _, _ := p.ParseENDStmt(KWEndSubroutine, "END SUBROUTINE")
	p.takeStmtLabel()
	p.actions.ActOnEndSubroutine(endLoc)
}

// parseDummyArgList parses the optional parenthesized dummy argument names.
func (p *Parser) parseDummyArgList() []*ast.IdentifierInfo {
	var argIDs []*ast.IdentifierInfo
	if !p.EatIfPresent(TokLParen) {
		return nil
	}
	if p.EatIfPresent(TokRParen) {
		return nil
	}

	for {
		if !p.isIdentLike(p.tok) {
			p.errorOn(p.tok, "expected a dummy argument name")
			p.LexToEndOfStatement()
			return argIDs
		}
		argIDs = append(argIDs, p.takeIdentifier())
		if !p.EatIfPresent(TokComma) {
			break
		}
	}

	p.Expect(TokRParen, "')' after the dummy argument list")
	return argIDs
}

// ParseModule skips a MODULE unit: module semantics are out of scope, the
// unit is consumed as a parser stub.
func (p *Parser) ParseModule() {
	p.Lex()
	if p.isIdentLike(p.tok) {
		p.takeIdentifier()
	}

	for p.tok.IsNot(TokEOF) && p.tok.IsNot(KWEndModule) {
		if p.tok.Is(KWEnd) && p.nextTok.StartOfStatement {
			break
		}
		p.Lex()
	}
	if p.tok.IsNot(TokEOF) {
		p.Lex()
		if !p.atStmtStart() && p.isIdentLike(p.tok) {
			p.Lex()
		}
	}
}

// ParseBlockData skips a BLOCK DATA unit (parser stub).
func (p *Parser) ParseBlockData() {
	p.Lex()
	for p.tok.IsNot(TokEOF) && p.tok.IsNot(KWEndBlockData) {
		if p.tok.Is(KWEnd) && p.nextTok.StartOfStatement {
			break
		}
		p.Lex()
	}
	if p.tok.IsNot(TokEOF) {
		p.Lex()
	}
}
