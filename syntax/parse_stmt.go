package syntax

import (
	"fortc/ast"
)

// ParseExecutableConstruct parses one executable statement or construct part.
// It returns false when the statement could not be parsed and the caller
// should recover by scanning to the end of the statement.
func (p *Parser) ParseExecutableConstruct() bool {
	switch p.tok.Kind {
	case KWGoto:
		return p.ParseGotoStmt()
	case KWAssign:
		return p.ParseAssignStmt()
	case KWIf:
		// IF used as a variable name: `IF = expr` or an assignment to an
		// array named IF.
		if p.tok.ID != nil {
			if p.nextTok.Is(TokEqual) && !p.nextTok.StartOfStatement {
				return p.ParseAssignmentStmt()
			}
			if vd := p.tok.ID.VarPayload(); vd != nil && vd.Type.IsArrayType() {
				return p.ParseAssignmentStmt()
			}
		}
		return p.ParseIfStmt()
	case KWElseIf:
		return p.ParseElseIfStmt()
	case KWElse:
		return p.ParseElseStmt()
	case KWEndIf:
		return p.ParseEndIfStmt()
	case KWDo:
		return p.ParseDoStmt()
	case KWContinue:
		span := p.tok.Span
		p.Lex()
		p.actions.ActOnContinueStmt(span, p.takeStmtLabel())
		return true
	case KWStop:
		return p.ParseStopStmt()
	case KWPrint:
		return p.ParsePrintStmt()
	case KWWhere:
		return p.ParseWhereStmt()
	case KWElseWhere:
		span := p.tok.Span
		p.Lex()
		p.actions.ActOnElseWhereStmt(span, p.takeStmtLabel())
		return true
	case KWEndWhere:
		span := p.tok.Span
		p.Lex()
		p.actions.ActOnEndWhereStmt(span, p.takeStmtLabel())
		return true
	case KWCall:
		return p.ParseCallStmt()
	case KWReturn:
		// RETURN lowers as a bare unit exit; modelled as STOP-less continue.
		span := p.tok.Span
		p.Lex()
		if !p.atStmtStart() {
			p.ParseExpression()
		}
		p.actions.ActOnContinueStmt(span, p.takeStmtLabel())
		return true
	}

	if p.isIdentLike(p.tok) {
		return p.ParseAssignmentStmt()
	}

	p.errorOn(p.tok, "unexpected token '%s' at start of statement", p.tok.Value())
	return false
}

// ParseCallStmt parses `CALL name [( args )]`.
func (p *Parser) ParseCallStmt() bool {
	span := p.tok.Span
	p.Lex()

	if !p.isIdentLike(p.tok) {
		p.errorOn(p.tok, "expected a subroutine name after CALL")
		return false
	}
	id := p.takeIdentifier()

	var args []ast.Expr
	if p.tok.Is(TokLParen) && !p.tok.StartOfStatement {
		var ok bool
		args, ok = p.parseArgumentList()
		if !ok {
			return false
		}
	}

	p.actions.ActOnCallStmt(span, id, args, p.takeStmtLabel())
	return true
}

// ParseAssignmentStmt parses `designator = expr`.
func (p *Parser) ParseAssignmentStmt() bool {
	span := p.tok.Span

	lhs := p.ParseDesignator()
	if lhs == nil {
		return false
	}

	if !p.Expect(TokEqual, "'=' in assignment statement") {
		return false
	}

	rhs := p.ParseExpression()
	if rhs == nil {
		return false
	}

	p.actions.ActOnAssignmentStmt(span, lhs, rhs, p.takeStmtLabel())
	return true
}

// ParseGotoStmt parses `GO TO label` and `GO TO var [(labels)]`.
func (p *Parser) ParseGotoStmt() bool {
	span := p.tok.Span
	p.Lex()

	// Assigned GOTO: the destination is a variable.
	if p.isIdentLike(p.tok) {
		varExpr, ok := p.actions.ActOnIdExpr(p.tok.Span, p.tok.ID).(*ast.VarExpr)
		p.Lex()
		if !ok {
			return false
		}

		var allowed []ast.Expr
		if p.EatIfPresent(TokLParen) {
			for {
				value := p.ParseExpression()
				if value == nil {
					return false
				}
				allowed = append(allowed, value)
				if !p.EatIfPresent(TokComma) {
					break
				}
			}
			if !p.Expect(TokRParen, "')' after the allowed label list") {
				return false
			}
		}

		p.actions.ActOnAssignedGotoStmt(span, varExpr, allowed, p.takeStmtLabel())
		return true
	}

	if p.tok.IsNot(TokIntConst) && p.tok.IsNot(TokStatementLabel) {
		p.errorOn(p.tok, "expected a statement label after GO TO")
		return false
	}
	destination := p.actions.ActOnIntegerConstant(p.tok.Span, p.tok.Value())
	p.Lex()

	p.actions.ActOnGotoStmt(span, destination, p.takeStmtLabel())
	return true
}

// ParseAssignStmt parses `ASSIGN label TO var`.
func (p *Parser) ParseAssignStmt() bool {
	span := p.tok.Span
	p.Lex()

	if p.tok.IsNot(TokIntConst) && p.tok.IsNot(TokStatementLabel) {
		p.errorOn(p.tok, "expected a statement label after ASSIGN")
		return false
	}
	value := p.actions.ActOnIntegerConstant(p.tok.Span, p.tok.Value())
	p.Lex()

	if p.tok.IsNot(KWTo) {
		p.errorOn(p.tok, "expected TO in ASSIGN statement")
		return false
	}
	p.Lex()

	if !p.isIdentLike(p.tok) {
		p.errorOn(p.tok, "expected a variable name in ASSIGN statement")
		return false
	}
	varExpr, ok := p.actions.ActOnIdExpr(p.tok.Span, p.tok.ID).(*ast.VarExpr)
	p.Lex()
	if !ok {
		return false
	}

	p.actions.ActOnAssignStmt(span, value, varExpr, p.takeStmtLabel())
	return true
}

// ParseIfStmt parses both IF forms:
//
//	IF ( expr ) THEN          -- block IF construct
//	IF ( expr ) action-stmt   -- logical IF
func (p *Parser) ParseIfStmt() bool {
	span := p.tok.Span
	label := p.takeStmtLabel()
	p.Lex()

	if !p.Expect(TokLParen, "'(' after IF") {
		return false
	}
	condition := p.ParseExpression()
	if condition == nil {
		return false
	}
	if !p.Expect(TokRParen, "')' after the IF condition") {
		return false
	}

	if p.tok.Is(KWThen) {
		p.Lex()
		p.actions.ActOnBlockIfStmt(span, condition, label)
		return true
	}

	// Logical IF: the body statement is built detached and claimed by the IF.
	p.actions.BeginInlineStmt()
	ok := p.ParseExecutableConstruct()
	body := p.actions.EndInlineStmt()
	if !ok || body == nil {
		return false
	}

	p.actions.ActOnIfStmt(span, condition, body, label)
	return true
}

// ParseElseIfStmt parses `ELSE IF ( expr ) THEN`.
func (p *Parser) ParseElseIfStmt() bool {
	span := p.tok.Span
	label := p.takeStmtLabel()
	p.Lex()

	if !p.Expect(TokLParen, "'(' after ELSE IF") {
		return false
	}
	condition := p.ParseExpression()
	if condition == nil {
		return false
	}
	if !p.Expect(TokRParen, "')' after the ELSE IF condition") {
		return false
	}
	if p.tok.IsNot(KWThen) {
		p.errorOn(p.tok, "expected THEN after ELSE IF")
		return false
	}
	p.Lex()

	p.actions.ActOnElseIfStmt(span, condition, label)
	return true
}

// ParseElseStmt parses `ELSE`.
func (p *Parser) ParseElseStmt() bool {
	span := p.tok.Span
	p.Lex()
	p.actions.ActOnElseStmt(span, p.takeStmtLabel())
	return true
}

// ParseEndIfStmt parses `END IF`.
func (p *Parser) ParseEndIfStmt() bool {
	span := p.tok.Span
	p.Lex()
	p.actions.ActOnEndIfStmt(span, p.takeStmtLabel())
	return true
}

// ParseDoStmt parses a label-terminated DO statement:
//
//	DO label [,] do-var = init , final [, step]
func (p *Parser) ParseDoStmt() bool {
	span := p.tok.Span
	label := p.takeStmtLabel()
	p.Lex()

	if p.tok.IsNot(TokIntConst) && p.tok.IsNot(TokStatementLabel) {
		p.errorOn(p.tok, "expected a terminating statement label after DO")
		return false
	}
	terminating := p.actions.ActOnIntegerConstant(p.tok.Span, p.tok.Value())
	p.Lex()
	p.EatIfPresent(TokComma)

	if !p.isIdentLike(p.tok) {
		p.errorOn(p.tok, "expected a DO variable name")
		return false
	}
	doVar, _ := p.actions.ActOnIdExpr(p.tok.Span, p.tok.ID).(*ast.VarExpr)
	p.Lex()

	if !p.Expect(TokEqual, "'=' in DO statement") {
		return false
	}
	initial := p.ParseExpression()
	if initial == nil {
		return false
	}
	if !p.Expect(TokComma, "',' in DO statement") {
		return false
	}
	final := p.ParseExpression()
	if final == nil {
		return false
	}

	var step ast.Expr
	if p.EatIfPresent(TokComma) {
		step = p.ParseExpression()
		if step == nil {
			return false
		}
	}

	p.actions.ActOnDoStmt(span, terminating, doVar, initial, final, step, label)
	return true
}

// ParseStopStmt parses `STOP [code]`.
func (p *Parser) ParseStopStmt() bool {
	span := p.tok.Span
	p.Lex()

	var code ast.Expr
	if !p.atStmtStart() {
		code = p.ParseExpression()
		if code == nil {
			return false
		}
	}

	p.actions.ActOnStopStmt(span, code, p.takeStmtLabel())
	return true
}

// ParsePrintStmt parses `PRINT format-spec [, output-item-list]`.
func (p *Parser) ParsePrintStmt() bool {
	span := p.tok.Span
	p.Lex()

	format := &ast.FormatSpec{}
	if p.EatIfPresent(TokStar) {
		format.Star = true
	} else if p.tok.Is(TokIntConst) || p.tok.Is(TokStatementLabel) {
		format.Label = p.actions.ActOnIntegerConstant(p.tok.Span, p.tok.Value())
		p.Lex()
	} else {
		p.errorOn(p.tok, "expected a format specifier after PRINT")
		return false
	}

	var items []ast.Expr
	if p.EatIfPresent(TokComma) {
		for {
			item := p.ParseExpression()
			if item == nil {
				return false
			}
			items = append(items, item)
			if !p.EatIfPresent(TokComma) {
				break
			}
		}
	}

	p.actions.ActOnPrintStmt(span, format, items, p.takeStmtLabel())
	return true
}

// ParseWhereStmt parses both WHERE forms:
//
//	WHERE ( mask-expr ) where-assignment-stmt   -- statement form
//	WHERE ( mask-expr )                         -- construct opening
func (p *Parser) ParseWhereStmt() bool {
	span := p.tok.Span
	label := p.takeStmtLabel()
	p.Lex()

	if !p.Expect(TokLParen, "'(' after WHERE") {
		return false
	}
	mask := p.ParseExpression()
	if mask == nil {
		return false
	}
	if !p.Expect(TokRParen, "')' after the WHERE mask") {
		return false
	}

	if p.atStmtStart() {
		p.actions.ActOnWhereConstruct(span, mask, label)
		return true
	}

	// Statement form: the body must be an assignment.
	p.actions.BeginInlineStmt()
	ok := p.ParseAssignmentStmt()
	body := p.actions.EndInlineStmt()
	if !ok || body == nil {
		return false
	}

	p.actions.ActOnWhereStmt(span, mask, body, label)
	return true
}
