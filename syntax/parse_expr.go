package syntax

import (
	"fortc/ast"
	"fortc/report"
)

// Expression parsing, from lowest to highest precedence:
//
//	expr          := equiv-operand { (.EQV.|.NEQV.) equiv-operand }
//	equiv-operand := or-operand { .OR. or-operand }
//	or-operand    := and-operand { .AND. and-operand }
//	and-operand   := [.NOT.] rel-operand
//	rel-operand   := concat-operand [ rel-op concat-operand ]
//	concat-operand:= additive { // additive }
//	additive      := [+|-] term { (+|-) term }
//	term          := power { (*|/) power }
//	power         := primary [ ** [+|-] power ]

// ParseExpression parses one expression, returning nil on failure.
func (p *Parser) ParseExpression() ast.Expr {
	lhs := p.parseOrOperand()
	for lhs != nil {
		var op ast.BinaryOp
		switch p.tok.Kind {
		case TokEQV:
			op = ast.BinaryEqv
		case TokNEQV:
			op = ast.BinaryNeqv
		default:
			return lhs
		}
		span := p.tok.Span
		p.Lex()
		rhs := p.parseOrOperand()
		if rhs == nil {
			return nil
		}
		lhs = p.actions.ActOnBinaryExpr(span, op, lhs, rhs)
	}
	return lhs
}

func (p *Parser) parseOrOperand() ast.Expr {
	lhs := p.parseAndOperand()
	for lhs != nil && p.tok.Is(TokOR) {
		span := p.tok.Span
		p.Lex()
		rhs := p.parseAndOperand()
		if rhs == nil {
			return nil
		}
		lhs = p.actions.ActOnBinaryExpr(span, ast.BinaryOr, lhs, rhs)
	}
	return lhs
}

func (p *Parser) parseAndOperand() ast.Expr {
	lhs := p.parseNotOperand()
	for lhs != nil && p.tok.Is(TokAND) {
		span := p.tok.Span
		p.Lex()
		rhs := p.parseNotOperand()
		if rhs == nil {
			return nil
		}
		lhs = p.actions.ActOnBinaryExpr(span, ast.BinaryAnd, lhs, rhs)
	}
	return lhs
}

func (p *Parser) parseNotOperand() ast.Expr {
	if p.tok.Is(TokNOT) {
		span := p.tok.Span
		p.Lex()
		operand := p.parseNotOperand()
		if operand == nil {
			return nil
		}
		return p.actions.ActOnUnaryExpr(span, ast.UnaryNot, operand)
	}
	return p.parseRelOperand()
}

var relOps = map[int]ast.BinaryOp{
	TokEQ: ast.BinaryEQ,
	TokNE: ast.BinaryNE,
	TokLT: ast.BinaryLT,
	TokLE: ast.BinaryLE,
	TokGT: ast.BinaryGT,
	TokGE: ast.BinaryGE,
}

func (p *Parser) parseRelOperand() ast.Expr {
	lhs := p.parseConcatOperand()
	if lhs == nil {
		return nil
	}

	if op, ok := relOps[p.tok.Kind]; ok {
		span := p.tok.Span
		p.Lex()
		rhs := p.parseConcatOperand()
		if rhs == nil {
			return nil
		}
		return p.actions.ActOnBinaryExpr(span, op, lhs, rhs)
	}
	return lhs
}

func (p *Parser) parseConcatOperand() ast.Expr {
	lhs := p.parseAdditive()
	for lhs != nil && p.tok.Is(TokSlashSlash) {
		span := p.tok.Span
		p.Lex()
		rhs := p.parseAdditive()
		if rhs == nil {
			return nil
		}
		lhs = p.actions.ActOnBinaryExpr(span, ast.BinaryConcat, lhs, rhs)
	}
	return lhs
}

func (p *Parser) parseAdditive() ast.Expr {
	var lhs ast.Expr

	// Leading sign applies to the whole first term.
	switch p.tok.Kind {
	case TokPlus:
		span := p.tok.Span
		p.Lex()
		operand := p.parseTerm()
		if operand == nil {
			return nil
		}
		lhs = p.actions.ActOnUnaryExpr(span, ast.UnaryPlus, operand)
	case TokMinus:
		span := p.tok.Span
		p.Lex()
		operand := p.parseTerm()
		if operand == nil {
			return nil
		}
		lhs = p.actions.ActOnUnaryExpr(span, ast.UnaryMinus, operand)
	default:
		lhs = p.parseTerm()
	}

	for lhs != nil {
		var op ast.BinaryOp
		switch p.tok.Kind {
		case TokPlus:
			op = ast.BinaryPlus
		case TokMinus:
			op = ast.BinaryMinus
		default:
			return lhs
		}
		span := p.tok.Span
		p.Lex()
		rhs := p.parseTerm()
		if rhs == nil {
			return nil
		}
		lhs = p.actions.ActOnBinaryExpr(span, op, lhs, rhs)
	}
	return lhs
}

func (p *Parser) parseTerm() ast.Expr {
	lhs := p.parsePower()
	for lhs != nil {
		var op ast.BinaryOp
		switch p.tok.Kind {
		case TokStar:
			op = ast.BinaryMultiply
		case TokSlash:
			op = ast.BinaryDivide
		default:
			return lhs
		}
		span := p.tok.Span
		p.Lex()
		rhs := p.parsePower()
		if rhs == nil {
			return nil
		}
		lhs = p.actions.ActOnBinaryExpr(span, op, lhs, rhs)
	}
	return lhs
}

func (p *Parser) parsePower() ast.Expr {
	lhs := p.ParsePrimaryExpr()
	if lhs == nil {
		return nil
	}

	if p.tok.Is(TokStarStar) {
		span := p.tok.Span
		p.Lex()

		// The exponent may carry its own sign and chains right to left.
		var rhs ast.Expr
		switch p.tok.Kind {
		case TokMinus:
			signSpan := p.tok.Span
			p.Lex()
			operand := p.parsePower()
			if operand == nil {
				return nil
			}
			rhs = p.actions.ActOnUnaryExpr(signSpan, ast.UnaryMinus, operand)
		case TokPlus:
			p.Lex()
			rhs = p.parsePower()
		default:
			rhs = p.parsePower()
		}
		if rhs == nil {
			return nil
		}
		return p.actions.ActOnBinaryExpr(span, ast.BinaryPower, lhs, rhs)
	}
	return lhs
}

// -----------------------------------------------------------------------------

// ParsePrimaryExpr parses a primary expression: literals, parenthesized
// expressions, array constructors, and designators/calls.
func (p *Parser) ParsePrimaryExpr() ast.Expr {
	switch p.tok.Kind {
	case TokIntConst, TokStatementLabel:
		e := p.actions.ActOnIntegerConstant(p.tok.Span, p.tok.Value())
		p.Lex()
		return e

	case TokRealConst:
		e := p.actions.ActOnRealConstant(p.tok.Span, p.tok.Value(), false)
		p.Lex()
		return e

	case TokDblPrecConst:
		e := p.actions.ActOnRealConstant(p.tok.Span, p.tok.Value(), true)
		p.Lex()
		return e

	case TokCharConst:
		e := p.actions.ActOnCharacterConstant(p.tok.Span, p.tok.Value())
		p.Lex()
		// A character literal admits a substring suffix.
		if p.tok.Is(TokLParen) && !p.tok.StartOfStatement {
			return p.parseSubstringSuffix(e)
		}
		return e

	case TokTRUE:
		e := p.actions.ActOnLogicalConstant(p.tok.Span, true)
		p.Lex()
		return e

	case TokFALSE:
		e := p.actions.ActOnLogicalConstant(p.tok.Span, false)
		p.Lex()
		return e

	case TokLParen:
		p.Lex()
		e := p.ParseExpression()
		if e == nil {
			return nil
		}
		if !p.Expect(TokRParen, "')'") {
			return nil
		}
		return e

	case TokLArrayCon:
		return p.parseArrayConstructor()
	}

	if p.isIdentLike(p.tok) {
		return p.parseDesignatorOrCall()
	}

	p.errorOn(p.tok, "expected an expression")
	return nil
}

// ParseDesignator parses an assignable designator: a variable, array element,
// or substring reference.
func (p *Parser) ParseDesignator() ast.Expr {
	e := p.parseDesignatorOrCall()
	switch e.(type) {
	case *ast.VarExpr, *ast.ArrayElementExpr, *ast.SubstringExpr:
		return e
	case nil:
		return nil
	default:
		p.errorOn(p.tok, "expression is not assignable")
		return nil
	}
}

// parseDesignatorOrCall parses an identifier reference: a plain variable, an
// array element, a substring, an intrinsic call, or a function call.
func (p *Parser) parseDesignatorOrCall() ast.Expr {
	span := p.tok.Span
	id := p.tok.ID
	isBuiltin := p.tok.Is(TokBuiltin)
	p.Lex()

	hasParen := p.tok.Is(TokLParen) && !p.tok.StartOfStatement

	if !hasParen {
		return p.actions.ActOnIdExpr(span, id)
	}

	// Intrinsic call.
	if isBuiltin && id.VarPayload() == nil {
		args, ok := p.parseArgumentList()
		if !ok {
			return nil
		}
		return p.actions.ActOnIntrinsicCallExpr(span, id, args)
	}

	// Known function: external, statement function, or intrinsic by decl.
	if fd := id.FuncPayload(); fd != nil {
		args, ok := p.parseArgumentList()
		if !ok {
			return nil
		}
		return p.actions.ActOnCallExpr(span, fd, args)
	}

	vd := id.VarPayload()

	// A declared character scalar followed by '(' is a substring.
	if vd != nil && !vd.Type.IsArrayType() && vd.Type.IsCharacterType() {
		base := p.actions.ActOnIdExpr(span, id)
		if base == nil {
			return nil
		}
		return p.parseSubstringSuffix(base)
	}

	// A declared array is an element reference, optionally followed by a
	// substring suffix for character arrays.
	if vd != nil && vd.Type.IsArrayType() {
		base := p.actions.ActOnIdExpr(span, id)
		if base == nil {
			return nil
		}
		args, ok := p.parseArgumentList()
		if !ok {
			return nil
		}
		element := p.actions.ActOnSubscriptExpr(span, base, args)
		if element == nil {
			return nil
		}
		if element.Type().IsCharacterType() && p.tok.Is(TokLParen) && !p.tok.StartOfStatement {
			return p.parseSubstringSuffix(element)
		}
		return element
	}

	if vd != nil {
		// Declared non-array scalar with subscripts.
		args, ok := p.parseArgumentList()
		if !ok {
			return nil
		}
		base := p.actions.ActOnIdExpr(span, id)
		return p.actions.ActOnSubscriptExpr(span, base, args)
	}

	// Undeclared name with an argument list: an implicitly declared external
	// function reference.
	args, ok := p.parseArgumentList()
	if !ok {
		return nil
	}
	return p.actions.ActOnImplicitCallExpr(span, id, args)
}

// parseArgumentList parses `( expr [, expr]... )`; the opening parenthesis is
// the current token.
func (p *Parser) parseArgumentList() ([]ast.Expr, bool) {
	p.Lex() // eat '('
	if p.EatIfPresent(TokRParen) {
		return nil, true
	}

	var args []ast.Expr
	for {
		arg := p.ParseExpression()
		if arg == nil {
			return nil, false
		}
		args = append(args, arg)
		if !p.EatIfPresent(TokComma) {
			break
		}
	}

	if !p.Expect(TokRParen, "')' after the argument list") {
		return nil, false
	}
	return args, true
}

// parseSubstringSuffix parses `( [lo] : [hi] )` after a character base.
func (p *Parser) parseSubstringSuffix(base ast.Expr) ast.Expr {
	span := p.tok.Span
	p.Lex() // eat '('

	var lo, hi ast.Expr
	if p.tok.IsNot(TokColon) {
		lo = p.ParseExpression()
		if lo == nil {
			return nil
		}
	}
	if !p.Expect(TokColon, "':' in substring") {
		return nil
	}
	if p.tok.IsNot(TokRParen) {
		hi = p.ParseExpression()
		if hi == nil {
			return nil
		}
	}
	if !p.Expect(TokRParen, "')' after substring") {
		return nil
	}

	return p.actions.ActOnSubstringExpr(report.NewSpanOver(base.Span(), span), base, lo, hi)
}

// parseArrayConstructor parses `(/ item [, item]... /)`.
func (p *Parser) parseArrayConstructor() ast.Expr {
	span := p.tok.Span
	p.Lex() // eat '(/'

	var items []ast.Expr
	if p.tok.IsNot(TokRArrayCon) {
		for {
			item := p.ParseExpression()
			if item == nil {
				return nil
			}
			items = append(items, item)
			if !p.EatIfPresent(TokComma) {
				break
			}
		}
	}

	if p.tok.IsNot(TokRArrayCon) {
		p.errorOn(p.tok, "expected '/)' after the array constructor")
		return nil
	}
	p.Lex()

	return p.actions.ActOnArrayConstructorExpr(span, items)
}
