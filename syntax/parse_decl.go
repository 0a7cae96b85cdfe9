package syntax

import (
	"fortc/ast"
	"fortc/sema"
	"fortc/types"
)

// Outcomes of a specification-statement parse attempt.
const (
	specParsed = iota
	specError
	specNotSpec
)

// ParseSpecificationStmt dispatches one statement of the specification part:
//
//	specification-part :=
//	    [use-stmt] ...
//	    [import-stmt] ...
//	    [implicit-part] ...
//	    [declaration-construct] ...
func (p *Parser) ParseSpecificationStmt() int {
	switch p.tok.Kind {
	case KWUse:
		return p.ParseUSEStmt()
	case KWImport:
		return p.ParseIMPORTStmt()
	case KWImplicit:
		return p.ParseIMPLICITStmt()
	case KWInteger, KWReal, KWComplex, KWCharacter, KWLogical, KWDoublePrecision:
		return p.ParseTypeDeclarationStmt()
	case KWParameter:
		return p.ParsePARAMETERStmt()
	case KWDimension:
		return p.ParseDIMENSIONStmt()
	case KWExternal:
		return p.ParseEXTERNALStmt()
	case KWIntrinsic:
		return p.ParseINTRINSICStmt()
	case KWAsynchronous:
		return p.ParseASYNCHRONOUSStmt()
	case KWType, KWClass:
		// Derived types are parser stubs; skip the statement.
		p.LexToEndOfStatement()
		return specParsed
	}

	// A statement function `name(args) = expr` is a declaration construct.
	if p.tok.Is(TokIdentifier) && p.nextTok.Is(TokLParen) && !p.nextTok.StartOfStatement {
		vd := p.tok.ID.VarPayload()
		if vd == nil || (!vd.Type.IsArrayType() && !vd.Type.IsCharacterType()) {
			return p.ParseStatementFunction()
		}
	}

	return specNotSpec
}

// parseTypeSpec parses a type specifier with its optional KIND/LEN selectors
// into the decl spec:
//
//	INTEGER [( [KIND =] expr )]
//	CHARACTER [( [LEN =] expr [, [KIND =] expr] )] | CHARACTER * int
//	DOUBLE PRECISION, REAL, COMPLEX, LOGICAL analogous to INTEGER
func (p *Parser) parseTypeSpec(ds *sema.DeclSpec, allowSelectors bool) bool {
	isCharacter := false
	switch p.tok.Kind {
	case KWInteger:
		ds.SetTypeSpec(types.TSInteger)
	case KWReal:
		ds.SetTypeSpec(types.TSReal)
	case KWComplex:
		ds.SetTypeSpec(types.TSComplex)
	case KWLogical:
		ds.SetTypeSpec(types.TSLogical)
	case KWDoublePrecision:
		ds.SetTypeSpec(types.TSDoublePrecision)
	case KWCharacter:
		ds.SetTypeSpec(types.TSCharacter)
		isCharacter = true
	default:
		p.errorOn(p.tok, "expected a type specifier")
		return false
	}
	p.Lex()

	// CHARACTER*len shorthand.
	if isCharacter && p.EatIfPresent(TokStar) {
		length := p.ParseExpression()
		if length == nil {
			return false
		}
		ds.Len = length
		return true
	}

	if !allowSelectors || p.tok.IsNot(TokLParen) || p.nextTok.StartOfStatement {
		return true
	}
	p.Lex()

	for {
		named := ""
		if (p.tok.Is(KWKind) || p.tok.Is(KWLen)) && p.nextTok.Is(TokEqual) {
			named = p.tok.ID.Name()
			p.Lex()
			p.Lex()
		}

		value := p.ParseExpression()
		if value == nil {
			return false
		}

		switch {
		case named == "KIND" || (named == "" && !isCharacter):
			ds.Kind = value
		case named == "LEN" || (named == "" && isCharacter && ds.Len == nil):
			ds.Len = value
		default:
			ds.Kind = value
		}

		if !p.EatIfPresent(TokComma) {
			break
		}
	}

	return p.Expect(TokRParen, "')' after the type selectors")
}

// parseAttrSpec parses one `, attr` of a type declaration statement.
func (p *Parser) parseAttrSpec(ds *sema.DeclSpec) bool {
	switch p.tok.Kind {
	case KWAllocatable:
		ds.APV |= types.QAllocatable
	case KWParameter:
		ds.APV |= types.QParameter
	case KWVolatile:
		ds.APV |= types.QVolatile
	case KWAsynchronous:
		ds.ExtAttr = types.EAAsynchronous
	case KWContiguous:
		ds.ExtAttr = types.EAContiguous
	case KWOptional:
		ds.ExtAttr = types.EAOptional
	case KWPointer:
		ds.ExtAttr = types.EAPointer
	case KWSave:
		ds.ExtAttr = types.EASave
	case KWTarget:
		ds.ExtAttr = types.EATarget
	case KWValue:
		ds.ExtAttr = types.EAValue
	case KWIntent:
		p.Lex()
		if !p.Expect(TokLParen, "'(' after INTENT") {
			return false
		}
		switch p.tok.Kind {
		case KWIn:
			ds.Intent = types.IAIn
		case KWOut:
			ds.Intent = types.IAOut
		case KWInOut:
			ds.Intent = types.IAInOut
		default:
			p.errorOn(p.tok, "expected an intent specifier")
			return false
		}
		p.Lex()
		return p.Expect(TokRParen, "')' after the intent specifier")
	case KWDimension:
		span := p.tok.Span
		p.Lex()
		dims, ok := p.ParseArraySpec()
		if !ok {
			return false
		}
		ds.Dims = dims
		ds.Span = span
		return true
	default:
		p.errorOn(p.tok, "unknown attribute specifier '%s'", p.tok.Value())
		return false
	}

	p.Lex()
	return true
}

// ParseArraySpec parses a parenthesized array specification:
//
//	array-spec := ( dim-spec [, dim-spec]... )
//	dim-spec := [lower :] upper | [lower :] * | *
func (p *Parser) ParseArraySpec() ([]types.DimSpec, bool) {
	if !p.Expect(TokLParen, "'(' in array spec") {
		return nil, false
	}

	var dims []types.DimSpec
	for {
		var d types.DimSpec

		if p.EatIfPresent(TokStar) {
			d.Star = true
		} else {
			first := p.ParseExpression()
			if first == nil {
				return nil, false
			}
			if p.EatIfPresent(TokColon) {
				d.Lower = first
				if p.EatIfPresent(TokStar) {
					d.Star = true
				} else {
					upper := p.ParseExpression()
					if upper == nil {
						return nil, false
					}
					d.Upper = upper
				}
			} else {
				d.Upper = first
			}
		}

		dims = append(dims, d)
		if !p.EatIfPresent(TokComma) {
			break
		}
	}

	if !p.Expect(TokRParen, "')' in array spec") {
		return nil, false
	}
	return dims, true
}

// ParseTypeDeclarationStmt parses a type declaration statement:
//
//	type-spec [[, attr-spec]... ::] entity-decl-list
func (p *Parser) ParseTypeDeclarationStmt() int {
	ds := &sema.DeclSpec{}
	if !p.parseTypeSpec(ds, true) {
		return specError
	}

	for p.tok.Is(TokComma) {
		p.Lex()
		if !p.parseAttrSpec(ds) {
			return specError
		}
	}
	p.EatIfPresent(TokColonColon)

	label := p.takeStmtLabel()
	_ = label

	for {
		if !p.isIdentLike(p.tok) {
			p.errorOn(p.tok, "expected an entity name")
			return specError
		}
		span := p.tok.Span
		id := p.takeIdentifier()

		entityDS := *ds
		entityDS.Span = span
		if p.tok.Is(TokLParen) {
			dims, ok := p.ParseArraySpec()
			if !ok {
				return specError
			}
			entityDS.Dims = dims
		}

		p.actions.ActOnEntityDecl(&entityDS, span, id)

		if !p.EatIfPresent(TokComma) {
			break
		}
	}

	if !p.atStmtStart() {
		p.errorOn(p.tok, "unexpected token '%s' in type declaration", p.tok.Value())
		return specError
	}
	return specParsed
}

// ParseIMPLICITStmt parses an IMPLICIT statement:
//
//	IMPLICIT NONE
//	IMPLICIT type-spec ( letter-spec-list ) [, ...]
func (p *Parser) ParseIMPLICITStmt() int {
	span := p.tok.Span
	p.Lex()

	if p.tok.Is(KWNone) {
		p.Lex()
		p.actions.ActOnIMPLICITNone(span, p.takeStmtLabel())
		return specParsed
	}

	label := p.takeStmtLabel()
	for {
		ds := &sema.DeclSpec{}
		if !p.parseTypeSpec(ds, false) {
			return specError
		}

		if !p.Expect(TokLParen, "'(' after the IMPLICIT type specifier") {
			return specError
		}

		var letters []ast.LetterSpec
		for {
			if !p.isIdentLike(p.tok) || len(p.tok.Value()) != 1 {
				p.errorOn(p.tok, "expected a letter in IMPLICIT letter spec")
				return specError
			}
			spec := ast.LetterSpec{First: p.tok.Value()[0]}
			p.Lex()

			if p.EatIfPresent(TokMinus) {
				if !p.isIdentLike(p.tok) || len(p.tok.Value()) != 1 {
					p.errorOn(p.tok, "expected a letter in IMPLICIT letter spec")
					return specError
				}
				spec.Last = p.tok.Value()[0]
				p.Lex()
			}

			letters = append(letters, spec)
			if !p.EatIfPresent(TokComma) {
				break
			}
		}

		if !p.Expect(TokRParen, "')' after the IMPLICIT letter specs") {
			return specError
		}

		p.actions.ActOnIMPLICIT(span, ds, letters, label)
		label = nil

		if !p.EatIfPresent(TokComma) {
			break
		}
	}

	return specParsed
}

// ParsePARAMETERStmt parses `PARAMETER ( name = const-expr, ... )`.
func (p *Parser) ParsePARAMETERStmt() int {
	span := p.tok.Span
	p.Lex()

	if !p.Expect(TokLParen, "'(' in PARAMETER statement") {
		return specError
	}

	var params []ast.ParamPair
	for p.isIdentLike(p.tok) {
		pairSpan := p.tok.Span
		id := p.takeIdentifier()

		if !p.Expect(TokEqual, "'=' in PARAMETER statement") {
			return specError
		}

		value := p.ParseExpression()
		if value == nil {
			return specError
		}

		if pair, ok := p.actions.ActOnPARAMETERPair(pairSpan, id, value); ok {
			params = append(params, pair)
		}

		if !p.EatIfPresent(TokComma) {
			break
		}
	}

	if !p.Expect(TokRParen, "')' in PARAMETER statement") {
		return specError
	}

	p.actions.ActOnPARAMETER(span, params, p.takeStmtLabel())
	return specParsed
}

// ParseDIMENSIONStmt parses `DIMENSION [::] name(array-spec) [, ...]`.
func (p *Parser) ParseDIMENSIONStmt() int {
	span := p.tok.Span
	p.Lex()
	p.EatIfPresent(TokColonColon)

	label := p.takeStmtLabel()
	for {
		if !p.isIdentLike(p.tok) {
			p.errorOn(p.tok, "expected an array name in DIMENSION statement")
			return specError
		}
		id := p.takeIdentifier()

		dims, ok := p.ParseArraySpec()
		if !ok {
			return specError
		}

		p.actions.ActOnDIMENSION(span, id, dims, label)
		label = nil

		if !p.EatIfPresent(TokComma) {
			break
		}
	}

	return specParsed
}

// parseNameList parses `[::] name [, name]...`.
func (p *Parser) parseNameList(what string) ([]*ast.IdentifierInfo, bool) {
	p.EatIfPresent(TokColonColon)

	var names []*ast.IdentifierInfo
	for {
		if !p.isIdentLike(p.tok) {
			p.errorOn(p.tok, "expected a name in %s statement", what)
			return nil, false
		}
		names = append(names, p.takeIdentifier())
		if !p.EatIfPresent(TokComma) {
			break
		}
	}
	return names, true
}

// ParseEXTERNALStmt parses `EXTERNAL [::] name-list`.
func (p *Parser) ParseEXTERNALStmt() int {
	span := p.tok.Span
	p.Lex()

	names, ok := p.parseNameList("EXTERNAL")
	if !ok {
		return specError
	}
	p.actions.ActOnEXTERNAL(span, names, p.takeStmtLabel())
	return specParsed
}

// ParseINTRINSICStmt parses `INTRINSIC [::] name-list`.
func (p *Parser) ParseINTRINSICStmt() int {
	span := p.tok.Span
	p.Lex()

	names, ok := p.parseNameList("INTRINSIC")
	if !ok {
		return specError
	}
	p.actions.ActOnINTRINSIC(span, names, p.takeStmtLabel())
	return specParsed
}

// ParseASYNCHRONOUSStmt parses `ASYNCHRONOUS [::] name-list`.
func (p *Parser) ParseASYNCHRONOUSStmt() int {
	span := p.tok.Span
	p.Lex()

	names, ok := p.parseNameList("ASYNCHRONOUS")
	if !ok {
		return specError
	}
	p.actions.ActOnASYNCHRONOUS(span, names, p.takeStmtLabel())
	return specParsed
}

// ParseUSEStmt parses the USE statement:
//
//	USE [[, module-nature] ::] module-name [, rename-list]
//	USE [[, module-nature] ::] module-name , ONLY : [only-list]
func (p *Parser) ParseUSEStmt() int {
	span := p.tok.Span
	p.Lex()

	nature := ast.ModuleNatureNone
	if p.EatIfPresent(TokComma) {
		switch p.tok.Kind {
		case KWIntrinsic:
			nature = ast.ModuleNatureIntrinsic
		case KWNonIntrinsic:
			nature = ast.ModuleNatureNonIntrinsic
		default:
			p.errorOn(p.tok, "expected module nature keyword")
			return specError
		}
		p.Lex()
		if !p.Expect(TokColonColon, "'::' after the module nature") {
			return specError
		}
	} else {
		p.EatIfPresent(TokColonColon)
	}

	if !p.isIdentLike(p.tok) {
		p.errorOn(p.tok, "missing module name in USE statement")
		return specError
	}
	modName := p.takeIdentifier()

	only := false
	var renames [][2]*ast.IdentifierInfo
	if p.EatIfPresent(TokComma) {
		if p.tok.Is(KWOnly) {
			p.Lex()
			if !p.Expect(TokColon, "':' after the ONLY keyword") {
				return specError
			}
			only = true
			for p.isIdentLike(p.tok) {
				renames = append(renames, [2]*ast.IdentifierInfo{p.takeIdentifier(), nil})
				if !p.EatIfPresent(TokComma) {
					break
				}
			}
		} else {
			for p.isIdentLike(p.tok) {
				local := p.takeIdentifier()
				if !p.Expect(TokEqualGreater, "'=>' in the rename list") {
					return specError
				}
				if !p.isIdentLike(p.tok) {
					p.errorOn(p.tok, "missing rename of variable in USE statement")
					return specError
				}
				renames = append(renames, [2]*ast.IdentifierInfo{local, p.takeIdentifier()})
				if !p.EatIfPresent(TokComma) {
					break
				}
			}
		}
	}

	p.actions.ActOnUSE(span, nature, modName, only, renames, p.takeStmtLabel())
	return specParsed
}

// ParseIMPORTStmt parses `IMPORT [[::] import-name-list]`.
func (p *Parser) ParseIMPORTStmt() int {
	span := p.tok.Span
	p.Lex()
	p.EatIfPresent(TokColonColon)

	var names []*ast.IdentifierInfo
	for !p.atStmtStart() && p.isIdentLike(p.tok) {
		names = append(names, p.takeIdentifier())
		p.EatIfPresent(TokComma)
	}

	p.actions.ActOnIMPORT(span, names, p.takeStmtLabel())
	return specParsed
}

// ParseStatementFunction parses `name ( dummy-args ) = expr`.
func (p *Parser) ParseStatementFunction() int {
	span := p.tok.Span
	id := p.takeIdentifier()

	if !p.Expect(TokLParen, "'(' in statement function") {
		return specError
	}

	var argIDs []*ast.IdentifierInfo
	if !p.EatIfPresent(TokRParen) {
		for {
			if !p.isIdentLike(p.tok) {
				p.errorOn(p.tok, "expected a dummy argument name in statement function")
				return specError
			}
			argIDs = append(argIDs, p.takeIdentifier())
			if !p.EatIfPresent(TokComma) {
				break
			}
		}
		if !p.Expect(TokRParen, "')' after the statement function arguments") {
			return specError
		}
	}

	if !p.Expect(TokEqual, "'=' in statement function") {
		return specError
	}

	// The dummy arguments scope over the body expression only: declare them,
	// parse the body, then retract their payloads.
	argDecls := make([]*ast.VarDecl, len(argIDs))
	savedPayloads := make([]interface{}, len(argIDs))
	for i, argID := range argIDs {
		savedPayloads[i] = argID.FETokenInfo()
		argID.SetFETokenInfo(nil)
		argDecls[i] = p.actions.ActOnStatementFunctionArg(span, argID)
	}

	body := p.ParseExpression()

	for i, argID := range argIDs {
		argID.SetFETokenInfo(savedPayloads[i])
	}

	if body == nil {
		return specError
	}

	p.actions.ActOnStatementFunction(span, id, argDecls, body)
	p.takeStmtLabel()
	return specParsed
}
