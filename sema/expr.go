package sema

import (
	"strconv"

	"fortc/ast"
	"fortc/report"
	"fortc/types"
)

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// This file implements the expression actions: operand typechecking, the
// usual arithmetic promotions, subscript and substring constraints, and
// intrinsic call typing.

// ActOnStatementLabel builds the integer expression of a statement label.
func (s *Sema) ActOnStatementLabel(span *report.TextSpan, text string) ast.Expr {
	return s.ActOnIntegerConstant(span, text)
}

// ActOnIntegerConstant builds an integer literal.
func (s *Sema) ActOnIntegerConstant(span *report.TextSpan, text string) ast.Expr {
	var value int64
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c < '0' || c > '9' {
			s.errorOn(span, "invalid integer constant '%s'", text)
			return nil
		}
		next := value*10 + int64(c-'0')
		if next < value {
			s.errorOn(span, "integer constant '%s' out of range", text)
			return nil
		}
		value = next
	}
	return ast.NewIntegerConstantExpr(s.Context, span, value)
}

// ActOnRealConstant builds a REAL or DOUBLE PRECISION literal.  A `D`
// exponent selects double precision; it is normalized to `E` for parsing.
func (s *Sema) ActOnRealConstant(span *report.TextSpan, text string, double bool) ast.Expr {
	normalized := make([]byte, len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == 'D' || c == 'd' {
			c = 'E'
		}
		normalized[i] = c
	}

	value, err := parseFloat(string(normalized))
	if err != nil {
		s.errorOn(span, "invalid real constant '%s'", text)
		return nil
	}

	t := s.Context.RealTy
	if double {
		t = s.Context.DoublePrecisionTy
	}
	return ast.NewRealConstantExpr(span, t, value)
}

// ActOnCharacterConstant builds a character literal.
func (s *Sema) ActOnCharacterConstant(span *report.TextSpan, value string) ast.Expr {
	return ast.NewCharacterConstantExpr(s.Context, span, value)
}

// ActOnLogicalConstant builds `.TRUE.` or `.FALSE.`.
func (s *Sema) ActOnLogicalConstant(span *report.TextSpan, value bool) ast.Expr {
	return ast.NewLogicalConstantExpr(s.Context, span, value)
}

// ActOnIdExpr builds a reference to an identifier, synthesizing an implicit
// declaration when none exists.
func (s *Sema) ActOnIdExpr(span *report.TextSpan, id *ast.IdentifierInfo) ast.Expr {
	vd := id.VarPayload()
	if vd == nil {
		vd = s.ActOnImplicitEntityDecl(span, id)
		if vd == nil {
			return nil
		}
	}
	return ast.NewVarExpr(span, vd)
}

// arithmeticRank orders the numeric types for the usual promotions.
func arithmeticRank(t types.QualType) int {
	switch {
	case t.IsIntegerType():
		return 0
	case t.IsRealType():
		return 1
	case t.IsDoublePrecisionType():
		return 2
	case t.IsComplexType():
		return 3
	default:
		return -1
	}
}

func (s *Sema) promoteTo(e ast.Expr, t types.QualType) ast.Expr {
	if e.Type() == t {
		return e
	}
	return ast.NewImplicitCastExpr(e.Span(), t, e)
}

func (s *Sema) arithmeticTypeFor(rank int) types.QualType {
	switch rank {
	case 0:
		return s.Context.IntegerTy
	case 1:
		return s.Context.RealTy
	case 2:
		return s.Context.DoublePrecisionTy
	default:
		return s.Context.ComplexTy
	}
}

// ActOnUnaryExpr builds a unary operator application.
func (s *Sema) ActOnUnaryExpr(span *report.TextSpan, op ast.UnaryOp, operand ast.Expr) ast.Expr {
	if operand == nil {
		return nil
	}

	elem := operand.Type().SelfOrArrayElement()
	switch op {
	case ast.UnaryNot:
		if !elem.IsLogicalType() {
			s.errorOn(operand.Span(), "expected a logical expression, found '%s'", operand.Type())
			return nil
		}
	default:
		if arithmeticRank(elem) < 0 {
			s.errorOn(operand.Span(), "expected a numeric expression, found '%s'", operand.Type())
			return nil
		}
	}

	return ast.NewUnaryExpr(span, op, operand)
}

// ActOnBinaryExpr builds a binary operator application, applying the usual
// arithmetic promotions and the operand constraints of the relational,
// logical, and concatenation operators.
func (s *Sema) ActOnBinaryExpr(span *report.TextSpan, op ast.BinaryOp, lhs, rhs ast.Expr) ast.Expr {
	if lhs == nil || rhs == nil {
		return nil
	}

	lhsElem := lhs.Type().SelfOrArrayElement()
	rhsElem := rhs.Type().SelfOrArrayElement()

	switch {
	case op == ast.BinaryConcat:
		if !lhsElem.IsCharacterType() || !rhsElem.IsCharacterType() {
			s.errorOn(span, "expected character operands for '//'")
			return nil
		}
		return ast.NewBinaryExpr(span, s.resultType(s.Context.CharacterTy, lhs, rhs), op, lhs, rhs)

	case op == ast.BinaryAnd || op == ast.BinaryOr || op == ast.BinaryEqv || op == ast.BinaryNeqv:
		if !lhsElem.IsLogicalType() || !rhsElem.IsLogicalType() {
			s.errorOn(span, "expected logical operands for the logical operator")
			return nil
		}
		return ast.NewBinaryExpr(span, s.resultType(s.Context.LogicalTy, lhs, rhs), op, lhs, rhs)

	case op.IsComparison():
		if lhsElem.IsCharacterType() && rhsElem.IsCharacterType() {
			return ast.NewBinaryExpr(span, s.resultType(s.Context.LogicalTy, lhs, rhs), op, lhs, rhs)
		}
		lr, rr := arithmeticRank(lhsElem), arithmeticRank(rhsElem)
		if lr < 0 || rr < 0 {
			s.errorOn(span, "invalid operands to a relational operator ('%s' and '%s')",
				lhs.Type(), rhs.Type())
			return nil
		}
		if lr != rr {
			common := s.arithmeticTypeFor(max(lr, rr))
			lhs = s.promoteTo(lhs, s.elementTypeLike(lhs, common))
			rhs = s.promoteTo(rhs, s.elementTypeLike(rhs, common))
		}
		return ast.NewBinaryExpr(span, s.resultType(s.Context.LogicalTy, lhs, rhs), op, lhs, rhs)

	default:
		lr, rr := arithmeticRank(lhsElem), arithmeticRank(rhsElem)
		if lr < 0 || rr < 0 {
			s.errorOn(span, "invalid operands to an arithmetic operator ('%s' and '%s')",
				lhs.Type(), rhs.Type())
			return nil
		}
		common := s.arithmeticTypeFor(max(lr, rr))
		lhs = s.promoteTo(lhs, s.elementTypeLike(lhs, common))
		rhs = s.promoteTo(rhs, s.elementTypeLike(rhs, common))
		return ast.NewBinaryExpr(span, s.resultType(common, lhs, rhs), op, lhs, rhs)
	}
}

// resultType shapes the scalar result type into an array type when either
// operand is an array (elemental application).
func (s *Sema) resultType(scalar types.QualType, lhs, rhs ast.Expr) types.QualType {
	if at := lhs.Type().AsArray(); at != nil {
		return types.NewQualType(s.Context.GetArrayType(scalar, at.Dims))
	}
	if at := rhs.Type().AsArray(); at != nil {
		return types.NewQualType(s.Context.GetArrayType(scalar, at.Dims))
	}
	return scalar
}

// elementTypeLike shapes a scalar promotion target into e's array shape when
// e is an array.
func (s *Sema) elementTypeLike(e ast.Expr, scalar types.QualType) types.QualType {
	if at := e.Type().AsArray(); at != nil {
		return types.NewQualType(s.Context.GetArrayType(scalar, at.Dims))
	}
	return scalar
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// -----------------------------------------------------------------------------

// ActOnSubscriptExpr builds an array element reference from one subscript per
// dimension.  Every subscript must be an integer expression; no array section
// reference is built here.
func (s *Sema) ActOnSubscriptExpr(span *report.TextSpan, target ast.Expr, subscripts []ast.Expr) ast.Expr {
	if target == nil {
		return nil
	}

	at := target.Type().AsArray()
	if at == nil {
		s.errorOn(span, "subscripted entity '%s' is not an array", ast.PrintExpr(target))
		return nil
	}
	if len(subscripts) != at.Rank() {
		s.errorOn(span, "expected %d subscripts, found %d", at.Rank(), len(subscripts))
		return nil
	}

	for _, sub := range subscripts {
		if sub == nil {
			return nil
		}
		if !sub.Type().IsIntegerType() {
			s.errorOn(sub.Span(), "expected an integer expression")
			return nil
		}
	}

	return ast.NewArrayElementExpr(span, target, subscripts)
}

// ActOnSubstringExpr builds a character substring reference.  The bounds must
// be integer expressions.
func (s *Sema) ActOnSubstringExpr(span *report.TextSpan, base ast.Expr, lo, hi ast.Expr) ast.Expr {
	if base == nil {
		return nil
	}
	if !base.Type().SelfOrArrayElement().IsCharacterType() {
		s.errorOn(span, "expected a character expression, found '%s'", base.Type())
		return nil
	}

	for _, bound := range []ast.Expr{lo, hi} {
		if bound != nil && !bound.Type().IsIntegerType() {
			s.errorOn(bound.Span(), "expected an integer expression")
			return nil
		}
	}

	return ast.NewSubstringExpr(s.Context, span, base, lo, hi)
}

// ActOnArrayConstructorExpr builds `(/ items /)`.  All items must share one
// type; the constructor yields a rank-one array of that type.
func (s *Sema) ActOnArrayConstructorExpr(span *report.TextSpan, items []ast.Expr) ast.Expr {
	if len(items) == 0 {
		s.errorOn(span, "array constructor must not be empty")
		return nil
	}

	elem := items[0].Type().SelfOrArrayElement()
	for _, item := range items[1:] {
		if item.Type().SelfOrArrayElement() != elem {
			s.errorOn(item.Span(), "array constructor item type '%s' differs from '%s'",
				item.Type(), elem)
			return nil
		}
	}

	size := ast.NewIntegerConstantExpr(s.Context, span, int64(len(items)))
	at := s.Context.GetArrayType(elem, []types.DimSpec{{Upper: size}})
	return ast.NewArrayConstructorExpr(span, types.NewQualType(at), items)
}

// -----------------------------------------------------------------------------
// Calls

// ActOnCallExpr builds a call to an external or statement function.
func (s *Sema) ActOnCallExpr(span *report.TextSpan, fn *ast.FunctionDecl, args []ast.Expr) ast.Expr {
	for _, a := range args {
		if a == nil {
			return nil
		}
	}
	if fn.IsStatementFunction() && len(args) != len(fn.Args) {
		s.errorOn(span, "expected %d arguments to '%s', found %d",
			len(fn.Args), fn.Name(), len(args))
		return nil
	}

	// An EXTERNAL procedure has no visible interface: the first reference
	// fixes its formal types from the actuals.
	if fn.External && fn.Args == nil {
		for _, a := range args {
			arg := ast.NewVarDecl(a.Span(), fn.ID, a.Type())
			arg.Kind = ast.VarArgument
			fn.Args = append(fn.Args, arg)
		}
	}

	return ast.NewCallExpr(span, fn, args)
}

// ActOnImplicitCallExpr builds a call to an undeclared name used with an
// argument list: an implicitly declared external function.
func (s *Sema) ActOnImplicitCallExpr(span *report.TextSpan, id *ast.IdentifierInfo, args []ast.Expr) ast.Expr {
	for _, a := range args {
		if a == nil {
			return nil
		}
	}

	kind, ret := s.implicitTypeFor(id)
	if kind == ImplicitNone {
		s.errorOn(span, "no implicit type for variable '%s'", id.Name())
		return nil
	}

	fd := ast.NewFunctionDecl(s.CurContext, span, id, ret)
	fd.External = true
	fd.SetImplicit()
	for _, a := range args {
		arg := ast.NewVarDecl(a.Span(), id, a.Type())
		arg.Kind = ast.VarArgument
		fd.Args = append(fd.Args, arg)
	}
	s.CurContext.AddDecl(fd)
	id.SetFETokenInfo(fd)
	return ast.NewCallExpr(span, fd, args)
}

// intrinsicResultType computes the result type of an intrinsic call from its
// name and first argument.
func (s *Sema) intrinsicResultType(name string, args []ast.Expr) types.QualType {
	argType := func() types.QualType {
		if len(args) > 0 {
			return args[0].Type().SelfOrArrayElement()
		}
		return s.Context.RealTy
	}

	switch name {
	case "INT", "NINT", "ICHAR", "LEN", "INDEX":
		return s.Context.IntegerTy
	case "REAL":
		return s.Context.RealTy
	case "DBLE":
		return s.Context.DoublePrecisionTy
	case "CMPLX":
		return s.Context.ComplexTy
	case "CHAR":
		return s.Context.CharacterTy
	case "AIMAG":
		return s.Context.RealTy
	case "CONJG":
		return s.Context.ComplexTy
	case "LGE", "LGT", "LLE", "LLT":
		return s.Context.LogicalTy
	case "ABS", "MOD", "SIGN", "MAX", "MIN":
		return argType()
	case "SQRT", "EXP", "LOG", "LOG10", "SIN", "COS", "TAN",
		"ASIN", "ACOS", "ATAN", "ATAN2", "SINH", "COSH", "TANH":
		t := argType()
		if t.IsDoublePrecisionType() || t.IsComplexType() {
			return t
		}
		return s.Context.RealTy
	default:
		return argType()
	}
}

// ActOnIntrinsicCallExpr builds a call to a recognized intrinsic.  The
// numeric conversion intrinsics INT/REAL/DBLE/CMPLX become conversion
// expressions directly.
func (s *Sema) ActOnIntrinsicCallExpr(span *report.TextSpan, id *ast.IdentifierInfo, args []ast.Expr) ast.Expr {
	for _, a := range args {
		if a == nil {
			return nil
		}
	}

	if len(args) == 1 {
		switch id.Name() {
		case "INT":
			return ast.NewConversionExpr(s.Context, span, ast.ConvINT, args[0])
		case "REAL":
			return ast.NewConversionExpr(s.Context, span, ast.ConvREAL, args[0])
		case "DBLE":
			return ast.NewConversionExpr(s.Context, span, ast.ConvDBLE, args[0])
		case "CMPLX":
			return ast.NewConversionExpr(s.Context, span, ast.ConvCMPLX, args[0])
		}
	}

	if len(args) == 0 {
		s.errorOn(span, "intrinsic '%s' expects at least one argument", id.Name())
		return nil
	}

	ifd := ast.NewIntrinsicFunctionDecl(span, id)
	result := s.intrinsicResultType(id.Name(), args)

	// Elemental intrinsics over an array argument yield an array result.
	if at := args[0].Type().AsArray(); at != nil && id.Name() != "LEN" && id.Name() != "INDEX" {
		result = types.NewQualType(s.Context.GetArrayType(result, at.Dims))
	}

	return ast.NewIntrinsicCallExpr(span, result, ifd, args)
}
