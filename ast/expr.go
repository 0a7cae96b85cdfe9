package ast

import (
	"fortc/report"
	"fortc/types"
)

// Expr is the interface implemented by all expression nodes.  Every expression
// carries its qualified type and its source span.
type Expr interface {
	Span() *report.TextSpan
	Type() types.QualType
}

// ExprBase carries the state common to all expressions.
type ExprBase struct {
	span *report.TextSpan
	typ  types.QualType
}

// NewExprBase creates an expression base.
func NewExprBase(span *report.TextSpan, typ types.QualType) ExprBase {
	return ExprBase{span: span, typ: typ}
}

func (eb *ExprBase) Span() *report.TextSpan { return eb.span }
func (eb *ExprBase) Type() types.QualType   { return eb.typ }

// -----------------------------------------------------------------------------

// IntegerConstantExpr is an integer literal (or statement label value).
type IntegerConstantExpr struct {
	ExprBase

	Value int64
}

// NewIntegerConstantExpr creates an integer literal of default INTEGER type.
func NewIntegerConstantExpr(ctx *types.Context, span *report.TextSpan, value int64) *IntegerConstantExpr {
	return &IntegerConstantExpr{ExprBase: NewExprBase(span, ctx.IntegerTy), Value: value}
}

// RealConstantExpr is a floating-point literal.  A `D` exponent marks the
// literal DOUBLE PRECISION.
type RealConstantExpr struct {
	ExprBase

	Value float64
}

// NewRealConstantExpr creates a real literal of the given type (REAL or
// DOUBLE PRECISION).
func NewRealConstantExpr(span *report.TextSpan, typ types.QualType, value float64) *RealConstantExpr {
	return &RealConstantExpr{ExprBase: NewExprBase(span, typ), Value: value}
}

// CharacterConstantExpr is a character literal.
type CharacterConstantExpr struct {
	ExprBase

	Value string
}

// NewCharacterConstantExpr creates a character literal.
func NewCharacterConstantExpr(ctx *types.Context, span *report.TextSpan, value string) *CharacterConstantExpr {
	return &CharacterConstantExpr{ExprBase: NewExprBase(span, ctx.CharacterTy), Value: value}
}

// LogicalConstantExpr is `.TRUE.` or `.FALSE.`.
type LogicalConstantExpr struct {
	ExprBase

	Value bool
}

// NewLogicalConstantExpr creates a logical literal.
func NewLogicalConstantExpr(ctx *types.Context, span *report.TextSpan, value bool) *LogicalConstantExpr {
	return &LogicalConstantExpr{ExprBase: NewExprBase(span, ctx.LogicalTy), Value: value}
}

// VarExpr is a reference to a declared entity.
type VarExpr struct {
	ExprBase

	Decl *VarDecl
}

// NewVarExpr creates a variable reference typed after its declaration.
func NewVarExpr(span *report.TextSpan, decl *VarDecl) *VarExpr {
	return &VarExpr{ExprBase: NewExprBase(span, decl.Type), Decl: decl}
}

// UnaryOp enumerates the unary operators.
type UnaryOp int

const (
	UnaryPlus UnaryOp = iota
	UnaryMinus
	UnaryNot
)

// UnaryExpr is a unary operator application.
type UnaryExpr struct {
	ExprBase

	Op      UnaryOp
	Operand Expr
}

// NewUnaryExpr creates a unary expression yielding the operand's type.
func NewUnaryExpr(span *report.TextSpan, op UnaryOp, operand Expr) *UnaryExpr {
	return &UnaryExpr{ExprBase: NewExprBase(span, operand.Type()), Op: op, Operand: operand}
}

// BinaryOp enumerates the binary operators.
type BinaryOp int

const (
	BinaryPlus BinaryOp = iota
	BinaryMinus
	BinaryMultiply
	BinaryDivide
	BinaryPower
	BinaryConcat

	BinaryEQ
	BinaryNE
	BinaryLT
	BinaryLE
	BinaryGT
	BinaryGE

	BinaryAnd
	BinaryOr
	BinaryEqv
	BinaryNeqv
)

// IsComparison reports whether the operator is a relational operator.
func (op BinaryOp) IsComparison() bool {
	return BinaryEQ <= op && op <= BinaryGE
}

// BinaryExpr is a binary operator application.
type BinaryExpr struct {
	ExprBase

	Op       BinaryOp
	LHS, RHS Expr
}

// NewBinaryExpr creates a binary expression of the given result type.
func NewBinaryExpr(span *report.TextSpan, typ types.QualType, op BinaryOp, lhs, rhs Expr) *BinaryExpr {
	return &BinaryExpr{ExprBase: NewExprBase(span, typ), Op: op, LHS: lhs, RHS: rhs}
}

// ImplicitCastExpr adjusts an expression to a target type without source
// syntax (eg. INTEGER operand of a REAL operator).
type ImplicitCastExpr struct {
	ExprBase

	Operand Expr
}

// NewImplicitCastExpr wraps operand in a cast to typ.
func NewImplicitCastExpr(span *report.TextSpan, typ types.QualType, operand Expr) *ImplicitCastExpr {
	return &ImplicitCastExpr{ExprBase: NewExprBase(span, typ), Operand: operand}
}

// ConversionKind enumerates the intrinsic numeric conversions.
type ConversionKind int

const (
	ConvINT ConversionKind = iota
	ConvREAL
	ConvDBLE
	ConvCMPLX
)

// Name returns the intrinsic spelling of the conversion.
func (ck ConversionKind) Name() string {
	switch ck {
	case ConvINT:
		return "INT"
	case ConvREAL:
		return "REAL"
	case ConvDBLE:
		return "DBLE"
	default:
		return "CMPLX"
	}
}

// ConversionExpr applies one of the intrinsic numeric conversions, either
// written in the source or inserted by assignment/DO typechecking.
type ConversionExpr struct {
	ExprBase

	Kind    ConversionKind
	Operand Expr
}

// NewConversionExpr creates a conversion of operand to the type implied by
// kind.
func NewConversionExpr(ctx *types.Context, span *report.TextSpan, kind ConversionKind, operand Expr) *ConversionExpr {
	var typ types.QualType
	switch kind {
	case ConvINT:
		typ = ctx.IntegerTy
	case ConvREAL:
		typ = ctx.RealTy
	case ConvDBLE:
		typ = ctx.DoublePrecisionTy
	default:
		typ = ctx.ComplexTy
	}

	// Element type conversion over a whole array keeps the array shape.
	if at := operand.Type().AsArray(); at != nil {
		typ = types.NewQualType(ctx.GetArrayType(typ, at.Dims))
	}

	return &ConversionExpr{ExprBase: NewExprBase(span, typ), Kind: kind, Operand: operand}
}

// ArrayElementExpr is a subscripted array reference.
type ArrayElementExpr struct {
	ExprBase

	Target     Expr
	Subscripts []Expr
}

// NewArrayElementExpr creates an element reference typed after the array's
// element type.
func NewArrayElementExpr(span *report.TextSpan, target Expr, subscripts []Expr) *ArrayElementExpr {
	return &ArrayElementExpr{
		ExprBase:   NewExprBase(span, target.Type().SelfOrArrayElement()),
		Target:     target,
		Subscripts: subscripts,
	}
}

// ArrayConstructorExpr is `(/ item, item, ... /)`.
type ArrayConstructorExpr struct {
	ExprBase

	Items []Expr
}

// NewArrayConstructorExpr creates an array constructor of the given array
// type.
func NewArrayConstructorExpr(span *report.TextSpan, typ types.QualType, items []Expr) *ArrayConstructorExpr {
	return &ArrayConstructorExpr{ExprBase: NewExprBase(span, typ), Items: items}
}

// SubstringExpr is a character substring reference `base(lo:hi)`.
type SubstringExpr struct {
	ExprBase

	Base   Expr
	Lo, Hi Expr // either may be nil
}

// NewSubstringExpr creates a substring reference of CHARACTER type.
func NewSubstringExpr(ctx *types.Context, span *report.TextSpan, base Expr, lo, hi Expr) *SubstringExpr {
	return &SubstringExpr{ExprBase: NewExprBase(span, ctx.CharacterTy), Base: base, Lo: lo, Hi: hi}
}

// IntrinsicCallExpr is a call to a recognized intrinsic function.
type IntrinsicCallExpr struct {
	ExprBase

	Func *IntrinsicFunctionDecl
	Args []Expr
}

// NewIntrinsicCallExpr creates an intrinsic call of the given result type.
func NewIntrinsicCallExpr(span *report.TextSpan, typ types.QualType, fn *IntrinsicFunctionDecl, args []Expr) *IntrinsicCallExpr {
	return &IntrinsicCallExpr{ExprBase: NewExprBase(span, typ), Func: fn, Args: args}
}

// CallExpr is a call to an external or statement function.
type CallExpr struct {
	ExprBase

	Func *FunctionDecl
	Args []Expr
}

// NewCallExpr creates a function call typed after the function's return type.
func NewCallExpr(span *report.TextSpan, fn *FunctionDecl, args []Expr) *CallExpr {
	return &CallExpr{ExprBase: NewExprBase(span, fn.ReturnType), Func: fn, Args: args}
}
