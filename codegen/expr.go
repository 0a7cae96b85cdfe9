package codegen

import (
	"strings"

	"fortc/ast"
	"fortc/types"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// EmitRValue evaluates an expression to an RValue.
func (f *CodeGenFunction) EmitRValue(e ast.Expr) RValue {
	t := e.Type()
	switch {
	case t.IsCharacterType():
		cv := f.EmitCharacterExpr(e)
		return RValue{Char: &cv}
	case t.IsComplexType():
		cv := f.EmitComplexExpr(e)
		return RValue{Complex: &cv}
	default:
		return ScalarRV(f.EmitScalarExpr(e))
	}
}

// EmitScalarExpr evaluates a scalar (non-character, non-complex) expression.
func (f *CodeGenFunction) EmitScalarExpr(e ast.Expr) value.Value {
	switch v := e.(type) {
	case *ast.IntegerConstantExpr:
		return constant.NewInt(f.g.ConvertType(v.Type()).(*irtypes.IntType), v.Value)

	case *ast.RealConstantExpr:
		return constant.NewFloat(f.g.ConvertType(v.Type()).(*irtypes.FloatType), v.Value)

	case *ast.LogicalConstantExpr:
		return constant.NewBool(v.Value)

	case *ast.VarExpr:
		if inlined, ok := f.inlinedArgument(v.Decl); ok {
			return f.EmitScalarExpr(inlined)
		}
		if v.Decl.IsParameter() {
			return f.EmitScalarExpr(v.Decl.Init)
		}
		ptr := f.varPtr(v.Decl)
		return f.block.NewLoad(f.g.ConvertType(v.Type()), ptr)

	case *ast.UnaryExpr:
		return f.emitUnaryScalar(v)

	case *ast.BinaryExpr:
		return f.emitBinaryScalar(v)

	case *ast.ImplicitCastExpr:
		inner := f.EmitRValue(v.Operand)
		return f.EmitImplicitConversion(inner, v.Operand.Type(), v.Type()).Scalar

	case *ast.ConversionExpr:
		inner := f.EmitRValue(v.Operand)
		return f.EmitImplicitConversion(inner, v.Operand.Type(), v.Type()).Scalar

	case *ast.ArrayElementExpr:
		ptr := f.EmitArrayElementPtr(v)
		return f.block.NewLoad(f.g.ConvertType(v.Type()), ptr)

	case *ast.IntrinsicCallExpr:
		return f.emitIntrinsicCall(v).Scalar

	case *ast.CallExpr:
		return f.EmitCall(v).Scalar
	}

	f.g.ice("cannot emit scalar expression")
	return nil
}

// inlinedArgument resolves a statement-function formal to its call-site
// argument expression.
func (f *CodeGenFunction) inlinedArgument(vd *ast.VarDecl) (ast.Expr, bool) {
	if f.curInlined == nil || !vd.IsArgument() {
		return nil, false
	}
	return f.curInlined.argValue(vd)
}

func (f *CodeGenFunction) varPtr(vd *ast.VarDecl) value.Value {
	ptr, ok := f.vars[vd]
	if !ok {
		f.g.ice("no storage for variable '%s'", vd.Name())
	}
	return ptr
}

// EmitLValuePtr emits the storage pointer of an assignable designator.
func (f *CodeGenFunction) EmitLValuePtr(e ast.Expr) value.Value {
	switch v := e.(type) {
	case *ast.VarExpr:
		return f.varPtr(v.Decl)
	case *ast.ArrayElementExpr:
		return f.EmitArrayElementPtr(v)
	}
	f.g.ice("expression is not an lvalue")
	return nil
}

func (f *CodeGenFunction) emitUnaryScalar(e *ast.UnaryExpr) value.Value {
	operand := f.EmitScalarExpr(e.Operand)
	switch e.Op {
	case ast.UnaryPlus:
		return operand
	case ast.UnaryMinus:
		if isFloat(operand) {
			return f.block.NewFNeg(operand)
		}
		return f.block.NewSub(constant.NewInt(operand.Type().(*irtypes.IntType), 0), operand)
	default: // .NOT.
		return f.block.NewXor(operand, constant.NewBool(true))
	}
}

func isFloat(v value.Value) bool {
	_, ok := v.Type().(*irtypes.FloatType)
	return ok
}

var intPreds = map[ast.BinaryOp]enum.IPred{
	ast.BinaryEQ: enum.IPredEQ,
	ast.BinaryNE: enum.IPredNE,
	ast.BinaryLT: enum.IPredSLT,
	ast.BinaryLE: enum.IPredSLE,
	ast.BinaryGT: enum.IPredSGT,
	ast.BinaryGE: enum.IPredSGE,
}

var floatPreds = map[ast.BinaryOp]enum.FPred{
	ast.BinaryEQ: enum.FPredOEQ,
	ast.BinaryNE: enum.FPredONE,
	ast.BinaryLT: enum.FPredOLT,
	ast.BinaryLE: enum.FPredOLE,
	ast.BinaryGT: enum.FPredOGT,
	ast.BinaryGE: enum.FPredOGE,
}

func (f *CodeGenFunction) emitBinaryScalar(e *ast.BinaryExpr) value.Value {
	operandType := e.LHS.Type().SelfOrArrayElement()

	// Character comparison goes through the runtime.
	if operandType.IsCharacterType() && e.Op.IsComparison() {
		lhs := f.EmitCharacterExpr(e.LHS)
		rhs := f.EmitCharacterExpr(e.RHS)
		cmp := f.EmitRuntimeCall(f.g.runtimeCompareChar(),
			[]value.Value{lhs.Ptr, lhs.Len, rhs.Ptr, rhs.Len})
		return f.block.NewICmp(intPreds[e.Op], cmp, constInt32(0))
	}

	// Complex comparison compares componentwise.
	if operandType.IsComplexType() && e.Op.IsComparison() {
		lhs := f.EmitComplexExpr(e.LHS)
		rhs := f.EmitComplexExpr(e.RHS)
		reEq := f.block.NewFCmp(enum.FPredOEQ, lhs.Re, rhs.Re)
		imEq := f.block.NewFCmp(enum.FPredOEQ, lhs.Im, rhs.Im)
		both := f.block.NewAnd(reEq, imEq)
		if e.Op == ast.BinaryNE {
			return f.block.NewXor(both, constant.NewBool(true))
		}
		return both
	}

	lhs := f.EmitScalarExpr(e.LHS)
	rhs := f.EmitScalarExpr(e.RHS)

	switch e.Op {
	case ast.BinaryPlus:
		if isFloat(lhs) {
			return f.block.NewFAdd(lhs, rhs)
		}
		return f.block.NewAdd(lhs, rhs)
	case ast.BinaryMinus:
		if isFloat(lhs) {
			return f.block.NewFSub(lhs, rhs)
		}
		return f.block.NewSub(lhs, rhs)
	case ast.BinaryMultiply:
		if isFloat(lhs) {
			return f.block.NewFMul(lhs, rhs)
		}
		return f.block.NewMul(lhs, rhs)
	case ast.BinaryDivide:
		if isFloat(lhs) {
			return f.block.NewFDiv(lhs, rhs)
		}
		return f.block.NewSDiv(lhs, rhs)
	case ast.BinaryPower:
		return f.emitPower(lhs, rhs)

	case ast.BinaryAnd:
		return f.block.NewAnd(lhs, rhs)
	case ast.BinaryOr:
		return f.block.NewOr(lhs, rhs)
	case ast.BinaryEqv:
		return f.block.NewXor(f.block.NewXor(lhs, rhs), constant.NewBool(true))
	case ast.BinaryNeqv:
		return f.block.NewXor(lhs, rhs)
	}

	if pred, ok := intPreds[e.Op]; ok {
		if isFloat(lhs) {
			return f.block.NewFCmp(floatPreds[e.Op], lhs, rhs)
		}
		return f.block.NewICmp(pred, lhs, rhs)
	}

	f.g.ice("unhandled binary operator")
	return nil
}

func (f *CodeGenFunction) emitPower(lhs, rhs value.Value) value.Value {
	if isFloat(lhs) {
		if lhs.Type() != irtypes.Double {
			lhs = f.block.NewFPExt(lhs, irtypes.Double)
			rhs = f.block.NewFPExt(rhs, irtypes.Double)
		}
		return f.EmitRuntimeCall(f.g.runtimePow(), []value.Value{lhs, rhs})
	}
	return f.EmitRuntimeCall(f.g.runtimePowInt(), []value.Value{lhs, rhs})
}

// -----------------------------------------------------------------------------
// Conversions

// EmitImplicitConversion converts an RValue between intrinsic types.
func (f *CodeGenFunction) EmitImplicitConversion(val RValue, from, to types.QualType) RValue {
	from = from.SelfOrArrayElement()
	to = to.SelfOrArrayElement()
	if from == to {
		return val
	}

	// complex -> numeric takes the real part; numeric -> complex extends.
	if from.IsComplexType() && !to.IsComplexType() {
		return f.EmitImplicitConversion(ScalarRV(val.Complex.Re), f.g.ctx.RealTy, to)
	}
	if to.IsComplexType() {
		re := f.convertScalar(val.Scalar, from, f.g.ctx.RealTy)
		return ComplexRV(re, constant.NewFloat(irtypes.Float, 0))
	}

	if val.IsScalar() {
		return ScalarRV(f.convertScalar(val.Scalar, from, to))
	}
	return val
}

func (f *CodeGenFunction) convertScalar(v value.Value, from, to types.QualType) value.Value {
	fromType := f.g.ConvertType(from)
	toType := f.g.ConvertType(to)
	if fromType == toType {
		return v
	}

	_, fromInt := fromType.(*irtypes.IntType)
	_, toInt := toType.(*irtypes.IntType)

	switch {
	case fromInt && toInt:
		if fromType.(*irtypes.IntType).BitSize < toType.(*irtypes.IntType).BitSize {
			return f.block.NewSExt(v, toType)
		}
		return f.block.NewTrunc(v, toType)
	case fromInt:
		return f.block.NewSIToFP(v, toType)
	case toInt:
		return f.block.NewFPToSI(v, toType)
	case fromType == irtypes.Float:
		return f.block.NewFPExt(v, toType)
	default:
		return f.block.NewFPTrunc(v, toType)
	}
}

// -----------------------------------------------------------------------------
// Complex expressions

// EmitComplexExpr evaluates a complex-typed expression into components.
func (f *CodeGenFunction) EmitComplexExpr(e ast.Expr) ComplexValue {
	switch v := e.(type) {
	case *ast.VarExpr:
		if inlined, ok := f.inlinedArgument(v.Decl); ok {
			return f.EmitComplexExpr(inlined)
		}
		if v.Decl.IsParameter() {
			return f.EmitComplexExpr(v.Decl.Init)
		}
		ptr := f.varPtr(v.Decl)
		re := f.block.NewLoad(irtypes.Float,
			f.block.NewGetElementPtr(complexType, ptr, constInt32(0), constInt32(0)))
		im := f.block.NewLoad(irtypes.Float,
			f.block.NewGetElementPtr(complexType, ptr, constInt32(0), constInt32(1)))
		return ComplexValue{Re: re, Im: im}

	case *ast.UnaryExpr:
		operand := f.EmitComplexExpr(v.Operand)
		switch v.Op {
		case ast.UnaryMinus:
			return ComplexValue{Re: f.block.NewFNeg(operand.Re), Im: f.block.NewFNeg(operand.Im)}
		default:
			return operand
		}

	case *ast.BinaryExpr:
		lhs := f.EmitComplexExpr(v.LHS)
		rhs := f.EmitComplexExpr(v.RHS)
		switch v.Op {
		case ast.BinaryPlus:
			return ComplexValue{Re: f.block.NewFAdd(lhs.Re, rhs.Re), Im: f.block.NewFAdd(lhs.Im, rhs.Im)}
		case ast.BinaryMinus:
			return ComplexValue{Re: f.block.NewFSub(lhs.Re, rhs.Re), Im: f.block.NewFSub(lhs.Im, rhs.Im)}
		case ast.BinaryMultiply:
			// (a+bi)(c+di) = (ac-bd) + (ad+bc)i
			ac := f.block.NewFMul(lhs.Re, rhs.Re)
			bd := f.block.NewFMul(lhs.Im, rhs.Im)
			ad := f.block.NewFMul(lhs.Re, rhs.Im)
			bc := f.block.NewFMul(lhs.Im, rhs.Re)
			return ComplexValue{Re: f.block.NewFSub(ac, bd), Im: f.block.NewFAdd(ad, bc)}
		case ast.BinaryDivide:
			// (a+bi)/(c+di) = ((ac+bd) + (bc-ad)i) / (c²+d²)
			cc := f.block.NewFMul(rhs.Re, rhs.Re)
			dd := f.block.NewFMul(rhs.Im, rhs.Im)
			denom := f.block.NewFAdd(cc, dd)
			ac := f.block.NewFMul(lhs.Re, rhs.Re)
			bd := f.block.NewFMul(lhs.Im, rhs.Im)
			bc := f.block.NewFMul(lhs.Im, rhs.Re)
			ad := f.block.NewFMul(lhs.Re, rhs.Im)
			re := f.block.NewFDiv(f.block.NewFAdd(ac, bd), denom)
			im := f.block.NewFDiv(f.block.NewFSub(bc, ad), denom)
			return ComplexValue{Re: re, Im: im}
		}

	case *ast.ImplicitCastExpr:
		return *f.EmitImplicitConversion(f.EmitRValue(v.Operand), v.Operand.Type(), v.Type()).Complex

	case *ast.ConversionExpr:
		return *f.EmitImplicitConversion(f.EmitRValue(v.Operand), v.Operand.Type(), v.Type()).Complex

	case *ast.ArrayElementExpr:
		ptr := f.EmitArrayElementPtr(v)
		re := f.block.NewLoad(irtypes.Float,
			f.block.NewGetElementPtr(complexType, ptr, constInt32(0), constInt32(0)))
		im := f.block.NewLoad(irtypes.Float,
			f.block.NewGetElementPtr(complexType, ptr, constInt32(0), constInt32(1)))
		return ComplexValue{Re: re, Im: im}

	case *ast.IntrinsicCallExpr:
		return *f.emitIntrinsicCall(v).Complex

	case *ast.CallExpr:
		return *f.EmitCall(v).Complex
	}

	f.g.ice("cannot emit complex expression")
	return ComplexValue{}
}

// -----------------------------------------------------------------------------
// Character expressions

// EmitCharacterExpr evaluates a character expression to a (ptr, len) pair.
func (f *CodeGenFunction) EmitCharacterExpr(e ast.Expr) CharValue {
	switch v := e.(type) {
	case *ast.CharacterConstantExpr:
		return f.emitCharLiteral(v.Value)

	case *ast.VarExpr:
		if inlined, ok := f.inlinedArgument(v.Decl); ok {
			return f.EmitCharacterExpr(inlined)
		}
		if v.Decl.IsParameter() {
			return f.EmitCharacterExpr(v.Decl.Init)
		}
		if cv, ok := f.charVars[v.Decl]; ok {
			return cv
		}
		return CharValue{Ptr: f.varPtr(v.Decl), Len: constInt64(f.g.charLength(v.Type()))}

	case *ast.ArrayElementExpr:
		ptr := f.EmitArrayElementPtr(v)
		return CharValue{Ptr: ptr, Len: constInt64(f.g.charLength(v.Type()))}

	case *ast.SubstringExpr:
		return f.emitSubstring(v)

	case *ast.BinaryExpr:
		if v.Op == ast.BinaryConcat {
			return f.emitConcat(v)
		}

	case *ast.CallExpr:
		return *f.EmitCall(v).Char
	}

	f.g.ice("cannot emit character expression")
	return CharValue{}
}

func (f *CodeGenFunction) emitCharLiteral(s string) CharValue {
	f.g.literalCount++
	global := f.g.mod.NewGlobalDef(literalName(f.g.literalCount),
		constant.NewCharArrayFromString(s))
	global.Immutable = true
	ptr := f.block.NewGetElementPtr(irtypes.NewArray(uint64(len(s)), irtypes.I8), global,
		constInt64(0), constInt64(0))
	return CharValue{Ptr: ptr, Len: constInt64(int64(len(s)))}
}

// emitSubstring adjusts a character base pointer and length by the substring
// bounds.
func (f *CodeGenFunction) emitSubstring(e *ast.SubstringExpr) CharValue {
	base := f.EmitCharacterExpr(e.Base)

	var lo value.Value = constInt64(1)
	if e.Lo != nil {
		lo = f.toLen(f.EmitScalarExpr(e.Lo))
	}
	hi := base.Len
	if e.Hi != nil {
		hi = f.toLen(f.EmitScalarExpr(e.Hi))
	}

	offset := f.block.NewSub(lo, constInt64(1))
	ptr := f.block.NewGetElementPtr(irtypes.I8, base.Ptr, offset)
	length := f.block.NewSub(hi, offset)
	return CharValue{Ptr: ptr, Len: length}
}

// toLen widens an integer value to the character length type.
func (f *CodeGenFunction) toLen(v value.Value) value.Value {
	it := v.Type().(*irtypes.IntType)
	if it.BitSize == 64 {
		return v
	}
	return f.block.NewSExt(v, lenType)
}

// emitConcat concatenates into a stack temporary via the runtime.
func (f *CodeGenFunction) emitConcat(e *ast.BinaryExpr) CharValue {
	lhs := f.EmitCharacterExpr(e.LHS)
	rhs := f.EmitCharacterExpr(e.RHS)

	length := f.block.NewAdd(lhs.Len, rhs.Len)
	// The destination temporary is sized for the folded lengths when both
	// are constant; otherwise a conservative fixed buffer is used.
	var bufLen int64 = 256
	if l, ok := lhs.Len.(*constant.Int); ok {
		if r, ok2 := rhs.Len.(*constant.Int); ok2 {
			bufLen = l.X.Int64() + r.X.Int64()
		}
	}
	buf := f.CreateTempAlloca(irtypes.NewArray(uint64(bufLen), irtypes.I8), "concat-temp")
	ptr := f.block.NewGetElementPtr(irtypes.NewArray(uint64(bufLen), irtypes.I8), buf,
		constInt64(0), constInt64(0))

	f.EmitRuntimeCall(f.g.runtimeConcatChar(),
		[]value.Value{ptr, length, lhs.Ptr, lhs.Len, rhs.Ptr, rhs.Len})
	return CharValue{Ptr: ptr, Len: length}
}

// EmitCharacterAssignment copies with blank padding or truncation via the
// runtime.
func (f *CodeGenFunction) EmitCharacterAssignment(dst, src CharValue) {
	f.EmitRuntimeCall(f.g.runtimeAssignChar(),
		[]value.Value{dst.Ptr, dst.Len, src.Ptr, src.Len})
}

// -----------------------------------------------------------------------------
// Intrinsics

func (f *CodeGenFunction) emitIntrinsicCall(e *ast.IntrinsicCallExpr) RValue {
	name := e.Func.Name()
	args := e.Args

	switch name {
	case "ABS":
		v := f.EmitScalarExpr(args[0])
		if isFloat(v) {
			return ScalarRV(f.EmitRuntimeCall(f.g.runtimeMathUnary("fabs", v.Type()), []value.Value{v}))
		}
		zero := constant.NewInt(v.Type().(*irtypes.IntType), 0)
		neg := f.block.NewSub(zero, v)
		isNeg := f.block.NewICmp(enum.IPredSLT, v, zero)
		return ScalarRV(f.block.NewSelect(isNeg, neg, v))

	case "MOD":
		lhs := f.EmitScalarExpr(args[0])
		rhs := f.EmitScalarExpr(args[1])
		if isFloat(lhs) {
			return ScalarRV(f.block.NewFRem(lhs, rhs))
		}
		return ScalarRV(f.block.NewSRem(lhs, rhs))

	case "MAX", "MIN":
		result := f.EmitScalarExpr(args[0])
		for _, a := range args[1:] {
			next := f.EmitScalarExpr(a)
			var pick value.Value
			if isFloat(result) {
				pred := enum.FPredOGT
				if name == "MIN" {
					pred = enum.FPredOLT
				}
				pick = f.block.NewFCmp(pred, result, next)
			} else {
				pred := enum.IPredSGT
				if name == "MIN" {
					pred = enum.IPredSLT
				}
				pick = f.block.NewICmp(pred, result, next)
			}
			result = f.block.NewSelect(pick, result, next)
		}
		return ScalarRV(result)

	case "LEN":
		cv := f.EmitCharacterExpr(args[0])
		return ScalarRV(f.block.NewTrunc(cv.Len, irtypes.I32))

	case "AIMAG":
		cv := f.EmitComplexExpr(args[0])
		return ScalarRV(cv.Im)

	case "CONJG":
		cv := f.EmitComplexExpr(args[0])
		return ComplexRV(cv.Re, f.block.NewFNeg(cv.Im))

	case "SQRT", "EXP", "LOG", "LOG10", "SIN", "COS", "TAN",
		"ASIN", "ACOS", "ATAN", "SINH", "COSH", "TANH":
		v := f.EmitScalarExpr(args[0])
		if !isFloat(v) {
			v = f.block.NewSIToFP(v, irtypes.Float)
		}
		return ScalarRV(f.EmitRuntimeCall(f.g.runtimeMathUnary(strings.ToLower(name), v.Type()), []value.Value{v}))

	case "ATAN2", "SIGN":
		lhs := f.EmitScalarExpr(args[0])
		rhs := f.EmitScalarExpr(args[1])
		return ScalarRV(f.EmitRuntimeCall(f.g.runtimeMathBinary(strings.ToLower(name), lhs.Type()),
			[]value.Value{lhs, rhs}))
	}

	f.g.ice("unsupported intrinsic '%s'", name)
	return RValue{}
}
