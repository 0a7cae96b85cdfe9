package codegen

import (
	"strings"

	"fortc/ast"
	"fortc/types"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// ABIArgKind describes how a formal parameter is materialized at the ABI
// level.
type ABIArgKind int

const (
	// ABIValue passes the value directly: a scalar, or an array as a pointer
	// to its elements.
	ABIValue ABIArgKind = iota

	// ABIReference passes a pointer to the value.
	ABIReference

	// ABIReferenceAsVoidExtraSize erases the reference to an untyped pointer
	// followed by the value's byte width as a 32-bit integer.
	ABIReferenceAsVoidExtraSize

	// ABIExpand passes an aggregate as separate arguments:
	// complex as (re, im), character as (ptr, len).
	ABIExpand

	// ABIExpandCharacterPutLengthToAdditionalArgsAsInt passes the character
	// pointer in place and appends the length to the trailing additional
	// argument list as a 32-bit integer.
	ABIExpandCharacterPutLengthToAdditionalArgsAsInt

	// ABIComplexValueAsVector passes a complex value as a two-lane vector.
	ABIComplexValueAsVector
)

// ABIRetKind describes how a result is returned.
type ABIRetKind int

const (
	// ABIRetNothing returns void.
	ABIRetNothing ABIRetKind = iota

	// ABIRetValue returns the value directly (complex as an aggregate).
	ABIRetValue

	// ABIRetCharacterValueAsArg returns a character value through a
	// caller-provided buffer argument.
	ABIRetCharacterValueAsArg
)

// CGArgInfo is the ABI annotation of one formal parameter plus the parameter
// slots it occupies in the LLVM function type.
type CGArgInfo struct {
	ABI  ABIArgKind
	Type types.QualType

	// ParamIdx is the index of the first LLVM parameter of this argument.
	ParamIdx int

	// ExtraIdx is the index of the second parameter for two-slot kinds, -1
	// otherwise.
	ExtraIdx int

	// AdditionalIdx is the index of the trailing additional-args parameter
	// for the hidden character length, -1 otherwise.
	AdditionalIdx int
}

// CGFunctionInfo is the full ABI description of a function.
type CGFunctionInfo struct {
	Args []CGArgInfo

	RetKind ABIRetKind

	// RetCharPtrIdx/RetCharLenIdx locate the caller-provided character
	// return buffer parameters for ABIRetCharacterValueAsArg, -1 otherwise.
	RetCharPtrIdx, RetCharLenIdx int
}

// CGFunction pairs an emitted LLVM function with its ABI info.
type CGFunction struct {
	Fn   *ir.Func
	Info *CGFunctionInfo
}

// classifyArg picks the ABI kind of one formal parameter.  External
// procedures use the hidden-length character convention and vector complex
// values; unit-local procedures use the expanded forms.
func classifyArg(t types.QualType, external bool) ABIArgKind {
	switch {
	case t.IsArrayType():
		return ABIValue
	case t.IsCharacterType():
		if external {
			return ABIExpandCharacterPutLengthToAdditionalArgsAsInt
		}
		return ABIExpand
	case t.IsComplexType():
		if external {
			return ABIComplexValueAsVector
		}
		return ABIExpand
	default:
		return ABIReference
	}
}

// mangledName derives the linker name of a Fortran procedure.
func mangledName(name string) string {
	return strings.ToLower(name) + "_"
}

// buildFunctionInfo computes parameter slots and the LLVM function type for
// the given formal argument and return types.
func (g *Generator) buildFunctionInfo(argTypes []types.QualType, ret types.QualType,
	returnsNothing, external bool) (*CGFunctionInfo, irtypes.Type, []*ir.Param) {

	info := &CGFunctionInfo{RetCharPtrIdx: -1, RetCharLenIdx: -1}

	var params []*ir.Param
	var additional []*ir.Param

	addParam := func(t irtypes.Type) int {
		params = append(params, ir.NewParam("", t))
		return len(params) - 1
	}

	for _, argType := range argTypes {
		arg := CGArgInfo{
			ABI:           classifyArg(argType, external),
			Type:          argType,
			ExtraIdx:      -1,
			AdditionalIdx: -1,
		}

		switch arg.ABI {
		case ABIValue:
			arg.ParamIdx = addParam(g.ConvertType(argType))

		case ABIReference:
			arg.ParamIdx = addParam(irtypes.NewPointer(g.ConvertType(argType)))

		case ABIReferenceAsVoidExtraSize:
			arg.ParamIdx = addParam(charPtrType)
			arg.ExtraIdx = addParam(irtypes.I32)

		case ABIExpand:
			if argType.IsComplexType() {
				arg.ParamIdx = addParam(irtypes.Float)
				arg.ExtraIdx = addParam(irtypes.Float)
			} else {
				arg.ParamIdx = addParam(charPtrType)
				arg.ExtraIdx = addParam(lenType)
			}

		case ABIExpandCharacterPutLengthToAdditionalArgsAsInt:
			arg.ParamIdx = addParam(charPtrType)
			additional = append(additional, ir.NewParam("", irtypes.I32))
			arg.AdditionalIdx = len(additional) - 1

		case ABIComplexValueAsVector:
			arg.ParamIdx = addParam(irtypes.NewVector(2, irtypes.Float))
		}

		info.Args = append(info.Args, arg)
	}

	// Return classification.
	var retType irtypes.Type = irtypes.Void
	switch {
	case returnsNothing || ret.IsNull():
		info.RetKind = ABIRetNothing
	case ret.IsCharacterType():
		info.RetKind = ABIRetCharacterValueAsArg
		info.RetCharPtrIdx = addParam(charPtrType)
		info.RetCharLenIdx = addParam(lenType)
	default:
		info.RetKind = ABIRetValue
		retType = g.ConvertType(ret)
	}

	// The additional (hidden length) parameters trail everything else.
	base := len(params)
	for i := range info.Args {
		if info.Args[i].AdditionalIdx >= 0 {
			info.Args[i].AdditionalIdx += base
		}
	}
	params = append(params, additional...)

	return info, retType, params
}

// GetFunction returns (declaring on first use) the emitted function for a
// FUNCTION declaration.
func (g *Generator) GetFunction(fd *ast.FunctionDecl) *CGFunction {
	if cg, ok := g.funcs[fd]; ok {
		return cg
	}

	argTypes := make([]types.QualType, len(fd.Args))
	for i, a := range fd.Args {
		argTypes[i] = a.Type
	}

	info, retType, params := g.buildFunctionInfo(argTypes, fd.ReturnType, false, fd.External)
	fn := g.mod.NewFunc(mangledName(fd.Name()), retType, params...)

	cg := &CGFunction{Fn: fn, Info: info}
	g.funcs[fd] = cg
	return cg
}

// GetSubroutine returns (declaring on first use) the emitted function for a
// SUBROUTINE declaration.
func (g *Generator) GetSubroutine(sd *ast.SubroutineDecl) *CGFunction {
	if cg, ok := g.funcs[sd]; ok {
		return cg
	}

	argTypes := make([]types.QualType, len(sd.Args))
	for i, a := range sd.Args {
		argTypes[i] = a.Type
	}

	info, retType, params := g.buildFunctionInfo(argTypes, types.QualType{}, true, false)
	fn := g.mod.NewFunc(mangledName(sd.Name()), retType, params...)

	cg := &CGFunction{Fn: fn, Info: info}
	g.funcs[sd] = cg
	return cg
}

// -----------------------------------------------------------------------------
// Call emission

// inliningScope maps the formals of a statement function being inlined to the
// concrete argument expressions of the active call site.  Scopes stack for
// nested statement function calls; lookup walks outwards.
type inliningScope struct {
	fn   *ast.FunctionDecl
	args map[*ast.VarDecl]ast.Expr
	prev *inliningScope
}

func (sc *inliningScope) argValue(vd *ast.VarDecl) (ast.Expr, bool) {
	for s := sc; s != nil; s = s.prev {
		if e, ok := s.args[vd]; ok {
			return e, true
		}
	}
	return nil, false
}

// EmitCall lowers a function call.  Statement functions are inlined at the
// call site; everything else goes through the ABI.
func (f *CodeGenFunction) EmitCall(e *ast.CallExpr) RValue {
	fd := e.Func
	if fd.IsStatementFunction() {
		return f.emitStatementFunctionCall(fd, e.Args)
	}

	cg := f.g.GetFunction(fd)
	return f.emitABICall(cg, e.Args, fd.ReturnType)
}

// emitStatementFunctionCall inlines a statement function by evaluating its
// body under an inlining scope mapping each formal to its argument
// expression.
func (f *CodeGenFunction) emitStatementFunctionCall(fd *ast.FunctionDecl, args []ast.Expr) RValue {
	scope := &inliningScope{
		fn:   fd,
		args: make(map[*ast.VarDecl]ast.Expr, len(args)),
		prev: f.curInlined,
	}
	for i, formal := range fd.Args {
		scope.args[formal] = args[i]
	}

	f.curInlined = scope
	result := f.EmitRValue(fd.BodyExpr)
	f.curInlined = scope.prev

	// The body yields the body expression's type; convert to the declared
	// result type.
	return f.EmitImplicitConversion(result, fd.BodyExpr.Type(), fd.ReturnType)
}

// emitABICall materializes the actual arguments per the callee's ABI info
// and emits the call.
func (f *CodeGenFunction) emitABICall(cg *CGFunction, args []ast.Expr, ret types.QualType) RValue {
	finalArgs := make([]value.Value, len(cg.Fn.Params))

	for i, arg := range args {
		if i >= len(cg.Info.Args) {
			break
		}
		f.emitCallArg(finalArgs, arg, cg.Info.Args[i])
	}

	// Character results return through a caller-provided buffer.
	var retChar *CharValue
	if cg.Info.RetKind == ABIRetCharacterValueAsArg {
		length := f.g.charLength(ret)
		buf := f.CreateTempAlloca(irtypes.NewArray(uint64(length), irtypes.I8), "char-ret")
		ptr := f.block.NewGetElementPtr(irtypes.NewArray(uint64(length), irtypes.I8), buf,
			constInt64(0), constInt64(0))
		finalArgs[cg.Info.RetCharPtrIdx] = ptr
		finalArgs[cg.Info.RetCharLenIdx] = constInt64(length)
		retChar = &CharValue{Ptr: ptr, Len: constInt64(length)}
	}

	result := f.block.NewCall(cg.Fn, finalArgs...)

	switch cg.Info.RetKind {
	case ABIRetNothing:
		return RValue{}
	case ABIRetCharacterValueAsArg:
		return RValue{Char: retChar}
	default:
		if ret.IsComplexType() {
			re := f.block.NewExtractValue(result, 0)
			im := f.block.NewExtractValue(result, 1)
			return ComplexRV(re, im)
		}
		return ScalarRV(result)
	}
}

// emitCallArg materializes one actual argument into its parameter slots.
func (f *CodeGenFunction) emitCallArg(finalArgs []value.Value, e ast.Expr, info CGArgInfo) {
	t := e.Type()

	if t.IsArrayType() {
		// Arrays pass as a pointer to (possibly temporary) contiguous
		// elements regardless of the scalar ABI kind.
		finalArgs[info.ParamIdx] = f.EmitArrayArgumentPointer(e)
		return
	}

	if t.IsCharacterType() {
		cv := f.EmitCharacterExpr(e)
		switch info.ABI {
		case ABIExpand:
			finalArgs[info.ParamIdx] = cv.Ptr
			finalArgs[info.ExtraIdx] = cv.Len
		case ABIExpandCharacterPutLengthToAdditionalArgsAsInt:
			finalArgs[info.ParamIdx] = cv.Ptr
			finalArgs[info.AdditionalIdx] = f.block.NewTrunc(cv.Len, irtypes.I32)
		default:
			finalArgs[info.ParamIdx] = cv.Ptr
		}
		return
	}

	if t.IsComplexType() {
		cv := f.EmitComplexExpr(e)
		switch info.ABI {
		case ABIExpand:
			finalArgs[info.ParamIdx] = cv.Re
			finalArgs[info.ExtraIdx] = cv.Im
		case ABIComplexValueAsVector:
			vec := f.block.NewInsertElement(
				constant.NewUndef(irtypes.NewVector(2, irtypes.Float)), cv.Re, constInt32(0))
			finalArgs[info.ParamIdx] = f.block.NewInsertElement(vec, cv.Im, constInt32(1))
		default:
			// By value: build the aggregate.
			agg := f.block.NewInsertValue(constant.NewUndef(complexType), cv.Re, 0)
			finalArgs[info.ParamIdx] = f.block.NewInsertValue(agg, cv.Im, 1)
		}
		return
	}

	switch info.ABI {
	case ABIValue:
		finalArgs[info.ParamIdx] = f.EmitScalarExpr(e)

	case ABIReference:
		finalArgs[info.ParamIdx] = f.EmitCallArgPtr(e, info.Type)

	case ABIReferenceAsVoidExtraSize:
		ptr := f.EmitCallArgPtr(e, info.Type)
		finalArgs[info.ParamIdx] = f.block.NewBitCast(ptr, charPtrType)
		width := f.g.scalarByteWidth(info.Type)
		finalArgs[info.ExtraIdx] = constInt32(width)

	default:
		finalArgs[info.ParamIdx] = f.EmitScalarExpr(e)
	}
}

// EmitCallArgPtr produces a pointer to the actual argument: the variable or
// array element storage when addressable, a filled temporary otherwise.
func (f *CodeGenFunction) EmitCallArgPtr(e ast.Expr, formal types.QualType) value.Value {
	switch v := e.(type) {
	case *ast.VarExpr:
		if !v.Decl.IsParameter() {
			if ptr, ok := f.vars[v.Decl]; ok {
				return f.castScalarPtr(ptr, e.Type(), formal)
			}
		}
	case *ast.ArrayElementExpr:
		return f.EmitArrayElementPtr(v)
	}

	// Evaluate into a temporary, converting to the formal's type.
	val := f.EmitRValue(e)
	val = f.EmitImplicitConversion(val, e.Type(), formal)
	tmp := f.CreateTempAlloca(f.g.ConvertType(formal), "arg-temp")
	f.block.NewStore(val.Scalar, tmp)
	return tmp
}

// castScalarPtr adjusts a pointer when the actual's type differs from the
// formal (only identical layouts reach here in well-typed programs).
func (f *CodeGenFunction) castScalarPtr(ptr value.Value, actual, formal types.QualType) value.Value {
	if actual == formal {
		return ptr
	}
	return f.block.NewBitCast(ptr, irtypes.NewPointer(f.g.ConvertType(formal)))
}

// scalarByteWidth returns the storage width of a scalar type in bytes.
func (g *Generator) scalarByteWidth(t types.QualType) int64 {
	switch conv := g.ConvertType(t); conv {
	case irtypes.I8:
		return 1
	case irtypes.I16:
		return 2
	case irtypes.I64, irtypes.Double:
		return 8
	case irtypes.I1:
		return 1
	default:
		_ = conv
		return 4
	}
}
