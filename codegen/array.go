package codegen

import (
	"fortc/ast"
	"fortc/types"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// ArrayDimValue carries the emitted bounds of one declared dimension.  A nil
// lower bound means the default of 1.
type ArrayDimValue struct {
	LowerBound, UpperBound value.Value
}

func (d ArrayDimValue) hasLowerBound() bool { return d.LowerBound != nil }

// ArrayRangeSection is a (offset, size, stride) dimensional slice.  A nil
// offset means 0 and a nil stride means 1.
type ArrayRangeSection struct {
	Offset, Size, Stride value.Value
}

func (r ArrayRangeSection) hasOffset() bool { return r.Offset != nil }
func (r ArrayRangeSection) hasStride() bool { return r.Stride != nil }

// ArrayElementSection pins one dimension to a single index.
type ArrayElementSection struct {
	Index value.Value
}

// ArraySection is one dimension of a section list: either a range or a single
// element, with the dimension's full size alongside for offset arithmetic.
type ArraySection struct {
	Range   *ArrayRangeSection
	Element *ArrayElementSection

	// DimSize is the declared size of the dimension.
	DimSize value.Value
}

func (s ArraySection) isRange() bool { return s.Range != nil }

// ArrayValue is an array operand: its section list and its element pointer.
type ArrayValue struct {
	Sections []ArraySection
	Ptr      value.Value
}

// -----------------------------------------------------------------------------
// Dimension info

// CreateArrayAlloca allocates storage for an array entity and returns the
// decayed pointer to its first element.
func (f *CodeGenFunction) CreateArrayAlloca(t types.QualType, name string) value.Value {
	at := t.AsArray()
	memType := f.g.ConvertArrayTypeForMem(at)
	storage := f.entry.NewAlloca(memType)
	return f.entry.NewGetElementPtr(memType, storage, constInt64(0), constInt64(0))
}

// GetArrayDimensionsInfo emits the bounds of every dimension of an array
// type, folding constant bounds.
func (f *CodeGenFunction) GetArrayDimensionsInfo(t types.QualType) []ArrayDimValue {
	at := t.AsArray()
	dims := make([]ArrayDimValue, 0, len(at.Dims))

	intType := f.g.ConvertType(f.g.ctx.IntegerTy)
	for _, d := range at.Dims {
		var dim ArrayDimValue
		if d.Lower != nil {
			if v, ok := ast.EvaluateAsInt(d.Lower.(ast.Expr)); ok {
				dim.LowerBound = constant.NewInt(intType.(*irtypes.IntType), v)
			} else {
				dim.LowerBound = f.EmitScalarExpr(d.Lower.(ast.Expr))
			}
		}
		if d.Upper != nil {
			if v, ok := ast.EvaluateAsInt(d.Upper.(ast.Expr)); ok {
				dim.UpperBound = constant.NewInt(intType.(*irtypes.IntType), v)
			} else {
				dim.UpperBound = f.EmitScalarExpr(d.Upper.(ast.Expr))
			}
		}
		dims = append(dims, dim)
	}
	return dims
}

// EmitDimSize computes UB - LB + 1, or just UB without a lower bound.
func (f *CodeGenFunction) EmitDimSize(dim ArrayDimValue) value.Value {
	if dim.hasLowerBound() {
		return f.block.NewAdd(
			f.block.NewSub(dim.UpperBound, dim.LowerBound),
			constant.NewInt(dim.LowerBound.Type().(*irtypes.IntType), 1))
	}
	return dim.UpperBound
}

// EmitDimSubscript normalizes a subscript: S - LB (LB defaults to 1).
func (f *CodeGenFunction) EmitDimSubscript(subscript value.Value, dim ArrayDimValue) value.Value {
	lb := dim.LowerBound
	if lb == nil {
		lb = constant.NewInt(subscript.Type().(*irtypes.IntType), 1)
	}
	return f.block.NewSub(subscript, lb)
}

// EmitNthDimSubscript scales a normalized subscript by the size product of
// the previous dimensions.
func (f *CodeGenFunction) EmitNthDimSubscript(subscript value.Value, dim ArrayDimValue,
	sizeProduct value.Value) value.Value {
	return f.block.NewMul(f.EmitDimSubscript(subscript, dim), sizeProduct)
}

// EmitDimSection turns declared bounds into a whole-dimension range section.
func (f *CodeGenFunction) EmitDimSection(dim ArrayDimValue) ArraySection {
	size := f.EmitDimSize(dim)
	return ArraySection{
		Range:   &ArrayRangeSection{Size: size},
		DimSize: size,
	}
}

// emitArrayValue materializes the pointer and dimension info of an array
// primary: a variable or an array constructor.
func (f *CodeGenFunction) emitArrayValue(e ast.Expr) ([]ArrayDimValue, value.Value) {
	switch v := e.(type) {
	case *ast.VarExpr:
		if inlined, ok := f.inlinedArgument(v.Decl); ok {
			return f.emitArrayValue(inlined)
		}
		if v.Decl.IsParameter() {
			return f.emitArrayValue(v.Decl.Init)
		}
		return f.GetArrayDimensionsInfo(v.Type()), f.varPtr(v.Decl)

	case *ast.ArrayConstructorExpr:
		return f.GetArrayDimensionsInfo(v.Type()), f.EmitArrayConstructor(v)
	}

	f.g.ice("invalid array value expression")
	return nil, nil
}

// emitArraySections computes the whole-array section list of an array
// primary.
func (f *CodeGenFunction) emitArraySections(e ast.Expr) ArrayValue {
	dims, ptr := f.emitArrayValue(e)
	sections := make([]ArraySection, len(dims))
	for i, d := range dims {
		sections[i] = f.EmitDimSection(d)
	}
	return ArrayValue{Sections: sections, Ptr: ptr}
}

// gatherStandaloneSections finds the section list driving a standalone array
// expression: the sections of its first array-typed primary.
func (f *CodeGenFunction) gatherStandaloneSections(e ast.Expr) []ArraySection {
	if !e.Type().IsArrayType() {
		return nil
	}

	switch v := e.(type) {
	case *ast.VarExpr, *ast.ArrayConstructorExpr:
		return f.emitArraySections(v).Sections
	case *ast.UnaryExpr:
		return f.gatherStandaloneSections(v.Operand)
	case *ast.BinaryExpr:
		if s := f.gatherStandaloneSections(v.LHS); s != nil {
			return s
		}
		return f.gatherStandaloneSections(v.RHS)
	case *ast.ImplicitCastExpr:
		return f.gatherStandaloneSections(v.Operand)
	case *ast.ConversionExpr:
		return f.gatherStandaloneSections(v.Operand)
	case *ast.IntrinsicCallExpr:
		if len(v.Args) > 0 {
			return f.gatherStandaloneSections(v.Args[0])
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Array operation state

type storedArrayValue struct {
	sectionsOffset int
	ptr            value.Value
}

// ArrayOperation hoists the scalar operands and gathers the array sections
// of one whole-array operation before its loop nest is emitted.  Scalar
// sub-expressions are evaluated exactly once, keyed by expression identity.
type ArrayOperation struct {
	arrays   map[ast.Expr]storedArrayValue
	sections []ArraySection
	scalars  map[ast.Expr]RValue
}

// NewArrayOperation creates an empty operation state.
func NewArrayOperation() *ArrayOperation {
	return &ArrayOperation{
		arrays:  make(map[ast.Expr]storedArrayValue),
		scalars: make(map[ast.Expr]RValue),
	}
}

func (op *ArrayOperation) getArrayValue(e ast.Expr) ArrayValue {
	stored := op.arrays[e]
	rank := e.Type().AsArray().Rank()
	return ArrayValue{
		Sections: op.sections[stored.sectionsOffset : stored.sectionsOffset+rank],
		Ptr:      stored.ptr,
	}
}

func (op *ArrayOperation) emitArraySections(f *CodeGenFunction, e ast.Expr) {
	if _, ok := op.arrays[e]; ok {
		return
	}

	av := f.emitArraySections(e)
	op.arrays[e] = storedArrayValue{sectionsOffset: len(op.sections), ptr: av.Ptr}
	op.sections = append(op.sections, av.Sections...)
}

func (op *ArrayOperation) getScalarValue(e ast.Expr) RValue {
	return op.scalars[e]
}

func (op *ArrayOperation) emitScalarValue(f *CodeGenFunction, e ast.Expr) {
	if _, ok := op.scalars[e]; ok {
		return
	}
	op.scalars[e] = f.EmitRValue(e)
}

// EmitAllScalarValuesAndArraySections walks an operand tree, hoisting every
// scalar sub-expression and gathering every array primary's sections.  It
// returns the last array primary visited.
func (op *ArrayOperation) EmitAllScalarValuesAndArraySections(f *CodeGenFunction, e ast.Expr) ast.Expr {
	if !e.Type().IsArrayType() {
		op.emitScalarValue(f, e)
		return nil
	}

	switch v := e.(type) {
	case *ast.VarExpr:
		op.emitArraySections(f, v)
		return v
	case *ast.ArrayConstructorExpr:
		op.emitArraySections(f, v)
		return v
	case *ast.UnaryExpr:
		return op.EmitAllScalarValuesAndArraySections(f, v.Operand)
	case *ast.ImplicitCastExpr:
		return op.EmitAllScalarValuesAndArraySections(f, v.Operand)
	case *ast.ConversionExpr:
		return op.EmitAllScalarValuesAndArraySections(f, v.Operand)
	case *ast.BinaryExpr:
		last := op.EmitAllScalarValuesAndArraySections(f, v.LHS)
		if r := op.EmitAllScalarValuesAndArraySections(f, v.RHS); r != nil {
			last = r
		}
		return last
	}

	f.g.ice("unsupported array operand")
	return nil
}

// EmitArrayExpr gathers an operand and returns its array value.
func (op *ArrayOperation) EmitArrayExpr(f *CodeGenFunction, e ast.Expr) ArrayValue {
	last := op.EmitAllScalarValuesAndArraySections(f, e)
	if last == nil {
		f.g.ice("expected an array operand")
	}
	return op.getArrayValue(last)
}

// -----------------------------------------------------------------------------
// Loop emission

type arrayLoop struct {
	testBlock *ir.Block
	endBlock  *ir.Block
	counter   value.Value
}

// ArrayLoopEmitter emits the multidimensional counter loop nest iterating the
// element space of a section list.
type ArrayLoopEmitter struct {
	f        *CodeGenFunction
	sections []ArraySection

	// elements holds the per-dimension loop counters of the current
	// iteration.
	elements []value.Value
	loops    []arrayLoop
}

// NewArrayLoopEmitter creates a loop emitter over the driving sections.
func NewArrayLoopEmitter(f *CodeGenFunction, sections []ArraySection) *ArrayLoopEmitter {
	return &ArrayLoopEmitter{f: f, sections: sections}
}

// EmitSectionIndex computes the index of one dimension at the current
// iteration: offset + counter * stride for ranges, the pinned index for
// elements.
func (l *ArrayLoopEmitter) EmitSectionIndex(section ArraySection, dimension int) value.Value {
	if !section.isRange() {
		return section.Element.Index
	}

	r := section.Range
	index := l.elements[dimension]
	if r.hasStride() {
		index = l.f.block.NewMul(index, r.Stride)
	}
	if r.hasOffset() {
		index = l.f.block.NewAdd(r.Offset, index)
	}
	return index
}

// EmitArrayIterationBegin opens one counter loop per range dimension,
// iterating from the last dimension to the first (column major order for
// efficient memory access).  Each loop runs its counter over [0, size).
func (l *ArrayLoopEmitter) EmitArrayIterationBegin() {
	f := l.f
	indexType := f.g.ConvertType(f.g.ctx.IntegerTy)

	l.elements = make([]value.Value, len(l.sections))
	l.loops = make([]arrayLoop, len(l.sections))

	for i := len(l.sections); i != 0; {
		i--
		if !l.sections[i].isRange() {
			l.elements[i] = nil
			continue
		}

		r := l.sections[i].Range
		counter := f.CreateTempAlloca(indexType, "array-dim-loop-counter")
		f.block.NewStore(constant.NewInt(indexType.(*irtypes.IntType), 0), counter)

		loopCond := f.createBasicBlock("array-dim-loop")
		loopBody := f.createBasicBlock("array-dim-loop-body")
		loopEnd := f.createBasicBlock("array-dim-loop-end")

		f.EmitBlock(loopCond)
		current := f.block.NewLoad(indexType, counter)
		f.block.NewCondBr(f.block.NewICmp(enum.IPredULT, current, r.Size), loopBody, loopEnd)

		f.block = loopBody
		l.elements[i] = f.block.NewLoad(indexType, counter)

		l.loops[i] = arrayLoop{testBlock: loopCond, endBlock: loopEnd, counter: counter}
	}
}

// EmitArrayIterationEnd closes the loops front to back: increment, branch to
// the test, and continue after the loop.
func (l *ArrayLoopEmitter) EmitArrayIterationEnd() {
	f := l.f
	indexType := f.g.ConvertType(f.g.ctx.IntegerTy)

	for _, loop := range l.loops {
		if loop.endBlock == nil {
			continue
		}
		current := f.block.NewLoad(indexType, loop.counter)
		f.block.NewStore(
			f.block.NewAdd(current, constant.NewInt(indexType.(*irtypes.IntType), 1)),
			loop.counter)
		f.EmitBranch(loop.testBlock)
		f.block = loop.endBlock
	}
}

// EmitElementOffset linearizes the current iteration's indices:
// offset0 = idx(dim0); offsetI = offsetI-1 + idx(dimI) * size0..I-1.
func (l *ArrayLoopEmitter) EmitElementOffset(sections []ArraySection) value.Value {
	f := l.f
	offset := l.EmitSectionIndex(sections[0], 0)
	if len(sections) > 1 {
		sizeProduct := sections[0].DimSize
		for i := 1; i < len(sections); i++ {
			sub := f.block.NewMul(l.EmitSectionIndex(sections[i], i), sizeProduct)
			offset = f.block.NewAdd(offset, sub)
			if i+1 < len(sections) {
				sizeProduct = f.block.NewMul(sizeProduct, sections[i].DimSize)
			}
		}
	}
	return offset
}

// EmitElementPointer produces the pointer to the current element of an array
// operand.
func (l *ArrayLoopEmitter) EmitElementPointer(av ArrayValue, elemType irtypes.Type) value.Value {
	return l.f.block.NewGetElementPtr(elemType, av.Ptr, l.EmitElementOffset(av.Sections))
}

// -----------------------------------------------------------------------------
// Elemental operand evaluation

// emitArrayElementOperand evaluates one operand of an array operation at the
// current loop iteration: hoisted scalars are reused, array primaries load
// their current element, and operators apply elementwise.
func (f *CodeGenFunction) emitArrayElementOperand(op *ArrayOperation, looper *ArrayLoopEmitter, e ast.Expr) RValue {
	if !e.Type().IsArrayType() {
		return op.getScalarValue(e)
	}

	elemType := e.Type().SelfOrArrayElement()

	switch v := e.(type) {
	case *ast.VarExpr, *ast.ArrayConstructorExpr:
		ptr := looper.EmitElementPointer(op.getArrayValue(e), f.g.ConvertTypeForMem(elemType))
		return f.loadElement(ptr, elemType)

	case *ast.ImplicitCastExpr:
		inner := f.emitArrayElementOperand(op, looper, v.Operand)
		return f.EmitImplicitConversion(inner, v.Operand.Type(), v.Type())

	case *ast.ConversionExpr:
		inner := f.emitArrayElementOperand(op, looper, v.Operand)
		return f.EmitImplicitConversion(inner, v.Operand.Type(), v.Type())

	case *ast.UnaryExpr:
		inner := f.emitArrayElementOperand(op, looper, v.Operand)
		return f.applyUnaryOp(v.Op, inner)

	case *ast.BinaryExpr:
		lhs := f.emitArrayElementOperand(op, looper, v.LHS)
		rhs := f.emitArrayElementOperand(op, looper, v.RHS)
		return f.applyBinaryOp(v.Op, lhs, rhs)
	}

	f.g.ice("unsupported elemental operand")
	return RValue{}
}

func (f *CodeGenFunction) loadElement(ptr value.Value, elemType types.QualType) RValue {
	if elemType.IsCharacterType() {
		return CharRV(ptr, constInt64(f.g.charLength(elemType)))
	}
	return ScalarRV(f.block.NewLoad(f.g.ConvertType(elemType), ptr))
}

// applyUnaryOp applies a unary operator to an already-evaluated element.
func (f *CodeGenFunction) applyUnaryOp(op ast.UnaryOp, operand RValue) RValue {
	v := operand.Scalar
	switch op {
	case ast.UnaryPlus:
		return operand
	case ast.UnaryMinus:
		if isFloat(v) {
			return ScalarRV(f.block.NewFNeg(v))
		}
		return ScalarRV(f.block.NewSub(constant.NewInt(v.Type().(*irtypes.IntType), 0), v))
	default:
		return ScalarRV(f.block.NewXor(v, constant.NewBool(true)))
	}
}

// applyBinaryOp applies a binary operator to already-evaluated elements.
func (f *CodeGenFunction) applyBinaryOp(op ast.BinaryOp, lhs, rhs RValue) RValue {
	l, r := lhs.Scalar, rhs.Scalar

	switch op {
	case ast.BinaryPlus:
		if isFloat(l) {
			return ScalarRV(f.block.NewFAdd(l, r))
		}
		return ScalarRV(f.block.NewAdd(l, r))
	case ast.BinaryMinus:
		if isFloat(l) {
			return ScalarRV(f.block.NewFSub(l, r))
		}
		return ScalarRV(f.block.NewSub(l, r))
	case ast.BinaryMultiply:
		if isFloat(l) {
			return ScalarRV(f.block.NewFMul(l, r))
		}
		return ScalarRV(f.block.NewMul(l, r))
	case ast.BinaryDivide:
		if isFloat(l) {
			return ScalarRV(f.block.NewFDiv(l, r))
		}
		return ScalarRV(f.block.NewSDiv(l, r))
	case ast.BinaryPower:
		return ScalarRV(f.emitPower(l, r))
	case ast.BinaryAnd:
		return ScalarRV(f.block.NewAnd(l, r))
	case ast.BinaryOr:
		return ScalarRV(f.block.NewOr(l, r))
	case ast.BinaryEqv:
		return ScalarRV(f.block.NewXor(f.block.NewXor(l, r), constant.NewBool(true)))
	case ast.BinaryNeqv:
		return ScalarRV(f.block.NewXor(l, r))
	}

	if isFloat(l) {
		return ScalarRV(f.block.NewFCmp(floatPreds[op], l, r))
	}
	return ScalarRV(f.block.NewICmp(intPreds[op], l, r))
}

// -----------------------------------------------------------------------------
// Whole-array assignment

// EmitArrayAssignment lowers `LHS = RHS` where LHS is an array: gather
// sections and hoist scalars, then loop over the LHS sections storing the
// elementwise value.
func (f *CodeGenFunction) EmitArrayAssignment(lhs, rhs ast.Expr) {
	op := NewArrayOperation()
	lhsArray := op.EmitArrayExpr(f, lhs)
	op.EmitAllScalarValuesAndArraySections(f, rhs)

	looper := NewArrayLoopEmitter(f, lhsArray.Sections)
	looper.EmitArrayIterationBegin()
	f.emitElementAssignment(op, looper, lhs, rhs)
	looper.EmitArrayIterationEnd()
}

// emitElementAssignment stores one element of an elemental assignment at the
// current iteration.
func (f *CodeGenFunction) emitElementAssignment(op *ArrayOperation, looper *ArrayLoopEmitter, lhs, rhs ast.Expr) {
	elemType := lhs.Type().SelfOrArrayElement()
	val := f.emitArrayElementOperand(op, looper, rhs)
	ptr := looper.EmitElementPointer(op.getArrayValue(lhs), f.g.ConvertTypeForMem(elemType))

	if elemType.IsCharacterType() {
		dst := CharValue{Ptr: ptr, Len: constInt64(f.g.charLength(elemType))}
		f.EmitCharacterAssignment(dst, *val.Char)
		return
	}
	f.block.NewStore(val.Scalar, ptr)
}

// -----------------------------------------------------------------------------
// Array element references

// EmitArrayElementPtr computes the pointer to `target(subscripts...)` using
// the declared bounds: offset0 = s0 - lb0, then offsetI accumulates
// (sI - lbI) * size0..I-1.
func (f *CodeGenFunction) EmitArrayElementPtr(e *ast.ArrayElementExpr) value.Value {
	dims, ptr := f.emitArrayValue(e.Target)
	elemType := f.g.ConvertTypeForMem(e.Type())

	offset := f.EmitDimSubscript(f.EmitScalarExpr(e.Subscripts[0]), dims[0])
	if len(e.Subscripts) > 1 {
		sizeProduct := f.EmitDimSize(dims[0])
		for i := 1; i < len(e.Subscripts); i++ {
			sub := f.EmitNthDimSubscript(f.EmitScalarExpr(e.Subscripts[i]), dims[i], sizeProduct)
			offset = f.block.NewAdd(offset, sub)
			if i+1 != len(e.Subscripts) {
				sizeProduct = f.block.NewMul(sizeProduct, f.EmitDimSize(dims[i]))
			}
		}
	}
	return f.block.NewGetElementPtr(elemType, ptr, offset)
}

// -----------------------------------------------------------------------------
// Array constructors

// EmitArrayConstructor emits `(/ items /)`: a constant aggregate when every
// item folds, a filled stack temporary otherwise.
func (f *CodeGenFunction) EmitArrayConstructor(e *ast.ArrayConstructorExpr) value.Value {
	if ast.IsConstExpr(e) {
		if ptr := f.emitConstantArrayConstructor(e); ptr != nil {
			return ptr
		}
	}
	return f.emitTempArrayConstructor(e)
}

func (f *CodeGenFunction) emitConstantArrayConstructor(e *ast.ArrayConstructorExpr) value.Value {
	elemType := e.Type().SelfOrArrayElement()

	values := make([]constant.Constant, len(e.Items))
	for i, item := range e.Items {
		c := f.emitConstantExpr(item, elemType)
		if c == nil {
			return nil
		}
		values[i] = c
	}

	arr := constant.NewArray(f.g.ConvertArrayTypeForMem(e.Type().AsArray()).(*irtypes.ArrayType), values...)
	f.g.literalCount++
	global := f.g.mod.NewGlobalDef(literalName(f.g.literalCount), arr)
	global.Immutable = true
	return f.block.NewGetElementPtr(arr.Typ, global, constInt64(0), constInt64(0))
}

// emitConstantExpr folds a constant item to an LLVM constant of the element
// type.
func (f *CodeGenFunction) emitConstantExpr(e ast.Expr, elemType types.QualType) constant.Constant {
	llType := f.g.ConvertType(elemType)

	switch {
	case elemType.IsIntegerType():
		if v, ok := ast.EvaluateAsInt(e); ok {
			return constant.NewInt(llType.(*irtypes.IntType), v)
		}
	case elemType.IsRealType() || elemType.IsDoublePrecisionType():
		if rc, ok := e.(*ast.RealConstantExpr); ok {
			return constant.NewFloat(llType.(*irtypes.FloatType), rc.Value)
		}
		if v, ok := ast.EvaluateAsInt(e); ok {
			return constant.NewFloat(llType.(*irtypes.FloatType), float64(v))
		}
	case elemType.IsLogicalType():
		if lc, ok := e.(*ast.LogicalConstantExpr); ok {
			return constant.NewBool(lc.Value)
		}
	}
	return nil
}

func (f *CodeGenFunction) emitTempArrayConstructor(e *ast.ArrayConstructorExpr) value.Value {
	at := e.Type().AsArray()
	elemType := at.Element
	memType := f.g.ConvertArrayTypeForMem(at)

	storage := f.CreateTempAlloca(memType, "array-constructor-temp")
	base := f.block.NewGetElementPtr(memType, storage, constInt64(0), constInt64(0))

	for i, item := range e.Items {
		dest := f.block.NewGetElementPtr(f.g.ConvertTypeForMem(elemType), base, constInt64(int64(i)))
		val := f.EmitRValue(item)
		f.EmitStore(val, dest, elemType)
	}
	return base
}

// -----------------------------------------------------------------------------
// Array call arguments

// EmitArrayArgumentPointer materializes an array actual argument as a
// contiguous element pointer, evaluating expression operands into a heap
// temporary.
func (f *CodeGenFunction) EmitArrayArgumentPointer(e ast.Expr) value.Value {
	switch e.(type) {
	case *ast.VarExpr, *ast.ArrayConstructorExpr:
		_, ptr := f.emitArrayValue(e)
		return ptr
	}

	// An array-valued expression: evaluate into a temporary.
	sections := f.gatherStandaloneSections(e)
	elemType := e.Type().SelfOrArrayElement()
	destPtr := f.createTempHeapArray(sections, elemType)

	op := NewArrayOperation()
	op.EmitAllScalarValuesAndArraySections(f, e)

	looper := NewArrayLoopEmitter(f, sections)
	looper.EmitArrayIterationBegin()
	val := f.emitArrayElementOperand(op, looper, e)
	ptr := looper.EmitElementPointer(ArrayValue{Sections: sections, Ptr: destPtr},
		f.g.ConvertTypeForMem(elemType))
	f.block.NewStore(val.Scalar, ptr)
	looper.EmitArrayIterationEnd()

	return destPtr
}

// createTempHeapArray allocates a heap temporary sized to the product of the
// section sizes.
func (f *CodeGenFunction) createTempHeapArray(sections []ArraySection, elemType types.QualType) value.Value {
	var size value.Value
	for _, s := range sections {
		if !s.isRange() {
			continue
		}
		if size == nil {
			size = s.Range.Size
		} else {
			size = f.block.NewMul(size, s.Range.Size)
		}
	}

	byteSize := f.toLen(size)
	byteSize = f.block.NewMul(byteSize, constInt64(f.g.scalarByteWidth(elemType)))
	raw := f.EmitRuntimeCall(f.g.runtimeMalloc(), []value.Value{byteSize})
	return f.block.NewBitCast(raw, irtypes.NewPointer(f.g.ConvertTypeForMem(elemType)))
}
