package codegen

import (
	"fmt"

	"fortc/ast"
	"fortc/sema"
	"fortc/types"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// CodeGenFunction emits the body of one program unit into an LLVM function.
type CodeGenFunction struct {
	g    *Generator
	fn   *ir.Func
	info *CGFunctionInfo

	// entry holds the allocas; block is the current insertion block.
	entry *ir.Block
	block *ir.Block

	// vars maps entities to their storage pointers.
	vars map[*ast.VarDecl]value.Value

	// charVars carries the (ptr, len) pair of character entities.
	charVars map[*ast.VarDecl]CharValue

	// labelBlocks maps statement labels to their basic blocks.
	labelBlocks map[int64]*ir.Block

	// resultPtr is the function result storage (functions only).
	resultPtr  value.Value
	resultType types.QualType

	// curInlined is the innermost active statement-function inlining scope.
	curInlined *inliningScope

	blockCount int
}

func newCodeGenFunction(g *Generator, fn *ir.Func, info *CGFunctionInfo) *CodeGenFunction {
	f := &CodeGenFunction{
		g:           g,
		fn:          fn,
		info:        info,
		vars:        make(map[*ast.VarDecl]value.Value),
		charVars:    make(map[*ast.VarDecl]CharValue),
		labelBlocks: make(map[int64]*ir.Block),
	}
	f.entry = fn.NewBlock("entry")
	f.block = f.entry
	return f
}

// createBasicBlock creates a new (not yet positioned) basic block.
func (f *CodeGenFunction) createBasicBlock(name string) *ir.Block {
	f.blockCount++
	return f.fn.NewBlock(fmt.Sprintf("%s.%d", name, f.blockCount))
}

// EmitBlock branches from the current block (unless already terminated) into
// b and makes it current.
func (f *CodeGenFunction) EmitBlock(b *ir.Block) {
	if f.block.Term == nil {
		f.block.NewBr(b)
	}
	f.block = b
}

// EmitBranch terminates the current block with a branch to b unless it is
// already terminated.
func (f *CodeGenFunction) EmitBranch(b *ir.Block) {
	if f.block.Term == nil {
		f.block.NewBr(b)
	}
}

// CreateTempAlloca allocates a temporary in the entry block.
func (f *CodeGenFunction) CreateTempAlloca(t irtypes.Type, name string) *ir.InstAlloca {
	a := f.entry.NewAlloca(t)
	_ = name
	return a
}

// finishWithReturn terminates the final block with the given return emitter
// when control can still reach it.
func (f *CodeGenFunction) finishWithReturn(emit func(*ir.Block)) {
	if f.block.Term == nil {
		emit(f.block)
	}

	// A label block requested by a GOTO whose target statement never placed
	// it (eg. a construct delimiter) stays unreachable.
	for _, b := range f.labelBlocks {
		if b.Term == nil {
			b.NewUnreachable()
		}
	}
}

// labelBlock returns (creating on demand) the block of a statement label.
func (f *CodeGenFunction) labelBlock(label int64) *ir.Block {
	if b, ok := f.labelBlocks[label]; ok {
		return b
	}
	b := f.createBasicBlock(fmt.Sprintf("label.%d", label))
	f.labelBlocks[label] = b
	return b
}

// -----------------------------------------------------------------------------
// Prologue

// emitPrologue allocates storage for the local entities of the unit.
func (f *CodeGenFunction) emitPrologue(dc *ast.DeclContext) {
	for _, d := range dc.Decls() {
		vd, ok := d.(*ast.VarDecl)
		if !ok || vd.IsParameter() || vd.IsArgument() {
			continue
		}
		f.allocateLocal(vd)
	}
}

func (f *CodeGenFunction) allocateLocal(vd *ast.VarDecl) {
	switch {
	case vd.Type.IsArrayType():
		f.vars[vd] = f.CreateArrayAlloca(vd.Type, vd.Name())

	case vd.Type.IsCharacterType():
		length := f.g.charLength(vd.Type)
		storage := f.entry.NewAlloca(irtypes.NewArray(uint64(length), irtypes.I8))
		ptr := f.entry.NewGetElementPtr(irtypes.NewArray(uint64(length), irtypes.I8), storage,
			constInt64(0), constInt64(0))
		f.vars[vd] = ptr
		f.charVars[vd] = CharValue{Ptr: ptr, Len: constInt64(length)}

	case vd.Type.IsComplexType():
		f.vars[vd] = f.entry.NewAlloca(complexType)

	default:
		f.vars[vd] = f.entry.NewAlloca(f.g.ConvertType(vd.Type))
	}
}

// bindArguments wires the formal parameters to their entities per ABI kind.
func (f *CodeGenFunction) bindArguments(args []*ast.VarDecl, cg *CGFunction) {
	params := cg.Fn.Params

	for i, vd := range args {
		info := cg.Info.Args[i]

		if vd.Type.IsArrayType() {
			f.vars[vd] = params[info.ParamIdx]
			continue
		}

		if vd.Type.IsCharacterType() {
			var length value.Value
			switch info.ABI {
			case ABIExpand:
				length = params[info.ExtraIdx]
			case ABIExpandCharacterPutLengthToAdditionalArgsAsInt:
				length = f.entry.NewSExt(params[info.AdditionalIdx], lenType)
			default:
				length = constInt64(f.g.charLength(vd.Type))
			}
			f.vars[vd] = params[info.ParamIdx]
			f.charVars[vd] = CharValue{Ptr: params[info.ParamIdx], Len: length}
			continue
		}

		switch info.ABI {
		case ABIReference:
			f.vars[vd] = params[info.ParamIdx]

		case ABIExpand:
			// Complex (re, im): spill to a local aggregate.
			ptr := f.entry.NewAlloca(complexType)
			re := f.entry.NewGetElementPtr(complexType, ptr, constInt32(0), constInt32(0))
			f.entry.NewStore(params[info.ParamIdx], re)
			im := f.entry.NewGetElementPtr(complexType, ptr, constInt32(0), constInt32(1))
			f.entry.NewStore(params[info.ExtraIdx], im)
			f.vars[vd] = ptr

		default:
			// By value: spill so the entity is addressable.
			ptr := f.entry.NewAlloca(f.g.ConvertType(vd.Type))
			f.entry.NewStore(params[info.ParamIdx], ptr)
			f.vars[vd] = ptr
		}
	}
}

// -----------------------------------------------------------------------------
// Statements

func (f *CodeGenFunction) emitBody(body []ast.Stmt) {
	for _, s := range body {
		f.EmitStmt(s)
	}
}

// EmitStmt lowers one statement.
func (f *CodeGenFunction) EmitStmt(s ast.Stmt) {
	// A labeled statement starts its own block so GOTOs can target it.
	if s.Label() != nil {
		b := f.labelBlock(sema.StmtLabelValue(s.Label()))
		f.EmitBlock(b)
	}

	switch v := s.(type) {
	case *ast.AssignmentStmt:
		f.EmitAssignmentStmt(v)

	case *ast.GotoStmt:
		f.emitGotoStmt(v)

	case *ast.AssignedGotoStmt:
		f.emitAssignedGotoStmt(v)

	case *ast.AssignStmt:
		f.emitAssignStmt(v)

	case *ast.IfStmt:
		f.emitIfStmt(v)

	case *ast.DoStmt:
		f.emitDoStmt(v)

	case *ast.StopStmt:
		f.emitStopStmt(v)

	case *ast.PrintStmt:
		f.emitPrintStmt(v)

	case *ast.WhereStmt:
		f.EmitWhereStmt(v)

	case *ast.BlockStmt:
		f.emitBody(v.List)

	case *ast.CallStmt:
		cg := f.g.GetSubroutine(v.Subroutine)
		f.emitABICall(cg, v.Args, types.QualType{})

	case *ast.ContinueStmt:
		// No operation.

	default:
		// Specification statements carry no code.
	}
}

// EmitAssignmentStmt dispatches scalar, character, and whole-array
// assignment.
func (f *CodeGenFunction) EmitAssignmentStmt(s *ast.AssignmentStmt) {
	switch {
	case s.LHS.Type().IsArrayType():
		f.EmitArrayAssignment(s.LHS, s.RHS)

	case s.LHS.Type().IsCharacterType():
		dst := f.EmitCharacterExpr(s.LHS)
		src := f.EmitCharacterExpr(s.RHS)
		f.EmitCharacterAssignment(dst, src)

	default:
		val := f.EmitRValue(s.RHS)
		ptr := f.EmitLValuePtr(s.LHS)
		f.EmitStore(val, ptr, s.LHS.Type())
	}
}

// EmitStore stores an RValue through a pointer.
func (f *CodeGenFunction) EmitStore(val RValue, ptr value.Value, t types.QualType) {
	switch {
	case val.IsComplex():
		re := f.block.NewGetElementPtr(complexType, ptr, constInt32(0), constInt32(0))
		f.block.NewStore(val.Complex.Re, re)
		im := f.block.NewGetElementPtr(complexType, ptr, constInt32(0), constInt32(1))
		f.block.NewStore(val.Complex.Im, im)

	case val.IsChar():
		f.EmitCharacterAssignment(CharValue{Ptr: ptr, Len: constInt64(f.g.charLength(t))}, *val.Char)

	default:
		f.block.NewStore(val.Scalar, ptr)
	}
}

func (f *CodeGenFunction) emitGotoStmt(s *ast.GotoStmt) {
	target := s.Destination.Statement
	if target == nil || target.Label() == nil {
		return
	}
	f.block.NewBr(f.labelBlock(sema.StmtLabelValue(target.Label())))
	f.block = f.createBasicBlock("after-goto")
}

func (f *CodeGenFunction) emitAssignStmt(s *ast.AssignStmt) {
	target := s.Address.Statement
	if target == nil || target.Label() == nil {
		return
	}
	ptr := f.EmitLValuePtr(s.Var)
	labelValue := sema.StmtLabelValue(target.Label())
	f.block.NewStore(constant.NewInt(f.g.ConvertType(s.Var.Type()).(*irtypes.IntType), labelValue), ptr)
}

func (f *CodeGenFunction) emitAssignedGotoStmt(s *ast.AssignedGotoStmt) {
	val := f.EmitScalarExpr(s.Var)

	done := false
	for _, ref := range s.AllowedLabels {
		if ref.Statement == nil || ref.Statement.Label() == nil {
			continue
		}
		labelValue := sema.StmtLabelValue(ref.Statement.Label())
		match := f.block.NewICmp(enum.IPredEQ, val,
			constant.NewInt(val.Type().(*irtypes.IntType), labelValue))
		taken := f.labelBlock(labelValue)
		next := f.createBasicBlock("assigned-goto-next")
		f.block.NewCondBr(match, taken, next)
		f.block = next
		done = true
	}

	if done {
		f.block.NewUnreachable()
		f.block = f.createBasicBlock("after-assigned-goto")
	}
}

// emitIfStmt lowers a logical IF or a block IF chain.
func (f *CodeGenFunction) emitIfStmt(s *ast.IfStmt) {
	endBB := f.createBasicBlock("if-end")
	f.emitIfChain(s, endBB)
	f.EmitBlock(endBB)
}

func (f *CodeGenFunction) emitIfChain(s *ast.IfStmt, endBB *ir.Block) {
	cond := f.EmitLogicalCondition(s.Condition)
	thenBB := f.createBasicBlock("if-then")

	elseTarget := endBB
	var elseBB *ir.Block
	if s.Else != nil {
		elseBB = f.createBasicBlock("if-else")
		elseTarget = elseBB
	}

	f.block.NewCondBr(cond, thenBB, elseTarget)

	f.block = thenBB
	if s.Then != nil {
		f.EmitStmt(s.Then)
	}
	f.EmitBranch(endBB)

	if s.Else != nil {
		f.block = elseBB
		if chained, ok := s.Else.(*ast.IfStmt); ok {
			f.emitIfChain(chained, endBB)
		} else {
			f.EmitStmt(s.Else)
			f.EmitBranch(endBB)
		}
	}
}

// emitDoStmt lowers a counted DO loop.
func (f *CodeGenFunction) emitDoStmt(s *ast.DoStmt) {
	varPtr := f.EmitLValuePtr(s.DoVar)
	varType := s.DoVar.Type()
	llType := f.g.ConvertType(varType)

	initial := f.EmitScalarExpr(s.Init)
	f.block.NewStore(initial, varPtr)

	final := f.EmitScalarExpr(s.Final)
	var step value.Value
	if s.Step != nil {
		step = f.EmitScalarExpr(s.Step)
	} else if varType.IsIntegerType() {
		step = constant.NewInt(llType.(*irtypes.IntType), 1)
	} else {
		step = constant.NewFloat(llType.(*irtypes.FloatType), 1)
	}

	condBB := f.createBasicBlock("do-cond")
	bodyBB := f.createBasicBlock("do-body")
	endBB := f.createBasicBlock("do-end")

	f.EmitBlock(condBB)
	cur := f.block.NewLoad(llType, varPtr)

	var cond value.Value
	if varType.IsIntegerType() {
		zero := constant.NewInt(llType.(*irtypes.IntType), 0)
		up := f.block.NewICmp(enum.IPredSGT, step, zero)
		le := f.block.NewICmp(enum.IPredSLE, cur, final)
		ge := f.block.NewICmp(enum.IPredSGE, cur, final)
		cond = f.block.NewSelect(up, le, ge)
	} else {
		zero := constant.NewFloat(llType.(*irtypes.FloatType), 0)
		up := f.block.NewFCmp(enum.FPredOGT, step, zero)
		le := f.block.NewFCmp(enum.FPredOLE, cur, final)
		ge := f.block.NewFCmp(enum.FPredOGE, cur, final)
		cond = f.block.NewSelect(up, le, ge)
	}
	f.block.NewCondBr(cond, bodyBB, endBB)

	f.block = bodyBB
	if s.Body != nil {
		f.EmitStmt(s.Body)
	}

	// Increment and loop.
	cur = f.block.NewLoad(llType, varPtr)
	var next value.Value
	if varType.IsIntegerType() {
		next = f.block.NewAdd(cur, step)
	} else {
		next = f.block.NewFAdd(cur, step)
	}
	f.block.NewStore(next, varPtr)
	f.EmitBranch(condBB)

	f.block = endBB
}

func (f *CodeGenFunction) emitStopStmt(s *ast.StopStmt) {
	var code value.Value = constInt32(0)
	if s.Code != nil && s.Code.Type().IsIntegerType() {
		code = f.EmitScalarExpr(s.Code)
	}
	f.EmitRuntimeCall(f.g.runtimeStop(), []value.Value{code})
	f.block.NewUnreachable()
	f.block = f.createBasicBlock("after-stop")
}

func (f *CodeGenFunction) emitPrintStmt(s *ast.PrintStmt) {
	f.EmitRuntimeCall(f.g.runtimePrintBegin(), nil)
	for _, item := range s.Items {
		t := item.Type().SelfOrArrayElement()
		switch {
		case t.IsCharacterType():
			cv := f.EmitCharacterExpr(item)
			f.EmitRuntimeCall(f.g.runtimePrintChar(), []value.Value{cv.Ptr, cv.Len})
		case t.IsIntegerType():
			v := f.EmitScalarExpr(item)
			if v.Type() != irtypes.I64 {
				v = f.block.NewSExt(v, irtypes.I64)
			}
			f.EmitRuntimeCall(f.g.runtimePrintInt(), []value.Value{v})
		case t.IsLogicalType():
			v := f.EmitScalarExpr(item)
			f.EmitRuntimeCall(f.g.runtimePrintLogical(), []value.Value{f.block.NewZExt(v, irtypes.I32)})
		default:
			v := f.EmitScalarExpr(item)
			if v.Type() != irtypes.Double {
				v = f.block.NewFPExt(v, irtypes.Double)
			}
			f.EmitRuntimeCall(f.g.runtimePrintReal(), []value.Value{v})
		}
	}
	f.EmitRuntimeCall(f.g.runtimePrintEnd(), nil)
}

// EmitLogicalCondition evaluates a condition expression to an i1.
func (f *CodeGenFunction) EmitLogicalCondition(e ast.Expr) value.Value {
	v := f.EmitScalarExpr(e)
	if v.Type() == irtypes.I1 {
		return v
	}
	return f.block.NewICmp(enum.IPredNE, v, constant.NewInt(v.Type().(*irtypes.IntType), 0))
}
