package codegen

import (
	"fortc/ast"
)

// WHERE lowering: the masked elemental assignment shares the array operation
// framework.  The mask array's sections drive the loop nest; the then- and
// else-bodies are wrapped in basic blocks merged at a common join.  The mask
// is re-evaluated per element; hoisting it is a legal optimization the
// implementation does not perform.

// whereGatherBody pre-gathers the sections and hoisted scalars of every
// assignment in a WHERE body.
func (f *CodeGenFunction) whereGatherBody(op *ArrayOperation, s ast.Stmt) {
	switch v := s.(type) {
	case *ast.BlockStmt:
		for _, inner := range v.List {
			f.whereGatherBody(op, inner)
		}
	case *ast.AssignmentStmt:
		op.EmitAllScalarValuesAndArraySections(f, v.LHS)
		op.EmitAllScalarValuesAndArraySections(f, v.RHS)
	case *ast.ConstructPartStmt:
		// Construct delimiters carry no operands.
	case nil:
	default:
		f.g.ice("invalid statement in WHERE body")
	}
}

// whereEmitBody emits the per-element assignments of a WHERE arm.
func (f *CodeGenFunction) whereEmitBody(op *ArrayOperation, looper *ArrayLoopEmitter, s ast.Stmt) {
	switch v := s.(type) {
	case *ast.BlockStmt:
		for _, inner := range v.List {
			f.whereEmitBody(op, looper, inner)
		}
	case *ast.AssignmentStmt:
		f.emitElementAssignment(op, looper, v.LHS, v.RHS)
	}
}

// EmitWhereStmt lowers a WHERE statement or construct.
func (f *CodeGenFunction) EmitWhereStmt(s *ast.WhereStmt) {
	if s.Mask == nil {
		return
	}

	op := NewArrayOperation()
	maskArray := op.EmitArrayExpr(f, s.Mask)
	f.whereGatherBody(op, s.Then)
	if s.Else != nil {
		f.whereGatherBody(op, s.Else)
	}

	looper := NewArrayLoopEmitter(f, maskArray.Sections)
	looper.EmitArrayIterationBegin()

	thenBB := f.createBasicBlock("where-true")
	endBB := f.createBasicBlock("where-end")
	elseBB := endBB
	if s.Else != nil {
		elseBB = f.createBasicBlock("where-else")
	}

	cond := f.emitArrayElementOperand(op, looper, s.Mask)
	f.block.NewCondBr(cond.Scalar, thenBB, elseBB)

	f.block = thenBB
	f.whereEmitBody(op, looper, s.Then)
	f.EmitBranch(endBB)

	if s.Else != nil {
		f.block = elseBB
		f.whereEmitBody(op, looper, s.Else)
		f.EmitBranch(endBB)
	}

	f.block = endBB
	looper.EmitArrayIterationEnd()
}
