package sema

import (
	"fortc/ast"
	"fortc/report"
	"fortc/types"
)

// This file implements the statement actions: specification statements,
// assignment typechecking, statement-label control flow, and the structured
// construct state machines (IF, DO, WHERE).

// finishStmt declares the statement's label (if any) and appends it to the
// current statement list.
func (s *Sema) finishStmt(stmt ast.Stmt) ast.Stmt {
	if stmt.Label() != nil {
		s.DeclareStatementLabel(stmt.Label(), stmt)
	}
	s.appendStmt(stmt)
	return stmt
}

// declareStmtLabelOnly declares the label of a construct-part statement that
// is not itself appended to a statement list.
func (s *Sema) declareStmtLabelOnly(stmt ast.Stmt) ast.Stmt {
	// A PROGRAM statement's label arrives before its unit's label scope
	// opens; it is dropped rather than leaked into the previous scope.
	if stmt.Label() != nil && s.listStack != nil {
		s.DeclareStatementLabel(stmt.Label(), stmt)
	}
	return stmt
}

// -----------------------------------------------------------------------------
// Specification statements

// ActOnPROGRAM builds the PROGRAM statement.
func (s *Sema) ActOnPROGRAM(span *report.TextSpan, name *ast.IdentifierInfo, label ast.Expr) *ast.ProgramStmt {
	stmt := &ast.ProgramStmt{StmtBase: ast.NewStmtBase(span, label), Name: name}
	return s.declareStmtLabelOnly(stmt).(*ast.ProgramStmt)
}

// ActOnENDPROGRAM builds the END PROGRAM statement.
func (s *Sema) ActOnENDPROGRAM(span *report.TextSpan, name *ast.IdentifierInfo, label ast.Expr) *ast.EndProgramStmt {
	stmt := &ast.EndProgramStmt{StmtBase: ast.NewStmtBase(span, label), Name: name}
	return s.declareStmtLabelOnly(stmt).(*ast.EndProgramStmt)
}

// ActOnUSE builds a USE statement (module resolution is out of scope).
func (s *Sema) ActOnUSE(span *report.TextSpan, nature ast.ModuleNature, modName *ast.IdentifierInfo,
	only bool, renames [][2]*ast.IdentifierInfo, label ast.Expr) ast.Stmt {
	stmt := &ast.UseStmt{
		StmtBase:   ast.NewStmtBase(span, label),
		Nature:     nature,
		ModuleName: modName,
		Only:       only,
		Renames:    renames,
	}
	return s.declareStmtLabelOnly(stmt)
}

// ActOnIMPORT builds an IMPORT statement.
func (s *Sema) ActOnIMPORT(span *report.TextSpan, names []*ast.IdentifierInfo, label ast.Expr) ast.Stmt {
	stmt := &ast.ImportStmt{StmtBase: ast.NewStmtBase(span, label), Names: names}
	return s.declareStmtLabelOnly(stmt)
}

// ActOnIMPLICIT applies an IMPLICIT statement with letter specs.  Rules take
// effect only for references after the statement within the same scope.
func (s *Sema) ActOnIMPLICIT(span *report.TextSpan, ds *DeclSpec, letters []ast.LetterSpec, label ast.Expr) ast.Stmt {
	t := s.ActOnTypeName(ds)
	stmt := &ast.ImplicitStmt{StmtBase: ast.NewStmtBase(span, label), Type: t, Letters: letters}

	for _, spec := range letters {
		if !s.implicitScope.Apply(spec, t) {
			s.errorOn(span, "redefinition of implicit rule for letter '%c'", spec.First)
		}
	}

	return s.declareStmtLabelOnly(stmt)
}

// ActOnIMPLICITNone applies IMPLICIT NONE.
func (s *Sema) ActOnIMPLICITNone(span *report.TextSpan, label ast.Expr) ast.Stmt {
	stmt := &ast.ImplicitStmt{StmtBase: ast.NewStmtBase(span, label), None: true}
	if !s.implicitScope.ApplyNone() {
		s.errorOn(span, "IMPLICIT NONE after IMPLICIT rules")
	}
	return s.declareStmtLabelOnly(stmt)
}

// ActOnPARAMETERPair declares one named constant of a PARAMETER statement.
// The constant's type is taken from its initializer.
func (s *Sema) ActOnPARAMETERPair(span *report.TextSpan, id *ast.IdentifierInfo, value ast.Expr) (ast.ParamPair, bool) {
	if prev := id.VarPayload(); prev != nil && prev.Context() == s.CurContext {
		s.errorOn(span, "variable '%s' already defined", id.Name())
		s.noteOn(prev.Span(), "previous definition")
		return ast.ParamPair{}, false
	}

	if !ast.IsConstExpr(value) {
		s.errorOn(value.Span(), "expected a constant expression")
		return ast.ParamPair{}, false
	}

	vd := ast.NewVarDecl(span, id, value.Type())
	vd.Kind = ast.VarParameter
	vd.Init = value
	s.CurContext.AddDecl(vd)
	id.SetFETokenInfo(vd)

	return ast.ParamPair{Name: id, Value: value}, true
}

// ActOnPARAMETER builds the PARAMETER statement.
func (s *Sema) ActOnPARAMETER(span *report.TextSpan, params []ast.ParamPair, label ast.Expr) ast.Stmt {
	stmt := &ast.ParameterStmt{StmtBase: ast.NewStmtBase(span, label), Params: params}
	return s.declareStmtLabelOnly(stmt)
}

// ActOnASYNCHRONOUS builds an ASYNCHRONOUS statement.
func (s *Sema) ActOnASYNCHRONOUS(span *report.TextSpan, names []*ast.IdentifierInfo, label ast.Expr) ast.Stmt {
	stmt := &ast.AsynchronousStmt{StmtBase: ast.NewStmtBase(span, label), Names: names}
	return s.declareStmtLabelOnly(stmt)
}

// ActOnDIMENSION attaches an array spec to an entity, declaring it implicitly
// if needed.
func (s *Sema) ActOnDIMENSION(span *report.TextSpan, id *ast.IdentifierInfo, dims []types.DimSpec, label ast.Expr) ast.Stmt {
	stmt := &ast.DimensionStmt{StmtBase: ast.NewStmtBase(span, label), Name: id, Dims: dims}

	vd := id.VarPayload()
	if vd == nil || vd.Context() != s.CurContext {
		vd = s.ActOnImplicitEntityDecl(span, id)
		if vd == nil {
			return s.declareStmtLabelOnly(stmt)
		}
	}

	if vd.Type.IsArrayType() {
		s.errorOn(span, "variable '%s' already has a dimension specification", id.Name())
		return s.declareStmtLabelOnly(stmt)
	}
	vd.Type = s.ActOnArraySpec(vd.Type, dims, span)

	return s.declareStmtLabelOnly(stmt)
}

// ActOnEXTERNAL declares external procedure names.
func (s *Sema) ActOnEXTERNAL(span *report.TextSpan, names []*ast.IdentifierInfo, label ast.Expr) ast.Stmt {
	stmt := &ast.ExternalStmt{StmtBase: ast.NewStmtBase(span, label), Names: names}

	for _, id := range names {
		if id.FuncPayload() != nil {
			continue
		}
		_, ret := s.implicitTypeFor(id)
		fd := ast.NewFunctionDecl(s.CurContext, span, id, ret)
		fd.External = true
		s.CurContext.AddDecl(fd)
		id.SetFETokenInfo(fd)
	}

	return s.declareStmtLabelOnly(stmt)
}

// ActOnINTRINSIC declares intrinsic procedure names.
func (s *Sema) ActOnINTRINSIC(span *report.TextSpan, names []*ast.IdentifierInfo, label ast.Expr) ast.Stmt {
	stmt := &ast.IntrinsicStmt{StmtBase: ast.NewStmtBase(span, label), Names: names}

	for _, id := range names {
		ifd := ast.NewIntrinsicFunctionDecl(span, id)
		s.CurContext.AddDecl(ifd)
	}

	return s.declareStmtLabelOnly(stmt)
}

// ActOnStatementFunctionArg declares one dummy argument of a statement
// function.  The declaration is owned by the function, not the enclosing
// context; the parser scopes its payload over the body expression only.
func (s *Sema) ActOnStatementFunctionArg(span *report.TextSpan, id *ast.IdentifierInfo) *ast.VarDecl {
	kind, t := s.implicitTypeFor(id)
	if kind == ImplicitNone {
		s.errorOn(span, "no implicit type for variable '%s'", id.Name())
		t = s.Context.RealTy
	}
	vd := ast.NewVarDecl(span, id, t)
	vd.Kind = ast.VarArgument
	id.SetFETokenInfo(vd)
	return vd
}

// ActOnStatementFunction declares a statement function `name(args) = expr`.
// The body expression is re-evaluated (inlined) at every call site.
func (s *Sema) ActOnStatementFunction(span *report.TextSpan, id *ast.IdentifierInfo,
	argDecls []*ast.VarDecl, body ast.Expr) *ast.FunctionDecl {
	_, ret := s.implicitTypeFor(id)
	if prev := id.VarPayload(); prev != nil && prev.Context() == s.CurContext && !prev.Implicit() {
		ret = prev.Type
	}

	fd := ast.NewFunctionDecl(s.CurContext, span, id, ret)
	fd.Args = argDecls
	fd.BodyExpr = body
	s.CurContext.AddDecl(fd)
	id.SetFETokenInfo(fd)
	return fd
}

// -----------------------------------------------------------------------------
// Assignment

// ActOnAssignmentStmt typechecks `lhs = rhs` per the Fortran assignment
// conversion rules, inserting an intrinsic conversion on the right-hand side
// where the standard requires one.
func (s *Sema) ActOnAssignmentStmt(span *report.TextSpan, lhs, rhs ast.Expr, label ast.Expr) ast.Stmt {
	if lhs == nil || rhs == nil {
		return nil
	}

	lhsType := lhs.Type().SelfOrArrayElement()
	rhsType := rhs.Type().SelfOrArrayElement()

	switch {
	case lhsType.IsIntegerType():
		if rhsType.IsIntegerType() {
		} else if rhsType.IsArithmetic() {
			rhs = ast.NewConversionExpr(s.Context, rhs.Span(), ast.ConvINT, rhs)
		} else {
			return s.assignTypeError(span, lhs, rhs, label)
		}

	case lhsType.IsRealType():
		if rhsType.IsRealType() {
		} else if rhsType.IsArithmetic() {
			rhs = ast.NewConversionExpr(s.Context, rhs.Span(), ast.ConvREAL, rhs)
		} else {
			return s.assignTypeError(span, lhs, rhs, label)
		}

	case lhsType.IsDoublePrecisionType():
		if rhsType.IsDoublePrecisionType() {
		} else if rhsType.IsArithmetic() {
			rhs = ast.NewConversionExpr(s.Context, rhs.Span(), ast.ConvDBLE, rhs)
		} else {
			return s.assignTypeError(span, lhs, rhs, label)
		}

	case lhsType.IsComplexType():
		if rhsType.IsComplexType() {
		} else if rhsType.IsArithmetic() {
			rhs = ast.NewConversionExpr(s.Context, rhs.Span(), ast.ConvCMPLX, rhs)
		} else {
			return s.assignTypeError(span, lhs, rhs, label)
		}

	case lhsType.IsLogicalType():
		if !rhsType.IsLogicalType() {
			return s.assignTypeError(span, lhs, rhs, label)
		}

	case lhsType.IsCharacterType():
		if !rhsType.IsCharacterType() {
			return s.assignTypeError(span, lhs, rhs, label)
		}

	default:
		return s.assignTypeError(span, lhs, rhs, label)
	}

	stmt := &ast.AssignmentStmt{StmtBase: ast.NewStmtBase(span, label), LHS: lhs, RHS: rhs}
	return s.finishStmt(stmt)
}

func (s *Sema) assignTypeError(span *report.TextSpan, lhs, rhs ast.Expr, label ast.Expr) ast.Stmt {
	s.errorOn(span, "incompatible types in assignment ('%s' and '%s')",
		lhs.Type(), rhs.Type())
	if label != nil {
		// Still declare the label so later references resolve.
		cont := &ast.ContinueStmt{StmtBase: ast.NewStmtBase(span, label)}
		return s.finishStmt(cont)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Label-driven control flow

// ActOnAssignStmt builds `ASSIGN label TO var`.
func (s *Sema) ActOnAssignStmt(span *report.TextSpan, value ast.Expr, varRef *ast.VarExpr, label ast.Expr) ast.Stmt {
	stmt := &ast.AssignStmt{StmtBase: ast.NewStmtBase(span, label), Var: varRef}
	if decl := s.stmtLabels.Resolve(value); decl != nil {
		stmt.Address = ast.StmtLabelReference{Statement: decl}
	} else {
		s.stmtLabels.DeclareForwardReference(ForwardDecl{
			StmtLabel: value,
			Statement: stmt,
			Kind:      ResolveAssign,
		})
	}
	return s.finishStmt(stmt)
}

// ActOnGotoStmt builds `GO TO label`.
func (s *Sema) ActOnGotoStmt(span *report.TextSpan, destination ast.Expr, label ast.Expr) ast.Stmt {
	stmt := &ast.GotoStmt{StmtBase: ast.NewStmtBase(span, label)}
	if decl := s.stmtLabels.Resolve(destination); decl != nil {
		stmt.Destination = ast.StmtLabelReference{Statement: decl}
	} else {
		s.stmtLabels.DeclareForwardReference(ForwardDecl{
			StmtLabel: destination,
			Statement: stmt,
			Kind:      ResolveGoto,
		})
	}
	return s.finishStmt(stmt)
}

// ActOnAssignedGotoStmt builds `GO TO var (labels)`.
func (s *Sema) ActOnAssignedGotoStmt(span *report.TextSpan, varRef *ast.VarExpr,
	allowedValues []ast.Expr, label ast.Expr) ast.Stmt {
	stmt := &ast.AssignedGotoStmt{
		StmtBase:      ast.NewStmtBase(span, label),
		Var:           varRef,
		AllowedValues: allowedValues,
		AllowedLabels: make([]ast.StmtLabelReference, len(allowedValues)),
	}

	for i, value := range allowedValues {
		if decl := s.stmtLabels.Resolve(value); decl != nil {
			stmt.AllowedLabels[i] = ast.StmtLabelReference{Statement: decl}
		} else {
			s.stmtLabels.DeclareForwardReference(ForwardDecl{
				StmtLabel: value,
				Statement: stmt,
				Kind:      ResolveAssignedGoto,
				Index:     i,
			})
		}
	}

	return s.finishStmt(stmt)
}

// -----------------------------------------------------------------------------
// IF construct

func (s *Sema) checkLogicalCondition(cond ast.Expr) bool {
	if cond == nil {
		return false
	}
	if !cond.Type().SelfOrArrayElement().IsLogicalType() || cond.Type().IsArrayType() {
		s.errorOn(cond.Span(), "expected a logical expression, found '%s'", cond.Type())
		return false
	}
	return true
}

// ActOnIfStmt builds a logical IF statement: `IF (cond) stmt`.  The body
// statement has already been built and appended; it is re-homed under the IF.
func (s *Sema) ActOnIfStmt(span *report.TextSpan, condition ast.Expr, body ast.Stmt, label ast.Expr) ast.Stmt {
	if !s.checkLogicalCondition(condition) {
		return nil
	}
	stmt := &ast.IfStmt{StmtBase: ast.NewStmtBase(span, label), Condition: condition}
	stmt.SetThen(body)
	return s.finishStmt(stmt)
}

// ActOnBlockIfStmt opens a block IF construct: `IF (cond) THEN`.
func (s *Sema) ActOnBlockIfStmt(span *report.TextSpan, condition ast.Expr, label ast.Expr) ast.Stmt {
	if !s.checkLogicalCondition(condition) {
		condition = ast.NewLogicalConstantExpr(s.Context, span, false)
	}
	stmt := &ast.IfStmt{StmtBase: ast.NewStmtBase(span, label), Condition: condition}
	s.finishStmt(stmt)

	s.ifStack = append(s.ifStack, &ifFrame{stmt: stmt})
	s.listStack = append(s.listStack, &stmtList{})
	return stmt
}

// ActOnElseIfStmt handles `ELSE IF (cond) THEN`: the previous IF's else arm
// becomes a fresh IF which takes its place on the stack.
func (s *Sema) ActOnElseIfStmt(span *report.TextSpan, condition ast.Expr, label ast.Expr) ast.Stmt {
	if len(s.ifStack) == 0 {
		s.errorOn(span, "ELSE IF statement not in IF construct")
		return nil
	}
	if !s.checkLogicalCondition(condition) {
		condition = ast.NewLogicalConstantExpr(s.Context, span, false)
	}

	frame := s.ifStack[len(s.ifStack)-1]
	s.sealIfArm(frame, span)

	next := &ast.IfStmt{StmtBase: ast.NewStmtBase(span, label), Condition: condition}
	frame.stmt.SetElse(next)
	frame.stmt = next
	frame.inElse = false

	s.listStack = append(s.listStack, &stmtList{})
	return s.declareStmtLabelOnly(next)
}

// ActOnElseStmt handles `ELSE`.
func (s *Sema) ActOnElseStmt(span *report.TextSpan, label ast.Expr) ast.Stmt {
	if len(s.ifStack) == 0 {
		s.errorOn(span, "ELSE statement not in IF construct")
		return nil
	}

	frame := s.ifStack[len(s.ifStack)-1]
	if frame.inElse {
		s.errorOn(span, "duplicate ELSE in IF construct")
		return nil
	}
	s.sealIfArm(frame, span)
	frame.inElse = true
	s.listStack = append(s.listStack, &stmtList{})

	stmt := &ast.ElseStmt{StmtBase: ast.NewStmtBase(span, label)}
	return s.declareStmtLabelOnly(stmt)
}

// ActOnEndIfStmt handles `END IF`, closing the construct.
func (s *Sema) ActOnEndIfStmt(span *report.TextSpan, label ast.Expr) ast.Stmt {
	if len(s.ifStack) == 0 {
		s.errorOn(span, "END IF statement not in IF construct")
		return nil
	}

	frame := s.ifStack[len(s.ifStack)-1]
	s.sealIfArm(frame, span)
	s.ifStack = s.ifStack[:len(s.ifStack)-1]

	stmt := &ast.EndIfStmt{StmtBase: ast.NewStmtBase(span, label)}
	return s.declareStmtLabelOnly(stmt)
}

// sealIfArm pops the open statement list and attaches it as the then- or
// else-arm of the frame's IF.
func (s *Sema) sealIfArm(frame *ifFrame, span *report.TextSpan) {
	list := s.listStack[len(s.listStack)-1]
	s.listStack = s.listStack[:len(s.listStack)-1]

	block := ast.NewBlockStmt(span, list.stmts)
	if frame.inElse {
		frame.stmt.SetElse(block)
	} else {
		frame.stmt.SetThen(block)
	}
}

// -----------------------------------------------------------------------------
// DO construct

// isValidDoLogicalIfThenStmt checks the extra constraint on a logical IF used
// as a DO terminator: its body statement must not be a DO, block IF, ELSE IF,
// ELSE, END IF, END, or another logical IF.
func isValidDoLogicalIfThenStmt(stmt ast.Stmt) bool {
	switch stmt.(type) {
	case *ast.DoStmt, *ast.IfStmt, *ast.ElseStmt, *ast.EndIfStmt, *ast.EndProgramStmt:
		return false
	default:
		return true
	}
}

// isValidDoTerminatingStmt checks the DO terminator constraint: the terminal
// statement must not be a GOTO, assigned GOTO, block IF, ELSE IF, ELSE,
// END IF, RETURN, STOP, END, or DO statement.
func isValidDoTerminatingStmt(stmt ast.Stmt) bool {
	switch v := stmt.(type) {
	case *ast.GotoStmt, *ast.AssignedGotoStmt, *ast.StopStmt, *ast.DoStmt,
		*ast.ElseStmt, *ast.EndIfStmt, *ast.EndProgramStmt:
		return false
	case *ast.IfStmt:
		// A block IF (then-arm is a block) is invalid; a logical IF is
		// subject to the body-statement constraint.
		if _, isBlock := v.Then.(*ast.BlockStmt); isBlock || v.Then == nil {
			return false
		}
		return isValidDoLogicalIfThenStmt(v.Then)
	default:
		return true
	}
}

// expectDoExpr checks that a DO control expression is INTEGER, REAL, or
// DOUBLE PRECISION.
func (s *Sema) expectDoExpr(e ast.Expr, what string) bool {
	t := e.Type()
	if t.IsIntegerType() || t.IsRealType() || t.IsDoublePrecisionType() {
		return true
	}
	s.errorOn(e.Span(), "expected an integer, real, or double precision %s, found '%s'", what, t)
	return false
}

// applyDoConversion converts a DO control expression to the loop variable's
// type.
func (s *Sema) applyDoConversion(e ast.Expr, t types.QualType) ast.Expr {
	switch {
	case t.IsIntegerType():
		if e.Type().IsIntegerType() {
			return e
		}
		return ast.NewConversionExpr(s.Context, e.Span(), ast.ConvINT, e)
	case t.IsRealType():
		if e.Type().IsRealType() {
			return e
		}
		return ast.NewConversionExpr(s.Context, e.Span(), ast.ConvREAL, e)
	default:
		if e.Type().IsDoublePrecisionType() {
			return e
		}
		return ast.NewConversionExpr(s.Context, e.Span(), ast.ConvDBLE, e)
	}
}

// ActOnDoStmt builds a label-terminated DO statement.
func (s *Sema) ActOnDoStmt(span *report.TextSpan, terminatingLabel ast.Expr,
	doVar *ast.VarExpr, initial, final, step ast.Expr, label ast.Expr) ast.Stmt {
	if doVar == nil || initial == nil || final == nil {
		return nil
	}

	ok := s.expectDoExpr(doVar, "DO variable")
	ok = s.expectDoExpr(initial, "expression") && ok
	ok = s.expectDoExpr(final, "expression") && ok
	if step != nil {
		ok = s.expectDoExpr(step, "expression") && ok
	}
	if !ok {
		return nil
	}

	initial = s.applyDoConversion(initial, doVar.Type())
	final = s.applyDoConversion(final, doVar.Type())
	if step != nil {
		step = s.applyDoConversion(step, doVar.Type())
	}

	// The terminating statement must be declared after the DO.
	if s.stmtLabels.Resolve(terminatingLabel) != nil {
		s.errorOn(terminatingLabel.Span(),
			"statement label '%s' must be declared after the DO statement",
			ast.PrintExpr(terminatingLabel))
		return nil
	}

	stmt := &ast.DoStmt{
		StmtBase:         ast.NewStmtBase(span, label),
		TerminatingLabel: terminatingLabel,
		DoVar:            doVar,
		Init:             initial,
		Final:            final,
		Step:             step,
	}
	s.stmtLabels.DeclareForwardReference(ForwardDecl{
		StmtLabel: terminatingLabel,
		Statement: stmt,
		Kind:      ResolveDo,
	})
	s.doStmtList = append(s.doStmtList, stmt)

	s.finishStmt(stmt)
	cur := s.listStack[len(s.listStack)-1]
	s.doStack = append(s.doStack, &doFrame{
		stmt:  stmt,
		start: len(cur.stmts) - 1,
		label: StmtLabelValue(terminatingLabel),
		depth: len(s.listStack),
	})
	return stmt
}

// -----------------------------------------------------------------------------
// Simple executable statements

// ActOnCallStmt builds `CALL name(args)`, implicitly declaring the
// subroutine on first reference.
func (s *Sema) ActOnCallStmt(span *report.TextSpan, id *ast.IdentifierInfo, args []ast.Expr, label ast.Expr) ast.Stmt {
	for _, a := range args {
		if a == nil {
			return nil
		}
	}

	sub, _ := id.FETokenInfo().(*ast.SubroutineDecl)
	if sub == nil {
		if id.VarPayload() != nil || id.FuncPayload() != nil {
			s.errorOn(span, "'%s' is not a subroutine", id.Name())
			return nil
		}
		sub = ast.NewSubroutineDecl(s.findUnitParent(), span, id)
		sub.SetImplicit()
		for _, a := range args {
			arg := ast.NewVarDecl(a.Span(), id, a.Type())
			arg.Kind = ast.VarArgument
			sub.Args = append(sub.Args, arg)
		}
		s.findUnitParent().AddDecl(sub)
		id.SetFETokenInfo(sub)
	}

	if len(args) != len(sub.Args) {
		s.errorOn(span, "expected %d arguments to '%s', found %d",
			len(sub.Args), sub.Name(), len(args))
		return nil
	}

	stmt := &ast.CallStmt{StmtBase: ast.NewStmtBase(span, label), Subroutine: sub, Args: args}
	return s.finishStmt(stmt)
}

// findUnitParent returns the context implicit external procedures are
// declared in: the translation unit.
func (s *Sema) findUnitParent() *ast.DeclContext {
	dc := s.CurContext
	for dc.Parent() != nil {
		dc = dc.Parent()
	}
	return dc
}

// ActOnContinueStmt builds a CONTINUE statement.
func (s *Sema) ActOnContinueStmt(span *report.TextSpan, label ast.Expr) ast.Stmt {
	return s.finishStmt(&ast.ContinueStmt{StmtBase: ast.NewStmtBase(span, label)})
}

// ActOnStopStmt builds a STOP statement.
func (s *Sema) ActOnStopStmt(span *report.TextSpan, code ast.Expr, label ast.Expr) ast.Stmt {
	return s.finishStmt(&ast.StopStmt{StmtBase: ast.NewStmtBase(span, label), Code: code})
}

// ActOnPrintStmt builds a PRINT statement.
func (s *Sema) ActOnPrintStmt(span *report.TextSpan, format *ast.FormatSpec, items []ast.Expr, label ast.Expr) ast.Stmt {
	return s.finishStmt(&ast.PrintStmt{StmtBase: ast.NewStmtBase(span, label), Format: format, Items: items})
}

// -----------------------------------------------------------------------------
// WHERE construct

func (s *Sema) checkWhereMask(mask ast.Expr) bool {
	if mask == nil {
		return false
	}
	at := mask.Type().AsArray()
	if at == nil || !at.Element.IsLogicalType() {
		s.errorOn(mask.Span(), "expected a logical array expression, found '%s'", mask.Type())
		return false
	}
	return true
}

// ActOnWhereStmt builds the single-statement WHERE form:
// `WHERE (mask) assignment`.
func (s *Sema) ActOnWhereStmt(span *report.TextSpan, mask ast.Expr, body ast.Stmt, label ast.Expr) ast.Stmt {
	if !s.checkWhereMask(mask) {
		return nil
	}
	stmt := &ast.WhereStmt{StmtBase: ast.NewStmtBase(span, label), Mask: mask}
	stmt.SetThen(body)
	return s.finishStmt(stmt)
}

// ActOnWhereConstruct opens a WHERE construct.
func (s *Sema) ActOnWhereConstruct(span *report.TextSpan, mask ast.Expr, label ast.Expr) ast.Stmt {
	if !s.checkWhereMask(mask) {
		mask = nil
	}
	stmt := &ast.WhereStmt{StmtBase: ast.NewStmtBase(span, label), Mask: mask}
	s.finishStmt(stmt)
	s.whereStack = append(s.whereStack, stmt)
	s.listStack = append(s.listStack, &stmtList{})
	return stmt
}

// ActOnElseWhereStmt handles `ELSEWHERE`.
func (s *Sema) ActOnElseWhereStmt(span *report.TextSpan, label ast.Expr) ast.Stmt {
	if len(s.whereStack) == 0 {
		s.errorOn(span, "ELSEWHERE statement not in WHERE construct")
		return nil
	}

	where := s.whereStack[len(s.whereStack)-1]
	list := s.listStack[len(s.listStack)-1]
	s.listStack = s.listStack[:len(s.listStack)-1]
	where.SetThen(ast.NewBlockStmt(span, list.stmts))

	s.listStack = append(s.listStack, &stmtList{})
	stmt := &ast.ConstructPartStmt{StmtBase: ast.NewStmtBase(span, label), Part: ast.ConstructElseWhere}
	return s.declareStmtLabelOnly(stmt)
}

// ActOnEndWhereStmt handles `END WHERE`, closing the construct.
func (s *Sema) ActOnEndWhereStmt(span *report.TextSpan, label ast.Expr) ast.Stmt {
	if len(s.whereStack) == 0 {
		s.errorOn(span, "END WHERE statement not in WHERE construct")
		return nil
	}

	where := s.whereStack[len(s.whereStack)-1]
	s.whereStack = s.whereStack[:len(s.whereStack)-1]

	list := s.listStack[len(s.listStack)-1]
	s.listStack = s.listStack[:len(s.listStack)-1]
	block := ast.NewBlockStmt(span, list.stmts)
	if where.Then == nil {
		where.SetThen(block)
	} else {
		where.SetElse(block)
	}

	stmt := &ast.ConstructPartStmt{StmtBase: ast.NewStmtBase(span, label), Part: ast.ConstructEndWhere}
	return s.declareStmtLabelOnly(stmt)
}
