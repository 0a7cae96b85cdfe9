package sema

import (
	"fortc/ast"
	"fortc/report"
	"fortc/types"
)

// Sema performs semantic analysis and builds the AST out of the parse stream.
// The parser never constructs AST nodes directly: every statement production
// calls the matching Act* action here.  Sema owns the declaration context
// stack, the statement label scope, the implicit typing scopes, and the open
// construct stacks of the unit being analyzed.
type Sema struct {
	Context *types.Context

	// The path of the source buffer, for diagnostics.
	Path string

	// The translation unit being built.
	TU *ast.TranslationUnitDecl

	// The current declaration context.
	CurContext *ast.DeclContext

	stmtLabels    *StmtLabelScope
	implicitScope *ImplicitTypingScope

	// Open block IF constructs of the current unit.
	ifStack []*ifFrame

	// Open WHERE constructs of the current unit.
	whereStack []*ast.WhereStmt

	// Every label-terminated DO of the current unit, for terminator
	// validation at end of unit.
	doStmtList []*ast.DoStmt

	// Open label-terminated DOs awaiting their terminating statement.
	doStack []*doFrame

	// The statement list stack: statements are appended to the innermost
	// open list (unit body, IF arm, DO body, WHERE arm).
	listStack []*stmtList
}

type stmtList struct {
	stmts []ast.Stmt
}

type ifFrame struct {
	stmt   *ast.IfStmt
	inElse bool
}

type doFrame struct {
	stmt  *ast.DoStmt
	start int // index into the enclosing list where the DO sits
	label int64
	depth int // the list-stack depth the DO was opened at
}

// NewSema creates the semantic analyzer for one translation unit.
func NewSema(ctx *types.Context, path string) *Sema {
	return &Sema{
		Context:    ctx,
		Path:       path,
		stmtLabels: NewStmtLabelScope(),
	}
}

func (s *Sema) errorOn(span *report.TextSpan, msg string, args ...interface{}) {
	report.ReportError(s.Path, span, msg, args...)
}

func (s *Sema) noteOn(span *report.TextSpan, msg string, args ...interface{}) {
	report.ReportNote(s.Path, span, msg, args...)
}

// -----------------------------------------------------------------------------
// Declaration contexts

// PushDeclContext enters a child declaration context.  The new context must be
// lexically contained in the current one.
func (s *Sema) PushDeclContext(dc *ast.DeclContext) {
	if dc.Parent() != s.CurContext {
		report.ReportICE("pushed DeclContext is not contained in the current one")
	}
	s.CurContext = dc
}

// PopDeclContext leaves the current declaration context.
func (s *Sema) PopDeclContext() {
	if s.CurContext == nil {
		report.ReportICE("DeclContext imbalance")
	}
	s.CurContext = s.CurContext.Parent()
	if s.CurContext == nil {
		report.ReportICE("popped translation unit context")
	}
}

// ActOnTranslationUnit starts a translation unit.
func (s *Sema) ActOnTranslationUnit() {
	s.TU = ast.NewTranslationUnitDecl()
	s.CurContext = &s.TU.DeclContext
	s.implicitScope = NewImplicitTypingScope(nil)
}

// ActOnEndTranslationUnit finishes the translation unit.
func (s *Sema) ActOnEndTranslationUnit() {}

// -----------------------------------------------------------------------------
// Program units

// pushExecutableProgramUnit enters a new executable unit: fresh statement
// label scope, fresh construct stacks.
func (s *Sema) pushExecutableProgramUnit() {
	if !s.stmtLabels.Empty() {
		report.ReportICE("statement label scope not empty at unit start")
	}
	s.implicitScope = NewImplicitTypingScope(s.implicitScope)
	s.listStack = []*stmtList{{}}
}

// popExecutableProgramUnit resolves forward label references, diagnoses
// unterminated constructs, and validates DO terminators.  It returns the
// collected unit body.
func (s *Sema) popExecutableProgramUnit(loc *report.TextSpan) []ast.Stmt {
	// Fix the forward statement label references, in insertion order.
	for _, fwd := range s.stmtLabels.ForwardDecls() {
		if decl := s.stmtLabels.Resolve(fwd.StmtLabel); decl != nil {
			fwd.resolve(decl)
		} else {
			s.errorOn(fwd.StmtLabel.Span(), "use of undeclared statement label '%s'",
				ast.PrintExpr(fwd.StmtLabel))
		}
	}
	s.stmtLabels.Reset()

	// Unterminated IF constructs.
	for range s.ifStack {
		s.errorOn(loc, "expected END IF")
	}
	s.ifStack = nil
	s.whereStack = nil

	// Close any DO left open by an undeclared terminating label.
	for len(s.doStack) > 0 {
		s.closeTopDo()
	}

	// Check the terminating statement constraint of every DO.
	for _, do := range s.doStmtList {
		if term := do.TerminatingStmt.Statement; term != nil {
			if !isValidDoTerminatingStmt(term) {
				s.errorOn(term.Span(), "invalid DO terminating statement")
			}
		} // else - error was already reported.
	}
	s.doStmtList = nil

	s.implicitScope = s.implicitScope.parent

	body := s.listStack[0].stmts
	s.listStack = nil
	return body
}

// ActOnMainProgram starts a main program unit.
func (s *Sema) ActOnMainProgram(span *report.TextSpan, id *ast.IdentifierInfo) *ast.MainProgramDecl {
	mp := ast.NewMainProgramDecl(s.CurContext, span, id)
	s.CurContext.AddDecl(mp)
	s.PushDeclContext(&mp.DeclContext)
	s.pushExecutableProgramUnit()
	return mp
}

// ActOnEndMainProgram finishes a main program, checking the END PROGRAM name
// against the PROGRAM name.
func (s *Sema) ActOnEndMainProgram(loc *report.TextSpan, endID *ast.IdentifierInfo, endLoc *report.TextSpan) {
	mp, ok := s.CurContext.Owner().(*ast.MainProgramDecl)
	if !ok {
		report.ReportICE("END PROGRAM outside of a main program context")
	}

	if endID != nil && mp.Name() != "" && mp.Name() != endID.Name() {
		s.errorOn(endLoc, "expected label '%s' for END PROGRAM statement", mp.Name())
	}

	mp.Body = s.popExecutableProgramUnit(loc)
	s.clearLocalPayloads()
	s.PopDeclContext()
}

// ActOnSubroutine starts a SUBROUTINE unit and declares its dummy arguments.
func (s *Sema) ActOnSubroutine(span *report.TextSpan, id *ast.IdentifierInfo, argIDs []*ast.IdentifierInfo) *ast.SubroutineDecl {
	sd := ast.NewSubroutineDecl(s.CurContext, span, id)
	s.CurContext.AddDecl(sd)
	id.SetFETokenInfo(sd)
	s.PushDeclContext(&sd.DeclContext)
	s.pushExecutableProgramUnit()

	for _, argID := range argIDs {
		vd := s.declareArgument(span, argID)
		sd.Args = append(sd.Args, vd)
	}
	return sd
}

// ActOnEndSubroutine finishes a SUBROUTINE unit.
func (s *Sema) ActOnEndSubroutine(loc *report.TextSpan) {
	sd, ok := s.CurContext.Owner().(*ast.SubroutineDecl)
	if !ok {
		report.ReportICE("END SUBROUTINE outside of a subroutine context")
	}
	sd.Body = s.popExecutableProgramUnit(loc)
	s.clearLocalPayloads()
	s.PopDeclContext()
}

// ActOnFunction starts a FUNCTION unit.  The return type may be null when no
// type prefix was given; it is then implicitly typed from the function name.
func (s *Sema) ActOnFunction(span *report.TextSpan, id *ast.IdentifierInfo, ret types.QualType, argIDs []*ast.IdentifierInfo) *ast.FunctionDecl {
	if ret.IsNull() {
		_, ret = s.implicitTypeFor(id)
	}
	fd := ast.NewFunctionDecl(s.CurContext, span, id, ret)
	s.CurContext.AddDecl(fd)
	id.SetFETokenInfo(fd)
	s.PushDeclContext(&fd.DeclContext)
	s.pushExecutableProgramUnit()

	for _, argID := range argIDs {
		vd := s.declareArgument(span, argID)
		fd.Args = append(fd.Args, vd)
	}
	return fd
}

// ActOnEndFunction finishes a FUNCTION unit.
func (s *Sema) ActOnEndFunction(loc *report.TextSpan) {
	fd, ok := s.CurContext.Owner().(*ast.FunctionDecl)
	if !ok {
		report.ReportICE("END FUNCTION outside of a function context")
	}
	fd.Body = s.popExecutableProgramUnit(loc)
	s.clearLocalPayloads()
	s.PopDeclContext()
}

// declareArgument declares a dummy argument with its implicit type; a later
// type declaration statement retypes it in place.
func (s *Sema) declareArgument(span *report.TextSpan, id *ast.IdentifierInfo) *ast.VarDecl {
	_, t := s.implicitTypeFor(id)
	vd := ast.NewVarDecl(span, id, t)
	vd.Kind = ast.VarArgument
	vd.SetImplicit()
	s.CurContext.AddDecl(vd)
	id.SetFETokenInfo(vd)
	return vd
}

// clearLocalPayloads drops the front-end token payloads of the entities
// declared in the unit being closed: a payload is valid only within its
// declaration's scope.
func (s *Sema) clearLocalPayloads() {
	for _, d := range s.CurContext.Decls() {
		switch v := d.(type) {
		case *ast.VarDecl:
			if v.ID.VarPayload() == v {
				v.ID.SetFETokenInfo(nil)
			}
		case *ast.FunctionDecl:
			// Statement functions are unit-local.
			if v.IsStatementFunction() && v.ID.FuncPayload() == v {
				v.ID.SetFETokenInfo(nil)
			}
		}
	}

	// The unit's own name stays bound for the units that follow.
	switch owner := s.CurContext.Owner().(type) {
	case *ast.FunctionDecl:
		owner.ID.SetFETokenInfo(owner)
	case *ast.SubroutineDecl:
		owner.ID.SetFETokenInfo(owner)
	case *ast.MainProgramDecl:
		if owner.ID != nil {
			owner.ID.SetFETokenInfo(owner)
		}
	}
}

// -----------------------------------------------------------------------------
// Statement labels

// DeclareStatementLabel declares a statement's numeric label, rejecting
// duplicates.
func (s *Sema) DeclareStatementLabel(label ast.Expr, stmt ast.Stmt) {
	if s.stmtLabels.Resolve(label) != nil {
		s.errorOn(label.Span(), "redefinition of statement label '%s'", ast.PrintExpr(label))
		return
	}
	s.stmtLabels.Declare(label, stmt)
}

// appendStmt appends a built statement to the innermost open statement list
// and performs DO-termination bookkeeping.  Nil (error sentinel) statements
// are tolerated and dropped.
func (s *Sema) appendStmt(stmt ast.Stmt) {
	if stmt == nil || len(s.listStack) == 0 {
		return
	}
	cur := s.listStack[len(s.listStack)-1]
	cur.stmts = append(cur.stmts, stmt)

	// A labeled statement may terminate one or more open DO loops (multiple
	// nested DOs may share a terminator).
	if stmt.Label() != nil {
		label := StmtLabelValue(stmt.Label())
		for len(s.doStack) > 0 {
			top := s.doStack[len(s.doStack)-1]
			if top.label != label || top.depth != len(s.listStack) {
				break
			}
			s.closeTopDo()
		}
	}
}

// closeTopDo splits the statements following the top DO off into its body.
func (s *Sema) closeTopDo() {
	top := s.doStack[len(s.doStack)-1]
	s.doStack = s.doStack[:len(s.doStack)-1]

	cur := s.listStack[len(s.listStack)-1]
	if top.start+1 <= len(cur.stmts) {
		body := append([]ast.Stmt(nil), cur.stmts[top.start+1:]...)
		cur.stmts = cur.stmts[:top.start+1]
		top.stmt.Body = ast.NewBlockStmt(top.stmt.Span(), body)
	}
}

// CurrentLabelScope exposes the statement label scope (used by tests and the
// parser's DO handling).
func (s *Sema) CurrentLabelScope() *StmtLabelScope { return s.stmtLabels }

// BeginInlineStmt opens a detached statement list for the body of a logical
// IF or single-statement WHERE: the body action runs normally but its result
// is claimed by the enclosing statement instead of the current list.
func (s *Sema) BeginInlineStmt() {
	s.listStack = append(s.listStack, &stmtList{})
}

// EndInlineStmt closes the detached list and returns the single collected
// statement (nil if the body failed).
func (s *Sema) EndInlineStmt() ast.Stmt {
	list := s.listStack[len(s.listStack)-1]
	s.listStack = s.listStack[:len(s.listStack)-1]
	if len(list.stmts) == 0 {
		return nil
	}
	return list.stmts[0]
}

// -----------------------------------------------------------------------------
// Types and entities

// ActOnTypeName reduces a collected DeclSpec to a QualType.
func (s *Sema) ActOnTypeName(ds *DeclSpec) types.QualType {
	var result types.QualType
	switch ds.TypeSpec() {
	case types.TSInteger:
		result = s.Context.IntegerTy
	case types.TSReal:
		result = s.Context.RealTy
	case types.TSDoublePrecision:
		result = s.Context.DoublePrecisionTy
	case types.TSCharacter:
		result = s.Context.CharacterTy
	case types.TSLogical:
		result = s.Context.LogicalTy
	case types.TSComplex:
		result = s.Context.ComplexTy
	}

	if ds.Kind != nil || ds.Len != nil {
		var kind, length types.Expr
		if ds.Kind != nil {
			kind = ds.Kind
		}
		if ds.Len != nil {
			length = ds.Len
		}
		result = types.NewQualType(s.Context.GetBuiltinType(ds.TypeSpec(), kind, length))
	}

	if ds.HasAttributes() {
		var quals types.Qualifiers
		quals.AddAPV(ds.APV)
		quals.SetExtAttr(ds.ExtAttr)
		quals.SetIntent(ds.Intent)
		result = s.Context.GetQualifiedType(result.TypePtr(), quals)
	}

	if !ds.HasDimensions() {
		return result
	}
	return s.ActOnArraySpec(result, ds.Dims, ds.Span)
}

// ActOnArraySpec validates dimension declarators and wraps the element type
// in an array type.  Bounds must be integer constant expressions; the
// assumed-size `*` may only be the last dimension.
func (s *Sema) ActOnArraySpec(elem types.QualType, dims []types.DimSpec, loc *report.TextSpan) types.QualType {
	for i, d := range dims {
		if d.Star {
			if i != len(dims)-1 {
				// Report on a bound of a neighbouring dimension when
				// available; the star itself carries no expression.
				span := s.dimSpan(dims, i)
				if span == nil {
					span = loc
				}
				s.errorOn(span,
					"dimension declarator '*' must be used only in the last dimension")
			}
			continue
		}

		for _, bound := range []types.Expr{d.Lower, d.Upper} {
			if bound == nil {
				continue
			}
			e := bound.(ast.Expr)
			if !e.Type().IsIntegerType() || !ast.IsConstExpr(e) {
				s.errorOn(e.Span(), "expected an integer constant expression")
			} else if _, ok := ast.EvaluateAsInt(e); !ok {
				s.errorOn(e.Span(), "overflow in constant expression")
			}
		}
	}

	return types.NewQualType(s.Context.GetArrayType(elem, dims))
}

func (s *Sema) dimSpan(dims []types.DimSpec, i int) *report.TextSpan {
	for j := i; j >= 0; j-- {
		if dims[j].Upper != nil {
			return dims[j].Upper.Span()
		}
	}
	for j := i; j < len(dims); j++ {
		if dims[j].Upper != nil {
			return dims[j].Upper.Span()
		}
	}
	return nil
}

// ActOnEntityDecl declares one entity of a type declaration statement.
func (s *Sema) ActOnEntityDecl(ds *DeclSpec, span *report.TextSpan, id *ast.IdentifierInfo) *ast.VarDecl {
	if prev := id.VarPayload(); prev != nil {
		if prev.Context() == s.CurContext {
			// Retyping a dummy argument that only carried its implicit type
			// is a declaration, not a redeclaration.
			if prev.IsArgument() && prev.Implicit() {
				prev.Type = s.ActOnTypeName(ds)
				return prev
			}
			s.errorOn(span, "variable '%s' already declared", id.Name())
			s.noteOn(prev.Span(), "previous declaration")
			return nil
		}
	}

	t := s.ActOnTypeName(ds)
	vd := ast.NewVarDecl(span, id, t)
	s.CurContext.AddDecl(vd)
	id.SetFETokenInfo(vd)
	return vd
}

// implicitTypeFor resolves the implicit type of an identifier from the
// current IMPLICIT scope chain, falling back to the standard default:
// I..N => INTEGER, otherwise REAL.
func (s *Sema) implicitTypeFor(id *ast.IdentifierInfo) (ImplicitRuleKind, types.QualType) {
	kind, t := s.implicitScope.Resolve(id)
	switch kind {
	case ImplicitTypeRule:
		return kind, t
	case ImplicitNone:
		return kind, types.QualType{}
	default:
		letter := upperByte(id.Name()[0])
		if letter >= 'I' && letter <= 'N' {
			return kind, s.Context.IntegerTy
		}
		return kind, s.Context.RealTy
	}
}

// ActOnImplicitEntityDecl synthesizes a declaration for a bare identifier
// referenced without one.
func (s *Sema) ActOnImplicitEntityDecl(span *report.TextSpan, id *ast.IdentifierInfo) *ast.VarDecl {
	kind, t := s.implicitTypeFor(id)
	if kind == ImplicitNone {
		s.errorOn(span, "no implicit type for variable '%s'", id.Name())
		return nil
	}

	vd := ast.NewVarDecl(span, id, t)
	vd.SetImplicit()
	s.CurContext.AddDecl(vd)
	id.SetFETokenInfo(vd)
	return vd
}
