package ast

import (
	"fortc/report"
	"fortc/types"
)

// Stmt is the interface implemented by all statement nodes.
type Stmt interface {
	Span() *report.TextSpan

	// Label returns the statement's numeric label expression, or nil.
	Label() Expr
}

// StmtBase carries the state common to all statements.
type StmtBase struct {
	span  *report.TextSpan
	label Expr
}

// NewStmtBase creates a statement base with an optional statement label.
func NewStmtBase(span *report.TextSpan, label Expr) StmtBase {
	return StmtBase{span: span, label: label}
}

func (sb *StmtBase) Span() *report.TextSpan { return sb.span }
func (sb *StmtBase) Label() Expr            { return sb.label }

// StmtLabelReference is a resolved or not-yet-resolved reference to a labeled
// statement.  Forward references start out empty and are patched by the label
// scope's resolve callbacks at end of unit.
type StmtLabelReference struct {
	Statement Stmt
}

// -----------------------------------------------------------------------------

// ProgramStmt is the PROGRAM statement opening a main program.
type ProgramStmt struct {
	StmtBase

	Name *IdentifierInfo // nil for an unnamed program
}

// EndProgramStmt is the END / END PROGRAM statement.
type EndProgramStmt struct {
	StmtBase

	Name *IdentifierInfo // name after END PROGRAM, or nil
}

// ModuleNature is the nature prefix of a USE statement.
type ModuleNature int

const (
	ModuleNatureNone ModuleNature = iota
	ModuleNatureIntrinsic
	ModuleNatureNonIntrinsic
)

// UseStmt is a USE statement (parsed-only; module resolution is out of
// scope).
type UseStmt struct {
	StmtBase

	Nature     ModuleNature
	ModuleName *IdentifierInfo
	Only       bool
	Renames    [][2]*IdentifierInfo
}

// ImportStmt is an IMPORT statement.
type ImportStmt struct {
	StmtBase

	Names []*IdentifierInfo
}

// LetterSpec is a single letter or letter range of an IMPLICIT statement.
type LetterSpec struct {
	First, Last byte // Last == 0 for a single letter
}

// ImplicitStmt is an IMPLICIT statement: either IMPLICIT NONE or a type with
// letter specs.
type ImplicitStmt struct {
	StmtBase

	// None is true for IMPLICIT NONE; Type and Letters are unset then.
	None    bool
	Type    types.QualType
	Letters []LetterSpec
}

// ParamPair is a single `name = constant-expr` of a PARAMETER statement.
type ParamPair struct {
	Name  *IdentifierInfo
	Value Expr
}

// ParameterStmt is a PARAMETER statement.
type ParameterStmt struct {
	StmtBase

	Params []ParamPair
}

// AsynchronousStmt is an ASYNCHRONOUS statement.
type AsynchronousStmt struct {
	StmtBase

	Names []*IdentifierInfo
}

// DimensionStmt attaches an array spec to a previously typed entity.
type DimensionStmt struct {
	StmtBase

	Name *IdentifierInfo
	Dims []types.DimSpec
}

// ExternalStmt is an EXTERNAL statement.
type ExternalStmt struct {
	StmtBase

	Names []*IdentifierInfo
}

// IntrinsicStmt is an INTRINSIC statement.
type IntrinsicStmt struct {
	StmtBase

	Names []*IdentifierInfo
}

// AssignmentStmt is `lhs = rhs`, scalar or whole-array elemental.
type AssignmentStmt struct {
	StmtBase

	LHS, RHS Expr
}

// AssignStmt is the archaic `ASSIGN label TO var`.
type AssignStmt struct {
	StmtBase

	Address StmtLabelReference
	Var     *VarExpr
}

// SetAddress patches the resolved label target.
func (s *AssignStmt) SetAddress(ref StmtLabelReference) { s.Address = ref }

// GotoStmt is `GO TO label`.
type GotoStmt struct {
	StmtBase

	Destination StmtLabelReference
}

// SetDestination patches the resolved label target.
func (s *GotoStmt) SetDestination(ref StmtLabelReference) { s.Destination = ref }

// AssignedGotoStmt is `GO TO var [(allowed-labels)]`.
type AssignedGotoStmt struct {
	StmtBase

	Var           *VarExpr
	AllowedValues []Expr
	AllowedLabels []StmtLabelReference
}

// SetAllowedLabel patches one resolved allowed-label target.
func (s *AssignedGotoStmt) SetAllowedLabel(index int, ref StmtLabelReference) {
	s.AllowedLabels[index] = ref
}

// IfStmt is a logical IF statement or the opening statement of a block IF
// construct.  ELSE IF produces a fresh IfStmt linked through Else.
type IfStmt struct {
	StmtBase

	Condition Expr
	Then      Stmt
	Else      Stmt
}

// SetThen attaches the then-arm.
func (s *IfStmt) SetThen(stmt Stmt) { s.Then = stmt }

// SetElse attaches the else-arm (an ELSE block or a chained ELSE IF).
func (s *IfStmt) SetElse(stmt Stmt) { s.Else = stmt }

// ElseStmt is the ELSE statement of a block IF.
type ElseStmt struct {
	StmtBase
}

// EndIfStmt is the END IF statement of a block IF.
type EndIfStmt struct {
	StmtBase
}

// DoStmt is a label-terminated DO loop.
type DoStmt struct {
	StmtBase

	TerminatingStmt   StmtLabelReference
	TerminatingLabel  Expr
	DoVar             *VarExpr
	Init, Final, Step Expr // Step may be nil
	Body              Stmt
}

// SetTerminatingStmt patches the resolved terminator.
func (s *DoStmt) SetTerminatingStmt(ref StmtLabelReference) { s.TerminatingStmt = ref }

// CallStmt is `CALL subroutine(args)`.
type CallStmt struct {
	StmtBase

	Subroutine *SubroutineDecl
	Args       []Expr
}

// ContinueStmt is a CONTINUE statement.
type ContinueStmt struct {
	StmtBase
}

// StopStmt is a STOP statement with an optional stop code.
type StopStmt struct {
	StmtBase

	Code Expr // may be nil
}

// FormatSpec is the format specifier of a PRINT statement.  Only the
// list-directed `*` form and a label form are modelled.
type FormatSpec struct {
	Star  bool
	Label Expr
}

// PrintStmt is a PRINT statement.
type PrintStmt struct {
	StmtBase

	Format *FormatSpec
	Items  []Expr
}

// WhereStmt is a WHERE statement or construct: a masked elemental assignment.
type WhereStmt struct {
	StmtBase

	Mask Expr
	Then Stmt
	Else Stmt
}

// SetThen attaches the masked body.
func (s *WhereStmt) SetThen(stmt Stmt) { s.Then = stmt }

// SetElse attaches the ELSEWHERE body.
func (s *WhereStmt) SetElse(stmt Stmt) { s.Else = stmt }

// BlockStmt is an ordered list of statements.
type BlockStmt struct {
	StmtBase

	List []Stmt
}

// NewBlockStmt creates a block over the given statements.
func NewBlockStmt(span *report.TextSpan, list []Stmt) *BlockStmt {
	return &BlockStmt{StmtBase: NewStmtBase(span, nil), List: list}
}

// ConstructPart enumerates the construct-delimiting statements that carry no
// semantics of their own.
type ConstructPart int

const (
	ConstructElseWhere ConstructPart = iota
	ConstructEndWhere
	ConstructEndDo
)

// ConstructPartStmt is a construct delimiter such as ELSEWHERE or END WHERE.
type ConstructPartStmt struct {
	StmtBase

	Part ConstructPart
}
