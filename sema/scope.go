package sema

import (
	"fortc/ast"
	"fortc/types"
)

// StmtLabelValue extracts the integer value of a statement label expression.
func StmtLabelValue(e ast.Expr) int64 {
	if ice, ok := e.(*ast.IntegerConstantExpr); ok {
		return ice.Value
	}
	return -1
}

// ResolveKind tags a forward statement-label reference with the patch that
// must run once the label is declared.  An exhaustive switch over this tag
// replaces erased callback pointers so omissions are caught at compile time.
type ResolveKind int

const (
	ResolveAssign ResolveKind = iota
	ResolveGoto
	ResolveAssignedGoto
	ResolveDo
)

// ForwardDecl records one use of a statement label that was not yet declared
// at its point of use.
type ForwardDecl struct {
	// The unresolved label expression.
	StmtLabel ast.Expr

	// The statement whose field must be patched.
	Statement ast.Stmt

	// Which patch to apply.
	Kind ResolveKind

	// The allowed-label index for ResolveAssignedGoto.
	Index int
}

// resolve patches the referring statement with the now-declared destination.
func (fd *ForwardDecl) resolve(destination ast.Stmt) {
	ref := ast.StmtLabelReference{Statement: destination}
	switch fd.Kind {
	case ResolveAssign:
		fd.Statement.(*ast.AssignStmt).SetAddress(ref)
	case ResolveGoto:
		fd.Statement.(*ast.GotoStmt).SetDestination(ref)
	case ResolveAssignedGoto:
		fd.Statement.(*ast.AssignedGotoStmt).SetAllowedLabel(fd.Index, ref)
	case ResolveDo:
		fd.Statement.(*ast.DoStmt).SetTerminatingStmt(ref)
	}
}

// StmtLabelScope maps the statement labels of one program unit to their
// statements and tracks forward references.  Labels are program-unit-local.
type StmtLabelScope struct {
	decls    map[int64]ast.Stmt
	forwards []ForwardDecl
}

// NewStmtLabelScope creates an empty label scope.
func NewStmtLabelScope() *StmtLabelScope {
	return &StmtLabelScope{decls: make(map[int64]ast.Stmt)}
}

// Declare declares a new statement label.  The caller must have checked for
// redefinition with Resolve.
func (s *StmtLabelScope) Declare(label ast.Expr, stmt ast.Stmt) {
	s.decls[StmtLabelValue(label)] = stmt
}

// Resolve tries to resolve a statement label reference.
func (s *StmtLabelScope) Resolve(label ast.Expr) ast.Stmt {
	return s.decls[StmtLabelValue(label)]
}

// DeclareForwardReference records a use of a not-yet-declared label.
func (s *StmtLabelScope) DeclareForwardReference(fd ForwardDecl) {
	s.forwards = append(s.forwards, fd)
}

// RemoveForwardReference drops the forward references of a given statement.
func (s *StmtLabelScope) RemoveForwardReference(user ast.Stmt) {
	for i := 0; i < len(s.forwards); i++ {
		if s.forwards[i].Statement == user {
			s.forwards = append(s.forwards[:i], s.forwards[i+1:]...)
			return
		}
	}
}

// ForwardDecls returns the outstanding forward references in insertion order.
func (s *StmtLabelScope) ForwardDecls() []ForwardDecl {
	return s.forwards
}

// Empty reports whether no labels are declared and no forward references are
// pending.
func (s *StmtLabelScope) Empty() bool {
	return len(s.decls) == 0 && len(s.forwards) == 0
}

// Reset clears the scope for the next program unit.
func (s *StmtLabelScope) Reset() {
	s.decls = make(map[int64]ast.Stmt)
	s.forwards = nil
}

// -----------------------------------------------------------------------------

// ImplicitRuleKind describes how an implicit-typing lookup resolved.
type ImplicitRuleKind int

const (
	// ImplicitDefault means no rule applied: the standard I-N default holds.
	ImplicitDefault ImplicitRuleKind = iota

	// ImplicitTypeRule means a declared IMPLICIT rule applied.
	ImplicitTypeRule

	// ImplicitNone means IMPLICIT NONE is in effect.
	ImplicitNone
)

// ImplicitTypingScope holds the IMPLICIT rules of one scoping unit.  Scopes
// are parent-linked: an inner unit consults its host's rules before the
// default.
type ImplicitTypingScope struct {
	parent *ImplicitTypingScope
	none   bool
	rules  map[byte]types.QualType
}

// NewImplicitTypingScope creates an empty scope chained to parent (which may
// be nil).
func NewImplicitTypingScope(parent *ImplicitTypingScope) *ImplicitTypingScope {
	return &ImplicitTypingScope{parent: parent, rules: make(map[byte]types.QualType)}
}

// Apply installs a rule for a letter range.  It fails if IMPLICIT NONE is in
// effect or any letter in the range is already mapped.
func (s *ImplicitTypingScope) Apply(spec ast.LetterSpec, t types.QualType) bool {
	if s.none {
		return false
	}

	low := upperByte(spec.First)
	high := low
	if spec.Last != 0 {
		high = upperByte(spec.Last)
	}

	for c := low; c <= high; c++ {
		if _, ok := s.rules[c]; ok {
			return false
		}
		s.rules[c] = t
	}
	return true
}

// ApplyNone installs IMPLICIT NONE.  It fails if any rule was already added.
func (s *ImplicitTypingScope) ApplyNone() bool {
	if len(s.rules) > 0 {
		return false
	}
	s.none = true
	return true
}

// Resolve looks up the rule for an identifier's first letter.
func (s *ImplicitTypingScope) Resolve(id *ast.IdentifierInfo) (ImplicitRuleKind, types.QualType) {
	if s.none {
		return ImplicitNone, types.QualType{}
	}
	c := upperByte(id.Name()[0])
	if t, ok := s.rules[c]; ok {
		return ImplicitTypeRule, t
	}
	if s.parent != nil {
		return s.parent.Resolve(id)
	}
	return ImplicitDefault, types.QualType{}
}

func upperByte(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}
