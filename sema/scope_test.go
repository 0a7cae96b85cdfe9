package sema

import (
	"testing"

	"fortc/ast"
	"fortc/types"
)

func label(c *types.Context, v int64) ast.Expr {
	return ast.NewIntegerConstantExpr(c, nil, v)
}

func TestStmtLabelScopeDeclareResolve(t *testing.T) {
	c := types.NewContext()
	scope := NewStmtLabelScope()

	stmt := &ast.ContinueStmt{StmtBase: ast.NewStmtBase(nil, label(c, 10))}
	scope.Declare(label(c, 10), stmt)

	if scope.Resolve(label(c, 10)) != ast.Stmt(stmt) {
		t.Error("label 10 must resolve to its statement")
	}
	if scope.Resolve(label(c, 20)) != nil {
		t.Error("label 20 must not resolve")
	}
}

func TestStmtLabelForwardReferences(t *testing.T) {
	c := types.NewContext()
	scope := NewStmtLabelScope()

	g := &ast.GotoStmt{StmtBase: ast.NewStmtBase(nil, nil)}
	scope.DeclareForwardReference(ForwardDecl{
		StmtLabel: label(c, 10),
		Statement: g,
		Kind:      ResolveGoto,
	})

	if len(scope.ForwardDecls()) != 1 {
		t.Fatalf("expected 1 forward reference, got %d", len(scope.ForwardDecls()))
	}

	target := &ast.ContinueStmt{StmtBase: ast.NewStmtBase(nil, label(c, 10))}
	scope.Declare(label(c, 10), target)

	fwd := scope.ForwardDecls()[0]
	fwd.resolve(scope.Resolve(fwd.StmtLabel))
	if g.Destination.Statement != ast.Stmt(target) {
		t.Error("resolve callback must patch the GOTO destination")
	}

	scope.RemoveForwardReference(g)
	if len(scope.ForwardDecls()) != 0 {
		t.Error("forward reference was not removed")
	}
}

func TestResolveKindsPatchTheRightField(t *testing.T) {
	c := types.NewContext()
	target := &ast.ContinueStmt{StmtBase: ast.NewStmtBase(nil, label(c, 5))}

	assign := &ast.AssignStmt{StmtBase: ast.NewStmtBase(nil, nil)}
	(&ForwardDecl{Statement: assign, Kind: ResolveAssign}).resolve(target)
	if assign.Address.Statement != ast.Stmt(target) {
		t.Error("ResolveAssign must patch the address")
	}

	agoto := &ast.AssignedGotoStmt{
		StmtBase:      ast.NewStmtBase(nil, nil),
		AllowedLabels: make([]ast.StmtLabelReference, 2),
	}
	(&ForwardDecl{Statement: agoto, Kind: ResolveAssignedGoto, Index: 1}).resolve(target)
	if agoto.AllowedLabels[1].Statement != ast.Stmt(target) {
		t.Error("ResolveAssignedGoto must patch the indexed slot")
	}
	if agoto.AllowedLabels[0].Statement != nil {
		t.Error("ResolveAssignedGoto must not touch other slots")
	}

	do := &ast.DoStmt{StmtBase: ast.NewStmtBase(nil, nil)}
	(&ForwardDecl{Statement: do, Kind: ResolveDo}).resolve(target)
	if do.TerminatingStmt.Statement != ast.Stmt(target) {
		t.Error("ResolveDo must patch the terminator")
	}
}

func TestImplicitTypingScopeRules(t *testing.T) {
	c := types.NewContext()
	scope := NewImplicitTypingScope(nil)

	if !scope.Apply(ast.LetterSpec{First: 'A', Last: 'C'}, c.DoublePrecisionTy) {
		t.Fatal("applying a fresh rule must succeed")
	}
	// Overlapping rule: B is already mapped.
	if scope.Apply(ast.LetterSpec{First: 'B'}, c.IntegerTy) {
		t.Error("a letter may map at most once per scope")
	}

	id := ast.NewIdentifierInfo("BVAL", 0)
	kind, typ := scope.Resolve(id)
	if kind != ImplicitTypeRule || typ != c.DoublePrecisionTy {
		t.Error("B must resolve through the A-C rule")
	}

	kind, _ = scope.Resolve(ast.NewIdentifierInfo("ZVAL", 0))
	if kind != ImplicitDefault {
		t.Error("an unmapped letter falls back to the default")
	}
}

func TestImplicitTypingScopeParentChain(t *testing.T) {
	c := types.NewContext()
	parent := NewImplicitTypingScope(nil)
	parent.Apply(ast.LetterSpec{First: 'Q'}, c.ComplexTy)

	child := NewImplicitTypingScope(parent)
	kind, typ := child.Resolve(ast.NewIdentifierInfo("QVAL", 0))
	if kind != ImplicitTypeRule || typ != c.ComplexTy {
		t.Error("the child scope must consult its host's rules")
	}
}

func TestImplicitNoneScope(t *testing.T) {
	c := types.NewContext()
	scope := NewImplicitTypingScope(nil)

	if !scope.ApplyNone() {
		t.Fatal("IMPLICIT NONE on a fresh scope must succeed")
	}
	if scope.Apply(ast.LetterSpec{First: 'A'}, c.RealTy) {
		t.Error("no rule may be added under IMPLICIT NONE")
	}
	if kind, _ := scope.Resolve(ast.NewIdentifierInfo("X", 0)); kind != ImplicitNone {
		t.Error("every lookup resolves to the NONE rule")
	}

	rules := NewImplicitTypingScope(nil)
	rules.Apply(ast.LetterSpec{First: 'A'}, c.RealTy)
	if rules.ApplyNone() {
		t.Error("IMPLICIT NONE after rules must fail")
	}
}
