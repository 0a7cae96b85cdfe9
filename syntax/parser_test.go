package syntax_test

import (
	"strings"
	"testing"

	"fortc/ast"
	"fortc/report"
	"fortc/sema"
	"fortc/syntax"
	"fortc/types"
)

// captureConsumer records diagnostics for assertions.
type captureConsumer struct {
	diags []*report.Diagnostic
}

func (c *captureConsumer) HandleDiagnostic(d *report.Diagnostic) {
	c.diags = append(c.diags, d)
}

func (c *captureConsumer) Finish() int { return 0 }

func (c *captureConsumer) errors() []*report.Diagnostic {
	var errs []*report.Diagnostic
	for _, d := range c.diags {
		if d.Severity == report.SevError {
			errs = append(errs, d)
		}
	}
	return errs
}

func (c *captureConsumer) hasError(substr string) bool {
	for _, d := range c.errors() {
		if strings.Contains(d.Message, substr) {
			return true
		}
	}
	return false
}

// compile parses and analyzes one free-form source buffer.
func compile(t *testing.T, src string) (*sema.Sema, *captureConsumer) {
	t.Helper()
	return compileOpts(t, src, syntax.LangOptions{})
}

func compileOpts(t *testing.T, src string, opts syntax.LangOptions) (*sema.Sema, *captureConsumer) {
	t.Helper()
	report.ResetReporter()
	report.InitReporter(report.LogLevelVerbose)
	cc := &captureConsumer{}
	report.SetConsumer(cc)

	ctx := types.NewContext()
	actions := sema.NewSema(ctx, "test.f90")
	p := syntax.NewParser("test.f90", src, opts, actions)
	p.ParseProgramUnits()
	return actions, cc
}

func expectClean(t *testing.T, cc *captureConsumer) {
	t.Helper()
	for _, d := range cc.errors() {
		t.Errorf("unexpected error: %s", d.Message)
	}
}

func expectError(t *testing.T, cc *captureConsumer, substr string) {
	t.Helper()
	if !cc.hasError(substr) {
		var got []string
		for _, d := range cc.errors() {
			got = append(got, d.Message)
		}
		t.Errorf("expected error containing %q, got %v", substr, got)
	}
}

func mainProgram(t *testing.T, s *sema.Sema) *ast.MainProgramDecl {
	t.Helper()
	for _, d := range s.TU.Decls() {
		if mp, ok := d.(*ast.MainProgramDecl); ok {
			return mp
		}
	}
	t.Fatal("no main program in translation unit")
	return nil
}

// -----------------------------------------------------------------------------

func TestParseSimpleProgram(t *testing.T) {
	s, cc := compile(t, `
PROGRAM P
INTEGER I
I = 1
END PROGRAM P
`)
	expectClean(t, cc)

	mp := mainProgram(t, s)
	if mp.Name() != "P" {
		t.Errorf("expected program name P, got %q", mp.Name())
	}
	if len(mp.Body) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(mp.Body))
	}
	if _, ok := mp.Body[0].(*ast.AssignmentStmt); !ok {
		t.Errorf("expected an assignment, got %T", mp.Body[0])
	}
}

func TestImplicitTypingDefault(t *testing.T) {
	s, cc := compile(t, `
PROGRAM P
IVAL = 1
XVAL = 2.0
END
`)
	expectClean(t, cc)

	mp := mainProgram(t, s)
	var ival, xval *ast.VarDecl
	for _, d := range mp.DeclContext.Decls() {
		if vd, ok := d.(*ast.VarDecl); ok {
			switch vd.Name() {
			case "IVAL":
				ival = vd
			case "XVAL":
				xval = vd
			}
		}
	}

	if ival == nil || !ival.Type.IsIntegerType() {
		t.Error("IVAL must be implicitly INTEGER")
	}
	if xval == nil || !xval.Type.IsRealType() {
		t.Error("XVAL must be implicitly REAL")
	}
	if ival != nil && !ival.Implicit() {
		t.Error("IVAL must be marked implicit")
	}
}

func TestImplicitStatementRule(t *testing.T) {
	s, cc := compile(t, `
PROGRAM P
IMPLICIT DOUBLE PRECISION (A-C)
AVAL = 1.0
END
`)
	expectClean(t, cc)

	mp := mainProgram(t, s)
	for _, d := range mp.DeclContext.Decls() {
		if vd, ok := d.(*ast.VarDecl); ok && vd.Name() == "AVAL" {
			if !vd.Type.IsDoublePrecisionType() {
				t.Errorf("AVAL must follow the IMPLICIT rule, got %s", vd.Type)
			}
			return
		}
	}
	t.Error("AVAL was not declared")
}

func TestImplicitNone(t *testing.T) {
	_, cc := compile(t, `
PROGRAM P
IMPLICIT NONE
X = 1
END
`)
	expectError(t, cc, "no implicit type for variable 'X'")
}

func TestRedeclaration(t *testing.T) {
	_, cc := compile(t, `
PROGRAM P
INTEGER A
REAL A
END
`)
	expectError(t, cc, "variable 'A' already declared")
}

func TestLabelRedefinition(t *testing.T) {
	_, cc := compile(t, `
PROGRAM P
GOTO 100
100 CONTINUE
100 CONTINUE
END
`)
	expectError(t, cc, "redefinition of statement label '100'")
}

func TestUndeclaredLabel(t *testing.T) {
	_, cc := compile(t, `
PROGRAM P
GOTO 999
END
`)
	expectError(t, cc, "use of undeclared statement label '999'")
}

func TestForwardReferenceResolution(t *testing.T) {
	s, cc := compile(t, `
PROGRAM P
GOTO 10
10 CONTINUE
END
`)
	expectClean(t, cc)

	mp := mainProgram(t, s)
	var gotoStmt *ast.GotoStmt
	for _, stmt := range mp.Body {
		if g, ok := stmt.(*ast.GotoStmt); ok {
			gotoStmt = g
		}
	}
	if gotoStmt == nil {
		t.Fatal("no GOTO in body")
	}
	if gotoStmt.Destination.Statement == nil {
		t.Fatal("forward reference was not resolved")
	}
	if _, ok := gotoStmt.Destination.Statement.(*ast.ContinueStmt); !ok {
		t.Errorf("GOTO must target the CONTINUE, got %T", gotoStmt.Destination.Statement)
	}
}

func TestExpectedEndIf(t *testing.T) {
	_, cc := compile(t, `
PROGRAM P
IF (.TRUE.) THEN
END
`)
	expectError(t, cc, "expected END IF")
}

func TestElseNotInIf(t *testing.T) {
	_, cc := compile(t, `
PROGRAM P
ELSE
END
`)
	expectError(t, cc, "ELSE statement not in IF construct")
}

func TestIfElseChainStructure(t *testing.T) {
	s, cc := compile(t, `
PROGRAM P
INTEGER I
I = 0
IF (I .LT. 0) THEN
I = 1
ELSE IF (I .GT. 0) THEN
I = 2
ELSE
I = 3
END IF
END
`)
	expectClean(t, cc)

	mp := mainProgram(t, s)
	var ifStmt *ast.IfStmt
	for _, stmt := range mp.Body {
		if v, ok := stmt.(*ast.IfStmt); ok {
			ifStmt = v
		}
	}
	if ifStmt == nil {
		t.Fatal("no IF in body")
	}

	then1, ok := ifStmt.Then.(*ast.BlockStmt)
	if !ok || len(then1.List) != 1 {
		t.Fatalf("first arm must be a 1-statement block, got %T", ifStmt.Then)
	}

	elseIf, ok := ifStmt.Else.(*ast.IfStmt)
	if !ok {
		t.Fatalf("ELSE IF must chain a fresh IF, got %T", ifStmt.Else)
	}
	if _, ok := elseIf.Else.(*ast.BlockStmt); !ok {
		t.Fatalf("final ELSE must be a block, got %T", elseIf.Else)
	}
}

func TestExpectedLogicalCondition(t *testing.T) {
	_, cc := compile(t, `
PROGRAM P
IF (1) THEN
END IF
END
`)
	expectError(t, cc, "expected a logical expression")
}

func TestDoLoopStructure(t *testing.T) {
	s, cc := compile(t, `
PROGRAM P
INTEGER I, TOTAL
TOTAL = 0
DO 10 I = 1, 5
TOTAL = TOTAL + I
10 CONTINUE
TOTAL = TOTAL * 2
END
`)
	expectClean(t, cc)

	mp := mainProgram(t, s)
	var doStmt *ast.DoStmt
	for _, stmt := range mp.Body {
		if v, ok := stmt.(*ast.DoStmt); ok {
			doStmt = v
		}
	}
	if doStmt == nil {
		t.Fatal("no DO in body")
	}
	if doStmt.TerminatingStmt.Statement == nil {
		t.Fatal("DO terminator was not resolved")
	}

	body, ok := doStmt.Body.(*ast.BlockStmt)
	if !ok {
		t.Fatalf("DO body must be a block, got %T", doStmt.Body)
	}
	// The body includes the assignment and the terminating CONTINUE.
	if len(body.List) != 2 {
		t.Fatalf("expected 2 body statements, got %d", len(body.List))
	}
}

func TestDoConversionInserted(t *testing.T) {
	s, cc := compile(t, `
PROGRAM P
INTEGER I
DO 10 I = 1.5, 5.5
10 CONTINUE
END
`)
	expectClean(t, cc)

	mp := mainProgram(t, s)
	for _, stmt := range mp.Body {
		if v, ok := stmt.(*ast.DoStmt); ok {
			if conv, ok := v.Init.(*ast.ConversionExpr); !ok || conv.Kind != ast.ConvINT {
				t.Errorf("DO initial expression must carry an INT conversion, got %T", v.Init)
			}
			return
		}
	}
	t.Fatal("no DO in body")
}

func TestInvalidDoTerminator(t *testing.T) {
	_, cc := compile(t, `
PROGRAM P
INTEGER I
DO 10 I = 1, 5
10 GOTO 20
20 CONTINUE
END
`)
	expectError(t, cc, "invalid DO terminating statement")
}

func TestDoTerminatorMustFollowDo(t *testing.T) {
	_, cc := compile(t, `
PROGRAM P
INTEGER I
10 CONTINUE
DO 10 I = 1, 5
END
`)
	expectError(t, cc, "must be declared after the DO")
}

func TestEndProgramNameMismatch(t *testing.T) {
	_, cc := compile(t, `
PROGRAM P
END PROGRAM Q
`)
	expectError(t, cc, "expected label 'P' for END PROGRAM statement")
}

func TestStarDimensionOnlyLast(t *testing.T) {
	_, cc := compile(t, `
SUBROUTINE S(A)
INTEGER A(*,*)
END
`)
	expectError(t, cc, "dimension declarator '*' must be used only in the last dimension")
}

func TestIntegerConstantDimension(t *testing.T) {
	_, cc := compile(t, `
PROGRAM P
INTEGER A(.FALSE.:2)
END
`)
	expectError(t, cc, "expected an integer constant expression")
}

func TestSubstringBoundMustBeInteger(t *testing.T) {
	_, cc := compile(t, `
PROGRAM P
CHARACTER(LEN=16) :: C
C = 'HELLO'(1:'FALSE')
END
`)
	expectError(t, cc, "expected an integer expression")
}

func TestParameterStatement(t *testing.T) {
	s, cc := compile(t, `
PROGRAM P
PARAMETER (N = 4, M = N*2)
INTEGER A(M)
END
`)
	expectClean(t, cc)

	mp := mainProgram(t, s)
	for _, d := range mp.DeclContext.Decls() {
		if vd, ok := d.(*ast.VarDecl); ok && vd.Name() == "M" {
			if !vd.IsParameter() {
				t.Error("M must be a named constant")
			}
			if v, ok := ast.EvaluateAsInt(vd.Init); !ok || v != 8 {
				t.Errorf("M must fold to 8, got %d (ok=%v)", v, ok)
			}
			return
		}
	}
	t.Error("M was not declared")
}

func TestParameterRedefinition(t *testing.T) {
	_, cc := compile(t, `
PROGRAM P
INTEGER N
PARAMETER (N = 4)
END
`)
	expectError(t, cc, "variable 'N' already defined")
}

func TestStatementFunction(t *testing.T) {
	s, cc := compile(t, `
PROGRAM P
REAL X, Y
F(X) = X*2.0 + 1.0
Y = F(3.0)
END
`)
	expectClean(t, cc)

	mp := mainProgram(t, s)
	var fd *ast.FunctionDecl
	for _, d := range mp.DeclContext.Decls() {
		if v, ok := d.(*ast.FunctionDecl); ok && v.Name() == "F" {
			fd = v
		}
	}
	if fd == nil {
		t.Fatal("statement function F was not declared")
	}
	if !fd.IsStatementFunction() {
		t.Fatal("F must be a statement function")
	}
	if len(fd.Args) != 1 {
		t.Fatalf("F must have 1 formal, got %d", len(fd.Args))
	}
}

func TestWhereConstruct(t *testing.T) {
	s, cc := compile(t, `
PROGRAM P
REAL A(5), B(5)
LOGICAL M(5)
WHERE (M)
A = B
ELSEWHERE
A = 0.0
END WHERE
END
`)
	expectClean(t, cc)

	mp := mainProgram(t, s)
	var where *ast.WhereStmt
	for _, stmt := range mp.Body {
		if v, ok := stmt.(*ast.WhereStmt); ok {
			where = v
		}
	}
	if where == nil {
		t.Fatal("no WHERE in body")
	}
	if _, ok := where.Then.(*ast.BlockStmt); !ok {
		t.Errorf("WHERE then-arm must be a block, got %T", where.Then)
	}
	if _, ok := where.Else.(*ast.BlockStmt); !ok {
		t.Errorf("ELSEWHERE arm must be a block, got %T", where.Else)
	}
}

func TestWhereMaskMustBeLogicalArray(t *testing.T) {
	_, cc := compile(t, `
PROGRAM P
REAL A(5)
WHERE (1.0)
A = 0.0
END WHERE
END
`)
	expectError(t, cc, "expected a logical array expression")
}

func TestFixedFormProgram(t *testing.T) {
	src := "      PROGRAM P\n" +
		"      INTEGER I\n" +
		"      I = 0\n" +
		"      DO 10 I = 1, 3\n" +
		"   10 CONTINUE\n" +
		"      END\n"
	_, cc := compileOpts(t, src, syntax.LangOptions{FixedForm: true})
	expectClean(t, cc)
}

func TestCompoundKeywordMerging(t *testing.T) {
	// GO TO, END IF, ELSE IF and DOUBLE PRECISION all merge from two tokens.
	_, cc := compile(t, `
PROGRAM P
DOUBLE PRECISION D
INTEGER I
I = 0
IF (I .EQ. 0) THEN
D = 1.0
ELSE IF (I .EQ. 1) THEN
D = 2.0
END IF
GO TO 10
10 CONTINUE
END
`)
	expectClean(t, cc)
}

func TestKeywordAsIdentifier(t *testing.T) {
	// IF is usable as a variable name when it appears in identifier position.
	_, cc := compile(t, `
PROGRAM P
INTEGER IF
IF = 2
END
`)
	expectClean(t, cc)
}

func TestAssignmentConversionTable(t *testing.T) {
	// For every (LHS, RHS) pair of intrinsic types, either the specified
	// conversion is inserted or an error is produced.
	decls := map[string]string{
		"I": "INTEGER I",
		"X": "REAL X",
		"D": "DOUBLE PRECISION D",
		"Z": "COMPLEX Z",
		"L": "LOGICAL L",
		"C": "CHARACTER C",
	}
	type result struct {
		conv ast.ConversionKind
		ok   bool
		none bool // assignment valid with no conversion
	}
	expect := map[[2]string]result{
		{"I", "I"}: {none: true},
		{"I", "X"}: {conv: ast.ConvINT, ok: true},
		{"I", "D"}: {conv: ast.ConvINT, ok: true},
		{"I", "Z"}: {conv: ast.ConvINT, ok: true},
		{"X", "X"}: {none: true},
		{"X", "I"}: {conv: ast.ConvREAL, ok: true},
		{"X", "D"}: {conv: ast.ConvREAL, ok: true},
		{"X", "Z"}: {conv: ast.ConvREAL, ok: true},
		{"D", "D"}: {none: true},
		{"D", "I"}: {conv: ast.ConvDBLE, ok: true},
		{"D", "X"}: {conv: ast.ConvDBLE, ok: true},
		{"D", "Z"}: {conv: ast.ConvDBLE, ok: true},
		{"Z", "Z"}: {none: true},
		{"Z", "I"}: {conv: ast.ConvCMPLX, ok: true},
		{"Z", "X"}: {conv: ast.ConvCMPLX, ok: true},
		{"Z", "D"}: {conv: ast.ConvCMPLX, ok: true},
		{"L", "L"}: {none: true},
		{"C", "C"}: {none: true},
	}

	vars := []string{"I", "X", "D", "Z", "L", "C"}
	for _, lhs := range vars {
		for _, rhs := range vars {
			src := "PROGRAM P\n" + decls[lhs] + "\n"
			if lhs != rhs {
				src += decls[rhs] + "\n"
			}
			src += lhs + " = " + rhs + "\nEND\n"

			s, cc := compile(t, src)
			want, valid := expect[[2]string{lhs, rhs}]

			if !valid {
				expectError(t, cc, "incompatible types in assignment")
				continue
			}

			if len(cc.errors()) > 0 {
				t.Errorf("%s = %s: unexpected error %v", lhs, rhs, cc.errors()[0].Message)
				continue
			}

			mp := mainProgram(t, s)
			if len(mp.Body) != 1 {
				t.Errorf("%s = %s: expected 1 statement", lhs, rhs)
				continue
			}
			assign := mp.Body[0].(*ast.AssignmentStmt)

			if want.none {
				if _, isConv := assign.RHS.(*ast.ConversionExpr); isConv {
					t.Errorf("%s = %s: unexpected conversion", lhs, rhs)
				}
			} else {
				conv, isConv := assign.RHS.(*ast.ConversionExpr)
				if !isConv {
					t.Errorf("%s = %s: expected a conversion", lhs, rhs)
				} else if conv.Kind != want.conv {
					t.Errorf("%s = %s: expected %s conversion, got %s",
						lhs, rhs, want.conv.Name(), conv.Kind.Name())
				}
			}
		}
	}
}

func TestRoundTripPrinting(t *testing.T) {
	src := `PROGRAM P
INTEGER I
INTEGER TOTAL
TOTAL = 0
DO 10 I = 1, 5
TOTAL = TOTAL + I
10 CONTINUE
IF (TOTAL .GT. 10) THEN
TOTAL = 10
END IF
END
`
	s1, cc := compile(t, src)
	expectClean(t, cc)

	var sb strings.Builder
	ast.NewPrinter(&sb).PrintUnit(s1.TU)
	printed := sb.String()

	s2, cc2 := compile(t, printed)
	expectClean(t, cc2)

	var sb2 strings.Builder
	ast.NewPrinter(&sb2).PrintUnit(s2.TU)
	if sb2.String() != printed {
		t.Errorf("printing is not stable under re-parsing:\nfirst:\n%s\nsecond:\n%s",
			printed, sb2.String())
	}
}
