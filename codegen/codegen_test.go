package codegen_test

import (
	"strings"
	"testing"

	"fortc/codegen"
	"fortc/report"
	"fortc/sema"
	"fortc/syntax"
	"fortc/types"
)

// silentConsumer drops diagnostics; lowering tests only run clean inputs.
type silentConsumer struct {
	errors int
}

func (c *silentConsumer) HandleDiagnostic(d *report.Diagnostic) {
	if d.Severity == report.SevError {
		c.errors++
	}
}

func (c *silentConsumer) Finish() int { return 0 }

// lower compiles a free-form source buffer to LLVM IR text.
func lower(t *testing.T, src string) string {
	t.Helper()
	report.ResetReporter()
	report.InitReporter(report.LogLevelVerbose)
	cc := &silentConsumer{}
	report.SetConsumer(cc)

	ctx := types.NewContext()
	actions := sema.NewSema(ctx, "test.f90")
	p := syntax.NewParser("test.f90", src, syntax.LangOptions{}, actions)
	p.ParseProgramUnits()

	if cc.errors > 0 {
		t.Fatalf("unexpected analysis errors in lowering test input (%d)", cc.errors)
	}

	gen := codegen.NewGenerator(ctx, "test.f90")
	gen.EmitTranslationUnit(actions.TU)
	return gen.Module().String()
}

func TestLowerScalarAssignment(t *testing.T) {
	ir := lower(t, `
PROGRAM P
INTEGER I
I = 2 + 3
END
`)
	if !strings.Contains(ir, "define i32 @main()") {
		t.Error("main program must lower to @main")
	}
	if !strings.Contains(ir, "alloca i32") {
		t.Error("INTEGER local must allocate i32 storage")
	}
}

func TestLowerDoLoop(t *testing.T) {
	ir := lower(t, `
PROGRAM P
INTEGER I, TOTAL
TOTAL = 0
DO 10 I = 1, 5
TOTAL = TOTAL + I
10 CONTINUE
END
`)
	for _, block := range []string{"do-cond", "do-body", "do-end"} {
		if !strings.Contains(ir, block) {
			t.Errorf("DO loop must emit a %s block", block)
		}
	}
}

func TestLowerArrayAssignmentLoopNest(t *testing.T) {
	// A rank-2 elemental assignment emits one counter loop per dimension.
	ir := lower(t, `
PROGRAM P
REAL A(4,5), B(4,5)
A = B + 1.0
END
`)
	// Count block label definitions (at line start), not branch targets.
	bodies := strings.Count(ir, "\narray-dim-loop-body")
	if bodies != 2 {
		t.Errorf("rank-2 assignment must emit 2 dimension loops, got %d", bodies)
	}
	if !strings.Contains(ir, "icmp ult") {
		t.Error("dimension loops iterate counters over [0, size)")
	}
	// Element storage is [20 x float] iterated linearly.
	if !strings.Contains(ir, "[20 x float]") {
		t.Error("A must allocate 4*5 contiguous elements")
	}
}

func TestLowerScalarHoisting(t *testing.T) {
	// The scalar operand of an elemental operation is evaluated once,
	// outside the loop nest: the multiply by the hoisted scalar appears
	// inside the loop, the scalar itself is computed before it.
	ir := lower(t, `
PROGRAM P
REAL A(8), B(8)
REAL S
S = 2.0
A = B * S
END
`)
	loopStart := strings.Index(ir, "array-dim-loop")
	scalarLoad := strings.Index(ir, "load float")
	if loopStart < 0 || scalarLoad < 0 {
		t.Fatal("expected a loop and a scalar load")
	}
	if scalarLoad > loopStart {
		t.Error("the scalar operand must be hoisted before the loop nest")
	}
}

func TestLowerWhere(t *testing.T) {
	ir := lower(t, `
PROGRAM P
REAL A(6), B(6)
LOGICAL M(6)
WHERE (M)
A = B
ELSEWHERE
A = 0.0
END WHERE
END
`)
	for _, block := range []string{"where-true", "where-else", "where-end"} {
		if !strings.Contains(ir, block) {
			t.Errorf("WHERE must emit a %s block", block)
		}
	}
	if strings.Count(ir, "\narray-dim-loop-body") != 1 {
		t.Error("the mask's sections must drive a single loop nest")
	}
}

func TestLowerCharacterRuntime(t *testing.T) {
	ir := lower(t, `
PROGRAM P
CHARACTER(LEN=8) :: C, D
C = 'HI'
D = C // 'THERE'
IF (C .LT. D) THEN
C = D
END IF
END
`)
	for _, fn := range []string{"assignment_char1", "concat_char1", "compare_char1"} {
		if !strings.Contains(ir, fn) {
			t.Errorf("character operations must call %s", fn)
		}
	}
}

func TestLowerGotoAndLabels(t *testing.T) {
	ir := lower(t, `
PROGRAM P
INTEGER I
I = 0
GOTO 10
I = 1
10 CONTINUE
END
`)
	if !strings.Contains(ir, "label.10") {
		t.Error("a labeled statement must start its own block")
	}
}

func TestLowerStatementFunctionInlined(t *testing.T) {
	ir := lower(t, `
PROGRAM P
REAL X, Y
F(X) = X*2.0
Y = F(3.0)
END
`)
	if strings.Contains(ir, "@f_") {
		t.Error("statement functions must be inlined, not emitted or called")
	}
	if !strings.Contains(ir, "fmul") {
		t.Error("the inlined body must appear at the call site")
	}
}

func TestLowerSubroutineABI(t *testing.T) {
	ir := lower(t, `
SUBROUTINE S(I, X, C)
INTEGER I
REAL X
CHARACTER(LEN=4) C
I = 1
END
PROGRAM P
INTEGER K
K = 0
CALL S(K, 1.0, 'AB')
END
`)
	// Scalars pass by reference; characters expand to (ptr, len).
	if !strings.Contains(ir, "define void @s_(i32* %") && !strings.Contains(ir, "define void @s_(i32*") {
		t.Errorf("subroutine must take its INTEGER by reference:\n%s", firstLine(ir, "@s_"))
	}
	if !strings.Contains(ir, "i8*") || !strings.Contains(ir, "i64") {
		t.Error("character arguments expand to pointer plus length")
	}
	if !strings.Contains(ir, "call void @s_") {
		t.Error("CALL must invoke the subroutine")
	}
}

func TestLowerExternalCharacterHiddenLength(t *testing.T) {
	// An implicitly declared external function receives character lengths
	// as trailing 32-bit additional arguments.
	ir := lower(t, `
PROGRAM P
CHARACTER(LEN=4) C
REAL Y
C = 'AB'
Y = EXTFN(C)
END
`)
	line := firstLine(ir, "declare float @extfn_")
	if line == "" {
		t.Fatalf("external function must be declared:\n%s", ir)
	}
	if !strings.Contains(line, "i8*") || !strings.Contains(line, "i32") {
		t.Errorf("external character ABI must be (i8*, ..., i32 hidden length): %s", line)
	}
}

func TestLowerArrayConstructor(t *testing.T) {
	ir := lower(t, `
PROGRAM P
INTEGER A(3)
A = (/1, 2, 3/)
END
`)
	// All items fold: the constructor becomes a constant aggregate global.
	if !strings.Contains(ir, "[3 x i32] [i32 1, i32 2, i32 3]") {
		t.Errorf("a foldable constructor must lower to a constant aggregate:\n%s", ir)
	}
}

func TestLowerArrayElementOffset(t *testing.T) {
	// A(2,3) with declared bounds computes (2-1) + (3-1)*4 via the declared
	// dimension sizes.
	ir := lower(t, `
PROGRAM P
REAL A(4,5)
A(2,3) = 1.0
END
`)
	if !strings.Contains(ir, "getelementptr") {
		t.Error("element references must compute a pointer offset")
	}
}

func firstLine(s, substr string) string {
	for _, line := range strings.Split(s, "\n") {
		if strings.Contains(line, substr) {
			return line
		}
	}
	return ""
}
