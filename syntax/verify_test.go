package syntax_test

import (
	"testing"

	"fortc/report"
	"fortc/sema"
	"fortc/syntax"
	"fortc/types"
)

// runVerify compiles a buffer under the verify consumer, as the driver's
// -verify mode does, and returns the number of expectation failures.
func runVerify(t *testing.T, src string) int {
	t.Helper()
	report.ResetReporter()
	report.InitReporter(report.LogLevelVerbose)
	report.SetConsumer(report.NewVerifyConsumer("test.f90", src))

	ctx := types.NewContext()
	actions := sema.NewSema(ctx, "test.f90")
	p := syntax.NewParser("test.f90", src, syntax.LangOptions{}, actions)
	p.ParseProgramUnits()

	return report.Finish()
}

// The scenarios below mirror the compiler's own -verify test inputs: each
// expected-error directive must be produced on its own line, and nothing
// else may be produced.
func TestVerifyScenarios(t *testing.T) {
	scenarios := []struct {
		name string
		src  string
	}{
		{
			name: "substring bound must be integer",
			src: `PROGRAM P
CHARACTER(LEN=16) :: C
C = 'HELLO'(1:'FALSE') ! expected-error{{expected an integer expression}}
END
`,
		},
		{
			name: "star dimension only last",
			src: `SUBROUTINE S(A)
INTEGER A(*,*) ! expected-error{{dimension declarator '*' must be used only in the last dimension}}
END
`,
		},
		{
			name: "array bound must be integer constant",
			src: `PROGRAM P
INTEGER A(.FALSE.:2) ! expected-error{{expected an integer constant expression}}
END
`,
		},
		{
			name: "incompatible assignment",
			src: `PROGRAM P
REAL X
CHARACTER C
X = C ! expected-error{{incompatible types in assignment}}
END
`,
		},
		{
			name: "label redefinition",
			src: `PROGRAM P
GOTO 100
100 CONTINUE
100 CONTINUE ! expected-error{{redefinition of statement label '100'}}
END
`,
		},
		{
			name: "unterminated block if",
			src: `PROGRAM P
IF (.TRUE.) THEN
END ! expected-error{{expected END IF}}
`,
		},
	}

	for _, sc := range scenarios {
		if failures := runVerify(t, sc.src); failures != 0 {
			t.Errorf("%s: %d verify failures", sc.name, failures)
		}
	}
}
