package report

import "testing"

func TestVerifyConsumerMatches(t *testing.T) {
	src := "PROGRAM P\nX = C ! expected-error{{incompatible types}}\nEND\n"
	vc := NewVerifyConsumer("t.f90", src)

	vc.HandleDiagnostic(&Diagnostic{
		Severity: SevError,
		Path:     "t.f90",
		Span:     &TextSpan{StartLine: 1, StartCol: 0, EndLine: 1, EndCol: 4},
		Message:  "incompatible types in assignment ('REAL' and 'CHARACTER')",
	})

	if failures := vc.Finish(); failures != 0 {
		t.Errorf("expected a clean verify run, got %d failures", failures)
	}
}

func TestVerifyConsumerMissingExpectation(t *testing.T) {
	src := "X = 1 ! expected-error{{never produced}}\n"
	vc := NewVerifyConsumer("t.f90", src)

	if failures := vc.Finish(); failures != 1 {
		t.Errorf("an unmatched expectation must fail, got %d", failures)
	}
}

func TestVerifyConsumerUnexpectedDiagnostic(t *testing.T) {
	vc := NewVerifyConsumer("t.f90", "X = 1\n")

	vc.HandleDiagnostic(&Diagnostic{
		Severity: SevError,
		Path:     "t.f90",
		Span:     &TextSpan{},
		Message:  "surprise",
	})

	if failures := vc.Finish(); failures != 1 {
		t.Errorf("an unexpected diagnostic must fail, got %d", failures)
	}
}

func TestVerifyConsumerLineAnchoring(t *testing.T) {
	src := "LINE1 ! expected-error{{boom}}\nLINE2\n"
	vc := NewVerifyConsumer("t.f90", src)

	// Same message on the wrong line must not match.
	vc.HandleDiagnostic(&Diagnostic{
		Severity: SevError,
		Path:     "t.f90",
		Span:     &TextSpan{StartLine: 1},
		Message:  "boom",
	})

	if failures := vc.Finish(); failures != 2 {
		t.Errorf("wrong-line match must count both ways, got %d", failures)
	}
}

func TestVerifyConsumerSeverities(t *testing.T) {
	src := "A ! expected-warning{{w}}\nB ! expected-note{{n}}\n"
	vc := NewVerifyConsumer("t.f90", src)

	vc.HandleDiagnostic(&Diagnostic{
		Severity: SevWarning,
		Span:     &TextSpan{StartLine: 0},
		Message:  "w here",
	})
	vc.HandleDiagnostic(&Diagnostic{
		Severity: SevNote,
		Span:     &TextSpan{StartLine: 1},
		Message:  "n here",
	})

	if failures := vc.Finish(); failures != 0 {
		t.Errorf("severity-tagged expectations must match, got %d failures", failures)
	}
}
