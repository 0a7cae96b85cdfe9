package report

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// expectation is a single expected-diagnostic directive parsed from the
// source.
type expectation struct {
	severity Severity
	line     int // zero-indexed line the diagnostic must occur on
	substr   string
}

// VerifyConsumer implements the `-verify` harness: instead of printing
// diagnostics it checks them against `! expected-error{{substring}}`,
// `! expected-warning{{substring}}` and `! expected-note{{substring}}`
// directives embedded in comments of the source itself.  A directive matches a
// diagnostic of the same severity on the same line whose message contains the
// given substring.
type VerifyConsumer struct {
	path     string
	expected []expectation
	seen     []*Diagnostic
}

var directiveRegexp = regexp.MustCompile(`expected-(error|warning|note)\s*\{\{(.*?)\}\}`)

// NewVerifyConsumer creates a verify consumer for the given source buffer,
// collecting all expectation directives up front.
func NewVerifyConsumer(path, source string) *VerifyConsumer {
	vc := &VerifyConsumer{path: path}

	for ln, line := range strings.Split(source, "\n") {
		for _, m := range directiveRegexp.FindAllStringSubmatch(line, -1) {
			var sev Severity
			switch m[1] {
			case "error":
				sev = SevError
			case "warning":
				sev = SevWarning
			default:
				sev = SevNote
			}

			vc.expected = append(vc.expected, expectation{
				severity: sev,
				line:     ln,
				substr:   m[2],
			})
		}
	}

	return vc
}

func (vc *VerifyConsumer) HandleDiagnostic(d *Diagnostic) {
	vc.seen = append(vc.seen, d)
}

// Finish matches the collected diagnostics against the expectations and
// reports every mismatch.  It returns the number of mismatches.
func (vc *VerifyConsumer) Finish() int {
	failures := 0
	matched := make([]bool, len(vc.seen))

	for _, exp := range vc.expected {
		found := false
		for i, d := range vc.seen {
			if matched[i] || d.Severity != exp.severity {
				continue
			}
			if d.Span == nil || d.Span.StartLine != exp.line {
				continue
			}
			if strings.Contains(d.Message, exp.substr) {
				matched[i] = true
				found = true
				break
			}
		}

		if !found {
			fmt.Fprintf(os.Stderr, "%s:%d: expected %s not produced: %s\n",
				vc.path, exp.line+1, exp.severity, exp.substr)
			failures++
		}
	}

	for i, d := range vc.seen {
		if matched[i] {
			continue
		}
		line := 0
		if d.Span != nil {
			line = d.Span.StartLine + 1
		}
		fmt.Fprintf(os.Stderr, "%s:%d: unexpected %s: %s\n",
			vc.path, line, d.Severity, d.Message)
		failures++
	}

	return failures
}
