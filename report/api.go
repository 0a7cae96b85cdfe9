package report

import (
	"fmt"
	"os"
)

// Severity classifies a diagnostic.
type Severity int

// Enumeration of diagnostic severities.
const (
	SevError Severity = iota
	SevWarning
	SevNote
)

// String returns the severity label used in rendered diagnostics.
func (s Severity) String() string {
	switch s {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "note"
	}
}

// Diagnostic is a single message produced during compilation.
type Diagnostic struct {
	// The severity of the diagnostic.
	Severity Severity

	// The path of the source file the diagnostic occurred in.
	Path string

	// The span of the offending source text.  May be nil for diagnostics
	// without position information.
	Span *TextSpan

	// The diagnostic message.
	Message string
}

// Consumer receives every diagnostic the reporter accepts.  The compilation
// driver installs exactly one consumer per translation unit.
type Consumer interface {
	// HandleDiagnostic processes a single diagnostic.
	HandleDiagnostic(d *Diagnostic)

	// Finish is called once at the end of the unit and returns the number of
	// failures detected by the consumer itself.
	Finish() int
}

// ReportError reports a compilation error: ie. erroneous input code.  The span
// may be nil in which case no position information is attached.
func ReportError(path string, span *TextSpan, message string, args ...interface{}) {
	if rep.logLevel > LogLevelSilent {
		rep.m.Lock()
		defer rep.m.Unlock()

		rep.errorCount++
		rep.consumer.HandleDiagnostic(&Diagnostic{
			Severity: SevError,
			Path:     path,
			Span:     span,
			Message:  fmt.Sprintf(message, args...),
		})
	} else {
		rep.errorCount++
	}
}

// ReportWarning reports a compilation warning.  The arguments are of the same
// form as those to ReportError.
func ReportWarning(path string, span *TextSpan, message string, args ...interface{}) {
	rep.m.Lock()
	defer rep.m.Unlock()

	rep.warningCount++
	if rep.logLevel >= LogLevelWarn {
		rep.consumer.HandleDiagnostic(&Diagnostic{
			Severity: SevWarning,
			Path:     path,
			Span:     span,
			Message:  fmt.Sprintf(message, args...),
		})
	}
}

// ReportNote reports a follow-on note attached to the previous error or
// warning (eg. the location of a previous declaration).
func ReportNote(path string, span *TextSpan, message string, args ...interface{}) {
	if rep.logLevel > LogLevelSilent {
		rep.m.Lock()
		defer rep.m.Unlock()

		rep.consumer.HandleDiagnostic(&Diagnostic{
			Severity: SevNote,
			Path:     path,
			Span:     span,
			Message:  fmt.Sprintf(message, args...),
		})
	}
}

// ReportFatal reports a fatal error.  These are errors that should cause all
// compilation to stop immediately.  They are expected errors that generally
// result from invalid configuration: unreadable input file, bad flag
// combination, malformed fortc.toml, etc.
func ReportFatal(message string, args ...interface{}) {
	if rep == nil || rep.logLevel > LogLevelSilent {
		displayFatal(fmt.Sprintf(message, args...))
	}

	os.Exit(1)
}

// ReportICE reports an internal compiler error: a bug or violated internal
// invariant.  These are always displayed regardless of log level and abort the
// process with a non-zero status.
func ReportICE(message string, args ...interface{}) {
	displayICE(fmt.Sprintf(message, args...))

	os.Exit(-1)
}
