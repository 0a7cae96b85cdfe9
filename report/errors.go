package report

import "fmt"

// LocalError is a compilation error that occurs in a context in which the file
// is known by the error handler and thus doesn't need to be passed along with
// the error.  It is raised with panic and caught at program-unit granularity.
type LocalError struct {
	// The error message.
	Message string

	// The span over which the error occurs.
	Span *TextSpan
}

func (le *LocalError) Error() string {
	return le.Message
}

// Raise creates a new local compile error suitable for panicking with.
func Raise(span *TextSpan, msg string, args ...interface{}) *LocalError {
	return &LocalError{Message: fmt.Sprintf(msg, args...), Span: span}
}

// CatchErrors catches any errors thrown by a `panic` during a stage of
// compilation.  In effect, this handler determines when any errors
// "unrecoverable" within a given subsection of the compiler should stop
// bubbling.
// NB: This function must ALWAYS be deferred.
func CatchErrors(path string) {
	if x := recover(); x != nil {
		if lerr, ok := x.(*LocalError); ok {
			ReportError(path, lerr.Span, "%s", lerr.Message)
		} else if serr, ok := x.(error); ok {
			ReportError(path, nil, "%s", serr.Error())
		} else {
			ReportFatal("%v", x)
		}
	}
}
