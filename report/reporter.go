package report

import "sync"

// Reporter is responsible for routing errors, warnings, and notes produced
// during compilation to the active diagnostic consumer.  The reporter respects
// the set log level and is synchronized: its methods can be safely called from
// multiple goroutines (the driver may compile translation units in parallel;
// each unit still runs single-threaded).
type Reporter struct {
	// The mutex used to synchronize different report method calls.
	m *sync.Mutex

	// The selected log level of the reporter.  This must be one of the
	// enumerated log levels below.
	logLevel int

	// The consumer all diagnostics are handed to.
	consumer Consumer

	// Running totals by severity.
	errorCount, warningCount int
}

// Enumeration of the different possible log levels.
const (
	LogLevelSilent  = iota // Displays no output.
	LogLevelError          // Displays only errors to the user.
	LogLevelWarn           // Displays only warnings and errors to the user.
	LogLevelVerbose        // Displays all compilation messages (default).
)

// rep is the global reporter instance.
var rep *Reporter

// InitReporter initializes the global error reporter to the given log level
// with the default printing consumer.  If the reporter has already been
// initialized, this function does nothing.
func InitReporter(logLevel int) {
	if rep == nil {
		rep = &Reporter{
			m:        &sync.Mutex{},
			logLevel: logLevel,
			consumer: &PrintConsumer{},
		}
	}
}

// ResetReporter discards the global reporter so a fresh one can be installed.
// Only tests and the driver's per-unit loop use this.
func ResetReporter() {
	rep = nil
}

// SetConsumer replaces the active diagnostic consumer.  Used by the driver to
// chain in the verify consumer when `-verify` is passed.
func SetConsumer(c Consumer) {
	rep.consumer = c
}

// GetConsumer returns the active diagnostic consumer.
func GetConsumer() Consumer {
	return rep.consumer
}

// AnyErrors returns whether or not any errors were detected.
func AnyErrors() bool {
	return rep.errorCount > 0
}

// ErrorCount returns the number of error diagnostics reported so far.
func ErrorCount() int {
	return rep.errorCount
}

// Finish flushes the active consumer and returns the number of failures it
// detected on top of the reported errors.  For the printing consumer this is
// always zero; the verify consumer reports expectation mismatches here.
func Finish() int {
	return rep.consumer.Finish()
}
