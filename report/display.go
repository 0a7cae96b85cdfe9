package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/pterm/pterm"
)

var (
	errorStyle   = pterm.NewStyle(pterm.FgRed, pterm.Bold)
	warningStyle = pterm.NewStyle(pterm.FgYellow, pterm.Bold)
	noteStyle    = pterm.NewStyle(pterm.FgCyan, pterm.Bold)
	fatalStyle   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
)

// sources caches the contents of source buffers by path so that diagnostics
// can render carets for stdin and include buffers which have no backing file.
var (
	sourcesMutex sync.Mutex
	sources      = make(map[string]string)
)

// RegisterSource records the contents of a source buffer for diagnostic
// rendering.
func RegisterSource(path, contents string) {
	sourcesMutex.Lock()
	defer sourcesMutex.Unlock()
	sources[path] = contents
}

// SourceText returns the registered contents of a source buffer, if any.
func SourceText(path string) (string, bool) {
	sourcesMutex.Lock()
	defer sourcesMutex.Unlock()
	s, ok := sources[path]
	return s, ok
}

// PrintConsumer is the default diagnostic consumer: it renders each diagnostic
// to standard output as `path:line:col: severity: message` followed by the
// offending source text with caret underlining.
type PrintConsumer struct{}

func (pc *PrintConsumer) HandleDiagnostic(d *Diagnostic) {
	displayDiagnostic(d)
}

func (pc *PrintConsumer) Finish() int {
	return 0
}

// displayDiagnostic renders a single diagnostic.
func displayDiagnostic(d *Diagnostic) {
	var style *pterm.Style
	switch d.Severity {
	case SevError:
		style = errorStyle
	case SevWarning:
		style = warningStyle
	default:
		style = noteStyle
	}

	if d.Span == nil {
		fmt.Printf("%s: %s: %s\n", d.Path, style.Sprint(d.Severity), d.Message)
		return
	}

	fmt.Printf("%s:%d:%d: %s: %s\n", d.Path, d.Span.StartLine+1, d.Span.StartCol+1,
		style.Sprint(d.Severity), d.Message)
	displaySourceText(d.Path, d.Span)
}

// displayFatal displays a fatal error message.
func displayFatal(message string) {
	fmt.Printf("%s %s\n", fatalStyle.Sprint("fatal error:"), message)
}

// displayICE displays an internal compiler error message.
func displayICE(message string) {
	fmt.Printf("%s %s\n", fatalStyle.Sprint("internal compiler error:"), message)
	fmt.Print("This error was not supposed to happen: please report it upstream\n\n")
}

// displaySourceText displays a segment of source text defined by a text span.
func displaySourceText(path string, span *TextSpan) {
	text, ok := SourceText(path)
	if !ok {
		return
	}

	// Collect all the source lines containing the given source text.
	var lines []string
	for ln, line := range strings.Split(text, "\n") {
		if span.StartLine <= ln && ln <= span.EndLine {
			lines = append(lines, strings.ReplaceAll(line, "\t", "    "))
		}
	}
	if len(lines) == 0 {
		return
	}

	// Calculate the minimum line indentation.
	minIndent := math.MaxInt32
	for _, line := range lines {
		lineIndent := 0
		for _, c := range line {
			if c == ' ' {
				lineIndent++
			} else {
				break
			}
		}

		if lineIndent < minIndent {
			minIndent = lineIndent
		}
	}

	// Calculate the maximum line number length.
	maxLineNumLen := len(strconv.Itoa(span.EndLine + 1))

	lineNumFmtStr := "%-" + strconv.Itoa(maxLineNumLen) + "v | "

	for i, line := range lines {
		fmt.Printf(lineNumFmtStr, i+span.StartLine+1)
		fmt.Println(line[minIndent:])
		fmt.Print(strings.Repeat(" ", maxLineNumLen), " | ")

		// The underline continues from the previous line for every line which
		// is not the starting line.
		var caretPrefixCount int
		if i == 0 {
			caretPrefixCount = span.StartCol - minIndent
		}

		// Only the final line stops the underline before the end of the line.
		var caretSuffixCount int
		if i == len(lines)-1 {
			caretSuffixCount = len(line) - span.EndCol - 1
		}

		caretCount := len(line) - caretSuffixCount - caretPrefixCount - minIndent
		if caretCount < 1 {
			caretCount = 1
		}
		if caretPrefixCount < 0 {
			caretPrefixCount = 0
		}

		fmt.Print(strings.Repeat(" ", caretPrefixCount))
		fmt.Println(strings.Repeat("^", caretCount))
	}
}
