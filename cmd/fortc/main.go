package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"fortc/ast"
	"fortc/codegen"
	"fortc/report"
	"fortc/sema"
	"fortc/syntax"
	"fortc/types"

	"github.com/pelletier/go-toml"
)

// stringList is a repeatable string flag (-I dir -I dir2).
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type options struct {
	includeDirs    stringList
	libDirs        stringList
	libs           stringList
	retainComments bool
	verify         bool
	syntaxOnly     bool
	astPrint       bool
	astDump        bool
	emitLLVM       bool
	emitASM        bool
	compileOnly    bool
	debugInfo      bool
	outputPath     string
	configPath     string
	input          string
}

func parseArgs() *options {
	opts := &options{}

	flag.Var(&opts.includeDirs, "I", "directory of include files")
	flag.Var(&opts.libDirs, "L", "directory of libraries for the linker")
	flag.Var(&opts.libs, "l", "library to link against")
	flag.BoolVar(&opts.retainComments, "C", false, "do not discard comments")
	flag.BoolVar(&opts.verify, "verify", false, "run the verifier")
	flag.BoolVar(&opts.syntaxOnly, "fsyntax-only", false, "do not compile code")
	flag.BoolVar(&opts.astPrint, "ast-print", false, "print the AST after semantic analysis")
	flag.BoolVar(&opts.astDump, "ast-dump", false, "dump the AST after semantic analysis")
	flag.BoolVar(&opts.emitLLVM, "emit-llvm", false, "emit llvm")
	flag.BoolVar(&opts.emitASM, "S", false, "emit assembly")
	flag.BoolVar(&opts.compileOnly, "c", false, "compile only, do not link")
	flag.BoolVar(&opts.debugInfo, "g", false, "emit debug info")
	flag.StringVar(&opts.outputPath, "o", "", "output file")
	flag.StringVar(&opts.configPath, "config", "", "project configuration file")
	noCanonical := flag.Bool("no-canonical-prefixes", false, "do not resolve the driver path")
	flag.Parse()

	_ = *noCanonical // the driver path is never resolved; accepted for compatibility

	opts.input = "-"
	if flag.NArg() > 0 {
		opts.input = flag.Arg(0)
	}

	return opts
}

// loadConfig merges an optional fortc.toml next to the input (or the path
// given with -config) into the options.  CLI flags win.
func loadConfig(opts *options, langOpts *syntax.LangOptions) {
	path := opts.configPath
	if path == "" {
		dir := "."
		if opts.input != "-" {
			dir = filepath.Dir(opts.input)
		}
		path = filepath.Join(dir, "fortc.toml")
		if _, err := os.Stat(path); err != nil {
			return
		}
	}

	tree, err := toml.LoadFile(path)
	if err != nil {
		report.ReportFatal("cannot load configuration %s: %s", path, err)
	}

	if v, ok := tree.Get("dialect.fixed-form").(bool); ok {
		langOpts.FixedForm = v
	}
	if v, ok := tree.Get("dialect.fortran77").(bool); ok {
		langOpts.Fortran77 = v
	}
	if dirs, ok := tree.Get("paths.include").([]interface{}); ok {
		for _, d := range dirs {
			if s, ok := d.(string); ok {
				opts.includeDirs = append(opts.includeDirs, s)
			}
		}
	}
	if v, ok := tree.Get("codegen.output").(string); ok && opts.outputPath == "" {
		opts.outputPath = v
	}
	if v, ok := tree.Get("codegen.emit").(string); ok && !opts.emitLLVM && !opts.emitASM && !opts.compileOnly {
		switch v {
		case "llvm":
			opts.emitLLVM = true
		case "asm":
			opts.emitASM = true
		case "obj":
			opts.compileOnly = true
		}
	}
}

var includeRegexp = regexp.MustCompile(`(?i)^\s*INCLUDE\s+'([^']+)'\s*$`)

// expandIncludes splices INCLUDE lines, resolving file names against the
// input's directory and the -I search list.
func expandIncludes(src string, inputDir string, dirs []string, depth int) string {
	if depth > 16 {
		report.ReportFatal("INCLUDE nesting too deep")
	}

	lines := strings.Split(src, "\n")
	var out []string
	for _, line := range lines {
		m := includeRegexp.FindStringSubmatch(line)
		if m == nil {
			out = append(out, line)
			continue
		}

		name := m[1]
		var contents []byte
		var err error
		for _, dir := range append([]string{inputDir}, dirs...) {
			contents, err = ioutil.ReadFile(filepath.Join(dir, name))
			if err == nil {
				break
			}
		}
		if err != nil {
			report.ReportFatal("cannot open include file '%s'", name)
		}

		out = append(out, expandIncludes(string(contents), inputDir, dirs, depth+1))
	}
	return strings.Join(out, "\n")
}

func outputName(input string, ext string) string {
	if input == "-" {
		return "module" + ext
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + ext
}

func main() {
	opts := parseArgs()
	report.InitReporter(report.LogLevelVerbose)

	// File-extension dialect selection: .f/.F is fixed form.
	langOpts := syntax.LangOptions{ReturnComments: opts.retainComments}
	if ext := filepath.Ext(opts.input); ext == ".f" || ext == ".F" {
		langOpts.FixedForm = true
	}
	loadConfig(opts, &langOpts)

	// Read the source buffer.
	var src []byte
	var err error
	if opts.input == "-" {
		src, err = ioutil.ReadAll(os.Stdin)
	} else {
		src, err = ioutil.ReadFile(opts.input)
	}
	if err != nil {
		report.ReportFatal("could not open input file '%s': %s", opts.input, err)
	}

	inputDir := "."
	if opts.input != "-" {
		inputDir = filepath.Dir(opts.input)
	}
	text := expandIncludes(string(src), inputDir, opts.includeDirs, 0)
	report.RegisterSource(opts.input, text)

	if opts.verify {
		report.SetConsumer(report.NewVerifyConsumer(opts.input, text))
	}

	// Parse and analyze.
	ctx := types.NewContext()
	actions := sema.NewSema(ctx, opts.input)
	parser := syntax.NewParser(opts.input, text, langOpts, actions)
	parser.ParseProgramUnits()

	if opts.astPrint && actions.TU != nil {
		ast.NewPrinter(os.Stdout).PrintUnit(actions.TU)
	}
	if opts.astDump && actions.TU != nil {
		ast.NewDumper(os.Stdout).PrintUnit(actions.TU)
	}

	// The verify consumer reports expectation mismatches here.
	failures := report.Finish()
	if opts.verify {
		if failures > 0 {
			os.Exit(1)
		}
		os.Exit(0)
	}

	if report.AnyErrors() {
		os.Exit(1)
	}
	if opts.syntaxOnly {
		os.Exit(0)
	}

	// Lower to LLVM IR.
	gen := codegen.NewGenerator(ctx, opts.input)
	gen.EmitTranslationUnit(actions.TU)
	irText := gen.Module().String()

	if opts.emitLLVM {
		out := opts.outputPath
		if out == "" {
			out = outputName(opts.input, ".ll")
		}
		if out == "-" {
			fmt.Print(irText)
			os.Exit(0)
		}
		if err := ioutil.WriteFile(out, []byte(irText), 0644); err != nil {
			report.ReportFatal("cannot write output '%s': %s", out, err)
		}
		os.Exit(0)
	}

	// Assembly, object, and link steps hand the IR to the external backend.
	llPath := outputName(opts.input, ".ll")
	if err := ioutil.WriteFile(llPath, []byte(irText), 0644); err != nil {
		report.ReportFatal("cannot write output '%s': %s", llPath, err)
	}

	backendArgs := []string{llPath}
	switch {
	case opts.emitASM:
		backendArgs = append(backendArgs, "-S")
	case opts.compileOnly:
		backendArgs = append(backendArgs, "-c")
	}
	if opts.debugInfo {
		backendArgs = append(backendArgs, "-g")
	}
	if opts.outputPath != "" {
		backendArgs = append(backendArgs, "-o", opts.outputPath)
	}
	for _, dir := range opts.libDirs {
		backendArgs = append(backendArgs, "-L"+dir)
	}
	for _, lib := range opts.libs {
		backendArgs = append(backendArgs, "-l"+lib)
	}

	cmd := exec.Command("clang", backendArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		report.ReportFatal("backend invocation failed: %s", err)
	}
}
