package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// This file implements the AST printer backing `-ast-print` and `-ast-dump`,
// plus the expression renderer used in diagnostics.  `-ast-print` emits valid
// free-form source for the supported subset so a printed tree can be fed back
// through the compiler.

var binaryOpSpelling = map[BinaryOp]string{
	BinaryPlus:     "+",
	BinaryMinus:    "-",
	BinaryMultiply: "*",
	BinaryDivide:   "/",
	BinaryPower:    "**",
	BinaryConcat:   "//",
	BinaryEQ:       ".EQ.",
	BinaryNE:       ".NE.",
	BinaryLT:       ".LT.",
	BinaryLE:       ".LE.",
	BinaryGT:       ".GT.",
	BinaryGE:       ".GE.",
	BinaryAnd:      ".AND.",
	BinaryOr:       ".OR.",
	BinaryEqv:      ".EQV.",
	BinaryNeqv:     ".NEQV.",
}

// PrintExpr renders an expression as Fortran source text.
func PrintExpr(e Expr) string {
	switch v := e.(type) {
	case *IntegerConstantExpr:
		return strconv.FormatInt(v.Value, 10)
	case *RealConstantExpr:
		s := strconv.FormatFloat(v.Value, 'G', -1, 64)
		if !strings.ContainsAny(s, ".E") {
			s += ".0"
		}
		if v.Type().IsDoublePrecisionType() {
			if i := strings.IndexByte(s, 'E'); i >= 0 {
				s = s[:i] + "D" + s[i+1:]
			} else {
				s += "D0"
			}
		}
		return s
	case *CharacterConstantExpr:
		return "'" + strings.ReplaceAll(v.Value, "'", "''") + "'"
	case *LogicalConstantExpr:
		if v.Value {
			return ".TRUE."
		}
		return ".FALSE."
	case *VarExpr:
		return v.Decl.Name()
	case *UnaryExpr:
		switch v.Op {
		case UnaryMinus:
			return "(-" + PrintExpr(v.Operand) + ")"
		case UnaryNot:
			return "(.NOT." + PrintExpr(v.Operand) + ")"
		default:
			return "(+" + PrintExpr(v.Operand) + ")"
		}
	case *BinaryExpr:
		return "(" + PrintExpr(v.LHS) + binaryOpSpelling[v.Op] + PrintExpr(v.RHS) + ")"
	case *ImplicitCastExpr:
		return PrintExpr(v.Operand)
	case *ConversionExpr:
		return v.Kind.Name() + "(" + PrintExpr(v.Operand) + ")"
	case *ArrayElementExpr:
		return PrintExpr(v.Target) + "(" + printExprList(v.Subscripts) + ")"
	case *ArrayConstructorExpr:
		return "(/" + printExprList(v.Items) + "/)"
	case *SubstringExpr:
		lo, hi := "", ""
		if v.Lo != nil {
			lo = PrintExpr(v.Lo)
		}
		if v.Hi != nil {
			hi = PrintExpr(v.Hi)
		}
		return PrintExpr(v.Base) + "(" + lo + ":" + hi + ")"
	case *IntrinsicCallExpr:
		return v.Func.Name() + "(" + printExprList(v.Args) + ")"
	case *CallExpr:
		return v.Func.Name() + "(" + printExprList(v.Args) + ")"
	default:
		return "<invalid>"
	}
}

func printExprList(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = PrintExpr(e)
	}
	return strings.Join(parts, ", ")
}

// -----------------------------------------------------------------------------

// Printer renders declarations and statements.
type Printer struct {
	w      io.Writer
	indent int

	// Dump mode annotates nodes with their types instead of emitting
	// re-parseable source.
	dump bool
}

// NewPrinter creates a source printer (`-ast-print`).
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// NewDumper creates a dump printer (`-ast-dump`).
func NewDumper(w io.Writer) *Printer {
	return &Printer{w: w, dump: true}
}

// PrintUnit renders a whole translation unit.
func (p *Printer) PrintUnit(tu *TranslationUnitDecl) {
	for _, d := range tu.Decls() {
		p.printDecl(d)
	}
}

func (p *Printer) line(format string, args ...interface{}) {
	fmt.Fprintf(p.w, "%s%s\n", strings.Repeat("  ", p.indent), fmt.Sprintf(format, args...))
}

func (p *Printer) printDecl(d Decl) {
	switch v := d.(type) {
	case *MainProgramDecl:
		if v.Name() != "" {
			p.line("PROGRAM %s", v.Name())
		} else {
			p.line("PROGRAM")
		}
		p.indent++
		p.printMembers(&v.DeclContext)
		p.printBody(v.Body)
		p.indent--
		p.line("END PROGRAM")
	case *FunctionDecl:
		if v.External {
			if !v.Implicit() {
				p.line("EXTERNAL %s", v.Name())
			}
			return
		}
		if v.IsStatementFunction() {
			args := make([]string, len(v.Args))
			for i, a := range v.Args {
				args[i] = a.Name()
			}
			p.line("%s(%s) = %s", v.Name(), strings.Join(args, ", "), PrintExpr(v.BodyExpr))
		} else {
			p.line("FUNCTION %s", v.Name())
			p.indent++
			p.printMembers(&v.DeclContext)
			p.printBody(v.Body)
			p.indent--
			p.line("END FUNCTION")
		}
	case *SubroutineDecl:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = a.Name()
		}
		p.line("SUBROUTINE %s(%s)", v.Name(), strings.Join(args, ", "))
		p.indent++
		p.printMembers(&v.DeclContext)
		p.printBody(v.Body)
		p.indent--
		p.line("END SUBROUTINE")
	case *VarDecl:
		if p.dump {
			p.line("VarDecl %s %s kind=%d implicit=%v", v.Name(), v.Type, v.Kind, v.Implicit())
			return
		}
		// Implicitly typed and argument entities have no declaration to
		// print; PARAMETER entities print as PARAMETER statements.
		if v.Implicit() || v.IsArgument() {
			return
		}
		if v.IsParameter() {
			p.line("PARAMETER (%s = %s)", v.Name(), PrintExpr(v.Init))
			return
		}
		if at := v.Type.AsArray(); at != nil {
			dims := make([]string, len(at.Dims))
			for i, d := range at.Dims {
				upper, _ := d.Upper.(Expr)
				dims[i] = "*"
				if !d.Star {
					dims[i] = PrintExpr(upper)
				}
				if lower, ok := d.Lower.(Expr); ok {
					dims[i] = PrintExpr(lower) + ":" + dims[i]
				}
			}
			p.line("%s :: %s(%s)", at.Element, v.Name(), strings.Join(dims, ", "))
			return
		}
		p.line("%s :: %s", v.Type, v.Name())
	case *RecordDecl:
		p.line("TYPE %s", v.Name())
		p.indent++
		p.printMembers(&v.DeclContext)
		p.indent--
		p.line("END TYPE")
	case *FieldDecl:
		p.line("%s :: %s", v.Type, v.Name())
	case *IntrinsicFunctionDecl:
		p.line("INTRINSIC %s", v.Name())
	}
}

func (p *Printer) printMembers(dc *DeclContext) {
	for _, d := range dc.Decls() {
		p.printDecl(d)
	}
}

func (p *Printer) printBody(body []Stmt) {
	for _, s := range body {
		p.PrintStmt(s)
	}
}

// PrintStmt renders a single statement.
func (p *Printer) PrintStmt(s Stmt) {
	prefix := ""
	if s.Label() != nil {
		prefix = PrintExpr(s.Label()) + " "
	}

	switch v := s.(type) {
	case *AssignmentStmt:
		p.line("%s%s = %s", prefix, PrintExpr(v.LHS), PrintExpr(v.RHS))
	case *AssignStmt:
		p.line("%sASSIGN %s TO %s", prefix, labelOf(v.Address), PrintExpr(v.Var))
	case *GotoStmt:
		p.line("%sGO TO %s", prefix, labelOf(v.Destination))
	case *AssignedGotoStmt:
		labels := make([]string, len(v.AllowedValues))
		for i, l := range v.AllowedValues {
			labels[i] = PrintExpr(l)
		}
		if len(labels) > 0 {
			p.line("%sGO TO %s (%s)", prefix, PrintExpr(v.Var), strings.Join(labels, ", "))
		} else {
			p.line("%sGO TO %s", prefix, PrintExpr(v.Var))
		}
	case *IfStmt:
		p.printIfChain(prefix, v, "IF")
	case *ElseStmt:
		p.line("%sELSE", prefix)
	case *EndIfStmt:
		p.line("%sEND IF", prefix)
	case *DoStmt:
		step := ""
		if v.Step != nil {
			step = ", " + PrintExpr(v.Step)
		}
		p.line("%sDO %s %s = %s, %s%s", prefix, PrintExpr(v.TerminatingLabel),
			PrintExpr(v.DoVar), PrintExpr(v.Init), PrintExpr(v.Final), step)
		if body, ok := v.Body.(*BlockStmt); ok {
			p.printBody(body.List)
		}
	case *ContinueStmt:
		p.line("%sCONTINUE", prefix)
	case *StopStmt:
		if v.Code != nil {
			p.line("%sSTOP %s", prefix, PrintExpr(v.Code))
		} else {
			p.line("%sSTOP", prefix)
		}
	case *PrintStmt:
		items := printExprList(v.Items)
		if items != "" {
			p.line("%sPRINT *, %s", prefix, items)
		} else {
			p.line("%sPRINT *", prefix)
		}
	case *WhereStmt:
		if block, ok := v.Then.(*BlockStmt); ok {
			p.line("%sWHERE (%s)", prefix, PrintExpr(v.Mask))
			p.indent++
			p.printBody(block.List)
			p.indent--
			if elseBlock, ok := v.Else.(*BlockStmt); ok {
				p.line("ELSEWHERE")
				p.indent++
				p.printBody(elseBlock.List)
				p.indent--
			}
			p.line("END WHERE")
		} else if v.Then != nil {
			var sb strings.Builder
			(&Printer{w: &sb}).PrintStmt(v.Then)
			p.line("%sWHERE (%s) %s", prefix, PrintExpr(v.Mask), strings.TrimSpace(sb.String()))
		}
	case *BlockStmt:
		p.printBody(v.List)
	case *ImplicitStmt:
		if v.None {
			p.line("%sIMPLICIT NONE", prefix)
		} else {
			specs := make([]string, len(v.Letters))
			for i, l := range v.Letters {
				if l.Last != 0 {
					specs[i] = fmt.Sprintf("%c-%c", l.First, l.Last)
				} else {
					specs[i] = string(rune(l.First))
				}
			}
			p.line("%sIMPLICIT %s (%s)", prefix, v.Type, strings.Join(specs, ", "))
		}
	case *ConstructPartStmt:
		// Construct delimiters print as part of their construct.
	case *ProgramStmt, *EndProgramStmt:
		// Printed by the owning declaration.
	}
}

// printIfChain renders an IF with its ELSE IF / ELSE chain.
func (p *Printer) printIfChain(prefix string, v *IfStmt, kw string) {
	// A logical IF with a simple then-statement and no else prints inline.
	if v.Else == nil {
		if _, isBlock := v.Then.(*BlockStmt); !isBlock && v.Then != nil {
			var sb strings.Builder
			(&Printer{w: &sb}).PrintStmt(v.Then)
			p.line("%s%s (%s) %s", prefix, kw, PrintExpr(v.Condition), strings.TrimSpace(sb.String()))
			return
		}
	}

	p.line("%s%s (%s) THEN", prefix, kw, PrintExpr(v.Condition))
	p.indent++
	if v.Then != nil {
		p.PrintStmt(v.Then)
	}
	p.indent--

	switch e := v.Else.(type) {
	case *IfStmt:
		p.printIfChain("", e, "ELSE IF")
		return
	case nil:
	default:
		p.line("ELSE")
		p.indent++
		p.PrintStmt(e)
		p.indent--
	}
	p.line("END IF")
}

func labelOf(ref StmtLabelReference) string {
	if ref.Statement == nil {
		return "<unresolved>"
	}
	if ref.Statement.Label() != nil {
		return PrintExpr(ref.Statement.Label())
	}
	return "<unlabeled>"
}
