package codegen

import (
	"fortc/ast"
	"fortc/report"
	"fortc/types"

	"github.com/llir/llvm/ir"
	irtypes "github.com/llir/llvm/ir/types"
)

// Generator converts one analyzed translation unit into an LLVM module via
// llir/llvm.  Each program unit becomes one function; the main program
// becomes `main`.
type Generator struct {
	ctx  *types.Context
	path string

	// mod is the LLVM module being generated.
	mod *ir.Module

	// runtime caches the declared runtime library functions by name.
	runtime map[string]*ir.Func

	// funcs maps function/subroutine declarations to their emitted LLVM
	// functions and ABI information.
	funcs map[ast.NamedDecl]*CGFunction

	// literalCount numbers the interned character literal globals.
	literalCount int
}

// NewGenerator creates a generator for one translation unit.
func NewGenerator(ctx *types.Context, path string) *Generator {
	return &Generator{
		ctx:     ctx,
		path:    path,
		mod:     ir.NewModule(),
		runtime: make(map[string]*ir.Func),
		funcs:   make(map[ast.NamedDecl]*CGFunction),
	}
}

// Module returns the generated LLVM module.
func (g *Generator) Module() *ir.Module { return g.mod }

// EmitTranslationUnit lowers every program unit of the translation unit.
// It must only be called when no errors were reported during analysis.
func (g *Generator) EmitTranslationUnit(tu *ast.TranslationUnitDecl) {
	for _, d := range tu.Decls() {
		switch v := d.(type) {
		case *ast.MainProgramDecl:
			g.emitMainProgram(v)
		case *ast.SubroutineDecl:
			// Implicitly declared externals have no body to emit.
			if !v.Implicit() {
				g.emitSubroutine(v)
			}
		case *ast.FunctionDecl:
			if !v.External && !v.IsStatementFunction() {
				g.emitFunction(v)
			}
		}
	}
}

func (g *Generator) emitMainProgram(mp *ast.MainProgramDecl) {
	fn := g.mod.NewFunc("main", irtypes.I32)
	cgf := newCodeGenFunction(g, fn, nil)
	cgf.emitPrologue(&mp.DeclContext)
	cgf.emitBody(mp.Body)
	cgf.finishWithReturn(func(b *ir.Block) {
		b.NewRet(constInt32(0))
	})
}

func (g *Generator) emitSubroutine(sd *ast.SubroutineDecl) {
	cgFn := g.GetSubroutine(sd)
	cgf := newCodeGenFunction(g, cgFn.Fn, cgFn.Info)
	cgf.bindArguments(sd.Args, cgFn)
	cgf.emitPrologue(&sd.DeclContext)
	cgf.emitBody(sd.Body)
	cgf.finishWithReturn(func(b *ir.Block) {
		b.NewRet(nil)
	})
}

func (g *Generator) emitFunction(fd *ast.FunctionDecl) {
	cgFn := g.GetFunction(fd)
	cgf := newCodeGenFunction(g, cgFn.Fn, cgFn.Info)
	cgf.bindArguments(fd.Args, cgFn)
	cgf.emitPrologue(&fd.DeclContext)

	// The function result variable shares the function's name.
	resultType := fd.ReturnType
	cgf.resultType = resultType
	if cgFn.Info.RetKind == ABIRetCharacterValueAsArg {
		// The caller provides the result buffer.
		cgf.resultPtr = cgFn.Fn.Params[cgFn.Info.RetCharPtrIdx]
	} else {
		cgf.resultPtr = cgf.entry.NewAlloca(g.ConvertTypeForMem(resultType))
	}
	if vd := g.resultVarOf(fd); vd != nil {
		cgf.vars[vd] = cgf.resultPtr
		if resultType.IsCharacterType() {
			cgf.charVars[vd] = CharValue{
				Ptr: cgf.resultPtr,
				Len: constInt64(g.charLength(resultType)),
			}
		}
	}

	cgf.emitBody(fd.Body)
	cgf.finishWithReturn(func(b *ir.Block) {
		if cgFn.Info.RetKind == ABIRetCharacterValueAsArg {
			b.NewRet(nil)
			return
		}
		ret := b.NewLoad(g.ConvertType(resultType), cgf.resultPtr)
		b.NewRet(ret)
	})
}

// resultVarOf finds the local entity carrying the function result, if the
// body ever assigned to the function name.
func (g *Generator) resultVarOf(fd *ast.FunctionDecl) *ast.VarDecl {
	for _, d := range fd.DeclContext.Decls() {
		if vd, ok := d.(*ast.VarDecl); ok && vd.Name() == fd.Name() {
			return vd
		}
	}
	return nil
}

// ice aborts on an internal lowering invariant violation.
func (g *Generator) ice(msg string, args ...interface{}) {
	report.ReportICE("codegen: "+msg, args...)
}
