package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Runtime library declarations.  The character entry points follow the fixed
// contracts the IR references:
//
//	assignment_char1(dst-ptr, dst-len, src-ptr, src-len)   blank-pad/truncate
//	concat_char1(dst-ptr, dst-len, a-ptr, a-len, b-ptr, b-len)
//	compare_char1(a-ptr, a-len, b-ptr, b-len) -> i32

func literalName(n int) string {
	return fmt.Sprintf("strlit.%d", n)
}

// getRuntimeFunc declares a runtime function once and caches it.
func (g *Generator) getRuntimeFunc(name string, ret irtypes.Type, params ...irtypes.Type) *ir.Func {
	if fn, ok := g.runtime[name]; ok {
		return fn
	}

	irParams := make([]*ir.Param, len(params))
	for i, t := range params {
		irParams[i] = ir.NewParam("", t)
	}
	fn := g.mod.NewFunc(name, ret, irParams...)
	g.runtime[name] = fn
	return fn
}

func (g *Generator) runtimeAssignChar() *ir.Func {
	return g.getRuntimeFunc("assignment_char1", irtypes.Void,
		charPtrType, lenType, charPtrType, lenType)
}

func (g *Generator) runtimeConcatChar() *ir.Func {
	return g.getRuntimeFunc("concat_char1", irtypes.Void,
		charPtrType, lenType, charPtrType, lenType, charPtrType, lenType)
}

func (g *Generator) runtimeCompareChar() *ir.Func {
	return g.getRuntimeFunc("compare_char1", irtypes.I32,
		charPtrType, lenType, charPtrType, lenType)
}

func (g *Generator) runtimeStop() *ir.Func {
	return g.getRuntimeFunc("fort_stop", irtypes.Void, irtypes.I32)
}

func (g *Generator) runtimePow() *ir.Func {
	return g.getRuntimeFunc("fort_pow", irtypes.Double, irtypes.Double, irtypes.Double)
}

func (g *Generator) runtimePowInt() *ir.Func {
	return g.getRuntimeFunc("fort_pow_i32", irtypes.I32, irtypes.I32, irtypes.I32)
}

func (g *Generator) runtimeMalloc() *ir.Func {
	return g.getRuntimeFunc("fort_malloc", charPtrType, lenType)
}

func (g *Generator) runtimePrintBegin() *ir.Func {
	return g.getRuntimeFunc("fort_print_begin", irtypes.Void)
}

func (g *Generator) runtimePrintEnd() *ir.Func {
	return g.getRuntimeFunc("fort_print_end", irtypes.Void)
}

func (g *Generator) runtimePrintInt() *ir.Func {
	return g.getRuntimeFunc("fort_print_int", irtypes.Void, irtypes.I64)
}

func (g *Generator) runtimePrintReal() *ir.Func {
	return g.getRuntimeFunc("fort_print_real", irtypes.Void, irtypes.Double)
}

func (g *Generator) runtimePrintLogical() *ir.Func {
	return g.getRuntimeFunc("fort_print_logical", irtypes.Void, irtypes.I32)
}

func (g *Generator) runtimePrintChar() *ir.Func {
	return g.getRuntimeFunc("fort_print_char", irtypes.Void, charPtrType, lenType)
}

// runtimeMathUnary declares a libm-style unary math function for the given
// float type.
func (g *Generator) runtimeMathUnary(name string, t irtypes.Type) *ir.Func {
	if t == irtypes.Float {
		return g.getRuntimeFunc(name+"f", irtypes.Float, irtypes.Float)
	}
	return g.getRuntimeFunc(name, irtypes.Double, irtypes.Double)
}

// runtimeMathBinary declares a libm-style binary math function.
func (g *Generator) runtimeMathBinary(name string, t irtypes.Type) *ir.Func {
	if t == irtypes.Float {
		return g.getRuntimeFunc(name+"f", irtypes.Float, irtypes.Float, irtypes.Float)
	}
	return g.getRuntimeFunc(name, irtypes.Double, irtypes.Double, irtypes.Double)
}

// EmitRuntimeCall calls a runtime function with the runtime calling
// convention.
func (f *CodeGenFunction) EmitRuntimeCall(fn *ir.Func, args []value.Value) value.Value {
	return f.block.NewCall(fn, args...)
}
