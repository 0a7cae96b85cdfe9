package codegen

import (
	"fortc/ast"
	"fortc/types"

	"github.com/llir/llvm/ir/constant"
	irtypes "github.com/llir/llvm/ir/types"
)

// Type conversion from Fortran types to LLVM types.  Scalars map to machine
// types by kind; characters are handled as (pointer, length) pairs and only
// their storage is typed here.

var (
	// complexType is the in-register representation of default COMPLEX.
	complexType = irtypes.NewStruct(irtypes.Float, irtypes.Float)

	// charPtrType is the character storage pointer type.
	charPtrType = irtypes.NewPointer(irtypes.I8)

	// lenType is the character length type.
	lenType = irtypes.I64
)

func constInt32(v int64) constant.Constant {
	return constant.NewInt(irtypes.I32, v)
}

func constInt64(v int64) constant.Constant {
	return constant.NewInt(irtypes.I64, v)
}

// typeKindWidth folds a KIND selector to a byte width, defaulting per spec.
func (g *Generator) typeKindWidth(bt *types.BuiltinType, dflt int64) int64 {
	if bt == nil || bt.Kind == nil {
		return dflt
	}
	if v, ok := ast.EvaluateAsInt(bt.Kind.(ast.Expr)); ok && v > 0 {
		return v
	}
	return dflt
}

// charLength folds the LEN selector of a character type, defaulting to 1.
func (g *Generator) charLength(t types.QualType) int64 {
	bt := t.Builtin()
	if bt == nil || bt.Len == nil {
		return 1
	}
	if v, ok := ast.EvaluateAsInt(bt.Len.(ast.Expr)); ok && v >= 0 {
		return v
	}
	return 1
}

// ConvertType converts a Fortran type to its in-register LLVM type.
func (g *Generator) ConvertType(t types.QualType) irtypes.Type {
	if at := t.AsArray(); at != nil {
		// Arrays travel as a pointer to their element storage.
		return irtypes.NewPointer(g.ConvertTypeForMem(at.Element))
	}

	bt := t.Builtin()
	if bt == nil {
		g.ice("cannot convert type '%s'", t)
	}

	switch bt.Spec {
	case types.TSInteger:
		switch g.typeKindWidth(bt, 4) {
		case 1:
			return irtypes.I8
		case 2:
			return irtypes.I16
		case 8:
			return irtypes.I64
		default:
			return irtypes.I32
		}
	case types.TSReal:
		if g.typeKindWidth(bt, 4) == 8 {
			return irtypes.Double
		}
		return irtypes.Float
	case types.TSDoublePrecision:
		return irtypes.Double
	case types.TSLogical:
		return irtypes.I1
	case types.TSComplex:
		return complexType
	case types.TSCharacter:
		// A character value is a (ptr, len) pair; as a single LLVM value it
		// travels as the storage pointer.
		return charPtrType
	}

	g.ice("unhandled type spec %d", bt.Spec)
	return nil
}

// ConvertTypeForMem converts a Fortran type to its storage LLVM type.
func (g *Generator) ConvertTypeForMem(t types.QualType) irtypes.Type {
	if at := t.AsArray(); at != nil {
		return g.ConvertArrayTypeForMem(at)
	}
	if t.IsCharacterType() {
		return irtypes.NewArray(uint64(g.charLength(t)), irtypes.I8)
	}
	return g.ConvertType(t)
}

// EvaluateArraySize folds the total element count of an array type.
func (g *Generator) EvaluateArraySize(at *types.ArrayType) (int64, bool) {
	size := int64(1)
	for _, d := range at.Dims {
		if d.Star {
			return 0, false
		}
		var lower, upper ast.Expr
		if d.Lower != nil {
			lower = d.Lower.(ast.Expr)
		}
		if d.Upper != nil {
			upper = d.Upper.(ast.Expr)
		}
		lb, ub, ok := ast.EvaluateDimBounds(lower, upper)
		if !ok {
			return 0, false
		}
		size *= ub - lb + 1
	}
	return size, true
}

// ConvertArrayTypeForMem converts an array type to its fixed-size storage
// type.
func (g *Generator) ConvertArrayTypeForMem(at *types.ArrayType) irtypes.Type {
	size, ok := g.EvaluateArraySize(at)
	if !ok {
		g.ice("invalid memory array type")
	}
	return irtypes.NewArray(uint64(size), g.ConvertTypeForMem(at.Element))
}
