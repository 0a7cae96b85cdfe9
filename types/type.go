package types

import "fortc/report"

// Expr is an opaque reference to an AST expression used in kind, length and
// dimension selectors.  The concrete node types live in the ast package; the
// type system only carries them around and compares them by identity.
type Expr interface {
	Span() *report.TextSpan
}

// TypeSpec enumerates the Fortran intrinsic type specifiers.
type TypeSpec int

const (
	TSInteger TypeSpec = iota
	TSReal
	TSDoublePrecision
	TSComplex
	TSCharacter
	TSLogical
)

// Name returns the Fortran spelling of the type specifier.
func (ts TypeSpec) Name() string {
	switch ts {
	case TSInteger:
		return "INTEGER"
	case TSReal:
		return "REAL"
	case TSDoublePrecision:
		return "DOUBLE PRECISION"
	case TSComplex:
		return "COMPLEX"
	case TSCharacter:
		return "CHARACTER"
	default:
		return "LOGICAL"
	}
}

// Type is the interface implemented by all Fortran types.  Types are immutable
// once built and compared by pointer.  The Context interns builtin types, so
// equal builtin types are one pointer; array types are not uniqued, so every
// array declarator has its own distinct type.
type Type interface {
	String() string
	isType()
}

// BuiltinType is an intrinsic Fortran type, optionally parameterized by a KIND
// selector and (for CHARACTER) a LEN selector.
type BuiltinType struct {
	Spec TypeSpec

	// The KIND selector expression, or nil for the default kind.
	Kind Expr

	// The LEN selector expression, or nil.  Only meaningful for CHARACTER.
	Len Expr
}

func (bt *BuiltinType) isType() {}

func (bt *BuiltinType) String() string {
	return bt.Spec.Name()
}

// DimSpec is a single dimension declarator of an array specification: either
// an explicit shape `[lower:]upper` or the assumed-size star.
type DimSpec struct {
	// The lower bound expression, or nil for the default lower bound of 1.
	Lower Expr

	// The upper bound expression.  Nil when Star is set.
	Upper Expr

	// Whether this dimension is the assumed-size `*` declarator.
	Star bool
}

// ArrayType is an array of some element type with a fixed list of dimension
// declarators.
type ArrayType struct {
	Element QualType
	Dims    []DimSpec
}

func (at *ArrayType) isType() {}

func (at *ArrayType) String() string {
	return at.Element.String() + " array"
}

// Rank returns the number of dimensions of the array.
func (at *ArrayType) Rank() int {
	return len(at.Dims)
}

// Field is a single component of a record type.
type Field struct {
	Name string
	Type QualType
}

// RecordType is a derived type.  Only the structural skeleton is modelled;
// derived-type semantics beyond parsing are not supported.
type RecordType struct {
	Name   string
	Fields []Field
}

func (rt *RecordType) isType() {}

func (rt *RecordType) String() string {
	return "TYPE(" + rt.Name + ")"
}

// PointerType is a POINTER to some pointee type of a given rank.
type PointerType struct {
	Pointee QualType
	Rank    int
}

func (pt *PointerType) isType() {}

func (pt *PointerType) String() string {
	return pt.Pointee.String() + " pointer"
}
