package codegen

import (
	"github.com/llir/llvm/ir/value"
)

// ComplexValue is a complex value split into its components.
type ComplexValue struct {
	Re, Im value.Value
}

// CharValue is a character value as a (storage pointer, length) pair.
type CharValue struct {
	Ptr, Len value.Value
}

// RValue is the result of evaluating an expression: a scalar LLVM value, a
// complex pair, or a character pair.
type RValue struct {
	Scalar  value.Value
	Complex *ComplexValue
	Char    *CharValue
}

// ScalarRV wraps a scalar value.
func ScalarRV(v value.Value) RValue { return RValue{Scalar: v} }

// ComplexRV wraps a complex pair.
func ComplexRV(re, im value.Value) RValue {
	return RValue{Complex: &ComplexValue{Re: re, Im: im}}
}

// CharRV wraps a character pair.
func CharRV(ptr, length value.Value) RValue {
	return RValue{Char: &CharValue{Ptr: ptr, Len: length}}
}

// IsScalar reports whether the value is a plain scalar.
func (rv RValue) IsScalar() bool { return rv.Scalar != nil }

// IsComplex reports whether the value is a complex pair.
func (rv RValue) IsComplex() bool { return rv.Complex != nil }

// IsChar reports whether the value is a character pair.
func (rv RValue) IsChar() bool { return rv.Char != nil }

// IsNothing reports whether the value is empty (eg. a subroutine call).
func (rv RValue) IsNothing() bool {
	return rv.Scalar == nil && rv.Complex == nil && rv.Char == nil
}
