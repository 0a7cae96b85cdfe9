package types

// ExtQuals holds the "non-fast" qualifiers of a qualified type.  ExtQuals
// nodes are interned by the Context so that equal qualifier sets on the same
// type share one node and QualType values stay directly comparable.
type ExtQuals struct {
	Quals Qualifiers
}

// QualType is a (type, qualifier-set) pair.  The APV flags ride inline; any
// other qualifiers live on a shared ExtQuals node.  QualType values are
// comparable with ==: builtin types and ExtQuals are interned, array types
// compare by pointer.
type QualType struct {
	ty  Type
	apv uint32
	ext *ExtQuals
}

// NewQualType creates an unqualified QualType for the given type.
func NewQualType(t Type) QualType {
	return QualType{ty: t}
}

// IsNull returns true if this QualType doesn't point to a type yet.
func (qt QualType) IsNull() bool { return qt.ty == nil }

// TypePtr returns the underlying unqualified type.
func (qt QualType) TypePtr() Type { return qt.ty }

// Quals reassembles the full qualifier set.
func (qt QualType) Quals() Qualifiers {
	var q Qualifiers
	if qt.ext != nil {
		q = qt.ext.Quals
	}
	q.AddAPV(qt.apv)
	return q
}

func (qt QualType) HasAllocatable() bool { return qt.apv&QAllocatable != 0 }
func (qt QualType) HasParameter() bool   { return qt.apv&QParameter != 0 }
func (qt QualType) HasVolatile() bool    { return qt.apv&QVolatile != 0 }

func (qt QualType) String() string {
	if qt.ty == nil {
		return "<null>"
	}
	return qt.ty.String()
}

// Builtin returns the underlying BuiltinType, or nil.
func (qt QualType) Builtin() *BuiltinType {
	bt, _ := qt.ty.(*BuiltinType)
	return bt
}

// AsArray returns the underlying ArrayType, or nil.
func (qt QualType) AsArray() *ArrayType {
	at, _ := qt.ty.(*ArrayType)
	return at
}

// IsArrayType reports whether the type is an array.
func (qt QualType) IsArrayType() bool { return qt.AsArray() != nil }

// SelfOrArrayElement returns the element type for arrays and the type itself
// otherwise.
func (qt QualType) SelfOrArrayElement() QualType {
	if at := qt.AsArray(); at != nil {
		return at.Element
	}
	return qt
}

func (qt QualType) isSpec(ts TypeSpec) bool {
	bt := qt.Builtin()
	return bt != nil && bt.Spec == ts
}

func (qt QualType) IsIntegerType() bool         { return qt.isSpec(TSInteger) }
func (qt QualType) IsRealType() bool            { return qt.isSpec(TSReal) }
func (qt QualType) IsDoublePrecisionType() bool { return qt.isSpec(TSDoublePrecision) }
func (qt QualType) IsComplexType() bool         { return qt.isSpec(TSComplex) }
func (qt QualType) IsCharacterType() bool       { return qt.isSpec(TSCharacter) }
func (qt QualType) IsLogicalType() bool         { return qt.isSpec(TSLogical) }

// IsArithmetic reports whether the type is one of the numeric intrinsic types.
func (qt QualType) IsArithmetic() bool {
	return qt.IsIntegerType() || qt.IsRealType() ||
		qt.IsDoublePrecisionType() || qt.IsComplexType()
}
