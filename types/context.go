package types

// Context owns every interned type of one translation unit.  All type
// construction goes through it; no process-wide state is involved, so
// multiple translation units can be compiled in parallel with one Context
// each.
type Context struct {
	// The canonical intrinsic types (default kind, no qualifiers).
	IntegerTy         QualType
	RealTy            QualType
	DoublePrecisionTy QualType
	ComplexTy         QualType
	CharacterTy       QualType
	LogicalTy         QualType

	builtins map[builtinKey]*BuiltinType
	extQuals map[extQualsKey]*ExtQuals
}

type builtinKey struct {
	spec TypeSpec
	kind Expr
	len  Expr
}

type extQualsKey struct {
	quals uint32
}

// NewContext creates a fresh type context with the canonical intrinsic types
// pre-interned.
func NewContext() *Context {
	c := &Context{
		builtins: make(map[builtinKey]*BuiltinType),
		extQuals: make(map[extQualsKey]*ExtQuals),
	}

	c.IntegerTy = NewQualType(c.GetBuiltinType(TSInteger, nil, nil))
	c.RealTy = NewQualType(c.GetBuiltinType(TSReal, nil, nil))
	c.DoublePrecisionTy = NewQualType(c.GetBuiltinType(TSDoublePrecision, nil, nil))
	c.ComplexTy = NewQualType(c.GetBuiltinType(TSComplex, nil, nil))
	c.CharacterTy = NewQualType(c.GetBuiltinType(TSCharacter, nil, nil))
	c.LogicalTy = NewQualType(c.GetBuiltinType(TSLogical, nil, nil))

	return c
}

// GetBuiltinType interns the intrinsic type with the given spec and optional
// KIND and LEN selector expressions.  Selector expressions are compared by
// node identity.
func (c *Context) GetBuiltinType(spec TypeSpec, kind, len Expr) *BuiltinType {
	key := builtinKey{spec: spec, kind: kind, len: len}
	if bt, ok := c.builtins[key]; ok {
		return bt
	}

	bt := &BuiltinType{Spec: spec, Kind: kind, Len: len}
	c.builtins[key] = bt
	return bt
}

// GetQualifiedType attaches a qualifier set to a type.  The APV flags are
// stored inline on the QualType; everything else goes on an interned ExtQuals
// node so the resulting QualType stays comparable with ==.
func (c *Context) GetQualifiedType(t Type, quals Qualifiers) QualType {
	qt := QualType{ty: t, apv: quals.APV()}
	if !quals.HasNonAPVQualifiers() {
		return qt
	}

	nonFast := quals
	nonFast.mask &^= apvMask
	key := extQualsKey{quals: nonFast.AsOpaqueValue()}
	eq, ok := c.extQuals[key]
	if !ok {
		eq = &ExtQuals{Quals: nonFast}
		c.extQuals[key] = eq
	}
	qt.ext = eq
	return qt
}

// GetArrayType builds an array type over the given element type.  Array types
// are not uniqued: each declarator gets its own node carrying its own
// dimension expressions.
func (c *Context) GetArrayType(elem QualType, dims []DimSpec) *ArrayType {
	return &ArrayType{Element: elem, Dims: dims}
}
