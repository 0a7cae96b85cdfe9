package sema

import (
	"fortc/ast"
	"fortc/report"
	"fortc/types"
)

// DeclSpec accumulates the pieces of a type declaration statement as the
// parser collects them: the type specifier, KIND/LEN selectors, attribute
// specifiers, intent, and dimension specifiers.  ActOnTypeName reduces a
// DeclSpec to a QualType.
type DeclSpec struct {
	hasType bool
	spec    types.TypeSpec

	// The KIND selector expression, or nil.
	Kind ast.Expr

	// The LEN selector expression, or nil (CHARACTER only).
	Len ast.Expr

	// The APV attribute flags (types.QAllocatable etc.).
	APV uint32

	// The single-valued extended attribute.
	ExtAttr types.ExtAttr

	// The declared intent.
	Intent types.IntentAttr

	// The DIMENSION attribute's declarators, or nil.
	Dims []types.DimSpec

	// The span diagnostics on the declarator fall back to.
	Span *report.TextSpan
}

// SetTypeSpec records the type specifier.
func (ds *DeclSpec) SetTypeSpec(spec types.TypeSpec) {
	ds.hasType = true
	ds.spec = spec
}

// HasTypeSpec reports whether a type specifier was seen.
func (ds *DeclSpec) HasTypeSpec() bool { return ds.hasType }

// TypeSpec returns the recorded type specifier.
func (ds *DeclSpec) TypeSpec() types.TypeSpec { return ds.spec }

// HasAttributes reports whether any attribute beyond the bare type was
// collected.
func (ds *DeclSpec) HasAttributes() bool {
	return ds.APV != 0 || ds.ExtAttr != types.EANone ||
		ds.Intent != types.IANone || ds.Kind != nil || ds.Len != nil
}

// HasDimensions reports whether the DIMENSION attribute was collected.
func (ds *DeclSpec) HasDimensions() bool { return len(ds.Dims) > 0 }
