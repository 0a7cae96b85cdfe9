package ast

import (
	"fortc/report"
	"fortc/types"
)

// Decl is the interface implemented by every declaration node.  Declarations
// are immutable once built except for the invalid flag, which later passes use
// to skip nodes that already produced diagnostics.
type Decl interface {
	// Span returns the source span of the declaration.
	Span() *report.TextSpan

	// Context returns the lexical context the declaration belongs to.
	Context() *DeclContext

	// Invalid reports whether a diagnostic was attached to this declaration.
	Invalid() bool

	// SetInvalid marks the declaration as erroneous.
	SetInvalid()

	// Implicit reports whether the declaration was synthesized by implicit
	// typing rather than written in the source.
	Implicit() bool

	setNext(Decl)
	next() Decl
	setDeclContext(*DeclContext)
}

// NamedDecl is a declaration with a name.
type NamedDecl interface {
	Decl
	Name() string
}

// DeclBase carries the state common to all declarations.
type DeclBase struct {
	span     *report.TextSpan
	parent   *DeclContext
	invalid  bool
	implicit bool

	// The next declaration in the owning context's intrusive list.
	nextInContext Decl
}

// NewDeclBase creates a declaration base over the given span.
func NewDeclBase(span *report.TextSpan) DeclBase {
	return DeclBase{span: span}
}

func (db *DeclBase) Span() *report.TextSpan         { return db.span }
func (db *DeclBase) Context() *DeclContext          { return db.parent }
func (db *DeclBase) Invalid() bool                  { return db.invalid }
func (db *DeclBase) SetInvalid()                    { db.invalid = true }
func (db *DeclBase) Implicit() bool                 { return db.implicit }
func (db *DeclBase) SetImplicit()                   { db.implicit = true }
func (db *DeclBase) setNext(d Decl)                 { db.nextInContext = d }
func (db *DeclBase) next() Decl                     { return db.nextInContext }
func (db *DeclBase) setDeclContext(dc *DeclContext) { db.parent = dc }

// -----------------------------------------------------------------------------

// DeclContext is the container side of declarations that own children: the
// translation unit, program units, and records.  It keeps an intrusive,
// insertion-ordered list of child declarations plus a lazily built name lookup
// map.  Every declaration belongs to exactly one lexical context.
type DeclContext struct {
	// The declaration this context belongs to.
	owner Decl

	// The enclosing context, nil for the translation unit.
	parent *DeclContext

	head, tail Decl

	lookup map[string]NamedDecl
}

// InitDeclContext wires up an embedded context.  owner may be nil only for
// the translation unit.
func InitDeclContext(dc *DeclContext, owner Decl, parent *DeclContext) {
	dc.owner = owner
	dc.parent = parent
}

// Owner returns the declaration the context belongs to.
func (dc *DeclContext) Owner() Decl { return dc.owner }

// Parent returns the lexically enclosing context.
func (dc *DeclContext) Parent() *DeclContext { return dc.parent }

// AddDecl appends a declaration to the context, preserving insertion order.
func (dc *DeclContext) AddDecl(d Decl) {
	if d.Context() != nil {
		panic("declaration already belongs to a context")
	}
	d.setDeclContext(dc)

	if dc.tail == nil {
		dc.head = d
	} else {
		dc.tail.setNext(d)
	}
	dc.tail = d

	if nd, ok := d.(NamedDecl); ok && dc.lookup != nil {
		dc.lookup[nd.Name()] = nd
	}
}

// Decls returns the children in insertion order.
func (dc *DeclContext) Decls() []Decl {
	var ds []Decl
	for d := dc.head; d != nil; d = d.next() {
		ds = append(ds, d)
	}
	return ds
}

// LookupName finds a named child declaration, building the lookup map on
// first use.
func (dc *DeclContext) LookupName(name string) NamedDecl {
	if dc.lookup == nil {
		dc.lookup = make(map[string]NamedDecl)
		for d := dc.head; d != nil; d = d.next() {
			if nd, ok := d.(NamedDecl); ok {
				dc.lookup[nd.Name()] = nd
			}
		}
	}
	return dc.lookup[name]
}

// -----------------------------------------------------------------------------

// TranslationUnitDecl is the root of the declaration tree of one source
// buffer.
type TranslationUnitDecl struct {
	DeclBase
	DeclContext
}

// NewTranslationUnitDecl creates the root declaration of a unit.
func NewTranslationUnitDecl() *TranslationUnitDecl {
	tu := &TranslationUnitDecl{}
	InitDeclContext(&tu.DeclContext, tu, nil)
	return tu
}

// Span of the translation unit itself is meaningless; DeclBase returns nil.

// MainProgramDecl represents a PROGRAM unit.
type MainProgramDecl struct {
	DeclBase
	DeclContext

	// The program name, or nil for an unnamed main program.
	ID *IdentifierInfo

	// The executable part, in source order.
	Body []Stmt
}

// NewMainProgramDecl creates a main program declaration inside parent.
func NewMainProgramDecl(parent *DeclContext, span *report.TextSpan, id *IdentifierInfo) *MainProgramDecl {
	mp := &MainProgramDecl{DeclBase: NewDeclBase(span), ID: id}
	InitDeclContext(&mp.DeclContext, mp, parent)
	return mp
}

func (mp *MainProgramDecl) Name() string {
	if mp.ID == nil {
		return ""
	}
	return mp.ID.Name()
}

// FunctionDecl represents a FUNCTION subprogram or a statement function.
type FunctionDecl struct {
	DeclBase
	DeclContext

	ID         *IdentifierInfo
	ReturnType types.QualType

	// The dummy arguments, in declaration order.
	Args []*VarDecl

	// For a statement function, the defining expression; nil otherwise.
	BodyExpr Expr

	// Whether this function was declared EXTERNAL with no visible body.
	External bool

	// The executable part, in source order.
	Body []Stmt
}

// NewFunctionDecl creates a function declaration inside parent.
func NewFunctionDecl(parent *DeclContext, span *report.TextSpan, id *IdentifierInfo, ret types.QualType) *FunctionDecl {
	fd := &FunctionDecl{DeclBase: NewDeclBase(span), ID: id, ReturnType: ret}
	InitDeclContext(&fd.DeclContext, fd, parent)
	return fd
}

func (fd *FunctionDecl) Name() string { return fd.ID.Name() }

// IsStatementFunction reports whether the function is a single-expression
// statement function, which is always inlined at its call sites.
func (fd *FunctionDecl) IsStatementFunction() bool { return fd.BodyExpr != nil }

// SubroutineDecl represents a SUBROUTINE subprogram.
type SubroutineDecl struct {
	DeclBase
	DeclContext

	ID   *IdentifierInfo
	Args []*VarDecl

	// The executable part, in source order.
	Body []Stmt
}

// NewSubroutineDecl creates a subroutine declaration inside parent.
func NewSubroutineDecl(parent *DeclContext, span *report.TextSpan, id *IdentifierInfo) *SubroutineDecl {
	sd := &SubroutineDecl{DeclBase: NewDeclBase(span), ID: id}
	InitDeclContext(&sd.DeclContext, sd, parent)
	return sd
}

func (sd *SubroutineDecl) Name() string { return sd.ID.Name() }

// ModuleDecl is a parsed-only stub for MODULE units.
type ModuleDecl struct {
	DeclBase
	DeclContext

	ID *IdentifierInfo
}

// NewModuleDecl creates a module declaration inside parent.
func NewModuleDecl(parent *DeclContext, span *report.TextSpan, id *IdentifierInfo) *ModuleDecl {
	md := &ModuleDecl{DeclBase: NewDeclBase(span), ID: id}
	InitDeclContext(&md.DeclContext, md, parent)
	return md
}

func (md *ModuleDecl) Name() string { return md.ID.Name() }

// SubmoduleDecl is a parsed-only stub for SUBMODULE units.
type SubmoduleDecl struct {
	DeclBase
	DeclContext

	ID *IdentifierInfo
}

func (sd *SubmoduleDecl) Name() string { return sd.ID.Name() }

// RecordDecl represents a derived TYPE definition (structural stub).
type RecordDecl struct {
	DeclBase
	DeclContext

	ID *IdentifierInfo
}

// NewRecordDecl creates a derived type declaration inside parent.
func NewRecordDecl(parent *DeclContext, span *report.TextSpan, id *IdentifierInfo) *RecordDecl {
	rd := &RecordDecl{DeclBase: NewDeclBase(span), ID: id}
	InitDeclContext(&rd.DeclContext, rd, parent)
	return rd
}

func (rd *RecordDecl) Name() string { return rd.ID.Name() }

// FieldDecl is a component of a derived type.
type FieldDecl struct {
	DeclBase

	ID   *IdentifierInfo
	Type types.QualType
}

func (fd *FieldDecl) Name() string { return fd.ID.Name() }

// VarKind classifies variable declarations.
type VarKind int

const (
	VarLocal VarKind = iota
	VarArgument
	VarParameter
)

// VarDecl represents an entity declaration: a local variable, a dummy
// argument, or a named constant.
type VarDecl struct {
	DeclBase

	ID   *IdentifierInfo
	Type types.QualType
	Kind VarKind

	// The initializer: the constant expression of a PARAMETER, nil otherwise.
	Init Expr
}

// NewVarDecl creates a variable declaration.  The caller adds it to a
// context.
func NewVarDecl(span *report.TextSpan, id *IdentifierInfo, typ types.QualType) *VarDecl {
	return &VarDecl{DeclBase: NewDeclBase(span), ID: id, Type: typ}
}

func (vd *VarDecl) Name() string { return vd.ID.Name() }

// IsParameter reports whether the variable is a named constant.
func (vd *VarDecl) IsParameter() bool { return vd.Kind == VarParameter }

// IsArgument reports whether the variable is a dummy argument.
func (vd *VarDecl) IsArgument() bool { return vd.Kind == VarArgument }

// EnumConstantDecl is a parsed-only stub for ENUM members.
type EnumConstantDecl struct {
	DeclBase

	ID    *IdentifierInfo
	Value Expr
}

func (ed *EnumConstantDecl) Name() string { return ed.ID.Name() }

// IntrinsicFunctionDecl represents a name declared INTRINSIC.
type IntrinsicFunctionDecl struct {
	DeclBase

	ID *IdentifierInfo
}

// NewIntrinsicFunctionDecl creates an intrinsic function declaration.
func NewIntrinsicFunctionDecl(span *report.TextSpan, id *IdentifierInfo) *IntrinsicFunctionDecl {
	return &IntrinsicFunctionDecl{DeclBase: NewDeclBase(span), ID: id}
}

func (id *IntrinsicFunctionDecl) Name() string { return id.ID.Name() }

// FileScopeAsmDecl is a parsed-only stub.
type FileScopeAsmDecl struct {
	DeclBase

	Text string
}
