package ast

// IdentifierInfo is an interned identifier spelling.  There is exactly one
// IdentifierInfo per spelling per translation unit; pointer comparison is
// name comparison.
type IdentifierInfo struct {
	// The canonical (upper-cased) spelling of the identifier.
	name string

	// The token kind the identifier lexes as: a plain identifier, a weak
	// keyword, or a builtin.  Kinds are owned by the syntax package.
	tokenKind int

	// The front-end token payload: the declaration currently associated with
	// this spelling, used for O(1) lookup while its scope is active.
	feToken interface{}
}

// NewIdentifierInfo creates an identifier entry.  Only the identifier table
// should call this.
func NewIdentifierInfo(name string, tokenKind int) *IdentifierInfo {
	return &IdentifierInfo{name: name, tokenKind: tokenKind}
}

// Name returns the canonical spelling.
func (ii *IdentifierInfo) Name() string { return ii.name }

// TokenKind returns the token kind this identifier classifies as.
func (ii *IdentifierInfo) TokenKind() int { return ii.tokenKind }

// SetTokenKind updates the classification of the identifier.
func (ii *IdentifierInfo) SetTokenKind(kind int) { ii.tokenKind = kind }

// FETokenInfo returns the current front-end token payload.
func (ii *IdentifierInfo) FETokenInfo() interface{} { return ii.feToken }

// SetFETokenInfo stores the front-end token payload.
func (ii *IdentifierInfo) SetFETokenInfo(payload interface{}) { ii.feToken = payload }

// VarPayload returns the payload as a variable declaration if it is one.
func (ii *IdentifierInfo) VarPayload() *VarDecl {
	vd, _ := ii.feToken.(*VarDecl)
	return vd
}

// FuncPayload returns the payload as a function declaration if it is one.
func (ii *IdentifierInfo) FuncPayload() *FunctionDecl {
	fd, _ := ii.feToken.(*FunctionDecl)
	return fd
}
