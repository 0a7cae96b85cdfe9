package types

import "testing"

func TestBuiltinInterning(t *testing.T) {
	c := NewContext()

	if c.GetBuiltinType(TSInteger, nil, nil) != c.GetBuiltinType(TSInteger, nil, nil) {
		t.Error("default INTEGER must intern to one node")
	}
	if c.GetBuiltinType(TSInteger, nil, nil) == c.GetBuiltinType(TSReal, nil, nil) {
		t.Error("INTEGER and REAL must be distinct nodes")
	}

	if !c.IntegerTy.IsIntegerType() || !c.CharacterTy.IsCharacterType() {
		t.Error("canonical types misclassified")
	}

	// Equality of QualType values is plain comparison thanks to interning.
	a := NewQualType(c.GetBuiltinType(TSLogical, nil, nil))
	b := c.LogicalTy
	if a != b {
		t.Error("equal qualified types must compare equal")
	}
}

func TestExtQualsInterning(t *testing.T) {
	c := NewContext()

	var q Qualifiers
	q.SetIntent(IAInOut)
	q.SetExtAttr(EATarget)

	qt1 := c.GetQualifiedType(c.IntegerTy.TypePtr(), q)
	qt2 := c.GetQualifiedType(c.IntegerTy.TypePtr(), q)
	if qt1 != qt2 {
		t.Error("identical qualifier sets must share one ExtQuals node")
	}

	if qt1.Quals().Intent() != IAInOut {
		t.Errorf("intent lost: %v", qt1.Quals().Intent())
	}
	if qt1.Quals().ExtAttr() != EATarget {
		t.Errorf("ext attr lost: %v", qt1.Quals().ExtAttr())
	}
}

func TestAPVFastPath(t *testing.T) {
	c := NewContext()

	var q Qualifiers
	q.AddAPV(QParameter | QVolatile)

	qt := c.GetQualifiedType(c.RealTy.TypePtr(), q)
	if !qt.HasParameter() || !qt.HasVolatile() || qt.HasAllocatable() {
		t.Error("APV flags must ride inline on the QualType")
	}

	// APV-only qualifiers must not allocate an ExtQuals node.
	if qt.ext != nil {
		t.Error("APV-only qualifiers must not allocate ExtQuals")
	}
}

func TestQualifierPacking(t *testing.T) {
	var q Qualifiers
	q.AddAPV(QAllocatable)
	q.SetExtAttr(EAPointer)
	q.SetIntent(IAOut)
	q.SetAddressSpace(77)

	round := FromOpaqueValue(q.AsOpaqueValue())
	if !round.HasAllocatable() || round.HasParameter() {
		t.Error("APV flags corrupted by round-trip")
	}
	if round.ExtAttr() != EAPointer {
		t.Errorf("ext attr corrupted: %v", round.ExtAttr())
	}
	if round.Intent() != IAOut {
		t.Errorf("intent corrupted: %v", round.Intent())
	}
	if round.AddressSpace() != 77 {
		t.Errorf("address space corrupted: %d", round.AddressSpace())
	}
}

func TestArrayTypePredicates(t *testing.T) {
	c := NewContext()

	at := c.GetArrayType(c.RealTy, []DimSpec{{}, {}})
	qt := NewQualType(at)

	if !qt.IsArrayType() || qt.AsArray().Rank() != 2 {
		t.Error("array rank lost")
	}
	if qt.SelfOrArrayElement() != c.RealTy {
		t.Error("element type lost")
	}
	if qt.IsRealType() {
		t.Error("an array of REAL is not REAL")
	}
}
