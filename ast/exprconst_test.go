package ast

import (
	"testing"

	"fortc/types"
)

func intConst(c *types.Context, v int64) Expr {
	return NewIntegerConstantExpr(c, nil, v)
}

func TestEvaluateAsIntArithmetic(t *testing.T) {
	c := types.NewContext()

	cases := []struct {
		expr Expr
		want int64
		ok   bool
	}{
		{intConst(c, 42), 42, true},
		{NewBinaryExpr(nil, c.IntegerTy, BinaryPlus, intConst(c, 2), intConst(c, 3)), 5, true},
		{NewBinaryExpr(nil, c.IntegerTy, BinaryMinus, intConst(c, 2), intConst(c, 7)), -5, true},
		{NewBinaryExpr(nil, c.IntegerTy, BinaryMultiply, intConst(c, 6), intConst(c, 7)), 42, true},
		{NewBinaryExpr(nil, c.IntegerTy, BinaryDivide, intConst(c, 42), intConst(c, 5)), 8, true},
		{NewBinaryExpr(nil, c.IntegerTy, BinaryDivide, intConst(c, 1), intConst(c, 0)), 0, false},
		{NewBinaryExpr(nil, c.IntegerTy, BinaryPower, intConst(c, 2), intConst(c, 10)), 1024, true},
		{NewBinaryExpr(nil, c.IntegerTy, BinaryPower, intConst(c, 2), intConst(c, -1)), 0, false},
		{NewUnaryExpr(nil, UnaryMinus, intConst(c, 9)), -9, true},
		{NewUnaryExpr(nil, UnaryPlus, intConst(c, 9)), 9, true},
	}

	for i, tc := range cases {
		got, ok := EvaluateAsInt(tc.expr)
		if ok != tc.ok {
			t.Errorf("case %d: ok=%v, want %v", i, ok, tc.ok)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("case %d: got %d, want %d", i, got, tc.want)
		}
	}
}

func TestEvaluateAsIntOverflow(t *testing.T) {
	c := types.NewContext()
	big := intConst(c, maxInt64)

	if _, ok := EvaluateAsInt(NewBinaryExpr(nil, c.IntegerTy, BinaryPlus, big, intConst(c, 1))); ok {
		t.Error("addition overflow must fail")
	}
	if _, ok := EvaluateAsInt(NewBinaryExpr(nil, c.IntegerTy, BinaryMultiply, big, intConst(c, 2))); ok {
		t.Error("multiplication overflow must fail")
	}
	if _, ok := EvaluateAsInt(NewBinaryExpr(nil, c.IntegerTy, BinaryPower, intConst(c, 2), intConst(c, 64))); ok {
		t.Error("power overflow must fail")
	}
	// 2**62 still fits.
	if v, ok := EvaluateAsInt(NewBinaryExpr(nil, c.IntegerTy, BinaryPower, intConst(c, 2), intConst(c, 62))); !ok || v != 1<<62 {
		t.Errorf("2**62 must fold, got %d ok=%v", v, ok)
	}
}

func TestEvaluateAsIntNonInteger(t *testing.T) {
	c := types.NewContext()
	realConst := NewRealConstantExpr(nil, c.RealTy, 1.5)

	if _, ok := EvaluateAsInt(realConst); ok {
		t.Error("a REAL expression must not fold as integer")
	}
}

func TestParameterReferenceFolds(t *testing.T) {
	c := types.NewContext()

	n := NewVarDecl(nil, NewIdentifierInfo("N", 0), c.IntegerTy)
	n.Kind = VarParameter
	n.Init = intConst(c, 4)

	ref := NewVarExpr(nil, n)
	doubled := NewBinaryExpr(nil, c.IntegerTy, BinaryMultiply, ref, intConst(c, 2))

	if !IsConstExpr(doubled) {
		t.Error("a PARAMETER reference is a constant expression")
	}
	if v, ok := EvaluateAsInt(doubled); !ok || v != 8 {
		t.Errorf("expected 8, got %d ok=%v", v, ok)
	}
}

func TestNonConstVariable(t *testing.T) {
	c := types.NewContext()

	x := NewVarDecl(nil, NewIdentifierInfo("X", 0), c.IntegerTy)
	ref := NewVarExpr(nil, x)

	if IsConstExpr(ref) {
		t.Error("a plain variable is not a constant expression")
	}
	if _, ok := EvaluateAsInt(ref); ok {
		t.Error("a plain variable must not fold")
	}

	nonConst := GatherNonConstExprs(ref)
	if len(nonConst) != 1 || nonConst[0] != Expr(ref) {
		t.Error("the offending expression must be collected")
	}
}

func TestEvaluateDimBounds(t *testing.T) {
	c := types.NewContext()

	lb, ub, ok := EvaluateDimBounds(nil, intConst(c, 10))
	if !ok || lb != 1 || ub != 10 {
		t.Errorf("default lower bound must be 1: got (%d, %d, %v)", lb, ub, ok)
	}

	lb, ub, ok = EvaluateDimBounds(intConst(c, -3), intConst(c, 3))
	if !ok || lb != -3 || ub != 3 {
		t.Errorf("explicit bounds lost: got (%d, %d, %v)", lb, ub, ok)
	}

	if _, _, ok := EvaluateDimBounds(nil, nil); ok {
		t.Error("a missing upper bound must not fold")
	}
}
