package ast

// This file implements the expression constant evaluator: a structural
// verifier deciding whether an expression is a constant expression, and a
// 64-bit signed integer folder used for array bounds, kind selectors and
// PARAMETER initializers.

// IsConstExpr returns true iff every leaf of the expression is a constant
// literal or a PARAMETER reference whose initializer is itself constant.
func IsConstExpr(e Expr) bool {
	return verifyConst(e, nil)
}

// GatherNonConstExprs collects the sub-expressions preventing e from being a
// constant expression.  If none can be pinpointed, e itself is returned.
func GatherNonConstExprs(e Expr) []Expr {
	var nonConst []Expr
	verifyConst(e, &nonConst)
	if len(nonConst) == 0 {
		nonConst = append(nonConst, e)
	}
	return nonConst
}

func verifyConst(e Expr, nonConst *[]Expr) bool {
	switch v := e.(type) {
	case *IntegerConstantExpr, *RealConstantExpr, *CharacterConstantExpr, *LogicalConstantExpr:
		return true
	case *UnaryExpr:
		return verifyConst(v.Operand, nonConst)
	case *BinaryExpr:
		lhs := verifyConst(v.LHS, nonConst)
		rhs := verifyConst(v.RHS, nonConst)
		return lhs && rhs
	case *ImplicitCastExpr:
		return verifyConst(v.Operand, nonConst)
	case *ConversionExpr:
		return verifyConst(v.Operand, nonConst)
	case *ArrayConstructorExpr:
		ok := true
		for _, item := range v.Items {
			ok = verifyConst(item, nonConst) && ok
		}
		return ok
	case *VarExpr:
		if v.Decl.IsParameter() {
			return verifyConst(v.Decl.Init, nonConst)
		}
		if nonConst != nil {
			*nonConst = append(*nonConst, e)
		}
		return false
	default:
		if nonConst != nil {
			*nonConst = append(*nonConst, e)
		}
		return false
	}
}

// -----------------------------------------------------------------------------

// EvaluateAsInt folds e to a 64-bit signed integer.  It returns false on
// overflow, division by zero, a negative power, or any non-foldable
// sub-expression.
func EvaluateAsInt(e Expr) (int64, bool) {
	if !e.Type().IsIntegerType() {
		return 0, false
	}
	return evalInt(e)
}

func evalInt(e Expr) (int64, bool) {
	switch v := e.(type) {
	case *IntegerConstantExpr:
		return v.Value, true

	case *UnaryExpr:
		operand, ok := evalInt(v.Operand)
		if !ok {
			return 0, false
		}
		switch v.Op {
		case UnaryPlus:
			return operand, true
		case UnaryMinus:
			return subChecked(0, operand)
		}
		return 0, false

	case *BinaryExpr:
		lhs, ok := evalInt(v.LHS)
		if !ok {
			return 0, false
		}
		rhs, ok := evalInt(v.RHS)
		if !ok {
			return 0, false
		}

		switch v.Op {
		case BinaryPlus:
			return addChecked(lhs, rhs)
		case BinaryMinus:
			return subChecked(lhs, rhs)
		case BinaryMultiply:
			return mulChecked(lhs, rhs)
		case BinaryDivide:
			if rhs == 0 || (lhs == minInt64 && rhs == -1) {
				return 0, false
			}
			return lhs / rhs, true
		case BinaryPower:
			if rhs < 0 {
				return 0, false
			}
			result := int64(1)
			for i := int64(0); i < rhs; i++ {
				var ok bool
				result, ok = mulChecked(result, lhs)
				if !ok {
					return 0, false
				}
			}
			return result, true
		}
		return 0, false

	case *ImplicitCastExpr:
		return evalInt(v.Operand)

	case *VarExpr:
		if v.Decl.IsParameter() && v.Decl.Init != nil {
			return evalInt(v.Decl.Init)
		}
		return 0, false

	default:
		return 0, false
	}
}

const (
	maxInt64 = int64(^uint64(0) >> 1)
	minInt64 = -maxInt64 - 1
)

func addChecked(a, b int64) (int64, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}

func subChecked(a, b int64) (int64, bool) {
	diff := a - b
	if (b < 0 && diff < a) || (b > 0 && diff > a) {
		return 0, false
	}
	return diff, true
}

func mulChecked(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == minInt64 && b != 1) || (b == minInt64 && a != 1) {
		return 0, false
	}
	prod := a * b
	if prod/b != a {
		return 0, false
	}
	return prod, true
}

// -----------------------------------------------------------------------------

// EvaluateDimBounds folds the bounds of one dimension declarator.  A missing
// lower bound defaults to 1.
func EvaluateDimBounds(lower, upper Expr) (lb, ub int64, ok bool) {
	lb = 1
	if lower != nil {
		lb, ok = EvaluateAsInt(lower)
		if !ok {
			return 0, 0, false
		}
	}
	if upper == nil {
		return 0, 0, false
	}
	ub, ok = EvaluateAsInt(upper)
	if !ok {
		return 0, 0, false
	}
	return lb, ub, true
}
