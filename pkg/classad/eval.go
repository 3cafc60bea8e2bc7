package classad

// EvalError signals that a Requirements expression could not be
// evaluated against the given bindings (unknown reference, type
// mismatch). The matcher's policy is to treat every EvalError as a
// conservative non-match — see EvaluateRequirements's doc.
type EvalError struct {
	msg string
}

func (e *EvalError) Error() string { return "classad: " + e.msg }

// EvaluateRequirements evaluates selfDesc's Requirements expression with
// self.* bound to selfDesc's attributes and other.* bound to
// otherDesc's. Unknown attribute references and type-mismatched
// comparisons evaluate to false rather than failing the whole
// expression — only a structural problem (can't happen once parsed)
// would return an EvalError. Boolean connectives short-circuit.
func EvaluateRequirements(selfDesc, otherDesc *Descriptor) (bool, error) {
	v := evaluator{self: selfDesc, other: otherDesc}
	return v.evalBool(selfDesc.Requirements()), nil
}

type evaluator struct {
	self, other *Descriptor
}

func (v *evaluator) evalBool(e Expr) bool {
	switch n := e.(type) {
	case BoolLit:
		return bool(n)
	case Not:
		return !v.evalBool(n.Operand)
	case Logical:
		switch n.Op {
		case OpAnd:
			return v.evalBool(n.Left) && v.evalBool(n.Right)
		case OpOr:
			return v.evalBool(n.Left) || v.evalBool(n.Right)
		}
		return false
	case Compare:
		return v.evalCompare(n)
	case Ref:
		// A bare reference used where a boolean is expected: only
		// meaningful if it resolves to a bool-kind attribute.
		val, ok := v.resolve(n)
		if !ok || val.Kind != KindBool {
			return false
		}
		return val.Bool
	default:
		return false
	}
}

func (v *evaluator) evalCompare(c Compare) bool {
	lv, lok := v.evalValue(c.Left)
	rv, rok := v.evalValue(c.Right)
	if !lok || !rok {
		return false
	}
	switch c.Op {
	case CmpEq:
		return valuesEqual(lv, rv)
	case CmpNe:
		return !valuesEqual(lv, rv)
	case CmpLt, CmpLe, CmpGt, CmpGe:
		return compareOrdered(c.Op, lv, rv)
	default:
		return false
	}
}

// evalValue resolves a leaf (literal or reference) to a comparable
// Value. Compound boolean nodes are not valid comparison operands and
// resolve to !ok.
func (v *evaluator) evalValue(e Expr) (Value, bool) {
	switch n := e.(type) {
	case BoolLit:
		return Value{Kind: KindBool, Bool: bool(n)}, true
	case IntLit:
		return Value{Kind: KindInt, Int: int64(n)}, true
	case FloatLit:
		return Value{Kind: KindFloat, Float: float64(n)}, true
	case StringLit:
		return Value{Kind: KindString, Str: string(n)}, true
	case Ref:
		return v.resolve(n)
	default:
		return Value{}, false
	}
}

func (v *evaluator) resolve(ref Ref) (Value, bool) {
	var d *Descriptor
	switch ref.Qualifier {
	case "self":
		d = v.self
	case "other":
		d = v.other
	default:
		return Value{}, false
	}
	if d == nil {
		return Value{}, false
	}
	return d.GetAttribute(ref.Name)
}

func valuesEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		// "==" with mixed types is false.
		if isNumeric(a.Kind) && isNumeric(b.Kind) {
			return numeric(a) == numeric(b)
		}
		return false
	}
	switch a.Kind {
	case KindString:
		return a.Str == b.Str
	case KindInt:
		return a.Int == b.Int
	case KindFloat:
		return a.Float == b.Float
	case KindBool:
		return a.Bool == b.Bool
	default:
		return false
	}
}

func compareOrdered(op CmpOp, a, b Value) bool {
	if !isNumeric(a.Kind) || !isNumeric(b.Kind) {
		if a.Kind == KindString && b.Kind == KindString {
			return compareStrings(op, a.Str, b.Str)
		}
		return false
	}
	av, bv := numeric(a), numeric(b)
	switch op {
	case CmpLt:
		return av < bv
	case CmpLe:
		return av <= bv
	case CmpGt:
		return av > bv
	case CmpGe:
		return av >= bv
	default:
		return false
	}
}

func compareStrings(op CmpOp, a, b string) bool {
	switch op {
	case CmpLt:
		return a < b
	case CmpLe:
		return a <= b
	case CmpGt:
		return a > b
	case CmpGe:
		return a >= b
	default:
		return false
	}
}

func isNumeric(k ValueKind) bool { return k == KindInt || k == KindFloat }

func numeric(v Value) float64 {
	if v.Kind == KindInt {
		return float64(v.Int)
	}
	return v.Float
}
