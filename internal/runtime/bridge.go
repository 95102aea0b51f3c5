// ==============================================================================================
// FILE: internal/runtime/bridge.go
// ==============================================================================================
// PACKAGE: runtime
// PURPOSE: The pure value-coercion half of spec.md §4.5's runtime bridge: to_boolean, to_numeric,
//          to_int32/to_uint32, is_loosely_equal, is_strictly_equal, and the type_of/logical/
//          bitwise helpers internal/jit's OpCallBridge/OpConvert/OpUnary/OpBinary instructions
//          name by SubOp string. Grounded on ECMA-262's abstract operations of the same name,
//          which is what spec.md §4.5's table itself cites ("Implements the ECMAScript ToBoolean
//          algorithm").
// ==============================================================================================

package runtime

import (
	"math"
	"strconv"
)

// ToBoolean implements ECMAScript's ToBoolean abstract operation.
func ToBoolean(v Value) bool {
	switch v.Kind {
	case KindUndefined, KindNull, KindNone:
		return false
	case KindBoolean:
		return v.Boolean
	case KindNumber:
		return v.Number != 0 && !math.IsNaN(v.Number)
	case KindString:
		return v.Str != ""
	default:
		return true
	}
}

// ToNumeric implements ECMAScript's ToNumber/ToNumeric abstract operation over this engine's
// value set (no BigInt subset, per spec.md §1's scope).
func ToNumeric(v Value) float64 {
	switch v.Kind {
	case KindNumber:
		return v.Number
	case KindBoolean:
		if v.Boolean {
			return 1
		}
		return 0
	case KindNull:
		return 0
	case KindUndefined, KindNone:
		return math.NaN()
	case KindString:
		s := v.Str
		if s == "" {
			return 0
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return n
	default:
		return math.NaN()
	}
}

// ToInt32 implements ECMAScript's ToInt32 modular conversion, per spec.md §8's boundary table
// (`to_int32(+∞) == 0`, `to_int32(2**31) == -2**31`, ...).
func ToInt32(x float64) int32 {
	if math.IsNaN(x) || math.IsInf(x, 0) || x == 0 {
		return 0
	}
	m := math.Mod(math.Trunc(x), 4294967296)
	if m < 0 {
		m += 4294967296
	}
	if m >= 2147483648 {
		m -= 4294967296
	}
	return int32(m)
}

// ToUint32 implements ECMAScript's ToUint32 modular conversion (`to_uint32(-1) == 2**32 - 1`).
func ToUint32(x float64) uint32 {
	if math.IsNaN(x) || math.IsInf(x, 0) || x == 0 {
		return 0
	}
	m := math.Mod(math.Trunc(x), 4294967296)
	if m < 0 {
		m += 4294967296
	}
	return uint32(m)
}

// IsLooselyEqual implements ECMAScript's `==` (Abstract Equality Comparison), restricted to this
// subset's value kinds.
func IsLooselyEqual(a, b Value) bool {
	if a.Kind == b.Kind {
		return IsStrictlyEqual(a, b)
	}
	if (a.Kind == KindNull && b.Kind == KindUndefined) || (a.Kind == KindUndefined && b.Kind == KindNull) {
		return true
	}
	if a.Kind == KindNumber && b.Kind == KindString {
		return a.Number == ToNumeric(b)
	}
	if a.Kind == KindString && b.Kind == KindNumber {
		return ToNumeric(a) == b.Number
	}
	if a.Kind == KindBoolean {
		return IsLooselyEqual(NumberValue(ToNumeric(a)), b)
	}
	if b.Kind == KindBoolean {
		return IsLooselyEqual(a, NumberValue(ToNumeric(b)))
	}
	return false
}

// IsStrictlyEqual implements ECMAScript's `===` (Strict Equality Comparison); per spec.md §8,
// `NaN === NaN` is false, which follows for free from Go's float64 `!=` semantics.
func IsStrictlyEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindUndefined, KindNull, KindNone:
		return true
	case KindBoolean:
		return a.Boolean == b.Boolean
	case KindNumber:
		return a.Number == b.Number
	case KindString:
		return a.Str == b.Str
	case KindClosure:
		return a.Closure == b.Closure
	case KindPromise:
		return a.Promise == b.Promise
	case KindObject:
		return a.Object == b.Object
	default:
		return false
	}
}

// TypeOf implements the `typeof` operator.
func TypeOf(v Value) string { return v.Kind.String() }

// AddAny implements `+`'s any-any fallback: string concatenation if either operand is a string,
// numeric addition otherwise, per ECMAScript's AddOperation.
func AddAny(a, b Value) Value {
	if a.Kind == KindString || b.Kind == KindString {
		return StringValue(toDisplayString(a) + toDisplayString(b))
	}
	return NumberValue(ToNumeric(a) + ToNumeric(b))
}

func toDisplayString(v Value) string {
	if v.Kind == KindString {
		return v.Str
	}
	return v.String()
}

// runBinary dispatches internal/ir.OpBinary's SubOp against two already-numeric operands.
func runBinary(sub string, l, r float64) Value {
	switch sub {
	case "add":
		return NumberValue(l + r)
	case "sub":
		return NumberValue(l - r)
	case "mul":
		return NumberValue(l * r)
	case "div":
		return NumberValue(l / r)
	case "rem":
		return NumberValue(math.Mod(l, r))
	case "bitwise_and":
		return NumberValue(float64(ToInt32(l) & ToInt32(r)))
	case "bitwise_or":
		return NumberValue(float64(ToInt32(l) | ToInt32(r)))
	case "bitwise_xor":
		return NumberValue(float64(ToInt32(l) ^ ToInt32(r)))
	case "shl":
		return NumberValue(float64(ToInt32(l) << (ToUint32(r) & 31)))
	case "shr":
		return NumberValue(float64(ToInt32(l) >> (ToUint32(r) & 31)))
	case "ushr":
		return NumberValue(float64(ToUint32(l) >> (ToUint32(r) & 31)))
	case "less":
		return BooleanValue(l < r)
	case "greater":
		return BooleanValue(l > r)
	default:
		return Undefined
	}
}

// runUnary dispatches internal/ir.OpUnary's SubOp.
func runUnary(sub string, v Value) Value {
	switch sub {
	case "neg":
		return NumberValue(-ToNumeric(v))
	case "bitwise_not":
		return NumberValue(float64(^ToInt32(ToNumeric(v))))
	case "logical_not":
		return BooleanValue(!ToBoolean(v))
	default:
		return Undefined
	}
}

// runConvert dispatches internal/ir.OpConvert's SubOp.
func runConvert(sub string, v Value) Value {
	switch sub {
	case "to_boolean":
		return BooleanValue(ToBoolean(v))
	case "to_numeric":
		return NumberValue(ToNumeric(v))
	case "to_int32":
		return NumberValue(float64(ToInt32(ToNumeric(v))))
	case "to_uint32":
		return NumberValue(float64(ToUint32(ToNumeric(v))))
	case "to_object":
		return v
	default:
		return v
	}
}

// runBridgeCall dispatches internal/ir.OpCallBridge's SubOp.
func runBridgeCall(sub string, args []Value) Value {
	switch sub {
	case "is_loosely_equal":
		return BooleanValue(IsLooselyEqual(args[0], args[1]))
	case "is_strictly_equal":
		return BooleanValue(IsStrictlyEqual(args[0], args[1]))
	case "add_any":
		return AddAny(args[0], args[1])
	case "type_of":
		return StringValue(TypeOf(args[0]))
	case "logical_not":
		return BooleanValue(!ToBoolean(args[0]))
	case "bitwise_not":
		return NumberValue(float64(^ToInt32(ToNumeric(args[0]))))
	default:
		if len(args) == 2 {
			return runBinary(sub, ToNumeric(args[0]), ToNumeric(args[1]))
		}
		return Undefined
	}
}
