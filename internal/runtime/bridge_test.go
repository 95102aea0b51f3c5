package runtime

import "testing"

func TestToInt32Boundaries(t *testing.T) {
	cases := []struct {
		in   float64
		want int32
	}{
		{0, 0},
		{2147483648, -2147483648},
		{4294967296, 0},
		{-1, -1},
	}
	for _, c := range cases {
		if got := ToInt32(c.in); got != c.want {
			t.Errorf("ToInt32(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestToUint32Boundaries(t *testing.T) {
	if got := ToUint32(-1); got != 4294967295 {
		t.Errorf("ToUint32(-1) = %v, want 4294967295", got)
	}
	if got := ToUint32(4294967296); got != 0 {
		t.Errorf("ToUint32(2**32) = %v, want 0", got)
	}
}

func TestIsStrictlyEqualNaN(t *testing.T) {
	nan := NumberValue(ToNumeric(Undefined))
	if IsStrictlyEqual(nan, nan) {
		t.Fatal("NaN === NaN must be false")
	}
}

func TestIsLooselyEqualNullUndefined(t *testing.T) {
	if !IsLooselyEqual(Null, Undefined) {
		t.Fatal("null == undefined must be true")
	}
	if IsLooselyEqual(Null, NumberValue(0)) {
		t.Fatal("null == 0 must be false")
	}
}

func TestAddAnyStringConcatVsNumericAdd(t *testing.T) {
	if got := AddAny(StringValue("a"), NumberValue(1)); got.Str != "a1" {
		t.Errorf("AddAny(\"a\", 1) = %v, want \"a1\"", got)
	}
	if got := AddAny(NumberValue(1), NumberValue(2)); got.Number != 3 {
		t.Errorf("AddAny(1, 2) = %v, want 3", got)
	}
}

func TestTypeOf(t *testing.T) {
	if TypeOf(Undefined) != "undefined" {
		t.Errorf("TypeOf(undefined) = %q", TypeOf(Undefined))
	}
	if TypeOf(NumberValue(1)) != "number" {
		t.Errorf("TypeOf(number) = %q", TypeOf(NumberValue(1)))
	}
}
