package bytecode

import (
	"errors"
	"testing"
)

func TestValueConstructors(t *testing.T) {
	if n, ok := Number(1.5).AsNumber(); !ok || n != 1.5 {
		t.Errorf("Number(1.5).AsNumber() = %v, %v, want 1.5, true", n, ok)
	}
	if b, ok := Bool(true).AsBool(); !ok || !b {
		t.Errorf("Bool(true).AsBool() = %v, %v, want true, true", b, ok)
	}
	if s, ok := String("hi").AsString(); !ok || s != "hi" {
		t.Errorf("String(\"hi\").AsString() = %q, %v, want \"hi\", true", s, ok)
	}

	if _, ok := Number(1).AsBool(); ok {
		t.Error("Number(1).AsBool() reported ok")
	}
	if _, ok := Bool(false).AsString(); ok {
		t.Error("Bool(false).AsString() reported ok")
	}
}

func TestValueArithmetic(t *testing.T) {
	tests := []struct {
		name string
		f    func(Value, Value) (Value, error)
		a, b Value
		want Value
	}{
		{"add", Value.Add, Number(8), Number(12), Number(20)},
		{"sub", Value.Sub, Number(8), Number(12), Number(-4)},
		{"mul", Value.Mul, Number(3), Number(4), Number(12)},
		{"div", Value.Div, Number(8), Number(2), Number(4)},
	}

	for _, tt := range tests {
		got, err := tt.f(tt.a, tt.b)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("%s: got %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestValueTypeConflicts(t *testing.T) {
	if _, err := Number(1).Add(Bool(true)); err == nil {
		t.Error("Number + Bool did not fail")
	} else {
		var conflict *TypeConflictError
		if !errors.As(err, &conflict) {
			t.Errorf("error is %T, want *TypeConflictError", err)
		}
	}

	if _, err := String("a").Mul(String("b")); err == nil {
		t.Error("String * String did not fail")
	}
	if _, err := Bool(true).Neg(); err == nil {
		t.Error("-Bool did not fail")
	}
	if _, err := Number(1).Not(); err == nil {
		t.Error("!Number did not fail")
	}
	if _, err := String("a").Less(String("b")); err == nil {
		t.Error("String < String did not fail")
	}
}

func TestValueUnary(t *testing.T) {
	got, err := Number(3).Neg()
	if err != nil {
		t.Fatalf("Neg failed: %v", err)
	}
	if !got.Equal(Number(-3)) {
		t.Errorf("Neg(3) = %s, want -3", got)
	}

	got, err = Bool(false).Not()
	if err != nil {
		t.Fatalf("Not failed: %v", err)
	}
	if !got.Equal(Bool(true)) {
		t.Errorf("Not(false) = %s, want true", got)
	}
}

func TestValueComparison(t *testing.T) {
	if lt, _ := Number(8).Less(Number(12)); !lt {
		t.Error("8 < 12 reported false")
	}
	if lt, _ := Number(12).Less(Number(8)); lt {
		t.Error("12 < 8 reported true")
	}
	if le, _ := Number(8).LessEq(Number(8)); !le {
		t.Error("8 <= 8 reported false")
	}
}

func TestValueEqualAcrossKinds(t *testing.T) {
	// Eq is defined for any pair of kinds; differing kinds are unequal.
	if Number(1).Equal(Bool(true)) {
		t.Error("Number(1) == Bool(true)")
	}
	if !String("x").Equal(String("x")) {
		t.Error("String(\"x\") != String(\"x\")")
	}
}

func TestValueEncodeRoundTrip(t *testing.T) {
	values := []Value{
		Number(0),
		Number(-1.25),
		Bool(true),
		Bool(false),
		String(""),
		String("variable_name"),
	}

	for _, v := range values {
		data, err := v.Encode()
		if err != nil {
			t.Fatalf("Encode(%s) failed: %v", v, err)
		}
		got, err := DecodeValue(data)
		if err != nil {
			t.Fatalf("DecodeValue(%s) failed: %v", v, err)
		}
		if !got.Equal(v) {
			t.Errorf("round trip: got %s, want %s", got, v)
		}
	}
}

func TestValueEncodeDeterministic(t *testing.T) {
	a, err := String("x").Encode()
	if err != nil {
		t.Fatal(err)
	}
	b, err := String("x").Encode()
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("encoding the same value twice produced different bytes")
	}
}

func TestDecodeValuePrefix(t *testing.T) {
	first, err := String("x").Encode()
	if err != nil {
		t.Fatal(err)
	}
	second, err := Number(5).Encode()
	if err != nil {
		t.Fatal(err)
	}
	pool := append(append([]byte{}, first...), second...)

	got, err := DecodeValuePrefix(pool)
	if err != nil {
		t.Fatalf("DecodeValuePrefix failed: %v", err)
	}
	if !got.Equal(String("x")) {
		t.Errorf("prefix decode = %s, want \"x\"", got)
	}

	got, err = DecodeValuePrefix(pool[len(first):])
	if err != nil {
		t.Fatalf("DecodeValuePrefix at offset failed: %v", err)
	}
	if !got.Equal(Number(5)) {
		t.Errorf("prefix decode at offset = %s, want 5", got)
	}
}

func TestDecodeValueGarbage(t *testing.T) {
	if _, err := DecodeValue([]byte{0xFF, 0x00, 0x01}); err == nil {
		t.Error("decoding garbage did not fail")
	}
}
