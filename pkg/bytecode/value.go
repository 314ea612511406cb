package bytecode

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/fxamacker/cbor/v2"
)

// valueEncMode is the CBOR encoding mode used for constants and scopes.
// Canonical mode keeps the encoding deterministic so compiled programs
// are byte-for-byte reproducible.
var valueEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	valueEncMode = em
}

// ValueKind identifies which variant a Value holds.
type ValueKind uint8

const (
	KindNumber ValueKind = iota
	KindBool
	KindString
)

func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("ValueKind(%d)", uint8(k))
	}
}

// Value is a blush runtime value: a number, a bool, or a string.
// The zero Value is Number(0); registers are initialized to Bool(false)
// explicitly.
type Value struct {
	kind ValueKind
	num  float32
	b    bool
	str  string
}

// Number creates a number value.
func Number(n float32) Value {
	return Value{kind: KindNumber, num: n}
}

// Bool creates a bool value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// String creates a string value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Kind returns the variant this value holds.
func (v Value) Kind() ValueKind {
	return v.kind
}

// AsNumber returns the number payload, and whether the value is a number.
func (v Value) AsNumber() (float32, bool) {
	return v.num, v.kind == KindNumber
}

// AsBool returns the bool payload, and whether the value is a bool.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsString returns the string payload, and whether the value is a string.
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(float64(v.num), 'g', -1, 32)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		return strconv.Quote(v.str)
	default:
		return fmt.Sprintf("Value(%d)", uint8(v.kind))
	}
}

// Equal reports whether two values hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	return v == o
}

// Add returns v + o. Defined only between two numbers.
func (v Value) Add(o Value) (Value, error) {
	l, lok := v.AsNumber()
	r, rok := o.AsNumber()
	if !lok || !rok {
		return Value{}, conflict("+", v.kind, o.kind)
	}
	return Number(l + r), nil
}

// Sub returns v - o. Defined only between two numbers.
func (v Value) Sub(o Value) (Value, error) {
	l, lok := v.AsNumber()
	r, rok := o.AsNumber()
	if !lok || !rok {
		return Value{}, conflict("-", v.kind, o.kind)
	}
	return Number(l - r), nil
}

// Mul returns v * o. Defined only between two numbers.
func (v Value) Mul(o Value) (Value, error) {
	l, lok := v.AsNumber()
	r, rok := o.AsNumber()
	if !lok || !rok {
		return Value{}, conflict("*", v.kind, o.kind)
	}
	return Number(l * r), nil
}

// Div returns v / o. Defined only between two numbers; division by zero
// follows IEEE 754 (infinity or NaN).
func (v Value) Div(o Value) (Value, error) {
	l, lok := v.AsNumber()
	r, rok := o.AsNumber()
	if !lok || !rok {
		return Value{}, conflict("/", v.kind, o.kind)
	}
	return Number(l / r), nil
}

// Neg returns -v. Defined only on numbers.
func (v Value) Neg() (Value, error) {
	n, ok := v.AsNumber()
	if !ok {
		return Value{}, conflict("-", v.kind, v.kind)
	}
	return Number(-n), nil
}

// Not returns !v. Defined only on bools.
func (v Value) Not() (Value, error) {
	b, ok := v.AsBool()
	if !ok {
		return Value{}, conflict("!", v.kind, v.kind)
	}
	return Bool(!b), nil
}

// Less reports v < o. Defined only between two numbers.
func (v Value) Less(o Value) (bool, error) {
	l, lok := v.AsNumber()
	r, rok := o.AsNumber()
	if !lok || !rok {
		return false, conflict("<", v.kind, o.kind)
	}
	return l < r, nil
}

// LessEq reports v <= o. Defined only between two numbers.
func (v Value) LessEq(o Value) (bool, error) {
	l, lok := v.AsNumber()
	r, rok := o.AsNumber()
	if !lok || !rok {
		return false, conflict("<=", v.kind, o.kind)
	}
	return l <= r, nil
}

// wireValue is the CBOR shape of a Value: a fixed four-element array so
// decoding never depends on map key order.
type wireValue struct {
	_    struct{} `cbor:",toarray"`
	Kind uint8
	Num  float32
	Bool bool
	Str  string
}

// Encode serializes the value to its constant-pool byte form.
func (v Value) Encode() ([]byte, error) {
	data, err := valueEncMode.Marshal(wireValue{
		Kind: uint8(v.kind),
		Num:  v.num,
		Bool: v.b,
		Str:  v.str,
	})
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return data, nil
}

// DecodeValue deserializes a value from exactly the given bytes.
func DecodeValue(data []byte) (Value, error) {
	var w wireValue
	if err := cbor.Unmarshal(data, &w); err != nil {
		return Value{}, fmt.Errorf("decode value: %w", err)
	}
	return valueFromWire(w)
}

// DecodeValuePrefix deserializes one value from the front of data,
// ignoring any trailing bytes. Used to resolve name constants addressed
// by pool index alone.
func DecodeValuePrefix(data []byte) (Value, error) {
	dec := cbor.NewDecoder(bytes.NewReader(data))
	var w wireValue
	if err := dec.Decode(&w); err != nil {
		return Value{}, fmt.Errorf("decode value: %w", err)
	}
	return valueFromWire(w)
}

func valueFromWire(w wireValue) (Value, error) {
	switch ValueKind(w.Kind) {
	case KindNumber:
		return Number(w.Num), nil
	case KindBool:
		return Bool(w.Bool), nil
	case KindString:
		return String(w.Str), nil
	default:
		return Value{}, fmt.Errorf("decode value: unknown kind %d", w.Kind)
	}
}

func conflict(op string, kinds ...ValueKind) error {
	return &TypeConflictError{Op: op, Operands: kinds}
}
