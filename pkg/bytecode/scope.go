package bytecode

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Local is a compile-time variable record: its name and the block depth
// it was declared at.
type Local struct {
	Name  string `cbor:"name"`
	Depth uint8  `cbor:"depth"`
}

// Scope is the compile-time variable table. It travels with the
// compiled program so the VM can build its runtime counterpart.
type Scope struct {
	Vars    []Local `cbor:"vars"`
	NumVars uint8   `cbor:"num_vars"`
	Depth   uint8   `cbor:"depth"`
}

// Declare records a new variable at the current depth.
func (s *Scope) Declare(name string) error {
	if s.NumVars == ChunkCapacity {
		return ErrTooManyLocals
	}
	s.Vars = append(s.Vars, Local{Name: name, Depth: s.Depth})
	s.NumVars++
	return nil
}

// Encode serializes the scope for the program container.
func (s Scope) Encode() ([]byte, error) {
	data, err := valueEncMode.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode scope: %w", err)
	}
	return data, nil
}

// DecodeScope deserializes a scope from its container bytes.
func DecodeScope(data []byte) (Scope, error) {
	var s Scope
	if err := cbor.Unmarshal(data, &s); err != nil {
		return Scope{}, fmt.Errorf("decode scope: %w", err)
	}
	return s, nil
}

// Variable is a runtime variable: a compile-time Local plus its value.
type Variable struct {
	Name  string
	Depth uint8
	Value Value
}

// RuntimeScope holds the live variables during execution.
type RuntimeScope struct {
	Vars  []Variable
	Depth uint8
}

// NewRuntimeScope derives a runtime scope from a compile-time one, each
// variable starting as Bool(false).
func NewRuntimeScope(s Scope) *RuntimeScope {
	rs := &RuntimeScope{
		Vars:  make([]Variable, len(s.Vars)),
		Depth: s.Depth,
	}
	for i, l := range s.Vars {
		rs.Vars[i] = Variable{Name: l.Name, Depth: l.Depth, Value: Bool(false)}
	}
	return rs
}

// Resolve finds the variable with the given name, preferring the most
// recent declaration.
func (rs *RuntimeScope) Resolve(name string) (*Variable, bool) {
	for i := len(rs.Vars) - 1; i >= 0; i-- {
		if rs.Vars[i].Name == name {
			return &rs.Vars[i], true
		}
	}
	return nil, false
}
