package bytecode

import "fmt"

// Opcode represents a bytecode instruction.
// The instruction set is closed: any other byte in opcode position is
// malformed bytecode.
type Opcode byte

const (
	// ========================================================================
	// Constants
	// ========================================================================

	OpConst Opcode = 0 // Load constant: OpConst <idx:u8> <len:u8> <dst:u8>

	// ========================================================================
	// Arithmetic - registers[a] op registers[b] into registers[dst]
	// ========================================================================

	OpAdd Opcode = 1 // OpAdd <a:u8> <b:u8> <dst:u8>
	OpSub Opcode = 2 // OpSub <a:u8> <b:u8> <dst:u8>
	OpMul Opcode = 3 // OpMul <a:u8> <b:u8> <dst:u8>
	OpDiv Opcode = 4 // OpDiv <a:u8> <b:u8> <dst:u8>

	// ========================================================================
	// Comparison - skip the next two bytecode bytes when the predicate
	// is false
	// ========================================================================

	OpEq Opcode = 5 // OpEq <a:u8> <b:u8>
	OpNe Opcode = 6 // OpNe <a:u8> <b:u8>
	OpLt Opcode = 7 // OpLt <a:u8> <b:u8>
	OpLe Opcode = 8 // OpLe <a:u8> <b:u8>

	// ========================================================================
	// Unary - op registers[src] into registers[dst]
	// ========================================================================

	OpNot Opcode = 9  // OpNot <src:u8> <dst:u8>
	OpNeg Opcode = 10 // OpNeg <src:u8> <dst:u8>

	// ========================================================================
	// Variables - idx is the constant-pool byte offset of the encoded name
	// ========================================================================

	OpLet  Opcode = 11 // Declare: OpLet <idx:u8> <val:u8>
	OpRead Opcode = 12 // Read into register: OpRead <idx:u8> <dst:u8>
	OpSet  Opcode = 13 // Assign: OpSet <idx:u8> <val:u8>
)

// OpcodeInfo provides metadata about each opcode for debugging and validation.
type OpcodeInfo struct {
	Name       string // Human-readable name
	OperandLen int    // Number of operand bytes following the opcode
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpConst: {"CONST", 3},

	OpAdd: {"ADD", 3},
	OpSub: {"SUB", 3},
	OpMul: {"MUL", 3},
	OpDiv: {"DIV", 3},

	OpEq: {"EQ", 2},
	OpNe: {"NE", 2},
	OpLt: {"LT", 2},
	OpLe: {"LE", 2},

	OpNot: {"NOT", 2},
	OpNeg: {"NEG", 2},

	OpLet:  {"LET", 2},
	OpRead: {"READ", 2},
	OpSet:  {"SET", 2},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op)), OperandLen: 0}
}

// Valid returns true if the opcode is part of the instruction set.
func (op Opcode) Valid() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// OperandLen returns the number of operand bytes for this opcode.
func (op Opcode) OperandLen() int {
	return GetOpcodeInfo(op).OperandLen
}

// InstructionLen returns the total length of an instruction (1 + operand bytes).
func (op Opcode) InstructionLen() int {
	return 1 + op.OperandLen()
}

// IsComparison returns true if this opcode is a skip-on-false comparison.
func (op Opcode) IsComparison() bool {
	return op >= OpEq && op <= OpLe
}

// IsVariableOp returns true if this opcode addresses a named variable.
func (op Opcode) IsVariableOp() bool {
	return op == OpLet || op == OpRead || op == OpSet
}

// AllOpcodes returns a slice of all defined opcodes in numeric order.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := OpConst; op <= OpSet; op++ {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
