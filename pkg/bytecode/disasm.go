package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the chunk: its
// decoded constant pool followed by its instructions.
func (o OpenChunk) Disassemble() string {
	var sb strings.Builder

	if len(o.Constants) > 0 {
		sb.WriteString("; Constants:\n")
		offset := 0
		for offset < len(o.Constants) {
			v, err := DecodeValuePrefix(o.Constants[offset:])
			if err != nil {
				sb.WriteString(fmt.Sprintf(";   [%3d] <undecodable: %v>\n", offset, err))
				break
			}
			sb.WriteString(fmt.Sprintf(";   [%3d] %s\n", offset, v))

			// Canonical encoding is deterministic, so re-encoding tells
			// us how many pool bytes the value occupies.
			encoded, err := v.Encode()
			if err != nil {
				break
			}
			offset += len(encoded)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("; Code:\n")
	offset := 0
	for offset < len(o.Bytecode) {
		line, instrLen := o.disassembleInstruction(offset)
		sb.WriteString(fmt.Sprintf("%04X  %s\n", offset, line))
		if instrLen <= 0 {
			break
		}
		offset += instrLen
	}

	return sb.String()
}

// disassembleInstruction disassembles a single instruction at the given offset.
// Returns the formatted string and the instruction length.
func (o OpenChunk) disassembleInstruction(offset int) (string, int) {
	op := Opcode(o.Bytecode[offset])
	if !op.Valid() {
		return op.String(), 1
	}
	if offset+op.OperandLen() >= len(o.Bytecode) {
		return fmt.Sprintf("%s <truncated>", op), len(o.Bytecode) - offset
	}

	args := o.Bytecode[offset+1 : offset+op.InstructionLen()]

	switch op {
	case OpConst:
		idx, length, dst := args[0], args[1], args[2]
		display := "<out of range>"
		if int(idx)+int(length) <= len(o.Constants) {
			if v, err := DecodeValue(o.Constants[idx : int(idx)+int(length)]); err == nil {
				display = v.String()
			} else {
				display = "<undecodable>"
			}
		}
		return fmt.Sprintf("CONST %d %d r%d ; %s", idx, length, dst, display), 4

	case OpAdd, OpSub, OpMul, OpDiv:
		return fmt.Sprintf("%s r%d r%d r%d", op, args[0], args[1], args[2]), 4

	case OpEq, OpNe, OpLt, OpLe:
		return fmt.Sprintf("%s r%d r%d", op, args[0], args[1]), 3

	case OpNot, OpNeg:
		return fmt.Sprintf("%s r%d r%d", op, args[0], args[1]), 3

	case OpLet, OpRead, OpSet:
		idx, reg := args[0], args[1]
		name := "<out of range>"
		if int(idx) < len(o.Constants) {
			if v, err := DecodeValuePrefix(o.Constants[idx:]); err == nil {
				name = v.String()
			} else {
				name = "<undecodable>"
			}
		}
		return fmt.Sprintf("%s %d r%d ; %s", op, idx, reg, name), 3

	default:
		return op.String(), op.InstructionLen()
	}
}

// DisassembleInstruction returns a human-readable representation of a
// single instruction.
func (o OpenChunk) DisassembleInstruction(offset int) string {
	line, _ := o.disassembleInstruction(offset)
	return line
}

// Disassemble returns a listing of the whole program: every chunk plus
// the variable scope.
func (p *Program) Disassemble() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("; blush program v%s, %d chunks\n\n", Version, len(p.Chunks)))

	for i, s := range p.Chunks {
		o := s.Open()
		sb.WriteString(fmt.Sprintf("; === chunk %d (%dB code, %dB constants) ===\n",
			i, s.BytecodeLen, s.ConstantsLen))
		sb.WriteString(o.Disassemble())
		sb.WriteString("\n")
	}

	if len(p.Scope.Vars) > 0 {
		sb.WriteString("; Scope:\n")
		for i, l := range p.Scope.Vars {
			sb.WriteString(fmt.Sprintf(";   [%3d] %s (depth %d)\n", i, l.Name, l.Depth))
		}
	}

	return sb.String()
}
