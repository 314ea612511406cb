package bytecode

import "fmt"

// ChunkCapacity is the wire size of each chunk buffer. Used counts are
// stored in a single byte, so a buffer may hold at most ChunkCapacity-1
// bytes: no append may push a count to the capacity itself.
const ChunkCapacity = 255

// Chunk is an in-progress unit of compiled code: a bytecode buffer and a
// constant pool of encoded values. Appends are atomic; an append that
// would fill either buffer fails with an OverflowError and leaves the
// chunk unchanged, letting the compiler seal it and start a fresh one.
type Chunk struct {
	Bytecode  []byte
	Constants []byte
}

// NewChunk creates a new empty chunk.
func NewChunk() *Chunk {
	return &Chunk{
		Bytecode:  make([]byte, 0, ChunkCapacity),
		Constants: make([]byte, 0, ChunkCapacity),
	}
}

// checkRoom reports whether both buffers can grow by the given amounts
// while keeping their used counts below ChunkCapacity.
func (c *Chunk) checkRoom(bytecodeInc, constantsInc int) error {
	bytecodeFull := len(c.Bytecode)+bytecodeInc >= ChunkCapacity
	constantsFull := len(c.Constants)+constantsInc >= ChunkCapacity

	switch {
	case bytecodeFull && constantsFull:
		return &OverflowError{Resource: ResourceBoth}
	case bytecodeFull:
		return &OverflowError{Resource: ResourceBytecode}
	case constantsFull:
		return &OverflowError{Resource: ResourceConstants}
	default:
		return nil
	}
}

// AppendInstruction appends an opcode and its operand bytes.
// The operand count must match the opcode's definition.
func (c *Chunk) AppendInstruction(op Opcode, operands ...byte) error {
	if !op.Valid() {
		return fmt.Errorf("append instruction: unknown opcode 0x%02X", byte(op))
	}
	if len(operands) != op.OperandLen() {
		return fmt.Errorf("append instruction: %s takes %d operands, got %d",
			op, op.OperandLen(), len(operands))
	}
	if err := c.checkRoom(op.InstructionLen(), 0); err != nil {
		return err
	}

	c.Bytecode = append(c.Bytecode, byte(op))
	c.Bytecode = append(c.Bytecode, operands...)
	return nil
}

// AppendConstant encodes a value into the constant pool and appends an
// OpConst instruction loading it into register dst. Returns the pool
// byte index of the encoded value. The pool write and the instruction
// are one atomic append: on overflow neither happens.
func (c *Chunk) AppendConstant(v Value, dst byte) (byte, error) {
	encoded, err := v.Encode()
	if err != nil {
		return 0, err
	}
	if err := c.checkRoom(OpConst.InstructionLen(), len(encoded)); err != nil {
		return 0, err
	}

	idx := byte(len(c.Constants))
	c.Constants = append(c.Constants, encoded...)
	c.Bytecode = append(c.Bytecode, byte(OpConst), idx, byte(len(encoded)), dst)
	return idx, nil
}

// Seal freezes the chunk into its fixed-size wire form, padding both
// buffers to ChunkCapacity and recording the used lengths.
func (c *Chunk) Seal() SealedChunk {
	var s SealedChunk
	s.BytecodeLen = uint8(len(c.Bytecode))
	s.ConstantsLen = uint8(len(c.Constants))
	copy(s.Bytecode[:], c.Bytecode)
	copy(s.Constants[:], c.Constants)
	return s
}

// SealedChunk is the fixed-size wire form of a chunk: both buffers
// padded to ChunkCapacity, with the used byte counts alongside.
type SealedChunk struct {
	Bytecode     [ChunkCapacity]byte
	Constants    [ChunkCapacity]byte
	BytecodeLen  uint8
	ConstantsLen uint8
}

// Open trims the padding back off, yielding the executable view.
func (s SealedChunk) Open() OpenChunk {
	o := OpenChunk{
		Bytecode:  make([]byte, s.BytecodeLen),
		Constants: make([]byte, s.ConstantsLen),
	}
	copy(o.Bytecode, s.Bytecode[:s.BytecodeLen])
	copy(o.Constants, s.Constants[:s.ConstantsLen])
	return o
}

// OpenChunk is the executable view of a sealed chunk: only the used
// bytes, no padding.
type OpenChunk struct {
	Bytecode  []byte
	Constants []byte
}

// Seal pads the chunk back to its wire form. Open and Seal round-trip
// exactly.
func (o OpenChunk) Seal() SealedChunk {
	var s SealedChunk
	s.BytecodeLen = uint8(len(o.Bytecode))
	s.ConstantsLen = uint8(len(o.Constants))
	copy(s.Bytecode[:], o.Bytecode)
	copy(s.Constants[:], o.Constants)
	return s
}
