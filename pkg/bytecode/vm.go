package bytecode

import "fmt"

// RegisterCount is the size of the VM's register file.
const RegisterCount = 256

// VM executes a sequence of opened chunks. Registers persist across
// chunk boundaries, so a program split by the compiler behaves exactly
// like an unsplit one.
type VM struct {
	chunks []OpenChunk
	chunk  int // index of the executing chunk
	pc     int // offset of the current byte within the chunk

	registers [RegisterCount]Value
	scope     *RuntimeScope

	// Trace prints each instruction before it executes.
	Trace bool
}

// NewVM creates a VM over the given chunks, deriving a runtime scope
// from the compile-time one.
func NewVM(chunks []OpenChunk, scope Scope) *VM {
	return NewVMWithScope(chunks, NewRuntimeScope(scope))
}

// NewVMWithScope creates a VM over the given chunks with a pre-populated
// runtime scope.
func NewVMWithScope(chunks []OpenChunk, scope *RuntimeScope) *VM {
	vm := &VM{chunks: chunks, scope: scope}
	for i := range vm.registers {
		vm.registers[i] = Bool(false)
	}
	return vm
}

// Register returns the current value of a register.
func (vm *VM) Register(i byte) Value {
	return vm.registers[i]
}

// Scope returns the VM's runtime scope.
func (vm *VM) Scope() *RuntimeScope {
	return vm.scope
}

// Run executes the chunks in order until the last one is exhausted.
// Execution aborts on the first type conflict or malformed instruction.
func (vm *VM) Run() error {
	for vm.chunk < len(vm.chunks) {
		code := vm.chunks[vm.chunk].Bytecode
		if vm.pc >= len(code) {
			vm.chunk++
			vm.pc = 0
			continue
		}

		op := Opcode(code[vm.pc])

		if vm.Trace {
			fmt.Printf("[%d:%04X] %s\n", vm.chunk, vm.pc, op)
		}

		var err error
		switch op {
		case OpConst:
			err = vm.loadConstant()

		case OpAdd:
			err = vm.arithmetic(Value.Add)
		case OpSub:
			err = vm.arithmetic(Value.Sub)
		case OpMul:
			err = vm.arithmetic(Value.Mul)
		case OpDiv:
			err = vm.arithmetic(Value.Div)

		case OpEq:
			err = vm.comparison(func(a, b Value) (bool, error) { return a.Equal(b), nil })
		case OpNe:
			err = vm.comparison(func(a, b Value) (bool, error) { return !a.Equal(b), nil })
		case OpLt:
			err = vm.comparison(Value.Less)
		case OpLe:
			err = vm.comparison(Value.LessEq)

		case OpNot:
			err = vm.unary(Value.Not)
		case OpNeg:
			err = vm.unary(Value.Neg)

		case OpLet, OpSet:
			err = vm.assignVariable()
		case OpRead:
			err = vm.readVariable()

		default:
			err = vm.fault(fmt.Sprintf("unknown opcode 0x%02X", byte(op)))
		}
		if err != nil {
			return err
		}

		vm.pc++
	}
	return nil
}

// operand advances the cursor and returns the byte under it.
func (vm *VM) operand() (byte, error) {
	vm.pc++
	if vm.pc >= ChunkCapacity {
		return 0, vm.fault("cursor exceeds chunk capacity")
	}
	code := vm.chunks[vm.chunk].Bytecode
	if vm.pc >= len(code) {
		return 0, vm.fault("truncated instruction")
	}
	return code[vm.pc], nil
}

func (vm *VM) loadConstant() error {
	idx, err := vm.operand()
	if err != nil {
		return err
	}
	length, err := vm.operand()
	if err != nil {
		return err
	}
	dst, err := vm.operand()
	if err != nil {
		return err
	}

	constants := vm.chunks[vm.chunk].Constants
	if int(idx)+int(length) > len(constants) {
		return vm.fault("constant out of range")
	}
	v, err := DecodeValue(constants[idx : int(idx)+int(length)])
	if err != nil {
		return vm.fault(fmt.Sprintf("bad constant at index %d: %v", idx, err))
	}

	vm.registers[dst] = v
	return nil
}

func (vm *VM) arithmetic(f func(Value, Value) (Value, error)) error {
	a, err := vm.operand()
	if err != nil {
		return err
	}
	b, err := vm.operand()
	if err != nil {
		return err
	}
	dst, err := vm.operand()
	if err != nil {
		return err
	}

	result, err := f(vm.registers[a], vm.registers[b])
	if err != nil {
		return err
	}
	vm.registers[dst] = result
	return nil
}

// comparison evaluates a predicate over two registers and skips the
// next two bytecode bytes when it is false. A skip past the end of the
// chunk simply ends the chunk.
func (vm *VM) comparison(f func(Value, Value) (bool, error)) error {
	a, err := vm.operand()
	if err != nil {
		return err
	}
	b, err := vm.operand()
	if err != nil {
		return err
	}

	ok, err := f(vm.registers[a], vm.registers[b])
	if err != nil {
		return err
	}
	if !ok {
		vm.pc += 2
	}
	return nil
}

func (vm *VM) unary(f func(Value) (Value, error)) error {
	src, err := vm.operand()
	if err != nil {
		return err
	}
	dst, err := vm.operand()
	if err != nil {
		return err
	}

	result, err := f(vm.registers[src])
	if err != nil {
		return err
	}
	vm.registers[dst] = result
	return nil
}

// variableAt decodes the name constant at the given pool index and
// resolves it in the runtime scope.
func (vm *VM) variableAt(idx byte) (*Variable, error) {
	constants := vm.chunks[vm.chunk].Constants
	if int(idx) >= len(constants) {
		return nil, vm.fault("variable name index out of range")
	}
	v, err := DecodeValuePrefix(constants[idx:])
	if err != nil {
		return nil, vm.fault(fmt.Sprintf("bad variable name at index %d: %v", idx, err))
	}
	name, ok := v.AsString()
	if !ok {
		return nil, vm.fault(fmt.Sprintf("variable name at index %d is not a string", idx))
	}

	variable, ok := vm.scope.Resolve(name)
	if !ok {
		return nil, vm.fault(fmt.Sprintf("undefined variable %q", name))
	}
	return variable, nil
}

func (vm *VM) assignVariable() error {
	idx, err := vm.operand()
	if err != nil {
		return err
	}
	val, err := vm.operand()
	if err != nil {
		return err
	}

	variable, err := vm.variableAt(idx)
	if err != nil {
		return err
	}
	variable.Value = vm.registers[val]
	return nil
}

func (vm *VM) readVariable() error {
	idx, err := vm.operand()
	if err != nil {
		return err
	}
	dst, err := vm.operand()
	if err != nil {
		return err
	}

	variable, err := vm.variableAt(idx)
	if err != nil {
		return err
	}
	vm.registers[dst] = variable.Value
	return nil
}

// fault builds a BytecodeFault carrying a copy of the offending chunk's
// bytecode and the cursor position.
func (vm *VM) fault(reason string) error {
	code := vm.chunks[vm.chunk].Bytecode
	bc := make([]byte, len(code))
	copy(bc, code)
	return &BytecodeFault{
		Bytecode: bc,
		Chunk:    vm.chunk,
		Pos:      vm.pc,
		Reason:   reason,
	}
}
