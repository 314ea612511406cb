package bytecode

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mx-mw/blush/pkg/lexer"
)

// Resource names a chunk buffer that can run out of room.
type Resource int

const (
	ResourceBytecode Resource = iota
	ResourceConstants
	ResourceBoth
)

func (r Resource) String() string {
	switch r {
	case ResourceBytecode:
		return "bytecode"
	case ResourceConstants:
		return "constants"
	case ResourceBoth:
		return "bytecode and constants"
	default:
		return fmt.Sprintf("Resource(%d)", int(r))
	}
}

// OverflowError reports that appending to a chunk would push a buffer's
// used count to the capacity limit.
type OverflowError struct {
	Resource Resource
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("chunk overflow: %s full", e.Resource)
}

// TokenError reports that the compiler received a token it cannot accept
// at the current position.
type TokenError struct {
	Reason   string      // what the compiler was doing
	Expected string      // display form of the acceptable token(s)
	Got      lexer.Token // the token actually received
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("%s at %s: expected %s, got %s",
		e.Reason, e.Got.Pos, e.Expected, e.Got)
}

// ErrEarlyEOF is returned when the token stream ends inside a construct.
var ErrEarlyEOF = errors.New("unexpected end of input")

// ErrNoFreeRegisters is returned when an expression needs more than the
// available compile-time registers.
var ErrNoFreeRegisters = errors.New("expression too deep: no free registers")

// ErrTooManyLocals is returned when a scope declares more variables than
// its counter can hold.
var ErrTooManyLocals = errors.New("too many local variables in scope")

// ErrConstantTooLarge is returned when a single encoded constant cannot
// fit even an empty chunk. Splitting cannot help, so compilation aborts.
var ErrConstantTooLarge = errors.New("constant too large for an empty chunk")

// HeaderError reports a structural fault in a serialized program,
// naming the marker or field that failed.
type HeaderError struct {
	Marker string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("malformed program header: bad or missing %s", e.Marker)
}

// ErrMissingLength is returned when a chunk record in a serialized
// program lacks its length bytes.
var ErrMissingLength = errors.New("malformed program: missing chunk length")

// ErrUnexpectedEOF is returned when a serialized program ends inside a
// chunk payload.
var ErrUnexpectedEOF = errors.New("malformed program: truncated chunk payload")

// ErrInvalidLength is returned when a chunk record claims a used count
// at the capacity limit, which no sealed chunk can produce.
var ErrInvalidLength = errors.New("malformed program: chunk length reaches capacity")

// BytecodeFault reports malformed bytecode encountered during execution.
// It carries the offending chunk's bytecode and the cursor position so
// the fault can be inspected or disassembled.
type BytecodeFault struct {
	Bytecode []byte // the faulting chunk's bytecode
	Chunk    int    // chunk index within the program
	Pos      int    // offset of the faulting byte
	Reason   string
}

func (e *BytecodeFault) Error() string {
	return fmt.Sprintf("malformed bytecode in chunk %d at offset %d: %s",
		e.Chunk, e.Pos, e.Reason)
}

// TypeConflictError reports an operation applied to values of the wrong
// kind, such as adding a bool to a number.
type TypeConflictError struct {
	Op       string
	Operands []ValueKind
}

func (e *TypeConflictError) Error() string {
	kinds := make([]string, len(e.Operands))
	for i, k := range e.Operands {
		kinds[i] = k.String()
	}
	return fmt.Sprintf("type conflict: %q not defined for %s",
		e.Op, strings.Join(kinds, ", "))
}
