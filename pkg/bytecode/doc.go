// Package bytecode implements the blush compilation pipeline: a
// single-pass compiler from tokens to register-machine bytecode, a
// fixed-capacity chunk container, and the virtual machine that executes
// it.
//
// The bytecode format is designed for:
//   - Compact representation (2-4 bytes per instruction)
//   - Fast decoding (single-byte opcodes and operands)
//   - Easy serialization (fixed-size chunks that can be stored in
//     SQLite or shipped as a program container)
//
// # Architecture Overview
//
//   - Opcodes: 14 register-based instructions covering constant loads,
//     arithmetic, comparisons, unary operators, and variable access.
//
//   - Chunk: an in-progress unit holding up to 254 bytes each of
//     bytecode and encoded constants. When a chunk fills up the
//     compiler seals it and continues in a fresh one; the VM's register
//     file persists across the boundary, so split programs behave
//     exactly like unsplit ones.
//
//   - Compiler: recursive descent directly over the token stream.
//     There is no syntax tree; instructions are emitted as tokens are
//     consumed, with expression temporaries held in a 16-register pool.
//
//   - VM: decodes one instruction at a time from the open chunks.
//     Comparisons skip the next two bytecode bytes when the predicate
//     is false. Malformed bytecode aborts with a fault carrying the
//     offending chunk and position.
//
// Values and scopes cross the wire as canonical CBOR, so compiled
// programs are byte-for-byte reproducible. The Program container
// wraps sealed chunks and the compile-time scope between textual
// markers; see DecodeProgram for the exact layout.
package bytecode
