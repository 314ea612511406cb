package bytecode

import (
	"errors"

	"github.com/mx-mw/blush/pkg/lexer"
)

// RegisterPoolSize is the number of registers the compiler allocates
// expression temporaries from.
const RegisterPoolSize = 16

// TokenSource supplies the compiler with tokens. After the input is
// exhausted it must return EOF tokens forever. *lexer.Lexer satisfies it.
type TokenSource interface {
	NextToken() lexer.Token
}

// Compiler is a single-pass compiler from a token stream to a sequence
// of sealed chunks. It parses by recursive descent and emits bytecode
// as it goes; there is no intermediate tree.
type Compiler struct {
	source  TokenSource
	current lexer.Token // next unconsumed token

	// Free registers, lowest id allocated first.
	registers []byte

	chunk  *Chunk
	sealed []SealedChunk
	scope  Scope

	// generation counts sealed chunks. A constant-pool index recorded
	// under an older generation points into a chunk that is already
	// sealed and must be re-emitted before use.
	generation uint64
}

// Program pairs the compiled chunks with the variable scope they
// reference.
type Program struct {
	Chunks []SealedChunk
	Scope  Scope
}

// Compile consumes the token stream and produces a program. The final
// chunk is always sealed, even when empty.
func Compile(source TokenSource) (*Program, error) {
	c := &Compiler{
		source:    source,
		registers: make([]byte, RegisterPoolSize),
		chunk:     NewChunk(),
	}
	for i := range c.registers {
		c.registers[i] = byte(i)
	}
	c.current = source.NextToken()

	for c.current.Kind != lexer.EOF {
		if err := c.declaration(); err != nil {
			return nil, err
		}
	}
	c.sealCurrent()

	return &Program{Chunks: c.sealed, Scope: c.scope}, nil
}

// ---------------------------------------------------------------------------
// Token handling
// ---------------------------------------------------------------------------

// advance consumes and returns the current token.
func (c *Compiler) advance() lexer.Token {
	t := c.current
	c.current = c.source.NextToken()
	return t
}

func (c *Compiler) check(kind lexer.TokenKind) bool {
	return c.current.Kind == kind
}

// consume requires the current token to be of the given kind.
func (c *Compiler) consume(kind lexer.TokenKind, reason string) (lexer.Token, error) {
	if c.current.Kind == lexer.EOF && kind != lexer.EOF {
		return lexer.Token{}, ErrEarlyEOF
	}
	if !c.check(kind) {
		return lexer.Token{}, &TokenError{
			Reason:   reason,
			Expected: kind.String(),
			Got:      c.current,
		}
	}
	return c.advance(), nil
}

// ---------------------------------------------------------------------------
// Register pool
// ---------------------------------------------------------------------------

// useRegister claims the lowest-numbered free register.
func (c *Compiler) useRegister() (byte, error) {
	if len(c.registers) == 0 {
		return 0, ErrNoFreeRegisters
	}
	min := 0
	for i := 1; i < len(c.registers); i++ {
		if c.registers[i] < c.registers[min] {
			min = i
		}
	}
	reg := c.registers[min]
	c.registers = append(c.registers[:min], c.registers[min+1:]...)
	return reg, nil
}

func (c *Compiler) freeRegister(reg byte) {
	c.registers = append(c.registers, reg)
}

// ---------------------------------------------------------------------------
// Chunk management
// ---------------------------------------------------------------------------

// sealCurrent seals the working chunk, starts a fresh one, and bumps the
// generation so recorded constant indices are known stale.
func (c *Compiler) sealCurrent() {
	c.sealed = append(c.sealed, c.chunk.Seal())
	c.chunk = NewChunk()
	c.generation++
}

// emit appends an instruction, sealing and retrying on overflow.
func (c *Compiler) emit(op Opcode, operands ...byte) error {
	for {
		err := c.chunk.AppendInstruction(op, operands...)
		var overflow *OverflowError
		if errors.As(err, &overflow) {
			c.sealCurrent()
			continue
		}
		return err
	}
}

// emitConstant loads a value into a fresh register, sealing and retrying
// on overflow. Returns the register, the constant-pool index, and the
// generation the index is valid for.
func (c *Compiler) emitConstant(v Value) (reg, idx byte, gen uint64, err error) {
	reg, err = c.useRegister()
	if err != nil {
		return 0, 0, 0, err
	}
	for {
		idx, err = c.chunk.AppendConstant(v, reg)
		var overflow *OverflowError
		if errors.As(err, &overflow) {
			if len(c.chunk.Bytecode) == 0 && len(c.chunk.Constants) == 0 {
				// Splitting cannot help: the value alone exceeds a chunk.
				c.freeRegister(reg)
				return 0, 0, 0, ErrConstantTooLarge
			}
			c.sealCurrent()
			continue
		}
		if err != nil {
			c.freeRegister(reg)
			return 0, 0, 0, err
		}
		return reg, idx, c.generation, nil
	}
}

// emitVarOp appends a variable instruction referencing a name constant.
// If the recorded index belongs to an earlier generation the name is
// re-emitted into the current chunk first, so the index the VM decodes
// always lives in the same chunk as the instruction.
func (c *Compiler) emitVarOp(op Opcode, name string, idx byte, gen uint64, reg byte) (byte, uint64, error) {
	for {
		if gen != c.generation {
			tmp, newIdx, newGen, err := c.emitConstant(String(name))
			if err != nil {
				return 0, 0, err
			}
			c.freeRegister(tmp)
			idx, gen = newIdx, newGen
		}

		err := c.chunk.AppendInstruction(op, idx, reg)
		var overflow *OverflowError
		if errors.As(err, &overflow) {
			c.sealCurrent()
			continue
		}
		if err != nil {
			return 0, 0, err
		}
		return idx, gen, nil
	}
}

// ---------------------------------------------------------------------------
// Grammar
// ---------------------------------------------------------------------------

func (c *Compiler) declaration() error {
	if c.check(lexer.Let) {
		return c.letDeclaration()
	}
	_, err := c.statement()
	return err
}

func (c *Compiler) letDeclaration() error {
	c.advance() // let

	nameTok, err := c.consume(lexer.Identifier, "declaring variable")
	if err != nil {
		return err
	}
	name := nameTok.Lexeme

	if err := c.scope.Declare(name); err != nil {
		return err
	}

	nameReg, idx, gen, err := c.emitConstant(String(name))
	if err != nil {
		return err
	}

	if _, err := c.consume(lexer.Equal, "declaring variable"); err != nil {
		return err
	}

	valReg, err := c.expression()
	if err != nil {
		return err
	}

	if _, err := c.consume(lexer.Semicolon, "declaring variable"); err != nil {
		return err
	}

	if _, _, err := c.emitVarOp(OpLet, name, idx, gen, valReg); err != nil {
		return err
	}

	c.freeRegister(nameReg)
	c.freeRegister(valReg)
	return nil
}

// statement compiles a block or an expression statement and returns the
// register holding the result, if any. Expression statement results stay
// claimed so later code cannot clobber them mid-statement.
func (c *Compiler) statement() (byte, error) {
	if c.check(lexer.LeftBrace) {
		return 0, c.block()
	}

	reg, err := c.expression()
	if err != nil {
		return 0, err
	}
	if _, err := c.consume(lexer.Semicolon, "ending statement"); err != nil {
		return 0, err
	}
	return reg, nil
}

func (c *Compiler) block() error {
	c.advance() // {
	c.scope.Depth++

	for !c.check(lexer.RightBrace) {
		if c.check(lexer.EOF) {
			return ErrEarlyEOF
		}
		if err := c.declaration(); err != nil {
			return err
		}
	}
	c.advance() // }

	c.scope.Depth--
	return nil
}

func (c *Compiler) expression() (byte, error) {
	return c.equality()
}

// binaryRule maps an operator token to its opcode. swap mirrors the
// operands, which is how > and >= reuse the Lt and Le instructions.
type binaryRule struct {
	token lexer.TokenKind
	op    Opcode
	swap  bool
}

// binary parses a left-associative run of binary operators one
// precedence level down from next. When stores is true the opcode takes
// a destination register, claimed fresh for each operation with both
// operand registers released after; comparisons take no destination and
// leave only their skip effect.
func (c *Compiler) binary(next func() (byte, error), stores bool, rules []binaryRule) (byte, error) {
	lhs, err := next()
	if err != nil {
		return 0, err
	}

	for {
		var rule *binaryRule
		for i := range rules {
			if c.check(rules[i].token) {
				rule = &rules[i]
				break
			}
		}
		if rule == nil {
			return lhs, nil
		}
		c.advance()

		rhs, err := next()
		if err != nil {
			return 0, err
		}

		a, b := lhs, rhs
		if rule.swap {
			a, b = b, a
		}

		if stores {
			dst, err := c.useRegister()
			if err != nil {
				return 0, err
			}
			if err := c.emit(rule.op, a, b, dst); err != nil {
				return 0, err
			}
			c.freeRegister(lhs)
			c.freeRegister(rhs)
			lhs = dst
		} else {
			if err := c.emit(rule.op, a, b); err != nil {
				return 0, err
			}
			c.freeRegister(rhs)
		}
	}
}

func (c *Compiler) equality() (byte, error) {
	return c.binary(c.comparison, false, []binaryRule{
		{token: lexer.EqualEqual, op: OpEq},
		{token: lexer.BangEqual, op: OpNe},
	})
}

func (c *Compiler) comparison() (byte, error) {
	return c.binary(c.term, false, []binaryRule{
		{token: lexer.Less, op: OpLt},
		{token: lexer.Greater, op: OpLt, swap: true},
		{token: lexer.LessEqual, op: OpLe},
		{token: lexer.GreaterEqual, op: OpLe, swap: true},
	})
}

func (c *Compiler) term() (byte, error) {
	return c.binary(c.factor, true, []binaryRule{
		{token: lexer.Plus, op: OpAdd},
		{token: lexer.Minus, op: OpSub},
	})
}

func (c *Compiler) factor() (byte, error) {
	return c.binary(c.unary, true, []binaryRule{
		{token: lexer.Star, op: OpMul},
		{token: lexer.Slash, op: OpDiv},
	})
}

func (c *Compiler) unary() (byte, error) {
	var op Opcode
	switch {
	case c.check(lexer.Minus):
		op = OpNeg
	case c.check(lexer.Bang):
		op = OpNot
	default:
		return c.primitive()
	}
	c.advance()

	src, err := c.primitive()
	if err != nil {
		return 0, err
	}
	dst, err := c.useRegister()
	if err != nil {
		return 0, err
	}
	if err := c.emit(op, src, dst); err != nil {
		return 0, err
	}
	c.freeRegister(src)
	return dst, nil
}

func (c *Compiler) primitive() (byte, error) {
	switch c.current.Kind {
	case lexer.Number:
		tok := c.advance()
		reg, _, _, err := c.emitConstant(Number(tok.Number))
		return reg, err

	case lexer.Bool:
		tok := c.advance()
		reg, _, _, err := c.emitConstant(Bool(tok.Bool))
		return reg, err

	case lexer.Identifier:
		return c.loadVariable()

	case lexer.LeftParen:
		c.advance()
		reg, err := c.expression()
		if err != nil {
			return 0, err
		}
		if _, err := c.consume(lexer.RightParen, "closing group"); err != nil {
			return 0, err
		}
		return reg, nil

	case lexer.EOF:
		return 0, ErrEarlyEOF

	default:
		return 0, &TokenError{
			Reason:   "parsing expression",
			Expected: "expression",
			Got:      c.current,
		}
	}
}

// loadVariable compiles an identifier reference, with an optional
// assignment when an = follows, and reads the variable into a fresh
// register.
func (c *Compiler) loadVariable() (byte, error) {
	nameTok := c.advance()
	name := nameTok.Lexeme

	nameReg, idx, gen, err := c.emitConstant(String(name))
	if err != nil {
		return 0, err
	}

	if c.check(lexer.Equal) {
		c.advance()
		valReg, err := c.expression()
		if err != nil {
			return 0, err
		}
		idx, gen, err = c.emitVarOp(OpSet, name, idx, gen, valReg)
		if err != nil {
			return 0, err
		}
		c.freeRegister(valReg)
	}

	store, err := c.useRegister()
	if err != nil {
		return 0, err
	}
	if _, _, err := c.emitVarOp(OpRead, name, idx, gen, store); err != nil {
		return 0, err
	}

	c.freeRegister(nameReg)
	return store, nil
}
