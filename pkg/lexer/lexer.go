// Package lexer tokenizes blush source code. It produces a pull-based
// stream of classified tokens; callers that need lookahead buffer at most
// one token themselves.
package lexer

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes blush source code.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      rune // current character
	line    int  // current line (1-based)
	col     int  // current column (1-based)
}

// New creates a new lexer for the given input.
func New(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
		l.pos = l.readPos
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size

	if r == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

func (l *Lexer) position() Position {
	return Position{Offset: l.pos, Line: l.line, Column: l.col}
}

// NextToken returns the next token. After the input is exhausted it
// returns EOF tokens forever.
func (l *Lexer) NextToken() Token {
	l.skipWhitespaceAndComments()

	pos := l.position()

	switch {
	case l.ch == 0:
		return Token{Kind: EOF, Pos: pos}

	case l.ch == '(':
		return l.single(LeftParen, pos)
	case l.ch == ')':
		return l.single(RightParen, pos)
	case l.ch == '{':
		return l.single(LeftBrace, pos)
	case l.ch == '}':
		return l.single(RightBrace, pos)
	case l.ch == ',':
		return l.single(Comma, pos)
	case l.ch == '+':
		return l.single(Plus, pos)
	case l.ch == '*':
		return l.single(Star, pos)
	case l.ch == '/':
		return l.single(Slash, pos)
	case l.ch == ';':
		return l.single(Semicolon, pos)

	case l.ch == '-':
		if isDigit(l.peekChar()) {
			return l.readNumber(pos)
		}
		return l.single(Minus, pos)

	case l.ch == '.':
		if isDigit(l.peekChar()) {
			return l.readNumber(pos)
		}
		return l.single(Dot, pos)

	case l.ch == '!':
		return l.oneOrTwo('=', Bang, BangEqual, pos)
	case l.ch == '=':
		return l.oneOrTwo('=', Equal, EqualEqual, pos)
	case l.ch == '>':
		return l.oneOrTwo('=', Greater, GreaterEqual, pos)
	case l.ch == '<':
		return l.oneOrTwo('=', Less, LessEqual, pos)

	case l.ch == '&':
		if l.peekChar() == '&' {
			l.readChar()
			l.readChar()
			return Token{Kind: And, Lexeme: "&&", Pos: pos}
		}
		return l.illegal(pos)

	case l.ch == '|':
		if l.peekChar() == '|' {
			l.readChar()
			l.readChar()
			return Token{Kind: Or, Lexeme: "||", Pos: pos}
		}
		return l.illegal(pos)

	case isDigit(l.ch):
		return l.readNumber(pos)

	case isLetter(l.ch) || l.ch == '_':
		return l.readIdentifier(pos)

	default:
		return l.illegal(pos)
	}
}

// single consumes the current character and returns a one-character token.
func (l *Lexer) single(kind TokenKind, pos Position) Token {
	lexeme := string(l.ch)
	l.readChar()
	return Token{Kind: kind, Lexeme: lexeme, Pos: pos}
}

// oneOrTwo consumes one character, or two if the next one matches follow.
func (l *Lexer) oneOrTwo(follow rune, one, two TokenKind, pos Position) Token {
	first := l.ch
	l.readChar()
	if l.ch == follow {
		lexeme := string(first) + string(l.ch)
		l.readChar()
		return Token{Kind: two, Lexeme: lexeme, Pos: pos}
	}
	return Token{Kind: one, Lexeme: string(first), Pos: pos}
}

func (l *Lexer) illegal(pos Position) Token {
	lexeme := string(l.ch)
	l.readChar()
	return Token{Kind: Illegal, Lexeme: lexeme, Pos: pos}
}

// readNumber reads a number literal: an optional leading '-', digits,
// and an optional fractional part. A leading '.' with digits also counts.
func (l *Lexer) readNumber(pos Position) Token {
	start := l.pos
	if l.ch == '-' {
		l.readChar()
	}
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	} else if l.ch == '.' && l.pos > start && isDigit(rune(l.input[l.pos-1])) {
		// Trailing '.' as in "1." — consume it, the fraction is empty.
		l.readChar()
	}
	lexeme := l.input[start:l.pos]

	f, err := strconv.ParseFloat(lexeme, 32)
	if err != nil {
		return Token{Kind: Illegal, Lexeme: lexeme, Pos: pos}
	}
	return Token{Kind: Number, Lexeme: lexeme, Number: float32(f), Pos: pos}
}

// readIdentifier reads an identifier, keyword, or bool literal.
func (l *Lexer) readIdentifier(pos Position) Token {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	lexeme := l.input[start:l.pos]

	if lexeme == "true" || lexeme == "false" {
		return Token{Kind: Bool, Lexeme: lexeme, Bool: lexeme == "true", Pos: pos}
	}
	if kind, ok := reservedWords[lexeme]; ok {
		return Token{Kind: kind, Lexeme: lexeme, Pos: pos}
	}
	return Token{Kind: Identifier, Lexeme: lexeme, Pos: pos}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' || l.ch == '\f':
			l.readChar()

		case l.ch == '/' && l.peekChar() == '/':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}

		case l.ch == '/' && l.peekChar() == '*':
			l.readChar() // consume '/'
			l.readChar() // consume '*'
			for l.ch != 0 && !(l.ch == '*' && l.peekChar() == '/') {
				l.readChar()
			}
			if l.ch != 0 {
				l.readChar() // consume '*'
				l.readChar() // consume '/'
			}

		default:
			return
		}
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isLetter(r rune) bool {
	return unicode.IsLetter(r)
}
