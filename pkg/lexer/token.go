package lexer

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the blush lexer
// ---------------------------------------------------------------------------

// TokenKind represents the type of a token.
type TokenKind int

const (
	// Special tokens
	EOF TokenKind = iota
	Illegal

	// Single-character tokens
	LeftParen  // (
	RightParen // )
	LeftBrace  // {
	RightBrace // }
	Comma      // ,
	Dot        // .
	Minus      // -
	Plus       // +
	Slash      // /
	Star       // *
	Semicolon  // ;

	// One or two character tokens
	Bang         // !
	BangEqual    // !=
	Equal        // =
	EqualEqual   // ==
	Greater      // >
	GreaterEqual // >=
	Less         // <
	LessEqual    // <=
	And          // &&
	Or           // ||

	// Literals
	Identifier // foo, bar_2
	Number     // 42, 1.5, -3, .25
	Bool       // true, false

	// Keywords
	Let
	If
	Else
	While
	For
	Fn
	Return
	Nil
	Class
	Super
	This
)

var tokenNames = map[TokenKind]string{
	EOF:          "EOF",
	Illegal:      "ILLEGAL",
	LeftParen:    "(",
	RightParen:   ")",
	LeftBrace:    "{",
	RightBrace:   "}",
	Comma:        ",",
	Dot:          ".",
	Minus:        "-",
	Plus:         "+",
	Slash:        "/",
	Star:         "*",
	Semicolon:    ";",
	Bang:         "!",
	BangEqual:    "!=",
	Equal:        "=",
	EqualEqual:   "==",
	Greater:      ">",
	GreaterEqual: ">=",
	Less:         "<",
	LessEqual:    "<=",
	And:          "&&",
	Or:           "||",
	Identifier:   "IDENTIFIER",
	Number:       "NUMBER",
	Bool:         "BOOL",
	Let:          "let",
	If:           "if",
	Else:         "else",
	While:        "while",
	For:          "for",
	Fn:           "fn",
	Return:       "return",
	Nil:          "nil",
	Class:        "class",
	Super:        "super",
	This:         "this",
}

func (k TokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", int(k))
}

// Reserved words mapped to their token kinds. "true" and "false" lex as
// Bool literals, not keywords.
var reservedWords = map[string]TokenKind{
	"let":    Let,
	"if":     If,
	"else":   Else,
	"while":  While,
	"for":    For,
	"fn":     Fn,
	"return": Return,
	"nil":    Nil,
	"class":  Class,
	"super":  Super,
	"this":   This,
}

// Position is a location in the source text.
type Position struct {
	Offset int // byte offset, 0-based
	Line   int // 1-based
	Column int // 1-based
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token represents a lexical token. Number and Bool carry the parsed
// literal value for their respective kinds.
type Token struct {
	Kind   TokenKind
	Lexeme string  // the raw text
	Number float32 // parsed value when Kind == Number
	Bool   bool    // parsed value when Kind == Bool
	Pos    Position
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "EOF"
	case Illegal:
		return fmt.Sprintf("ILLEGAL(%q)", t.Lexeme)
	case Identifier, Number, Bool:
		return fmt.Sprintf("%s(%q)", t.Kind, t.Lexeme)
	}
	return fmt.Sprintf("%q", t.Lexeme)
}
