// Package lexer turns sprig selector source text into a positioned token
// stream.
//
// Tokenizing is total: a lexical error never aborts the stream. The offending
// span is dropped, the scanner resynchronizes at the next plausible token
// start, and the parser reports a clean downstream error instead.
package lexer

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"

	serrors "github.com/sambeau/sprig/pkg/sprig/errors"
)

// TokenType represents different types of tokens
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF

	// Structural punctuation
	PIPELINE // >
	COMMA    // ,
	COLON    // :
	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]

	// Set operators
	UNION        // |
	INTERSECTION // &
	DIFFERENCE   // ^

	// Selector keywords
	CLASS // class
	ID    // id
	TAG   // tag
	ATTR  // attr
	TEXT  // text
	HREF  // href
	SRC   // src
	POUND // # (attribute-value selector marker)

	// Function name following @
	FUNCTION // @trim, @join, ...

	// Regex marker
	REGEX // ~

	// Literals
	ARGUMENT // unquoted argument
	STRING   // "quoted argument"
	INT      // 42
	FLOAT    // 3.14
	TRUE     // true
	FALSE    // false
	MINUS    // - (prefix of a negative number literal)
)

// Token represents a single token with its source position.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

// String returns a string representation of the token
func (t Token) String() string {
	if t.Type == EOF {
		return "EOF"
	}
	if t.Type == STRING {
		return fmt.Sprintf("%q", t.Literal)
	}
	if t.Type == FUNCTION {
		return "@" + t.Literal
	}
	return t.Literal
}

// String returns a string representation of the token type
func (tt TokenType) String() string {
	switch tt {
	case ILLEGAL:
		return "ILLEGAL"
	case EOF:
		return "EOF"
	case PIPELINE:
		return "PIPELINE"
	case COMMA:
		return "COMMA"
	case COLON:
		return "COLON"
	case LPAREN:
		return "LPAREN"
	case RPAREN:
		return "RPAREN"
	case LBRACKET:
		return "LBRACKET"
	case RBRACKET:
		return "RBRACKET"
	case UNION:
		return "UNION"
	case INTERSECTION:
		return "INTERSECTION"
	case DIFFERENCE:
		return "DIFFERENCE"
	case CLASS:
		return "CLASS"
	case ID:
		return "ID"
	case TAG:
		return "TAG"
	case ATTR:
		return "ATTR"
	case TEXT:
		return "TEXT"
	case HREF:
		return "HREF"
	case SRC:
		return "SRC"
	case POUND:
		return "POUND"
	case FUNCTION:
		return "FUNCTION"
	case REGEX:
		return "REGEX"
	case ARGUMENT:
		return "ARGUMENT"
	case STRING:
		return "STRING"
	case INT:
		return "INT"
	case FLOAT:
		return "FLOAT"
	case TRUE:
		return "TRUE"
	case FALSE:
		return "FALSE"
	case MINUS:
		return "MINUS"
	default:
		return "UNKNOWN"
	}
}

// keywords maps reserved selector words to their token types. Any other
// unquoted word becomes a generic ARGUMENT token.
var keywords = map[string]TokenType{
	"class": CLASS,
	"id":    ID,
	"tag":   TAG,
	"attr":  ATTR,
	"text":  TEXT,
	"href":  HREF,
	"src":   SRC,
	"true":  TRUE,
	"false": FALSE,
}

// LookupIdent returns the token type for an unquoted argument.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return ARGUMENT
}

// Lexer scans selector source text.
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination (first byte)
	chRune       rune // current character as a rune (for Unicode support)
	chSize       int  // byte size of current character (1 for ASCII, 1-4 for UTF-8)
	line         int  // current line number
	column       int  // current column number

	errs []*serrors.Error // lexical errors for spans dropped during recovery
}

// New creates a new lexer instance
func New(input string) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// Errors returns the lexical errors encountered so far. Spans covered by
// these errors were dropped from the token stream.
func (l *Lexer) Errors() []*serrors.Error {
	return l.errs
}

// readChar reads the next character and advances position.
// Uses a hybrid approach: ASCII fast-path for single-byte characters,
// UTF-8 decoding for multi-byte characters (to support Unicode arguments).
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0 // ASCII NUL represents EOF
		l.chRune = 0
		l.chSize = 0
		l.position = l.readPosition
		return
	}

	b := l.input[l.readPosition]

	// ASCII fast-path: single-byte characters (most common case)
	if b < utf8.RuneSelf {
		l.ch = b
		l.chRune = rune(b)
		l.chSize = 1
		l.position = l.readPosition
		l.readPosition++

		if l.ch == '\n' {
			l.line++
			l.column = 0
		} else {
			l.column++
		}
		return
	}

	// Non-ASCII: decode the full UTF-8 rune
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = b
	l.chRune = r
	l.chSize = size
	l.position = l.readPosition
	l.readPosition += size

	l.column++
}

// peekChar returns the next character without advancing position
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// skipWhitespace advances past insignificant whitespace between tokens.
func (l *Lexer) skipWhitespace() {
	for l.ch != 0 && unicode.IsSpace(l.chRune) {
		l.readChar()
	}
}

// NextToken scans the input and returns the next token. A lexical error is
// returned alongside an ILLEGAL token; callers that want the total stream
// should use Tokenize, which recovers and drops the offending span.
func (l *Lexer) NextToken() (Token, *serrors.Error) {
	l.skipWhitespace()

	line := l.line
	column := l.column

	if l.ch == 0 {
		return Token{Type: EOF, Literal: "", Line: line, Column: column}, nil
	}

	var tok Token

	switch l.ch {
	case '>':
		tok = Token{Type: PIPELINE, Literal: ">", Line: line, Column: column}
		l.readChar()
	case ',':
		tok = Token{Type: COMMA, Literal: ",", Line: line, Column: column}
		l.readChar()
	case ':':
		tok = Token{Type: COLON, Literal: ":", Line: line, Column: column}
		l.readChar()
	case '(':
		tok = Token{Type: LPAREN, Literal: "(", Line: line, Column: column}
		l.readChar()
	case ')':
		tok = Token{Type: RPAREN, Literal: ")", Line: line, Column: column}
		l.readChar()
	case '[':
		tok = Token{Type: LBRACKET, Literal: "[", Line: line, Column: column}
		l.readChar()
	case ']':
		tok = Token{Type: RBRACKET, Literal: "]", Line: line, Column: column}
		l.readChar()
	case '|':
		tok = Token{Type: UNION, Literal: "|", Line: line, Column: column}
		l.readChar()
	case '&':
		tok = Token{Type: INTERSECTION, Literal: "&", Line: line, Column: column}
		l.readChar()
	case '^':
		tok = Token{Type: DIFFERENCE, Literal: "^", Line: line, Column: column}
		l.readChar()
	case '~':
		tok = Token{Type: REGEX, Literal: "~", Line: line, Column: column}
		l.readChar()
	case '#':
		tok = Token{Type: POUND, Literal: "#", Line: line, Column: column}
		l.readChar()
	case '@':
		return l.readFunction(line, column)
	case '"':
		return l.readString(line, column)
	case '-':
		if isDigit(l.peekChar()) {
			tok = Token{Type: MINUS, Literal: "-", Line: line, Column: column}
			l.readChar()
		} else {
			return l.readArgument(line, column)
		}
	default:
		if isDigit(l.ch) {
			return l.readNumber(line, column)
		}
		return l.readArgument(line, column)
	}

	return tok, nil
}

// readFunction reads a function name token (the part after @). Function names
// are ASCII-only: a letter followed by letters, digits or underscores.
func (l *Lexer) readFunction(line, column int) (Token, *serrors.Error) {
	l.readChar() // consume '@'

	if !isASCIILetter(l.ch) {
		err := serrors.NewWithPosition("LEX-0005", l.line, l.column, nil)
		return Token{Type: ILLEGAL, Literal: "@", Line: line, Column: column}, err
	}

	position := l.position
	for isASCIILetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}

	return Token{Type: FUNCTION, Literal: l.input[position:l.position], Line: line, Column: column}, nil
}

// readNumber reads an integer or float literal.
func (l *Lexer) readNumber(line, column int) (Token, *serrors.Error) {
	position := l.position
	for isDigit(l.ch) {
		l.readChar()
	}

	isFloat := false
	if l.ch == '.' && isDigit(l.peekChar()) {
		isFloat = true
		l.readChar() // consume the '.'
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	literal := l.input[position:l.position]

	if isFloat {
		if _, err := strconv.ParseFloat(literal, 64); err != nil {
			lexErr := serrors.NewWithPosition("LEX-0004", line, column, map[string]any{"Literal": literal})
			return Token{Type: ILLEGAL, Literal: literal, Line: line, Column: column}, lexErr
		}
		return Token{Type: FLOAT, Literal: literal, Line: line, Column: column}, nil
	}

	if _, err := strconv.ParseInt(literal, 10, 64); err != nil {
		lexErr := serrors.NewWithPosition("LEX-0004", line, column, map[string]any{"Literal": literal})
		return Token{Type: ILLEGAL, Literal: literal, Line: line, Column: column}, lexErr
	}
	return Token{Type: INT, Literal: literal, Line: line, Column: column}, nil
}

// readString reads a quoted string literal, processing escapes.
func (l *Lexer) readString(line, column int) (Token, *serrors.Error) {
	var result []byte
	l.readChar() // skip opening quote

	for l.ch != '"' && l.ch != 0 {
		if l.ch == '\\' {
			l.readChar() // consume backslash
			switch l.ch {
			case 'n':
				result = append(result, '\n')
			case 't':
				result = append(result, '\t')
			case 'r':
				result = append(result, '\r')
			case '\\':
				result = append(result, '\\')
			case '"':
				result = append(result, '"')
			case 'u':
				r, err := l.readUnicodeEscape()
				if err != nil {
					l.skipRestOfString()
					return Token{Type: ILLEGAL, Literal: string(result), Line: line, Column: column}, err
				}
				result = utf8.AppendRune(result, r)
			case 0:
				err := serrors.NewWithPosition("LEX-0001", line, column, nil)
				return Token{Type: ILLEGAL, Literal: string(result), Line: line, Column: column}, err
			default:
				err := serrors.NewWithPosition("LEX-0002", l.line, l.column, map[string]any{"Escape": string(l.chRune)})
				l.skipRestOfString()
				return Token{Type: ILLEGAL, Literal: string(result), Line: line, Column: column}, err
			}
		} else {
			if l.chSize == 1 {
				result = append(result, l.ch)
			} else {
				result = append(result, l.input[l.position:l.position+l.chSize]...)
			}
		}
		l.readChar()
	}

	if l.ch != '"' {
		err := serrors.NewWithPosition("LEX-0001", line, column, nil)
		return Token{Type: ILLEGAL, Literal: string(result), Line: line, Column: column}, err
	}
	l.readChar() // consume closing quote

	return Token{Type: STRING, Literal: string(result), Line: line, Column: column}, nil
}

// skipRestOfString drops the remainder of a string literal after an escape
// error, consuming through the closing quote so the bad span never leaks
// stray tokens into the stream.
func (l *Lexer) skipRestOfString() {
	for l.ch != '"' && l.ch != 0 {
		if l.ch == '\\' {
			l.readChar()
			if l.ch == 0 {
				return
			}
		}
		l.readChar()
	}
	if l.ch == '"' {
		l.readChar()
	}
}

// readUnicodeEscape reads the XXXX part of a \uXXXX escape. The current
// character is 'u' on entry and the last hex digit on successful exit.
func (l *Lexer) readUnicodeEscape() (rune, *serrors.Error) {
	var hex []byte
	for i := 0; i < 4; i++ {
		l.readChar()
		if !isHexDigit(l.ch) {
			return 0, serrors.NewWithPosition("LEX-0003", l.line, l.column, map[string]any{"Hex": string(hex)})
		}
		hex = append(hex, l.ch)
	}

	code, err := strconv.ParseUint(string(hex), 16, 32)
	if err != nil || !utf8.ValidRune(rune(code)) {
		return 0, serrors.NewWithPosition("LEX-0003", l.line, l.column, map[string]any{"Hex": string(hex)})
	}
	return rune(code), nil
}

// readArgument reads an unquoted argument: any run of characters up to
// whitespace or a self-delimiting structural character. Arguments matching a
// reserved word are re-classified as keyword tokens.
func (l *Lexer) readArgument(line, column int) (Token, *serrors.Error) {
	position := l.position

	for l.ch != 0 && !unicode.IsSpace(l.chRune) && !isArgumentBreak(l.ch) {
		l.readChar()
	}

	argument := l.input[position:l.position]
	if argument == "" {
		err := serrors.NewWithPosition("LEX-0006", line, column, map[string]any{"Char": string(l.chRune)})
		l.readChar()
		return Token{Type: ILLEGAL, Literal: "", Line: line, Column: column}, err
	}

	return Token{Type: LookupIdent(argument), Literal: argument, Line: line, Column: column}, nil
}

// recover skips forward to the next plausible token start after a lexical
// error: whitespace, a structural character, or an identifier start.
func (l *Lexer) recover() {
	for l.ch != 0 {
		if unicode.IsSpace(l.chRune) || isArgumentBreak(l.ch) || l.ch == '"' || isIdentifierStart(l.chRune) {
			return
		}
		l.readChar()
	}
}

// Tokenize converts selector source text into its complete token stream,
// terminated by an EOF token. Lexical errors drop the offending span; they
// never fail the stream.
func Tokenize(input string) []Token {
	return New(input).Tokenize()
}

// Tokenize drains the lexer into a complete token stream terminated by an
// EOF token. Errors encountered along the way are available from Errors.
func (l *Lexer) Tokenize() []Token {
	tokens := make([]Token, 0, len(l.input)/4+1)

	for {
		tok, err := l.NextToken()
		if err != nil {
			l.errs = append(l.errs, err)
			l.recover()
			continue
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens
		}
	}
}

// isArgumentBreak reports whether ch terminates an unquoted argument. Parens
// and brackets self-delimit so that grouped expressions and list literals
// never glue to the preceding word.
func isArgumentBreak(ch byte) bool {
	switch ch {
	case '>', ',', '"', '@', ':', '(', ')', '[', ']':
		return true
	}
	return false
}

// isIdentifierStart reports whether r can begin an identifier-like argument.
// Beyond letters and underscore, a fixed set of non-ASCII ranges (CJK, kana,
// Hangul, emoji and symbol blocks) count as identifier characters.
func isIdentifierStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || isUnicodeIdentifierPart(r)
}

// isUnicodeIdentifierPart reports whether r falls in a supported non-ASCII
// identifier range.
func isUnicodeIdentifierPart(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) || // CJK unified ideographs
		(r >= 0x3040 && r <= 0x309F) || // Hiragana
		(r >= 0x30A0 && r <= 0x30FF) || // Katakana
		(r >= 0xAC00 && r <= 0xD7AF) || // Hangul syllables
		(r >= 0x1F600 && r <= 0x1F64F) || // emoticons
		(r >= 0x1F300 && r <= 0x1F5FF) || // misc symbols and pictographs
		(r >= 0x1F680 && r <= 0x1F6FF) || // transport and map symbols
		(r >= 0x2600 && r <= 0x26FF) // misc symbols
}

func isASCIILetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}
