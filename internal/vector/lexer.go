package vector

import (
	"strconv"

	"emperror.dev/errors"

	"line-art-processing/internal/core"
)

// TokenKind distinguishes command letters from numbers in path data.
type TokenKind int

const (
	TokenCommand TokenKind = iota
	TokenNumber
)

// Token is one lexical item of a path "d" attribute.
type Token struct {
	Kind    TokenKind
	Command byte
	Value   float64
	Offset  int
}

func (t Token) String() string {
	if t.Kind == TokenCommand {
		return string(t.Command)
	}
	return strconv.FormatFloat(t.Value, 'g', -1, 64)
}

const commandLetters = "MmLlHhVvCcSsQqTtAaZz"

// Lexer splits path data into command and number tokens. Whitespace and
// commas separate tokens; a sign or a second decimal point also starts a new
// number, so "10-5" and "1.5.5" lex as two numbers each.
type Lexer struct {
	src string
	pos int
}

func NewLexer(src string) *Lexer {
	return &Lexer{src: src}
}

// Next returns the next token. ok is false at the end of input.
func (l *Lexer) Next() (tok Token, ok bool, err error) {
	l.skipSeparators()
	if l.pos >= len(l.src) {
		return Token{}, false, nil
	}

	c := l.src[l.pos]
	if isCommand(c) {
		tok = Token{Kind: TokenCommand, Command: c, Offset: l.pos}
		l.pos++
		return tok, true, nil
	}

	if isNumberStart(c) {
		return l.number()
	}

	return Token{}, false, errors.WithMessagef(core.ErrMaskGeneration, "unexpected character %q at offset %d", c, l.pos)
}

func (l *Lexer) skipSeparators() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\n', '\r', '\f', ',':
			l.pos++
		default:
			return
		}
	}
}

func (l *Lexer) number() (Token, bool, error) {
	start := l.pos
	if l.src[l.pos] == '+' || l.src[l.pos] == '-' {
		l.pos++
	}

	digits := l.digits()
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		l.pos++
		digits += l.digits()
	}
	if digits == 0 {
		return Token{}, false, errors.WithMessagef(core.ErrMaskGeneration, "malformed number at offset %d", start)
	}

	// An "e" without exponent digits is left for the next token.
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		mark := l.pos
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		if l.digits() == 0 {
			l.pos = mark
		}
	}

	text := l.src[start:l.pos]
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Token{}, false, errors.WithMessagef(core.ErrMaskGeneration, "invalid number %q: %v", text, err)
	}
	return Token{Kind: TokenNumber, Value: value, Offset: start}, true, nil
}

func (l *Lexer) digits() int {
	n := 0
	for l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '9' {
		l.pos++
		n++
	}
	return n
}

func isCommand(c byte) bool {
	for i := 0; i < len(commandLetters); i++ {
		if commandLetters[i] == c {
			return true
		}
	}
	return false
}

func isNumberStart(c byte) bool {
	return c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9')
}

// Tokenize lexes all of src.
func Tokenize(src string) ([]Token, error) {
	lexer := NewLexer(src)
	tokens := make([]Token, 0, len(src)/3)
	for {
		tok, ok, err := lexer.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}
