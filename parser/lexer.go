package parser

import (
	"fmt"
	"strings"
)

// lexer produces tokens on demand from preprocessed EEL text.
type lexer struct {
	src    string
	pos    int
	line   int
	column int
}

func newLexer(src string) *lexer {
	return &lexer{
		src:    src,
		line:   1,
		column: 1,
	}
}

type runeState struct {
	pos    int
	line   int
	column int
}

func (lx *lexer) mark() runeState {
	return runeState{
		pos:    lx.pos,
		line:   lx.line,
		column: lx.column,
	}
}

// peekByte returns the byte at the cursor, or 0 at end of input.
func (lx *lexer) peekByte() byte {
	if lx.pos >= len(lx.src) {
		return 0
	}
	return lx.src[lx.pos]
}

func (lx *lexer) peekByteAt(n int) byte {
	if lx.pos+n >= len(lx.src) {
		return 0
	}
	return lx.src[lx.pos+n]
}

func (lx *lexer) readByte() byte {
	c := lx.src[lx.pos]
	lx.pos++
	if c == '\n' {
		lx.line++
		lx.column = 1
	} else {
		lx.column++
	}
	return c
}

func (lx *lexer) skipWhitespace() error {
	for lx.pos < len(lx.src) {
		c := lx.peekByte()
		switch {
		case isSpace(c):
			lx.readByte()
		case c == '/' && lx.peekByteAt(1) == '/':
			for lx.pos < len(lx.src) && lx.peekByte() != '\n' {
				lx.readByte()
			}
		case c == '/' && lx.peekByteAt(1) == '*':
			start := lx.mark()
			lx.readByte()
			lx.readByte()
			for {
				if lx.pos >= len(lx.src) {
					return newIncompleteError(fmt.Errorf("unterminated block comment"), positionFromState(start), "/*")
				}
				if lx.peekByte() == '*' && lx.peekByteAt(1) == '/' {
					lx.readByte()
					lx.readByte()
					break
				}
				lx.readByte()
			}
		default:
			return nil
		}
	}
	return nil
}

func (lx *lexer) nextToken() (Token, error) {
	if err := lx.skipWhitespace(); err != nil {
		return Token{}, err
	}
	start := lx.mark()
	if lx.pos >= len(lx.src) {
		return Token{
			Type: tokenEOF,
			Pos:  positionFromState(start),
		}, nil
	}

	c := lx.peekByte()
	switch {
	case isIdentifierStart(c):
		lexeme := lx.scanIdentifier()
		return makeIdentifierToken(lexeme, start), nil
	case isDigit(c) || (c == '.' && isDigit(lx.peekByteAt(1))):
		lexeme := lx.scanNumber()
		return Token{
			Type:   tokenNumber,
			Lexeme: lexeme,
			Pos:    positionFromState(start),
		}, nil
	}

	lx.readByte()
	var tt TokenType
	switch c {
	case '+':
		tt = lx.either('=', tokenPlusAssign, tokenPlus)
	case '-':
		tt = lx.either('=', tokenMinusAssign, tokenMinus)
	case '*':
		tt = lx.either('=', tokenStarAssign, tokenStar)
	case '/':
		tt = lx.either('=', tokenSlashAssign, tokenSlash)
	case '%':
		tt = lx.either('=', tokenPercentAssign, tokenPercent)
	case '=':
		tt = lx.either('=', tokenEqualEqual, tokenAssign)
	case '!':
		tt = lx.either('=', tokenBangEqual, tokenBang)
	case '<':
		tt = lx.either('=', tokenLessEqual, tokenLess)
	case '>':
		tt = lx.either('=', tokenGreaterEqual, tokenGreater)
	case '&':
		tt = lx.either('&', tokenAndAnd, tokenAmpersand)
	case '|':
		tt = lx.either('|', tokenOrOr, tokenPipe)
	case '^':
		tt = tokenCaret
	case '?':
		tt = tokenQuestion
	case ':':
		tt = tokenColon
	case ',':
		tt = tokenComma
	case ';':
		tt = tokenSemicolon
	case '(':
		tt = tokenLParen
	case ')':
		tt = tokenRParen
	default:
		tok := Token{
			Type:   tokenIllegal,
			Lexeme: string(c),
			Pos:    positionFromState(start),
		}
		return tok, newTokenError(fmt.Errorf("unexpected character %q", c), tok, nil)
	}
	return Token{
		Type:   tt,
		Lexeme: lx.src[start.pos:lx.pos],
		Pos:    positionFromState(start),
	}, nil
}

// either consumes next and returns matched when the following byte is next.
func (lx *lexer) either(next byte, matched, otherwise TokenType) TokenType {
	if lx.peekByte() == next && lx.pos < len(lx.src) {
		lx.readByte()
		return matched
	}
	return otherwise
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentifierStart(c byte) bool {
	return isLetter(c) || c == '_'
}

func isIdentifierPart(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_' || c == '.'
}

func (lx *lexer) scanIdentifier() string {
	start := lx.pos
	for lx.pos < len(lx.src) && isIdentifierPart(lx.peekByte()) {
		lx.readByte()
	}
	return lx.src[start:lx.pos]
}

// scanNumber accepts DIGITS, DIGITS.DIGITS, .DIGITS and DIGITS.
func (lx *lexer) scanNumber() string {
	start := lx.pos
	for isDigit(lx.peekByte()) {
		lx.readByte()
	}
	if lx.peekByte() == '.' {
		lx.readByte()
		for isDigit(lx.peekByte()) {
			lx.readByte()
		}
	}
	return lx.src[start:lx.pos]
}

// IsIdentifier reports whether name lexes as a single variable name.
func IsIdentifier(name string) bool {
	if name == "" || !isIdentifierStart(name[0]) || strings.EqualFold(name, "if") {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isIdentifierPart(name[i]) {
			return false
		}
	}
	return true
}

func makeIdentifierToken(lexeme string, start runeState) Token {
	tt := tokenIdentifier
	if strings.EqualFold(lexeme, "if") {
		tt = tokenIf
	}
	return Token{
		Type:   tt,
		Lexeme: lexeme,
		Pos:    positionFromState(start),
	}
}

func positionFromState(state runeState) Position {
	return Position{
		Offset: state.pos,
		Line:   state.line,
		Column: state.column,
	}
}

// endOf returns the position just past tok.
func endOf(tok Token) Position {
	return Position{
		Offset: tok.Pos.Offset + len(tok.Lexeme),
		Line:   tok.Pos.Line,
		Column: tok.Pos.Column + len(tok.Lexeme),
	}
}
