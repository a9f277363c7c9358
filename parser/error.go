package parser

import (
	"errors"
	"fmt"
	"strings"
)

// Error represents a parse failure with the offending token and the set of
// tokens that would have been accepted in its place.
type Error struct {
	Err        error
	Pos        Position // start of the offending token
	End        Position // just past the offending token
	Token      string   // offending token as written; empty at end of input
	Expected   []string // accepted alternatives, quoted where literal
	Incomplete bool     // input ended before the construct was closed
}

func (e *Error) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message())
}

// Message is the error text without the position prefix.
func (e *Error) Message() string {
	if e == nil || e.Err == nil {
		return ""
	}
	if len(e.Expected) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s, expected %s", e.Err.Error(), joinExpected(e.Expected))
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func joinExpected(expected []string) string {
	if len(expected) == 1 {
		return expected[0]
	}
	return "one of " + strings.Join(expected, ", ")
}

func newTokenError(err error, tok Token, expected []string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Err:        err,
		Pos:        tok.Pos,
		End:        endOf(tok),
		Token:      tok.Lexeme,
		Expected:   expected,
		Incomplete: tok.Type == tokenEOF,
	}
}

func newIncompleteError(err error, pos Position, token string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Err:        err,
		Pos:        pos,
		End:        Position{Offset: pos.Offset + len(token), Line: pos.Line, Column: pos.Column + len(token)},
		Token:      token,
		Incomplete: true,
	}
}

// IsIncomplete reports whether the supplied error represents incomplete input.
func IsIncomplete(err error) bool {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Incomplete
	}
	return false
}
