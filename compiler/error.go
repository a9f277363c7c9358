package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sergev/eelwasm/parser"
)

// Kind classifies a compile failure.
type Kind int

const (
	// UserError reports malformed EEL or an invalid declaration.
	UserError Kind = iota
	// CompilerError reports a broken internal invariant.
	CompilerError
)

func (k Kind) String() string {
	if k == CompilerError {
		return "compiler error"
	}
	return "error"
}

// Loc is a one-based span in the original, unpreprocessed source.
type Loc struct {
	Line      int
	Column    int
	EndLine   int
	EndColumn int
}

// IsZero reports whether no location is known.
func (l Loc) IsZero() bool { return l.Line == 0 }

func locFromSpan(span parser.Span) Loc {
	return Loc{
		Line:      span.Start.Line,
		Column:    span.Start.Column,
		EndLine:   span.End.Line,
		EndColumn: span.End.Column,
	}
}

// Error is returned by Compile. Source holds the original text of the
// function the error belongs to, when there is one.
type Error struct {
	Kind     Kind
	Function string
	Loc      Loc
	Source   string
	Err      error
}

func (e *Error) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	var b strings.Builder
	if e.Kind == CompilerError {
		b.WriteString("internal compiler error: ")
	}
	if e.Function != "" {
		fmt.Fprintf(&b, "function %q", e.Function)
		if !e.Loc.IsZero() {
			fmt.Fprintf(&b, " at %d:%d", e.Loc.Line, e.Loc.Column)
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Message())
	return b.String()
}

// Message is the error text without function or position.
func (e *Error) Message() string {
	var perr *parser.Error
	if errors.As(e.Err, &perr) {
		return perr.Message()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ExcerptOptions selects how many source lines surround the marked line.
type ExcerptOptions struct {
	Before int
	After  int
}

// DefaultExcerptOptions shows one line of context on each side.
var DefaultExcerptOptions = ExcerptOptions{Before: 1, After: 1}

// Excerpt renders the numbered source lines around the error with the
// offending span underlined. It returns "" when the error has no location
// or no source.
func (e *Error) Excerpt(opts ExcerptOptions) string {
	if e == nil || e.Loc.IsZero() || e.Source == "" {
		return ""
	}
	lines := strings.Split(normalizeNewlines(e.Source), "\n")
	line := clamp(e.Loc.Line, 1, len(lines))
	first := clamp(line-opts.Before, 1, line)
	last := clamp(line+opts.After, line, len(lines))

	var b strings.Builder
	for n := first; n <= last; n++ {
		fmt.Fprintf(&b, "%4d | %s\n", n, lines[n-1])
		if n == line {
			fmt.Fprintf(&b, "     | %s\n", marker(lines[n-1], e.Loc))
		}
	}
	return b.String()
}

// marker builds the ^~~~ line for loc within text. Spans that run past the
// end of the line are cut at the line end.
func marker(text string, loc Loc) string {
	col := clamp(loc.Column, 1, len(text)+1)
	width := 1
	if loc.EndLine == loc.Line && loc.EndColumn > col {
		width = loc.EndColumn - col
	} else if loc.EndLine > loc.Line {
		width = len(text) + 1 - col
	}
	if width < 1 {
		width = 1
	}
	return strings.Repeat(" ", col-1) + "^" + strings.Repeat("~", width-1)
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// IsUserError reports whether err is a compile failure caused by the input.
func IsUserError(err error) bool {
	var cerr *Error
	return errors.As(err, &cerr) && cerr.Kind == UserError
}

// IsCompilerError reports whether err signals a bug in the compiler.
func IsCompilerError(err error) bool {
	var cerr *Error
	return errors.As(err, &cerr) && cerr.Kind == CompilerError
}

func userErrorf(format string, args ...any) *Error {
	return &Error{Kind: UserError, Err: fmt.Errorf(format, args...)}
}

func compilerErrorf(format string, args ...any) *Error {
	return &Error{Kind: CompilerError, Err: fmt.Errorf(format, args...)}
}
