package parser

import (
	"sort"
	"strings"
)

// Anchor correlates an offset in preprocessed text with the original source.
// Between two consecutive anchors the cleaned text is a verbatim copy of the
// original, so offsets past an anchor translate by plain addition.
type Anchor struct {
	DestOffset int // offset in the preprocessed text
	SrcOffset  int // byte offset in the original text
	Line       int // one-based line in the original text
	Column     int // one-based column in the original text
}

// Preprocess strips comments and normalises line breaks. It returns the
// cleaned text and the anchors needed to map cleaned offsets back to the
// original source with Locate.
//
// A `*/` without a matching `/*` is passed through unchanged. An unterminated
// `/*` comments out the rest of the input.
func Preprocess(src string) (string, []Anchor) {
	var out strings.Builder
	out.Grow(len(src))

	line, column := 1, 1
	anchors := []Anchor{{DestOffset: 0, SrcOffset: 0, Line: 1, Column: 1}}
	mark := func(srcOffset int) {
		anchors = append(anchors, Anchor{
			DestOffset: out.Len(),
			SrcOffset:  srcOffset,
			Line:       line,
			Column:     column,
		})
	}

	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\r' || c == '\n':
			if c == '\r' && i+1 < len(src) && src[i+1] == '\n' {
				i++
			}
			i++
			out.WriteByte('\n')
			line++
			column = 1
			mark(i)
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			end := i + 2
			for end < len(src) && src[end] != '\n' && src[end] != '\r' {
				end++
			}
			column += end - i
			i = end
			mark(i)
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			// The comment collapses to one space so that `a/**/b` stays two tokens.
			out.WriteByte(' ')
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				end = len(src)
			} else {
				end = i + 2 + end + 2
			}
			for j := i; j < end; j++ {
				switch src[j] {
				case '\r':
					if j+1 < end && src[j+1] == '\n' {
						j++
					}
					line++
					column = 1
				case '\n':
					line++
					column = 1
				default:
					column++
				}
			}
			i = end
			mark(i)
		default:
			out.WriteByte(c)
			column++
			i++
		}
	}
	return out.String(), anchors
}

// OpenComment reports whether src ends inside an unterminated `/*`
// comment, following the same rules as Preprocess.
func OpenComment(src string) bool {
	for i := 0; i+1 < len(src); i++ {
		if src[i] != '/' {
			continue
		}
		switch src[i+1] {
		case '/':
			for i < len(src) && src[i] != '\n' && src[i] != '\r' {
				i++
			}
		case '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return true
			}
			i += 2 + end + 1
		}
	}
	return false
}

// Locate maps an offset in preprocessed text back to the original source.
// It uses the last anchor whose destination offset is not past destOffset.
func Locate(anchors []Anchor, destOffset int) Position {
	idx := sort.Search(len(anchors), func(i int) bool {
		return anchors[i].DestOffset > destOffset
	})
	if idx == 0 {
		return Position{Offset: destOffset, Line: 1, Column: destOffset + 1}
	}
	a := anchors[idx-1]
	delta := destOffset - a.DestOffset
	return Position{
		Offset: a.SrcOffset + delta,
		Line:   a.Line,
		Column: a.Column + delta,
	}
}
