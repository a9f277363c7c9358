package parser

import (
	"errors"
	"io"
)

// Source is a parsed EEL function body together with the location map
// produced while preprocessing it.
type Source struct {
	Original string
	Cleaned  string
	Anchors  []Anchor
	Script   *Script
}

// ParseSource preprocesses and parses EEL source text. Positions in the
// returned AST refer to the cleaned text; use Locate to translate them.
// Positions in a returned *Error already refer to the original text.
func ParseSource(src string) (*Source, error) {
	cleaned, anchors := Preprocess(src)
	script, err := Parse(cleaned)
	if err != nil {
		var perr *Error
		if errors.As(err, &perr) {
			mapped := *perr
			mapped.Pos = Locate(anchors, perr.Pos.Offset)
			mapped.End = locateEnd(anchors, perr.Pos.Offset, perr.End.Offset)
			return nil, &mapped
		}
		return nil, err
	}
	return &Source{
		Original: src,
		Cleaned:  cleaned,
		Anchors:  anchors,
		Script:   script,
	}, nil
}

// ParseReader consumes EEL source from an io.Reader.
func ParseReader(r io.Reader) (*Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseSource(string(data))
}

// Locate translates a position in the cleaned text into the original text.
func (s *Source) Locate(pos Position) Position {
	return Locate(s.Anchors, pos.Offset)
}

// LocateSpan translates a span in the cleaned text into the original text.
func (s *Source) LocateSpan(span Span) Span {
	return Span{
		Start: Locate(s.Anchors, span.Start.Offset),
		End:   locateEnd(s.Anchors, span.Start.Offset, span.End.Offset),
	}
}

// locateEnd maps an exclusive end offset through the last character it
// covers, so a span ending right before a removed comment stays on its line.
func locateEnd(anchors []Anchor, start, end int) Position {
	if end <= start {
		return Locate(anchors, start)
	}
	last := Locate(anchors, end-1)
	last.Offset++
	last.Column++
	return last
}

// IsEmpty reports whether the script contains no statements. Bodies that
// are blank or only hold comments parse to an empty script.
func (s *Source) IsEmpty() bool {
	return s == nil || s.Script == nil || len(s.Script.Body) == 0
}
