package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/sergev/eelwasm/compiler"
	"github.com/sergev/eelwasm/parser"
)

var (
	errorLabel  = color.New(color.FgRed, color.Bold)
	markerColor = color.New(color.FgGreen, color.Bold)
)

// reportError prints err. Compile errors are followed by an excerpt of the
// source with the offending span marked.
func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s: %v\n", errorLabel.Sprint("error"), err)
	var cerr *compiler.Error
	if !errors.As(err, &cerr) {
		return
	}
	excerpt := cerr.Excerpt(compiler.DefaultExcerptOptions)
	for _, line := range strings.SplitAfter(excerpt, "\n") {
		if rest, ok := strings.CutPrefix(line, "     | "); ok {
			fmt.Fprint(w, "     | ", markerColor.Sprint(strings.TrimSuffix(rest, "\n")), "\n")
			continue
		}
		fmt.Fprint(w, line)
	}
}

// sourceError gives a parse error of a standalone file the same shape as
// a compile error.
func sourceError(name, src string, err error) error {
	var perr *parser.Error
	if !errors.As(err, &perr) {
		return err
	}
	return &compiler.Error{
		Kind:     compiler.UserError,
		Function: name,
		Source:   src,
		Err:      err,
		Loc: compiler.Loc{
			Line:      perr.Pos.Line,
			Column:    perr.Pos.Column,
			EndLine:   perr.End.Line,
			EndColumn: perr.End.Column,
		},
	}
}
