// Package optimize rewrites EEL syntax trees. Every pass is built on MapAST,
// so a pass that finds nothing to do returns its input unchanged by
// identity.
package optimize

import (
	"github.com/golang/glog"

	"github.com/sergev/eelwasm/parser"
)

// DefaultMaxRounds bounds the fixpoint loop.
const DefaultMaxRounds = 1000

// Options tunes Run.
type Options struct {
	// MaxRounds bounds the fixpoint loop; values below one select
	// DefaultMaxRounds.
	MaxRounds int
	// ClampDivision folds division by a literal zero to 0 instead of an
	// infinity or NaN.
	ClampDivision bool
}

// Optimize applies constant propagation followed by constant folding until
// a round leaves the tree unchanged.
func Optimize(node parser.Node) parser.Node {
	out, _ := Run(node, Options{})
	return out
}

// Fixpoint is Optimize with an explicit round limit. It returns the
// rewritten tree and the number of rounds run, including the final round
// that changed nothing. A limit below one selects DefaultMaxRounds.
func Fixpoint(node parser.Node, maxRounds int) (parser.Node, int) {
	return Run(node, Options{MaxRounds: maxRounds})
}

// Run is the fixpoint driver behind Optimize and Fixpoint.
func Run(node parser.Node, opts Options) (parser.Node, int) {
	maxRounds := opts.MaxRounds
	if maxRounds < 1 {
		maxRounds = DefaultMaxRounds
	}
	fold := FoldConstants
	if opts.ClampDivision {
		fold = foldClamped
	}
	for round := 1; round <= maxRounds; round++ {
		next := fold(PropagateConstants(node))
		if next == node {
			return node, round
		}
		node = next
	}
	glog.Warningf("optimizer stopped after %d rounds without reaching a fixpoint", maxRounds)
	return node, maxRounds
}
