package optimize

import "github.com/sergev/eelwasm/parser"

// FoldConstants evaluates unary `-`/`+` applied to literals and the binary
// operators + - * / when both operands are literals. Division by a literal
// zero folds to the IEEE result.
func FoldConstants(node parser.Node) parser.Node {
	return MapAST(node, folder{}.fold)
}

// foldClamped is FoldConstants with division by zero folding to 0, the
// value the compiled division yields at run time.
func foldClamped(node parser.Node) parser.Node {
	return MapAST(node, folder{clampDivision: true}.fold)
}

type folder struct {
	clampDivision bool
}

func (f folder) fold(node parser.Node) parser.Node {
	switch n := node.(type) {
	case *parser.UnaryExpression:
		lit, ok := n.Operand.(*parser.NumberLiteral)
		if !ok {
			return node
		}
		switch n.Operator {
		case "-":
			return &parser.NumberLiteral{Value: -lit.Value, Loc: n.Loc}
		case "+":
			return lit
		}
	case *parser.BinaryExpression:
		left, ok := n.Left.(*parser.NumberLiteral)
		if !ok {
			return node
		}
		right, ok := n.Right.(*parser.NumberLiteral)
		if !ok {
			return node
		}
		var value float64
		switch n.Operator {
		case "+":
			value = left.Value + right.Value
		case "-":
			value = left.Value - right.Value
		case "*":
			value = left.Value * right.Value
		case "/":
			if f.clampDivision && right.Value == 0 {
				value = 0
			} else {
				value = left.Value / right.Value
			}
		default:
			return node
		}
		return &parser.NumberLiteral{Value: value, Loc: n.Loc}
	}
	return node
}
