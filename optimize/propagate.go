package optimize

import "github.com/sergev/eelwasm/parser"

// PropagateConstants replaces reads of variables whose last assignment, in
// rewrite order, stored a literal. Any other assignment forgets the
// variable. The scan is linear: branches and loops are not modelled.
func PropagateConstants(node parser.Node) parser.Node {
	known := make(map[string]float64)
	return MapAST(node, func(node parser.Node) parser.Node {
		switch n := node.(type) {
		case *parser.AssignmentExpression:
			target, ok := n.Left.(*parser.Identifier)
			if !ok {
				return node
			}
			if lit, ok := n.Right.(*parser.NumberLiteral); ok && n.Operator == "=" {
				known[target.Name] = lit.Value
			} else {
				delete(known, target.Name)
			}
		case *parser.Identifier:
			if value, ok := known[n.Name]; ok {
				return &parser.NumberLiteral{Value: value, Loc: n.Loc}
			}
		}
		return node
	})
}
