package optimize

import "github.com/sergev/eelwasm/parser"

// MapAST rewrites node bottom-up. Each child is rewritten first; the node is
// rebuilt only when a child changed, so untouched subtrees keep their
// identity. fn is then applied to the (possibly rebuilt) node.
//
// Assignment targets that are plain identifiers are not children, and
// neither are callee names: a rewrite never sees a name in a position where
// it is written or called.
func MapAST(node parser.Node, fn func(parser.Node) parser.Node) parser.Node {
	switch n := node.(type) {
	case *parser.Script:
		if body, changed := mapList(n.Body, fn); changed {
			node = &parser.Script{Body: body, Loc: n.Loc}
		}
	case *parser.ExpressionBlock:
		if body, changed := mapList(n.Body, fn); changed {
			node = &parser.ExpressionBlock{Body: body, Loc: n.Loc}
		}
	case *parser.BinaryExpression:
		left := MapAST(n.Left, fn)
		right := MapAST(n.Right, fn)
		if left != n.Left || right != n.Right {
			node = &parser.BinaryExpression{Operator: n.Operator, Left: left, Right: right, Loc: n.Loc}
		}
	case *parser.LogicalExpression:
		left := MapAST(n.Left, fn)
		right := MapAST(n.Right, fn)
		if left != n.Left || right != n.Right {
			node = &parser.LogicalExpression{Operator: n.Operator, Left: left, Right: right, Loc: n.Loc}
		}
	case *parser.UnaryExpression:
		if operand := MapAST(n.Operand, fn); operand != n.Operand {
			node = &parser.UnaryExpression{Operator: n.Operator, Operand: operand, Loc: n.Loc}
		}
	case *parser.AssignmentExpression:
		left := n.Left
		if target, ok := n.Left.(*parser.CallExpression); ok {
			if args, changed := mapList(target.Arguments, fn); changed {
				left = &parser.CallExpression{Callee: target.Callee, Arguments: args, Loc: target.Loc}
			}
		}
		right := MapAST(n.Right, fn)
		if left != n.Left || right != n.Right {
			node = &parser.AssignmentExpression{Operator: n.Operator, Left: left, Right: right, Loc: n.Loc}
		}
	case *parser.CallExpression:
		if args, changed := mapList(n.Arguments, fn); changed {
			node = &parser.CallExpression{Callee: n.Callee, Arguments: args, Loc: n.Loc}
		}
	}
	return fn(node)
}

// mapList rewrites each element in order. The input slice is never modified;
// a copy is returned only when some element changed.
func mapList(nodes []parser.Node, fn func(parser.Node) parser.Node) ([]parser.Node, bool) {
	var out []parser.Node
	for i, child := range nodes {
		mapped := MapAST(child, fn)
		if mapped != child && out == nil {
			out = make([]parser.Node, len(nodes))
			copy(out, nodes[:i])
		}
		if out != nil {
			out[i] = mapped
		}
	}
	if out == nil {
		return nodes, false
	}
	return out, true
}
