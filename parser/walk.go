package parser

// Variables calls fn for every identifier that names a variable, in source
// order, including assignment targets. Callee names are not visited.
func Variables(node Node, fn func(*Identifier)) {
	switch n := node.(type) {
	case *Script:
		for _, stmt := range n.Body {
			Variables(stmt, fn)
		}
	case *ExpressionBlock:
		for _, expr := range n.Body {
			Variables(expr, fn)
		}
	case *BinaryExpression:
		Variables(n.Left, fn)
		Variables(n.Right, fn)
	case *LogicalExpression:
		Variables(n.Left, fn)
		Variables(n.Right, fn)
	case *UnaryExpression:
		Variables(n.Operand, fn)
	case *AssignmentExpression:
		Variables(n.Left, fn)
		Variables(n.Right, fn)
	case *CallExpression:
		for _, arg := range n.Arguments {
			Variables(arg, fn)
		}
	case *Identifier:
		fn(n)
	}
}

// VariableNames returns the distinct variable names in node in order of
// first appearance.
func VariableNames(node Node) []string {
	var names []string
	seen := make(map[string]bool)
	Variables(node, func(ident *Identifier) {
		if !seen[ident.Name] {
			seen[ident.Name] = true
			names = append(names, ident.Name)
		}
	})
	return names
}
