package parser

import (
	"math"
	"strconv"
	"strings"
)

// Print renders node as canonical EEL source. Parsing the output of Print
// yields an equivalent tree, and printing that tree again yields the same
// text.
func Print(node Node) string {
	var b strings.Builder
	printNode(&b, node)
	return b.String()
}

func printNode(b *strings.Builder, node Node) {
	switch n := node.(type) {
	case *Script:
		for i, stmt := range n.Body {
			if i > 0 {
				b.WriteByte('\n')
			}
			printNode(b, stmt)
			b.WriteByte(';')
		}
	case *ExpressionBlock:
		b.WriteByte('(')
		for i, expr := range n.Body {
			if i > 0 {
				b.WriteString("; ")
			}
			printNode(b, expr)
		}
		b.WriteByte(')')
	case *BinaryExpression:
		printOperand(b, n.Left)
		b.WriteString(" " + n.Operator + " ")
		printOperand(b, n.Right)
	case *LogicalExpression:
		printOperand(b, n.Left)
		b.WriteString(" " + n.Operator + " ")
		printOperand(b, n.Right)
	case *UnaryExpression:
		b.WriteString(n.Operator)
		printOperand(b, n.Operand)
	case *AssignmentExpression:
		printNode(b, n.Left)
		b.WriteString(" " + n.Operator + " ")
		printNode(b, n.Right)
	case *CallExpression:
		b.WriteString(n.Callee.Name)
		b.WriteByte('(')
		for i, arg := range n.Arguments {
			if i > 0 {
				b.WriteString(", ")
			}
			printNode(b, arg)
		}
		b.WriteByte(')')
	case *Identifier:
		b.WriteString(n.Name)
	case *NumberLiteral:
		b.WriteString(FormatNumber(n.Value))
	case nil:
		b.WriteString("<nil>")
	}
}

// printOperand parenthesises nested operator expressions so that the
// printed text does not depend on precedence.
func printOperand(b *strings.Builder, node Node) {
	switch node.(type) {
	case *BinaryExpression, *LogicalExpression, *AssignmentExpression:
		b.WriteByte('(')
		printNode(b, node)
		b.WriteByte(')')
	default:
		printNode(b, node)
	}
}

// FormatNumber renders a literal value in the shortest decimal form that
// reads back to the same float. Non-finite values, which only arise from
// constant folding, have no EEL spelling and print as Go does.
func FormatNumber(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
