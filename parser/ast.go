package parser

import "strings"

// Position tracks a location within preprocessed EEL source.
type Position struct {
	Offset int // zero-based byte offset
	Line   int // one-based line number
	Column int // one-based column number
}

// Span covers the source text of a node. End is exclusive.
type Span struct {
	Start Position
	End   Position
}

// IsZero reports whether the span was synthesized rather than parsed.
func (s Span) IsZero() bool {
	return s == Span{}
}

// Node represents any AST node. The set of implementations is closed:
// every node type lives in this file.
type Node interface {
	Span() Span
	exprNode()
}

// Script is the root of a parsed function body.
type Script struct {
	Body []Node
	Loc  Span
}

func (n *Script) Span() Span { return n.Loc }
func (*Script) exprNode()    {}

// ExpressionBlock is a `;`-separated sequence evaluating to its last element.
type ExpressionBlock struct {
	Body []Node
	Loc  Span
}

func (n *ExpressionBlock) Span() Span { return n.Loc }
func (*ExpressionBlock) exprNode()    {}

// BinaryExpression applies one of + - * / % & | ^ == != < > <= >=.
type BinaryExpression struct {
	Operator    string
	Left, Right Node
	Loc         Span
}

func (n *BinaryExpression) Span() Span { return n.Loc }
func (*BinaryExpression) exprNode()    {}

// UnaryExpression applies one of - + ! to its operand.
type UnaryExpression struct {
	Operator string
	Operand  Node
	Loc      Span
}

func (n *UnaryExpression) Span() Span { return n.Loc }
func (*UnaryExpression) exprNode()    {}

// LogicalExpression is a short-circuiting && or ||.
type LogicalExpression struct {
	Operator    string
	Left, Right Node
	Loc         Span
}

func (n *LogicalExpression) Span() Span { return n.Loc }
func (*LogicalExpression) exprNode()    {}

// AssignmentExpression stores into an identifier or a buffer slot.
// Left is either *Identifier or a *CallExpression to megabuf/gmegabuf.
type AssignmentExpression struct {
	Operator string
	Left     Node
	Right    Node
	Loc      Span
}

func (n *AssignmentExpression) Span() Span { return n.Loc }
func (*AssignmentExpression) exprNode()    {}

// CallExpression invokes a builtin by name.
type CallExpression struct {
	Callee    *Identifier
	Arguments []Node
	Loc       Span
}

func (n *CallExpression) Span() Span { return n.Loc }
func (*CallExpression) exprNode()    {}

// Identifier names a variable or function. Name is lower-cased.
type Identifier struct {
	Name string
	Loc  Span
}

func (n *Identifier) Span() Span { return n.Loc }
func (*Identifier) exprNode()    {}

// NumberLiteral is a 64-bit float constant.
type NumberLiteral struct {
	Value float64
	Loc   Span
}

func (n *NumberLiteral) Span() Span { return n.Loc }
func (*NumberLiteral) exprNode()    {}

// Normalize returns the form of name used for comparison. EEL names are
// case-insensitive.
func Normalize(name string) string {
	return strings.ToLower(name)
}

// IsBufferName reports whether name addresses one of the two flat buffers.
func IsBufferName(name string) bool {
	return name == "megabuf" || name == "gmegabuf"
}
